package youtube

import (
	"context"
	"sync"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

// fakeUpstream serves canned channels and videos and counts calls.
type fakeUpstream struct {
	mu sync.Mutex

	search   map[string][]string
	channels map[string]domain.Channel
	uploads  map[string]string
	playlist map[string][]string
	videos   map[string]domain.Video

	searchErrs  []error
	channelErrs []error

	searchCalls   int
	channelCalls  int
	channelBatch  []int
	uploadsCalls  int
	playlistCalls int
	playlistMax   []int
	videoCalls    int
}

func (f *fakeUpstream) SearchChannelIDs(ctx context.Context, term string, maxResults int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if len(f.searchErrs) > 0 {
		err := f.searchErrs[0]
		f.searchErrs = f.searchErrs[1:]
		return nil, err
	}
	ids := f.search[term]
	if int64(len(ids)) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

func (f *fakeUpstream) ChannelsByID(ctx context.Context, ids []string) ([]domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelCalls++
	f.channelBatch = append(f.channelBatch, len(ids))
	if len(f.channelErrs) > 0 {
		err := f.channelErrs[0]
		f.channelErrs = f.channelErrs[1:]
		return nil, err
	}
	var out []domain.Channel
	for _, id := range ids {
		if ch, ok := f.channels[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeUpstream) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadsCalls++
	id, ok := f.uploads[channelID]
	if !ok {
		return "", domain.ErrUploadsNotFound
	}
	return id, nil
}

func (f *fakeUpstream) PlaylistVideoIDs(ctx context.Context, playlistID string, max int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlistCalls++
	f.playlistMax = append(f.playlistMax, max)
	ids := f.playlist[playlistID]
	if len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (f *fakeUpstream) VideosByID(ctx context.Context, ids []string) ([]domain.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoCalls++
	var out []domain.Video
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}
