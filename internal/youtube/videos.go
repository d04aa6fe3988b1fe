package youtube

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/cache"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/actuallystonmai/influencer-sync/internal/logging"
	"github.com/actuallystonmai/influencer-sync/internal/retry"
	"github.com/rs/zerolog"
)

const (
	defaultVideoTTL   = 30 * time.Minute
	defaultUploadsTTL = 24 * time.Hour
	// RetentionWindow is how far back a video may be published and still count.
	RetentionWindow = 365 * 24 * time.Hour
	// candidateFactor over-fetches uploads to absorb filtering losses.
	candidateFactor = 3
	minTitleLength  = 3
)

type RejectReason string

const (
	RejectNone         RejectReason = ""
	RejectForeign      RejectReason = "foreign_channel"
	RejectNotPublic    RejectReason = "not_public"
	RejectStale        RejectReason = "stale"
	RejectInvalidTitle RejectReason = "invalid_title"
)

var placeholderTitles = []string{"deleted video", "private video"}

type VideoConfig struct {
	VideoTTL   time.Duration
	UploadsTTL time.Duration
}

// VideoFetcher loads a channel's recent public uploads.
type VideoFetcher struct {
	upstream   Upstream
	cache      *cache.Memory
	policy     retry.Policy
	videoTTL   time.Duration
	uploadsTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewVideoFetcher(upstream Upstream, c *cache.Memory, policy retry.Policy, cfg VideoConfig) *VideoFetcher {
	if cfg.VideoTTL <= 0 {
		cfg.VideoTTL = defaultVideoTTL
	}
	if cfg.UploadsTTL <= 0 {
		cfg.UploadsTTL = defaultUploadsTTL
	}
	return &VideoFetcher{
		upstream:   upstream,
		cache:      c,
		policy:     policy,
		videoTTL:   cfg.VideoTTL,
		uploadsTTL: cfg.UploadsTTL,
		logger:     logging.Component("videos"),
		now:        time.Now,
	}
}

// FetchRecentVideos returns at most maxResults retained videos of the
// channel, most recent first.
func (f *VideoFetcher) FetchRecentVideos(ctx context.Context, channelID string, maxResults int) ([]domain.Video, error) {
	if f.upstream == nil {
		return nil, domain.ErrMissingCredential
	}
	if maxResults <= 0 {
		return []domain.Video{}, nil
	}

	key := fmt.Sprintf("videos:%s:%d", channelID, maxResults)
	if cached, ok := cache.GetAs[[]domain.Video](f.cache, key); ok {
		return slices.Clone(cached), nil
	}

	playlistID, err := f.uploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}

	candidateIDs, err := retry.Execute(ctx, f.policy, func(ctx context.Context) ([]string, error) {
		return f.upstream.PlaylistVideoIDs(ctx, playlistID, maxResults*candidateFactor)
	})
	if err != nil {
		return nil, fmt.Errorf("list uploads of %s: %w", channelID, err)
	}

	candidates := make([]domain.Video, 0, len(candidateIDs))
	for batch := range slices.Chunk(candidateIDs, MaxBatchSize) {
		found, err := retry.Execute(ctx, f.policy, func(ctx context.Context) ([]domain.Video, error) {
			return f.upstream.VideosByID(ctx, batch)
		})
		if err != nil {
			return nil, fmt.Errorf("video details of %s: %w", channelID, err)
		}
		candidates = append(candidates, found...)
	}

	now := f.now()
	videos := make([]domain.Video, 0, maxResults)
	for _, v := range candidates {
		if reason := Classify(v, channelID, now); reason != RejectNone {
			f.logger.Debug().
				Str("channel_id", channelID).
				Str("video_id", v.ID).
				Str("reason", string(reason)).
				Msg("video rejected")
			continue
		}
		videos = append(videos, v)
	}

	slices.SortStableFunc(videos, func(a, b domain.Video) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	if len(videos) > maxResults {
		videos = videos[:maxResults]
	}

	f.cache.Set(key, slices.Clone(videos), f.videoTTL)
	f.logger.Debug().
		Str("channel_id", channelID).
		Int("candidates", len(candidates)).
		Int("retained", len(videos)).
		Msg("recent videos fetched")
	return videos, nil
}

func (f *VideoFetcher) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	key := "uploads:" + channelID
	if id, ok := cache.GetAs[string](f.cache, key); ok {
		return id, nil
	}

	id, err := retry.Execute(ctx, f.policy, func(ctx context.Context) (string, error) {
		return f.upstream.UploadsPlaylistID(ctx, channelID)
	})
	if err != nil {
		return "", fmt.Errorf("uploads playlist of %s: %w", channelID, err)
	}

	f.cache.Set(key, id, f.uploadsTTL)
	return id, nil
}

// Classify applies the retention predicate and returns why v is rejected,
// or RejectNone when it is kept.
func Classify(v domain.Video, channelID string, now time.Time) RejectReason {
	switch {
	case v.ChannelID != channelID:
		return RejectForeign
	case v.PrivacyStatus != "public":
		return RejectNotPublic
	case v.PublishedAt.IsZero() || now.Sub(v.PublishedAt) > RetentionWindow:
		return RejectStale
	case !validTitle(v.Title):
		return RejectInvalidTitle
	}
	return RejectNone
}

// Retain reports whether v counts toward the channel's recent videos.
func Retain(v domain.Video, channelID string, now time.Time) bool {
	return Classify(v, channelID, now) == RejectNone
}

func validTitle(title string) bool {
	title = strings.TrimSpace(title)
	if len([]rune(title)) < minTitleLength {
		return false
	}
	for _, p := range placeholderTitles {
		if strings.EqualFold(title, p) {
			return false
		}
	}
	return true
}
