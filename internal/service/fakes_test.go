package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/cache"
	"github.com/actuallystonmai/influencer-sync/internal/catalog"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/actuallystonmai/influencer-sync/internal/retry"
	"github.com/actuallystonmai/influencer-sync/internal/youtube"
)

var errStoreDown = errors.New("store unavailable")

type memStore struct {
	mu        sync.Mutex
	rows      map[string]domain.Influencer
	nextID    int64
	upserts   int
	failAfter int
	searchErr error
}

func newMemStore(seed ...domain.Influencer) *memStore {
	s := &memStore{rows: make(map[string]domain.Influencer)}
	for _, inf := range seed {
		_ = s.UpsertInfluencer(context.Background(), &inf)
	}
	s.upserts = 0
	return s
}

func rowKey(name, platform string) string {
	return name + "|" + platform
}

func (s *memStore) UpsertInfluencer(ctx context.Context, inf *domain.Influencer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter > 0 && s.upserts >= s.failAfter {
		return errStoreDown
	}
	s.upserts++
	if inf.Platform == "" {
		inf.Platform = domain.PlatformYouTube
	}
	key := rowKey(inf.Name, inf.Platform)
	if existing, ok := s.rows[key]; ok {
		inf.ID = existing.ID
		inf.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		inf.ID = s.nextID
		inf.CreatedAt = time.Now()
	}
	inf.UpdatedAt = time.Now()
	s.rows[key] = *inf
	return nil
}

func (s *memStore) SearchInfluencers(ctx context.Context, filter domain.SearchFilter) ([]domain.Influencer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchErr != nil {
		return nil, s.searchErr
	}

	var out []domain.Influencer
	for _, inf := range s.rows {
		if len(filter.Keywords) > 0 && !matchesKeyword(inf, filter.Keywords) {
			continue
		}
		if len(filter.Categories) > 0 && !overlaps(inf.Categories, filter.Categories) {
			continue
		}
		out = append(out, inf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Followers > out[j].Followers })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesKeyword(inf domain.Influencer, keywords []string) bool {
	text := strings.ToLower(inf.Name + " " + inf.Handle + " " + inf.Bio)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func (s *memStore) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []domain.Identity
	for _, inf := range s.rows {
		ids = append(ids, inf.Identity())
	}
	return ids, nil
}

func (s *memStore) CountInfluencers(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows), nil
}

func (s *memStore) Ping(ctx context.Context) error {
	return nil
}

func (s *memStore) get(name string) (domain.Influencer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inf, ok := s.rows[rowKey(name, domain.PlatformYouTube)]
	return inf, ok
}

// fakeUpstream serves canned YouTube data.
type fakeUpstream struct {
	mu         sync.Mutex
	search     map[string][]string
	searchErrs map[string]error
	channels   map[string]domain.Channel
	uploads    map[string]string
	playlist   map[string][]string
	videos     map[string]domain.Video

	searchCalls int
}

func (f *fakeUpstream) SearchChannelIDs(ctx context.Context, term string, maxResults int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if err := f.searchErrs[term]; err != nil {
		return nil, err
	}
	return f.search[term], nil
}

func (f *fakeUpstream) ChannelsByID(ctx context.Context, ids []string) ([]domain.Channel, error) {
	var out []domain.Channel
	for _, id := range ids {
		if ch, ok := f.channels[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeUpstream) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	id, ok := f.uploads[channelID]
	if !ok {
		return "", domain.ErrUploadsNotFound
	}
	return id, nil
}

func (f *fakeUpstream) PlaylistVideoIDs(ctx context.Context, playlistID string, max int) ([]string, error) {
	ids := f.playlist[playlistID]
	if len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (f *fakeUpstream) VideosByID(ctx context.Context, ids []string) ([]domain.Video, error) {
	var out []domain.Video
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

const testCatalog = `
terms: [tech review]
default_categories: [Content Creator, YouTube]
popular_channels: [UCPOP]
families:
  - name: technology
    keywords: [tech]
    categories: [Technology, Reviews]
`

type fixture struct {
	svc      *Service
	store    *memStore
	upstream *fakeUpstream
	cache    *cache.Memory
}

// newFixture wires a Service to fakes. A nil upstream leaves the YouTube
// credential unconfigured.
func newFixture(t *testing.T, up *fakeUpstream, store *memStore, catalogYAML string, opts Options) *fixture {
	t.Helper()

	cat, err := catalog.Parse([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}

	var upstream youtube.Upstream
	if up != nil {
		upstream = up
	}

	mem := cache.NewMemory(100)
	policy := retry.Policy{MaxRetries: 1, BaseDelay: time.Millisecond, Classifier: youtube.IsQuotaError}
	svc := NewService(Deps{
		Store:    store,
		Cache:    mem,
		Resolver: youtube.NewResolver(upstream, mem, policy, youtube.ResolverConfig{}),
		Videos:   youtube.NewVideoFetcher(upstream, mem, policy, youtube.VideoConfig{}),
		Catalog:  cat,
	}, opts)

	return &fixture{svc: svc, store: store, upstream: up, cache: mem}
}

func daysAgo(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour)
}

// techUpstream returns two channels for "tech review". UC1 has five uploads,
// one private and one older than a year. UC2 has no uploads playlist.
func techUpstream() *fakeUpstream {
	return &fakeUpstream{
		search: map[string][]string{"tech review": {"UC1", "UC2"}},
		channels: map[string]domain.Channel{
			"UC1": {ID: "UC1", Title: "Jane Tech", Handle: "janetech", SubscriberCount: 250_000, Description: "gadget reviews"},
			"UC2": {ID: "UC2", Title: "Sam Builds PCs", Handle: "sambuilds", SubscriberCount: 40_000},
		},
		uploads:  map[string]string{"UC1": "UU1"},
		playlist: map[string][]string{"UU1": {"v1", "v2", "v3", "v4", "v5"}},
		videos: map[string]domain.Video{
			"v1": {ID: "v1", Title: "Phone review", ChannelID: "UC1", PrivacyStatus: "public", PublishedAt: daysAgo(2), ViewCount: 1000, LikeCount: 100, CommentCount: 10},
			"v2": {ID: "v2", Title: "Laptop review", ChannelID: "UC1", PrivacyStatus: "public", PublishedAt: daysAgo(20), ViewCount: 2000, LikeCount: 50, CommentCount: 5},
			"v3": {ID: "v3", Title: "Camera review", ChannelID: "UC1", PrivacyStatus: "public", PublishedAt: daysAgo(40), ViewCount: 1000, LikeCount: 30, CommentCount: 1},
			"v4": {ID: "v4", Title: "Members only", ChannelID: "UC1", PrivacyStatus: "private", PublishedAt: daysAgo(5), ViewCount: 500, LikeCount: 400},
			"v5": {ID: "v5", Title: "Old unboxing", ChannelID: "UC1", PrivacyStatus: "public", PublishedAt: daysAgo(400), ViewCount: 9000, LikeCount: 900},
		},
	}
}
