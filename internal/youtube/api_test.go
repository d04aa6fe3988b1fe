package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := NewAPI(context.Background(), APIConfig{
		APIKey:     "test-key",
		Endpoint:   srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}
	return api
}

func queryIDs(r *http.Request) []string {
	var ids []string
	for _, v := range r.URL.Query()["id"] {
		ids = append(ids, strings.Split(v, ",")...)
	}
	return ids
}

func TestNewAPIMissingKey(t *testing.T) {
	_, err := NewAPI(context.Background(), APIConfig{})
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}

func TestAPIChannelsByID(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtube/v3/channels" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := queryIDs(r); len(got) != 2 {
			t.Errorf("expected 2 ids, got %v", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"id":"UC1","snippet":{"title":"Tech Daily","customUrl":"@techdaily","description":"gadgets",
				"publishedAt":"2015-01-02T03:04:05Z",
				"thumbnails":{"default":{"url":"d.jpg"},"high":{"url":"h.jpg"}}},
			 "statistics":{"subscriberCount":"2500000","viewCount":"900000000","videoCount":"812"}},
			{"id":"UC2","snippet":{"title":"Home Cook Jane","thumbnails":{"medium":{"url":"m.jpg"}}}}
		]}`)
	})

	channels, err := api.ChannelsByID(context.Background(), []string{"UC1", "UC2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}

	first := channels[0]
	if first.Handle != "techdaily" {
		t.Errorf("expected handle techdaily, got %q", first.Handle)
	}
	if first.SubscriberCount != 2500000 || first.VideoCount != 812 {
		t.Errorf("unexpected statistics %+v", first)
	}
	if first.ThumbnailURL != "h.jpg" {
		t.Errorf("expected high thumbnail, got %q", first.ThumbnailURL)
	}
	if first.PublishedAt.Year() != 2015 {
		t.Errorf("unexpected published_at %v", first.PublishedAt)
	}

	// Absent statistics are zero, handle is derived from the title
	second := channels[1]
	if second.SubscriberCount != 0 || second.ViewCount != 0 {
		t.Errorf("expected zero counts, got %+v", second)
	}
	if second.Handle != "homecookjane" {
		t.Errorf("expected derived handle homecookjane, got %q", second.Handle)
	}
	if second.ThumbnailURL != "m.jpg" {
		t.Errorf("expected medium thumbnail, got %q", second.ThumbnailURL)
	}
}

func TestAPIChannelsByIDBatchLimit(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	ids := make([]string, MaxBatchSize+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("UC%d", i)
	}
	if _, err := api.ChannelsByID(context.Background(), ids); err == nil {
		t.Error("expected batch size error")
	}
}

func TestAPIVideosByID(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtube/v3/videos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"id":"v1","snippet":{"title":"Unboxing","channelId":"UC1","publishedAt":"2024-05-01T10:00:00Z"},
			 "statistics":{"viewCount":"1000","likeCount":"50","commentCount":"7"},
			 "status":{"privacyStatus":"public"}},
			{"id":"v2","snippet":{"title":"Hidden stats","channelId":"UC1"},
			 "status":{"privacyStatus":"unlisted"}}
		]}`)
	})

	videos, err := api.VideosByID(context.Background(), []string{"v1", "v2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
	if v := videos[0]; v.ViewCount != 1000 || v.LikeCount != 50 || v.CommentCount != 7 || v.PrivacyStatus != "public" {
		t.Errorf("unexpected video %+v", v)
	}
	if v := videos[1]; v.LikeCount != 0 || v.PrivacyStatus != "unlisted" {
		t.Errorf("unexpected video %+v", v)
	}
}

func TestAPIPlaylistVideoIDsPaginates(t *testing.T) {
	pages := 0
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"nextPageToken":"p2","items":[
				{"contentDetails":{"videoId":"a"}},{"contentDetails":{"videoId":"b"}}]}`)
		case "p2":
			fmt.Fprint(w, `{"items":[{"contentDetails":{"videoId":"c"}},{"contentDetails":{"videoId":"d"}}]}`)
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	})

	ids, err := api.PlaylistVideoIDs(context.Background(), "UU1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(ids, ",") != "a,b,c" {
		t.Errorf("expected a,b,c got %v", ids)
	}
	if pages != 2 {
		t.Errorf("expected 2 pages, got %d", pages)
	}
}

func TestAPIUploadsPlaylistID(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if queryIDs(r)[0] == "missing" {
			fmt.Fprint(w, `{"items":[]}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"UC1","contentDetails":{"relatedPlaylists":{"uploads":"UU1"}}}]}`)
	})

	id, err := api.UploadsPlaylistID(context.Background(), "UC1")
	if err != nil || id != "UU1" {
		t.Errorf("expected UU1, got %q (%v)", id, err)
	}

	if _, err := api.UploadsPlaylistID(context.Background(), "missing"); !errors.Is(err, domain.ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		reason    string
		wantQuota bool
	}{
		{http.StatusTooManyRequests, "rateLimitExceeded", true},
		{http.StatusForbidden, "quotaExceeded", true},
		{http.StatusBadRequest, "badRequest", false},
		{http.StatusNotFound, "notFound", false},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"boom","errors":[{"reason":%q,"message":"boom"}]}}`,
					tt.status, tt.reason)
			})

			_, err := api.SearchChannelIDs(context.Background(), "tech", 5)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, apiErr.Reason)
			}
			if got := IsQuotaError(err); got != tt.wantQuota {
				t.Errorf("IsQuotaError = %v, want %v", got, tt.wantQuota)
			}
		})
	}
}

func TestIsQuotaErrorPlainError(t *testing.T) {
	if IsQuotaError(errors.New("connection reset")) {
		t.Error("plain error should not be a quota error")
	}
	if !IsQuotaError(fmt.Errorf("wrapped: %w", &APIError{Op: "search", StatusCode: 429})) {
		t.Error("wrapped 429 should be a quota error")
	}
}
