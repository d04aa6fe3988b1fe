package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// MaxBatchSize is the largest id list the API accepts in one list call.
const MaxBatchSize = 50

// Upstream is the subset of the YouTube Data API the resolver and the video
// fetcher use. Every method is a single logical call and does not retry.
type Upstream interface {
	SearchChannelIDs(ctx context.Context, term string, maxResults int64) ([]string, error)
	ChannelsByID(ctx context.Context, ids []string) ([]domain.Channel, error)
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)
	PlaylistVideoIDs(ctx context.Context, playlistID string, max int) ([]string, error)
	VideosByID(ctx context.Context, ids []string) ([]domain.Video, error)
}

type APIConfig struct {
	APIKey   string
	Endpoint string
	// HTTPClient replaces the default transport. The API key is not attached
	// when it is set.
	HTTPClient *http.Client
}

// API implements Upstream on top of the generated youtube/v3 client. Raw
// response types never leave this file.
type API struct {
	service *yt.Service
}

func NewAPI(ctx context.Context, cfg APIConfig) (*API, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrMissingCredential
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &API{service: service}, nil
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Op         string
	StatusCode int
	Reason     string
	Err        error
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube %s: status %d: %s", e.Op, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("youtube %s: status %d", e.Op, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsQuotaError reports whether err is a rate-limit (429) or quota (403)
// response. It is the retry classifier for every upstream call.
func IsQuotaError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusForbidden
}

func wrapError(op string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		reason := gErr.Message
		if len(gErr.Errors) > 0 && gErr.Errors[0].Reason != "" {
			reason = gErr.Errors[0].Reason
		}
		return &APIError{Op: op, StatusCode: gErr.Code, Reason: reason, Err: err}
	}
	return fmt.Errorf("youtube %s: %w", op, err)
}

func (a *API) SearchChannelIDs(ctx context.Context, term string, maxResults int64) ([]string, error) {
	resp, err := a.service.Search.List([]string{"snippet"}).
		Q(term).
		Type("channel").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError("search", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.ChannelId != "" {
			ids = append(ids, item.Id.ChannelId)
		} else if item.Snippet != nil && item.Snippet.ChannelId != "" {
			ids = append(ids, item.Snippet.ChannelId)
		}
	}
	return ids, nil
}

func (a *API) ChannelsByID(ctx context.Context, ids []string) ([]domain.Channel, error) {
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("youtube channels: %d ids exceeds batch size %d", len(ids), MaxBatchSize)
	}

	resp, err := a.service.Channels.List([]string{"snippet", "statistics"}).
		Id(ids...).
		MaxResults(MaxBatchSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError("channels", err)
	}

	channels := make([]domain.Channel, 0, len(resp.Items))
	for _, item := range resp.Items {
		channels = append(channels, toChannel(item))
	}
	return channels, nil
}

func (a *API) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	resp, err := a.service.Channels.List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("channels", err)
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelID)
	}
	details := resp.Items[0].ContentDetails
	if details == nil || details.RelatedPlaylists == nil || details.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrUploadsNotFound, channelID)
	}
	return details.RelatedPlaylists.Uploads, nil
}

// PlaylistVideoIDs walks the playlist pages until max ids are collected or
// the playlist ends.
func (a *API) PlaylistVideoIDs(ctx context.Context, playlistID string, max int) ([]string, error) {
	ids := make([]string, 0, max)
	pageToken := ""

	for len(ids) < max {
		pageSize := min(max-len(ids), MaxBatchSize)
		call := a.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(int64(pageSize)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, wrapError("playlistItems", err)
		}

		for _, item := range resp.Items {
			if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				continue
			}
			ids = append(ids, item.ContentDetails.VideoId)
			if len(ids) == max {
				break
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return ids, nil
}

func (a *API) VideosByID(ctx context.Context, ids []string) ([]domain.Video, error) {
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("youtube videos: %d ids exceeds batch size %d", len(ids), MaxBatchSize)
	}

	resp, err := a.service.Videos.List([]string{"snippet", "statistics", "status"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError("videos", err)
	}

	videos := make([]domain.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, toVideo(item))
	}
	return videos, nil
}

func toChannel(item *yt.Channel) domain.Channel {
	ch := domain.Channel{ID: item.Id}

	if s := item.Snippet; s != nil {
		ch.Title = s.Title
		ch.Description = s.Description
		ch.PublishedAt = parseTime(s.PublishedAt)
		ch.ThumbnailURL = bestThumbnail(s.Thumbnails)
		ch.Handle = deriveHandle(s.CustomUrl, s.Title)
	}

	// Counts arrive as strings and are zero when absent or hidden
	if st := item.Statistics; st != nil {
		ch.SubscriberCount = int64(st.SubscriberCount)
		ch.ViewCount = int64(st.ViewCount)
		ch.VideoCount = int64(st.VideoCount)
	}
	return ch
}

func toVideo(item *yt.Video) domain.Video {
	v := domain.Video{ID: item.Id}

	if s := item.Snippet; s != nil {
		v.Title = s.Title
		v.Description = s.Description
		v.ChannelID = s.ChannelId
		v.PublishedAt = parseTime(s.PublishedAt)
		v.ThumbnailURL = bestThumbnail(s.Thumbnails)
	}
	if st := item.Statistics; st != nil {
		v.ViewCount = int64(st.ViewCount)
		v.LikeCount = int64(st.LikeCount)
		v.CommentCount = int64(st.CommentCount)
	}
	if item.Status != nil {
		v.PrivacyStatus = item.Status.PrivacyStatus
	}
	return v
}

// deriveHandle prefers the channel's custom URL and falls back to the title
// with whitespace removed.
func deriveHandle(customURL, title string) string {
	if h := strings.TrimPrefix(strings.TrimSpace(customURL), "@"); h != "" {
		return h
	}
	return strings.ToLower(strings.Join(strings.Fields(title), ""))
}

func bestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
