package domain

import (
	"strings"
	"time"
)

const PlatformYouTube = "youtube"

// MaxRecentVideos bounds the recent_videos list stored with an influencer.
const MaxRecentVideos = 3

type Influencer struct {
	ID              int64         `json:"id"`
	ChannelID       string        `json:"channel_id"`
	Name            string        `json:"name"`
	Handle          string        `json:"handle"`
	Platform        string        `json:"platform"`
	Followers       int64         `json:"followers"`
	TotalViews      int64         `json:"total_views"`
	VideoCount      int64         `json:"video_count"`
	EngagementRate  float64       `json:"engagement_rate"`
	AvgLikes        int64         `json:"avg_likes"`
	Categories      []string      `json:"categories"`
	Verified        bool          `json:"verified"`
	ProfileImageURL string        `json:"profile_image_url"`
	Bio             string        `json:"bio"`
	RecentVideos    []RecentVideo `json:"recent_videos"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type RecentVideo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	Comments     int64     `json:"comments"`
}

// Identity is the pair of fields the duplicate gate compares.
type Identity struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

func (i Influencer) Identity() Identity {
	return Identity{Name: i.Name, Handle: i.Handle}
}

// NewInfluencer builds the persisted form of a resolved channel. Only the
// first MaxRecentVideos entries of videos are kept.
func NewInfluencer(ch Channel, videos []Video, metrics AggregateMetrics, categories []string) Influencer {
	recent := make([]RecentVideo, 0, MaxRecentVideos)
	for _, v := range videos {
		if len(recent) == MaxRecentVideos {
			break
		}
		recent = append(recent, RecentVideo{
			ID:           v.ID,
			Title:        v.Title,
			ThumbnailURL: v.ThumbnailURL,
			PublishedAt:  v.PublishedAt,
			Views:        v.ViewCount,
			Likes:        v.LikeCount,
			Comments:     v.CommentCount,
		})
	}

	return Influencer{
		ChannelID:       ch.ID,
		Name:            strings.TrimSpace(ch.Title),
		Handle:          ch.Handle,
		Platform:        PlatformYouTube,
		Followers:       ch.SubscriberCount,
		TotalViews:      ch.ViewCount,
		VideoCount:      ch.VideoCount,
		EngagementRate:  metrics.EngagementRate,
		AvgLikes:        metrics.AvgLikes,
		Categories:      categories,
		Verified:        ch.Verified,
		ProfileImageURL: ch.ThumbnailURL,
		Bio:             ch.Description,
		RecentVideos:    recent,
	}
}
