package domain

import "time"

type Channel struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Handle          string    `json:"handle"`
	Description     string    `json:"description"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	SubscriberCount int64     `json:"subscriber_count"`
	ViewCount       int64     `json:"view_count"`
	VideoCount      int64     `json:"video_count"`
	PublishedAt     time.Time `json:"published_at"`
	// Verified is a display heuristic derived from the subscriber count.
	Verified bool `json:"verified"`
}

type Video struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PublishedAt   time.Time `json:"published_at"`
	ChannelID     string    `json:"channel_id"`
	ViewCount     int64     `json:"view_count"`
	LikeCount     int64     `json:"like_count"`
	CommentCount  int64     `json:"comment_count"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	PrivacyStatus string    `json:"privacy_status"`
}

type AggregateMetrics struct {
	AvgLikes       int64   `json:"avg_likes"`
	EngagementRate float64 `json:"engagement_rate"`
}
