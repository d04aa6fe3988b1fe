package youtube

import (
	"math"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

// ComputeAggregates derives avg likes and engagement rate from one channel's
// retained videos. Empty input and zero total views yield zero values.
func ComputeAggregates(videos []domain.Video) domain.AggregateMetrics {
	if len(videos) == 0 {
		return domain.AggregateMetrics{}
	}

	var likes, comments, views int64
	for _, v := range videos {
		likes += v.LikeCount
		comments += v.CommentCount
		views += v.ViewCount
	}

	metrics := domain.AggregateMetrics{
		AvgLikes: int64(math.Round(float64(likes) / float64(len(videos)))),
	}
	if views > 0 {
		rate := float64(likes+comments) / float64(views) * 100
		metrics.EngagementRate = math.Round(rate*100) / 100
	}
	return metrics
}
