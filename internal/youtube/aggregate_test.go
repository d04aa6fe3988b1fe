package youtube

import (
	"math"
	"testing"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

func TestComputeAggregatesEmpty(t *testing.T) {
	m := ComputeAggregates(nil)
	if m.AvgLikes != 0 || m.EngagementRate != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
	if math.IsNaN(m.EngagementRate) {
		t.Error("engagement rate is NaN")
	}
}

func TestComputeAggregatesZeroViews(t *testing.T) {
	m := ComputeAggregates([]domain.Video{{LikeCount: 4, CommentCount: 2}})
	if m.EngagementRate != 0 {
		t.Errorf("expected 0 engagement with zero views, got %f", m.EngagementRate)
	}
	if m.AvgLikes != 4 {
		t.Errorf("expected avg likes 4, got %d", m.AvgLikes)
	}
}

func TestComputeAggregates(t *testing.T) {
	videos := []domain.Video{
		{ViewCount: 1000, LikeCount: 50, CommentCount: 10},
		{ViewCount: 2000, LikeCount: 101, CommentCount: 5},
		{ViewCount: 0, LikeCount: 0, CommentCount: 0},
	}

	m := ComputeAggregates(videos)

	// (50+101+0)/3 = 50.33 -> 50
	if m.AvgLikes != 50 {
		t.Errorf("expected avg likes 50, got %d", m.AvgLikes)
	}
	// (151+15)/3000*100 = 5.5333 -> 5.53
	if m.EngagementRate != 5.53 {
		t.Errorf("expected engagement 5.53, got %f", m.EngagementRate)
	}
}
