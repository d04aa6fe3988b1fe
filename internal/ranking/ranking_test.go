package ranking

import (
	"testing"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

func TestRank(t *testing.T) {
	input := Input{
		Candidates: []domain.Influencer{
			{Name: "Big Gamer", Followers: 5_000_000, EngagementRate: 2, Categories: []string{"Gaming"}, Verified: true},
			{Name: "Tech Niche", Followers: 200_000, EngagementRate: 8, Categories: []string{"Technology", "Reviews"}},
			{Name: "Tiny Tech", Followers: 1_000, EngagementRate: 0.5, Categories: []string{"technology"}},
		},
		Categories: []string{"Technology", "Reviews"},
		Limit:      2,
	}

	results := Rank(input)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not sorted: %f < %f", results[0].Score, results[1].Score)
	}

	// 40 + 0.8*30 + 0.2*20 = 68
	if results[0].Name != "Tech Niche" || results[0].Score != 68 {
		t.Errorf("expected Tech Niche scored 68 first, got %s %.3f", results[0].Name, results[0].Score)
	}
	// 0.2*30 + 20 + 10 = 36 vs Tiny Tech 40 + 1.5 + 0.02 = 41.52
	if results[1].Name != "Tiny Tech" {
		t.Errorf("expected Tiny Tech second, got %s", results[1].Name)
	}
}

func TestRankCeilings(t *testing.T) {
	results := Rank(Input{
		Candidates: []domain.Influencer{{Followers: 50_000_000, EngagementRate: 40, Verified: true}},
	})
	if results[0].Score != 60 {
		t.Errorf("expected capped score 60, got %.3f", results[0].Score)
	}
}

func TestRankTieBreaksOnFollowers(t *testing.T) {
	results := Rank(Input{
		Candidates: []domain.Influencer{
			{Name: "small", Followers: 2_000_000},
			{Name: "large", Followers: 3_000_000},
		},
	})
	if results[0].Name != "large" {
		t.Errorf("expected larger channel first on tie, got %s", results[0].Name)
	}
}

func TestRankEmpty(t *testing.T) {
	if results := Rank(Input{}); len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}
