package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

const (
	categoryWeight   = 40.0
	engagementWeight = 30.0
	followersWeight  = 20.0
	verifiedWeight   = 10.0

	// engagementCeiling and followersCeiling are where a component saturates.
	engagementCeiling = 10.0
	followersCeiling  = 1_000_000.0
)

type Input struct {
	Candidates []domain.Influencer
	// Categories the query maps to. Empty means no category boost.
	Categories []string
	Limit      int
}

// Rank scores every candidate and returns them best first. Ties keep the
// higher follower count first.
func Rank(input Input) []domain.RankedInfluencer {
	wanted := make(map[string]bool, len(input.Categories))
	for _, c := range input.Categories {
		wanted[strings.ToLower(c)] = true
	}

	ranked := make([]domain.RankedInfluencer, 0, len(input.Candidates))
	for _, inf := range input.Candidates {
		ranked = append(ranked, domain.RankedInfluencer{
			Influencer: inf,
			Score:      math.Round(computeScore(inf, wanted)*1000) / 1000, // 3 decimal places
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Followers > ranked[j].Followers
	})

	if input.Limit > 0 && len(ranked) > input.Limit {
		ranked = ranked[:input.Limit]
	}
	return ranked
}

func computeScore(inf domain.Influencer, wanted map[string]bool) float64 {
	score := 0.0

	for _, c := range inf.Categories {
		if wanted[strings.ToLower(c)] {
			score += categoryWeight
			break
		}
	}

	score += math.Min(inf.EngagementRate/engagementCeiling, 1) * engagementWeight
	score += math.Min(float64(inf.Followers)/followersCeiling, 1) * followersWeight

	if inf.Verified {
		score += verifiedWeight
	}
	return score
}
