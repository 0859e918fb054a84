package feed

import (
	"sort"
	"time"

	"chirpd/internal/core"

	"github.com/samber/lo"
)

// Personalized scoring weights. A candidate starts at 1.0 and the boosts
// multiply; ties fall back to recency.
const (
	followedBoost = 3.0

	dayRecencyBoost  = 1.5
	weekRecencyBoost = 1.2

	highEngagementBoost     = 1.2
	highEngagementThreshold = 10
	midEngagementBoost      = 1.1
	midEngagementThreshold  = 5
)

// Trending window and score weights.
const (
	trendingWindow         = 7 * 24 * time.Hour
	trendingReactionWeight = 2
	trendingReplyWeight    = 3
)

// RankerFor maps a feed kind to its strategy.
func RankerFor(kind core.FeedKind) core.Ranker {
	switch kind {
	case core.FeedChronological:
		return Chronological{}
	case core.FeedTrending:
		return Trending{}
	default:
		return Personalized{}
	}
}

// Chronological orders newest first. No scoring.
type Chronological struct{}

func (Chronological) Rank(candidates []core.Chirp, _ core.RankContext) []core.Chirp {
	ranked := make([]core.Chirp, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return ranked
}

// Trending keeps candidates from the trailing week and orders them by
// engagement score, reaction count, then recency.
type Trending struct{}

func (Trending) Rank(candidates []core.Chirp, rc core.RankContext) []core.Chirp {
	cutoff := rc.Now.Add(-trendingWindow)
	ranked := lo.Filter(candidates, func(c core.Chirp, _ int) bool {
		return c.CreatedAt.After(cutoff)
	})

	score := func(c core.Chirp) int64 {
		counts := rc.Counts[c.ID]
		return counts.Reactions*trendingReactionWeight + counts.Replies*trendingReplyWeight
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := score(ranked[i]), score(ranked[j])
		if si != sj {
			return si > sj
		}
		ri, rj := rc.Counts[ranked[i].ID].Reactions, rc.Counts[ranked[j].ID].Reactions
		if ri != rj {
			return ri > rj
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return ranked
}

// Personalized is the "For You" strategy: multiplicative boosts for followed
// authors, recent chirps and engaged chirps on a 1.0 base. A viewer's own
// chirps carry no penalty. Without a resolvable viewer it degrades to
// reverse-chronological with no boosts.
type Personalized struct{}

func (Personalized) Rank(candidates []core.Chirp, rc core.RankContext) []core.Chirp {
	if rc.ViewerID == "" {
		return Chronological{}.Rank(candidates, rc)
	}

	scores := make(map[int64]float64, len(candidates))
	for _, c := range candidates {
		scores[c.ID] = personalizedScore(c, rc)
	}

	ranked := make([]core.Chirp, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i].ID], scores[ranked[j].ID]
		if si != sj {
			return si > sj
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return ranked
}

func personalizedScore(c core.Chirp, rc core.RankContext) float64 {
	score := 1.0

	if _, ok := rc.Followed[c.AuthorID]; ok {
		score *= followedBoost
	}

	age := rc.Now.Sub(c.CreatedAt)
	switch {
	case age < 24*time.Hour:
		score *= dayRecencyBoost
	case age < 7*24*time.Hour:
		score *= weekRecencyBoost
	}

	switch total := rc.Counts[c.ID].Total(); {
	case total > highEngagementThreshold:
		score *= highEngagementBoost
	case total > midEngagementThreshold:
		score *= midEngagementBoost
	}

	return score
}
