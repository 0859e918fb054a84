package feed_test

import (
	"testing"
	"time"

	"chirpd/internal/core"
	"chirpd/internal/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chirpAt(id int64, author string, at time.Time) core.Chirp {
	return core.Chirp{ID: id, AuthorID: author, Content: "c", CreatedAt: at}
}

func ids(chirps []core.Chirp) []int64 {
	out := make([]int64, len(chirps))
	for i, c := range chirps {
		out[i] = c.ID
	}
	return out
}

func TestRankerForDispatch(t *testing.T) {
	t.Parallel()

	assert.IsType(t, feed.Chronological{}, feed.RankerFor(core.FeedChronological))
	assert.IsType(t, feed.Trending{}, feed.RankerFor(core.FeedTrending))
	assert.IsType(t, feed.Personalized{}, feed.RankerFor(core.FeedPersonalized))
}

func TestChronologicalNewestFirst(t *testing.T) {
	t.Parallel()

	now := time.Now()
	candidates := []core.Chirp{
		chirpAt(1, "a", now.Add(-3*time.Hour)),
		chirpAt(2, "b", now.Add(-1*time.Hour)),
		chirpAt(3, "c", now.Add(-2*time.Hour)),
	}

	ranked := feed.Chronological{}.Rank(candidates, core.RankContext{Now: now})

	assert.Equal(t, []int64{2, 3, 1}, ids(ranked))
	// Input order untouched.
	assert.Equal(t, int64(1), candidates[0].ID)
}

func TestEmptyCandidatesRankEmpty(t *testing.T) {
	t.Parallel()

	rc := core.RankContext{ViewerID: "v", Now: time.Now()}
	assert.Len(t, feed.Chronological{}.Rank(nil, rc), 0)
	assert.Len(t, feed.Trending{}.Rank(nil, rc), 0)
	assert.Len(t, feed.Personalized{}.Rank(nil, rc), 0)
}

func TestTrendingDropsChirpsOlderThanWindow(t *testing.T) {
	t.Parallel()

	now := time.Now()
	candidates := []core.Chirp{
		chirpAt(1, "a", now.Add(-8*24*time.Hour)),
		chirpAt(2, "b", now.Add(-time.Hour)),
	}

	ranked := feed.Trending{}.Rank(candidates, core.RankContext{Now: now})

	assert.Equal(t, []int64{2}, ids(ranked))
}

func TestTrendingScoreOrdering(t *testing.T) {
	t.Parallel()

	now := time.Now()
	candidates := []core.Chirp{
		chirpAt(1, "a", now.Add(-3*time.Hour)),
		chirpAt(2, "b", now.Add(-2*time.Hour)),
		chirpAt(3, "c", now.Add(-1*time.Hour)),
	}
	counts := map[int64]core.Engagement{
		1: {Reactions: 1, Replies: 4}, // score 14
		2: {Reactions: 5, Replies: 0}, // score 10
		3: {Reactions: 2, Replies: 2}, // score 10
	}

	ranked := feed.Trending{}.Rank(candidates, core.RankContext{Now: now, Counts: counts})

	// Tie at 10 broken by reaction count: chirp 2 over chirp 3.
	assert.Equal(t, []int64{1, 2, 3}, ids(ranked))
}

func TestTrendingTieFallsBackToRecency(t *testing.T) {
	t.Parallel()

	now := time.Now()
	candidates := []core.Chirp{
		chirpAt(1, "a", now.Add(-2*time.Hour)),
		chirpAt(2, "b", now.Add(-1*time.Hour)),
	}
	counts := map[int64]core.Engagement{
		1: {Reactions: 3, Replies: 2},
		2: {Reactions: 3, Replies: 2},
	}

	ranked := feed.Trending{}.Rank(candidates, core.RankContext{Now: now, Counts: counts})

	assert.Equal(t, []int64{2, 1}, ids(ranked))
}

func TestPersonalizedFollowedAuthorRanksHigher(t *testing.T) {
	t.Parallel()

	now := time.Now()
	at := now.Add(-2 * time.Hour)
	candidates := []core.Chirp{
		chirpAt(1, "stranger", at),
		chirpAt(2, "friend", at),
	}
	rc := core.RankContext{
		ViewerID: "viewer",
		Followed: map[string]struct{}{"friend": {}},
		Now:      now,
	}

	ranked := feed.Personalized{}.Rank(candidates, rc)

	assert.Equal(t, []int64{2, 1}, ids(ranked))
}

func TestPersonalizedRecencyDominatesAmongEquals(t *testing.T) {
	t.Parallel()

	// Three chirps by a followed author at t=0,1,2 minutes with zero
	// engagement: most recent first, and all of them above an identical
	// chirp by a non-followed author.
	now := time.Now()
	base := now.Add(-10 * time.Minute)
	candidates := []core.Chirp{
		chirpAt(1, "u2", base),
		chirpAt(2, "u2", base.Add(time.Minute)),
		chirpAt(3, "u2", base.Add(2*time.Minute)),
		chirpAt(4, "u3", base.Add(2*time.Minute)),
	}
	rc := core.RankContext{
		ViewerID: "u1",
		Followed: map[string]struct{}{"u2": {}},
		Now:      now,
	}

	ranked := feed.Personalized{}.Rank(candidates, rc)

	assert.Equal(t, []int64{3, 2, 1, 4}, ids(ranked))
}

func TestPersonalizedEngagementBoost(t *testing.T) {
	t.Parallel()

	now := time.Now()
	at := now.Add(-time.Hour)
	candidates := []core.Chirp{
		chirpAt(1, "a", at),
		chirpAt(2, "b", at),
		chirpAt(3, "c", at),
	}
	rc := core.RankContext{
		ViewerID: "viewer",
		Counts: map[int64]core.Engagement{
			1: {Reactions: 2, Replies: 1},  // total 3, no boost
			2: {Reactions: 4, Replies: 3},  // total 7, 1.1x
			3: {Reactions: 10, Replies: 5}, // total 15, 1.2x
		},
		Now: now,
	}

	ranked := feed.Personalized{}.Rank(candidates, rc)

	assert.Equal(t, []int64{3, 2, 1}, ids(ranked))
}

func TestPersonalizedViewersOwnChirpsNotDownranked(t *testing.T) {
	t.Parallel()

	// Author's own posts are never down-ranked solely for being the
	// viewer's: a fresher own chirp outranks a stranger's older one.
	now := time.Now()
	candidates := []core.Chirp{
		chirpAt(1, "stranger", now.Add(-2*time.Hour)),
		chirpAt(2, "viewer", now.Add(-1*time.Hour)),
	}
	rc := core.RankContext{ViewerID: "viewer", Now: now}

	ranked := feed.Personalized{}.Rank(candidates, rc)

	assert.Equal(t, []int64{2, 1}, ids(ranked))
}

func TestPersonalizedAnonymousViewerFallsBackToChronological(t *testing.T) {
	t.Parallel()

	now := time.Now()
	candidates := []core.Chirp{
		chirpAt(1, "friend", now.Add(-2*time.Hour)),
		chirpAt(2, "stranger", now.Add(-1*time.Hour)),
	}
	// Followed set present but no viewer identity: boosts must not apply.
	rc := core.RankContext{
		Followed: map[string]struct{}{"friend": {}},
		Now:      now,
	}

	ranked := feed.Personalized{}.Rank(candidates, rc)

	assert.Equal(t, []int64{2, 1}, ids(ranked))
}

func TestPersonalizedTieBreaksByRecency(t *testing.T) {
	t.Parallel()

	now := time.Now()
	candidates := []core.Chirp{
		chirpAt(1, "a", now.Add(-30*time.Minute)),
		chirpAt(2, "b", now.Add(-20*time.Minute)),
	}
	rc := core.RankContext{ViewerID: "viewer", Now: now}

	ranked := feed.Personalized{}.Rank(candidates, rc)

	require.Len(t, ranked, 2)
	assert.Equal(t, []int64{2, 1}, ids(ranked))
}
