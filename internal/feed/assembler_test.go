package feed_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chirpd/internal/cache"
	"chirpd/internal/core"
	"chirpd/internal/engagement"
	"chirpd/internal/feed"
	"chirpd/internal/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssembler(t *testing.T, store *memstore.Store, feedCache core.FeedCache) *feed.Assembler {
	t.Helper()

	assembler := &feed.Assembler{
		Logger:  slog.Default(),
		Chirps:  store.Chirps,
		Users:   store.Users,
		Follows: store.Follows,
		Blocks:  store.Blocks,
		Engagement: &engagement.Aggregator{
			Logger:    slog.Default(),
			Chirps:    store.Chirps,
			Reactions: store.Reactions,
			Reposts:   store.Reposts,
		},
		Cache: feedCache,
	}
	require.NoError(t, assembler.Init(context.Background()))
	return assembler
}

func seedUser(t *testing.T, store *memstore.Store, id string) core.User {
	t.Helper()
	user := core.User{ID: id, Handle: id + "-handle"}
	require.NoError(t, store.Users.Insert(context.Background(), &user))
	return user
}

func seedChirpAt(t *testing.T, store *memstore.Store, author, content string, at time.Time) core.Chirp {
	t.Helper()
	chirp := core.Chirp{AuthorID: author, Content: content, CreatedAt: at}
	require.NoError(t, store.Chirps.Insert(context.Background(), &chirp))
	return chirp
}

func unitIDs(units []core.DisplayUnit) []int64 {
	out := make([]int64, len(units))
	for i, u := range units {
		out[i] = u.Chirp.ID
	}
	return out
}

func TestFeedChronologicalOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	seedUser(t, store, "bob")
	c1 := seedChirpAt(t, store, "alice", "first", now.Add(-3*time.Hour))
	c2 := seedChirpAt(t, store, "bob", "second", now.Add(-2*time.Hour))
	c3 := seedChirpAt(t, store, "alice", "third", now.Add(-time.Hour))

	units := newAssembler(t, store, cache.Noop{}).Feed(ctx, core.FeedChronological, "", 10)

	require.Equal(t, []int64{c3.ID, c2.ID, c1.ID}, unitIDs(units))
	assert.Equal(t, "alice", units[0].Author.ID)
	assert.Equal(t, "bob", units[1].Author.ID)
}

func TestFeedTruncatesToLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	for i := 0; i < 5; i++ {
		seedChirpAt(t, store, "alice", "c", now.Add(-time.Duration(i)*time.Minute))
	}

	units := newAssembler(t, store, cache.Noop{}).Feed(ctx, core.FeedChronological, "", 2)
	assert.Len(t, units, 2)
}

func TestFeedNonPositiveLimit(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	assembler := newAssembler(t, store, cache.Noop{})

	assert.Empty(t, assembler.Feed(context.Background(), core.FeedChronological, "", 0))
	assert.Empty(t, assembler.Feed(context.Background(), core.FeedChronological, "", -1))
}

func TestFeedInterleavesBoundedReplies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	seedUser(t, store, "bob")
	parent := seedChirpAt(t, store, "alice", "parent", now.Add(-time.Hour))

	var replies []core.Chirp
	for i := 0; i < 5; i++ {
		reply := core.Chirp{
			AuthorID:  "bob",
			Content:   "re",
			ReplyToID: &parent.ID,
			CreatedAt: now.Add(-time.Hour + time.Duration(i+1)*time.Minute),
		}
		require.NoError(t, store.Chirps.Insert(ctx, &reply))
		replies = append(replies, reply)
	}

	units := newAssembler(t, store, cache.Noop{}).Feed(ctx, core.FeedChronological, "", 10)

	// Parent first, then the three most recent replies in ascending order.
	require.Len(t, units, 4)
	assert.Equal(t, parent.ID, units[0].Chirp.ID)
	assert.Equal(t, []int64{replies[2].ID, replies[3].ID, replies[4].ID}, unitIDs(units[1:]))
}

func TestFeedRepostSubstitution(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	seedUser(t, store, "bob")
	original := seedChirpAt(t, store, "alice", "the original take", now.Add(-2*time.Hour))

	wrapper := core.Chirp{AuthorID: "bob", RepostOfID: &original.ID, CreatedAt: now.Add(-time.Minute)}
	require.NoError(t, store.Chirps.Insert(ctx, &wrapper))
	require.NoError(t, store.Reposts.Insert(ctx, &core.Repost{ChirpID: original.ID, UserID: "bob"}))

	units := newAssembler(t, store, cache.Noop{}).Feed(ctx, core.FeedChronological, "", 10)

	require.Len(t, units, 2)
	got := units[0]
	// The wrapper holds the feed position but renders the original.
	assert.Equal(t, wrapper.ID, got.Chirp.ID)
	assert.Equal(t, wrapper.CreatedAt, got.Chirp.CreatedAt)
	assert.Equal(t, "the original take", got.Chirp.Content)
	assert.Equal(t, "alice", got.Author.ID)
	require.NotNil(t, got.RepostedBy)
	assert.Equal(t, "bob", got.RepostedBy.ID)
	assert.Equal(t, int64(1), got.Counts.Reposts)
}

func TestFeedDropsRepostWithMissingTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()

	seedUser(t, store, "bob")
	missing := int64(999)
	wrapper := core.Chirp{AuthorID: "bob", RepostOfID: &missing}
	require.NoError(t, store.Chirps.Insert(ctx, &wrapper))

	units := newAssembler(t, store, cache.Noop{}).Feed(ctx, core.FeedChronological, "", 10)
	assert.Empty(t, units)
}

func TestFeedHidesBlockedAuthorsBothDirections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "viewer")
	seedUser(t, store, "blocked")
	seedUser(t, store, "blocker")
	seedUser(t, store, "neutral")

	seedChirpAt(t, store, "blocked", "hidden", now.Add(-time.Minute))
	seedChirpAt(t, store, "blocker", "hidden too", now.Add(-2*time.Minute))
	visible := seedChirpAt(t, store, "neutral", "visible", now.Add(-3*time.Minute))

	require.NoError(t, store.Blocks.Insert(ctx, &core.Block{BlockerID: "viewer", BlockedID: "blocked"}))
	require.NoError(t, store.Blocks.Insert(ctx, &core.Block{BlockerID: "blocker", BlockedID: "viewer"}))

	units := newAssembler(t, store, cache.Noop{}).Feed(ctx, core.FeedChronological, "viewer", 10)

	assert.Equal(t, []int64{visible.ID}, unitIDs(units))
}

func TestFeedDegradesToEmptyOnStoreFailure(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	seedUser(t, store, "alice")
	seedChirpAt(t, store, "alice", "c", time.Now())
	store.Chirps.FailWith = core.ErrStoreUnavailable

	units := newAssembler(t, store, cache.Noop{}).Feed(context.Background(), core.FeedChronological, "", 10)
	assert.Empty(t, units)
}

func TestFeedReplyFetchFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	seedUser(t, store, "bob")
	parent := seedChirpAt(t, store, "alice", "parent", now.Add(-time.Hour))
	reply := core.Chirp{AuthorID: "bob", Content: "re", ReplyToID: &parent.ID, CreatedAt: now}
	require.NoError(t, store.Chirps.Insert(ctx, &reply))

	// Break only the bounded reply fetch; candidate and count queries pass.
	store.Chirps.QueryHook = func(filter core.ChirpFilter) error {
		if filter.ReplyToID != nil && filter.Limit > 0 {
			return core.ErrStoreUnavailable
		}
		return nil
	}

	units := newAssembler(t, store, cache.Noop{}).Feed(ctx, core.FeedChronological, "", 10)

	require.Len(t, units, 1)
	assert.Equal(t, parent.ID, units[0].Chirp.ID)
}

func TestFeedDropsUnitsWithUnresolvableAuthor(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	known := seedChirpAt(t, store, "alice", "known", now.Add(-time.Minute))
	seedChirpAt(t, store, "ghost", "orphaned", now)

	units := newAssembler(t, store, cache.Noop{}).Feed(context.Background(), core.FeedChronological, "", 10)
	assert.Equal(t, []int64{known.ID}, unitIDs(units))
}

func TestFeedServesFromCacheWithinTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()
	feedCache := cache.New(time.Minute)

	seedUser(t, store, "alice")
	seedChirpAt(t, store, "alice", "one", now.Add(-time.Minute))

	assembler := newAssembler(t, store, feedCache)
	first := assembler.Feed(ctx, core.FeedChronological, "", 10)
	require.Len(t, first, 1)

	seedChirpAt(t, store, "alice", "two", now)

	// Same key within the TTL: the stale view is served.
	assert.Len(t, assembler.Feed(ctx, core.FeedChronological, "", 10), 1)

	feedCache.Clear()
	assert.Len(t, assembler.Feed(ctx, core.FeedChronological, "", 10), 2)
}

func TestFeedPersonalizedPrefersFollowedAuthors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "viewer")
	seedUser(t, store, "friend")
	seedUser(t, store, "stranger")
	require.NoError(t, store.Follows.Insert(ctx, &core.Follow{FollowerID: "viewer", FolloweeID: "friend"}))

	followed := seedChirpAt(t, store, "friend", "followed", now.Add(-2*time.Hour))
	newer := seedChirpAt(t, store, "stranger", "newer", now.Add(-time.Hour))

	units := newAssembler(t, store, cache.Noop{}).Feed(ctx, core.FeedPersonalized, "viewer", 10)

	assert.Equal(t, []int64{followed.ID, newer.ID}, unitIDs(units))
}

func TestFeedTrendingExcludesOldChirps(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	seedChirpAt(t, store, "alice", "stale", now.Add(-8*24*time.Hour))
	fresh := seedChirpAt(t, store, "alice", "fresh", now.Add(-time.Hour))

	units := newAssembler(t, store, cache.Noop{}).Feed(context.Background(), core.FeedTrending, "", 10)
	assert.Equal(t, []int64{fresh.ID}, unitIDs(units))
}

func TestTimelineOwnChirpsOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	seedUser(t, store, "bob")
	mine := seedChirpAt(t, store, "alice", "mine", now.Add(-time.Minute))
	other := seedChirpAt(t, store, "bob", "other", now)
	reply := core.Chirp{AuthorID: "alice", Content: "re", ReplyToID: &other.ID, CreatedAt: now}
	require.NoError(t, store.Chirps.Insert(ctx, &reply))

	assembler := newAssembler(t, store, cache.Noop{})

	assert.Equal(t, []int64{mine.ID}, unitIDs(assembler.Timeline(ctx, "alice", false)))
	assert.Equal(t, []int64{reply.ID, mine.ID}, unitIDs(assembler.Timeline(ctx, "alice", true)))
}

func TestByHashtagMatchesCaseInsensitively(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	now := time.Now()

	seedUser(t, store, "alice")
	tagged := seedChirpAt(t, store, "alice", "loving #GoLang today", now.Add(-time.Minute))
	seedChirpAt(t, store, "alice", "no tags here", now)

	units := newAssembler(t, store, cache.Noop{}).ByHashtag(context.Background(), "golang")
	assert.Equal(t, []int64{tagged.ID}, unitIDs(units))
}
