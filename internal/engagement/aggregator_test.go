package engagement_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chirpd/internal/core"
	"chirpd/internal/engagement"
	"chirpd/internal/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggregator(store *memstore.Store) *engagement.Aggregator {
	return &engagement.Aggregator{
		Logger:    slog.Default(),
		Chirps:    store.Chirps,
		Reactions: store.Reactions,
		Reposts:   store.Reposts,
	}
}

func seedChirp(t *testing.T, store *memstore.Store, author string) core.Chirp {
	t.Helper()
	chirp := core.Chirp{AuthorID: author, Content: "hello", CreatedAt: time.Now()}
	require.NoError(t, store.Chirps.Insert(context.Background(), &chirp))
	return chirp
}

func TestCountsForAllSources(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	chirp := seedChirp(t, store, "u1")

	for i := 0; i < 4; i++ {
		user := fmt.Sprintf("reactor-%d", i)
		require.NoError(t, store.Reactions.Insert(ctx, &core.Reaction{ChirpID: chirp.ID, UserID: user}))
	}
	for i := 0; i < 2; i++ {
		reply := core.Chirp{AuthorID: "replier", Content: "re", ReplyToID: &chirp.ID}
		require.NoError(t, store.Chirps.Insert(ctx, &reply))
	}
	require.NoError(t, store.Reposts.Insert(ctx, &core.Repost{ChirpID: chirp.ID, UserID: "amp"}))

	counts := newAggregator(store).CountsFor(ctx, chirp.ID)

	assert.Equal(t, int64(4), counts.Reactions)
	assert.Equal(t, int64(2), counts.Replies)
	assert.Equal(t, int64(1), counts.Reposts)
}

func TestCountsIgnoreRepostWrappers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	chirp := seedChirp(t, store, "u1")

	// A wrapper chirp exists but no tracking record: count stays zero since
	// the tracking record is authoritative.
	wrapper := core.Chirp{AuthorID: "amp", Content: "", RepostOfID: &chirp.ID}
	require.NoError(t, store.Chirps.Insert(ctx, &wrapper))

	counts := newAggregator(store).CountsFor(ctx, chirp.ID)
	assert.Equal(t, int64(0), counts.Reposts)
}

func TestCountsDegradeToZeroOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	chirp := seedChirp(t, store, "u1")
	require.NoError(t, store.Reactions.Insert(ctx, &core.Reaction{ChirpID: chirp.ID, UserID: "r1"}))

	store.Reactions.FailWith = core.ErrStoreUnavailable

	counts := newAggregator(store).CountsFor(ctx, chirp.ID)
	assert.Equal(t, int64(0), counts.Reactions)
}

func TestForChirpsCoversAllIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()

	var ids []int64
	for i := 0; i < 20; i++ {
		chirp := seedChirp(t, store, "u1")
		require.NoError(t, store.Reactions.Insert(ctx, &core.Reaction{ChirpID: chirp.ID, UserID: "r"}))
		ids = append(ids, chirp.ID)
	}

	counts := newAggregator(store).ForChirps(ctx, ids)

	require.Len(t, counts, 20)
	for _, id := range ids {
		assert.Equal(t, int64(1), counts[id].Reactions)
	}
}
