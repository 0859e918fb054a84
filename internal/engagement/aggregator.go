// Package engagement computes per-chirp reaction, reply and repost counts.
//
// The repost tracking record is the source of truth for repost counts; the
// zero-content wrapper chirps are display artifacts and are never counted.
// Reply counts come from chirps with reply_to_id set to the target.
package engagement

import (
	"context"
	"log/slog"

	"chirpd/internal/core"

	"golang.org/x/sync/errgroup"
)

const maxConcurrentFetches = 8

type Aggregator struct {
	Logger    *slog.Logger
	Chirps    core.ChirpRepository
	Reactions core.ReactionRepository
	Reposts   core.RepostRepository
}

func (a *Aggregator) Init(_ context.Context) error {
	a.Logger = a.Logger.With("component", "engagement.Aggregator")
	return nil
}

// CountsFor runs the three count queries concurrently. Each count degrades
// to zero on a read error; this method never fails.
func (a *Aggregator) CountsFor(ctx context.Context, chirpID int64) core.Engagement {
	var counts core.Engagement

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := a.Reactions.CountForChirp(ctx, chirpID)
		if err != nil {
			a.Logger.Warn("reaction count failed", "chirp", chirpID, "error", err)
			return nil
		}
		counts.Reactions = n
		return nil
	})
	g.Go(func() error {
		n, err := a.Chirps.Count(ctx, core.ChirpFilter{ReplyToID: &chirpID})
		if err != nil {
			a.Logger.Warn("reply count failed", "chirp", chirpID, "error", err)
			return nil
		}
		counts.Replies = n
		return nil
	})
	g.Go(func() error {
		n, err := a.Reposts.CountForChirp(ctx, chirpID)
		if err != nil {
			a.Logger.Warn("repost count failed", "chirp", chirpID, "error", err)
			return nil
		}
		counts.Reposts = n
		return nil
	})
	g.Wait() // nolint:errcheck

	return counts
}

// ForChirps fetches counts for many chirps with bounded concurrency. The
// fetches are read-only and touch disjoint keys, so they run in parallel.
func (a *Aggregator) ForChirps(ctx context.Context, ids []int64) map[int64]core.Engagement {
	results := make([]core.Engagement, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = a.CountsFor(gctx, id)
			return nil
		})
	}
	g.Wait() // nolint:errcheck

	counts := make(map[int64]core.Engagement, len(ids))
	for i, id := range ids {
		counts[id] = results[i]
	}
	return counts
}
