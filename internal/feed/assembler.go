// Package feed composes and ranks feed views: candidate selection, ranking
// policy dispatch, reply interleaving, repost resolution and block filtering.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chirpd/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var (
	feedsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirpd_feeds_built_total",
		Help: "The total number of feeds assembled, by kind and cache outcome",
	}, []string{"kind", "source"})
)

const (
	// Over-fetch factor: the ranking policy needs material left after block
	// filtering and the trending window cut.
	overfetch = 2

	maxRepliesPerParent = 3

	maxConcurrentAuthorFetches = 8
)

type Assembler struct {
	Logger *slog.Logger

	Chirps     core.ChirpRepository
	Users      core.UserRepository
	Follows    core.FollowRepository
	Blocks     core.BlockRepository
	Engagement core.EngagementSource
	Cache      core.FeedCache

	now func() time.Time
}

func (a *Assembler) Init(_ context.Context) error {
	a.Logger = a.Logger.With("component", "feed.Assembler")
	a.now = time.Now
	return nil
}

// SetClock replaces the ranking-context time source. Test hook.
func (a *Assembler) SetClock(now func() time.Time) {
	a.now = now
}

// Feed builds one feed view. A failure to fetch the candidate set degrades
// to an empty sequence and is logged; it never propagates to the caller.
func (a *Assembler) Feed(ctx context.Context, kind core.FeedKind, viewerID string, limit int) []core.DisplayUnit {
	if limit <= 0 {
		return []core.DisplayUnit{}
	}

	key := fmt.Sprintf("feed:%s:%s:%d", kind, viewerID, limit)
	if units, ok := a.Cache.Get(key); ok {
		feedsBuilt.WithLabelValues(string(kind), "cache").Inc()
		return units
	}

	candidates, err := a.Chirps.Query(ctx, core.ChirpFilter{
		TopLevel: true,
		Order:    core.OrderCreatedDesc,
		Limit:    limit * overfetch,
	})
	if err != nil {
		a.Logger.Error("candidate fetch failed", "kind", kind, "error", err)
		return []core.DisplayUnit{}
	}

	candidates = a.dropBlocked(ctx, candidates, viewerID)

	rc := core.RankContext{
		ViewerID: viewerID,
		Followed: a.followedSet(ctx, viewerID),
		Counts:   a.Engagement.ForChirps(ctx, chirpIDs(candidates)),
		Now:      a.now(),
	}

	ranked := RankerFor(kind).Rank(candidates, rc)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	units := a.assemble(ctx, ranked, rc.Counts, viewerID, true)

	a.Cache.Set(key, units)
	feedsBuilt.WithLabelValues(string(kind), "store").Inc()
	return units
}

// Timeline lists a user's own chirps, newest first. includeReplies widens
// the candidate set to the user's replies; no reply interleaving either way.
func (a *Assembler) Timeline(ctx context.Context, userID string, includeReplies bool) []core.DisplayUnit {
	chirps, err := a.Chirps.Query(ctx, core.ChirpFilter{
		AuthorID: userID,
		TopLevel: !includeReplies,
		Order:    core.OrderCreatedDesc,
	})
	if err != nil {
		a.Logger.Error("timeline fetch failed", "user", userID, "error", err)
		return []core.DisplayUnit{}
	}

	counts := a.Engagement.ForChirps(ctx, chirpIDs(chirps))
	return a.assemble(ctx, chirps, counts, "", false)
}

// ByHashtag matches chirp content against "#tag" case-insensitively and
// assembles the result like a chronological feed.
func (a *Assembler) ByHashtag(ctx context.Context, tag string) []core.DisplayUnit {
	chirps, err := a.Chirps.Query(ctx, core.ChirpFilter{
		Contains: "#" + tag,
		Order:    core.OrderCreatedDesc,
	})
	if err != nil {
		a.Logger.Error("hashtag fetch failed", "tag", tag, "error", err)
		return []core.DisplayUnit{}
	}

	counts := a.Engagement.ForChirps(ctx, chirpIDs(chirps))
	return a.assemble(ctx, chirps, counts, "", true)
}

// assemble turns ranked parents into the flat display sequence: parent, then
// up to maxRepliesPerParent direct replies in ascending creation order, then
// the next parent. Repost wrappers keep their id and timestamp as the feed
// position while content, author and counts come from the original.
func (a *Assembler) assemble(ctx context.Context, parents []core.Chirp, counts map[int64]core.Engagement, viewerID string, withReplies bool) []core.DisplayUnit {
	blocked := a.blockedSet(ctx, viewerID)

	units := []core.DisplayUnit{}
	authors := a.resolveAuthors(ctx, parents)

	for _, parent := range parents {
		unit, ok := a.buildUnit(ctx, parent, counts, authors)
		if !ok {
			continue
		}
		units = append(units, unit)

		if !withReplies {
			continue
		}
		for _, reply := range a.repliesFor(ctx, parent.ID) {
			if _, hidden := blocked[reply.AuthorID]; hidden {
				continue
			}
			author, err := a.Users.GetByID(ctx, reply.AuthorID)
			if err != nil {
				continue
			}
			units = append(units, core.DisplayUnit{
				Chirp:  reply,
				Author: author,
				Counts: a.Engagement.CountsFor(ctx, reply.ID),
			})
		}
	}
	return units
}

func (a *Assembler) buildUnit(ctx context.Context, parent core.Chirp, counts map[int64]core.Engagement, authors map[string]core.User) (core.DisplayUnit, bool) {
	author, ok := authors[parent.AuthorID]
	if !ok {
		return core.DisplayUnit{}, false
	}

	unit := core.DisplayUnit{
		Chirp:  parent,
		Author: author,
		Counts: counts[parent.ID],
	}

	if !parent.IsRepostWrapper() {
		return unit, true
	}

	original, err := a.Chirps.GetByID(ctx, *parent.RepostOfID)
	if err != nil {
		a.Logger.Warn("repost target missing", "wrapper", parent.ID, "error", err)
		return core.DisplayUnit{}, false
	}
	originalAuthor, err := a.Users.GetByID(ctx, original.AuthorID)
	if err != nil {
		return core.DisplayUnit{}, false
	}

	reposter := author
	unit.Chirp.Content = original.Content
	unit.Author = originalAuthor
	unit.Counts = a.Engagement.CountsFor(ctx, original.ID)
	unit.RepostedBy = &reposter
	return unit, true
}

// repliesFor returns up to maxRepliesPerParent of the most recent direct
// replies, reordered ascending for display. A failure here is non-fatal:
// the parent still renders with zero replies.
func (a *Assembler) repliesFor(ctx context.Context, parentID int64) []core.Chirp {
	replies, err := a.Chirps.Query(ctx, core.ChirpFilter{
		ReplyToID: &parentID,
		Order:     core.OrderCreatedDesc,
		Limit:     maxRepliesPerParent,
	})
	if err != nil {
		a.Logger.Warn("reply fetch failed", "parent", parentID, "error", err)
		return nil
	}
	return lo.Reverse(replies)
}

func (a *Assembler) dropBlocked(ctx context.Context, candidates []core.Chirp, viewerID string) []core.Chirp {
	blocked := a.blockedSet(ctx, viewerID)
	if len(blocked) == 0 {
		return candidates
	}
	return lo.Filter(candidates, func(c core.Chirp, _ int) bool {
		_, hidden := blocked[c.AuthorID]
		return !hidden
	})
}

func (a *Assembler) blockedSet(ctx context.Context, viewerID string) map[string]struct{} {
	if viewerID == "" {
		return nil
	}
	ids, err := a.Blocks.InvolvedIDs(ctx, viewerID)
	if err != nil {
		a.Logger.Warn("block lookup failed", "viewer", viewerID, "error", err)
		return nil
	}
	return lo.SliceToMap(ids, func(id string) (string, struct{}) {
		return id, struct{}{}
	})
}

func (a *Assembler) followedSet(ctx context.Context, viewerID string) map[string]struct{} {
	if viewerID == "" {
		return nil
	}
	ids, err := a.Follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		a.Logger.Warn("follow lookup failed", "viewer", viewerID, "error", err)
		return nil
	}
	return lo.SliceToMap(ids, func(id string) (string, struct{}) {
		return id, struct{}{}
	})
}

// resolveAuthors fetches the distinct authors of a chirp set concurrently.
func (a *Assembler) resolveAuthors(ctx context.Context, chirps []core.Chirp) map[string]core.User {
	ids := lo.Uniq(lo.Map(chirps, func(c core.Chirp, _ int) string {
		return c.AuthorID
	}))

	users := make([]*core.User, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAuthorFetches)
	for i, id := range ids {
		g.Go(func() error {
			user, err := a.Users.GetByID(gctx, id)
			if err != nil {
				a.Logger.Warn("author lookup failed", "user", id, "error", err)
				return nil
			}
			users[i] = &user
			return nil
		})
	}
	g.Wait() // nolint:errcheck

	authors := make(map[string]core.User, len(ids))
	for i, id := range ids {
		if users[i] != nil {
			authors[id] = *users[i]
		}
	}
	return authors
}

func chirpIDs(chirps []core.Chirp) []int64 {
	return lo.Map(chirps, func(c core.Chirp, _ int) int64 {
		return c.ID
	})
}
