// Package effects is the write side: every mutation, the notifications it
// spawns and the cache invalidation it forces go through the Coordinator.
package effects

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"chirpd/internal/core"
	"chirpd/pkg/retry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirpd_writes_applied_total",
		Help: "The total number of write operations applied, by operation",
	}, []string{"op"})

	notificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirpd_notifications_emitted_total",
		Help: "The total number of notifications written, by kind",
	}, []string{"kind"})
)

type Coordinator struct {
	Logger *slog.Logger

	Chirps        core.ChirpRepository
	Users         core.UserRepository
	Reactions     core.ReactionRepository
	Reposts       core.RepostRepository
	Follows       core.FollowRepository
	Blocks        core.BlockRepository
	Notifications core.NotificationRepository
	Cache         core.FeedCache
	Events        core.EventPublisher
}

func (c *Coordinator) Init(_ context.Context) error {
	c.Logger = c.Logger.With("component", "effects.Coordinator")
	return nil
}

// CreateChirp validates and persists a new top-level chirp.
func (c *Coordinator) CreateChirp(ctx context.Context, authorID, content string, weeklySummary bool) (core.Chirp, error) {
	if authorID == "" {
		return core.Chirp{}, core.Invalid("author is required")
	}
	clean, err := sanitizeContent(content)
	if err != nil {
		return core.Chirp{}, err
	}

	chirp := core.Chirp{AuthorID: authorID, Content: clean, WeeklySummary: weeklySummary}
	if err := c.write(func() error { return c.Chirps.Insert(ctx, &chirp) }); err != nil {
		return core.Chirp{}, err
	}

	c.committed("create_chirp")
	return chirp, nil
}

// Reply persists a reply to an existing chirp and notifies its author.
func (c *Coordinator) Reply(ctx context.Context, authorID string, parentID int64, content string) (core.Chirp, error) {
	if authorID == "" {
		return core.Chirp{}, core.Invalid("author is required")
	}
	clean, err := sanitizeContent(content)
	if err != nil {
		return core.Chirp{}, err
	}

	parent, err := c.Chirps.GetByID(ctx, parentID)
	if err != nil {
		return core.Chirp{}, err
	}

	reply := core.Chirp{AuthorID: authorID, Content: clean, ReplyToID: &parent.ID}
	if err := c.write(func() error { return c.Chirps.Insert(ctx, &reply) }); err != nil {
		return core.Chirp{}, err
	}

	c.notify(ctx, parent.AuthorID, core.NotificationReply, authorID, &parent.ID)
	c.committed("reply")
	return reply, nil
}

// DeleteChirp removes an author's own chirp; the store cascades to its
// reactions and direct replies.
func (c *Coordinator) DeleteChirp(ctx context.Context, id int64, authorID string) error {
	if err := c.write(func() error { return c.Chirps.Delete(ctx, id, authorID) }); err != nil {
		return err
	}
	c.committed("delete_chirp")
	return nil
}

// React toggles a reaction. Reacting again with the same kind removes it, a
// different kind replaces it. The returned bool is the resulting state.
func (c *Coordinator) React(ctx context.Context, chirpID int64, userID, kind string) (bool, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return false, core.Invalid("reaction kind is required")
	}

	chirp, err := c.Chirps.GetByID(ctx, chirpID)
	if err != nil {
		return false, err
	}

	existing, err := c.Reactions.Get(ctx, chirpID, userID)
	switch {
	case err == nil:
		if err := c.write(func() error { return c.Reactions.Delete(ctx, chirpID, userID) }); err != nil {
			return false, err
		}
		if existing.Kind == kind {
			c.committed("react")
			return false, nil
		}
	case !errors.Is(err, core.ErrNotFound):
		return false, err
	}

	reaction := core.Reaction{ChirpID: chirpID, UserID: userID, Kind: kind}
	if err := c.write(func() error { return c.Reactions.Insert(ctx, &reaction) }); err != nil {
		return false, err
	}

	c.notify(ctx, chirp.AuthorID, core.NotificationReaction, userID, &chirp.ID)
	c.committed("react")
	return true, nil
}

// Repost toggles amplification of a chirp. On the way in it writes the
// tracking record and the zero-content wrapper chirp; on the way out it
// removes both. The returned bool is the resulting state.
func (c *Coordinator) Repost(ctx context.Context, chirpID int64, userID string) (bool, error) {
	chirp, err := c.Chirps.GetByID(ctx, chirpID)
	if err != nil {
		return false, err
	}
	if chirp.IsRepostWrapper() {
		return false, core.Invalid("cannot repost a repost")
	}

	exists, err := c.Reposts.Exists(ctx, chirpID, userID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := c.write(func() error { return c.Reposts.Delete(ctx, chirpID, userID) }); err != nil {
			return false, err
		}
		if err := c.write(func() error { return c.Chirps.DeleteRepostWrapper(ctx, chirpID, userID) }); err != nil {
			c.Logger.Warn("repost wrapper removal failed", "chirp", chirpID, "error", err)
		}
		c.committed("repost")
		return false, nil
	}

	repost := core.Repost{ChirpID: chirpID, UserID: userID}
	if err := c.write(func() error { return c.Reposts.Insert(ctx, &repost) }); err != nil {
		return false, err
	}
	wrapper := core.Chirp{AuthorID: userID, RepostOfID: &chirp.ID}
	if err := c.write(func() error { return c.Chirps.Insert(ctx, &wrapper) }); err != nil {
		c.Logger.Warn("repost wrapper insert failed", "chirp", chirpID, "error", err)
	}

	c.notify(ctx, chirp.AuthorID, core.NotificationRepost, userID, &chirp.ID)
	c.committed("repost")
	return true, nil
}

// Follow creates the edge and notifies the followee. Following someone you
// already follow reports false with no error.
func (c *Coordinator) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == followeeID {
		return false, core.Invalid("cannot follow yourself")
	}
	if _, err := c.Users.GetByID(ctx, followeeID); err != nil {
		return false, err
	}

	follow := core.Follow{FollowerID: followerID, FolloweeID: followeeID}
	err := c.write(func() error { return c.Follows.Insert(ctx, &follow) })
	if errors.Is(err, core.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	c.notify(ctx, followeeID, core.NotificationFollow, followerID, nil)
	c.committed("follow")
	return true, nil
}

func (c *Coordinator) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := c.write(func() error { return c.Follows.Delete(ctx, followerID, followeeID) }); err != nil {
		return err
	}
	c.committed("unfollow")
	return nil
}

// BlockUser records the block and severs the follow edge in both directions.
// Blocking twice is a no-op.
func (c *Coordinator) BlockUser(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return core.Invalid("cannot block yourself")
	}

	block := core.Block{BlockerID: blockerID, BlockedID: blockedID}
	err := c.write(func() error { return c.Blocks.Insert(ctx, &block) })
	if err != nil && !errors.Is(err, core.ErrAlreadyExists) {
		return err
	}

	if err := c.write(func() error { return c.Follows.DeleteBetween(ctx, blockerID, blockedID) }); err != nil {
		return err
	}

	c.committed("block")
	return nil
}

func (c *Coordinator) UnblockUser(ctx context.Context, blockerID, blockedID string) error {
	if err := c.write(func() error { return c.Blocks.Delete(ctx, blockerID, blockedID) }); err != nil {
		return err
	}
	c.committed("unblock")
	return nil
}

// UpdateProfile applies a partial profile change.
func (c *Coordinator) UpdateProfile(ctx context.Context, userID string, fields map[string]any) error {
	if len(fields) == 0 {
		return core.Invalid("no fields to update")
	}
	if err := c.write(func() error { return c.Users.Update(ctx, userID, fields) }); err != nil {
		return err
	}
	c.committed("update_profile")
	return nil
}

// AdjustCrystals applies a virtual-currency delta, floored at zero by the
// store. The cache is untouched: balances never feed into feed views.
func (c *Coordinator) AdjustCrystals(ctx context.Context, userID string, delta int64) (core.User, error) {
	if err := c.write(func() error { return c.Users.AdjustCrystalBalance(ctx, userID, delta) }); err != nil {
		return core.User{}, err
	}
	writesApplied.WithLabelValues("adjust_crystals").Inc()
	return c.Users.GetByID(ctx, userID)
}

const defaultNotificationLimit = 50

func (c *Coordinator) ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return c.Notifications.ListForUser(ctx, userID, limit)
}

func (c *Coordinator) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.Notifications.MarkRead(ctx, id)
}

// notify writes the notification row and emits the fan-out event. Both are
// best effort and never fail the triggering write; actors are never notified
// about their own actions.
func (c *Coordinator) notify(ctx context.Context, recipient, kind, actorID string, chirpID *int64) {
	if recipient == actorID {
		return
	}

	notification := core.Notification{UserID: recipient, Kind: kind, ActorID: actorID, ChirpID: chirpID}
	if err := c.Notifications.Insert(ctx, &notification); err != nil {
		c.Logger.Warn("notification insert failed", "kind", kind, "recipient", recipient, "error", err)
		return
	}
	notificationsEmitted.WithLabelValues(kind).Inc()

	if err := c.Events.Publish(ctx, "chirp.notify."+kind, notification); err != nil {
		c.Logger.Warn("event publish failed", "kind", kind, "error", err)
	}
}

// write runs a mutation, retrying exactly once on a transient store failure.
func (c *Coordinator) write(f func() error) error {
	return retry.Once(f, func(err error) bool {
		return errors.Is(err, core.ErrStoreUnavailable)
	})
}

// committed records the applied write and drops every cached feed view.
func (c *Coordinator) committed(op string) {
	writesApplied.WithLabelValues(op).Inc()
	c.Cache.Clear()
}
