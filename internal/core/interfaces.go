package core

import (
	"context"
	"time"
)

// ChirpOrder selects the sort applied by a chirp query.
type ChirpOrder int

const (
	OrderCreatedDesc ChirpOrder = iota
	OrderCreatedAsc
)

// ChirpFilter is the query shape the store adapter supports: by author, by
// parent (null or a specific id), by content substring (case-insensitive) and
// by creation-time range. Zero values mean "no constraint".
type ChirpFilter struct {
	AuthorID     string
	TopLevel     bool   // reply_to_id IS NULL
	ReplyToID    *int64 // direct replies of a chirp
	RepostOfID   *int64 // wrappers surfacing a chirp
	Contains     string
	CreatedAfter time.Time
	Order        ChirpOrder
	Limit        int
}

type ChirpRepository interface {
	Insert(ctx context.Context, chirp *Chirp) error
	GetByID(ctx context.Context, id int64) (Chirp, error)
	Query(ctx context.Context, filter ChirpFilter) ([]Chirp, error)
	Count(ctx context.Context, filter ChirpFilter) (int64, error)

	// Delete is author-scoped and cascades to the chirp's reactions and
	// direct replies. ErrNotFound when no row matches both id and author.
	Delete(ctx context.Context, id int64, authorID string) error

	// DeleteRepostWrapper removes the zero-content display chirp a user
	// created when reposting chirpID.
	DeleteRepostWrapper(ctx context.Context, chirpID int64, userID string) error
}

type UserRepository interface {
	Insert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByHandle(ctx context.Context, handle string) (User, error)

	// Update applies a partial field set, column name to value.
	Update(ctx context.Context, id string, fields map[string]any) error

	// AdjustCrystalBalance applies a delta, flooring the balance at zero.
	AdjustCrystalBalance(ctx context.Context, id string, delta int64) error
}

type ReactionRepository interface {
	// Get returns ErrNotFound when the pair has no reaction.
	Get(ctx context.Context, chirpID int64, userID string) (Reaction, error)
	Insert(ctx context.Context, reaction *Reaction) error
	Delete(ctx context.Context, chirpID int64, userID string) error
	CountForChirp(ctx context.Context, chirpID int64) (int64, error)
}

type RepostRepository interface {
	Exists(ctx context.Context, chirpID int64, userID string) (bool, error)
	Insert(ctx context.Context, repost *Repost) error
	Delete(ctx context.Context, chirpID int64, userID string) error
	CountForChirp(ctx context.Context, chirpID int64) (int64, error)
}

type FollowRepository interface {
	// Insert returns ErrAlreadyExists for a duplicate ordered pair.
	Insert(ctx context.Context, follow *Follow) error
	Delete(ctx context.Context, followerID, followeeID string) error
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)

	// DeleteBetween removes the edge in both directions between two users.
	DeleteBetween(ctx context.Context, a, b string) error

	Counts(ctx context.Context, userID string) (followers, following int64, err error)
}

type BlockRepository interface {
	// Insert returns ErrAlreadyExists for a duplicate ordered pair.
	Insert(ctx context.Context, block *Block) error
	Delete(ctx context.Context, blockerID, blockedID string) error
	Exists(ctx context.Context, blockerID, blockedID string) (bool, error)

	// InvolvedIDs returns every user the given user has blocked or has been
	// blocked by; the feed hides both directions.
	InvolvedIDs(ctx context.Context, userID string) ([]string, error)
}

type NotificationRepository interface {
	// Insert is a no-op when an identical (recipient, kind, actor, chirp)
	// notification already exists.
	Insert(ctx context.Context, notification *Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// FeedCache is the short-TTL process-local cache in front of feed assembly.
// Derived data only, safe for concurrent use, last write wins.
type FeedCache interface {
	Get(key string) ([]DisplayUnit, bool)
	Set(key string, units []DisplayUnit)
	Clear()
}

// EventPublisher emits fan-out events after a notification row commits.
// Failures never affect the triggering write.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// EngagementSource supplies the count triples ranking and assembly display.
type EngagementSource interface {
	CountsFor(ctx context.Context, chirpID int64) Engagement
	ForChirps(ctx context.Context, ids []int64) map[int64]Engagement
}

// RankContext is what a ranking policy may look at besides the candidates.
type RankContext struct {
	ViewerID string
	Followed map[string]struct{}
	Counts   map[int64]Engagement
	Now      time.Time
}

// Ranker orders feed candidates. Implementations must be pure: no I/O, no
// mutation of the input slice.
type Ranker interface {
	Rank(candidates []Chirp, rc RankContext) []Chirp
}
