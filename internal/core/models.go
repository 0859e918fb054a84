package core

import (
	"time"
)

// User is a platform identity. Auth and signup live outside this service;
// rows are written by the profile and currency operations only.
type User struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Handle         string `json:"handle"`
	CustomHandle   string `json:"customHandle,omitempty"`
	Bio            string `json:"bio,omitempty"`
	ProfileImage   string `json:"profileImageUrl,omitempty"`
	BannerImage    string `json:"bannerImageUrl,omitempty"`
	IsPlus         bool   `json:"isPlus"`
	ShowPlusBadge  bool   `json:"showPlusBadge"`
	CrystalBalance int64  `json:"crystalBalance"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

// DisplayHandle prefers the user-claimed handle over the generated one.
func (u User) DisplayHandle() string {
	if u.CustomHandle != "" {
		return u.CustomHandle
	}
	return u.Handle
}

// Chirp is a micro-post. Replies and reposts are ordinary rows with a
// nullable self-reference: ReplyToID forms the reply tree, RepostOfID marks a
// zero-content wrapper whose only role is feed placement of an existing chirp.
type Chirp struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	AuthorID      string    `json:"authorId"`
	Content       string    `json:"content"`
	ReplyToID     *int64    `json:"replyToId,omitempty"`
	RepostOfID    *int64    `json:"repostOfId,omitempty"`
	WeeklySummary bool      `json:"weeklySummary"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (Chirp) TableName() string { return "chirps" }

// IsRepostWrapper reports whether the chirp only surfaces another chirp.
func (c Chirp) IsRepostWrapper() bool { return c.RepostOfID != nil }

// Reaction is at most one per (chirp, user) pair. Reacting again with the
// same kind removes it, a different kind replaces it.
type Reaction struct {
	ID        int64     `gorm:"primaryKey"`
	ChirpID   int64     `json:"chirpId"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Reaction) TableName() string { return "reactions" }

// Repost tracks that a user amplified a chirp. This record is authoritative;
// the zero-content wrapper Chirp is a display artifact derived from it.
type Repost struct {
	ID        int64     `gorm:"primaryKey"`
	ChirpID   int64     `json:"chirpId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Repost) TableName() string { return "reposts" }

type Follow struct {
	ID         int64     `gorm:"primaryKey"`
	FollowerID string    `json:"followerId"`
	FolloweeID string    `json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Follow) TableName() string { return "follows" }

type Block struct {
	ID        int64     `gorm:"primaryKey"`
	BlockerID string    `json:"blockerId"`
	BlockedID string    `json:"blockedId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Block) TableName() string { return "blocks" }

const (
	NotificationReaction = "reaction"
	NotificationReply    = "reply"
	NotificationFollow   = "follow"
	NotificationRepost   = "repost"
)

// Notification is written by the effects coordinator only, never by readers.
type Notification struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	ActorID   string    `json:"actorId"`
	ChirpID   *int64    `json:"chirpId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }

// FeedKind selects the ranking strategy for a feed request.
type FeedKind string

const (
	FeedPersonalized  FeedKind = "personalized"
	FeedChronological FeedKind = "chronological"
	FeedTrending      FeedKind = "trending"
)

// ParseFeedKind validates a caller-supplied feed kind.
func ParseFeedKind(s string) (FeedKind, error) {
	switch FeedKind(s) {
	case FeedPersonalized, FeedChronological, FeedTrending:
		return FeedKind(s), nil
	}
	return "", Invalid("unknown feed kind: " + s)
}

// Engagement is the per-chirp count triple computed by the aggregator.
type Engagement struct {
	Reactions int64 `json:"reactionCount"`
	Replies   int64 `json:"replyCount"`
	Reposts   int64 `json:"repostCount"`
}

// Total is the signal the ranking policies look at.
func (e Engagement) Total() int64 { return e.Reactions + e.Replies }

// DisplayUnit is one renderable feed entry. For repost wrappers the Chirp
// keeps the wrapper's id and timestamp (its feed position) while Content,
// Author and Counts come from the original; RepostedBy names the amplifier.
type DisplayUnit struct {
	Chirp      Chirp      `json:"chirp"`
	Author     User       `json:"author"`
	Counts     Engagement `json:"counts"`
	RepostedBy *User      `json:"repostedBy,omitempty"`
}
