// Package memstore is an in-memory data store adapter implementing the same
// capability surface as the postgres-backed repositories. It substitutes for
// the external store in tests; every store accepts an injected error so
// callers' degrade and retry paths can be exercised.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"chirpd/internal/core"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type state struct {
	mu sync.Mutex

	nextID int64
	now    func() time.Time

	users         map[string]core.User
	chirps        map[int64]core.Chirp
	reactions     map[int64]core.Reaction
	reposts       map[int64]core.Repost
	follows       map[int64]core.Follow
	blocks        map[int64]core.Block
	notifications map[int64]core.Notification
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *state) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// Store bundles one adapter per aggregate over shared state.
type Store struct {
	Users         *UserStore
	Chirps        *ChirpStore
	Reactions     *ReactionStore
	Reposts       *RepostStore
	Follows       *FollowStore
	Blocks        *BlockStore
	Notifications *NotificationStore
}

func New() *Store {
	s := &state{
		now:           time.Now,
		users:         map[string]core.User{},
		chirps:        map[int64]core.Chirp{},
		reactions:     map[int64]core.Reaction{},
		reposts:       map[int64]core.Repost{},
		follows:       map[int64]core.Follow{},
		blocks:        map[int64]core.Block{},
		notifications: map[int64]core.Notification{},
	}
	return &Store{
		Users:         &UserStore{state: s},
		Chirps:        &ChirpStore{state: s},
		Reactions:     &ReactionStore{state: s},
		Reposts:       &RepostStore{state: s},
		Follows:       &FollowStore{state: s},
		Blocks:        &BlockStore{state: s},
		Notifications: &NotificationStore{state: s},
	}
}

type UserStore struct {
	state *state

	// FailWith, when set, is returned by every operation.
	FailWith error
}

func (s *UserStore) Insert(_ context.Context, user *core.User) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = s.state.stamp(user.CreatedAt)
	s.state.users[user.ID] = *user
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (core.User, error) {
	if s.FailWith != nil {
		return core.User{}, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	user, ok := s.state.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return user, nil
}

func (s *UserStore) GetByHandle(_ context.Context, handle string) (core.User, error) {
	if s.FailWith != nil {
		return core.User{}, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, user := range s.state.users {
		if user.Handle == handle || user.CustomHandle == handle {
			return user, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *UserStore) Update(_ context.Context, id string, fields map[string]any) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	user, ok := s.state.users[id]
	if !ok {
		return core.ErrNotFound
	}
	for column, value := range fields {
		switch column {
		case "bio":
			user.Bio = value.(string)
		case "custom_handle":
			user.CustomHandle = value.(string)
		case "profile_image":
			user.ProfileImage = value.(string)
		case "banner_image":
			user.BannerImage = value.(string)
		case "show_plus_badge":
			user.ShowPlusBadge = value.(bool)
		}
	}
	user.UpdatedAt = s.state.now()
	s.state.users[id] = user
	return nil
}

func (s *UserStore) AdjustCrystalBalance(_ context.Context, id string, delta int64) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	user, ok := s.state.users[id]
	if !ok {
		return core.ErrNotFound
	}
	user.CrystalBalance += delta
	if user.CrystalBalance < 0 {
		user.CrystalBalance = 0
	}
	s.state.users[id] = user
	return nil
}

type ChirpStore struct {
	state *state

	FailWith error

	// QueryHook, when set, can fail individual queries by filter. Lets tests
	// break one parent's reply fetch while the rest of the feed succeeds.
	QueryHook func(core.ChirpFilter) error
}

func (s *ChirpStore) Insert(_ context.Context, chirp *core.Chirp) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if chirp.ID == 0 {
		chirp.ID = s.state.id()
	}
	chirp.CreatedAt = s.state.stamp(chirp.CreatedAt)
	s.state.chirps[chirp.ID] = *chirp
	return nil
}

func (s *ChirpStore) GetByID(_ context.Context, id int64) (core.Chirp, error) {
	if s.FailWith != nil {
		return core.Chirp{}, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	chirp, ok := s.state.chirps[id]
	if !ok {
		return core.Chirp{}, core.ErrNotFound
	}
	return chirp, nil
}

func (s *ChirpStore) Query(_ context.Context, filter core.ChirpFilter) ([]core.Chirp, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	if s.QueryHook != nil {
		if err := s.QueryHook(filter); err != nil {
			return nil, err
		}
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	matched := s.match(filter)

	sort.SliceStable(matched, func(i, j int) bool {
		if filter.Order == core.OrderCreatedAsc {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *ChirpStore) Count(_ context.Context, filter core.ChirpFilter) (int64, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	if s.QueryHook != nil {
		if err := s.QueryHook(filter); err != nil {
			return 0, err
		}
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	return int64(len(s.match(filter))), nil
}

func (s *ChirpStore) Delete(_ context.Context, id int64, authorID string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	chirp, ok := s.state.chirps[id]
	if !ok || chirp.AuthorID != authorID {
		return core.ErrNotFound
	}

	s.deleteChirpLocked(id)
	return nil
}

func (s *ChirpStore) DeleteRepostWrapper(_ context.Context, chirpID int64, userID string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for id, chirp := range s.state.chirps {
		if chirp.RepostOfID != nil && *chirp.RepostOfID == chirpID && chirp.AuthorID == userID {
			s.deleteChirpLocked(id)
		}
	}
	return nil
}

// deleteChirpLocked removes a chirp, its reactions, and its direct replies
// together with their reactions.
func (s *ChirpStore) deleteChirpLocked(id int64) {
	delete(s.state.chirps, id)
	for rid, reaction := range s.state.reactions {
		if reaction.ChirpID == id {
			delete(s.state.reactions, rid)
		}
	}
	for cid, chirp := range s.state.chirps {
		if chirp.ReplyToID != nil && *chirp.ReplyToID == id {
			delete(s.state.chirps, cid)
			for rid, reaction := range s.state.reactions {
				if reaction.ChirpID == cid {
					delete(s.state.reactions, rid)
				}
			}
		}
	}
}

func (s *ChirpStore) match(filter core.ChirpFilter) []core.Chirp {
	var matched []core.Chirp
	for _, chirp := range s.state.chirps {
		if filter.AuthorID != "" && chirp.AuthorID != filter.AuthorID {
			continue
		}
		if filter.TopLevel && chirp.ReplyToID != nil {
			continue
		}
		if filter.ReplyToID != nil && (chirp.ReplyToID == nil || *chirp.ReplyToID != *filter.ReplyToID) {
			continue
		}
		if filter.RepostOfID != nil && (chirp.RepostOfID == nil || *chirp.RepostOfID != *filter.RepostOfID) {
			continue
		}
		if filter.Contains != "" &&
			!strings.Contains(strings.ToLower(chirp.Content), strings.ToLower(filter.Contains)) {
			continue
		}
		if !filter.CreatedAfter.IsZero() && !chirp.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		matched = append(matched, chirp)
	}
	return matched
}

type ReactionStore struct {
	state *state

	FailWith error
}

func (s *ReactionStore) Get(_ context.Context, chirpID int64, userID string) (core.Reaction, error) {
	if s.FailWith != nil {
		return core.Reaction{}, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, reaction := range s.state.reactions {
		if reaction.ChirpID == chirpID && reaction.UserID == userID {
			return reaction, nil
		}
	}
	return core.Reaction{}, core.ErrNotFound
}

func (s *ReactionStore) Insert(_ context.Context, reaction *core.Reaction) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, existing := range s.state.reactions {
		if existing.ChirpID == reaction.ChirpID && existing.UserID == reaction.UserID {
			return core.ErrAlreadyExists
		}
	}
	if reaction.ID == 0 {
		reaction.ID = s.state.id()
	}
	reaction.CreatedAt = s.state.stamp(reaction.CreatedAt)
	s.state.reactions[reaction.ID] = *reaction
	return nil
}

func (s *ReactionStore) Delete(_ context.Context, chirpID int64, userID string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for id, reaction := range s.state.reactions {
		if reaction.ChirpID == chirpID && reaction.UserID == userID {
			delete(s.state.reactions, id)
		}
	}
	return nil
}

func (s *ReactionStore) CountForChirp(_ context.Context, chirpID int64) (int64, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var count int64
	for _, reaction := range s.state.reactions {
		if reaction.ChirpID == chirpID {
			count++
		}
	}
	return count, nil
}

type RepostStore struct {
	state *state

	FailWith error
}

func (s *RepostStore) Exists(_ context.Context, chirpID int64, userID string) (bool, error) {
	if s.FailWith != nil {
		return false, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, repost := range s.state.reposts {
		if repost.ChirpID == chirpID && repost.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *RepostStore) Insert(_ context.Context, repost *core.Repost) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, existing := range s.state.reposts {
		if existing.ChirpID == repost.ChirpID && existing.UserID == repost.UserID {
			return core.ErrAlreadyExists
		}
	}
	if repost.ID == 0 {
		repost.ID = s.state.id()
	}
	repost.CreatedAt = s.state.stamp(repost.CreatedAt)
	s.state.reposts[repost.ID] = *repost
	return nil
}

func (s *RepostStore) Delete(_ context.Context, chirpID int64, userID string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for id, repost := range s.state.reposts {
		if repost.ChirpID == chirpID && repost.UserID == userID {
			delete(s.state.reposts, id)
		}
	}
	return nil
}

func (s *RepostStore) CountForChirp(_ context.Context, chirpID int64) (int64, error) {
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var count int64
	for _, repost := range s.state.reposts {
		if repost.ChirpID == chirpID {
			count++
		}
	}
	return count, nil
}

type FollowStore struct {
	state *state

	FailWith error
}

func (s *FollowStore) Insert(_ context.Context, follow *core.Follow) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, existing := range s.state.follows {
		if existing.FollowerID == follow.FollowerID && existing.FolloweeID == follow.FolloweeID {
			return core.ErrAlreadyExists
		}
	}
	if follow.ID == 0 {
		follow.ID = s.state.id()
	}
	follow.CreatedAt = s.state.stamp(follow.CreatedAt)
	s.state.follows[follow.ID] = *follow
	return nil
}

func (s *FollowStore) Delete(_ context.Context, followerID, followeeID string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for id, follow := range s.state.follows {
		if follow.FollowerID == followerID && follow.FolloweeID == followeeID {
			delete(s.state.follows, id)
		}
	}
	return nil
}

func (s *FollowStore) Exists(_ context.Context, followerID, followeeID string) (bool, error) {
	if s.FailWith != nil {
		return false, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, follow := range s.state.follows {
		if follow.FollowerID == followerID && follow.FolloweeID == followeeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *FollowStore) FollowingIDs(_ context.Context, userID string) ([]string, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var ids []string
	for _, follow := range s.state.follows {
		if follow.FollowerID == userID {
			ids = append(ids, follow.FolloweeID)
		}
	}
	return ids, nil
}

func (s *FollowStore) DeleteBetween(_ context.Context, a, b string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for id, follow := range s.state.follows {
		if (follow.FollowerID == a && follow.FolloweeID == b) ||
			(follow.FollowerID == b && follow.FolloweeID == a) {
			delete(s.state.follows, id)
		}
	}
	return nil
}

func (s *FollowStore) Counts(_ context.Context, userID string) (int64, int64, error) {
	if s.FailWith != nil {
		return 0, 0, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var followers, following int64
	for _, follow := range s.state.follows {
		if follow.FolloweeID == userID {
			followers++
		}
		if follow.FollowerID == userID {
			following++
		}
	}
	return followers, following, nil
}

type BlockStore struct {
	state *state

	FailWith error
}

func (s *BlockStore) Insert(_ context.Context, block *core.Block) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, existing := range s.state.blocks {
		if existing.BlockerID == block.BlockerID && existing.BlockedID == block.BlockedID {
			return core.ErrAlreadyExists
		}
	}
	if block.ID == 0 {
		block.ID = s.state.id()
	}
	block.CreatedAt = s.state.stamp(block.CreatedAt)
	s.state.blocks[block.ID] = *block
	return nil
}

func (s *BlockStore) Delete(_ context.Context, blockerID, blockedID string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for id, block := range s.state.blocks {
		if block.BlockerID == blockerID && block.BlockedID == blockedID {
			delete(s.state.blocks, id)
		}
	}
	return nil
}

func (s *BlockStore) Exists(_ context.Context, blockerID, blockedID string) (bool, error) {
	if s.FailWith != nil {
		return false, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, block := range s.state.blocks {
		if block.BlockerID == blockerID && block.BlockedID == blockedID {
			return true, nil
		}
	}
	return false, nil
}

func (s *BlockStore) InvolvedIDs(_ context.Context, userID string) ([]string, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var others []string
	for _, block := range s.state.blocks {
		switch userID {
		case block.BlockerID:
			others = append(others, block.BlockedID)
		case block.BlockedID:
			others = append(others, block.BlockerID)
		}
	}
	return lo.Uniq(others), nil
}

type NotificationStore struct {
	state *state

	FailWith error
}

func (s *NotificationStore) Insert(_ context.Context, notification *core.Notification) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, existing := range s.state.notifications {
		if existing.UserID == notification.UserID &&
			existing.Kind == notification.Kind &&
			existing.ActorID == notification.ActorID &&
			sameChirpRef(existing.ChirpID, notification.ChirpID) {
			return nil
		}
	}
	if notification.ID == 0 {
		notification.ID = s.state.id()
	}
	notification.CreatedAt = s.state.stamp(notification.CreatedAt)
	s.state.notifications[notification.ID] = *notification
	return nil
}

func (s *NotificationStore) ListForUser(_ context.Context, userID string, limit int) ([]core.Notification, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var list []core.Notification
	for _, notification := range s.state.notifications {
		if notification.UserID == userID {
			list = append(list, notification)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id int64) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	notification, ok := s.state.notifications[id]
	if !ok {
		return core.ErrNotFound
	}
	notification.Read = true
	s.state.notifications[id] = notification
	return nil
}

func sameChirpRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
