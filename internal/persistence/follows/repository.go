package follows

import (
	"context"

	"chirpd/internal/core"
	"chirpd/internal/persistence"

	"github.com/samber/lo"
)

type Repository struct {
	DB *persistence.DB
}

func (r *Repository) Insert(ctx context.Context, follow *core.Follow) error {
	return persistence.Translate(
		r.DB.Model(&core.Follow{}).WithContext(ctx).Create(follow).Error,
	)
}

func (r *Repository) Delete(ctx context.Context, followerID, followeeID string) error {
	return persistence.Translate(
		r.DB.Model(&core.Follow{}).WithContext(ctx).
			Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			Delete(&core.Follow{}).Error,
	)
}

func (r *Repository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int64
	err := r.DB.Model(&core.Follow{}).WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, persistence.Translate(err)
}

func (r *Repository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var follows []core.Follow
	err := r.DB.Model(&core.Follow{}).WithContext(ctx).
		Where("follower_id = ?", userID).
		Find(&follows).Error
	if err != nil {
		return nil, persistence.Translate(err)
	}
	return lo.Map(follows, func(f core.Follow, _ int) string {
		return f.FolloweeID
	}), nil
}

func (r *Repository) DeleteBetween(ctx context.Context, a, b string) error {
	return persistence.Translate(
		r.DB.Model(&core.Follow{}).WithContext(ctx).
			Where("(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)", a, b, b, a).
			Delete(&core.Follow{}).Error,
	)
}

func (r *Repository) Counts(ctx context.Context, userID string) (int64, int64, error) {
	var followers, following int64
	err := r.DB.Model(&core.Follow{}).WithContext(ctx).
		Where("followee_id = ?", userID).
		Count(&followers).Error
	if err != nil {
		return 0, 0, persistence.Translate(err)
	}
	err = r.DB.Model(&core.Follow{}).WithContext(ctx).
		Where("follower_id = ?", userID).
		Count(&following).Error
	return followers, following, persistence.Translate(err)
}
