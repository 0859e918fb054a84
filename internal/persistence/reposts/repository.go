package reposts

import (
	"context"

	"chirpd/internal/core"
	"chirpd/internal/persistence"
)

type Repository struct {
	DB *persistence.DB
}

func (r *Repository) Exists(ctx context.Context, chirpID int64, userID string) (bool, error) {
	var count int64
	err := r.DB.Model(&core.Repost{}).WithContext(ctx).
		Where("chirp_id = ? AND user_id = ?", chirpID, userID).
		Count(&count).Error
	return count > 0, persistence.Translate(err)
}

func (r *Repository) Insert(ctx context.Context, repost *core.Repost) error {
	return persistence.Translate(
		r.DB.Model(&core.Repost{}).WithContext(ctx).Create(repost).Error,
	)
}

func (r *Repository) Delete(ctx context.Context, chirpID int64, userID string) error {
	return persistence.Translate(
		r.DB.Model(&core.Repost{}).WithContext(ctx).
			Where("chirp_id = ? AND user_id = ?", chirpID, userID).
			Delete(&core.Repost{}).Error,
	)
}

func (r *Repository) CountForChirp(ctx context.Context, chirpID int64) (int64, error) {
	var count int64
	err := r.DB.Model(&core.Repost{}).WithContext(ctx).
		Where("chirp_id = ?", chirpID).
		Count(&count).Error
	return count, persistence.Translate(err)
}
