package reactions

import (
	"context"

	"chirpd/internal/core"
	"chirpd/internal/persistence"
)

type Repository struct {
	DB *persistence.DB
}

func (r *Repository) Get(ctx context.Context, chirpID int64, userID string) (core.Reaction, error) {
	var reaction core.Reaction
	err := r.DB.Model(&core.Reaction{}).WithContext(ctx).
		Where("chirp_id = ? AND user_id = ?", chirpID, userID).
		Take(&reaction).Error
	return reaction, persistence.Translate(err)
}

func (r *Repository) Insert(ctx context.Context, reaction *core.Reaction) error {
	return persistence.Translate(
		r.DB.Model(&core.Reaction{}).WithContext(ctx).Create(reaction).Error,
	)
}

func (r *Repository) Delete(ctx context.Context, chirpID int64, userID string) error {
	return persistence.Translate(
		r.DB.Model(&core.Reaction{}).WithContext(ctx).
			Where("chirp_id = ? AND user_id = ?", chirpID, userID).
			Delete(&core.Reaction{}).Error,
	)
}

func (r *Repository) CountForChirp(ctx context.Context, chirpID int64) (int64, error) {
	var count int64
	err := r.DB.Model(&core.Reaction{}).WithContext(ctx).
		Where("chirp_id = ?", chirpID).
		Count(&count).Error
	return count, persistence.Translate(err)
}
