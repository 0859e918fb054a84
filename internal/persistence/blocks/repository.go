package blocks

import (
	"context"

	"chirpd/internal/core"
	"chirpd/internal/persistence"

	"github.com/samber/lo"
)

type Repository struct {
	DB *persistence.DB
}

func (r *Repository) Insert(ctx context.Context, block *core.Block) error {
	return persistence.Translate(
		r.DB.Model(&core.Block{}).WithContext(ctx).Create(block).Error,
	)
}

func (r *Repository) Delete(ctx context.Context, blockerID, blockedID string) error {
	return persistence.Translate(
		r.DB.Model(&core.Block{}).WithContext(ctx).
			Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
			Delete(&core.Block{}).Error,
	)
}

func (r *Repository) Exists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var count int64
	err := r.DB.Model(&core.Block{}).WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	return count > 0, persistence.Translate(err)
}

func (r *Repository) InvolvedIDs(ctx context.Context, userID string) ([]string, error) {
	var edges []core.Block
	err := r.DB.Model(&core.Block{}).WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&edges).Error
	if err != nil {
		return nil, persistence.Translate(err)
	}

	others := lo.Map(edges, func(b core.Block, _ int) string {
		if b.BlockerID == userID {
			return b.BlockedID
		}
		return b.BlockerID
	})
	return lo.Uniq(others), nil
}
