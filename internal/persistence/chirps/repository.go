package chirps

import (
	"context"
	"log/slog"

	"chirpd/internal/core"
	"chirpd/internal/persistence"

	"gorm.io/gorm"
)

type Repository struct {
	Logger *slog.Logger
	DB     *persistence.DB
}

func (r *Repository) Init(_ context.Context) error {
	r.Logger = r.Logger.With("component", "chirps.Repository")
	return nil
}

func (r *Repository) Insert(ctx context.Context, chirp *core.Chirp) error {
	return persistence.Translate(r.DB.Model(&core.Chirp{}).WithContext(ctx).Create(chirp).Error)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (core.Chirp, error) {
	var chirp core.Chirp
	err := r.DB.Model(&core.Chirp{}).WithContext(ctx).Where("id = ?", id).Take(&chirp).Error
	return chirp, persistence.Translate(err)
}

func (r *Repository) Query(ctx context.Context, filter core.ChirpFilter) ([]core.Chirp, error) {
	var chirps []core.Chirp
	err := r.scope(ctx, filter).Find(&chirps).Error
	return chirps, persistence.Translate(err)
}

func (r *Repository) Count(ctx context.Context, filter core.ChirpFilter) (int64, error) {
	var count int64
	filter.Order = core.OrderCreatedDesc
	filter.Limit = 0
	err := r.scope(ctx, filter).Count(&count).Error
	return count, persistence.Translate(err)
}

func (r *Repository) Delete(ctx context.Context, id int64, authorID string) error {
	res := r.DB.Model(&core.Chirp{}).WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&core.Chirp{})
	if res.Error != nil {
		return persistence.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteRepostWrapper(ctx context.Context, chirpID int64, userID string) error {
	return persistence.Translate(
		r.DB.Model(&core.Chirp{}).WithContext(ctx).
			Where("repost_of_id = ? AND author_id = ?", chirpID, userID).
			Delete(&core.Chirp{}).Error,
	)
}

func (r *Repository) scope(ctx context.Context, filter core.ChirpFilter) *gorm.DB {
	q := r.DB.Model(&core.Chirp{}).WithContext(ctx)

	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.TopLevel {
		q = q.Where("reply_to_id IS NULL")
	}
	if filter.ReplyToID != nil {
		q = q.Where("reply_to_id = ?", *filter.ReplyToID)
	}
	if filter.RepostOfID != nil {
		q = q.Where("repost_of_id = ?", *filter.RepostOfID)
	}
	if filter.Contains != "" {
		q = q.Where("content ILIKE ?", "%"+filter.Contains+"%")
	}
	if !filter.CreatedAfter.IsZero() {
		q = q.Where("created_at > ?", filter.CreatedAfter)
	}

	switch filter.Order {
	case core.OrderCreatedAsc:
		q = q.Order("created_at ASC")
	default:
		q = q.Order("created_at DESC")
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q
}
