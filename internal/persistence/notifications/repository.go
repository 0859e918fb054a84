package notifications

import (
	"context"

	"chirpd/internal/core"
	"chirpd/internal/persistence"
)

type Repository struct {
	DB *persistence.DB
}

// Insert skips writes that would duplicate an existing notification for the
// same (recipient, kind, actor, chirp) tuple.
func (r *Repository) Insert(ctx context.Context, notification *core.Notification) error {
	q := r.DB.Model(&core.Notification{}).WithContext(ctx).
		Where("user_id = ? AND kind = ? AND actor_id = ?",
			notification.UserID, notification.Kind, notification.ActorID)
	if notification.ChirpID != nil {
		q = q.Where("chirp_id = ?", *notification.ChirpID)
	} else {
		q = q.Where("chirp_id IS NULL")
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return persistence.Translate(err)
	}
	if count > 0 {
		return nil
	}

	return persistence.Translate(
		r.DB.Model(&core.Notification{}).WithContext(ctx).Create(notification).Error,
	)
}

func (r *Repository) ListForUser(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	var list []core.Notification
	q := r.DB.Model(&core.Notification{}).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, persistence.Translate(err)
}

func (r *Repository) MarkRead(ctx context.Context, id int64) error {
	res := r.DB.Model(&core.Notification{}).WithContext(ctx).
		Where("id = ?", id).
		Update("read", true)
	if res.Error != nil {
		return persistence.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}
