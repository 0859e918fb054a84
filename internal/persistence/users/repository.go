package users

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
	r.Logger = r.Logger.With("component", "users.Repository")
	return nil
}

func (r *Repository) Insert(ctx context.Context, user *core.User) error {
	return persistence.Translate(r.DB.Model(&core.User{}).WithContext(ctx).Create(user).Error)
}

func (r *Repository) GetByID(ctx context.Context, id string) (core.User, error) {
	var user core.User
	err := r.DB.Model(&core.User{}).WithContext(ctx).Where("id = ?", id).Take(&user).Error
	return user, persistence.Translate(err)
}

func (r *Repository) GetByHandle(ctx context.Context, handle string) (core.User, error) {
	var user core.User
	err := r.DB.Model(&core.User{}).WithContext(ctx).
		Where("handle = ? OR custom_handle = ?", handle, handle).
		Take(&user).Error
	return user, persistence.Translate(err)
}

func (r *Repository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.DB.Model(&core.User{}).WithContext(ctx).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return persistence.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) AdjustCrystalBalance(ctx context.Context, id string, delta int64) error {
	res := r.DB.Model(&core.User{}).WithContext(ctx).
		Where("id = ?", id).
		Update("crystal_balance", gorm.Expr("GREATEST(crystal_balance + ?, 0)", delta))
	if res.Error != nil {
		return persistence.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}
