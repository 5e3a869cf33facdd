package repository

import (
	"context"

	"gorm.io/gorm"

	"wardroster/internal/model"
)

// UserRepository 员工数据访问接口（只读引用，目录维护由上游负责）
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListByWard(ctx context.Context, wardID string) ([]model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Ward").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByWard(ctx context.Context, wardID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("ward_id = ? AND is_active = ?", wardID, true).
		Order("staff_id ASC").
		Find(&users).Error
	return users, err
}
