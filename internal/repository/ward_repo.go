package repository

import (
	"context"

	"gorm.io/gorm"

	"wardroster/internal/model"
)

// WardRepository 病区数据访问接口（只读引用，目录维护由上游负责）
type WardRepository interface {
	GetByID(ctx context.Context, id string) (*model.Ward, error)
	List(ctx context.Context) ([]model.Ward, error)
}

type wardRepo struct {
	db *gorm.DB
}

// NewWardRepo 创建 WardRepository 实例
func NewWardRepo(db *gorm.DB) WardRepository {
	return &wardRepo{db: db}
}

func (r *wardRepo) GetByID(ctx context.Context, id string) (*model.Ward, error) {
	var ward model.Ward
	err := r.db.WithContext(ctx).
		Where("ward_id = ?", id).
		First(&ward).Error
	if err != nil {
		return nil, err
	}
	return &ward, nil
}

func (r *wardRepo) List(ctx context.Context) ([]model.Ward, error) {
	var wards []model.Ward
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&wards).Error
	return wards, err
}
