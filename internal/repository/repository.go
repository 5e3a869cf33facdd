package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Ward              WardRepository
	User              UserRepository
	Period            PeriodRepository
	Schedule          ScheduleRepository
	ScheduleChangeLog ScheduleChangeLogRepository
	ChangeRequest     ChangeRequestRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                db,
		Ward:              NewWardRepo(db),
		User:              NewUserRepo(db),
		Period:            NewPeriodRepo(db),
		Schedule:          NewScheduleRepo(db),
		ScheduleChangeLog: NewScheduleChangeLogRepo(db),
		ChangeRequest:     NewChangeRequestRepo(db),
	}
}

// BeginTx 开启数据库事务
// 返回的 *gorm.DB 需经 WithTx 包装后使用，并由调用方负责 Commit/Rollback
// db 未初始化时返回 nil 事务，调用方据此跳过 Commit/Rollback
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到指定事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
