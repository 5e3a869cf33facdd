package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wardroster/internal/model"
	pkgerrors "wardroster/pkg/errors"
)

// ScheduleRepository 排班条目数据访问接口
// 条目变更走乐观锁版本校验；历史留档，无删除操作
type ScheduleRepository interface {
	BatchCreate(ctx context.Context, entries []model.ScheduleEntry) error
	GetByID(ctx context.Context, id string) (*model.ScheduleEntry, error)
	ListByWardAndRange(ctx context.Context, wardID string, from, to time.Time) ([]model.ScheduleEntry, error)
	Update(ctx context.Context, entry *model.ScheduleEntry) error
}

// ScheduleChangeLogRepository 排班变更日志数据访问接口
type ScheduleChangeLogRepository interface {
	Create(ctx context.Context, log *model.ScheduleChangeLog) error
	ListBySchedule(ctx context.Context, scheduleID string, offset, limit int) ([]model.ScheduleChangeLog, int64, error)
}

// ── ScheduleEntry Repository 实现 ──

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) BatchCreate(ctx context.Context, entries []model.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.ScheduleEntry, error) {
	var entry model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Ward").
		Where("schedule_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *scheduleRepo) ListByWardAndRange(ctx context.Context, wardID string, from, to time.Time) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("ward_id = ? AND date >= ? AND date <= ?", wardID, from, to).
		Order("date ASC, shift_code ASC").
		Find(&entries).Error
	return entries, err
}

func (r *scheduleRepo) Update(ctx context.Context, entry *model.ScheduleEntry) error {
	oldVersion := entry.Version
	result := r.db.WithContext(ctx).
		Model(entry).
		Where("schedule_id = ? AND version = ?", entry.ScheduleID, oldVersion).
		Updates(map[string]interface{}{
			"user_id":           entry.UserID,
			"status":            entry.Status,
			"change_request_id": entry.ChangeRequestID,
			"updated_by":        entry.UpdatedBy,
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return translateUniqueViolation(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version = oldVersion + 1
	return nil
}

// ── ScheduleChangeLog Repository 实现 ──

type scheduleChangeLogRepo struct {
	db *gorm.DB
}

// NewScheduleChangeLogRepo 创建 ScheduleChangeLogRepository 实例
func NewScheduleChangeLogRepo(db *gorm.DB) ScheduleChangeLogRepository {
	return &scheduleChangeLogRepo{db: db}
}

func (r *scheduleChangeLogRepo) Create(ctx context.Context, log *model.ScheduleChangeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *scheduleChangeLogRepo) ListBySchedule(ctx context.Context, scheduleID string, offset, limit int) ([]model.ScheduleChangeLog, int64, error) {
	var logs []model.ScheduleChangeLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ScheduleChangeLog{}).
		Where("schedule_id = ?", scheduleID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, total, err
}
