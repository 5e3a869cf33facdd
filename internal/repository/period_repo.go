package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"wardroster/internal/model"
	pkgerrors "wardroster/pkg/errors"
)

// PeriodRepository 排班周期数据访问接口
type PeriodRepository interface {
	Create(ctx context.Context, period *model.SchedulePeriod) error
	GetByID(ctx context.Context, id string) (*model.SchedulePeriod, error)
	// GetActiveByWard 返回病区当前处于 open 的周期（多月并存时取月份最新）
	GetActiveByWard(ctx context.Context, wardID string) (*model.SchedulePeriod, error)
	// GetOpenByWardMonth 返回覆盖 (病区, 月份) 且处于 open 的周期
	GetOpenByWardMonth(ctx context.Context, wardID, monthYear string) (*model.SchedulePeriod, error)
	// GetNonClosedByWardMonth 返回 (病区, 月份) 下未关闭（draft/open）的周期
	GetNonClosedByWardMonth(ctx context.Context, wardID, monthYear string) (*model.SchedulePeriod, error)
	List(ctx context.Context, wardID string) ([]model.SchedulePeriod, error)
	Update(ctx context.Context, period *model.SchedulePeriod) error
}

type periodRepo struct {
	db *gorm.DB
}

// NewPeriodRepo 创建 PeriodRepository 实例
func NewPeriodRepo(db *gorm.DB) PeriodRepository {
	return &periodRepo{db: db}
}

func (r *periodRepo) Create(ctx context.Context, period *model.SchedulePeriod) error {
	if err := r.db.WithContext(ctx).Create(period).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (r *periodRepo) GetByID(ctx context.Context, id string) (*model.SchedulePeriod, error) {
	var period model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Preload("Ward").
		Where("period_id = ?", id).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) GetActiveByWard(ctx context.Context, wardID string) (*model.SchedulePeriod, error) {
	var period model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Preload("Ward").
		Where("ward_id = ? AND status = ?", wardID, model.PeriodStatusOpen).
		Order("month_year DESC").
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) GetOpenByWardMonth(ctx context.Context, wardID, monthYear string) (*model.SchedulePeriod, error) {
	var period model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Where("ward_id = ? AND month_year = ? AND status = ?", wardID, monthYear, model.PeriodStatusOpen).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) GetNonClosedByWardMonth(ctx context.Context, wardID, monthYear string) (*model.SchedulePeriod, error) {
	var period model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Where("ward_id = ? AND month_year = ? AND status != ?", wardID, monthYear, model.PeriodStatusClosed).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) List(ctx context.Context, wardID string) ([]model.SchedulePeriod, error) {
	var periods []model.SchedulePeriod
	db := r.db.WithContext(ctx).Preload("Ward")
	if wardID != "" {
		db = db.Where("ward_id = ?", wardID)
	}
	err := db.Order("month_year DESC").Find(&periods).Error
	return periods, err
}

func (r *periodRepo) Update(ctx context.Context, period *model.SchedulePeriod) error {
	oldVersion := period.Version
	result := r.db.WithContext(ctx).
		Model(period).
		Where("period_id = ? AND version = ?", period.PeriodID, oldVersion).
		Updates(map[string]interface{}{
			"status":     period.Status,
			"opened_by":  period.OpenedBy,
			"opened_at":  period.OpenedAt,
			"closed_by":  period.ClosedBy,
			"closed_at":  period.ClosedAt,
			"updated_by": period.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return translateUniqueViolation(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	period.Version = oldVersion + 1
	return nil
}

// translateUniqueViolation 将 PostgreSQL 唯一约束冲突 (SQLSTATE 23505)
// 转换为统一的 ErrUniqueViolation，供 Service 层按业务语义处理
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pkgerrors.ErrUniqueViolation
	}
	return err
}
