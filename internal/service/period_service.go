package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wardroster/internal/dto"
	"wardroster/internal/model"
	"wardroster/internal/repository"
	pkgerrors "wardroster/pkg/errors"
)

// ── 排班周期模块业务错误 ──

var (
	ErrPeriodNotFound          = errors.New("排班周期不存在")
	ErrWardNotFound            = errors.New("病区不存在")
	ErrPeriodMonthInvalid      = errors.New("月份格式无效，应为 YYYY-MM")
	ErrPeriodConflict          = errors.New("该病区该月份已存在未关闭的排班周期")
	ErrPeriodInvalidTransition = errors.New("排班周期当前状态不允许该操作")
	ErrPeriodClosed            = errors.New("覆盖排班周期未开放，排班不可变更")
)

// PeriodService 排班周期业务接口
// 状态机 draft → open → closed 严格单向；draft 直接关闭不被支持
type PeriodService interface {
	Create(ctx context.Context, req *dto.CreatePeriodRequest, actor Actor) (*dto.PeriodResponse, error)
	Open(ctx context.Context, id string, actor Actor) (*dto.PeriodResponse, error)
	Close(ctx context.Context, id string, actor Actor) (*dto.PeriodResponse, error)
	GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error)
	GetActiveByWard(ctx context.Context, wardID string) (*dto.PeriodResponse, error)
	List(ctx context.Context, wardID string) ([]dto.PeriodResponse, error)
}

type periodService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPeriodService 创建 PeriodService 实例
func NewPeriodService(repo *repository.Repository, logger *zap.Logger) PeriodService {
	return &periodService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *periodService) Create(ctx context.Context, req *dto.CreatePeriodRequest, actor Actor) (*dto.PeriodResponse, error) {
	if !actor.IsApprover() || !actor.CanManageWard(req.WardID) {
		return nil, ErrActorForbidden
	}

	if _, err := time.Parse("2006-01", req.MonthYear); err != nil {
		return nil, ErrPeriodMonthInvalid
	}

	if _, err := s.repo.Ward.GetByID(ctx, req.WardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWardNotFound
		}
		s.logger.Error("查询病区失败", zap.String("ward_id", req.WardID), zap.Error(err))
		return nil, err
	}

	// 同一 (病区, 月份) 至多一个未关闭周期
	if _, err := s.repo.Period.GetNonClosedByWardMonth(ctx, req.WardID, req.MonthYear); err == nil {
		return nil, ErrPeriodConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询排班周期失败", zap.Error(err))
		return nil, err
	}

	period := &model.SchedulePeriod{
		WardID:    req.WardID,
		MonthYear: req.MonthYear,
		Status:    model.PeriodStatusDraft,
	}
	period.CreatedBy = &actor.UserID
	period.UpdatedBy = &actor.UserID

	if err := s.repo.Period.Create(ctx, period); err != nil {
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			return nil, ErrPeriodConflict
		}
		s.logger.Error("创建排班周期失败", zap.Error(err))
		return nil, err
	}

	return s.toPeriodResponse(period), nil
}

// ────────────────────── Open ──────────────────────

func (s *periodService) Open(ctx context.Context, id string, actor Actor) (*dto.PeriodResponse, error) {
	period, err := s.getPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsApprover() || !actor.CanManageWard(period.WardID) {
		return nil, ErrActorForbidden
	}

	if period.Status != model.PeriodStatusDraft {
		return nil, ErrPeriodInvalidTransition
	}

	// 开放前校验同月无其他 open 周期；并发竞争由部分唯一索引兜底
	if other, err := s.repo.Period.GetOpenByWardMonth(ctx, period.WardID, period.MonthYear); err == nil && other.PeriodID != period.PeriodID {
		return nil, ErrPeriodConflict
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询排班周期失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	period.Status = model.PeriodStatusOpen
	period.OpenedBy = &actor.UserID
	period.OpenedAt = &now
	period.UpdatedBy = &actor.UserID

	if err := s.repo.Period.Update(ctx, period); err != nil {
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			return nil, ErrPeriodConflict
		}
		s.logger.Error("开放排班周期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toPeriodResponse(period), nil
}

// ────────────────────── Close ──────────────────────

func (s *periodService) Close(ctx context.Context, id string, actor Actor) (*dto.PeriodResponse, error) {
	period, err := s.getPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsApprover() || !actor.CanManageWard(period.WardID) {
		return nil, ErrActorForbidden
	}

	if period.Status != model.PeriodStatusOpen {
		return nil, ErrPeriodInvalidTransition
	}

	now := time.Now()
	period.Status = model.PeriodStatusClosed
	period.ClosedBy = &actor.UserID
	period.ClosedAt = &now
	period.UpdatedBy = &actor.UserID

	if err := s.repo.Period.Update(ctx, period); err != nil {
		s.logger.Error("关闭排班周期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toPeriodResponse(period), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *periodService) GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error) {
	period, err := s.getPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toPeriodResponse(period), nil
}

func (s *periodService) GetActiveByWard(ctx context.Context, wardID string) (*dto.PeriodResponse, error) {
	period, err := s.repo.Period.GetActiveByWard(ctx, wardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("查询开放排班周期失败", zap.String("ward_id", wardID), zap.Error(err))
		return nil, err
	}
	return s.toPeriodResponse(period), nil
}

func (s *periodService) List(ctx context.Context, wardID string) ([]dto.PeriodResponse, error) {
	periods, err := s.repo.Period.List(ctx, wardID)
	if err != nil {
		s.logger.Error("列出排班周期失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PeriodResponse, 0, len(periods))
	for i := range periods {
		result = append(result, *s.toPeriodResponse(&periods[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *periodService) getPeriod(ctx context.Context, id string) (*model.SchedulePeriod, error) {
	period, err := s.repo.Period.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("查询排班周期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return period, nil
}

func (s *periodService) toPeriodResponse(period *model.SchedulePeriod) *dto.PeriodResponse {
	resp := &dto.PeriodResponse{
		ID:        period.PeriodID,
		WardID:    period.WardID,
		MonthYear: period.MonthYear,
		Status:    period.Status,
		OpenedBy:  period.OpenedBy,
		OpenedAt:  formatTimePtr(period.OpenedAt),
		ClosedBy:  period.ClosedBy,
		ClosedAt:  formatTimePtr(period.ClosedAt),
		CreatedAt: period.CreatedAt.Format(time.RFC3339),
		UpdatedAt: period.UpdatedAt.Format(time.RFC3339),
	}
	if period.Ward != nil {
		resp.Ward = &dto.WardResponse{
			ID:   period.Ward.WardID,
			Name: period.Ward.Name,
			Code: period.Ward.Code,
		}
	}
	return resp
}

// formatTimePtr 格式化可空时间戳，nil 时返回空串
func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
