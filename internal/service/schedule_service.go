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

// ── 排班条目模块业务错误 ──

var (
	ErrScheduleNotFound    = errors.New("排班条目不存在")
	ErrScheduleDateInvalid = errors.New("排班日期格式无效，应为 YYYY-MM-DD")
	ErrScheduleExists      = errors.New("相同 (员工, 日期, 班次) 的排班条目已存在")
)

// ScheduleService 排班条目业务接口
// 条目创建属于排班编制流程；创建前必须存在覆盖 (病区, 月份) 的 open 周期
// 条目的后续变更仅经由调班申请审批（调班应用器）发生
type ScheduleService interface {
	CreateEntries(ctx context.Context, req *dto.CreateScheduleEntriesRequest, actor Actor) ([]dto.ScheduleEntryResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ScheduleEntryResponse, error)
	List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleEntryResponse, error)
	ListChangeLogs(ctx context.Context, req *dto.ScheduleChangeLogListRequest) ([]dto.ScheduleChangeLogResponse, int64, error)
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

// ────────────────────── CreateEntries ──────────────────────

func (s *scheduleService) CreateEntries(ctx context.Context, req *dto.CreateScheduleEntriesRequest, actor Actor) ([]dto.ScheduleEntryResponse, error) {
	if !actor.IsApprover() || !actor.CanManageWard(req.WardID) {
		return nil, ErrActorForbidden
	}

	if _, err := s.repo.Ward.GetByID(ctx, req.WardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWardNotFound
		}
		s.logger.Error("查询病区失败", zap.String("ward_id", req.WardID), zap.Error(err))
		return nil, err
	}

	entries := make([]model.ScheduleEntry, 0, len(req.Entries))
	checkedMonths := make(map[string]bool)

	for _, item := range req.Entries {
		date, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			return nil, ErrScheduleDateInvalid
		}

		// 每个涉及月份都必须有 open 周期覆盖
		monthYear := date.Format("2006-01")
		if !checkedMonths[monthYear] {
			if _, err := s.repo.Period.GetOpenByWardMonth(ctx, req.WardID, monthYear); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrPeriodClosed
				}
				s.logger.Error("查询排班周期失败", zap.Error(err))
				return nil, err
			}
			checkedMonths[monthYear] = true
		}

		entry := model.ScheduleEntry{
			UserID:    item.UserID,
			WardID:    req.WardID,
			Date:      date,
			ShiftCode: item.ShiftCode,
			Status:    model.ScheduleStatusAssigned,
		}
		entry.CreatedBy = &actor.UserID
		entry.UpdatedBy = &actor.UserID
		entries = append(entries, entry)
	}

	if err := s.repo.Schedule.BatchCreate(ctx, entries); err != nil {
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			return nil, ErrScheduleExists
		}
		s.logger.Error("批量创建排班条目失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *s.toScheduleEntryResponse(&entries[i]))
	}
	return result, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id string) (*dto.ScheduleEntryResponse, error) {
	entry, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toScheduleEntryResponse(entry), nil
}

func (s *scheduleService) List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleEntryResponse, error) {
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return nil, ErrScheduleDateInvalid
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return nil, ErrScheduleDateInvalid
	}

	entries, err := s.repo.Schedule.ListByWardAndRange(ctx, req.WardID, from, to)
	if err != nil {
		s.logger.Error("列出排班条目失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *s.toScheduleEntryResponse(&entries[i]))
	}
	return result, nil
}

// ListChangeLogs — 获取条目的变更日志
func (s *scheduleService) ListChangeLogs(ctx context.Context, req *dto.ScheduleChangeLogListRequest) ([]dto.ScheduleChangeLogResponse, int64, error) {
	logs, total, err := s.repo.ScheduleChangeLog.ListBySchedule(ctx, req.ScheduleID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询变更日志失败", zap.String("schedule_id", req.ScheduleID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ScheduleChangeLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.ScheduleChangeLogResponse{
			ID:              l.ChangeLogID,
			ScheduleID:      l.ScheduleID,
			ChangeRequestID: l.ChangeRequestID,
			OriginalUserID:  l.OriginalUserID,
			NewUserID:       l.NewUserID,
			OriginalStatus:  l.OriginalStatus,
			NewStatus:       l.NewStatus,
			ChangeType:      l.ChangeType,
			OperatorID:      l.OperatorID,
			CreatedAt:       l.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

func (s *scheduleService) toScheduleEntryResponse(entry *model.ScheduleEntry) *dto.ScheduleEntryResponse {
	resp := &dto.ScheduleEntryResponse{
		ID:              entry.ScheduleID,
		UserID:          entry.UserID,
		WardID:          entry.WardID,
		Date:            entry.Date.Format("2006-01-02"),
		ShiftCode:       entry.ShiftCode,
		Status:          entry.Status,
		ChangeRequestID: entry.ChangeRequestID,
		Version:         entry.Version,
		UpdatedAt:       entry.UpdatedAt.Format(time.RFC3339),
	}
	if entry.User != nil {
		resp.User = &dto.UserResponse{
			ID:      entry.User.UserID,
			Name:    entry.User.Name,
			StaffID: entry.User.StaffID,
			Role:    entry.User.Role,
		}
	}
	return resp
}
