package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"wardroster/internal/model"
	"wardroster/internal/repository"
	pkgerrors "wardroster/pkg/errors"
)

// ApplyError 调班应用失败，携带首个出错的排班条目
// 出现该错误时整个事务回滚，申请保持 open，所有条目不变
type ApplyError struct {
	ScheduleID string
	Err        error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("调班应用失败（排班条目 %s）: %v", e.ScheduleID, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// mutationPolicy 单条排班条目的变更策略（按申请类型分派）
// 新增申请类型时在 mutationPolicies 注册即可，无需改动应用器本身
type mutationPolicy func(req *model.ChangeRequest, entry *model.ScheduleEntry) error

var mutationPolicies = map[string]mutationPolicy{
	model.ChangeTypeLeave:  applyLeave,
	model.ChangeTypeSwap:   applySwap,
	model.ChangeTypeChange: applyReassign,
}

// applyLeave 请假：状态置为 leave，排班人不变
func applyLeave(_ *model.ChangeRequest, entry *model.ScheduleEntry) error {
	entry.Status = model.ScheduleStatusLeave
	return nil
}

// applySwap 换班：排班人替换为接受方，状态置为 swap
func applySwap(req *model.ChangeRequest, entry *model.ScheduleEntry) error {
	if req.AcceptedBy == nil {
		return ErrMissingAcceptance
	}
	entry.UserID = *req.AcceptedBy
	entry.Status = model.ScheduleStatusSwap
	return nil
}

// applyReassign 调班：排班人替换为接受方，状态置为 change
func applyReassign(req *model.ChangeRequest, entry *model.ScheduleEntry) error {
	if req.AcceptedBy == nil {
		return ErrMissingAcceptance
	}
	entry.UserID = *req.AcceptedBy
	entry.Status = model.ScheduleStatusChange
	return nil
}

// applyChangeRequest 调班应用器
// 前置条件：调用方已在同一事务内将申请状态 CAS 置为 approved（重复调用保护）
// 逐条变更 affectedSchedules 引用的条目：校验条目存在、与创建时快照一致、覆盖周期 open、
// 乐观锁版本未变，写回变更并追加审计日志；任一失败即返回 *ApplyError，
// 由调用方回滚事务，保证全部生效或全部不生效
func applyChangeRequest(ctx context.Context, txRepo *repository.Repository, req *model.ChangeRequest, operatorID string) error {
	policy, ok := mutationPolicies[req.Type]
	if !ok {
		return fmt.Errorf("未知的申请类型: %s", req.Type)
	}

	for _, ref := range req.AffectedSchedules {
		entry, err := txRepo.Schedule.GetByID(ctx, ref.ScheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ApplyError{ScheduleID: ref.ScheduleID, Err: ErrScheduleNotFound}
			}
			return err
		}

		// 核对创建时固化的快照，条目的日期/班次已变则拒绝应用
		if ref.Date != entry.Date.Format("2006-01-02") || ref.ShiftCode != entry.ShiftCode {
			return &ApplyError{ScheduleID: ref.ScheduleID, Err: ErrSnapshotMismatch}
		}

		if _, err := txRepo.Period.GetOpenByWardMonth(ctx, entry.WardID, entry.MonthYear()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ApplyError{ScheduleID: ref.ScheduleID, Err: ErrPeriodClosed}
			}
			return err
		}

		originalUserID := entry.UserID
		originalStatus := entry.Status

		if err := policy(req, entry); err != nil {
			return &ApplyError{ScheduleID: ref.ScheduleID, Err: err}
		}

		// 回链：条目记录最近一次变更它的申请（后写覆盖）
		entry.ChangeRequestID = &req.ChangeRequestID
		entry.UpdatedBy = &operatorID

		if err := txRepo.Schedule.Update(ctx, entry); err != nil {
			// 版本冲突与换入班次时段占用都按应用失败回滚
			if errors.Is(err, pkgerrors.ErrOptimisticLock) || errors.Is(err, pkgerrors.ErrUniqueViolation) {
				return &ApplyError{ScheduleID: ref.ScheduleID, Err: err}
			}
			return err
		}

		changeLog := &model.ScheduleChangeLog{
			ScheduleID:      entry.ScheduleID,
			ChangeRequestID: req.ChangeRequestID,
			OriginalUserID:  originalUserID,
			NewUserID:       entry.UserID,
			OriginalStatus:  originalStatus,
			NewStatus:       entry.Status,
			ChangeType:      req.Type,
			OperatorID:      operatorID,
		}
		if err := txRepo.ScheduleChangeLog.Create(ctx, changeLog); err != nil {
			return err
		}
	}

	return nil
}
