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

// ── 调班申请模块业务错误 ──

var (
	ErrChangeRequestNotFound = errors.New("调班申请不存在")
	ErrAlreadyFinalized      = errors.New("调班申请已处于终态，不可再操作")
	ErrMissingAcceptance     = errors.New("对方尚未接受，无法批准")
	ErrTargetRequired        = errors.New("换班/调班申请必须指定对方")
	ErrTargetNotFound        = errors.New("指定的对方不存在或已停用")
	ErrTargetIsRequester     = errors.New("不能指定本人为换班对方")
	ErrAcceptNotSupported    = errors.New("该类型申请无需对方接受")
	ErrNotScheduleOwner      = errors.New("只能对本人的排班发起申请")
	ErrScheduleBusy          = errors.New("排班条目已有进行中的调班申请")
	ErrNoAffectedSchedules   = errors.New("必须至少指定一条排班条目")
	ErrSnapshotMismatch      = errors.New("排班条目与申请快照不一致")
)

// ChangeRequestService 调班申请业务接口
// 状态机：open → approved / rejected / cancelled（均为终态）
// approved 转移与调班应用在同一事务内完成，失败则申请保持 open
type ChangeRequestService interface {
	Create(ctx context.Context, req *dto.CreateChangeRequestRequest, actor Actor) (*dto.ChangeRequestResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ChangeRequestResponse, error)
	List(ctx context.Context, req *dto.ChangeRequestListRequest) ([]dto.ChangeRequestResponse, int64, error)
	Accept(ctx context.Context, id string, actor Actor) (*dto.ChangeRequestResponse, error)
	Approve(ctx context.Context, id string, actor Actor) (*dto.ChangeRequestResponse, error)
	Reject(ctx context.Context, id string, req *dto.RejectChangeRequestRequest, actor Actor) (*dto.ChangeRequestResponse, error)
	Cancel(ctx context.Context, id string, actor Actor) (*dto.ChangeRequestResponse, error)
}

type changeRequestService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewChangeRequestService 创建 ChangeRequestService 实例
func NewChangeRequestService(repo *repository.Repository, logger *zap.Logger) ChangeRequestService {
	return &changeRequestService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *changeRequestService) Create(ctx context.Context, req *dto.CreateChangeRequestRequest, actor Actor) (*dto.ChangeRequestResponse, error) {
	// 申请必须引用至少一条排班条目
	if len(req.ScheduleIDs) == 0 {
		return nil, ErrNoAffectedSchedules
	}

	// swap/change 必须指定对方
	needsTarget := req.Type == model.ChangeTypeSwap || req.Type == model.ChangeTypeChange
	if needsTarget {
		if req.TargetUserID == nil {
			return nil, ErrTargetRequired
		}
		if *req.TargetUserID == actor.UserID {
			return nil, ErrTargetIsRequester
		}
		target, err := s.repo.User.GetByID(ctx, *req.TargetUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTargetNotFound
			}
			s.logger.Error("查询对方员工失败", zap.Error(err))
			return nil, err
		}
		if !target.IsActive {
			return nil, ErrTargetNotFound
		}
	}

	// 逐条校验目标条目并固化快照
	affected := make(model.AffectedScheduleList, 0, len(req.ScheduleIDs))
	seen := make(map[string]bool, len(req.ScheduleIDs))

	for _, scheduleID := range req.ScheduleIDs {
		if seen[scheduleID] {
			continue
		}
		seen[scheduleID] = true

		entry, err := s.repo.Schedule.GetByID(ctx, scheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrScheduleNotFound
			}
			s.logger.Error("查询排班条目失败", zap.String("schedule_id", scheduleID), zap.Error(err))
			return nil, err
		}

		// 只能申请本人的排班
		if entry.UserID != actor.UserID {
			return nil, ErrNotScheduleOwner
		}

		// 申请创建必须发生在开放周期内
		if _, err := s.repo.Period.GetOpenByWardMonth(ctx, entry.WardID, entry.MonthYear()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPeriodClosed
			}
			s.logger.Error("查询排班周期失败", zap.Error(err))
			return nil, err
		}

		// 同一条目同时只允许一个进行中的申请
		open, err := s.repo.ChangeRequest.ListOpenBySchedule(ctx, scheduleID)
		if err != nil {
			s.logger.Error("查询进行中申请失败", zap.Error(err))
			return nil, err
		}
		if len(open) > 0 {
			return nil, ErrScheduleBusy
		}

		affected = append(affected, model.AffectedSchedule{
			ScheduleID: entry.ScheduleID,
			Date:       entry.Date.Format("2006-01-02"),
			ShiftCode:  entry.ShiftCode,
		})
	}

	request := &model.ChangeRequest{
		Type:              req.Type,
		Status:            model.ChangeStatusOpen,
		RequestedBy:       actor.UserID,
		TargetUserID:      req.TargetUserID,
		AffectedSchedules: affected,
		Reason:            req.Reason,
		Meta:              req.Meta,
	}
	request.CreatedBy = &actor.UserID
	request.UpdatedBy = &actor.UserID

	if err := s.repo.ChangeRequest.Create(ctx, request); err != nil {
		s.logger.Error("创建调班申请失败", zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, request.ChangeRequestID)
}

// ────────────────────── Accept ──────────────────────

// Accept 对方接受换班/调班（不改变申请状态）
func (s *changeRequestService) Accept(ctx context.Context, id string, actor Actor) (*dto.ChangeRequestResponse, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.IsTerminal() {
		return nil, ErrAlreadyFinalized
	}
	if !request.RequiresAcceptance() {
		return nil, ErrAcceptNotSupported
	}
	if request.TargetUserID == nil || *request.TargetUserID != actor.UserID {
		return nil, ErrActorForbidden
	}

	// 已接受时幂等返回
	if request.AcceptedBy != nil {
		return s.toChangeRequestResponse(request), nil
	}

	now := time.Now()
	request.AcceptedBy = &actor.UserID
	request.AcceptedAt = &now
	request.UpdatedBy = &actor.UserID

	if err := s.repo.ChangeRequest.Update(ctx, request); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, s.classifyConflict(ctx, id)
		}
		s.logger.Error("接受调班申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Approve ──────────────────────

// Approve 批准申请并应用排班变更
// 状态转移与全部条目变更在同一事务内提交；应用失败则整体回滚，申请保持 open
func (s *changeRequestService) Approve(ctx context.Context, id string, actor Actor) (*dto.ChangeRequestResponse, error) {
	if !actor.IsApprover() {
		return nil, ErrActorForbidden
	}

	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.IsTerminal() {
		return nil, ErrAlreadyFinalized
	}
	if request.RequiresAcceptance() && request.AcceptedBy == nil {
		return nil, ErrMissingAcceptance
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	// 先做状态 CAS（open → approved），拦截并发终态化与重复调用
	now := time.Now()
	request.Status = model.ChangeStatusApproved
	request.ApprovedBy = &actor.UserID
	request.ApprovedAt = &now
	request.UpdatedBy = &actor.UserID

	if err := txRepo.ChangeRequest.Update(ctx, request); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, s.classifyConflict(ctx, id)
		}
		s.logger.Error("批准调班申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 同一事务内应用全部排班变更；任一失败整体回滚
	if err := applyChangeRequest(ctx, txRepo, request, actor.UserID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		var applyErr *ApplyError
		if errors.As(err, &applyErr) {
			s.logger.Warn("调班应用失败，申请保持 open",
				zap.String("id", id),
				zap.String("schedule_id", applyErr.ScheduleID),
				zap.Error(applyErr.Err),
			)
			return nil, err
		}
		s.logger.Error("调班应用失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Reject ──────────────────────

func (s *changeRequestService) Reject(ctx context.Context, id string, req *dto.RejectChangeRequestRequest, actor Actor) (*dto.ChangeRequestResponse, error) {
	if !actor.IsApprover() {
		return nil, ErrActorForbidden
	}

	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.IsTerminal() {
		return nil, ErrAlreadyFinalized
	}

	now := time.Now()
	request.Status = model.ChangeStatusRejected
	request.RejectedBy = &actor.UserID
	request.RejectedAt = &now
	request.RejectReason = req.Reason
	request.UpdatedBy = &actor.UserID

	if err := s.repo.ChangeRequest.Update(ctx, request); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, s.classifyConflict(ctx, id)
		}
		s.logger.Error("驳回调班申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Cancel ──────────────────────

func (s *changeRequestService) Cancel(ctx context.Context, id string, actor Actor) (*dto.ChangeRequestResponse, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	// 仅申请人本人或管理员可撤销
	if request.RequestedBy != actor.UserID && !actor.IsAdmin() {
		return nil, ErrActorForbidden
	}

	if request.IsTerminal() {
		return nil, ErrAlreadyFinalized
	}

	request.Status = model.ChangeStatusCancelled
	request.UpdatedBy = &actor.UserID

	if err := s.repo.ChangeRequest.Update(ctx, request); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, s.classifyConflict(ctx, id)
		}
		s.logger.Error("撤销调班申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── 查询 ──────────────────────

func (s *changeRequestService) GetByID(ctx context.Context, id string) (*dto.ChangeRequestResponse, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toChangeRequestResponse(request), nil
}

func (s *changeRequestService) List(ctx context.Context, req *dto.ChangeRequestListRequest) ([]dto.ChangeRequestResponse, int64, error) {
	filter := repository.ChangeRequestFilter{
		Status:      req.Status,
		Type:        req.Type,
		RequestedBy: req.RequestedBy,
	}

	requests, total, err := s.repo.ChangeRequest.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出调班申请失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ChangeRequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, *s.toChangeRequestResponse(&requests[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

func (s *changeRequestService) getRequest(ctx context.Context, id string) (*model.ChangeRequest, error) {
	request, err := s.repo.ChangeRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChangeRequestNotFound
		}
		s.logger.Error("查询调班申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return request, nil
}

// classifyConflict 乐观锁失败后重读申请，区分"已被终态化"与一般并发冲突
func (s *changeRequestService) classifyConflict(ctx context.Context, id string) error {
	current, err := s.repo.ChangeRequest.GetByID(ctx, id)
	if err != nil {
		return pkgerrors.ErrOptimisticLock
	}
	if current.IsTerminal() {
		return ErrAlreadyFinalized
	}
	return pkgerrors.ErrOptimisticLock
}

func (s *changeRequestService) toChangeRequestResponse(request *model.ChangeRequest) *dto.ChangeRequestResponse {
	affected := make([]dto.AffectedScheduleResponse, 0, len(request.AffectedSchedules))
	for _, a := range request.AffectedSchedules {
		affected = append(affected, dto.AffectedScheduleResponse{
			ScheduleID: a.ScheduleID,
			Date:       a.Date,
			ShiftCode:  a.ShiftCode,
		})
	}

	resp := &dto.ChangeRequestResponse{
		ID:                request.ChangeRequestID,
		Type:              request.Type,
		Status:            request.Status,
		RequestedBy:       request.RequestedBy,
		TargetUserID:      request.TargetUserID,
		AcceptedBy:        request.AcceptedBy,
		AcceptedAt:        formatTimePtr(request.AcceptedAt),
		AffectedSchedules: affected,
		Reason:            request.Reason,
		ApprovedBy:        request.ApprovedBy,
		ApprovedAt:        formatTimePtr(request.ApprovedAt),
		RejectedBy:        request.RejectedBy,
		RejectedAt:        formatTimePtr(request.RejectedAt),
		RejectReason:      request.RejectReason,
		Meta:              request.Meta,
		CreatedAt:         request.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         request.UpdatedAt.Format(time.RFC3339),
	}
	if request.Requester != nil {
		resp.Requester = &dto.UserResponse{
			ID:      request.Requester.UserID,
			Name:    request.Requester.Name,
			StaffID: request.Requester.StaffID,
			Role:    request.Requester.Role,
		}
	}
	if request.TargetUser != nil {
		resp.TargetUser = &dto.UserResponse{
			ID:      request.TargetUser.UserID,
			Name:    request.TargetUser.Name,
			StaffID: request.TargetUser.StaffID,
			Role:    request.TargetUser.Role,
		}
	}
	return resp
}
