package service

import (
	"errors"

	"go.uber.org/zap"

	"wardroster/internal/repository"
)

// 操作者角色
const (
	RoleStaff = "staff"
	RoleHead  = "head"
	RoleAdmin = "admin"
)

// ErrActorForbidden 操作者缺少所需角色或与目标实体无必要关系
var ErrActorForbidden = errors.New("无权执行该操作")

// Actor 当前操作者（由认证中间件从 JWT 注入，经 Handler 透传）
type Actor struct {
	UserID string
	Role   string
	WardID string
}

// IsAdmin 是否系统管理员
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsApprover 是否具备审批角色（护士长或管理员）
func (a Actor) IsApprover() bool { return a.Role == RoleHead || a.Role == RoleAdmin }

// CanManageWard 是否可管理指定病区（管理员不限病区，护士长仅限本病区）
func (a Actor) CanManageWard(wardID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleHead && a.WardID == wardID
}

// Service 所有 Service 的聚合入口
type Service struct {
	Period        PeriodService
	Schedule      ScheduleService
	ChangeRequest ChangeRequestService
}

// NewService 创建 Service 聚合
func NewService(repo *repository.Repository, logger *zap.Logger) *Service {
	return &Service{
		Period:        NewPeriodService(repo, logger),
		Schedule:      NewScheduleService(repo, logger),
		ChangeRequest: NewChangeRequestService(repo, logger),
	}
}
