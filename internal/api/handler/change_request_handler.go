package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"wardroster/internal/dto"
	"wardroster/internal/service"
	pkgerrors "wardroster/pkg/errors"
	"wardroster/pkg/response"
)

// ChangeRequestHandler 调班申请模块 HTTP 处理器
type ChangeRequestHandler struct {
	changeRequestSvc service.ChangeRequestService
}

// NewChangeRequestHandler 创建 ChangeRequestHandler
func NewChangeRequestHandler(changeRequestSvc service.ChangeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{changeRequestSvc: changeRequestSvc}
}

// CreateChangeRequest 创建调班申请
// POST /api/v1/change-requests
func (h *ChangeRequestHandler) CreateChangeRequest(c *gin.Context) {
	var req dto.CreateChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	cr, err := h.changeRequestSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.Created(c, cr)
}

// ListChangeRequests 获取调班申请列表
// GET /api/v1/change-requests?status=&type=&requested_by=&page=&page_size=
func (h *ChangeRequestHandler) ListChangeRequests(c *gin.Context) {
	var req dto.ChangeRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.changeRequestSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetChangeRequest 获取调班申请详情
// GET /api/v1/change-requests/:id
func (h *ChangeRequestHandler) GetChangeRequest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	cr, err := h.changeRequestSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, cr)
}

// AcceptChangeRequest 对方接受换班/调班申请
// PUT /api/v1/change-requests/:id/accept
func (h *ChangeRequestHandler) AcceptChangeRequest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	cr, err := h.changeRequestSvc.Accept(c.Request.Context(), id, actor)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, cr)
}

// ApproveChangeRequest 批准调班申请并应用排班变更
// PUT /api/v1/change-requests/:id/approve
func (h *ChangeRequestHandler) ApproveChangeRequest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	cr, err := h.changeRequestSvc.Approve(c.Request.Context(), id, actor)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, cr)
}

// RejectChangeRequest 驳回调班申请
// PUT /api/v1/change-requests/:id/reject
func (h *ChangeRequestHandler) RejectChangeRequest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	var req dto.RejectChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	cr, err := h.changeRequestSvc.Reject(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, cr)
}

// CancelChangeRequest 撤回调班申请（申请人本人或管理员）
// PUT /api/v1/change-requests/:id/cancel
func (h *ChangeRequestHandler) CancelChangeRequest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	cr, err := h.changeRequestSvc.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, cr)
}

// ── 错误映射 ──

func (h *ChangeRequestHandler) handleChangeRequestError(c *gin.Context, err error) {
	var applyErr *service.ApplyError
	if errors.As(err, &applyErr) {
		// 应用失败时事务已回滚，申请仍保持 open
		switch {
		case errors.Is(applyErr.Err, service.ErrPeriodClosed):
			response.Conflict(c, 23010, "排班周期已关闭，变更无法应用")
		case errors.Is(applyErr.Err, service.ErrScheduleNotFound):
			response.UnprocessableEntity(c, 23011, "受影响的排班条目已不存在")
		case errors.Is(applyErr.Err, pkgerrors.ErrOptimisticLock):
			response.Conflict(c, 23012, "排班条目已被并发修改，请重试")
		case errors.Is(applyErr.Err, service.ErrSnapshotMismatch):
			response.Conflict(c, 23015, "排班条目与申请快照不一致")
		case errors.Is(applyErr.Err, pkgerrors.ErrUniqueViolation):
			response.Conflict(c, 23016, "目标时段已有排班，变更无法应用")
		default:
			response.UnprocessableEntity(c, 23013, "调班变更应用失败")
		}
		return
	}

	switch {
	case errors.Is(err, service.ErrChangeRequestNotFound):
		response.NotFound(c, 23001, "调班申请不存在")
	case errors.Is(err, service.ErrAlreadyFinalized):
		response.Conflict(c, 23002, "调班申请已处于终态")
	case errors.Is(err, service.ErrMissingAcceptance):
		response.UnprocessableEntity(c, 23003, "对方尚未接受，无法批准")
	case errors.Is(err, service.ErrTargetRequired):
		response.BadRequest(c, 23004, "换班/调班申请必须指定对方")
	case errors.Is(err, service.ErrTargetNotFound):
		response.BadRequest(c, 23005, "指定的对方不存在或已停用")
	case errors.Is(err, service.ErrTargetIsRequester):
		response.BadRequest(c, 23006, "不能指定本人为换班对方")
	case errors.Is(err, service.ErrAcceptNotSupported):
		response.BadRequest(c, 23007, "该类型申请无需对方接受")
	case errors.Is(err, service.ErrNotScheduleOwner):
		response.Forbidden(c, 23008, "只能对本人的排班发起申请")
	case errors.Is(err, service.ErrScheduleBusy):
		response.Conflict(c, 23009, "排班条目已有进行中的调班申请")
	case errors.Is(err, service.ErrNoAffectedSchedules):
		response.BadRequest(c, 23014, "必须至少指定一条排班条目")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 22001, "排班条目不存在")
	case errors.Is(err, service.ErrPeriodClosed):
		response.Conflict(c, 21006, "覆盖排班周期未开放")
	case errors.Is(err, service.ErrActorForbidden):
		response.Forbidden(c, 10003, "无权执行该操作")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10004, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
