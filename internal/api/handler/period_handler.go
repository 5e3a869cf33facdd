package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"wardroster/internal/dto"
	"wardroster/internal/service"
	pkgerrors "wardroster/pkg/errors"
	"wardroster/pkg/response"
)

// PeriodHandler 排班周期模块 HTTP 处理器
type PeriodHandler struct {
	periodSvc service.PeriodService
}

// NewPeriodHandler 创建 PeriodHandler
func NewPeriodHandler(periodSvc service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodSvc: periodSvc}
}

// ListPeriods 获取排班周期列表
// GET /api/v1/periods?ward_id=
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	wardID := c.Query("ward_id")

	periods, err := h.periodSvc.List(c.Request.Context(), wardID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": periods})
}

// GetPeriod 获取排班周期详情
// GET /api/v1/periods/:id
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	period, err := h.periodSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// GetActivePeriod 获取病区当前开放的排班周期
// GET /api/v1/periods/active?ward_id=
func (h *PeriodHandler) GetActivePeriod(c *gin.Context) {
	wardID := c.Query("ward_id")
	if wardID == "" {
		response.BadRequest(c, 10001, "病区ID不能为空")
		return
	}

	period, err := h.periodSvc.GetActiveByWard(c.Request.Context(), wardID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// CreatePeriod 创建排班周期（draft）
// POST /api/v1/periods
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.Created(c, period)
}

// OpenPeriod 开放排班周期（draft → open）
// PUT /api/v1/periods/:id/open
func (h *PeriodHandler) OpenPeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Open(c.Request.Context(), id, actor)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// ClosePeriod 关闭排班周期（open → closed）
// PUT /api/v1/periods/:id/close
func (h *PeriodHandler) ClosePeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Close(c.Request.Context(), id, actor)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// ── 错误映射 ──

func (h *PeriodHandler) handlePeriodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 21001, "排班周期不存在")
	case errors.Is(err, service.ErrWardNotFound):
		response.NotFound(c, 21002, "病区不存在")
	case errors.Is(err, service.ErrPeriodMonthInvalid):
		response.BadRequest(c, 21003, "月份格式无效")
	case errors.Is(err, service.ErrPeriodConflict):
		response.Conflict(c, 21004, "该病区该月份已存在未关闭的排班周期")
	case errors.Is(err, service.ErrPeriodInvalidTransition):
		response.Conflict(c, 21005, "排班周期当前状态不允许该操作")
	case errors.Is(err, service.ErrActorForbidden):
		response.Forbidden(c, 10003, "无权执行该操作")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10004, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
