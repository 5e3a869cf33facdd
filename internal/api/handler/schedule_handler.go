package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"wardroster/internal/dto"
	"wardroster/internal/service"
	"wardroster/pkg/response"
)

// ScheduleHandler 排班条目模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// CreateEntries 批量创建排班条目（排班编制）
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateEntries(c *gin.Context) {
	var req dto.CreateScheduleEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	entries, err := h.scheduleSvc.CreateEntries(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, gin.H{"list": entries})
}

// ListSchedules 按病区和日期范围查询排班条目
// GET /api/v1/schedules?ward_id=&from=&to=
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entries, err := h.scheduleSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// GetSchedule 获取排班条目详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班条目ID不能为空")
		return
	}

	entry, err := h.scheduleSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, entry)
}

// ListChangeLogs 获取排班条目的变更日志
// GET /api/v1/schedules/:id/change-logs
func (h *ScheduleHandler) ListChangeLogs(c *gin.Context) {
	var req dto.ScheduleChangeLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	req.ScheduleID = c.Param("id")
	if req.ScheduleID == "" {
		response.BadRequest(c, 10001, "排班条目ID不能为空")
		return
	}

	logs, total, err := h.scheduleSvc.ListChangeLogs(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}

// ── 错误映射 ──

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 22001, "排班条目不存在")
	case errors.Is(err, service.ErrScheduleDateInvalid):
		response.BadRequest(c, 22002, "排班日期格式无效")
	case errors.Is(err, service.ErrScheduleExists):
		response.Conflict(c, 22003, "相同员工、日期、班次的排班条目已存在")
	case errors.Is(err, service.ErrWardNotFound):
		response.NotFound(c, 21002, "病区不存在")
	case errors.Is(err, service.ErrPeriodClosed):
		response.Conflict(c, 21006, "覆盖排班周期未开放")
	case errors.Is(err, service.ErrActorForbidden):
		response.Forbidden(c, 10003, "无权执行该操作")
	default:
		response.InternalError(c)
	}
}
