package handler

import "wardroster/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Period        *PeriodHandler
	Schedule      *ScheduleHandler
	ChangeRequest *ChangeRequestHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Period:        NewPeriodHandler(svc.Period),
		Schedule:      NewScheduleHandler(svc.Schedule),
		ChangeRequest: NewChangeRequestHandler(svc.ChangeRequest),
	}
}
