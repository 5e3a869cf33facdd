package dto

// ── 排班周期模块 DTO ──

// CreatePeriodRequest 创建排班周期请求
type CreatePeriodRequest struct {
	WardID    string `json:"ward_id"    binding:"required,uuid"`
	MonthYear string `json:"month_year" binding:"required"` // "2024-05"
}

// PeriodResponse 排班周期信息响应
type PeriodResponse struct {
	ID        string        `json:"id"`
	WardID    string        `json:"ward_id"`
	Ward      *WardResponse `json:"ward,omitempty"`
	MonthYear string        `json:"month_year"`
	Status    string        `json:"status"`
	OpenedBy  *string       `json:"opened_by,omitempty"`
	OpenedAt  string        `json:"opened_at,omitempty"`
	ClosedBy  *string       `json:"closed_by,omitempty"`
	ClosedAt  string        `json:"closed_at,omitempty"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}
