package dto

// ── 排班条目模块 DTO ──

// NewScheduleEntry 待创建的单条排班
type NewScheduleEntry struct {
	UserID    string `json:"user_id"    binding:"required,uuid"`
	Date      string `json:"date"       binding:"required"` // "2024-05-10"
	ShiftCode string `json:"shift_code" binding:"required,oneof=morning evening night"`
}

// CreateScheduleEntriesRequest 批量创建排班条目请求（排班编制流程）
type CreateScheduleEntriesRequest struct {
	WardID  string             `json:"ward_id" binding:"required,uuid"`
	Entries []NewScheduleEntry `json:"entries" binding:"required,min=1,dive"`
}

// ScheduleListRequest 排班条目列表查询
type ScheduleListRequest struct {
	WardID string `form:"ward_id" binding:"required,uuid"`
	From   string `form:"from"    binding:"required"` // "2024-05-01"
	To     string `form:"to"      binding:"required"` // "2024-05-31"
}

// ScheduleEntryResponse 排班条目信息响应
type ScheduleEntryResponse struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	User            *UserResponse `json:"user,omitempty"`
	WardID          string        `json:"ward_id"`
	Date            string        `json:"date"`
	ShiftCode       string        `json:"shift_code"`
	Status          string        `json:"status"`
	ChangeRequestID *string       `json:"change_request_id,omitempty"`
	Version         int           `json:"version"`
	UpdatedAt       string        `json:"updated_at"`
}

// ScheduleChangeLogListRequest 排班变更日志查询
type ScheduleChangeLogListRequest struct {
	PaginationRequest
	ScheduleID string `form:"-"`
}

// ScheduleChangeLogResponse 排班变更日志响应
type ScheduleChangeLogResponse struct {
	ID              string `json:"id"`
	ScheduleID      string `json:"schedule_id"`
	ChangeRequestID string `json:"change_request_id"`
	OriginalUserID  string `json:"original_user_id"`
	NewUserID       string `json:"new_user_id"`
	OriginalStatus  string `json:"original_status"`
	NewStatus       string `json:"new_status"`
	ChangeType      string `json:"change_type"`
	OperatorID      string `json:"operator_id"`
	CreatedAt       string `json:"created_at"`
}
