package dto

// ── 调班申请模块 DTO ──

// CreateChangeRequestRequest 创建调班申请请求
// swap/change 类型必须指定 target_user_id；affected 快照由服务端从条目固化
type CreateChangeRequestRequest struct {
	Type         string                 `json:"type"           binding:"required,oneof=leave swap change"`
	ScheduleIDs  []string               `json:"schedule_ids"   binding:"required,min=1,dive,uuid"`
	TargetUserID *string                `json:"target_user_id" binding:"omitempty,uuid"`
	Reason       string                 `json:"reason"         binding:"omitempty,max=500"`
	Meta         map[string]interface{} `json:"meta"           binding:"omitempty"`
}

// RejectChangeRequestRequest 驳回调班申请请求
type RejectChangeRequestRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ChangeRequestListRequest 调班申请列表查询
type ChangeRequestListRequest struct {
	PaginationRequest
	Status      string `form:"status"       binding:"omitempty,oneof=open approved rejected cancelled"`
	Type        string `form:"type"         binding:"omitempty,oneof=leave swap change"`
	RequestedBy string `form:"requested_by" binding:"omitempty,uuid"`
}

// AffectedScheduleResponse 受影响排班条目快照响应
type AffectedScheduleResponse struct {
	ScheduleID string `json:"schedule_id"`
	Date       string `json:"date"`
	ShiftCode  string `json:"shift_code"`
}

// ChangeRequestResponse 调班申请信息响应
type ChangeRequestResponse struct {
	ID                string                     `json:"id"`
	Type              string                     `json:"type"`
	Status            string                     `json:"status"`
	RequestedBy       string                     `json:"requested_by"`
	Requester         *UserResponse              `json:"requester,omitempty"`
	TargetUserID      *string                    `json:"target_user_id,omitempty"`
	TargetUser        *UserResponse              `json:"target_user,omitempty"`
	AcceptedBy        *string                    `json:"accepted_by,omitempty"`
	AcceptedAt        string                     `json:"accepted_at,omitempty"`
	AffectedSchedules []AffectedScheduleResponse `json:"affected_schedules"`
	Reason            string                     `json:"reason,omitempty"`
	ApprovedBy        *string                    `json:"approved_by,omitempty"`
	ApprovedAt        string                     `json:"approved_at,omitempty"`
	RejectedBy        *string                    `json:"rejected_by,omitempty"`
	RejectedAt        string                     `json:"rejected_at,omitempty"`
	RejectReason      string                     `json:"reject_reason,omitempty"`
	Meta              map[string]interface{}     `json:"meta,omitempty"`
	CreatedAt         string                     `json:"created_at"`
	UpdatedAt         string                     `json:"updated_at"`
}
