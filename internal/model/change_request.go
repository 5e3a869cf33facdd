package model

import "time"

// 调班申请类型
const (
	ChangeTypeLeave  = "leave"
	ChangeTypeSwap   = "swap"
	ChangeTypeChange = "change"
)

// 调班申请状态
// open 为唯一非终态；approved / rejected / cancelled 均为终态
const (
	ChangeStatusOpen      = "open"
	ChangeStatusApproved  = "approved"
	ChangeStatusRejected  = "rejected"
	ChangeStatusCancelled = "cancelled"
)

// ChangeRequest 调班申请表 — 对应 change_requests
// 员工发起的请假(leave)/换班(swap)/调班(change)申请
// swap/change 需指定对方(TargetUserID)，且对方接受(AcceptedBy)后才可批准
type ChangeRequest struct {
	ChangeRequestID   string               `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_request_id"`
	Type              string               `gorm:"type:varchar(20);not null"                      json:"type"`   // leave | swap | change
	Status            string               `gorm:"type:varchar(20);not null;default:'open'"       json:"status"` // open | approved | rejected | cancelled
	RequestedBy       string               `gorm:"type:uuid;not null"                             json:"requested_by"`
	TargetUserID      *string              `gorm:"type:uuid"                                      json:"target_user_id,omitempty"` // swap/change 的指定对方
	AcceptedBy        *string              `gorm:"type:uuid"                                      json:"accepted_by,omitempty"`
	AcceptedAt        *time.Time           `json:"accepted_at,omitempty"`
	AffectedSchedules AffectedScheduleList `gorm:"type:jsonb;not null"                            json:"affected_schedules"`
	Reason            string               `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	ApprovedBy        *string              `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	ApprovedAt        *time.Time           `json:"approved_at,omitempty"`
	RejectedBy        *string              `gorm:"type:uuid"                                      json:"rejected_by,omitempty"`
	RejectedAt        *time.Time           `json:"rejected_at,omitempty"`
	RejectReason      string               `gorm:"type:varchar(500)"                              json:"reject_reason,omitempty"`
	Meta              JSONMap              `gorm:"type:jsonb"                                     json:"meta,omitempty"`
	VersionedModel

	// 关联
	Requester  *User `gorm:"foreignKey:RequestedBy;references:UserID"  json:"requester,omitempty"`
	TargetUser *User `gorm:"foreignKey:TargetUserID;references:UserID" json:"target_user,omitempty"`
}

// TableName 指定表名
func (ChangeRequest) TableName() string { return "change_requests" }

// IsTerminal 申请是否已进入终态
func (r *ChangeRequest) IsTerminal() bool {
	return r.Status != ChangeStatusOpen
}

// RequiresAcceptance 该类型是否需要对方接受后才可批准
func (r *ChangeRequest) RequiresAcceptance() bool {
	return r.Type == ChangeTypeSwap || r.Type == ChangeTypeChange
}
