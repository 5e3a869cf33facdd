package model

import "time"

// 排班条目状态
// assigned 为正常在班；leave/swap/change 标记条目被对应类型的调班申请变更过
const (
	ScheduleStatusAssigned = "assigned"
	ScheduleStatusLeave    = "leave"
	ScheduleStatusSwap     = "swap"
	ScheduleStatusChange   = "change"
)

// ScheduleEntry 排班条目表 — 对应 schedule_entries
// 一条 (员工, 病区, 日期, 班次) 计划排班；仅由调班应用器变更，永不删除（历史留档）
type ScheduleEntry struct {
	ScheduleID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	UserID          string    `gorm:"type:uuid;not null"                             json:"user_id"`
	WardID          string    `gorm:"type:uuid;not null"                             json:"ward_id"`
	Date            time.Time `gorm:"type:date;not null"                             json:"date"`
	ShiftCode       string    `gorm:"type:varchar(20);not null"                      json:"shift_code"` // morning | evening | night
	Status          string    `gorm:"type:varchar(20);not null;default:'assigned'"   json:"status"`
	ChangeRequestID *string   `gorm:"type:uuid"                                      json:"change_request_id,omitempty"` // 最近一次变更本条目的申请
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Ward *Ward `gorm:"foreignKey:WardID;references:WardID" json:"ward,omitempty"`
}

// TableName 指定表名
func (ScheduleEntry) TableName() string { return "schedule_entries" }

// MonthYear 返回条目所属月份键（用于匹配覆盖排班周期）
func (e *ScheduleEntry) MonthYear() string {
	return e.Date.Format("2006-01")
}

// ScheduleChangeLog 排班变更记录表 — 对应 schedule_change_logs（纯审计日志）
// 调班应用器在同一事务内为每条被变更条目追加一行
type ScheduleChangeLog struct {
	ChangeLogID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_log_id"`
	ScheduleID      string    `gorm:"type:uuid;not null"                             json:"schedule_id"`
	ChangeRequestID string    `gorm:"type:uuid;not null"                             json:"change_request_id"`
	OriginalUserID  string    `gorm:"type:uuid;not null"                             json:"original_user_id"`
	NewUserID       string    `gorm:"type:uuid;not null"                             json:"new_user_id"`
	OriginalStatus  string    `gorm:"type:varchar(20);not null"                      json:"original_status"`
	NewStatus       string    `gorm:"type:varchar(20);not null"                      json:"new_status"`
	ChangeType      string    `gorm:"type:varchar(20);not null"                      json:"change_type"` // leave | swap | change
	OperatorID      string    `gorm:"type:uuid;not null"                             json:"operator_id"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ScheduleChangeLog) TableName() string { return "schedule_change_logs" }
