package model

import "time"

// 排班周期状态
const (
	PeriodStatusDraft  = "draft"
	PeriodStatusOpen   = "open"
	PeriodStatusClosed = "closed"
)

// SchedulePeriod 排班周期表 — 对应 schedule_periods
// 一个病区一个月份的排班周期；状态机 draft → open → closed 严格单向
// 仅当覆盖周期处于 open 时，周期内的排班条目才允许创建或变更
type SchedulePeriod struct {
	PeriodID  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"period_id"`
	WardID    string     `gorm:"type:uuid;not null"                             json:"ward_id"`
	MonthYear string     `gorm:"type:varchar(7);not null"                       json:"month_year"` // "2024-05"
	Status    string     `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`     // draft | open | closed
	OpenedBy  *string    `gorm:"type:uuid"                                      json:"opened_by,omitempty"`
	OpenedAt  *time.Time `json:"opened_at,omitempty"`
	ClosedBy  *string    `gorm:"type:uuid"                                      json:"closed_by,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	VersionedModel

	// 关联
	Ward *Ward `gorm:"foreignKey:WardID;references:WardID" json:"ward,omitempty"`
}

// TableName 指定表名
func (SchedulePeriod) TableName() string { return "schedule_periods" }
