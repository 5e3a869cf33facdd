package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ── PostgreSQL JSONB 自定义类型 ──

// AffectedSchedule 调班申请引用的排班条目快照
// 申请创建时固化 date/shift_code，审批应用时据此核对目标条目
type AffectedSchedule struct {
	ScheduleID string `json:"schedule_id"`
	Date       string `json:"date"`       // "2024-05-10"
	ShiftCode  string `json:"shift_code"` // morning | evening | night
}

// AffectedScheduleList 对应 PostgreSQL JSONB 类型，实现 GORM Scanner/Valuer 接口。
type AffectedScheduleList []AffectedSchedule

// Scan 将 PostgreSQL 返回的 JSONB 文本解析为快照列表。
func (l *AffectedScheduleList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("AffectedScheduleList.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, l)
}

// Value 将快照列表序列化为 JSONB 文本。
func (l AffectedScheduleList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// JSONMap 对应 PostgreSQL JSONB 类型的自由键值对（申请附加元数据）。
type JSONMap map[string]interface{}

// Scan 将 PostgreSQL 返回的 JSONB 文本解析为 map。
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("JSONMap.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, m)
}

// Value 将 map 序列化为 JSONB 文本。
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}
