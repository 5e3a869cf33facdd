package model

// Ward 病区表 — 对应 wards
// 病区目录维护由上游系统负责，本服务只读引用
type Ward struct {
	WardID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"ward_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Code     string `gorm:"type:varchar(20);not null"                      json:"code"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Ward) TableName() string { return "wards" }
