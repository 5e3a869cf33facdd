package model

// User 员工表 — 对应 users
// 员工目录与凭证管理由上游系统负责，本服务只读引用
// Role: staff | head | admin
type User struct {
	UserID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	StaffID  string `gorm:"type:varchar(20);not null"                      json:"staff_id"`
	Role     string `gorm:"type:varchar(20);not null;default:'staff'"      json:"role"`
	WardID   string `gorm:"type:uuid;not null"                             json:"ward_id"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Ward *Ward `gorm:"foreignKey:WardID;references:WardID" json:"ward,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
