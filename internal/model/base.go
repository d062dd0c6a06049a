package model

import "time"

// DateLayout 业务日期统一格式（按天粒度）
const DateLayout = "2006-01-02"

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// NormalizeDate 归一化到当天零点（UTC）
// 指派按天粒度存储，所有日期比较前先归一化
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
