package model

// Booking 预订表 — 对应 bookings
// 预订的创建与状态流转由预订子系统负责；本服务读取它做展示联查。
// 预订状态离开 confirmed 时的级联清理由日历协作方触发。
type Booking struct {
	BookingID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	Title     string `gorm:"type:varchar(255);not null"                     json:"title"`
	Status    string `gorm:"type:varchar(20);not null;default:'confirmed'"  json:"status"` // confirmed | preliminary | cancelled
	BaseModel
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }
