package model

import "time"

// CalendarOccupancy 日历占用表 — 对应 calendar_occupancies
// "哪个预订在哪一天占用哪个团队资源"。数据由日历/预订子系统推送
// （含 iCalendar 导入），指派核心只读消费，用于解析
// "这个团队这天在做什么预订"。
type CalendarOccupancy struct {
	OccupancyID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"occupancy_id"`
	BookingID   string    `gorm:"type:uuid;not null" json:"booking_id"`
	TeamID      string    `gorm:"type:uuid;not null" json:"team_id"`
	Date        time.Time `gorm:"type:date;not null" json:"date"`
	EventKind   string    `gorm:"type:varchar(20);not null;default:'work'" json:"event_kind"` // work | load | unload
	BaseModel

	// 关联
	Booking *Booking `gorm:"foreignKey:BookingID;references:BookingID" json:"booking,omitempty"`
	Team    *Team    `gorm:"foreignKey:TeamID;references:TeamID"       json:"team,omitempty"`
}

// TableName 指定表名
func (CalendarOccupancy) TableName() string { return "calendar_occupancies" }
