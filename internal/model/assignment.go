package model

import "time"

// TeamAssignment 团队指派表 — 对应 team_assignments
// 不变量：(staff_id, date) 唯一 — 同一人员每天至多属于一个团队。
// 由唯一约束 + upsert 语义保证，同日重复指派为替换而非报错。
type TeamAssignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	StaffID      string    `gorm:"type:uuid;not null;uniqueIndex:uq_team_assignments_staff_date" json:"staff_id"`
	TeamID       string    `gorm:"type:uuid;not null"                             json:"team_id"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:uq_team_assignments_staff_date" json:"date"`
	BaseModel

	// 关联
	Staff *Staff `gorm:"foreignKey:StaffID;references:StaffID" json:"staff,omitempty"`
	Team  *Team  `gorm:"foreignKey:TeamID;references:TeamID"   json:"team,omitempty"`
}

// TableName 指定表名
func (TeamAssignment) TableName() string { return "team_assignments" }

// BookingAssignment 预订关联表 — 对应 booking_assignments
// 派生事实："该人员当天具体负责该预订"。仅当对应的
// TeamAssignment(staff, team, date) 存在时才有效；该一致性不做
// 数据库级外键链，由所有写路径（BookingLinkService 单一写入方）维护。
// 不变量：(booking_id, staff_id, date) 唯一。
type BookingAssignment struct {
	LinkID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"link_id"`
	BookingID string    `gorm:"type:uuid;not null;uniqueIndex:uq_booking_assignments_booking_staff_date" json:"booking_id"`
	StaffID   string    `gorm:"type:uuid;not null;uniqueIndex:uq_booking_assignments_booking_staff_date" json:"staff_id"`
	TeamID    string    `gorm:"type:uuid;not null"                             json:"team_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:uq_booking_assignments_booking_staff_date" json:"date"`
	BaseModel

	// 关联
	Booking *Booking `gorm:"foreignKey:BookingID;references:BookingID" json:"booking,omitempty"`
	Staff   *Staff   `gorm:"foreignKey:StaffID;references:StaffID"     json:"staff,omitempty"`
	Team    *Team    `gorm:"foreignKey:TeamID;references:TeamID"       json:"team,omitempty"`
}

// TableName 指定表名
func (BookingAssignment) TableName() string { return "booking_assignments" }
