package model

// Staff 人员表 — 对应 staff_members
type Staff struct {
	StaffID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"staff_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email    string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Phone    string `gorm:"type:varchar(50)"                               json:"phone,omitempty"`
	Role     string `gorm:"type:varchar(50)"                               json:"role,omitempty"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Staff) TableName() string { return "staff_members" }
