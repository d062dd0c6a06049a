package model

// Team 团队资源表 — 对应 teams
// 一个团队即日历上的一条资源轨道（车辆/班组等）
type Team struct {
	TeamID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"team_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Color    string `gorm:"type:varchar(20)"                               json:"color,omitempty"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }
