package dto

// ── 公共简要信息 ──

// StaffBrief 人员简要信息
type StaffBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// TeamBrief 团队简要信息
type TeamBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// BookingBrief 预订简要信息
type BookingBrief struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}
