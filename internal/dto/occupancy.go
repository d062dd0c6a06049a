package dto

// ── 日历占用 DTO ──

// OccupancyItem 单条占用
type OccupancyItem struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	EventKind string `json:"event_kind" binding:"omitempty,oneof=work load unload"`
}

// OccupancyPushRequest 日历协作方推送某团队某天的占用（整体替换）
type OccupancyPushRequest struct {
	TeamID string          `json:"team_id" binding:"required,uuid"`
	Date   string          `json:"date"    binding:"required,datetime=2006-01-02"`
	Items  []OccupancyItem `json:"items"   binding:"dive"`
}

// OccupancyImportRequest 从 iCalendar 源导入某团队的占用
type OccupancyImportRequest struct {
	TeamID string `json:"team_id" binding:"required,uuid"`
	// URL 与 Content 二选一：URL 拉取远端 .ics；Content 直接提交内容
	URL     string `json:"url"     binding:"omitempty,url"`
	Content string `json:"content" binding:"omitempty"`
}

// OccupancyImportResponse 导入结果
type OccupancyImportResponse struct {
	TeamID   string `json:"team_id"`
	Events   int    `json:"events"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// OccupancyResponse 占用响应
type OccupancyResponse struct {
	OccupancyID string        `json:"occupancy_id"`
	BookingID   string        `json:"booking_id"`
	TeamID      string        `json:"team_id"`
	Date        string        `json:"date"`
	EventKind   string        `json:"event_kind"`
	Booking     *BookingBrief `json:"booking,omitempty"`
}
