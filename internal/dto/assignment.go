package dto

// ── 指派模块 DTO ──

// PlaceAssignmentRequest 人员上团队请求（assign_staff_to_team）
type PlaceAssignmentRequest struct {
	StaffID string `json:"staff_id" binding:"required,uuid"`
	TeamID  string `json:"team_id"  binding:"required,uuid"`
	Date    string `json:"date"     binding:"required,datetime=2006-01-02"`
}

// RemoveAssignmentRequest 移除人员当天指派请求（remove_staff_assignment）
type RemoveAssignmentRequest struct {
	StaffID string `json:"staff_id" binding:"required,uuid"`
	Date    string `json:"date"     binding:"required,datetime=2006-01-02"`
}

// BookingLinkRequest 人员-预订关联请求（assign_staff_to_booking）
type BookingLinkRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	StaffID   string `json:"staff_id"   binding:"required,uuid"`
	TeamID    string `json:"team_id"    binding:"required,uuid"`
	Date      string `json:"date"       binding:"required,datetime=2006-01-02"`
}

// BookingUnlinkRequest 移除人员-预订关联请求（remove_staff_from_booking）
type BookingUnlinkRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	StaffID   string `json:"staff_id"   binding:"required,uuid"`
	Date      string `json:"date"       binding:"required,datetime=2006-01-02"`
}

// 搬移冲突处理策略
const (
	StrategyManual           = "manual"            // 默认：冲突原样返回，交人工决策
	StrategyForceMove        = "force_move"        // 接受搬移，冲突人员失去预订关联
	StrategyAlternativeStaff = "alternative_staff" // 用候选人顶替冲突人员
)

// MoveBookingRequest 预订搬移请求（handle_booking_move）
type MoveBookingRequest struct {
	BookingID string `json:"booking_id"  binding:"required,uuid"`
	OldTeamID string `json:"old_team_id" binding:"required,uuid"`
	NewTeamID string `json:"new_team_id" binding:"required,uuid"`
	OldDate   string `json:"old_date"    binding:"required,datetime=2006-01-02"`
	NewDate   string `json:"new_date"    binding:"required,datetime=2006-01-02"`
	// Strategy 为空时按 manual 处理
	Strategy string `json:"strategy" binding:"omitempty,oneof=manual force_move alternative_staff"`
	// AlternativeStaffIDs 仅 strategy=alternative_staff 时使用
	AlternativeStaffIDs []string `json:"alternative_staff_ids" binding:"omitempty,dive,uuid"`
}

// BulkAssignRequest 批量指派请求（bulk_assign_staff）
type BulkAssignRequest struct {
	Assignments []PlaceAssignmentRequest `json:"assignments" binding:"required,min=1,dive"`
}

// StaffSummaryRequest 人员指派概要请求（get_staff_summary）
type StaffSummaryRequest struct {
	StaffIDs []string `json:"staff_ids" binding:"required,min=1,dive,uuid"`
	Date     string   `json:"date"      binding:"required,datetime=2006-01-02"`
}

// ── 冲突 ──

// ConflictReasonNotAssignedToDestinationTeam 冲突原因：人员在目的地团队/日期无指派
const ConflictReasonNotAssignedToDestinationTeam = "not_assigned_to_destination_team"

// Conflict 搬移冲突（非持久化结果值，不是错误）
// StaffName 由展示层联查补充，与冲突检测本身无关
type Conflict struct {
	StaffID      string `json:"staff_id"`
	StaffName    string `json:"staff_name,omitempty"`
	Reason       string `json:"reason"`
	SourceTeamID string `json:"source_team_id"`
	DestTeamID   string `json:"dest_team_id"`
	Date         string `json:"date"`
}

// ── 响应 ──

// TeamAssignmentResponse 团队指派响应
type TeamAssignmentResponse struct {
	AssignmentID string      `json:"assignment_id"`
	StaffID      string      `json:"staff_id"`
	TeamID       string      `json:"team_id"`
	Date         string      `json:"date"`
	Staff        *StaffBrief `json:"staff,omitempty"`
	Team         *TeamBrief  `json:"team,omitempty"`
}

// BookingAssignmentResponse 预订关联响应
type BookingAssignmentResponse struct {
	LinkID    string        `json:"link_id"`
	BookingID string        `json:"booking_id"`
	StaffID   string        `json:"staff_id"`
	TeamID    string        `json:"team_id"`
	Date      string        `json:"date"`
	Booking   *BookingBrief `json:"booking,omitempty"`
	Staff     *StaffBrief   `json:"staff,omitempty"`
}

// MoveResult 预订搬移结果
type MoveResult struct {
	Success bool `json:"success"`
	// AffectedStaff 搬移前在源团队/日期上关联该预订的人员
	AffectedStaff []string   `json:"affected_staff"`
	Conflicts     []Conflict `json:"conflicts"`
	// Relinked 成功跟随搬移的人员数
	Relinked int `json:"relinked"`
	// SubstitutedStaff alternative_staff 策略下成功顶替的候选人
	SubstitutedStaff []string `json:"substituted_staff,omitempty"`
	// FailedSubstitutions 无目的地指派而被跳过的候选人（不计为冲突）
	FailedSubstitutions []string `json:"failed_substitutions,omitempty"`
}

// BulkAssignItemResult 批量指派单项结果
type BulkAssignItemResult struct {
	Index   int    `json:"index"`
	StaffID string `json:"staff_id"`
	Date    string `json:"date"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkAssignResult 批量指派汇总（逐项独立，不整体回滚）
type BulkAssignResult struct {
	Success bool                   `json:"success"`
	Items   []BulkAssignItemResult `json:"items"`
}

// StaffSummaryEntry 单个人员当天概要
type StaffSummaryEntry struct {
	StaffID       string `json:"staff_id"`
	TeamID        string `json:"team_id,omitempty"`
	BookingsCount int64  `json:"bookings_count"`
}

// StaffSummaryResponse 人员指派概要响应
type StaffSummaryResponse struct {
	Date    string              `json:"date"`
	Entries []StaffSummaryEntry `json:"entries"`
}

// AssignmentScopeResponse 指派范围视图（客户端同步层整体拉取的物化列表）
type AssignmentScopeResponse struct {
	From               string                      `json:"from"`
	To                 string                      `json:"to"`
	TeamAssignments    []TeamAssignmentResponse    `json:"team_assignments"`
	BookingAssignments []BookingAssignmentResponse `json:"booking_assignments"`
}
