package dto

import "encoding/json"

// ── 命令分发 DTO ──
//
// UI 协作方通过单一入口下发命令：{operation, data}。
// data 按 operation 解码为对应的强类型请求结构，各处理函数
// 拿到的输入是静态校验过的，而不是临时鸭子类型检查。

// 命令操作名
const (
	OpAssignStaffToTeam      = "assign_staff_to_team"
	OpRemoveStaffAssignment  = "remove_staff_assignment"
	OpAssignStaffToBooking   = "assign_staff_to_booking"
	OpRemoveStaffFromBooking = "remove_staff_from_booking"
	OpHandleBookingMove      = "handle_booking_move"
	OpBulkAssignStaff        = "bulk_assign_staff"
	OpGetStaffSummary        = "get_staff_summary"
)

// CommandRequest 命令请求
type CommandRequest struct {
	Operation string          `json:"operation" binding:"required"`
	Data      json.RawMessage `json:"data"      binding:"required"`
}

// CommandResult 命令结果统一外壳
type CommandResult struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Error         string      `json:"error,omitempty"`
	Conflicts     []Conflict  `json:"conflicts,omitempty"`
	AffectedStaff []string    `json:"affected_staff,omitempty"`
}
