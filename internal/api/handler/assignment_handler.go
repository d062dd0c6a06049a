package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crewboard/backend/internal/dto"
	"crewboard/backend/internal/service"
	"crewboard/backend/pkg/response"
)

// AssignmentHandler 指派模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.TeamAssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.TeamAssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// GetScope 拉取日期范围内的全部指派（客户端同步层的权威读）
// GET /api/v1/assignments?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *AssignmentHandler) GetScope(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	scope, err := h.assignmentSvc.GetScope(c.Request.Context(), from, to)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, scope)
}

// GetStaffSummary 查询一组人员某天的指派概要
// GET /api/v1/assignments/summary?staff_ids=a,b&date=YYYY-MM-DD
func (h *AssignmentHandler) GetStaffSummary(c *gin.Context) {
	staffIDs := splitCSV(c.Query("staff_ids"))
	if len(staffIDs) == 0 {
		response.BadRequest(c, 21001, "staff_ids不能为空")
		return
	}
	// 与命令入口的 binding 校验保持同一口径
	for _, id := range staffIDs {
		if _, err := uuid.Parse(id); err != nil {
			response.BadRequest(c, 21001, "staff_ids 必须是 UUID")
			return
		}
	}
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, 21001, "date不能为空")
		return
	}

	req := dto.StaffSummaryRequest{StaffIDs: staffIDs, Date: date}

	summary, err := h.assignmentSvc.StaffSummary(c.Request.Context(), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, summary)
}

// handleAssignmentError 统一处理指派模块业务错误
func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, 21101, "人员不存在")
	case errors.Is(err, service.ErrTeamNotFound):
		response.NotFound(c, 21102, "团队不存在")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 21103, "预订不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 21001, "日期格式无效，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
