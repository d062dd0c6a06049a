package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crewboard/backend/internal/dto"
	"crewboard/backend/internal/service"
	"crewboard/backend/pkg/response"
)

// OccupancyHandler 日历占用模块 HTTP 处理器
type OccupancyHandler struct {
	occupancySvc service.OccupancyService
}

// NewOccupancyHandler 创建 OccupancyHandler
func NewOccupancyHandler(occupancySvc service.OccupancyService) *OccupancyHandler {
	return &OccupancyHandler{occupancySvc: occupancySvc}
}

// Push 日历协作方推送某团队某天的占用（整体替换）
// POST /api/v1/occupancies
func (h *OccupancyHandler) Push(c *gin.Context) {
	var req dto.OccupancyPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	if err := h.occupancySvc.Push(c.Request.Context(), &req); err != nil {
		h.handleOccupancyError(c, err)
		return
	}

	response.OK(c, nil)
}

// Import 从 iCalendar 源导入某团队的占用
// POST /api/v1/occupancies/import
func (h *OccupancyHandler) Import(c *gin.Context) {
	var req dto.OccupancyImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	result, err := h.occupancySvc.ImportICS(c.Request.Context(), &req)
	if err != nil {
		h.handleOccupancyError(c, err)
		return
	}

	response.OK(c, result)
}

// List 查询日期范围内的占用
// GET /api/v1/occupancies?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *OccupancyHandler) List(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	items, err := h.occupancySvc.ListRange(c.Request.Context(), from, to)
	if err != nil {
		h.handleOccupancyError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// DropBooking 预订取消（离开 confirmed）的级联清理：
// 删除该预订的全部占用与预订关联
// DELETE /api/v1/occupancies/bookings/:booking_id
func (h *OccupancyHandler) DropBooking(c *gin.Context) {
	bookingID := c.Param("booking_id")
	if _, err := uuid.Parse(bookingID); err != nil {
		response.BadRequest(c, 23001, "booking_id 必须是 UUID")
		return
	}

	if err := h.occupancySvc.DropBooking(c.Request.Context(), bookingID); err != nil {
		h.handleOccupancyError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleOccupancyError 统一处理占用模块业务错误
func (h *OccupancyHandler) handleOccupancyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTeamNotFound):
		response.NotFound(c, 23101, "团队不存在")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 23102, "预订不存在")
	case errors.Is(err, service.ErrImportSourceMissing):
		response.BadRequest(c, 23103, "url与content必须二选一")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 23001, "日期格式无效，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
