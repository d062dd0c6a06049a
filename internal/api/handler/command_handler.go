package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crewboard/backend/internal/dto"
	"crewboard/backend/internal/service"
	"crewboard/backend/pkg/response"
)

// CommandHandler 指派命令统一入口 HTTP 处理器
type CommandHandler struct {
	commandSvc service.CommandService
}

// NewCommandHandler 创建 CommandHandler
func NewCommandHandler(commandSvc service.CommandService) *CommandHandler {
	return &CommandHandler{commandSvc: commandSvc}
}

// Dispatch 按操作名分发指派命令
// POST /api/v1/commands
//
// 业务失败（人员不存在、搬移冲突等）编码在 200 响应的 CommandResult
// 里；只有信封本身不合法（未知操作名、载荷不可解析）才返回 400。
func (h *CommandHandler) Dispatch(c *gin.Context) {
	var req dto.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 22001, "参数校验失败")
		return
	}

	result, err := h.commandSvc.Dispatch(c.Request.Context(), &req)
	if err != nil {
		h.handleCommandError(c, err)
		return
	}

	response.OK(c, result)
}

// handleCommandError 统一处理命令信封错误
func (h *CommandHandler) handleCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownOperation):
		response.BadRequest(c, 22002, "未知操作名")
	case errors.Is(err, service.ErrInvalidPayload):
		response.BadRequest(c, 22003, "命令载荷不合法")
	default:
		response.InternalError(c)
	}
}
