package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"crewboard/backend/internal/dto"
)

// ── 命令分发模块业务错误 ──

var (
	ErrUnknownOperation = errors.New("未知的命令操作")
	ErrInvalidPayload   = errors.New("命令载荷无效")
)

// CommandService 命令分发业务接口
//
// UI 协作方的单一入口：{operation, data} → 强类型请求 → 对应服务。
// 业务失败（含冲突）编码进 CommandResult；只有载荷本身不可解析
// 或操作名未知时才返回 error（HTTP 层映射为 400）。
type CommandService interface {
	Dispatch(ctx context.Context, req *dto.CommandRequest) (*dto.CommandResult, error)
}

type commandService struct {
	teamAssignment TeamAssignmentService
	bookingLink    BookingLinkService
	move           MoveService
	logger         *zap.Logger
}

// NewCommandService 创建 CommandService 实例
func NewCommandService(
	teamAssignment TeamAssignmentService,
	bookingLink BookingLinkService,
	move MoveService,
	logger *zap.Logger,
) CommandService {
	return &commandService{
		teamAssignment: teamAssignment,
		bookingLink:    bookingLink,
		move:           move,
		logger:         logger,
	}
}

// decodePayload 解码并校验命令载荷（binding 标签与 HTTP 层同一套）
func decodePayload(data json.RawMessage, out interface{}) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := binding.Validator.ValidateStruct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func (s *commandService) Dispatch(ctx context.Context, req *dto.CommandRequest) (*dto.CommandResult, error) {
	switch req.Operation {
	case dto.OpAssignStaffToTeam:
		var payload dto.PlaceAssignmentRequest
		if err := decodePayload(req.Data, &payload); err != nil {
			return nil, err
		}
		assignment, err := s.teamAssignment.Place(ctx, &payload)
		if err != nil {
			return failure(err), nil
		}
		return success(assignment), nil

	case dto.OpRemoveStaffAssignment:
		var payload dto.RemoveAssignmentRequest
		if err := decodePayload(req.Data, &payload); err != nil {
			return nil, err
		}
		if err := s.teamAssignment.Remove(ctx, &payload); err != nil {
			return failure(err), nil
		}
		return success(nil), nil

	case dto.OpAssignStaffToBooking:
		var payload dto.BookingLinkRequest
		if err := decodePayload(req.Data, &payload); err != nil {
			return nil, err
		}
		link, err := s.bookingLink.Link(ctx, &payload)
		if err != nil {
			return failure(err), nil
		}
		return success(link), nil

	case dto.OpRemoveStaffFromBooking:
		var payload dto.BookingUnlinkRequest
		if err := decodePayload(req.Data, &payload); err != nil {
			return nil, err
		}
		if err := s.bookingLink.Unlink(ctx, &payload); err != nil {
			return failure(err), nil
		}
		return success(nil), nil

	case dto.OpHandleBookingMove:
		var payload dto.MoveBookingRequest
		if err := decodePayload(req.Data, &payload); err != nil {
			return nil, err
		}
		moved, err := s.move.Move(ctx, &payload)
		if err != nil {
			return failure(err), nil
		}
		// 冲突不是错误：一等结果值，由调用方决策
		return &dto.CommandResult{
			Success:       moved.Success,
			Data:          moved,
			Conflicts:     moved.Conflicts,
			AffectedStaff: moved.AffectedStaff,
		}, nil

	case dto.OpBulkAssignStaff:
		var payload dto.BulkAssignRequest
		if err := decodePayload(req.Data, &payload); err != nil {
			return nil, err
		}
		bulk, err := s.teamAssignment.BulkAssign(ctx, &payload)
		if err != nil {
			return failure(err), nil
		}
		// 部分失败：整体 success=false，但成功项保持已提交
		return &dto.CommandResult{Success: bulk.Success, Data: bulk}, nil

	case dto.OpGetStaffSummary:
		var payload dto.StaffSummaryRequest
		if err := decodePayload(req.Data, &payload); err != nil {
			return nil, err
		}
		summary, err := s.teamAssignment.StaffSummary(ctx, &payload)
		if err != nil {
			return failure(err), nil
		}
		return success(summary), nil

	default:
		s.logger.Warn("收到未知命令", zap.String("operation", req.Operation))
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, req.Operation)
	}
}

func success(data interface{}) *dto.CommandResult {
	return &dto.CommandResult{Success: true, Data: data}
}

func failure(err error) *dto.CommandResult {
	return &dto.CommandResult{Success: false, Error: err.Error()}
}
