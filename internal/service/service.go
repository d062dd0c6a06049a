package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"crewboard/backend/internal/model"
	"crewboard/backend/internal/repository"
	"crewboard/backend/pkg/feed"
)

// ── 公共业务错误 ──

var (
	ErrStaffNotFound   = errors.New("人员不存在")
	ErrTeamNotFound    = errors.New("团队不存在")
	ErrBookingNotFound = errors.New("预订不存在")
	ErrInvalidDate     = errors.New("日期格式无效，应为 YYYY-MM-DD")
)

// Service 所有 Service 的聚合入口
type Service struct {
	TeamAssignment TeamAssignmentService
	BookingLink    BookingLinkService
	Move           MoveService
	Occupancy      OccupancyService
	Command        CommandService
}

// NewService 创建 Service 聚合
func NewService(repo *repository.Repository, publisher feed.Publisher, logger *zap.Logger) *Service {
	bookingLink := NewBookingLinkService(repo, publisher, logger)
	teamAssignment := NewTeamAssignmentService(repo, bookingLink, publisher, logger)
	move := NewMoveService(repo, bookingLink, publisher, logger)
	occupancy := NewOccupancyService(repo, bookingLink, publisher, logger)
	command := NewCommandService(teamAssignment, bookingLink, move, logger)
	return &Service{
		TeamAssignment: teamAssignment,
		BookingLink:    bookingLink,
		Move:           move,
		Occupancy:      occupancy,
		Command:        command,
	}
}

// parseDate 解析业务日期并归一化到当天零点
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return model.NormalizeDate(t), nil
}

// formatDate 业务日期转字符串
func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}
