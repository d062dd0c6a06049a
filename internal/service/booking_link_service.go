package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewboard/backend/internal/dto"
	"crewboard/backend/internal/model"
	"crewboard/backend/internal/repository"
	"crewboard/backend/pkg/feed"
)

// ── 预订关联模块业务错误 ──

var (
	// ErrNoTeamPlacement 人员在该团队/日期无团队指派，不能建立预订关联
	ErrNoTeamPlacement = errors.New("人员当天未被指派到该团队")
)

// BookingLinkService 预订关联业务接口
//
// booking_assignments 的唯一写入方：派生、手动关联、搬移路径的
// 写入都经由本服务，保证"关联必有对应团队指派"这一逻辑不变量
// 只需在一处维护。
type BookingLinkService interface {
	// DeriveFor 由团队指派派生预订关联：
	// 读取 (team, date) 的日历占用 → 为每个去重后的预订 upsert 关联 →
	// 清理该人员当天 team 不匹配或预订已不在派生集合内的过期关联。
	// 占用为空时不建任何关联，并清空该人员当天已有关联。
	DeriveFor(ctx context.Context, staffID, teamID string, date time.Time) ([]model.BookingAssignment, error)
	// DeriveForTx 同 DeriveFor，但在调用方事务内执行
	DeriveForTx(ctx context.Context, r *repository.Repository, staffID, teamID string, date time.Time) ([]model.BookingAssignment, error)
	// Link 手动建立关联；无匹配团队指派时失败（ErrNoTeamPlacement）
	Link(ctx context.Context, req *dto.BookingLinkRequest) (*dto.BookingAssignmentResponse, error)
	// Unlink 删除单条关联；关联不存在不算错误（幂等）
	Unlink(ctx context.Context, req *dto.BookingUnlinkRequest) error
	// DetachBookingTx 读取并删除 (booking, date) 的全部关联，返回删除前的行
	// 搬移算法的步骤 1-2
	DetachBookingTx(ctx context.Context, r *repository.Repository, bookingID string, date time.Time) ([]model.BookingAssignment, error)
	// AttachTx 在调用方事务内 upsert 一条关联
	// 搬移算法的步骤 3（目的地校验由调用方完成）
	AttachTx(ctx context.Context, r *repository.Repository, link *model.BookingAssignment) error
	// DetachBookingAllTx 删除预订在所有日期的关联，返回删除行数
	// 预订离开 confirmed 状态时的级联清理路径
	DetachBookingAllTx(ctx context.Context, r *repository.Repository, bookingID string) (int64, error)
}

type bookingLinkService struct {
	repo      *repository.Repository
	publisher feed.Publisher
	logger    *zap.Logger
}

// NewBookingLinkService 创建 BookingLinkService 实例
func NewBookingLinkService(repo *repository.Repository, publisher feed.Publisher, logger *zap.Logger) BookingLinkService {
	return &bookingLinkService{repo: repo, publisher: publisher, logger: logger}
}

func (s *bookingLinkService) DeriveFor(ctx context.Context, staffID, teamID string, date time.Time) ([]model.BookingAssignment, error) {
	var derived []model.BookingAssignment
	err := s.repo.Tx.InTx(ctx, func(txRepo *repository.Repository) error {
		var txErr error
		derived, txErr = s.DeriveForTx(ctx, txRepo, staffID, teamID, date)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, feed.TableBookingAssignments, date, staffID, teamID, "")
	return derived, nil
}

func (s *bookingLinkService) DeriveForTx(ctx context.Context, r *repository.Repository, staffID, teamID string, date time.Time) ([]model.BookingAssignment, error) {
	occupancies, err := r.CalendarOccupancy.ListByTeamAndDate(ctx, teamID, date)
	if err != nil {
		s.logger.Error("查询日历占用失败", zap.Error(err))
		return nil, err
	}

	// 去重：同一预订可能以多种占用形态出现（work/load/unload）
	seen := make(map[string]bool, len(occupancies))
	bookingIDs := make([]string, 0, len(occupancies))
	for _, occ := range occupancies {
		if !seen[occ.BookingID] {
			seen[occ.BookingID] = true
			bookingIDs = append(bookingIDs, occ.BookingID)
		}
	}

	// 同团队多人对同一预订是扇出，不是冲突：每人各得一条关联
	derived := make([]model.BookingAssignment, 0, len(bookingIDs))
	for _, bookingID := range bookingIDs {
		link := model.BookingAssignment{
			BookingID: bookingID,
			StaffID:   staffID,
			TeamID:    teamID,
			Date:      date,
		}
		if err := r.BookingAssignment.Upsert(ctx, &link); err != nil {
			s.logger.Error("写入预订关联失败",
				zap.String("booking_id", bookingID),
				zap.String("staff_id", staffID),
				zap.Error(err),
			)
			return nil, err
		}
		derived = append(derived, link)
	}

	// 清理过期关联：团队已不匹配，或预订不再占用该团队
	if _, err := r.BookingAssignment.DeleteStale(ctx, staffID, date, teamID, bookingIDs); err != nil {
		s.logger.Error("清理过期预订关联失败", zap.Error(err))
		return nil, err
	}

	return derived, nil
}

func (s *bookingLinkService) Link(ctx context.Context, req *dto.BookingLinkRequest) (*dto.BookingAssignmentResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	// 关联是团队指派的派生事实：无匹配指派即拒绝，不做任何变更
	if _, err := s.repo.TeamAssignment.GetByStaffTeamDate(ctx, req.StaffID, req.TeamID, date); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoTeamPlacement
		}
		s.logger.Error("查询团队指派失败", zap.Error(err))
		return nil, err
	}

	if _, err := s.repo.Booking.GetByID(ctx, req.BookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预订失败", zap.Error(err))
		return nil, err
	}

	link := model.BookingAssignment{
		BookingID: req.BookingID,
		StaffID:   req.StaffID,
		TeamID:    req.TeamID,
		Date:      date,
	}
	if err := s.repo.BookingAssignment.Upsert(ctx, &link); err != nil {
		s.logger.Error("写入预订关联失败", zap.Error(err))
		return nil, err
	}

	s.emit(ctx, feed.TableBookingAssignments, date, req.StaffID, req.TeamID, req.BookingID)

	return &dto.BookingAssignmentResponse{
		LinkID:    link.LinkID,
		BookingID: link.BookingID,
		StaffID:   link.StaffID,
		TeamID:    link.TeamID,
		Date:      formatDate(link.Date),
	}, nil
}

func (s *bookingLinkService) Unlink(ctx context.Context, req *dto.BookingUnlinkRequest) error {
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	// 0 行删除是幂等成功，不报错
	if _, err := s.repo.BookingAssignment.Delete(ctx, req.BookingID, req.StaffID, date); err != nil {
		s.logger.Error("删除预订关联失败", zap.Error(err))
		return err
	}

	s.emit(ctx, feed.TableBookingAssignments, date, req.StaffID, "", req.BookingID)
	return nil
}

func (s *bookingLinkService) DetachBookingTx(ctx context.Context, r *repository.Repository, bookingID string, date time.Time) ([]model.BookingAssignment, error) {
	links, err := r.BookingAssignment.ListByBookingAndDate(ctx, bookingID, date)
	if err != nil {
		return nil, err
	}
	if _, err := r.BookingAssignment.DeleteByBookingAndDate(ctx, bookingID, date); err != nil {
		return nil, err
	}
	return links, nil
}

func (s *bookingLinkService) AttachTx(ctx context.Context, r *repository.Repository, link *model.BookingAssignment) error {
	return r.BookingAssignment.Upsert(ctx, link)
}

func (s *bookingLinkService) DetachBookingAllTx(ctx context.Context, r *repository.Repository, bookingID string) (int64, error) {
	n, err := r.BookingAssignment.DeleteByBooking(ctx, bookingID)
	if err != nil {
		s.logger.Error("级联删除预订关联失败", zap.String("booking_id", bookingID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// emit 发布变更通知；通知失败只记日志，不影响已提交的写入
func (s *bookingLinkService) emit(ctx context.Context, table string, date time.Time, staffID, teamID, bookingID string) {
	ev := feed.NewEvent(table, date)
	ev.StaffID = staffID
	ev.TeamID = teamID
	ev.BookingID = bookingID
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("发布变更通知失败", zap.String("table", table), zap.Error(err))
	}
}
