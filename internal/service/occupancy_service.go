package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewboard/backend/internal/dto"
	"crewboard/backend/internal/model"
	"crewboard/backend/internal/repository"
	"crewboard/backend/pkg/feed"
)

// ── 日历占用模块业务错误 ──

var (
	ErrImportSourceMissing = errors.New("url 与 content 必须提供其一")
)

// OccupancyService 日历占用业务接口
//
// 占用数据的写入口：日历协作方按 (team, date) 整体推送，或从
// iCalendar 源导入。占用变化后同事务内为该团队当天的全部人员
// 重新派生预订关联。
type OccupancyService interface {
	// Push 整体替换 (team, date) 的占用并重新派生关联
	Push(ctx context.Context, req *dto.OccupancyPushRequest) error
	// ImportICS 从 iCalendar 源导入某团队的占用
	ImportICS(ctx context.Context, req *dto.OccupancyImportRequest) (*dto.OccupancyImportResponse, error)
	// ListRange 查询日期范围内的占用
	ListRange(ctx context.Context, from, to time.Time) ([]dto.OccupancyResponse, error)
	// DropBooking 预订离开 confirmed 状态时的级联清理：
	// 同事务内删除该预订的全部占用与全部预订关联（不限日期）
	DropBooking(ctx context.Context, bookingID string) error
}

type occupancyService struct {
	repo        *repository.Repository
	bookingLink BookingLinkService
	publisher   feed.Publisher
	logger      *zap.Logger
}

// NewOccupancyService 创建 OccupancyService 实例
func NewOccupancyService(
	repo *repository.Repository,
	bookingLink BookingLinkService,
	publisher feed.Publisher,
	logger *zap.Logger,
) OccupancyService {
	return &occupancyService{
		repo:        repo,
		bookingLink: bookingLink,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *occupancyService) Push(ctx context.Context, req *dto.OccupancyPushRequest) error {
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	if ok, err := s.repo.Team.Exists(ctx, req.TeamID); err != nil {
		s.logger.Error("查询团队失败", zap.Error(err))
		return err
	} else if !ok {
		return ErrTeamNotFound
	}

	rows := make([]model.CalendarOccupancy, 0, len(req.Items))
	for _, item := range req.Items {
		if _, err := s.repo.Booking.GetByID(ctx, item.BookingID); err != nil {
			return ErrBookingNotFound
		}
		kind := item.EventKind
		if kind == "" {
			kind = "work"
		}
		rows = append(rows, model.CalendarOccupancy{
			BookingID: item.BookingID,
			TeamID:    req.TeamID,
			Date:      date,
			EventKind: kind,
		})
	}

	err = s.repo.Tx.InTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.CalendarOccupancy.ReplaceForTeamDate(ctx, req.TeamID, date, rows); err != nil {
			return err
		}
		return s.rederiveTeamDate(ctx, txRepo, req.TeamID, date)
	})
	if err != nil {
		s.logger.Error("占用推送落库失败",
			zap.String("team_id", req.TeamID),
			zap.String("date", req.Date),
			zap.Error(err),
		)
		return err
	}

	s.emit(ctx, feed.TableCalendarOccupancies, date, req.TeamID)
	s.emit(ctx, feed.TableBookingAssignments, date, req.TeamID)
	return nil
}

func (s *occupancyService) ImportICS(ctx context.Context, req *dto.OccupancyImportRequest) (*dto.OccupancyImportResponse, error) {
	if ok, err := s.repo.Team.Exists(ctx, req.TeamID); err != nil {
		s.logger.Error("查询团队失败", zap.Error(err))
		return nil, err
	} else if !ok {
		return nil, ErrTeamNotFound
	}

	var reader io.Reader
	switch {
	case req.Content != "":
		reader = strings.NewReader(req.Content)
	case req.URL != "":
		body, err := FetchICSContent(req.URL)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		reader = body
	default:
		return nil, ErrImportSourceMissing
	}

	events, err := ParseICSOccupancies(reader)
	if err != nil {
		return nil, err
	}

	resp := &dto.OccupancyImportResponse{TeamID: req.TeamID, Events: len(events)}
	touched := make(map[time.Time]bool)

	for _, ev := range events {
		booking, err := s.repo.Booking.GetOrCreateByTitle(ctx, ev.Title)
		if err != nil {
			s.logger.Warn("导入事件创建预订失败", zap.String("title", ev.Title), zap.Error(err))
			resp.Skipped++
			continue
		}
		for _, d := range ev.Dates {
			occ := model.CalendarOccupancy{
				BookingID: booking.BookingID,
				TeamID:    req.TeamID,
				Date:      d,
				EventKind: "work",
			}
			if err := s.repo.CalendarOccupancy.Upsert(ctx, &occ); err != nil {
				s.logger.Warn("导入占用写入失败", zap.String("title", ev.Title), zap.Error(err))
				resp.Skipped++
				continue
			}
			resp.Imported++
			touched[d] = true
		}
	}

	// 受影响的每一天都重新派生并广播
	for d := range touched {
		err := s.repo.Tx.InTx(ctx, func(txRepo *repository.Repository) error {
			return s.rederiveTeamDate(ctx, txRepo, req.TeamID, d)
		})
		if err != nil {
			s.logger.Error("导入后派生失败", zap.String("date", formatDate(d)), zap.Error(err))
			return nil, err
		}
		s.emit(ctx, feed.TableCalendarOccupancies, d, req.TeamID)
		s.emit(ctx, feed.TableBookingAssignments, d, req.TeamID)
	}

	return resp, nil
}

func (s *occupancyService) ListRange(ctx context.Context, from, to time.Time) ([]dto.OccupancyResponse, error) {
	occupancies, err := s.repo.CalendarOccupancy.ListByDateRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询占用失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.OccupancyResponse, 0, len(occupancies))
	for i := range occupancies {
		occ := &occupancies[i]
		item := dto.OccupancyResponse{
			OccupancyID: occ.OccupancyID,
			BookingID:   occ.BookingID,
			TeamID:      occ.TeamID,
			Date:        formatDate(occ.Date),
			EventKind:   occ.EventKind,
		}
		if occ.Booking != nil {
			item.Booking = &dto.BookingBrief{ID: occ.Booking.BookingID, Title: occ.Booking.Title, Status: occ.Booking.Status}
		}
		resp = append(resp, item)
	}
	return resp, nil
}

func (s *occupancyService) DropBooking(ctx context.Context, bookingID string) error {
	// 取消态的预订行仍然存在，查不到才是未知 ID
	if _, err := s.repo.Booking.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		s.logger.Error("查询预订失败", zap.Error(err))
		return err
	}

	var occs, links int64
	err := s.repo.Tx.InTx(ctx, func(txRepo *repository.Repository) error {
		var txErr error
		if occs, txErr = txRepo.CalendarOccupancy.DeleteByBooking(ctx, bookingID); txErr != nil {
			return txErr
		}
		links, txErr = s.bookingLink.DetachBookingAllTx(ctx, txRepo, bookingID)
		return txErr
	})
	if err != nil {
		s.logger.Error("预订级联清理失败", zap.String("booking_id", bookingID), zap.Error(err))
		return err
	}

	// 无痕迹的重复清理是幂等成功，不广播
	if occs == 0 && links == 0 {
		return nil
	}

	s.logger.Info("预订级联清理完成",
		zap.String("booking_id", bookingID),
		zap.Int64("occupancies", occs),
		zap.Int64("links", links),
	)

	// 清理横跨该预订占用过的所有日期，事件不带日期让过滤器保守命中
	if occs > 0 {
		s.emitCrossDate(ctx, feed.TableCalendarOccupancies, bookingID)
	}
	if links > 0 {
		s.emitCrossDate(ctx, feed.TableBookingAssignments, bookingID)
	}
	return nil
}

// rederiveTeamDate 占用变化后，为当天在该团队上的每个人重新派生关联
func (s *occupancyService) rederiveTeamDate(ctx context.Context, txRepo *repository.Repository, teamID string, date time.Time) error {
	placements, err := txRepo.TeamAssignment.ListByTeamAndDate(ctx, teamID, date)
	if err != nil {
		return err
	}
	for i := range placements {
		if _, err := s.bookingLink.DeriveForTx(ctx, txRepo, placements[i].StaffID, teamID, date); err != nil {
			return err
		}
	}
	return nil
}

func (s *occupancyService) emit(ctx context.Context, table string, date time.Time, teamID string) {
	ev := feed.NewEvent(table, date)
	ev.TeamID = teamID
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("发布变更通知失败", zap.String("table", table), zap.Error(err))
	}
}

func (s *occupancyService) emitCrossDate(ctx context.Context, table string, bookingID string) {
	ev := feed.NewCrossDateEvent(table)
	ev.BookingID = bookingID
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("发布变更通知失败", zap.String("table", table), zap.Error(err))
	}
}
