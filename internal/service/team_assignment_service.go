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

// TeamAssignmentService 团队指派业务接口
type TeamAssignmentService interface {
	// Place 人员上团队：按 (staff, date) upsert——同日已有指派则替换
	// 而非报错；落库后同事务内派生预订关联。重复指派同一团队幂等。
	Place(ctx context.Context, req *dto.PlaceAssignmentRequest) (*dto.TeamAssignmentResponse, error)
	// Remove 移除当天指派：团队指派与该人员当天全部预订关联在同一
	// 事务内删除。指派不存在为幂等成功。
	Remove(ctx context.Context, req *dto.RemoveAssignmentRequest) error
	// BulkAssign 批量指派：逐项独立提交，单项失败不回滚其他项
	BulkAssign(ctx context.Context, req *dto.BulkAssignRequest) (*dto.BulkAssignResult, error)
	// StaffSummary 查询一组人员某天的 团队+预订数 概要
	StaffSummary(ctx context.Context, req *dto.StaffSummaryRequest) (*dto.StaffSummaryResponse, error)
	// GetScope 拉取日期范围内的物化指派视图（客户端同步层的权威读）
	GetScope(ctx context.Context, from, to time.Time) (*dto.AssignmentScopeResponse, error)
}

type teamAssignmentService struct {
	repo        *repository.Repository
	bookingLink BookingLinkService
	publisher   feed.Publisher
	logger      *zap.Logger
}

// NewTeamAssignmentService 创建 TeamAssignmentService 实例
func NewTeamAssignmentService(
	repo *repository.Repository,
	bookingLink BookingLinkService,
	publisher feed.Publisher,
	logger *zap.Logger,
) TeamAssignmentService {
	return &teamAssignmentService{
		repo:        repo,
		bookingLink: bookingLink,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *teamAssignmentService) Place(ctx context.Context, req *dto.PlaceAssignmentRequest) (*dto.TeamAssignmentResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	// 参照校验（不动任何数据）
	if ok, err := s.repo.Staff.Exists(ctx, req.StaffID); err != nil {
		s.logger.Error("查询人员失败", zap.Error(err))
		return nil, err
	} else if !ok {
		return nil, ErrStaffNotFound
	}
	if ok, err := s.repo.Team.Exists(ctx, req.TeamID); err != nil {
		s.logger.Error("查询团队失败", zap.Error(err))
		return nil, err
	} else if !ok {
		return nil, ErrTeamNotFound
	}

	assignment := model.TeamAssignment{
		StaffID: req.StaffID,
		TeamID:  req.TeamID,
		Date:    date,
	}

	// upsert + 派生是一个原子单元：团队指派换了但过期关联没清掉
	// 属于一致性缺陷，不是可接受的中间态
	err = s.repo.Tx.InTx(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.TeamAssignment.Upsert(ctx, &assignment); err != nil {
			return err
		}
		_, err := s.bookingLink.DeriveForTx(ctx, txRepo, req.StaffID, req.TeamID, date)
		return err
	})
	if err != nil {
		s.logger.Error("团队指派落库失败",
			zap.String("staff_id", req.StaffID),
			zap.String("team_id", req.TeamID),
			zap.Error(err),
		)
		return nil, err
	}

	s.emit(ctx, feed.TableTeamAssignments, date, req.StaffID, req.TeamID)
	s.emit(ctx, feed.TableBookingAssignments, date, req.StaffID, req.TeamID)

	return &dto.TeamAssignmentResponse{
		AssignmentID: assignment.AssignmentID,
		StaffID:      assignment.StaffID,
		TeamID:       assignment.TeamID,
		Date:         formatDate(assignment.Date),
	}, nil
}

func (s *teamAssignmentService) Remove(ctx context.Context, req *dto.RemoveAssignmentRequest) error {
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	var removed int64
	err = s.repo.Tx.InTx(ctx, func(txRepo *repository.Repository) error {
		n, err := txRepo.TeamAssignment.Delete(ctx, req.StaffID, date)
		if err != nil {
			return err
		}
		removed = n
		_, err = txRepo.BookingAssignment.DeleteByStaffAndDate(ctx, req.StaffID, date)
		return err
	})
	if err != nil {
		s.logger.Error("移除指派失败", zap.String("staff_id", req.StaffID), zap.Error(err))
		return err
	}

	// 本来就没有指派 → 幂等成功，也无需广播
	if removed == 0 {
		return nil
	}

	s.emit(ctx, feed.TableTeamAssignments, date, req.StaffID, "")
	s.emit(ctx, feed.TableBookingAssignments, date, req.StaffID, "")
	return nil
}

func (s *teamAssignmentService) BulkAssign(ctx context.Context, req *dto.BulkAssignRequest) (*dto.BulkAssignResult, error) {
	result := &dto.BulkAssignResult{
		Success: true,
		Items:   make([]dto.BulkAssignItemResult, 0, len(req.Assignments)),
	}

	// 逐项独立：成功的保持已提交，失败的只记录错误
	for i := range req.Assignments {
		item := &req.Assignments[i]
		entry := dto.BulkAssignItemResult{
			Index:   i,
			StaffID: item.StaffID,
			Date:    item.Date,
			Success: true,
		}
		if _, err := s.Place(ctx, item); err != nil {
			entry.Success = false
			entry.Error = err.Error()
			result.Success = false
		}
		result.Items = append(result.Items, entry)
	}

	return result, nil
}

func (s *teamAssignmentService) StaffSummary(ctx context.Context, req *dto.StaffSummaryRequest) (*dto.StaffSummaryResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	resp := &dto.StaffSummaryResponse{
		Date:    formatDate(date),
		Entries: make([]dto.StaffSummaryEntry, 0, len(req.StaffIDs)),
	}

	for _, staffID := range req.StaffIDs {
		entry := dto.StaffSummaryEntry{StaffID: staffID}

		assignment, err := s.repo.TeamAssignment.GetByStaffAndDate(ctx, staffID, date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询团队指派失败", zap.Error(err))
			return nil, err
		}
		if assignment != nil {
			entry.TeamID = assignment.TeamID
		}

		count, err := s.repo.BookingAssignment.CountByStaffAndDate(ctx, staffID, date)
		if err != nil {
			s.logger.Error("统计预订关联失败", zap.Error(err))
			return nil, err
		}
		entry.BookingsCount = count

		resp.Entries = append(resp.Entries, entry)
	}

	return resp, nil
}

func (s *teamAssignmentService) GetScope(ctx context.Context, from, to time.Time) (*dto.AssignmentScopeResponse, error) {
	teamAssignments, err := s.repo.TeamAssignment.ListByDateRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询团队指派失败", zap.Error(err))
		return nil, err
	}
	bookingAssignments, err := s.repo.BookingAssignment.ListByDateRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询预订关联失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.AssignmentScopeResponse{
		From:               formatDate(model.NormalizeDate(from)),
		To:                 formatDate(model.NormalizeDate(to)),
		TeamAssignments:    make([]dto.TeamAssignmentResponse, 0, len(teamAssignments)),
		BookingAssignments: make([]dto.BookingAssignmentResponse, 0, len(bookingAssignments)),
	}

	for i := range teamAssignments {
		a := &teamAssignments[i]
		item := dto.TeamAssignmentResponse{
			AssignmentID: a.AssignmentID,
			StaffID:      a.StaffID,
			TeamID:       a.TeamID,
			Date:         formatDate(a.Date),
		}
		if a.Staff != nil {
			item.Staff = &dto.StaffBrief{ID: a.Staff.StaffID, Name: a.Staff.Name, Role: a.Staff.Role}
		}
		if a.Team != nil {
			item.Team = &dto.TeamBrief{ID: a.Team.TeamID, Name: a.Team.Name, Color: a.Team.Color}
		}
		resp.TeamAssignments = append(resp.TeamAssignments, item)
	}

	for i := range bookingAssignments {
		l := &bookingAssignments[i]
		item := dto.BookingAssignmentResponse{
			LinkID:    l.LinkID,
			BookingID: l.BookingID,
			StaffID:   l.StaffID,
			TeamID:    l.TeamID,
			Date:      formatDate(l.Date),
		}
		if l.Staff != nil {
			item.Staff = &dto.StaffBrief{ID: l.Staff.StaffID, Name: l.Staff.Name, Role: l.Staff.Role}
		}
		if l.Booking != nil {
			item.Booking = &dto.BookingBrief{ID: l.Booking.BookingID, Title: l.Booking.Title, Status: l.Booking.Status}
		}
		resp.BookingAssignments = append(resp.BookingAssignments, item)
	}

	return resp, nil
}

func (s *teamAssignmentService) emit(ctx context.Context, table string, date time.Time, staffID, teamID string) {
	ev := feed.NewEvent(table, date)
	ev.StaffID = staffID
	ev.TeamID = teamID
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("发布变更通知失败", zap.String("table", table), zap.Error(err))
	}
}
