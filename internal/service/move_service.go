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

// ── 搬移模块业务错误 ──

var (
	ErrInvalidStrategy = errors.New("未知的冲突处理策略")
)

// MoveService 预订搬移业务接口
//
// 预订换团队和/或换日期时，负责搬移其人员关联：
//  1. 读出 (booking, 源日期) 的全部关联 → affectedStaff
//  2. 删除这些关联（预订不再占用源团队/日期）
//  3. 逐人检查目的地团队指派：有 → 在目的地重建关联；无 → 记冲突
//  4. success = 无冲突
//
// 搬移有意不顺手创建团队指派——上什么团队是排班决策，预订关联
// 只是它的派生结果。冲突一律浮出，除非策略另有说明。
type MoveService interface {
	Move(ctx context.Context, req *dto.MoveBookingRequest) (*dto.MoveResult, error)
}

type moveService struct {
	repo        *repository.Repository
	bookingLink BookingLinkService
	publisher   feed.Publisher
	logger      *zap.Logger
}

// NewMoveService 创建 MoveService 实例
func NewMoveService(
	repo *repository.Repository,
	bookingLink BookingLinkService,
	publisher feed.Publisher,
	logger *zap.Logger,
) MoveService {
	return &moveService{
		repo:        repo,
		bookingLink: bookingLink,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *moveService) Move(ctx context.Context, req *dto.MoveBookingRequest) (*dto.MoveResult, error) {
	oldDate, err := parseDate(req.OldDate)
	if err != nil {
		return nil, err
	}
	newDate, err := parseDate(req.NewDate)
	if err != nil {
		return nil, err
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = dto.StrategyManual
	}
	switch strategy {
	case dto.StrategyManual, dto.StrategyForceMove, dto.StrategyAlternativeStaff:
	default:
		return nil, ErrInvalidStrategy
	}

	result := &dto.MoveResult{
		AffectedStaff: []string{},
		Conflicts:     []dto.Conflict{},
	}

	err = s.repo.Tx.InTx(ctx, func(txRepo *repository.Repository) error {
		// 步骤 1-2：摘下源日期的全部关联
		detached, err := s.bookingLink.DetachBookingTx(ctx, txRepo, req.BookingID, oldDate)
		if err != nil {
			return err
		}

		// 步骤 3：逐人搬移或记冲突
		for i := range detached {
			staffID := detached[i].StaffID
			result.AffectedStaff = append(result.AffectedStaff, staffID)

			_, err := txRepo.TeamAssignment.GetByStaffTeamDate(ctx, staffID, req.NewTeamID, newDate)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// 人员无法跟随：源日期的团队指派原样保留，只丢失了派生关联
					result.Conflicts = append(result.Conflicts, dto.Conflict{
						StaffID:      staffID,
						Reason:       dto.ConflictReasonNotAssignedToDestinationTeam,
						SourceTeamID: req.OldTeamID,
						DestTeamID:   req.NewTeamID,
						Date:         formatDate(newDate),
					})
					continue
				}
				return err
			}

			if err := s.bookingLink.AttachTx(ctx, txRepo, &model.BookingAssignment{
				BookingID: req.BookingID,
				StaffID:   staffID,
				TeamID:    req.NewTeamID,
				Date:      newDate,
			}); err != nil {
				return err
			}
			result.Relinked++
		}

		// 策略由冲突结果驱动（算法步骤之外）
		switch strategy {
		case dto.StrategyForceMove:
			// 接受现状：冲突人员失去预订关联，不再做任何变更
		case dto.StrategyAlternativeStaff:
			if err := s.applyAlternativeStaff(ctx, txRepo, req, newDate, result); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		s.logger.Error("预订搬移失败",
			zap.String("booking_id", req.BookingID),
			zap.String("old_team", req.OldTeamID),
			zap.String("new_team", req.NewTeamID),
			zap.Error(err),
		)
		return nil, err
	}

	// 步骤 4
	result.Success = len(result.Conflicts) == 0

	// 展示层联查：补充冲突人员姓名（与检测逻辑无关）
	if err := s.enrichConflicts(ctx, result.Conflicts); err != nil {
		s.logger.Warn("冲突人员信息联查失败", zap.Error(err))
	}

	s.emitMoved(ctx, req, oldDate, newDate)

	return result, nil
}

// applyAlternativeStaff 用候选人顶替：逐个校验目的地团队指派，
// 有指派则建立关联；没有的跳过并计入 failed_substitutions（不是新冲突）
func (s *moveService) applyAlternativeStaff(
	ctx context.Context,
	txRepo *repository.Repository,
	req *dto.MoveBookingRequest,
	newDate time.Time,
	result *dto.MoveResult,
) error {
	for _, candidateID := range req.AlternativeStaffIDs {
		_, err := txRepo.TeamAssignment.GetByStaffTeamDate(ctx, candidateID, req.NewTeamID, newDate)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.FailedSubstitutions = append(result.FailedSubstitutions, candidateID)
				continue
			}
			return err
		}
		if err := s.bookingLink.AttachTx(ctx, txRepo, &model.BookingAssignment{
			BookingID: req.BookingID,
			StaffID:   candidateID,
			TeamID:    req.NewTeamID,
			Date:      newDate,
		}); err != nil {
			return err
		}
		result.SubstitutedStaff = append(result.SubstitutedStaff, candidateID)
	}
	return nil
}

func (s *moveService) enrichConflicts(ctx context.Context, conflicts []dto.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.StaffID)
	}
	staff, err := s.repo.Staff.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(staff))
	for _, st := range staff {
		names[st.StaffID] = st.Name
	}
	for i := range conflicts {
		conflicts[i].StaffName = names[conflicts[i].StaffID]
	}
	return nil
}

// emitMoved 源日期与目的日期各广播一条关联变更
func (s *moveService) emitMoved(ctx context.Context, req *dto.MoveBookingRequest, oldDate, newDate time.Time) {
	for _, d := range []time.Time{oldDate, newDate} {
		ev := feed.NewEvent(feed.TableBookingAssignments, d)
		ev.BookingID = req.BookingID
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("发布变更通知失败", zap.Error(err))
		}
	}
}
