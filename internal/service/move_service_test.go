package service

import (
	"context"
	"errors"
	"testing"

	"crewboard/backend/internal/dto"
)

// placeAndLink 辅助：把人员指到团队并建立对预订的关联
func placeAndLink(t *testing.T, svc *Service, staffID, teamID, bookingID, date string) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.TeamAssignment.Place(ctx, &dto.PlaceAssignmentRequest{
		StaffID: staffID, TeamID: teamID, Date: date,
	}); err != nil {
		t.Fatalf("Place 失败: %v", err)
	}
	if _, err := svc.BookingLink.Link(ctx, &dto.BookingLinkRequest{
		BookingID: bookingID, StaffID: staffID, TeamID: teamID, Date: date,
	}); err != nil {
		t.Fatalf("Link 失败: %v", err)
	}
}

func TestMove_StaffFollowsWhenPrePlaced(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)
	ctx := context.Background()

	// staff-1 在源团队关联预订，且已提前被指到目的地团队的新日期
	placeAndLink(t, svc, "staff-1", "team-1", "bk-1", "2026-06-12")
	if _, err := svc.TeamAssignment.Place(ctx, &dto.PlaceAssignmentRequest{
		StaffID: "staff-1", TeamID: "team-2", Date: "2026-06-13",
	}); err != nil {
		t.Fatalf("预先指派目的地失败: %v", err)
	}

	result, err := svc.Move.Move(ctx, &dto.MoveBookingRequest{
		BookingID: "bk-1",
		OldTeamID: "team-1", NewTeamID: "team-2",
		OldDate: "2026-06-12", NewDate: "2026-06-13",
	})
	if err != nil {
		t.Fatalf("Move 失败: %v", err)
	}

	if !result.Success {
		t.Errorf("无冲突时 Success 应为 true: %+v", result)
	}
	if len(result.Conflicts) != 0 || result.Relinked != 1 {
		t.Errorf("期望 0 冲突 1 重建: %+v", result)
	}
	if len(result.AffectedStaff) != 1 || result.AffectedStaff[0] != "staff-1" {
		t.Errorf("AffectedStaff 不符: %+v", result.AffectedStaff)
	}

	// 源日期的关联已删除，目的日期重建
	oldDate := mustDate(t, "2026-06-12")
	newDate := mustDate(t, "2026-06-13")
	if links, _ := repos.bookingAssignment.ListByBookingAndDate(ctx, "bk-1", oldDate); len(links) != 0 {
		t.Errorf("源日期关联应被删除: %+v", links)
	}
	links, _ := repos.bookingAssignment.ListByBookingAndDate(ctx, "bk-1", newDate)
	if len(links) != 1 || links[0].TeamID != "team-2" {
		t.Errorf("目的日期关联不符: %+v", links)
	}
}

func TestMove_ConflictWhenNotAssignedToDestination(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)
	ctx := context.Background()

	placeAndLink(t, svc, "staff-1", "team-1", "bk-1", "2026-06-12")

	result, err := svc.Move.Move(ctx, &dto.MoveBookingRequest{
		BookingID: "bk-1",
		OldTeamID: "team-1", NewTeamID: "team-2",
		OldDate: "2026-06-12", NewDate: "2026-06-13",
	})
	if err != nil {
		t.Fatalf("Move 失败: %v", err)
	}

	if result.Success {
		t.Error("有冲突时 Success 应为 false")
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("期望 1 个冲突，得到 %d", len(result.Conflicts))
	}
	c := result.Conflicts[0]
	if c.Reason != dto.ConflictReasonNotAssignedToDestinationTeam {
		t.Errorf("冲突原因不符: %s", c.Reason)
	}
	if c.StaffID != "staff-1" || c.StaffName != "Erik" {
		t.Errorf("冲突人员信息不符: %+v", c)
	}
	if c.SourceTeamID != "team-1" || c.DestTeamID != "team-2" || c.Date != "2026-06-13" {
		t.Errorf("冲突上下文不符: %+v", c)
	}

	// 守恒检查：关联删了不重建，但源日期的团队指派原样保留
	oldDate := mustDate(t, "2026-06-12")
	newDate := mustDate(t, "2026-06-13")
	if links, _ := repos.bookingAssignment.ListByBookingAndDate(ctx, "bk-1", oldDate); len(links) != 0 {
		t.Errorf("源日期关联应被删除: %+v", links)
	}
	if links, _ := repos.bookingAssignment.ListByBookingAndDate(ctx, "bk-1", newDate); len(links) != 0 {
		t.Errorf("冲突人员不应在目的地重建关联: %+v", links)
	}
	if _, err := repos.teamAssignment.GetByStaffAndDate(ctx, "staff-1", oldDate); err != nil {
		t.Error("冲突不应动源日期的团队指派")
	}
}

func TestMove_SameTeamDateChangeOnly(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)
	ctx := context.Background()

	// 同团队仅换日期：人员在新日期也有该团队指派 → 直接跟随
	placeAndLink(t, svc, "staff-1", "team-1", "bk-1", "2026-06-12")
	if _, err := svc.TeamAssignment.Place(ctx, &dto.PlaceAssignmentRequest{
		StaffID: "staff-1", TeamID: "team-1", Date: "2026-06-13",
	}); err != nil {
		t.Fatalf("Place 失败: %v", err)
	}

	result, err := svc.Move.Move(ctx, &dto.MoveBookingRequest{
		BookingID: "bk-1",
		OldTeamID: "team-1", NewTeamID: "team-1",
		OldDate: "2026-06-12", NewDate: "2026-06-13",
	})
	if err != nil {
		t.Fatalf("Move 失败: %v", err)
	}
	if !result.Success || result.Relinked != 1 {
		t.Errorf("同团队换日期应成功跟随: %+v", result)
	}

	newDate := mustDate(t, "2026-06-13")
	links, _ := repos.bookingAssignment.ListByBookingAndDate(ctx, "bk-1", newDate)
	if len(links) != 1 {
		t.Errorf("目的日期应有 1 条关联，得到 %d", len(links))
	}
}

func TestMove_MixedFollowAndConflict(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)
	ctx := context.Background()

	// 两人都关联预订；只有 staff-1 提前在目的地
	placeAndLink(t, svc, "staff-1", "team-1", "bk-1", "2026-06-12")
	placeAndLink(t, svc, "staff-2", "team-1", "bk-1", "2026-06-12")
	if _, err := svc.TeamAssignment.Place(ctx, &dto.PlaceAssignmentRequest{
		StaffID: "staff-1", TeamID: "team-2", Date: "2026-06-13",
	}); err != nil {
		t.Fatalf("Place 失败: %v", err)
	}

	result, err := svc.Move.Move(ctx, &dto.MoveBookingRequest{
		BookingID: "bk-1",
		OldTeamID: "team-1", NewTeamID: "team-2",
		OldDate: "2026-06-12", NewDate: "2026-06-13",
	})
	if err != nil {
		t.Fatalf("Move 失败: %v", err)
	}

	// 部分成功仍算有冲突
	if result.Success {
		t.Error("存在冲突时 Success 应为 false")
	}
	if result.Relinked != 1 || len(result.Conflicts) != 1 {
		t.Errorf("期望 1 重建 + 1 冲突: %+v", result)
	}
	if len(result.AffectedStaff) != 2 {
		t.Errorf("AffectedStaff 应含两人: %+v", result.AffectedStaff)
	}
	if result.Conflicts[0].StaffID != "staff-2" {
		t.Errorf("冲突人员应为 staff-2: %+v", result.Conflicts[0])
	}

	newDate := mustDate(t, "2026-06-13")
	links, _ := repos.bookingAssignment.ListByBookingAndDate(ctx, "bk-1", newDate)
	if len(links) != 1 || links[0].StaffID != "staff-1" {
		t.Errorf("只有 staff-1 应跟随到目的地: %+v", links)
	}
}

func TestMove_ForceMoveAcceptsLostLinks(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)
	ctx := context.Background()

	placeAndLink(t, svc, "staff-1", "team-1", "bk-1", "2026-06-12")

	result, err := svc.Move.Move(ctx, &dto.MoveBookingRequest{
		BookingID: "bk-1",
		OldTeamID: "team-1", NewTeamID: "team-2",
		OldDate: "2026-06-12", NewDate: "2026-06-13",
		Strategy: dto.StrategyForceMove,
	})
	if err != nil {
		t.Fatalf("Move 失败: %v", err)
	}

	// 冲突照常报告，force_move 只是不做补救
	if result.Success || len(result.Conflicts) != 1 {
		t.Errorf("force_move 不应吞掉冲突: %+v", result)
	}
	newDate := mustDate(t, "2026-06-13")
	if links, _ := repos.bookingAssignment.ListByBookingAndDate(ctx, "bk-1", newDate); len(links) != 0 {
		t.Errorf("force_move 不应重建冲突人员的关联: %+v", links)
	}
}

func TestMove_AlternativeStaffSubstitutes(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)
	ctx := context.Background()

	placeAndLink(t, svc, "staff-1", "team-1", "bk-1", "2026-06-12")
	// staff-2 已在目的地团队的新日期 → 合格候选人
	if _, err := svc.TeamAssignment.Place(ctx, &dto.PlaceAssignmentRequest{
		StaffID: "staff-2", TeamID: "team-2", Date: "2026-06-13",
	}); err != nil {
		t.Fatalf("Place 失败: %v", err)
	}

	result, err := svc.Move.Move(ctx, &dto.MoveBookingRequest{
		BookingID: "bk-1",
		OldTeamID: "team-1", NewTeamID: "team-2",
		OldDate: "2026-06-12", NewDate: "2026-06-13",
		Strategy:            dto.StrategyAlternativeStaff,
		AlternativeStaffIDs: []string{"staff-2", "staff-x"},
	})
	if err != nil {
		t.Fatalf("Move 失败: %v", err)
	}

	if len(result.SubstitutedStaff) != 1 || result.SubstitutedStaff[0] != "staff-2" {
		t.Errorf("顶替结果不符: %+v", result.SubstitutedStaff)
	}
	// 无目的地指派的候选人：跳过计入 failed_substitutions，不算新冲突
	if len(result.FailedSubstitutions) != 1 || result.FailedSubstitutions[0] != "staff-x" {
		t.Errorf("失败候选人不符: %+v", result.FailedSubstitutions)
	}
	if len(result.Conflicts) != 1 {
		t.Errorf("原冲突仍应报告: %+v", result.Conflicts)
	}

	newDate := mustDate(t, "2026-06-13")
	links, _ := repos.bookingAssignment.ListByBookingAndDate(ctx, "bk-1", newDate)
	if len(links) != 1 || links[0].StaffID != "staff-2" {
		t.Errorf("顶替人员应获得目的地关联: %+v", links)
	}
}

func TestMove_UnknownStrategy(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)

	_, err := svc.Move.Move(context.Background(), &dto.MoveBookingRequest{
		BookingID: "bk-1",
		OldTeamID: "team-1", NewTeamID: "team-2",
		OldDate: "2026-06-12", NewDate: "2026-06-13",
		Strategy: "shuffle",
	})
	if !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("期望 ErrInvalidStrategy，得到 %v", err)
	}
}

func TestMove_NoLinksIsTrivialSuccess(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)

	result, err := svc.Move.Move(context.Background(), &dto.MoveBookingRequest{
		BookingID: "bk-1",
		OldTeamID: "team-1", NewTeamID: "team-2",
		OldDate: "2026-06-12", NewDate: "2026-06-13",
	})
	if err != nil {
		t.Fatalf("Move 失败: %v", err)
	}
	if !result.Success || len(result.AffectedStaff) != 0 {
		t.Errorf("无关联的搬移应平凡成功: %+v", result)
	}
}
