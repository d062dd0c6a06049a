package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"crewboard/backend/internal/dto"
)

func dispatch(t *testing.T, svc *Service, operation string, payload interface{}) (*dto.CommandResult, error) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("序列化载荷失败: %v", err)
	}
	return svc.Command.Dispatch(context.Background(), &dto.CommandRequest{
		Operation: operation,
		Data:      data,
	})
}

func TestDispatch_AssignStaffToTeam(t *testing.T) {
	svc, repos, _ := setupTestServices()
	seedWorld(repos)

	result, err := dispatch(t, svc, dto.OpAssignStaffToTeam, dto.PlaceAssignmentRequest{
		StaffID: "00000000-0000-0000-0000-000000000001",
		TeamID:  "00000000-0000-0000-0000-000000000002",
		Date:    "2026-06-12",
	})
	if err != nil {
		t.Fatalf("Dispatch 失败: %v", err)
	}
	// 人员不存在是业务失败：编码进结果，不是 Go error
	if result.Success {
		t.Error("未知人员的指派应为业务失败")
	}
	if result.Error == "" {
		t.Error("业务失败应携带错误文本")
	}
}

func TestDispatch_AssignStaffToTeamSucceeds(t *testing.T) {
	svc, repos, _ := setupTestServices()
	// 用合法 uuid 作为 ID 以通过载荷校验
	staffID := "11111111-1111-1111-1111-111111111111"
	teamID := "22222222-2222-2222-2222-222222222222"
	repos.staff.staff[staffID] = seedStaff(staffID, "Erik")
	repos.team.teams[teamID] = seedTeam(teamID, "Crew A")

	result, err := dispatch(t, svc, dto.OpAssignStaffToTeam, dto.PlaceAssignmentRequest{
		StaffID: staffID, TeamID: teamID, Date: "2026-06-12",
	})
	if err != nil {
		t.Fatalf("Dispatch 失败: %v", err)
	}
	if !result.Success {
		t.Errorf("期望成功: %+v", result)
	}
	if result.Data == nil {
		t.Error("成功结果应携带指派数据")
	}
}

func TestDispatch_UnknownOperation(t *testing.T) {
	svc, _, _ := setupTestServices()

	_, err := svc.Command.Dispatch(context.Background(), &dto.CommandRequest{
		Operation: "repaint_calendar",
		Data:      json.RawMessage(`{}`),
	})
	if !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("期望 ErrUnknownOperation，得到 %v", err)
	}
}

func TestDispatch_InvalidPayload(t *testing.T) {
	svc, _, _ := setupTestServices()

	// 非法 JSON
	_, err := svc.Command.Dispatch(context.Background(), &dto.CommandRequest{
		Operation: dto.OpAssignStaffToTeam,
		Data:      json.RawMessage(`{broken`),
	})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("期望 ErrInvalidPayload，得到 %v", err)
	}

	// 合法 JSON 但缺必填字段
	_, err = svc.Command.Dispatch(context.Background(), &dto.CommandRequest{
		Operation: dto.OpAssignStaffToTeam,
		Data:      json.RawMessage(`{"staff_id":"not-a-uuid"}`),
	})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("期望 ErrInvalidPayload，得到 %v", err)
	}
}

func TestDispatch_MoveSurfacesConflicts(t *testing.T) {
	svc, repos, _ := setupTestServices()
	staffID := "11111111-1111-1111-1111-111111111111"
	team1 := "22222222-2222-2222-2222-222222222222"
	team2 := "33333333-3333-3333-3333-333333333333"
	bookingID := "44444444-4444-4444-4444-444444444444"
	repos.staff.staff[staffID] = seedStaff(staffID, "Erik")
	repos.team.teams[team1] = seedTeam(team1, "Crew A")
	repos.team.teams[team2] = seedTeam(team2, "Crew B")
	repos.booking.bookings[bookingID] = seedBooking(bookingID, "Stage build")

	placeAndLink(t, svc, staffID, team1, bookingID, "2026-06-12")

	result, err := dispatch(t, svc, dto.OpHandleBookingMove, dto.MoveBookingRequest{
		BookingID: bookingID,
		OldTeamID: team1, NewTeamID: team2,
		OldDate: "2026-06-12", NewDate: "2026-06-13",
	})
	if err != nil {
		t.Fatalf("Dispatch 失败: %v", err)
	}

	// 冲突不是错误：外壳 success=false，冲突与受影响人员平铺到结果
	if result.Success {
		t.Error("有冲突的搬移 Success 应为 false")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Reason != dto.ConflictReasonNotAssignedToDestinationTeam {
		t.Errorf("冲突不符: %+v", result.Conflicts)
	}
	if len(result.AffectedStaff) != 1 {
		t.Errorf("AffectedStaff 不符: %+v", result.AffectedStaff)
	}
}

func TestDispatch_BulkAssignPartialFailure(t *testing.T) {
	svc, repos, _ := setupTestServices()
	staffID := "11111111-1111-1111-1111-111111111111"
	teamID := "22222222-2222-2222-2222-222222222222"
	repos.staff.staff[staffID] = seedStaff(staffID, "Erik")
	repos.team.teams[teamID] = seedTeam(teamID, "Crew A")

	result, err := dispatch(t, svc, dto.OpBulkAssignStaff, dto.BulkAssignRequest{
		Assignments: []dto.PlaceAssignmentRequest{
			{StaffID: staffID, TeamID: teamID, Date: "2026-06-12"},
			{StaffID: "99999999-9999-9999-9999-999999999999", TeamID: teamID, Date: "2026-06-12"},
		},
	})
	if err != nil {
		t.Fatalf("Dispatch 失败: %v", err)
	}
	if result.Success {
		t.Error("部分失败时整体 Success 应为 false")
	}

	bulk, ok := result.Data.(*dto.BulkAssignResult)
	if !ok {
		t.Fatalf("Data 类型不符: %T", result.Data)
	}
	if !bulk.Items[0].Success || bulk.Items[1].Success {
		t.Errorf("逐项结果不符: %+v", bulk.Items)
	}
}

func TestDispatch_GetStaffSummary(t *testing.T) {
	svc, repos, _ := setupTestServices()
	staffID := "11111111-1111-1111-1111-111111111111"
	teamID := "22222222-2222-2222-2222-222222222222"
	repos.staff.staff[staffID] = seedStaff(staffID, "Erik")
	repos.team.teams[teamID] = seedTeam(teamID, "Crew A")

	if _, err := dispatch(t, svc, dto.OpAssignStaffToTeam, dto.PlaceAssignmentRequest{
		StaffID: staffID, TeamID: teamID, Date: "2026-06-12",
	}); err != nil {
		t.Fatalf("指派失败: %v", err)
	}

	result, err := dispatch(t, svc, dto.OpGetStaffSummary, dto.StaffSummaryRequest{
		StaffIDs: []string{staffID},
		Date:     "2026-06-12",
	})
	if err != nil {
		t.Fatalf("Dispatch 失败: %v", err)
	}
	if !result.Success {
		t.Errorf("期望成功: %+v", result)
	}
	summary, ok := result.Data.(*dto.StaffSummaryResponse)
	if !ok {
		t.Fatalf("Data 类型不符: %T", result.Data)
	}
	if len(summary.Entries) != 1 || summary.Entries[0].TeamID != teamID {
		t.Errorf("概要不符: %+v", summary.Entries)
	}
}
