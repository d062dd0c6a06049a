package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"crewboard/backend/internal/model"
	"crewboard/backend/internal/repository"
	feedpkg "crewboard/backend/pkg/feed"
)

// ── Mock StaffRepository ──

type mockStaffRepo struct {
	staff map[string]*model.Staff
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{staff: make(map[string]*model.Staff)}
}

func (m *mockStaffRepo) GetByID(_ context.Context, id string) (*model.Staff, error) {
	if s, ok := m.staff[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffRepo) ListByIDs(_ context.Context, ids []string) ([]model.Staff, error) {
	var result []model.Staff
	for _, id := range ids {
		if s, ok := m.staff[id]; ok {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockStaffRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.staff[id]
	return ok, nil
}

// ── Mock TeamRepository ──

type mockTeamRepo struct {
	teams map[string]*model.Team
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{teams: make(map[string]*model.Team)}
}

func (m *mockTeamRepo) GetByID(_ context.Context, id string) (*model.Team, error) {
	if t, ok := m.teams[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamRepo) ListByIDs(_ context.Context, ids []string) ([]model.Team, error) {
	var result []model.Team
	for _, id := range ids {
		if t, ok := m.teams[id]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTeamRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.teams[id]
	return ok, nil
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings map[string]*model.Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) ListByIDs(_ context.Context, ids []string) ([]model.Booking, error) {
	var result []model.Booking
	for _, id := range ids {
		if b, ok := m.bookings[id]; ok {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) GetOrCreateByTitle(_ context.Context, title string) (*model.Booking, error) {
	for _, b := range m.bookings {
		if b.Title == title {
			return b, nil
		}
	}
	b := &model.Booking{
		BookingID: "bk-" + title,
		Title:     title,
		Status:    "confirmed",
	}
	m.bookings[b.BookingID] = b
	return b, nil
}

// ── Mock TeamAssignmentRepository ──

// key: staffID|date — 与表的唯一约束同构
type mockTeamAssignmentRepo struct {
	rows map[string]*model.TeamAssignment
}

func newMockTeamAssignmentRepo() *mockTeamAssignmentRepo {
	return &mockTeamAssignmentRepo{rows: make(map[string]*model.TeamAssignment)}
}

func taKey(staffID string, date time.Time) string {
	return staffID + "|" + date.Format(model.DateLayout)
}

func (m *mockTeamAssignmentRepo) Upsert(_ context.Context, a *model.TeamAssignment) error {
	key := taKey(a.StaffID, a.Date)
	if existing, ok := m.rows[key]; ok {
		existing.TeamID = a.TeamID
		a.AssignmentID = existing.AssignmentID
		return nil
	}
	if a.AssignmentID == "" {
		a.AssignmentID = "ta-" + key
	}
	cp := *a
	m.rows[key] = &cp
	return nil
}

func (m *mockTeamAssignmentRepo) GetByStaffAndDate(_ context.Context, staffID string, date time.Time) (*model.TeamAssignment, error) {
	if a, ok := m.rows[taKey(staffID, date)]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamAssignmentRepo) GetByStaffTeamDate(_ context.Context, staffID, teamID string, date time.Time) (*model.TeamAssignment, error) {
	if a, ok := m.rows[taKey(staffID, date)]; ok && a.TeamID == teamID {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamAssignmentRepo) ListByTeamAndDate(_ context.Context, teamID string, date time.Time) ([]model.TeamAssignment, error) {
	var result []model.TeamAssignment
	for _, a := range m.rows {
		if a.TeamID == teamID && a.Date.Equal(date) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockTeamAssignmentRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.TeamAssignment, error) {
	var result []model.TeamAssignment
	for _, a := range m.rows {
		if !a.Date.Before(from) && !a.Date.After(to) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockTeamAssignmentRepo) Delete(_ context.Context, staffID string, date time.Time) (int64, error) {
	key := taKey(staffID, date)
	if _, ok := m.rows[key]; !ok {
		return 0, nil
	}
	delete(m.rows, key)
	return 1, nil
}

// ── Mock BookingAssignmentRepository ──

// key: bookingID|staffID|date
type mockBookingAssignmentRepo struct {
	rows map[string]*model.BookingAssignment
}

func newMockBookingAssignmentRepo() *mockBookingAssignmentRepo {
	return &mockBookingAssignmentRepo{rows: make(map[string]*model.BookingAssignment)}
}

func baKey(bookingID, staffID string, date time.Time) string {
	return bookingID + "|" + staffID + "|" + date.Format(model.DateLayout)
}

func (m *mockBookingAssignmentRepo) Upsert(_ context.Context, link *model.BookingAssignment) error {
	key := baKey(link.BookingID, link.StaffID, link.Date)
	if existing, ok := m.rows[key]; ok {
		existing.TeamID = link.TeamID
		link.LinkID = existing.LinkID
		return nil
	}
	if link.LinkID == "" {
		link.LinkID = "ba-" + key
	}
	cp := *link
	m.rows[key] = &cp
	return nil
}

func (m *mockBookingAssignmentRepo) ListByStaffAndDate(_ context.Context, staffID string, date time.Time) ([]model.BookingAssignment, error) {
	var result []model.BookingAssignment
	for _, l := range m.rows {
		if l.StaffID == staffID && l.Date.Equal(date) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockBookingAssignmentRepo) ListByBookingAndDate(_ context.Context, bookingID string, date time.Time) ([]model.BookingAssignment, error) {
	var result []model.BookingAssignment
	for _, l := range m.rows {
		if l.BookingID == bookingID && l.Date.Equal(date) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockBookingAssignmentRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.BookingAssignment, error) {
	var result []model.BookingAssignment
	for _, l := range m.rows {
		if !l.Date.Before(from) && !l.Date.After(to) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockBookingAssignmentRepo) CountByStaffAndDate(_ context.Context, staffID string, date time.Time) (int64, error) {
	var n int64
	for _, l := range m.rows {
		if l.StaffID == staffID && l.Date.Equal(date) {
			n++
		}
	}
	return n, nil
}

func (m *mockBookingAssignmentRepo) Delete(_ context.Context, bookingID, staffID string, date time.Time) (int64, error) {
	key := baKey(bookingID, staffID, date)
	if _, ok := m.rows[key]; !ok {
		return 0, nil
	}
	delete(m.rows, key)
	return 1, nil
}

func (m *mockBookingAssignmentRepo) DeleteByStaffAndDate(_ context.Context, staffID string, date time.Time) (int64, error) {
	var n int64
	for key, l := range m.rows {
		if l.StaffID == staffID && l.Date.Equal(date) {
			delete(m.rows, key)
			n++
		}
	}
	return n, nil
}

func (m *mockBookingAssignmentRepo) DeleteByBookingAndDate(_ context.Context, bookingID string, date time.Time) (int64, error) {
	var n int64
	for key, l := range m.rows {
		if l.BookingID == bookingID && l.Date.Equal(date) {
			delete(m.rows, key)
			n++
		}
	}
	return n, nil
}

func (m *mockBookingAssignmentRepo) DeleteByBooking(_ context.Context, bookingID string) (int64, error) {
	var n int64
	for key, l := range m.rows {
		if l.BookingID == bookingID {
			delete(m.rows, key)
			n++
		}
	}
	return n, nil
}

func (m *mockBookingAssignmentRepo) DeleteStale(_ context.Context, staffID string, date time.Time, teamID string, keepBookingIDs []string) (int64, error) {
	keep := make(map[string]bool, len(keepBookingIDs))
	for _, id := range keepBookingIDs {
		keep[id] = true
	}
	var n int64
	for key, l := range m.rows {
		if l.StaffID != staffID || !l.Date.Equal(date) {
			continue
		}
		if len(keepBookingIDs) == 0 || l.TeamID != teamID || !keep[l.BookingID] {
			delete(m.rows, key)
			n++
		}
	}
	return n, nil
}

// ── Mock CalendarOccupancyRepository ──

// key: bookingID|teamID|date
type mockCalendarOccupancyRepo struct {
	rows map[string]*model.CalendarOccupancy
}

func newMockCalendarOccupancyRepo() *mockCalendarOccupancyRepo {
	return &mockCalendarOccupancyRepo{rows: make(map[string]*model.CalendarOccupancy)}
}

func occKey(bookingID, teamID string, date time.Time) string {
	return bookingID + "|" + teamID + "|" + date.Format(model.DateLayout)
}

func (m *mockCalendarOccupancyRepo) ListByTeamAndDate(_ context.Context, teamID string, date time.Time) ([]model.CalendarOccupancy, error) {
	var result []model.CalendarOccupancy
	for _, o := range m.rows {
		if o.TeamID == teamID && o.Date.Equal(date) {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockCalendarOccupancyRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.CalendarOccupancy, error) {
	var result []model.CalendarOccupancy
	for _, o := range m.rows {
		if !o.Date.Before(from) && !o.Date.After(to) {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockCalendarOccupancyRepo) Upsert(_ context.Context, occ *model.CalendarOccupancy) error {
	key := occKey(occ.BookingID, occ.TeamID, occ.Date)
	if existing, ok := m.rows[key]; ok {
		existing.EventKind = occ.EventKind
		occ.OccupancyID = existing.OccupancyID
		return nil
	}
	if occ.OccupancyID == "" {
		occ.OccupancyID = "occ-" + key
	}
	cp := *occ
	m.rows[key] = &cp
	return nil
}

func (m *mockCalendarOccupancyRepo) ReplaceForTeamDate(_ context.Context, teamID string, date time.Time, rows []model.CalendarOccupancy) error {
	for key, o := range m.rows {
		if o.TeamID == teamID && o.Date.Equal(date) {
			delete(m.rows, key)
		}
	}
	for i := range rows {
		o := rows[i]
		if o.OccupancyID == "" {
			o.OccupancyID = "occ-" + occKey(o.BookingID, o.TeamID, o.Date)
		}
		m.rows[occKey(o.BookingID, o.TeamID, o.Date)] = &o
	}
	return nil
}

func (m *mockCalendarOccupancyRepo) DeleteByBooking(_ context.Context, bookingID string) (int64, error) {
	var n int64
	for key, o := range m.rows {
		if o.BookingID == bookingID {
			delete(m.rows, key)
			n++
		}
	}
	return n, nil
}

// ── Mock TxManager ──

// passthroughTx 直接回调同一个 Repository——mock 仓储本身无事务语义，
// 但回滚路径仍通过回调返回错误来验证
type passthroughTx struct {
	repo *repository.Repository
}

func (t *passthroughTx) InTx(_ context.Context, fn func(txRepo *repository.Repository) error) error {
	return fn(t.repo)
}

// ── 测试辅助 ──

// testRepos 聚合所有 mock repo 便于 seed 数据
type testRepos struct {
	staff             *mockStaffRepo
	team              *mockTeamRepo
	booking           *mockBookingRepo
	teamAssignment    *mockTeamAssignmentRepo
	bookingAssignment *mockBookingAssignmentRepo
	occupancy         *mockCalendarOccupancyRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		staff:             newMockStaffRepo(),
		team:              newMockTeamRepo(),
		booking:           newMockBookingRepo(),
		teamAssignment:    newMockTeamAssignmentRepo(),
		bookingAssignment: newMockBookingAssignmentRepo(),
		occupancy:         newMockCalendarOccupancyRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	repo := &repository.Repository{
		Staff:             r.staff,
		Team:              r.team,
		Booking:           r.booking,
		TeamAssignment:    r.teamAssignment,
		BookingAssignment: r.bookingAssignment,
		CalendarOccupancy: r.occupancy,
	}
	repo.Tx = &passthroughTx{repo: repo}
	return repo
}

// capturePublisher 记录发布的事件供断言
type capturePublisher struct {
	events []feedEvent
}

type feedEvent struct {
	Table string
	Date  string
}

func (p *capturePublisher) Publish(_ context.Context, ev feedpkg.Event) error {
	p.events = append(p.events, feedEvent{Table: ev.Table, Date: ev.Date})
	return nil
}

func (p *capturePublisher) countTable(table string) int {
	n := 0
	for _, ev := range p.events {
		if ev.Table == table {
			n++
		}
	}
	return n
}
