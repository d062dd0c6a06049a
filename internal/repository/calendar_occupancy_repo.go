package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crewboard/backend/internal/model"
)

// CalendarOccupancyRepository 日历占用数据访问接口
// 指派核心只读消费；写入口仅服务于日历协作方的推送与导入
type CalendarOccupancyRepository interface {
	ListByTeamAndDate(ctx context.Context, teamID string, date time.Time) ([]model.CalendarOccupancy, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.CalendarOccupancy, error)
	// Upsert 按 (booking_id, team_id, date) 唯一键插入或更新 event_kind
	Upsert(ctx context.Context, occ *model.CalendarOccupancy) error
	// ReplaceForTeamDate 以推送内容整体替换 (team_id, date) 的占用
	ReplaceForTeamDate(ctx context.Context, teamID string, date time.Time, rows []model.CalendarOccupancy) error
	DeleteByBooking(ctx context.Context, bookingID string) (int64, error)
}

type calendarOccupancyRepo struct {
	db *gorm.DB
}

// NewCalendarOccupancyRepo 创建 CalendarOccupancyRepository 实例
func NewCalendarOccupancyRepo(db *gorm.DB) CalendarOccupancyRepository {
	return &calendarOccupancyRepo{db: db}
}

func (r *calendarOccupancyRepo) ListByTeamAndDate(ctx context.Context, teamID string, date time.Time) ([]model.CalendarOccupancy, error) {
	var list []model.CalendarOccupancy
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND date = ?", teamID, model.NormalizeDate(date)).
		Find(&list).Error
	return list, err
}

func (r *calendarOccupancyRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.CalendarOccupancy, error) {
	var list []model.CalendarOccupancy
	err := r.db.WithContext(ctx).
		Preload("Booking").Preload("Team").
		Where("date BETWEEN ? AND ?", model.NormalizeDate(from), model.NormalizeDate(to)).
		Order("date ASC, team_id ASC").
		Find(&list).Error
	return list, err
}

func (r *calendarOccupancyRepo) Upsert(ctx context.Context, occ *model.CalendarOccupancy) error {
	occ.Date = model.NormalizeDate(occ.Date)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "booking_id"}, {Name: "team_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"event_kind": occ.EventKind,
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(occ).Error
}

func (r *calendarOccupancyRepo) ReplaceForTeamDate(ctx context.Context, teamID string, date time.Time, rows []model.CalendarOccupancy) error {
	day := model.NormalizeDate(date)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("team_id = ? AND date = ?", teamID, day).
			Delete(&model.CalendarOccupancy{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].TeamID = teamID
			rows[i].Date = day
		}
		return tx.Create(&rows).Error
	})
}

func (r *calendarOccupancyRepo) DeleteByBooking(ctx context.Context, bookingID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&model.CalendarOccupancy{})
	return result.RowsAffected, result.Error
}
