package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crewboard/backend/internal/model"
)

// BookingAssignmentRepository 预订关联数据访问接口
// 业务写入统一经由 BookingLinkService，其他服务不得直接写本表
type BookingAssignmentRepository interface {
	// Upsert 按 (booking_id, staff_id, date) 唯一键插入或更新 team_id
	Upsert(ctx context.Context, link *model.BookingAssignment) error
	ListByStaffAndDate(ctx context.Context, staffID string, date time.Time) ([]model.BookingAssignment, error)
	ListByBookingAndDate(ctx context.Context, bookingID string, date time.Time) ([]model.BookingAssignment, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.BookingAssignment, error)
	CountByStaffAndDate(ctx context.Context, staffID string, date time.Time) (int64, error)
	// Delete 删除单条关联，返回删除行数（0 行不算错误）
	Delete(ctx context.Context, bookingID, staffID string, date time.Time) (int64, error)
	DeleteByStaffAndDate(ctx context.Context, staffID string, date time.Time) (int64, error)
	DeleteByBookingAndDate(ctx context.Context, bookingID string, date time.Time) (int64, error)
	// DeleteByBooking 删除预订的全部关联（不限日期），预订取消级联用
	DeleteByBooking(ctx context.Context, bookingID string) (int64, error)
	// DeleteStale 清理 (staff_id, date) 下与当前派生结果不一致的关联：
	// team_id 不等于当前所属团队，或 booking_id 不在派生集合内
	DeleteStale(ctx context.Context, staffID string, date time.Time, teamID string, keepBookingIDs []string) (int64, error)
}

type bookingAssignmentRepo struct {
	db *gorm.DB
}

// NewBookingAssignmentRepo 创建 BookingAssignmentRepository 实例
func NewBookingAssignmentRepo(db *gorm.DB) BookingAssignmentRepository {
	return &bookingAssignmentRepo{db: db}
}

func (r *bookingAssignmentRepo) Upsert(ctx context.Context, link *model.BookingAssignment) error {
	link.Date = model.NormalizeDate(link.Date)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "booking_id"}, {Name: "staff_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"team_id":    link.TeamID,
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(link).Error
}

func (r *bookingAssignmentRepo) ListByStaffAndDate(ctx context.Context, staffID string, date time.Time) ([]model.BookingAssignment, error) {
	var list []model.BookingAssignment
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND date = ?", staffID, model.NormalizeDate(date)).
		Find(&list).Error
	return list, err
}

func (r *bookingAssignmentRepo) ListByBookingAndDate(ctx context.Context, bookingID string, date time.Time) ([]model.BookingAssignment, error) {
	var list []model.BookingAssignment
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("booking_id = ? AND date = ?", bookingID, model.NormalizeDate(date)).
		Find(&list).Error
	return list, err
}

func (r *bookingAssignmentRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.BookingAssignment, error) {
	var list []model.BookingAssignment
	err := r.db.WithContext(ctx).
		Preload("Staff").Preload("Team").Preload("Booking").
		Where("date BETWEEN ? AND ?", model.NormalizeDate(from), model.NormalizeDate(to)).
		Order("date ASC, booking_id ASC").
		Find(&list).Error
	return list, err
}

func (r *bookingAssignmentRepo) CountByStaffAndDate(ctx context.Context, staffID string, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BookingAssignment{}).
		Where("staff_id = ? AND date = ?", staffID, model.NormalizeDate(date)).
		Count(&count).Error
	return count, err
}

func (r *bookingAssignmentRepo) Delete(ctx context.Context, bookingID, staffID string, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("booking_id = ? AND staff_id = ? AND date = ?", bookingID, staffID, model.NormalizeDate(date)).
		Delete(&model.BookingAssignment{})
	return result.RowsAffected, result.Error
}

func (r *bookingAssignmentRepo) DeleteByStaffAndDate(ctx context.Context, staffID string, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("staff_id = ? AND date = ?", staffID, model.NormalizeDate(date)).
		Delete(&model.BookingAssignment{})
	return result.RowsAffected, result.Error
}

func (r *bookingAssignmentRepo) DeleteByBookingAndDate(ctx context.Context, bookingID string, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("booking_id = ? AND date = ?", bookingID, model.NormalizeDate(date)).
		Delete(&model.BookingAssignment{})
	return result.RowsAffected, result.Error
}

func (r *bookingAssignmentRepo) DeleteByBooking(ctx context.Context, bookingID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&model.BookingAssignment{})
	return result.RowsAffected, result.Error
}

func (r *bookingAssignmentRepo) DeleteStale(ctx context.Context, staffID string, date time.Time, teamID string, keepBookingIDs []string) (int64, error) {
	db := r.db.WithContext(ctx).
		Where("staff_id = ? AND date = ?", staffID, model.NormalizeDate(date))
	if len(keepBookingIDs) == 0 {
		// 派生集合为空 → 该人员当天的全部关联都已过期
		result := db.Delete(&model.BookingAssignment{})
		return result.RowsAffected, result.Error
	}
	result := db.
		Where("team_id <> ? OR booking_id NOT IN ?", teamID, keepBookingIDs).
		Delete(&model.BookingAssignment{})
	return result.RowsAffected, result.Error
}
