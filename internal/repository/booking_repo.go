package repository

import (
	"context"

	"gorm.io/gorm"

	"crewboard/backend/internal/model"
)

// BookingRepository 预订数据访问接口
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Booking, error)
	// GetOrCreateByTitle iCalendar 导入时按标题复用/创建预订
	GetOrCreateByTitle(ctx context.Context, title string) (*model.Booking, error)
}

type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", id).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Booking
	err := r.db.WithContext(ctx).
		Where("booking_id IN ?", ids).
		Find(&list).Error
	return list, err
}

func (r *bookingRepo) GetOrCreateByTitle(ctx context.Context, title string) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Where("title = ? AND status = ?", title, "confirmed").
		First(&b).Error
	if err == nil {
		return &b, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	b = model.Booking{Title: title, Status: "confirmed"}
	if err := r.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
