package repository

import (
	"context"

	"gorm.io/gorm"

	"crewboard/backend/internal/model"
)

// StaffRepository 人员数据访问接口
// 人员 CRUD 属于外部人事模块；这里仅提供指派核心所需的查询
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*model.Staff, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Staff, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type staffRepo struct {
	db *gorm.DB
}

// NewStaffRepo 创建 StaffRepository 实例
func NewStaffRepo(db *gorm.DB) StaffRepository {
	return &staffRepo{db: db}
}

func (r *staffRepo) GetByID(ctx context.Context, id string) (*model.Staff, error) {
	var s model.Staff
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *staffRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Staff, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Staff
	err := r.db.WithContext(ctx).
		Where("staff_id IN ?", ids).
		Find(&list).Error
	return list, err
}

func (r *staffRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Staff{}).
		Where("staff_id = ?", id).
		Count(&count).Error
	return count > 0, err
}
