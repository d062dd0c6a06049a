package repository

import (
	"context"

	"gorm.io/gorm"

	"crewboard/backend/internal/model"
)

// TeamRepository 团队资源数据访问接口
type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*model.Team, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Team, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type teamRepo struct {
	db *gorm.DB
}

// NewTeamRepo 创建 TeamRepository 实例
func NewTeamRepo(db *gorm.DB) TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	var t model.Team
	err := r.db.WithContext(ctx).
		Where("team_id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teamRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Team
	err := r.db.WithContext(ctx).
		Where("team_id IN ?", ids).
		Find(&list).Error
	return list, err
}

func (r *teamRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Team{}).
		Where("team_id = ?", id).
		Count(&count).Error
	return count > 0, err
}
