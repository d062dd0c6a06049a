package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crewboard/backend/internal/model"
)

// TeamAssignmentRepository 团队指派数据访问接口
type TeamAssignmentRepository interface {
	// Upsert 按 (staff_id, date) 唯一键插入或替换团队
	Upsert(ctx context.Context, assignment *model.TeamAssignment) error
	GetByStaffAndDate(ctx context.Context, staffID string, date time.Time) (*model.TeamAssignment, error)
	// GetByStaffTeamDate 精确匹配三元组，用于搬移时的目的地校验
	GetByStaffTeamDate(ctx context.Context, staffID, teamID string, date time.Time) (*model.TeamAssignment, error)
	ListByTeamAndDate(ctx context.Context, teamID string, date time.Time) ([]model.TeamAssignment, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.TeamAssignment, error)
	// Delete 删除 (staff_id, date) 的指派，返回删除行数（0 行不算错误）
	Delete(ctx context.Context, staffID string, date time.Time) (int64, error)
}

type teamAssignmentRepo struct {
	db *gorm.DB
}

// NewTeamAssignmentRepo 创建 TeamAssignmentRepository 实例
func NewTeamAssignmentRepo(db *gorm.DB) TeamAssignmentRepository {
	return &teamAssignmentRepo{db: db}
}

func (r *teamAssignmentRepo) Upsert(ctx context.Context, assignment *model.TeamAssignment) error {
	assignment.Date = model.NormalizeDate(assignment.Date)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "staff_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"team_id":    assignment.TeamID,
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(assignment).Error
}

func (r *teamAssignmentRepo) GetByStaffAndDate(ctx context.Context, staffID string, date time.Time) (*model.TeamAssignment, error) {
	var a model.TeamAssignment
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("staff_id = ? AND date = ?", staffID, model.NormalizeDate(date)).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *teamAssignmentRepo) GetByStaffTeamDate(ctx context.Context, staffID, teamID string, date time.Time) (*model.TeamAssignment, error) {
	var a model.TeamAssignment
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND team_id = ? AND date = ?", staffID, teamID, model.NormalizeDate(date)).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *teamAssignmentRepo) ListByTeamAndDate(ctx context.Context, teamID string, date time.Time) ([]model.TeamAssignment, error) {
	var list []model.TeamAssignment
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("team_id = ? AND date = ?", teamID, model.NormalizeDate(date)).
		Find(&list).Error
	return list, err
}

func (r *teamAssignmentRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.TeamAssignment, error) {
	var list []model.TeamAssignment
	err := r.db.WithContext(ctx).
		Preload("Staff").Preload("Team").
		Where("date BETWEEN ? AND ?", model.NormalizeDate(from), model.NormalizeDate(to)).
		Order("date ASC, team_id ASC").
		Find(&list).Error
	return list, err
}

func (r *teamAssignmentRepo) Delete(ctx context.Context, staffID string, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("staff_id = ? AND date = ?", staffID, model.NormalizeDate(date)).
		Delete(&model.TeamAssignment{})
	return result.RowsAffected, result.Error
}
