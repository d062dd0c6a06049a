package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Staff             StaffRepository
	Team              TeamRepository
	Booking           BookingRepository
	TeamAssignment    TeamAssignmentRepository
	BookingAssignment BookingAssignmentRepository
	CalendarOccupancy CalendarOccupancyRepository

	// Tx 将多个仓储操作绑定到同一数据库事务。
	// 每个变更操作（指派/移除/搬移）必须作为单个原子单元落库，
	// 部分写入属于一致性缺陷而非可接受的降级状态。
	Tx TxManager
}

// TxManager 事务管理器
// InTx 内回调收到的 Repository 已绑定同一事务；回调返回错误时整体回滚
type TxManager interface {
	InTx(ctx context.Context, fn func(txRepo *Repository) error) error
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	r := newRepositoryWithDB(db)
	r.Tx = &gormTxManager{db: db}
	return r
}

func newRepositoryWithDB(db *gorm.DB) *Repository {
	return &Repository{
		Staff:             NewStaffRepo(db),
		Team:              NewTeamRepo(db),
		Booking:           NewBookingRepo(db),
		TeamAssignment:    NewTeamAssignmentRepo(db),
		BookingAssignment: NewBookingAssignmentRepo(db),
		CalendarOccupancy: NewCalendarOccupancyRepo(db),
	}
}

// ── gorm 事务管理器实现 ──

type gormTxManager struct {
	db *gorm.DB
}

func (m *gormTxManager) InTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := newRepositoryWithDB(tx)
		// 嵌套调用走 SAVEPOINT，由 gorm 处理
		txRepo.Tx = &gormTxManager{db: tx}
		return fn(txRepo)
	})
}
