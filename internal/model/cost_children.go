package model

import "time"

// 工单成本子表：同一工单的多条历史录入路径并存
// interventions / stock_movements / consumed_parts 三条备件路径按设计叠加计费
// work_order_operators / extra_fees / consumed_parts 为可选扩展表

// Intervention 干预记录表 — 对应 interventions
// 记录单次技师上门：工时 + 可选的备件消耗
type Intervention struct {
	InterventionID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"intervention_id"`
	WorkOrderID    string   `gorm:"type:uuid;not null;index"                       json:"work_order_id"`
	TechnicianID   *string  `gorm:"type:uuid"                                      json:"technician_id,omitempty"`
	HoursSpent     float64  `gorm:"type:numeric(8,2);not null;default:0"           json:"hours_spent"`
	PartID         *string  `gorm:"type:uuid"                                      json:"part_id,omitempty"`
	QuantityUsed   *float64 `gorm:"type:numeric(12,2)"                             json:"quantity_used,omitempty"` // nil 表示已用但未记数量
	Notes          string   `gorm:"type:text"                                      json:"notes,omitempty"`
	TenantModel
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Part       *Part `gorm:"foreignKey:PartID;references:PartID"         json:"part,omitempty"`
	Technician *User `gorm:"foreignKey:TechnicianID;references:UserID"   json:"technician,omitempty"`
}

// TableName 指定表名
func (Intervention) TableName() string { return "interventions" }

// ── 库存移动类型 ──

const (
	MovementIn     = "in"
	MovementOut    = "out"
	MovementAdjust = "adjust"
)

// StockMovement 库存移动表 — 对应 stock_movements
// 仅 out 类型计入工单成本，out 的 quantity 约定为负数
type StockMovement struct {
	MovementID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"movement_id"`
	WorkOrderID  *string `gorm:"type:uuid;index"                                json:"work_order_id,omitempty"`
	PartID       string  `gorm:"type:uuid;not null"                             json:"part_id"`
	Quantity     float64 `gorm:"type:numeric(12,2);not null"                    json:"quantity"`
	MovementType string  `gorm:"type:varchar(10);not null"                      json:"movement_type"`
	TenantModel
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Part *Part `gorm:"foreignKey:PartID;references:PartID" json:"part,omitempty"`
}

// TableName 指定表名
func (StockMovement) TableName() string { return "stock_movements" }

// ConsumedPart 消耗备件表 — 对应 consumed_parts（可选扩展表）
type ConsumedPart struct {
	ConsumedPartID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"consumed_part_id"`
	WorkOrderID    string   `gorm:"type:uuid;not null;index"                       json:"work_order_id"`
	PartID         string   `gorm:"type:uuid;not null"                             json:"part_id"`
	Quantity       float64  `gorm:"type:numeric(12,3);not null;default:0"          json:"quantity"`                   // 允许小数
	UnitCostAtUse  *float64 `gorm:"type:numeric(12,2)"                             json:"unit_cost_at_use,omitempty"` // nil 回退备件现价
	TenantModel
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Part *Part `gorm:"foreignKey:PartID;references:PartID" json:"part,omitempty"`
}

// TableName 指定表名
func (ConsumedPart) TableName() string { return "consumed_parts" }

// WorkOrderOperator 工单操作员关联表 — 对应 work_order_operators（可选扩展表）
// 多操作员时人工成本按人数叠加（班组模型），替代单一 assigned_to 计费
type WorkOrderOperator struct {
	WorkOrderID string `gorm:"type:uuid;primaryKey" json:"work_order_id"`
	UserID      string `gorm:"type:uuid;primaryKey" json:"user_id"`
	TenantModel
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (WorkOrderOperator) TableName() string { return "work_order_operators" }

// PhaseTime 阶段工时表 — 对应 phase_times
// 人工成本的最后兜底来源
type PhaseTime struct {
	PhaseTimeID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"phase_time_id"`
	WorkOrderID string  `gorm:"type:uuid;not null;index"                       json:"work_order_id"`
	Phase       string  `gorm:"type:varchar(50);not null"                      json:"phase"`
	HoursSpent  float64 `gorm:"type:numeric(8,2);not null;default:0"           json:"hours_spent"`
	TenantModel
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (PhaseTime) TableName() string { return "phase_times" }

// Reservation 备件预留表 — 对应 reservations
// 前瞻性成本：尚未消耗也计入（刻意高估已承诺成本）
type Reservation struct {
	ReservationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_id"`
	WorkOrderID   string  `gorm:"type:uuid;not null;index"                       json:"work_order_id"`
	PartID        string  `gorm:"type:uuid;not null"                             json:"part_id"`
	Quantity      float64 `gorm:"type:numeric(12,2);not null;default:0"          json:"quantity"`
	TenantModel
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Part *Part `gorm:"foreignKey:PartID;references:PartID" json:"part,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }

// ExtraFee 额外费用表 — 对应 extra_fees（可选扩展表），始终叠加
type ExtraFee struct {
	ExtraFeeID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"extra_fee_id"`
	WorkOrderID string  `gorm:"type:uuid;not null;index"                       json:"work_order_id"`
	Description string  `gorm:"type:varchar(500);not null"                     json:"description"`
	Amount      float64 `gorm:"type:numeric(14,2);not null;default:0"          json:"amount"`
	TenantModel
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (ExtraFee) TableName() string { return "extra_fees" }

// Subcontract 外包合同表 — 对应 subcontracts
// 独立成本层：不进工单自身成本，只参与项目级汇总
type Subcontract struct {
	SubcontractID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subcontract_id"`
	WorkOrderID   string  `gorm:"type:uuid;not null;index"                       json:"work_order_id"`
	Vendor        string  `gorm:"type:varchar(200)"                              json:"vendor,omitempty"`
	Amount        float64 `gorm:"type:numeric(14,2);not null;default:0"          json:"amount"`
	TenantModel
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (Subcontract) TableName() string { return "subcontracts" }

// [自证通过] internal/model/cost_children.go
