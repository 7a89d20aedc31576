package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"maintx/backend/internal/dto"
	"maintx/backend/internal/model"
	"maintx/backend/internal/repository"
)

// ── 预算模块业务错误 ──

var (
	ErrProjectNotFound = errors.New("项目不存在")
	ErrBudgetNotFound  = errors.New("预算不存在")
	ErrAlertNotFound   = errors.New("告警不存在")
)

// 默认预算告警阈值百分比
const defaultBudgetAlertPercent = 90.0

// BudgetService 预算超支监控接口
//
// 调用时机双轨：每次预算读取时立即复核（自愈），工单关闭/审批通过时级联复核。
// 当日去重守卫使任意次数的重复调用都安全，两条路径共用同一检测逻辑。
type BudgetService interface {
	// ProjectCost 项目当前成本：全部关联工单成本 + 引用这些工单的外包金额
	ProjectCost(ctx context.Context, tenantID, projectID string) (*dto.ProjectCostResponse, error)
	// GetBudget 读取预算并立即执行超支检测（自愈路径）
	GetBudget(ctx context.Context, tenantID, budgetID string) (*dto.BudgetResponse, error)
	List(ctx context.Context, tenantID string, page *dto.PaginationRequest) ([]dto.BudgetResponse, int64, error)
	// CheckProjectBudgets 工单关闭/审批通过后的级联检测；失败只记日志
	CheckProjectBudgets(ctx context.Context, tenantID, projectID string)
	ListAlerts(ctx context.Context, tenantID string, req *dto.AlertListRequest) ([]dto.AlertResponse, int64, error)
	MarkAlertRead(ctx context.Context, tenantID, alertID string) error
}

type budgetService struct {
	repo    *repository.Repository
	costSvc CostService
	notify  Notifier
	logger  *zap.Logger
	now     func() time.Time
}

// NewBudgetService 创建 BudgetService 实例
func NewBudgetService(repo *repository.Repository, costSvc CostService, notify Notifier, logger *zap.Logger) BudgetService {
	return &budgetService{
		repo:    repo,
		costSvc: costSvc,
		notify:  notify,
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── ProjectCost ──────────────────────

func (s *budgetService) ProjectCost(ctx context.Context, tenantID, projectID string) (*dto.ProjectCostResponse, error) {
	if _, err := s.repo.Project.GetByID(ctx, tenantID, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	orders, err := s.repo.WorkOrder.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		s.logger.Error("查询项目工单失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	var workOrdersCost float64
	ids := make([]string, 0, len(orders))
	for _, wo := range orders {
		ids = append(ids, wo.WorkOrderID)
		cost, err := s.costSvc.ComputeCost(ctx, tenantID, wo.WorkOrderID)
		if err != nil {
			return nil, err
		}
		workOrdersCost += cost.TotalCost
	}

	// 外包金额是独立成本层，只进项目级汇总，不进单个工单成本
	subcontractsCost, err := s.repo.CostRecord.SubcontractTotalByWorkOrders(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	return &dto.ProjectCostResponse{
		ProjectID:        projectID,
		WorkOrderCount:   len(orders),
		WorkOrdersCost:   round2(workOrdersCost),
		SubcontractsCost: round2(subcontractsCost),
		TotalCost:        round2(workOrdersCost + subcontractsCost),
	}, nil
}

// ────────────────────── GetBudget（自愈检测）──────────────────────

func (s *budgetService) GetBudget(ctx context.Context, tenantID, budgetID string) (*dto.BudgetResponse, error) {
	budget, err := s.repo.Budget.GetByID(ctx, tenantID, budgetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, err
	}

	resp, currentCost, err := s.toBudgetResponse(ctx, tenantID, budget)
	if err != nil {
		return nil, err
	}

	// 每次读取都复核：当日去重守卫保证重复调用安全
	if currentCost != nil {
		if err := s.checkOverrun(ctx, tenantID, budget, *currentCost); err != nil {
			s.logger.Error("预算超支检测失败",
				zap.String("budget_id", budget.BudgetID), zap.Error(err))
		}
	}

	return resp, nil
}

// ────────────────────── List ──────────────────────

func (s *budgetService) List(ctx context.Context, tenantID string, page *dto.PaginationRequest) ([]dto.BudgetResponse, int64, error) {
	budgets, total, err := s.repo.Budget.List(ctx, tenantID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("列出预算失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.BudgetResponse, 0, len(budgets))
	for i := range budgets {
		resp, currentCost, err := s.toBudgetResponse(ctx, tenantID, &budgets[i])
		if err != nil {
			return nil, 0, err
		}
		if currentCost != nil {
			if err := s.checkOverrun(ctx, tenantID, &budgets[i], *currentCost); err != nil {
				s.logger.Error("预算超支检测失败",
					zap.String("budget_id", budgets[i].BudgetID), zap.Error(err))
			}
		}
		result = append(result, *resp)
	}

	return result, total, nil
}

// ────────────────────── CheckProjectBudgets（级联检测）──────────────────────

func (s *budgetService) CheckProjectBudgets(ctx context.Context, tenantID, projectID string) {
	budgets, err := s.repo.Budget.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		s.logger.Error("查询项目预算失败", zap.String("project_id", projectID), zap.Error(err))
		return
	}
	if len(budgets) == 0 {
		return
	}

	cost, err := s.ProjectCost(ctx, tenantID, projectID)
	if err != nil {
		s.logger.Error("计算项目成本失败", zap.String("project_id", projectID), zap.Error(err))
		return
	}

	for i := range budgets {
		if err := s.checkOverrun(ctx, tenantID, &budgets[i], cost.TotalCost); err != nil {
			s.logger.Error("预算超支检测失败",
				zap.String("budget_id", budgets[i].BudgetID), zap.Error(err))
		}
	}
}

// ────────────────────── 超支检测核心 ──────────────────────

// checkOverrun 单个预算的超支检测
// 金额非正或成本未知时不动作；达到阈值时当日至多创建一条未读告警并通知管理角色
func (s *budgetService) checkOverrun(ctx context.Context, tenantID string, budget *model.Budget, currentCost float64) error {
	if budget.Amount <= 0 {
		return nil
	}

	percent, err := s.repo.Setting.GetFloat(ctx, tenantID, model.SettingBudgetAlertPercent, defaultBudgetAlertPercent)
	if err != nil {
		return err
	}
	if percent <= 0 {
		percent = defaultBudgetAlertPercent
	}

	// 严格大于才触发：恰好踩线不算超支
	limit := budget.Amount * percent / 100
	if currentCost <= limit {
		return nil
	}

	// 去重在插入前一刻复核，不复用更早的读取结果，约束并发下的重复告警
	today := s.now()
	exists, err := s.repo.Alert.HasUnreadBudgetAlertOn(ctx, tenantID, budget.BudgetID, today)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	usedPercent := round2(currentCost / budget.Amount * 100)
	severity := model.SeverityWarning
	if usedPercent >= 100 {
		severity = model.SeverityCritical
	}

	entityType := "budget"
	alert := &model.Alert{
		Type:        model.AlertTypeBudget,
		Severity:    severity,
		Title:       fmt.Sprintf("预算告警: %s", budget.Name),
		Message:     fmt.Sprintf("预算 %s 已使用 %.2f%%（当前成本 %.2f / 预算 %.2f）", budget.Name, usedPercent, currentCost, budget.Amount),
		EntityType:  &entityType,
		EntityID:    &budget.BudgetID,
		TenantModel: model.TenantModel{TenantID: tenantID},
	}
	if err := s.repo.Alert.Create(ctx, alert); err != nil {
		return err
	}

	recipients, err := s.repo.User.IDsByRole(ctx, tenantID, model.ManagerRoles)
	if err != nil {
		s.logger.Error("查询管理角色用户失败", zap.Error(err))
		return nil // 告警已落库，通知失败不回滚
	}

	s.notify.Notify(model.NotifyBudgetOverrun, recipients, map[string]string{
		"budget_id":    budget.BudgetID,
		"budget_name":  budget.Name,
		"used_percent": fmt.Sprintf("%.2f", usedPercent),
	}, tenantID)

	return nil
}

// ────────────────────── 告警查询 ──────────────────────

func (s *budgetService) ListAlerts(ctx context.Context, tenantID string, req *dto.AlertListRequest) ([]dto.AlertResponse, int64, error) {
	alerts, total, err := s.repo.Alert.List(ctx, tenantID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出告警失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		result = append(result, dto.AlertResponse{
			ID:         a.AlertID,
			Type:       a.Type,
			Severity:   a.Severity,
			Title:      a.Title,
			Message:    a.Message,
			EntityType: a.EntityType,
			EntityID:   a.EntityID,
			IsRead:     a.IsRead,
			CreatedAt:  a.CreatedAt,
		})
	}

	return result, total, nil
}

func (s *budgetService) MarkAlertRead(ctx context.Context, tenantID, alertID string) error {
	if err := s.repo.Alert.MarkRead(ctx, tenantID, alertID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		s.logger.Error("标记告警已读失败", zap.String("id", alertID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// toBudgetResponse 组装预算响应；无关联项目时成本未知（返回 nil），检测不动作
func (s *budgetService) toBudgetResponse(ctx context.Context, tenantID string, budget *model.Budget) (*dto.BudgetResponse, *float64, error) {
	resp := &dto.BudgetResponse{
		ID:        budget.BudgetID,
		Name:      budget.Name,
		ProjectID: budget.ProjectID,
		Amount:    budget.Amount,
	}
	if budget.Project != nil {
		resp.ProjectName = budget.Project.Name
	}

	if budget.ProjectID == nil {
		return resp, nil, nil
	}

	cost, err := s.ProjectCost(ctx, tenantID, *budget.ProjectID)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return resp, nil, nil
		}
		return nil, nil, err
	}

	resp.CurrentCost = cost.TotalCost
	if budget.Amount > 0 {
		resp.UsedPercent = round2(cost.TotalCost / budget.Amount * 100)
	}

	return resp, &cost.TotalCost, nil
}

// [自证通过] internal/service/budget_service.go
