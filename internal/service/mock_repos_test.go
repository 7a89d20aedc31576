package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"maintx/backend/internal/model"
	"maintx/backend/internal/repository"
	apperrors "maintx/backend/pkg/errors"
)

// ── Mock WorkOrderRepository ──

type mockWorkOrderRepo struct {
	orders map[string]*model.WorkOrder
	seq    int
}

func newMockWorkOrderRepo() *mockWorkOrderRepo {
	return &mockWorkOrderRepo{orders: make(map[string]*model.WorkOrder)}
}

func (m *mockWorkOrderRepo) Create(_ context.Context, wo *model.WorkOrder) error {
	for _, existing := range m.orders {
		if existing.TenantID == wo.TenantID && existing.Number == wo.Number {
			return apperrors.ErrNumberConflict
		}
	}
	if wo.WorkOrderID == "" {
		m.seq++
		wo.WorkOrderID = fmt.Sprintf("wo-%d", m.seq)
	}
	if wo.CreatedAt.IsZero() {
		wo.CreatedAt = time.Now()
	}
	if wo.Version == 0 {
		wo.Version = 1
	}
	m.orders[wo.WorkOrderID] = wo
	return nil
}

func (m *mockWorkOrderRepo) GetByID(_ context.Context, tenantID, id string) (*model.WorkOrder, error) {
	if wo, ok := m.orders[id]; ok && wo.TenantID == tenantID {
		cp := *wo
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkOrderRepo) Update(_ context.Context, wo *model.WorkOrder) error {
	stored, ok := m.orders[wo.WorkOrderID]
	if !ok || stored.TenantID != wo.TenantID {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != wo.Version {
		return apperrors.ErrOptimisticLock
	}
	wo.Version++
	m.orders[wo.WorkOrderID] = wo
	return nil
}

func (m *mockWorkOrderRepo) List(_ context.Context, tenantID string, filters *repository.WorkOrderListFilters, offset, limit int) ([]model.WorkOrder, int64, error) {
	var result []model.WorkOrder
	for _, wo := range m.orders {
		if wo.TenantID != tenantID {
			continue
		}
		if filters != nil {
			if filters.Status != "" && wo.Status != filters.Status {
				continue
			}
			if filters.Priority != "" && wo.Priority != filters.Priority {
				continue
			}
			if filters.ProjectID != "" && (wo.ProjectID == nil || *wo.ProjectID != filters.ProjectID) {
				continue
			}
			if filters.AssignedTo != "" && (wo.AssignedTo == nil || *wo.AssignedTo != filters.AssignedTo) {
				continue
			}
		}
		result = append(result, *wo)
	}
	return result, int64(len(result)), nil
}

func (m *mockWorkOrderRepo) ListByProject(_ context.Context, tenantID, projectID string) ([]model.WorkOrder, error) {
	var result []model.WorkOrder
	for _, wo := range m.orders {
		if wo.TenantID == tenantID && wo.ProjectID != nil && *wo.ProjectID == projectID {
			result = append(result, *wo)
		}
	}
	return result, nil
}

func (m *mockWorkOrderRepo) ListPlanned(_ context.Context, tenantID string) ([]model.WorkOrder, error) {
	var result []model.WorkOrder
	for _, wo := range m.orders {
		if wo.TenantID != tenantID || wo.PlannedStart == nil {
			continue
		}
		if wo.Status == model.StatusCompleted || wo.Status == model.StatusCancelled {
			continue
		}
		result = append(result, *wo)
	}
	return result, nil
}

func (m *mockWorkOrderRepo) MaxSequence(_ context.Context, tenantID string, year int) (int, error) {
	prefix := fmt.Sprintf("OT-%d-", year)
	max := 0
	for _, wo := range m.orders {
		if wo.TenantID != tenantID || !strings.HasPrefix(wo.Number, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(wo.Number, prefix)); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

// ── Mock CostRecordRepository ──

type mockCostRecordRepo struct {
	interventions []model.Intervention
	movements     []model.StockMovement
	consumed      []model.ConsumedPart
	operators     []model.WorkOrderOperator
	phases        []model.PhaseTime
	reservations  []model.Reservation
	extraFees     []model.ExtraFee
	subcontracts  []model.Subcontract
}

func newMockCostRecordRepo() *mockCostRecordRepo {
	return &mockCostRecordRepo{}
}

func (m *mockCostRecordRepo) InterventionsByWorkOrder(_ context.Context, tenantID, workOrderID string) ([]model.Intervention, error) {
	var result []model.Intervention
	for _, iv := range m.interventions {
		if iv.TenantID == tenantID && iv.WorkOrderID == workOrderID {
			result = append(result, iv)
		}
	}
	return result, nil
}

func (m *mockCostRecordRepo) OutMovementsByWorkOrder(_ context.Context, tenantID, workOrderID string) ([]model.StockMovement, error) {
	var result []model.StockMovement
	for _, mv := range m.movements {
		if mv.TenantID == tenantID && mv.WorkOrderID != nil && *mv.WorkOrderID == workOrderID && mv.MovementType == model.MovementOut {
			result = append(result, mv)
		}
	}
	return result, nil
}

func (m *mockCostRecordRepo) ConsumedPartsByWorkOrder(_ context.Context, tenantID, workOrderID string) ([]model.ConsumedPart, error) {
	var result []model.ConsumedPart
	for _, cp := range m.consumed {
		if cp.TenantID == tenantID && cp.WorkOrderID == workOrderID {
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockCostRecordRepo) OperatorsByWorkOrder(_ context.Context, tenantID, workOrderID string) ([]model.WorkOrderOperator, error) {
	var result []model.WorkOrderOperator
	for _, op := range m.operators {
		if op.TenantID == tenantID && op.WorkOrderID == workOrderID {
			result = append(result, op)
		}
	}
	return result, nil
}

func (m *mockCostRecordRepo) PhaseTimesByWorkOrder(_ context.Context, tenantID, workOrderID string) ([]model.PhaseTime, error) {
	var result []model.PhaseTime
	for _, ph := range m.phases {
		if ph.TenantID == tenantID && ph.WorkOrderID == workOrderID {
			result = append(result, ph)
		}
	}
	return result, nil
}

func (m *mockCostRecordRepo) ReservationsByWorkOrder(_ context.Context, tenantID, workOrderID string) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, rv := range m.reservations {
		if rv.TenantID == tenantID && rv.WorkOrderID == workOrderID {
			result = append(result, rv)
		}
	}
	return result, nil
}

func (m *mockCostRecordRepo) ExtraFeesByWorkOrder(_ context.Context, tenantID, workOrderID string) ([]model.ExtraFee, error) {
	var result []model.ExtraFee
	for _, fee := range m.extraFees {
		if fee.TenantID == tenantID && fee.WorkOrderID == workOrderID {
			result = append(result, fee)
		}
	}
	return result, nil
}

func (m *mockCostRecordRepo) SubcontractTotalByWorkOrders(_ context.Context, tenantID string, workOrderIDs []string) (float64, error) {
	ids := make(map[string]bool, len(workOrderIDs))
	for _, id := range workOrderIDs {
		ids[id] = true
	}
	var total float64
	for _, sc := range m.subcontracts {
		if sc.TenantID == tenantID && ids[sc.WorkOrderID] {
			total += sc.Amount
		}
	}
	return total, nil
}

func (m *mockCostRecordRepo) AddOperators(_ context.Context, ops []model.WorkOrderOperator) error {
	m.operators = append(m.operators, ops...)
	return nil
}

func (m *mockCostRecordRepo) AddReservations(_ context.Context, rs []model.Reservation) error {
	m.reservations = append(m.reservations, rs...)
	return nil
}

// ── Mock EquipmentRepository ──

type mockEquipmentRepo struct {
	equipments map[string]*model.Equipment
}

func newMockEquipmentRepo() *mockEquipmentRepo {
	return &mockEquipmentRepo{equipments: make(map[string]*model.Equipment)}
}

func (m *mockEquipmentRepo) GetByID(_ context.Context, tenantID, id string) (*model.Equipment, error) {
	if eq, ok := m.equipments[id]; ok && eq.TenantID == tenantID {
		return eq, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, tenantID, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok && u.TenantID == tenantID {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) IDsByRole(_ context.Context, tenantID string, roles []string) ([]string, error) {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	var ids []string
	for _, u := range m.users {
		if u.TenantID == tenantID && roleSet[u.Role] {
			ids = append(ids, u.UserID)
		}
	}
	return ids, nil
}

// ── Mock SettingRepository ──

type mockSettingRepo struct {
	values map[string]string // "tenantID:key" → value
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{values: make(map[string]string)}
}

func (m *mockSettingRepo) set(tenantID, key, value string) {
	m.values[tenantID+":"+key] = value
}

func (m *mockSettingRepo) Get(_ context.Context, tenantID, key string) (string, bool, error) {
	v, ok := m.values[tenantID+":"+key]
	return v, ok, nil
}

func (m *mockSettingRepo) GetFloat(_ context.Context, tenantID, key string, def float64) (float64, error) {
	v, ok := m.values[tenantID+":"+key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, nil
	}
	return f, nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[string]*model.Project
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) GetByID(_ context.Context, tenantID, id string) (*model.Project, error) {
	if p, ok := m.projects[id]; ok && p.TenantID == tenantID {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock BudgetRepository ──

type mockBudgetRepo struct {
	budgets map[string]*model.Budget
}

func newMockBudgetRepo() *mockBudgetRepo {
	return &mockBudgetRepo{budgets: make(map[string]*model.Budget)}
}

func (m *mockBudgetRepo) GetByID(_ context.Context, tenantID, id string) (*model.Budget, error) {
	if b, ok := m.budgets[id]; ok && b.TenantID == tenantID {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBudgetRepo) List(_ context.Context, tenantID string, offset, limit int) ([]model.Budget, int64, error) {
	var result []model.Budget
	for _, b := range m.budgets {
		if b.TenantID == tenantID {
			result = append(result, *b)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockBudgetRepo) ListByProject(_ context.Context, tenantID, projectID string) ([]model.Budget, error) {
	var result []model.Budget
	for _, b := range m.budgets {
		if b.TenantID == tenantID && b.ProjectID != nil && *b.ProjectID == projectID {
			result = append(result, *b)
		}
	}
	return result, nil
}

// ── Mock AlertRepository ──

type mockAlertRepo struct {
	alerts []*model.Alert
	seq    int
}

func newMockAlertRepo() *mockAlertRepo {
	return &mockAlertRepo{}
}

func (m *mockAlertRepo) Create(_ context.Context, alert *model.Alert) error {
	m.seq++
	if alert.AlertID == "" {
		alert.AlertID = fmt.Sprintf("alert-%d", m.seq)
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockAlertRepo) HasUnreadBudgetAlertOn(_ context.Context, tenantID, budgetID string, day time.Time) (bool, error) {
	y, mo, d := day.Date()
	for _, a := range m.alerts {
		if a.TenantID != tenantID || a.Type != model.AlertTypeBudget || a.IsRead {
			continue
		}
		if a.EntityID == nil || *a.EntityID != budgetID {
			continue
		}
		ay, amo, ad := a.CreatedAt.Date()
		if ay == y && amo == mo && ad == d {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAlertRepo) List(_ context.Context, tenantID string, unreadOnly bool, offset, limit int) ([]model.Alert, int64, error) {
	var result []model.Alert
	for _, a := range m.alerts {
		if a.TenantID != tenantID {
			continue
		}
		if unreadOnly && a.IsRead {
			continue
		}
		result = append(result, *a)
	}
	return result, int64(len(result)), nil
}

func (m *mockAlertRepo) MarkRead(_ context.Context, tenantID, id string) error {
	for _, a := range m.alerts {
		if a.TenantID == tenantID && a.AlertID == id {
			a.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []*model.Notification
	prefs         map[string]*model.NotificationPreference
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{prefs: make(map[string]*model.NotificationPreference)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepo) GetPreference(_ context.Context, userID string) (*model.NotificationPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs[userID], nil
}

// ── Mock Notifier（同步记录，便于断言）──

type notifyCall struct {
	eventType  string
	recipients []string
	data       map[string]string
	tenantID   string
}

type mockNotifier struct {
	calls []notifyCall
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{}
}

func (m *mockNotifier) Notify(eventType string, recipientIDs []string, data map[string]string, tenantID string) {
	m.calls = append(m.calls, notifyCall{
		eventType:  eventType,
		recipients: recipientIDs,
		data:       data,
		tenantID:   tenantID,
	})
}

// callsOf 按事件类型过滤通知调用
func (m *mockNotifier) callsOf(eventType string) []notifyCall {
	var result []notifyCall
	for _, c := range m.calls {
		if c.eventType == eventType {
			result = append(result, c)
		}
	}
	return result
}

// ── 测试装配 ──

type testRepos struct {
	workOrders    *mockWorkOrderRepo
	costRecords   *mockCostRecordRepo
	equipments    *mockEquipmentRepo
	users         *mockUserRepo
	settings      *mockSettingRepo
	projects      *mockProjectRepo
	budgets       *mockBudgetRepo
	alerts        *mockAlertRepo
	notifications *mockNotificationRepo
	repo          *repository.Repository
}

func newTestRepos() *testRepos {
	t := &testRepos{
		workOrders:    newMockWorkOrderRepo(),
		costRecords:   newMockCostRecordRepo(),
		equipments:    newMockEquipmentRepo(),
		users:         newMockUserRepo(),
		settings:      newMockSettingRepo(),
		projects:      newMockProjectRepo(),
		budgets:       newMockBudgetRepo(),
		alerts:        newMockAlertRepo(),
		notifications: newMockNotificationRepo(),
	}
	// 走真实聚合构造：nil 连接 + 全量能力，再以内存替身覆盖各仓储
	t.repo = repository.NewRepository(nil, repository.FullCapabilities())
	t.repo.WorkOrder = t.workOrders
	t.repo.CostRecord = t.costRecords
	t.repo.Equipment = t.equipments
	t.repo.User = t.users
	t.repo.Setting = t.settings
	t.repo.Project = t.projects
	t.repo.Budget = t.budgets
	t.repo.Alert = t.alerts
	t.repo.Notification = t.notifications
	return t
}

// [自证通过] internal/service/mock_repos_test.go
