package model

// ── 角色 ──

const (
	RoleOperario      = "operario"      // 一线操作员
	RoleResponsable   = "responsable"   // 负责人：可直接完成工单、接收预算告警
	RoleAdministrador = "administrador" // 管理员
)

// ManagerRoles 具备管理权限的角色（直接完成工单 / 审批 / 预算告警接收方）
var ManagerRoles = []string{RoleResponsable, RoleAdministrador}

// IsManagerRole 判断角色是否具备管理权限
func IsManagerRole(role string) bool {
	for _, r := range ManagerRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User 用户表 — 对应 users
// 账号生命周期由外部身份系统管理，这里只读取计费与通知所需字段
type User struct {
	UserID     string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name       string   `gorm:"type:varchar(100);not null"                     json:"name"`
	Email      string   `gorm:"type:varchar(255);not null"                     json:"email"`
	Role       string   `gorm:"type:varchar(20);not null;default:'operario'"   json:"role"`
	HourlyRate *float64 `gorm:"type:numeric(10,2)"                             json:"hourly_rate,omitempty"`
	TenantModel
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
