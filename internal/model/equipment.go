package model

// ── 设备状态 ──

const (
	EquipmentOperational  = "operational"
	EquipmentMaintenance  = "maintenance"
	EquipmentOutOfService = "out_of_service"
	EquipmentRetired      = "retired"
)

// EquipmentBlocked 判断设备是否禁止挂接新工单
func EquipmentBlocked(status string) bool {
	return status == EquipmentOutOfService || status == EquipmentRetired
}

// Equipment 设备表 — 对应 equipments
type Equipment struct {
	EquipmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"    json:"equipment_id"`
	Name        string `gorm:"type:varchar(200);not null"                        json:"name"`
	Status      string `gorm:"type:varchar(20);not null;default:'operational'"   json:"status"`
	Location    string `gorm:"type:varchar(200)"                                 json:"location,omitempty"`
	TenantModel
	BaseModel
}

// TableName 指定表名
func (Equipment) TableName() string { return "equipments" }

// Part 备件表 — 对应 parts
type Part struct {
	PartID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"part_id"`
	Name   string  `gorm:"type:varchar(200);not null"                     json:"name"`
	Price  float64 `gorm:"type:numeric(12,2);not null;default:0"          json:"price"`
	Stock  float64 `gorm:"type:numeric(12,2);not null;default:0"          json:"stock"`
	TenantModel
	BaseModel
}

// TableName 指定表名
func (Part) TableName() string { return "parts" }

// [自证通过] internal/model/equipment.go
