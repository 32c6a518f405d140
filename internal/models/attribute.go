package models

// RadCheck is a check attribute evaluated when a user authenticates.
type RadCheck struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"column:username;type:varchar(64);not null;default:'';index"`
	Attribute string `gorm:"column:attribute;type:varchar(64);not null;default:''"`
	Op        string `gorm:"column:op;type:char(2);not null;default:'=='"`
	Value     string `gorm:"column:value;type:varchar(253);not null;default:''"`
}

// TableName pins the FreeRADIUS table name.
func (RadCheck) TableName() string { return "radcheck" }

// RadReply is a reply attribute returned to the NAS on Access-Accept.
type RadReply struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"column:username;type:varchar(64);not null;default:'';index"`
	Attribute string `gorm:"column:attribute;type:varchar(64);not null;default:''"`
	Op        string `gorm:"column:op;type:char(2);not null;default:'='"`
	Value     string `gorm:"column:value;type:varchar(253);not null;default:''"`
}

// TableName pins the FreeRADIUS table name.
func (RadReply) TableName() string { return "radreply" }

// Reserved attribute names and the operator used when writing them.
const (
	AttrCleartextPassword = "Cleartext-Password"
	AttrMikrotikGroup     = "Mikrotik-Group"
	OpSet                 = ":="
)
