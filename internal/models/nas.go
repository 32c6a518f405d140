package models

// Nas is a RADIUS client row in the FreeRADIUS `nas` table.
type Nas struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	NasName     string  `gorm:"column:nasname;type:varchar(128);not null;index"` // Client address (IPv4/IPv6).
	ShortName   string  `gorm:"column:shortname;type:varchar(32)"`               // Client alias.
	Type        string  `gorm:"column:type;type:varchar(30);default:other"`      // Device type.
	Ports       *int    `gorm:"column:ports"`                                    // Authentication port.
	Secret      string  `gorm:"column:secret;type:varchar(100);not null"`        // Shared secret.
	Server      *string `gorm:"column:server;type:varchar(64)"`                  // Virtual server.
	Community   *string `gorm:"column:community;type:varchar(50)"`               // SNMP community.
	Description *string `gorm:"column:description;type:varchar(200)"`           // Free text.
}

// TableName pins the FreeRADIUS table name.
func (Nas) TableName() string { return "nas" }
