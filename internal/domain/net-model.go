package domain

import "time"

// Net scopes
const (
	ScopePermanent     = "permanent"
	ScopeTempAdhoc     = "temp_adhoc"
	ScopeTempOperation = "temp_operation"
)

// Net statuses
const (
	NetStatusPlanned  = "planned"
	NetStatusActive   = "active"
	NetStatusInactive = "inactive"
	NetStatusStandby  = "standby"
	NetStatusClosed   = "closed"
)

type Net struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Code       string `gorm:"type:varchar(32);not null;uniqueIndex:uidx_nets_scope_operation_code" json:"code"`
	Label      string `gorm:"type:varchar(120)" json:"label"`
	Type       string `gorm:"type:varchar(40)" json:"type"`
	Discipline string `gorm:"type:varchar(40)" json:"discipline"`
	Priority   string `gorm:"type:varchar(20)" json:"priority"`
	Status     string `gorm:"type:varchar(20);not null;default:active" json:"status"`
	Scope      string `gorm:"type:varchar(20);not null;uniqueIndex:uidx_nets_scope_operation_code" json:"scope"`
	Temporary  bool   `gorm:"not null;default:false" json:"temporary"`

	OwnerID *uint `gorm:"index" json:"owner_id,omitempty"`
	// required iff scope=temp_operation
	OperationID *uint `gorm:"index;uniqueIndex:uidx_nets_scope_operation_code" json:"operation_id,omitempty"`

	PlannedActivationAt *time.Time `json:"planned_activation_at,omitempty"`
	CleanupGraceMinutes int        `gorm:"not null;default:5" json:"cleanup_grace_minutes"`
	LastEmptyAt         *time.Time `json:"last_empty_at,omitempty"`

	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CloseReason *string    `gorm:"type:varchar(60)" json:"close_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n Net) IsTemp() bool {
	return n.Scope == ScopeTempAdhoc || n.Scope == ScopeTempOperation
}
