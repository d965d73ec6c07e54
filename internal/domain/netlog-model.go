package domain

import "time"

// Canonical net log types. The log is append-only and is the durable
// source of governance truth; net rows are a projection of the same facts.
const (
	LogPolicySet          = "POLICY_SET"
	LogOwnerTransferred   = "OWNER_TRANSFERRED"
	LogOperationPlanned   = "OPERATION_PLANNED"
	LogOperationActivated = "OPERATION_ACTIVATED"
	LogLifecycleClosed    = "LIFECYCLE_CLOSED"
)

// Log severities
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

type NetLog struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	NetID       uint       `gorm:"not null;index" json:"net_id"`
	Type        string     `gorm:"type:varchar(40);not null" json:"type"`
	Severity    string     `gorm:"type:varchar(20);not null;default:info" json:"severity"`
	Summary     string     `gorm:"type:text;not null" json:"summary"`
	ActorID     *uint      `gorm:"index" json:"actor_id,omitempty"`
	OperationID *uint      `gorm:"index" json:"operation_id,omitempty"`
	Details     []byte     `gorm:"type:jsonb" json:"details,omitempty"`
	EntryKey    string     `gorm:"type:varchar(40);uniqueIndex" json:"entry_key"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
