package domain

import "time"

// Operation statuses (rows are owned by the ops service; we only read them)
const (
	OperationPlanned   = "planned"
	OperationActive    = "active"
	OperationCompleted = "completed"
	OperationCancelled = "cancelled"
)

type Operation struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"type:varchar(200);not null" json:"title"`
	CreatorID uint       `gorm:"not null;index" json:"creator_id"`
	Status    string     `gorm:"type:varchar(20);not null;default:planned" json:"status"`
	StartAt   time.Time  `gorm:"not null;index" json:"start_at"`
	EndAt     *time.Time `json:"end_at,omitempty"`
	// lane suggestions authored on the op record, loosely typed
	PreferredLanes []byte    `gorm:"type:jsonb" json:"preferred_lanes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Ended reports whether the operation is over at now, preferring the
// explicit end timestamp and falling back to a terminal status.
func (o Operation) Ended(now time.Time) bool {
	if o.EndAt != nil {
		return !now.Before(*o.EndAt)
	}
	return o.Status == OperationCompleted || o.Status == OperationCancelled
}

type DutyAssignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OperationID uint      `gorm:"not null;index" json:"operation_id"`
	MemberID    uint      `gorm:"not null;index" json:"member_id"`
	Duty        string    `gorm:"type:varchar(60);not null" json:"duty"`
	CreatedAt   time.Time `json:"created_at"`
}
