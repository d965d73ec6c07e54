package dto

import (
	"encoding/json"
	"strings"
	"time"
)

// policyDetailsWire mirrors every spelling the log writers have used for
// governance fields. Log details are loosely typed JSON; this is the one
// place where the aliases get collapsed.
type policyDetailsWire struct {
	Scope     string `json:"scope"`
	Status    string `json:"status"`
	Temporary *bool  `json:"temporary"`

	OwnerID     *FlexUint `json:"owner_id"`
	OwnerIDAlt  *FlexUint `json:"ownerId"`
	Owner       *FlexUint `json:"owner"`
	NewOwnerID  *FlexUint `json:"new_owner_id"`
	NewOwnerAlt *FlexUint `json:"newOwnerId"`

	EventID      *FlexUint `json:"event_id"`
	EventIDAlt   *FlexUint `json:"eventId"`
	OperationID  *FlexUint `json:"operation_id"`
	OperationAlt *FlexUint `json:"operationId"`

	PlannedActivationAt *time.Time `json:"planned_activation_at"`
	ActivationAlt       *time.Time `json:"plannedActivationAt"`
	ActivateAt          *time.Time `json:"activate_at"`
	ActivationAt        *time.Time `json:"activation_at"`

	CleanupGraceMinutes *int `json:"cleanup_grace_minutes"`
	CleanupGraceAlt     *int `json:"cleanupGraceMinutes"`
	Grace               *int `json:"grace"`

	Reason string `json:"reason"`
}

// PolicyDetails is the normalized form of a log entry's details payload.
type PolicyDetails struct {
	Scope     string
	Status    string
	Temporary *bool

	OwnerID    *uint
	NewOwnerID *uint

	OperationID *uint

	PlannedActivationAt *time.Time
	CleanupGraceMinutes *int

	Reason string
}

// ParsePolicyDetails decodes a details blob, tolerating absent or
// malformed payloads (ok=false means "nothing usable").
func ParsePolicyDetails(raw []byte) (PolicyDetails, bool) {
	if len(raw) == 0 {
		return PolicyDetails{}, false
	}
	var w policyDetailsWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return PolicyDetails{}, false
	}
	return PolicyDetails{
		Scope:               strings.ToLower(strings.TrimSpace(w.Scope)),
		Status:              strings.ToLower(strings.TrimSpace(w.Status)),
		Temporary:           w.Temporary,
		OwnerID:             FirstUint(w.OwnerID.Ptr(), w.OwnerIDAlt.Ptr(), w.Owner.Ptr()),
		NewOwnerID:          FirstUint(w.NewOwnerID.Ptr(), w.NewOwnerAlt.Ptr()),
		OperationID:         FirstUint(w.EventID.Ptr(), w.EventIDAlt.Ptr(), w.OperationID.Ptr(), w.OperationAlt.Ptr()),
		PlannedActivationAt: firstTime(w.PlannedActivationAt, w.ActivationAlt, w.ActivateAt, w.ActivationAt),
		CleanupGraceMinutes: firstInt(w.CleanupGraceMinutes, w.CleanupGraceAlt, w.Grace),
		Reason:              strings.TrimSpace(w.Reason),
	}, true
}

// PreferredLane is a lane suggestion authored on an operation record.
type PreferredLane struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Discipline string `json:"discipline"`
	Priority   string `json:"priority"`
}

// ParsePreferredLanes decodes the preferred_lanes blob of an operation.
// Malformed payloads degrade to none.
func ParsePreferredLanes(raw []byte) []PreferredLane {
	if len(raw) == 0 {
		return nil
	}
	var lanes []PreferredLane
	if err := json.Unmarshal(raw, &lanes); err != nil {
		return nil
	}
	return lanes
}
