package dto

import (
	"strings"
	"time"
)

// CreateNetRequest is the raw wire shape. Operator tooling predates this
// service and sends several spellings for the same field, so the request
// carries every alias and Normalize collapses them into CreateNetInput
// before anything else sees the payload.
type CreateNetRequest struct {
	Scope     string `json:"scope"`
	Temporary *bool  `json:"temporary"`

	EventID      *FlexUint `json:"event_id"`
	EventIDAlt   *FlexUint `json:"eventId"`
	OperationID  *FlexUint `json:"operation_id"`
	OperationAlt *FlexUint `json:"operationId"`

	Code  string `json:"code"`
	Label string `json:"label"`
	Name  string `json:"name"` // legacy alias for label

	Type       string `json:"type"`
	Discipline string `json:"discipline"`
	Priority   string `json:"priority"`

	OwnerID    *FlexUint `json:"owner_id"`
	OwnerIDAlt *FlexUint `json:"ownerId"`
	Owner      *FlexUint `json:"owner"`

	CleanupGraceMinutes *int `json:"cleanup_grace_minutes"`
	CleanupGraceAlt     *int `json:"cleanupGraceMinutes"`
	Grace               *int `json:"grace"`

	PlannedActivationAt *time.Time `json:"planned_activation_at"`
	ActivationAlt       *time.Time `json:"plannedActivationAt"`
	ActivateAt          *time.Time `json:"activate_at"`
}

// CreateNetInput is the single typed shape business logic accepts.
type CreateNetInput struct {
	Scope               string `validate:"omitempty,oneof=permanent temp_adhoc temp_operation"`
	Temporary           *bool
	OperationID         *uint
	Code                string `validate:"omitempty,max=32"`
	Label               string `validate:"omitempty,max=120"`
	Type                string `validate:"omitempty,max=40"`
	Discipline          string `validate:"omitempty,max=40"`
	Priority            string `validate:"omitempty,max=20"`
	OwnerID             *uint
	CleanupGraceMinutes *int `validate:"omitempty,min=0,max=60"`
	PlannedActivationAt *time.Time
}

func (r CreateNetRequest) Normalize() CreateNetInput {
	return CreateNetInput{
		Scope:       strings.ToLower(strings.TrimSpace(r.Scope)),
		Temporary:   r.Temporary,
		OperationID: FirstUint(r.EventID.Ptr(), r.EventIDAlt.Ptr(), r.OperationID.Ptr(), r.OperationAlt.Ptr()),
		Code:        FirstString(r.Code),
		Label:       FirstString(r.Label, r.Name),
		Type:        strings.ToLower(strings.TrimSpace(r.Type)),
		Discipline:  strings.ToLower(strings.TrimSpace(r.Discipline)),
		Priority:    strings.ToLower(strings.TrimSpace(r.Priority)),
		OwnerID:     FirstUint(r.OwnerID.Ptr(), r.OwnerIDAlt.Ptr(), r.Owner.Ptr()),
		CleanupGraceMinutes: firstInt(r.CleanupGraceMinutes, r.CleanupGraceAlt, r.Grace),
		PlannedActivationAt: firstTime(r.PlannedActivationAt, r.ActivationAlt, r.ActivateAt),
	}
}

type UpdateNetRequest struct {
	Label string `json:"label"`
	Name  string `json:"name"`

	Type       string `json:"type"`
	Discipline string `json:"discipline"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`

	CleanupGraceMinutes *int `json:"cleanup_grace_minutes"`
	CleanupGraceAlt     *int `json:"cleanupGraceMinutes"`
	Grace               *int `json:"grace"`

	PlannedActivationAt *time.Time `json:"planned_activation_at"`
	ActivationAlt       *time.Time `json:"plannedActivationAt"`
	ActivateAt          *time.Time `json:"activate_at"`
}

type UpdateNetInput struct {
	Label               string `validate:"omitempty,max=120"`
	Type                string `validate:"omitempty,max=40"`
	Discipline          string `validate:"omitempty,max=40"`
	Priority            string `validate:"omitempty,max=20"`
	Status              string `validate:"omitempty,oneof=planned active inactive standby closed"`
	CleanupGraceMinutes *int   `validate:"omitempty,min=0,max=60"`
	PlannedActivationAt *time.Time
}

func (r UpdateNetRequest) Normalize() UpdateNetInput {
	return UpdateNetInput{
		Label:               FirstString(r.Label, r.Name),
		Type:                strings.ToLower(strings.TrimSpace(r.Type)),
		Discipline:          strings.ToLower(strings.TrimSpace(r.Discipline)),
		Priority:            strings.ToLower(strings.TrimSpace(r.Priority)),
		Status:              strings.ToLower(strings.TrimSpace(r.Status)),
		CleanupGraceMinutes: firstInt(r.CleanupGraceMinutes, r.CleanupGraceAlt, r.Grace),
		PlannedActivationAt: firstTime(r.PlannedActivationAt, r.ActivationAlt, r.ActivateAt),
	}
}

type CloseNetRequest struct {
	Reason string `json:"reason"`
}

type TransferOwnerRequest struct {
	OwnerID    *FlexUint `json:"owner_id"`
	OwnerIDAlt *FlexUint `json:"ownerId"`
	NewOwnerID *FlexUint `json:"new_owner_id"`
	NewOwnAlt  *FlexUint `json:"newOwnerId"`
}

func (r TransferOwnerRequest) Normalize() *uint {
	return FirstUint(r.OwnerID.Ptr(), r.OwnerIDAlt.Ptr(), r.NewOwnerID.Ptr(), r.NewOwnAlt.Ptr())
}

// PolicySummary tells the caller what they can do, so tooling does not
// have to re-derive permissions client side.
type PolicySummary struct {
	CanManage         bool `json:"can_manage"`
	HasGlobalOverride bool `json:"has_global_override"`
	IsCommandStaff    bool `json:"is_command_staff"`
}

type NetView struct {
	ID         uint   `json:"id"`
	Code       string `json:"code"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Discipline string `json:"discipline"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
	Scope      string `json:"scope"`
	Temporary  bool   `json:"temporary"`

	OwnerID     *uint `json:"owner_id,omitempty"`
	OperationID *uint `json:"operation_id,omitempty"`

	PlannedActivationAt *time.Time `json:"planned_activation_at,omitempty"`
	CleanupGraceMinutes int        `json:"cleanup_grace_minutes"`
	LastEmptyAt         *time.Time `json:"last_empty_at,omitempty"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
	CloseReason         *string    `json:"close_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type NetResponse struct {
	Net    NetView       `json:"net"`
	Policy PolicySummary `json:"policy"`
}

type NetListResponse struct {
	Nets        []NetView     `json:"nets"`
	PlannedNets []NetView     `json:"planned_nets"`
	Policy      PolicySummary `json:"policy"`
}

func firstInt(candidates ...*int) *int {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstTime(candidates ...*time.Time) *time.Time {
	for _, c := range candidates {
		if c != nil && !c.IsZero() {
			return c
		}
	}
	return nil
}
