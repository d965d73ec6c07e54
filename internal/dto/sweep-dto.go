package dto

type NetRef struct {
	NetID uint   `json:"net_id"`
	Code  string `json:"code"`
}

type OwnerTransfer struct {
	NetID       uint  `json:"net_id"`
	FromOwnerID *uint `json:"from_owner_id,omitempty"`
	ToOwnerID   uint  `json:"to_owner_id"`
}

type SkippedNet struct {
	NetID  uint   `json:"net_id"`
	Reason string `json:"reason"`
}

// SweepSummary reports what one reconciliation pass did. A second pass over
// an unchanged snapshot must produce the same summary with no mutations.
type SweepSummary struct {
	CheckedEvents   int             `json:"checked_events"`
	ProvisionedNets []NetRef        `json:"provisioned_nets"`
	ActivatedNets   []NetRef        `json:"activated_nets"`
	ClosedNets      []NetRef        `json:"closed_nets"`
	OwnerTransfers  []OwnerTransfer `json:"owner_transfers"`
	Skipped         []SkippedNet    `json:"skipped"`
}

type SweepRequest struct {
	Now string `json:"now"` // RFC3339 override for the sweep clock
}
