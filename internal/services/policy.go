package services

import (
	"sort"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
)

// NetPolicy is the governance-relevant slice of a net. The stored row is a
// best-effort projection; the replayed log is authoritative, so the "true"
// policy is the row seeded into PolicyFromNet and folded through its log.
type NetPolicy struct {
	Scope               string
	Status              string
	Temporary           bool
	OwnerID             *uint
	OperationID         *uint
	PlannedActivationAt *time.Time
	CleanupGraceMinutes int
}

// PolicyFromNet seeds the accumulator from the stored row.
func PolicyFromNet(net domain.Net) NetPolicy {
	return NetPolicy{
		Scope:               net.Scope,
		Status:              net.Status,
		Temporary:           net.Temporary,
		OwnerID:             net.OwnerID,
		OperationID:         net.OperationID,
		PlannedActivationAt: net.PlannedActivationAt,
		CleanupGraceMinutes: net.CleanupGraceMinutes,
	}
}

// ApplyLogEntry folds one log entry into the accumulator. Pure:
// (state, entry) -> state, no store access.
func ApplyLogEntry(state NetPolicy, entry domain.NetLog) NetPolicy {
	details, ok := dto.ParsePolicyDetails(entry.Details)

	switch entry.Type {
	case domain.LogPolicySet:
		if !ok {
			return state
		}
		if details.Scope != "" {
			state.Scope = details.Scope
		}
		if details.OwnerID != nil {
			state.OwnerID = details.OwnerID
		}
		if details.Temporary != nil {
			state.Temporary = *details.Temporary
		}
		if details.PlannedActivationAt != nil {
			state.PlannedActivationAt = details.PlannedActivationAt
		}
		if details.CleanupGraceMinutes != nil {
			state.CleanupGraceMinutes = clampGrace(*details.CleanupGraceMinutes)
		}
		if details.Status != "" {
			state.Status = details.Status
		}
		if details.OperationID != nil {
			state.OperationID = details.OperationID
		}

	case domain.LogOwnerTransferred:
		if ok && details.NewOwnerID != nil {
			state.OwnerID = details.NewOwnerID
		} else if ok && details.OwnerID != nil {
			state.OwnerID = details.OwnerID
		}

	case domain.LogOperationPlanned:
		state.Scope = domain.ScopeTempOperation
		state.Temporary = true
		state.Status = domain.NetStatusPlanned
		if ok {
			if details.Status != "" {
				state.Status = details.Status
			}
			if details.PlannedActivationAt != nil {
				state.PlannedActivationAt = details.PlannedActivationAt
			}
			if details.OperationID != nil {
				state.OperationID = details.OperationID
			}
		}

	case domain.LogOperationActivated:
		state.Status = domain.NetStatusActive

	case domain.LogLifecycleClosed:
		state.Status = domain.NetStatusClosed
	}

	return state
}

// ReducePolicy left-folds the entries, oldest first, into the seed.
// Deterministic for a given ordered log.
func ReducePolicy(seed NetPolicy, entries []domain.NetLog) NetPolicy {
	state := seed
	for _, entry := range entries {
		state = ApplyLogEntry(state, entry)
	}
	return state
}

// NormalizeNet overlays the replayed policy onto the stored row. This is
// the view everything else (sweep, command surface) works with.
func NormalizeNet(net domain.Net, entries []domain.NetLog) domain.Net {
	sorted := make([]domain.NetLog, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	policy := ReducePolicy(PolicyFromNet(net), sorted)

	net.Scope = policy.Scope
	net.Status = policy.Status
	net.Temporary = policy.Temporary
	net.OwnerID = policy.OwnerID
	net.OperationID = policy.OperationID
	net.PlannedActivationAt = policy.PlannedActivationAt
	net.CleanupGraceMinutes = policy.CleanupGraceMinutes
	return net
}

func clampGrace(minutes int) int {
	if minutes < 0 {
		return 0
	}
	if minutes > 60 {
		return 60
	}
	return minutes
}
