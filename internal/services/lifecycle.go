package services

import "github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"

// Lifecycle rules per scope. Transitions are monotonic toward closed,
// except planned -> active; permanent nets may churn between the
// non-terminal command statuses.

// InitialStatus returns the status a freshly provisioned net starts in.
// Temp operation nets start planned until their activation time arrives.
func InitialStatus(scope string, activationPassed bool) string {
	if scope == domain.ScopeTempOperation && !activationPassed {
		return domain.NetStatusPlanned
	}
	return domain.NetStatusActive
}

// CanTransition validates a status change. byCommand marks manual operator
// actions, which have more latitude than the sweep.
func CanTransition(scope, from, to string, byCommand bool) bool {
	if from == to {
		return false
	}
	if from == domain.NetStatusClosed {
		return false
	}
	if !validStatus(to) {
		return false
	}

	switch scope {
	case domain.ScopePermanent:
		// sweep never touches permanent nets
		if !byCommand {
			return false
		}
		switch to {
		case domain.NetStatusActive, domain.NetStatusInactive, domain.NetStatusStandby, domain.NetStatusClosed:
			return to != domain.NetStatusPlanned
		}
		return false

	case domain.ScopeTempAdhoc:
		if byCommand {
			return to == domain.NetStatusActive || to == domain.NetStatusClosed
		}
		return to == domain.NetStatusClosed

	case domain.ScopeTempOperation:
		switch {
		case from == domain.NetStatusPlanned && to == domain.NetStatusActive:
			return true
		case to == domain.NetStatusClosed:
			return true
		}
		return false
	}
	return false
}

// LogTypeForTransition picks the canonical log type that records a status
// change.
func LogTypeForTransition(from, to string) string {
	switch {
	case to == domain.NetStatusClosed:
		return domain.LogLifecycleClosed
	case from == domain.NetStatusPlanned && to == domain.NetStatusActive:
		return domain.LogOperationActivated
	default:
		return domain.LogPolicySet
	}
}

func validStatus(status string) bool {
	switch status {
	case domain.NetStatusPlanned, domain.NetStatusActive, domain.NetStatusInactive,
		domain.NetStatusStandby, domain.NetStatusClosed:
		return true
	}
	return false
}
