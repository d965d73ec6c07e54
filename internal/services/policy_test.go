package services

import (
	"testing"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logEntry(id uint, at time.Time, logType, details string) domain.NetLog {
	return domain.NetLog{
		ID:        id,
		NetID:     1,
		Type:      logType,
		Details:   []byte(details),
		CreatedAt: at,
	}
}

func TestApplyLogEntryPolicySet(t *testing.T) {
	state := NetPolicy{Scope: domain.ScopeTempAdhoc, Status: domain.NetStatusActive, CleanupGraceMinutes: 5}

	next := ApplyLogEntry(state, logEntry(1, time.Now(), domain.LogPolicySet,
		`{"cleanup_grace_minutes": 90, "owner_id": "12", "status": "standby"}`))

	assert.Equal(t, 60, next.CleanupGraceMinutes, "grace clamps to the allowed range")
	require.NotNil(t, next.OwnerID)
	assert.Equal(t, uint(12), *next.OwnerID, "string-typed owner id is accepted")
	assert.Equal(t, domain.NetStatusStandby, next.Status)
	assert.Equal(t, domain.ScopeTempAdhoc, next.Scope, "absent fields stay untouched")
}

func TestApplyLogEntryOwnerTransferred(t *testing.T) {
	state := NetPolicy{OwnerID: uintPtr(7)}

	next := ApplyLogEntry(state, logEntry(1, time.Now(), domain.LogOwnerTransferred, `{"newOwnerId": 9}`))
	require.NotNil(t, next.OwnerID)
	assert.Equal(t, uint(9), *next.OwnerID)

	// a writer that used the plain owner_id spelling still transfers
	next = ApplyLogEntry(state, logEntry(2, time.Now(), domain.LogOwnerTransferred, `{"owner_id": 11}`))
	require.NotNil(t, next.OwnerID)
	assert.Equal(t, uint(11), *next.OwnerID)

	// malformed details leave ownership alone
	next = ApplyLogEntry(state, logEntry(3, time.Now(), domain.LogOwnerTransferred, `not json`))
	require.NotNil(t, next.OwnerID)
	assert.Equal(t, uint(7), *next.OwnerID)
}

func TestApplyLogEntryLifecycle(t *testing.T) {
	state := NetPolicy{Scope: domain.ScopePermanent, Status: domain.NetStatusActive}

	planned := ApplyLogEntry(state, logEntry(1, time.Now(), domain.LogOperationPlanned,
		`{"operation_id": 4, "planned_activation_at": "2026-09-01T17:45:00Z"}`))
	assert.Equal(t, domain.ScopeTempOperation, planned.Scope)
	assert.True(t, planned.Temporary)
	assert.Equal(t, domain.NetStatusPlanned, planned.Status)
	require.NotNil(t, planned.OperationID)
	assert.Equal(t, uint(4), *planned.OperationID)
	require.NotNil(t, planned.PlannedActivationAt)

	activated := ApplyLogEntry(planned, logEntry(2, time.Now(), domain.LogOperationActivated, `{"status":"active"}`))
	assert.Equal(t, domain.NetStatusActive, activated.Status)

	closed := ApplyLogEntry(activated, logEntry(3, time.Now(), domain.LogLifecycleClosed, `{"reason":"manual-close"}`))
	assert.Equal(t, domain.NetStatusClosed, closed.Status)
}

// Replaying the same log against the same seed always lands on the same
// policy, regardless of how the entries were ordered when handed in.
func TestNormalizeNetIsDeterministic(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	net := domain.Net{
		ID:                  1,
		Scope:               domain.ScopeTempOperation,
		Status:              domain.NetStatusPlanned,
		Temporary:           true,
		CleanupGraceMinutes: 5,
	}
	entries := []domain.NetLog{
		logEntry(3, base.Add(2*time.Second), domain.LogOwnerTransferred, `{"new_owner_id": 9}`),
		logEntry(1, base, domain.LogOperationPlanned, `{"operation_id": 4}`),
		logEntry(2, base.Add(time.Second), domain.LogOperationActivated, ``),
	}

	first := NormalizeNet(net, entries)

	reversed := []domain.NetLog{entries[2], entries[0], entries[1]}
	second := NormalizeNet(net, reversed)

	assert.Equal(t, first, second)
	assert.Equal(t, domain.NetStatusActive, first.Status)
	require.NotNil(t, first.OwnerID)
	assert.Equal(t, uint(9), *first.OwnerID)
}

// Same timestamp: entry id breaks the tie, so the later append wins.
func TestNormalizeNetTieBreaksOnEntryID(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	net := domain.Net{ID: 1, Scope: domain.ScopeTempAdhoc, Status: domain.NetStatusActive}
	entries := []domain.NetLog{
		logEntry(2, at, domain.LogOwnerTransferred, `{"new_owner_id": 9}`),
		logEntry(1, at, domain.LogOwnerTransferred, `{"new_owner_id": 7}`),
	}

	normalized := NormalizeNet(net, entries)
	require.NotNil(t, normalized.OwnerID)
	assert.Equal(t, uint(9), *normalized.OwnerID)
}

// The replayed log overrules a drifted row projection.
func TestNormalizeNetOverridesStaleRow(t *testing.T) {
	net := domain.Net{
		ID:      1,
		Scope:   domain.ScopeTempAdhoc,
		Status:  domain.NetStatusActive,
		OwnerID: uintPtr(7),
	}
	entries := []domain.NetLog{
		logEntry(1, time.Now(), domain.LogLifecycleClosed, `{"reason":"temporary-empty"}`),
	}

	normalized := NormalizeNet(net, entries)
	assert.Equal(t, domain.NetStatusClosed, normalized.Status)
}

func TestReducePolicyEmptyLog(t *testing.T) {
	seed := NetPolicy{Scope: domain.ScopePermanent, Status: domain.NetStatusActive}
	assert.Equal(t, seed, ReducePolicy(seed, nil))
}
