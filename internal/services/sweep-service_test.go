package services

import (
	"testing"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.Date(2026, 8, 30, 17, 50, 0, 0, time.UTC)

func skipReasons(summary *dto.SweepSummary) []string {
	reasons := make([]string, 0, len(summary.Skipped))
	for _, s := range summary.Skipped {
		reasons = append(reasons, s.Reason)
	}
	return reasons
}

func TestSweepProvisionsLanesForImminentOperation(t *testing.T) {
	f := newFixture()
	f.addMember(3, "Lead", domain.RankScout, "")

	// starts in 10 minutes: the 15 minute lead time has already passed
	f.addOperation(domain.Operation{
		ID: 5, Title: "Dawn Hammer", CreatorID: 3,
		Status: domain.OperationPlanned, StartAt: sweepNow.Add(10 * time.Minute),
	})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.CheckedEvents)
	require.Len(t, summary.ProvisionedNets, 4)
	assert.Empty(t, summary.ClosedNets)

	nets, err := f.nets.ListNetsByOperation(5)
	require.NoError(t, err)
	require.Len(t, nets, 4)

	codes := map[string]bool{}
	for _, net := range nets {
		codes[net.Code] = true
		assert.Equal(t, domain.NetStatusActive, net.Status, "lead time passed, lanes open active")
		assert.Equal(t, domain.ScopeTempOperation, net.Scope)
		require.NotNil(t, net.OwnerID)
		assert.Equal(t, uint(3), *net.OwnerID)
		require.NotNil(t, net.PlannedActivationAt)
		assert.Equal(t, sweepNow.Add(-5*time.Minute), *net.PlannedActivationAt)

		require.Len(t, f.logs.byType(net.ID, domain.LogOperationPlanned), 1)
		require.Len(t, f.logs.byType(net.ID, domain.LogOperationActivated), 1)
	}
	for _, code := range []string{"DH-CMD", "DH-OPS", "DH-FLT", "DH-SUP"} {
		assert.True(t, codes[code], "missing lane %s", code)
	}
}

func TestSweepPlansThenActivates(t *testing.T) {
	f := newFixture()
	f.addOperation(domain.Operation{
		ID: 5, Title: "Dawn Hammer", CreatorID: 3,
		Status: domain.OperationPlanned, StartAt: sweepNow.Add(2 * time.Hour),
	})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)
	require.Len(t, summary.ProvisionedNets, 4)
	assert.Empty(t, summary.ActivatedNets)

	nets, _ := f.nets.ListNetsByOperation(5)
	for _, net := range nets {
		assert.Equal(t, domain.NetStatusPlanned, net.Status)
		assert.Empty(t, f.logs.byType(net.ID, domain.LogOperationActivated))
	}

	// lead time reached: the same lanes flip to active
	later := sweepNow.Add(2*time.Hour - 10*time.Minute)
	summary, err = f.sweep.Run(later)
	require.NoError(t, err)
	assert.Empty(t, summary.ProvisionedNets)
	require.Len(t, summary.ActivatedNets, 4)

	nets, _ = f.nets.ListNetsByOperation(5)
	for _, net := range nets {
		assert.Equal(t, domain.NetStatusActive, net.Status)
		require.Len(t, f.logs.byType(net.ID, domain.LogOperationActivated), 1)
	}

	// unchanged snapshot and clock: nothing moves again
	writes := f.nets.updateCalls
	summary, err = f.sweep.Run(later)
	require.NoError(t, err)
	assert.Empty(t, summary.ProvisionedNets)
	assert.Empty(t, summary.ActivatedNets)
	assert.Empty(t, summary.ClosedNets)
	assert.Equal(t, writes, f.nets.updateCalls, "rerun performed row writes")
}

func TestSweepLeavesRunningOperationAlone(t *testing.T) {
	f := newFixture()
	f.addOperation(domain.Operation{
		ID: 5, Title: "Dawn Hammer", CreatorID: 3,
		Status: domain.OperationActive, StartAt: sweepNow.Add(-time.Hour),
	})
	net := f.addNet(domain.Net{
		Code: "DH-CMD", Scope: domain.ScopeTempOperation, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(3), OperationID: uintPtr(5), CleanupGraceMinutes: 5,
	})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	assert.Contains(t, skipReasons(summary), "operation in progress")
	assert.Empty(t, summary.ClosedNets)
	assert.Nil(t, f.nets.nets[net.ID].LastEmptyAt, "no marker while the operation runs")
}

func TestSweepClosesOperationNetAfterGrace(t *testing.T) {
	f := newFixture()
	endAt := sweepNow.Add(-time.Minute)
	f.addOperation(domain.Operation{
		ID: 5, Title: "Dawn Hammer", CreatorID: 3,
		Status: domain.OperationCompleted, StartAt: sweepNow.Add(-2 * time.Hour), EndAt: &endAt,
	})
	net := f.addNet(domain.Net{
		Code: "DH-CMD", Scope: domain.ScopeTempOperation, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(3), OperationID: uintPtr(5), CleanupGraceMinutes: 5,
	})

	// inside the post-end grace window: untouched
	summary, err := f.sweep.Run(sweepNow.Add(2 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"grace pending"}, skipReasons(summary))
	assert.Nil(t, f.nets.nets[net.ID].LastEmptyAt)

	// grace elapsed: first empty observation only stamps the marker
	stampAt := sweepNow.Add(6 * time.Minute)
	summary, err = f.sweep.Run(stampAt)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty marker stamped"}, skipReasons(summary))
	require.NotNil(t, f.nets.nets[net.ID].LastEmptyAt)
	assert.Empty(t, summary.ClosedNets)

	// marker fresh: still pending
	summary, err = f.sweep.Run(stampAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"grace pending"}, skipReasons(summary))

	// marker aged past the grace: close
	summary, err = f.sweep.Run(stampAt.Add(6 * time.Minute))
	require.NoError(t, err)
	require.Len(t, summary.ClosedNets, 1)
	assert.Equal(t, net.ID, summary.ClosedNets[0].NetID)

	row := f.nets.nets[net.ID]
	assert.Equal(t, domain.NetStatusClosed, row.Status)
	require.NotNil(t, row.CloseReason)
	assert.Equal(t, "operation-complete-empty", *row.CloseReason)
	require.Len(t, f.logs.byType(net.ID, domain.LogLifecycleClosed), 1)

	// closed nets drop out of later passes entirely
	writes := f.nets.updateCalls
	summary, err = f.sweep.Run(stampAt.Add(10 * time.Minute))
	require.NoError(t, err)
	assert.Empty(t, summary.ClosedNets)
	assert.Empty(t, summary.Skipped)
	assert.Equal(t, writes, f.nets.updateCalls)
}

func TestSweepClosesEmptyAdhocNet(t *testing.T) {
	f := newFixture()
	net := f.addNet(domain.Net{
		Code: "VEX-1A2B", Scope: domain.ScopeTempAdhoc, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(7), CleanupGraceMinutes: 5,
	})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty marker stamped"}, skipReasons(summary))

	summary, err = f.sweep.Run(sweepNow.Add(6 * time.Minute))
	require.NoError(t, err)
	require.Len(t, summary.ClosedNets, 1)

	row := f.nets.nets[net.ID]
	assert.Equal(t, domain.NetStatusClosed, row.Status)
	require.NotNil(t, row.CloseReason)
	assert.Equal(t, "temporary-empty", *row.CloseReason)
}

func TestSweepZeroGraceClosesOnSecondPass(t *testing.T) {
	f := newFixture()
	net := f.addNet(domain.Net{
		Code: "VEX-1A2B", Scope: domain.ScopeTempAdhoc, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(7), CleanupGraceMinutes: 0,
	})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty marker stamped"}, skipReasons(summary))

	summary, err = f.sweep.Run(sweepNow)
	require.NoError(t, err)
	require.Len(t, summary.ClosedNets, 1)
	assert.Equal(t, domain.NetStatusClosed, f.nets.nets[net.ID].Status)
}

func TestSweepOccupiedNetClearsMarker(t *testing.T) {
	f := newFixture()
	stale := sweepNow.Add(-10 * time.Minute)
	net := f.addNet(domain.Net{
		Code: "VEX-1A2B", Scope: domain.ScopeTempAdhoc, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(7), CleanupGraceMinutes: 5, LastEmptyAt: &stale,
	})
	f.join(net.ID, 7, sweepNow.Add(-time.Minute))

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	assert.Nil(t, f.nets.nets[net.ID].LastEmptyAt, "occupancy clears the empty marker")
	assert.Empty(t, summary.ClosedNets)
	assert.Empty(t, summary.OwnerTransfers, "owner is present, nothing to elect")
}

func TestSweepElectsOwnerByAuthority(t *testing.T) {
	f := newFixture()
	f.addMember(8, "Moss", domain.RankScout, "")
	f.addMember(9, "Gale", domain.RankVoyager, "")

	net := f.addNet(domain.Net{
		Code: "VEX-1A2B", Scope: domain.ScopeTempAdhoc, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(7), CleanupGraceMinutes: 5,
	})
	f.join(net.ID, 8, sweepNow.Add(-10*time.Minute))
	f.join(net.ID, 9, sweepNow.Add(-5*time.Minute))

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	require.Len(t, summary.OwnerTransfers, 1)
	transfer := summary.OwnerTransfers[0]
	assert.Equal(t, net.ID, transfer.NetID)
	require.NotNil(t, transfer.FromOwnerID)
	assert.Equal(t, uint(7), *transfer.FromOwnerID)
	assert.Equal(t, uint(9), transfer.ToOwnerID, "higher rank wins")

	row := f.nets.nets[net.ID]
	require.NotNil(t, row.OwnerID)
	assert.Equal(t, uint(9), *row.OwnerID)
	require.Len(t, f.logs.byType(net.ID, domain.LogOwnerTransferred), 1)

	// stable ownership: the next pass changes nothing
	summary, err = f.sweep.Run(sweepNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, summary.OwnerTransfers)
}

func TestSweepOwnerElectionTieBreaksOnEarliestJoin(t *testing.T) {
	f := newFixture()
	f.addMember(8, "Moss", domain.RankNomad, "")
	f.addMember(9, "Gale", domain.RankNomad, "")

	net := f.addNet(domain.Net{
		Code: "VEX-1A2B", Scope: domain.ScopeTempAdhoc, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(7), CleanupGraceMinutes: 5,
	})
	f.join(net.ID, 9, sweepNow.Add(-3*time.Minute))
	f.join(net.ID, 8, sweepNow.Add(-8*time.Minute))

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	require.Len(t, summary.OwnerTransfers, 1)
	assert.Equal(t, uint(8), summary.OwnerTransfers[0].ToOwnerID, "equal authority, earliest join wins")
}

func TestSweepOwnerElectionPrefersEventCreator(t *testing.T) {
	f := newFixture()
	f.addMember(3, "Lead", domain.RankNomad, "")
	f.addMember(9, "Gale", domain.RankVoyager, "")
	f.addOperation(domain.Operation{
		ID: 5, Title: "Dawn Hammer", CreatorID: 3,
		Status: domain.OperationActive, StartAt: sweepNow.Add(-time.Hour),
	})

	net := f.addNet(domain.Net{
		Code: "DH-CMD", Scope: domain.ScopeTempOperation, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(7), OperationID: uintPtr(5), CleanupGraceMinutes: 5,
	})
	f.join(net.ID, 9, sweepNow.Add(-10*time.Minute))
	f.join(net.ID, 3, sweepNow.Add(-time.Minute))

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	require.Len(t, summary.OwnerTransfers, 1)
	assert.Equal(t, uint(3), summary.OwnerTransfers[0].ToOwnerID,
		"the event creator outranks authority score on operation nets")
}

func TestSweepSkipsNetWhenPresenceUnavailable(t *testing.T) {
	f := newFixture()
	net := f.addNet(domain.Net{
		Code: "VEX-1A2B", Scope: domain.ScopeTempAdhoc, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(7), CleanupGraceMinutes: 5,
	})
	f.presence.errNets[net.ID] = true

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"presence unavailable"}, skipReasons(summary))
	assert.Empty(t, summary.ClosedNets)
	assert.Nil(t, f.nets.nets[net.ID].LastEmptyAt, "a failed presence read must not read as emptiness")
	assert.Equal(t, 0, f.nets.updateCalls)
}

func TestSweepTreatsMissingOperationAsEnded(t *testing.T) {
	f := newFixture()
	net := f.addNet(domain.Net{
		Code: "GHOST-CMD", Scope: domain.ScopeTempOperation, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(3), OperationID: uintPtr(77), CleanupGraceMinutes: 5,
	})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty marker stamped"}, skipReasons(summary))

	summary, err = f.sweep.Run(sweepNow.Add(6 * time.Minute))
	require.NoError(t, err)
	require.Len(t, summary.ClosedNets, 1)

	row := f.nets.nets[net.ID]
	require.NotNil(t, row.CloseReason)
	assert.Equal(t, "operation-complete-empty", *row.CloseReason)
}

func TestSweepNeverTouchesPermanentNets(t *testing.T) {
	f := newFixture()
	f.addNet(domain.Net{Code: "HQ", Scope: domain.ScopePermanent, Status: domain.NetStatusActive})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	assert.Empty(t, summary.ClosedNets)
	assert.Empty(t, summary.Skipped)
	assert.Equal(t, 0, f.nets.updateCalls)
}

func TestSweepActivatesOperatorCreatedLane(t *testing.T) {
	f := newFixture()
	f.addOperation(domain.Operation{
		ID: 5, Title: "Dawn Hammer", CreatorID: 3,
		Status: domain.OperationPlanned, StartAt: sweepNow.Add(10 * time.Minute),
	})
	// a lane outside the recommended set, opened by hand with its own clock
	activation := sweepNow.Add(-5 * time.Minute)
	net := f.addNet(domain.Net{
		Code: "DH-MED", Scope: domain.ScopeTempOperation, Status: domain.NetStatusPlanned,
		Temporary: true, OwnerID: uintPtr(3), OperationID: uintPtr(5),
		PlannedActivationAt: &activation, CleanupGraceMinutes: 5,
	})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	activated := map[string]bool{}
	for _, ref := range summary.ActivatedNets {
		activated[ref.Code] = true
	}
	assert.True(t, activated["DH-MED"], "custom-code lane past its activation time must open")
	assert.Equal(t, domain.NetStatusActive, f.nets.nets[net.ID].Status)
	require.Len(t, f.logs.byType(net.ID, domain.LogOperationActivated), 1)

	// and the recommended set still got provisioned around it
	require.Len(t, summary.ProvisionedNets, 4)
}

func TestSweepSkipsExistingLaneCodes(t *testing.T) {
	f := newFixture()
	f.addOperation(domain.Operation{
		ID: 5, Title: "Dawn Hammer", CreatorID: 3,
		Status: domain.OperationPlanned, StartAt: sweepNow.Add(10 * time.Minute),
	})
	// an operator already opened the command lane by hand
	f.addNet(domain.Net{
		Code: "DH-CMD", Scope: domain.ScopeTempOperation, Status: domain.NetStatusActive,
		Temporary: true, OwnerID: uintPtr(3), OperationID: uintPtr(5), CleanupGraceMinutes: 5,
	})

	summary, err := f.sweep.Run(sweepNow)
	require.NoError(t, err)

	require.Len(t, summary.ProvisionedNets, 3, "only the missing lanes get created")
	for _, ref := range summary.ProvisionedNets {
		assert.NotEqual(t, "DH-CMD", ref.Code)
	}
}
