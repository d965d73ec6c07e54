package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/helper"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/repository"
	"gorm.io/gorm"
)

const (
	// how far around now phase 1 looks for operations to provision
	sweepLookback  = 5 * time.Minute
	sweepLookahead = 24 * time.Hour
	// lanes open this long before the operation starts
	laneLeadTime = 15 * time.Minute

	closeReasonOperationComplete = "operation-complete-empty"
	closeReasonTemporaryEmpty    = "temporary-empty"
	transferReasonOwnerAbsent    = "owner absent with active participants"
)

type SweepService interface {
	Run(now time.Time) (*dto.SweepSummary, error)
}

type sweepService struct {
	nets     repository.NetRepository
	logs     repository.NetLogRepository
	ops      repository.OperationRepository
	duties   repository.DutyRepository
	presence repository.PresenceRepository
	members  repository.MemberRepository
}

func NewSweepService(
	nets repository.NetRepository,
	logs repository.NetLogRepository,
	ops repository.OperationRepository,
	duties repository.DutyRepository,
	presence repository.PresenceRepository,
	members repository.MemberRepository,
) SweepService {
	return &sweepService{
		nets:     nets,
		logs:     logs,
		ops:      ops,
		duties:   duties,
		presence: presence,
		members:  members,
	}
}

// sweepRun memoizes external lookups for one pass so per-net work stays
// bounded no matter how many nets share an operation or a member.
type sweepRun struct {
	svc     *sweepService
	now     time.Time
	summary *dto.SweepSummary

	opCache     map[uint]*domain.Operation
	dutyCache   map[uint][]domain.DutyAssignment
	memberCache map[uint]*domain.MemberProfile
}

// Run executes one reconciliation pass. Each operation and each net is
// handled independently; a failure lands in the summary's skipped list
// instead of aborting the batch. Re-running against an unchanged snapshot
// and clock performs no further mutations.
func (s *sweepService) Run(now time.Time) (*dto.SweepSummary, error) {
	run := &sweepRun{
		svc: s,
		now: now,
		summary: &dto.SweepSummary{
			ProvisionedNets: []dto.NetRef{},
			ActivatedNets:   []dto.NetRef{},
			ClosedNets:      []dto.NetRef{},
			OwnerTransfers:  []dto.OwnerTransfer{},
			Skipped:         []dto.SkippedNet{},
		},
		opCache:     map[uint]*domain.Operation{},
		dutyCache:   map[uint][]domain.DutyAssignment{},
		memberCache: map[uint]*domain.MemberProfile{},
	}

	run.provisionOperations()
	run.reconcileTempNets()

	return run.summary, nil
}

// --- phase 1: planning and activation ---

func (r *sweepRun) provisionOperations() {
	ops, err := r.svc.ops.ListOperationsInWindow(r.now.Add(-sweepLookback), r.now.Add(sweepLookahead))
	if err != nil {
		// no reachable ops service means nothing to provision this pass
		log.Printf("sweep: operations read degraded: %v", err)
		return
	}
	r.summary.CheckedEvents = len(ops)

	for _, op := range ops {
		r.opCache[op.ID] = &op
		r.provisionOperation(op)
	}
}

func (r *sweepRun) provisionOperation(op domain.Operation) {
	activation := op.StartAt.Add(-laneLeadTime)

	existing, err := r.svc.nets.ListNetsByOperation(op.ID)
	if err != nil {
		r.skip(0, fmt.Sprintf("operation %d: nets unavailable", op.ID))
		return
	}
	existing = r.normalizeAll(existing)

	// every existing lane is a candidate for activation, including
	// operator-created ones outside the recommended set
	byCode := make(map[string]domain.Net, len(existing))
	for _, net := range existing {
		byCode[net.Code] = net
		r.activateIfDue(net, activation)
	}

	for _, lane := range RecommendedLanes(op) {
		if _, ok := byCode[lane.Code]; ok {
			continue
		}
		r.provisionLane(op, lane, activation)
	}
}

func (r *sweepRun) provisionLane(op domain.Operation, lane Lane, activation time.Time) {
	activationPassed := !r.now.Before(activation)
	status := InitialStatus(domain.ScopeTempOperation, activationPassed)

	ownerID := op.CreatorID
	net := &domain.Net{
		Code:                lane.Code,
		Label:               lane.Label,
		Type:                lane.Type,
		Discipline:          lane.Discipline,
		Priority:            lane.Priority,
		Status:              status,
		Scope:               domain.ScopeTempOperation,
		Temporary:           true,
		OwnerID:             &ownerID,
		OperationID:         &op.ID,
		PlannedActivationAt: &activation,
		CleanupGraceMinutes: defaultCleanupGraceMinutes,
	}

	created, err := r.svc.nets.CreateNet(net)
	if err != nil {
		if helper.IsDuplicateNetCode(err) {
			// concurrent sweep or operator beat us to it
			return
		}
		r.skip(0, fmt.Sprintf("operation %d lane %s: %v", op.ID, lane.Code, err))
		return
	}

	r.appendLog(created.ID, domain.LogOperationPlanned,
		fmt.Sprintf("net %s planned for operation %s", created.Code, op.Title),
		created.OperationID, map[string]any{
			"scope":                 domain.ScopeTempOperation,
			"status":                status,
			"temporary":             true,
			"owner_id":              ownerID,
			"operation_id":          op.ID,
			"planned_activation_at": activation,
			"cleanup_grace_minutes": created.CleanupGraceMinutes,
		})
	if status == domain.NetStatusActive {
		r.appendLog(created.ID, domain.LogOperationActivated,
			fmt.Sprintf("net %s activated", created.Code),
			created.OperationID, map[string]any{"status": domain.NetStatusActive})
	}

	r.summary.ProvisionedNets = append(r.summary.ProvisionedNets, dto.NetRef{NetID: created.ID, Code: created.Code})
}

func (r *sweepRun) activateIfDue(net domain.Net, fallbackActivation time.Time) {
	if net.Status != domain.NetStatusPlanned {
		return
	}

	activation := fallbackActivation
	if net.PlannedActivationAt != nil {
		activation = *net.PlannedActivationAt
	}
	if r.now.Before(activation) {
		return
	}

	r.appendLog(net.ID, domain.LogOperationActivated,
		fmt.Sprintf("net %s activated", net.Code),
		net.OperationID, map[string]any{"status": domain.NetStatusActive})

	shapes := []map[string]any{
		{"status": domain.NetStatusActive, "updated_at": r.now},
		{"status": domain.NetStatusActive},
	}
	if err := r.svc.nets.UpdateNetNegotiated(net.ID, shapes); err != nil {
		log.Printf("sweep: net %d activation write not accepted: %v", net.ID, err)
	}

	r.summary.ActivatedNets = append(r.summary.ActivatedNets, dto.NetRef{NetID: net.ID, Code: net.Code})
}

// --- phase 2: occupancy and ownership ---

func (r *sweepRun) reconcileTempNets() {
	nets, err := r.svc.nets.ListOpenTempNets()
	if err != nil {
		log.Printf("sweep: temp nets read degraded: %v", err)
		r.skip(0, "temp nets unavailable")
		return
	}

	for _, net := range r.normalizeAll(nets) {
		if net.Status == domain.NetStatusClosed {
			continue
		}

		occupants, err := r.svc.presence.ListPresenceByNet(net.ID)
		if err != nil {
			// emptiness is the business signal here; a degraded presence
			// read must not look like an empty net
			r.skip(net.ID, "presence unavailable")
			continue
		}

		if len(occupants) > 0 {
			r.reconcileOccupied(net, occupants)
		} else {
			r.reconcileEmpty(net)
		}
	}
}

func (r *sweepRun) reconcileOccupied(net domain.Net, occupants []domain.Presence) {
	if net.LastEmptyAt != nil {
		shapes := []map[string]any{{"last_empty_at": nil}}
		if err := r.svc.nets.UpdateNetNegotiated(net.ID, shapes); err != nil {
			log.Printf("sweep: net %d empty marker clear not accepted: %v", net.ID, err)
		}
	}

	if net.OwnerID != nil {
		for _, p := range occupants {
			if p.MemberID == *net.OwnerID {
				return
			}
		}
	}

	chosen := r.electOwner(net, occupants)
	if chosen == 0 {
		return
	}
	if net.OwnerID != nil && *net.OwnerID == chosen {
		return
	}

	r.appendLog(net.ID, domain.LogOwnerTransferred,
		fmt.Sprintf("net %s: %s", net.Code, transferReasonOwnerAbsent),
		net.OperationID, map[string]any{
			"new_owner_id": chosen,
			"reason":       transferReasonOwnerAbsent,
		})

	shapes := []map[string]any{
		{"owner_id": chosen, "updated_at": r.now},
		{"owner_id": chosen},
	}
	if err := r.svc.nets.UpdateNetNegotiated(net.ID, shapes); err != nil {
		log.Printf("sweep: net %d owner write not accepted: %v", net.ID, err)
	}

	r.summary.OwnerTransfers = append(r.summary.OwnerTransfers, dto.OwnerTransfer{
		NetID:       net.ID,
		FromOwnerID: net.OwnerID,
		ToOwnerID:   chosen,
	})
}

// electOwner picks a replacement owner among current occupants. For
// operation nets the event creator wins outright when present; otherwise
// the highest authority score wins, ties broken by earliest join (the
// repository orders occupants by joined_at, then member id).
func (r *sweepRun) electOwner(net domain.Net, occupants []domain.Presence) uint {
	var duties []domain.DutyAssignment
	if net.Scope == domain.ScopeTempOperation && net.OperationID != nil {
		duties = r.dutiesFor(*net.OperationID)
		if op := r.operationFor(*net.OperationID); op != nil {
			for _, p := range occupants {
				if p.MemberID == op.CreatorID {
					return op.CreatorID
				}
			}
		}
	}

	best := uint(0)
	bestScore := -1
	for _, p := range occupants {
		score := AuthorityScore(p.MemberID, r.memberFor(p.MemberID), duties)
		if score > bestScore {
			best = p.MemberID
			bestScore = score
		}
	}
	return best
}

func (r *sweepRun) reconcileEmpty(net domain.Net) {
	grace := time.Duration(net.CleanupGraceMinutes) * time.Minute
	reason := closeReasonTemporaryEmpty

	if net.Scope == domain.ScopeTempOperation {
		reason = closeReasonOperationComplete
		if net.OperationID != nil {
			op := r.operationFor(*net.OperationID)
			if op != nil {
				if !op.Ended(r.now) {
					r.skip(net.ID, "operation in progress")
					return
				}
				if op.EndAt != nil && r.now.Before(op.EndAt.Add(grace)) {
					r.skip(net.ID, "grace pending")
					return
				}
			} else if !r.operationMissing(*net.OperationID) {
				r.skip(net.ID, "operation unavailable")
				return
			}
		}
	}

	// first empty observation only stamps the marker
	if net.LastEmptyAt == nil {
		shapes := []map[string]any{
			{"last_empty_at": r.now},
		}
		if err := r.svc.nets.UpdateNetNegotiated(net.ID, shapes); err != nil {
			log.Printf("sweep: net %d empty marker write not accepted: %v", net.ID, err)
		}
		r.skip(net.ID, "empty marker stamped")
		return
	}

	if r.now.Before(net.LastEmptyAt.Add(grace)) {
		r.skip(net.ID, "grace pending")
		return
	}

	r.appendLog(net.ID, domain.LogLifecycleClosed,
		fmt.Sprintf("net %s closed: %s", net.Code, reason),
		net.OperationID, map[string]any{
			"status": domain.NetStatusClosed,
			"reason": reason,
		})

	shapes := []map[string]any{
		{"status": domain.NetStatusClosed, "closed_at": r.now, "close_reason": reason},
		{"status": domain.NetStatusClosed, "closed_at": r.now},
		{"status": domain.NetStatusClosed},
	}
	if err := r.svc.nets.UpdateNetNegotiated(net.ID, shapes); err != nil {
		log.Printf("sweep: net %d close write not accepted: %v", net.ID, err)
	}

	r.summary.ClosedNets = append(r.summary.ClosedNets, dto.NetRef{NetID: net.ID, Code: net.Code})
}

// --- memoized lookups ---

func (r *sweepRun) operationFor(operationID uint) *domain.Operation {
	if op, ok := r.opCache[operationID]; ok {
		return op
	}
	op, err := r.svc.ops.FindOperationByID(operationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.opCache[operationID] = nil
			return nil
		}
		log.Printf("sweep: operation %d read degraded: %v", operationID, err)
		return nil
	}
	r.opCache[operationID] = op
	return op
}

// operationMissing distinguishes "row is gone" (treated as an ended
// operation) from "lookup failed".
func (r *sweepRun) operationMissing(operationID uint) bool {
	op, ok := r.opCache[operationID]
	return ok && op == nil
}

func (r *sweepRun) dutiesFor(operationID uint) []domain.DutyAssignment {
	if duties, ok := r.dutyCache[operationID]; ok {
		return duties
	}
	duties, err := r.svc.duties.ListDutiesByOperation(operationID)
	if err != nil {
		log.Printf("sweep: operation %d duties degraded: %v", operationID, err)
		duties = nil
	}
	r.dutyCache[operationID] = duties
	return duties
}

func (r *sweepRun) memberFor(memberID uint) *domain.MemberProfile {
	if member, ok := r.memberCache[memberID]; ok {
		return member
	}
	member, err := r.svc.members.FindMemberByID(memberID)
	if err != nil {
		member = nil
	}
	r.memberCache[memberID] = member
	return member
}

// --- shared plumbing ---

func (r *sweepRun) normalizeAll(nets []domain.Net) []domain.Net {
	if len(nets) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(nets))
	for _, n := range nets {
		ids = append(ids, n.ID)
	}
	grouped, err := r.svc.logs.ListLogsByNets(ids)
	if err != nil {
		log.Printf("sweep: batch log read degraded: %v", err)
		grouped = nil
	}

	out := make([]domain.Net, 0, len(nets))
	for _, n := range nets {
		out = append(out, NormalizeNet(n, grouped[n.ID]))
	}
	return out
}

func (r *sweepRun) appendLog(netID uint, logType, summary string, operationID *uint, details map[string]any) {
	payload, err := json.Marshal(details)
	if err != nil {
		payload = nil
	}
	entry := &domain.NetLog{
		NetID:       netID,
		Type:        logType,
		Severity:    domain.SeverityInfo,
		Summary:     summary,
		OperationID: operationID,
		Details:     payload,
	}
	if err := r.svc.logs.AppendLog(entry); err != nil {
		log.Printf("sweep: net %d log append failed: %v", netID, err)
	}
}

func (r *sweepRun) skip(netID uint, reason string) {
	r.summary.Skipped = append(r.summary.Skipped, dto.SkippedNet{NetID: netID, Reason: reason})
}
