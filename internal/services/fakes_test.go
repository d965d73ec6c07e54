package services

import (
	"errors"
	"sort"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/helper"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the store-facing behavior the
// services rely on: record-not-found errors, presence ordering by join
// time, the unique code constraint, and shape-by-shape negotiated writes.

type fakeNetRepo struct {
	nets    map[uint]*domain.Net
	nextID  uint
	listErr error
	// simulates a lagging read replica: code lookups miss rows that the
	// unique index still guards
	hideFromCodeLookup bool

	createCalls int
	updateCalls int
}

func newFakeNetRepo() *fakeNetRepo {
	return &fakeNetRepo{nets: map[uint]*domain.Net{}, nextID: 1}
}

func (f *fakeNetRepo) CreateNet(net *domain.Net) (*domain.Net, error) {
	f.createCalls++
	for _, existing := range f.nets {
		if existing.Code == net.Code && existing.Scope == net.Scope && uintPtrEq(existing.OperationID, net.OperationID) {
			constraint := helper.NetCodeLinkedIndex
			if net.OperationID == nil {
				constraint = helper.NetCodeUnlinkedIndex
			}
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: constraint}
		}
	}
	stored := *net
	stored.ID = f.nextID
	stored.CreatedAt = time.Now().UTC()
	f.nextID++
	f.nets[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeNetRepo) FindNetByID(netID uint) (*domain.Net, error) {
	net, ok := f.nets[netID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *net
	return &out, nil
}

func (f *fakeNetRepo) FindNetByCode(scope string, operationID *uint, code string) (*domain.Net, error) {
	if f.hideFromCodeLookup {
		return nil, gorm.ErrRecordNotFound
	}
	for _, net := range f.nets {
		if net.Scope == scope && net.Code == code && uintPtrEq(net.OperationID, operationID) {
			out := *net
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeNetRepo) ListNets() ([]domain.Net, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(func(domain.Net) bool { return true }), nil
}

func (f *fakeNetRepo) ListNetsByOperation(operationID uint) ([]domain.Net, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(func(n domain.Net) bool {
		return n.OperationID != nil && *n.OperationID == operationID
	}), nil
}

func (f *fakeNetRepo) ListOpenNetsByOwner(ownerID uint, scope string) ([]domain.Net, error) {
	return f.sorted(func(n domain.Net) bool {
		return n.OwnerID != nil && *n.OwnerID == ownerID &&
			n.Scope == scope && n.Status != domain.NetStatusClosed
	}), nil
}

func (f *fakeNetRepo) ListOpenTempNets() ([]domain.Net, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(func(n domain.Net) bool {
		return n.IsTemp() && n.Status != domain.NetStatusClosed
	}), nil
}

func (f *fakeNetRepo) UpdateNetNegotiated(netID uint, shapes []map[string]any) error {
	net, ok := f.nets[netID]
	if !ok {
		return errors.New("write not accepted")
	}
	for _, shape := range shapes {
		if len(shape) == 0 {
			continue
		}
		f.updateCalls++
		applyShape(net, shape)
		return nil
	}
	return errors.New("no candidate shapes")
}

func (f *fakeNetRepo) sorted(keep func(domain.Net) bool) []domain.Net {
	out := make([]domain.Net, 0, len(f.nets))
	for _, net := range f.nets {
		if keep(*net) {
			out = append(out, *net)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func applyShape(net *domain.Net, shape map[string]any) {
	for key, value := range shape {
		switch key {
		case "status":
			net.Status = value.(string)
		case "label":
			net.Label = value.(string)
		case "type":
			net.Type = value.(string)
		case "discipline":
			net.Discipline = value.(string)
		case "priority":
			net.Priority = value.(string)
		case "owner_id":
			id := value.(uint)
			net.OwnerID = &id
		case "cleanup_grace_minutes":
			net.CleanupGraceMinutes = value.(int)
		case "planned_activation_at":
			at := value.(time.Time)
			net.PlannedActivationAt = &at
		case "last_empty_at":
			if value == nil {
				net.LastEmptyAt = nil
			} else {
				at := value.(time.Time)
				net.LastEmptyAt = &at
			}
		case "closed_at":
			at := value.(time.Time)
			net.ClosedAt = &at
		case "close_reason":
			reason := value.(string)
			net.CloseReason = &reason
		case "updated_at":
			net.UpdatedAt = value.(time.Time)
		}
	}
}

type fakeLogRepo struct {
	entries []domain.NetLog
	nextID  uint
	clock   time.Time

	appendErr error
	listErr   error
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{
		nextID: 1,
		clock:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeLogRepo) AppendLog(entry *domain.NetLog) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	if entry.NetID == 0 || entry.Type == "" {
		return errors.New("log entry missing net id or type")
	}
	stored := *entry
	stored.ID = f.nextID
	stored.CreatedAt = f.clock
	if stored.Severity == "" {
		stored.Severity = domain.SeverityInfo
	}
	if stored.EntryKey == "" {
		stored.EntryKey = uuid.NewString()
	}
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	f.entries = append(f.entries, stored)
	return nil
}

func (f *fakeLogRepo) ListLogsByNet(netID uint) ([]domain.NetLog, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.NetLog
	for _, e := range f.entries {
		if e.NetID == netID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) ListLogsByNets(netIDs []uint) (map[uint][]domain.NetLog, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	wanted := map[uint]bool{}
	for _, id := range netIDs {
		wanted[id] = true
	}
	grouped := map[uint][]domain.NetLog{}
	for _, e := range f.entries {
		if wanted[e.NetID] {
			grouped[e.NetID] = append(grouped[e.NetID], e)
		}
	}
	return grouped, nil
}

func (f *fakeLogRepo) byType(netID uint, logType string) []domain.NetLog {
	var out []domain.NetLog
	for _, e := range f.entries {
		if e.NetID == netID && e.Type == logType {
			out = append(out, e)
		}
	}
	return out
}

type fakeOpRepo struct {
	ops map[uint]*domain.Operation
}

func newFakeOpRepo() *fakeOpRepo {
	return &fakeOpRepo{ops: map[uint]*domain.Operation{}}
}

func (f *fakeOpRepo) FindOperationByID(operationID uint) (*domain.Operation, error) {
	op, ok := f.ops[operationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *op
	return &out, nil
}

func (f *fakeOpRepo) ListOperationsInWindow(from, to time.Time) ([]domain.Operation, error) {
	var out []domain.Operation
	for _, op := range f.ops {
		if op.StartAt.Before(from) || op.StartAt.After(to) {
			continue
		}
		if op.Status == domain.OperationCancelled {
			continue
		}
		out = append(out, *op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

type fakeDutyRepo struct {
	duties map[uint][]domain.DutyAssignment
}

func newFakeDutyRepo() *fakeDutyRepo {
	return &fakeDutyRepo{duties: map[uint][]domain.DutyAssignment{}}
}

func (f *fakeDutyRepo) ListDutiesByOperation(operationID uint) ([]domain.DutyAssignment, error) {
	return f.duties[operationID], nil
}

type fakePresenceRepo struct {
	rows    map[uint][]domain.Presence
	errNets map[uint]bool
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{rows: map[uint][]domain.Presence{}, errNets: map[uint]bool{}}
}

func (f *fakePresenceRepo) ListPresenceByNet(netID uint) ([]domain.Presence, error) {
	if f.errNets[netID] {
		return nil, errors.New("presence store unreachable")
	}
	out := append([]domain.Presence(nil), f.rows[netID]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].MemberID < out[j].MemberID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (f *fakePresenceRepo) UpsertPresence(netID, memberID uint, joinedAt time.Time) error {
	for _, p := range f.rows[netID] {
		if p.MemberID == memberID {
			return nil
		}
	}
	f.rows[netID] = append(f.rows[netID], domain.Presence{NetID: netID, MemberID: memberID, JoinedAt: joinedAt})
	return nil
}

func (f *fakePresenceRepo) RemovePresence(netID, memberID uint) error {
	kept := f.rows[netID][:0]
	for _, p := range f.rows[netID] {
		if p.MemberID != memberID {
			kept = append(kept, p)
		}
	}
	f.rows[netID] = kept
	return nil
}

type fakeMemberRepo struct {
	members map[uint]*domain.MemberProfile
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: map[uint]*domain.MemberProfile{}}
}

func (f *fakeMemberRepo) FindMemberByID(memberID uint) (*domain.MemberProfile, error) {
	member, ok := f.members[memberID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *member
	return &out, nil
}

func (f *fakeMemberRepo) FindMembersByIDs(memberIDs []uint) ([]domain.MemberProfile, error) {
	var out []domain.MemberProfile
	for _, id := range memberIDs {
		if member, ok := f.members[id]; ok {
			out = append(out, *member)
		}
	}
	return out, nil
}

// fixture wires the fakes into real services for a test.
type fixture struct {
	nets     *fakeNetRepo
	logs     *fakeLogRepo
	ops      *fakeOpRepo
	duties   *fakeDutyRepo
	presence *fakePresenceRepo
	members  *fakeMemberRepo

	svc   NetService
	sweep SweepService
}

func newFixture(allowlist ...uint) *fixture {
	f := &fixture{
		nets:     newFakeNetRepo(),
		logs:     newFakeLogRepo(),
		ops:      newFakeOpRepo(),
		duties:   newFakeDutyRepo(),
		presence: newFakePresenceRepo(),
		members:  newFakeMemberRepo(),
	}
	f.svc = NewNetService(f.nets, f.logs, f.ops, f.duties, f.members, allowlist)
	f.sweep = NewSweepService(f.nets, f.logs, f.ops, f.duties, f.presence, f.members)
	return f
}

func (f *fixture) addMember(id uint, handle, rank, roles string) {
	f.members.members[id] = &domain.MemberProfile{ID: id, Handle: handle, Rank: rank, Roles: roles}
}

func (f *fixture) addOperation(op domain.Operation) {
	stored := op
	f.ops.ops[op.ID] = &stored
}

func (f *fixture) addNet(net domain.Net) *domain.Net {
	stored := net
	if stored.ID == 0 {
		stored.ID = f.nets.nextID
	}
	if stored.ID >= f.nets.nextID {
		f.nets.nextID = stored.ID + 1
	}
	f.nets.nets[stored.ID] = &stored
	return &stored
}

func (f *fixture) join(netID, memberID uint, at time.Time) {
	_ = f.presence.UpsertPresence(netID, memberID, at)
}

func claimsFor(memberID uint) dto.AuthClaims {
	return dto.AuthClaims{MemberID: memberID, Kind: dto.ActorKindMember}
}

func uintPtr(v uint) *uint { return &v }

func uintPtrEq(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
