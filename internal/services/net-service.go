package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/helper"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/repository"
	"github.com/blae-code/nomad-nexus-beta-sub003/pkg/utils"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const defaultCleanupGraceMinutes = 5

type NetService interface {
	ResolveActor(claims dto.AuthClaims) Actor
	HasOverride(claims dto.AuthClaims) (bool, error)

	ListNets(claims dto.AuthClaims, operationID *uint) (*dto.NetListResponse, error)
	ListPlannedOperationNets(claims dto.AuthClaims, operationID uint) (*dto.NetListResponse, error)
	GetNet(claims dto.AuthClaims, netID uint) (*dto.NetResponse, error)
	ListNetLogs(claims dto.AuthClaims, netID uint) ([]domain.NetLog, error)

	CreateNet(claims dto.AuthClaims, input dto.CreateNetInput) (*dto.NetResponse, error)
	UpdateNet(claims dto.AuthClaims, netID uint, input dto.UpdateNetInput) (*dto.NetResponse, error)
	CloseNet(claims dto.AuthClaims, netID uint, reason string) (*dto.NetResponse, error)
	TransferOwner(claims dto.AuthClaims, netID uint, newOwnerID uint) (*dto.NetResponse, error)
}

type netService struct {
	nets    repository.NetRepository
	logs    repository.NetLogRepository
	ops     repository.OperationRepository
	duties  repository.DutyRepository
	members repository.MemberRepository

	allowlist []uint
	validate  *validator.Validate
}

func NewNetService(
	nets repository.NetRepository,
	logs repository.NetLogRepository,
	ops repository.OperationRepository,
	duties repository.DutyRepository,
	members repository.MemberRepository,
	allowlist []uint,
) NetService {
	return &netService{
		nets:      nets,
		logs:      logs,
		ops:       ops,
		duties:    duties,
		members:   members,
		allowlist: allowlist,
		validate:  validator.New(),
	}
}

// ResolveActor loads the actor's profile. A failed identity read degrades
// to claims-only; authority checks then rely on kind and allowlist.
func (s *netService) ResolveActor(claims dto.AuthClaims) Actor {
	actor := Actor{MemberID: claims.MemberID, Kind: claims.Kind}
	profile, err := s.members.FindMemberByID(claims.MemberID)
	if err == nil {
		actor.Profile = profile
	}
	return actor
}

func (s *netService) HasOverride(claims dto.AuthClaims) (bool, error) {
	return HasGlobalOverride(s.ResolveActor(claims), s.allowlist), nil
}

func (s *netService) ListNets(claims dto.AuthClaims, operationID *uint) (*dto.NetListResponse, error) {
	actor := s.ResolveActor(claims)

	var (
		nets []domain.Net
		err  error
	)
	if operationID != nil {
		nets, err = s.nets.ListNetsByOperation(*operationID)
	} else {
		nets, err = s.nets.ListNets()
	}
	if err != nil {
		// degraded store read: an empty board beats a failed request
		log.Printf("list nets degraded: %v", err)
		nets = nil
	}

	normalized := s.normalizeAll(nets)

	resp := &dto.NetListResponse{
		Nets:        []dto.NetView{},
		PlannedNets: []dto.NetView{},
		Policy:      s.listPolicy(actor),
	}
	for _, net := range normalized {
		switch net.Status {
		case domain.NetStatusClosed:
			// closed nets stay out of the board
		case domain.NetStatusPlanned:
			resp.PlannedNets = append(resp.PlannedNets, netView(net))
		default:
			resp.Nets = append(resp.Nets, netView(net))
		}
	}
	return resp, nil
}

func (s *netService) ListPlannedOperationNets(claims dto.AuthClaims, operationID uint) (*dto.NetListResponse, error) {
	if operationID == 0 {
		return nil, ErrValidation("event id is required")
	}
	return s.ListNets(claims, &operationID)
}

func (s *netService) GetNet(claims dto.AuthClaims, netID uint) (*dto.NetResponse, error) {
	actor := s.ResolveActor(claims)

	net, err := s.normalizedNet(netID)
	if err != nil {
		return nil, err
	}
	return s.netResponse(*net, actor), nil
}

func (s *netService) ListNetLogs(claims dto.AuthClaims, netID uint) ([]domain.NetLog, error) {
	if _, err := s.nets.FindNetByID(netID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("net not found")
		}
		return nil, err
	}

	entries, err := s.logs.ListLogsByNet(netID)
	if err != nil {
		log.Printf("list net logs degraded: %v", err)
		return []domain.NetLog{}, nil
	}
	return entries, nil
}

func (s *netService) CreateNet(claims dto.AuthClaims, input dto.CreateNetInput) (*dto.NetResponse, error) {
	actor := s.ResolveActor(claims)

	if err := s.validate.Struct(input); err != nil {
		return nil, ErrValidation(err.Error())
	}

	scope := resolveScope(input)
	switch scope {
	case domain.ScopeTempOperation:
		if input.OperationID == nil {
			return nil, ErrValidation("temp_operation nets require an event id")
		}
	case domain.ScopePermanent, domain.ScopeTempAdhoc:
		if input.OperationID != nil {
			return nil, ErrValidation("event id is only valid for temp_operation nets")
		}
	default:
		return nil, ErrValidation("invalid scope")
	}

	override := HasGlobalOverride(actor, s.allowlist)

	var op *domain.Operation
	var opAuth *OperationAuthority
	if scope == domain.ScopeTempOperation {
		var err error
		op, opAuth, err = s.operationAuthority(*input.OperationID)
		if err != nil {
			return nil, err
		}
	}

	// scope-specific authority, up front
	switch scope {
	case domain.ScopePermanent:
		if !override {
			return nil, ErrForbidden("permanent nets require platform override")
		}
	case domain.ScopeTempOperation:
		probe := domain.Net{Scope: scope, OperationID: input.OperationID}
		if !CanManage(probe, actor, s.allowlist, opAuth) {
			return nil, ErrForbidden("no authority over this operation's nets")
		}
	case domain.ScopeTempAdhoc:
		if input.OwnerID != nil && *input.OwnerID != actor.MemberID && !override {
			return nil, ErrForbidden("cannot create an ad hoc net for another member")
		}
	}

	ownerID := s.resolveOwner(scope, input, actor, op)

	if scope == domain.ScopeTempAdhoc && !override && ownerID != nil {
		count, err := s.openAdhocCount(*ownerID)
		if err != nil {
			return nil, err
		}
		if count >= 1 {
			return nil, ErrConflict(BlockedTempLimitReached, "member already owns an active ad hoc net")
		}
	}

	code, err := s.resolveCode(scope, input, actor, op)
	if err != nil {
		return nil, err
	}

	if _, err := s.nets.FindNetByCode(scope, input.OperationID, code); err == nil {
		return nil, ErrConflict(BlockedCodeConflict, fmt.Sprintf("code %s already in use", code))
	}

	grace := defaultCleanupGraceMinutes
	if scope == domain.ScopePermanent {
		grace = 0
	}
	if input.CleanupGraceMinutes != nil {
		grace = clampGrace(*input.CleanupGraceMinutes)
	}

	activation := input.PlannedActivationAt
	if scope == domain.ScopeTempOperation && activation == nil && op != nil {
		at := op.StartAt.Add(-15 * time.Minute)
		activation = &at
	}

	now := time.Now().UTC()
	activationPassed := activation == nil || !now.Before(*activation)
	status := InitialStatus(scope, activationPassed)

	net := &domain.Net{
		Code:                code,
		Label:               defaultString(input.Label, code),
		Type:                defaultString(input.Type, "voice"),
		Discipline:          defaultString(input.Discipline, defaultDiscipline(scope)),
		Priority:            defaultString(input.Priority, defaultPriority(scope)),
		Status:              status,
		Scope:               scope,
		Temporary:           scope != domain.ScopePermanent,
		OwnerID:             ownerID,
		OperationID:         input.OperationID,
		PlannedActivationAt: activation,
		CleanupGraceMinutes: grace,
	}

	created, err := s.nets.CreateNet(net)
	if err != nil {
		if helper.IsDuplicateNetCode(err) {
			return nil, ErrConflict(BlockedCodeConflict, fmt.Sprintf("code %s already in use", code))
		}
		return nil, err
	}

	s.appendLog(created.ID, domain.LogPolicySet, domain.SeverityInfo,
		fmt.Sprintf("net %s created", created.Code),
		&actor.MemberID, created.OperationID, map[string]any{
			"scope":                 created.Scope,
			"status":                created.Status,
			"temporary":             created.Temporary,
			"owner_id":              created.OwnerID,
			"operation_id":          created.OperationID,
			"planned_activation_at": created.PlannedActivationAt,
			"cleanup_grace_minutes": created.CleanupGraceMinutes,
		})

	return s.netResponse(*created, actor), nil
}

func (s *netService) UpdateNet(claims dto.AuthClaims, netID uint, input dto.UpdateNetInput) (*dto.NetResponse, error) {
	actor := s.ResolveActor(claims)

	if err := s.validate.Struct(input); err != nil {
		return nil, ErrValidation(err.Error())
	}

	net, err := s.normalizedNet(netID)
	if err != nil {
		return nil, err
	}
	if net.Status == domain.NetStatusClosed {
		return nil, ErrValidation("net is closed")
	}

	opAuth := s.operationAuthorityFor(*net)
	if !CanManage(*net, actor, s.allowlist, opAuth) {
		return nil, ErrForbidden("no authority over this net")
	}

	changes := map[string]any{}
	governance := map[string]any{}

	if input.Label != "" && input.Label != net.Label {
		changes["label"] = input.Label
	}
	if input.Type != "" && input.Type != net.Type {
		changes["type"] = input.Type
	}
	if input.Discipline != "" && input.Discipline != net.Discipline {
		changes["discipline"] = input.Discipline
	}
	if input.Priority != "" && input.Priority != net.Priority {
		changes["priority"] = input.Priority
	}
	if input.CleanupGraceMinutes != nil && clampGrace(*input.CleanupGraceMinutes) != net.CleanupGraceMinutes {
		g := clampGrace(*input.CleanupGraceMinutes)
		changes["cleanup_grace_minutes"] = g
		governance["cleanup_grace_minutes"] = g
	}
	if input.PlannedActivationAt != nil &&
		(net.PlannedActivationAt == nil || !net.PlannedActivationAt.Equal(*input.PlannedActivationAt)) {
		changes["planned_activation_at"] = *input.PlannedActivationAt
		governance["planned_activation_at"] = *input.PlannedActivationAt
	}

	statusEdge := ""
	if input.Status != "" && input.Status != net.Status {
		if !CanTransition(net.Scope, net.Status, input.Status, true) {
			return nil, ErrValidation(fmt.Sprintf("cannot move %s net from %s to %s", net.Scope, net.Status, input.Status))
		}
		statusEdge = input.Status
		changes["status"] = input.Status
		if input.Status == domain.NetStatusClosed {
			now := time.Now().UTC()
			reason := "manual-close"
			changes["closed_at"] = now
			changes["close_reason"] = reason
		}
	}

	if len(changes) == 0 {
		return s.netResponse(*net, actor), nil
	}

	// log first: the append-only trail is the record of intent
	if statusEdge != "" {
		logType := LogTypeForTransition(net.Status, statusEdge)
		details := map[string]any{"status": statusEdge}
		if statusEdge == domain.NetStatusClosed {
			details["reason"] = "manual-close"
		}
		s.appendLog(net.ID, logType, domain.SeverityInfo,
			fmt.Sprintf("net %s moved from %s to %s", net.Code, net.Status, statusEdge),
			&actor.MemberID, net.OperationID, details)
	}
	if len(governance) > 0 {
		s.appendLog(net.ID, domain.LogPolicySet, domain.SeverityInfo,
			fmt.Sprintf("net %s policy updated", net.Code),
			&actor.MemberID, net.OperationID, governance)
	}

	shapes := candidateShapes(changes)
	if err := s.nets.UpdateNetNegotiated(net.ID, shapes); err != nil {
		// the log already carries the intent; the projection catches up later
		log.Printf("net %d row write not accepted: %v", net.ID, err)
	}

	return s.GetNet(claims, net.ID)
}

func (s *netService) CloseNet(claims dto.AuthClaims, netID uint, reason string) (*dto.NetResponse, error) {
	actor := s.ResolveActor(claims)

	net, err := s.normalizedNet(netID)
	if err != nil {
		return nil, err
	}

	opAuth := s.operationAuthorityFor(*net)
	if !CanManage(*net, actor, s.allowlist, opAuth) {
		return nil, ErrForbidden("no authority over this net")
	}

	if net.Status == domain.NetStatusClosed {
		// closing twice is a no-op
		return s.netResponse(*net, actor), nil
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual-close"
	}
	now := time.Now().UTC()

	s.appendLog(net.ID, domain.LogLifecycleClosed, domain.SeverityInfo,
		fmt.Sprintf("net %s closed: %s", net.Code, reason),
		&actor.MemberID, net.OperationID, map[string]any{
			"status": domain.NetStatusClosed,
			"reason": reason,
		})

	shapes := []map[string]any{
		{"status": domain.NetStatusClosed, "closed_at": now, "close_reason": reason},
		{"status": domain.NetStatusClosed, "closed_at": now},
		{"status": domain.NetStatusClosed},
	}
	if err := s.nets.UpdateNetNegotiated(net.ID, shapes); err != nil {
		log.Printf("net %d close write not accepted: %v", net.ID, err)
	}

	return s.GetNet(claims, net.ID)
}

func (s *netService) TransferOwner(claims dto.AuthClaims, netID uint, newOwnerID uint) (*dto.NetResponse, error) {
	actor := s.ResolveActor(claims)

	if newOwnerID == 0 {
		return nil, ErrValidation("new owner id is required")
	}

	net, err := s.normalizedNet(netID)
	if err != nil {
		return nil, err
	}
	if net.Status == domain.NetStatusClosed {
		return nil, ErrValidation("net is closed")
	}

	opAuth := s.operationAuthorityFor(*net)
	if !CanManage(*net, actor, s.allowlist, opAuth) {
		return nil, ErrForbidden("no authority over this net")
	}

	if _, err := s.members.FindMemberByID(newOwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("member not found")
		}
		// identity service degraded; take the id at face value
		log.Printf("transfer owner member lookup degraded: %v", err)
	}

	if net.OwnerID != nil && *net.OwnerID == newOwnerID {
		return s.netResponse(*net, actor), nil
	}

	s.appendLog(net.ID, domain.LogOwnerTransferred, domain.SeverityInfo,
		fmt.Sprintf("net %s ownership transferred", net.Code),
		&actor.MemberID, net.OperationID, map[string]any{
			"new_owner_id": newOwnerID,
		})

	shapes := []map[string]any{
		{"owner_id": newOwnerID, "updated_at": time.Now().UTC()},
		{"owner_id": newOwnerID},
	}
	if err := s.nets.UpdateNetNegotiated(net.ID, shapes); err != nil {
		log.Printf("net %d owner write not accepted: %v", net.ID, err)
	}

	return s.GetNet(claims, net.ID)
}

// --- internals ---

func (s *netService) normalizedNet(netID uint) (*domain.Net, error) {
	net, err := s.nets.FindNetByID(netID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("net not found")
		}
		return nil, err
	}

	entries, err := s.logs.ListLogsByNet(netID)
	if err != nil {
		log.Printf("net %d log read degraded: %v", netID, err)
		entries = nil
	}

	normalized := NormalizeNet(*net, entries)
	return &normalized, nil
}

func (s *netService) normalizeAll(nets []domain.Net) []domain.Net {
	if len(nets) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(nets))
	for _, n := range nets {
		ids = append(ids, n.ID)
	}
	grouped, err := s.logs.ListLogsByNets(ids)
	if err != nil {
		log.Printf("batch log read degraded: %v", err)
		grouped = nil
	}

	out := make([]domain.Net, 0, len(nets))
	for _, n := range nets {
		out = append(out, NormalizeNet(n, grouped[n.ID]))
	}
	return out
}

// operationAuthority loads authority inputs for an operation id. A missing
// operation is a 404; a degraded read yields empty inputs.
func (s *netService) operationAuthority(operationID uint) (*domain.Operation, *OperationAuthority, error) {
	op, err := s.ops.FindOperationByID(operationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound("event not found")
		}
		log.Printf("operation %d read degraded: %v", operationID, err)
		return nil, &OperationAuthority{}, nil
	}

	duties, err := s.duties.ListDutiesByOperation(operationID)
	if err != nil {
		log.Printf("operation %d duties degraded: %v", operationID, err)
		duties = nil
	}
	return op, &OperationAuthority{CreatorID: op.CreatorID, Duties: duties}, nil
}

func (s *netService) operationAuthorityFor(net domain.Net) *OperationAuthority {
	if net.Scope != domain.ScopeTempOperation || net.OperationID == nil {
		return nil
	}
	_, opAuth, err := s.operationAuthority(*net.OperationID)
	if err != nil {
		return &OperationAuthority{}
	}
	return opAuth
}

func (s *netService) openAdhocCount(ownerID uint) (int, error) {
	nets, err := s.nets.ListOpenNetsByOwner(ownerID, domain.ScopeTempAdhoc)
	if err != nil {
		log.Printf("adhoc count degraded: %v", err)
		return 0, nil
	}

	count := 0
	for _, net := range s.normalizeAll(nets) {
		if net.Status != domain.NetStatusClosed {
			count++
		}
	}
	return count, nil
}

func (s *netService) resolveOwner(scope string, input dto.CreateNetInput, actor Actor, op *domain.Operation) *uint {
	if input.OwnerID != nil {
		return input.OwnerID
	}
	switch scope {
	case domain.ScopeTempAdhoc:
		id := actor.MemberID
		return &id
	case domain.ScopeTempOperation:
		if op != nil && op.CreatorID != 0 {
			id := op.CreatorID
			return &id
		}
		id := actor.MemberID
		return &id
	}
	return nil
}

func (s *netService) resolveCode(scope string, input dto.CreateNetInput, actor Actor, op *domain.Operation) (string, error) {
	if raw := strings.TrimSpace(input.Code); raw != "" {
		code := utils.NormalizeCode(raw)
		if code == "" {
			return "", ErrValidation("code has no usable characters")
		}
		return code, nil
	}

	switch scope {
	case domain.ScopeTempOperation:
		title := ""
		if op != nil {
			title = op.Title
		}
		return utils.GenerateCode(utils.CodePrefix(title)), nil
	case domain.ScopeTempAdhoc:
		prefix := "ADHOC"
		if actor.Profile != nil && actor.Profile.Handle != "" {
			prefix = actor.Profile.Handle
		}
		return utils.GenerateCode(prefix), nil
	default:
		return utils.GenerateCode(defaultString(input.Label, "NET")), nil
	}
}

func (s *netService) appendLog(netID uint, logType, severity, summary string, actorID, operationID *uint, details map[string]any) {
	payload, err := json.Marshal(details)
	if err != nil {
		payload = nil
	}
	entry := &domain.NetLog{
		NetID:       netID,
		Type:        logType,
		Severity:    severity,
		Summary:     summary,
		ActorID:     actorID,
		OperationID: operationID,
		Details:     payload,
	}
	if err := s.logs.AppendLog(entry); err != nil {
		log.Printf("net %d log append failed: %v", netID, err)
	}
}

func (s *netService) listPolicy(actor Actor) dto.PolicySummary {
	staff := IsCommandStaff(actor, s.allowlist)
	return dto.PolicySummary{
		CanManage:         staff,
		HasGlobalOverride: HasGlobalOverride(actor, s.allowlist),
		IsCommandStaff:    staff,
	}
}

func (s *netService) netResponse(net domain.Net, actor Actor) *dto.NetResponse {
	opAuth := s.operationAuthorityFor(net)
	return &dto.NetResponse{
		Net: netView(net),
		Policy: dto.PolicySummary{
			CanManage:         CanManage(net, actor, s.allowlist, opAuth),
			HasGlobalOverride: HasGlobalOverride(actor, s.allowlist),
			IsCommandStaff:    IsCommandStaff(actor, s.allowlist),
		},
	}
}

func netView(net domain.Net) dto.NetView {
	return dto.NetView{
		ID:                  net.ID,
		Code:                net.Code,
		Label:               net.Label,
		Type:                net.Type,
		Discipline:          net.Discipline,
		Priority:            net.Priority,
		Status:              net.Status,
		Scope:               net.Scope,
		Temporary:           net.Temporary,
		OwnerID:             net.OwnerID,
		OperationID:         net.OperationID,
		PlannedActivationAt: net.PlannedActivationAt,
		CleanupGraceMinutes: net.CleanupGraceMinutes,
		LastEmptyAt:         net.LastEmptyAt,
		ClosedAt:            net.ClosedAt,
		CloseReason:         net.CloseReason,
		CreatedAt:           net.CreatedAt,
	}
}

func resolveScope(input dto.CreateNetInput) string {
	if input.Scope != "" {
		return input.Scope
	}
	if input.OperationID != nil {
		return domain.ScopeTempOperation
	}
	if input.Temporary != nil && *input.Temporary {
		return domain.ScopeTempAdhoc
	}
	return domain.ScopePermanent
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func defaultDiscipline(scope string) string {
	if scope == domain.ScopeTempOperation {
		return "operations"
	}
	return "general"
}

func defaultPriority(scope string) string {
	if scope == domain.ScopePermanent {
		return "high"
	}
	return "normal"
}

// candidateShapes orders the write attempts from richest to minimal. The
// store has silently rejected unfamiliar field shapes before, so each
// attempt drops the most recently added fields.
func candidateShapes(full map[string]any) []map[string]any {
	governanceKeys := []string{"status", "owner_id", "cleanup_grace_minutes", "planned_activation_at", "closed_at", "close_reason"}

	governance := map[string]any{}
	for _, k := range governanceKeys {
		if v, ok := full[k]; ok {
			governance[k] = v
		}
	}

	// governanceKeys is ordered by importance, so the minimal attempt is
	// always the same field for the same change set
	minimal := map[string]any{}
	for _, k := range governanceKeys {
		if v, ok := governance[k]; ok {
			minimal[k] = v
			break
		}
	}

	shapes := []map[string]any{full}
	if len(governance) > 0 && len(governance) < len(full) {
		shapes = append(shapes, governance)
	}
	if len(minimal) > 0 && len(minimal) < len(governance) {
		shapes = append(shapes, minimal)
	}
	return shapes
}
