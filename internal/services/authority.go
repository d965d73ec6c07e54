package services

import (
	"strings"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
)

// Actor is the resolved identity a request or sweep decision runs as.
// Profile may be nil when the identity service is unreachable; every check
// degrades to the claims alone in that case.
type Actor struct {
	MemberID uint
	Kind     string
	Profile  *domain.MemberProfile
}

// OperationAuthority carries the temp_operation inputs for a management
// check: who created the linked operation and who holds which duty.
type OperationAuthority struct {
	CreatorID uint
	Duties    []domain.DutyAssignment
}

// minimum duty weight that grants operation role authority
const operationAuthorityWeight = 60

var dutyWeights = map[string]int{
	"commander":  90,
	"executive":  85,
	"operations": 80,
	"flight":     75,
	"logistics":  70,
	"medical":    65,
	"support":    62,
	"signals":    60,
	"comms":      60,
}

var rankWeights = map[string]int{
	domain.RankFounder:    100,
	domain.RankCommander:  90,
	domain.RankVoyager:    85,
	domain.RankPathfinder: 70,
	domain.RankScout:      55,
	domain.RankNomad:      40,
	domain.RankRecruit:    20,
}

// RoleWeight maps a free-text role or duty string to an authority weight.
// Unknown strings weigh 0.
func RoleWeight(s string) int {
	return dutyWeights[strings.ToLower(strings.TrimSpace(s))]
}

// RankWeight maps an org rank to an authority weight.
func RankWeight(rank string) int {
	return rankWeights[strings.ToUpper(strings.TrimSpace(rank))]
}

// HasGlobalOverride: platform admins, allowlisted identities and the top
// rank manage everything.
func HasGlobalOverride(actor Actor, allowlist []uint) bool {
	if actor.Kind == dto.ActorKindPlatformAdmin {
		return true
	}
	for _, id := range allowlist {
		if id == actor.MemberID {
			return true
		}
	}
	return actor.Profile != nil && actor.Profile.Rank == domain.RankFounder
}

// IsCommandStaff marks members trusted with day-to-day net management.
func IsCommandStaff(actor Actor, allowlist []uint) bool {
	if HasGlobalOverride(actor, allowlist) {
		return true
	}
	p := actor.Profile
	if p == nil {
		return false
	}
	if p.IsAdmin {
		return true
	}
	switch p.Rank {
	case domain.RankCommander, domain.RankFounder, domain.RankVoyager:
		return true
	}
	for _, role := range p.RoleList() {
		switch role {
		case "admin", "command", "officer", "operations", "comms":
			return true
		}
	}
	return false
}

// operationRoleAuthority: the actor holds a duty on the linked operation
// weighty enough to manage its nets.
func operationRoleAuthority(actor Actor, op *OperationAuthority) bool {
	if op == nil {
		return false
	}
	for _, duty := range op.Duties {
		if duty.MemberID == actor.MemberID && RoleWeight(duty.Duty) >= operationAuthorityWeight {
			return true
		}
	}
	return false
}

// CanManage computes the actor's management right over a net. Pure and
// side-effect free; op is only consulted for temp_operation nets.
func CanManage(net domain.Net, actor Actor, allowlist []uint, op *OperationAuthority) bool {
	override := HasGlobalOverride(actor, allowlist)

	switch net.Scope {
	case domain.ScopePermanent:
		return override

	case domain.ScopeTempAdhoc:
		if override {
			return true
		}
		return net.OwnerID != nil && *net.OwnerID == actor.MemberID

	case domain.ScopeTempOperation:
		if override {
			return true
		}
		if op != nil && op.CreatorID != 0 && op.CreatorID == actor.MemberID {
			return true
		}
		if operationRoleAuthority(actor, op) {
			return true
		}
		if actor.Profile != nil {
			if actor.Profile.Rank == domain.RankCommander {
				return true
			}
			for _, role := range actor.Profile.RoleList() {
				switch role {
				case "command", "officer", "operations":
					return true
				}
			}
		}
		return false
	}
	return override
}

// AuthorityScore ranks a member for owner election: rank weight and duty
// weights on the relevant operation, combined via max. Works with a nil
// profile so a failed identity lookup still lets duty weight count.
func AuthorityScore(memberID uint, member *domain.MemberProfile, duties []domain.DutyAssignment) int {
	score := 0
	if member != nil {
		score = RankWeight(member.Rank)
	}
	for _, duty := range duties {
		if duty.MemberID == memberID {
			if w := RoleWeight(duty.Duty); w > score {
				score = w
			}
		}
	}
	return score
}
