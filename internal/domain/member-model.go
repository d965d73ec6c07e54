package domain

import (
	"strings"
	"time"
)

// Org rank ladder (owned by the identity service; read-only here)
const (
	RankFounder    = "FOUNDER"
	RankCommander  = "COMMANDER"
	RankVoyager    = "VOYAGER"
	RankPathfinder = "PATHFINDER"
	RankScout      = "SCOUT"
	RankNomad      = "NOMAD"
	RankRecruit    = "RECRUIT"
)

type MemberProfile struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Handle string `gorm:"type:varchar(80);not null" json:"handle"`
	Rank   string `gorm:"type:varchar(30)" json:"rank"`
	// comma-separated role tags, e.g. "command,comms"
	Roles     string    `gorm:"type:varchar(200)" json:"roles"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m MemberProfile) RoleList() []string {
	if strings.TrimSpace(m.Roles) == "" {
		return nil
	}
	parts := strings.Split(m.Roles, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

func (m MemberProfile) HasRole(role string) bool {
	role = strings.ToLower(role)
	for _, r := range m.RoleList() {
		if r == role {
			return true
		}
	}
	return false
}
