package services

import (
	"strings"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
	"github.com/blae-code/nomad-nexus-beta-sub003/pkg/utils"
)

// Lane is a net the sweep wants to exist for an operation.
type Lane struct {
	Code       string
	Label      string
	Type       string
	Discipline string
	Priority   string
}

const (
	maxPreferredLanes   = 8
	maxRecommendedLanes = 10
)

func defaultLanes(prefix string) []Lane {
	return []Lane{
		{Code: prefix + "-CMD", Label: "Command", Type: "voice", Discipline: "command", Priority: "high"},
		{Code: prefix + "-OPS", Label: "Operations", Type: "voice", Discipline: "operations", Priority: "high"},
		{Code: prefix + "-FLT", Label: "Flight", Type: "voice", Discipline: "flight", Priority: "normal"},
		{Code: prefix + "-SUP", Label: "Support", Type: "voice", Discipline: "support", Priority: "normal"},
	}
}

// RecommendedLanes computes the deterministic lane set for an operation:
// the default set parameterized by a prefix from the title, merged with up
// to maxPreferredLanes validated suggestions from the op record. Preferred
// entries override defaults on code collision; the result caps at
// maxRecommendedLanes.
func RecommendedLanes(op domain.Operation) []Lane {
	prefix := utils.CodePrefix(op.Title)
	lanes := defaultLanes(prefix)

	used := 0
	for _, p := range dto.ParsePreferredLanes(op.PreferredLanes) {
		if used >= maxPreferredLanes {
			break
		}
		code := utils.NormalizeCode(dto.FirstString(p.Code, p.Label, p.Name))
		if code == "" {
			continue
		}
		used++

		lane := Lane{
			Code:       code,
			Label:      dto.FirstString(p.Label, p.Name, code),
			Type:       laneField(p.Type, "voice"),
			Discipline: laneField(p.Discipline, "operations"),
			Priority:   laneField(p.Priority, "normal"),
		}

		replaced := false
		for i := range lanes {
			if lanes[i].Code == code {
				lanes[i] = lane
				replaced = true
				break
			}
		}
		if !replaced {
			lanes = append(lanes, lane)
		}
	}

	if len(lanes) > maxRecommendedLanes {
		lanes = lanes[:maxRecommendedLanes]
	}
	return lanes
}

func laneField(raw, fallback string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return fallback
	}
	return raw
}
