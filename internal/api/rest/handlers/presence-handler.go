package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/dto"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/repository"
)

// PresenceHandler consumes join/leave events from the voice transport's
// presence topic and mirrors them into the presence table the sweep reads.
type PresenceHandler struct {
	presence repository.PresenceRepository
}

func NewPresenceHandler(presence repository.PresenceRepository) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

func (h *PresenceHandler) HandleMessage(message string) error {
	var event dto.PresenceEvent
	if err := json.Unmarshal([]byte(message), &event); err != nil {
		return errors.New("malformed presence event")
	}

	netID := event.Net()
	memberID := event.Member()
	if netID == nil || memberID == nil {
		return errors.New("presence event missing net or member id")
	}

	switch event.Type {
	case dto.PresenceJoined:
		at := time.Now().UTC()
		if event.At != nil {
			at = event.At.UTC()
		}
		return h.presence.UpsertPresence(*netID, *memberID, at)
	case dto.PresenceLeft:
		return h.presence.RemovePresence(*netID, *memberID)
	default:
		return errors.New("unknown presence event type")
	}
}
