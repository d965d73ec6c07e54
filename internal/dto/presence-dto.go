package dto

import "time"

// Presence event types published by the voice transport
const (
	PresenceJoined = "presence.joined"
	PresenceLeft   = "presence.left"
)

type PresenceEvent struct {
	Type      string     `json:"type"`
	NetID     *FlexUint  `json:"net_id"`
	NetIDAlt  *FlexUint  `json:"netId"`
	MemberID  *FlexUint  `json:"member_id"`
	MemberAlt *FlexUint  `json:"memberId"`
	At        *time.Time `json:"at"`
}

func (e PresenceEvent) Net() *uint    { return FirstUint(e.NetID.Ptr(), e.NetIDAlt.Ptr()) }
func (e PresenceEvent) Member() *uint { return FirstUint(e.MemberID.Ptr(), e.MemberAlt.Ptr()) }
