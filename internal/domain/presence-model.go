package domain

import "time"

// Presence rows mirror who is currently connected to a net. They are fed
// by the voice transport through the presence topic, not by this service.
type Presence struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	NetID    uint      `gorm:"not null;index;uniqueIndex:uidx_presence_net_member" json:"net_id"`
	MemberID uint      `gorm:"not null;index;uniqueIndex:uidx_presence_net_member" json:"member_id"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}
