package dto

// Actor kinds issued by the platform auth layer
const (
	ActorKindMember        = "member"
	ActorKindPlatformAdmin = "platform_admin"
)

type AuthClaims struct {
	MemberID uint    `json:"member_id"`
	Handle   string  `json:"handle"`
	Kind     string  `json:"kind"`
	Iat      float64 `json:"iat"`
	Expiry   float64 `json:"expiry"`
}
