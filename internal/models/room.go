package models

// User represents a participant in a room.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"` // code from SupportedLanguages
	JoinedAt int64  `json:"joinedAt"` // Unix ms
}

// Room represents an ephemeral voice session identified by a short code.
// Membership and the message backlog live under the room's store keys and
// share its sliding TTL.
type Room struct {
	Code      string `json:"code"`
	CreatedAt int64  `json:"createdAt"` // Unix ms
}
