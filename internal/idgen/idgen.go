// Package idgen generates the identifiers used across the service: short
// human-typeable room codes, time-sortable message IDs, and opaque user IDs.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Room code alphabet excludes visually confusable characters (0/O, 1/I).
const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 6
)

// NewRoomCode returns a random 6-character room code.
func NewRoomCode() (string, error) {
	b := make([]byte, roomCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
	}
	return string(b), nil
}

// NewMessageID returns a ULID, lexicographically sortable by creation time.
func NewMessageID() string {
	return ulid.Make().String()
}

// NewUserID returns an opaque user identifier.
func NewUserID() string {
	return uuid.NewString()
}
