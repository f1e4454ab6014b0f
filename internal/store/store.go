package store

import (
	"context"
	"errors"
	"time"

	"github.com/danschewy/townhall/internal/models"
)

var (
	// ErrRoomExists is returned by CreateRoom when the code is already taken.
	ErrRoomExists = errors.New("room already exists")
	// ErrRoomNotFound is returned when a room code does not exist or has expired.
	ErrRoomNotFound = errors.New("room not found")
)

// RoomStore is the keyed, time-limited storage backing sessions and their
// message backlogs. Every mutating operation refreshes the room's expiry to a
// full TTL window. Each operation must be atomic with respect to concurrent
// callers; no cross-key transactions are required.
//
// Both RedisStore and MemoryStore implement this interface.
type RoomStore interface {
	// Room lifecycle
	CreateRoom(ctx context.Context, code string, createdAt time.Time) error
	RoomExists(ctx context.Context, code string) (bool, error)
	Touch(ctx context.Context, code string) error

	// Membership
	AddUser(ctx context.Context, code string, user models.User) error
	RemoveUser(ctx context.Context, code, userID string) error
	ListUsers(ctx context.Context, code string) ([]models.User, error)

	// Message backlog
	AppendMessage(ctx context.Context, code string, msg *models.AudioMessage) error
	MessagesSince(ctx context.Context, code string, since int64) ([]models.AudioMessage, error)

	// Connection management
	Ping(ctx context.Context) error
	Close() error
}
