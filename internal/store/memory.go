package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/danschewy/townhall/internal/clock"
	"github.com/danschewy/townhall/internal/models"
)

type memoryRoom struct {
	createdAt time.Time
	expiresAt time.Time
	users     map[string]models.User
	messages  []models.AudioMessage
}

// MemoryStore is an in-process RoomStore for development and tests. Expiry is
// driven by the injected clock, so TTL behavior is testable without real time
// passing. Not suitable for multi-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	rooms   map[string]*memoryRoom
	clock   clock.Clock
	ttl     time.Duration
	backlog int
}

// NewMemoryStore creates an in-memory room store.
func NewMemoryStore(clk clock.Clock, ttl time.Duration, backlog int) *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[string]*memoryRoom),
		clock:   clk,
		ttl:     ttl,
		backlog: backlog,
	}
}

// live returns the room if it exists and has not expired. Expired rooms are
// reclaimed lazily on access. Caller must hold the lock.
func (s *MemoryStore) live(code string) *memoryRoom {
	room, ok := s.rooms[code]
	if !ok {
		return nil
	}
	if !s.clock.Now().Before(room.expiresAt) {
		delete(s.rooms, code)
		return nil
	}
	return room
}

func (s *MemoryStore) CreateRoom(_ context.Context, code string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live(code) != nil {
		return ErrRoomExists
	}
	s.rooms[code] = &memoryRoom{
		createdAt: createdAt,
		expiresAt: s.clock.Now().Add(s.ttl),
		users:     make(map[string]models.User),
	}
	return nil
}

func (s *MemoryStore) RoomExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live(code) != nil, nil
}

func (s *MemoryStore) Touch(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room := s.live(code); room != nil {
		room.expiresAt = s.clock.Now().Add(s.ttl)
	}
	return nil
}

func (s *MemoryStore) AddUser(_ context.Context, code string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.live(code)
	if room == nil {
		return ErrRoomNotFound
	}
	room.users[user.ID] = user
	room.expiresAt = s.clock.Now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) RemoveUser(_ context.Context, code, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room := s.live(code); room != nil {
		delete(room.users, userID)
		room.expiresAt = s.clock.Now().Add(s.ttl)
	}
	return nil
}

func (s *MemoryStore) ListUsers(_ context.Context, code string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.live(code)
	if room == nil {
		return []models.User{}, nil
	}

	users := make([]models.User, 0, len(room.users))
	for _, u := range room.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt != users[j].JoinedAt {
			return users[i].JoinedAt < users[j].JoinedAt
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, code string, msg *models.AudioMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.live(code)
	if room == nil {
		return ErrRoomNotFound
	}
	room.messages = append(room.messages, *msg)
	if len(room.messages) > s.backlog {
		room.messages = room.messages[len(room.messages)-s.backlog:]
	}
	room.expiresAt = s.clock.Now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) MessagesSince(_ context.Context, code string, since int64) ([]models.AudioMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.live(code)
	if room == nil {
		return []models.AudioMessage{}, nil
	}

	messages := make([]models.AudioMessage, 0, len(room.messages))
	for _, m := range room.messages {
		if m.Timestamp > since {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
