// Package rooms holds the session logic: room lifecycle, membership,
// target-language resolution for the fan-out pipeline, and the poll read
// path. All state lives behind the store.RoomStore abstraction so handlers
// running on independent instances see the same rooms.
package rooms

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/danschewy/townhall/internal/clock"
	"github.com/danschewy/townhall/internal/idgen"
	"github.com/danschewy/townhall/internal/models"
	"github.com/danschewy/townhall/internal/store"
)

// maxCodeAttempts bounds room-code regeneration on collision.
const maxCodeAttempts = 10

// Service provides room session operations over a RoomStore.
type Service struct {
	store store.RoomStore
	clock clock.Clock
}

// NewService creates a room service.
func NewService(st store.RoomStore, clk clock.Clock) *Service {
	return &Service{store: st, clock: clk}
}

// Canonical normalizes a room code: codes are case-insensitive on input and
// stored uppercase.
func Canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create claims a fresh room code, regenerating on collision.
func (s *Service) Create(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := idgen.NewRoomCode()
		if err != nil {
			return "", err
		}
		err = s.store.CreateRoom(ctx, code, s.clock.Now())
		if errors.Is(err, store.ErrRoomExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", ErrCodeGeneration
}

// Exists reports whether a room is live.
func (s *Service) Exists(ctx context.Context, code string) (bool, error) {
	return s.store.RoomExists(ctx, Canonical(code))
}

// Join adds a new user to a room and refreshes its TTL. The user ID is
// generated here; callers get it back in the returned User.
func (s *Service) Join(ctx context.Context, code, name, language string) (models.User, error) {
	if !models.ValidLanguage(language) {
		return models.User{}, ErrUnsupportedLanguage
	}

	user := models.User{
		ID:       idgen.NewUserID(),
		Name:     name,
		Language: language,
		JoinedAt: s.clock.Now().UnixMilli(),
	}

	err := s.store.AddUser(ctx, Canonical(code), user)
	if errors.Is(err, store.ErrRoomNotFound) {
		return models.User{}, ErrRoomNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Leave removes a user from a room. Idempotent: leaving twice, or leaving a
// room you never joined, succeeds silently.
func (s *Service) Leave(ctx context.Context, code, userID string) error {
	return s.store.RemoveUser(ctx, Canonical(code), userID)
}

// Users returns the room's members ordered by join time.
func (s *Service) Users(ctx context.Context, code string) ([]models.User, error) {
	return s.store.ListUsers(ctx, Canonical(code))
}

// Member returns one member of a room, if present.
func (s *Service) Member(ctx context.Context, code, userID string) (models.User, bool, error) {
	users, err := s.store.ListUsers(ctx, Canonical(code))
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range users {
		if u.ID == userID {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// TargetLanguages resolves the deduplicated set of languages an utterance
// must be produced in: every other member's language plus the sender's own,
// so the sender can hear their message back. Returned sorted for determinism.
func (s *Service) TargetLanguages(ctx context.Context, code, senderID, senderLang string) ([]string, error) {
	users, err := s.store.ListUsers(ctx, Canonical(code))
	if err != nil {
		return nil, err
	}

	set := map[string]struct{}{senderLang: {}}
	for _, u := range users {
		if u.ID != senderID {
			set[u.Language] = struct{}{}
		}
	}

	targets := make([]string, 0, len(set))
	for lang := range set {
		targets = append(targets, lang)
	}
	sort.Strings(targets)
	return targets, nil
}

// Append pushes a processed message onto the room's backlog.
func (s *Service) Append(ctx context.Context, code string, msg *models.AudioMessage) error {
	err := s.store.AppendMessage(ctx, Canonical(code), msg)
	if errors.Is(err, store.ErrRoomNotFound) {
		return ErrRoomNotFound
	}
	return err
}

// PollMessage is one backlog entry shaped for a specific requester: the
// original text for reference plus the audio payload in their language.
type PollMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"ts"`
	Audio      string `json:"audio"` // base64
}

// PollResult is the read-side snapshot returned to a polling client.
type PollResult struct {
	Messages []PollMessage `json:"messages"`
	Users    []models.User `json:"users"`
	Cursor   int64         `json:"now"` // next `since` value for the caller
}

// Poll returns backlog messages newer than since that are relevant to the
// requester: self-authored messages are suppressed, and messages lacking an
// audio payload for the requester's language are silently omitted. The
// returned cursor is monotonically non-decreasing; the server keeps no
// per-client read state.
func (s *Service) Poll(ctx context.Context, code, userID, language string, since int64) (PollResult, error) {
	canonical := Canonical(code)

	exists, err := s.store.RoomExists(ctx, canonical)
	if err != nil {
		return PollResult{}, err
	}
	if !exists {
		return PollResult{}, ErrRoomNotFound
	}

	all, err := s.store.MessagesSince(ctx, canonical, since)
	if err != nil {
		return PollResult{}, err
	}

	messages := make([]PollMessage, 0, len(all))
	for _, m := range all {
		if m.SenderID == userID {
			continue
		}
		audio, ok := m.AudioByLanguage[language]
		if !ok || audio == "" {
			continue
		}
		messages = append(messages, PollMessage{
			ID:         m.ID,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Text:       m.Text,
			Timestamp:  m.Timestamp,
			Audio:      audio,
		})
	}

	users, err := s.store.ListUsers(ctx, canonical)
	if err != nil {
		return PollResult{}, err
	}

	cursor := s.clock.Now().UnixMilli()
	if cursor < since {
		cursor = since
	}

	return PollResult{Messages: messages, Users: users, Cursor: cursor}, nil
}
