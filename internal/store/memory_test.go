package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/danschewy/townhall/internal/clock"
	"github.com/danschewy/townhall/internal/models"
)

const testTTL = time.Hour

func newTestStore(t *testing.T) (*MemoryStore, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewMemoryStore(clk, testTTL, 50), clk
}

func mustCreate(t *testing.T, s *MemoryStore, clk *clock.Fake, code string) {
	t.Helper()
	if err := s.CreateRoom(context.Background(), code, clk.Now()); err != nil {
		t.Fatal(err)
	}
}

func TestCreateRoomCollision(t *testing.T) {
	s, clk := newTestStore(t)
	mustCreate(t, s, clk, "ABCDEF")

	err := s.CreateRoom(context.Background(), "ABCDEF", clk.Now())
	if err != ErrRoomExists {
		t.Fatalf("expected ErrRoomExists, got %v", err)
	}
}

func TestRoomExpiry(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)
	mustCreate(t, s, clk, "ABCDEF")

	clk.Advance(testTTL - time.Minute)
	exists, _ := s.RoomExists(ctx, "ABCDEF")
	if !exists {
		t.Fatal("room expired before TTL")
	}

	clk.Advance(time.Minute)
	exists, _ = s.RoomExists(ctx, "ABCDEF")
	if exists {
		t.Fatal("room survived past TTL")
	}
}

func TestMutationRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)
	mustCreate(t, s, clk, "ABCDEF")

	// A join just before expiry slides the window out a full TTL.
	clk.Advance(testTTL - time.Minute)
	if err := s.AddUser(ctx, "ABCDEF", models.User{ID: "u1", Language: "en"}); err != nil {
		t.Fatal(err)
	}

	clk.Advance(testTTL - time.Minute)
	exists, _ := s.RoomExists(ctx, "ABCDEF")
	if !exists {
		t.Fatal("TTL was not refreshed by mutation")
	}

	clk.Advance(2 * time.Minute)
	exists, _ = s.RoomExists(ctx, "ABCDEF")
	if exists {
		t.Fatal("room survived past refreshed TTL")
	}
}

func TestAddUserToMissingRoom(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.AddUser(context.Background(), "NOSUCH", models.User{ID: "u1"})
	if err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRemoveUserIdempotent(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)
	mustCreate(t, s, clk, "ABCDEF")

	if err := s.AddUser(ctx, "ABCDEF", models.User{ID: "u1", Language: "en"}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := s.RemoveUser(ctx, "ABCDEF", "u1"); err != nil {
			t.Fatalf("remove %d: %v", i+1, err)
		}
	}
	// Non-member and missing-room removals also succeed.
	if err := s.RemoveUser(ctx, "ABCDEF", "stranger"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveUser(ctx, "NOSUCH", "u1"); err != nil {
		t.Fatal(err)
	}

	users, _ := s.ListUsers(ctx, "ABCDEF")
	if len(users) != 0 {
		t.Fatalf("expected empty membership, got %d users", len(users))
	}
}

func TestListUsersOrderedByJoinTime(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)
	mustCreate(t, s, clk, "ABCDEF")

	for _, id := range []string{"c", "a", "b"} {
		if err := s.AddUser(ctx, "ABCDEF", models.User{ID: id, JoinedAt: clk.Now().UnixMilli()}); err != nil {
			t.Fatal(err)
		}
		clk.Advance(time.Second)
	}

	users, err := s.ListUsers(ctx, "ABCDEF")
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(users))
	for i, u := range users {
		got[i] = u.ID
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected join order %v, got %v", want, got)
		}
	}
}

func TestBacklogBound(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)
	mustCreate(t, s, clk, "ABCDEF")

	for i := 0; i < 60; i++ {
		msg := &models.AudioMessage{
			ID:        fmt.Sprintf("msg-%02d", i),
			Timestamp: clk.Now().UnixMilli(),
		}
		if err := s.AppendMessage(ctx, "ABCDEF", msg); err != nil {
			t.Fatal(err)
		}
		clk.Advance(time.Second)
	}

	msgs, err := s.MessagesSince(ctx, "ABCDEF", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(msgs))
	}
	// Oldest evicted first; survivors keep their relative order.
	if msgs[0].ID != "msg-10" || msgs[49].ID != "msg-59" {
		t.Fatalf("expected msg-10..msg-59, got %s..%s", msgs[0].ID, msgs[49].ID)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp < msgs[i-1].Timestamp {
			t.Fatal("messages out of timestamp order")
		}
	}
}

func TestMessagesSinceCursor(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)
	mustCreate(t, s, clk, "ABCDEF")

	var cut int64
	for i := 0; i < 5; i++ {
		if i == 3 {
			cut = clk.Now().UnixMilli()
		}
		msg := &models.AudioMessage{
			ID:        fmt.Sprintf("msg-%d", i),
			Timestamp: clk.Now().UnixMilli(),
		}
		if err := s.AppendMessage(ctx, "ABCDEF", msg); err != nil {
			t.Fatal(err)
		}
		clk.Advance(time.Second)
	}

	// Strictly-greater-than filter: the message stamped at the cursor is
	// excluded.
	msgs, err := s.MessagesSince(ctx, "ABCDEF", cut)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != "msg-4" {
		t.Fatalf("expected only msg-4 after cursor, got %d messages", len(msgs))
	}
}
