package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSaveMessageAssignsIDAndTimestamp(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	saved, err := st.SaveMessage(ctx, &chat.Message{
		SenderID: "a1",
		UserName: "alice",
		Content:  "hi",
		Global:   true,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if saved.Timestamp.IsZero() {
		t.Fatal("expected a stamped timestamp")
	}
}

func TestSaveMessageKeepsProvidedTimestamp(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	stamp := chat.Timestamp{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	saved, err := st.SaveMessage(ctx, &chat.Message{
		SenderID:  "a1",
		UserName:  "alice",
		Content:   "hi",
		Timestamp: stamp,
		Global:    true,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !saved.Timestamp.Equal(stamp.Time) {
		t.Fatalf("timestamp changed: got %v want %v", saved.Timestamp, stamp)
	}
}

func TestListGlobalMessagesNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		_, err := st.SaveMessage(ctx, &chat.Message{
			SenderID:  "a1",
			UserName:  "alice",
			Content:   content,
			Timestamp: chat.Timestamp{Time: base.Add(time.Duration(i) * time.Minute)},
			Global:    true,
		})
		if err != nil {
			t.Fatalf("save %q: %v", content, err)
		}
	}
	// Private messages must not leak into the global backfill.
	if _, err := st.SaveMessage(ctx, &chat.Message{
		SenderID: "a1", UserName: "alice", ReceiverID: "b1", Content: "psst",
	}); err != nil {
		t.Fatalf("save private: %v", err)
	}

	messages, err := st.ListGlobalMessages(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 global messages, got %d", len(messages))
	}
	if messages[0].Content != "third" || messages[2].Content != "first" {
		t.Fatalf("wrong order: %q ... %q", messages[0].Content, messages[2].Content)
	}
}

func TestListPrivateMessagesBothDirections(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	pairs := []struct{ from, to, content string }{
		{"a1", "b1", "hey bob"},
		{"b1", "a1", "hey alice"},
		{"a1", "c1", "hey carol"},
	}
	for _, p := range pairs {
		if _, err := st.SaveMessage(ctx, &chat.Message{
			SenderID: p.from, UserName: p.from, ReceiverID: p.to, Content: p.content,
		}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	messages, err := st.ListPrivateMessages(ctx, "a1", "b1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected both directions of the a1/b1 conversation, got %d", len(messages))
	}
	for _, msg := range messages {
		if msg.Content == "hey carol" {
			t.Fatal("unrelated conversation leaked into the result")
		}
	}
}

func TestCreateAndFetchUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == "" || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	byEmail, err := st.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("email lookup returned different user: %s vs %s", byEmail.ID, user.ID)
	}

	if _, err := st.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateUser(ctx, "alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.CreateUser(ctx, "alice2", "alice@example.com", "hash"); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestListUsernames(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		if _, err := st.CreateUser(ctx, name, name+"@example.com", "hash"); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	names, err := st.ListUsernames(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 3 || names[0] != "alice" || names[2] != "carol" {
		t.Fatalf("unexpected usernames: %v", names)
	}
}
