package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// memorySaver is an in-memory persistence gateway for router tests.
type memorySaver struct {
	saved []*Message
	fail  error
}

func (m *memorySaver) SaveMessage(_ context.Context, msg *Message) (*Message, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	stored := *msg
	stored.ID = "m1"
	if stored.Timestamp.IsZero() {
		stored.Timestamp = Now()
	}
	m.saved = append(m.saved, &stored)
	return &stored, nil
}

func mustFrame(t *testing.T, s *Session) *Message {
	t.Helper()

	select {
	case frame := <-s.frames:
		var msg Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			t.Fatalf("undecodable frame: %v", err)
		}
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatalf("expected frame for %s not received", s.UserID)
		return nil
	}
}

func mustNoFrame(t *testing.T, s *Session) {
	t.Helper()

	select {
	case frame := <-s.frames:
		t.Fatalf("unexpected frame for %s: %s", s.UserID, frame)
	case <-time.After(50 * time.Millisecond):
	}
}

// skipUntil discards frames until one matches the content, failing on timeout.
func skipUntil(t *testing.T, s *Session, content string) *Message {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msg := mustFrame(t, s)
		if msg.Content == content {
			return msg
		}
	}
	t.Fatalf("frame with content %q not received by %s", content, s.UserID)
	return nil
}
