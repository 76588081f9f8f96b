package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newTestRouter(saver *memorySaver) (*Router, *Registry) {
	logger := zerolog.Nop()
	reg := NewRegistry()
	return NewRouter(reg, saver, &logger), reg
}

func connectSession(rt *Router, userID, userName string) *Session {
	s := NewSession(Identity{UserID: userID, UserName: userName})
	rt.HandleConnect(s)
	return s
}

func TestConnectBroadcastsPresence(t *testing.T) {
	rt, _ := newTestRouter(&memorySaver{})

	alice := connectSession(rt, "a1", "alice")
	notice := mustFrame(t, alice)

	if notice.Content != ContentUserConnected || !notice.Global {
		t.Fatalf("unexpected presence frame: %+v", notice)
	}
	if notice.SenderID != "a1" || notice.UserName != "alice" {
		t.Fatalf("presence frame carries wrong identity: %+v", notice)
	}
}

func TestDisconnectBroadcastsPresence(t *testing.T) {
	saver := &memorySaver{}
	rt, _ := newTestRouter(saver)

	alice := connectSession(rt, "a1", "alice")
	bob := connectSession(rt, "b1", "bob")

	rt.HandleDisconnect(alice)

	notice := skipUntil(t, bob, ContentUserDisconnected)
	if notice.SenderID != "a1" || !notice.Global {
		t.Fatalf("unexpected disconnect frame: %+v", notice)
	}
	// Presence events never reach persistence.
	if len(saver.saved) != 0 {
		t.Fatalf("presence events were persisted: %d", len(saver.saved))
	}
}

func TestDisconnectAfterReplacementIsSilent(t *testing.T) {
	rt, reg := newTestRouter(&memorySaver{})

	stale := connectSession(rt, "a1", "alice")
	fresh := connectSession(rt, "a1", "alice")
	observer := connectSession(rt, "b1", "bob")

	drain(observer)
	rt.HandleDisconnect(stale)

	mustNoFrame(t, observer)
	if _, ok := reg.Lookup("a1"); !ok {
		t.Fatal("fresh session should survive the stale disconnect")
	}
	_ = fresh
}

func TestGlobalDispatchReachesAllSessions(t *testing.T) {
	saver := &memorySaver{}
	rt, _ := newTestRouter(saver)

	alice := connectSession(rt, "a1", "alice")
	bob := connectSession(rt, "b1", "bob")
	drain(alice)
	drain(bob)

	rt.HandleInbound(context.Background(), alice, []byte(`{"content":"hi","global":true}`))

	for _, s := range []*Session{alice, bob} {
		msg := skipUntil(t, s, "hi")
		if msg.SenderID != "a1" || !msg.Global {
			t.Fatalf("unexpected frame for %s: %+v", s.UserID, msg)
		}
	}
	if len(saver.saved) != 1 {
		t.Fatalf("expected one persisted message, got %d", len(saver.saved))
	}
}

func TestGlobalDispatchSkipsFailedRecipient(t *testing.T) {
	rt, _ := newTestRouter(&memorySaver{})

	alice := connectSession(rt, "a1", "alice")
	bob := connectSession(rt, "b1", "bob")
	dead := connectSession(rt, "c1", "carol")
	dead.Close() // write failure: deliveries to this session now error
	drain(alice)
	drain(bob)

	rt.HandleInbound(context.Background(), alice, []byte(`{"content":"hi","global":true}`))

	skipUntil(t, alice, "hi")
	skipUntil(t, bob, "hi")
}

func TestPrivateDispatchEchoesToSender(t *testing.T) {
	rt, _ := newTestRouter(&memorySaver{})

	alice := connectSession(rt, "a1", "alice")
	bob := connectSession(rt, "b1", "bob")
	carol := connectSession(rt, "c1", "carol")
	drain(alice)
	drain(bob)
	drain(carol)

	rt.HandleInbound(context.Background(), bob, []byte(`{"content":"yo","receiverId":"a1"}`))

	for _, s := range []*Session{alice, bob} {
		msg := skipUntil(t, s, "yo")
		if msg.ReceiverID != "a1" || msg.Global || msg.SenderID != "b1" {
			t.Fatalf("unexpected private frame for %s: %+v", s.UserID, msg)
		}
	}
	mustNoFrame(t, carol)
}

func TestPrivateDispatchToOfflineReceiver(t *testing.T) {
	saver := &memorySaver{}
	rt, _ := newTestRouter(saver)

	alice := connectSession(rt, "a1", "alice")
	drain(alice)

	rt.HandleInbound(context.Background(), alice, []byte(`{"content":"anyone?","receiverId":"ghost"}`))

	// Message is persisted and echoed to the sender even with the receiver gone.
	msg := skipUntil(t, alice, "anyone?")
	if msg.SenderID != "a1" {
		t.Fatalf("unexpected echo: %+v", msg)
	}
	if len(saver.saved) != 1 {
		t.Fatalf("expected message to persist, got %d", len(saver.saved))
	}
}

func TestInboundSenderIsStampedFromSession(t *testing.T) {
	saver := &memorySaver{}
	rt, _ := newTestRouter(saver)

	alice := connectSession(rt, "a1", "alice")
	drain(alice)

	forged := []byte(`{"senderId":"b1","userName":"bob","content":"fake","global":true}`)
	rt.HandleInbound(context.Background(), alice, forged)

	msg := skipUntil(t, alice, "fake")
	if msg.SenderID != "a1" || msg.UserName != "alice" {
		t.Fatalf("forged identity survived dispatch: %+v", msg)
	}
	if saver.saved[0].SenderID != "a1" {
		t.Fatalf("forged identity persisted: %+v", saver.saved[0])
	}
}

func TestInboundBlankContentRejected(t *testing.T) {
	saver := &memorySaver{}
	rt, _ := newTestRouter(saver)

	alice := connectSession(rt, "a1", "alice")
	drain(alice)

	for _, payload := range []string{
		`{"content":"","global":true}`,
		`{"content":"   ","global":true}`,
	} {
		rt.HandleInbound(context.Background(), alice, []byte(payload))

		errFrame := mustFrame(t, alice)
		if errFrame.SenderID != SystemSenderID || errFrame.ReceiverID != "a1" {
			t.Fatalf("expected SYSTEM error frame, got %+v", errFrame)
		}
		mustNoFrame(t, alice)
	}
	if len(saver.saved) != 0 {
		t.Fatalf("blank content reached persistence: %d", len(saver.saved))
	}
}

func TestInboundUnparseablePayload(t *testing.T) {
	rt, _ := newTestRouter(&memorySaver{})

	alice := connectSession(rt, "a1", "alice")
	bob := connectSession(rt, "b1", "bob")
	drain(alice)
	drain(bob)

	rt.HandleInbound(context.Background(), alice, []byte(`{not json`))

	errFrame := mustFrame(t, alice)
	if errFrame.SenderID != SystemSenderID {
		t.Fatalf("expected SYSTEM frame, got %+v", errFrame)
	}
	mustNoFrame(t, bob)
}

func TestInboundPersistenceFailure(t *testing.T) {
	saver := &memorySaver{fail: errors.New("disk full")}
	rt, _ := newTestRouter(saver)

	alice := connectSession(rt, "a1", "alice")
	bob := connectSession(rt, "b1", "bob")
	drain(alice)
	drain(bob)

	rt.HandleInbound(context.Background(), alice, []byte(`{"content":"hi","global":true}`))

	// Persistence happens before delivery: nobody sees the message, the
	// sender sees an error.
	errFrame := mustFrame(t, alice)
	if errFrame.SenderID != SystemSenderID {
		t.Fatalf("expected SYSTEM frame, got %+v", errFrame)
	}
	mustNoFrame(t, bob)
}

func drain(s *Session) {
	for {
		select {
		case <-s.frames:
		default:
			return
		}
	}
}
