package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
)

type fakeGenerator struct {
	answer string
	err    error
	asked  string
}

func (f *fakeGenerator) Generate(_ context.Context, question string) (string, error) {
	f.asked = question
	return f.answer, f.err
}

type fakeSaver struct {
	saved *chat.Message
	fail  error
}

func (f *fakeSaver) SaveMessage(_ context.Context, msg *chat.Message) (*chat.Message, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	stored := *msg
	stored.ID = "m1"
	f.saved = &stored
	return &stored, nil
}

func TestAskPersistsGlobalReply(t *testing.T) {
	logger := zerolog.Nop()
	gen := &fakeGenerator{answer: "the answer is 42"}
	saver := &fakeSaver{}
	assistant := NewAssistant(gen, saver, &logger)

	reply, err := assistant.Ask(context.Background(), "what is the answer?", "a1", "alice")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if gen.asked != "what is the answer?" {
		t.Fatalf("question not forwarded: %q", gen.asked)
	}
	if reply.SenderID != chat.AssistantSenderID || !reply.Global {
		t.Fatalf("unexpected reply shape: %+v", reply)
	}
	if reply.Content != "the answer is 42" || reply.ID == "" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if saver.saved == nil {
		t.Fatal("reply was not persisted")
	}
}

func TestAskSurfacesGeneratorFailure(t *testing.T) {
	logger := zerolog.Nop()
	assistant := NewAssistant(&fakeGenerator{err: errors.New("quota exceeded")}, &fakeSaver{}, &logger)

	if _, err := assistant.Ask(context.Background(), "q", "a1", "alice"); err == nil {
		t.Fatal("expected generator failure to surface")
	}
}

func TestAskSurfacesSaveFailure(t *testing.T) {
	logger := zerolog.Nop()
	assistant := NewAssistant(&fakeGenerator{answer: "ok"}, &fakeSaver{fail: errors.New("disk full")}, &logger)

	if _, err := assistant.Ask(context.Background(), "q", "a1", "alice"); err == nil {
		t.Fatal("expected save failure to surface")
	}
}
