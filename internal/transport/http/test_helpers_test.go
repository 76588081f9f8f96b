package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/Mohammed-Khaledx/connect-chat/internal/ai"
	"github.com/Mohammed-Khaledx/connect-chat/internal/auth"
	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
	"github.com/Mohammed-Khaledx/connect-chat/internal/config"
	"github.com/Mohammed-Khaledx/connect-chat/internal/store/sqlite"
)

// stubGenerator answers every question with a fixed reply.
type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Generate(context.Context, string) (string, error) {
	return s.reply, s.err
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	registry := chat.NewRegistry()
	router := chat.NewRouter(registry, st, &logger)

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	assistant := ai.NewAssistant(&stubGenerator{reply: "42"}, st, &logger)

	server := NewServer(router, authService, assistant, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dialChat(t *testing.T, ctx context.Context, ts *httptest.Server, userID, userName string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/chat?userId=" + userID + "&userName=" + userName
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", userID, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// recvUntil reads frames until one matches the content, failing on timeout
// via the context deadline.
func recvUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, content string) *chat.Message {
	t.Helper()

	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read waiting for %q: %v", content, err)
		}
		var msg chat.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("undecodable frame: %v", err)
		}
		if msg.Content == content {
			return &msg
		}
	}
}
