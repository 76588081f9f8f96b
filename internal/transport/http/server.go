// Package http exposes the chat service over HTTP: a REST API for auth,
// message backfill, and the assistant, plus the /chat WebSocket endpoint
// bridged to the message router.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mohammed-Khaledx/connect-chat/internal/ai"
	"github.com/Mohammed-Khaledx/connect-chat/internal/auth"
	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
	"github.com/Mohammed-Khaledx/connect-chat/internal/config"
	"github.com/Mohammed-Khaledx/connect-chat/internal/store"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the HTTP server with all routes registered.
func NewServer(
	router *chat.Router,
	authService *auth.Service,
	assistant *ai.Assistant,
	st store.Store,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	authHandlers := NewAuthHandlers(authService, logger)
	messageHandlers := NewMessageHandlers(st, logger)
	userHandlers := NewUserHandlers(st, logger)
	aiHandlers := NewAIHandlers(assistant, logger)
	wsHandler := NewWSHandler(router, logger)

	engine.GET("/health", healthHandler)
	engine.GET("/chat", wsHandler.Handle)

	api := engine.Group("/api")
	{
		api.POST("/auth/signup", authHandlers.Signup)
		api.POST("/auth/login", authHandlers.Login)
		api.GET("/messages/global", messageHandlers.ListGlobal)
		api.POST("/ai/ask", aiHandlers.Ask)

		protected := api.Group("")
		protected.Use(AuthMiddleware(authService, logger))
		protected.GET("/users", userHandlers.ListUsernames)
		protected.GET("/messages/private/:otherId", messageHandlers.ListPrivate)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
