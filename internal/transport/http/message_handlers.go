package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mohammed-Khaledx/connect-chat/internal/store"
)

const defaultBackfillLimit = 100

// MessageHandlers provides HTTP handlers for message history.
type MessageHandlers struct {
	store store.MessageStore
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.MessageStore, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		log:   logger,
	}
}

// ListGlobal returns global messages, newest first. Clients use it to
// backfill the chat view on startup.
// GET /api/messages/global?limit=100
func (h *MessageHandlers) ListGlobal(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	messages, err := h.store.ListGlobalMessages(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list global messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// ListPrivate returns the private conversation between the authenticated
// user and the named other user, newest first.
// GET /api/messages/private/:otherId
func (h *MessageHandlers) ListPrivate(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)
	otherID := c.Param("otherId")
	if otherID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "other user id is required"})
		return
	}

	messages, err := h.store.ListPrivateMessages(c.Request.Context(), userID, otherID, parseLimit(c.Query("limit")))
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to list private messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultBackfillLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultBackfillLimit
	}
	return limit
}
