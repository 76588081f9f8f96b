package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mohammed-Khaledx/connect-chat/internal/ai"
)

// AIHandlers provides HTTP handlers for the assistant collaborator.
type AIHandlers struct {
	assistant *ai.Assistant
	log       *zerolog.Logger
}

// NewAIHandlers creates a new AI handlers instance.
func NewAIHandlers(assistant *ai.Assistant, logger *zerolog.Logger) *AIHandlers {
	return &AIHandlers{
		assistant: assistant,
		log:       logger,
	}
}

// AskRequest represents the assistant question body.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
	UserID   string `json:"userId" binding:"required"`
	UserName string `json:"userName" binding:"required"`
}

// Ask forwards a question to the assistant and returns the stored reply.
// POST /api/ai/ask
func (h *AIHandlers) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid ask request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reply, err := h.assistant.Ask(c.Request.Context(), req.Question, req.UserID, req.UserName)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("assistant ask failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get assistant response"})
		return
	}

	c.JSON(http.StatusOK, reply)
}
