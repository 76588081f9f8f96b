// Package ai integrates the question-answering assistant: a synchronous
// request/response collaborator whose replies are stored and surfaced as
// global messages from AI_ASSISTANT.
package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
)

// Generator produces an answer for a prompt. Satisfied by GeminiClient and
// by fakes in tests.
type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// Assistant answers user questions and persists the replies.
type Assistant struct {
	generator Generator
	store     chat.MessageSaver
	log       *zerolog.Logger
}

// NewAssistant builds an assistant over the given generator and store.
func NewAssistant(generator Generator, store chat.MessageSaver, logger *zerolog.Logger) *Assistant {
	return &Assistant{
		generator: generator,
		store:     store,
		log:       logger,
	}
}

// Ask answers a question on behalf of a user. The reply is saved as a global
// message from AI_ASSISTANT and the stored form is returned. Failures come
// back as errors for the caller to surface; they never reach other clients.
func (a *Assistant) Ask(ctx context.Context, question, askerID, askerName string) (*chat.Message, error) {
	answer, err := a.generator.Generate(ctx, question)
	if err != nil {
		a.log.Error().Err(err).Str("asker_id", askerID).Msg("assistant generate")
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	reply := &chat.Message{
		SenderID:  chat.AssistantSenderID,
		UserName:  "AI Assistant",
		Content:   answer,
		Timestamp: chat.Now(),
		Global:    true,
	}

	saved, err := a.store.SaveMessage(ctx, reply)
	if err != nil {
		return nil, fmt.Errorf("save assistant reply: %w", err)
	}

	a.log.Info().Str("asker_id", askerID).Str("asker_name", askerName).Msg("assistant answered")
	return saved, nil
}
