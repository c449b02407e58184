package chat

import (
	"context"
	"errors"
	"fmt"

	"sixhats/internal/domain"
)

const (
	DefaultTemperature     float32 = 0.7
	DefaultMaxOutputTokens         = 200

	// ErrorPrefix marks a hat contribution that is a failed completion.
	ErrorPrefix = "Error: "
)

type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int
	Messages        []Message
}

type Message struct {
	Role domain.Role
	Text string
}

type ModelConfig struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int
}

func (c ModelConfig) Validate() error {
	if c.Model == "" {
		return errors.New("model is required")
	}
	// written so NaN fails too
	if !(c.Temperature >= 0 && c.Temperature <= 2) {
		return fmt.Errorf("temperature %v out of range [0,2]", c.Temperature)
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", c.MaxOutputTokens)
	}
	return nil
}

// CompletionServiceError is any failure talking to the completion service.
type CompletionServiceError struct {
	Op  string
	Err error
}

func (e *CompletionServiceError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CompletionServiceError) Unwrap() error { return e.Err }

// buildMessages frames the transcript with the persona instruction. Persona
// labels stay behind; only role and content reach the service.
func buildMessages(instruction string, transcript []domain.Message) []Message {
	messages := make([]Message, 0, len(transcript)+1)
	messages = append(messages, Message{
		Role: domain.RoleSystem,
		Text: instruction,
	})
	for _, m := range transcript {
		messages = append(messages, Message{
			Role: m.Role,
			Text: m.Content,
		})
	}
	return messages
}
