package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sixhats/internal/domain"
)

var ErrEmptyInput = errors.New("empty input")

type TurnResult struct {
	Transcript []domain.Message
	Synthesis  string

	start int
}

// Turn returns a copy of the records appended by this turn: the user message
// followed by one record per hat.
func (r TurnResult) Turn() []domain.Message {
	return domain.CloneTranscript(r.Transcript[r.start:])
}

// Orchestrator runs one turn through every hat in order. It holds no
// conversation state; RunTurn depends only on its arguments.
type Orchestrator struct {
	client   Client
	registry *domain.Registry
	model    ModelConfig
	logger   *zap.Logger
}

func NewOrchestrator(client Client, registry *domain.Registry, model ModelConfig, logger *zap.Logger) (*Orchestrator, error) {
	if client == nil {
		return nil, errors.New("completion client is required")
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("model config: %w", err)
	}
	if registry == nil {
		registry = domain.DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client:   client,
		registry: registry,
		model:    model,
		logger:   logger,
	}, nil
}

// RunTurn appends userText and every hat's response to a copy of transcript.
// A failed completion becomes that hat's content and the turn carries on.
// The context is checked between hats; on cancellation nothing is returned
// for the caller to apply.
func (o *Orchestrator) RunTurn(ctx context.Context, userText string, transcript []domain.Message) (TurnResult, error) {
	if strings.TrimSpace(userText) == "" {
		return TurnResult{}, ErrEmptyInput
	}

	seq := domain.Sequence()
	working := make([]domain.Message, 0, len(transcript)+1+len(seq))
	working = append(working, transcript...)
	start := len(working)
	working = append(working, domain.Message{
		Role:    domain.RoleUser,
		Content: userText,
	})

	var synthesis string
	for _, id := range seq {
		if err := ctx.Err(); err != nil {
			return TurnResult{}, err
		}
		instruction, err := o.registry.InstructionFor(id)
		if err != nil {
			return TurnResult{}, err
		}

		content := o.speak(ctx, id, instruction, working)
		working = append(working, domain.Message{
			Role:    domain.RoleAssistant,
			Content: content,
			Persona: id.Label(),
		})
		if id == domain.Synthesizer {
			synthesis = content
		}
	}

	return TurnResult{
		Transcript: working,
		Synthesis:  synthesis,
		start:      start,
	}, nil
}

func (o *Orchestrator) speak(ctx context.Context, id domain.PersonaID, instruction string, transcript []domain.Message) string {
	o.logger.Debug("calling hat",
		zap.String("persona", string(id)),
		zap.Int("transcript_len", len(transcript)))

	resp, err := o.client.Complete(ctx, CompletionRequest{
		Model:           o.model.Model,
		Temperature:     o.model.Temperature,
		MaxOutputTokens: o.model.MaxOutputTokens,
		Messages:        buildMessages(instruction, transcript),
	})
	if err != nil {
		o.logger.Warn("hat completion failed",
			zap.String("persona", string(id)),
			zap.Error(err))
		return ErrorPrefix + err.Error()
	}
	return resp
}
