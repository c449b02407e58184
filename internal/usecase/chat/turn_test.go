package chat

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sixhats/internal/domain"
)

var testModel = ModelConfig{
	Model:           "gpt-4o-mini",
	Temperature:     DefaultTemperature,
	MaxOutputTokens: DefaultMaxOutputTokens,
}

func mustOrchestrator(t *testing.T, client Client, registry *domain.Registry) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(client, registry, testModel, nil)
	require.NoError(t, err)
	return o
}

func labels(msgs []domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Persona)
	}
	return out
}

func roles(msgs []domain.Message) []domain.Role {
	out := make([]domain.Role, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Role)
	}
	return out
}

func TestRunTurnFromEmptyTranscript(t *testing.T) {
	client := &fakeClient{}
	o := mustOrchestrator(t, client, nil)

	res, err := o.RunTurn(context.Background(), "Should we launch the product now?", nil)
	require.NoError(t, err)
	require.Len(t, res.Transcript, 7)

	wantRoles := []domain.Role{
		domain.RoleUser,
		domain.RoleAssistant, domain.RoleAssistant, domain.RoleAssistant,
		domain.RoleAssistant, domain.RoleAssistant, domain.RoleAssistant,
	}
	if diff := cmp.Diff(wantRoles, roles(res.Transcript)); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}
	wantLabels := []string{"White", "Red", "Black", "Yellow", "Green", "Blue"}
	if diff := cmp.Diff(wantLabels, labels(res.Transcript[1:])); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "Should we launch the product now?", res.Transcript[0].Content)
	assert.Empty(t, res.Transcript[0].Persona)
	assert.Equal(t, "Blue says", res.Synthesis)
	assert.Equal(t, res.Transcript[6].Content, res.Synthesis)
	assert.Equal(t, res.Transcript, res.Turn())
}

func TestTurnIsACopy(t *testing.T) {
	o := mustOrchestrator(t, &fakeClient{}, nil)
	res, err := o.RunTurn(context.Background(), "q", []domain.Message{{Role: domain.RoleUser, Content: "before"}})
	require.NoError(t, err)

	turn := res.Turn()
	require.Len(t, turn, 7)
	turn[0].Content = "edited"
	turn[6].Content = "edited"

	assert.Equal(t, "q", res.Transcript[1].Content)
	assert.Equal(t, "Blue says", res.Transcript[7].Content)
	assert.Equal(t, "q", res.Turn()[0].Content)
}

func TestNewOrchestratorRejectsBadConfig(t *testing.T) {
	_, err := NewOrchestrator(&fakeClient{}, nil, ModelConfig{Model: "m", Temperature: 0.7, MaxOutputTokens: 0}, nil)
	assert.ErrorContains(t, err, "max output tokens")

	_, err = NewOrchestrator(&fakeClient{}, nil, ModelConfig{Model: "m", Temperature: float32(math.NaN()), MaxOutputTokens: 200}, nil)
	assert.ErrorContains(t, err, "temperature")

	_, err = NewOrchestrator(nil, nil, testModel, nil)
	assert.Error(t, err)
}

func TestRunTurnMonotonicVisibility(t *testing.T) {
	prior := []domain.Message{
		{Role: domain.RoleUser, Content: "earlier"},
		{Role: domain.RoleAssistant, Content: "earlier answer", Persona: "Blue"},
	}
	client := &fakeClient{}
	o := mustOrchestrator(t, client, nil)

	res, err := o.RunTurn(context.Background(), "next", prior)
	require.NoError(t, err)
	require.Len(t, client.requests, 6)
	require.Len(t, res.Transcript, len(prior)+7)
	assert.Len(t, res.Turn(), 7)
	assert.Equal(t, "next", res.Turn()[0].Content)

	for k, req := range client.requests {
		// system entry + prior + user + earlier hats of this turn
		wantTranscript := len(prior) + 1 + k
		require.Len(t, req.Messages, wantTranscript+1, "hat %d", k+1)
		assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
		for i, m := range res.Transcript[:wantTranscript] {
			assert.Equal(t, m.Role, req.Messages[i+1].Role)
			assert.Equal(t, m.Content, req.Messages[i+1].Text)
		}

		assert.Equal(t, testModel.Model, req.Model)
		assert.Equal(t, testModel.Temperature, req.Temperature)
		assert.Equal(t, testModel.MaxOutputTokens, req.MaxOutputTokens)
	}

	// the caller's transcript is not touched
	assert.Len(t, prior, 2)
	assert.Equal(t, "earlier answer", prior[1].Content)
}

func TestRunTurnSendsPersonaInstructions(t *testing.T) {
	registry := domain.DefaultRegistry()
	client := &fakeClient{}
	o := mustOrchestrator(t, client, registry)

	_, err := o.RunTurn(context.Background(), "q", nil)
	require.NoError(t, err)

	for i, id := range domain.Sequence() {
		want, err := registry.InstructionFor(id)
		require.NoError(t, err)
		assert.Equal(t, want, client.requests[i].Messages[0].Text)
	}
}

func TestRunTurnFailedHatKeepsGoing(t *testing.T) {
	client := &fakeClient{failOn: "Black"}
	o := mustOrchestrator(t, client, nil)

	res, err := o.RunTurn(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, res.Turn(), 7)
	require.Len(t, client.requests, 6)

	black := res.Turn()[3]
	assert.Equal(t, "Black", black.Persona)
	assert.True(t, strings.HasPrefix(black.Content, ErrorPrefix), black.Content)
	assert.Contains(t, black.Content, "quota exceeded")

	// yellow, green and blue all see the error text
	for _, req := range client.requests[3:] {
		assert.Equal(t, black.Content, req.Messages[4].Text)
	}
	assert.Equal(t, "Blue says", res.Synthesis)
}

func TestRunTurnEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t "} {
		client := &fakeClient{}
		o := mustOrchestrator(t, client, nil)
		prior := []domain.Message{{Role: domain.RoleUser, Content: "x"}}

		_, err := o.RunTurn(context.Background(), in, prior)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Empty(t, client.requests)
		assert.Len(t, prior, 1)
	}
}

func TestRunTurnCancelledBetweenHats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{onCall: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	o := mustOrchestrator(t, client, nil)

	_, err := o.RunTurn(ctx, "q", nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, client.requests, 2)
}

func TestModelConfigValidate(t *testing.T) {
	assert.NoError(t, testModel.Validate())

	bad := []ModelConfig{
		{Model: "", Temperature: 0.7, MaxOutputTokens: 200},
		{Model: "m", Temperature: -0.1, MaxOutputTokens: 200},
		{Model: "m", Temperature: 2.1, MaxOutputTokens: 200},
		{Model: "m", Temperature: 0.7, MaxOutputTokens: 0},
		{Model: "m", Temperature: float32(math.NaN()), MaxOutputTokens: 200},
		{Model: "m", Temperature: float32(math.Inf(1)), MaxOutputTokens: 200},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}
	assert.NoError(t, ModelConfig{Model: "m", Temperature: 2, MaxOutputTokens: 1}.Validate())
}

func TestCompletionServiceError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&CompletionServiceError{Op: "openai", Err: cause})
	assert.Equal(t, "openai: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "boom", (&CompletionServiceError{Err: cause}).Error())
}
