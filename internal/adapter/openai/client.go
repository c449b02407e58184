package openai

import (
	"context"
	"errors"
	"strings"

	openaiapi "github.com/sashabaranov/go-openai"

	"sixhats/internal/domain"
	"sixhats/internal/usecase/chat"
)

const opCreate = "openai: create chat completion"

type Client struct {
	api *openaiapi.Client
}

func NewClient(token string) *Client {
	return &Client{
		api: openaiapi.NewClient(token),
	}
}

// NewClientWithBaseURL targets an OpenAI-compatible endpoint, e.g.
// "http://localhost:11434/v1". An empty baseURL uses the public API.
func NewClientWithBaseURL(token, baseURL string) *Client {
	if baseURL == "" {
		return NewClient(token)
	}
	cfg := openaiapi.DefaultConfig(token)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		api: openaiapi.NewClientWithConfig(cfg),
	}
}

// Complete returns the trimmed text of the first choice. Every failure is
// reported as *chat.CompletionServiceError.
func (c *Client) Complete(ctx context.Context, req chat.CompletionRequest) (string, error) {
	apiReq := openaiapi.ChatCompletionRequest{
		Model:               req.Model,
		Temperature:         req.Temperature,
		MaxCompletionTokens: req.MaxOutputTokens,
		Stream:              false,
		Messages:            toAPIMessages(req.Messages),
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return "", &chat.CompletionServiceError{Op: opCreate, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &chat.CompletionServiceError{Op: opCreate, Err: errors.New("openai returned empty response")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func toAPIMessages(msgs []chat.Message) []openaiapi.ChatCompletionMessage {
	res := make([]openaiapi.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, openaiapi.ChatCompletionMessage{
			Role:    toAPIRole(m.Role),
			Content: m.Text,
		})
	}
	return res
}

func toAPIRole(role domain.Role) string {
	switch role {
	case domain.RoleSystem:
		return openaiapi.ChatMessageRoleSystem
	case domain.RoleAssistant:
		return openaiapi.ChatMessageRoleAssistant
	default:
		return openaiapi.ChatMessageRoleUser
	}
}
