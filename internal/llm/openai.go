package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingCredential is returned when no API key is configured. The
// orchestrator maps it (like any other completion failure) to a degraded,
// user-visible answer instead of failing the turn.
var ErrMissingCredential = errors.New("llm: API key not set")

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty model response")

// Client is the text-completion gateway used by the orchestrator. Complete
// sends one system/user prompt pair and returns the generated text.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, model string) (string, error)
}

// OpenAIClient calls the OpenAI chat completion API. The model passed to
// Complete wins; the configured default is used when it is empty.
type OpenAIClient struct {
	client       *openai.Client
	defaultModel string
	hasKey       bool
}

// NewOpenAIClient constructs an OpenAI-backed client. An empty default model
// falls back to gpt-4o-mini.
func NewOpenAIClient(apiKey, defaultModel string) *OpenAIClient {
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	return &OpenAIClient{
		client:       openai.NewClient(apiKey),
		defaultModel: defaultModel,
		hasKey:       apiKey != "",
	}
}

// Complete sends the prompt pair to the chat completion API and returns the
// assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, model string) (string, error) {
	if !c.hasKey {
		return "", ErrMissingCredential
	}
	if model == "" {
		model = c.defaultModel
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
