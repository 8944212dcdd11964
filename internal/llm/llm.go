package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/quizforge/internal/generate"
	"github.com/pavelanni/quizforge/internal/llm/prompts"
)

// DefaultTemperature is used when none is configured.
const DefaultTemperature = 0.4

// Client generates quizzes through an OpenAI-compatible chat completion API.
// It implements generate.Backend.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string, temperature float32) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: temperature,
	}
}

// Generate asks the model for a quiz. The reply is returned unparsed; the
// generate package validates it.
func (c *Client) Generate(ctx context.Context, req generate.Request) (generate.Output, error) {
	system, user, err := prompts.Build(req)
	if err != nil {
		return generate.Output{}, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return generate.Output{Debug: map[string]any{"model": c.model}}, fmt.Errorf("LLM API call: %w", err)
	}

	debug := map[string]any{
		"model": resp.Model,
		"usage": map[string]int{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) == 0 {
		return generate.Output{Debug: debug}, errors.New("LLM returned no choices")
	}

	choice := resp.Choices[0]
	debug["finish_reason"] = string(choice.FinishReason)
	raw := choice.Message.Content
	slog.Debug("LLM response", "model", resp.Model, "bytes", len(raw), "finish_reason", choice.FinishReason)

	out := generate.Output{Payload: []byte(raw), Debug: debug}
	if choice.FinishReason == openai.FinishReasonLength {
		return out, errors.New("LLM response truncated: token limit reached")
	}
	return out, nil
}

// Ping checks that the API is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM API unreachable: %w", err)
	}
	return nil
}
