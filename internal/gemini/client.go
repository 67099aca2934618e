// Package gemini talks to Google Gemini through its OpenAI-compatible
// chat-completions endpoint.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.0-flash"
)

var (
	ErrAPIKeyMissing = errors.New("GEMINI_API_KEY is not set")
	ErrRateLimited   = errors.New("gemini rate limit exceeded")
	ErrEmptyResponse = errors.New("gemini returned no choices")
)

// Generator produces text for a single prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Client wraps an OpenAI-compatible API client pointed at Gemini.
type Client struct {
	api   *openai.Client
	model string
	log   zerolog.Logger
}

// New creates a Gemini client. An empty apiKey is accepted so the server can
// boot without one; every call then fails with ErrAPIKeyMissing.
func New(baseURL, apiKey, modelName string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	c := &Client{model: modelName, log: log}
	if apiKey != "" {
		config := openai.DefaultConfig(apiKey)
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
		c.api = openai.NewClientWithConfig(config)
	}
	return c
}

// GenerateContent sends prompt as a single user message and returns the text
// of the first choice.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c.api == nil {
		return "", ErrAPIKeyMissing
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if isRateLimit(err) {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		c.log.Error().Err(err).Str("model", c.model).Msg("Gemini request failed")
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := resp.Choices[0].Message.Content
	c.log.Debug().Int("chars", len(text)).Msg("Gemini response received")
	return text, nil
}

func isRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
