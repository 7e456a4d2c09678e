// Package generate provides the generative fallbacks behind suggest.Generator:
// an OpenAI-compatible chat model, a fixed word list for offline use, and
// decorators for rate limiting and instrumentation.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

const systemPrompt = "You complete words. The user sends the beginning of a single word. " +
	"Reply with only the letters that finish that word, no spaces, no punctuation, no explanation."

// OpenAIConfig holds the chat model settings
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// OpenAI samples word continuations from an OpenAI-compatible chat
// completions endpoint, one choice per requested continuation.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	topP        float32
	maxTokens   int
}

// NewOpenAI creates a generator for the given endpoint. An empty BaseURL
// keeps the client default.
func NewOpenAI(cfg *OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
	}
}

// Generate implements suggest.Generator
func (g *OpenAI) Generate(ctx context.Context, prefix string, count int) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prefix},
		},
		N:           count,
		Temperature: g.temperature,
		TopP:        g.topP,
		MaxTokens:   g.maxTokens,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, mapAPIError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty chat completion response", suggest.ErrAdapterUnavailable)
	}

	out := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		out = append(out, continuation(prefix, choice.Message.Content))
	}
	return out, nil
}

// continuation extracts the next word fragment from a model reply: the
// first whitespace separated token, surrounding punctuation trimmed.
// A token equal to the prefix is an echo with nothing after it. A token
// that starts with a prefix of two or more letters and runs past it is
// taken as the whole word and the prefix is cut; a single letter prefix
// is never cut, since "a" followed by "ato" is as likely a real fragment.
func continuation(prefix, reply string) string {
	fields := strings.Fields(utils.NormalizeWord(strings.TrimSpace(reply)))
	if len(fields) == 0 {
		return ""
	}
	token := strings.TrimFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})

	switch {
	case token == prefix:
		return ""
	case utils.RuneLen(prefix) >= 2 && len(token) > len(prefix) && strings.HasPrefix(token, prefix):
		return token[len(prefix):]
	default:
		return token
	}
}

// mapAPIError folds client failures into the engine's adapter errors
func mapAPIError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", suggest.ErrAdapterTimeout, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: chat API error %d: %s", suggest.ErrAdapterUnavailable, reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: chat API error %d: %s", suggest.ErrAdapterUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("%w: chat request failed: %w", suggest.ErrAdapterUnavailable, err)
}
