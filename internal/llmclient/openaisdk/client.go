// Package openaisdk is an alternate ChatClient backed by the official
// github.com/openai/openai-go/v3 SDK, selected via LLM_PROVIDER=openai-sdk.
//
// Grounded on the teacher's pkg/llm/openailm/client.go, trimmed of
// tool-calling, image content parts and reasoning-content capture:
// this domain only ever exchanges plain text turns.
package openaisdk

import (
	"context"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"gamal/internal/errs"
	"gamal/internal/llmclient"
	"gamal/internal/rag"
)

func init() {
	llmclient.RegisterProvider("openai-sdk", func(cfg llmclient.ProviderConfig) (llmclient.ChatClient, error) {
		return New(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	})
}

// Client wraps the official SDK's chat-completions client.
type Client struct {
	sdk   openai.Client
	model string
}

// New builds a Client. baseURL may be empty to use the SDK's default.
func New(apiKey, baseURL, model string) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{sdk: openai.NewClient(opts...), model: model}
}

func (c *Client) convertMessages(messages []rag.Message) []openai.ChatCompletionMessageParamUnion {
	items := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case rag.RoleSystem:
			items = append(items, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Role:    "system",
					Content: openai.ChatCompletionSystemMessageParamContentUnion{OfString: openai.String(m.Content)},
				},
			})
		case rag.RoleAssistant:
			items = append(items, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:    "assistant",
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)},
				},
			})
		default:
			items = append(items, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Role:    "user",
					Content: openai.ChatCompletionUserMessageParamContentUnion{OfString: openai.String(m.Content)},
				},
			})
		}
	}
	return items
}

// Chat implements llmclient.ChatClient.
func (c *Client) Chat(ctx context.Context, messages []rag.Message, sink func(delta string)) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: c.convertMessages(messages),
	}

	if sink == nil {
		resp, err := c.sdk.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", errs.Wrap(errs.KindLLM, "openai-sdk request failed", err)
		}
		if len(resp.Choices) == 0 {
			return "", errs.New(errs.KindLLM, "openai-sdk response had no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)
	var answer strings.Builder
	seenFirst := false
	for stream.Next() {
		event := stream.Current()
		if len(event.Choices) == 0 {
			continue
		}
		delta := event.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if !seenFirst {
			delta = strings.TrimLeft(delta, " \t\r\n")
			seenFirst = true
			if delta == "" {
				continue
			}
		}
		answer.WriteString(delta)
		sink(delta)
	}
	if err := stream.Err(); err != nil {
		return answer.String(), errs.Wrap(errs.KindLLM, "openai-sdk stream failed", err)
	}
	return answer.String(), nil
}

// IsTransientError classifies common transport-level failures as
// retryable, for callers that choose to retry against this provider.
func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout")
}
