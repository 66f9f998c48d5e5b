// Package geministream is an alternate ChatClient backed by
// google.golang.org/genai, selected via LLM_PROVIDER=gemini.
//
// Grounded on the teacher's pkg/llm/gemini/client.go: same
// range-over-func streaming iterator and system-instruction
// extraction, trimmed of tool-calling, thinking-config and
// thought-signature handling, which this domain never uses.
package geministream

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"gamal/internal/errs"
	"gamal/internal/llmclient"
	"gamal/internal/rag"
)

func init() {
	llmclient.RegisterProvider("gemini", func(cfg llmclient.ProviderConfig) (llmclient.ChatClient, error) {
		return New(context.Background(), cfg.APIKey, cfg.Model)
	})
}

// Client wraps a genai.Client configured for the Gemini API backend.
type Client struct {
	sdk   *genai.Client
	model string
}

// New builds a Client against the Gemini API backend.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, "create gemini client", err)
	}
	return &Client{sdk: sdk, model: model}, nil
}

func convertMessages(messages []rag.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemInstruction *genai.Content

	for _, m := range messages {
		if m.Role == rag.RoleSystem {
			if m.Content != "" {
				systemInstruction = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
			}
			continue
		}
		role := "user"
		if m.Role == rag.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return contents, systemInstruction
}

// Chat implements llmclient.ChatClient.
func (c *Client) Chat(ctx context.Context, messages []rag.Message, sink func(delta string)) (string, error) {
	contents, systemInstruction := convertMessages(messages)
	genConfig := &genai.GenerateContentConfig{SystemInstruction: systemInstruction}

	if sink == nil {
		resp, err := c.sdk.Models.GenerateContent(ctx, c.model, contents, genConfig)
		if err != nil {
			return "", errs.Wrap(errs.KindLLM, "gemini request failed", err)
		}
		return strings.TrimSpace(resp.Text()), nil
	}

	var answer strings.Builder
	seenFirst := false
	iter := c.sdk.Models.GenerateContentStream(ctx, c.model, contents, genConfig)
	for resp, err := range iter {
		if err != nil {
			return answer.String(), errs.Wrap(errs.KindLLM, "gemini stream failed", err)
		}
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text == "" || part.Thought {
					continue
				}
				delta := part.Text
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
		}
	}
	return answer.String(), nil
}

// IsTransientError classifies Gemini's common transient-failure
// signatures, grounded on the teacher's string-matching heuristic.
func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "503"), strings.Contains(msg, "overloaded"):
		return true
	case strings.Contains(msg, "429"), strings.Contains(msg, "resource exhausted"):
		return true
	case strings.Contains(msg, "500"), strings.Contains(msg, "internal error"):
		return true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection refused"):
		return true
	}
	return false
}
