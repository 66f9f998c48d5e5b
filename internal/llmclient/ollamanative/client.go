// Package ollamanative is an alternate ChatClient backed by
// github.com/ollama/ollama's api package, selected via
// LLM_PROVIDER=ollama.
//
// Grounded on the teacher's pkg/llm/ollama/client.go: the same
// no-timeout custom transport and per-chunk callback, trimmed of
// tool-calling and thinking-content handling, which this domain never
// uses. Unlike the teacher, Chat blocks directly on the SDK's own
// blocking call instead of relaying through a goroutine and channel:
// there is no multi-subscriber fan-out here, so the extra
// synchronization would add a data race, not remove one.
package ollamanative

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"gamal/internal/errs"
	"gamal/internal/llmclient"
	"gamal/internal/rag"
)

func init() {
	llmclient.RegisterProvider("ollama", func(cfg llmclient.ProviderConfig) (llmclient.ChatClient, error) {
		return New(cfg.Model, cfg.BaseURL)
	})
}

// Client wraps an Ollama api.Client.
type Client struct {
	sdk   *api.Client
	model string
}

// New builds a Client. baseURL may be empty to resolve from the
// OLLAMA_HOST environment variable via api.ClientFromEnvironment.
func New(model, baseURL string) (*Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	httpClient := &http.Client{Transport: transport}

	var sdk *api.Client
	var err error
	if baseURL != "" {
		u, parseErr := url.Parse(baseURL)
		if parseErr != nil {
			return nil, errs.Wrap(errs.KindConfig, "invalid ollama base URL", parseErr)
		}
		sdk = api.NewClient(u, httpClient)
	} else {
		sdk, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, errs.Wrap(errs.KindConfig, "resolve ollama client from environment", err)
		}
	}

	return &Client{sdk: sdk, model: model}, nil
}

func convertMessages(messages []rag.Message) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, api.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// Chat implements llmclient.ChatClient.
func (c *Client) Chat(ctx context.Context, messages []rag.Message, sink func(delta string)) (string, error) {
	streamVal := sink != nil
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: convertMessages(messages),
		Stream:   &streamVal,
	}

	var answer strings.Builder
	seenFirst := false

	err := c.sdk.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		delta := resp.Message.Content
		if !seenFirst {
			delta = strings.TrimLeft(delta, " \t\r\n")
			seenFirst = true
		}
		if delta != "" {
			answer.WriteString(delta)
			if sink != nil {
				sink(delta)
			}
		}
		return nil
	})
	if err != nil {
		return answer.String(), errs.Wrap(errs.KindLLM, "ollama request failed", err)
	}

	return answer.String(), nil
}

// IsTransientError classifies connection-level failures as retryable.
func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") {
		return true
	}
	return strings.Contains(strings.ToLower(msg), "overloaded")
}
