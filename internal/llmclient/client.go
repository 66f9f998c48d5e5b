// Package llmclient implements the streaming chat client (C2): it
// POSTs an OpenAI-compatible chat-completions request and, in
// streaming mode, decodes an incremental SSE-style transcript into
// text deltas forwarded to a sink; in non-streaming mode it decodes a
// single JSON reply.
//
// The default client here is hand-rolled against net/http rather than
// any vendor SDK, on purpose: this is the piece the stream
// split-safety properties are about. Alternate providers built on
// vendor SDKs live in the openaisdk, geministream and ollamanative
// subpackages and implement the same ChatClient interface.
package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gamal/internal/debugtrace"
	"gamal/internal/errs"
	"gamal/internal/rag"
)

// stopSequences mirrors the source's stop list exactly, including the
// trailing priming prefix that forces the completion to end before
// the model starts hallucinating a new INQUIRY turn.
var stopSequences = []string{"<|im_end|>", "<|end|>", "<|eot_id|>", "<|end_of_turn|>", "INQUIRY: "}

const (
	defaultMaxTokens   = 400
	defaultTemperature = 0
	readBufSize        = 4096
)

// ChatClient is the interface C4 (Reason) and C5 (Respond) depend on.
// Every provider implementation — the hand-rolled default and the
// three SDK-backed alternates — satisfies this.
type ChatClient interface {
	// Chat sends messages to the chat endpoint. If sink is non-nil and
	// streaming is enabled, sink is called once per non-empty text
	// delta as it arrives; Chat always returns the full assistant text
	// once the response completes.
	Chat(ctx context.Context, messages []rag.Message, sink func(delta string)) (string, error)
	// IsTransientError classifies err as retryable by a caller that
	// chooses to retry (the core pipeline never does; front-ends or
	// alternate providers may).
	IsTransientError(err error) bool
}

// Config configures the hand-rolled OpenAI-compatible client.
type Config struct {
	BaseURL           string // e.g. https://openrouter.ai/api/v1
	APIKey            string
	Model             string
	StreamingDisabled bool
	HTTPClient        *http.Client
	Debug             *debugtrace.Recorder // may be nil
}

// Client is the default, hand-rolled ChatClient.
type Client struct {
	cfg Config
}

// New returns a Client ready to use. A nil HTTPClient in cfg defaults
// to http.DefaultClient.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Debug == nil {
		cfg.Debug = debugtrace.New("", "", false)
	}
	return &Client{cfg: cfg}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Stop        []string      `json:"stop"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat implements ChatClient. Streaming is used iff sink is non-nil
// and streaming has not been disabled by configuration.
func (c *Client) Chat(ctx context.Context, messages []rag.Message, sink func(delta string)) (string, error) {
	stream := sink != nil && !c.cfg.StreamingDisabled

	wire := make([]wireMessage, len(messages))
	for i, m := range messages {
		wire[i] = wireMessage{Role: string(m.Role), Content: m.Content}
	}

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    wire,
		Stop:        stopSequences,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		Stream:      stream,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", errs.Wrap(errs.KindLLM, "encode request", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errs.Wrap(errs.KindLLM, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	c.cfg.Debug.Write(fmt.Sprintf("REQUEST stream=%v model=%s\n%s", stream, c.cfg.Model, string(payload)))

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return "", errs.Wrap(errs.KindLLM, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errs.New(errs.KindLLM, fmt.Sprintf("chat endpoint returned %d: %s", resp.StatusCode, string(body)))
	}

	if !stream {
		return c.decodeNonStream(resp.Body, sink)
	}
	return c.decodeStream(resp.Body, sink)
}

func (c *Client) decodeNonStream(body io.Reader, sink func(delta string)) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", errs.Wrap(errs.KindLLM, "read response", err)
	}
	c.cfg.Debug.Write("RESPONSE (non-stream)\n" + string(data))

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errs.Wrap(errs.KindLLM, "malformed JSON response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errs.New(errs.KindLLM, "response had no choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if sink != nil {
		sink(text)
	}
	return text, nil
}

func (c *Client) decodeStream(body io.Reader, sink func(delta string)) (string, error) {
	decoder := newSSEDecoder(sink)
	buf := make([]byte, readBufSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			c.cfg.Debug.Write("RESPONSE CHUNK\n" + string(buf[:n]))
			if decoder.Push(buf[:n]) {
				return decoder.Answer(), nil
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return decoder.Answer(), nil
			}
			return decoder.Answer(), errs.Wrap(errs.KindLLM, "stream read failed", readErr)
		}
	}
}

// IsTransientError always returns false for the hand-rolled client:
// per spec.md's non-goals, the core never retries LLM failures. The
// method exists so Client satisfies ChatClient alongside providers
// that do classify transience for their own optional retry logic.
func (c *Client) IsTransientError(err error) bool {
	return false
}
