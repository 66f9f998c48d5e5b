// Package config loads gamal's configuration from environment variables,
// optionally primed from a ".env" file via godotenv. There is no JSON
// config file and nothing to hot-reload: every setting is read once at
// startup.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gamal/internal/errs"
)

// Config holds every environment-derived setting gamal's front-ends
// need. Fields map 1:1 onto the env vars documented in SPEC_FULL.md §6.
type Config struct {
	// LLMProvider selects the registered llmclient.ChatClient
	// implementation ("openai-compat", "openai-sdk", "gemini", "ollama").
	LLMProvider string
	// LLMAPIBaseURL is the chat-completions endpoint for the default
	// openai-compat provider.
	LLMAPIBaseURL string
	// LLMAPIKey authenticates against LLMAPIBaseURL.
	LLMAPIKey string
	// LLMChatModel names the model passed in every chat request.
	LLMChatModel string
	// LLMStreaming holds LLM_STREAMING (any strconv.ParseBool value;
	// default true). No front-end passes it on to the chat client, so it
	// does not switch streaming off: the client streams whenever the
	// Respond stage supplies a sink.
	LLMStreaming bool

	// YouAPIKey authenticates against the you.com search endpoint. Must
	// be at least 64 characters, matching the length of a real key.
	YouAPIKey string

	// HTTPPort is the port gamal-httpd listens on.
	HTTPPort string
	// TelegramToken authenticates the long-poller with the Telegram Bot
	// API. Must be at least 40 characters, matching a real bot token.
	TelegramToken string

	// HistoryDir, if non-empty, is where per-session history snapshots
	// are persisted as an ambient convenience. Empty disables snapshotting.
	HistoryDir string
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// DebugChat holds LLM_DEBUG_CHAT. No front-end passes it on to the
	// chat client, so the chat client's transcript recorder stays off.
	DebugChat bool
	// DebugPipeline holds LLM_DEBUG_PIPELINE. Nothing else reads it; no
	// pipeline trace is recorded.
	DebugPipeline bool
	// DebugSearch, when true, records every search request/response.
	DebugSearch bool
	// DebugFailExit, when true, makes gamal-testrunner terminate
	// immediately on the first TestMismatch instead of tallying a
	// failure count and continuing through the rest of the directives.
	DebugFailExit bool
}

// Load reads a ".env" file if present (missing is not an error), then
// populates Config from the environment, applying defaults for optional
// values and validating mandatory ones.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; absence is normal in production

	cfg := &Config{
		LLMProvider:   getenv("LLM_PROVIDER", "openai-compat"),
		LLMAPIBaseURL: getenv("LLM_API_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
		LLMChatModel:  getenv("LLM_CHAT_MODEL", "meta-llama/llama-3-8b-instruct"),
		LLMStreaming:  getBool("LLM_STREAMING", true),

		YouAPIKey: os.Getenv("YOU_API_KEY"),

		HTTPPort:      os.Getenv("GAMAL_HTTP_PORT"),
		TelegramToken: os.Getenv("GAMAL_TELEGRAM_TOKEN"),

		HistoryDir: os.Getenv("GAMAL_HISTORY_DIR"),
		LogLevel:   getenv("GAMAL_LOG_LEVEL", "info"),

		DebugChat:     getBool("LLM_DEBUG_CHAT", false),
		DebugPipeline: getBool("LLM_DEBUG_PIPELINE", false),
		DebugSearch:   getBool("LLM_DEBUG_SEARCH", false),
		DebugFailExit: getBool("LLM_DEBUG_FAIL_EXIT", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the mandatory-field and minimum-length rules
// documented in SPEC_FULL.md §6. YOU_API_KEY is always required. A
// Telegram token is only length-checked when one is set; Load does not
// require it, so gamal-telegram calls RequireTelegram explicitly.
func (c *Config) Validate() error {
	if c.LLMAPIKey == "" && c.LLMProvider == "openai-compat" {
		return errs.New(errs.KindConfig, "LLM_API_KEY is required for the default LLM provider")
	}
	if c.YouAPIKey == "" {
		return errs.New(errs.KindConfig, "YOU_API_KEY is required")
	}
	if len(c.YouAPIKey) < 64 {
		return errs.New(errs.KindConfig, "YOU_API_KEY looks truncated: must be at least 64 characters")
	}
	if c.TelegramToken != "" && len(c.TelegramToken) < 40 {
		return errs.New(errs.KindConfig, "GAMAL_TELEGRAM_TOKEN looks truncated: must be at least 40 characters")
	}
	return nil
}

// RequireTelegram fails loudly when gamal-telegram is about to start
// without a usable bot token.
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errs.New(errs.KindConfig, "GAMAL_TELEGRAM_TOKEN is required to run the Telegram front-end")
	}
	if len(c.TelegramToken) < 40 {
		return errs.New(errs.KindConfig, "GAMAL_TELEGRAM_TOKEN looks truncated: must be at least 40 characters")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
