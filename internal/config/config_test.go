package config

import "testing"

const validYouKey = "0123456789012345678901234567890123456789012345678901234567890123"

func TestValidateRequiresAPIKeyForDefaultProvider(t *testing.T) {
	cfg := &Config{LLMProvider: "openai-compat", YouAPIKey: validYouKey}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when LLM_API_KEY is missing for the default provider")
	}
}

func TestValidateAllowsMissingAPIKeyForAlternateProvider(t *testing.T) {
	cfg := &Config{LLMProvider: "ollama", YouAPIKey: validYouKey}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRequiresYouAPIKey(t *testing.T) {
	cfg := &Config{LLMProvider: "ollama"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when YOU_API_KEY is unset")
	}
}

func TestValidateRejectsTruncatedYouAPIKey(t *testing.T) {
	cfg := &Config{LLMProvider: "ollama", YouAPIKey: "short"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a truncated YOU_API_KEY")
	}
}

func TestValidateRejectsTruncatedTelegramToken(t *testing.T) {
	cfg := &Config{LLMProvider: "ollama", YouAPIKey: validYouKey, TelegramToken: "short"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a truncated GAMAL_TELEGRAM_TOKEN")
	}
}
