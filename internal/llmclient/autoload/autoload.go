// Package autoload registers every alternate ChatClient provider by
// side effect. Blank-import it from a front-end's main package to make
// "openai-sdk", "gemini" and "ollama" available to LLM_PROVIDER,
// alongside the always-available hand-rolled "openai-compat" default.
package autoload

import (
	_ "gamal/internal/llmclient/geministream" // Auto-register the "gemini" provider
	_ "gamal/internal/llmclient/ollamanative" // Auto-register the "ollama" provider
	_ "gamal/internal/llmclient/openaisdk"    // Auto-register the "openai-sdk" provider
)
