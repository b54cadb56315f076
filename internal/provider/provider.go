// Package provider lists OpenAI-compatible chat-completion services that
// codexplain can talk to without extra configuration.
package provider

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// DefaultID is used when no provider is configured.
const DefaultID = "openai"

// Provider represents an OpenAI-compatible chat-completion service
type Provider struct {
	ID           string
	Name         string
	Desc         string
	BaseURL      string
	DefaultModel string
	// Headers are added to every request sent to this provider.
	Headers map[string]string
}

// All returns the supported providers (alphabetically sorted by name)
var All = []Provider{
	{
		ID:           "deepinfra",
		Name:         "DeepInfra",
		Desc:         "Hosted AI inference platform",
		BaseURL:      "https://api.deepinfra.com/v1/openai",
		DefaultModel: "meta-llama/Meta-Llama-3.1-70B-Instruct",
	},
	{
		ID:           "deepseek",
		Name:         "DeepSeek",
		Desc:         "DeepSeek language models",
		BaseURL:      "https://api.deepseek.com/v1",
		DefaultModel: "deepseek-chat",
	},
	{
		ID:           "fireworks",
		Name:         "Fireworks AI",
		Desc:         "Fast inference platform",
		BaseURL:      "https://api.fireworks.ai/inference/v1",
		DefaultModel: "accounts/fireworks/models/llama-v3p1-70b-instruct",
	},
	{
		ID:           "groq",
		Name:         "Groq",
		Desc:         "Ultra-fast LLM inference",
		BaseURL:      "https://api.groq.com/openai/v1",
		DefaultModel: "llama-3.1-70b-versatile",
	},
	{
		ID:           "mistral",
		Name:         "Mistral AI",
		Desc:         "Mistral language models",
		BaseURL:      "https://api.mistral.ai/v1",
		DefaultModel: "mistral-large-latest",
	},
	{
		ID:           "moonshot",
		Name:         "Moonshot AI (Kimi)",
		Desc:         "Moonshot's Kimi models",
		BaseURL:      "https://api.moonshot.cn/v1",
		DefaultModel: "moonshot-v1-8k",
	},
	{
		ID:           "ollama",
		Name:         "Ollama",
		Desc:         "Local LLM runtime",
		BaseURL:      "http://localhost:11434/v1",
		DefaultModel: "qwen2.5:32b",
	},
	{
		ID:           "openai",
		Name:         "OpenAI",
		Desc:         "GPT models from OpenAI",
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-3.5-turbo",
	},
	{
		ID:           "openrouter",
		Name:         "OpenRouter",
		Desc:         "Unified API for multiple providers",
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "openai/gpt-3.5-turbo",
		Headers: map[string]string{
			"HTTP-Referer": "https://github.com/robottwo/codexplain",
			"X-Title":      "codexplain - AI-powered code explainer",
		},
	},
	{
		ID:           "perplexity",
		Name:         "Perplexity",
		Desc:         "Perplexity AI models",
		BaseURL:      "https://api.perplexity.ai",
		DefaultModel: "llama-3.1-sonar-large-128k-online",
	},
	{
		ID:           "together",
		Name:         "Together AI",
		Desc:         "Fast inference on open models",
		BaseURL:      "https://api.together.xyz/v1",
		DefaultModel: "meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo",
	},
}

// GetByID returns a provider by its ID
func GetByID(id string) *Provider {
	for i := range All {
		if All[i].ID == id {
			return &All[i]
		}
	}
	return nil
}

// Describe lists the providers for help output, one per line.
func Describe() string {
	lines := lo.Map(All, func(p Provider, _ int) string {
		return fmt.Sprintf("  %-11s %s: %s", p.ID, p.Name, p.Desc)
	})
	return strings.Join(lines, "\n")
}

// Lookup is GetByID with an error listing the known IDs.
func Lookup(id string) (*Provider, error) {
	if p := GetByID(strings.ToLower(strings.TrimSpace(id))); p != nil {
		return p, nil
	}
	ids := lo.Map(All, func(p Provider, _ int) string { return p.ID })
	return nil, fmt.Errorf("unknown provider %q (known: %s)", id, strings.Join(ids, ", "))
}
