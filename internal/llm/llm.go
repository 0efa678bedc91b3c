// Package llm talks to text-generation backends used for tagging,
// summarizing and rewriting questions.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/secondbrain/internal/config"
)

// Client generates text from a prompt.
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	ExtractTags(ctx context.Context, text string) ([]string, error)
}

// Provider names accepted in config.
const (
	ProviderNone   = "none"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const maxTags = 5

// New returns the client for cfg.Provider. It returns (nil, nil) when the
// provider is "none" or empty, or when the OpenAI key variable is unset.
func New(cfg config.LLMConfig) (Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderNone:
		return nil, nil
	case ProviderOllama:
		return NewOllamaClient(cfg.BaseURL, cfg.Model, httpClient), nil
	case ProviderOpenAI:
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, nil
		}
		return NewOpenAIClient(cfg.BaseURL, cfg.Model, key, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

func tagsPrompt(text string) string {
	return "Extract 3-5 key tags or topics from this activity description. " +
		"Return each tag on a new line, without numbering or bullet points:\n\n" + text
}

// parseTags turns one-tag-per-line model output into a clean list. Models
// ignore the no-bullets instruction often enough that bullets and
// numbering are stripped anyway.
func parseTags(out string) []string {
	tags := []string{}
	for _, line := range strings.Split(out, "\n") {
		tag := strings.TrimSpace(line)
		tag = strings.TrimLeft(tag, "-*•0123456789.) ")
		tag = strings.Trim(tag, `"'`)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

func extractTags(ctx context.Context, c Client, text string) ([]string, error) {
	out, err := c.GenerateText(ctx, tagsPrompt(text))
	if err != nil {
		return nil, err
	}
	return parseTags(out), nil
}
