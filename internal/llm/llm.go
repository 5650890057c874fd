package llm

import (
	"context"
	"regexp"

	"meal-plan-assistant/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONObject returns the outermost {...} block of a model response,
// tolerating commentary or markdown fences around it. Returns the input
// unchanged when no block is found so the caller's unmarshal error carries
// the raw content.
func ExtractJSONObject(content string) string {
	if m := jsonBlockRe.FindString(content); m != "" {
		return m
	}
	return content
}
