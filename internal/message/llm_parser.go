package message

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"text/template"
	"time"

	"meal-plan-assistant/internal/llm"
	"meal-plan-assistant/internal/planner"
	"meal-plan-assistant/internal/shared"
)

//go:embed preference_prompt.md
var preferencePrompt string

type metricsRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// LLMPreferenceParser implements planner.PreferenceOracle on a
// text-generation model. Callers fall back to ParseUserMessage when it
// errors.
type LLMPreferenceParser struct {
	textGen llm.TextGenerator
	metrics metricsRecorder
}

func NewLLMPreferenceParser(textGen llm.TextGenerator, metrics metricsRecorder) *LLMPreferenceParser {
	return &LLMPreferenceParser{textGen: textGen, metrics: metrics}
}

func (p *LLMPreferenceParser) ParsePreferences(ctx context.Context, msg string) (planner.Preferences, error) {
	start := time.Now()
	tmpl, err := template.New("PreferenceParser").Parse(preferencePrompt)
	if err != nil {
		return planner.Preferences{}, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Message string }{Message: msg}); err != nil {
		return planner.Preferences{}, err
	}

	resp, err := p.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return planner.Preferences{}, err
	}
	if p.metrics != nil {
		meta := shared.AgentMeta{
			AgentName: "PreferenceParser",
			Usage:     resp.Usage,
			Latency:   time.Since(start),
		}
		if err := p.metrics.RecordMeta(ctx, meta); err != nil {
			log.Printf("recording PreferenceParser metrics: %v", err)
		}
	}

	var prefs planner.Preferences
	raw := llm.ExtractJSONObject(resp.Content)
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return planner.Preferences{}, fmt.Errorf("failed to parse preferences JSON: %w. Response: %s", err, resp.Content)
	}
	return prefs, nil
}
