package planner

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
	"meal-plan-assistant/internal/recipe"
	"meal-plan-assistant/internal/shared"
)

//go:embed scorer_prompt.md
var scorerPrompt string

// metricsRecorder receives per-call usage and latency from the oracles.
type metricsRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// candidateSummary is the trimmed recipe view the oracles see; full
// instructions would blow the prompt budget without improving scores.
type candidateSummary struct {
	Idx         int      `json:"idx"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients,omitempty"`
	Minutes     int      `json:"minutes"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Cuisine     string   `json:"cuisine,omitempty"`
	DietaryTags []string `json:"dietaryTags,omitempty"`
}

type promptData struct {
	Preferences string
	Candidates  string
	Request     string
	CurrentPlan string
}

// LLMScorer implements ScoringOracle on a text-generation model.
type LLMScorer struct {
	textGen llm.TextGenerator
	metrics metricsRecorder
}

func NewLLMScorer(textGen llm.TextGenerator, metrics metricsRecorder) *LLMScorer {
	return &LLMScorer{textGen: textGen, metrics: metrics}
}

func (s *LLMScorer) ScoreCandidates(ctx context.Context, pool []recipe.Recipe, prefs Preferences) ([]CandidateScore, error) {
	start := time.Now()
	prompt, err := buildOraclePrompt("Scorer", scorerPrompt, promptData{
		Preferences: mustJSON(prefs),
		Candidates:  mustJSON(summarizePool(pool, true)),
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}
	recordMeta(ctx, s.metrics, "Scorer", resp.Usage, time.Since(start))

	var parsed struct {
		Scores []struct {
			Idx        int     `json:"idx"`
			Score      float64 `json:"score"`
			Why        string  `json:"why"`
			VarietyKey string  `json:"varietyKey"`
		} `json:"scores"`
	}
	raw := llm.ExtractJSONObject(resp.Content)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse scorer JSON: %w. Response: %s", err, resp.Content)
	}

	out := make([]CandidateScore, 0, len(parsed.Scores))
	for _, s := range parsed.Scores {
		out = append(out, CandidateScore{
			Index:      s.Idx,
			Score:      s.Score,
			Why:        s.Why,
			VarietyKey: s.VarietyKey,
		})
	}
	return out, nil
}

func summarizePool(pool []recipe.Recipe, withIngredients bool) []candidateSummary {
	out := make([]candidateSummary, len(pool))
	for i, r := range pool {
		out[i] = candidateSummary{
			Idx:         i,
			Name:        r.Name,
			Minutes:     r.Minutes(),
			Difficulty:  r.Difficulty,
			Cuisine:     r.Cuisine,
			DietaryTags: r.DietaryTags,
		}
		if withIngredients {
			out[i].Ingredients = r.Ingredients
		}
	}
	return out
}

func buildOraclePrompt(name, text string, data promptData) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func recordMeta(ctx context.Context, m metricsRecorder, agent string, usage shared.TokenUsage, latency time.Duration) {
	if m == nil {
		return
	}
	meta := shared.AgentMeta{AgentName: agent, Usage: usage, Latency: latency}
	if err := m.RecordMeta(ctx, meta); err != nil {
		log.Printf("recording %s metrics: %v", agent, err)
	}
}
