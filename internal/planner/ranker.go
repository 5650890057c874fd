package planner

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"meal-plan-assistant/internal/llm"
	"meal-plan-assistant/internal/recipe"
)

//go:embed ranker_prompt.md
var rankerPrompt string

// LLMRanker implements RankingOracle on a text-generation model. It is only
// consulted when scoring comes back too flat to order candidates.
type LLMRanker struct {
	textGen llm.TextGenerator
	metrics metricsRecorder
}

func NewLLMRanker(textGen llm.TextGenerator, metrics metricsRecorder) *LLMRanker {
	return &LLMRanker{textGen: textGen, metrics: metrics}
}

func (r *LLMRanker) RankCandidates(ctx context.Context, pool []recipe.Recipe, prefs Preferences) ([]int, error) {
	start := time.Now()
	prompt, err := buildOraclePrompt("Ranker", rankerPrompt, promptData{
		Preferences: mustJSON(prefs),
		Candidates:  mustJSON(summarizePool(pool, false)),
	})
	if err != nil {
		return nil, err
	}

	resp, err := r.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}
	recordMeta(ctx, r.metrics, "Ranker", resp.Usage, time.Since(start))

	var parsed struct {
		Order []int `json:"order"`
	}
	raw := llm.ExtractJSONObject(resp.Content)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ranker JSON: %w. Response: %s", err, resp.Content)
	}
	return parsed.Order, nil
}
