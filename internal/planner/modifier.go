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

//go:embed modifier_prompt.md
var modifierPrompt string

// LLMModifier implements ModificationOracle on a text-generation model: it
// reads the current plan and the user's change request and returns the full
// revised plan, keeping untouched slots intact.
type LLMModifier struct {
	textGen llm.TextGenerator
	metrics metricsRecorder
}

func NewLLMModifier(textGen llm.TextGenerator, metrics metricsRecorder) *LLMModifier {
	return &LLMModifier{textGen: textGen, metrics: metrics}
}

func (m *LLMModifier) ProposePlan(ctx context.Context, current *PlanProposal, pool []recipe.Recipe, request string) (*PlanProposal, error) {
	start := time.Now()
	prompt, err := buildOraclePrompt("Modifier", modifierPrompt, promptData{
		CurrentPlan: mustJSON(current.Meals),
		Request:     request,
		Candidates:  mustJSON(summarizePool(pool, true)),
	})
	if err != nil {
		return nil, err
	}

	resp, err := m.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}
	recordMeta(ctx, m.metrics, "Modifier", resp.Usage, time.Since(start))

	var parsed PlanProposal
	raw := llm.ExtractJSONObject(resp.Content)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse revised plan JSON: %w. Response: %s", err, resp.Content)
	}
	if len(parsed.Meals) == 0 {
		return nil, fmt.Errorf("modifier returned no meals: %s", resp.Content)
	}
	return &parsed, nil
}
