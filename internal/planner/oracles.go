package planner

import (
	"context"

	"meal-plan-assistant/internal/recipe"
)

// CandidateScore is one scored entry of a candidate pool. Index refers to
// the candidate's position in the pool it was scored against.
type CandidateScore struct {
	Index      int     `json:"index"`
	Score      float64 `json:"score"`
	Why        string  `json:"why"`
	VarietyKey string  `json:"varietyKey"`
}

// ScoringOracle rates every candidate in a pool against the user's
// preferences on a 0-100 scale. Implementations may fail or return partial
// results; callers fall back to heuristic scoring.
type ScoringOracle interface {
	ScoreCandidates(ctx context.Context, pool []recipe.Recipe, prefs Preferences) ([]CandidateScore, error)
}

// RankingOracle breaks near-degenerate score distributions by producing a
// strict preference order over the pool (best first, pool indexes).
type RankingOracle interface {
	RankCandidates(ctx context.Context, pool []recipe.Recipe, prefs Preferences) ([]int, error)
}

// MealAssignment binds a recipe to a day-of-week/meal-type slot.
type MealAssignment struct {
	DayOfWeek   string `json:"dayOfWeek"`
	MealType    string `json:"mealType"`
	RecipeName  string `json:"recipeName"`
	Description string `json:"description"`
}

// PlanProposal is a complete set of slot assignments plus a human-readable
// account of how it was chosen.
type PlanProposal struct {
	Meals     []MealAssignment `json:"meals"`
	Reasoning string           `json:"reasoning"`
}

// ModificationOracle interprets a free-text change request against an
// existing plan and returns the full revised plan, drawing replacements
// from the candidate pool and leaving untouched slots in place.
type ModificationOracle interface {
	ProposePlan(ctx context.Context, current *PlanProposal, pool []recipe.Recipe, request string) (*PlanProposal, error)
}

// PreferenceOracle turns a raw chat message into structured preferences.
// Callers degrade to the regex-based parser when the model misbehaves.
type PreferenceOracle interface {
	ParsePreferences(ctx context.Context, message string) (Preferences, error)
}
