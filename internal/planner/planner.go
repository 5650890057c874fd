// Package planner builds, stores and mutates weekly meal plans. Plans are
// assembled from the recipe library by a filter/score/select pipeline;
// model-backed oracles refine scoring and interpret free-text change
// requests, with deterministic fallbacks everywhere an oracle can fail.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"meal-plan-assistant/internal/grocery"
	"meal-plan-assistant/internal/recipe"
	"meal-plan-assistant/internal/shopping"
)

var (
	// ErrEmptyPlan means the pipeline produced no meals at all, which only
	// happens when the recipe library is empty.
	ErrEmptyPlan = errors.New("meal plan generation produced no meals")
	// ErrPlanNotFound means the referenced plan id does not exist.
	ErrPlanNotFound = errors.New("meal plan not found")
)

// Mode distinguishes a from-scratch plan from a regeneration of an
// existing one; the scoring oracle sees it as context.
type Mode string

const (
	ModeCreateNew      Mode = "createNewPlan"
	ModeUpdateExisting Mode = "updateExistingPlan"
)

// PlanResult is what the chat layer renders: the stored plan plus its
// aggregated grocery list and the selection audit.
type PlanResult struct {
	ID          int64        `json:"id"`
	Preferences string       `json:"preferences"`
	Meals       []StoredMeal `json:"meals"`
	GroceryList []string     `json:"groceryList"`
	Reasoning   string       `json:"reasoning,omitempty"`
}

// Planner is the meal-plan service. Scoring, ranking and modification
// oracles are optional; a nil oracle falls back to the deterministic path.
type Planner struct {
	recipes  *recipe.Repository
	plans    *PlanRepository
	shopping *shopping.Repository
	scoring  ScoringOracle
	ranking  RankingOracle
	modifier ModificationOracle
	rng      *rand.Rand
}

// Option configures optional Planner collaborators.
type Option func(*Planner)

func WithScoringOracle(o ScoringOracle) Option { return func(p *Planner) { p.scoring = o } }

func WithRankingOracle(o RankingOracle) Option { return func(p *Planner) { p.ranking = o } }

func WithModificationOracle(o ModificationOracle) Option {
	return func(p *Planner) { p.modifier = o }
}

// WithRand fixes the randomness source, used by tests for reproducible
// selection.
func WithRand(rng *rand.Rand) Option { return func(p *Planner) { p.rng = rng } }

func New(recipes *recipe.Repository, plans *PlanRepository, lists *shopping.Repository, opts ...Option) *Planner {
	p := &Planner{
		recipes:  recipes,
		plans:    plans,
		shopping: lists,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return p
}

// CreateMealPlan runs the full pipeline: candidate pool, scoring (oracle or
// heuristic), optional rank reroll, phased selection, persistence, and
// grocery-list aggregation. requestedCount <= 0 means a full week;
// excludeNames keeps already-planned recipes out of the pool.
func (p *Planner) CreateMealPlan(ctx context.Context, prefs Preferences, requestedCount int, excludeNames []string, mode Mode) (*PlanResult, error) {
	library, err := p.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading recipe library: %w", err)
	}

	exclusive := ExclusiveProtein(prefs.SpecialRequests)
	cleanedSpecial := CleanSpecialForExclusive(prefs.SpecialRequests, exclusive)

	pool := BuildCandidatePool(library, prefs, excludeNames, p.rng)
	scored := p.scorePool(ctx, pool, prefs)
	meals, reasoning := selectMeals(scored, pool, prefs, requestedCount, cleanedSpecial, p.rng)
	if len(meals) == 0 {
		return nil, ErrEmptyPlan
	}

	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encoding preferences: %w", err)
	}
	slots, err := p.resolveSlots(ctx, meals)
	if err != nil {
		return nil, err
	}
	planID, err := p.plans.Create(ctx, string(prefsJSON), slots)
	if err != nil {
		return nil, err
	}

	result, err := p.loadResult(ctx, planID)
	if err != nil {
		return nil, err
	}
	result.Reasoning = reasoning
	return result, nil
}

// AddToExistingMealPlan reloads a plan and regenerates its grocery list,
// covering every meal currently in the plan.
func (p *Planner) AddToExistingMealPlan(ctx context.Context, planID int64) (*PlanResult, error) {
	return p.loadResult(ctx, planID)
}

// ExtendMealPlan generates count extra meals for an existing plan,
// excluding recipes already on it, and appends them with the day cycle
// continuing where the plan left off.
func (p *Planner) ExtendMealPlan(ctx context.Context, planID int64, prefs Preferences, count int) (*PlanResult, error) {
	plan, err := p.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	library, err := p.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading recipe library: %w", err)
	}
	exclude := make([]string, 0, len(plan.Meals))
	for _, m := range plan.Meals {
		exclude = append(exclude, m.Recipe.Name)
	}

	exclusive := ExclusiveProtein(prefs.SpecialRequests)
	cleanedSpecial := CleanSpecialForExclusive(prefs.SpecialRequests, exclusive)
	pool := BuildCandidatePool(library, prefs, exclude, p.rng)
	scored := p.scorePool(ctx, pool, prefs)
	meals, _ := selectMeals(scored, pool, prefs, count, cleanedSpecial, p.rng)
	if len(meals) == 0 {
		return nil, ErrEmptyPlan
	}
	for i := range meals {
		meals[i].DayOfWeek = daysOfWeek[(len(plan.Meals)+i)%len(daysOfWeek)]
	}

	slots, err := p.resolveSlots(ctx, meals)
	if err != nil {
		return nil, err
	}
	if err := p.plans.AppendSlots(ctx, planID, slots); err != nil {
		return nil, err
	}
	if prefsJSON, err := json.Marshal(prefs); err == nil {
		if err := p.plans.UpdatePreferences(ctx, planID, string(prefsJSON)); err != nil {
			return nil, err
		}
	}
	return p.loadResult(ctx, planID)
}

// ReplaceInMealPlan applies a free-text modification request to an existing
// plan: the modification oracle proposes the revised plan, then the
// deterministic repairs enforce dislikes and protein-count quotas that the
// proposal may have missed. The grocery list is rebuilt from the final
// state.
func (p *Planner) ReplaceInMealPlan(ctx context.Context, planID int64, request string) (*PlanResult, error) {
	plan, err := p.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	library, err := p.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading recipe library: %w", err)
	}

	if p.modifier != nil {
		proposal, err := p.modifier.ProposePlan(ctx, planToProposal(plan), library, request)
		if err != nil {
			return nil, fmt.Errorf("interpreting modification request: %w", err)
		}
		if err := p.applyProposal(ctx, planID, proposal); err != nil {
			return nil, err
		}
	}

	if err := p.repairDislikes(ctx, planID, request, library); err != nil {
		return nil, err
	}
	if err := p.repairProteinCounts(ctx, planID, request, library); err != nil {
		return nil, err
	}
	return p.loadResult(ctx, planID)
}

// scorePool asks the scoring oracle for scores and falls back to heuristics
// when the oracle is missing, fails, or returns a degenerate all-zero
// result. A flat distribution additionally triggers a strict rank reroll.
func (p *Planner) scorePool(ctx context.Context, pool []recipe.Recipe, prefs Preferences) []scoredCandidate {
	var scored []scoredCandidate
	if p.scoring != nil {
		scores, err := p.scoring.ScoreCandidates(ctx, pool, prefs)
		if err != nil {
			log.Printf("scoring oracle failed, using heuristics: %v", err)
		} else {
			scored = applyScores(pool, scores)
		}
	}
	if scored == nil || allZeroScores(scored) {
		scored = heuristicScores(pool, prefs)
	}

	if p.ranking != nil {
		values := make([]float64, len(scored))
		for i, s := range scored {
			values[i] = s.Score
		}
		if needsRerank(values) {
			order, err := p.ranking.RankCandidates(ctx, pool, prefs)
			if err != nil {
				log.Printf("rank reroll failed: %v", err)
			} else {
				applyRankOrder(scored, order)
			}
		}
	}
	return scored
}

// resolveSlots maps assignments to recipe ids, skipping names that don't
// resolve rather than failing the whole plan.
func (p *Planner) resolveSlots(ctx context.Context, meals []MealAssignment) ([]SlotInsert, error) {
	names := make([]string, 0, len(meals))
	for _, m := range meals {
		names = append(names, m.RecipeName)
	}
	found, err := p.recipes.GetByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("resolving plan recipes: %w", err)
	}
	idByName := make(map[string]string, len(found))
	for _, r := range found {
		idByName[strings.ToLower(r.Name)] = r.ID
	}

	slots := make([]SlotInsert, 0, len(meals))
	for _, m := range meals {
		id, ok := idByName[strings.ToLower(m.RecipeName)]
		if !ok {
			log.Printf("recipe not found for slot %s/%s: %q", m.DayOfWeek, m.MealType, m.RecipeName)
			continue
		}
		slots = append(slots, SlotInsert{
			DayOfWeek: m.DayOfWeek,
			MealType:  m.MealType,
			RecipeID:  id,
		})
	}
	return slots, nil
}

// applyProposal upserts the proposed slots per day/meal-type. Slots the
// proposal leaves out stay as they are; proposed recipes that don't resolve
// are skipped with a warning.
func (p *Planner) applyProposal(ctx context.Context, planID int64, proposal *PlanProposal) error {
	if proposal == nil || len(proposal.Meals) == 0 {
		return nil
	}
	names := make([]string, 0, len(proposal.Meals))
	for _, m := range proposal.Meals {
		names = append(names, m.RecipeName)
	}
	found, err := p.recipes.GetByNames(ctx, names)
	if err != nil {
		return fmt.Errorf("resolving proposed recipes: %w", err)
	}
	idByName := make(map[string]string, len(found))
	for _, r := range found {
		idByName[strings.ToLower(r.Name)] = r.ID
	}

	for _, m := range proposal.Meals {
		id, ok := idByName[strings.ToLower(m.RecipeName)]
		if !ok {
			log.Printf("recipe not found for replacement: %q", m.RecipeName)
			continue
		}
		if err := p.plans.ReplaceSlot(ctx, planID, m.DayOfWeek, m.MealType, id); err != nil {
			return err
		}
	}
	return nil
}

// loadResult reloads a plan, rebuilds and persists its grocery list, and
// packages the response.
func (p *Planner) loadResult(ctx context.Context, planID int64) (*PlanResult, error) {
	plan, err := p.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	names := make([]string, 0, len(plan.Meals))
	for _, m := range plan.Meals {
		names = append(names, m.Recipe.Name)
	}
	lines, err := grocery.CollectIngredients(ctx, p.recipes, names)
	if err != nil {
		return nil, fmt.Errorf("collecting grocery list: %w", err)
	}
	list := grocery.Deduplicate(lines)
	if p.shopping != nil {
		if err := p.shopping.Replace(ctx, planID, list); err != nil {
			return nil, err
		}
	}

	return &PlanResult{
		ID:          plan.ID,
		Preferences: plan.Preferences,
		Meals:       plan.Meals,
		GroceryList: list,
	}, nil
}

func planToProposal(plan *StoredPlan) *PlanProposal {
	meals := make([]MealAssignment, len(plan.Meals))
	for i, m := range plan.Meals {
		meals[i] = MealAssignment{
			DayOfWeek:   m.DayOfWeek,
			MealType:    m.MealType,
			RecipeName:  m.Recipe.Name,
			Description: m.Recipe.Description,
		}
	}
	return &PlanProposal{Meals: meals}
}
