package planner

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"meal-plan-assistant/internal/database"
	"meal-plan-assistant/internal/recipe"
	"meal-plan-assistant/internal/shopping"
)

func newTestEnv(t *testing.T, library []recipe.Recipe, opts ...Option) (*Planner, *PlanRepository, *shopping.Repository) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	recipeRepo := recipe.NewRepository(db.SQL)
	for _, r := range library {
		if err := recipeRepo.Save(context.Background(), r); err != nil {
			t.Fatalf("seeding recipe %s: %v", r.Name, err)
		}
	}

	planRepo := NewPlanRepository(db)
	shoppingRepo := shopping.NewRepository(db)
	opts = append([]Option{WithRand(rand.New(rand.NewSource(42)))}, opts...)
	return New(recipeRepo, planRepo, shoppingRepo, opts...), planRepo, shoppingRepo
}

func TestCreateMealPlanEndToEnd(t *testing.T) {
	p, _, shoppingRepo := newTestEnv(t, testPool())
	ctx := context.Background()

	result, err := p.CreateMealPlan(ctx, Preferences{}, 5, nil, ModeCreateNew)
	if err != nil {
		t.Fatalf("CreateMealPlan: %v", err)
	}
	if result.ID == 0 {
		t.Error("expected a persisted plan id")
	}
	if len(result.Meals) != 5 {
		t.Fatalf("got %d meals, want 5", len(result.Meals))
	}
	for i, m := range result.Meals {
		if m.DayOfWeek != daysOfWeek[i] {
			t.Errorf("meal %d day = %s, want %s", i, m.DayOfWeek, daysOfWeek[i])
		}
		if m.MealType != "dinner" {
			t.Errorf("meal %d type = %s, want dinner", i, m.MealType)
		}
	}
	if len(result.GroceryList) == 0 {
		t.Error("expected a non-empty grocery list")
	}
	if result.Reasoning == "" {
		t.Error("expected selection reasoning")
	}

	stored, err := shoppingRepo.GetByMealPlanID(ctx, result.ID)
	if err != nil {
		t.Fatalf("loading stored shopping list: %v", err)
	}
	if stored == nil || len(stored.Items) != len(result.GroceryList) {
		t.Error("shopping list was not persisted alongside the plan")
	}
}

func TestCreateMealPlanEmptyLibrary(t *testing.T) {
	p, _, _ := newTestEnv(t, nil)
	_, err := p.CreateMealPlan(context.Background(), Preferences{}, 5, nil, ModeCreateNew)
	if err != ErrEmptyPlan {
		t.Errorf("got %v, want ErrEmptyPlan", err)
	}
}

func TestReplaceInMealPlanUnknownPlan(t *testing.T) {
	p, _, _ := newTestEnv(t, testPool())
	_, err := p.ReplaceInMealPlan(context.Background(), 999, "replace the chicken")
	if err != ErrPlanNotFound {
		t.Errorf("got %v, want ErrPlanNotFound", err)
	}
}

func TestReplaceInMealPlanRepairsDislikes(t *testing.T) {
	library := []recipe.Recipe{
		testRecipe("Mushroom Risotto", "", 40, "2 cups mushrooms", "1 cup arborio rice"),
		testRecipe("Chicken Stir Fry", "", 25, "1 lb chicken"),
		testRecipe("Beef Stew", "", 90, "2 lb beef"),
		testRecipe("Lentil Soup", "", 35, "1 cup lentils"),
		testRecipe("Salmon Bowl", "", 25, "2 salmon fillets"),
		testRecipe("Tofu Pad Thai", "", 30, "1 block tofu"),
	}
	p, planRepo, _ := newTestEnv(t, library)
	ctx := context.Background()

	created, err := p.CreateMealPlan(ctx, Preferences{}, 5, nil, ModeCreateNew)
	if err != nil {
		t.Fatalf("CreateMealPlan: %v", err)
	}

	result, err := p.ReplaceInMealPlan(ctx, created.ID, "I don't like mushrooms")
	if err != nil {
		t.Fatalf("ReplaceInMealPlan: %v", err)
	}
	if len(result.Meals) != len(created.Meals) {
		t.Fatalf("meal count changed: %d -> %d", len(created.Meals), len(result.Meals))
	}
	for _, m := range result.Meals {
		if m.Recipe.ContainsAny([]string{"mushrooms"}) {
			t.Errorf("meal %s still contains mushrooms", m.Recipe.Name)
		}
	}

	// Slot keys survive the repair.
	plan, err := planRepo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("reloading plan: %v", err)
	}
	keys := map[string]bool{}
	for _, m := range plan.Meals {
		keys[m.DayOfWeek+"|"+m.MealType] = true
	}
	for _, m := range created.Meals {
		if !keys[m.DayOfWeek+"|"+m.MealType] {
			t.Errorf("slot %s/%s disappeared during repair", m.DayOfWeek, m.MealType)
		}
	}
}

func TestReplaceInMealPlanEnforcesProteinCounts(t *testing.T) {
	p, _, _ := newTestEnv(t, testPool())
	ctx := context.Background()

	created, err := p.CreateMealPlan(ctx, Preferences{}, 5, nil, ModeCreateNew)
	if err != nil {
		t.Fatalf("CreateMealPlan: %v", err)
	}

	result, err := p.ReplaceInMealPlan(ctx, created.ID, "I want 3 chicken and 2 beef dinners")
	if err != nil {
		t.Fatalf("ReplaceInMealPlan: %v", err)
	}

	counts := map[string]int{}
	for _, m := range result.Meals {
		counts[recipe.InferProtein(m.Recipe)]++
	}
	if counts["chicken"] != 3 || counts["beef"] != 2 {
		t.Errorf("protein counts after repair = %v, want chicken=3 beef=2", counts)
	}
}

type fakeScorer struct {
	favorite string
}

func (f *fakeScorer) ScoreCandidates(_ context.Context, pool []recipe.Recipe, _ Preferences) ([]CandidateScore, error) {
	scores := make([]CandidateScore, len(pool))
	for i, r := range pool {
		score := 5.0 + float64(i)
		if r.Name == f.favorite {
			score = 100
		}
		scores[i] = CandidateScore{Index: i, Score: score, Why: "test"}
	}
	return scores, nil
}

func TestCreateMealPlanUsesScoringOracle(t *testing.T) {
	p, _, _ := newTestEnv(t, testPool(), WithScoringOracle(&fakeScorer{favorite: "Beef Burgers"}))

	result, err := p.CreateMealPlan(context.Background(), Preferences{}, 1, nil, ModeCreateNew)
	if err != nil {
		t.Fatalf("CreateMealPlan: %v", err)
	}
	if len(result.Meals) != 1 || result.Meals[0].Recipe.Name != "Beef Burgers" {
		t.Errorf("top-scored recipe not selected: %+v", result.Meals)
	}
}

type fakeModifier struct {
	proposal *PlanProposal
}

func (f *fakeModifier) ProposePlan(_ context.Context, _ *PlanProposal, _ []recipe.Recipe, _ string) (*PlanProposal, error) {
	return f.proposal, nil
}

func TestReplaceInMealPlanAppliesProposal(t *testing.T) {
	modifier := &fakeModifier{}
	p, _, _ := newTestEnv(t, testPool(), WithModificationOracle(modifier))
	ctx := context.Background()

	created, err := p.CreateMealPlan(ctx, Preferences{}, 3, nil, ModeCreateNew)
	if err != nil {
		t.Fatalf("CreateMealPlan: %v", err)
	}

	modifier.proposal = &PlanProposal{
		Meals: []MealAssignment{{
			DayOfWeek:  "Monday",
			MealType:   "dinner",
			RecipeName: "Tofu Pad Thai",
		}},
		Reasoning: "swap per request",
	}
	result, err := p.ReplaceInMealPlan(ctx, created.ID, "make monday a tofu dish")
	if err != nil {
		t.Fatalf("ReplaceInMealPlan: %v", err)
	}

	var monday *StoredMeal
	for i := range result.Meals {
		if result.Meals[i].DayOfWeek == "Monday" {
			monday = &result.Meals[i]
		}
	}
	if monday == nil || monday.Recipe.Name != "Tofu Pad Thai" {
		t.Errorf("Monday slot not replaced: %+v", result.Meals)
	}
	if len(result.Meals) != 3 {
		t.Errorf("untouched slots must survive, got %d meals", len(result.Meals))
	}
}

func TestExtendMealPlan(t *testing.T) {
	p, _, _ := newTestEnv(t, testPool())
	ctx := context.Background()

	created, err := p.CreateMealPlan(ctx, Preferences{}, 3, nil, ModeCreateNew)
	if err != nil {
		t.Fatalf("CreateMealPlan: %v", err)
	}

	result, err := p.ExtendMealPlan(ctx, created.ID, Preferences{}, 2)
	if err != nil {
		t.Fatalf("ExtendMealPlan: %v", err)
	}
	if len(result.Meals) != 5 {
		t.Fatalf("got %d meals after extension, want 5", len(result.Meals))
	}

	seen := map[string]bool{}
	for _, m := range result.Meals {
		if seen[m.Recipe.Name] {
			t.Errorf("duplicate recipe after extension: %s", m.Recipe.Name)
		}
		seen[m.Recipe.Name] = true
	}
	days := map[string]bool{}
	for _, m := range result.Meals {
		days[m.DayOfWeek] = true
	}
	for _, d := range daysOfWeek[:5] {
		if !days[d] {
			t.Errorf("day %s missing after extension", d)
		}
	}
}

func TestAddToExistingMealPlanRebuildsGroceryList(t *testing.T) {
	p, _, _ := newTestEnv(t, testPool())
	ctx := context.Background()

	created, err := p.CreateMealPlan(ctx, Preferences{}, 4, nil, ModeCreateNew)
	if err != nil {
		t.Fatalf("CreateMealPlan: %v", err)
	}
	result, err := p.AddToExistingMealPlan(ctx, created.ID)
	if err != nil {
		t.Fatalf("AddToExistingMealPlan: %v", err)
	}
	if result.ID != created.ID {
		t.Errorf("plan id changed: %d -> %d", created.ID, result.ID)
	}
	if len(result.Meals) != 4 || len(result.GroceryList) == 0 {
		t.Errorf("unexpected result: %d meals, %d grocery items",
			len(result.Meals), len(result.GroceryList))
	}
}
