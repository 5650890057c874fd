package planner

import (
	"math/rand"
	"strings"
	"testing"

	"meal-plan-assistant/internal/recipe"
)

func testRecipe(name, cuisine string, minutes int, ingredients ...string) recipe.Recipe {
	return recipe.Recipe{
		ID:          strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Name:        name,
		Ingredients: ingredients,
		CookTime:    minutes,
		Cuisine:     cuisine,
	}
}

func testPool() []recipe.Recipe {
	return []recipe.Recipe{
		testRecipe("Chicken Stir Fry", "", 25, "1 lb chicken"),
		testRecipe("Chicken Curry", "", 40, "2 lb chicken thighs"),
		testRecipe("Chicken Tacos", "", 30, "1 lb chicken"),
		testRecipe("Chicken Soup", "", 45, "1 whole chicken"),
		testRecipe("Beef Stew", "", 90, "2 lb beef"),
		testRecipe("Beef Burgers", "", 20, "1 lb ground beef"),
		testRecipe("Salmon Bowl", "", 25, "2 salmon fillets"),
		testRecipe("Tofu Pad Thai", "", 30, "1 block tofu"),
		testRecipe("Lentil Soup", "", 35, "1 cup lentils"),
		testRecipe("Pork Chops", "", 30, "4 pork chops"),
	}
}

func TestNeedsRerank(t *testing.T) {
	if !needsRerank([]float64{50, 50, 50, 50}) {
		t.Error("flat distribution must trigger a rerank")
	}
	if !needsRerank([]float64{50, 50, 50, 52, 90}) {
		t.Error("majority tie must trigger a rerank")
	}
	if needsRerank([]float64{10, 35, 60, 85, 95, 20, 45, 70}) {
		t.Error("spread distribution must not trigger a rerank")
	}
	if needsRerank(nil) {
		t.Error("empty scores must not trigger a rerank")
	}
}

func TestHeuristicScores(t *testing.T) {
	pool := []recipe.Recipe{
		testRecipe("Quick Chicken", "", 15, "1 lb chicken"),
		testRecipe("Slow Braise", "", 120, "2 lb pork"),
	}
	prefs := Preferences{CookingTime: "under 30 minutes", SpecialRequests: "high protein"}
	scored := heuristicScores(pool, prefs)

	if scored[0].Score <= scored[1].Score {
		t.Errorf("quick protein recipe should outscore slow one: %v vs %v",
			scored[0].Score, scored[1].Score)
	}
	// base 50 + time slack 15 (clamped to 20 max) + 20 protein = 85
	if scored[0].Score != 85 {
		t.Errorf("quick chicken score = %v, want 85", scored[0].Score)
	}
	// base 50 - 30 (clamped) + 20 protein = 40
	if scored[1].Score != 40 {
		t.Errorf("slow braise score = %v, want 40", scored[1].Score)
	}
}

func TestApplyRankOrder(t *testing.T) {
	pool := testPool()
	scored := applyScores(pool, nil)
	applyRankOrder(scored, []int{2, 0, 1, 99, -1})

	if scored[2].Score != 100 {
		t.Errorf("first-ranked score = %v, want 100", scored[2].Score)
	}
	if scored[0].Score != 96 {
		t.Errorf("second-ranked score = %v, want 96", scored[0].Score)
	}
	if scored[1].Score != 93 {
		t.Errorf("third-ranked score = %v, want 93", scored[1].Score)
	}
}

func TestSelectMealsHonorsProteinCounts(t *testing.T) {
	pool := testPool()
	// Degenerate scores: every candidate identical, so only the quota
	// logic can shape the outcome.
	scored := make([]scoredCandidate, 0, len(pool))
	for i, r := range pool {
		scored = append(scored, scoredCandidate{
			Recipe:     r,
			Idx:        i,
			Minutes:    r.Minutes(),
			Score:      50,
			VarietyKey: recipe.InferVarietyKey(r),
		})
	}
	prefs := Preferences{MealTypes: []string{"dinner"}}
	rng := rand.New(rand.NewSource(1))

	meals, _ := selectMeals(scored, pool, prefs, 5, "require-protein-counts:chicken=3|beef=2", rng)
	if len(meals) != 5 {
		t.Fatalf("got %d meals, want 5", len(meals))
	}

	counts := map[string]int{}
	byName := map[string]recipe.Recipe{}
	for _, r := range pool {
		byName[r.Name] = r
	}
	for _, m := range meals {
		counts[recipe.InferProtein(byName[m.RecipeName])]++
	}
	if counts["chicken"] != 3 || counts["beef"] != 2 {
		t.Errorf("protein counts = %v, want chicken=3 beef=2", counts)
	}
}

func TestSelectMealsExclusiveProtein(t *testing.T) {
	pool := testPool()
	scored := heuristicScores(pool, Preferences{})
	prefs := Preferences{SpecialRequests: "exclusive-protein:chicken"}
	rng := rand.New(rand.NewSource(7))

	meals, _ := selectMeals(scored, pool, prefs, 4, "", rng)
	byName := map[string]recipe.Recipe{}
	for _, r := range pool {
		byName[r.Name] = r
	}
	for _, m := range meals {
		if recipe.InferProtein(byName[m.RecipeName]) != "chicken" {
			t.Errorf("non-chicken meal selected under exclusivity: %s", m.RecipeName)
		}
	}
}

func TestSelectMealsAssignsDaysAndMealType(t *testing.T) {
	pool := testPool()
	scored := heuristicScores(pool, Preferences{})
	rng := rand.New(rand.NewSource(3))

	meals, reasoning := selectMeals(scored, pool, Preferences{}, 0, "", rng)
	if len(meals) != 7 {
		t.Fatalf("default target should be 7 meals, got %d", len(meals))
	}
	for i, m := range meals {
		if m.DayOfWeek != daysOfWeek[i] {
			t.Errorf("meal %d day = %s, want %s", i, m.DayOfWeek, daysOfWeek[i])
		}
		if m.MealType != "dinner" {
			t.Errorf("meal %d type = %s, want dinner", i, m.MealType)
		}
	}
	if !strings.Contains(reasoning, "Audit") {
		t.Error("reasoning should include the scoring audit")
	}

	seen := map[string]bool{}
	for _, m := range meals {
		if seen[m.RecipeName] {
			t.Errorf("duplicate recipe in plan: %s", m.RecipeName)
		}
		seen[m.RecipeName] = true
	}
}

func TestSelectMealsVarietyFirst(t *testing.T) {
	pool := []recipe.Recipe{
		testRecipe("Pasta One", "italian", 30),
		testRecipe("Pasta Two", "italian", 30),
		testRecipe("Tacos", "mexican", 30),
		testRecipe("Curry", "indian", 30),
		testRecipe("Stir Fry", "asian", 30),
	}
	scored := heuristicScores(pool, Preferences{})
	rng := rand.New(rand.NewSource(11))

	meals, _ := selectMeals(scored, pool, Preferences{}, 4, "", rng)
	cuisines := map[string]int{}
	byName := map[string]recipe.Recipe{}
	for _, r := range pool {
		byName[r.Name] = r
	}
	for _, m := range meals {
		cuisines[byName[m.RecipeName].Cuisine]++
	}
	// The first four picks must come from distinct variety keys.
	if len(cuisines) != 4 {
		t.Errorf("expected 4 distinct cuisines in first picks, got %v", cuisines)
	}
}
