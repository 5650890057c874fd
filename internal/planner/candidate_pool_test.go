package planner

import (
	"fmt"
	"math/rand"
	"testing"

	"meal-plan-assistant/internal/recipe"
)

func TestBuildCandidatePoolHardConstraints(t *testing.T) {
	library := testPool()
	rng := rand.New(rand.NewSource(1))

	prefs := Preferences{CookingTime: "under 30 minutes"}
	pool := BuildCandidatePool(library, prefs, nil, rng)
	if len(pool) == 0 {
		t.Fatal("expected a non-empty pool")
	}
	for _, r := range pool {
		if r.Minutes() > 30 {
			t.Errorf("recipe %s exceeds the time ceiling (%d min)", r.Name, r.Minutes())
		}
	}
}

func TestBuildCandidatePoolExcludesNames(t *testing.T) {
	library := testPool()
	rng := rand.New(rand.NewSource(2))

	pool := BuildCandidatePool(library, Preferences{}, []string{"chicken stir fry", "Beef Stew"}, rng)
	for _, r := range pool {
		if r.Name == "Chicken Stir Fry" || r.Name == "Beef Stew" {
			t.Errorf("excluded recipe %s present in pool", r.Name)
		}
	}
}

func TestBuildCandidatePoolExclusiveProtein(t *testing.T) {
	library := testPool()
	rng := rand.New(rand.NewSource(3))

	prefs := Preferences{SpecialRequests: "exclusive-protein:chicken"}
	pool := BuildCandidatePool(library, prefs, nil, rng)
	if len(pool) == 0 {
		t.Fatal("expected chicken recipes in pool")
	}
	for _, r := range pool {
		if recipe.InferProtein(r) != "chicken" {
			t.Errorf("non-chicken recipe %s in exclusive pool", r.Name)
		}
	}
}

func TestBuildCandidatePoolDislikeFilter(t *testing.T) {
	library := testPool()
	rng := rand.New(rand.NewSource(4))

	prefs := Preferences{SpecialRequests: "no chicken, avoid beef"}
	pool := BuildCandidatePool(library, prefs, nil, rng)
	if len(pool) == 0 {
		t.Fatal("expected a non-empty pool")
	}
	for _, r := range pool {
		if r.ContainsAny([]string{"chicken", "beef"}) {
			t.Errorf("disliked recipe %s in pool", r.Name)
		}
	}
}

func TestBuildCandidatePoolExclusiveOverridesDislike(t *testing.T) {
	library := testPool()
	rng := rand.New(rand.NewSource(5))

	// Exclusivity wins over a conflicting dislike of the same category.
	prefs := Preferences{SpecialRequests: "no salmon, exclusive-protein:fish"}
	pool := BuildCandidatePool(library, prefs, nil, rng)
	if len(pool) == 0 {
		t.Fatal("expected the fish recipe to survive the conflicting dislike")
	}
	for _, r := range pool {
		if recipe.InferProtein(r) != "fish" {
			t.Errorf("unexpected recipe %s", r.Name)
		}
	}
}

func TestBuildCandidatePoolRelaxesOverConstrainedFilters(t *testing.T) {
	library := testPool()
	rng := rand.New(rand.NewSource(6))

	// Disliking every protein in the library would empty the pool; the
	// dislike filter must relax rather than return nothing.
	prefs := Preferences{SpecialRequests: "no chicken, no beef, no salmon, no tofu, no lentils, no pork"}
	pool := BuildCandidatePool(library, prefs, nil, rng)
	if len(pool) == 0 {
		t.Fatal("over-constrained request must still produce candidates")
	}
}

func TestBuildCandidatePoolCuisineSoftFilter(t *testing.T) {
	var library []recipe.Recipe
	for i := 0; i < 12; i++ {
		library = append(library, testRecipe(fmt.Sprintf("Italian Dish %d", i), "italian", 30))
	}
	library = append(library, testRecipe("Tacos", "mexican", 30))

	rng := rand.New(rand.NewSource(7))
	prefs := Preferences{CuisinePreferences: []string{"Italian"}}
	pool := BuildCandidatePool(library, prefs, nil, rng)
	for _, r := range pool {
		if r.Cuisine != "italian" {
			t.Errorf("with enough matches, pool should be italian only; got %s", r.Name)
		}
	}

	// Too few matches: keep the whole pool instead of narrowing to a
	// plan's worth of near-duplicates.
	prefs = Preferences{CuisinePreferences: []string{"mexican"}}
	pool = BuildCandidatePool(library, prefs, nil, rng)
	if len(pool) <= 1 {
		t.Errorf("thin cuisine match should keep the full pool, got %d recipes", len(pool))
	}
}

func TestSamplePoolStratifiesAndCaps(t *testing.T) {
	var library []recipe.Recipe
	for i := 0; i < 40; i++ {
		library = append(library, testRecipe(fmt.Sprintf("Chicken %d", i), "", 30, "1 lb chicken"))
	}
	for i := 0; i < 3; i++ {
		library = append(library, testRecipe(fmt.Sprintf("Lentil %d", i), "", 30, "1 cup lentils"))
	}

	rng := rand.New(rand.NewSource(8))
	pool := samplePool(library, poolTarget, rng)
	if len(pool) != poolTarget {
		t.Fatalf("pool size = %d, want %d", len(pool), poolTarget)
	}
	counts := map[string]int{}
	for _, r := range pool {
		counts[recipe.InferProtein(r)]++
	}
	// Round-robin sampling must keep the minority stratum represented.
	if counts["legume"] != 3 {
		t.Errorf("legume count = %d, want all 3 minority recipes sampled", counts["legume"])
	}
}
