package planner

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"meal-plan-assistant/internal/recipe"
)

// defaultPlanSize is the number of slots when the user doesn't ask for a
// specific count.
const defaultPlanSize = 7

var daysOfWeek = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// scoredCandidate carries one pool entry through scoring and selection.
type scoredCandidate struct {
	recipe.Recipe
	Idx        int
	Minutes    int
	Score      float64
	Why        string
	VarietyKey string
	sortKey    float64
}

var (
	proteinGoalWords = []string{
		"chicken", "beef", "pork", "turkey", "salmon", "fish", "shrimp",
		"egg", "eggs", "tofu", "tempeh", "beans", "lentils", "chickpeas",
		"greek yogurt", "cottage cheese",
	}
	fiberGoalWords = []string{
		"beans", "lentils", "chickpeas", "broccoli", "oats", "quinoa",
		"brown rice", "whole wheat", "barley", "peas", "berries", "avocado",
		"bran", "spinach",
	}
	carbGoalWords = []string{
		"rice", "pasta", "noodle", "bread", "tortilla", "potato", "potatoes",
	}
)

// applyScores merges oracle scores onto the pool, clamping to [0,100] and
// defaulting the variety key from the recipe itself.
func applyScores(pool []recipe.Recipe, scores []CandidateScore) []scoredCandidate {
	byIdx := make(map[int]CandidateScore, len(scores))
	for _, s := range scores {
		byIdx[s.Index] = s
	}
	out := make([]scoredCandidate, len(pool))
	for i, r := range pool {
		c := scoredCandidate{
			Recipe:     r,
			Idx:        i,
			Minutes:    r.Minutes(),
			VarietyKey: recipe.InferVarietyKey(r),
		}
		if s, ok := byIdx[i]; ok {
			c.Score = math.Max(0, math.Min(100, s.Score))
			c.Why = s.Why
			if s.VarietyKey != "" {
				c.VarietyKey = s.VarietyKey
			}
		}
		out[i] = c
	}
	return out
}

func allZeroScores(scored []scoredCandidate) bool {
	if len(scored) == 0 {
		return false
	}
	for _, s := range scored {
		if s.Score != 0 {
			return false
		}
	}
	return true
}

// heuristicScores rates the pool without a model: base 50, rewarded for
// fitting under the time ceiling and for matching nutrition goals mentioned
// in the special requests.
func heuristicScores(pool []recipe.Recipe, prefs Preferences) []scoredCandidate {
	goals := strings.ToLower(prefs.SpecialRequests)
	wantsProtein := strings.Contains(goals, "high-protein") ||
		strings.Contains(goals, "high protein") || strings.Contains(goals, "protein")
	wantsFiber := strings.Contains(goals, "high-fiber") ||
		strings.Contains(goals, "high fiber") || strings.Contains(goals, "fiber")
	wantsLowCarb := strings.Contains(goals, "low-carb") || strings.Contains(goals, "low carb")
	maxMins, hasMax := MaxMinutes(prefs.CookingTime)

	out := make([]scoredCandidate, len(pool))
	for i, r := range pool {
		ing := strings.ToLower(strings.Join(r.Ingredients, " "))
		mins := r.Minutes()
		score := 50.0
		if hasMax {
			score += math.Max(-30, math.Min(20, float64(maxMins-mins)))
		}
		if wantsProtein && containsAnyWord(ing, proteinGoalWords) {
			score += 20
		}
		if wantsFiber && containsAnyWord(ing, fiberGoalWords) {
			score += 15
		}
		if wantsLowCarb && containsAnyWord(ing, carbGoalWords) {
			score -= 15
		}
		out[i] = scoredCandidate{
			Recipe:     r,
			Idx:        i,
			Minutes:    mins,
			Score:      math.Max(0, math.Min(100, score)),
			Why:        "heuristic fallback scoring",
			VarietyKey: recipe.InferVarietyKey(r),
		}
	}
	return out
}

func containsAnyWord(hay string, words []string) bool {
	for _, w := range words {
		if strings.Contains(hay, w) {
			return true
		}
	}
	return false
}

// needsRerank reports whether the score distribution is too flat to order
// candidates meaningfully: low spread, or one value tied across more than
// half the pool.
func needsRerank(scores []float64) bool {
	if len(scores) == 0 {
		return false
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	var variance float64
	freq := make(map[float64]int)
	maxTie := 0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
		freq[s]++
		if freq[s] > maxTie {
			maxTie = freq[s]
		}
	}
	sd := math.Sqrt(variance / float64(len(scores)))
	return sd < 3 || maxTie > len(scores)/2
}

// rankScale spreads a strict order back onto the 0-100 scale; positions
// past the scale floor at 35.
var rankScale = []float64{
	100, 96, 93, 90, 88, 86, 84, 82, 80, 78, 76, 74, 72, 70, 68, 66, 64, 62,
	60, 58, 56, 54, 52, 50, 48, 46, 44, 42, 40, 38,
}

func applyRankOrder(scored []scoredCandidate, order []int) {
	for pos, idx := range order {
		if idx < 0 || idx >= len(scored) {
			continue
		}
		if pos < len(rankScale) {
			scored[idx].Score = rankScale[pos]
		} else {
			scored[idx].Score = 35
		}
		if scored[idx].Why == "" {
			scored[idx].Why = "ranked reroll"
		}
	}
}

// selectMeals runs the phased pick over a scored pool and assigns days and
// meal types. It enforces exclusivity, protein-count quotas, required
// proteins and early variety, in that order of priority.
func selectMeals(scored []scoredCandidate, pool []recipe.Recipe, prefs Preferences, requestedCount int, cleanedSpecial string, rng *rand.Rand) ([]MealAssignment, string) {
	target := defaultPlanSize
	if requestedCount > 0 {
		target = requestedCount
	}

	exclusive := ExclusiveProtein(prefs.SpecialRequests)
	adj := make([]scoredCandidate, len(scored))
	copy(adj, scored)
	if exclusive != "" {
		for i := range adj {
			if recipe.InferProtein(adj[i].Recipe) != exclusive {
				adj[i].Score = 0
			}
		}
	}

	// Rank by score with minutes as a tiebreaker and a small jitter so
	// back-to-back plans don't repeat identically.
	for i := range adj {
		adj[i].sortKey = adj[i].Score*100 - float64(adj[i].Minutes) + rng.Float64()*3
	}
	sort.SliceStable(adj, func(i, j int) bool { return adj[i].sortKey > adj[j].sortKey })

	requiredSet := make(map[string]struct{})
	for _, p := range RequiredProteins(cleanedSpecial) {
		requiredSet[p] = struct{}{}
	}
	requiredCounts := RequiredProteinCounts(cleanedSpecial)

	var out []scoredCandidate
	picked := make(map[int]struct{})
	seenVariety := make(map[string]struct{})

	take := func(c scoredCandidate) {
		out = append(out, c)
		picked[c.Idx] = struct{}{}
	}

	// Phase A: explicit protein count quotas come first, preferring
	// positively scored candidates and falling back to zero scores when a
	// quota can't be met otherwise.
	if len(requiredCounts) > 0 {
		remaining := make(map[string]int, len(requiredCounts))
		for k, v := range requiredCounts {
			remaining[k] = v
		}
		for _, allowZero := range []bool{false, true} {
			if !quotasOpen(remaining) {
				break
			}
			for _, c := range adj {
				if len(out) == target {
					break
				}
				if _, dup := picked[c.Idx]; dup {
					continue
				}
				key := recipe.InferProtein(c.Recipe)
				if remaining[key] > 0 && (allowZero || c.Score > 0) {
					take(c)
					remaining[key]--
				}
				if !quotasOpen(remaining) {
					break
				}
			}
		}
	}

	// Phase B: without count quotas, pick variety-first, satisfying each
	// required protein category at least once.
	if len(requiredCounts) == 0 {
		for _, c := range adj {
			if len(out) == target {
				break
			}
			if _, dup := picked[c.Idx]; dup {
				continue
			}
			_, varietySeen := seenVariety[c.VarietyKey]
			want := len(out) >= 4 || !varietySeen
			proteinKey := recipe.InferProtein(c.Recipe)
			satisfies := true
			if len(requiredSet) > 0 {
				_, satisfies = requiredSet[proteinKey]
			}
			if c.Score > 0 && want && satisfies {
				take(c)
				seenVariety[c.VarietyKey] = struct{}{}
				delete(requiredSet, proteinKey)
			}
		}
	}

	// Phase C: fill remaining slots by score, still variety-first early.
	for _, c := range adj {
		if len(out) == target {
			break
		}
		if _, dup := picked[c.Idx]; dup {
			continue
		}
		_, varietySeen := seenVariety[c.VarietyKey]
		want := len(out) >= 4 || !varietySeen
		if c.Score > 0 && want {
			take(c)
			seenVariety[c.VarietyKey] = struct{}{}
		}
	}

	// Phase D: top up with anything left, zero scores included.
	for _, c := range adj {
		if len(out) == target {
			break
		}
		if _, dup := picked[c.Idx]; dup {
			continue
		}
		take(c)
	}

	// Phase E: scoring produced nothing at all, take the fastest recipes
	// from the raw pool with randomized ordering.
	if len(out) == 0 {
		type timed struct {
			r recipe.Recipe
			t float64
		}
		byTime := make([]timed, len(pool))
		for i, r := range pool {
			byTime[i] = timed{r: r, t: float64(r.Minutes()) + rng.Float64()*5}
		}
		sort.SliceStable(byTime, func(i, j int) bool { return byTime[i].t < byTime[j].t })
		for _, x := range byTime {
			out = append(out, scoredCandidate{
				Recipe:     x.r,
				Idx:        -1,
				Minutes:    x.r.Minutes(),
				Score:      50 + rng.Float64()*10,
				Why:        "fallback: quick + randomized",
				VarietyKey: recipe.InferVarietyKey(x.r),
			})
			if len(out) == target {
				break
			}
		}
	}

	if len(out) > target {
		out = out[:target]
	}

	mealType := "dinner"
	if len(prefs.MealTypes) > 0 && prefs.MealTypes[0] != "" {
		mealType = prefs.MealTypes[0]
	}
	meals := make([]MealAssignment, len(out))
	for i, c := range out {
		meals[i] = MealAssignment{
			DayOfWeek:   daysOfWeek[i%len(daysOfWeek)],
			MealType:    mealType,
			RecipeName:  c.Name,
			Description: c.Description,
		}
	}
	return meals, buildReasoning(adj, out, prefs)
}

func quotasOpen(remaining map[string]int) bool {
	for _, v := range remaining {
		if v > 0 {
			return true
		}
	}
	return false
}

// buildReasoning writes the human-readable audit attached to every plan:
// the variety keys covered and the top scored candidates with reasons.
func buildReasoning(ranked, chosen []scoredCandidate, prefs Preferences) string {
	varietySeen := make(map[string]struct{})
	var variety []string
	for _, c := range chosen {
		if _, ok := varietySeen[c.VarietyKey]; ok {
			continue
		}
		varietySeen[c.VarietyKey] = struct{}{}
		variety = append(variety, c.VarietyKey)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Selected to fit cuisines=%v, time=%q, difficulty=%q with variety across %s.",
		prefs.CuisinePreferences, prefs.CookingTime, prefs.Difficulty, strings.Join(variety, ", "))
	b.WriteString("\n\nAudit (top candidates):\n")
	top := ranked
	if len(top) > 10 {
		top = top[:10]
	}
	for _, c := range top {
		why := c.Why
		if why == "" {
			why = "no reason provided"
		}
		fmt.Fprintf(&b, "- %s [%.0f] (%d min, %s) – %s\n", c.Name, c.Score, c.Minutes, c.VarietyKey, why)
	}
	return strings.TrimRight(b.String(), "\n")
}
