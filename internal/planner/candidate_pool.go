package planner

import (
	"log"
	"math/rand"
	"sort"
	"strings"

	"meal-plan-assistant/internal/recipe"
)

const (
	// poolTarget is the candidate pool size handed to the scoring oracle.
	poolTarget = 20
	// cuisineSoftMin is the minimum number of cuisine matches required
	// before the cuisine preference narrows the pool.
	cuisineSoftMin = 10
)

type poolFilters struct {
	exclusive string
	dislikes  []string
}

// BuildCandidatePool narrows the library to recipes satisfying the hard
// constraints, honors exclusions and the special-request token filters, and
// stratifies the result by variety key so no single cuisine or protein
// dominates. Filters relax progressively (dislikes first, exclusivity last)
// rather than return an empty pool from an over-constrained request.
func BuildCandidatePool(all []recipe.Recipe, prefs Preferences, excludeNames []string, rng *rand.Rand) []recipe.Recipe {
	excluded := make(map[string]struct{}, len(excludeNames))
	for _, n := range excludeNames {
		excluded[strings.ToLower(n)] = struct{}{}
	}

	base := make([]recipe.Recipe, 0, len(all))
	for _, r := range all {
		if _, skip := excluded[strings.ToLower(r.Name)]; skip {
			continue
		}
		if PassesConstraints(r, prefs) {
			base = append(base, r)
		}
	}

	f := poolFilters{
		exclusive: ExclusiveProtein(prefs.SpecialRequests),
		dislikes:  effectiveDislikes(prefs.SpecialRequests),
	}

	pool := applyFilters(base, f)
	if len(pool) == 0 && len(f.dislikes) > 0 {
		log.Printf("candidate pool empty, relaxing dislike filters")
		pool = applyFilters(base, poolFilters{exclusive: f.exclusive})
	}
	if len(pool) == 0 && f.exclusive != "" {
		log.Printf("candidate pool empty, relaxing exclusive-protein filter %q", f.exclusive)
		pool = base
	}

	pool = applyCuisineSoftFilter(pool, prefs.CuisinePreferences)
	return samplePool(pool, poolTarget, rng)
}

// effectiveDislikes returns the disliked terms of the special-requests text,
// minus terms that name the exclusive protein (exclusivity wins the
// conflict).
func effectiveDislikes(special string) []string {
	terms := ExtractDislikedTerms(special)
	exclusive := ExclusiveProtein(special)
	if exclusive == "" || len(terms) == 0 {
		return terms
	}
	protected := make(map[string]struct{})
	for _, syn := range recipe.ProteinSynonyms(exclusive) {
		protected[syn] = struct{}{}
	}
	out := terms[:0]
	for _, t := range terms {
		if _, ok := protected[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func applyFilters(base []recipe.Recipe, f poolFilters) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(base))
	for _, r := range base {
		if f.exclusive != "" && recipe.InferProtein(r) != f.exclusive {
			continue
		}
		if len(f.dislikes) > 0 && r.ContainsAny(f.dislikes) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// applyCuisineSoftFilter narrows to preferred cuisines only when enough
// matches exist to fill a varied plan; a thin match set keeps the full pool.
func applyCuisineSoftFilter(pool []recipe.Recipe, cuisines []string) []recipe.Recipe {
	if len(cuisines) == 0 {
		return pool
	}
	wanted := make(map[string]struct{}, len(cuisines))
	for _, c := range cuisines {
		wanted[strings.ToLower(c)] = struct{}{}
	}
	matched := make([]recipe.Recipe, 0, len(pool))
	for _, r := range pool {
		if _, ok := wanted[strings.ToLower(r.Cuisine)]; ok {
			matched = append(matched, r)
		}
	}
	if len(matched) >= cuisineSoftMin {
		return matched
	}
	return pool
}

// samplePool stratifies by variety key and round-robins across the strata,
// so the pool the oracle sees is balanced rather than a slice of whatever
// cuisine happens to sort first. The result is shuffled.
func samplePool(pool []recipe.Recipe, target int, rng *rand.Rand) []recipe.Recipe {
	if len(pool) <= target {
		out := append([]recipe.Recipe(nil), pool...)
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}

	groups := make(map[string][]recipe.Recipe)
	for _, r := range pool {
		key := recipe.InferVarietyKey(r)
		groups[key] = append(groups[key], r)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g := groups[k]
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
	}

	out := make([]recipe.Recipe, 0, target)
	for i := 0; len(out) < target; i++ {
		advanced := false
		for _, k := range keys {
			if i < len(groups[k]) {
				out = append(out, groups[k][i])
				advanced = true
				if len(out) == target {
					break
				}
			}
		}
		if !advanced {
			break
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
