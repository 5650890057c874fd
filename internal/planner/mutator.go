package planner

import (
	"context"
	"log"
	"sort"

	"meal-plan-assistant/internal/recipe"
)

// maxDislikePasses bounds the dislike sweep; a replacement can itself
// contain a disliked term, so one extra pass cleans up after the first.
const maxDislikePasses = 2

// repairDislikes sweeps a plan for meals containing terms the modification
// request disliked and swaps them for clean recipes, preserving each slot's
// day and meal type. Replacement candidates honor the stored preferences
// when possible and always avoid the disliked terms.
func (p *Planner) repairDislikes(ctx context.Context, planID int64, request string, library []recipe.Recipe) error {
	terms := ExtractDislikedTerms(request)
	if len(terms) == 0 {
		return nil
	}

	for pass := 0; pass < maxDislikePasses; pass++ {
		plan, err := p.plans.Get(ctx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrPlanNotFound
		}
		prefs := SafeParsePreferences(plan.Preferences)

		var bad []StoredMeal
		for _, m := range plan.Meals {
			if m.Recipe.ContainsAny(terms) {
				bad = append(bad, m)
			}
		}
		if len(bad) == 0 {
			return nil
		}

		candidates := filterLibrary(library, func(r recipe.Recipe) bool {
			return PassesConstraints(r, prefs) && !r.ContainsAny(terms)
		})
		if len(candidates) == 0 {
			// Preferences too strict; at minimum keep disliked items out.
			candidates = filterLibrary(library, func(r recipe.Recipe) bool {
				return !r.ContainsAny(terms)
			})
		}
		if len(candidates) == 0 {
			log.Printf("no replacement candidates avoid disliked terms %v", terms)
			return nil
		}

		used := make(map[string]struct{}, len(plan.Meals))
		for _, m := range plan.Meals {
			used[m.Recipe.Name] = struct{}{}
		}
		for _, slot := range bad {
			pick := candidates[0]
			for _, c := range candidates {
				if _, taken := used[c.Name]; !taken {
					pick = c
					break
				}
			}
			used[pick.Name] = struct{}{}
			if err := p.plans.ReplaceSlot(ctx, planID, slot.DayOfWeek, slot.MealType, pick.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// repairProteinCounts enforces protein-count quotas expressed in the
// modification request ("3 chicken and 2 beef"). For each protein below its
// quota it swaps in matching recipes, taking slots from proteins that have
// no quota or sit above theirs; quota proteins at or below target are never
// donors unless nothing else is left. Bounded by the deficit, so it always
// terminates.
func (p *Planner) repairProteinCounts(ctx context.Context, planID int64, request string, library []recipe.Recipe) error {
	desired := DesiredProteinCounts(request)
	if len(desired) == 0 {
		return nil
	}

	plan, err := p.plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}
	prefs := SafeParsePreferences(plan.Preferences)
	dislikes := ExtractDislikedTerms(request)

	used := make(map[string]struct{}, len(plan.Meals))
	currentCounts := make(map[string]int)
	type planSlot struct {
		dayOfWeek string
		mealType  string
		protein   string
	}
	slots := make([]planSlot, len(plan.Meals))
	for i, m := range plan.Meals {
		used[m.Recipe.Name] = struct{}{}
		protein := recipe.InferProtein(m.Recipe)
		currentCounts[protein]++
		slots[i] = planSlot{
			dayOfWeek: m.DayOfWeek,
			mealType:  m.MealType,
			protein:   protein,
		}
	}

	nextCandidate := func(protein string) *recipe.Recipe {
		for _, r := range library {
			if !PassesConstraints(r, prefs) || recipe.InferProtein(r) != protein || r.ContainsAny(dislikes) {
				continue
			}
			if _, taken := used[r.Name]; taken {
				continue
			}
			return &r
		}
		return nil
	}

	// Donor preference: slots whose protein has no quota, then slots above
	// their quota, then any slot of a different protein.
	pickDonor := func(target string) int {
		for i, s := range slots {
			if s.protein == target {
				continue
			}
			if _, hasQuota := desired[s.protein]; !hasQuota {
				return i
			}
			if currentCounts[s.protein] > desired[s.protein] {
				return i
			}
		}
		for i, s := range slots {
			if s.protein != target {
				return i
			}
		}
		return -1
	}

	proteins := make([]string, 0, len(desired))
	for protein := range desired {
		proteins = append(proteins, protein)
	}
	sort.Strings(proteins)

	for _, protein := range proteins {
		remaining := desired[protein] - currentCounts[protein]
		for remaining > 0 {
			pick := nextCandidate(protein)
			if pick == nil {
				log.Printf("no unused %s recipes left to meet requested count", protein)
				break
			}
			donorIdx := pickDonor(protein)
			if donorIdx == -1 {
				break
			}
			donor := slots[donorIdx]
			if err := p.plans.ReplaceSlot(ctx, planID, donor.dayOfWeek, donor.mealType, pick.ID); err != nil {
				return err
			}
			used[pick.Name] = struct{}{}
			if currentCounts[donor.protein] > 0 {
				currentCounts[donor.protein]--
			}
			currentCounts[protein]++
			slots[donorIdx].protein = protein
			remaining--
		}
	}
	return nil
}

func filterLibrary(library []recipe.Recipe, keep func(recipe.Recipe) bool) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(library))
	for _, r := range library {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
