package grocery

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"meal-plan-assistant/internal/recipe"
)

// RecipeSource resolves recipe names to their stored recipes.
type RecipeSource interface {
	GetByName(ctx context.Context, name string) (*recipe.Recipe, error)
}

// aggregateLine is one consolidated grocery entry. Groups are keyed by base
// name only; the first-seen unit wins and later quantities are summed into
// it after volume conversion.
type aggregateLine struct {
	TotalQuantity float64
	Unit          string
	BaseName      string
	AllItems      []string
}

// CollectIngredients gathers every ingredient line of the named recipes into
// one flat sequence. Unknown recipe names are logged and skipped rather than
// failing the whole list.
func CollectIngredients(ctx context.Context, source RecipeSource, recipeNames []string) ([]string, error) {
	var allIngredients []string
	for _, name := range recipeNames {
		rec, err := source.GetByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up recipe %q: %w", name, err)
		}
		if rec == nil {
			log.Printf("Warning: recipe not found in database: %s", name)
			continue
		}
		allIngredients = append(allIngredients, rec.Ingredients...)
	}
	return allIngredients, nil
}

// Deduplicate parses and unit-normalizes every line, sums quantities keyed by
// canonical ingredient name, and returns one formatted string per group,
// lexicographically sorted.
func Deduplicate(groceryList []string) []string {
	groups := make(map[string]*aggregateLine)

	for _, item := range groceryList {
		converted := ConvertToCommonUnit(ParseIngredient(item))
		key := strings.ToLower(converted.BaseName)

		if existing, ok := groups[key]; ok {
			existing.TotalQuantity += converted.Quantity
			existing.AllItems = append(existing.AllItems, item)
		} else {
			groups[key] = &aggregateLine{
				TotalQuantity: converted.Quantity,
				Unit:          converted.Unit,
				BaseName:      converted.BaseName,
				AllItems:      []string{item},
			}
		}
	}

	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, formatIngredient(g))
	}
	sort.Strings(out)
	return out
}

func formatIngredient(g *aggregateLine) string {
	if g.Unit == "item" {
		return g.BaseName
	}

	if math.IsNaN(g.TotalQuantity) || math.IsInf(g.TotalQuantity, 0) {
		log.Printf("Warning: total quantity is invalid for ingredient %q", g.BaseName)
		return g.BaseName
	}

	// Volume amounts live in the tbsp basis; pick the friendliest unit to
	// print them back in.
	if g.Unit == "tbsp" {
		q := g.TotalQuantity
		switch {
		case q >= 16:
			cups := q / 16
			plural := ""
			if cups > 1 {
				plural = "s"
			}
			return fmt.Sprintf("%s cup%s %s", formatNumber(cups), plural, g.BaseName)
		case q >= 3:
			return fmt.Sprintf("%s tbsp %s", formatNumber(round1(q)), g.BaseName)
		default:
			tsp := q * 3
			if tsp == math.Trunc(tsp) {
				return fmt.Sprintf("%d tsp %s", int(tsp), g.BaseName)
			}
			return fmt.Sprintf("%s tsp %s", formatNumber(round1(tsp)), g.BaseName)
		}
	}

	return fmt.Sprintf("%s %s %s", formatQuantity(g.TotalQuantity), g.Unit, g.BaseName)
}

// formatQuantity prints integral amounts as-is, common fractions as vulgar
// fractions, and anything else rounded to one decimal.
func formatQuantity(q float64) string {
	if q == math.Trunc(q) {
		return strconv.FormatFloat(q, 'f', -1, 64)
	}
	switch q {
	case 0.25:
		return "1/4"
	case 0.5:
		return "1/2"
	case 0.75:
		return "3/4"
	case 1.5:
		return "1 1/2"
	case 2.5:
		return "2 1/2"
	}
	return formatNumber(round1(q))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
