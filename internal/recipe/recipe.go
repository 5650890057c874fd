package recipe

import "strings"

// Recipe represents a seeded recipe. Recipes are read-only to the planning
// engine; they are written only by the import command.
type Recipe struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTime     int      `json:"prep_time"`
	CookTime     int      `json:"cook_time"`
	Servings     int      `json:"servings"`
	Cuisine      string   `json:"cuisine"`
	DietaryTags  []string `json:"dietary_tags"`
	Difficulty   string   `json:"difficulty"`
}

// Minutes returns the total prep plus cook time.
func (r Recipe) Minutes() int {
	return r.PrepTime + r.CookTime
}

// SearchText returns the lowercased name and ingredient lines joined into a
// single haystack for keyword matching.
func (r Recipe) SearchText() string {
	parts := make([]string, 0, len(r.Ingredients)+1)
	parts = append(parts, r.Name)
	parts = append(parts, r.Ingredients...)
	return strings.ToLower(strings.Join(parts, " "))
}

// ContainsAny reports whether the recipe's name or ingredients contain any of
// the given lowercased terms.
func (r Recipe) ContainsAny(terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	hay := r.SearchText()
	for _, t := range terms {
		if t != "" && strings.Contains(hay, t) {
			return true
		}
	}
	return false
}
