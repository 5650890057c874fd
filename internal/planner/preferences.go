package planner

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"meal-plan-assistant/internal/recipe"
)

// Preferences is the structured preferences object produced by the chat
// layer. SpecialRequests is free text that doubles as the carrier for
// machine-readable tokens: "exclusive-protein:<p>",
// "require-proteins:<p1>|<p2>" and "require-protein-counts:<p1>=<n1>|...".
type Preferences struct {
	DietaryRestrictions []string `json:"dietaryRestrictions"`
	CuisinePreferences  []string `json:"cuisinePreferences"`
	MealTypes           []string `json:"mealTypes"`
	CookingTime         string   `json:"cookingTime"`
	Difficulty          string   `json:"difficulty"`
	ServingSize         int      `json:"servingSize"`
	SpecialRequests     string   `json:"specialRequests"`
}

// SafeParsePreferences decodes a stored preferences JSON string, returning
// the zero value on malformed input.
func SafeParsePreferences(raw string) Preferences {
	var prefs Preferences
	if raw == "" {
		return prefs
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return Preferences{}
	}
	return prefs
}

// MaxMinutes maps the cooking-time bucket string to a maximum total-minutes
// ceiling. The second return is false when the bucket is unconstrained.
func MaxMinutes(cookingTime string) (int, bool) {
	s := strings.ToLower(cookingTime)
	switch {
	case strings.Contains(s, "under 30"), strings.Contains(s, "0-30"),
		strings.Contains(s, "15-30"), strings.Contains(s, "0-20"),
		strings.Contains(s, "quick"):
		return 30, true
	case strings.Contains(s, "30-60"),
		strings.Contains(s, "30") && strings.Contains(s, "60"):
		return 60, true
	case strings.Contains(s, "60+"), strings.Contains(s, "over 60"),
		strings.Contains(s, "long"):
		return 120, true
	}
	return 0, false
}

// PassesConstraints is the hard-constraint filter: every declared dietary
// restriction must be present in the recipe's tag set (case-insensitive),
// a non-"any" difficulty must match, and the total time must fit the
// cooking-time ceiling. Pure predicate, no side effects.
func PassesConstraints(r recipe.Recipe, prefs Preferences) bool {
	if len(prefs.DietaryRestrictions) > 0 {
		tags := make(map[string]struct{}, len(r.DietaryTags))
		for _, t := range r.DietaryTags {
			tags[strings.ToLower(t)] = struct{}{}
		}
		for _, need := range prefs.DietaryRestrictions {
			if _, ok := tags[strings.ToLower(need)]; !ok {
				return false
			}
		}
	}

	difficulty := strings.ToLower(prefs.Difficulty)
	if difficulty != "" && difficulty != "any" && r.Difficulty != "" &&
		strings.ToLower(r.Difficulty) != difficulty {
		return false
	}

	if max, ok := MaxMinutes(prefs.CookingTime); ok && r.Minutes() > max {
		return false
	}
	return true
}

var dislikePatterns = []*regexp.Regexp{
	regexp.MustCompile(`no\s+(\w+)`),
	regexp.MustCompile(`avoid\s+(\w+)`),
	regexp.MustCompile(`don['’]?t\s+like\s+(\w+)`),
	regexp.MustCompile(`do\s+not\s+like\s+(\w+)`),
	regexp.MustCompile(`dislike\s+(\w+)`),
	regexp.MustCompile(`allergic\s+to\s+(\w+)`),
}

// ExtractDislikedTerms pulls the terms of dislike/avoidance phrases out of a
// free-text message ("I don't like mushrooms and avoid shellfish" yields
// mushrooms, shellfish). Order-preserving, deduplicated.
func ExtractDislikedTerms(message string) []string {
	lower := strings.ToLower(message)
	seen := make(map[string]struct{})
	var terms []string
	for _, re := range dislikePatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			term := m[1]
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}

var (
	exclusiveTokenRe = regexp.MustCompile(`exclusive-protein:(\w+)`)
	requireSetRe     = regexp.MustCompile(`require-proteins:([a-z|]+)`)
	requireCountsRe  = regexp.MustCompile(`require-protein-counts:([a-z0-9=|]+)`)
	inlineCountRe    = regexp.MustCompile(`(\d+)\s+(chicken|beef|fish|pork|turkey|salmon|shrimp|tofu|beans?|lentils?|chickpeas?|legumes?)`)
)

// ExclusiveProtein returns the normalized protein category of the latest
// exclusive-protein token in the special-requests text, or "" when absent.
func ExclusiveProtein(special string) string {
	matches := exclusiveTokenRe.FindAllStringSubmatch(strings.ToLower(special), -1)
	if len(matches) == 0 {
		return ""
	}
	return recipe.NormalizeProteinToken(matches[len(matches)-1][1])
}

// RequiredProteins parses a require-proteins token into an ordered set of
// normalized categories.
func RequiredProteins(special string) []string {
	m := requireSetRe.FindStringSubmatch(strings.ToLower(special))
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Split(m[1], "|") {
		if tok == "" {
			continue
		}
		cat := recipe.NormalizeProteinToken(tok)
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	return out
}

// RequiredProteinCounts parses a require-protein-counts token into a
// normalized category -> exact count map.
func RequiredProteinCounts(special string) map[string]int {
	out := make(map[string]int)
	m := requireCountsRe.FindStringSubmatch(strings.ToLower(special))
	if m == nil {
		return out
	}
	for _, pair := range strings.Split(m[1], "|") {
		name, numStr, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(numStr)
		if err != nil || name == "" || n <= 0 {
			continue
		}
		out[recipe.NormalizeProteinToken(name)] += n
	}
	return out
}

// DesiredProteinCounts extracts protein-count quotas from a modification
// request: the require-protein-counts token plus inline phrases like
// "3 chicken and 2 beef".
func DesiredProteinCounts(request string) map[string]int {
	lower := strings.ToLower(request)
	out := RequiredProteinCounts(lower)
	for _, m := range inlineCountRe.FindAllStringSubmatch(lower, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		out[recipe.NormalizeProteinToken(m[2])] += n
	}
	return out
}

// CleanSpecialForExclusive strips dislike phrases that conflict with the
// active exclusive-protein category (exclusivity takes precedence over
// conflicting dislikes), then tidies commas and deduplicates tokens.
func CleanSpecialForExclusive(special, exclusive string) string {
	if special == "" || exclusive == "" {
		return special
	}
	s := special
	for _, word := range recipe.ProteinSynonyms(exclusive) {
		w := regexp.QuoteMeta(word)
		re := regexp.MustCompile(`(?i)(?:^|,\s*)(?:no|avoid|don['’]?t\s+like|do\s+not\s+like|dislike|allergic\s+to)\s+` + w + `\b`)
		s = re.ReplaceAllString(s, "")
	}
	return tidyTokenList(s)
}

// tidyTokenList removes double commas and duplicate comma-separated tokens.
func tidyTokenList(s string) string {
	parts := strings.Split(s, ",")
	seen := make(map[string]struct{})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}
