package recipe

import (
	"regexp"
	"strings"
)

// ProteinUnknown is returned when no protein rule matches a recipe.
const ProteinUnknown = "unknown"

type proteinRule struct {
	pattern  *regexp.Regexp
	category string
}

// proteinRules is evaluated in order; the first match wins. Order matters
// because ingredient text can match several categories (e.g. "bacon-wrapped
// chicken" must classify as chicken, so chicken precedes pork).
var proteinRules = []proteinRule{
	{regexp.MustCompile(`chicken|thigh|breast`), "chicken"},
	{regexp.MustCompile(`beef|steak|ground\s+beef`), "beef"},
	{regexp.MustCompile(`pork|bacon`), "pork"},
	{regexp.MustCompile(`salmon|cod|tilapia|fish|seafood|shrimp|prawn|scallop`), "fish"},
	{regexp.MustCompile(`turkey`), "turkey"},
	{regexp.MustCompile(`tofu|tempeh`), "tofu"},
	{regexp.MustCompile(`bean|lentil|chickpea|legume`), "legume"},
}

// InferProtein classifies a recipe into a coarse protein category from its
// name and ingredient text.
func InferProtein(r Recipe) string {
	hay := r.SearchText()
	for _, rule := range proteinRules {
		if rule.pattern.MatchString(hay) {
			return rule.category
		}
	}
	return ProteinUnknown
}

// InferVarietyKey returns the diversity-bucketing label for a recipe: its
// cuisine if present, else its inferred protein category.
func InferVarietyKey(r Recipe) string {
	if r.Cuisine != "" {
		return r.Cuisine
	}
	return InferProtein(r)
}

var fishTokens = []string{"salmon", "cod", "tilapia", "fish", "seafood", "shrimp", "prawn", "scallop"}
var legumeTokens = []string{"bean", "beans", "lentil", "lentils", "chickpea", "chickpeas", "legume", "legumes"}
var tofuTokens = []string{"tofu", "tempeh"}

// NormalizeProteinToken maps a free-text user token onto the classifier's
// category vocabulary so declared quotas and inferred categories compare
// equal (salmon -> fish, lentils -> legume, tempeh -> tofu).
func NormalizeProteinToken(token string) string {
	s := strings.ToLower(strings.TrimSpace(token))
	for _, t := range fishTokens {
		if s == t {
			return "fish"
		}
	}
	for _, t := range legumeTokens {
		if s == t {
			return "legume"
		}
	}
	if s == "tempeh" {
		return "tofu"
	}
	return s
}

// ProteinSynonyms returns the set of user-facing words that belong to the
// same protein category as token. Used when an exclusive-protein request
// must override conflicting dislike terms.
func ProteinSynonyms(token string) []string {
	switch NormalizeProteinToken(token) {
	case "fish":
		return fishTokens
	case "legume":
		return legumeTokens
	case "tofu":
		return tofuTokens
	default:
		return []string{strings.ToLower(strings.TrimSpace(token))}
	}
}
