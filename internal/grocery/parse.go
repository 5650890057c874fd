package grocery

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedIngredient is one free-text ingredient line broken into a structured
// quantity/unit/name tuple. Unit "item" is a sentinel meaning the line had no
// recognizable unit; such entries dedupe by name only.
type ParsedIngredient struct {
	Quantity float64
	Unit     string
	BaseName string
	Original string
}

var (
	withUnitRe = regexp.MustCompile(`^(\d+(?:/\d+)?)\s*([a-zA-Z]+)\s+(.+)$`)
	noUnitRe   = regexp.MustCompile(`^(\d+(?:/\d+)?)\s+(.+)$`)

	parenRe   = regexp.MustCompile(`\s*\(.*?\)`)
	hyphenRe  = regexp.MustCompile(`\s*-\s*`)
	commaRe   = regexp.MustCompile(`\s*,\s*`)
	spacesRe  = regexp.MustCompile(`\s+`)
	prepVerbs = regexp.MustCompile(`\b(diced|chopped|sliced|minced|grated|shredded)(\s+|$)`)
	prepState = regexp.MustCompile(`\b(fresh|dried|frozen|canned|drained|soaked)(\s+|$)`)
)

// ParseIngredient parses lines like "2 cloves garlic", "1/2 cup flour",
// "1 onion, diced" or "Salt and pepper".
func ParseIngredient(item string) ParsedIngredient {
	if m := withUnitRe.FindStringSubmatch(item); m != nil {
		return ParsedIngredient{
			Quantity: parseQuantity(m[1]),
			Unit:     strings.ToLower(m[2]),
			BaseName: normalizeIngredientName(m[3]),
			Original: item,
		}
	}

	// Quantity without a unit word (e.g., "1 onion, diced")
	if m := noUnitRe.FindStringSubmatch(item); m != nil {
		return ParsedIngredient{
			Quantity: parseQuantity(m[1]),
			Unit:     "item",
			BaseName: normalizeIngredientName(m[2]),
			Original: item,
		}
	}

	// No quantity pattern at all
	return ParsedIngredient{
		Quantity: 1,
		Unit:     "item",
		BaseName: normalizeIngredientName(item),
		Original: item,
	}
}

func parseQuantity(s string) float64 {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, _ := strconv.ParseFloat(num, 64)
		d, _ := strconv.ParseFloat(den, 64)
		if d != 0 {
			return n / d
		}
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func normalizeIngredientName(name string) string {
	s := strings.ToLower(name)
	s = parenRe.ReplaceAllString(s, "")
	s = hyphenRe.ReplaceAllString(s, " ")
	s = commaRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	s = prepVerbs.ReplaceAllString(s, "")
	s = prepState.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		// Stripping removed everything; keep the raw line rather than
		// producing an empty name.
		s = strings.TrimSpace(strings.ToLower(name))
	}
	return s
}
