// Package message turns free-text chat messages into structured meal-plan
// preferences and intent signals. Everything here is regex heuristics, kept
// deliberately model-free so the chat flow still works when no model is
// reachable.
package message

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"meal-plan-assistant/internal/planner"
)

const proteinAlternatives = `chicken|beef|fish|pork|turkey|salmon|shrimp|tofu|beans|bean|lentils|lentil|chickpeas|chickpea|legumes|legume`

var (
	staleExclusiveRe  = regexp.MustCompile(`(?i)exclusive-protein:\w+`)
	staleRequireRe    = regexp.MustCompile(`(?i)require-proteins?:[^,]+`)
	staleCountsRe     = regexp.MustCompile(`(?i)require-protein-counts?:[^,]+`)
	doubleCommaRe     = regexp.MustCompile(`\s*,\s*,`)
	edgeCommaRe       = regexp.MustCompile(`^\s*,|,\s*$`)
	proteinCountRe    = regexp.MustCompile(`(\d+)\s+(chicken|beef|fish|pork|turkey|salmon|shrimp|tofu|beans|lentils)\b`)
	mealCountRe       = regexp.MustCompile(`(?i)(\d+)\s+(dinner|breakfast|lunch|meal|meals)`)
	servingSizeRe     = regexp.MustCompile(`(?i)(\d+)\s+(people|servings|serves)`)
	mealTypeNumberRe  = regexp.MustCompile(`\b\d+\s+(dinner|dinners|breakfast|breakfasts|lunch|lunches|meal|meals)\b`)
	mealWithDietaryRe = regexp.MustCompile(`(dinner|breakfast|lunch|meal|meals).*(vegetarian|vegan|gluten-free|gluten free|dairy-free|dairy free|keto|paleo|low-carb|low carb|high-protein|high protein)`)
	dietaryWithMealRe = regexp.MustCompile(`(vegetarian|vegan|gluten-free|gluten free|dairy-free|dairy free|keto|paleo|low-carb|low carb|high-protein|high protein).*(dinner|breakfast|lunch|meal|meals)`)

	exclusivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)only\s+(` + proteinAlternatives + `)`),
		regexp.MustCompile(`(?i)(` + proteinAlternatives + `)\s+only`),
		regexp.MustCompile(`(?i)just\s+(` + proteinAlternatives + `)`),
		regexp.MustCompile(`(?i)exclusiv\w*\s+(` + proteinAlternatives + `)`),
		regexp.MustCompile(`(?i)all\s+(` + proteinAlternatives + `)`),
	}

	dislikeIntentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)don['’]?t\s+like\s+\w+`),
		regexp.MustCompile(`(?i)do\s+not\s+like\s+\w+`),
		regexp.MustCompile(`(?i)dislike\s+\w+`),
		regexp.MustCompile(`(?i)allergic\s+to\s+\w+`),
		regexp.MustCompile(`(?i)avoid\s+\w+`),
		regexp.MustCompile(`(?i)no\s+\w+`),
	}

	dietaryKeywords = []string{
		"vegetarian", "vegan", "gluten-free", "gluten free", "dairy-free",
		"dairy free", "keto", "paleo", "low-carb", "low carb",
		"high-protein", "high protein",
	}
	cuisineKeywords = []string{
		"italian", "mexican", "asian", "indian", "mediterranean", "american",
		"thai", "chinese", "japanese",
	}
	proteinWords = []string{
		"chicken", "beef", "fish", "pork", "turkey", "salmon", "shrimp",
		"tofu", "beans", "lentils",
	}
)

// ParseUserMessage folds a new chat message into the current preferences.
// Categories the message doesn't mention keep their current values; protein
// tokens derived from earlier messages are replaced, not accumulated.
func ParseUserMessage(msg string, current planner.Preferences) planner.Preferences {
	lower := strings.ToLower(msg)

	base := current.SpecialRequests
	countsTag := BuildRequireProteinCountsTag(ExtractProteinCounts(lower))
	exclusive := ExtractExclusiveProtein(lower)
	exclusiveTag := ""
	if exclusive != "" {
		exclusiveTag = "exclusive-protein:" + exclusive
	}

	// Drop stale tokens from the carried-over text before merging new ones.
	baseClean := staleExclusiveRe.ReplaceAllString(base, "")
	baseClean = staleRequireRe.ReplaceAllString(baseClean, "")
	baseClean = staleCountsRe.ReplaceAllString(baseClean, "")
	baseClean = tidyCommas(baseClean)

	restrictions := extractDietaryRestrictions(lower, current.DietaryRestrictions)
	if exclusive != "" {
		restrictions = nil
	}

	special := extractSpecialRequests(lower, baseClean)
	if exclusive != "" {
		special = CleanSpecialRequestsForExclusive(special, exclusive)
	}
	special = joinNonEmpty(special, countsTag, exclusiveTag)

	return planner.Preferences{
		DietaryRestrictions: restrictions,
		CuisinePreferences:  extractCuisinePreferences(lower, current.CuisinePreferences),
		MealTypes:           extractMealTypes(lower, current.MealTypes),
		CookingTime:         extractCookingTime(lower, current.CookingTime),
		Difficulty:          extractDifficulty(lower, current.Difficulty),
		ServingSize:         extractServingSize(lower, current.ServingSize),
		SpecialRequests:     special,
	}
}

// ShouldGenerateMealPlan decides whether a message asks for meals at all.
// The first message of a session always generates.
func ShouldGenerateMealPlan(msg string, isFirstMessage bool) bool {
	if isFirstMessage {
		return true
	}
	lower := strings.ToLower(msg)

	if ShouldAddToExistingMealPlan(msg) || ShouldModifyExistingMealPlan(msg) || containsDislikeIntent(lower) {
		return true
	}

	generateKeywords := []string{
		"create", "generate", "make", "plan", "provide", "meal plan",
		"meals", "cook", "recipe", "what should i eat", "what to cook",
		"meal ideas", "dinner ideas",
	}
	for _, k := range generateKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}

	if mealTypeNumberRe.MatchString(lower) {
		return true
	}
	if mealWithDietaryRe.MatchString(lower) || dietaryWithMealRe.MatchString(lower) {
		return true
	}
	return countMealTypes(lower) >= 2
}

// ShouldAddToExistingMealPlan detects "add lunches too" style requests; it
// backs off when the message also carries replace or create intent.
func ShouldAddToExistingMealPlan(msg string) bool {
	lower := strings.ToLower(msg)
	addKeywords := []string{"add", "also", "too", "additionally", "plus", "more"}
	replaceKeywords := []string{"replace", "change", "new", "different", "instead"}
	createKeywords := []string{"create", "generate", "make", "plan", "meal plan", "meals"}

	if strings.Contains(msg, "add") &&
		(strings.Contains(msg, "lunch") || strings.Contains(msg, "breakfast") || strings.Contains(msg, "dinner")) {
		return true
	}
	if containsAnyKeyword(lower, replaceKeywords) || containsAnyKeyword(lower, createKeywords) {
		return false
	}
	hasAdd := containsAnyKeyword(lower, addKeywords)
	if countMealTypes(lower) >= 2 && !hasAdd {
		return false
	}
	return hasAdd
}

// ShouldModifyExistingMealPlan detects swap/replace requests. A modify verb
// alone is not enough, the message must also mention a protein or recipe
// word, which keeps "change of topic" messages from triggering swaps.
func ShouldModifyExistingMealPlan(msg string) bool {
	lower := strings.ToLower(msg)
	modifyKeywords := []string{"replace", "swap", "change", "instead of", "make it", "switch"}
	contextKeywords := []string{
		"chicken", "beef", "fish", "pork", "turkey", "salmon", "shrimp",
		"tofu", "beans", "lentils", "taco", "soup", "salad", "pasta",
		"curry", "dish", "recipe", "meal",
	}
	hasModify := containsAnyKeyword(lower, modifyKeywords)
	hasContext := containsAnyKeyword(lower, contextKeywords)
	return (hasModify && hasContext) || containsDislikeIntent(lower)
}

// WantsNewPlan detects an explicit request to throw the current plan away.
func WantsNewPlan(msg string) bool {
	lower := strings.ToLower(msg)
	keywords := []string{
		"new plan", "new menu", "another plan", "another menu",
		"different plan", "different menu", "refresh plan", "start over",
	}
	return containsAnyKeyword(lower, keywords)
}

func containsDislikeIntent(msg string) bool {
	for _, re := range dislikeIntentPatterns {
		if re.MatchString(msg) {
			return true
		}
	}
	return false
}

// ExtractProteinCounts collects "3 chicken, 2 beef" style counts keyed by
// the raw protein word.
func ExtractProteinCounts(msg string) map[string]int {
	counts := make(map[string]int)
	for _, m := range proteinCountRe.FindAllStringSubmatch(strings.ToLower(msg), -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		counts[m[2]] += n
	}
	return counts
}

// ExtractAddProteinCounts returns protein counts for an add request. If the
// message has add intent but no explicit numbers, each mentioned protein
// counts once.
func ExtractAddProteinCounts(msg string) map[string]int {
	lower := strings.ToLower(msg)
	if !ShouldAddToExistingMealPlan(lower) {
		return map[string]int{}
	}
	counts := ExtractProteinCounts(lower)
	if len(counts) > 0 {
		return counts
	}
	for _, p := range proteinWords {
		if strings.Contains(lower, p) {
			counts[p]++
		}
	}
	return counts
}

// BuildRequireProteinCountsTag serializes protein counts into the
// require-protein-counts token, or "" when there are none.
func BuildRequireProteinCountsTag(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k, n := range counts {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return "require-protein-counts:" + strings.Join(pairs, "|")
}

// ExtractExclusiveProtein detects "only chicken" / "fish only" phrasing and
// returns the raw protein word, or "".
func ExtractExclusiveProtein(msg string) string {
	for _, re := range exclusivePatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			return strings.ToLower(m[1])
		}
	}
	return ""
}

// CleanSpecialRequestsForExclusive drops require-* tokens and dislike
// phrases that conflict with the exclusive protein.
func CleanSpecialRequestsForExclusive(special, exclusiveRaw string) string {
	s := staleRequireRe.ReplaceAllString(special, "")
	s = staleCountsRe.ReplaceAllString(s, "")
	s = planner.CleanSpecialForExclusive(s, exclusiveRaw)
	return tidyCommas(s)
}

// ExtractRequestedCount reads "5 dinners" style counts; 0 means the user
// didn't specify one.
func ExtractRequestedCount(msg string) int {
	m := mealCountRe.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func extractDietaryRestrictions(msg string, current []string) []string {
	var found []string
	for _, k := range dietaryKeywords {
		if strings.Contains(msg, k) {
			found = append(found, k)
		}
	}
	if len(found) > 0 {
		return found
	}
	return current
}

func extractCuisinePreferences(msg string, current []string) []string {
	var found []string
	for _, k := range cuisineKeywords {
		if strings.Contains(msg, k) {
			found = append(found, k)
		}
	}
	if len(found) > 0 {
		return found
	}
	return current
}

// extractMealTypes always answers dinners; other meal types are out of
// scope for now.
func extractMealTypes(msg string, current []string) []string {
	return []string{"dinner"}
}

func extractCookingTime(msg, current string) string {
	switch {
	case strings.Contains(msg, "quick"), strings.Contains(msg, "fast"):
		return "15-30 minutes"
	case strings.Contains(msg, "long"), strings.Contains(msg, "slow"):
		return "60+ minutes"
	case strings.Contains(msg, "medium"):
		return "30-60 minutes"
	}
	return current
}

func extractDifficulty(msg, current string) string {
	switch {
	case strings.Contains(msg, "easy"), strings.Contains(msg, "simple"):
		return "easy"
	case strings.Contains(msg, "hard"), strings.Contains(msg, "difficult"), strings.Contains(msg, "advanced"):
		return "hard"
	case strings.Contains(msg, "medium"), strings.Contains(msg, "intermediate"):
		return "medium"
	}
	return current
}

func extractServingSize(msg string, current int) int {
	m := servingSizeRe.FindStringSubmatch(msg)
	if m == nil {
		return current
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return current
	}
	return n
}

var specialRequestPatterns = []struct {
	re     *regexp.Regexp
	prefix string
}{
	{regexp.MustCompile(`no\s+(\w+)`), "no"},
	{regexp.MustCompile(`avoid\s+(\w+)`), "avoid"},
	{regexp.MustCompile(`don['’]?t\s+like\s+(\w+)`), "don't like"},
	{regexp.MustCompile(`do\s+not\s+like\s+(\w+)`), "do not like"},
	{regexp.MustCompile(`dislike\s+(\w+)`), "dislike"},
	{regexp.MustCompile(`allergic\s+to\s+(\w+)`), "allergic to"},
	{regexp.MustCompile(`prefer\s+(\w+)`), "prefer"},
	{regexp.MustCompile(`want\s+(\w+)`), "want"},
	{regexp.MustCompile(`with\s+(\w+)`), "with"},
	{regexp.MustCompile(`high\s+(\w+)`), "high"},
	{regexp.MustCompile(`low\s+(\w+)`), "low"},
	{regexp.MustCompile(`more\s+(\w+)`), "more"},
}

// extractSpecialRequests captures requests not covered by the structured
// categories and appends a require-proteins tag for proteins the message
// mentions without disliking.
func extractSpecialRequests(msg, current string) string {
	stopwords := map[string]struct{}{"only": {}, "just": {}, "all": {}}
	var requests []string
	for _, p := range specialRequestPatterns {
		for _, m := range p.re.FindAllStringSubmatch(msg, -1) {
			term := strings.ToLower(m[1])
			if term == "" {
				continue
			}
			if _, stop := stopwords[term]; stop {
				continue
			}
			requests = append(requests, p.prefix+" "+term)
		}
	}

	dislikeSet := make(map[string]struct{})
	for _, t := range planner.ExtractDislikedTerms(msg) {
		dislikeSet[t] = struct{}{}
	}
	var required []string
	for _, p := range proteinWords {
		if !strings.Contains(msg, p) {
			continue
		}
		if _, disliked := dislikeSet[p]; disliked {
			continue
		}
		required = append(required, p)
	}

	base := current
	if len(requests) > 0 {
		base = strings.Join(requests, ", ")
	}
	if len(required) > 0 {
		tag := "require-proteins:" + strings.Join(required, "|")
		return joinNonEmpty(base, tag)
	}
	return base
}

func countMealTypes(msg string) int {
	n := 0
	for _, t := range []string{"breakfast", "lunch", "dinner"} {
		if strings.Contains(msg, t) {
			n++
		}
	}
	return n
}

func containsAnyKeyword(msg string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func tidyCommas(s string) string {
	s = doubleCommaRe.ReplaceAllString(s, ",")
	s = edgeCommaRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
