package recipe

import (
	"reflect"
	"testing"
)

func TestInferProtein(t *testing.T) {
	tests := []struct {
		name string
		r    Recipe
		want string
	}{
		{"by name", Recipe{Name: "Chicken Stir Fry"}, "chicken"},
		{"by ingredient", Recipe{Name: "Weeknight Curry", Ingredients: []string{"1 lb shrimp"}}, "fish"},
		{"rule order wins", Recipe{Name: "Bacon-Wrapped Chicken Thighs"}, "chicken"},
		{"thigh implies chicken", Recipe{Name: "Grilled Thighs"}, "chicken"},
		{"legume", Recipe{Name: "Lentil Soup"}, "legume"},
		{"tempeh", Recipe{Name: "Tempeh Bowl"}, "tofu"},
		{"none", Recipe{Name: "Garden Salad", Ingredients: []string{"2 cups lettuce"}}, ProteinUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferProtein(tt.r); got != tt.want {
				t.Errorf("InferProtein = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferVarietyKey(t *testing.T) {
	r := Recipe{Name: "Chicken Tacos", Cuisine: "mexican"}
	if got := InferVarietyKey(r); got != "mexican" {
		t.Errorf("InferVarietyKey with cuisine = %q, want mexican", got)
	}
	r.Cuisine = ""
	if got := InferVarietyKey(r); got != "chicken" {
		t.Errorf("InferVarietyKey without cuisine = %q, want chicken", got)
	}
}

func TestNormalizeProteinToken(t *testing.T) {
	tests := map[string]string{
		"salmon":   "fish",
		"shrimp":   "fish",
		"Scallop":  "fish",
		"beans":    "legume",
		"lentil":   "legume",
		"chickpea": "legume",
		"tempeh":   "tofu",
		"chicken":  "chicken",
		"beef":     "beef",
	}
	for in, want := range tests {
		if got := NormalizeProteinToken(in); got != want {
			t.Errorf("NormalizeProteinToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProteinSynonyms(t *testing.T) {
	if got := ProteinSynonyms("salmon"); !reflect.DeepEqual(got, fishTokens) {
		t.Errorf("ProteinSynonyms(salmon) = %v, want %v", got, fishTokens)
	}
	if got := ProteinSynonyms("chicken"); !reflect.DeepEqual(got, []string{"chicken"}) {
		t.Errorf("ProteinSynonyms(chicken) = %v", got)
	}
}

func TestContainsAny(t *testing.T) {
	r := Recipe{Name: "Mushroom Risotto", Ingredients: []string{"2 cups arborio rice"}}
	if !r.ContainsAny([]string{"mushroom"}) {
		t.Error("expected name match")
	}
	if !r.ContainsAny([]string{"arborio"}) {
		t.Error("expected ingredient match")
	}
	if r.ContainsAny([]string{"tofu"}) {
		t.Error("unexpected match")
	}
	if r.ContainsAny(nil) {
		t.Error("nil terms must not match")
	}
}
