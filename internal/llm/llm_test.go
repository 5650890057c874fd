package llm

import "testing"

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"scores":[1,2]}`,
			want:    `{"scores":[1,2]}`,
		},
		{
			name:    "fenced markdown",
			content: "Here you go:\n```json\n{\"order\":[0,1]}\n```\nenjoy",
			want:    `{"order":[0,1]}`,
		},
		{
			name:    "prose around object",
			content: "Sure! {\"a\": 1} Hope that helps.",
			want:    `{"a": 1}`,
		},
		{
			name:    "multiline object",
			content: "{\n  \"a\": 1,\n  \"b\": {\"c\": 2}\n}",
			want:    "{\n  \"a\": 1,\n  \"b\": {\"c\": 2}\n}",
		},
		{
			name:    "no object returns input",
			content: "I could not produce a plan.",
			want:    "I could not produce a plan.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSONObject(tc.content); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
