package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "hello world", "hello world", 1},
		{"case insensitive", "Hello World", "hello world", 1},
		{"disjoint", "foo bar", "baz qux", 0},
		{"half", "a b", "a c", 1.0 / 3.0},
		{"duplicates collapse", "go go go", "go", 1},
		{"empty left", "", "hello", 0},
		{"whitespace only", "   ", "hello", 0},
		{"both empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a, b := "what is the best language", "the best language is go"
	assert.Equal(t, Similarity(a, b), Similarity(b, a))
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"What is Python", []string{"python"}},
		{"where were these things when", []string{"these", "things"}},
		{"one two three four five six seven eight nine", []string{"three", "four", "five", "seven", "eight"}},
		{"a an the is", []string{}},
		{"café über naïve", []string{"café", "über", "naïve"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractKeywords(tt.in), "input %q", tt.in)
	}
}
