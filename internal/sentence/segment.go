package sentence

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Pass is one splitting strategy with its own delimiters and minimum size.
// MinWords and MinChars are checked against the normalized candidate; a
// candidate is kept when it has at least MinWords words and strictly more
// than MinChars characters.
type Pass struct {
	Name     string
	Split    func(text string) []string
	MinWords int
	MinChars int
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
	phraseEnd   = regexp.MustCompile(`[.!?;,\n\r]+`)
)

// Passes are applied in this order and their output concatenated.
var Passes = []Pass{
	{
		Name:     "sentence",
		Split:    func(text string) []string { return sentenceEnd.Split(text, -1) },
		MinWords: 3,
		MinChars: 10,
	},
	{
		Name:     "phrase",
		Split:    func(text string) []string { return phraseEnd.Split(text, -1) },
		MinWords: 5,
		MinChars: 20,
	},
	{
		Name:     "line",
		Split:    func(text string) []string { return strings.Split(text, "\n") },
		MinWords: 2,
		MinChars: 8,
	},
}

// Keep reports whether a normalized candidate passes the size check.
func (p Pass) Keep(normalized string) bool {
	return len(strings.FieldsFunc(normalized, isSpace)) >= p.MinWords &&
		utf8.RuneCountInString(normalized) > p.MinChars
}

// Segment returns the normalized sentences found on one page, deduplicated
// within the page in first-seen order.
func Segment(text string) []string {
	var candidates []string
	for _, pass := range Passes {
		for _, part := range pass.Split(text) {
			cleaned := Normalize(part)
			if pass.Keep(cleaned) {
				candidates = append(candidates, cleaned)
			}
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
