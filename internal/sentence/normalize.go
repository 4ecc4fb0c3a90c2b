package sentence

import (
	"strings"
	"unicode"
)

// Normalize turns a candidate sentence into the key used for comparison:
// whitespace collapsed, standalone numbers dropped, unexpected symbols
// blanked out and the result lowercased. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = collapseSpace(s)
	s = stripNumbers(s)
	s = strings.Map(func(r rune) rune {
		if isWord(r) || isSpace(r) || strings.ContainsRune(keptPunct, r) {
			return r
		}
		return ' '
	}, s)
	s = collapseSpace(s)
	return strings.ToLower(s)
}

const keptPunct = ".,!?;:-()"

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// stripNumbers removes every maximal run of decimal digits that has no word
// character directly before or after it. Digits glued to letters ("a1", "2nd")
// stay.
func stripNumbers(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(runes); {
		if !unicode.IsDigit(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsDigit(runes[j]) {
			j++
		}
		before := i > 0 && isWord(runes[i-1])
		after := j < len(runes) && isWord(runes[j])
		if before || after {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

// isWord matches letters, numbers and '_'. Combining marks are not word
// characters; ingest composes text to NFC so accented letters stay whole.
func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// isSpace also treats the ASCII file/group/record/unit separators as space,
// which some PDF producers emit between words.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
