package grading

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minSampleWordLength drops connectives such as "y", "de", "el" from the
// sample answer before word overlap is measured.
const minSampleWordLength = 3

// normalizeText folds case (unless caseSensitive), strips diacritics and
// punctuation, and collapses whitespace.
func normalizeText(s string, caseSensitive bool) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = stripped
	}
	if !caseSensitive {
		s = strings.ToLower(s)
	}

	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r):
			// skip
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, r)
		}
	}
	return string(out)
}

// normalizeBlank is the lighter normalization used for fill-in-the-blank:
// trim, collapse whitespace, optionally fold case.
func normalizeBlank(s string, caseSensitive bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

// significantWords returns the words of a normalized sample answer that carry
// meaning. When every word is short the full list is kept.
func significantWords(normalized string) []string {
	words := strings.Fields(normalized)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minSampleWordLength {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return words
	}
	return out
}

// keywordSimilarity is the fraction of keywords found as substrings of the answer.
func keywordSimilarity(answer string, keywords []string, caseSensitive bool) float64 {
	total, found := 0, 0
	for _, k := range keywords {
		nk := normalizeText(k, caseSensitive)
		if nk == "" {
			continue
		}
		total++
		if strings.Contains(answer, nk) {
			found++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total)
}

// wordOverlap is the fraction of the sample's significant words present in the answer.
func wordOverlap(answer, sample string) float64 {
	expected := significantWords(sample)
	if len(expected) == 0 {
		return 0
	}
	present := make(map[string]bool)
	for _, w := range strings.Fields(answer) {
		present[w] = true
	}
	found := 0
	for _, w := range expected {
		if present[w] {
			found++
		}
	}
	return float64(found) / float64(len(expected))
}
