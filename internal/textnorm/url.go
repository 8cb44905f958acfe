package textnorm

import (
	"strings"
	"unicode"
)

// urlBoilerplate holds tokens that appear in nearly every URL and carry no content
var urlBoilerplate = map[string]struct{}{
	"http":  {},
	"https": {},
	"www":   {},
	"com":   {},
	"net":   {},
	"org":   {},
	"m":     {},
	"html":  {},
	"htm":   {},
}

// NormalizeURL reduces a URL to its content-bearing tokens.
// Scheme, host and extension boilerplate, purely numeric tokens and English
// stopwords are dropped; the remaining tokens are reduced with mode and
// joined with single spaces. Tokens mixing letters and digits ("page1") are kept whole.
func (n *Normalizer) NormalizeURL(url string, mode StemMode) string {
	tokens := tokenizeWords(url)

	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, boilerplate := urlBoilerplate[token]; boilerplate {
			continue
		}
		if isNumeric(token) || IsStopword(token) {
			continue
		}
		reduced := n.reduce(token, mode)
		if IsStopword(reduced) {
			continue
		}
		kept = append(kept, reduced)
	}

	return strings.Join(kept, " ")
}

// isNumeric reports whether every rune of s is a digit.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
