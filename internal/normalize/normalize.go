// Package normalize canonicalizes free-text Korean addresses for matching.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// adminRewrites collapses special-status administrative names to the plain
// forms used by the territory sheet. Order matters only for readability;
// the patterns do not overlap.
var adminRewrites = [][2]string{
	{"강원특별자치도", "강원도"},
	{"세종특별자치시", "세종시"},
	{"서울특별시", "서울시"},
}

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	multiSpace    = regexp.MustCompile(`\s{2,}`)
)

// minLength is the shortest normalized address still considered matchable.
const minLength = 5

// Address canonicalizes a raw address string. It returns the empty string
// when the input is too degraded to match: shorter than five runes after
// cleanup, or still containing a masking character. Malformed input never
// produces an error.
func Address(raw string) string {
	addr := strings.TrimSpace(norm.NFC.String(raw))
	if addr == "" {
		return ""
	}

	// Building and unit annotations live in parentheses and only add noise
	// to n-gram similarity.
	addr = parenthetical.ReplaceAllString(addr, "")

	for _, rw := range adminRewrites {
		addr = strings.ReplaceAll(addr, rw[0], rw[1])
	}

	addr = multiSpace.ReplaceAllString(addr, " ")
	addr = strings.ReplaceAll(addr, "-", "")
	addr = strings.TrimSpace(addr)

	if strings.ContainsRune(addr, '*') {
		return ""
	}
	if len([]rune(addr)) < minLength {
		return ""
	}

	return addr
}

// GeoTokens returns the leading one or two whitespace-delimited tokens of a
// normalized address, the province/city portion used for the geographic
// sanity check during matching.
func GeoTokens(addr string) map[string]struct{} {
	if addr == "" {
		return nil
	}
	tokens := strings.Fields(addr)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// GeoTokensIntersect reports whether two normalized addresses agree on at
// least one leading province/city token.
func GeoTokensIntersect(a, b string) bool {
	at := GeoTokens(a)
	if len(at) == 0 {
		return false
	}
	for tok := range GeoTokens(b) {
		if _, ok := at[tok]; ok {
			return true
		}
	}
	return false
}
