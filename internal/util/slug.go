// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches runs of anything that is not a lowercase ASCII letter or digit.
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)

	// Letters NFKD does not decompose into an ASCII base.
	transliterations = strings.NewReplacer(
		"ł", "l", "Ł", "L",
		"ß", "ss",
		"æ", "ae", "Æ", "AE",
		"ø", "o", "Ø", "O",
		"đ", "d", "Đ", "D",
	)
)

// Slugify converts a display name to a URL-safe slug.
//
// Examples:
//
//	"Słony Karmel"        → "slony-karmel"
//	"Żurawina & Pistacja" → "zurawina-pistacja"
//	"  **Mango**  "       → "mango"
//	"🍓"                  → ""
func Slugify(input string) string {
	s := transliterations.Replace(input)

	// Decompose accented characters and drop what is left outside ASCII.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumericRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
