// Package normalize cleans free-text catalog input before it is stored.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	// htmlTagPattern detects descriptions pasted from a web page or rich editor.
	htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// Description turns a staff-entered description into trimmed Markdown.
// HTML is converted; plain text passes through with null bytes and
// carriage returns dropped and runs of blank lines collapsed.
func Description(raw string) string {
	s := sanitizeString(raw)
	if containsHTML(s) {
		s = htmlToMarkdown(s)
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Name trims a flavor name and collapses inner whitespace.
func Name(raw string) string {
	return strings.Join(strings.Fields(sanitizeString(raw)), " ")
}

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// htmlToMarkdown falls back to the input when conversion fails.
func htmlToMarkdown(s string) string {
	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return markdown
}

// sanitizeString removes null bytes, which some clipboard sources include.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
