package sanitizer

import (
	"regexp"
	"strings"
)

// candidatePattern matches anything from "<" to the next ">". A "<" without
// a later ">" runs to the end of the input so that an unterminated tag can
// never leak into the surrounding page.
var candidatePattern = regexp.MustCompile(`<[^>]*>?`)

// Sanitize filters html through the default whitelist.
func Sanitize(html string) string {
	return defaultWhitelist.Sanitize(html)
}

// SanitizeReport is Sanitize that also returns the rejected tokens, with
// offsets into html.
func SanitizeReport(html string) (string, []Token) {
	return defaultWhitelist.SanitizeReport(html)
}

// Sanitize replaces every tag-like substring of html with its verdict.
// Text between tags is copied unchanged.
func (w *Whitelist) Sanitize(html string) string {
	return candidatePattern.ReplaceAllStringFunc(html, w.Verdict)
}

// SanitizeReport is Sanitize that also returns the rejected tokens.
func (w *Whitelist) SanitizeReport(html string) (string, []Token) {
	locs := candidatePattern.FindAllStringIndex(html, -1)
	if len(locs) == 0 {
		return html, nil
	}

	var (
		b        strings.Builder
		rejected []Token
		last     int
	)
	b.Grow(len(html))
	for _, loc := range locs {
		raw := html[loc[0]:loc[1]]
		b.WriteString(html[last:loc[0]])
		if _, ok := w.Match(raw); ok {
			b.WriteString(raw)
		} else {
			rejected = append(rejected, newToken(raw, loc[0]))
		}
		last = loc[1]
	}
	if len(rejected) == 0 {
		return html, nil
	}
	b.WriteString(html[last:])
	return b.String(), rejected
}
