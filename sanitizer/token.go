package sanitizer

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind classifies a tag token.
type Kind int

const (
	// Opening is a start tag that needs a matching closer.
	Opening Kind = iota
	// Closing is an end tag ("</name...").
	Closing
	// SelfContained tags never need a partner, whichever form they take.
	SelfContained
)

func (k Kind) String() string {
	switch k {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	case SelfContained:
		return "self-contained"
	default:
		return "unknown"
	}
}

// Token is one tag-like substring of a document.
type Token struct {
	Raw string `json:"raw"`
	// Name is the lower-cased leading word of the tag, "" when the token
	// does not start with a word (comments, doctypes, stray "<").
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Offset int    `json:"offset"`
}

// MarshalText lets Kind appear by name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the names written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "opening":
		*k = Opening
	case "closing":
		*k = Closing
	case "self-contained":
		*k = SelfContained
	default:
		return fmt.Errorf("sanitizer: unknown tag kind %q", b)
	}
	return nil
}

var (
	// tagPattern finds well-formed tag tokens for structural analysis.
	tagPattern = regexp.MustCompile(`</?\w+[^>]*(?:\s|$|>)`)

	// selfContained tags are exempt from pairing.
	selfContained = map[string]struct{}{
		"p":   {},
		"img": {},
		"br":  {},
		"li":  {},
		"hr":  {},
	}
)

// Tokenize returns every tag token of html in document order.
func Tokenize(html string) []Token {
	locs := tagPattern.FindAllStringIndex(html, -1)
	if len(locs) == 0 {
		return nil
	}
	tokens := make([]Token, len(locs))
	for i, loc := range locs {
		tokens[i] = newToken(html[loc[0]:loc[1]], loc[0])
	}
	return tokens
}

// IsSelfContained reports whether the named tag is exempt from pairing.
func IsSelfContained(name string) bool {
	_, ok := selfContained[strings.ToLower(name)]
	return ok
}

func newToken(raw string, offset int) Token {
	name := tagName(raw)
	kind := Opening
	switch {
	case IsSelfContained(name):
		kind = SelfContained
	case strings.HasPrefix(raw, "</"):
		kind = Closing
	}
	return Token{Raw: raw, Name: name, Kind: kind, Offset: offset}
}

// tagName strips "<" or "</" and returns the following word characters,
// lower-cased.
func tagName(raw string) string {
	s := strings.TrimPrefix(raw, "<")
	s = strings.TrimPrefix(s, "/")
	end := 0
	for end < len(s) && isWordByte(s[end]) {
		end++
	}
	return strings.ToLower(s[:end])
}

func isWordByte(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}
