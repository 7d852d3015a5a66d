package sanitizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// End describes how an opening shape may be terminated.
type End int

const (
	// EndBare accepts only ">" directly after the last attribute.
	EndBare End = iota
	// EndSpace accepts one optional whitespace before ">".
	EndSpace
	// EndSelfClose accepts an optional whitespace and an optional "/" before ">".
	EndSelfClose
)

// DefaultSeparator is the pattern placed in front of every attribute unless
// a shape overrides it.
const DefaultSeparator = `\s`

// Attr is one attribute in a shape's grammar.
type Attr struct {
	// Name is the literal attribute name.
	Name string
	// Value is a regular expression for the text between the double quotes.
	// Tags are matched after ASCII lower-casing, so letters in Value should
	// be lower case. An empty Value declares a boolean attribute written
	// without "=".
	Value string
	// Optional attributes may be absent; present ones must still appear in
	// declaration order.
	Optional bool
}

// Shape is the exact grammar of one tag form.
type Shape struct {
	Tag string
	// Closing shapes match "</tag>" only; Attrs, Sep and End are ignored.
	Closing bool
	Attrs   []Attr
	// Sep is the pattern placed in front of each attribute. Empty means
	// DefaultSeparator.
	Sep string
	End End
}

// Rule is a named family of allowed tag shapes.
type Rule struct {
	Name   string
	Shapes []Shape

	re *regexp.Regexp
}

// Pattern returns the compiled expression, or "" for a rule that has not
// been added to a Whitelist.
func (r Rule) Pattern() string {
	if r.re == nil {
		return ""
	}
	return r.re.String()
}

// Whitelist is an ordered, immutable list of rules. It is safe for
// concurrent use.
type Whitelist struct {
	rules []Rule
}

// NewWhitelist compiles the rules in the given order. The first rule that
// matches a tag decides its fate.
func NewWhitelist(rules ...Rule) (*Whitelist, error) {
	seen := make(map[string]struct{}, len(rules))
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, errors.New("whitelist rule without a name")
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("duplicate whitelist rule %q", r.Name)
		}
		seen[r.Name] = struct{}{}

		src, err := r.source()
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.Shapes = append([]Shape(nil), r.Shapes...)
		r.re = re
		compiled = append(compiled, r)
	}
	return &Whitelist{rules: compiled}, nil
}

// MustWhitelist is like NewWhitelist but panics on error. It is meant for
// package-level rule tables.
func MustWhitelist(rules ...Rule) *Whitelist {
	w, err := NewWhitelist(rules...)
	if err != nil {
		panic(err)
	}
	return w
}

// Rules returns the rules in evaluation order.
func (w *Whitelist) Rules() []Rule {
	return append([]Rule(nil), w.rules...)
}

// Match reports the name of the first rule accepting tag. Only ASCII letters
// compare case-insensitively: "ſ" (U+017F) is not an "s".
func (w *Whitelist) Match(tag string) (string, bool) {
	lower := asciiLower(tag)
	for _, r := range w.rules {
		if r.re.MatchString(lower) {
			return r.Name, true
		}
	}
	return "", false
}

// Verdict returns tag unchanged when a rule accepts it and "" otherwise.
func (w *Whitelist) Verdict(tag string) string {
	if _, ok := w.Match(tag); ok {
		return tag
	}
	return ""
}

func (r Rule) source() (string, error) {
	if len(r.Shapes) == 0 {
		return "", fmt.Errorf("whitelist rule %q has no shapes", r.Name)
	}
	alts := make([]string, 0, len(r.Shapes))
	for _, s := range r.Shapes {
		if s.Tag == "" {
			return "", fmt.Errorf("whitelist rule %q has a shape without a tag", r.Name)
		}
		alts = append(alts, "(?:"+s.source()+")")
	}
	return `^(?:` + strings.Join(alts, "|") + `)$`, nil
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + 'a' - 'A'
		}
		return r
	}, s)
}

func (s Shape) source() string {
	tag := regexp.QuoteMeta(asciiLower(s.Tag))
	if s.Closing {
		return `</` + tag + `>`
	}

	sep := s.Sep
	if sep == "" {
		sep = DefaultSeparator
	}

	var b strings.Builder
	b.WriteString("<")
	b.WriteString(tag)
	for _, a := range s.Attrs {
		part := sep + regexp.QuoteMeta(asciiLower(a.Name))
		if a.Value != "" {
			part += `="(?:` + a.Value + `)"`
		}
		if a.Optional {
			part = "(?:" + part + ")?"
		}
		b.WriteString(part)
	}
	switch s.End {
	case EndSpace:
		b.WriteString(`\s?>`)
	case EndSelfClose:
		b.WriteString(`\s?/?>`)
	default:
		b.WriteString(">")
	}
	return b.String()
}
