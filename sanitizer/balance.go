package sanitizer

import "strings"

// Balance deletes opening tags that have no closing partner later in html.
//
// Input is expected to have passed Sanitize; Balance only repairs structure.
// Openers are paired left to right with the nearest unpaired closer of the
// same name. Closers without an opener are kept, and tags for which
// IsSelfContained is true are never touched.
func Balance(html string) string {
	out, _ := BalanceReport(html)
	return out
}

// BalanceReport is Balance that also returns the deleted openers, with
// offsets into html.
func BalanceReport(html string) (string, []Token) {
	tokens := Tokenize(html)
	if len(tokens) == 0 {
		return html, nil
	}

	remove := orphans(tokens)
	if remove == nil {
		return html, nil
	}

	var (
		b       strings.Builder
		removed []Token
		last    int
	)
	b.Grow(len(html))
	for i, tok := range tokens {
		if !remove[i] {
			continue
		}
		b.WriteString(html[last:tok.Offset])
		last = tok.Offset + len(tok.Raw)
		removed = append(removed, tok)
	}
	b.WriteString(html[last:])
	return b.String(), removed
}

// orphans marks the openers to delete. It returns nil when every opener
// found a partner. The search is quadratic in the number of tokens.
func orphans(tokens []Token) []bool {
	paired := make([]bool, len(tokens))
	remove := make([]bool, len(tokens))
	needsRemoval := false

	for i, tok := range tokens {
		if paired[i] || tok.Kind != Opening {
			continue
		}
		match := -1
		for j := i + 1; j < len(tokens); j++ {
			next := tokens[j]
			if !paired[j] && next.Kind == Closing && next.Name == tok.Name {
				match = j
				break
			}
		}
		if match < 0 {
			remove[i] = true
			needsRemoval = true
			continue
		}
		paired[i] = true
		paired[match] = true
	}

	if !needsRemoval {
		return nil
	}
	return remove
}
