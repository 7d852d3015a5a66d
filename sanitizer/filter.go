package sanitizer

// Report describes one Sanitize+Balance run.
type Report struct {
	HTML string `json:"html"`
	// Rejected holds the tokens the whitelist refused, offsets into the input.
	Rejected []Token `json:"rejected"`
	// Orphans holds the openers Balance deleted, offsets into the sanitized
	// intermediate.
	Orphans []Token `json:"orphans"`
}

// Changed reports whether the run altered its input.
func (r Report) Changed() bool {
	return len(r.Rejected) > 0 || len(r.Orphans) > 0
}

// Filter runs Sanitize followed by Balance.
func Filter(html string) string {
	return Balance(Sanitize(html))
}

// Inspect runs Filter and records what each stage removed.
func Inspect(html string) Report {
	return defaultWhitelist.Inspect(html)
}

// Inspect is the Whitelist counterpart of the package-level Inspect.
func (w *Whitelist) Inspect(html string) Report {
	clean, rejected := w.SanitizeReport(html)
	out, orphaned := BalanceReport(clean)
	return Report{HTML: out, Rejected: rejected, Orphans: orphaned}
}

// Hook is a post-conversion step that rewrites converted HTML.
type Hook func(html string) string

// Chain runs hooks in the order they were added.
type Chain struct {
	hooks []Hook
}

// NewChain returns a chain of the given hooks.
func NewChain(hooks ...Hook) *Chain {
	return &Chain{hooks: append([]Hook(nil), hooks...)}
}

// NewSanitizingChain returns the standard Sanitize then Balance chain.
func NewSanitizingChain() *Chain {
	return NewChain(Sanitize, Balance)
}

// Append adds h to the end of the chain and returns the chain.
func (c *Chain) Append(h Hook) *Chain {
	c.hooks = append(c.hooks, h)
	return c
}

// Len returns the number of hooks.
func (c *Chain) Len() int {
	return len(c.hooks)
}

// Run passes html through every hook.
func (c *Chain) Run(html string) string {
	for _, h := range c.hooks {
		html = h(html)
	}
	return html
}
