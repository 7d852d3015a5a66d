// Package sanitizer restricts converted markdown HTML to a fixed set of tag
// shapes and repairs unmatched tags.
//
// Two passes are applied, normally in this order:
//
//   - Sanitize looks at every tag-like substring in isolation and keeps it
//     only when a Whitelist rule matches the whole token. Kept tags are
//     copied byte for byte; nothing is rewritten or re-encoded.
//   - Balance pairs opening tags with later closing tags of the same name
//     and deletes openers left without a partner.
//
// Both passes are pure functions of their input and never fail. The
// default Whitelist is compiled once and shared; all functions are safe for
// concurrent use.
//
//	out := sanitizer.Filter(converted)
package sanitizer
