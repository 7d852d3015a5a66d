package utils

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var embedSrc = regexp.MustCompile(`^https://(?:www\.youtube\.com/embed/|player\.vimeo\.com/video/|w\.soundcloud\.com/)`)

// ugcPolicy re-parses filtered output as a second, DOM based opinion. It
// follows bluemonday's UGC policy, extended to keep the embeds and ftp links
// the whitelist accepts.
var ugcPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowURLSchemes("ftp")
	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(embedSrc).OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("iframe")
	p.AllowAttrs("frameborder", "scrolling", "allowfullscreen", "webkitallowfullscreen", "mozallowfullscreen").OnElements("iframe")
	return p
}()

// UGCPass cleans HTML with the bluemonday policy. It is appended to the
// filter chain when the UGCPass setting is on.
func UGCPass(input string) string {
	return ugcPolicy.Sanitize(input)
}
