package sanitizer

// Value patterns shared by the default rules.
const (
	// safeURLChars excludes quotes, angle brackets and whitespace.
	safeURLChars = `[-A-Za-z0-9+&@#/%?=~_|!:,.;()*\[\]$]`
	// embedPathChars is the narrower class allowed in embed player paths.
	embedPathChars = `[-A-Za-z0-9+&@#/%?=~_]`

	linkURL   = `(?:(?:https?|ftp)://|/)` + safeURLChars + `+`
	imageURL  = `(?:https?://|/)` + safeURLChars + `+`
	plainText = `[^"<>]*`
)

// Names of the default rules, in evaluation order.
const (
	RuleBasic      = "basic"
	RuleLink       = "link"
	RuleImage      = "image"
	RuleYouTube    = "youtube"
	RuleVimeo      = "vimeo"
	RuleSoundCloud = "soundcloud"
)

// basicTags may appear as "<tag>" or "</tag>" without attributes.
var basicTags = []string{
	"b", "blockquote", "code", "del", "dd", "dl", "dt", "em",
	"h1", "h2", "h3", "i", "kbd", "li", "ol", "p", "pre", "s",
	"sup", "sub", "strong", "strike", "ul",
}

var defaultWhitelist = MustWhitelist(
	BasicRule(),
	LinkRule(),
	ImageRule(),
	YouTubeRule(),
	VimeoRule(),
	SoundCloudRule(),
)

// DefaultWhitelist returns the shared whitelist used by Sanitize.
func DefaultWhitelist() *Whitelist {
	return defaultWhitelist
}

// BasicRule covers the structural and inline formatting tags plus the
// standalone br and hr. Closers are always bare, so "</ol start="3">" is
// rejected even though an ordered list opener may carry start.
func BasicRule() Rule {
	shapes := make([]Shape, 0, 2*len(basicTags)+2)
	for _, tag := range basicTags {
		open := Shape{Tag: tag}
		if tag == "ol" {
			open.Sep = " "
			open.Attrs = []Attr{{Name: "start", Value: `\d+`, Optional: true}}
		}
		shapes = append(shapes, open, Shape{Tag: tag, Closing: true})
	}
	shapes = append(shapes,
		Shape{Tag: "br", End: EndSelfClose},
		Shape{Tag: "hr", End: EndSelfClose},
	)
	return Rule{Name: RuleBasic, Shapes: shapes}
}

// LinkRule allows anchors to http, https, ftp and site-relative targets.
func LinkRule() Rule {
	return Rule{Name: RuleLink, Shapes: []Shape{
		{Tag: "a", End: EndSpace, Attrs: []Attr{
			{Name: "href", Value: linkURL},
			{Name: "title", Value: `[^"<>]+`, Optional: true},
		}},
		{Tag: "a", Closing: true},
	}}
}

// ImageRule allows images from http, https and site-relative sources.
func ImageRule() Rule {
	return Rule{Name: RuleImage, Shapes: []Shape{
		{Tag: "img", End: EndSelfClose, Attrs: []Attr{
			{Name: "src", Value: imageURL},
			{Name: "width", Value: `\d{1,3}`, Optional: true},
			{Name: "height", Value: `\d{1,3}`, Optional: true},
			{Name: "alt", Value: plainText, Optional: true},
			{Name: "title", Value: plainText, Optional: true},
		}},
	}}
}

// YouTubeRule allows the youtube.com embed player. It also owns the
// iframe closing tag shared by every embed rule.
func YouTubeRule() Rule {
	return Rule{Name: RuleYouTube, Shapes: []Shape{
		{Tag: "iframe", End: EndSpace, Attrs: []Attr{
			{Name: "width", Value: `\d*`, Optional: true},
			{Name: "height", Value: `\d*`, Optional: true},
			{Name: "src", Value: `https://www\.youtube\.com/embed/` + embedPathChars + `+`},
			{Name: "frameborder", Value: `0`, Optional: true},
			{Name: "allowfullscreen", Optional: true},
		}},
		{Tag: "iframe", Closing: true},
	}}
}

// VimeoRule allows the Vimeo player with the white color scheme. The
// height attribute is mandatory.
func VimeoRule() Rule {
	return Rule{Name: RuleVimeo, Shapes: []Shape{
		{Tag: "iframe", End: EndSpace, Attrs: []Attr{
			{Name: "src", Value: `https://player\.vimeo\.com/video/` + embedPathChars + `+\?color=ffffff`},
			{Name: "width", Value: `\d+`, Optional: true},
			{Name: "height", Value: `\d+`},
			{Name: "frameborder", Value: `\d+`, Optional: true},
			{Name: "webkitallowfullscreen", Optional: true},
			{Name: "mozallowfullscreen", Optional: true},
			{Name: "allowfullscreen", Optional: true},
		}},
	}}
}

// SoundCloudRule allows the SoundCloud widget in its exact generated form.
func SoundCloudRule() Rule {
	return Rule{Name: RuleSoundCloud, Shapes: []Shape{
		{Tag: "iframe", Sep: " ", End: EndSpace, Attrs: []Attr{
			{Name: "width", Value: `\d+`},
			{Name: "height", Value: `\d+`},
			{Name: "scrolling", Value: `[^"]+`},
			{Name: "frameborder", Value: `[^"]+`},
			{Name: "src", Value: `https://w\.soundcloud\.com/[^"]+`},
		}},
	}}
}
