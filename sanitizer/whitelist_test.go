package sanitizer

import (
	"strings"
	"testing"
)

type verdictCase struct {
	tag  string
	keep bool
}

func checkRule(t *testing.T, rule Rule, cases []verdictCase) {
	t.Helper()
	w, err := NewWhitelist(rule)
	if err != nil {
		t.Fatalf("NewWhitelist(%s): %v", rule.Name, err)
	}
	for _, tc := range cases {
		name, ok := w.Match(tc.tag)
		if ok != tc.keep {
			t.Errorf("%s: Match(%q) = %v, want %v", rule.Name, tc.tag, ok, tc.keep)
			continue
		}
		if ok && name != rule.Name {
			t.Errorf("%s: Match(%q) named %q", rule.Name, tc.tag, name)
		}
	}
}

func TestBasicRule(t *testing.T) {
	checkRule(t, BasicRule(), []verdictCase{
		{"<b>", true},
		{"</b>", true},
		{"<B>", true},
		{"</STRONG>", true},
		{"<blockquote>", true},
		{"<h1>", true},
		{"<h3>", true},
		{"<h4>", false},
		{"<ol>", true},
		{`<ol start="3">`, true},
		{`<OL START="12">`, true},
		{`<ol start="x">`, false},
		{`<ol  start="3">`, false},
		{`<ul start="3">`, false},
		{"<br>", true},
		{"<br/>", true},
		{"<br />", true},
		{"<HR>", true},
		{"<br  />", false},
		{"</br>", false},
		{"<b >", false},
		{`<b class="x">`, false},
		{"<script>", false},
		{"<div>", false},
		{"<bb>", false},
		{`</ol start="3">`, false},
		{"<\u017ftrong>", false},
		{"</\u017ftrong>", false},
		{"<\u017f>", false},
		{"<\u212abd>", false},
		{"<\u212aBD>", false},
		{"<\u0130>", false},
	})
}

func TestLinkRule(t *testing.T) {
	checkRule(t, LinkRule(), []verdictCase{
		{`<a href="https://example.com/path?q=1&x=(2)">`, true},
		{`<a href="http://example.com">`, true},
		{`<a href="ftp://files.example.com/pub/x.tar.gz">`, true},
		{`<a href="/relative/page">`, true},
		{`<A HREF="HTTPS://EXAMPLE.COM">`, true},
		{`<a href="http://example.com" title="Example site">`, true},
		{`<a href="http://example.com" >`, true},
		{`</a>`, true},
		{`<a href="javascript:alert(1)">`, false},
		{`<a href="mailto:a@example.com">`, false},
		{`<a href="data:text/html,x">`, false},
		{`<a href="http://example.com" title="">`, false},
		{`<a href="http://example.com" title="a<b">`, false},
		{`<a href="http://example.com" onclick="x()">`, false},
		{`<a href="http://exa mple.com">`, false},
		{`<a href='http://example.com'>`, false},
		{`<a href="http://example.com"x">`, false},
		{`<a>`, false},
		{`<a title="t" href="http://example.com">`, false},
		{`<a href="http\u017f://example.com">`, false},
		{`<a hre\u017f="http://example.com">`, false},
		{`<a href="/x" title="\u017fign \u212aelvin">`, true},
	})
}

func TestImageRule(t *testing.T) {
	checkRule(t, ImageRule(), []verdictCase{
		{`<img src="https://e.co/i.png" width="100" height="50" alt="a">`, true},
		{`<img src="https://e.co/i.png">`, true},
		{`<img src="/i.png" />`, true},
		{`<img src="/i.png"/>`, true},
		{`<img src="http://e.co/i.png" alt="" title="">`, true},
		{`<img src="http://e.co/i.png" title="t">`, true},
		{`<img src="https://e.co/i.png" width="1000">`, false},
		{`<img src="https://e.co/i.png" alt="a" width="100">`, false},
		{`<img src="data:image/png;base64,AAAA">`, false},
		{`<img src="ftp://e.co/i.png">`, false},
		{`<img src="javascript:alert(1)">`, false},
		{`<img src="https://e.co/i.png" onerror="alert(1)">`, false},
		{`<img src="https://e.co/i.png" alt="a"b">`, false},
		{`<img>`, false},
		{`</img>`, false},
	})
}

func TestYouTubeRule(t *testing.T) {
	checkRule(t, YouTubeRule(), []verdictCase{
		{`<iframe width="560" height="315" src="https://www.youtube.com/embed/dQw4w9WgXcQ" frameborder="0" allowfullscreen>`, true},
		{`<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ">`, true},
		{`<iframe width="" src="https://www.youtube.com/embed/x">`, true},
		{`</iframe>`, true},
		{`<iframe src="http://www.youtube.com/embed/x">`, false},
		{`<iframe src="https://www.youtube.com.evil.example/embed/x">`, false},
		{`<iframe src="https://evil.example/embed/x">`, false},
		{`<iframe src="https://www.youtube.com/watch?v=x">`, false},
		{`<iframe src="https://www.youtube.com/embed/x" frameborder="1">`, false},
		{`<iframe src="https://www.youtube.com/embed/x" onload="x()">`, false},
		{`<iframe height="315" width="560" src="https://www.youtube.com/embed/x">`, false},
	})
}

func TestVimeoRule(t *testing.T) {
	checkRule(t, VimeoRule(), []verdictCase{
		{`<iframe src="https://player.vimeo.com/video/76979871?color=ffffff" width="500" height="281" frameborder="0" webkitallowfullscreen mozallowfullscreen allowfullscreen>`, true},
		{`<iframe src="https://player.vimeo.com/video/1?color=ffffff" height="281">`, true},
		{`<iframe src="https://player.vimeo.com/video/1?color=ffffff" width="500">`, false},
		{`<iframe src="https://player.vimeo.com/video/1" height="281">`, false},
		{`<iframe src="https://player.vimeo.com.evil.example/video/1?color=ffffff" height="1">`, false},
		{`<iframe src="http://player.vimeo.com/video/1?color=ffffff" height="1">`, false},
		{`</iframe>`, false},
	})
}

func TestSoundCloudRule(t *testing.T) {
	checkRule(t, SoundCloudRule(), []verdictCase{
		{`<iframe width="100" height="166" scrolling="no" frameborder="no" src="https://w.soundcloud.com/player/?url=https%3A//api.soundcloud.com/tracks/1">`, true},
		{`<iframe width="100" height="166" scrolling="no" frameborder="no" src="https://w.soundcloud.com/player/" >`, true},
		{`<iframe width="100%" height="166" scrolling="no" frameborder="no" src="https://w.soundcloud.com/player/">`, false},
		{`<iframe width="100"  height="166" scrolling="no" frameborder="no" src="https://w.soundcloud.com/player/">`, false},
		{`<iframe height="166" scrolling="no" frameborder="no" src="https://w.soundcloud.com/player/">`, false},
		{`<iframe width="100" height="166" scrolling="no" frameborder="no" src="https://soundcloud.evil.example/player/">`, false},
	})
}

func TestDefaultWhitelistOrder(t *testing.T) {
	want := []string{RuleBasic, RuleLink, RuleImage, RuleYouTube, RuleVimeo, RuleSoundCloud}
	rules := DefaultWhitelist().Rules()
	if len(rules) != len(want) {
		t.Fatalf("got %d rules, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.Name != want[i] {
			t.Errorf("rule %d = %q, want %q", i, r.Name, want[i])
		}
		if p := r.Pattern(); !strings.HasPrefix(p, "^") || !strings.HasSuffix(p, "$") || strings.Contains(p, "(?i)") {
			t.Errorf("rule %q pattern %q is not anchored or folds beyond ASCII", r.Name, p)
		}
	}
}

func TestDefaultWhitelistMatch(t *testing.T) {
	tests := []struct {
		tag  string
		rule string
	}{
		{"<em>", RuleBasic},
		{`<a href="/x">`, RuleLink},
		{`<img src="/x.png">`, RuleImage},
		{"</iframe>", RuleYouTube},
		{`<iframe src="https://player.vimeo.com/video/1?color=ffffff" height="1">`, RuleVimeo},
		{`<iframe width="1" height="1" scrolling="no" frameborder="0" src="https://w.soundcloud.com/x">`, RuleSoundCloud},
		{"<object>", ""},
	}
	w := DefaultWhitelist()
	for _, tt := range tests {
		got, ok := w.Match(tt.tag)
		if got != tt.rule || ok != (tt.rule != "") {
			t.Errorf("Match(%q) = %q, %v; want %q", tt.tag, got, ok, tt.rule)
		}
		verdict := w.Verdict(tt.tag)
		if ok && verdict != tt.tag {
			t.Errorf("Verdict(%q) = %q, want tag unchanged", tt.tag, verdict)
		}
		if !ok && verdict != "" {
			t.Errorf("Verdict(%q) = %q, want empty", tt.tag, verdict)
		}
	}
}

func TestNewWhitelistErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"unnamed", []Rule{{Shapes: []Shape{{Tag: "b"}}}}},
		{"duplicate", []Rule{BasicRule(), BasicRule()}},
		{"no shapes", []Rule{{Name: "empty"}}},
		{"no tag", []Rule{{Name: "x", Shapes: []Shape{{}}}}},
		{"bad value", []Rule{{Name: "x", Shapes: []Shape{{Tag: "a", Attrs: []Attr{{Name: "href", Value: "("}}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWhitelist(tt.rules...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCustomWhitelist(t *testing.T) {
	w, err := NewWhitelist(Rule{Name: "span", Shapes: []Shape{
		{Tag: "span", Attrs: []Attr{{Name: "class", Value: `note|warn`}}},
		{Tag: "span", Closing: true},
	}})
	if err != nil {
		t.Fatal(err)
	}
	in := `<span class="note">n</span><span class="x">x</span><b>b</b>`
	want := `<span class="note">n</span>x</span>b`
	if got := w.Sanitize(in); got != want {
		t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
	}
}

func TestCustomWhitelistUpperCaseNames(t *testing.T) {
	w, err := NewWhitelist(Rule{Name: "span", Shapes: []Shape{
		{Tag: "SPAN", Attrs: []Attr{{Name: "Class", Value: `note`}}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	for tag, keep := range map[string]bool{
		`<span class="note">`: true,
		`<SPAN CLASS="NOTE">`: true,
		"<\u017fpan class=\"note\">": false,
	} {
		if _, ok := w.Match(tag); ok != keep {
			t.Errorf("Match(%q) = %v, want %v", tag, ok, keep)
		}
	}
}

func TestRulePatternUncompiled(t *testing.T) {
	if p := BasicRule().Pattern(); p != "" {
		t.Errorf("uncompiled rule pattern = %q, want empty", p)
	}
}
