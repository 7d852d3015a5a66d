package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/sanitizer"
	"github.com/cppla/htmlfilter/utils"
)

func init() {
	config.Set(config.AppConfig{})
}

func TestRunFilterStages(t *testing.T) {
	const in = `<b>bold<i>mixed</b><script>x</script>`
	cases := []struct {
		stage string
		want  string
	}{
		{"sanitize", "<b>bold<i>mixed</b>x"},
		{"balance", "<b>boldmixed</b><script>x</script>"},
		{"filter", "<b>boldmixed</b>x"},
	}
	for _, tc := range cases {
		t.Run(tc.stage, func(t *testing.T) {
			var out, errOut bytes.Buffer
			err := runFilter(&out, &errOut, strings.NewReader(in), filterOptions{stage: tc.stage})
			if err != nil {
				t.Fatal(err)
			}
			if out.String() != tc.want {
				t.Errorf("stdout = %q, want %q", out.String(), tc.want)
			}
			if errOut.Len() != 0 {
				t.Errorf("unexpected stderr %q", errOut.String())
			}
		})
	}
}

func TestRunFilterReport(t *testing.T) {
	var out, errOut bytes.Buffer
	err := runFilter(&out, &errOut, strings.NewReader(`<b>x<script>`), filterOptions{stage: "filter", report: true})
	if err != nil {
		t.Fatal(err)
	}
	var report sanitizer.Report
	if err := json.Unmarshal(errOut.Bytes(), &report); err != nil {
		t.Fatalf("report %q: %v", errOut.String(), err)
	}
	if out.String() != "x" || report.HTML != "x" || len(report.Rejected) != 1 || len(report.Orphans) != 1 {
		t.Errorf("stdout=%q report=%+v", out.String(), report)
	}
}

func TestRunFilterUnknownStage(t *testing.T) {
	err := runFilter(&bytes.Buffer{}, &bytes.Buffer{}, strings.NewReader(""), filterOptions{stage: "nope"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFilterCmdReadsFileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.html")
	if err := os.WriteFile(path, []byte(`<em>hi</em><u>`), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newFilterCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "<em>hi</em>" {
		t.Errorf("file input: %q", out.String())
	}

	cmd = newFilterCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(`<a href="javascript:x">y</a>`))
	cmd.SetArgs([]string{"--stage", "sanitize"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "y</a>" {
		t.Errorf("stdin input: %q", out.String())
	}
}

func TestRulesCmd(t *testing.T) {
	cmd := newRulesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(sanitizer.DefaultWhitelist().Rules()) {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], sanitizer.RuleBasic) {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestHashPasswordCmd(t *testing.T) {
	cmd := newHashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("hunter2\n"))
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !utils.CheckPassword(strings.TrimSpace(out.String()), "hunter2") {
		t.Errorf("printed hash does not verify: %q", out.String())
	}
}

func TestTokenCmd(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "s3cret"})
	defer config.Set(config.AppConfig{})

	cmd := newTokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"ops"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	token, _, _ := strings.Cut(out.String(), "\n")
	claims, err := utils.ParseToken(token)
	if err != nil || claims.Subject != "ops" {
		t.Errorf("claims=%+v err=%v", claims, err)
	}
}

func TestRootCmdHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "filter", "rules", "hash-password", "token"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("find %s: %v", name, err)
		}
	}
}
