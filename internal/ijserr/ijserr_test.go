package ijserr

import (
	"strings"
	"testing"

	"github.com/go-jsvm/jsvm/internal/token"
)

func TestFormatRendersHeaderSnippetAndCaret(t *testing.T) {
	src := "let a = 1;\nlet b = ;\nlet c = 3;"
	e := New(token.Position{Line: 2, Column: 9}, "SyntaxError: unexpected token ;", src, "script.js")

	out := e.Format(false)
	lines := strings.Split(out, "\n")
	if lines[0] != "Error in script.js:2:9" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(out, "   1 | let a = 1;") {
		t.Errorf("snippet should include the preceding context line:\n%s", out)
	}
	if !strings.Contains(out, "   2 | let b = ;") {
		t.Errorf("snippet should include the offending line:\n%s", out)
	}
	caretLine := ""
	for _, l := range lines {
		if strings.TrimSpace(l) == "^" {
			caretLine = l
		}
	}
	if caretLine == "" {
		t.Fatalf("no caret line in:\n%s", out)
	}
	// Gutter is "   2 | " (7 chars); column 9 puts the caret under the `;`.
	if got := len(caretLine); got != 7+9 {
		t.Errorf("caret at width %d, want %d", got, 7+9)
	}
	if !strings.HasSuffix(out, "SyntaxError: unexpected token ;") {
		t.Errorf("message should close the rendering:\n%s", out)
	}
}

func TestFormatWithoutSourceOrFile(t *testing.T) {
	e := New(token.Position{Line: 3, Column: 1}, "boom", "", "")
	out := e.Format(false)
	if !strings.HasPrefix(out, "Error at line 3:1") {
		t.Errorf("header = %q", out)
	}
	if strings.Contains(out, "|") {
		t.Errorf("no snippet should render without source:\n%s", out)
	}
}

func TestFormatErrorsJoinsWithBlankLines(t *testing.T) {
	a := New(token.Position{Line: 1, Column: 1}, "first", "x", "f.js")
	b := New(token.Position{Line: 1, Column: 1}, "second", "x", "f.js")
	out := FormatErrors([]*SourceError{a, b}, false)
	if strings.Count(out, "Error in f.js") != 2 {
		t.Errorf("both errors should render:\n%s", out)
	}
	if !strings.Contains(out, "\n\n") {
		t.Error("errors should be separated by a blank line")
	}
}
