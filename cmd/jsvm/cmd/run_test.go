package cmd

import (
	"bytes"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/go-jsvm/jsvm/internal/bytecode"
	"github.com/go-jsvm/jsvm/pkg/jsvm"
)

// evalToConsole runs src in a fresh context capturing console output, the
// way `jsvm run -e` does.
func evalToConsole(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	ctx := jsvm.New(jsvm.WithStdout(&out))
	if _, err := ctx.Eval(src); err != nil {
		t.Fatalf("Eval(%q) errored: %v", src, err)
	}
	return out.String()
}

func TestRunConsoleOutput(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"hello", `console.log('Hello, World!');`},
		{"numbers", `console.log(1 + 2, 10 / 4, 2 ** 8);`},
		{"loop", `for (let i = 0; i < 3; i++) console.log('line', i);`},
		{"array and object", `console.log([1, 'two', true]); console.log({a: 1, b: 'x'});`},
		{"error display", `try { null.x; } catch (e) { console.log(String(e).split(':')[0]); }`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snaps.MatchSnapshot(t, tc.name+"_output", evalToConsole(t, tc.src))
		})
	}
}

func TestDisassemblyGolden(t *testing.T) {
	ctx := jsvm.New()
	block, err := ctx.Compile(`function add(a, b) { return a + b; } add(1, 2);`)
	if err != nil {
		t.Fatalf("Compile errored: %v", err)
	}
	var out bytes.Buffer
	bytecode.Disassemble(&out, block)
	snaps.MatchSnapshot(t, "disasm_add", out.String())
}

func TestPositionFromMessage(t *testing.T) {
	pos, ok := positionFromMessage("SyntaxError: unexpected token (3:7)")
	if !ok || pos.Line != 3 || pos.Column != 7 {
		t.Errorf("positionFromMessage = %+v %v, want 3:7 true", pos, ok)
	}
	if _, ok := positionFromMessage("TypeError: no position here"); ok {
		t.Error("a message without a position suffix should not parse")
	}
}
