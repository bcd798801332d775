package bytecode

import (
	"strings"
	"testing"

	"github.com/go-jsvm/jsvm/internal/parser"
)

func compileSource(t *testing.T, src string) *CodeBlock {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	block, err := Compile(prog)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	return block
}

func TestCompileSmoke(t *testing.T) {
	sources := []string{
		`1 + 2 * 3;`,
		`let x = 1; x += 2;`,
		`function f(a, b = 1, ...rest) { return a + b + rest.length; }`,
		`for (let i = 0; i < 10; i++) { if (i % 2) continue; }`,
		`for (const k in {a: 1}) {}`,
		`for (const v of [1, 2]) {}`,
		`try { throw 1; } catch (e) {} finally {}`,
		`switch (x) { case 1: break; default: }`,
		`const {a, b = 2, ...r} = obj;`,
		`class C extends B { constructor() { super(); } m() {} static s() {} }`,
		`function* g() { yield 1; yield* g(); }`,
		`async function a() { await p; }`,
		"`tpl ${1 + 1}`;",
		`label: for (;;) { break label; }`,
	}
	for _, src := range sources {
		if block := compileSource(t, src); len(block.Code) == 0 {
			t.Errorf("compile %q produced no code", src)
		}
	}
}

func TestCompileScriptCompletionValue(t *testing.T) {
	block := compileSource(t, `1; 2; 40 + 2`)
	// The final expression's value is returned rather than popped, so the
	// last two opcodes are Add/Return, with no trailing PushUndefined.
	code := block.Code
	if OpCode(code[len(code)-1]) != Return {
		t.Fatalf("last opcode = %v, want Return", OpCode(code[len(code)-1]))
	}
	if OpCode(code[len(code)-2]) != Add {
		t.Errorf("penultimate opcode = %v, want Add", OpCode(code[len(code)-2]))
	}
}

func TestCompileHoistsVars(t *testing.T) {
	block := compileSource(t, `function f() { if (x) { var v = 1; } return v; }`)
	inner := block.Inner[0]
	found := false
	for _, name := range inner.LocalNames {
		if name == "v" {
			found = true
		}
	}
	if !found {
		t.Errorf("var v was not hoisted into the function scope; locals = %v", inner.LocalNames)
	}
}

func TestCompileReservesArgumentsSlot(t *testing.T) {
	block := compileSource(t, `function f(a) { return arguments; }`)
	if block.Inner[0].ArgumentsIndex < 0 {
		t.Error("function should reserve an arguments slot")
	}
	arrow := compileSource(t, `const f = (a) => a;`)
	if arrow.Inner[0].ArgumentsIndex >= 0 {
		t.Error("arrow functions must not bind arguments")
	}
}

func TestCompileTryEmitsHandlerRegions(t *testing.T) {
	block := compileSource(t, `try { a(); } catch (e) { b(); } finally { c(); }`)
	var catches, finallies int
	for _, h := range block.Handlers {
		switch h.Kind {
		case HandlerCatch:
			catches++
		case HandlerFinally:
			finallies++
		}
		if h.Start >= h.End {
			t.Errorf("empty handler region [%d, %d)", h.Start, h.End)
		}
	}
	if catches != 1 || finallies != 1 {
		t.Errorf("handlers = %d catch / %d finally, want 1/1", catches, finallies)
	}
	// The finally region must cover the catch body too, so a throw from
	// inside catch still runs the finally.
	var catchH, finallyH Handler
	for _, h := range block.Handlers {
		if h.Kind == HandlerCatch {
			catchH = h
		} else {
			finallyH = h
		}
	}
	if finallyH.End <= catchH.End {
		t.Error("finally region should extend past the catch region")
	}
}

func TestCompileSyntaxErrors(t *testing.T) {
	sources := []string{
		`const [a] = ;`,
		`break;`,
		`continue;`,
	}
	for _, src := range sources {
		prog, err := parser.Parse(src)
		if err != nil {
			continue // rejected by the parser, equally fine
		}
		if _, err := Compile(prog); err == nil {
			t.Errorf("compile %q should fail", src)
		} else if !strings.Contains(err.Error(), "SyntaxError") {
			t.Errorf("compile %q error = %v, want a SyntaxError", src, err)
		}
	}
}

func TestDisassembleListsInnerBlocks(t *testing.T) {
	block := compileSource(t, `function outer() { function inner() {} }`)
	var sb strings.Builder
	Disassemble(&sb, block)
	out := sb.String()
	for _, want := range []string{"<script>", "outer", "inner", "GetFunction"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}
