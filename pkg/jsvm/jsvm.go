// Package jsvm is the embedding API: create a Context, register native
// functions and classes on the global, evaluate source text, and exchange
// values with the engine.
package jsvm

import (
	"io"
	"math/big"

	"github.com/go-jsvm/jsvm/internal/bytecode"
	"github.com/go-jsvm/jsvm/internal/native"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/parser"
	"github.com/go-jsvm/jsvm/internal/realm"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// Value is the host-visible JS value type.
type Value = value.Value

// NativeFunc is the signature host functions implement.
type NativeFunc = vm.NativeFunc

// Option configures a Context.
type Option func(*config)

type config struct {
	machine vm.Options
	realm   realm.Options
}

// WithRecursionLimit bounds the interpreter's call depth.
func WithRecursionLimit(n int) Option {
	return func(c *config) { c.machine.RecursionLimit = n }
}

// WithCanBlock permits Atomics.wait to block the host thread.
func WithCanBlock(ok bool) Option {
	return func(c *config) { c.machine.CanBlock = ok }
}

// WithTrace writes a per-instruction execution trace to w.
func WithTrace(w io.Writer) Option {
	return func(c *config) { c.machine.Trace = w }
}

// WithStdout redirects console output.
func WithStdout(w io.Writer) Option {
	return func(c *config) { c.realm.Stdout = w }
}

// Context is a realm plus its VM: one isolated JS evaluation context.
type Context struct {
	m *vm.Machine
	r *realm.Realm
}

// New creates a fresh Context.
func New(opts ...Option) *Context {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	m := vm.New(cfg.machine)
	r := realm.New(m, cfg.realm)
	return &Context{m: m, r: r}
}

// Machine exposes the underlying VM for advanced hosts.
func (c *Context) Machine() *vm.Machine { return c.m }

// Eval lexes, parses, compiles, and runs src, then drains the job queue.
// An uncaught throw surfaces as an *Error carrying the thrown value.
func (c *Context) Eval(src string) (Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return value.Undef, err
	}
	block, err := bytecode.Compile(prog)
	if err != nil {
		return value.Undef, err
	}
	res, err := c.m.RunProgram(block)
	c.m.DrainJobs()
	if err != nil {
		return value.Undef, &Error{Value: c.m.ErrorValue(err), ctx: c}
	}
	return res, nil
}

// Compile parses and compiles src without running it; used by the CLI's
// compile/disasm subcommands and by hosts that cache code blocks.
func (c *Context) Compile(src string) (*bytecode.CodeBlock, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return bytecode.Compile(prog)
}

// Run executes a previously compiled block.
func (c *Context) Run(block *bytecode.CodeBlock) (Value, error) {
	res, err := c.m.RunProgram(block)
	c.m.DrainJobs()
	if err != nil {
		return value.Undef, &Error{Value: c.m.ErrorValue(err), ctx: c}
	}
	return res, nil
}

// DrainJobs runs pending microtasks to completion.
func (c *Context) DrainJobs() { c.m.DrainJobs() }

// Error wraps an uncaught JS throw for the host.
type Error struct {
	Value Value
	ctx   *Context
}

func (e *Error) Error() string {
	s, err := value.ToStringValue(e.ctx.m, e.Value)
	if err != nil {
		return e.Value.String()
	}
	return s
}

// Global returns the realm's global object.
func (c *Context) Global() *object.Object { return c.r.Global() }

// SetGlobal registers a value on the global object.
func (c *Context) SetGlobal(name string, v Value) {
	c.Global().DefineOwnPropertyRaw(object.StringKey(name), object.PropertyDescriptor{
		Value: v, Writable: true, Enumerable: false, Configurable: true,
	})
}

// GetGlobal reads a property of the global object.
func (c *Context) GetGlobal(name string) (Value, error) {
	return c.m.GetPropertyValue(value.NewObject(c.Global()), object.StringKey(name))
}

// RegisterFunc installs a native function on the global.
func (c *Context) RegisterFunc(name string, length int, fn NativeFunc) {
	native.Register(c.m, c.Global(), name, length, fn)
}

// Call invokes a callable value.
func (c *Context) Call(fn Value, this Value, args ...Value) (Value, error) {
	return c.m.CallValue(fn, this, args)
}

// ---- value builders ----

// From converts a Go value into a JS value.
func From(c *Context, v any) (Value, error) { return native.ToValue(c.m, v) }

// Int builds a number value.
func Int(n int) Value { return value.NumberValue(float64(n)) }

// Float builds a number value.
func Float(f float64) Value { return value.NewFloat64(f) }

// Bool builds a boolean value.
func Bool(b bool) Value { return value.NewBool(b) }

// String builds a string value.
func String(s string) Value { return value.NewString(s) }

// BigInt builds a bigint value.
func BigInt(n *big.Int) Value { return value.NewBigInt(n) }

// Undefined is the undefined value.
func Undefined() Value { return value.Undef }

// Null is the null value.
func Null() Value { return value.Nil }

// ToGo converts a JS value into a plain Go value.
func (c *Context) ToGo(v Value) (any, error) { return native.FromValue(c.m, v) }
