// Package environment implements the lexical-environment stack: declarative,
// function, object, module, and global environment records, the
// poisoned/with propagation rule for dynamic-code lookups, and the private-
// environment stack for private-name resolution.
package environment

import (
	"fmt"

	"github.com/go-jsvm/jsvm/internal/gc"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// Kind tags which environment-record variant a Record is.
type Kind uint8

const (
	KindDeclarative Kind = iota
	KindFunction
	KindObject
	KindModule
	KindGlobal
)

// ThisBindingStatus is `this-binding-status` for function environments:
// lexical arrow functions never initialize `this`, derived class
// constructors start Uninitialized until `super` runs.
type ThisBindingStatus uint8

const (
	ThisLexical ThisBindingStatus = iota
	ThisUninitialized
	ThisInitialized
)

// Record is one frame of the environment stack. Every kind shares the
// declarative slot vector and poisoning flags; Function/Object/Module/
// Global add their own extra state.
type Record struct {
	kind Kind

	// slots holds the declarative bindings by compile-time-assigned index. An
	// unset slot is value.Undef with initialized=false (temporal dead zone).
	slots       []value.Value
	initialized []bool

	// compileEnv mirrors this record at compile time; consulted by
	// FindRuntimeBinding only when poisoned is true.
	compileEnv *CompileTimeEnvironment

	// poisoned marks that direct eval or with may have introduced bindings this
	// record's compile-time mirror doesn't know about.
	poisoned bool
	// withFlag propagates from an ancestor `with` statement; inherited by
	// child declarative records at push time.
	withFlag bool

	// object backs a KindObject record (the `with` statement's operand).
	object *object.Object

	// Function-record extra state.
	thisValue  value.Value
	thisStatus ThisBindingStatus
	funcObject *object.Object
	newTarget  *object.Object

	// Module-record extra state: import name -> (module, binding name).
	imports map[string]ImportBinding

	// Global-record extra state: the backing global object.
	globalObject *object.Object

	outer *Record
}

// ImportBinding resolves an imported name to the exporting module's
// environment and the binding name within it.
type ImportBinding struct {
	Module *Record
	Name   string
}

// Trace implements gc.Cell.
func (r *Record) Trace(visit func(gc.Cell)) {
	for _, v := range r.slots {
		if v.IsObject() {
			if o, ok := v.AsObject().(*object.Object); ok {
				visit(o)
			}
		}
	}
	if r.object != nil {
		visit(r.object)
	}
	if r.funcObject != nil {
		visit(r.funcObject)
	}
	if r.newTarget != nil {
		visit(r.newTarget)
	}
	if r.globalObject != nil {
		visit(r.globalObject)
	}
	if r.thisValue.IsObject() {
		if o, ok := r.thisValue.AsObject().(*object.Object); ok {
			visit(o)
		}
	}
	if r.outer != nil {
		visit(r.outer)
	}
}

// CompileTimeEnvironment mirrors a runtime Record at compile time: name ->
// (environment-index, binding-index, mutable?, lexical?, strict?).
type CompileTimeEnvironment struct {
	Outer    *CompileTimeEnvironment
	bindings map[string]BindingInfo
	order    []string
}

// BindingInfo is one entry of a CompileTimeEnvironment.
type BindingInfo struct {
	Index   int
	Mutable bool
	Lexical bool
	Strict  bool
}

// NewCompileTimeEnvironment creates a compile-time environment nested
// inside outer (nil for the outermost/global scope).
func NewCompileTimeEnvironment(outer *CompileTimeEnvironment) *CompileTimeEnvironment {
	return &CompileTimeEnvironment{Outer: outer, bindings: make(map[string]BindingInfo)}
}

// Declare adds a compile-time binding, returning its slot index.
func (c *CompileTimeEnvironment) Declare(name string, mutable, lexical, strict bool) int {
	idx := len(c.order)
	c.bindings[name] = BindingInfo{Index: idx, Mutable: mutable, Lexical: lexical, Strict: strict}
	c.order = append(c.order, name)
	return idx
}

// Resolve looks up name in this environment only (no outer walk).
func (c *CompileTimeEnvironment) Resolve(name string) (BindingInfo, bool) {
	b, ok := c.bindings[name]
	return b, ok
}

// SlotCount returns the number of declared slots, used to size the
// runtime Record's slot vector.
func (c *CompileTimeEnvironment) SlotCount() int { return len(c.order) }

// Names returns the declared binding names in slot order.
func (c *CompileTimeEnvironment) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// EachBinding visits every declared binding; used at runtime to
// pre-initialize non-lexical (var/function) slots so hoisted names read as
// undefined rather than tripping the temporal-dead-zone check.
func (c *CompileTimeEnvironment) EachBinding(f func(name string, info BindingInfo)) {
	for _, name := range c.order {
		f(name, c.bindings[name])
	}
}

// BindingLocator is resolved name reference emitted by the compiler.
// EnvIndex counts outward hops from the frame that emitted the locator; most
// accesses use it directly, but a poisoned frame triggers FindRuntimeBinding
// to re-resolve (and rewrite) it.
type BindingLocator struct {
	Name            string
	EnvIndex        int
	BindingIndex    int
	Global          bool
	MutateImmutable bool // writing triggers a TypeError (const reassignment)
	Silent          bool // failed lookup resolves to undefined rather than throwing
}

// Stack is the runtime environment stack: a chain rooted at index 0, the
// global record.
type Stack struct {
	top     *Record
	global  *Record
	private *PrivateStack
}

// NewStack creates a stack with only the global record, backed by globalObj.
func NewStack(globalObj *object.Object) *Stack {
	g := &Record{kind: KindGlobal, globalObject: globalObj}
	return &Stack{top: g, global: g, private: &PrivateStack{}}
}

// Top returns the innermost (current) record.
func (s *Stack) Top() *Record { return s.top }

// SetTop repoints the stack at an arbitrary record, used by the VM when
// entering a closure (whose captured chain differs from the caller's) and
// when suspending/resuming a generator frame.
func (s *Stack) SetTop(r *Record) {
	if r == nil {
		r = s.global
	}
	s.top = r
}

// Outer returns r's lexical parent, nil at the global.
func (r *Record) Outer() *Record { return r.outer }

// Kind returns the record's variant tag.
func (r *Record) Kind() Kind { return r.kind }

// Global returns the outermost (global) record.
func (s *Stack) Global() *Record { return s.global }

// PushDeclarative pushes a record with n uninitialized slots, inheriting
// poisoned/with from the innermost ancestor.
func (s *Stack) PushDeclarative(n int, compileEnv *CompileTimeEnvironment) *Record {
	r := &Record{
		kind:        KindDeclarative,
		slots:       make([]value.Value, n),
		initialized: make([]bool, n),
		compileEnv:  compileEnv,
		poisoned:    s.top.poisoned,
		withFlag:    s.top.withFlag,
		outer:       s.top,
	}
	if compileEnv != nil {
		// var/function bindings are hoisted and readable (as undefined)
		// before their declaration statement runs; only lexical bindings
		// keep the temporal dead zone.
		compileEnv.EachBinding(func(_ string, info BindingInfo) {
			if !info.Lexical && info.Index < n {
				r.initialized[info.Index] = true
			}
		})
	}
	s.top = r
	return r
}

// PushFunction extends PushDeclarative with this-binding and new.target
// state.
func (s *Stack) PushFunction(n int, compileEnv *CompileTimeEnvironment, this value.Value, fn, newTarget *object.Object, lexical bool) *Record {
	r := s.PushDeclarative(n, compileEnv)
	r.kind = KindFunction
	r.funcObject = fn
	r.newTarget = newTarget
	if lexical {
		r.thisStatus = ThisLexical
	} else if this.IsUndefined() && fn != nil {
		if _, derived := fn.Slot("ConstructorKind"); derived {
			r.thisStatus = ThisUninitialized
		} else {
			r.thisStatus = ThisInitialized
			r.thisValue = this
		}
	} else {
		r.thisStatus = ThisInitialized
		r.thisValue = this
	}
	return r
}

// PushObject pushes an object environment record used for `with` statements;
// subsequent lookups consult obj's properties.
func (s *Stack) PushObject(obj *object.Object) *Record {
	r := &Record{
		kind:     KindObject,
		object:   obj,
		poisoned: true,
		withFlag: true,
		outer:    s.top,
	}
	s.top = r
	return r
}

// PushModule pushes a module-specific declarative record.
func (s *Stack) PushModule(n int, compileEnv *CompileTimeEnvironment) *Record {
	r := s.PushDeclarative(n, compileEnv)
	r.kind = KindModule
	r.imports = make(map[string]ImportBinding)
	return r
}

// Pop removes the innermost record; always leaves the global intact.
func (s *Stack) Pop() {
	if s.top == s.global || s.top.outer == nil {
		return
	}
	s.top = s.top.outer
}

// Poison marks r and every ancestor up to (and including) the next function
// boundary as poisoned: a direct eval or `with` invalidates fast-path
// lookups in its enclosing lexical scope chain, not in sibling or outer
// function scopes.
func (s *Stack) Poison(r *Record) {
	for cur := r; cur != nil; cur = cur.outer {
		cur.poisoned = true
		if cur.kind == KindFunction || cur.kind == KindGlobal {
			break
		}
	}
}

// GetThisBinding walks outward from r until a record with a this-binding is
// found, erroring ReferenceError on an uninitialized derived-class `this`.
func (s *Stack) GetThisBinding(r *Record) (value.Value, error) {
	for cur := r; cur != nil; cur = cur.outer {
		if cur.kind == KindGlobal {
			if cur.globalObject != nil {
				return value.NewObject(cur.globalObject), nil
			}
			return value.Undef, nil
		}
		if cur.kind != KindFunction {
			continue
		}
		switch cur.thisStatus {
		case ThisLexical:
			continue
		case ThisUninitialized:
			return value.Value{}, fmt.Errorf("ReferenceError: must call super constructor before accessing 'this'")
		case ThisInitialized:
			return cur.thisValue, nil
		}
	}
	return value.Undef, nil
}

// BindThis initializes an uninitialized derived-class `this` binding
// after super() returns.
func (s *Stack) BindThis(r *Record, this value.Value) error {
	for cur := r; cur != nil; cur = cur.outer {
		if cur.kind != KindFunction || cur.thisStatus == ThisLexical {
			continue
		}
		if cur.thisStatus == ThisInitialized {
			return fmt.Errorf("ReferenceError: super called twice")
		}
		cur.thisValue = this
		cur.thisStatus = ThisInitialized
		return nil
	}
	return fmt.Errorf("ReferenceError: no this binding in scope")
}

// NewTarget walks outward to find the nearest function record's new.target.
func (s *Stack) NewTarget(r *Record) *object.Object {
	for cur := r; cur != nil; cur = cur.outer {
		if cur.kind == KindFunction {
			return cur.newTarget
		}
	}
	return nil
}

// PutLexicalValue directly stores into a resolved (env-index, binding-index)
// slot; lexical bindings are never affected by runtime poisoning.
func (s *Stack) PutLexicalValue(r *Record, envIdx, bindIdx int, v value.Value) {
	cur := r
	for i := 0; i < envIdx && cur != nil; i++ {
		cur = cur.outer
	}
	if cur == nil || bindIdx >= len(cur.slots) {
		return
	}
	cur.slots[bindIdx] = v
	cur.initialized[bindIdx] = true
}

// GetLexicalValue is PutLexicalValue's read counterpart.
func (s *Stack) GetLexicalValue(r *Record, envIdx, bindIdx int) (value.Value, bool) {
	cur := r
	for i := 0; i < envIdx && cur != nil; i++ {
		cur = cur.outer
	}
	if cur == nil || bindIdx >= len(cur.slots) {
		return value.Undef, false
	}
	return cur.slots[bindIdx], cur.initialized[bindIdx]
}

// Ctx is the narrow surface object-environment lookups (with-statement
// property access) need from the engine.
type Ctx interface {
	HasProperty(o *object.Object, key object.PropertyKey) (bool, error)
	GetProperty(o *object.Object, key object.PropertyKey) (value.Value, error)
	SetProperty(o *object.Object, key object.PropertyKey, v value.Value) error
	DeleteProperty(o *object.Object, key object.PropertyKey) (bool, error)
	HasUnscopables(o *object.Object, name string) bool
}

// FindRuntimeBinding re-resolves a BindingLocator when the current frame is
// poisoned or `with`-free is false: it walks outward consulting each
// poisoned record's compile-time mirror and any object-record's properties
// (honoring @@unscopables), rewriting the locator on match. If the current
// frame is neither poisoned nor inside a `with`, this is a no-op and the
// locator is used as-is by the caller.
func (s *Stack) FindRuntimeBinding(ctx Ctx, r *Record, loc *BindingLocator) error {
	if !r.poisoned && !r.withFlag {
		return nil
	}
	depth := 0
	for cur := r; cur != nil; cur = cur.outer {
		if cur.kind == KindObject {
			present, err := ctx.HasProperty(cur.object, object.StringKey(loc.Name))
			if err != nil {
				return err
			}
			if present && !ctx.HasUnscopables(cur.object, loc.Name) {
				loc.EnvIndex = depth
				loc.BindingIndex = -1 // sentinel: resolve via object record
				loc.Global = false
				return nil
			}
		} else if cur.compileEnv != nil {
			if b, ok := cur.compileEnv.Resolve(loc.Name); ok {
				loc.EnvIndex = depth
				loc.BindingIndex = b.Index
				loc.MutateImmutable = !b.Mutable
				loc.Global = false
				return nil
			}
		} else if cur.kind == KindGlobal {
			loc.Global = true
			return nil
		}
		depth++
	}
	loc.Global = true
	return nil
}

// GetBinding resolves loc against r, consulting the global object first when
// loc.Global is set, otherwise dispatching by environment kind.
func (s *Stack) GetBinding(ctx Ctx, r *Record, loc BindingLocator) (value.Value, error) {
	if loc.Global {
		present, err := ctx.HasProperty(s.global.globalObject, object.StringKey(loc.Name))
		if err != nil {
			return value.Value{}, err
		}
		if !present {
			if loc.Silent {
				return value.Undef, nil
			}
			return value.Value{}, fmt.Errorf("ReferenceError: %s is not defined", loc.Name)
		}
		return ctx.GetProperty(s.global.globalObject, object.StringKey(loc.Name))
	}
	cur := r
	for i := 0; i < loc.EnvIndex && cur != nil; i++ {
		cur = cur.outer
	}
	if cur == nil {
		return value.Value{}, fmt.Errorf("ReferenceError: %s is not defined", loc.Name)
	}
	if cur.kind == KindObject || loc.BindingIndex < 0 {
		return ctx.GetProperty(cur.object, object.StringKey(loc.Name))
	}
	if loc.BindingIndex >= len(cur.slots) || !cur.initialized[loc.BindingIndex] {
		return value.Value{}, fmt.Errorf("ReferenceError: cannot access '%s' before initialization", loc.Name)
	}
	return cur.slots[loc.BindingIndex], nil
}

// SetBinding is GetBinding's write counterpart.
func (s *Stack) SetBinding(ctx Ctx, r *Record, loc BindingLocator, v value.Value) error {
	if loc.MutateImmutable {
		return fmt.Errorf("TypeError: assignment to constant variable '%s'", loc.Name)
	}
	if loc.Global {
		return ctx.SetProperty(s.global.globalObject, object.StringKey(loc.Name), v)
	}
	cur := r
	for i := 0; i < loc.EnvIndex && cur != nil; i++ {
		cur = cur.outer
	}
	if cur == nil {
		return fmt.Errorf("ReferenceError: %s is not defined", loc.Name)
	}
	if cur.kind == KindObject || loc.BindingIndex < 0 {
		return ctx.SetProperty(cur.object, object.StringKey(loc.Name), v)
	}
	if loc.BindingIndex >= len(cur.slots) {
		return fmt.Errorf("ReferenceError: %s is not defined", loc.Name)
	}
	cur.slots[loc.BindingIndex] = v
	cur.initialized[loc.BindingIndex] = true
	return nil
}

// DeleteBinding implements `delete name` for a name reference: only object-
// environment (with) and global bindings are deletable; lexical and
// function-declarative bindings are not.
func (s *Stack) DeleteBinding(ctx Ctx, r *Record, loc BindingLocator) (bool, error) {
	if loc.Global {
		ok, err := ctx.HasProperty(s.global.globalObject, object.StringKey(loc.Name))
		if err != nil {
			return false, err
		}
		if !ok {
			// Deleting an unresolvable reference succeeds.
			return true, nil
		}
		// [[Delete]] on the global object enforces configurability: a
		// non-configurable binding survives and the delete reports false.
		return ctx.DeleteProperty(s.global.globalObject, object.StringKey(loc.Name))
	}
	return false, nil
}

// PrivateStack is separate stack of private-name environments, each
// introduced by a class body.
type PrivateStack struct {
	frames []*PrivateFrame
}

// PrivateFrame holds the private names declared by one class body.
type PrivateFrame struct {
	id    uint64
	names map[string]object.PrivateName
}

var nextPrivateEnvID uint64

// Push introduces a new private-name environment (entering a class body).
func (p *PrivateStack) Push() *PrivateFrame {
	nextPrivateEnvID++
	f := &PrivateFrame{id: nextPrivateEnvID, names: make(map[string]object.PrivateName)}
	p.frames = append(p.frames, f)
	return f
}

// Pop leaves the innermost private-name environment.
func (p *PrivateStack) Pop() {
	if len(p.frames) > 0 {
		p.frames = p.frames[:len(p.frames)-1]
	}
}

// Declare registers description in the innermost private frame, returning
// its PrivateName.
func (f *PrivateFrame) Declare(description string) object.PrivateName {
	pn := object.PrivateName{Description: description, EnvID: f.id}
	f.names[description] = pn
	return pn
}

// ResolvePrivateIdentifier walks outward from the innermost private frame
// returning the first match.
func (p *PrivateStack) ResolvePrivateIdentifier(description string) (object.PrivateName, bool) {
	for i := len(p.frames) - 1; i >= 0; i-- {
		if pn, ok := p.frames[i].names[description]; ok {
			return pn, true
		}
	}
	return object.PrivateName{}, false
}
