package jsvm

import (
	"github.com/go-jsvm/jsvm/internal/native"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// NativeClass describes a host class exposed to script: a name, an arity, a
// data constructor producing the backing host value, and an Init hook that
// registers methods, accessors, and statics on the builder.
type NativeClass struct {
	Name   string
	Length int
	// Constructor builds the native backing data for a `new` expression.
	Constructor func(c *Context, this Value, args []Value) (any, error)
	// Init registers the class's members.
	Init func(b *ClassBuilder)
}

// ClassBuilder accumulates a native class's members before wiring.
type ClassBuilder struct {
	ctx   *Context
	class NativeClass
	proto *object.Object
	ctor  *object.Object
	tag   string
}

// RegisterClass allocates the constructor and prototype, wires the
// prototype chain, runs Init, and exposes the class on the global.
func (c *Context) RegisterClass(class NativeClass) *ClassBuilder {
	b := &ClassBuilder{
		ctx:   c,
		class: class,
		proto: object.New(c.m.Intrinsics().ObjectProto),
		tag:   "class:" + class.Name,
	}
	construct := func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
		data, err := class.Constructor(c, value.Undef, args)
		if err != nil {
			return nil, err
		}
		return native.WrapData(m, b.proto, b.tag, data), nil
	}
	b.ctor = c.m.NewNativeConstructor(class.Name, class.Length,
		func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
			return value.Undef, m.ThrowTypeError("Constructor %s requires 'new'", class.Name)
		}, construct)
	b.ctor.DefineOwnPropertyRaw(object.StringKey("prototype"), object.PropertyDescriptor{
		Value: value.NewObject(b.proto),
	})
	b.proto.DefineOwnPropertyRaw(object.StringKey("constructor"), object.PropertyDescriptor{
		Value: value.NewObject(b.ctor), Writable: true, Configurable: true,
	})
	if class.Init != nil {
		class.Init(b)
	}
	c.SetGlobal(class.Name, value.NewObject(b.ctor))
	return b
}

// ClassData recovers the host value backing a method receiver.
func ClassData[T any](b *ClassBuilder, this Value) (T, bool) {
	return native.UnwrapData[T](this, b.tag)
}

// Method registers an instance method on the prototype.
func (b *ClassBuilder) Method(name string, length int, fn NativeFunc) *ClassBuilder {
	native.Register(b.ctx.m, b.proto, name, length, fn)
	return b
}

// Static registers a function on the constructor itself.
func (b *ClassBuilder) Static(name string, length int, fn NativeFunc) *ClassBuilder {
	native.Register(b.ctx.m, b.ctor, name, length, fn)
	return b
}

// Accessor registers a getter/setter pair on the prototype; either half
// may be nil.
func (b *ClassBuilder) Accessor(name string, get, set NativeFunc) *ClassBuilder {
	desc := object.PropertyDescriptor{IsAccessor: true, Configurable: true}
	if get != nil {
		desc.Get = value.NewObject(b.ctx.m.NewNativeFunction("get "+name, 0, get))
	}
	if set != nil {
		desc.Set = value.NewObject(b.ctx.m.NewNativeFunction("set "+name, 1, set))
	}
	b.proto.DefineOwnPropertyRaw(object.StringKey(name), desc)
	return b
}

// Prototype returns the class's prototype object.
func (b *ClassBuilder) Prototype() *object.Object { return b.proto }

// Constructor returns the class's constructor object.
func (b *ClassBuilder) Constructor() *object.Object { return b.ctor }
