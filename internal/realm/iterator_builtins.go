package realm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// installIterators sets up %IteratorPrototype%, the generator prototypes,
// and the step-iterator helper every iterable builtin shares.
func (r *Realm) installIterators() {
	r.symMethod(r.intr.IteratorProto, r.intr.SymbolIterator, "[Symbol.iterator]", 0,
		func(_ *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
			return this, nil
		})

	// Generator.prototype: next/return/throw resume the saved frame with a
	// Normal/Return/Throw completion.
	gp := r.intr.GeneratorProto
	r.method(gp, "next", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		gobj, err := asGenerator(m, this, object.KindGenerator)
		if err != nil {
			return value.Undef, err
		}
		return m.ResumeGenerator(gobj, vm.ResumeModeNormal, arg(args, 0))
	})
	r.method(gp, "return", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		gobj, err := asGenerator(m, this, object.KindGenerator)
		if err != nil {
			return value.Undef, err
		}
		return m.ResumeGenerator(gobj, vm.ResumeModeReturn, arg(args, 0))
	})
	r.method(gp, "throw", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		gobj, err := asGenerator(m, this, object.KindGenerator)
		if err != nil {
			return value.Undef, err
		}
		return m.ResumeGenerator(gobj, vm.ResumeModeThrow, arg(args, 0))
	})

	// AsyncGenerator.prototype: the same protocol, promise-valued, served
	// through the FIFO request queue.
	agp := r.intr.AsyncGeneratorProto
	r.method(agp, "next", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		gobj, err := asGenerator(m, this, object.KindAsyncGenerator)
		if err != nil {
			return value.Undef, err
		}
		return m.AsyncGeneratorEnqueue(gobj, vm.ResumeModeNormal, arg(args, 0))
	})
	r.method(agp, "return", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		gobj, err := asGenerator(m, this, object.KindAsyncGenerator)
		if err != nil {
			return value.Undef, err
		}
		return m.AsyncGeneratorEnqueue(gobj, vm.ResumeModeReturn, arg(args, 0))
	})
	r.method(agp, "throw", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		gobj, err := asGenerator(m, this, object.KindAsyncGenerator)
		if err != nil {
			return value.Undef, err
		}
		return m.AsyncGeneratorEnqueue(gobj, vm.ResumeModeThrow, arg(args, 0))
	})
	r.symMethod(agp, r.intr.SymbolAsyncIterator, "[Symbol.asyncIterator]", 0,
		func(_ *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
			return this, nil
		})
}

func asGenerator(m *vm.Machine, this value.Value, kind object.Kind) (*object.Object, error) {
	if this.IsObject() {
		if o, ok := this.AsObject().(*object.Object); ok && o.Kind() == kind {
			return o, nil
		}
	}
	return nil, m.ThrowTypeError("receiver is not a generator object")
}

// newStepIterator wraps a Go step function as a JS iterator object.
func (r *Realm) newStepIterator(step func() (value.Value, bool)) *object.Object {
	it := object.New(r.intr.IteratorProto)
	r.method(it, "next", 0, func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
		v, done := step()
		return value.NewObject(m.NewIterResult(v, done)), nil
	})
	r.m.Heap().Alloc(it)
	return it
}
