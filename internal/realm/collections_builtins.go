package realm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// installCollections registers Map, Set, WeakMap, and WeakSet. Keys compare
// with SameValueZero; forEach holds the iteration lock for its whole walk,
// releasing it on every exit path.
func (r *Realm) installCollections() {
	r.installMap()
	r.installSet()
	r.installWeak()
}

func mapDataOf(m *vm.Machine, this value.Value, kind object.Kind) (*object.Object, *object.MapData, error) {
	if this.IsObject() {
		if o, ok := this.AsObject().(*object.Object); ok && o.Kind() == kind {
			switch d := o.Data().(type) {
			case *object.MapData:
				return o, d, nil
			case *object.SetData:
				return o, d.Backing(), nil
			}
		}
	}
	return nil, nil, m.ThrowTypeError("method called on incompatible receiver")
}

func (r *Realm) installMap() {
	proto := object.New(r.intr.ObjectProto)

	r.ctor("Map", 0, proto, func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
		return value.Undef, m.ThrowTypeError("Constructor Map requires 'new'")
	}, func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
		mo := object.NewMap(proto)
		m.Heap().Alloc(mo)
		if iterable := arg(args, 0); !iterable.IsNullOrUndefined() {
			md := mo.Data().(*object.MapData)
			err := m.IterateAll(iterable, func(entry value.Value) error {
				k, err := m.GetPropertyValue(entry, object.IndexKey(0))
				if err != nil {
					return err
				}
				v, err := m.GetPropertyValue(entry, object.IndexKey(1))
				if err != nil {
					return err
				}
				md.Set(k, v)
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
		return mo, nil
	})

	r.method(proto, "get", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		v, _ := md.Get(arg(args, 0))
		return v, nil
	})
	r.method(proto, "set", 2, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		md.Set(arg(args, 0), arg(args, 1))
		return this, nil
	})
	r.method(proto, "has", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		_, ok := md.Get(arg(args, 0))
		return value.NewBool(ok), nil
	})
	r.method(proto, "delete", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(md.Delete(arg(args, 0))), nil
	})
	r.method(proto, "clear", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		for _, e := range md.Entries() {
			md.Delete(e.Key())
		}
		return value.Undef, nil
	})
	r.getter(proto, "size", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		return value.NewInt32(int32(md.Size())), nil
	})
	r.method(proto, "forEach", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		cb := arg(args, 0)
		if !cb.IsCallable() {
			return value.Undef, m.ThrowTypeError("forEach callback is not a function")
		}
		md.Lock()
		defer md.Unlock()
		for i := 0; ; i++ {
			k, v, alive, ok := md.EntryAt(i)
			if !ok {
				break
			}
			if !alive {
				continue
			}
			if _, err := m.CallValue(cb, arg(args, 1), []value.Value{v, k, this}); err != nil {
				return value.Undef, err
			}
		}
		return value.Undef, nil
	})

	entriesIter := func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		i := 0
		return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
			for {
				k, v, alive, ok := md.EntryAt(i)
				if !ok {
					return value.Undef, true
				}
				i++
				if alive {
					return value.NewObject(m.NewArrayOf(k, v)), false
				}
			}
		})), nil
	}
	r.method(proto, "entries", 0, entriesIter)
	defSym(proto, r.intr.SymbolIterator, value.NewObject(r.m.NewNativeFunction("[Symbol.iterator]", 0, entriesIter)))
	r.method(proto, "keys", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		i := 0
		return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
			for {
				k, _, alive, ok := md.EntryAt(i)
				if !ok {
					return value.Undef, true
				}
				i++
				if alive {
					return k, false
				}
			}
		})), nil
	})
	r.method(proto, "values", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		_, md, err := mapDataOf(m, this, object.KindMap)
		if err != nil {
			return value.Undef, err
		}
		i := 0
		return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
			for {
				_, v, alive, ok := md.EntryAt(i)
				if !ok {
					return value.Undef, true
				}
				i++
				if alive {
					return v, false
				}
			}
		})), nil
	})
}

func (r *Realm) installSet() {
	proto := object.New(r.intr.ObjectProto)

	r.ctor("Set", 0, proto, func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
		return value.Undef, m.ThrowTypeError("Constructor Set requires 'new'")
	}, func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
		so := object.NewSet(proto)
		m.Heap().Alloc(so)
		if iterable := arg(args, 0); !iterable.IsNullOrUndefined() {
			sd := so.Data().(*object.SetData)
			if err := m.IterateAll(iterable, func(v value.Value) error {
				sd.Add(v)
				return nil
			}); err != nil {
				return nil, err
			}
		}
		return so, nil
	})

	setData := func(m *vm.Machine, this value.Value) (*object.SetData, error) {
		if this.IsObject() {
			if o, ok := this.AsObject().(*object.Object); ok && o.Kind() == object.KindSet {
				return o.Data().(*object.SetData), nil
			}
		}
		return nil, m.ThrowTypeError("method called on incompatible receiver")
	}

	r.method(proto, "add", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		sd, err := setData(m, this)
		if err != nil {
			return value.Undef, err
		}
		sd.Add(arg(args, 0))
		return this, nil
	})
	r.method(proto, "has", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		sd, err := setData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(sd.Has(arg(args, 0))), nil
	})
	r.method(proto, "delete", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		sd, err := setData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(sd.Delete(arg(args, 0))), nil
	})
	r.getter(proto, "size", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		sd, err := setData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewInt32(int32(sd.Size())), nil
	})
	r.method(proto, "forEach", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		sd, err := setData(m, this)
		if err != nil {
			return value.Undef, err
		}
		cb := arg(args, 0)
		if !cb.IsCallable() {
			return value.Undef, m.ThrowTypeError("forEach callback is not a function")
		}
		md := sd.Backing()
		md.Lock()
		defer md.Unlock()
		for i := 0; ; i++ {
			k, _, alive, ok := md.EntryAt(i)
			if !ok {
				break
			}
			if !alive {
				continue
			}
			if _, err := m.CallValue(cb, arg(args, 1), []value.Value{k, k, this}); err != nil {
				return value.Undef, err
			}
		}
		return value.Undef, nil
	})
	valuesIter := func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		sd, err := setData(m, this)
		if err != nil {
			return value.Undef, err
		}
		md := sd.Backing()
		i := 0
		return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
			for {
				k, _, alive, ok := md.EntryAt(i)
				if !ok {
					return value.Undef, true
				}
				i++
				if alive {
					return k, false
				}
			}
		})), nil
	}
	r.method(proto, "values", 0, valuesIter)
	r.method(proto, "keys", 0, valuesIter)
	defSym(proto, r.intr.SymbolIterator, value.NewObject(r.m.NewNativeFunction("[Symbol.iterator]", 0, valuesIter)))
}

func (r *Realm) installWeak() {
	for _, spec := range []struct {
		name  string
		kind  object.Kind
		isMap bool
	}{{"WeakMap", object.KindWeakMap, true}, {"WeakSet", object.KindWeakSet, false}} {
		spec := spec
		proto := object.New(r.intr.ObjectProto)
		r.ctor(spec.name, 0, proto, func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
			return value.Undef, m.ThrowTypeError("Constructor %s requires 'new'", spec.name)
		}, func(m *vm.Machine, _ []value.Value, _ *object.Object) (*object.Object, error) {
			o := object.New(proto)
			o.SetKind(spec.kind, o.Methods())
			o.SetData(object.NewMapData())
			m.Heap().Alloc(o)
			return o, nil
		})

		weakData := func(m *vm.Machine, this value.Value) (*object.MapData, error) {
			if this.IsObject() {
				if o, ok := this.AsObject().(*object.Object); ok && o.Kind() == spec.kind {
					return o.Data().(*object.MapData), nil
				}
			}
			return nil, m.ThrowTypeError("method called on incompatible receiver")
		}
		requireObjKey := func(m *vm.Machine, v value.Value) error {
			if !v.IsObject() {
				return m.ThrowTypeError("Invalid value used in weak collection")
			}
			return nil
		}
		if spec.isMap {
			r.method(proto, "get", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
				md, err := weakData(m, this)
				if err != nil {
					return value.Undef, err
				}
				v, _ := md.Get(arg(args, 0))
				return v, nil
			})
			r.method(proto, "set", 2, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
				md, err := weakData(m, this)
				if err != nil {
					return value.Undef, err
				}
				if err := requireObjKey(m, arg(args, 0)); err != nil {
					return value.Undef, err
				}
				md.Set(arg(args, 0), arg(args, 1))
				return this, nil
			})
		} else {
			r.method(proto, "add", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
				md, err := weakData(m, this)
				if err != nil {
					return value.Undef, err
				}
				if err := requireObjKey(m, arg(args, 0)); err != nil {
					return value.Undef, err
				}
				md.Set(arg(args, 0), value.True)
				return this, nil
			})
		}
		r.method(proto, "has", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			md, err := weakData(m, this)
			if err != nil {
				return value.Undef, err
			}
			_, ok := md.Get(arg(args, 0))
			return value.NewBool(ok), nil
		})
		r.method(proto, "delete", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			md, err := weakData(m, this)
			if err != nil {
				return value.Undef, err
			}
			return value.NewBool(md.Delete(arg(args, 0))), nil
		})
	}
}
