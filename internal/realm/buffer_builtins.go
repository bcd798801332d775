package realm

import (
	"sync"
	"time"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// futexTable is the process-wide wait/notify registry backing
// Atomics.wait/notify. It deliberately lives outside any single realm:
// SharedArrayBuffers cross realm (and host-thread) boundaries, so the futex
// state must too.
var futexTable = struct {
	mu      sync.Mutex
	waiters map[futexKey][]chan struct{}
}{waiters: make(map[futexKey][]chan struct{})}

type futexKey struct {
	buf *object.ArrayBufferData
	off int
}

// atomicsMu serializes every Atomics.* access to shared buffers, giving the
// sequentially-consistent ordering requires without per-element atomic
// words.
var atomicsMu sync.Mutex

func (r *Realm) installBuffers() {
	abProto := object.New(r.intr.ObjectProto)
	r.ctor("ArrayBuffer", 1, abProto,
		func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
			return value.Undef, m.ThrowTypeError("Constructor ArrayBuffer requires 'new'")
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			return newBuffer(m, abProto, args, false)
		})
	r.getter(abProto, "byteLength", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		bd, err := bufferData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewInt32(int32(len(bd.Bytes))), nil
	})

	sabProto := object.New(r.intr.ObjectProto)
	r.ctor("SharedArrayBuffer", 1, sabProto,
		func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
			return value.Undef, m.ThrowTypeError("Constructor SharedArrayBuffer requires 'new'")
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			return newBuffer(m, sabProto, args, true)
		})
	r.getter(sabProto, "byteLength", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		bd, err := bufferData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewInt32(int32(len(bd.Bytes))), nil
	})

	taProto := object.New(r.intr.ObjectProto)
	r.getter(taProto, "length", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		td, err := typedArrayData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewInt32(int32(td.Length)), nil
	})
	r.getter(taProto, "byteLength", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		td, err := typedArrayData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewInt32(int32(td.Length * td.ElemKind.ElementSize())), nil
	})
	r.getter(taProto, "byteOffset", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		td, err := typedArrayData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewInt32(int32(td.ByteOffset)), nil
	})
	r.getter(taProto, "buffer", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		td, err := typedArrayData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewObject(td.Buffer), nil
	})
	r.method(taProto, "fill", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		td, err := typedArrayData(m, this)
		if err != nil {
			return value.Undef, err
		}
		n, err := value.ToNumber(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		to := this.AsObject().(*object.Object)
		for i := 0; i < td.Length; i++ {
			object.TypedArrayWriteIndex(to, i, n)
		}
		return this, nil
	})
	defSym(taProto, r.intr.SymbolIterator, value.NewObject(r.m.NewNativeFunction("[Symbol.iterator]", 0,
		func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
			td, err := typedArrayData(m, this)
			if err != nil {
				return value.Undef, err
			}
			to := this.AsObject().(*object.Object)
			i := 0
			return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
				if i >= td.Length {
					return value.Undef, true
				}
				v, _ := object.TypedArrayReadIndex(to, i)
				i++
				return v, false
			})), nil
		})))

	kinds := []struct {
		name string
		kind object.TypedArrayKind
	}{
		{"Int8Array", object.Int8Array}, {"Uint8Array", object.Uint8Array},
		{"Uint8ClampedArray", object.Uint8ClampedArray},
		{"Int16Array", object.Int16Array}, {"Uint16Array", object.Uint16Array},
		{"Int32Array", object.Int32Array}, {"Uint32Array", object.Uint32Array},
		{"Float32Array", object.Float32Array}, {"Float64Array", object.Float64Array},
	}
	for _, k := range kinds {
		k := k
		proto := object.New(taProto)
		ctor := r.ctor(k.name, 1, proto,
			func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
				return value.Undef, m.ThrowTypeError("Constructor %s requires 'new'", k.name)
			},
			func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
				return r.newTypedArray(m, proto, k.kind, args)
			})
		defConst(ctor, "BYTES_PER_ELEMENT", value.NewInt32(int32(k.kind.ElementSize())))
	}

	r.installAtomics()
	r.installDataView()
}

func newBuffer(m *vm.Machine, proto *object.Object, args []value.Value, shared bool) (*object.Object, error) {
	n, err := value.ToIntegerOrInfinity(m, arg(args, 0))
	if err != nil {
		return nil, err
	}
	if n < 0 || n > 1<<31 {
		return nil, m.ThrowRangeError("Invalid array buffer length")
	}
	b := object.NewArrayBuffer(proto, int(n), shared)
	m.Heap().Alloc(b)
	return b, nil
}

func bufferData(m *vm.Machine, this value.Value) (*object.ArrayBufferData, error) {
	if this.IsObject() {
		if o, ok := this.AsObject().(*object.Object); ok {
			if bd, ok := o.Data().(*object.ArrayBufferData); ok {
				return bd, nil
			}
		}
	}
	return nil, m.ThrowTypeError("receiver is not an ArrayBuffer")
}

func typedArrayData(m *vm.Machine, this value.Value) (*object.TypedArrayData, error) {
	if this.IsObject() {
		if o, ok := this.AsObject().(*object.Object); ok && o.Kind() == object.KindTypedArray {
			return o.Data().(*object.TypedArrayData), nil
		}
	}
	return nil, m.ThrowTypeError("receiver is not a typed array")
}

// newTypedArray handles the (length), (buffer[, byteOffset[, length]]), and
// (array-like) constructor forms.
func (r *Realm) newTypedArray(m *vm.Machine, proto *object.Object, kind object.TypedArrayKind, args []value.Value) (*object.Object, error) {
	first := arg(args, 0)
	elemSize := kind.ElementSize()

	if first.IsObject() {
		if o, ok := first.AsObject().(*object.Object); ok {
			if bd, isBuf := o.Data().(*object.ArrayBufferData); isBuf {
				offF, err := value.ToIntegerOrInfinity(m, arg(args, 1))
				if err != nil {
					return nil, err
				}
				off := int(offF)
				if off < 0 || off%elemSize != 0 || off > len(bd.Bytes) {
					return nil, m.ThrowRangeError("Invalid typed array offset")
				}
				length := (len(bd.Bytes) - off) / elemSize
				if lv := arg(args, 2); !lv.IsUndefined() {
					lf, err := value.ToIntegerOrInfinity(m, lv)
					if err != nil {
						return nil, err
					}
					if int(lf) < 0 || off+int(lf)*elemSize > len(bd.Bytes) {
						return nil, m.ThrowRangeError("Invalid typed array length")
					}
					length = int(lf)
				}
				ta := object.NewTypedArray(proto, o, kind, off, length)
				m.Heap().Alloc(ta)
				return ta, nil
			}
			// array-like source (read through length and indices; an
			// iterable without them is not iterated)
			els, err := sliceOfArrayLike(m, first)
			if err != nil {
				return nil, err
			}
			ta, err := r.freshTypedArray(m, proto, kind, len(els))
			if err != nil {
				return nil, err
			}
			for i, el := range els {
				n, err := value.ToNumber(m, el)
				if err != nil {
					return nil, err
				}
				object.TypedArrayWriteIndex(ta, i, n)
			}
			return ta, nil
		}
	}

	n := 0.0
	if !first.IsUndefined() {
		var err error
		n, err = value.ToIntegerOrInfinity(m, first)
		if err != nil {
			return nil, err
		}
	}
	if n < 0 {
		return nil, m.ThrowRangeError("Invalid typed array length")
	}
	return r.freshTypedArray(m, proto, kind, int(n))
}

func (r *Realm) freshTypedArray(m *vm.Machine, proto *object.Object, kind object.TypedArrayKind, length int) (*object.Object, error) {
	buf := object.NewArrayBuffer(r.intr.ObjectProto, length*kind.ElementSize(), false)
	ta := object.NewTypedArray(proto, buf, kind, 0, length)
	m.Heap().Alloc(buf)
	m.Heap().Alloc(ta)
	return ta, nil
}

// installAtomics registers the Atomics namespace: sequentially-consistent
// read-modify-write on (shared) typed arrays, plus wait/notify gated by the
// host's can_block opt-in.
func (r *Realm) installAtomics() {
	atomics := r.m.NewPlainObject()

	access := func(m *vm.Machine, args []value.Value) (*object.Object, *object.TypedArrayData, int, error) {
		td, err := typedArrayData(m, arg(args, 0))
		if err != nil {
			return nil, nil, 0, err
		}
		idxF, err := value.ToIntegerOrInfinity(m, arg(args, 1))
		if err != nil {
			return nil, nil, 0, err
		}
		idx := int(idxF)
		if idx < 0 || idx >= td.Length {
			return nil, nil, 0, m.ThrowRangeError("Atomics access index out of range")
		}
		return args[0].AsObject().(*object.Object), td, idx, nil
	}

	rmw := func(name string, apply func(old, operand float64) float64) {
		r.method(atomics, name, 3, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			ta, _, idx, err := access(m, args)
			if err != nil {
				return value.Undef, err
			}
			operand, err := value.ToNumber(m, arg(args, 2))
			if err != nil {
				return value.Undef, err
			}
			atomicsMu.Lock()
			defer atomicsMu.Unlock()
			oldV, _ := object.TypedArrayReadIndex(ta, idx)
			old := oldV.AsFloat64()
			object.TypedArrayWriteIndex(ta, idx, apply(old, operand))
			return value.NumberValue(old), nil
		})
	}
	rmw("add", func(old, v float64) float64 { return float64(int64(old) + int64(v)) })
	rmw("sub", func(old, v float64) float64 { return float64(int64(old) - int64(v)) })
	rmw("and", func(old, v float64) float64 { return float64(int64(old) & int64(v)) })
	rmw("or", func(old, v float64) float64 { return float64(int64(old) | int64(v)) })
	rmw("xor", func(old, v float64) float64 { return float64(int64(old) ^ int64(v)) })
	rmw("exchange", func(_, v float64) float64 { return v })

	r.method(atomics, "load", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		ta, _, idx, err := access(m, args)
		if err != nil {
			return value.Undef, err
		}
		atomicsMu.Lock()
		defer atomicsMu.Unlock()
		v, _ := object.TypedArrayReadIndex(ta, idx)
		return v, nil
	})
	r.method(atomics, "store", 3, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		ta, _, idx, err := access(m, args)
		if err != nil {
			return value.Undef, err
		}
		n, err := value.ToNumber(m, arg(args, 2))
		if err != nil {
			return value.Undef, err
		}
		atomicsMu.Lock()
		object.TypedArrayWriteIndex(ta, idx, n)
		atomicsMu.Unlock()
		return value.NumberValue(n), nil
	})
	r.method(atomics, "compareExchange", 4, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		ta, _, idx, err := access(m, args)
		if err != nil {
			return value.Undef, err
		}
		expected, err := value.ToNumber(m, arg(args, 2))
		if err != nil {
			return value.Undef, err
		}
		replacement, err := value.ToNumber(m, arg(args, 3))
		if err != nil {
			return value.Undef, err
		}
		atomicsMu.Lock()
		defer atomicsMu.Unlock()
		oldV, _ := object.TypedArrayReadIndex(ta, idx)
		if oldV.AsFloat64() == expected {
			object.TypedArrayWriteIndex(ta, idx, replacement)
		}
		return oldV, nil
	})
	r.method(atomics, "isLockFree", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		n, err := value.ToIntegerOrInfinity(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		switch int(n) {
		case 1, 2, 4, 8:
			return value.True, nil
		}
		return value.False, nil
	})

	r.method(atomics, "wait", 4, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		if !m.CanBlock() {
			return value.Undef, m.ThrowTypeError("Atomics.wait cannot block on this agent")
		}
		ta, td, idx, err := access(m, args)
		if err != nil {
			return value.Undef, err
		}
		bd := td.Buffer.Data().(*object.ArrayBufferData)
		if !bd.Shared {
			return value.Undef, m.ThrowTypeError("Atomics.wait requires a SharedArrayBuffer view")
		}
		expected, err := value.ToNumber(m, arg(args, 2))
		if err != nil {
			return value.Undef, err
		}
		timeout := time.Duration(-1)
		if tv := arg(args, 3); !tv.IsUndefined() {
			ms, err := value.ToNumber(m, tv)
			if err != nil {
				return value.Undef, err
			}
			if ms >= 0 {
				timeout = time.Duration(ms * float64(time.Millisecond))
			}
		}

		key := futexKey{buf: bd, off: td.ByteOffset + idx*td.ElemKind.ElementSize()}
		atomicsMu.Lock()
		cur, _ := object.TypedArrayReadIndex(ta, idx)
		if cur.AsFloat64() != expected {
			atomicsMu.Unlock()
			return value.NewString("not-equal"), nil
		}
		ch := make(chan struct{})
		futexTable.mu.Lock()
		futexTable.waiters[key] = append(futexTable.waiters[key], ch)
		futexTable.mu.Unlock()
		atomicsMu.Unlock()

		if timeout < 0 {
			<-ch
			return value.NewString("ok"), nil
		}
		select {
		case <-ch:
			return value.NewString("ok"), nil
		case <-time.After(timeout):
			futexTable.mu.Lock()
			ws := futexTable.waiters[key]
			for i, w := range ws {
				if w == ch {
					futexTable.waiters[key] = append(ws[:i], ws[i+1:]...)
					break
				}
			}
			futexTable.mu.Unlock()
			return value.NewString("timed-out"), nil
		}
	})
	r.method(atomics, "notify", 3, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		_, td, idx, err := access(m, args)
		if err != nil {
			return value.Undef, err
		}
		bd := td.Buffer.Data().(*object.ArrayBufferData)
		count := -1
		if cv := arg(args, 2); !cv.IsUndefined() {
			cf, err := value.ToIntegerOrInfinity(m, cv)
			if err != nil {
				return value.Undef, err
			}
			if cf >= 0 {
				count = int(cf)
			}
		}
		key := futexKey{buf: bd, off: td.ByteOffset + idx*td.ElemKind.ElementSize()}
		futexTable.mu.Lock()
		ws := futexTable.waiters[key]
		woken := 0
		for len(ws) > 0 && (count < 0 || woken < count) {
			close(ws[0])
			ws = ws[1:]
			woken++
		}
		futexTable.waiters[key] = ws
		futexTable.mu.Unlock()
		return value.NewInt32(int32(woken)), nil
	})

	def(r.global, "Atomics", value.NewObject(atomics))
}

func (r *Realm) installDataView() {
	proto := object.New(r.intr.ObjectProto)
	r.ctor("DataView", 1, proto,
		func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
			return value.Undef, m.ThrowTypeError("Constructor DataView requires 'new'")
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			bufV := arg(args, 0)
			bo, err := asObject(m, bufV)
			if err != nil {
				return nil, err
			}
			bd, ok := bo.Data().(*object.ArrayBufferData)
			if !ok {
				return nil, m.ThrowTypeError("First argument to DataView constructor must be an ArrayBuffer")
			}
			offF, err := value.ToIntegerOrInfinity(m, arg(args, 1))
			if err != nil {
				return nil, err
			}
			off := int(offF)
			if off < 0 || off > len(bd.Bytes) {
				return nil, m.ThrowRangeError("Start offset is outside the bounds of the buffer")
			}
			length := len(bd.Bytes) - off
			if lv := arg(args, 2); !lv.IsUndefined() {
				lf, err := value.ToIntegerOrInfinity(m, lv)
				if err != nil {
					return nil, err
				}
				if int(lf) < 0 || off+int(lf) > len(bd.Bytes) {
					return nil, m.ThrowRangeError("Invalid DataView length")
				}
				length = int(lf)
			}
			dv := object.New(proto)
			dv.SetKind(object.KindDataView, dv.Methods())
			dv.SetData(&object.TypedArrayData{Buffer: bo, ElemKind: object.Uint8Array, ByteOffset: off, Length: length})
			m.Heap().Alloc(dv)
			return dv, nil
		})

	dataViewGetSet := func(name string, kind object.TypedArrayKind) {
		size := kind.ElementSize()
		r.method(proto, "get"+name, 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			td, err := dataViewData(m, this)
			if err != nil {
				return value.Undef, err
			}
			offF, err := value.ToIntegerOrInfinity(m, arg(args, 0))
			if err != nil {
				return value.Undef, err
			}
			off := int(offF)
			if off < 0 || off+size > td.Length {
				return value.Undef, m.ThrowRangeError("Offset is outside the bounds of the DataView")
			}
			view := object.NewTypedArray(r.intr.ObjectProto, td.Buffer, kind, td.ByteOffset+off, 1)
			v, _ := object.TypedArrayReadIndex(view, 0)
			return v, nil
		})
		r.method(proto, "set"+name, 2, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			td, err := dataViewData(m, this)
			if err != nil {
				return value.Undef, err
			}
			offF, err := value.ToIntegerOrInfinity(m, arg(args, 0))
			if err != nil {
				return value.Undef, err
			}
			off := int(offF)
			if off < 0 || off+size > td.Length {
				return value.Undef, m.ThrowRangeError("Offset is outside the bounds of the DataView")
			}
			n, err := value.ToNumber(m, arg(args, 1))
			if err != nil {
				return value.Undef, err
			}
			view := object.NewTypedArray(r.intr.ObjectProto, td.Buffer, kind, td.ByteOffset+off, 1)
			object.TypedArrayWriteIndex(view, 0, n)
			return value.Undef, nil
		})
	}
	dataViewGetSet("Int8", object.Int8Array)
	dataViewGetSet("Uint8", object.Uint8Array)
	dataViewGetSet("Int16", object.Int16Array)
	dataViewGetSet("Uint16", object.Uint16Array)
	dataViewGetSet("Int32", object.Int32Array)
	dataViewGetSet("Uint32", object.Uint32Array)
	dataViewGetSet("Float32", object.Float32Array)
	dataViewGetSet("Float64", object.Float64Array)
}

func dataViewData(m *vm.Machine, this value.Value) (*object.TypedArrayData, error) {
	if this.IsObject() {
		if o, ok := this.AsObject().(*object.Object); ok && o.Kind() == object.KindDataView {
			return o.Data().(*object.TypedArrayData), nil
		}
	}
	return nil, m.ThrowTypeError("receiver is not a DataView")
}
