package object

import (
	"math"

	"github.com/go-jsvm/jsvm/internal/value"
)

// ArrayBufferData backs KindArrayBuffer and KindSharedArrayBuffer objects:
// a raw byte store plus a detached flag (ECMA-262's ArrayBuffer [[ArrayBufferData]]
// and [[ArrayBufferByteLength]] slots).
type ArrayBufferData struct {
	Bytes    []byte
	Detached bool
	Shared   bool
}

// NewArrayBuffer allocates a zero-filled buffer of the given byte length.
func NewArrayBuffer(proto *Object, length int, shared bool) *Object {
	o := New(proto)
	o.kind = KindArrayBuffer
	if shared {
		o.kind = KindSharedArrayBuffer
	}
	o.data = &ArrayBufferData{Bytes: make([]byte, length), Shared: shared}
	return o
}

// TypedArrayKind identifies the element type of a TypedArray view.
type TypedArrayKind int

const (
	Int8Array TypedArrayKind = iota
	Uint8Array
	Uint8ClampedArray
	Int16Array
	Uint16Array
	Int32Array
	Uint32Array
	Float32Array
	Float64Array
	BigInt64Array
	BigUint64Array
)

// ElementSize returns the byte width of one element of the given kind.
func (k TypedArrayKind) ElementSize() int {
	switch k {
	case Int8Array, Uint8Array, Uint8ClampedArray:
		return 1
	case Int16Array, Uint16Array:
		return 2
	case Int32Array, Uint32Array, Float32Array:
		return 4
	default:
		return 8
	}
}

// TypedArrayData is the kind-specific payload for KindTypedArray: a view
// over an ArrayBuffer with a byte offset and element length.
type TypedArrayData struct {
	Buffer     *Object // KindArrayBuffer/KindSharedArrayBuffer
	ElemKind   TypedArrayKind
	ByteOffset int
	Length     int // element count
}

// NewTypedArray builds a TypedArray exotic object viewing buffer. Integer-
// indexed reads and writes translate to aligned buffer access; out-of-range
// indices read undefined and silently drop writes.
func NewTypedArray(proto *Object, buffer *Object, elemKind TypedArrayKind, byteOffset, length int) *Object {
	o := New(proto)
	o.kind = KindTypedArray
	o.data = &TypedArrayData{Buffer: buffer, ElemKind: elemKind, ByteOffset: byteOffset, Length: length}
	m := *OrdinaryMethods()
	m.GetOwnProperty = func(obj *Object, key PropertyKey) (PropertyDescriptor, bool) {
		if key.IsIndex() {
			if v, ok := typedArrayGet(obj, int(key.Index())); ok {
				return PropertyDescriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}, true
			}
			return PropertyDescriptor{}, false
		}
		return OrdinaryGetOwnProperty(obj, key)
	}
	m.Set = func(obj *Object, ctx Context, key PropertyKey, v value.Value, receiver value.Value) (bool, error) {
		if key.IsIndex() {
			return typedArraySet(obj, ctx, int(key.Index()), v)
		}
		return OrdinarySet(obj, ctx, key, v, receiver)
	}
	m.DefineOwnProperty = func(obj *Object, ctx Context, key PropertyKey, desc PropertyDescriptor) (bool, error) {
		if key.IsIndex() {
			return typedArraySet(obj, ctx, int(key.Index()), desc.Value)
		}
		return OrdinaryDefineOwnProperty(obj, ctx, key, desc)
	}
	o.methods = &m
	return o
}

// TypedArrayReadIndex is the exported element read used by the Atomics
// builtin and the TypedArray prototype.
func TypedArrayReadIndex(o *Object, index int) (value.Value, bool) {
	return typedArrayGet(o, index)
}

// TypedArrayWriteIndex stores an already-coerced numeric value at index.
func TypedArrayWriteIndex(o *Object, index int, n float64) bool {
	td, ok := o.data.(*TypedArrayData)
	if !ok || index < 0 || index >= td.Length {
		return false
	}
	buf := td.Buffer.data.(*ArrayBufferData)
	if buf.Detached {
		return false
	}
	off := td.ByteOffset + index*td.ElemKind.ElementSize()
	writeElement(buf.Bytes, off, td.ElemKind, n)
	return true
}

// typedArraySet writes a number, or a boolean as 0/1; any other value is
// not coerced and is dropped without storing. OOB writes likewise succeed
// silently without storing.
func typedArraySet(o *Object, ctx Context, index int, v value.Value) (bool, error) {
	f := v.AsFloat64()
	if !v.IsNumber() {
		if v.IsBool() {
			f = 0
			if v.AsBool() {
				f = 1
			}
		} else {
			return true, nil
		}
	}
	TypedArrayWriteIndex(o, index, f)
	return true, nil
}

func writeElement(bytes []byte, off int, kind TypedArrayKind, n float64) {
	size := kind.ElementSize()
	if off+size > len(bytes) {
		return
	}
	var u uint64
	switch kind {
	case Float32Array:
		u = uint64(math.Float32bits(float32(n)))
	case Float64Array:
		u = math.Float64bits(n)
	case Uint8ClampedArray:
		c := n
		if c < 0 {
			c = 0
		}
		if c > 255 {
			c = 255
		}
		u = uint64(int64(c + 0.5))
	default:
		u = uint64(int64(n))
	}
	for i := 0; i < size; i++ {
		bytes[off+i] = byte(u >> (8 * i))
	}
}

func typedArrayGet(o *Object, index int) (value.Value, bool) {
	td := o.data.(*TypedArrayData)
	if index < 0 || index >= td.Length {
		return value.Value{}, false
	}
	buf := td.Buffer.data.(*ArrayBufferData)
	if buf.Detached {
		return value.Value{}, false
	}
	off := td.ByteOffset + index*td.ElemKind.ElementSize()
	switch td.ElemKind {
	case Float32Array:
		bits := uint64(readElement(buf.Bytes, off, Uint32Array))
		return value.NumberValue(float64(math.Float32frombits(uint32(bits)))), true
	case Float64Array:
		bits := uint64(readElement(buf.Bytes, off, BigUint64Array))
		return value.NumberValue(math.Float64frombits(bits)), true
	default:
		return value.NumberValue(float64(readElement(buf.Bytes, off, td.ElemKind))), true
	}
}

func readElement(bytes []byte, off int, kind TypedArrayKind) int64 {
	size := kind.ElementSize()
	if off+size > len(bytes) {
		return 0
	}
	var u uint64
	for i := 0; i < size; i++ {
		u |= uint64(bytes[off+i]) << (8 * i)
	}
	switch kind {
	case Int8Array:
		return int64(int8(u))
	case Int16Array:
		return int64(int16(u))
	case Int32Array:
		return int64(int32(u))
	default:
		return int64(u)
	}
}
