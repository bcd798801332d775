package object

import (
	"math"

	"github.com/go-jsvm/jsvm/internal/gc"
	"github.com/go-jsvm/jsvm/internal/value"
)

// mapEntry preserves insertion order for Map/Set iteration (ECMA-262
// requires insertion-ordered iteration over these collections).
type mapEntry struct {
	key   value.Value
	val   value.Value
	alive bool
}

// Key returns the entry's key.
func (e mapEntry) Key() value.Value { return e.key }

// Value returns the entry's value.
func (e mapEntry) Value() value.Value { return e.val }

// MapData is the kind-specific payload for KindMap (and KindWeakMap, which
// reuses the same shape but skips GC rooting of its keys; not modeled here
// since this collector has no separate weak-reference pass).
//
// locks is the iteration lock: while a forEach-style native iteration
// holds an index into entries, structural compaction is deferred so entry
// positions stay stable; tombstoned deletes remain safe under the lock.
type MapData struct {
	entries []mapEntry
	index   map[mapIdentity]int
	locks   int
}

type mapIdentity struct {
	kind value.Kind
	i    int32
	f    float64
	str  string
	obj  value.HeapObject
	sym  *value.Symbol
}

// identityOf builds the comparable key SameValueZero equality requires:
// Int32 and Float64 storage of the same number collapse to one key, NaN
// equals NaN (Go map float keys never match NaN, so it gets a marker),
// and +0/-0 already hash together.
func identityOf(v value.Value) mapIdentity {
	id := mapIdentity{kind: v.Kind()}
	switch v.Kind() {
	case value.Int32, value.Float64:
		id.kind = value.Float64
		f := v.AsFloat64()
		if math.IsNaN(f) {
			id.str = "NaN"
		} else {
			id.f = f
		}
	case value.BigInt:
		id.str = v.AsBigInt().String()
	case value.String:
		id.str = v.AsString()
	case value.ObjectKind:
		id.obj = v.AsObject()
	case value.SymbolKind:
		id.sym = v.AsSymbol()
	case value.Bool:
		if v.AsBool() {
			id.i = 1
		}
	}
	return id
}

// NewMapData creates empty Map backing storage.
func NewMapData() *MapData {
	return &MapData{index: make(map[mapIdentity]int)}
}

// Get implements Map.prototype.get's lookup.
func (m *MapData) Get(key value.Value) (value.Value, bool) {
	i, ok := m.index[identityOf(key)]
	if !ok || !m.entries[i].alive {
		return value.Undef, false
	}
	return m.entries[i].val, true
}

// Set inserts or overwrites key -> val, preserving original insertion
// position on overwrite (ECMA-262's Map.prototype.set).
func (m *MapData) Set(key, val value.Value) {
	id := identityOf(key)
	if i, ok := m.index[id]; ok && m.entries[i].alive {
		m.entries[i].val = val
		return
	}
	m.index[id] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, val: val, alive: true})
}

// Delete removes key, returning whether it was present. The entry is
// tombstoned; compaction waits until no iteration lock is held.
func (m *MapData) Delete(key value.Value) bool {
	id := identityOf(key)
	i, ok := m.index[id]
	if !ok || !m.entries[i].alive {
		return false
	}
	m.entries[i].alive = false
	delete(m.index, id)
	m.compact()
	return true
}

// Lock acquires the iteration lock; callers must pair it with Unlock on
// every exit path, including exceptions.
func (m *MapData) Lock() { m.locks++ }

// Unlock releases the iteration lock and runs any deferred compaction.
func (m *MapData) Unlock() {
	m.locks--
	m.compact()
}

// compact drops tombstones once it is safe to move entries.
func (m *MapData) compact() {
	if m.locks > 0 || len(m.entries) < 32 {
		return
	}
	live := 0
	for _, e := range m.entries {
		if e.alive {
			live++
		}
	}
	if live*2 > len(m.entries) {
		return
	}
	out := make([]mapEntry, 0, live)
	for _, e := range m.entries {
		if e.alive {
			m.index[identityOf(e.key)] = len(out)
			out = append(out, e)
		}
	}
	m.entries = out
}

// EntryAt returns the i'th slot for lock-scoped iteration; ok is false
// past the end, alive is false on a tombstone.
func (m *MapData) EntryAt(i int) (key, val value.Value, alive, ok bool) {
	if i >= len(m.entries) {
		return value.Undef, value.Undef, false, false
	}
	e := m.entries[i]
	return e.key, e.val, e.alive, true
}

// Size returns the number of live entries.
func (m *MapData) Size() int {
	n := 0
	for _, e := range m.entries {
		if e.alive {
			n++
		}
	}
	return n
}

// Entries returns live entries in insertion order, for iteration and for
// GC tracing.
func (m *MapData) Entries() []mapEntry {
	out := make([]mapEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.alive {
			out = append(out, e)
		}
	}
	return out
}

// Trace implements gc.Cell so a Map keeps its keys and values alive.
func (m *MapData) Trace(visit func(gc.Cell)) {
	for _, e := range m.entries {
		if !e.alive {
			continue
		}
		visitValue(visit, e.key)
		visitValue(visit, e.val)
	}
}

// NewMap builds a Map exotic object around a fresh MapData.
func NewMap(proto *Object) *Object {
	o := New(proto)
	o.kind = KindMap
	o.data = NewMapData()
	return o
}

// SetData is the kind-specific payload for KindSet, built on the same
// insertion-ordered table as MapData (keys double as values).
type SetData struct {
	m *MapData
}

// NewSetData creates empty Set backing storage.
func NewSetData() *SetData { return &SetData{m: NewMapData()} }

// Backing exposes the insertion-ordered table for iteration-lock-scoped
// walks (Set.prototype.forEach).
func (s *SetData) Backing() *MapData { return s.m }

// Trace implements gc.Cell by delegating to the backing map.
func (s *SetData) Trace(visit func(gc.Cell)) { s.m.Trace(visit) }

func (s *SetData) Add(v value.Value)         { s.m.Set(v, v) }
func (s *SetData) Has(v value.Value) bool    { _, ok := s.m.Get(v); return ok }
func (s *SetData) Delete(v value.Value) bool { return s.m.Delete(v) }
func (s *SetData) Size() int                 { return s.m.Size() }
func (s *SetData) Values() []value.Value {
	entries := s.m.Entries()
	out := make([]value.Value, len(entries))
	for i, e := range entries {
		out[i] = e.key
	}
	return out
}

// NewSet builds a Set exotic object around a fresh SetData.
func NewSet(proto *Object) *Object {
	o := New(proto)
	o.kind = KindSet
	o.data = NewSetData()
	return o
}
