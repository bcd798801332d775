package vm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// Intrinsics is the per-realm table of well-known prototypes, constructors,
// and symbols the VM's opcodes need. internal/realm populates it during
// realm construction and hands it to the Machine; the VM itself never
// creates intrinsics.
type Intrinsics struct {
	ObjectProto   *object.Object
	FunctionProto *object.Object
	ArrayProto    *object.Object
	StringProto   *object.Object
	NumberProto   *object.Object
	BooleanProto  *object.Object
	SymbolProto   *object.Object
	BigIntProto   *object.Object
	PromiseProto  *object.Object

	// GeneratorProto/AsyncGeneratorProto are the %GeneratorPrototype% objects
	// generator instances inherit from.
	GeneratorProto      *object.Object
	AsyncGeneratorProto *object.Object

	// IteratorProto backs the internal iterators the VM synthesizes for
	// for-in loops and argument spreading.
	IteratorProto *object.Object

	ErrorProtos [ErrAggregate + 1]*object.Object

	Global *object.Object

	// Well-known symbols.
	SymbolIterator      *value.Symbol
	SymbolAsyncIterator *value.Symbol
	SymbolToPrimitive   *value.Symbol
	SymbolHasInstance   *value.Symbol
	SymbolToStringTag   *value.Symbol
	SymbolUnscopables   *value.Symbol
}

// wellKnownSymbol resolves the "@@name" spellings value.Context uses for
// well-known symbol keys to the realm's symbol identities.
func (m *Machine) wellKnownSymbol(name string) *value.Symbol {
	switch name {
	case "@@iterator":
		return m.intr.SymbolIterator
	case "@@asyncIterator":
		return m.intr.SymbolAsyncIterator
	case "@@toPrimitive":
		return m.intr.SymbolToPrimitive
	case "@@hasInstance":
		return m.intr.SymbolHasInstance
	case "@@toStringTag":
		return m.intr.SymbolToStringTag
	case "@@unscopables":
		return m.intr.SymbolUnscopables
	default:
		return nil
	}
}

// keyForName maps a textual property name (possibly an "@@" well-known
// symbol spelling) to a PropertyKey.
func (m *Machine) keyForName(name string) object.PropertyKey {
	if len(name) > 2 && name[0] == '@' && name[1] == '@' {
		if sym := m.wellKnownSymbol(name); sym != nil {
			return object.SymbolKey(sym)
		}
	}
	return object.StringKey(name)
}
