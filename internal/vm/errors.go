package vm

import (
	"fmt"
	"strings"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// ErrorKind enumerates the native-error kinds.
type ErrorKind int

const (
	ErrError ErrorKind = iota
	ErrType
	ErrRange
	ErrReference
	ErrSyntax
	ErrURI
	ErrEval
	ErrAggregate
)

var errorKindNames = [...]string{
	"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError",
	"URIError", "EvalError", "AggregateError",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "Error"
}

// EngineError is the structured native-error record: a kind plus a
// message, carried as a Go error inside the engine and materialized as a JS
// Error object only when user code observes it.
type EngineError struct {
	Kind    ErrorKind
	Message string
}

func (e *EngineError) Error() string { return e.Kind.String() + ": " + e.Message }

// ThrownValue wraps a JS value raised by a `throw` statement so it can
// travel through Go error returns without losing its identity.
type ThrownValue struct {
	Value value.Value
}

func (t *ThrownValue) Error() string {
	return "uncaught exception: " + t.Value.String()
}

// NewError builds an EngineError of the given kind.
func NewError(kind ErrorKind, format string, args ...any) error {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Throw wraps a JS value as a Go error for propagation through the VM.
func Throw(v value.Value) error { return &ThrownValue{Value: v} }

// errorKindFromPrefix recovers the kind from errors formatted by packages
// below the VM (internal/environment, internal/bytecode), which spell their
// errors "TypeError: ..." / "ReferenceError: ..." without importing this
// package.
func errorKindFromPrefix(msg string) (ErrorKind, string, bool) {
	for k := ErrType; k <= ErrAggregate; k++ {
		prefix := k.String() + ": "
		if strings.HasPrefix(msg, prefix) {
			return k, msg[len(prefix):], true
		}
	}
	return ErrError, msg, false
}

// errorToValue materializes err as the JS value a catch clause observes: a
// ThrownValue passes its payload through; an EngineError (or a prefix-
// formatted error from a lower layer) becomes an Error object with the
// matching prototype and a message property.
func (m *Machine) errorToValue(err error) value.Value {
	switch e := err.(type) {
	case *ThrownValue:
		return e.Value
	case *EngineError:
		return value.NewObject(m.NewErrorObject(e.Kind, e.Message))
	default:
		kind, msg, _ := errorKindFromPrefix(err.Error())
		return value.NewObject(m.NewErrorObject(kind, msg))
	}
}

// NewErrorObject allocates a JS Error object of the given kind against the
// realm's error prototypes.
func (m *Machine) NewErrorObject(kind ErrorKind, message string) *object.Object {
	proto := m.intr.ErrorProtos[kind]
	if proto == nil {
		proto = m.intr.ErrorProtos[ErrError]
	}
	o := object.NewErrorObject(proto, &object.ErrorData{Name: kind.String(), Message: message})
	o.DefineOwnPropertyRaw(object.StringKey("message"), object.PropertyDescriptor{
		Value: value.NewString(message), Writable: true, Configurable: true,
	})
	m.track(o)
	return o
}

// ThrowTypeError implements the error-construction half of value.Context and
// object.Context.
func (m *Machine) ThrowTypeError(format string, args ...any) error {
	return NewError(ErrType, format, args...)
}

// ThrowRangeError implements the error-construction half of value.Context
// and object.Context.
func (m *Machine) ThrowRangeError(format string, args ...any) error {
	return NewError(ErrRange, format, args...)
}

// ThrowReferenceError builds a ReferenceError completion.
func (m *Machine) ThrowReferenceError(format string, args ...any) error {
	return NewError(ErrReference, format, args...)
}
