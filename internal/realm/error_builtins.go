package realm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// installErrors registers the Error constructor family. Each prototype
// carries name/message defaults and toString renders "Kind: message".
func (r *Realm) installErrors() {
	base := r.intr.ErrorProtos[vm.ErrError]
	def(base, "name", value.NewString("Error"))
	def(base, "message", value.NewString(""))
	r.method(base, "toString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		o, err := thisObject(m, this)
		if err != nil {
			return value.Undef, err
		}
		nameV, err := m.GetPropertyValue(this, object.StringKey("name"))
		if err != nil {
			return value.Undef, err
		}
		name := "Error"
		if !nameV.IsUndefined() {
			name, err = value.ToStringValue(m, nameV)
			if err != nil {
				return value.Undef, err
			}
		}
		msgV, err := o.Methods().Get(o, m, object.StringKey("message"), this)
		if err != nil {
			return value.Undef, err
		}
		msg := ""
		if !msgV.IsUndefined() {
			msg, err = value.ToStringValue(m, msgV)
			if err != nil {
				return value.Undef, err
			}
		}
		switch {
		case msg == "":
			return value.NewString(name), nil
		case name == "":
			return value.NewString(msg), nil
		default:
			return value.NewString(name + ": " + msg), nil
		}
	})

	for kind := vm.ErrError; kind <= vm.ErrAggregate; kind++ {
		r.installErrorKind(kind)
	}
}

func (r *Realm) installErrorKind(kind vm.ErrorKind) {
	proto := r.intr.ErrorProtos[kind]
	name := kind.String()
	if kind != vm.ErrError {
		def(proto, "name", value.NewString(name))
		def(proto, "message", value.NewString(""))
	}
	construct := func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
		msg := ""
		if mv := arg(args, 0); !mv.IsUndefined() {
			var err error
			msg, err = value.ToStringValue(m, mv)
			if err != nil {
				return nil, err
			}
		}
		o := object.NewErrorObject(proto, &object.ErrorData{Name: name, Message: msg})
		if msg != "" {
			def(o, "message", value.NewString(msg))
		}
		m.Heap().Alloc(o)
		return o, nil
	}
	r.ctor(name, 1, proto,
		func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			o, err := construct(m, args, nil)
			if err != nil {
				return value.Undef, err
			}
			return value.NewObject(o), nil
		},
		construct)
}
