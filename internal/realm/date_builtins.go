package realm

import (
	"time"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// installDate registers a minimal Date: epoch-millisecond storage with
// now/getTime/valueOf/toISOString; calendar arithmetic beyond that is
// built-in-library surface outside the core.
func (r *Realm) installDate() {
	proto := object.New(r.intr.ObjectProto)

	dateCtor := r.ctor("Date", 7, proto,
		func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
			return value.NewString(time.Now().UTC().Format(time.RFC1123)), nil
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			millis := float64(time.Now().UnixMilli())
			if len(args) == 1 {
				var err error
				millis, err = value.ToNumber(m, args[0])
				if err != nil {
					return nil, err
				}
			}
			d := object.NewDateObject(proto, millis)
			m.Heap().Alloc(d)
			return d, nil
		})

	r.method(dateCtor, "now", 0, func(_ *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
		return value.NewFloat64(float64(time.Now().UnixMilli())), nil
	})

	dateData := func(m *vm.Machine, this value.Value) (*object.DateData, error) {
		if this.IsObject() {
			if o, ok := this.AsObject().(*object.Object); ok && o.Kind() == object.KindDate {
				return o.Data().(*object.DateData), nil
			}
		}
		return nil, m.ThrowTypeError("receiver is not a Date")
	}

	r.method(proto, "getTime", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		dd, err := dateData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NumberValue(dd.EpochMillis), nil
	})
	r.method(proto, "valueOf", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		dd, err := dateData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NumberValue(dd.EpochMillis), nil
	})
	r.method(proto, "toISOString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		dd, err := dateData(m, this)
		if err != nil {
			return value.Undef, err
		}
		t := time.UnixMilli(int64(dd.EpochMillis)).UTC()
		return value.NewString(t.Format("2006-01-02T15:04:05.000Z")), nil
	})
	r.method(proto, "toJSON", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		iso, err := m.GetPropertyValue(this, object.StringKey("toISOString"))
		if err != nil {
			return value.Undef, err
		}
		return m.CallValue(iso, this, nil)
	})
	r.method(proto, "toString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		dd, err := dateData(m, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewString(time.UnixMilli(int64(dd.EpochMillis)).UTC().Format(time.RFC1123)), nil
	})
}
