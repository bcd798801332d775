package realm

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// installJSON registers the JSON intrinsic.
func (r *Realm) installJSON() {
	jsonObj := r.m.NewPlainObject()

	r.method(jsonObj, "parse", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		text, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		if !gjson.Valid(text) {
			return value.Undef, NewSyntaxError(m, "Unexpected token in JSON")
		}
		return r.jsonToValue(m, gjson.Parse(text)), nil
	})

	r.method(jsonObj, "stringify", 3, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		doc, ok, err := r.valueToJSON(m, arg(args, 0), make(map[*object.Object]bool))
		if err != nil {
			return value.Undef, err
		}
		if !ok {
			return value.Undef, nil
		}
		return value.NewString(doc), nil
	})

	def(r.global, "JSON", value.NewObject(jsonObj))
}

// jsonToValue converts a parsed gjson node into engine values.
func (r *Realm) jsonToValue(m *vm.Machine, res gjson.Result) value.Value {
	switch {
	case res.IsObject():
		o := m.NewPlainObject()
		res.ForEach(func(k, v gjson.Result) bool {
			o.DefineOwnPropertyRaw(object.StringKey(k.String()), object.PropertyDescriptor{
				Value: r.jsonToValue(m, v), Writable: true, Enumerable: true, Configurable: true,
			})
			return true
		})
		return value.NewObject(o)
	case res.IsArray():
		arr := m.NewArrayObject()
		res.ForEach(func(_, v gjson.Result) bool {
			appendToArray(m, arr, r.jsonToValue(m, v))
			return true
		})
		return value.NewObject(arr)
	}
	switch res.Type {
	case gjson.Null:
		return value.Nil
	case gjson.True:
		return value.True
	case gjson.False:
		return value.False
	case gjson.Number:
		return value.NumberValue(res.Num)
	case gjson.String:
		return value.NewString(res.Str)
	default:
		return value.Undef
	}
}

// valueToJSON serializes v to raw JSON text; ok=false means the value is
// not serializable (undefined, functions, symbols) and must be dropped or
// rendered as null depending on position.
func (r *Realm) valueToJSON(m *vm.Machine, v value.Value, seen map[*object.Object]bool) (string, bool, error) {
	switch v.Kind() {
	case value.Undefined, value.SymbolKind:
		return "", false, nil
	case value.Null:
		return "null", true, nil
	case value.Bool:
		if v.AsBool() {
			return "true", true, nil
		}
		return "false", true, nil
	case value.Int32, value.Float64:
		f := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "null", true, nil
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true, nil
	case value.BigInt:
		return "", false, m.ThrowTypeError("Do not know how to serialize a BigInt")
	case value.String:
		return strconv.Quote(v.AsString()), true, nil
	}

	o, ok := v.AsObject().(*object.Object)
	if !ok {
		return "", false, nil
	}
	if o.IsCallableObject() {
		return "", false, nil
	}
	if seen[o] {
		return "", false, m.ThrowTypeError("Converting circular structure to JSON")
	}
	seen[o] = true
	defer delete(seen, o)

	// Boxed primitives serialize as their primitive value.
	if pv, has := o.Slot("PrimitiveValue"); has {
		return r.valueToJSON(m, pv, seen)
	}
	// Respect a toJSON method (Date and host classes use it).
	if toJSON, err := m.GetPropertyValue(v, object.StringKey("toJSON")); err == nil && toJSON.IsCallable() {
		res, err := m.CallValue(toJSON, v, nil)
		if err != nil {
			return "", false, err
		}
		return r.valueToJSON(m, res, seen)
	}

	if o.Kind() == object.KindArray {
		doc := "[]"
		n := object.ArrayLength(o)
		for i := uint32(0); i < n; i++ {
			el, err := m.GetPropertyValue(v, object.IndexKey(i))
			if err != nil {
				return "", false, err
			}
			raw, ok, err := r.valueToJSON(m, el, seen)
			if err != nil {
				return "", false, err
			}
			if !ok {
				raw = "null"
			}
			doc, err = sjson.SetRaw(doc, "-1", raw)
			if err != nil {
				return "", false, err
			}
		}
		return doc, true, nil
	}

	doc := "{}"
	for _, key := range o.Methods().OwnPropertyKeys(o) {
		if key.IsSymbol() {
			continue
		}
		desc, has := o.Methods().GetOwnProperty(o, key)
		if !has || !desc.Enumerable {
			continue
		}
		pv, err := o.Methods().Get(o, m, key, v)
		if err != nil {
			return "", false, err
		}
		raw, ok, err := r.valueToJSON(m, pv, seen)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}
		doc, err = sjson.SetRaw(doc, escapeSJSONPath(key.String()), raw)
		if err != nil {
			return "", false, err
		}
	}
	return doc, true, nil
}

// escapeSJSONPath protects path metacharacters in a property name so it is
// treated as a single literal key.
func escapeSJSONPath(key string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`, ":", `\:`)
	return replacer.Replace(key)
}
