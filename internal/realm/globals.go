package realm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// installGlobals registers the value-like globals, the numeric parsing
// functions, and console.
func (r *Realm) installGlobals() {
	defConst(r.global, "undefined", value.Undef)
	defConst(r.global, "NaN", value.NewFloat64(math.NaN()))
	defConst(r.global, "Infinity", value.NewFloat64(math.Inf(1)))
	def(r.global, "globalThis", value.NewObject(r.global))

	r.method(r.global, "parseInt", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		s, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		radix := 10
		if rv := arg(args, 1); !rv.IsUndefined() {
			n, err := value.ToInt32(m, rv)
			if err != nil {
				return value.Undef, err
			}
			if n != 0 {
				radix = int(n)
			}
		}
		return parseIntStr(s, radix), nil
	})
	r.method(r.global, "parseFloat", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		s, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return parseFloatStr(s), nil
	})
	r.method(r.global, "isNaN", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		n, err := value.ToNumber(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(math.IsNaN(n)), nil
	})
	r.method(r.global, "isFinite", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		n, err := value.ToNumber(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	console := r.m.NewPlainObject()
	logFn := func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = r.display(a)
		}
		fmt.Fprintln(r.stdout, strings.Join(parts, " "))
		return value.Undef, nil
	}
	r.method(console, "log", 0, logFn)
	r.method(console, "error", 0, logFn)
	r.method(console, "warn", 0, logFn)
	r.method(console, "info", 0, logFn)
	def(r.global, "console", value.NewObject(console))
}

// display renders a value for console output without running user code
// for plain objects/arrays (a shallow, cycle-safe rendering).
func (r *Realm) display(v value.Value) string {
	if v.IsString() {
		return v.AsString()
	}
	if v.IsObject() {
		if o, ok := v.AsObject().(*object.Object); ok {
			switch o.Kind() {
			case object.KindArray:
				n := object.ArrayLength(o)
				parts := make([]string, 0, n)
				for i := uint32(0); i < n && i < 64; i++ {
					if d, ok := o.GetOwnPropertyRaw(object.IndexKey(i)); ok {
						parts = append(parts, displayShallow(d.Value))
					} else {
						parts = append(parts, "<empty>")
					}
				}
				return "[ " + strings.Join(parts, ", ") + " ]"
			case object.KindError:
				if ed, ok := o.Data().(*object.ErrorData); ok {
					return ed.Name + ": " + ed.Message
				}
			case object.KindFunction, object.KindBoundFunction:
				return "[Function]"
			}
			var parts []string
			for _, k := range o.OwnKeysRaw() {
				if d, ok := o.GetOwnPropertyRaw(k); ok && d.Enumerable && !d.IsAccessor {
					parts = append(parts, k.String()+": "+displayShallow(d.Value))
				}
			}
			return "{ " + strings.Join(parts, ", ") + " }"
		}
	}
	return v.String()
}

func displayShallow(v value.Value) string {
	if v.IsObject() {
		if o, ok := v.AsObject().(*object.Object); ok {
			return "[" + o.Kind().String() + "]"
		}
	}
	return v.String()
}

func parseIntStr(s string, radix int) value.Value {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	if radix == 16 || radix == 10 {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			radix = 16
		}
	}
	if radix < 2 || radix > 36 {
		return value.NewFloat64(math.NaN())
	}
	end := 0
	for end < len(s) {
		if _, err := strconv.ParseUint(s[end:end+1], radix, 8); err != nil {
			break
		}
		end++
	}
	if end == 0 {
		return value.NewFloat64(math.NaN())
	}
	n, err := strconv.ParseInt(s[:end], radix, 64)
	if err != nil {
		big, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return value.NewFloat64(math.NaN())
		}
		if neg {
			big = -big
		}
		return value.NewFloat64(big)
	}
	if neg {
		n = -n
	}
	return value.NumberValue(float64(n))
}

func parseFloatStr(s string) value.Value {
	s = strings.TrimSpace(s)
	end := len(s)
	for end > 0 {
		if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
			break
		}
		end--
	}
	if end == 0 {
		return value.NewFloat64(math.NaN())
	}
	f, _ := strconv.ParseFloat(s[:end], 64)
	return value.NewFloat64(f)
}
