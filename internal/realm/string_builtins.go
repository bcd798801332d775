package realm

import (
	"strings"

	"github.com/go-jsvm/jsvm/internal/jsstring"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// installString registers the String constructor and prototype.
func (r *Realm) installString() {
	proto := r.intr.StringProto

	stringCtor := r.ctor("String", 1, proto,
		func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.NewString(""), nil
			}
			if args[0].IsSymbol() {
				return value.NewString("Symbol(" + args[0].AsSymbol().Description + ")"), nil
			}
			s, err := value.ToStringValue(m, args[0])
			if err != nil {
				return value.Undef, err
			}
			return value.NewString(s), nil
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			s := ""
			if len(args) > 0 {
				var err error
				s, err = value.ToStringValue(m, args[0])
				if err != nil {
					return nil, err
				}
			}
			boxed, err := r.wrapPrimitive(value.NewString(s))
			if err != nil {
				return nil, err
			}
			return boxed.AsObject().(*object.Object), nil
		})

	r.method(stringCtor, "fromCharCode", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		units := make([]uint16, len(args))
		for i, a := range args {
			n, err := value.ToUint32(m, a)
			if err != nil {
				return value.Undef, err
			}
			units[i] = uint16(n)
		}
		return value.NewString(jsstring.FromUTF16(units)), nil
	})
	r.method(stringCtor, "fromCodePoint", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		var sb strings.Builder
		for _, a := range args {
			n, err := value.ToUint32(m, a)
			if err != nil {
				return value.Undef, err
			}
			sb.WriteRune(rune(n))
		}
		return value.NewString(sb.String()), nil
	})

	// strMethod resolves the primitive receiver once and passes it on.
	strMethod := func(name string, length int, f func(m *vm.Machine, s string, args []value.Value) (value.Value, error)) {
		r.method(proto, name, length, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			s, err := thisString(m, this)
			if err != nil {
				return value.Undef, err
			}
			return f(m, s, args)
		})
	}

	strMethod("charAt", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		i, err := value.ToIntegerOrInfinity(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewString(jsstring.CharAt(s, int(i))), nil
	})
	strMethod("charCodeAt", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		i, err := value.ToIntegerOrInfinity(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		units := jsstring.ToUTF16(s)
		if int(i) < 0 || int(i) >= len(units) {
			return value.NewFloat64(nan()), nil
		}
		return value.NewInt32(int32(units[int(i)])), nil
	})
	strMethod("codePointAt", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		i, err := value.ToIntegerOrInfinity(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		if cp, ok := jsstring.CodePointAt(s, int(i)); ok {
			return value.NumberValue(float64(cp)), nil
		}
		return value.Undef, nil
	})
	strMethod("indexOf", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		needle, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewInt32(int32(utf16Index(s, needle))), nil
	})
	strMethod("lastIndexOf", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		needle, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		byteIdx := strings.LastIndex(s, needle)
		if byteIdx < 0 {
			return value.NewInt32(-1), nil
		}
		return value.NewInt32(int32(jsstring.Length(s[:byteIdx]))), nil
	})
	strMethod("includes", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		needle, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(strings.Contains(s, needle)), nil
	})
	strMethod("startsWith", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		needle, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(strings.HasPrefix(s, needle)), nil
	})
	strMethod("endsWith", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		needle, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(strings.HasSuffix(s, needle)), nil
	})
	sliceImpl := func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		n := jsstring.Length(s)
		start, end, err := sliceBounds(m, args, n)
		if err != nil {
			return value.Undef, err
		}
		return value.NewString(jsstring.Slice(s, start, end)), nil
	}
	strMethod("slice", 2, sliceImpl)
	strMethod("substring", 2, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		n := jsstring.Length(s)
		clamp := func(v value.Value, dflt int) (int, error) {
			if v.IsUndefined() {
				return dflt, nil
			}
			f, err := value.ToIntegerOrInfinity(m, v)
			if err != nil {
				return 0, err
			}
			i := int(f)
			if i < 0 {
				i = 0
			}
			if i > n {
				i = n
			}
			return i, nil
		}
		a, err := clamp(arg(args, 0), 0)
		if err != nil {
			return value.Undef, err
		}
		b, err := clamp(arg(args, 1), n)
		if err != nil {
			return value.Undef, err
		}
		if a > b {
			a, b = b, a
		}
		return value.NewString(jsstring.Slice(s, a, b)), nil
	})
	strMethod("toUpperCase", 0, func(_ *vm.Machine, s string, _ []value.Value) (value.Value, error) {
		return value.NewString(strings.ToUpper(s)), nil
	})
	strMethod("toLowerCase", 0, func(_ *vm.Machine, s string, _ []value.Value) (value.Value, error) {
		return value.NewString(strings.ToLower(s)), nil
	})
	strMethod("trim", 0, func(_ *vm.Machine, s string, _ []value.Value) (value.Value, error) {
		return value.NewString(strings.TrimSpace(s)), nil
	})
	strMethod("repeat", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		n, err := value.ToIntegerOrInfinity(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		if n < 0 || n > 1<<24 {
			return value.Undef, m.ThrowRangeError("Invalid count value")
		}
		return value.NewString(strings.Repeat(s, int(n))), nil
	})
	strMethod("padStart", 2, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		return padString(m, s, args, true)
	})
	strMethod("padEnd", 2, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		return padString(m, s, args, false)
	})
	strMethod("split", 2, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		sepV := arg(args, 0)
		if sepV.IsUndefined() {
			return value.NewObject(m.NewArrayOf(value.NewString(s))), nil
		}
		sep, err := value.ToStringValue(m, sepV)
		if err != nil {
			return value.Undef, err
		}
		var parts []string
		if sep == "" {
			units := jsstring.ToUTF16(s)
			for _, u := range units {
				parts = append(parts, jsstring.FromUTF16([]uint16{u}))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		vals := make([]value.Value, len(parts))
		for i, p := range parts {
			vals[i] = value.NewString(p)
		}
		return value.NewObject(m.NewArrayOf(vals...)), nil
	})
	strMethod("replace", 2, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		pat, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		rep, err := value.ToStringValue(m, arg(args, 1))
		if err != nil {
			return value.Undef, err
		}
		return value.NewString(strings.Replace(s, pat, rep, 1)), nil
	})
	strMethod("replaceAll", 2, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		pat, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		rep, err := value.ToStringValue(m, arg(args, 1))
		if err != nil {
			return value.Undef, err
		}
		return value.NewString(strings.ReplaceAll(s, pat, rep)), nil
	})
	strMethod("concat", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		var sb strings.Builder
		sb.WriteString(s)
		for _, a := range args {
			part, err := value.ToStringValue(m, a)
			if err != nil {
				return value.Undef, err
			}
			sb.WriteString(part)
		}
		return value.NewString(sb.String()), nil
	})
	strMethod("at", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		i, err := value.ToIntegerOrInfinity(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		n := jsstring.Length(s)
		idx := int(i)
		if idx < 0 {
			idx += n
		}
		if idx < 0 || idx >= n {
			return value.Undef, nil
		}
		return value.NewString(jsstring.CharAt(s, idx)), nil
	})
	strMethod("normalize", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		form := jsstring.NFC
		if fv := arg(args, 0); !fv.IsUndefined() {
			fs, err := value.ToStringValue(m, fv)
			if err != nil {
				return value.Undef, err
			}
			switch fs {
			case "NFC":
				form = jsstring.NFC
			case "NFD":
				form = jsstring.NFD
			case "NFKC":
				form = jsstring.NFKC
			case "NFKD":
				form = jsstring.NFKD
			default:
				return value.Undef, m.ThrowRangeError("The normalization form should be one of NFC, NFD, NFKC, NFKD")
			}
		}
		return value.NewString(jsstring.Normalize(s, form)), nil
	})
	strMethod("localeCompare", 1, func(m *vm.Machine, s string, args []value.Value) (value.Value, error) {
		other, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		locale := "und"
		if lv := arg(args, 1); !lv.IsUndefined() {
			locale, err = value.ToStringValue(m, lv)
			if err != nil {
				return value.Undef, err
			}
		}
		return value.NewInt32(int32(jsstring.LocaleCompare(s, other, locale))), nil
	})
	strMethod("toString", 0, func(_ *vm.Machine, s string, _ []value.Value) (value.Value, error) {
		return value.NewString(s), nil
	})
	strMethod("valueOf", 0, func(_ *vm.Machine, s string, _ []value.Value) (value.Value, error) {
		return value.NewString(s), nil
	})

	// String iteration walks code points, not code units.
	defSym(proto, r.intr.SymbolIterator, value.NewObject(r.m.NewNativeFunction("[Symbol.iterator]", 0,
		func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
			s, err := thisString(m, this)
			if err != nil {
				return value.Undef, err
			}
			runes := []rune(s)
			i := 0
			return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
				if i >= len(runes) {
					return value.Undef, true
				}
				v := value.NewString(string(runes[i]))
				i++
				return v, false
			})), nil
		})))
}

func thisString(m *vm.Machine, this value.Value) (string, error) {
	if pv, ok := primitiveOf(this, value.String); ok && pv.IsString() {
		return pv.AsString(), nil
	}
	return value.ToStringValue(m, this)
}

// utf16Index returns the UTF-16 code-unit index of needle in s, or -1.
func utf16Index(s, needle string) int {
	byteIdx := strings.Index(s, needle)
	if byteIdx < 0 {
		return -1
	}
	return jsstring.Length(s[:byteIdx])
}

func padString(m *vm.Machine, s string, args []value.Value, start bool) (value.Value, error) {
	targetF, err := value.ToIntegerOrInfinity(m, arg(args, 0))
	if err != nil {
		return value.Undef, err
	}
	target := int(targetF)
	n := jsstring.Length(s)
	if target <= n {
		return value.NewString(s), nil
	}
	fill := " "
	if fv := arg(args, 1); !fv.IsUndefined() {
		fill, err = value.ToStringValue(m, fv)
		if err != nil {
			return value.Undef, err
		}
		if fill == "" {
			return value.NewString(s), nil
		}
	}
	var sb strings.Builder
	for jsstring.Length(sb.String()) < target-n {
		sb.WriteString(fill)
	}
	pad := jsstring.Slice(sb.String(), 0, target-n)
	if start {
		return value.NewString(pad + s), nil
	}
	return value.NewString(s + pad), nil
}
