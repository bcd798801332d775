package vm

import (
	"fmt"
	"strings"

	"github.com/go-jsvm/jsvm/internal/bytecode"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// suspendKind distinguishes the two suspension points: generator Yield and
// await.
type suspendKind int

const (
	suspendYield suspendKind = iota
	suspendAwait
)

// suspension is the out-of-band result a dispatch loop returns when the
// frame freezes at a Yield or Await; the generator/async machinery in
// generator.go owns saving and restoring the frame around it.
type suspension struct {
	kind suspendKind
	val  value.Value
}

// findHandler returns the innermost handler whose guarded region contains
// off: the one with the smallest End (regions nest, and a try's catch
// region is strictly inside its finally region, so minimal End prefers the
// catch), or nil.
func (m *Machine) findHandler(f *Frame, off int, finallyOnly bool) *bytecode.Handler {
	var best *bytecode.Handler
	for i := range f.block.Handlers {
		h := &f.block.Handlers[i]
		if finallyOnly && h.Kind != bytecode.HandlerFinally {
			continue
		}
		if uint32(off) < h.Start || uint32(off) >= h.End {
			continue
		}
		if best == nil || h.End < best.End || (h.End == best.End && h.Start > best.Start) {
			best = h
		}
	}
	return best
}

// restoreTo rewinds the operand stack and environment chain to the depths
// recorded at the handler's TryStart.
func (m *Machine) restoreTo(f *Frame, h *bytecode.Handler) {
	m.stack = m.stack[:f.base+h.StackDepth]
	for f.envDepth > h.EnvDepth {
		m.envs.Pop()
		f.envDepth--
	}
	f.env = m.envs.Top()
}

// raise routes a Throw completion at off: into the innermost catch (which
// receives the thrown value on the stack) or finally (which remembers the
// pending completion); false means the frame does not handle it and the
// completion propagates to the caller.
func (m *Machine) raise(f *Frame, off int, err error) bool {
	h := m.findHandler(f, off, false)
	if h == nil {
		return false
	}
	m.restoreTo(f, h)
	if h.Kind == bytecode.HandlerCatch {
		m.push(m.errorToValue(err))
	} else {
		f.routed = &routedCompletion{kind: compThrow, err: err}
	}
	f.ip = int(h.Target)
	return true
}

// routeReturn routes a Return completion through any finally region
// containing off; false means the frame may return directly.
func (m *Machine) routeReturn(f *Frame, off int, v value.Value) bool {
	h := m.findHandler(f, off, true)
	if h == nil {
		return false
	}
	m.restoreTo(f, h)
	f.routed = &routedCompletion{kind: compReturn, val: v}
	f.ip = int(h.Target)
	return true
}

// dispatch runs f until it returns, throws out, or suspends.
func (m *Machine) dispatch(f *Frame) (value.Value, *suspension, error) {
	code := f.block.Code
	for {
		if f.ip >= len(code) {
			return value.Undef, nil, nil
		}
		if m.allocs >= m.opts.GCThreshold {
			m.Collect()
		}
		off := f.ip
		f.lastOff = off
		dec := bytecode.Decoder{Code: code, IP: f.ip}
		op := dec.ReadOp()
		if m.opts.Trace != nil {
			fmt.Fprintf(m.opts.Trace, "%s %04d %s\n", f.block.Name, off, op)
		}

		var err error

		switch op {
		// ---- stack / register family ----
		case bytecode.PushUndefined:
			f.ip = dec.IP
			m.push(value.Undef)
		case bytecode.PushNull:
			f.ip = dec.IP
			m.push(value.Nil)
		case bytecode.PushTrue:
			f.ip = dec.IP
			m.push(value.True)
		case bytecode.PushFalse:
			f.ip = dec.IP
			m.push(value.False)
		case bytecode.PushZero:
			f.ip = dec.IP
			m.push(value.NewInt32(0))
		case bytecode.PushOne:
			f.ip = dec.IP
			m.push(value.NewInt32(1))
		case bytecode.PushInt8:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			m.push(value.NewInt32(int32(int8(uint8(operand)))))
		case bytecode.PushInt16:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			m.push(value.NewInt32(int32(int16(uint16(operand)))))
		case bytecode.PushInt32:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			m.push(value.NewInt32(int32(operand)))
		case bytecode.PushRational, bytecode.PushLiteral:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			m.push(f.block.Consts[operand])
		case bytecode.PushNewArray:
			f.ip = dec.IP
			m.push(value.NewObject(m.NewArrayObject()))
		case bytecode.PushValueToArray:
			f.ip = dec.IP
			v := m.pop()
			err = m.arrayAppend(m.peek(0), v)
		case bytecode.PushElisionToArray:
			f.ip = dec.IP
			err = m.arrayBumpLength(m.peek(0))
		case bytecode.PushSpreadToArray:
			f.ip = dec.IP
			v := m.pop()
			err = m.spreadInto(m.peek(0), v)
		case bytecode.PushNewObject, bytecode.PushEmptyObject:
			f.ip = dec.IP
			m.push(value.NewObject(m.NewPlainObject()))
		case bytecode.Dup:
			f.ip = dec.IP
			m.push(m.peek(0))
		case bytecode.Swap:
			f.ip = dec.IP
			n := len(m.stack)
			m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]
		case bytecode.RotateDown3:
			f.ip = dec.IP
			n := len(m.stack)
			a, b, c := m.stack[n-3], m.stack[n-2], m.stack[n-1]
			m.stack[n-3], m.stack[n-2], m.stack[n-1] = b, c, a
		case bytecode.Pop:
			f.ip = dec.IP
			m.pop()

		// ---- arithmetic / logic ----
		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod,
			bytecode.Pow, bytecode.ShiftLeft, bytecode.ShiftRight,
			bytecode.UnsignedShiftRight, bytecode.BitAnd, bytecode.BitOr, bytecode.BitXor:
			f.ip = dec.IP
			b := m.pop()
			a := m.pop()
			var r value.Value
			r, err = binaryArith(m, op, a, b)
			if err == nil {
				m.push(r)
			}
		case bytecode.BitNot:
			f.ip = dec.IP
			var r value.Value
			r, err = value.BitNot(m, m.pop())
			if err == nil {
				m.push(r)
			}
		case bytecode.Neg:
			f.ip = dec.IP
			var r value.Value
			r, err = value.Neg(m, m.pop())
			if err == nil {
				m.push(r)
			}
		case bytecode.Pos:
			f.ip = dec.IP
			var n float64
			n, err = value.ToNumber(m, m.pop())
			if err == nil {
				m.push(value.NumberValue(n))
			}
		case bytecode.Inc:
			f.ip = dec.IP
			var r value.Value
			r, err = value.Inc(m, m.pop())
			if err == nil {
				m.push(r)
			}
		case bytecode.Dec:
			f.ip = dec.IP
			var r value.Value
			r, err = value.Dec(m, m.pop())
			if err == nil {
				m.push(r)
			}
		case bytecode.Not:
			f.ip = dec.IP
			m.push(value.NewBool(!value.ToBoolean(m.pop())))

		// ---- comparison ----
		case bytecode.Eq, bytecode.NotEq:
			f.ip = dec.IP
			b := m.pop()
			a := m.pop()
			var eq bool
			eq, err = value.AbstractEqual(m, a, b)
			if err == nil {
				m.push(value.NewBool(eq == (op == bytecode.Eq)))
			}
		case bytecode.StrictEq:
			f.ip = dec.IP
			b := m.pop()
			a := m.pop()
			m.push(value.NewBool(value.StrictEqual(a, b)))
		case bytecode.StrictNotEq:
			f.ip = dec.IP
			b := m.pop()
			a := m.pop()
			m.push(value.NewBool(!value.StrictEqual(a, b)))
		case bytecode.LessThan, bytecode.LessThanOrEq, bytecode.GreaterThan, bytecode.GreaterThanOrEq:
			f.ip = dec.IP
			b := m.pop()
			a := m.pop()
			var r value.Value
			r, err = relational(m, op, a, b)
			if err == nil {
				m.push(r)
			}
		case bytecode.InstanceOf:
			f.ip = dec.IP
			b := m.pop()
			a := m.pop()
			var r bool
			r, err = m.instanceOf(a, b)
			if err == nil {
				m.push(value.NewBool(r))
			}
		case bytecode.In:
			f.ip = dec.IP
			b := m.pop()
			a := m.pop()
			if !b.IsObject() {
				err = m.ThrowTypeError("Cannot use 'in' operator to search in %s", b.TypeOf())
				break
			}
			var key object.PropertyKey
			key, err = m.toPropertyKey(a)
			if err == nil {
				o := b.AsObject().(*object.Object)
				var has bool
				has, err = o.Methods().HasProperty(o, m, key)
				if err == nil {
					m.push(value.NewBool(has))
				}
			}

		// ---- control flow ----
		case bytecode.Jump, bytecode.Default:
			target := dec.ReadOperand()
			f.ip = int(target)
		case bytecode.JumpIfTrue:
			target := dec.ReadOperand()
			f.ip = dec.IP
			if value.ToBoolean(m.pop()) {
				f.ip = int(target)
			}
		case bytecode.JumpIfFalse:
			target := dec.ReadOperand()
			f.ip = dec.IP
			if !value.ToBoolean(m.pop()) {
				f.ip = int(target)
			}
		case bytecode.JumpIfNotUndefined:
			target := dec.ReadOperand()
			f.ip = dec.IP
			if !m.peek(0).IsUndefined() {
				f.ip = int(target)
			}
		case bytecode.LogicalAnd:
			target := dec.ReadOperand()
			f.ip = dec.IP
			if !value.ToBoolean(m.peek(0)) {
				f.ip = int(target)
			}
		case bytecode.LogicalOr:
			target := dec.ReadOperand()
			f.ip = dec.IP
			if value.ToBoolean(m.peek(0)) {
				f.ip = int(target)
			}
		case bytecode.Coalesce:
			target := dec.ReadOperand()
			f.ip = dec.IP
			if !m.peek(0).IsNullOrUndefined() {
				f.ip = int(target)
			}
		case bytecode.Case:
			target := dec.ReadOperand()
			f.ip = dec.IP
			if value.ToBoolean(m.pop()) {
				f.ip = int(target)
			}

		// ---- bindings ----
		case bytecode.GetName, bytecode.GetNameOrUndefined:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			loc := &f.block.Locators[operand]
			if err = m.envs.FindRuntimeBinding(envCtx{m}, f.env, loc); err == nil {
				var v value.Value
				v, err = m.envs.GetBinding(envCtx{m}, f.env, *loc)
				if err == nil {
					m.push(v)
				}
			}
		case bytecode.SetName:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			loc := &f.block.Locators[operand]
			v := m.pop()
			if err = m.envs.FindRuntimeBinding(envCtx{m}, f.env, loc); err == nil {
				err = m.envs.SetBinding(envCtx{m}, f.env, *loc, v)
			}
		case bytecode.DefVar, bytecode.DefLet:
			dec.ReadOperand()
			f.ip = dec.IP
		case bytecode.DefInitVar, bytecode.DefInitLet, bytecode.DefInitConst:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			loc := f.block.Locators[operand]
			v := m.pop()
			if loc.Global {
				err = envCtx{m}.SetProperty(m.intr.Global, object.StringKey(loc.Name), v)
			} else {
				m.envs.PutLexicalValue(f.env, loc.EnvIndex, loc.BindingIndex, v)
			}
		case bytecode.DefInitArg:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			if int(operand) < len(f.args) {
				m.push(f.args[operand])
			} else {
				m.push(value.Undef)
			}
		case bytecode.DeleteName:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			loc := f.block.Locators[operand]
			var ok bool
			ok, err = m.envs.DeleteBinding(envCtx{m}, f.env, loc)
			if err == nil {
				m.push(value.NewBool(ok))
			}

		// ---- properties ----
		case bytecode.GetPropertyByName:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			name := f.block.Consts[operand].AsString()
			obj := m.pop()
			var v value.Value
			v, err = m.getValueProperty(obj, m.keyForName(name))
			if err == nil {
				m.push(v)
			}
		case bytecode.GetPropertyByValue:
			f.ip = dec.IP
			keyV := m.pop()
			obj := m.pop()
			var key object.PropertyKey
			key, err = m.toPropertyKey(keyV)
			if err == nil {
				var v value.Value
				v, err = m.getValueProperty(obj, key)
				if err == nil {
					m.push(v)
				}
			}
		case bytecode.SetPropertyByName:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			name := f.block.Consts[operand].AsString()
			v := m.pop()
			obj := m.pop()
			if err = m.setValueProperty(obj, stringToKey(name), v); err == nil {
				m.push(v)
			}
		case bytecode.SetPropertyByValue:
			f.ip = dec.IP
			v := m.pop()
			keyV := m.pop()
			obj := m.pop()
			var key object.PropertyKey
			key, err = m.toPropertyKey(keyV)
			if err == nil {
				if err = m.setValueProperty(obj, key, v); err == nil {
					m.push(v)
				}
			}
		case bytecode.DefineOwnPropertyByName:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			name := f.block.Consts[operand].AsString()
			v := m.pop()
			target := m.peek(0)
			err = m.defineDataProperty(target, name, v)
		case bytecode.DefineOwnPropertyByValue:
			f.ip = dec.IP
			v := m.pop()
			keyV := m.pop()
			target := m.peek(0)
			var key object.PropertyKey
			key, err = m.toPropertyKey(keyV)
			if err == nil {
				err = m.defineKeyedDataProperty(target, key, v)
			}
		case bytecode.SetPropertyGetterByName, bytecode.SetPropertySetterByName:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			name := f.block.Consts[operand].AsString()
			fn := m.pop()
			err = m.defineAccessor(m.peek(0), stringToKey(name), fn, op == bytecode.SetPropertyGetterByName)
		case bytecode.SetPropertyGetterByValue, bytecode.SetPropertySetterByValue:
			f.ip = dec.IP
			fn := m.pop()
			keyV := m.pop()
			var key object.PropertyKey
			key, err = m.toPropertyKey(keyV)
			if err == nil {
				err = m.defineAccessor(m.peek(0), key, fn, op == bytecode.SetPropertyGetterByValue)
			}
		case bytecode.DeletePropertyByName:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			name := f.block.Consts[operand].AsString()
			obj := m.pop()
			var ok bool
			ok, err = m.deleteProperty(obj, stringToKey(name))
			if err == nil {
				m.push(value.NewBool(ok))
			}
		case bytecode.DeletePropertyByValue:
			f.ip = dec.IP
			keyV := m.pop()
			obj := m.pop()
			var key object.PropertyKey
			key, err = m.toPropertyKey(keyV)
			if err == nil {
				var ok bool
				ok, err = m.deleteProperty(obj, key)
				if err == nil {
					m.push(value.NewBool(ok))
				}
			}
		case bytecode.CopyDataProperties:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			excluded := f.block.Consts[operand].AsString()
			src := m.pop()
			err = m.copyDataProperties(m.peek(0), src, excluded)

		// ---- environments ----
		case bytecode.PushDeclarativeEnvironment:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			f.env = m.envs.PushDeclarative(int(operand), nil)
			f.envDepth++
		case bytecode.PushFunctionEnvironment:
			f.ip = dec.IP
			f.env = m.envs.PushDeclarative(0, nil)
			f.envDepth++
		case bytecode.PushObjectEnvironment:
			f.ip = dec.IP
			v := m.pop()
			if !v.IsObject() {
				err = m.ThrowTypeError("with operand is not an object")
				break
			}
			f.env = m.envs.PushObject(v.AsObject().(*object.Object))
			f.envDepth++
		case bytecode.PopEnvironment:
			f.ip = dec.IP
			m.envs.Pop()
			f.envDepth--
			f.env = m.envs.Top()

		// ---- iteration ----
		case bytecode.InitIterator, bytecode.InitIteratorAsync:
			f.ip = dec.IP
			v := m.pop()
			var rec *iterRecord
			rec, err = m.newIterator(v, op == bytecode.InitIteratorAsync)
			if err == nil {
				m.push(m.iterValue(rec))
			}
		case bytecode.IteratorNext:
			f.ip = dec.IP
			var rec *iterRecord
			rec, err = m.iterFromValue(m.peek(0))
			if err != nil {
				break
			}
			if rec.done {
				m.push(value.Undef)
				break
			}
			var v value.Value
			var done bool
			v, done, err = m.iterStep(rec, nil)
			if err != nil {
				break
			}
			if done {
				m.push(value.Undef)
			} else {
				m.push(v)
			}
		case bytecode.IteratorClose:
			f.ip = dec.IP
			var rec *iterRecord
			rec, err = m.iterFromValue(m.pop())
			if err == nil {
				err = m.iterClose(rec)
			}
		case bytecode.IteratorToArray:
			f.ip = dec.IP
			var rec *iterRecord
			rec, err = m.iterFromValue(m.peek(0))
			if err != nil {
				break
			}
			arr := m.NewArrayObject()
			for !rec.done {
				var v value.Value
				var done bool
				v, done, err = m.iterStep(rec, nil)
				if err != nil || done {
					break
				}
				if err = m.arrayAppend(value.NewObject(arr), v); err != nil {
					break
				}
			}
			if err == nil {
				m.push(value.NewObject(arr))
			}
		case bytecode.ForInLoopInitIterator:
			f.ip = dec.IP
			v := m.pop()
			m.push(m.iterValue(m.newForInIterator(v)))
		case bytecode.ForInLoopNext:
			target := dec.ReadOperand()
			f.ip = dec.IP
			var rec *iterRecord
			rec, err = m.iterFromValue(m.peek(0))
			if err != nil {
				break
			}
			if key, ok := rec.nextForInKey(); ok {
				m.push(value.NewString(key))
			} else {
				m.push(value.Undef)
				f.ip = int(target)
			}

		// ---- calling ----
		case bytecode.GetFunction, bytecode.GetGenerator:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			m.push(value.NewObject(m.makeClosure(f.block.Inner[operand])))
		case bytecode.Call:
			argc := dec.ReadOperand()
			f.ip = dec.IP
			args := m.popN(int(argc))
			fnV := m.pop()
			thisV := m.pop()
			var res value.Value
			res, err = m.CallValue(fnV, thisV, args)
			if err == nil {
				m.push(res)
			}
		case bytecode.CallWithRest:
			f.ip = dec.IP
			arrV := m.pop()
			fnV := m.pop()
			thisV := m.pop()
			var args []value.Value
			args, err = m.arrayToSlice(arrV)
			if err == nil {
				var res value.Value
				res, err = m.CallValue(fnV, thisV, args)
				if err == nil {
					m.push(res)
				}
			}
		case bytecode.NewExpr:
			argc := dec.ReadOperand()
			f.ip = dec.IP
			args := m.popN(int(argc))
			fnV := m.pop()
			err = m.pushConstructed(fnV, args)
		case bytecode.NewWithRest:
			f.ip = dec.IP
			arrV := m.pop()
			fnV := m.pop()
			var args []value.Value
			args, err = m.arrayToSlice(arrV)
			if err == nil {
				err = m.pushConstructed(fnV, args)
			}
		case bytecode.Return:
			f.ip = dec.IP
			v := m.pop()
			if m.routeReturn(f, off, v) {
				continue
			}
			return v, nil, nil
		case bytecode.This:
			f.ip = dec.IP
			var v value.Value
			v, err = m.envs.GetThisBinding(f.env)
			if err == nil {
				m.push(v)
			}
		case bytecode.NewTarget:
			f.ip = dec.IP
			if nt := m.envs.NewTarget(f.env); nt != nil {
				m.push(value.NewObject(nt))
			} else {
				m.push(value.Undef)
			}
		case bytecode.SuperCall:
			f.ip = dec.IP
			arrV := m.pop()
			err = m.superCall(f, arrV)
		case bytecode.RestParameterInit:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			var rest []value.Value
			if int(operand) < len(f.args) {
				rest = f.args[operand:]
			}
			m.push(value.NewObject(m.NewArrayOf(rest...)))

		// ---- exceptions ----
		case bytecode.Throw:
			f.ip = dec.IP
			err = Throw(m.pop())
		case bytecode.TryStart, bytecode.TryEnd, bytecode.CatchStart, bytecode.CatchEnd, bytecode.FinallySetJump:
			f.ip = dec.IP
		case bytecode.FinallyStart:
			f.ip = dec.IP
			f.finallyPendings = append(f.finallyPendings, f.routed)
			f.routed = nil
		case bytecode.FinallyEnd:
			f.ip = dec.IP
			n := len(f.finallyPendings) - 1
			pending := f.finallyPendings[n]
			f.finallyPendings = f.finallyPendings[:n]
			if pending == nil {
				break
			}
			if pending.kind == compThrow {
				err = pending.err
				break
			}
			if m.routeReturn(f, off, pending.val) {
				continue
			}
			return pending.val, nil, nil

		// ---- generators ----
		case bytecode.Yield:
			f.ip = dec.IP
			return value.Undef, &suspension{kind: suspendYield, val: m.pop()}, nil
		case bytecode.YieldStar:
			f.ip = dec.IP
			v := m.pop()
			var rec *iterRecord
			rec, err = m.newIterator(v, f.block.IsAsync)
			if err != nil {
				break
			}
			var stepV value.Value
			var done bool
			stepV, done, err = m.iterStep(rec, nil)
			if err != nil {
				break
			}
			if done {
				m.push(stepV)
			} else {
				f.delegate = rec
				return value.Undef, &suspension{kind: suspendYield, val: stepV}, nil
			}
		case bytecode.GeneratorNext, bytecode.GeneratorNextDelegate, bytecode.Nop:
			f.ip = dec.IP
		case bytecode.Await:
			f.ip = dec.IP
			return value.Undef, &suspension{kind: suspendAwait, val: m.pop()}, nil

		// ---- misc ----
		case bytecode.ToBoolean:
			f.ip = dec.IP
			m.push(value.NewBool(value.ToBoolean(m.pop())))
		case bytecode.TypeOf:
			f.ip = dec.IP
			m.push(value.NewString(m.pop().TypeOf()))
		case bytecode.Void:
			f.ip = dec.IP
			m.pop()
			m.push(value.Undef)
		case bytecode.RequireObjectCoercible, bytecode.ValueNotNullOrUndefined:
			f.ip = dec.IP
			if m.peek(0).IsNullOrUndefined() {
				err = m.ThrowTypeError("value is null or undefined")
			}
		case bytecode.ConcatToString:
			operand := dec.ReadOperand()
			f.ip = dec.IP
			parts := m.popN(int(operand))
			var sb strings.Builder
			for _, p := range parts {
				var s string
				s, err = value.ToStringValue(m, p)
				if err != nil {
					break
				}
				sb.WriteString(s)
			}
			if err == nil {
				m.push(value.NewString(sb.String()))
			}

		default:
			err = NewError(ErrError, "unknown opcode %s", op)
		}

		if err != nil {
			if m.raise(f, off, err) {
				continue
			}
			return value.Undef, nil, err
		}
	}
}

// binaryArith dispatches the two-operand arithmetic opcodes onto the
// numeric abstract operations.
func binaryArith(m *Machine, op bytecode.OpCode, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.Add:
		return value.Add(m, a, b)
	case bytecode.Sub:
		return value.Sub(m, a, b)
	case bytecode.Mul:
		return value.Mul(m, a, b)
	case bytecode.Div:
		return value.Div(m, a, b)
	case bytecode.Mod:
		return value.Rem(m, a, b)
	case bytecode.Pow:
		return value.Pow(m, a, b)
	case bytecode.ShiftLeft:
		return value.Shl(m, a, b)
	case bytecode.ShiftRight:
		return value.Shr(m, a, b)
	case bytecode.UnsignedShiftRight:
		return value.Ushr(m, a, b)
	case bytecode.BitAnd:
		return value.BitAnd(m, a, b)
	case bytecode.BitOr:
		return value.BitOr(m, a, b)
	default:
		return value.BitXor(m, a, b)
	}
}

// relational evaluates <, <=, >, >= through abstract_relation with the
// spec-mandated operand ordering (left-first controls side-effect order).
func relational(m *Machine, op bytecode.OpCode, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.LessThan:
		r, undef, err := value.AbstractRelation(m, a, b, true)
		return value.NewBool(r && !undef), err
	case bytecode.GreaterThan:
		r, undef, err := value.AbstractRelation(m, b, a, false)
		return value.NewBool(r && !undef), err
	case bytecode.LessThanOrEq:
		r, undef, err := value.AbstractRelation(m, b, a, false)
		return value.NewBool(!r && !undef), err
	default: // GreaterThanOrEq
		r, undef, err := value.AbstractRelation(m, a, b, true)
		return value.NewBool(!r && !undef), err
	}
}
