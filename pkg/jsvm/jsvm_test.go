package jsvm

import (
	"strings"
	"testing"

	"github.com/go-jsvm/jsvm/internal/vm"
)

// evalString runs src in a fresh context and renders the result with the
// debug formatter (strings come back quoted).
func evalString(t *testing.T, src string) string {
	t.Helper()
	ctx := New()
	v, err := ctx.Eval(src)
	if err != nil {
		t.Fatalf("Eval(%q) errored: %v", src, err)
	}
	return v.String()
}

func TestEvalExpressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arrow call", `((a,b)=>a+b)(2,3)`, "5"},
		{"string concat", `'foo' + 'bar'`, `"foobar"`},
		{"number widening", `1 + 0.5`, "1.5"},
		{"mixed add coerces", `1 + '2'`, `"12"`},
		{"ternary", `1 < 2 ? 'yes' : 'no'`, `"yes"`},
		{"logical and", `0 && 1`, "0"},
		{"logical or", `0 || 'fallback'`, `"fallback"`},
		{"coalesce", `null ?? 'dflt'`, `"dflt"`},
		{"typeof undeclared", `typeof nothingHere`, `"undefined"`},
		{"typeof function", `typeof (() => 1)`, `"function"`},
		{"void", `void 42`, "undefined"},
		{"template literal", "`a${1+1}c`", `"a2c"`},
		{"exponent", `2 ** 10`, "1024"},
		{"modulo", `10 % 3`, "1"},
		{"bitops", `(12 & 10) | 1`, "9"},
		{"shift", `1 << 5`, "32"},
		{"unsigned shift", `-1 >>> 28`, "15"},
		{"strict equality", `NaN === NaN`, "false"},
		{"abstract equality", `'1' == 1`, "true"},
		{"zero identity", `+0 === -0`, "true"},
		{"object is", `Object.is(+0, -0)`, "false"},
		{"in operator", `'a' in {a: 1}`, "true"},
		{"instanceof", `[] instanceof Array`, "true"},
		{"comma", `(1, 2, 3)`, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestEvalStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"for-of string", `let s=''; for (const c of 'abc') s+=c; s`, `"abc"`},
		{"while loop", `let n=0, i=0; while (i < 5) { n += i; i++; } n`, "10"},
		{"do-while", `let i=0; do { i++; } while (i < 3); i`, "3"},
		{"classic for", `let sum=0; for (let i=1; i<=4; i++) sum+=i; sum`, "10"},
		{"break", `let i=0; while (true) { if (i >= 7) break; i++; } i`, "7"},
		{"continue", `let n=0; for (let i=0; i<10; i++) { if (i%2) continue; n++; } n`, "5"},
		{"labeled continue", `let n=0; outer: for (let i=0;i<3;i++) { for (let j=0;j<3;j++) { if (j==1) continue outer; n++; } } n`, "3"},
		{"switch", `let r; switch (2) { case 1: r='one'; break; case 2: r='two'; break; default: r='many'; } r`, `"two"`},
		{"switch default", `let r; switch (9) { case 1: r='one'; break; default: r='many'; } r`, `"many"`},
		{"switch fallthrough", `let r=''; switch (1) { case 1: r+='a'; case 2: r+='b'; break; case 3: r+='c'; } r`, `"ab"`},
		{"block scoping", `let x=1; { let x=2; } x`, "1"},
		{"var hoisting", `function f(){ if (true) { var v = 3; } return v; } f()`, "3"},
		{"closure counter", `function counter(){ let n=0; return () => ++n; } const c=counter(); c(); c(); c()`, "3"},
		{"recursion", `function fib(n){ return n < 2 ? n : fib(n-1)+fib(n-2); } fib(10)`, "55"},
		{"named fn expr recursion", `const f = function fact(n){ return n <= 1 ? 1 : n * fact(n-1); }; f(5)`, "120"},
		{"arguments object", `function f(){ return arguments.length + arguments[0]; } f(10, 20)`, "12"},
		{"rest params", `function f(a, ...rest){ return rest.length * 10 + a; } f(1, 2, 3)`, "21"},
		{"default params", `function f(a, b = a + 1){ return b; } f(4)`, "5"},
		{"spread call", `function f(...xs){ return xs.length; } f(...[1,2,3], 4)`, "4"},
		{"for-in keys", `const o={b:1, a:2}; let ks=''; for (const k in o) ks+=k; ks`, `"ba"`},
		{"postfix increment", `let i=5; const old=i++; old*10+i`, "56"},
		{"compound assign", `let x=2; x*=3; x+=1; x`, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestDestructuring(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"object pattern", `const {a, b} = {a: 1, b: 2}; a + b`, "3"},
		{"object default", `const {a, b = 5} = {a: 1}; a + b`, "6"},
		{"object rest", `const {a, ...r} = {a: 1, c: 2, d: 3}; a + r.c + r.d`, "6"},
		{"array pattern", `const [x, y] = [10, 20]; x + y`, "30"},
		{"array elision", `const [, y] = [1, 2]; y`, "2"},
		{"array default", `const [x = 7] = []; x`, "7"},
		{"array rest", `const [h, ...tl] = [1, 2, 3]; h + tl.length`, "3"},
		{"nested", `const {p: [q]} = {p: [9]}; q`, "9"},
		{"assignment pattern", `let a, b; ({a, b} = {a: 3, b: 4}); a * b`, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestTryCatchFinally(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"catch returns thrown", `(function(){ try { throw 'e'; } catch (x) { return x; } finally {} })()`, `"e"`},
		{"finally always runs", `let log=''; try { log+='t'; throw 1; } catch (e) { log+='c'; } finally { log+='f'; } log`, `"tcf"`},
		{"finally on normal", `let log=''; try { log+='t'; } finally { log+='f'; } log`, `"tf"`},
		{"finally on return", `(function(){ try { return 1; } finally {} })()`, "1"},
		{"finally return wins", `(function(){ try { return 1; } finally { return 2; } })()`, "2"},
		{"rethrow from catch hits finally", `let log=''; try { try { throw 'a'; } catch (e) { log+='c'; throw 'b'; } finally { log+='f'; } } catch (e) { log+=e; } log`, `"cfb"`},
		{"nested finally order", `let log=''; try { try { throw 1; } finally { log+='1'; } } catch (e) { log+='2'; } log`, `"12"`},
		{"catch binding scoped", `let x='outer'; try { throw 'inner'; } catch (x) {} x`, `"outer"`},
		{"error object", `try { null.x; } catch (e) { e instanceof TypeError }`, "true"},
		{"error toString", `try { undefinedName; } catch (e) { String(e).indexOf('ReferenceError') === 0 }`, "true"},
		{"throw across frames", `function inner(){ throw new RangeError('deep'); } try { inner(); } catch (e) { e.message }`, `"deep"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestUncaughtThrowSurfacesToHost(t *testing.T) {
	ctx := New()
	_, err := ctx.Eval(`throw new TypeError('boom')`)
	if err == nil {
		t.Fatal("expected an error from an uncaught throw")
	}
	if !strings.Contains(err.Error(), "TypeError: boom") {
		t.Errorf("error = %q, want it to contain %q", err.Error(), "TypeError: boom")
	}
}

func TestObjectsAndArrays(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"property access", `const o = {a: {b: 2}}; o.a.b`, "2"},
		{"computed keys", `const k='x'; const o={[k]: 5}; o.x`, "5"},
		{"getter setter", `const o = { _v: 1, get v(){ return this._v; }, set v(n){ this._v = n*2; } }; o.v = 10; o.v`, "20"},
		{"object spread", `const o = {...{a:1}, b:2}; o.a + o.b`, "3"},
		{"delete", `const o={a:1}; delete o.a; 'a' in o`, "false"},
		{"array literal", `[1,2,3].length`, "3"},
		{"array spread", `[...[1,2], 3].length`, "3"},
		{"array truncation", `const a=[1,2,3]; a.length=1; a.length*10 + a[0]`, "11"},
		{"truncation stops at non-configurable", `const a=[1,2,3,4,5]; Object.defineProperty(a, 2, {value: 9, writable: true}); a.length = 0; '' + a.length + a[3]`, `"3undefined"`},
		{"delete global binding", `tmpG = 1; const ok = delete tmpG; '' + ok + typeof tmpG`, `"trueundefined"`},
		{"array growth", `const a=[]; a[4]=1; a.length`, "5"},
		{"push pop", `const a=[1]; a.push(2,3); a.pop(); a.join('-')`, `"1-2"`},
		{"map filter reduce", `[1,2,3,4].map(x=>x*2).filter(x=>x>2).reduce((a,b)=>a+b, 0)`, "18"},
		{"enumeration order", `const o={}; o.b=1; o[2]=1; o.a=1; o[1]=1; Object.keys(o).join(',')`, `"1,2,b,a"`},
		{"object entries", `Object.entries({x: 1}).length`, "1"},
		{"object assign", `Object.assign({}, {a:1}, {b:2}).b`, "2"},
		{"freeze", `const o=Object.freeze({a:1}); o.a=2; o.a`, "1"},
		{"prototype method", `function P(){}; P.prototype.hi = function(){ return 'hi ' + this.name; }; const p = new P(); p.name = 'x'; p.hi()`, `"hi x"`},
		{"bind", `function f(a,b){ return this.base + a + b; } const g = f.bind({base: 100}, 10); g(1)`, "111"},
		{"call apply", `function f(x){ return this.v + x; } f.call({v:1}, 2) + f.apply({v:10}, [20])`, "33"},
		{"boxed primitive valueOf", `Object(5).valueOf() === 5`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestClasses(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"constructor and method", `class A { constructor(x){ this.x = x; } double(){ return this.x * 2; } } new A(21).double()`, "42"},
		{"getter", `class A { constructor(){ this.x = 1; } get y(){ return this.x + 1; } } new A().y`, "2"},
		{"class field", `class A { n = 5; } new A().n`, "5"},
		{"static method", `class A { static make(){ return 7; } } A.make()`, "7"},
		{"static field", `class A { static tag = 'A'; } A.tag`, `"A"`},
		{"derived ctor", `class A { constructor(){ this.a = 1; } } class B extends A { constructor(){ super(); this.b = 2; } } const o = new B(); o.a + o.b`, "3"},
		{"default derived ctor", `class A { constructor(x){ this.x = x; } } class B extends A {} new B(9).x`, "9"},
		{"inherited method", `class A { hi(){ return 'hi'; } } class B extends A {} new B().hi()`, `"hi"`},
		{"instanceof chain", `class A {} class B extends A {} (new B() instanceof A) && (new B() instanceof B)`, "true"},
		{"class expression", `const C = class { v(){ return 3; } }; new C().v()`, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestGenerators(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"two yields", `function* g(){ yield 1; yield 2; } const it=g(); '' + it.next().value + it.next().value + it.next().done`, `"12true"`},
		{"done after return", `function* g(){ yield 1; } const it=g(); it.next(); it.next(); it.next().done`, "true"},
		{"sent values", `function* g(){ const x = yield 1; yield x * 2; } const it=g(); it.next(); it.next(21).value`, "42"},
		{"for-of generator", `function* g(){ yield 'a'; yield 'b'; } let s=''; for (const v of g()) s += v; s`, `"ab"`},
		{"generator return()", `function* g(){ yield 1; yield 2; } const it=g(); it.next(); const r = it.return(9); '' + r.value + r.done`, `"9true"`},
		{"yield star", `function* inner(){ yield 1; yield 2; } function* outer(){ yield 0; yield* inner(); yield 3; } let s=''; for (const v of outer()) s += v; s`, `"0123"`},
		{"generator finally on return", `let log=''; function* g(){ try { yield 1; } finally { log += 'f'; } } const it=g(); it.next(); it.return(0); log`, `"f"`},
		{"throw into generator", `function* g(){ try { yield 1; } catch (e) { return 'caught:' + e; } } const it=g(); it.next(); it.throw('x').value`, `"caught:x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestPromisesAndAsync(t *testing.T) {
	ctx := New()
	// Promise reactions run off the job queue after evaluation; results land
	// on globals so a second Eval can observe them.
	mustEval(t, ctx, `Promise.resolve(1).then(v => { thenResult = v + 1; });`)
	assertEval(t, ctx, `thenResult`, "2")

	mustEval(t, ctx, `Promise.reject('no').catch(e => { catchResult = 'caught:' + e; });`)
	assertEval(t, ctx, `catchResult`, `"caught:no"`)

	mustEval(t, ctx, `(async () => { const v = await Promise.resolve(20); awaitResult = v + 1; })();`)
	assertEval(t, ctx, `awaitResult`, "21")

	mustEval(t, ctx, `(async () => { try { await Promise.reject(new RangeError('r')); } catch (e) { awaitCatch = e.message; } })();`)
	assertEval(t, ctx, `awaitCatch`, `"r"`)

	mustEval(t, ctx, `order = ''; Promise.resolve().then(() => { order += 'b'; }); order += 'a';`)
	assertEval(t, ctx, `order`, `"ab"`)

	mustEval(t, ctx, `Promise.all([Promise.resolve(1), 2, Promise.resolve(3)]).then(vs => { allResult = vs.join('+'); });`)
	assertEval(t, ctx, `allResult`, `"1+2+3"`)

	mustEval(t, ctx, `new Promise((resolve, reject) => resolve('exec')).then(v => { execResult = v; });`)
	assertEval(t, ctx, `execResult`, `"exec"`)
}

func mustEval(t *testing.T, ctx *Context, src string) {
	t.Helper()
	if _, err := ctx.Eval(src); err != nil {
		t.Fatalf("Eval(%q) errored: %v", src, err)
	}
}

func assertEval(t *testing.T, ctx *Context, src, want string) {
	t.Helper()
	v, err := ctx.Eval(src)
	if err != nil {
		t.Fatalf("Eval(%q) errored: %v", src, err)
	}
	if v.String() != want {
		t.Errorf("Eval(%q) = %s, want %s", src, v.String(), want)
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"map samevaluezero", `const m=new Map(); m.set(NaN,'x'); m.get(NaN)`, `"x"`},
		{"map size", `const m=new Map([[1,'a'],[2,'b']]); m.delete(1); m.size`, "1"},
		{"map iteration order", `const m=new Map(); m.set('b',1); m.set('a',2); [...m.keys()].join('')`, `"ba"`},
		{"map forEach lock", `const m=new Map([[1,1],[2,2]]); let n=0; m.forEach((v,k) => { n++; m.delete(2); }); n + m.size`, "2"},
		{"set dedupe", `const s=new Set([1,1,2]); s.size`, "2"},
		{"set spread", `[...new Set(['a','b'])].join('')`, `"ab"`},
		{"weakmap", `const wm=new WeakMap(); const k={}; wm.set(k, 1); wm.get(k)`, "1"},
		{"string methods", `'Hello'.toUpperCase() + 'X'.toLowerCase()`, `"HELLOx"`},
		{"string slice", `'abcdef'.slice(1, 3)`, `"bc"`},
		{"string split join", `'a,b,c'.split(',').join('|')`, `"a|b|c"`},
		{"string pad", `'5'.padStart(3, '0')`, `"005"`},
		{"string length utf16", `'a\u{1F600}'.length`, "3"},
		{"math", `Math.max(1, 9, 3) + Math.abs(-1)`, "10"},
		{"math floor ceil", `Math.floor(1.7) * 10 + Math.ceil(1.2)`, "12"},
		{"number parse", `parseInt('2f', 16) + parseFloat('1.5rest')`, "48.5"},
		{"number toFixed", `(1.005).toFixed(1)`, `"1.0"`},
		{"isNaN", `isNaN('abc') && !isNaN('12')`, "true"},
		{"symbol identity", `const s=Symbol('k'); const o={}; o[s]=7; o[s]`, "7"},
		{"symbol for", `Symbol.for('x') === Symbol.for('x')`, "true"},
		{"bigint roundtrip", `BigInt((123456789012345678901234567890n).toString()) === 123456789012345678901234567890n`, "true"},
		{"bigint arithmetic", `(10n ** 20n) / (10n ** 18n)`, "100n"},
		{"bigint mixing throws", `try { 1n + 1; } catch (e) { e instanceof TypeError }`, "true"},
		{"typed array", `const t=new Int32Array(3); t[0]=7; t[1]=-2; t[0]+t[1]`, "5"},
		{"typed array over buffer", `const b=new ArrayBuffer(8); const t=new Int32Array(b); t[1]=300; new Int32Array(b)[1]`, "300"},
		{"typed array oob", `const t=new Int8Array(1); t[5]=1; t[5]`, "undefined"},
		{"atomics", `const sab=new SharedArrayBuffer(4); const t=new Int32Array(sab); Atomics.store(t, 0, 5); Atomics.add(t, 0, 3); Atomics.load(t, 0)`, "8"},
		{"atomics wait refused", `const sab=new SharedArrayBuffer(4); const t=new Int32Array(sab); try { Atomics.wait(t, 0, 0); } catch (e) { e instanceof TypeError }`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"stringify object", `JSON.stringify({a: 1, b: 'x'})`, `"{\"a\":1,\"b\":\"x\"}"`},
		{"stringify array", `JSON.stringify([1, null, 'z'])`, `"[1,null,\"z\"]"`},
		{"parse object", `JSON.parse('{"a": [1, 2], "b": {"c": true}}').a[1]`, "2"},
		{"parse nested bool", `JSON.parse('{"b": {"c": true}}').b.c`, "true"},
		{"round trip", `const v = {n: null, ok: true, xs: [1, 2.5, 'three'], o: {k: 'v'}};
			const w = JSON.parse(JSON.stringify(v));
			'' + w.n + w.ok + w.xs[2] + w.o.k + w.xs.length`, `"nulltruethreev3"`},
		{"undefined dropped", `JSON.stringify({a: undefined, b: 1})`, `"{\"b\":1}"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.src); got != tt.want {
				t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestHostInterop(t *testing.T) {
	ctx := New()
	ctx.RegisterFunc("hostAdd", 2, func(m *vm.Machine, this Value, args []Value) (Value, error) {
		return Int(int(args[0].AsFloat64()) + int(args[1].AsFloat64())), nil
	})
	v, err := ctx.Eval(`hostAdd(19, 23)`)
	if err != nil {
		t.Fatalf("Eval errored: %v", err)
	}
	if v.String() != "42" {
		t.Errorf("hostAdd = %s, want 42", v.String())
	}

	ctx.SetGlobal("answer", Int(40))
	v, err = ctx.Eval(`answer + 2`)
	if err != nil {
		t.Fatalf("Eval errored: %v", err)
	}
	if v.String() != "42" {
		t.Errorf("answer + 2 = %s, want 42", v.String())
	}
}

func TestNativeClassRegistration(t *testing.T) {
	type point struct{ x, y int }
	ctx := New()
	var b *ClassBuilder
	b = ctx.RegisterClass(NativeClass{
		Name:   "Point",
		Length: 2,
		Constructor: func(c *Context, _ Value, args []Value) (any, error) {
			return &point{x: int(args[0].AsFloat64()), y: int(args[1].AsFloat64())}, nil
		},
		Init: func(builder *ClassBuilder) {
			builder.Method("sum", 0, func(m *vm.Machine, this Value, _ []Value) (Value, error) {
				p, ok := ClassData[*point](b, this)
				if !ok {
					return Undefined(), m.ThrowTypeError("not a Point")
				}
				return Int(p.x + p.y), nil
			})
			builder.Accessor("x", func(m *vm.Machine, this Value, _ []Value) (Value, error) {
				p, ok := ClassData[*point](b, this)
				if !ok {
					return Undefined(), m.ThrowTypeError("not a Point")
				}
				return Int(p.x), nil
			}, nil)
			builder.Static("origin", 0, func(m *vm.Machine, _ Value, _ []Value) (Value, error) {
				return String("0,0"), nil
			})
		},
	})
	v, err := ctx.Eval(`const p = new Point(3, 4); '' + p.sum() + ':' + p.x + ':' + Point.origin() + ':' + (p instanceof Point)`)
	if err != nil {
		t.Fatalf("Eval errored: %v", err)
	}
	if v.String() != `"7:3:0,0:true"` {
		t.Errorf("native class result = %s, want %q", v.String(), "7:3:0,0:true")
	}
}
