package machine

import (
	"fmt"
	"math"

	"github.com/mna/qscript/lang/compiler"
)

func init() {
	if len(nativeDefs) != compiler.NumIntrinsics {
		panic(fmt.Sprintf("machine: %d native defs but %d intrinsics declared", len(nativeDefs), compiler.NumIntrinsics))
	}
}

// nativeRegular computes an intrinsic's ordinary result from its
// left-to-right argument list.
type nativeRegular func(args []Value) Value

// nativeReverse computes the same result as nativeRegular while also
// recording onto aux whatever nativeInverse will need to undo the call.
type nativeReverse func(args []Value, aux *[]Value) Value

// nativeInverse consumes what the matching nativeReverse recorded on aux
// and returns the restored argument values, left to right, for the
// machine to push back onto main in place of the call it is undoing.
type nativeInverse func(aux *[]Value) []Value

// nativeDef is one entry of the machine's native handler table, built in
// lockstep with compiler.Intrinsics: nativeDefs[i] implements
// compiler.Intrinsics[i].
type nativeDef struct {
	regular nativeRegular
	reverse nativeReverse
	inverse nativeInverse
}

// genericReverse adapts a pure nativeRegular handler (one with no side
// effects beyond producing a value from its arguments, such as the math
// intrinsics) into a nativeReverse: it records every argument onto aux,
// in the order the machine's Call(Reverse) dispatch would naturally
// encounter them (rightmost first), and otherwise just computes fn(args).
// genericInverse is its mirror, handed to nativeInverse directly.
func genericReverse(fn nativeRegular) nativeReverse {
	return func(args []Value, aux *[]Value) Value {
		for i := len(args) - 1; i >= 0; i-- {
			*aux = append(*aux, args[i])
		}
		return fn(args)
	}
}

// genericInverse restores arity values previously recorded by
// genericReverse, in left-to-right order.
func genericInverse(arity int) nativeInverse {
	return func(aux *[]Value) []Value {
		n := len(*aux)
		out := make([]Value, arity)
		for i := 0; i < arity; i++ {
			out[i] = (*aux)[n-1-i]
		}
		*aux = (*aux)[:n-arity]
		return out
	}
}

// nonReversible builds a handler pair for an intrinsic with no reversible
// form: such entries must fatally error if invoked as Reverse or Inverse
// rather than silently do something plausible-looking but wrong. See
// DESIGN.md for which intrinsics this applies to and why.
func nonReversible(name string) (nativeReverse, nativeInverse) {
	msg := name + ": not reversible"
	return func([]Value, *[]Value) Value { panic(msg) },
		func(*[]Value) []Value { panic(msg) }
}

func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	r := int64(1)
	for ; exp > 0; exp-- {
		r *= base
	}
	return r
}

func numToFloat32(v Value) float32 { return float32(asFloat(v)) }

// nativeDefs parallels compiler.Intrinsics exactly: nativeDefs[i] is the
// Regular/Reverse/Inverse triple for compiler.Intrinsics[i].
var nativeDefs = buildNativeDefs()

func buildNativeDefs() []nativeDef {
	d := make([]nativeDef, 0, 51)

	add := func(regular nativeRegular, reverse nativeReverse, inverse nativeInverse) {
		d = append(d, nativeDef{regular: regular, reverse: reverse, inverse: inverse})
	}
	pureUnary := func(name string, regular nativeRegular) {
		add(regular, genericReverse(regular), genericInverse(1))
	}
	pureBinary := func(name string, regular nativeRegular) {
		add(regular, genericReverse(regular), genericInverse(2))
	}
	nonRev := func(name string, regular nativeRegular) {
		rev, inv := nonReversible(name)
		add(regular, rev, inv)
	}

	// len, get, slice, put, cat, qalloc: structural/allocating operations
	// on arrays and quregs, never meaningfully reversible (see DESIGN.md).
	nonRev("len", func(args []Value) Value {
		switch v := args[0].(type) {
		case *Array:
			return Int(v.Len())
		case *QuReg:
			return Int(v.Len())
		}
		panic("len: expected array or qureg")
	})
	nonRev("get", func(args []Value) Value {
		i := int(asInt(args[1]))
		switch v := args[0].(type) {
		case Int:
			return Int((int64(v) >> uint(i)) & 1)
		case *Array:
			return v.Index(i)
		case *QuReg:
			return v.Get(i)
		}
		panic("get: expected int, array or qureg")
	})
	nonRev("slice", func(args []Value) Value {
		lo, hi := int(asInt(args[1])), int(asInt(args[2]))
		switch v := args[0].(type) {
		case *Array:
			return v.Slice(lo, hi)
		case *QuReg:
			return v.Slice(lo, hi)
		}
		panic("slice: expected array or qureg")
	})
	nonRev("put", func(args []Value) Value {
		a := asArray(args[0])
		a.SetIndex(int(asInt(args[1])), args[2])
		return a
	})
	nonRev("cat", func(args []Value) Value {
		left, lok := args[0].(*Array)
		right, rok := args[1].(*Array)
		switch {
		case lok && rok:
			for i := 0; i < right.Len(); i++ {
				left.pushBack(right.Index(i))
			}
			return left
		case lok:
			left.pushBack(args[1])
			return left
		case rok:
			right.pushFront(args[0])
			return right
		default:
			return NewArray([]Value{args[0], args[1]})
		}
	})
	nonRev("qalloc", func(args []Value) Value {
		return NewQuReg(int(asInt(args[0])), asInt(args[1]))
	})

	// Math library: pure functions over Int/Float, genuinely reversible
	// via the generic aux-recording mechanism since there is no mutable
	// state to undo, only inputs to hand back.
	pureUnary("ceil", func(a []Value) Value { return Float(math.Ceil(asFloat(a[0]))) })
	pureUnary("floor", func(a []Value) Value { return Float(math.Floor(asFloat(a[0]))) })
	pureUnary("round", func(a []Value) Value { return Float(math.Round(asFloat(a[0]))) })
	pureUnary("abs", func(a []Value) Value {
		if i, ok := a[0].(Int); ok {
			if i < 0 {
				return -i
			}
			return i
		}
		return Float(math.Abs(asFloat(a[0])))
	})
	pureUnary("ln", func(a []Value) Value { return Float(math.Log(asFloat(a[0]))) })
	pureUnary("log2", func(a []Value) Value { return Float(math.Log2(asFloat(a[0]))) })
	pureUnary("log10", func(a []Value) Value { return Float(math.Log10(asFloat(a[0]))) })
	pureUnary("sqrt", func(a []Value) Value { return Float(math.Sqrt(asFloat(a[0]))) })
	pureUnary("cos", func(a []Value) Value { return Float(math.Cos(asFloat(a[0]))) })
	pureUnary("sin", func(a []Value) Value { return Float(math.Sin(asFloat(a[0]))) })
	pureUnary("tan", func(a []Value) Value { return Float(math.Tan(asFloat(a[0]))) })
	pureUnary("acos", func(a []Value) Value { return Float(math.Acos(asFloat(a[0]))) })
	pureUnary("asin", func(a []Value) Value { return Float(math.Asin(asFloat(a[0]))) })
	pureUnary("atan", func(a []Value) Value { return Float(math.Atan(asFloat(a[0]))) })
	pureBinary("pow", func(a []Value) Value {
		if bi, ok := a[0].(Int); ok {
			if ei, ok := a[1].(Int); ok {
				return Int(intPow(int64(bi), int64(ei)))
			}
		}
		return Float(math.Pow(asFloat(a[0]), asFloat(a[1])))
	})
	add(func([]Value) Value { return Float(math.Pi) }, genericReverse(func([]Value) Value { return Float(math.Pi) }), genericInverse(0))
	add(func([]Value) Value { return Float(math.E) }, genericReverse(func([]Value) Value { return Float(math.E) }), genericInverse(0))

	// Quantum gates: hadamard/sigx/sigy/sigz are self-inverse, so their
	// Inverse handler restores the operand and re-applies the same gate
	// to cancel the Reverse pass's application. rx/ry/rz/phase/phaseby
	// undo by re-applying with the angle negated.
	selfInverseGate := func(apply func(*QuReg)) (nativeRegular, nativeReverse, nativeInverse) {
		regular := func(a []Value) Value { q := asQuReg(a[0]); apply(q); return q }
		reverse := genericReverse(regular)
		inverse := func(aux *[]Value) []Value {
			restored := genericInverse(1)(aux)
			apply(asQuReg(restored[0]))
			return restored
		}
		return regular, reverse, inverse
	}
	{
		r, rv, iv := selfInverseGate(func(q *QuReg) { q.Hadamard() })
		add(r, rv, iv)
	}
	{
		r, rv, iv := selfInverseGate(func(q *QuReg) { q.SigX() })
		add(r, rv, iv)
	}
	{
		r, rv, iv := selfInverseGate(func(q *QuReg) { q.SigY() })
		add(r, rv, iv)
	}
	{
		r, rv, iv := selfInverseGate(func(q *QuReg) { q.SigZ() })
		add(r, rv, iv)
	}

	angleGate := func(apply func(*QuReg, float32)) (nativeRegular, nativeReverse, nativeInverse) {
		regular := func(a []Value) Value {
			q := asQuReg(a[0])
			apply(q, numToFloat32(a[1]))
			return q
		}
		reverse := genericReverse(regular)
		inverse := func(aux *[]Value) []Value {
			restored := genericInverse(2)(aux)
			apply(asQuReg(restored[0]), -numToFloat32(restored[1]))
			return restored
		}
		return regular, reverse, inverse
	}
	{
		r, rv, iv := angleGate(func(q *QuReg, g float32) { q.RotateX(g) })
		add(r, rv, iv)
	}
	{
		r, rv, iv := angleGate(func(q *QuReg, g float32) { q.RotateY(g) })
		add(r, rv, iv)
	}
	{
		r, rv, iv := angleGate(func(q *QuReg, g float32) { q.RotateZ(g) })
		add(r, rv, iv)
	}
	{
		// "phase" is declared arity 2 alongside rx/ry/rz/phaseby (see
		// DESIGN.md); it behaves exactly like phaseby rather than
		// QuReg.Phase's fixed pi/2 shortcut.
		r, rv, iv := angleGate(func(q *QuReg, g float32) { q.PhaseBy(g) })
		add(r, rv, iv)
	}
	{
		r, rv, iv := angleGate(func(q *QuReg, g float32) { q.PhaseBy(g) })
		add(r, rv, iv)
	}

	// Controlled gates and the boolean combinator family: left
	// non-reversible at the call level (see DESIGN.md) — they are
	// themselves the reversible primitives a program composes manually
	// (all/iall, and/iand, ...), not a form meant to be wrapped again by
	// a with-block's own reverse/inverse machinery.
	nonRev("cnot", func(a []Value) Value { q := asQuReg(a[0]); q.Cnot(asQuReg(a[1])); return q })
	nonRev("cflip", func(a []Value) Value { q := asQuReg(a[0]); q.CFlip(asQuReg(a[1])); return q })
	nonRev("toffoli", func(a []Value) Value {
		q := asQuReg(a[0])
		q.Toffoli(asQuReg(a[1]), asQuReg(a[2]))
		return q
	})
	nonRev("cphase", func(a []Value) Value { q := asQuReg(a[0]); q.CondPhase(asQuReg(a[1])); return q })
	nonRev("cphaseby", func(a []Value) Value {
		q := asQuReg(a[0])
		q.CondPhaseBy(asQuReg(a[1]), numToFloat32(a[2]))
		return q
	})

	nonRev("all", func(a []Value) Value { return asQuReg(a[0]).All() })
	nonRev("any", func(a []Value) Value { return asQuReg(a[0]).Any() })
	nonRev("not", func(a []Value) Value { return asQuReg(a[0]).Not() })
	nonRev("and", func(a []Value) Value { return asQuReg(a[0]).And(asQuReg(a[1])) })
	nonRev("or", func(a []Value) Value { return asQuReg(a[0]).Or(asQuReg(a[1])) })
	nonRev("iall", func(a []Value) Value {
		orig := asQuReg(a[0])
		scratchView(orig.reg).IAll(orig)
		return Null{}
	})
	nonRev("iany", func(a []Value) Value {
		orig := asQuReg(a[0])
		scratchView(orig.reg).IAny(orig)
		return Null{}
	})
	nonRev("inot", func(a []Value) Value {
		orig := asQuReg(a[0])
		scratchView(orig.reg).INot(orig)
		return Null{}
	})
	nonRev("iand", func(a []Value) Value {
		c1, c2 := asQuReg(a[0]), asQuReg(a[1])
		scratchView(c1.reg).IAnd(c1, c2)
		return Null{}
	})
	nonRev("ior", func(a []Value) Value {
		c1, c2 := asQuReg(a[0]), asQuReg(a[1])
		scratchView(c1.reg).IOr(c1, c2)
		return Null{}
	})

	nonRev("measure", func(a []Value) Value { return Int(asQuReg(a[0]).Measure()) })

	nonRev("qft", func(a []Value) Value { q := asQuReg(a[0]); q.QFT(); return q })
	nonRev("qftinv", func(a []Value) Value { q := asQuReg(a[0]); q.QFTInv(); return q })
	nonRev("walsh", func(a []Value) Value { q := asQuReg(a[0]); q.Walsh(); return q })

	return d
}
