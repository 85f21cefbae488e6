package machine

import (
	"fmt"
	"math"

	"github.com/mna/qscript/lang/ast"
	"github.com/mna/qscript/lang/compiler"
)

func floatPow(base, exp float64) float64 { return math.Pow(base, exp) }

// truthy coerces v to a Go bool the way Not/And/Or do: Bool passes
// through, everything else panics. QScript has no implicit truthiness
// across types (that's Starlark's rule, not this language's), so unlike
// asFloat there is no promotion here.
func truthy(v Value) bool { return asBool(v) }

// toInt coerces v to an int64 for the bitwise operators: Int passes
// through, Float truncates toward zero, anything else panics.
func toInt(v Value) int64 {
	switch x := v.(type) {
	case Int:
		return int64(x)
	case Float:
		return int64(x)
	}
	panic(fmt.Sprintf("type error: expected int or float, got %s", v.Type()))
}

// execUnOp applies op to a0. Every unary operator is self-inverse, so
// the instruction's Kind is ignored here.
func execUnOp(op ast.UnOp, a0 Value) Value {
	switch op {
	case ast.Neg:
		switch x := a0.(type) {
		case Int:
			return Int(-x)
		case Float:
			return Float(-x)
		}
		panic(fmt.Sprintf("neg: expected int or float, got %s", a0.Type()))
	case ast.Not:
		if q, ok := a0.(*QuReg); ok {
			q.SigX()
			return q
		}
		return Bool(!truthy(a0))
	case ast.BitNot:
		return Int(^toInt(a0))
	default:
		panic(fmt.Sprintf("machine: unhandled unary op %v", op))
	}
}

// execBinOp applies op to the pair (t0, a0) where t0 is main's current
// top (the left operand) and a0 is the right operand. Regular just
// computes and replaces a0. Reverse additionally records (t0, a0) onto
// aux, oldest-operand-first, so Inverse can restore them: Inverse
// ignores the stale a0 left over from the Reverse pass, pops the
// recorded right operand back into a0 and the recorded left operand back
// onto main.
func execBinOp(kind compiler.Kind, op ast.BinOp, a0 Value, main *[]Value, aux *[]Value) Value {
	if kind == compiler.Inverse {
		n := len(*aux)
		left, right := (*aux)[n-2], (*aux)[n-1]
		*aux = (*aux)[:n-2]
		*main = append(*main, left)
		return right
	}

	m := *main
	t0 := m[len(m)-1]
	*main = m[:len(m)-1]

	if kind == compiler.Reverse {
		*aux = append(*aux, t0, a0)
	}

	return computeBinOp(op, t0, a0)
}

func computeBinOp(op ast.BinOp, left, right Value) Value {
	switch op {
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Rem, ast.Pow:
		return arith(op, left, right)
	case ast.Lt, ast.Gt, ast.Le, ast.Ge, ast.Eq, ast.Ne:
		return compare(op, left, right)
	case ast.And:
		return Bool(truthy(left) && truthy(right))
	case ast.Or:
		return Bool(truthy(left) || truthy(right))
	case ast.BAnd:
		return Int(toInt(left) & toInt(right))
	case ast.BOr:
		return Int(toInt(left) | toInt(right))
	case ast.BXor:
		return Int(toInt(left) ^ toInt(right))
	default:
		panic(fmt.Sprintf("machine: unhandled binary op %v", op))
	}
}

func arith(op ast.BinOp, left, right Value) Value {
	if !isNumeric(left) || !isNumeric(right) {
		panic(fmt.Sprintf("%v: expected numeric operands, got %s and %s", op, left.Type(), right.Type()))
	}
	if isFloat(left) || isFloat(right) {
		l, r := asFloat(left), asFloat(right)
		switch op {
		case ast.Add:
			return Float(l + r)
		case ast.Sub:
			return Float(l - r)
		case ast.Mul:
			return Float(l * r)
		case ast.Div:
			return Float(l / r)
		case ast.Rem:
			return Float(math.Mod(l, r))
		case ast.Pow:
			return Float(floatPow(l, r))
		}
	}
	l, r := asInt(left), asInt(right)
	switch op {
	case ast.Add:
		return Int(l + r)
	case ast.Sub:
		return Int(l - r)
	case ast.Mul:
		return Int(l * r)
	case ast.Div:
		return Int(l / r)
	case ast.Rem:
		return Int(l % r)
	case ast.Pow:
		return Int(intPow(l, r))
	}
	panic("unreachable")
}

func compare(op ast.BinOp, left, right Value) Value {
	var lt, eq bool
	if isNumeric(left) && isNumeric(right) {
		if isFloat(left) || isFloat(right) {
			l, r := asFloat(left), asFloat(right)
			lt, eq = l < r, l == r
		} else {
			l, r := asInt(left), asInt(right)
			lt, eq = l < r, l == r
		}
	} else if lb, ok := left.(Bool); ok {
		rb := asBool(right)
		lt, eq = !bool(lb) && bool(rb), lb == rb
	} else {
		panic(fmt.Sprintf("%v: uncomparable operands %s and %s", op, left.Type(), right.Type()))
	}
	switch op {
	case ast.Lt:
		return Bool(lt)
	case ast.Gt:
		return Bool(!lt && !eq)
	case ast.Le:
		return Bool(lt || eq)
	case ast.Ge:
		return Bool(!lt)
	case ast.Eq:
		return Bool(eq)
	case ast.Ne:
		return Bool(!eq)
	}
	panic("unreachable")
}

// execTriOp applies the single ternary operator, Put, the same way
// execBinOp applies binary ones: Regular/Reverse pop (array, index) off
// main below a0 (the value), Reverse additionally recording all three
// operands onto aux; Inverse restores them in the opposite order,
// pushing the array then the index back onto main and the value back
// into a0.
func execTriOp(kind compiler.Kind, op compiler.TriOp, a0 Value, main *[]Value, aux *[]Value) Value {
	if kind == compiler.Inverse {
		n := len(*aux)
		arr, idx, val := (*aux)[n-3], (*aux)[n-2], (*aux)[n-1]
		*aux = (*aux)[:n-3]
		*main = append(*main, arr, idx)
		return val
	}

	m := *main
	idx := m[len(m)-1]
	arr := m[len(m)-2]
	*main = m[:len(m)-2]

	if kind == compiler.Reverse {
		*aux = append(*aux, arr, idx, a0)
	}

	switch op {
	case compiler.Put:
		a := asArray(arr)
		a.SetIndex(int(asInt(idx)), a0)
		return a
	default:
		panic(fmt.Sprintf("machine: unhandled ternary op %v", op))
	}
}

// execCall dispatches a CallOp instruction. a0 must hold a Func. It
// returns the pc/fp/a0 the caller should resume with; jumped reports
// whether pc was already advanced to its target (a user-function call or
// return-style transfer) so the caller must skip its usual pc++.
func execCall(th *Thread, p *compiler.Program, instr compiler.Instr, pc, fp int, a0 Value, main *[]Value, aux *[]Value) (newPC, newFP int, newA0 Value, jumped bool) {
	ft := asFunc(a0)
	arity := instr.Arg

	if ft.IsNative() {
		idx := ft.NativeIndex()
		def := nativeDefs[idx]
		want := compiler.Intrinsics[idx].Arity
		if instr.Kind != compiler.Inverse && arity != want {
			panic(fmt.Sprintf("call: %s expects %d argument(s), got %d", compiler.Intrinsics[idx].Name, want, arity))
		}
		switch instr.Kind {
		case compiler.Inverse:
			// The call's stale result sits on main just below the Func in a0;
			// drop it before restoring the recorded arguments.
			n := len(*main)
			releaseIfHolder((*main)[n-1])
			*main = (*main)[:n-1]
			args := def.inverse(aux)
			for _, v := range args {
				*main = append(*main, v)
			}
			return pc, fp, a0, false
		case compiler.Reverse:
			args := popArgs(main, arity)
			result := def.reverse(args, aux)
			releaseConsumedArgs(args, result)
			return pc, fp, result, false
		default:
			args := popArgs(main, arity)
			result := def.regular(args)
			releaseConsumedArgs(args, result)
			return pc, fp, result, false
		}
	}

	if instr.Kind == compiler.Inverse {
		panic("call: cannot invert a user-defined function")
	}

	fe := p.CallTable[ft.CallIndex()]
	if arity != fe.Arity {
		panic(fmt.Sprintf("call: %s expects %d argument(s), got %d", fe.Name, fe.Arity, arity))
	}
	for i := 0; i < fe.Locals-fe.Arity; i++ {
		*main = append(*main, Null{})
	}
	th.callStack = append(th.callStack, frame{returnPC: pc + 1, savedFP: fp, locals: fe.Locals})
	newFP = len(*main) - fe.Locals
	return fe.Addr, newFP, Null{}, true
}

// popArgs removes the top n values off main (below a0, which the caller
// has already excluded) and returns them in left-to-right (source) order.
func popArgs(main *[]Value, n int) []Value {
	if n == 0 {
		return nil
	}
	m := *main
	args := append([]Value(nil), m[len(m)-n:]...)
	*main = m[:len(m)-n]
	return args
}

// releaseConsumedArgs balances the retain GetLocal applies when it loads
// an array: the popped copy a native call consumed in args must drop its
// reference once the call returns, unless the call handed that very same
// array back out as its result (put and the identity-preserving cases of
// cat), in which case the popped copy simply becomes the result's own
// reference and releasing it here would under-count.
func releaseConsumedArgs(args []Value, result Value) {
	for _, v := range args {
		if v != result {
			releaseIfHolder(v)
		}
	}
}
