// Much of the machine package's overall shape — Thread/frame, a single
// switch-dispatch loop, a Value interface implemented by small concrete
// value types — is adapted from a Starlark-style interpreter. The value
// model and instruction set here are QScript's own: a closed set of
// eight tags instead of an open, interface-heavy value hierarchy. See
// DESIGN.md.
package machine

import (
	"fmt"

	"github.com/mna/qscript/lang/compiler"
)

// Value is the interface implemented by every runtime value a frame's
// slots, the main stack, or the a0 register may hold.
type Value interface {
	String() string
	Type() string
}

// Null is the singleton null value: used to clear slots and as the zero
// value of a freshly allocated local.
type Null struct{}

func (Null) String() string { return "null" }
func (Null) Type() string   { return "null" }

// Addr is a VM-internal saved address (return pc or frame pointer). It is
// never constructed by user-facing bytecode and never observable from
// QScript source — only the interpreter's own call/return bookkeeping
// produces one.
type Addr uint64

func (a Addr) String() string { return fmt.Sprintf("<addr %d>", uint64(a)) }
func (Addr) Type() string     { return "addr" }

// Int is a 64-bit signed integer value.
type Int int64

func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }
func (Int) Type() string     { return "int" }

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Float is a 64-bit floating point value.
type Float float64

func (f Float) String() string { return fmt.Sprintf("%g", float64(f)) }
func (Float) Type() string     { return "float" }

// Func is a function value: the callable token of either a native
// intrinsic or a user-defined function in the program's call table.
type Func struct {
	Token compiler.FunctionToken
}

func (f Func) String() string { return fmt.Sprintf("<func %d>", f.Token) }
func (Func) Type() string     { return "func" }

// asInt, asFloat, asBool, asFunc, asAddr, asArray and asQuReg form a cast
// family that is total on its advertised set of source tags and panics
// on any other tag. A mismatch here is an interpreter/compiler defect,
// not a user-facing error, so these panic rather than return an error.

func asInt(v Value) int64 {
	i, ok := v.(Int)
	if !ok {
		panic(fmt.Sprintf("type error: expected int, got %s", v.Type()))
	}
	return int64(i)
}

func asFloat(v Value) float64 {
	switch x := v.(type) {
	case Float:
		return float64(x)
	case Int:
		return float64(x)
	}
	panic(fmt.Sprintf("type error: expected float, got %s", v.Type()))
}

func asBool(v Value) bool {
	b, ok := v.(Bool)
	if !ok {
		panic(fmt.Sprintf("type error: expected bool, got %s", v.Type()))
	}
	return bool(b)
}

func asFunc(v Value) compiler.FunctionToken {
	f, ok := v.(Func)
	if !ok {
		panic(fmt.Sprintf("type error: expected func, got %s", v.Type()))
	}
	return f.Token
}

func asAddr(v Value) uint64 {
	a, ok := v.(Addr)
	if !ok {
		panic(fmt.Sprintf("type error: expected addr, got %s", v.Type()))
	}
	return uint64(a)
}

func asArray(v Value) *Array {
	a, ok := v.(*Array)
	if !ok {
		panic(fmt.Sprintf("type error: expected array, got %s", v.Type()))
	}
	return a
}

func asQuReg(v Value) *QuReg {
	q, ok := v.(*QuReg)
	if !ok {
		panic(fmt.Sprintf("type error: expected qureg, got %s", v.Type()))
	}
	return q
}

// isNumeric reports whether v is Int or Float, the two tags arithmetic
// dispatch promotes between.
func isNumeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

func isFloat(v Value) bool {
	_, ok := v.(Float)
	return ok
}
