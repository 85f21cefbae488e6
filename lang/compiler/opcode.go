// Package compiler lowers a QScript AST into the bytecode Program that the
// machine package executes. It is adapted from a Starlark-flavored
// lang/compiler package, keeping its shape — a function builder with
// labels and a resolve pass, a lexical local environment, a function
// registry, and an asm/dasm textual form for testing — but replacing its
// compiler with QScript's own three-mode (regular/reverse/inverse) one.
package compiler

import "github.com/mna/qscript/lang/ast"

// Opcode identifies a bytecode instruction.
type Opcode uint8

const ( //nolint:revive
	Null Opcode = iota
	IntOp
	FloatOp
	BoolOp
	FuncOp
	ArrayOp
	Op1
	Op2
	Op3
	CallOp
	ReturnOp
	Discard
	PutLocal
	GetLocal
	Jump
	Branch
	PrintOp
)

var opcodeNames = [...]string{
	Null:     "null",
	IntOp:    "int",
	FloatOp:  "float",
	BoolOp:   "bool",
	FuncOp:   "func",
	ArrayOp:  "array",
	Op1:      "op1",
	Op2:      "op2",
	Op3:      "op3",
	CallOp:   "call",
	ReturnOp: "return",
	Discard:  "discard",
	PutLocal: "putlocal",
	GetLocal: "getlocal",
	Jump:     "jump",
	Branch:   "branch",
	PrintOp:  "print",
}

func (op Opcode) String() string {
	if int(op) >= 0 && int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "illegal opcode"
}

// Kind distinguishes the three compilation/execution modes: ordinary
// execution, the reverse pass of a `with` predicate (which also records
// inputs onto the aux stack), and the inverse pass (which consumes the
// aux stack to undo the reverse pass).
type Kind uint8

const (
	Regular Kind = iota
	Reverse
	Inverse
)

var kindNames = [...]string{Regular: "regular", Reverse: "reverse", Inverse: "inverse"}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "illegal kind"
}

// TriOp is the operator tag carried by an Op3 instruction. Put is the only
// ternary operator the ISA defines; the compiler in this repository never
// emits Op3 directly (Put is sugar for a call to the `put` intrinsic),
// but the instruction is kept in the ISA and executable by the machine
// for completeness and for the asm test harness.
type TriOp uint8

const (
	Put TriOp = iota
)

func (op TriOp) String() string {
	if op == Put {
		return "put"
	}
	return "illegal triop"
}

// Instr is a single bytecode instruction. Only the fields relevant to Op
// are meaningful; this mirrors a tagged-union instruction representation
// without resorting to an encoded byte stream, since the bytecode has no
// need to be compact or binary-serializable — persistence of compiled
// programs is out of scope, and the asm textual form exists purely for
// tests.
type Instr struct {
	Op Opcode

	// Kind applies to Op1, Op2, Op3 and Call.
	Kind Kind

	// UnOp applies to Op1.
	UnOp ast.UnOp
	// BinOp applies to Op2.
	BinOp ast.BinOp
	// TriOp applies to Op3.
	TriOp TriOp

	// IntVal, FloatVal, BoolVal, FuncVal hold the literal operand of Int,
	// Float, Bool and Func instructions, respectively.
	IntVal   int64
	FloatVal float64
	BoolVal  bool
	FuncVal  FunctionToken

	// Arg is the generic integer operand: element count for Array, arity
	// for Call, locals-to-discard for Return, slot index for
	// PutLocal/GetLocal, signed offset for Jump/Branch, argument count for
	// Print.
	Arg int

	// Fmt is the format-string token for Print.
	Fmt uint32
}
