package compiler

// FunctionToken identifies a callable in the unified function-token space:
// tokens below NumIntrinsics name a native intrinsic (see intrinsics.go),
// tokens at or above it index into a Program's CallTable (spec.md §3, §6).
type FunctionToken uint32

// IsNative reports whether ft names a native intrinsic rather than a
// user-defined function.
func (ft FunctionToken) IsNative() bool { return int(ft) < NumIntrinsics }

// NativeIndex returns ft's index into Intrinsics. It is only meaningful
// when ft.IsNative().
func (ft FunctionToken) NativeIndex() int { return int(ft) }

// CallIndex returns ft's index into a Program's CallTable. It is only
// meaningful when !ft.IsNative().
func (ft FunctionToken) CallIndex() int { return int(ft) - NumIntrinsics }

// FunctionEntry describes a compiled, user-defined function: where its code
// begins in the owning Program's flat Instrs stream, how many arguments it
// takes, and how many local slots its frame needs (arguments occupy the
// first Arity of those Locals slots; see spec.md §4.3 "Call dispatch").
type FunctionEntry struct {
	Name   string
	Addr   int
	Arity  int
	Locals int
}

// Program is the compiled output: a single flat instruction stream shared
// by every function (so a Jump/Branch offset or a saved return address is
// just an int index into Instrs), plus the call table for user-defined
// functions. Native intrinsics are not part of CallTable; they are
// resolved by FunctionToken.NativeIndex into the machine's own handler
// table, built from the same Intrinsics list this package exports.
//
// Persisting a Program to or from a file is explicitly out of scope (see
// spec.md's Non-goals); the asm/dasm textual form in asm.go exists purely
// as a test and debugging harness, in the spirit of the teacher's own
// asm.go.
type Program struct {
	Instrs    []Instr
	CallTable []FunctionEntry
	// EntryPoint is the Instrs index where top-level (non-function) code
	// begins executing.
	EntryPoint int
}
