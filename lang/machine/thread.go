package machine

import (
	"fmt"
	"io"
	"os"

	"github.com/mna/qscript/lang/compiler"
	"github.com/mna/qscript/lang/stringtable"
)

// Thread is one execution of a compiled Program: its I/O and the live
// call stack of frame linkage. Adapted from a Starlark-style Thread,
// trimmed down to a single-threaded, cooperative run with no
// cancellation, no timeouts and no step budget: the interpreter is an
// ordinary function that returns only via the top-level Return
// instruction. Module loading, recursion/compare-depth guards and
// context-driven cancellation have no counterpart here and are dropped
// rather than carried forward unused.
type Thread struct {
	// Name is an optional name describing the thread, for debugging.
	Name string

	// Stdout and Stderr back the Print instruction and any runtime error
	// reporting. If nil, os.Stdout and os.Stderr are used.
	Stdout io.Writer
	Stderr io.Writer

	// Strings resolves the Fmt token of a Print instruction back to its
	// literal format text. It must be the same table the program was
	// compiled against.
	Strings *stringtable.Table

	callStack []frame

	stdout io.Writer
	stderr io.Writer
}

func (th *Thread) init() {
	if th.Stdout != nil {
		th.stdout = th.Stdout
	} else {
		th.stdout = os.Stdout
	}
	if th.Stderr != nil {
		th.stderr = th.Stderr
	} else {
		th.stderr = os.Stderr
	}
}

// RunProgram executes p from its entry point to completion, returning the
// value left in a0 by the top-level Return. A fatal runtime error (arity
// mismatch, type mismatch on a cast, overlapping qubit views, width-cap
// overflow, out-of-order or dirty scratch release, aliased array
// mutation, ...) surfaces here as an error rather than a panic; no partial
// state is meant to be observed afterward, so the thread must not be
// reused once RunProgram returns an error.
func (th *Thread) RunProgram(p *compiler.Program) (result Value, err error) {
	th.init()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return run(th, p), nil
}
