package compiler

import "fmt"

// label is an unresolved bytecode position, reserved by label() and
// resolved to a concrete instruction index by bind() (spec.md §4.2
// "Function builder").
type label int

// funcBuilder is an append-only instruction buffer for a single function,
// together with its local environment. Labels let control-flow
// instructions (Jump, Branch) be emitted before the position they target
// is known; resolve() performs the single backpatching pass.
type funcBuilder struct {
	name  string
	arity int
	env   *localEnv

	instrs []Instr
	// labelPos[l] is the bound position of label l (meaningful only if
	// labelBound[l] is true).
	labelPos   []int
	labelBound []bool
}

func newFuncBuilder(name string, arity int) *funcBuilder {
	return &funcBuilder{name: name, arity: arity, env: newLocalEnv()}
}

// label reserves a new, unbound label.
func (b *funcBuilder) label() label {
	b.labelPos = append(b.labelPos, 0)
	b.labelBound = append(b.labelBound, false)
	return label(len(b.labelPos) - 1)
}

// bind records that l resolves to the position of the most recently
// emitted instruction (i.e. len(instrs)-1, or -1 if nothing has been
// emitted yet in this function). This matches the original interpreter's
// own bind (`let pos = self.pos()-1`), not a literal "next instruction"
// reading of spec.md's prose: resolve()'s "+1" compensation in the
// original source is calibrated against *this* position, one behind the
// label's actual target, not against the target itself — see funcbuilder
// resolve() and original_source/src/backend/compiler.rs's `fn bind`.
func (b *funcBuilder) bind(l label) {
	b.labelPos[l] = len(b.instrs) - 1
	b.labelBound[l] = true
}

// emit appends instr and returns its position.
func (b *funcBuilder) emit(instr Instr) int {
	b.instrs = append(b.instrs, instr)
	return len(b.instrs) - 1
}

// emitBranch emits a Jump or Branch instruction targeting label l. The
// label id is stashed in Arg until resolve() rewrites it to a signed
// offset.
func (b *funcBuilder) emitBranch(op Opcode, l label) int {
	return b.emit(Instr{Op: op, Arg: int(l)})
}

// resolve rewrites every Jump/Branch instruction's Arg from a label id to
// a signed offset relative to (its own position + 1): operand = labelPos -
// ownPos + 1. The "+1" compensates for the interpreter skipping its
// trailing pc += 1 when it takes a branch (see spec.md §4.2, §4.3, and
// property 2 of §8). Encountering an unbound label here is an internal
// compiler bug, not a user-facing error, so it panics.
func (b *funcBuilder) resolve() {
	for pos, instr := range b.instrs {
		if instr.Op != Jump && instr.Op != Branch {
			continue
		}
		l := label(instr.Arg)
		if !b.labelBound[l] {
			panic(fmt.Sprintf("compiler: unresolved label %d in function %q", l, b.name))
		}
		b.instrs[pos].Arg = b.labelPos[l] - pos + 1
	}
}
