package machine

import (
	"fmt"

	"github.com/mna/qscript/lang/quantum"
)

// QuReg is a view (start, end, scratch) over a shared lang/quantum
// Register. The rawStart/rawEnd address translation, the Barenco et al.
// cnotHalf decomposition, and the boolean-combinator family below mirror
// a reference quantum-register runtime's qureg logic, ported into Go and
// sharing the underlying register by a plain Go pointer rather than a
// Rc<RefCell<..>>, since the interpreter is single-threaded.
type QuReg struct {
	reg        *quantum.Register
	start, end int
	scratch    bool
}

// NewQuReg allocates a brand new underlying register of s qubits set to
// init, the behavior of the qalloc(n, init) intrinsic.
func NewQuReg(s int, init int64) *QuReg {
	return &QuReg{reg: quantum.New(s, uint64(init)), start: 0, end: s}
}

func (q *QuReg) String() string { return fmt.Sprintf("<qureg %d:%d>", q.start, q.end) }
func (*QuReg) Type() string     { return "qureg" }

// Len returns the number of qubits in this view.
func (q *QuReg) Len() int { return q.end - q.start }

func (q *QuReg) qubit() bool { return q.Len() == 1 }

// rawStart and rawEnd translate this view's (start, end, scratch)
// coordinates into the underlying register's raw qubit indices. Scratch
// qubits are always prepended at the low end of the register by
// AddScratch, so the most recently allocated scratch view always sits at
// raw index 0 — see lang/quantum.Register.AddScratch/RemoveScratch.
func (q *QuReg) rawStart() int {
	if q.scratch {
		return q.reg.Scratch() - q.start - 1
	}
	return q.start + q.reg.Scratch()
}

func (q *QuReg) rawEnd() int {
	if q.scratch {
		return q.reg.Scratch() - q.end + 1
	}
	return q.end + q.reg.Scratch()
}

// Get returns a single-qubit view at view-relative index idx.
func (q *QuReg) Get(idx int) *QuReg {
	if idx < 0 || idx >= q.Len() {
		panic(fmt.Sprintf("invalid index %d into qureg of length %d", idx, q.Len()))
	}
	return q.Slice(idx, idx+1)
}

// Slice returns a sub-range view [lo, hi) sharing the same register.
func (q *QuReg) Slice(lo, hi int) *QuReg {
	if lo >= hi || hi > q.Len() {
		panic(fmt.Sprintf("invalid slice [%d:%d] of qureg of length %d", lo, hi, q.Len()))
	}
	return &QuReg{reg: q.reg, start: q.start + lo, end: q.start + hi, scratch: q.scratch}
}

func (q *QuReg) toSlice() []*QuReg {
	v := make([]*QuReg, q.Len())
	for i := range v {
		v[i] = q.Get(i)
	}
	return v
}

func (q *QuReg) overlaps(other *QuReg) bool {
	return q.rawStart() < other.rawEnd() && other.rawStart() < q.rawEnd()
}

func (q *QuReg) sameRegister(other *QuReg) bool { return q.reg == other.reg }

func forEachRaw(q *QuReg, f func(i int)) {
	for i := q.rawStart(); i < q.rawEnd(); i++ {
		f(i)
	}
}

// Hadamard, SigX, SigY, SigZ apply their gate across every raw qubit in
// this view.
func (q *QuReg) Hadamard() { forEachRaw(q, q.reg.Hadamard) }
func (q *QuReg) SigX()     { forEachRaw(q, q.reg.SigmaX) }
func (q *QuReg) SigY()     { forEachRaw(q, q.reg.SigmaY) }
func (q *QuReg) SigZ()     { forEachRaw(q, q.reg.SigmaZ) }

func (q *QuReg) RotateX(gamma float32) { forEachRaw(q, func(i int) { q.reg.RotateX(i, gamma) }) }
func (q *QuReg) RotateY(gamma float32) { forEachRaw(q, func(i int) { q.reg.RotateY(i, gamma) }) }
func (q *QuReg) RotateZ(gamma float32) { forEachRaw(q, func(i int) { q.reg.RotateZ(i, gamma) }) }
func (q *QuReg) Phase()                { forEachRaw(q, q.reg.Phase) }
func (q *QuReg) PhaseBy(gamma float32) { forEachRaw(q, func(i int) { q.reg.PhaseBy(i, gamma) }) }

// cnotHalf is the O(n) many-controlled-NOT building block of Barenco et
// al., ported directly from QuRegObject::cnot_half.
func cnotHalf(target *QuReg, dummy, control []*QuReg) {
	n := len(control)
	switch {
	case n == 1:
		target.cnot1(control[0])
		return
	case n == 2:
		target.toffoli1(control[0], control[1])
		return
	}
	target.toffoli1(dummy[0], control[0])
	for i := 0; i < n-3; i++ {
		dummy[i].toffoli1(dummy[i+1], control[i])
	}
	dummy[n-3].toffoli1(control[n-1], control[n-2])
	for i := n - 4; i >= 0; i-- {
		dummy[i].toffoli1(dummy[i+1], control[i])
	}
	target.toffoli1(dummy[0], control[0])
	for i := 0; i < n-3; i++ {
		dummy[i].toffoli1(dummy[i+1], control[i])
	}
	dummy[n-3].toffoli1(control[n-1], control[n-2])
	for i := n - 4; i >= 0; i-- {
		dummy[i].toffoli1(dummy[i+1], control[i])
	}
}

// cnot1 and toffoli1 apply the raw single-qubit-target CNOT/Toffoli gate
// directly, assuming receiver and operands are each exactly one qubit;
// they back cnotHalf's recursion and Cnot/Toffoli's single/double control
// fast paths.
func (q *QuReg) cnot1(control *QuReg) {
	q.reg.Cnot(control.rawStart(), q.rawStart())
}

func (q *QuReg) toffoli1(c1, c2 *QuReg) {
	q.reg.Toffoli(c1.rawStart(), c2.rawStart(), q.rawStart())
}

// Cnot applies a (possibly many-qubit) controlled-NOT: every qubit of q
// is flipped conditioned on control. For a single control qubit this is
// a plain CNOT per target qubit; for exactly two it is a Toffoli; for
// more, the Barenco et al. decomposition is used, with one borrowed
// scratch qubit as workspace.
func (q *QuReg) Cnot(control *QuReg) {
	if !q.sameRegister(control) {
		panic("cnot: target and control must share the same register")
	}
	if q.overlaps(control) {
		panic("cnot: target and control views overlap")
	}
	switch {
	case control.qubit():
		forEachRaw(q, func(i int) { q.reg.Cnot(control.rawStart(), i) })
		return
	case control.Len() == 2:
		c0 := control.rawStart()
		forEachRaw(q, func(i int) { q.reg.Toffoli(c0, c0+1, i) })
		return
	case control.Len() < 1:
		panic("cnot: zero-length control register")
	}

	work := q.AddScratch()
	k := control.Len()
	m := (2 + k) / 2
	half1 := control.Slice(0, k-m).toSlice()
	half2 := control.Slice(k-m, k).toSlice()
	for i := 0; i < q.Len(); i++ {
		bit := q.Get(i)
		half1 = append(half1, bit)
		cnotHalf(work, half1, half2)
		bit = half1[len(half1)-1]
		half1 = half1[:len(half1)-1]
		half1 = append(half1, work)
		cnotHalf(bit, half2, half1)
		work = half1[len(half1)-1]
		half1 = half1[:len(half1)-1]
		half1 = append(half1, bit)
		cnotHalf(work, half1, half2)
		bit = half1[len(half1)-1]
		half1 = half1[:len(half1)-1]
		half1 = append(half1, work)
		cnotHalf(bit, half2, half1)
		work = half1[len(half1)-1]
		half1 = half1[:len(half1)-1]
	}
	work.RemoveScratch()
}

// Toffoli applies a doubly-controlled NOT; receiver and both controls
// must each be a single qubit.
func (q *QuReg) Toffoli(c1, c2 *QuReg) {
	if !q.sameRegister(c1) || !q.sameRegister(c2) {
		panic("toffoli: operands must share the same register")
	}
	if !q.qubit() || !c1.qubit() || !c2.qubit() {
		panic("toffoli: all operands must be single qubits")
	}
	if q.overlaps(c1) || q.overlaps(c2) {
		panic("toffoli: operand views overlap")
	}
	q.reg.Toffoli(c1.rawStart(), c2.rawStart(), q.rawStart())
}

// CondPhase and CondPhaseBy apply a controlled-Z / controlled phase
// between two single qubits.
func (q *QuReg) CondPhase(control *QuReg) {
	q.assertControlledPair(control)
	q.reg.CondPhase(control.rawStart(), q.rawStart())
}

func (q *QuReg) CondPhaseBy(control *QuReg, gamma float32) {
	q.assertControlledPair(control)
	q.reg.CondPhaseBy(control.rawStart(), q.rawStart(), gamma)
}

func (q *QuReg) assertControlledPair(control *QuReg) {
	if !q.sameRegister(control) {
		panic("controlled gate: operands must share the same register")
	}
	if !q.qubit() || !control.qubit() {
		panic("controlled gate: operands must be single qubits")
	}
	if q.overlaps(control) {
		panic("controlled gate: operand views overlap")
	}
}

// CFlip is a controlled bit-flip in the Hadamard basis: hadamard,
// controlled-NOT, hadamard.
func (q *QuReg) CFlip(control *QuReg) {
	q.Hadamard()
	q.Cnot(control)
	q.Hadamard()
}

// scratchView returns a view over reg's most recently allocated scratch
// qubit, without growing the register. It backs the iall/iany/inot/iand/ior
// intrinsics, which name only the original operand(s) and rely on the
// scratch-LIFO invariant to find the matching scratch qubit implicitly
// rather than threading it through as an extra argument.
func scratchView(reg *quantum.Register) *QuReg {
	n := reg.Scratch()
	if n == 0 {
		panic("scratch: no live scratch qubit")
	}
	return &QuReg{reg: reg, start: n - 1, end: n, scratch: true}
}

// AddScratch grows the underlying register by one qubit initialized to
// |0> and returns a scratch view over it.
func (q *QuReg) AddScratch() *QuReg {
	if q.reg.Width() >= quantum.MaxWidth {
		panic(fmt.Sprintf("qureg: register already at the %d-qubit width cap", quantum.MaxWidth))
	}
	q.reg.AddScratch(1)
	n := q.reg.Scratch()
	return &QuReg{reg: q.reg, start: n - 1, end: n, scratch: true}
}

// RemoveScratch frees this view's scratch qubit in LIFO order, fatally
// erroring if it is not the most recently allocated scratch or if its
// measured value is not zero.
func (q *QuReg) RemoveScratch() {
	if !q.scratch {
		panic("remove_scratch: not a scratch view")
	}
	if !q.qubit() {
		panic("remove_scratch: scratch reference must be a single qubit")
	}
	if q.end != q.reg.Scratch() {
		panic(fmt.Sprintf("scratch qubit %d deleted out of order", q.start))
	}
	q.reg.RemoveScratch()
}

// Measure collapses and returns the integer value of this view's qubits.
func (q *QuReg) Measure() int64 {
	return int64(q.reg.MeasurePartial(q.rawStart(), q.rawEnd()))
}

// QFT, QFTInv and Walsh apply the corresponding transform across this
// view's own qubits, backing the qft/qftinv/walsh intrinsics.
func (q *QuReg) QFT() {
	if q.reg.Scratch() != 0 {
		panic("qft: not supported on a register with live scratch qubits")
	}
	q.reg.QFT(q.Len())
}

func (q *QuReg) QFTInv() {
	if q.reg.Scratch() != 0 {
		panic("qftinv: not supported on a register with live scratch qubits")
	}
	q.reg.QFTInv(q.Len())
}

func (q *QuReg) Walsh() {
	if q.reg.Scratch() != 0 {
		panic("walsh: not supported on a register with live scratch qubits")
	}
	forEachRaw(q, q.reg.Hadamard)
}

// DebugString exposes the underlying simulator's amplitude-vector debug
// string.
func (q *QuReg) DebugString() string { return q.reg.DebugString() }

// All, Any, Not, And, Or are the reversible boolean combinators, each
// allocating a scratch qubit to hold their result. Their I-prefixed
// counterparts consume and uncompute that scratch qubit.

func (q *QuReg) All() *QuReg {
	scratch := q.AddScratch()
	scratch.Cnot(q)
	return scratch
}

func (q *QuReg) IAll(orig *QuReg) {
	q.Cnot(orig)
	q.RemoveScratch()
}

func (q *QuReg) Any() *QuReg {
	scratch := q.AddScratch()
	q.SigX()
	scratch.Cnot(q)
	q.SigX()
	scratch.SigX()
	return scratch
}

func (q *QuReg) IAny(orig *QuReg) {
	q.SigX()
	orig.SigX()
	q.Cnot(orig)
	orig.SigX()
	q.RemoveScratch()
}

func (q *QuReg) Not() *QuReg {
	scratch := q.AddScratch()
	scratch.Cnot(q)
	scratch.SigX()
	return scratch
}

func (q *QuReg) INot(orig *QuReg) {
	q.SigX()
	q.Cnot(orig)
	q.RemoveScratch()
}

func (q *QuReg) And(other *QuReg) *QuReg {
	scratch := q.AddScratch()
	scratch.Toffoli(q, other)
	return scratch
}

func (q *QuReg) IAnd(c1, c2 *QuReg) {
	q.Toffoli(c1, c2)
	q.RemoveScratch()
}

func (q *QuReg) Or(other *QuReg) *QuReg {
	scratch := q.AddScratch()
	scratch.Cnot(q)
	scratch.Cnot(other)
	scratch.Toffoli(q, other)
	return scratch
}

func (q *QuReg) IOr(c1, c2 *QuReg) {
	q.Toffoli(c1, c2)
	q.Cnot(c2)
	q.Cnot(c1)
	q.RemoveScratch()
}
