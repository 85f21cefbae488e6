// Package quantum implements the multi-qubit register collaborator
// spec.md §1 and §6 describe as external: "a mutable multi-qubit register
// with gates, measurement, and a growable scratch area". No repo in the
// retrieved example pack ships a quantum-circuit simulator (see
// DESIGN.md), so this package is a plain complex-amplitude state-vector
// simulator built on the standard library only.
//
// Register is deliberately unaware of the view/scratch-addressing scheme
// layered over it in lang/machine (§4.5's start/end/scratch translation);
// it only knows raw qubit indices 0..width-1 and the 2^width amplitudes
// of the joint state.
package quantum

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
)

// MaxWidth is the hard cap on the number of qubits a Register may hold,
// mirroring spec.md §7's "allocating beyond the register width cap" fatal
// error: the amplitude vector has 2^width entries, so 64 is already a
// purely theoretical ceiling, never reached in practice.
const MaxWidth = 64

// Register is a simulated multi-qubit quantum register: a dense vector of
// 2^width complex amplitudes. Index i of the vector corresponds to the
// computational basis state whose bit j (from the low end) is qubit j.
//
// scratchCount tracks how many of the register's low-order qubits are
// currently allocated scratch (as opposed to ordinary, caller-visible)
// qubits. AddScratch always prepends new qubits at raw index 0, pushing
// every existing qubit — scratch or ordinary — up by one; RemoveScratch
// always retires the qubit at raw index 0. This LIFO-at-the-front
// discipline is what lets lang/machine's QuReg views recompute their raw
// address purely from (start, end, scratch) and the register's current
// scratchCount, matching original_source/src/backend/runtime/qureg.rs's
// raw_start/raw_end translation (see lang/machine/qureg.go).
type Register struct {
	width        int
	scratchCount int
	amps         []complex128
}

// New creates a register of s qubits initialized to the computational
// basis state named by init (only the low s bits of init are used).
func New(s int, init uint64) *Register {
	if s < 0 || s > MaxWidth {
		panic(fmt.Sprintf("quantum: register width %d exceeds cap of %d", s, MaxWidth))
	}
	r := &Register{width: s, amps: make([]complex128, 1<<uint(s))}
	r.amps[init&mask(s)] = 1
	return r
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

// Width returns the total number of qubits currently in the register,
// including any scratch qubits added by AddScratch.
func (r *Register) Width() int { return r.width }

// Scratch returns the number of currently allocated scratch qubits,
// occupying raw indices [0, Scratch()).
func (r *Register) Scratch() int { return r.scratchCount }

// AddScratch grows the register by n qubits, each initialized to |0>,
// prepending them at raw index 0 and shifting every existing qubit up by
// n. Prepending (rather than appending) is what keeps the most recently
// allocated scratch qubit always addressable at raw index 0, the
// invariant lang/machine/qureg.go's RemoveScratch relies on.
func (r *Register) AddScratch(n int) {
	if n <= 0 {
		panic("quantum: AddScratch requires n > 0")
	}
	if r.width+n > MaxWidth {
		panic(fmt.Sprintf("quantum: growing register to %d qubits exceeds cap of %d", r.width+n, MaxWidth))
	}
	grown := make([]complex128, len(r.amps)<<uint(n))
	for idx, a := range r.amps {
		grown[idx<<uint(n)] = a
	}
	r.amps = grown
	r.width += n
	r.scratchCount += n
}

// RemoveScratch retires the scratch qubit at raw index 0. It measures
// that qubit itself and fatally errors if the result is not zero, per
// spec.md §7's "releasing a scratch qubit whose value is not zero" fatal
// error.
func (r *Register) RemoveScratch() {
	if r.scratchCount <= 0 {
		panic("quantum: RemoveScratch called with no live scratch qubits")
	}
	if r.MeasureBit(0) {
		panic("quantum: scratch qubit released with non-zero value")
	}
	shrunk := make([]complex128, len(r.amps)>>1)
	for idx := range shrunk {
		shrunk[idx] = r.amps[idx<<1]
	}
	r.amps = shrunk
	r.width--
	r.scratchCount--
}

// apply1 applies a single-qubit 2x2 unitary (given row-major, [a b; c d])
// to qubit i across every basis state pair that differs only in bit i.
func (r *Register) apply1(i int, a, b, c, d complex128) {
	bit := uint64(1) << uint(i)
	for idx := range r.amps {
		if uint64(idx)&bit != 0 {
			continue
		}
		j := idx | int(bit)
		x, y := r.amps[idx], r.amps[j]
		r.amps[idx] = a*x + b*y
		r.amps[j] = c*x + d*y
	}
}

const invSqrt2 = 0.7071067811865476

// Hadamard applies the Hadamard gate to qubit i.
func (r *Register) Hadamard(i int) {
	r.apply1(i, invSqrt2, invSqrt2, invSqrt2, -invSqrt2)
}

// SigmaX applies the Pauli-X (bit flip) gate to qubit i.
func (r *Register) SigmaX(i int) {
	r.apply1(i, 0, 1, 1, 0)
}

// SigmaY applies the Pauli-Y gate to qubit i.
func (r *Register) SigmaY(i int) {
	r.apply1(i, 0, -1i, 1i, 0)
}

// SigmaZ applies the Pauli-Z (phase flip) gate to qubit i.
func (r *Register) SigmaZ(i int) {
	r.apply1(i, 1, 0, 0, -1)
}

// RotateX rotates qubit i by angle gamma (truncated to float32 per
// spec.md §4.5) around the X axis.
func (r *Register) RotateX(i int, gamma float32) {
	t := complex128(complex(float64(gamma)/2, 0))
	c, s := cmplx.Cos(t), cmplx.Sin(t)
	r.apply1(i, c, -1i*s, -1i*s, c)
}

// RotateY rotates qubit i by angle gamma around the Y axis.
func (r *Register) RotateY(i int, gamma float32) {
	t := complex128(complex(float64(gamma)/2, 0))
	c, s := cmplx.Cos(t), cmplx.Sin(t)
	r.apply1(i, c, -s, s, c)
}

// RotateZ rotates qubit i by angle gamma around the Z axis.
func (r *Register) RotateZ(i int, gamma float32) {
	t := complex128(complex(0, float64(gamma)/2))
	r.apply1(i, cmplx.Exp(-t), 0, 0, cmplx.Exp(t))
}

// Phase applies a fixed pi/2 phase shift to qubit i's |1> amplitude.
func (r *Register) Phase(i int) {
	r.PhaseBy(i, math.Pi/2)
}

// PhaseBy applies diag(1, e^{i*gamma}) to qubit i.
func (r *Register) PhaseBy(i int, gamma float32) {
	bit := uint64(1) << uint(i)
	shift := cmplx.Exp(complex(0, float64(gamma)))
	for idx := range r.amps {
		if uint64(idx)&bit != 0 {
			r.amps[idx] *= shift
		}
	}
}

// Cnot applies a controlled-NOT with control qubit c and target qubit t.
func (r *Register) Cnot(c, t int) {
	cbit := uint64(1) << uint(c)
	tbit := uint64(1) << uint(t)
	for idx := range r.amps {
		u := uint64(idx)
		if u&cbit == 0 || u&tbit != 0 {
			continue
		}
		j := int(u | tbit)
		r.amps[idx], r.amps[j] = r.amps[j], r.amps[idx]
	}
}

// Toffoli applies a doubly-controlled NOT with controls c1, c2 and target t.
func (r *Register) Toffoli(c1, c2, t int) {
	c1bit := uint64(1) << uint(c1)
	c2bit := uint64(1) << uint(c2)
	tbit := uint64(1) << uint(t)
	for idx := range r.amps {
		u := uint64(idx)
		if u&c1bit == 0 || u&c2bit == 0 || u&tbit != 0 {
			continue
		}
		j := int(u | tbit)
		r.amps[idx], r.amps[j] = r.amps[j], r.amps[idx]
	}
}

// CondPhase applies a controlled-Z: a pi phase flip when both control and
// target qubits are 1.
func (r *Register) CondPhase(c, t int) {
	r.CondPhaseBy(c, t, math.Pi)
}

// CondPhaseBy applies a phase of gamma when both control qubit c and
// target qubit t are 1.
func (r *Register) CondPhaseBy(c, t int, gamma float32) {
	cbit := uint64(1) << uint(c)
	tbit := uint64(1) << uint(t)
	shift := cmplx.Exp(complex(0, float64(gamma)))
	for idx := range r.amps {
		u := uint64(idx)
		if u&cbit != 0 && u&tbit != 0 {
			r.amps[idx] *= shift
		}
	}
}

// Walsh applies a Hadamard to each of the first width qubits (the
// Walsh-Hadamard transform).
func (r *Register) Walsh(width int) {
	for i := 0; i < width; i++ {
		r.Hadamard(i)
	}
}

// QFT applies the quantum Fourier transform over the first width qubits.
func (r *Register) QFT(width int) {
	for i := width - 1; i >= 0; i-- {
		r.Hadamard(i)
		for j := 0; j < i; j++ {
			gamma := math.Pi / math.Pow(2, float64(i-j))
			r.CondPhaseBy(j, i, float32(gamma))
		}
	}
}

// QFTInv applies the inverse quantum Fourier transform over the first
// width qubits.
func (r *Register) QFTInv(width int) {
	for i := 0; i < width; i++ {
		for j := i - 1; j >= 0; j-- {
			gamma := -math.Pi / math.Pow(2, float64(i-j))
			r.CondPhaseBy(j, i, float32(gamma))
		}
		r.Hadamard(i)
	}
}

// MeasurePartial measures qubits [lo, hi) together, collapsing the state
// and returning the observed integer value of that sub-range.
func (r *Register) MeasurePartial(lo, hi int) uint64 {
	n := hi - lo
	if n <= 0 {
		panic("quantum: MeasurePartial requires lo < hi")
	}
	span := uint64(1) << uint(n)
	probs := make([]float64, span)
	for idx, a := range r.amps {
		v := (uint64(idx) >> uint(lo)) & mask(n)
		probs[v] += real(a) * real(a) + imag(a) * imag(a)
	}
	roll := rand.Float64()
	var outcome uint64
	var acc float64
	for v, p := range probs {
		acc += p
		if roll <= acc {
			outcome = uint64(v)
			break
		}
		outcome = uint64(v)
	}
	norm := math.Sqrt(probs[outcome])
	if norm == 0 {
		norm = 1
	}
	for idx := range r.amps {
		v := (uint64(idx) >> uint(lo)) & mask(n)
		if v != outcome {
			r.amps[idx] = 0
			continue
		}
		r.amps[idx] /= complex(norm, 0)
	}
	return outcome
}

// MeasureBit measures a single qubit, collapsing the state and returning
// its observed value.
func (r *Register) MeasureBit(i int) bool {
	return r.MeasurePartial(i, i+1) != 0
}

// DebugString renders the non-negligible amplitudes of the register, for
// use in tests and the "qscript dump" CLI subcommand (SPEC_FULL.md §C).
func (r *Register) DebugString() string {
	s := ""
	for idx, a := range r.amps {
		if cmplx.Abs(a) < 1e-9 {
			continue
		}
		if s != "" {
			s += " + "
		}
		s += fmt.Sprintf("(%.4f%+.4fi)|%0*b>", real(a), imag(a), r.width, idx)
	}
	if s == "" {
		return "0"
	}
	return s
}
