package quantum_test

import (
	"testing"

	"github.com/mna/qscript/lang/quantum"
	"github.com/stretchr/testify/require"
)

func TestHadamardSuperposition(t *testing.T) {
	r := quantum.New(1, 0)
	r.Hadamard(0)
	m := r.MeasurePartial(0, 1)
	require.True(t, m == 0 || m == 1)
}

func TestSigmaXFlipsBit(t *testing.T) {
	r := quantum.New(1, 0)
	r.SigmaX(0)
	require.Equal(t, uint64(1), r.MeasurePartial(0, 1))
}

func TestHadamardSelfInverseRoundTrip(t *testing.T) {
	r := quantum.New(1, 0)
	r.Hadamard(0)
	r.SigmaX(0)
	r.SigmaX(0)
	r.Hadamard(0)
	require.Equal(t, uint64(0), r.MeasurePartial(0, 1))
}

func TestCnot(t *testing.T) {
	r := quantum.New(2, 0)
	r.SigmaX(0) // control = 1
	r.Cnot(0, 1)
	require.Equal(t, uint64(1), r.MeasurePartial(1, 2))
}

func TestCnotControlZeroNoOp(t *testing.T) {
	r := quantum.New(2, 0)
	r.Cnot(0, 1)
	require.Equal(t, uint64(0), r.MeasurePartial(1, 2))
}

func TestToffoliBothControlsSet(t *testing.T) {
	r := quantum.New(3, 0)
	r.SigmaX(0)
	r.SigmaX(1)
	r.Toffoli(0, 1, 2)
	require.Equal(t, uint64(1), r.MeasurePartial(2, 3))
}

func TestToffoliOneControlUnsetNoOp(t *testing.T) {
	r := quantum.New(3, 0)
	r.SigmaX(0)
	r.Toffoli(0, 1, 2)
	require.Equal(t, uint64(0), r.MeasurePartial(2, 3))
}

func TestAddScratchGrowsWidth(t *testing.T) {
	r := quantum.New(2, 0)
	r.AddScratch(1)
	require.Equal(t, 3, r.Width())
	require.Equal(t, 1, r.Scratch())
	require.False(t, r.MeasureBit(0))
	r.RemoveScratch()
	require.Equal(t, 2, r.Width())
	require.Equal(t, 0, r.Scratch())
}

func TestQFTInvUndoesQFT(t *testing.T) {
	r := quantum.New(3, 5)
	r.QFT(3)
	r.QFTInv(3)
	require.Equal(t, uint64(5), r.MeasurePartial(0, 3))
}

func TestMeasurePartialCollapsesConsistently(t *testing.T) {
	r := quantum.New(4, 0)
	r.Hadamard(0)
	r.Cnot(0, 1)
	m := r.MeasurePartial(0, 2)
	require.True(t, m == 0 || m == 3)
}
