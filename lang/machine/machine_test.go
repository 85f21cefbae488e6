package machine_test

import (
	"bytes"
	"testing"

	"github.com/mna/qscript/lang/ast"
	"github.com/mna/qscript/lang/compiler"
	"github.com/mna/qscript/lang/machine"
	"github.com/mna/qscript/lang/stringtable"
	"github.com/stretchr/testify/require"
)

// run compiles top against st and executes it, returning the final a0
// value and anything written to Stdout.
func run(t *testing.T, st *stringtable.Table, top ast.Stmt) (machine.Value, string) {
	t.Helper()
	prog, err := compiler.New(st).Compile(top)
	require.NoError(t, err)

	var out bytes.Buffer
	th := &machine.Thread{Stdout: &out, Strings: st}
	res, err := th.RunProgram(prog)
	require.NoError(t, err)
	return res, out.String()
}

// call builds an ast.Call node invoking the named intrinsic by interning
// its name into st — the same table compiler.New(st)'s FunctionRegistry
// pre-binds every intrinsic name into, so this resolves exactly as a
// source-level call to that intrinsic would.
func call(st *stringtable.Table, name string, args ...ast.Expr) *ast.Call {
	return &ast.Call{Fn: &ast.Ref{Name: st.Insert(name)}, Args: args}
}

// { var x = 2 + 3 * 4; print("@\n", x); } prints "14\n" (spec.md §8).
func TestArithmeticAndPrint(t *testing.T) {
	st := stringtable.New()
	x := st.Insert("x")
	fmtTok := st.Insert("@\n")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: x, Init: &ast.BinaryOp{
			Left: &ast.Int{Value: 2},
			Op:   ast.Add,
			Right: &ast.BinaryOp{
				Left: &ast.Int{Value: 3}, Op: ast.Mul, Right: &ast.Int{Value: 4},
			},
		}},
		&ast.Print{Fmt: fmtTok, Args: []ast.Expr{&ast.Ref{Name: x}}},
	}}

	_, out := run(t, st, top)
	require.Equal(t, "14\n", out)
}

// func fact(n) if (n <= 1) 1 else n * fact(n - 1); { print("@", fact(5)); }
// prints "120" (spec.md §8).
func TestRecursiveFactorial(t *testing.T) {
	st := stringtable.New()
	fact := st.Insert("fact")
	n := st.Insert("n")
	fmtTok := st.Insert("@")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefFunc{
			Name:   fact,
			Params: []stringtable.Token{n},
			Body: &ast.If{
				Pred: &ast.BinaryOp{Left: &ast.Ref{Name: n}, Op: ast.Le, Right: &ast.Int{Value: 1}},
				Then: &ast.Int{Value: 1},
				Else: &ast.BinaryOp{
					Left: &ast.Ref{Name: n},
					Op:   ast.Mul,
					Right: &ast.Call{
						Fn: &ast.Ref{Name: fact},
						Args: []ast.Expr{&ast.BinaryOp{
							Left: &ast.Ref{Name: n}, Op: ast.Sub, Right: &ast.Int{Value: 1},
						}},
					},
				},
			},
		},
		&ast.Print{Fmt: fmtTok, Args: []ast.Expr{&ast.Call{
			Fn: &ast.Ref{Name: fact}, Args: []ast.Expr{&ast.Int{Value: 5}},
		}}},
	}}

	_, out := run(t, st, top)
	require.Equal(t, "120", out)
}

// func sum(a) { var s = 0; foreach (x in a) s = s + x; ret s; }
// { print("@", sum([1,2,3,4])); } prints "10" (spec.md §8).
func TestForEachSum(t *testing.T) {
	st := stringtable.New()
	sum := st.Insert("sum")
	a := st.Insert("a")
	s := st.Insert("s")
	x := st.Insert("x")
	fmtTok := st.Insert("@")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefFunc{
			Name:   sum,
			Params: []stringtable.Token{a},
			Body: &ast.ExprBlock{
				Stmts: []ast.Stmt{
					&ast.DefVar{Name: s, Init: &ast.Int{Value: 0}},
					&ast.ForEach{
						Name: x,
						Iter: &ast.Ref{Name: a},
						Body: &ast.ExprStmt{Expr: &ast.Assign{
							Name: s,
							Expr: &ast.BinaryOp{Left: &ast.Ref{Name: s}, Op: ast.Add, Right: &ast.Ref{Name: x}},
						}},
					},
				},
				Tail: &ast.Ref{Name: s},
			},
		},
		&ast.Print{Fmt: fmtTok, Args: []ast.Expr{&ast.Call{
			Fn: &ast.Ref{Name: sum},
			Args: []ast.Expr{&ast.Array{Elems: []ast.Expr{
				&ast.Int{Value: 1}, &ast.Int{Value: 2}, &ast.Int{Value: 3}, &ast.Int{Value: 4},
			}}},
		}}},
	}}

	_, out := run(t, st, top)
	require.Equal(t, "10", out)
}

// { var q = |4, 0>; hadamard(q); var m = measure(q); print("@\n", m >= 0 and
// m < 16); } prints "true\n" (spec.md §8).
func TestQAllocHadamardMeasureInRange(t *testing.T) {
	st := stringtable.New()
	q := st.Insert("q")
	m := st.Insert("m")
	fmtTok := st.Insert("@\n")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: q, Init: &ast.QAlloc{N: &ast.Int{Value: 4}, Init: &ast.Int{Value: 0}}},
		&ast.ExprStmt{Expr: call(st, "hadamard", &ast.Ref{Name: q})},
		&ast.DefVar{Name: m, Init: call(st, "measure", &ast.Ref{Name: q})},
		&ast.Print{Fmt: fmtTok, Args: []ast.Expr{&ast.BinaryOp{
			Left: &ast.BinaryOp{Left: &ast.Ref{Name: m}, Op: ast.Ge, Right: &ast.Int{Value: 0}},
			Op:   ast.And,
			Right: &ast.BinaryOp{
				Left: &ast.Ref{Name: m}, Op: ast.Lt, Right: &ast.Int{Value: 16},
			},
		}}},
	}}

	_, out := run(t, st, top)
	require.Equal(t, "true\n", out)
}

// { var b = |1, 0>; hadamard(b); sigx(b); sigx(b); hadamard(b);
// print("@", measure(b)); } prints "0": applying an involution pair
// between two self-inverse Hadamards restores the starting |0> state
// (spec.md §8).
func TestGateSelfInverseRestoresState(t *testing.T) {
	st := stringtable.New()
	b := st.Insert("b")
	fmtTok := st.Insert("@")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: b, Init: &ast.QAlloc{N: &ast.Int{Value: 1}, Init: &ast.Int{Value: 0}}},
		&ast.ExprStmt{Expr: call(st, "hadamard", &ast.Ref{Name: b})},
		&ast.ExprStmt{Expr: call(st, "sigx", &ast.Ref{Name: b})},
		&ast.ExprStmt{Expr: call(st, "sigx", &ast.Ref{Name: b})},
		&ast.ExprStmt{Expr: call(st, "hadamard", &ast.Ref{Name: b})},
		&ast.Print{Fmt: fmtTok, Args: []ast.Expr{call(st, "measure", &ast.Ref{Name: b})}},
	}}

	_, out := run(t, st, top)
	require.Equal(t, "0", out)
}

// { var x = 5; with (y = x + 3) { y; /* no-op expr */ }; print("@", x); }
// prints "5": the with statement leaves x unchanged because the inverse
// pass restores the pre-state of its (purely integer) predicate (spec.md
// §8, testable property 3).
func TestWithRoundTripLeavesIntegerLocalUnchanged(t *testing.T) {
	st := stringtable.New()
	x := st.Insert("x")
	y := st.Insert("y")
	fmtTok := st.Insert("@")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: x, Init: &ast.Int{Value: 5}},
		&ast.With{
			Name: y,
			Pred: &ast.BinaryOp{Left: &ast.Ref{Name: x}, Op: ast.Add, Right: &ast.Int{Value: 3}},
			Body: &ast.ExprStmt{Expr: &ast.Ref{Name: y}},
		},
		&ast.Print{Fmt: fmtTok, Args: []ast.Expr{&ast.Ref{Name: x}}},
	}}

	_, out := run(t, st, top)
	require.Equal(t, "5", out)
}

// Array concatenation and slicing: two views created by slice observe
// each other's writes within their overlapping range (spec.md §8,
// testable property 5), and cat grows an array holding the sole
// reference to its buffer.
func TestArraySliceSharesWritesAndCatGrows(t *testing.T) {
	st := stringtable.New()
	arr := st.Insert("arr")
	left := st.Insert("left")
	right := st.Insert("right")
	solo := st.Insert("solo")
	fmtTok := st.Insert("@,@")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: arr, Init: &ast.Array{Elems: []ast.Expr{
			&ast.Int{Value: 1}, &ast.Int{Value: 2}, &ast.Int{Value: 3}, &ast.Int{Value: 4},
		}}},
		&ast.DefVar{Name: left, Init: &ast.Slice{Array: &ast.Ref{Name: arr}, Lo: &ast.Int{Value: 0}, Hi: &ast.Int{Value: 3}}},
		&ast.DefVar{Name: right, Init: &ast.Slice{Array: &ast.Ref{Name: arr}, Lo: &ast.Int{Value: 1}, Hi: &ast.Int{Value: 4}}},
		&ast.ExprStmt{Expr: &ast.Put{Array: &ast.Ref{Name: left}, Index: &ast.Int{Value: 1}, Value: &ast.Int{Value: 99}}},
		&ast.DefVar{Name: solo, Init: &ast.Array{Elems: []ast.Expr{
			&ast.Int{Value: 1}, &ast.Int{Value: 2}, &ast.Int{Value: 3},
		}}},
		&ast.Print{Fmt: fmtTok, Args: []ast.Expr{
			&ast.Get{Array: &ast.Ref{Name: right}, Index: &ast.Int{Value: 0}},
			&ast.Len{Expr: &ast.Cat{Left: &ast.Move{Name: solo}, Right: &ast.Int{Value: 5}}},
		}},
	}}

	_, out := run(t, st, top)
	// right[0] is arr[1], which left[1]'s write overwrote to 99; cat
	// pushes a fourth element onto solo (length 3, moved out of its slot so
	// the value cat receives is the sole reference to its own buffer),
	// yielding length 4.
	require.Equal(t, "99,4", out)
}

// Catting an array through an aliased view is a fatal error: left shares
// its buffer with arr and right, so it is never the sole reference
// (spec.md §5, §7).
func TestCatAliasedArrayIsFatal(t *testing.T) {
	st := stringtable.New()
	arr := st.Insert("arr")
	left := st.Insert("left")
	right := st.Insert("right")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: arr, Init: &ast.Array{Elems: []ast.Expr{
			&ast.Int{Value: 1}, &ast.Int{Value: 2}, &ast.Int{Value: 3}, &ast.Int{Value: 4},
		}}},
		&ast.DefVar{Name: left, Init: &ast.Slice{Array: &ast.Ref{Name: arr}, Lo: &ast.Int{Value: 0}, Hi: &ast.Int{Value: 3}}},
		&ast.DefVar{Name: right, Init: &ast.Slice{Array: &ast.Ref{Name: arr}, Lo: &ast.Int{Value: 1}, Hi: &ast.Int{Value: 4}}},
		&ast.ExprStmt{Expr: &ast.Cat{Left: &ast.Ref{Name: left}, Right: &ast.Int{Value: 5}}},
	}}

	prog, err := compiler.New(st).Compile(top)
	require.NoError(t, err)

	th := &machine.Thread{Strings: st}
	_, err = th.RunProgram(prog)
	require.Error(t, err)
	require.ErrorContains(t, err, "cannot grow an array with more than one live reference")
}

// Format round-trip (spec.md §8, testable property 6): a lone '@' with no
// arguments prints literally, and an escaped "\\@" also prints a literal
// '@'.
func TestPrintFormatLiteralAt(t *testing.T) {
	st := stringtable.New()
	fmtTok := st.Insert(`@ \@`)

	top := &ast.Print{Fmt: fmtTok}
	_, out := run(t, st, top)
	require.Equal(t, "@ @", out)
}
