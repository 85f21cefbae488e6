package compiler_test

import (
	"testing"

	"github.com/mna/qscript/lang/ast"
	"github.com/mna/qscript/lang/compiler"
	"github.com/mna/qscript/lang/stringtable"
	"github.com/stretchr/testify/require"
)

func opcodes(prog *compiler.Program) []compiler.Opcode {
	ops := make([]compiler.Opcode, len(prog.Instrs))
	for i, in := range prog.Instrs {
		ops[i] = in.Op
	}
	return ops
}

func TestCompileDefVarAndPrint(t *testing.T) {
	st := stringtable.New()
	x := st.Insert("x")
	fmtTok := st.Insert("@")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: x, Init: &ast.Int{Value: 5}},
		&ast.Print{Fmt: fmtTok, Args: []ast.Expr{&ast.Ref{Name: x}}},
	}}

	prog, err := compiler.New(st).Compile(top)
	require.NoError(t, err)
	require.Len(t, prog.CallTable, 1)
	require.Equal(t, 0, prog.CallTable[0].Addr)
	require.Equal(t, 1, prog.CallTable[0].Locals)

	require.Equal(t, []compiler.Opcode{
		compiler.IntOp, compiler.PutLocal, compiler.Discard,
		compiler.GetLocal, compiler.PrintOp,
		compiler.ReturnOp,
	}, opcodes(prog))
}

func TestCompileUndefinedReference(t *testing.T) {
	st := stringtable.New()
	top := &ast.ExprStmt{Expr: &ast.Ref{Name: st.Insert("nope")}}
	_, err := compiler.New(st).Compile(top)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
}

func TestCompileRedefinition(t *testing.T) {
	st := stringtable.New()
	x := st.Insert("x")
	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: x, Init: &ast.Int{Value: 1}},
		&ast.DefVar{Name: x, Init: &ast.Int{Value: 2}},
	}}
	_, err := compiler.New(st).Compile(top)
	require.Error(t, err)
}

func TestCompileDefFuncAndCall(t *testing.T) {
	st := stringtable.New()
	add := st.Insert("add")
	a := st.Insert("a")
	b := st.Insert("b")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefFunc{
			Name:   add,
			Params: []stringtable.Token{a, b},
			Body:   &ast.BinaryOp{Left: &ast.Ref{Name: a}, Op: ast.Add, Right: &ast.Ref{Name: b}},
		},
		&ast.ExprStmt{Expr: &ast.Call{
			Fn:   &ast.Ref{Name: add},
			Args: []ast.Expr{&ast.Int{Value: 1}, &ast.Int{Value: 2}},
		}},
	}}

	prog, err := compiler.New(st).Compile(top)
	require.NoError(t, err)
	require.Len(t, prog.CallTable, 2)
	require.Equal(t, 0, prog.CallTable[0].Addr)
	require.Equal(t, "add", prog.CallTable[1].Name)
	require.Equal(t, 2, prog.CallTable[1].Arity)
	require.Equal(t, 2, prog.CallTable[1].Locals)
}

func TestCompileWith(t *testing.T) {
	st := stringtable.New()
	x := st.Insert("x")
	y := st.Insert("y")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: x, Init: &ast.Int{Value: 5}},
		&ast.With{
			Name: y,
			Pred: &ast.BinaryOp{Left: &ast.Ref{Name: x}, Op: ast.Add, Right: &ast.Int{Value: 3}},
			Body: &ast.ExprStmt{Expr: &ast.Ref{Name: y}},
		},
	}}

	prog, err := compiler.New(st).Compile(top)
	require.NoError(t, err)

	var op2Kinds []compiler.Kind
	for _, in := range prog.Instrs {
		if in.Op == compiler.Op2 {
			op2Kinds = append(op2Kinds, in.Kind)
		}
	}
	// one Reverse-mode add for the predicate's reverse pass, one
	// Inverse-mode add unwinding it at the end of the with block.
	require.Equal(t, []compiler.Kind{compiler.Reverse, compiler.Inverse}, op2Kinds)
	require.Equal(t, compiler.Discard, prog.Instrs[len(prog.Instrs)-2].Op)
}

func TestCompileWithRejectsNonReversiblePred(t *testing.T) {
	st := stringtable.New()
	y := st.Insert("y")

	top := &ast.With{
		Name: y,
		Pred: &ast.Array{Elems: []ast.Expr{&ast.Int{Value: 1}}},
		Body: &ast.ExprStmt{Expr: &ast.Ref{Name: y}},
	}
	_, err := compiler.New(st).Compile(top)
	require.Error(t, err)
}

func TestCompileForLoop(t *testing.T) {
	st := stringtable.New()
	i := st.Insert("i")

	top := &ast.ForLoop{
		Name:  i,
		Start: &ast.Int{Value: 0},
		End:   &ast.Int{Value: 3},
		Body:  &ast.ExprStmt{Expr: &ast.Ref{Name: i}},
	}

	prog, err := compiler.New(st).Compile(top)
	require.NoError(t, err)
	require.Equal(t, 2, prog.CallTable[0].Locals) // i, end
}

func TestCompileForEach(t *testing.T) {
	st := stringtable.New()
	el := st.Insert("el")
	arr := st.Insert("arr")

	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: arr, Init: &ast.Array{Elems: []ast.Expr{&ast.Int{Value: 1}, &ast.Int{Value: 2}}}},
		&ast.ForEach{
			Name: el,
			Iter: &ast.Ref{Name: arr},
			Body: &ast.ExprStmt{Expr: &ast.Ref{Name: el}},
		},
	}}

	prog, err := compiler.New(st).Compile(top)
	require.NoError(t, err)
	require.Equal(t, 4, prog.CallTable[0].Locals) // arr, el, counter, array temp
}

func TestCompileAsmRoundtripMatchesDasm(t *testing.T) {
	st := stringtable.New()
	x := st.Insert("x")
	top := &ast.Block{Stmts: []ast.Stmt{
		&ast.DefVar{Name: x, Init: &ast.Int{Value: 41}},
		&ast.ExprStmt{Expr: &ast.Assign{Name: x, Expr: &ast.BinaryOp{
			Left: &ast.Ref{Name: x}, Op: ast.Add, Right: &ast.Int{Value: 1},
		}}},
	}}

	prog, err := compiler.New(st).Compile(top)
	require.NoError(t, err)

	out, err := compiler.Dasm(prog)
	require.NoError(t, err)
	reparsed, err := compiler.Asm(out)
	require.NoError(t, err)
	require.Equal(t, prog, reparsed)
}
