// Much of the compiler package's shape — a builder-per-function compiler
// driven by a registry and a lexical environment, feeding a single flat
// bytecode Program — is adapted from the teacher's own lang/compiler
// (github.com/mna/nenuphar), which does the analogous job for a
// Starlark-like language. The lowering rules themselves come from
// spec.md §4.2.
package compiler

import (
	"fmt"

	"github.com/mna/qscript/lang/ast"
	"github.com/mna/qscript/lang/stringtable"
)

// Compiler lowers a top-level AST block into a Program (spec.md §4.2).
type Compiler struct {
	st  *stringtable.Table
	reg *FunctionRegistry
}

// New creates a Compiler that interns and resolves identifiers against st.
func New(st *stringtable.Table) *Compiler {
	return &Compiler{st: st, reg: NewFunctionRegistry(st)}
}

// Compile lowers top, the program's top-level statement (ordinarily an
// ast.Block), into a Program whose call_table[0] is the implicit
// top-level function.
func (c *Compiler) Compile(top ast.Stmt) (*Program, error) {
	if err := c.compileStmt(top); err != nil {
		return nil, err
	}
	b := c.reg.current()
	b.emit(Instr{Op: ReturnOp, Arg: b.env.locals()})
	return c.reg.toProgram(), nil
}

func (c *Compiler) name(tok stringtable.Token) string { return c.st.Get(tok) }

func (c *Compiler) cur() *funcBuilder { return c.reg.current() }

// --- references -----------------------------------------------------------

// compileRef emits the load for a bare identifier reference: a local slot
// if name is in scope, else a Func literal if name is a registered
// function, else a compile error (spec.md §4.2 "Ref(name)").
func (c *Compiler) compileRef(name stringtable.Token) error {
	b := c.cur()
	if slot, ok := b.env.lookup(name); ok {
		b.emit(Instr{Op: GetLocal, Arg: slot})
		return nil
	}
	if tok, ok := c.reg.lookup(name); ok {
		b.emit(Instr{Op: FuncOp, FuncVal: tok})
		return nil
	}
	return errUndefined(c.name(name))
}

func (c *Compiler) emitIntrinsicRef(name string) {
	tok, ok := IntrinsicIndex(name)
	if !ok {
		panic(fmt.Sprintf("compiler: unknown intrinsic %q", name))
	}
	c.cur().emit(Instr{Op: FuncOp, FuncVal: tok})
}

// --- regular mode -----------------------------------------------------------

func (c *Compiler) compileExpr(e ast.Expr, kind Kind) error {
	switch kind {
	case Regular:
		return c.compileExprRegular(e)
	case Reverse:
		return c.compileExprReverse(e)
	case Inverse:
		return c.compileExprInverse(e)
	default:
		panic("compiler: unknown kind")
	}
}

func (c *Compiler) compileExprRegular(e ast.Expr) error {
	b := c.cur()
	switch e := e.(type) {
	case *ast.Int:
		b.emit(Instr{Op: IntOp, IntVal: e.Value})
		return nil
	case *ast.Float:
		b.emit(Instr{Op: FloatOp, FloatVal: e.Value})
		return nil
	case *ast.Bool:
		b.emit(Instr{Op: BoolOp, BoolVal: e.Value})
		return nil
	case *ast.Ref:
		return c.compileRef(e.Name)
	case *ast.Move:
		slot, ok := b.env.lookup(e.Name)
		if !ok {
			return errUndefined(c.name(e.Name))
		}
		b.emit(Instr{Op: GetLocal, Arg: slot})
		b.emit(Instr{Op: Null})
		b.emit(Instr{Op: PutLocal, Arg: slot})
		b.emit(Instr{Op: Discard})
		return nil
	case *ast.If:
		if err := c.compileExprRegular(e.Pred); err != nil {
			return err
		}
		then := b.label()
		done := b.label()
		b.emitBranch(Branch, then)
		if err := c.compileExprRegular(e.Else); err != nil {
			return err
		}
		b.emitBranch(Jump, done)
		b.bind(then)
		if err := c.compileExprRegular(e.Then); err != nil {
			return err
		}
		b.bind(done)
		return nil
	case *ast.ExprBlock:
		b.env.pushScope()
		c.reg.pushScope()
		for _, s := range e.Stmts {
			if err := c.compileStmt(s); err != nil {
				b.env.popScope()
				c.reg.popScope()
				return err
			}
		}
		err := c.compileExprRegular(e.Tail)
		b.env.popScope()
		c.reg.popScope()
		return err
	case *ast.Call:
		return c.compileCallExpr(e.Fn, e.Args, Regular)
	case *ast.Apply:
		return c.compileCallExpr(e.Fn, []ast.Expr{e.Arg}, Regular)
	case *ast.Invoke:
		return c.compileCallExpr(e.Fn, nil, Regular)
	case *ast.Assign:
		slot, ok := b.env.lookup(e.Name)
		if !ok {
			return errUndefined(c.name(e.Name))
		}
		if err := c.compileExprRegular(e.Expr); err != nil {
			return err
		}
		b.emit(Instr{Op: PutLocal, Arg: slot})
		return nil
	case *ast.Array:
		for _, el := range e.Elems {
			if err := c.compileExprRegular(el); err != nil {
				return err
			}
		}
		b.emit(Instr{Op: ArrayOp, Arg: len(e.Elems)})
		return nil
	case *ast.UnaryOp:
		if err := c.compileExprRegular(e.Expr); err != nil {
			return err
		}
		b.emit(Instr{Op: Op1, Kind: Regular, UnOp: e.Op})
		return nil
	case *ast.BinaryOp:
		if err := c.compileExprRegular(e.Left); err != nil {
			return err
		}
		if err := c.compileExprRegular(e.Right); err != nil {
			return err
		}
		b.emit(Instr{Op: Op2, Kind: Regular, BinOp: e.Op})
		return nil
	case *ast.Cat:
		return c.compileSugarCall("cat", []ast.Expr{e.Left, e.Right}, Regular)
	case *ast.Get:
		return c.compileSugarCall("get", []ast.Expr{e.Array, e.Index}, Regular)
	case *ast.Put:
		return c.compileSugarCall("put", []ast.Expr{e.Array, e.Index, e.Value}, Regular)
	case *ast.Slice:
		return c.compileSugarCall("slice", []ast.Expr{e.Array, e.Lo, e.Hi}, Regular)
	case *ast.Len:
		return c.compileSugarCall("len", []ast.Expr{e.Expr}, Regular)
	case *ast.QAlloc:
		return c.compileSugarCall("qalloc", []ast.Expr{e.N, e.Init}, Regular)
	default:
		panic(fmt.Sprintf("compiler: unhandled expr node %T", e))
	}
}

// --- reverse mode -----------------------------------------------------------

// compileExprReverse implements the Reverse compilation pass of spec.md
// §4.2: identical in shape to regular mode for the subset of nodes it
// supports, but Op1/Op2/Op3/Call instructions carry the Reverse kind so
// the interpreter also records their inputs onto the aux stack.
func (c *Compiler) compileExprReverse(e ast.Expr) error {
	b := c.cur()
	switch e := e.(type) {
	case *ast.Int:
		b.emit(Instr{Op: IntOp, IntVal: e.Value})
		return nil
	case *ast.Float:
		b.emit(Instr{Op: FloatOp, FloatVal: e.Value})
		return nil
	case *ast.Bool:
		b.emit(Instr{Op: BoolOp, BoolVal: e.Value})
		return nil
	case *ast.Ref:
		return c.compileRef(e.Name)
	case *ast.Call:
		return c.compileCallExpr(e.Fn, e.Args, Reverse)
	case *ast.Apply:
		return c.compileCallExpr(e.Fn, []ast.Expr{e.Arg}, Reverse)
	case *ast.Invoke:
		return c.compileCallExpr(e.Fn, nil, Reverse)
	case *ast.UnaryOp:
		if err := c.compileExprReverse(e.Expr); err != nil {
			return err
		}
		b.emit(Instr{Op: Op1, Kind: Reverse, UnOp: e.Op})
		return nil
	case *ast.BinaryOp:
		if err := c.compileExprReverse(e.Left); err != nil {
			return err
		}
		if err := c.compileExprReverse(e.Right); err != nil {
			return err
		}
		b.emit(Instr{Op: Op2, Kind: Reverse, BinOp: e.Op})
		return nil
	case *ast.Cat:
		return c.compileSugarCall("cat", []ast.Expr{e.Left, e.Right}, Reverse)
	case *ast.Get:
		return c.compileSugarCall("get", []ast.Expr{e.Array, e.Index}, Reverse)
	case *ast.Put:
		return c.compileSugarCall("put", []ast.Expr{e.Array, e.Index, e.Value}, Reverse)
	case *ast.Slice:
		return c.compileSugarCall("slice", []ast.Expr{e.Array, e.Lo, e.Hi}, Reverse)
	case *ast.Len:
		return c.compileSugarCall("len", []ast.Expr{e.Expr}, Reverse)
	case *ast.QAlloc:
		return c.compileSugarCall("qalloc", []ast.Expr{e.N, e.Init}, Reverse)
	default:
		return errNotReversible(fmt.Sprintf("%T", e))
	}
}

// --- inverse mode -----------------------------------------------------------

// compileExprInverse implements the Inverse pass of spec.md §4.2: emission
// order is reversed relative to Reverse, and every composite node emits
// its inverse instruction *before* recursing into its operands, since that
// instruction is what pulls the operands' values back out of the aux
// stack and onto main for the recursive calls to consume.
func (c *Compiler) compileExprInverse(e ast.Expr) error {
	b := c.cur()
	switch e := e.(type) {
	case *ast.Int, *ast.Float, *ast.Bool, *ast.Ref:
		b.emit(Instr{Op: Discard})
		return nil
	case *ast.UnaryOp:
		b.emit(Instr{Op: Op1, Kind: Inverse, UnOp: e.Op})
		return c.compileExprInverse(e.Expr)
	case *ast.BinaryOp:
		b.emit(Instr{Op: Op2, Kind: Inverse, BinOp: e.Op})
		if err := c.compileExprInverse(e.Right); err != nil {
			return err
		}
		return c.compileExprInverse(e.Left)
	case *ast.Call:
		return c.compileCallExpr(e.Fn, e.Args, Inverse)
	case *ast.Apply:
		return c.compileCallExpr(e.Fn, []ast.Expr{e.Arg}, Inverse)
	case *ast.Invoke:
		return c.compileCallExpr(e.Fn, nil, Inverse)
	case *ast.Cat:
		return c.compileSugarCall("cat", []ast.Expr{e.Left, e.Right}, Inverse)
	case *ast.Get:
		return c.compileSugarCall("get", []ast.Expr{e.Array, e.Index}, Inverse)
	case *ast.Put:
		return c.compileSugarCall("put", []ast.Expr{e.Array, e.Index, e.Value}, Inverse)
	case *ast.Slice:
		return c.compileSugarCall("slice", []ast.Expr{e.Array, e.Lo, e.Hi}, Inverse)
	case *ast.Len:
		return c.compileSugarCall("len", []ast.Expr{e.Expr}, Inverse)
	case *ast.QAlloc:
		return c.compileSugarCall("qalloc", []ast.Expr{e.N, e.Init}, Inverse)
	default:
		return errNotReversible(fmt.Sprintf("%T", e))
	}
}

// --- calls ------------------------------------------------------------------

// compileCallExpr compiles a Call/Apply/Invoke node under kind. fn is
// always compiled in Regular mode regardless of kind: it denotes the
// callee, not reversible data.
func (c *Compiler) compileCallExpr(fn ast.Expr, args []ast.Expr, kind Kind) error {
	b := c.cur()
	switch kind {
	case Regular, Reverse:
		for _, a := range args {
			if err := c.compileExpr(a, kind); err != nil {
				return err
			}
		}
		if err := c.compileExprRegular(fn); err != nil {
			return err
		}
		b.emit(Instr{Op: CallOp, Kind: kind, Arg: len(args)})
		return nil
	case Inverse:
		if err := c.compileExprRegular(fn); err != nil {
			return err
		}
		b.emit(Instr{Op: CallOp, Kind: Inverse, Arg: len(args)})
		b.emit(Instr{Op: Discard})
		for i := len(args) - 1; i >= 0; i-- {
			if err := c.compileExprInverse(args[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		panic("compiler: unknown kind")
	}
}

// compileSugarCall compiles Cat/Get/Put/Slice/Len/QAlloc as a call to the
// named intrinsic (spec.md §4.2's "rewritten as calls to the corresponding
// built-in intrinsic").
func (c *Compiler) compileSugarCall(name string, args []ast.Expr, kind Kind) error {
	b := c.cur()
	switch kind {
	case Regular, Reverse:
		for _, a := range args {
			if err := c.compileExpr(a, kind); err != nil {
				return err
			}
		}
		c.emitIntrinsicRef(name)
		b.emit(Instr{Op: CallOp, Kind: kind, Arg: len(args)})
		return nil
	case Inverse:
		c.emitIntrinsicRef(name)
		b.emit(Instr{Op: CallOp, Kind: Inverse, Arg: len(args)})
		b.emit(Instr{Op: Discard})
		for i := len(args) - 1; i >= 0; i-- {
			if err := c.compileExprInverse(args[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		panic("compiler: unknown kind")
	}
}

// --- statements --------------------------------------------------------------

func (c *Compiler) compileStmt(s ast.Stmt) error {
	b := c.cur()
	switch s := s.(type) {
	case *ast.DefFunc:
		if _, err := c.reg.pushFunc(s.Name, c.name(s.Name), len(s.Params)); err != nil {
			return err
		}
		fb := c.reg.current()
		for _, p := range s.Params {
			if _, err := fb.env.add(p, c.name(p)); err != nil {
				c.reg.popFunc()
				return err
			}
		}
		if err := c.compileExprRegular(s.Body); err != nil {
			c.reg.popFunc()
			return err
		}
		fb.emit(Instr{Op: ReturnOp, Arg: fb.env.locals()})
		c.reg.popFunc()
		return nil

	case *ast.DefVar:
		if err := c.compileExprRegular(s.Init); err != nil {
			return err
		}
		slot, err := b.env.add(s.Name, c.name(s.Name))
		if err != nil {
			return err
		}
		b.emit(Instr{Op: PutLocal, Arg: slot})
		b.emit(Instr{Op: Discard})
		return nil

	case *ast.Block:
		b.env.pushScope()
		c.reg.pushScope()
		for _, st := range s.Stmts {
			if err := c.compileStmt(st); err != nil {
				b.env.popScope()
				c.reg.popScope()
				return err
			}
		}
		b.env.popScope()
		c.reg.popScope()
		return nil

	case *ast.While:
		start := b.label()
		end := b.label()
		b.bind(start)
		if err := c.compileExprRegular(s.Pred); err != nil {
			return err
		}
		b.emit(Instr{Op: Op1, Kind: Regular, UnOp: ast.Not})
		b.emitBranch(Branch, end)
		if err := c.compileStmt(s.Body); err != nil {
			return err
		}
		b.emitBranch(Jump, start)
		b.bind(end)
		return nil

	case *ast.ForEach:
		return c.compileForEach(s)

	case *ast.ForLoop:
		return c.compileForLoop(s)

	case *ast.With:
		return c.compileWith(s)

	case *ast.Return:
		if err := c.compileExprRegular(s.Expr); err != nil {
			return err
		}
		b.emit(Instr{Op: ReturnOp, Arg: b.env.locals()})
		return nil

	case *ast.ExprStmt:
		if err := c.compileExprRegular(s.Expr); err != nil {
			return err
		}
		b.emit(Instr{Op: Discard})
		return nil

	case *ast.Print:
		for _, a := range s.Args {
			if err := c.compileExprRegular(a); err != nil {
				return err
			}
		}
		b.emit(Instr{Op: PrintOp, Fmt: uint32(s.Fmt), Arg: len(s.Args)})
		return nil

	default:
		panic(fmt.Sprintf("compiler: unhandled stmt node %T", s))
	}
}

func (c *Compiler) compileForEach(s *ast.ForEach) error {
	b := c.cur()
	if err := c.compileExprRegular(s.Iter); err != nil {
		return err
	}
	b.env.pushScope()
	defer b.env.popScope()

	idSlot, err := b.env.add(s.Name, c.name(s.Name))
	if err != nil {
		return err
	}
	counterSlot := b.env.addTemp()
	arraySlot := b.env.addTemp()

	b.emit(Instr{Op: PutLocal, Arg: arraySlot})
	b.emit(Instr{Op: Discard})

	b.emit(Instr{Op: GetLocal, Arg: arraySlot})
	c.emitIntrinsicRef("len")
	b.emit(Instr{Op: CallOp, Kind: Regular, Arg: 1})
	b.emit(Instr{Op: PutLocal, Arg: counterSlot})
	b.emit(Instr{Op: Discard})

	end := b.label()
	start := b.label()

	b.emit(Instr{Op: GetLocal, Arg: counterSlot})
	b.emit(Instr{Op: IntOp, IntVal: 0})
	b.emit(Instr{Op: Op2, Kind: Regular, BinOp: ast.Le})
	b.emitBranch(Branch, end)

	b.bind(start)
	b.emit(Instr{Op: GetLocal, Arg: arraySlot})
	b.emit(Instr{Op: GetLocal, Arg: counterSlot})
	b.emit(Instr{Op: IntOp, IntVal: 1})
	b.emit(Instr{Op: Op2, Kind: Regular, BinOp: ast.Sub})
	b.emit(Instr{Op: PutLocal, Arg: counterSlot})
	c.emitIntrinsicRef("get")
	b.emit(Instr{Op: CallOp, Kind: Regular, Arg: 2})
	b.emit(Instr{Op: PutLocal, Arg: idSlot})
	b.emit(Instr{Op: Discard})

	if err := c.compileStmt(s.Body); err != nil {
		return err
	}

	b.emit(Instr{Op: GetLocal, Arg: counterSlot})
	b.emit(Instr{Op: IntOp, IntVal: 0})
	b.emit(Instr{Op: Op2, Kind: Regular, BinOp: ast.Gt})
	b.emitBranch(Branch, start)
	b.bind(end)
	return nil
}

func (c *Compiler) compileForLoop(s *ast.ForLoop) error {
	b := c.cur()
	if err := c.compileExprRegular(s.Start); err != nil {
		return err
	}
	b.env.pushScope()
	defer b.env.popScope()

	idSlot, err := b.env.add(s.Name, c.name(s.Name))
	if err != nil {
		return err
	}
	endSlot := b.env.addTemp()

	b.emit(Instr{Op: PutLocal, Arg: idSlot})
	b.emit(Instr{Op: Discard})

	if err := c.compileExprRegular(s.End); err != nil {
		return err
	}
	b.emit(Instr{Op: PutLocal, Arg: endSlot})
	b.emit(Instr{Op: Discard})

	end := b.label()
	start := b.label()

	b.emit(Instr{Op: GetLocal, Arg: idSlot})
	b.emit(Instr{Op: GetLocal, Arg: endSlot})
	b.emit(Instr{Op: Op2, Kind: Regular, BinOp: ast.Ge})
	b.emitBranch(Branch, end)

	b.bind(start)
	// Unconditional pre-increment: see spec.md §9 open question (a), kept
	// literal — the body's first iteration runs with id already at s+1.
	b.emit(Instr{Op: GetLocal, Arg: idSlot})
	b.emit(Instr{Op: IntOp, IntVal: 1})
	b.emit(Instr{Op: Op2, Kind: Regular, BinOp: ast.Add})
	b.emit(Instr{Op: PutLocal, Arg: idSlot})
	b.emit(Instr{Op: Discard})

	if err := c.compileStmt(s.Body); err != nil {
		return err
	}

	b.emit(Instr{Op: GetLocal, Arg: idSlot})
	b.emit(Instr{Op: GetLocal, Arg: endSlot})
	b.emit(Instr{Op: Op2, Kind: Regular, BinOp: ast.Lt})
	b.emitBranch(Branch, start)
	b.bind(end)
	return nil
}

func (c *Compiler) compileWith(s *ast.With) error {
	b := c.cur()
	if err := c.compileExprReverse(s.Pred); err != nil {
		return err
	}
	b.env.pushScope()
	defer b.env.popScope()

	idSlot, err := b.env.add(s.Name, c.name(s.Name))
	if err != nil {
		return err
	}
	b.emit(Instr{Op: PutLocal, Arg: idSlot})
	b.emit(Instr{Op: Discard})

	if err := c.compileStmt(s.Body); err != nil {
		return err
	}

	b.emit(Instr{Op: GetLocal, Arg: idSlot})
	return c.compileExprInverse(s.Pred)
}
