package compiler

import "github.com/mna/qscript/lang/stringtable"

// FunctionRegistry holds every function builder created during a
// compilation and the lexical stack of name→FunctionToken scopes that
// resolves both intrinsics and user-defined functions (spec.md §4.2
// "Function registry"). Function-name scoping tracks the compiler's block
// nesting independently of any one function's localEnv, since a DefFunc
// nested in a block is visible to that block's remaining statements —
// including, for recursion, the function's own body — but not beyond it;
// nested function definitions are never closures (spec.md §9), so this
// name resolution is the full extent of their "scoping".
type FunctionRegistry struct {
	st *stringtable.Table

	funcs        []*funcBuilder
	scopes       []map[stringtable.Token]FunctionToken
	builderStack []*funcBuilder
}

// NewFunctionRegistry creates a registry against the shared string table
// st, with every intrinsic pre-bound in the root scope (interning each
// intrinsic's name into st so that user references to the same text
// resolve to the same token), and an open builder for the implicit
// top-level function (call_table[0], arity 0).
func NewFunctionRegistry(st *stringtable.Table) *FunctionRegistry {
	r := &FunctionRegistry{st: st}
	r.pushScope()
	root := r.scopes[0]
	for i, d := range Intrinsics {
		root[st.Insert(d.Name)] = FunctionToken(i)
	}
	r.pushFuncRaw("", 0)
	return r
}

func (r *FunctionRegistry) pushScope() {
	r.scopes = append(r.scopes, make(map[stringtable.Token]FunctionToken))
}

func (r *FunctionRegistry) popScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// lookup searches the function-name scopes from innermost to outermost.
func (r *FunctionRegistry) lookup(name stringtable.Token) (FunctionToken, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if tok, ok := r.scopes[i][name]; ok {
			return tok, true
		}
	}
	return 0, false
}

// current returns the function builder presently being emitted into.
func (r *FunctionRegistry) current() *funcBuilder {
	return r.builderStack[len(r.builderStack)-1]
}

func (r *FunctionRegistry) pushFuncRaw(name string, arity int) FunctionToken {
	b := newFuncBuilder(name, arity)
	r.funcs = append(r.funcs, b)
	r.builderStack = append(r.builderStack, b)
	return FunctionToken(NumIntrinsics + len(r.funcs) - 1)
}

// pushFunc registers name in the current (innermost) scope as a new
// function of the given arity, opens a fresh builder and local
// environment for it, and pushes it as the current builder. It returns
// errRedefined if name is already bound in the current scope.
func (r *FunctionRegistry) pushFunc(name stringtable.Token, nameText string, arity int) (FunctionToken, error) {
	cur := r.scopes[len(r.scopes)-1]
	if _, ok := cur[name]; ok {
		return 0, errRedefined(nameText)
	}
	tok := r.pushFuncRaw(nameText, arity)
	cur[name] = tok
	return tok, nil
}

// popFunc closes the current builder, returning to the enclosing one.
func (r *FunctionRegistry) popFunc() {
	r.builderStack = r.builderStack[:len(r.builderStack)-1]
}

// toProgram resolves every function builder and concatenates their
// instructions into one flat stream, recording each function's start
// address, arity and locals count in CallTable. funcs[0] — the implicit
// top-level function — always becomes CallTable[0] with Addr 0, per
// spec.md §4.1's requirement that call_table[0].addr == 0.
func (r *FunctionRegistry) toProgram() *Program {
	prog := &Program{CallTable: make([]FunctionEntry, len(r.funcs))}
	for i, b := range r.funcs {
		b.resolve()
		prog.CallTable[i] = FunctionEntry{
			Name:   b.name,
			Addr:   len(prog.Instrs),
			Arity:  b.arity,
			Locals: b.env.locals(),
		}
		prog.Instrs = append(prog.Instrs, b.instrs...)
	}
	prog.EntryPoint = prog.CallTable[0].Addr
	return prog
}
