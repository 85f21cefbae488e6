package machine

import (
	"fmt"

	"github.com/mna/qscript/lang/compiler"
	"github.com/mna/qscript/lang/stringtable"
)

// run executes p from its entry point (the implicit top-level function,
// compiler.Program.CallTable[0]) to completion and returns the value left
// in a0 by the top-level Return. It panics on any fatal runtime error;
// Thread.RunProgram turns that panic into a returned error.
//
// The loop follows the same single switch-dispatch shape as a
// Starlark-style interpreter loop, but over a three-mode
// (regular/reverse/inverse) instruction set: two value stacks (main,
// aux), one top-of-stack register (a0), and an explicit Go call stack of
// frame values standing in for an inline saved-pc/fp scheme — see
// frame.go.
func run(th *Thread, p *compiler.Program) Value {
	entry := p.CallTable[0]
	main := make([]Value, entry.Locals)
	for i := range main {
		main[i] = Null{}
	}
	var aux []Value
	var a0 Value = Null{}
	fp := 0
	pc := p.EntryPoint

	push := func(v Value) {
		main = append(main, a0)
		a0 = v
	}
	pop := func() Value {
		n := len(main)
		v := main[n-1]
		main = main[:n-1]
		return v
	}

	for {
		instr := p.Instrs[pc]
		switch instr.Op {
		case compiler.Null:
			push(Null{})
		case compiler.IntOp:
			push(Int(instr.IntVal))
		case compiler.FloatOp:
			push(Float(instr.FloatVal))
		case compiler.BoolOp:
			push(Bool(instr.BoolVal))
		case compiler.FuncOp:
			push(Func{Token: instr.FuncVal})

		case compiler.ArrayOp:
			n := instr.Arg
			elems := make([]Value, n)
			if n > 0 {
				elems[n-1] = a0
				for i := n - 2; i >= 0; i-- {
					elems[i] = pop()
				}
				a0 = pop()
			}
			push(NewArray(elems))

		case compiler.Op1:
			a0 = execUnOp(instr.UnOp, a0)

		case compiler.Op2:
			a0 = execBinOp(instr.Kind, instr.BinOp, a0, &main, &aux)

		case compiler.Op3:
			a0 = execTriOp(instr.Kind, instr.TriOp, a0, &main, &aux)

		case compiler.CallOp:
			var jumped bool
			pc, fp, a0, jumped = execCall(th, p, instr, pc, fp, a0, &main, &aux)
			if jumped {
				continue
			}

		case compiler.ReturnOp:
			locals := instr.Arg
			for i := 0; i < locals; i++ {
				releaseIfHolder(main[fp+i])
			}
			main = main[:fp]
			if len(th.callStack) == 0 {
				return a0
			}
			fr := th.callStack[len(th.callStack)-1]
			th.callStack = th.callStack[:len(th.callStack)-1]
			fp = fr.savedFP
			pc = fr.returnPC
			continue

		case compiler.Discard:
			old := a0
			a0 = pop()
			releaseIfHolder(old)

		case compiler.PutLocal:
			i := fp + instr.Arg
			releaseIfHolder(main[i])
			main[i] = a0
			retainIfHolder(a0)

		case compiler.GetLocal:
			i := fp + instr.Arg
			push(main[i])
			retainIfHolder(a0)

		case compiler.Jump:
			pc += instr.Arg
			continue

		case compiler.Branch:
			cond := asBool(a0)
			a0 = pop()
			if cond {
				pc += instr.Arg
				continue
			}

		case compiler.PrintOp:
			n := instr.Arg
			push(a0)
			args := append([]Value(nil), main[len(main)-n:]...)
			main = main[:len(main)-n]
			for _, v := range args {
				releaseIfHolder(v)
			}
			a0 = pop()
			format := th.Strings.Get(stringtable.Token(instr.Fmt))
			fmt.Fprint(th.stdout, formatPrint(format, args))

		default:
			panic(fmt.Sprintf("machine: unhandled opcode %v", instr.Op))
		}
		pc++
	}
}
