package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/qscript/lang/compiler"
	"github.com/mna/qscript/lang/machine"
	"github.com/mna/qscript/lang/stringtable"
)

// loadProgram reads the compiled assembly at progPath and, if stringsPath
// is non-empty, populates a stringtable.Table from it: one literal format
// string per line, interned in order so the first line becomes token 1,
// matching the token numbering a compiler.Compile run against the same
// table would have produced for its Print instructions. The asm format
// itself carries no string section (see lang/compiler/asm.go); this
// companion file is this command's own convention for reconstructing the
// table a hand-assembled program's Print instructions need.
func loadProgram(progPath, stringsPath string) (*compiler.Program, *stringtable.Table, error) {
	b, err := os.ReadFile(progPath)
	if err != nil {
		return nil, nil, err
	}
	prog, err := compiler.Asm(b)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", progPath, err)
	}

	st := stringtable.New()
	if stringsPath != "" {
		f, err := os.Open(stringsPath)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			st.Insert(sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", stringsPath, err)
		}
	}
	return prog, st, nil
}

// Run loads and executes the compiled program at args[0] (with an
// optional format-string table at args[1]), writing anything the program
// prints to stdio.Stdout.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return runProgram(stdio, args, false)
}

// Dump behaves like Run, additionally printing the value left by the
// program's top-level Return — a quantum register's DebugString(), or
// the value's own String() for anything else. This is the "qscript dump"
// tool SPEC_FULL.md §C describes for validating scratch discipline and
// final register state end to end.
func (c *Cmd) Dump(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return runProgram(stdio, args, true)
}

func runProgram(stdio mainer.Stdio, args []string, dump bool) error {
	var stringsPath string
	if len(args) > 1 {
		stringsPath = args[1]
	}
	prog, st, err := loadProgram(args[0], stringsPath)
	if err != nil {
		return printError(stdio, err)
	}

	th := &machine.Thread{Stdout: stdio.Stdout, Stderr: stdio.Stderr, Strings: st}
	result, err := th.RunProgram(prog)
	if err != nil {
		return printError(stdio, fmt.Errorf("runtime error: %w", err))
	}

	if dump {
		if q, ok := result.(*machine.QuReg); ok {
			fmt.Fprintln(stdio.Stdout, q.DebugString())
		} else {
			fmt.Fprintln(stdio.Stdout, result.String())
		}
	}
	return nil
}

// Dasm loads the compiled program at args[0] and re-emits its
// disassembly to stdio.Stdout, a debugging aid for inspecting a program
// without stepping it.
func (c *Cmd) Dasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	prog, _, err := loadProgram(args[0], "")
	if err != nil {
		return printError(stdio, err)
	}
	out, err := compiler.Dasm(prog)
	if err != nil {
		return printError(stdio, err)
	}
	_, err = stdio.Stdout.Write(out)
	return err
}
