package compiler_test

import (
	"testing"

	"github.com/mna/qscript/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestAsm(t *testing.T) {
	cases := []struct {
		desc string
		in   string
		err  string // error "contains" this err string, no error if empty
	}{
		{"empty", ``, "expected program section"},
		{"not program", `function:`, "expected program section"},
		{"program only", `program:`, "missing top-level function"},

		{"invalid function", `
				program:
					function: MissingFields
						code:
			`, "invalid function"},

		{"minimally valid", `
				program:
					function: top 0 0
						code:
							return 0
			`, ""},

		{"missing code", `
				program:
					function: top 0 0
			`, "expected code section"},

		{"extra unknown section", `
				program:
					function: top 0 0
						code:
							return 0
				locals:
				`, "unexpected section: locals:"},

		{"invalid opcode", `
				program:
					function: top 0 0
						code:
							foobar
				`, "invalid opcode: foobar"},

		{"invalid jump target", `
				program:
					function: top 0 0
						code:
							jump 5
							return 0
				`, ""}, // out-of-range jump targets are not validated at parse time

		{"maximally valid", `
				program:
					function: top 0 1
						code:
							int 3
							getlocal 0
							op2 regular add
							putlocal 0
							discard
							return 1

					function: double 1 1
						code:
							getlocal 0
							int 2
							op2 regular mul
							return 1
			`, ""},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			_, err := compiler.Asm([]byte(c.in))
			if c.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, c.err)
		})
	}
}

func TestAsmRoundtrip(t *testing.T) {
	src := `
program:

	function: top 0 1
		code:
			int 3
			getlocal 0
			op2 regular add
			putlocal 0
			discard
			return 1

	function: double 1 1
		code:
			getlocal 0
			int 2
			op2 regular mul
			return 1
`
	prog, err := compiler.Asm([]byte(src))
	require.NoError(t, err)
	require.Len(t, prog.CallTable, 2)
	require.Equal(t, 0, prog.CallTable[0].Addr)

	out, err := compiler.Dasm(prog)
	require.NoError(t, err)

	reparsed, err := compiler.Asm(out)
	require.NoError(t, err)
	require.Equal(t, prog, reparsed)
}

func TestAsmRoundtripJumps(t *testing.T) {
	src := `
program:

	function: top 0 1
		code:
			getlocal 0
			branch 4
			bool false
			jump 5
			bool true
			putlocal 0
			discard
			return 1
`
	prog, err := compiler.Asm([]byte(src))
	require.NoError(t, err)

	out, err := compiler.Dasm(prog)
	require.NoError(t, err)

	reparsed, err := compiler.Asm(out)
	require.NoError(t, err)
	require.Equal(t, prog, reparsed)
}
