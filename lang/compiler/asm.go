package compiler

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/qscript/lang/ast"
)

// This file implements a human-readable/writable form of a compiled
// Program, adapted from the teacher's own asm.go — same scanning
// approach (a tiny hand-rolled section parser over bufio.Scanner), much
// smaller grammar, since a Program here is just a flat Instrs slice plus
// a CallTable rather than a tree of Funcode/Binding/Defer/Catch records.
// This exists purely as a test and debugging harness: persisting compiled
// programs to disk is out of scope (see DESIGN.md).
//
// The format looks like this:
//
//	program:
//
//	function: NAME ARITY LOCALS         # repeated, first is call_table[0]
//		code:
//			int 5
//			getlocal 0
//			op2 regular add
//			call regular 1
//			return 1

var sections = map[string]bool{
	"program:":  true,
	"function:": true,
	"code:":     true,
}

// Asm loads a compiled Program from its assembler textual form.
func Asm(b []byte) (*Program, error) {
	a := asm{s: bufio.NewScanner(bytes.NewReader(b)), p: &Program{}}

	fields := a.next()
	if a.err == nil && (len(fields) == 0 || !strings.EqualFold(fields[0], "program:")) {
		a.err = errors.New("expected program section")
	}
	fields = a.next()

	for a.err == nil && len(fields) > 0 && strings.EqualFold(fields[0], "function:") {
		fields = a.function(fields)
	}

	if a.err == nil {
		if len(fields) > 0 {
			a.err = fmt.Errorf("unexpected section: %s", fields[0])
		} else if len(a.p.CallTable) == 0 {
			a.err = errors.New("missing top-level function")
		}
	}
	return a.p, a.err
}

type asm struct {
	s       *bufio.Scanner
	rawLine string
	p       *Program
	err     error
}

func (a *asm) function(fields []string) []string {
	if len(fields) != 4 {
		a.err = fmt.Errorf("invalid function: want 'function: NAME ARITY LOCALS', got %d fields", len(fields))
		return a.next()
	}
	name := fields[1]
	if name == "<toplevel>" {
		// Dasm's placeholder for the unnamed top-level function.
		name = ""
	}
	entry := FunctionEntry{
		Name:   name,
		Addr:   len(a.p.Instrs),
		Arity:  int(a.int(fields[2])),
		Locals: int(a.int(fields[3])),
	}
	a.p.CallTable = append(a.p.CallTable, entry)

	fields = a.next()
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "code:") {
		a.err = errors.New("expected code section")
		return fields
	}

	base := len(a.p.Instrs)
	var jumps []int
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]] && !strings.HasSuffix(fields[0], ":"); fields = a.next() {
		instr, isJump := a.instr(fields)
		if a.err != nil {
			return fields
		}
		if isJump {
			jumps = append(jumps, len(a.p.Instrs))
		}
		a.p.Instrs = append(a.p.Instrs, instr)
	}
	// Jump/Branch operands are written as the index, relative to the
	// function's own code, of the instruction execution continues at; the
	// machine adds the stored offset to the jump's own position, so the
	// offset is target - pos (the same value funcBuilder.resolve produces).
	for _, pos := range jumps {
		target := base + a.p.Instrs[pos].Arg
		a.p.Instrs[pos].Arg = target - pos
	}
	return fields
}

func (a *asm) instr(fields []string) (Instr, bool) {
	op, ok := opcodeByName[strings.ToLower(fields[0])]
	if !ok {
		a.err = fmt.Errorf("invalid opcode: %s", fields[0])
		return Instr{}, false
	}
	rest := fields[1:]
	switch op {
	case Null, Discard:
		return Instr{Op: op}, false
	case IntOp:
		return Instr{Op: op, IntVal: a.int(arg(&a.err, rest, 0))}, false
	case FloatOp:
		return Instr{Op: op, FloatVal: a.float(arg(&a.err, rest, 0))}, false
	case BoolOp:
		return Instr{Op: op, BoolVal: arg(&a.err, rest, 0) == "true"}, false
	case FuncOp:
		return Instr{Op: op, FuncVal: FunctionToken(a.uint(arg(&a.err, rest, 0)))}, false
	case ArrayOp:
		return Instr{Op: op, Arg: int(a.int(arg(&a.err, rest, 0)))}, false
	case Op1:
		return Instr{Op: op, Kind: a.kind(arg(&a.err, rest, 0)), UnOp: a.unop(arg(&a.err, rest, 1))}, false
	case Op2:
		return Instr{Op: op, Kind: a.kind(arg(&a.err, rest, 0)), BinOp: a.binop(arg(&a.err, rest, 1))}, false
	case Op3:
		return Instr{Op: op, Kind: a.kind(arg(&a.err, rest, 0)), TriOp: Put}, false
	case CallOp:
		return Instr{Op: op, Kind: a.kind(arg(&a.err, rest, 0)), Arg: int(a.int(arg(&a.err, rest, 1)))}, false
	case ReturnOp:
		return Instr{Op: op, Arg: int(a.int(arg(&a.err, rest, 0)))}, false
	case PutLocal, GetLocal:
		return Instr{Op: op, Arg: int(a.int(arg(&a.err, rest, 0)))}, false
	case Jump, Branch:
		return Instr{Op: op, Arg: int(a.int(arg(&a.err, rest, 0)))}, true
	case PrintOp:
		return Instr{Op: op, Fmt: uint32(a.uint(arg(&a.err, rest, 0))), Arg: int(a.int(arg(&a.err, rest, 1)))}, false
	default:
		a.err = fmt.Errorf("unhandled opcode: %s", op)
		return Instr{}, false
	}
}

func arg(errp *error, fields []string, i int) string {
	if i >= len(fields) {
		if *errp == nil {
			*errp = fmt.Errorf("missing operand %d", i)
		}
		return ""
	}
	return fields[i]
}

func (a *asm) kind(s string) Kind {
	switch s {
	case "regular":
		return Regular
	case "reverse":
		return Reverse
	case "inverse":
		return Inverse
	}
	if a.err == nil {
		a.err = fmt.Errorf("invalid kind: %s", s)
	}
	return Regular
}

func (a *asm) unop(s string) ast.UnOp {
	for op, name := range unopNames {
		if strings.EqualFold(name, s) {
			return op
		}
	}
	if a.err == nil {
		a.err = fmt.Errorf("invalid unop: %s", s)
	}
	return ast.Neg
}

func (a *asm) binop(s string) ast.BinOp {
	for op, name := range binopNames {
		if strings.EqualFold(name, s) {
			return op
		}
	}
	if a.err == nil {
		a.err = fmt.Errorf("invalid binop: %s", s)
	}
	return ast.Add
}

func (a *asm) int(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("invalid integer: %s: %w", s, err)
	}
	return i
}

func (a *asm) uint(s string) uint64 {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("invalid unsigned integer: %s: %w", s, err)
	}
	return u
}

func (a *asm) float(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("invalid float: %s: %w", s, err)
	}
	return f
}

// next returns the fields for the next non-empty, non-comment line.
func (a *asm) next() []string {
	a.rawLine = ""
	if a.err != nil {
		return nil
	}
	for a.s.Scan() {
		line := a.s.Text()
		fields := strings.Fields(line)
		if len(fields) != 0 && !strings.HasPrefix(fields[0], "#") {
			for i, fld := range fields {
				if strings.HasPrefix(fld, "#") {
					fields = fields[:i]
					break
				}
			}
			a.rawLine = line
			return fields
		}
	}
	a.err = a.s.Err()
	return nil
}

var opcodeByName = map[string]Opcode{
	"null": Null, "int": IntOp, "float": FloatOp, "bool": BoolOp,
	"func": FuncOp, "array": ArrayOp, "op1": Op1, "op2": Op2, "op3": Op3,
	"call": CallOp, "return": ReturnOp, "discard": Discard,
	"putlocal": PutLocal, "getlocal": GetLocal, "jump": Jump, "branch": Branch,
	"print": PrintOp,
}

var unopNames = map[ast.UnOp]string{ast.Neg: "neg", ast.Not: "not", ast.BitNot: "bitnot"}

var binopNames = map[ast.BinOp]string{
	ast.Add: "add", ast.Sub: "sub", ast.Mul: "mul", ast.Div: "div", ast.Rem: "rem", ast.Pow: "pow",
	ast.Lt: "lt", ast.Gt: "gt", ast.Le: "le", ast.Ge: "ge", ast.Eq: "eq", ast.Ne: "ne",
	ast.And: "and", ast.Or: "or", ast.BAnd: "band", ast.BOr: "bor", ast.BXor: "bxor",
}

// Dasm writes a compiled Program to its assembler textual form.
func Dasm(p *Program) ([]byte, error) {
	d := dasm{p: p, buf: new(bytes.Buffer)}
	d.write("program:\n\n")
	for i, fn := range p.CallTable {
		end := len(p.Instrs)
		if i+1 < len(p.CallTable) {
			end = p.CallTable[i+1].Addr
		}
		d.function(fn, i, end)
		d.write("\n")
	}
	return d.buf.Bytes(), d.err
}

type dasm struct {
	p   *Program
	buf *bytes.Buffer
	err error
}

func (d *dasm) function(fn FunctionEntry, index, end int) {
	if d.err != nil {
		return
	}
	name := fn.Name
	if name == "" {
		name = "<toplevel>"
	}
	d.writef("function: %s %d %d\n", name, fn.Arity, fn.Locals)
	d.write("\tcode:\n")
	for pos := fn.Addr; pos < end; pos++ {
		d.instr(d.p.Instrs[pos], pos, fn.Addr, index)
	}
}

func (d *dasm) instr(instr Instr, pos, base, index int) {
	switch instr.Op {
	case Null, Discard:
		d.writef("\t\t%s\n", instr.Op)
	case IntOp:
		d.writef("\t\tint %d\n", instr.IntVal)
	case FloatOp:
		d.writef("\t\tfloat %g\n", instr.FloatVal)
	case BoolOp:
		d.writef("\t\tbool %t\n", instr.BoolVal)
	case FuncOp:
		d.writef("\t\tfunc %d\n", instr.FuncVal)
	case ArrayOp:
		d.writef("\t\tarray %d\n", instr.Arg)
	case Op1:
		d.writef("\t\top1 %s %s\n", instr.Kind, unopNames[instr.UnOp])
	case Op2:
		d.writef("\t\top2 %s %s\n", instr.Kind, binopNames[instr.BinOp])
	case Op3:
		d.writef("\t\top3 %s %s\n", instr.Kind, instr.TriOp)
	case CallOp:
		d.writef("\t\tcall %s %d\n", instr.Kind, instr.Arg)
	case ReturnOp:
		d.writef("\t\treturn %d\n", instr.Arg)
	case PutLocal:
		d.writef("\t\tputlocal %d\n", instr.Arg)
	case GetLocal:
		d.writef("\t\tgetlocal %d\n", instr.Arg)
	case Jump, Branch:
		// Arg is the resolved signed offset (labelPos - pos + 1); report the
		// instruction it lands on as an index relative to the function's own
		// code, the inverse of the translation Asm's function() applies.
		target := pos + instr.Arg - base
		d.writef("\t\t%s %d\n", instr.Op, target)
	case PrintOp:
		d.writef("\t\tprint %d %d\n", instr.Fmt, instr.Arg)
	default:
		d.err = fmt.Errorf("unhandled opcode in function %d at %d: %s", index, pos, instr.Op)
	}
}

func (d *dasm) writef(s string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.buf, s, args...)
}

func (d *dasm) write(s string) {
	if d.err != nil {
		return
	}
	_, d.err = d.buf.WriteString(s)
}
