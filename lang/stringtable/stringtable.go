// Package stringtable implements the string-interning table that sits
// upstream of the compiler: the parser inserts identifier and string
// literal text into the table and hands the compiler opaque Token
// values, which carry no semantics beyond equality and lookup.
//
// This package is an external collaborator of the compiler/machine core
// (see SPEC_FULL.md §A): the concrete grammar is out of scope, but nothing
// else in the retrieved examples provides an interning table, so this is a
// small, from-scratch implementation using the teacher's swiss-table map
// type for the text→token direction and a plain slice for token→text.
package stringtable

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Token is an opaque identifier of an interned string. The zero Token is
// never produced by Insert; it is reserved to let callers use it as a
// "no token" sentinel.
type Token uint32

func (t Token) String() string { return fmt.Sprintf("tok(%d)", t) }

// Table interns strings and hands out Tokens for them. The zero Table is
// not ready for use; call New.
type Table struct {
	byToken []string
	byText  *swiss.Map[string, Token]
}

// New returns an empty, ready-to-use Table.
func New() *Table {
	return &Table{
		byToken: []string{""}, // index 0 is unused, reserved for the zero Token
		byText:  swiss.NewMap[string, Token](64),
	}
}

// Insert interns s, returning its Token. Repeated insertions of the same
// text return the same Token.
func (t *Table) Insert(s string) Token {
	if tok, ok := t.byText.Get(s); ok {
		return tok
	}
	tok := Token(len(t.byToken))
	t.byToken = append(t.byToken, s)
	t.byText.Put(s, tok)
	return tok
}

// Get returns the text interned under tok. It panics if tok was never
// produced by Insert on this table, since that is always a caller bug
// (an internal compiler invariant, not a user-facing error).
func (t *Table) Get(tok Token) string {
	if tok == 0 || int(tok) >= len(t.byToken) {
		panic(fmt.Sprintf("stringtable: invalid token %v", tok))
	}
	return t.byToken[tok]
}

// Len returns the number of distinct strings interned so far.
func (t *Table) Len() int { return len(t.byToken) - 1 }
