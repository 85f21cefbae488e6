package machine

import "strings"

// formatPrint renders fmt against args the way the Print instruction's
// format language works: '\' escapes the next character (\n \r \t \"
// produce the corresponding control/quote character, anything else is
// copied as itself), '@' consumes the next argument's String() form (or
// is copied literally once args are exhausted), and every other rune is
// copied verbatim.
func formatPrint(format string, args []Value) string {
	var b strings.Builder
	next := 0
	rs := []rune(format)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '\\':
			if i+1 < len(rs) {
				i++
				switch rs[i] {
				case 'n':
					b.WriteByte('\n')
				case 'r':
					b.WriteByte('\r')
				case 't':
					b.WriteByte('\t')
				case '"':
					b.WriteByte('"')
				default:
					b.WriteRune(rs[i])
				}
			}
		case '@':
			if next < len(args) {
				b.WriteString(args[next].String())
				next++
			} else {
				b.WriteByte('@')
			}
		default:
			b.WriteRune(rs[i])
		}
	}
	return b.String()
}
