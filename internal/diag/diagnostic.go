package diag

import (
	"fmt"
	"go/token"
	"strings"
)

type Note struct {
	Pos token.Position
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      token.Position
	Symbol   string // exported symbol or layout the finding belongs to
	GoType   string // offending Go type expression, when there is one
	Notes    []Note
}

// String renders the diagnostic on one line, prefixed by its position when known.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Pos.IsValid() {
		b.WriteString(d.Pos.String())
		b.WriteString(": ")
	} else if d.Pos.Filename != "" {
		b.WriteString(d.Pos.Filename)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s: %s", strings.ToLower(d.Severity.String()), d.Code.ID(), d.Message)
	if d.Symbol != "" {
		fmt.Fprintf(&b, " (symbol %s", d.Symbol)
		if d.GoType != "" {
			fmt.Fprintf(&b, ", type %s", d.GoType)
		}
		b.WriteByte(')')
	} else if d.GoType != "" {
		fmt.Fprintf(&b, " (type %s)", d.GoType)
	}
	return b.String()
}
