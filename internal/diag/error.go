package diag

import (
	"errors"
	"go/token"
	"strings"
)

// Error carries one or more diagnostics through the error interface.
type Error struct {
	Bag   *Bag
	Cause error
}

func (e *Error) Error() string {
	if e == nil || e.Bag == nil || e.Bag.Len() == 0 {
		if e != nil && e.Cause != nil {
			return e.Cause.Error()
		}
		return "<nil>"
	}
	items := e.Bag.Items()
	parts := make([]string, 0, len(items))
	for _, d := range items {
		parts = append(parts, d.String())
	}
	msg := strings.Join(parts, "\n")
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Diagnostics returns the wrapped diagnostics.
func (e *Error) Diagnostics() []Diagnostic {
	if e == nil || e.Bag == nil {
		return nil
	}
	return e.Bag.Items()
}

// Errorf builds a single-diagnostic error.
func Errorf(code Code, pos token.Position, symbol, msg string, cause error) *Error {
	bag := NewBag(1)
	bag.Add(Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  msg,
		Pos:      pos,
		Symbol:   symbol,
	})
	return &Error{Bag: bag, Cause: cause}
}

// Is reports whether err carries a diagnostic with the given code.
func Is(err error, code Code) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	for _, d := range de.Diagnostics() {
		if d.Code == code {
			return true
		}
	}
	return false
}
