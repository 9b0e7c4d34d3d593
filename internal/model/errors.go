package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Sentinel errors for the two fatal input failures. Match with eris.Is.
var (
	ErrSchema = eris.New("schema error")
	ErrDomain = eris.New("domain error")
)

// SchemaError reports required columns absent from an input table.
type SchemaError struct {
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Unwrap lets eris.Is match ErrSchema.
func (e *SchemaError) Unwrap() error { return ErrSchema }

// DomainError reports a value outside its closed vocabulary or range.
type DomainError struct {
	Row    int // zero-based trial row
	Column string
	Value  string
	Reason string
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("domain error: row %d column %s: invalid value %q", e.Row, e.Column, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap lets eris.Is match ErrDomain.
func (e *DomainError) Unwrap() error { return ErrDomain }
