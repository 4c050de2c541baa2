// Package parser turns one line of input into a validated Statement.
//
// EDUCATIONAL NOTES:
// ------------------
// Handling a command is split in two phases. "Prepare" parses and
// validates the text and produces a Statement value; "execute" (in the
// executor package) runs that value against the table. Validation errors
// are therefore reported before the table is ever touched.
//
// There are exactly two statements:
//
//	insert <id> <username> <email>
//	select
//
// A Statement is a closed sum type: the unexported marker method means only
// this package can add variants, so the executor's type switch is exhaustive.

package parser

import (
	"errors"
	"fmt"

	"github.com/cabewaldrop/rowdb/internal/table"
)

// Statement is a parsed, validated command.
type Statement interface {
	statement()
	String() string
}

// InsertStatement appends one row.
type InsertStatement struct {
	Row table.Row
}

func (s *InsertStatement) statement() {}
func (s *InsertStatement) String() string {
	return fmt.Sprintf("insert %d %s %s", s.Row.ID, s.Row.UsernameString(), s.Row.EmailString())
}

// SelectStatement returns every row in insertion order.
type SelectStatement struct{}

func (s *SelectStatement) statement()     {}
func (s *SelectStatement) String() string { return "select" }

// Kind classifies a prepare failure.
type Kind int

const (
	SyntaxError Kind = iota
	StringTooLong
	NegativeID
	UnrecognizedStatement
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case StringTooLong:
		return "string too long"
	case NegativeID:
		return "negative id"
	case UnrecognizedStatement:
		return "unrecognized statement"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *PrepareError.
var (
	ErrSyntax                = errors.New("syntax error")
	ErrStringTooLong         = errors.New("string is too long")
	ErrNegativeID            = errors.New("id must be positive")
	ErrUnrecognizedStatement = errors.New("unrecognized statement")
)

// PrepareError is a recoverable input error. It never implies any change
// to the table.
type PrepareError struct {
	Kind  Kind
	Input string
}

// Error returns the message shown to the user for this failure.
func (e *PrepareError) Error() string {
	switch e.Kind {
	case SyntaxError:
		return fmt.Sprintf("Syntax error at start of '%s'.", e.Input)
	case StringTooLong:
		return "String is too long."
	case NegativeID:
		return "ID must be positive."
	case UnrecognizedStatement:
		return fmt.Sprintf("Unrecognized keyword at start of '%s'.", e.Input)
	default:
		return fmt.Sprintf("prepare failed: %s", e.Input)
	}
}

func (e *PrepareError) Unwrap() error {
	switch e.Kind {
	case SyntaxError:
		return ErrSyntax
	case StringTooLong:
		return ErrStringTooLong
	case NegativeID:
		return ErrNegativeID
	case UnrecognizedStatement:
		return ErrUnrecognizedStatement
	default:
		return nil
	}
}

// IsPrepareError reports whether err is a recoverable prepare failure.
func IsPrepareError(err error) bool {
	var pe *PrepareError
	return errors.As(err, &pe)
}
