package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cabewaldrop/rowdb/internal/sql/executor"
	"github.com/cabewaldrop/rowdb/internal/sql/parser"
	"github.com/cabewaldrop/rowdb/internal/table"
)

// GetErrorHint returns a helpful hint for a statement error.
// Returns empty string if no hint is available.
func GetErrorHint(err error) string {
	switch {
	case errors.Is(err, parser.ErrSyntax):
		return "Insert takes exactly three arguments: insert <id> <username> <email>."
	case errors.Is(err, parser.ErrStringTooLong):
		return fmt.Sprintf("Usernames hold at most %d bytes and emails at most %d bytes.", table.UsernameSize, table.EmailSize)
	case errors.Is(err, parser.ErrNegativeID):
		return "Ids are non-negative 32-bit integers."
	case errors.Is(err, parser.ErrUnrecognizedStatement):
		return "Supported statements are insert and select."
	case errors.Is(err, executor.ErrTableFull):
		return fmt.Sprintf("The table holds at most %d rows; no more rows can be inserted.", table.MaxRows)
	default:
		return ""
	}
}

// statusForError maps a statement error to an HTTP status code.
func statusForError(err error) int {
	switch {
	case parser.IsPrepareError(err):
		return http.StatusBadRequest
	case errors.Is(err, executor.ErrTableFull):
		return http.StatusConflict
	case errors.Is(err, executor.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
