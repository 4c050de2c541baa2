// Package executor runs prepared statements against the table.
//
// EDUCATIONAL NOTES:
// ------------------
// Execution is deliberately boring: an insert writes one row at the end of
// the table, a select walks a cursor from the first row to the last. The
// interesting property is that a failing insert changes nothing: the
// capacity check happens before any byte is written.
//
// Execute is the pure operation over a *table.Table. Executor wraps one
// open table for drivers (the REPL and the HTTP server) and serializes
// access to it, since the HTTP server calls in from many goroutines.

package executor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cabewaldrop/rowdb/internal/logging"
	"github.com/cabewaldrop/rowdb/internal/sql/parser"
	"github.com/cabewaldrop/rowdb/internal/table"
)

// ErrTableFull is the only recoverable execution error.
var ErrTableFull = table.ErrTableFull

// ErrClosed is returned by an Executor whose table was already closed.
var ErrClosed = errors.New("executor is closed")

// Result represents the result of executing a statement.
type Result struct {
	// Rows holds the rows produced by a select, in insertion order.
	Rows []table.Row
	// Statement is the statement that produced the result.
	Statement parser.Statement
}

// String formats the result the way the REPL prints it: one line per
// selected row, then "Executed.".
func (r *Result) String() string {
	var sb strings.Builder
	for _, row := range r.Rows {
		sb.WriteString(row.String())
		sb.WriteString("\n")
	}
	sb.WriteString("Executed.\n")
	return sb.String()
}

// Execute runs stmt against tbl.
func Execute(stmt parser.Statement, tbl *table.Table) (*Result, error) {
	switch s := stmt.(type) {
	case *parser.InsertStatement:
		return executeInsert(s, tbl)
	case *parser.SelectStatement:
		return executeSelect(s, tbl)
	default:
		return nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

func executeInsert(stmt *parser.InsertStatement, tbl *table.Table) (*Result, error) {
	if tbl.Full() {
		return nil, ErrTableFull
	}
	if err := tbl.Append(&stmt.Row); err != nil {
		return nil, err
	}
	return &Result{Statement: stmt}, nil
}

func executeSelect(stmt *parser.SelectStatement, tbl *table.Table) (*Result, error) {
	rows := make([]table.Row, 0, tbl.NumRows())
	for cursor := table.Start(tbl); !cursor.EndOfTable(); cursor.Advance() {
		slot, err := cursor.Value()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", cursor.RowNum(), err)
		}
		rows = append(rows, table.DeserializeRow(slot))
	}
	return &Result{Rows: rows, Statement: stmt}, nil
}

// Executor owns one open table.
type Executor struct {
	mu     sync.Mutex
	table  *table.Table
	closed bool
}

// Open opens the database file at path.
func Open(path string) (*Executor, error) {
	tbl, err := table.Open(path)
	if err != nil {
		return nil, err
	}
	return New(tbl), nil
}

// New wraps an already open table. The Executor takes ownership of it.
func New(tbl *table.Table) *Executor {
	return &Executor{table: tbl}
}

// Run prepares and executes one line of input.
func (e *Executor) Run(input string) (*Result, error) {
	stmt, err := parser.Prepare(input)
	if err != nil {
		return nil, err
	}
	return e.Execute(stmt)
}

// Execute runs a prepared statement.
func (e *Executor) Execute(stmt parser.Statement) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	result, err := Execute(stmt, e.table)
	if err != nil {
		if errors.Is(err, ErrTableFull) {
			logging.Warn("insert rejected", "reason", "table full", "rows", e.table.NumRows())
		} else {
			logging.Error("statement failed", "statement", stmt.String(), "error", err)
		}
		return nil, err
	}

	logging.Debug("statement executed", "statement", stmt.String(), "rows", len(result.Rows))
	return result, nil
}

// Stats returns the table statistics.
func (e *Executor) Stats() table.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table.Stats()
}

// Close flushes and closes the table. Only the first call does any work;
// later calls return ErrClosed.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.closed = true
	return e.table.Close()
}
