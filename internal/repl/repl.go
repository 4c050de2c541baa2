// Package repl implements the interactive command loop.
//
// EDUCATIONAL NOTES:
// ------------------
// The REPL (Read-Eval-Print Loop) is the thin driver around the database:
// - Read: print the prompt and read one line
// - Eval: a line starting with '.' is a meta-command handled here; anything
//   else is a statement, prepared and executed by the executor
// - Print: write the result or the error message
// - Loop: until ".exit" or end of input
//
// Input and output are plain io.Reader/io.Writer values so the whole loop can
// be driven from tests with a scripted transcript.

package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cabewaldrop/rowdb/internal/logging"
	"github.com/cabewaldrop/rowdb/internal/sql/executor"
	"github.com/cabewaldrop/rowdb/internal/sql/parser"
	"github.com/cabewaldrop/rowdb/internal/storage"
	"github.com/cabewaldrop/rowdb/internal/table"
)

// Prompt is printed before every line is read.
const Prompt = "db > "

// metaCommands are special commands starting with '.'
var metaCommands = []struct {
	name string
	desc string
}{
	{".exit", "Flush the table to disk and exit"},
	{".help", "Show this help message"},
	{".constants", "Show the storage layout constants"},
	{".stats", "Show row and page counts"},
}

// maxLineLength bounds a single input line.
const maxLineLength = 1 << 20

// errExit ends the loop after a successful ".exit".
var errExit = errors.New("exit")

// REPL reads commands from in and writes results to out.
type REPL struct {
	exec    *executor.Executor
	scanner *bufio.Scanner
	out     io.Writer
}

// New creates a REPL over an open executor. The REPL closes the executor
// when the loop ends normally.
func New(exec *executor.Executor, in io.Reader, out io.Writer) *REPL {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	return &REPL{
		exec:    exec,
		scanner: scanner,
		out:     out,
	}
}

// Run processes lines until ".exit" or end of input, then closes the
// table. A non-nil error is fatal: the database file can no longer be
// trusted and the caller should abort without closing again.
func (r *REPL) Run() error {
	for {
		fmt.Fprint(r.out, Prompt)

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			// End of input behaves like .exit.
			return r.exec.Close()
		}

		line := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var err error
		if strings.HasPrefix(line, ".") {
			err = r.doMetaCommand(line)
		} else {
			err = r.doStatement(line)
		}

		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// doMetaCommand handles a line starting with '.'.
func (r *REPL) doMetaCommand(line string) error {
	switch strings.TrimSpace(line) {
	case ".exit":
		if err := r.exec.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		return errExit

	case ".help":
		fmt.Fprintln(r.out, "Meta commands:")
		for _, cmd := range metaCommands {
			fmt.Fprintf(r.out, "  %-12s %s\n", cmd.name, cmd.desc)
		}
		fmt.Fprintln(r.out, "Statements:")
		fmt.Fprintln(r.out, "  insert <id> <username> <email>")
		fmt.Fprintln(r.out, "  select")

	case ".constants":
		fmt.Fprintln(r.out, "Constants:")
		fmt.Fprintf(r.out, "ROW_SIZE: %d\n", table.RowSize)
		fmt.Fprintf(r.out, "PAGE_SIZE: %d\n", storage.PageSize)
		fmt.Fprintf(r.out, "ROWS_PER_PAGE: %d\n", table.RowsPerPage)
		fmt.Fprintf(r.out, "TABLE_MAX_PAGES: %d\n", storage.TableMaxPages)
		fmt.Fprintf(r.out, "TABLE_MAX_ROWS: %d\n", table.MaxRows)

	case ".stats":
		stats := r.exec.Stats()
		fmt.Fprintf(r.out, "rows: %d/%d\n", stats.Rows, stats.MaxRows)
		fmt.Fprintf(r.out, "pages: %d (cached %d)\n", stats.Pages, stats.CachedPages)

	default:
		fmt.Fprintf(r.out, "Unrecognized command '%s'.\n", line)
	}
	return nil
}

// doStatement prepares and executes a statement line. Recoverable errors
// are printed and swallowed; anything else is returned.
func (r *REPL) doStatement(line string) error {
	stmt, err := parser.Prepare(line)
	if err != nil {
		fmt.Fprintln(r.out, err.Error())
		return nil
	}

	result, err := r.exec.Execute(stmt)
	switch {
	case err == nil:
		fmt.Fprint(r.out, result.String())
		return nil
	case errors.Is(err, executor.ErrTableFull):
		fmt.Fprintln(r.out, "Error: Table full.")
		return nil
	default:
		if storage.IsFatal(err) {
			logging.Error("fatal storage error", "error", err)
		}
		return fmt.Errorf("execute %q: %w", line, err)
	}
}
