package executor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cabewaldrop/rowdb/internal/sql/parser"
	"github.com/cabewaldrop/rowdb/internal/table"
)

func setupTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	testFile := filepath.Join(t.TempDir(), "test_executor.db")
	exec, err := Open(testFile)
	if err != nil {
		t.Fatalf("Failed to open executor: %v", err)
	}
	return exec, testFile
}

func run(t *testing.T, exec *Executor, input string) *Result {
	t.Helper()
	result, err := exec.Run(input)
	if err != nil {
		t.Fatalf("Run(%q) failed: %v", input, err)
	}
	return result
}

func TestInsertAndSelect(t *testing.T) {
	exec, _ := setupTestExecutor(t)
	defer exec.Close()

	result := run(t, exec, "insert 1 user1 person1@example.com")
	if len(result.Rows) != 0 {
		t.Errorf("insert should produce no rows, got %d", len(result.Rows))
	}
	if result.String() != "Executed.\n" {
		t.Errorf("unexpected insert output %q", result.String())
	}

	result = run(t, exec, "select")
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}
	want := "(1, user1, person1@example.com)\nExecuted.\n"
	if result.String() != want {
		t.Errorf("expected %q, got %q", want, result.String())
	}
}

func TestSelectEmptyTable(t *testing.T) {
	exec, _ := setupTestExecutor(t)
	defer exec.Close()

	result := run(t, exec, "select")
	if len(result.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(result.Rows))
	}
}

func TestSelectPreservesInsertionOrder(t *testing.T) {
	exec, _ := setupTestExecutor(t)
	defer exec.Close()

	ids := []int{30, 2, 17, 2, 0}
	for _, id := range ids {
		run(t, exec, fmt.Sprintf("insert %d user%d person%d@example.com", id, id, id))
	}

	result := run(t, exec, "select")
	if len(result.Rows) != len(ids) {
		t.Fatalf("expected %d rows, got %d", len(ids), len(result.Rows))
	}
	for i, id := range ids {
		if int(result.Rows[i].ID) != id {
			t.Errorf("row %d: expected id %d, got %d", i, id, result.Rows[i].ID)
		}
	}
}

func TestTableFull(t *testing.T) {
	exec, _ := setupTestExecutor(t)
	defer exec.Close()

	for i := 1; i <= table.MaxRows; i++ {
		run(t, exec, fmt.Sprintf("insert %d user%d person%d@example.com", i, i, i))
	}

	_, err := exec.Run("insert 1401 user1401 person1401@example.com")
	if !errors.Is(err, ErrTableFull) {
		t.Fatalf("expected ErrTableFull, got %v", err)
	}
	if got := exec.Stats().Rows; got != table.MaxRows {
		t.Errorf("row count changed after failed insert: %d", got)
	}

	result := run(t, exec, "select")
	if len(result.Rows) != table.MaxRows {
		t.Errorf("expected %d rows, got %d", table.MaxRows, len(result.Rows))
	}
}

func TestPrepareErrorLeavesTableUntouched(t *testing.T) {
	exec, _ := setupTestExecutor(t)
	defer exec.Close()

	inputs := []string{
		"insert -1 cstack foo@bar.com",
		"insert 1 " + strings.Repeat("a", 33) + " " + strings.Repeat("a", 256),
		"insert 1 user1",
		"drop table",
	}
	for _, input := range inputs {
		_, err := exec.Run(input)
		if !parser.IsPrepareError(err) {
			t.Errorf("Run(%q): expected prepare error, got %v", input, err)
		}
	}

	if got := exec.Stats().Rows; got != 0 {
		t.Errorf("expected empty table, got %d rows", got)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	exec, testFile := setupTestExecutor(t)

	run(t, exec, "insert 1 user1 person1@example.com")
	if err := exec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(testFile)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	result := run(t, reopened, "select")
	if len(result.Rows) != 1 {
		t.Fatalf("expected exactly 1 row, got %d", len(result.Rows))
	}
	if result.Rows[0].String() != "(1, user1, person1@example.com)" {
		t.Errorf("unexpected row %s", result.Rows[0].String())
	}
}

func TestCloseOnce(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	if err := exec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := exec.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := exec.Run("select"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}

func TestConcurrentInserts(t *testing.T) {
	exec, _ := setupTestExecutor(t)
	defer exec.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := exec.Run(fmt.Sprintf("insert %d u%d e%d", i, i, i)); err != nil {
				t.Errorf("insert %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if got := exec.Stats().Rows; got != 50 {
		t.Errorf("expected 50 rows, got %d", got)
	}
}

func TestExecuteDirect(t *testing.T) {
	tbl, err := table.Open(filepath.Join(t.TempDir(), "direct.db"))
	if err != nil {
		t.Fatalf("table.Open failed: %v", err)
	}
	defer tbl.Close()

	stmt, err := parser.NewInsert(9, "nine", "nine@example.com")
	if err != nil {
		t.Fatalf("NewInsert failed: %v", err)
	}
	if _, err := Execute(stmt, tbl); err != nil {
		t.Fatalf("Execute insert failed: %v", err)
	}

	result, err := Execute(&parser.SelectStatement{}, tbl)
	if err != nil {
		t.Fatalf("Execute select failed: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].ID != 9 {
		t.Errorf("unexpected rows %v", result.Rows)
	}
}
