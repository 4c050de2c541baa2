// Package table implements the single fixed-shape table on top of the pager.
//
// EDUCATIONAL NOTES:
// ------------------
// Logically the table is an array of rows. Physically it is a sequence of
// pages, each packed with RowsPerPage rows from its start. Any bytes left
// over at the end of a page are padding: a row never spans two pages.
//
// Row i therefore lives in page i/RowsPerPage, at byte offset
// (i%RowsPerPage)*RowSize inside that page. That mapping is the whole
// addressing scheme; there is no index and no free list.

package table

import (
	"errors"
	"fmt"

	"github.com/cabewaldrop/rowdb/internal/logging"
	"github.com/cabewaldrop/rowdb/internal/storage"
)

const (
	// RowsPerPage is the number of whole rows that fit in one page.
	RowsPerPage = storage.PageSize / RowSize

	// MaxRows is the table capacity.
	MaxRows = RowsPerPage * storage.TableMaxPages
)

// ErrTableFull is returned when inserting into a table holding MaxRows rows.
var ErrTableFull = errors.New("table full")

// Table is the one table of a database file. It exclusively owns its pager.
type Table struct {
	pager   *storage.Pager
	numRows uint32
}

// Open opens the database file at path and counts the rows it holds.
func Open(path string) (*Table, error) {
	pager, err := storage.Open(path)
	if err != nil {
		return nil, err
	}

	numRows, err := RowCountForLength(pager.FileLength())
	if err != nil {
		// Nothing was loaded, so closing with no data writes nothing.
		err = fmt.Errorf("%s: %w", path, err)
		if closeErr := pager.Close(0); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	logging.Info("table opened", "path", path, "rows", numRows)

	return &Table{
		pager:   pager,
		numRows: numRows,
	}, nil
}

// RowCountForLength derives the row count from a file length.
//
// Full pages are flushed whole, padding included, while the last partial
// page holds only its rows. A length that cannot result from that write
// pattern is reported as storage.ErrCorrupt.
func RowCountForLength(length int64) (uint32, error) {
	if length < 0 {
		return 0, fmt.Errorf("%w: negative length %d", storage.ErrCorrupt, length)
	}

	fullPages := length / storage.PageSize
	tail := length % storage.PageSize
	if tail%RowSize != 0 {
		return 0, fmt.Errorf("%w: length %d is not a whole number of rows", storage.ErrCorrupt, length)
	}

	rows := fullPages*RowsPerPage + tail/RowSize
	if rows > MaxRows {
		return 0, fmt.Errorf("%w: %d rows exceeds capacity %d", storage.ErrCorrupt, rows, MaxRows)
	}
	return uint32(rows), nil
}

// DataLength returns the number of file bytes that hold numRows rows:
// whole pages for every full page plus the rows of the partial tail page.
func DataLength(numRows uint32) int64 {
	fullPages := int64(numRows / RowsPerPage)
	tailRows := int64(numRows % RowsPerPage)
	return fullPages*storage.PageSize + tailRows*RowSize
}

// RowSlot maps a logical row index to its page and byte offset in that page.
func RowSlot(rowNum uint32) (pageNum uint32, byteOffset uint32) {
	return rowNum / RowsPerPage, (rowNum % RowsPerPage) * RowSize
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() uint32 {
	return t.numRows
}

// Full reports whether the table is at capacity.
func (t *Table) Full() bool {
	return t.numRows >= MaxRows
}

// Path returns the path of the database file.
func (t *Table) Path() string {
	return t.pager.Path()
}

// Stats describes the table for diagnostics.
type Stats struct {
	Path        string
	Rows        uint32
	MaxRows     uint32
	Pages       uint32
	CachedPages int
	RowSize     int
	RowsPerPage int
}

// Stats returns the current table statistics.
func (t *Table) Stats() Stats {
	pages := t.numRows / RowsPerPage
	if t.numRows%RowsPerPage != 0 {
		pages++
	}
	return Stats{
		Path:        t.pager.Path(),
		Rows:        t.numRows,
		MaxRows:     MaxRows,
		Pages:       pages,
		CachedPages: t.pager.CachedPages(),
		RowSize:     RowSize,
		RowsPerPage: RowsPerPage,
	}
}

// Append writes r into the slot after the last row and grows the table by
// one. It checks capacity before touching any page.
func (t *Table) Append(r *Row) error {
	if t.Full() {
		return ErrTableFull
	}

	cursor := End(t)
	slot, err := cursor.Value()
	if err != nil {
		return err
	}
	SerializeRow(r, slot)
	t.numRows++
	return nil
}

// Close flushes the table's pages and closes the file.
func (t *Table) Close() error {
	if err := t.pager.Close(DataLength(t.numRows)); err != nil {
		return err
	}
	logging.Info("table closed", "path", t.pager.Path(), "rows", t.numRows)
	return nil
}
