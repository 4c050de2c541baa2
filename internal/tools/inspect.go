// Package tools implements offline operations on a database file: inspection,
// backup, restore and export. None of them opens the file for writing.
package tools

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"

	"github.com/cabewaldrop/rowdb/internal/storage"
	"github.com/cabewaldrop/rowdb/internal/table"
)

// Report describes a database file.
type Report struct {
	Path   string `json:"path"`
	Length int64  `json:"length"`
	Rows   uint32 `json:"rows"`
	Pages  uint32 `json:"pages"`
	BLAKE3 string `json:"blake3"`
}

// String renders the report the way the CLI prints it.
func (r *Report) String() string {
	return fmt.Sprintf("path:   %s\nlength: %d\nrows:   %d/%d\npages:  %d/%d\nblake3: %s\n",
		r.Path, r.Length, r.Rows, table.MaxRows, r.Pages, storage.TableMaxPages, r.BLAKE3)
}

// Inspect reads the database file at path and describes it.
func Inspect(path string) (*Report, error) {
	data, err := readDatabase(path)
	if err != nil {
		return nil, err
	}
	return describe(path, data)
}

func describe(path string, data []byte) (*Report, error) {
	rows, err := table.RowCountForLength(int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Report{
		Path:   path,
		Length: int64(len(data)),
		Rows:   rows,
		Pages:  pageCount(rows),
		BLAKE3: digest(data),
	}, nil
}

// ReadRows decodes every row stored in the database file at path, in
// insertion order.
func ReadRows(path string) ([]table.Row, error) {
	data, err := readDatabase(path)
	if err != nil {
		return nil, err
	}
	return decodeRows(path, data)
}

func decodeRows(path string, data []byte) ([]table.Row, error) {
	numRows, err := table.RowCountForLength(int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows := make([]table.Row, 0, numRows)
	for i := uint32(0); i < numRows; i++ {
		pageNum, byteOffset := table.RowSlot(i)
		start := storage.Offset(pageNum) + int64(byteOffset)
		rows = append(rows, table.DeserializeRow(data[start:start+table.RowSize]))
	}
	return rows, nil
}

// readDatabase reads a whole database file. The file is at most
// TableMaxPages pages, so it always fits in memory.
func readDatabase(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &storage.IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

func pageCount(rows uint32) uint32 {
	return (rows + table.RowsPerPage - 1) / table.RowsPerPage
}

func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
