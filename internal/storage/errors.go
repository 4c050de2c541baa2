package storage

import (
	"errors"
	"fmt"
)

// Errors raised by the storage layer. All of them are fatal for the
// process: they mean the backing file or the row addressing is broken,
// never that a user typed something wrong.
var (
	// ErrPageOutOfBounds is returned when a page index is at or beyond TableMaxPages.
	ErrPageOutOfBounds = errors.New("page number out of bounds")

	// ErrCorrupt is returned when the file length cannot have been produced
	// by the documented write path.
	ErrCorrupt = errors.New("corrupt database file")

	// ErrClosed is returned by operations on a pager that was already closed.
	ErrClosed = errors.New("pager is closed")

	// ErrNullPage is returned when flushing a page that was never loaded.
	ErrNullPage = errors.New("tried to flush null page")
)

// IOError represents an I/O operation error on the database file.
type IOError struct {
	Op   string // "open", "stat", "read", "write", "close"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err comes from the storage layer's fatal
// taxonomy: file I/O, corruption, capacity/addressing defects or use
// after close.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ioErr *IOError
	return errors.As(err, &ioErr) ||
		errors.Is(err, ErrPageOutOfBounds) ||
		errors.Is(err, ErrCorrupt) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, ErrNullPage)
}
