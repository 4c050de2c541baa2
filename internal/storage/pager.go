// Package storage - Pager component
//
// EDUCATIONAL NOTES:
// ------------------
// The Pager owns the database file and the in-memory page cache. It is the
// only component that touches the file handle.
//
// Key responsibilities:
// 1. Opening the database file (creating it if needed) and recording its length
// 2. Loading pages lazily, the first time somebody asks for them
// 3. Writing pages back to disk when the database shuts down
//
// There is no write-ahead log: anything not flushed by Close is lost if the
// process dies. That keeps the write path trivial to reason about.

package storage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cabewaldrop/rowdb/internal/logging"
)

// Pager manages reading and writing pages to the database file.
type Pager struct {
	file     *os.File
	filePath string

	// fileLength is the size of the file observed at open time.
	fileLength int64

	// pages is the cache. A nil slot has not been loaded yet.
	pages [TableMaxPages]*Page

	closed bool
}

// Open opens the database file at path, creating it if it does not exist.
func Open(path string) (*Pager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, &IOError{Op: "stat", Path: path, Err: err}
	}

	logging.Info("pager opened", "path", path, "file_length", stat.Size())

	return &Pager{
		file:       file,
		filePath:   path,
		fileLength: stat.Size(),
	}, nil
}

// FileLength returns the length in bytes of the file when it was opened.
func (p *Pager) FileLength() int64 {
	return p.fileLength
}

// Path returns the path of the backing file.
func (p *Pager) Path() string {
	return p.filePath
}

// CachedPages returns how many pages are currently held in memory.
func (p *Pager) CachedPages() int {
	n := 0
	for _, page := range p.pages {
		if page != nil {
			n++
		}
	}
	return n
}

// GetPage returns page n, loading it from disk on first access.
//
// EDUCATIONAL NOTE:
// -----------------
// On a cache miss we allocate a zeroed page and copy in whatever part of it
// the file already holds. The last page of a file is usually partial (only
// the rows actually written), so the tail of the buffer simply stays zero.
// Pages past the end of the file are returned all-zero.
//
// The returned pointer is the cache entry itself: writes through it are
// seen by every later GetPage(n) and are what Close writes back.
func (p *Pager) GetPage(n uint32) (*Page, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if n >= TableMaxPages {
		return nil, fmt.Errorf("%w: %d > %d", ErrPageOutOfBounds, n, TableMaxPages-1)
	}

	if page := p.pages[n]; page != nil {
		return page, nil
	}

	page := new(Page)
	if Offset(n) < p.fileLength {
		read, err := p.file.ReadAt(page[:], Offset(n))
		// A short read at the end of the file reports io.EOF; the rest
		// of the page stays zero.
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &IOError{Op: "read", Path: p.filePath, Err: err}
		}
		logging.Debug("page loaded", "page", n, "bytes", read)
	}

	p.pages[n] = page
	return page, nil
}

// Flush writes the first size bytes of page n to its place in the file.
func (p *Pager) Flush(n uint32, size int) error {
	if p.closed {
		return ErrClosed
	}
	if n >= TableMaxPages {
		return fmt.Errorf("%w: %d > %d", ErrPageOutOfBounds, n, TableMaxPages-1)
	}
	page := p.pages[n]
	if page == nil {
		return fmt.Errorf("%w: %d", ErrNullPage, n)
	}
	if size < 0 || size > PageSize {
		return fmt.Errorf("flush size %d out of range for page %d", size, n)
	}

	written, err := p.file.WriteAt(page[:size], Offset(n))
	if err != nil {
		return &IOError{Op: "write", Path: p.filePath, Err: err}
	}
	if written != size {
		return &IOError{Op: "write", Path: p.filePath, Err: io.ErrShortWrite}
	}

	logging.Debug("page flushed", "page", n, "bytes", size)
	return nil
}

// Close writes back every cached page that holds data within the first
// dataLength bytes of the file, syncs, and closes the file. A page lying
// entirely inside that range is written whole; the page containing the
// end of the range is written only up to it.
//
// Close may only succeed once; later calls return ErrClosed.
func (p *Pager) Close(dataLength int64) error {
	if p.closed {
		return ErrClosed
	}
	if dataLength < 0 || dataLength > Offset(TableMaxPages) {
		return fmt.Errorf("%w: data length %d exceeds capacity", ErrCorrupt, dataLength)
	}

	fullPages := uint32(dataLength / PageSize)
	for i := uint32(0); i < fullPages; i++ {
		if p.pages[i] == nil {
			continue
		}
		if err := p.Flush(i, PageSize); err != nil {
			return err
		}
	}

	if tail := int(dataLength % PageSize); tail > 0 && p.pages[fullPages] != nil {
		if err := p.Flush(fullPages, tail); err != nil {
			return err
		}
	}

	if err := p.file.Sync(); err != nil {
		return &IOError{Op: "sync", Path: p.filePath, Err: err}
	}

	p.closed = true
	for i := range p.pages {
		p.pages[i] = nil
	}

	if err := p.file.Close(); err != nil {
		return &IOError{Op: "close", Path: p.filePath, Err: err}
	}

	logging.Info("pager closed", "path", p.filePath, "data_length", dataLength)
	return nil
}
