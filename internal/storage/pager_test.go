package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPagerCreateClose(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_pager.db")

	pager, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if pager.FileLength() != 0 {
		t.Errorf("expected empty file, got length %d", pager.FileLength())
	}

	if err := pager.Close(0); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty file after close, got %d bytes", info.Size())
	}
}

func TestPagerOpenFailure(t *testing.T) {
	// A directory cannot be opened for read/write.
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected error opening a directory")
	}

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %T", err)
	}
	if ioErr.Op != "open" {
		t.Errorf("expected op open, got %q", ioErr.Op)
	}
	if !IsFatal(err) {
		t.Error("open failure should be fatal")
	}
}

func TestPagerGetPageSharesCacheEntry(t *testing.T) {
	pager, err := Open(filepath.Join(t.TempDir(), "test_cache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer pager.Close(0)

	page, err := pager.GetPage(3)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if *page != (Page{}) {
		t.Error("page beyond end of file should be zeroed")
	}

	page[10] = 0xAB

	again, err := pager.GetPage(3)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if again != page {
		t.Error("expected the same cache entry on second access")
	}
	if again[10] != 0xAB {
		t.Errorf("expected mutation to be visible, got %x", again[10])
	}

	if pager.CachedPages() != 1 {
		t.Errorf("expected 1 cached page, got %d", pager.CachedPages())
	}
}

func TestPagerGetPageOutOfBounds(t *testing.T) {
	pager, err := Open(filepath.Join(t.TempDir(), "test_bounds.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer pager.Close(0)

	if _, err := pager.GetPage(TableMaxPages - 1); err != nil {
		t.Errorf("last page should be addressable: %v", err)
	}

	_, err = pager.GetPage(TableMaxPages)
	if !errors.Is(err, ErrPageOutOfBounds) {
		t.Fatalf("expected ErrPageOutOfBounds, got %v", err)
	}
	if !IsFatal(err) {
		t.Error("out of bounds page should be fatal")
	}
}

func TestPagerPersistence(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_persist.db")

	pager, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	first, _ := pager.GetPage(0)
	copy(first[:], bytes.Repeat([]byte{'a'}, PageSize))
	second, _ := pager.GetPage(1)
	copy(second[:], "Persistent data")

	// One full page plus 15 bytes of the second.
	if err := pager.Close(PageSize + 15); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != PageSize+15 {
		t.Errorf("expected file length %d, got %d", PageSize+15, info.Size())
	}

	pager2, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open (reopen) failed: %v", err)
	}
	defer pager2.Close(pager2.FileLength())

	if pager2.FileLength() != PageSize+15 {
		t.Errorf("expected file length %d, got %d", PageSize+15, pager2.FileLength())
	}

	page0, err := pager2.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage 0 failed: %v", err)
	}
	if page0[PageSize-1] != 'a' {
		t.Error("expected full first page to be persisted")
	}

	page1, err := pager2.GetPage(1)
	if err != nil {
		t.Fatalf("GetPage 1 failed: %v", err)
	}
	if got := string(page1[:15]); got != "Persistent data" {
		t.Errorf("expected %q, got %q", "Persistent data", got)
	}
	// Past the partial data the page is zero-padded.
	if !bytes.Equal(page1[15:], make([]byte, PageSize-15)) {
		t.Error("expected partial page to be zero-padded")
	}
}

func TestPagerCloseSkipsUnloadedPages(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_unloaded.db")
	if err := os.WriteFile(testFile, bytes.Repeat([]byte{'z'}, PageSize), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	pager, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	// Page 0 was never loaded, so it must not be overwritten with zeros.
	if err := pager.Close(PageSize); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(data, bytes.Repeat([]byte{'z'}, PageSize)) {
		t.Error("unloaded page content changed on close")
	}
}

func TestPagerDoubleClose(t *testing.T) {
	pager, err := Open(filepath.Join(t.TempDir(), "test_double.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := pager.Close(0); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := pager.Close(0); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on second Close, got %v", err)
	}
	if _, err := pager.GetPage(0); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from GetPage after Close, got %v", err)
	}
}

func TestPagerFlushNullPage(t *testing.T) {
	pager, err := Open(filepath.Join(t.TempDir(), "test_null.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer pager.Close(0)

	if err := pager.Flush(0, PageSize); !errors.Is(err, ErrNullPage) {
		t.Errorf("expected ErrNullPage, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"io", &IOError{Op: "read", Err: errors.New("disk")}, true},
		{"corrupt", ErrCorrupt, true},
		{"wrapped bounds", errors.Join(errors.New("ctx"), ErrPageOutOfBounds), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
