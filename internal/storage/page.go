// Package storage implements the page-based persistence layer.
//
// EDUCATIONAL NOTES:
// ------------------
// Databases move data between disk and memory in fixed-size blocks called
// "pages". Here a page is a bare 4096-byte buffer with no header: the layer
// above (the table) decides what the bytes mean. Page N always lives at
// byte offset N*PageSize in the file, so finding a page never requires an
// index or a directory.
//
// The file holds at most TableMaxPages pages. That bound is small enough
// that the whole table fits in memory, so the cache is a fixed array of
// slots rather than an eviction-based buffer pool.

package storage

const (
	// PageSize is the size of each page in bytes.
	PageSize = 4096

	// TableMaxPages is the number of page slots in the cache, and the
	// maximum number of pages a database file can hold.
	TableMaxPages = 100
)

// Page is a fixed-size block of storage. Callers mutate it in place.
type Page [PageSize]byte

// Offset returns the byte offset of page n within the file.
func Offset(n uint32) int64 {
	return int64(n) * PageSize
}
