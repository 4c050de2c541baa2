package table

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Row layout. These widths and offsets are the on-disk format: changing
// any of them makes existing database files unreadable.
const (
	IDSize       = 4
	UsernameSize = 32
	EmailSize    = 255

	IDOffset       = 0
	UsernameOffset = IDOffset + IDSize
	EmailOffset    = UsernameOffset + UsernameSize

	// RowSize is the serialized size of a Row.
	RowSize = IDSize + UsernameSize + EmailSize
)

// Row is the single record shape stored in the table.
//
// Username and Email are fixed-capacity buffers. Unused capacity is zero,
// so a value shorter than the field ends at the first trailing zero byte.
type Row struct {
	ID       uint32
	Username [UsernameSize]byte
	Email    [EmailSize]byte
}

// NewRow builds a Row from already validated values. Strings longer than
// their field are truncated; callers validate lengths beforehand.
func NewRow(id uint32, username, email string) Row {
	r := Row{ID: id}
	copy(r.Username[:], username)
	copy(r.Email[:], email)
	return r
}

// UsernameString returns the username without zero padding.
func (r *Row) UsernameString() string {
	return string(bytes.TrimRight(r.Username[:], "\x00"))
}

// EmailString returns the email without zero padding.
func (r *Row) EmailString() string {
	return string(bytes.TrimRight(r.Email[:], "\x00"))
}

// String renders the row as "(id, username, email)".
func (r Row) String() string {
	return fmt.Sprintf("(%d, %s, %s)", r.ID, r.UsernameString(), r.EmailString())
}

// SerializeRow writes r into dst, which must be at least RowSize bytes.
//
// EDUCATIONAL NOTE:
// -----------------
// There are no length prefixes: every field has a fixed width and a fixed
// offset, so row N of a page always starts at N*RowSize. The id is stored
// little-endian.
func SerializeRow(r *Row, dst []byte) {
	_ = dst[RowSize-1]
	binary.LittleEndian.PutUint32(dst[IDOffset:], r.ID)
	copy(dst[UsernameOffset:UsernameOffset+UsernameSize], r.Username[:])
	copy(dst[EmailOffset:EmailOffset+EmailSize], r.Email[:])
}

// DeserializeRow decodes the first RowSize bytes of src.
func DeserializeRow(src []byte) Row {
	_ = src[RowSize-1]
	var r Row
	r.ID = binary.LittleEndian.Uint32(src[IDOffset:])
	copy(r.Username[:], src[UsernameOffset:UsernameOffset+UsernameSize])
	copy(r.Email[:], src[EmailOffset:EmailOffset+EmailSize])
	return r
}
