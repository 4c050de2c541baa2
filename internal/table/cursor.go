package table

// Cursor is a position in a table, used to scan rows and to append them.
// A cursor lives for one statement and is never shared.
type Cursor struct {
	table      *Table
	rowNum     uint32
	endOfTable bool // one past the last row
}

// Start returns a cursor at the first row.
func Start(t *Table) *Cursor {
	return &Cursor{
		table:      t,
		rowNum:     0,
		endOfTable: t.numRows == 0,
	}
}

// End returns a cursor one past the last row, where the next row goes.
func End(t *Table) *Cursor {
	return &Cursor{
		table:      t,
		rowNum:     t.numRows,
		endOfTable: true,
	}
}

// RowNum returns the logical row index the cursor points at.
func (c *Cursor) RowNum() uint32 {
	return c.rowNum
}

// EndOfTable reports whether the cursor is past the last row.
func (c *Cursor) EndOfTable() bool {
	return c.endOfTable
}

// Value returns the RowSize bytes of the slot the cursor addresses. The
// slice aliases the cached page, so writing to it modifies the table.
func (c *Cursor) Value() ([]byte, error) {
	pageNum, byteOffset := RowSlot(c.rowNum)
	page, err := c.table.pager.GetPage(pageNum)
	if err != nil {
		return nil, err
	}
	return page[byteOffset : byteOffset+RowSize], nil
}

// Advance moves to the next row. It does nothing once at the end.
func (c *Cursor) Advance() {
	if c.endOfTable {
		return
	}
	c.rowNum++
	if c.rowNum >= c.table.numRows {
		c.endOfTable = true
	}
}
