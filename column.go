package archtable

import (
	"unsafe"

	"github.com/archtable/archtable/internal/bitset"
)

// Column is a typed, contiguous array for one component in one table.
type Column struct {
	ID       Id
	Size     int32
	TypeInfo *TypeInfo
	data     byteVec
}

// Len returns the number of elements currently stored.
func (c *Column) Len() int32 { return c.data.Count() }

// Cap returns the column's current capacity, in elements.
func (c *Column) Cap() int32 { return c.data.Cap() }

// At returns a pointer to the element at row. Callers cast it to the
// concrete component type.
func (c *Column) At(row int32) unsafe.Pointer {
	return c.data.At(row)
}

// BitsetColumn is a packed bit array for one toggle-capable tag in one
// table.
type BitsetColumn struct {
	ID   Id
	data bitset.Bitset
}

// Count returns the number of rows tracked.
func (b *BitsetColumn) Count() int32 { return b.data.Count() }

// Get reports whether row's tag is currently toggled on.
func (b *BitsetColumn) Get(row int32) bool { return b.data.Get(row) }

// Set toggles row's tag.
func (b *BitsetColumn) Set(row int32, v bool) { b.data.Set(row, v) }
