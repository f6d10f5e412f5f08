package archtable

// RowFlagsMask isolates the flag bits packed into a Record's Row field,
// leaving the low bits for the row index itself.
const RowFlagsMask uint32 = 0xFF000000

// RowToRecord packs a row index and flag bits into the combined value a
// Record stores.
func RowToRecord(row int32, flags uint32) uint32 {
	return uint32(row) | (flags & RowFlagsMask)
}

// RecordToRow extracts the row index from a combined row+flags value.
func RecordToRow(r uint32) int32 {
	return int32(r &^ RowFlagsMask)
}

// RecordToRowFlags extracts the flag bits from a combined row+flags value.
func RecordToRowFlags(r uint32) uint32 {
	return r & RowFlagsMask
}

// Record is the world's entity index entry: which table an entity lives in,
// and at which row (with flag bits packed into the same field). The engine
// reads and patches Record.Row on every move/delete/swap/merge, but the
// Record itself - and the map from Entity to *Record - is owned by the
// world, not by this package.
type Record struct {
	Table *Table
	Row   uint32
}
