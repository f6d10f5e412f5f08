package archtable

// checkSanity re-validates a table's structural invariants: every
// column's capacity tracks the entities vector's capacity exactly, the
// records vector's length matches the entities vector's length, and every
// row's packed Record.Row agrees with its actual slot. It mirrors flecs'
// flecs_table_check_sanity, gated the same way behind an opt-in config flag
// since it is O(row count) and only useful under test.
func checkSanity(t *Table) {
	if !Config.engine.SanityChecks || t.data == nil {
		return
	}
	d := t.data

	entityCount := d.entities.Len()
	if d.records.Len() != entityCount {
		invariantViolation("table %d: records length %d != entities length %d", t.id, d.records.Len(), entityCount)
	}

	entityCap := d.entities.Cap()
	for i := range d.columns {
		if got := d.columns[i].data.Cap(); got != entityCap {
			invariantViolation("table %d: column %d cap %d != entities cap %d", t.id, i, got, entityCap)
		}
		if got := d.columns[i].data.Count(); got != entityCount {
			invariantViolation("table %d: column %d count %d != entity count %d", t.id, i, got, entityCount)
		}
	}

	for i := range d.bitsets {
		if got := d.bitsets[i].data.Count(); got != entityCount {
			invariantViolation("table %d: bitset %d count %d != entity count %d", t.id, i, got, entityCount)
		}
	}

	for row := int32(0); row < entityCount; row++ {
		record := d.records.data[row]
		if record == nil {
			continue
		}
		if RecordToRow(record.Row) != row {
			invariantViolation("table %d: row %d's record claims row %d", t.id, row, RecordToRow(record.Row))
		}
	}
}
