package archtable

import "unsafe"

// TableData is the mutable storage backing a Table: parallel entities and
// records arrays, the component columns, the toggle bitset columns, and the
// per-column dirty counters.
type TableData struct {
	entities vec[Entity]
	records  vec[*Record]

	columns []Column
	bitsets []BitsetColumn

	// dirtyState has length columnCount+1 once allocated: slot 0 tracks the
	// entity vector itself, slots 1..=columnCount track each column.
	dirtyState []uint32

	columnCount int16
	bsCount     int16
	flags       TableFlags
}

func newTableData() *TableData {
	return &TableData{}
}

// Entities returns the live entity ids, in row order. Callers must not
// retain the slice across a mutating call.
func (d *TableData) Entities() []Entity { return d.entities.data }

// Records returns the live entity-index record pointers, in row order.
func (d *TableData) Records() []*Record { return d.records.data }

// Column returns column index c, or nil if out of range.
func (d *TableData) Column(c int32) *Column {
	if c < 0 || c >= int32(len(d.columns)) {
		return nil
	}
	return &d.columns[c]
}

// setColumnCap forces every column's capacity to match the entities
// vector's new capacity; bitset columns are not touched. Columns never grow
// on their own amortised schedule; they track the entities vector exactly
// (table invariant #1).
func (d *TableData) setColumnCap(cap int32) {
	for i := range d.columns {
		d.columns[i].data.SetCap(cap)
	}
}

// ---- initialization --------------------------------------------------------

// initColumns assigns type<->column slots for every id in records that
// carries TypeInfo, filling in each Column and patching TableRecord.Column
// plus, for a pair whose concrete slot shares its index with the parent
// wildcard record, the parent's Column too.
func (t *Table) initColumns(columnCount int32) {
	if columnCount == 0 {
		return
	}

	idsCount := t.typ.Count()
	columns := make([]Column, columnCount)
	t.data.columns = columns

	ids := t.typ.ids
	t2s := t.columnMap[:idsCount]
	s2t := t.columnMap[idsCount:]

	cur := int32(0)
	for i := int32(0); i < idsCount; i++ {
		tr := &t.records[i]
		idr := tr.idr
		ti := idr.TypeInfo
		if ti == nil {
			t2s[i] = -1
			continue
		}

		t2s[i] = cur
		s2t[cur] = i
		tr.Column = int16(cur)

		columns[cur] = Column{
			ID:       ids[i],
			Size:     ti.Size,
			TypeInfo: ti,
			data:     newByteVec(ti.Size),
		}

		if IsPair(ids[i]) {
			if wcTr := idr.Parent.CacheGet(t.id); wcTr != nil && wcTr.Index == tr.Index {
				wcTr.Column = tr.Column
			}
		}

		t.flags |= ti.flags()
		cur++
	}
}

// initTableData allocates TableData and its columns/bitsets for a freshly
// initialised table.
func (t *Table) initTableData(columnCount int32) {
	data := newTableData()
	data.columnCount = int16(columnCount)
	t.data = data

	t.initColumns(columnCount)

	if t.flags&HasToggle != 0 {
		bsCount := int32(0)
		for i := int32(t.bsOffset); i < t.typ.Count(); i++ {
			if HasRole(t.typ.ids[i], RoleToggle) {
				bsCount++
			}
		}
		assertf(bsCount > 0, "table flagged HasToggle but found no toggle ids")

		bitsets := make([]BitsetColumn, bsCount)
		j := int32(0)
		for i := int32(t.bsOffset); i < t.typ.Count(); i++ {
			if HasRole(t.typ.ids[i], RoleToggle) {
				bitsets[j].ID = t.typ.ids[i]
				j++
			}
		}
		data.bitsets = bitsets
		data.bsCount = int16(bsCount)
	}

	data.flags = t.flags
}

// ---- append / appendn -------------------------------------------------------

func fastAppend(columns []Column, cap int32) {
	for i := range columns {
		columns[i].data.SetCap(cap)
		columns[i].data.Grow(1)
	}
}

// columnAppend grows column by toAdd elements to a final capacity of
// dstCap, handling reallocation carefully: when the
// backing array is about to change size and the type exposes CtorMoveDtor,
// relocate manually instead of letting a bulk memmove move (and thus
// silently default-copy) non-trivially-relocatable payloads.
func columnAppend(column *Column, toAdd, dstCap int32, construct bool) unsafe.Pointer {
	ti := column.TypeInfo
	count := column.data.Count()
	srcCap := column.data.Cap()
	canRealloc := dstCap != srcCap

	if count > 0 && canRealloc && ti.Hooks.CtorMoveDtor != nil {
		assertf(ti.Hooks.Ctor != nil, "CtorMoveDtor present without Ctor for column %d", column.ID)

		dst := newByteVec(column.Size)
		dst.SetCap(dstCap)
		dst.count = count + toAdd

		ti.Hooks.CtorMoveDtor(dst.At(0), column.data.At(0), count, ti)

		var result unsafe.Pointer
		if construct {
			result = dst.At(count)
			ti.Hooks.Ctor(result, toAdd, ti)
		}

		column.data.Fini()
		column.data = dst
		return result
	}

	if canRealloc {
		column.data.SetCap(dstCap)
	}
	result := column.data.Grow(toAdd)
	if construct && ti.Hooks.Ctor != nil {
		ti.Hooks.Ctor(result, toAdd, ti)
	}
	return result
}

func markDirtySlot(d *TableData, index int32) {
	if d.dirtyState != nil {
		d.dirtyState[index]++
	}
}

// Append pushes one entity onto the table, returning its new row. It is the
// table-engine-level Append operation.
func (t *Table) Append(entity Entity, record *Record, construct, onAdd bool) int32 {
	assertf(t.lock == 0, "append on locked table %d", t.id)
	assertf(t.flags&HasTarget == 0, "append on HasTarget table %d", t.id)

	d := t.data
	count := d.entities.Len()

	if count == 0 && Config.engine.InitialColumnCapacity > 0 {
		d.entities.reserveExact(Config.engine.InitialColumnCapacity)
		d.records.reserveExact(Config.engine.InitialColumnCapacity)
	}

	d.entities.Append(entity)
	d.records.Append(record)
	cap := d.entities.Cap()
	d.records.reserveExact(cap)

	markDirtySlot(d, 0)

	if d.flags&IsComplex == 0 {
		fastAppend(d.columns, cap)
		if count == 0 {
			t.world.emit(EventOnTableFillEvt, t)
		}
		return count
	}

	entities := d.entities.data

	for i := range d.columns {
		column := &d.columns[i]
		columnAppend(column, 1, cap, construct)

		if onAdd && column.TypeInfo.Hooks.OnAdd != nil {
			column.TypeInfo.Hooks.OnAdd(entities[count:count+1], column.data.At(count), column.ID, count, 1)
		}
	}

	for i := range d.bitsets {
		d.bitsets[i].data.AddN(1)
	}

	if count == 0 {
		t.world.emit(EventOnTableFillEvt, t)
	}
	return count
}

// AppendN reserves room for toAdd entities in one shot and returns the row
// of the first one. ids may be nil, in which case new entity
// slots are zeroed; records are always zeroed, callers patch them in.
func (t *Table) AppendN(toAdd int32, ids []Entity) int32 {
	assertf(t.lock == 0, "appendn on locked table %d", t.id)
	assertf(t.flags&HasTarget == 0, "appendn on HasTarget table %d", t.id)

	d := t.data
	curCount := d.entities.Len()
	size := curCount + toAdd

	newEntities := d.entities.Grow(toAdd, size)
	if ids != nil {
		copy(newEntities, ids)
	}
	d.records.Grow(toAdd, size)

	cap := d.entities.Cap()
	if cap > size {
		size = cap
		d.entities.reserveExact(size)
		d.records.reserveExact(size)
	}

	for i := range d.columns {
		column := &d.columns[i]
		columnAppend(column, toAdd, size, true)
		if column.TypeInfo.Hooks.OnAdd != nil {
			column.TypeInfo.Hooks.OnAdd(newEntities, column.data.At(curCount), column.ID, curCount, toAdd)
		}
	}

	for i := range d.bitsets {
		d.bitsets[i].data.AddN(toAdd)
	}

	markDirtySlot(d, 0)

	if curCount == 0 && toAdd > 0 {
		t.world.emit(EventOnTableFillEvt, t)
	}
	return curCount
}

// ---- delete ------------------------------------------------------------------

// Delete removes row from the table, invoking on_remove/dtor hooks (in that
// order) when destruct is set and the table has them.
func (t *Table) Delete(row int32, destruct bool) {
	assertf(t.lock == 0, "delete on locked table %d", t.id)
	assertf(t.flags&HasTarget == 0, "delete on HasTarget table %d", t.id)

	d := t.data
	count := d.entities.Len() - 1
	assertf(row <= count, "delete row %d out of range (count %d)", row, count+1)

	entityToDelete := d.entities.data[row]
	entityToMove := d.entities.data[count]
	d.entities.data[row] = entityToMove
	d.entities.RemoveLast()

	recordToMove := d.records.data[count]
	d.records.data[row] = recordToMove
	d.records.RemoveLast()

	if row != count && recordToMove != nil {
		flags := RecordToRowFlags(recordToMove.Row)
		recordToMove.Row = RowToRecord(row, flags)
		assertf(recordToMove.Table == t, "moved record points at table %v, expected %v", recordToMove.Table, t)
	}

	markDirtySlot(d, 0)

	columns := d.columns

	if d.flags&IsComplex == 0 {
		if row == count {
			for i := range columns {
				columns[i].data.RemoveLast()
			}
		} else {
			for i := range columns {
				columns[i].data.SwapRemove(row)
			}
		}
	} else if row == count {
		if destruct && d.flags&HasDtors != 0 {
			for i := range columns {
				c := &columns[i]
				if c.TypeInfo.Hooks.OnRemove != nil {
					c.TypeInfo.Hooks.OnRemove([]Entity{entityToDelete}, c.data.At(row), c.ID, row, 1)
				}
				if c.TypeInfo.Hooks.Dtor != nil {
					c.TypeInfo.Hooks.Dtor(c.data.At(row), 1, c.TypeInfo)
				}
			}
		}
		for i := range columns {
			columns[i].data.RemoveLast()
		}
	} else if d.flags&(HasDtors|HasMove) != 0 {
		for i := range columns {
			c := &columns[i]
			ti := c.TypeInfo
			dst := c.data.At(row)
			src := c.data.At(c.data.Count() - 1)

			if destruct && ti.Hooks.OnRemove != nil {
				ti.Hooks.OnRemove([]Entity{entityToDelete}, dst, c.ID, row, 1)
			}

			if ti.Hooks.MoveDtor != nil {
				ti.Hooks.MoveDtor(dst, src, 1, ti)
			} else {
				copy(c.data.Bytes(row), c.data.Bytes(c.data.Count()-1))
			}
			c.data.RemoveLast()
		}
	} else {
		for i := range columns {
			columns[i].data.SwapRemove(row)
		}
	}

	for i := range d.bitsets {
		d.bitsets[i].data.SwapRemove(row)
	}

	if d.entities.Len() == 0 {
		t.world.emit(EventOnTableEmptyEvt, t)
	}
}

// ---- move between tables ------------------------------------------------------

func fastMove(dst *TableData, dstRow int32, src *TableData, srcRow int32) {
	iDst, iSrc := 0, 0
	dstColumns, srcColumns := dst.columns, src.columns
	for iDst < len(dstColumns) && iSrc < len(srcColumns) {
		dc, sc := &dstColumns[iDst], &srcColumns[iSrc]
		if dc.ID == sc.ID {
			copy(dc.data.Bytes(dstRow), sc.data.Bytes(srcRow))
		}
		if dc.ID <= sc.ID {
			iDst++
		}
		if dc.ID >= sc.ID {
			iSrc++
		}
	}
}

func moveBitsetColumns(dst, src *TableData, dstRow, srcRow, count int32, clear bool) {
	iDst, iSrc := 0, 0
	dstCols, srcCols := dst.bitsets, src.bitsets
	for iDst < len(dstCols) && iSrc < len(srcCols) {
		dc, sc := &dstCols[iDst], &srcCols[iSrc]
		if dc.ID == sc.ID {
			dc.data.Ensure(dstRow + count)
			for i := int32(0); i < count; i++ {
				dc.data.Set(dstRow+i, sc.data.Get(srcRow+i))
			}
			if clear {
				sc.data.Fini()
			}
		} else if dc.ID > sc.ID && clear {
			sc.data.Fini()
		}
		if dc.ID <= sc.ID {
			iDst++
		}
		if dc.ID >= sc.ID {
			iSrc++
		}
	}
	if clear {
		for ; iSrc < len(srcCols); iSrc++ {
			srcCols[iSrc].data.Fini()
		}
	}
}

// Move migrates one row's component data from src to dst, invoking the
// correct ctor/move/copy/dtor hook per the same-entity/cross-entity priority
// rules below. The
// caller is expected to follow up with src.Delete(srcRow, false) (a
// swap-remove) since useMoveDtor below assumes the moved-away-from slot is
// about to disappear exactly when it is the last row of src.
func Move(dstEntity, srcEntity Entity, dst *Table, dstRow int32, src *Table, srcRow int32, construct bool) {
	assertf(dst.lock == 0 && src.lock == 0, "move touching a locked table")

	dstData, srcData := dst.data, src.data
	if (dstData.flags|srcData.flags)&IsComplex == 0 {
		fastMove(dstData, dstRow, srcData, srcRow)
		return
	}

	moveBitsetColumns(dstData, srcData, dstRow, srcRow, 1, false)

	sameEntity := dstEntity == srcEntity
	useMoveDtor := srcRow == src.Count()-1

	iDst, iSrc := 0, 0
	dstColumns, srcColumns := dstData.columns, srcData.columns

	for iDst < len(dstColumns) && iSrc < len(srcColumns) {
		dc, sc := &dstColumns[iDst], &srcColumns[iSrc]

		switch {
		case dc.ID == sc.ID:
			ti := dc.TypeInfo
			dstPtr, srcPtr := dc.data.At(dstRow), sc.data.At(srcRow)
			if sameEntity {
				move := ti.Hooks.MoveCtor
				if useMoveDtor || move == nil {
					move = ti.Hooks.CtorMoveDtor
				}
				if move != nil {
					move(dstPtr, srcPtr, 1, ti)
				} else {
					copy(dc.data.Bytes(dstRow), sc.data.Bytes(srcRow))
				}
			} else {
				if ti.Hooks.CopyCtor != nil {
					ti.Hooks.CopyCtor(dstPtr, srcPtr, 1, ti)
				} else {
					copy(dc.data.Bytes(dstRow), sc.data.Bytes(srcRow))
				}
			}
			iDst++
			iSrc++
		case dc.ID < sc.ID:
			invokeAddHooks(dst, dc, dstEntity, dstRow, 1, construct)
			iDst++
		default:
			invokeRemoveHooks(src, sc, srcEntity, srcRow, 1, useMoveDtor)
			iSrc++
		}
	}
	for ; iDst < len(dstColumns); iDst++ {
		invokeAddHooks(dst, &dstColumns[iDst], dstEntity, dstRow, 1, construct)
	}
	for ; iSrc < len(srcColumns); iSrc++ {
		invokeRemoveHooks(src, &srcColumns[iSrc], srcEntity, srcRow, 1, useMoveDtor)
	}
}

func invokeAddHooks(t *Table, c *Column, entity Entity, row, count int32, construct bool) {
	ti := c.TypeInfo
	if construct && ti.Hooks.Ctor != nil {
		ti.Hooks.Ctor(c.data.At(row), count, ti)
	}
	if ti.Hooks.OnAdd != nil {
		ti.Hooks.OnAdd([]Entity{entity}, c.data.At(row), c.ID, row, count)
	}
}

func invokeRemoveHooks(t *Table, c *Column, entity Entity, row, count int32, dtor bool) {
	ti := c.TypeInfo
	if ti.Hooks.OnRemove != nil {
		ti.Hooks.OnRemove([]Entity{entity}, c.data.At(row), c.ID, row, count)
	}
	if dtor && ti.Hooks.Dtor != nil {
		ti.Hooks.Dtor(c.data.At(row), count, ti)
	}
}

// ---- swap ----------------------------------------------------------------------

// Swap exchanges two rows within the same table. It is its own inverse:
// calling it twice with the same arguments is a no-op on every array except
// the dirty counters.
func (t *Table) Swap(row1, row2 int32) {
	if row1 == row2 {
		return
	}
	d := t.data
	markDirtySlot(d, 0)

	e1, e2 := d.entities.data[row1], d.entities.data[row2]
	r1, r2 := d.records.data[row1], d.records.data[row2]

	flags1, flags2 := RecordToRowFlags(r1.Row), RecordToRowFlags(r2.Row)

	d.entities.data[row1], d.entities.data[row2] = e2, e1
	r1.Row = RowToRecord(row2, flags1)
	r2.Row = RowToRecord(row1, flags2)
	d.records.data[row1], d.records.data[row2] = r2, r1

	for i := range d.bitsets {
		d.bitsets[i].data.Swap(row1, row2)
	}

	for i := range d.columns {
		d.columns[i].data.Swap(row1, row2)
	}
}

// ---- merge ---------------------------------------------------------------------

func mergeColumn(dst, src *Column, dstCap int32) {
	dstCount := dst.data.Count()
	if dstCount == 0 {
		dst.data.Fini()
		dst.data = src.data
		src.data = newByteVec(src.Size)
		dst.data.SetCap(dstCap)
		return
	}

	srcCount := src.data.Count()
	columnAppend(dst, srcCount, dstCap, false)
	dstPtr := dst.data.At(dstCount)
	srcPtr := src.data.At(0)

	if dst.TypeInfo.Hooks.MoveDtor != nil {
		dst.TypeInfo.Hooks.MoveDtor(dstPtr, srcPtr, srcCount, dst.TypeInfo)
	} else {
		copy(dst.data.BytesRange(dstCount, srcCount), src.data.BytesRange(0, srcCount))
	}
	src.data.Fini()
}

func mergeColumns(dst, src *Table, srcCount, dstCount int32) {
	if srcCount == 0 {
		return
	}
	dstData, srcData := dst.data, src.data

	dstData.entities.data = append(dstData.entities.data, srcData.entities.data...)
	dstData.records.data = append(dstData.records.data, srcData.records.data...)
	cap := dstData.entities.Cap()
	columnSize := cap

	iNew, iOld := 0, 0
	dstColumns, srcColumns := dstData.columns, srcData.columns

	for iNew < len(dstColumns) && iOld < len(srcColumns) {
		dc, sc := &dstColumns[iNew], &srcColumns[iOld]
		switch {
		case dc.ID == sc.ID:
			mergeColumn(dc, sc, columnSize)
			markDirtySlot(dstData, int32(iNew)+1)
			iNew++
			iOld++
		case dc.ID < sc.ID:
			dc.data.SetCap(columnSize)
			dc.data.count = srcCount + dstCount
			if dc.TypeInfo.Hooks.Ctor != nil {
				dc.TypeInfo.Hooks.Ctor(dc.data.At(dstCount), srcCount, dc.TypeInfo)
			}
			iNew++
		default:
			if sc.TypeInfo.Hooks.Dtor != nil {
				sc.TypeInfo.Hooks.Dtor(sc.data.At(0), srcCount, sc.TypeInfo)
			}
			sc.data.Fini()
			iOld++
		}
	}

	moveBitsetColumns(dstData, srcData, dstCount, 0, srcCount, true)
	for i := range dstData.bitsets {
		dstData.bitsets[i].data.Ensure(srcCount + dstCount)
	}

	for ; iNew < len(dstColumns); iNew++ {
		dc := &dstColumns[iNew]
		dc.data.SetCap(columnSize)
		dc.data.count = srcCount + dstCount
		if dc.TypeInfo.Hooks.Ctor != nil {
			dc.TypeInfo.Hooks.Ctor(dc.data.At(dstCount), srcCount, dc.TypeInfo)
		}
	}
	for ; iOld < len(srcColumns); iOld++ {
		sc := &srcColumns[iOld]
		if sc.TypeInfo.Hooks.Dtor != nil {
			sc.TypeInfo.Hooks.Dtor(sc.data.At(0), srcCount, sc.TypeInfo)
		}
		sc.data.Fini()
	}

	markDirtySlot(dstData, 0)
}

// Merge migrates every row of src into dst in bulk, the way a table merges
// when every one of its entities changes archetype at once.
// After Merge, src is empty and dst holds dst's original rows followed by
// src's.
func Merge(dst, src *Table) {
	assertf(src.lock == 0, "merge from locked table %d", src.id)

	srcData := src.data
	srcEntities := srcData.entities.data
	srcCount := srcData.entities.Len()
	dstCount := dst.data.entities.Len()
	srcRecords := srcData.records.data

	for i := int32(0); i < srcCount; i++ {
		var record *Record
		if dst != src {
			record = srcRecords[i]
			assertf(record != nil, "merge src row %d has no entity-index record", i)
		} else {
			record = dst.world.GetEntityRecord(srcEntities[i])
		}
		flags := RecordToRowFlags(record.Row)
		record.Row = RowToRecord(dstCount+i, flags)
		record.Table = dst
	}

	mergeColumns(dst, src, srcCount, dstCount)

	dst.traversableCount += src.traversableCount
	src.traversableCount = 0

	srcData.entities.data = nil
	srcData.records.data = nil

	if srcCount > 0 {
		src.world.emit(EventOnTableEmptyEvt, src)
	}
	if dstCount == 0 && srcCount > 0 {
		dst.world.emit(EventOnTableFillEvt, dst)
	}
}

// ---- shrink --------------------------------------------------------------------

// Shrink trims entities, records, and every column's capacity down to its
// current length. Returns whether the table held any payload beforehand.
func (t *Table) Shrink() bool {
	d := t.data
	hasPayload := d.entities.Reclaim()
	d.records.Reclaim()
	for i := range d.columns {
		d.columns[i].data.Reclaim()
	}
	return hasPayload
}

// ---- clear ---------------------------------------------------------------------

// Clear destructs every row (running on_remove/dtor when the table has
// them) and empties all storage, without removing the table itself or
// touching the entity index - the mode flecs calls "snapshot"-style, where
// the caller is responsible for the entity index separately.
func (t *Table) Clear() {
	d := t.data
	count := d.entities.Len()
	if count > 0 && d.flags&HasDtors != 0 {
		entities := d.entities.data
		for i := range d.columns {
			c := &d.columns[i]
			if c.TypeInfo.Hooks.OnRemove != nil {
				c.TypeInfo.Hooks.OnRemove(entities, c.data.At(0), c.ID, 0, count)
			}
		}
		for i := range d.columns {
			c := &d.columns[i]
			if c.TypeInfo.Hooks.Dtor != nil {
				c.TypeInfo.Hooks.Dtor(c.data.At(0), count, c.TypeInfo)
			}
		}
	}

	for i := range d.columns {
		d.columns[i].data.Fini()
	}
	for i := range d.bitsets {
		d.bitsets[i].data.Fini()
	}
	d.entities.data = nil
	d.records.data = nil

	t.traversableCount = 0
	t.flags &^= HasTraversable

	if count > 0 {
		t.world.emit(EventOnTableEmptyEvt, t)
	}
}

// ---- dirty state ---------------------------------------------------------------

// MarkDirty bumps the dirty counter for id's column, if id has one. Ids
// without a column (tags) are silently ignored - there is nothing to mark.
func (t *Table) MarkDirty(id Id) {
	idx := t.typ.IndexOf(id)
	if idx < 0 {
		return
	}
	tr := &t.records[idx]
	if tr.Column < 0 {
		return
	}
	markDirtySlot(t.data, int32(tr.Column)+1)
}

// GetDirtyState lazily allocates the dirty-state array on first subscriber,
// with every slot initialised to Config's DirtyTrackingDefault so a fresh
// allocation never aliases a query's "unseen baseline" sentinel of zero.
func (t *Table) GetDirtyState() []uint32 {
	d := t.data
	if d.dirtyState == nil {
		d.dirtyState = make([]uint32, int32(d.columnCount)+1)
		for i := range d.dirtyState {
			d.dirtyState[i] = Config.engine.DirtyTrackingDefault
		}
	}
	return d.dirtyState
}
