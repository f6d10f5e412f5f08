package archtable

import iterutil "github.com/TheBitDrifter/util/iter"

// Engine is the public façade over the table storage operations: table
// creation/teardown and the row-level mutations (append, delete, move, swap,
// merge, shrink) together with the dirty-state and column accessors a query
// layer built on top of this package would need. It is a thin, stateless
// wrapper around World and Table - Engine itself holds no storage, so
// multiple Engines may safely share one World.
type Engine struct {
	world *World
}

// NewEngine binds an Engine to world.
func NewEngine(world *World) *Engine {
	return &Engine{world: world}
}

// Init returns the table for typ, creating and registering it if this is
// its first use.
func (e *Engine) Init(typ Type) (*Table, error) {
	return Init(e.world, typ)
}

// Free destructs t's remaining rows and removes it from the world.
func (e *Engine) Free(t *Table) error {
	if t.Locked() {
		return LockedTableError{Table: t.id}
	}
	t.Free()
	return nil
}

// Append adds one row for entity to t, returning its row index.
func (e *Engine) Append(t *Table, entity Entity, record *Record, construct, onAdd bool) (int32, error) {
	if t.flags&HasTarget != 0 {
		return 0, InvalidOperationError{Op: "append", Table: t.id}
	}
	if t.Locked() {
		return 0, LockedTableError{Table: t.id}
	}
	row := t.Append(entity, record, construct, onAdd)
	checkSanity(t)
	return row, nil
}

// AppendN reserves toAdd rows in one shot, returning the row of the first.
// ids, if non-nil, must have length toAdd and supplies the new rows'
// entities directly.
func (e *Engine) AppendN(t *Table, toAdd int32, ids []Entity) (int32, error) {
	if t.flags&HasTarget != 0 {
		return 0, InvalidOperationError{Op: "appendn", Table: t.id}
	}
	if t.Locked() {
		return 0, LockedTableError{Table: t.id}
	}
	row := t.AppendN(toAdd, ids)
	checkSanity(t)
	return row, nil
}

// Delete removes row from t, running on_remove/dtor hooks when destruct is
// set.
func (e *Engine) Delete(t *Table, row int32, destruct bool) error {
	if t.flags&HasTarget != 0 {
		return InvalidOperationError{Op: "delete", Table: t.id}
	}
	if t.Locked() {
		return LockedTableError{Table: t.id}
	}
	t.Delete(row, destruct)
	checkSanity(t)
	return nil
}

// Move migrates one row's component payload from src to dst, running the
// correct ctor/move/copy/dtor hook per column. Callers are expected to have
// already appended the destination row (e.g. via Append with construct set
// false for the shared columns) and to swap-remove the source row
// afterwards.
func (e *Engine) Move(dstEntity, srcEntity Entity, dst *Table, dstRow int32, src *Table, srcRow int32, construct bool) error {
	if dst.Locked() {
		return LockedTableError{Table: dst.id}
	}
	if src.Locked() {
		return LockedTableError{Table: src.id}
	}
	Move(dstEntity, srcEntity, dst, dstRow, src, srcRow, construct)
	checkSanity(dst)
	checkSanity(src)
	return nil
}

// Swap exchanges two rows within t.
func (e *Engine) Swap(t *Table, row1, row2 int32) error {
	if t.Locked() {
		return LockedTableError{Table: t.id}
	}
	t.Swap(row1, row2)
	checkSanity(t)
	return nil
}

// Merge migrates every row of src into dst in bulk, leaving src empty.
func (e *Engine) Merge(dst, src *Table) error {
	if src.Locked() {
		return LockedTableError{Table: src.id}
	}
	Merge(dst, src)
	checkSanity(dst)
	checkSanity(src)
	return nil
}

// Shrink trims t's storage capacity down to its row count, returning
// whether it held any payload beforehand.
func (e *Engine) Shrink(t *Table) bool {
	hadPayload := t.Shrink()
	checkSanity(t)
	return hadPayload
}

// Clear destructs every row in t and empties its storage without freeing
// the table itself.
func (e *Engine) Clear(t *Table) error {
	if t.Locked() {
		return LockedTableError{Table: t.id}
	}
	t.Clear()
	checkSanity(t)
	return nil
}

// MarkDirty bumps id's dirty counter on t, if id has a column.
func (e *Engine) MarkDirty(t *Table, id Id) {
	t.MarkDirty(id)
}

// GetDirtyState returns t's dirty-state array, allocating it on first use.
func (e *Engine) GetDirtyState(t *Table) []uint32 {
	return t.GetDirtyState()
}

// GetType returns t's type vector.
func (e *Engine) GetType(t *Table) Type { return t.typ }

// Ids returns a snapshot slice of t's ids, in slot order.
func (e *Engine) Ids(t *Table) []Id {
	return iterutil.Collect(t.IdsSeq())
}

// GetColumn returns the raw column backing id in t, or nil if id has no
// column in t (either t doesn't carry id, or id is a tag).
func (e *Engine) GetColumn(t *Table, id Id) *Column {
	idx := t.typ.IndexOf(id)
	if idx < 0 {
		return nil
	}
	tr := &t.records[idx]
	if tr.Column < 0 {
		return nil
	}
	return t.data.Column(int32(tr.Column))
}

// GetColumnSize returns the element size in bytes of id's column in t, or 0
// if id has no column.
func (e *Engine) GetColumnSize(t *Table, id Id) int32 {
	c := e.GetColumn(t, id)
	if c == nil {
		return 0
	}
	return c.Size
}

// GetDepth walks t's (ChildOf, *) ancestry, counting hops until a table with
// no ChildOf pair is reached. Tables that are not connected by ChildOf pairs
// (the common case outside a scene-graph-style hierarchy) have depth 0. A
// cyclic ChildOf chain (A's parent is B, B's parent is A) is an invalid
// parameter, not a hang: it is detected via a visited-table set and reported
// as depth -1 rather than walked forever.
func (e *Engine) GetDepth(t *Table) int32 {
	depth := int32(0)
	cur := t
	visited := map[TableID]bool{t.id: true}
	for cur.flags&HasChildOf != 0 {
		parentID := Id(0)
		found := false
		for _, id := range cur.typ.ids {
			if IsPair(id) && PairFirst(id) == ChildOfRelation {
				parentID = PairSecond(id)
				found = true
				break
			}
		}
		if !found {
			break
		}
		parentRecord := e.world.GetEntityRecord(parentID)
		if parentRecord == nil || parentRecord.Table == nil {
			break
		}
		cur = parentRecord.Table
		if visited[cur.id] {
			return -1
		}
		visited[cur.id] = true
		depth++
	}
	return depth
}
