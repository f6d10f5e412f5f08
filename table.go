package archtable

import (
	"iter"

	"github.com/TheBitDrifter/mask"
)

// TableID identifies a table within a world's sparse table set.
type TableID uint32

// TableFlags summarises a type's contents so mutating operations can branch
// on a single word instead of re-scanning the type.
type TableFlags uint32

const (
	HasBuiltins TableFlags = 1 << iota
	HasModule
	IsPrefab
	IsDisabled
	HasPairs
	HasIsA
	HasChildOf
	HasName
	HasTarget
	HasToggle
	HasOverrides
	HasCtors
	HasDtors
	HasCopy
	HasMove
	HasTraversable
	HasOnAdd
	HasOnRemove
	HasOnSet
	HasUnSet
	HasOnTableFill
	HasOnTableEmpty
	HasOnTableCreate
	HasOnTableDelete

	// IsComplex is the OR of every flag that forces the hook-aware slow
	// path for append/delete/move; its absence lets those operations take
	// a plain memcpy/grow fast path.
	IsComplex = HasCtors | HasDtors | HasCopy | HasMove | HasToggle
)

// Table is a table's immutable schema: its sorted type, content hash, flags,
// and the records that register it with id-records, plus a handle to its
// mutable TableData.
type Table struct {
	world *World
	id    TableID
	typ   Type
	flags TableFlags
	mask  mask.Mask

	columnMap []int32 // [0:count] type-slot -> column-slot (or -1); [count:] column-slot -> type-slot

	records     []TableRecord
	recordCount int16

	bsOffset         int16 // type-slot of the first TOGGLE id, or -1
	firstPair        int16 // type-slot of the first pair id, or -1
	firstRole        int16 // type-slot of the first role-flagged plain id, or -1
	ftOffset         int16 // type-slot of the first Target pair, or -1
	lock             int32
	traversableCount int32

	data *TableData
}

var _ mask.Maskable = Table{}

// ID returns the table's identifier within its world's sparse table set.
func (t *Table) ID() TableID { return t.id }

// Type returns the table's immutable type vector.
func (t *Table) Type() Type { return t.typ }

// Flags returns the table's summary flags.
func (t *Table) Flags() TableFlags { return t.flags }

// Mask returns the table's component-bit summary, used by mask-based query
// filters (github.com/TheBitDrifter/mask.Maskable).
func (t Table) Mask() mask.Mask { return t.mask }

// Count returns the number of entities (rows) currently stored.
func (t *Table) Count() int32 {
	if t.data == nil {
		return 0
	}
	return t.data.entities.Len()
}

// Locked reports whether the table is inside a reentrant-mutation guard.
func (t *Table) Locked() bool { return t.lock > 0 }

// TraversableCount returns the number of entities in the table that are the
// target of at least one traversable relationship, tracked purely for
// merge's bookkeeping; propagating it into invalidation
// events is out of this package's scope.
func (t *Table) TraversableCount() int32 { return t.traversableCount }

func (t *Table) idRecordFor(i int32) *IdRecord {
	return t.records[i].idr
}

// IdsSeq iterates the table's type in slot order, for callers that want to
// build a snapshot slice with github.com/TheBitDrifter/util/iter.Collect
// rather than reading Type.Ids directly.
func (t *Table) IdsSeq() iter.Seq[Id] {
	return func(yield func(Id) bool) {
		for _, id := range t.typ.ids {
			if !yield(id) {
				return
			}
		}
	}
}

// Init constructs and registers a new table for typ: it builds the type-slot
// records (one per id, plus the wildcard/flag records that let a table be
// discovered by (R,*), (*,T), (*,*), Any, and the synthetic (ChildOf,0)
// caches), allocates its columns and toggle bitsets, and links it into
// world's table set. If a live table already exists for typ, that table is
// returned unchanged - there is at most one live table per type.
func Init(world *World, typ Type) (*Table, error) {
	if existing := world.findTable(typ); existing != nil {
		return existing, nil
	}

	t := &Table{
		world: world,
		id:    world.allocTableID(),
		typ:   typ,
	}
	t.initFlags()
	t.buildMask()

	ids := typ.ids
	count := int32(len(ids))

	// Exact upper bound on how many extra records the loop below can append:
	// a pair contributes at most two wildcard records ((R,*) and (*,T)) plus,
	// when it also carries a role, two flag records ((Flag,first) and
	// (Flag,second)); a plain role-flagged id contributes at most one flag
	// record ((Flag,first)). Plus three table-wide wildcard slots and one
	// synthetic (ChildOf,0) slot. ids before start (the earlier of firstPair
	// and firstRole) are neither pairs nor role-flagged, so the scan skips
	// straight to start instead of walking the whole type.
	start := t.firstRole
	if t.firstPair != -1 && (start == -1 || t.firstPair < start) {
		start = t.firstPair
	}
	extra := int32(0)
	if start != -1 {
		for _, id := range ids[start:] {
			if IsPair(id) {
				extra += 2
				if HasRole(id, RoleToggle|RoleOverride) {
					extra += 2
				}
			} else if HasRole(id, RoleToggle|RoleOverride) {
				extra++
			}
		}
	}
	recordsCap := count + extra + 3 + 1
	t.records = make([]TableRecord, count, recordsCap)

	columnCount := int32(0)
	sawPair, sawPlain := false, false

	for i, id := range ids {
		idr := world.EnsureIdRecord(id)
		idr.Claim()

		tr := &t.records[i]
		*tr = TableRecord{idr: idr, Table: t, Index: int16(i), Column: -1, Count: 1}
		idr.CacheInsert(t.id, tr)
		t.flags |= eventTableFlags(idr.Flags)

		if idr.TypeInfo != nil {
			columnCount++
		}

		if IsPair(id) {
			sawPair = true
			first, second := PairFirst(id), PairSecond(id)
			t.appendFlagRecord(world.EnsureIdRecord(PairWithFirst(first)), int16(i))
			if second != Wildcard {
				t.appendFlagRecord(world.EnsureIdRecord(PairWithSecond(second)), int16(i))
			}
			if HasRole(id, RoleToggle|RoleOverride) {
				t.appendFlagRecord(world.EnsureIdRecord(MakePair(FlagRelation, first)), int16(i))
				if second != Wildcard {
					t.appendFlagRecord(world.EnsureIdRecord(MakePair(FlagRelation, second)), int16(i))
				}
			}
		} else {
			sawPlain = true
			if HasRole(id, RoleToggle|RoleOverride) {
				t.appendFlagRecord(world.EnsureIdRecord(MakePair(FlagRelation, StripRoles(id))), int16(i))
			}
		}
	}

	if sawPlain {
		t.appendFlagRecord(world.idrWildcard, 0)
	}
	if sawPair {
		t.appendFlagRecord(world.idrWildcardWildcard, 0)
	}
	t.appendFlagRecord(world.idrAny, 0)
	t.flags |= eventTableFlags(world.idrAny.Flags)
	if t.flags&HasChildOf == 0 {
		tr := t.appendFlagRecord(world.idrChildOfZero, -1)
		tr.Count = 0
	}

	t.columnMap = make([]int32, 2*count)
	t.initTableData(columnCount)

	world.registerTable(t)
	world.emit(EventOnTableCreate, t)
	return t, nil
}

// appendFlagRecord registers t with idr's wildcard/flag cache, the way
// flecs_table_append_to_records does: an O(1) lookup against idr's existing
// cache entry for this table first, so a second id in the same type that
// maps to the same wildcard/flag id-record (two pairs sharing a
// relationship or a target, two role-flagged ids sharing their stripped
// component) run-length-aggregates into that entry's Count instead of
// appending a duplicate, orphaned TableRecord. Only a genuine miss appends
// a new record; records was pre-sized in Init so that append never
// reallocates the backing array, keeping every earlier CacheInsert's
// pointer valid.
func (t *Table) appendFlagRecord(idr *IdRecord, index int16) *TableRecord {
	if tr := idr.CacheGet(t.id); tr != nil {
		tr.Count++
		return tr
	}
	assertf(len(t.records) < cap(t.records), "table %d records overflowed its pre-sized capacity", t.id)
	idr.Claim()
	t.records = append(t.records, TableRecord{idr: idr, Table: t, Index: index, Column: -1, Count: 1})
	tr := &t.records[len(t.records)-1]
	idr.CacheInsert(t.id, tr)
	return tr
}

// eventTableFlags translates an id-record's observed-event mask into the
// corresponding Table.flags bits, the Go analogue of flecs OR-ing
// idr->flags & EcsIdEventMask into table->flags.
func eventTableFlags(events EventMask) TableFlags {
	var out TableFlags
	if events&EventOnAdd != 0 {
		out |= HasOnAdd
	}
	if events&EventOnRemove != 0 {
		out |= HasOnRemove
	}
	if events&EventOnSet != 0 {
		out |= HasOnSet
	}
	if events&EventUnSet != 0 {
		out |= HasUnSet
	}
	if events&EventOnTableFill != 0 {
		out |= HasOnTableFill
	}
	if events&EventOnTableEmpty != 0 {
		out |= HasOnTableEmpty
	}
	if events&EventOnTableCreate != 0 {
		out |= HasOnTableCreate
	}
	if events&EventOnTableDelete != 0 {
		out |= HasOnTableDelete
	}
	if events&EventAlwaysOverride != 0 {
		out |= HasOverrides
	}
	return out
}

// buildMask marks one mask bit per id in the type, so a table satisfies
// github.com/TheBitDrifter/mask.Maskable the way warehouse's schema-backed
// archetypes do.
func (t *Table) buildMask() {
	for _, id := range t.typ.ids {
		t.mask.Mark(uint32(t.world.bitFor(id)))
	}
}

// Free tears the table down: it emits OnTableDelete (when the table has
// observers for it) while its rows are still live, then destructs any
// remaining rows, unlinks every TableRecord it registered from its
// id-record's cache (releasing the id-record itself when that was the last
// reference), and removes the table from world's table set. OnTableDelete
// fires before teardown so observers see the table's actual contents rather
// than an already-cleared table.
func (t *Table) Free() {
	assertf(t.lock == 0, "free on locked table %d", t.id)

	world := t.world
	world.emit(EventOnTableDelete, t)

	if t.data != nil && t.data.entities.Len() > 0 {
		t.Clear()
	}

	for i := range t.records {
		tr := &t.records[i]
		tr.idr.CacheRemove(t.id)
		world.ReleaseIdRecord(tr.idr)
	}
	t.records = nil
	t.columnMap = nil

	world.unregisterTable(t)
}

// flecs_table_init_flags: a single scan of the type that recognises
// builtins, pairs and their relationship classification, and role flags.
func (t *Table) initFlags() {
	ids := t.typ.ids
	t.bsOffset = -1
	t.ftOffset = -1
	t.firstPair = -1
	t.firstRole = -1

	for i, id := range ids {
		if IsPair(id) {
			if t.firstPair == -1 {
				t.firstPair = int16(i)
			}
			first := PairFirst(id)
			t.flags |= HasPairs
			switch first {
			case IsARelation:
				t.flags |= HasIsA
			case ChildOfRelation:
				t.flags |= HasChildOf
			case TargetRelation:
				t.flags |= HasTarget
				t.ftOffset = int16(i)
			}
			if id == NamePair {
				t.flags |= HasName
			}
			continue
		}

		if HasRole(id, RoleToggle) {
			if t.flags&HasToggle == 0 {
				t.bsOffset = int16(i)
			}
			t.flags |= HasToggle
		}
		if HasRole(id, RoleOverride) {
			t.flags |= HasOverrides
		}
		if t.firstRole == -1 && HasRole(id, RoleToggle|RoleOverride) {
			t.firstRole = int16(i)
		}
	}
}
