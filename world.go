package archtable

import "github.com/TheBitDrifter/bark"

// EventKind names a lifecycle event the engine emits to its World.
type EventKind int

const (
	EventOnTableCreate EventKind = iota
	EventOnTableDelete
	EventOnAddEvt
	EventOnRemoveEvt
	EventOnSetEvt
	EventUnSetEvt
	EventOnTableFillEvt
	EventOnTableEmptyEvt
)

// TableEventSink receives notifications for table lifecycle events. The
// world calls it only for events the table has observers for (see emit);
// a World starts with a no-op sink until SetEvents installs another.
type TableEventSink interface {
	Emit(kind EventKind, table *Table)
}

// World is the minimal collaborator this package needs to exercise the
// table engine end to end: the entity index (entity -> *Record), the
// id-record index (id -> *IdRecord), and the table set. Ownership of the
// first two belongs to "the world" as an external collaborator; World is
// this repository's reference implementation of that contract, not a full
// ECS runtime (no queries, no observers, no command buffer - those stay
// out of scope).
type World struct {
	logger bark.Logger
	events TableEventSink

	entities map[Entity]*Record
	idrs     map[Id]*IdRecord

	tables   map[TableID]*Table
	nextID   TableID
	// typeIndex resolves a type's content hash to its one live table, the
	// dictionary flecs' world keeps to guarantee at most one table per type.
	// A genuine xxhash collision between two distinct types is treated as
	// out of scope, the same simplification a plain map[uint64]T index makes
	// anywhere content hashing stands in for full equality at this scale.
	typeIndex map[uint64]*Table

	idrWildcard         *IdRecord // (*) - every plain id in any table
	idrWildcardWildcard *IdRecord // (*, *) - every pair in any table
	idrAny              *IdRecord // (_)
	idrChildOfZero      *IdRecord // (ChildOf, 0)

	onEmptyToNonEmpty func(*Table)
	onNonEmptyToEmpty func(*Table)

	// maskBits assigns each id a stable small bit position the first time a
	// table needs it, the same registry role warehouse's schema.RowIndexFor
	// plays for its Component keys. Used only to populate Table.mask for
	// mask.Maskable query filters, never for storage layout.
	maskBits map[Id]int
	nextBit  int
}

// noopEvents discards every event; the default World uses it until a
// caller installs a real sink via SetEvents.
type noopEvents struct{}

func (noopEvents) Emit(EventKind, *Table) {}

// NewWorld constructs an empty World with its builtin wildcard id-records
// pre-registered.
func NewWorld() *World {
	w := &World{
		logger:    bark.NewLogger("archtable"),
		events:    noopEvents{},
		entities:  make(map[Entity]*Record),
		idrs:      make(map[Id]*IdRecord),
		tables:    make(map[TableID]*Table),
		nextID:    1,
		maskBits:  make(map[Id]int),
		typeIndex: make(map[uint64]*Table),
	}
	w.idrWildcard = w.ensureIdRecordRaw(Wildcard, nil)
	w.idrWildcardWildcard = w.ensureIdRecordRaw(AnyPair, nil)
	w.idrAny = w.ensureIdRecordRaw(Any, nil)
	w.idrChildOfZero = w.ensureIdRecordRaw(ChildOfZero, nil)
	return w
}

// SetLogger installs a structured logger for engine diagnostics.
func (w *World) SetLogger(l bark.Logger) { w.logger = l }

// SetEvents installs the sink table lifecycle events are emitted to.
func (w *World) SetEvents(sink TableEventSink) { w.events = sink }

// SetObservers installs the empty<->nonempty transition callbacks queries
// use to activate/deactivate a table.
func (w *World) SetObservers(onEmptyToNonEmpty, onNonEmptyToEmpty func(*Table)) {
	w.onEmptyToNonEmpty = onEmptyToNonEmpty
	w.onNonEmptyToEmpty = onNonEmptyToEmpty
}

// RegisterTypeInfo associates ti with id for every table created after this
// call. Ids with no registered TypeInfo are treated as tags.
func (w *World) RegisterTypeInfo(id Id, ti *TypeInfo) {
	idr := w.ensureIdRecordRaw(id, ti)
	idr.TypeInfo = ti
}

func (w *World) ensureIdRecordRaw(id Id, ti *TypeInfo) *IdRecord {
	if idr, ok := w.idrs[id]; ok {
		return idr
	}
	idr := NewIdRecord(id, ti)
	if IsPair(id) {
		idr.Parent = w.ensureIdRecordRaw(PairWithFirst(PairFirst(id)), nil)
	}
	w.idrs[id] = idr
	return idr
}

// EnsureIdRecord is the id-record collaborator's "ensure": return id's
// id-record, creating it (and, for a pair, its (first, *) parent) if
// necessary.
func (w *World) EnsureIdRecord(id Id) *IdRecord {
	return w.ensureIdRecordRaw(id, nil)
}

// ReleaseIdRecord drops a reference a table held on idr. Once the
// refcount reaches zero the id-record is dropped from the index, unless it
// is one of the four builtin wildcard records the world always keeps alive.
func (w *World) ReleaseIdRecord(idr *IdRecord) {
	if idr == w.idrWildcard || idr == w.idrWildcardWildcard ||
		idr == w.idrAny || idr == w.idrChildOfZero {
		idr.Release()
		return
	}
	if idr.Release() {
		delete(w.idrs, idr.ID)
	}
}

// GetEntityRecord returns e's entity-index record, or nil.
func (w *World) GetEntityRecord(e Entity) *Record { return w.entities[e] }

// SetEntityRecord installs e's entity-index record.
func (w *World) SetEntityRecord(e Entity, r *Record) { w.entities[e] = r }

// RemoveEntityRecord drops e from the entity index.
func (w *World) RemoveEntityRecord(e Entity) { delete(w.entities, e) }

// allocTableID allocates a new table identifier, analogous to flecs' sparse
// set of tables.
func (w *World) allocTableID() TableID {
	id := w.nextID
	w.nextID++
	return id
}

// bitFor returns id's stable mask bit, allocating a fresh one on first use.
func (w *World) bitFor(id Id) int {
	if b, ok := w.maskBits[id]; ok {
		return b
	}
	b := w.nextBit
	w.nextBit++
	w.maskBits[id] = b
	return b
}

// findTable returns the existing live table for typ, if one has already
// been created.
func (w *World) findTable(typ Type) *Table {
	if t, ok := w.typeIndex[typ.Hash()]; ok && t.typ.Equal(typ) {
		return t
	}
	return nil
}

func (w *World) registerTable(t *Table) {
	w.tables[t.id] = t
	w.typeIndex[t.typ.Hash()] = t
	w.logger.Debug("table registered", "table", t.id, "ids", len(t.typ.ids))
}

func (w *World) unregisterTable(t *Table) {
	delete(w.tables, t.id)
	if w.typeIndex[t.typ.Hash()] == t {
		delete(w.typeIndex, t.typ.Hash())
	}
	w.logger.Debug("table unregistered", "table", t.id)
}

// eventTableFlag maps an EventKind to the Table.flags bit that gates whether
// anyone is listening for it, so emit can skip the sink call entirely when
// the table has no observers for kind.
func eventTableFlag(kind EventKind) TableFlags {
	switch kind {
	case EventOnTableCreate:
		return HasOnTableCreate
	case EventOnTableDelete:
		return HasOnTableDelete
	case EventOnAddEvt:
		return HasOnAdd
	case EventOnRemoveEvt:
		return HasOnRemove
	case EventOnSetEvt:
		return HasOnSet
	case EventUnSetEvt:
		return HasUnSet
	case EventOnTableFillEvt:
		return HasOnTableFill
	case EventOnTableEmptyEvt:
		return HasOnTableEmpty
	default:
		return 0
	}
}

// Emit notifies the installed event sink, when the table has observers for
// kind, then (for the two transition events) the empty<->nonempty
// observers. The empty<->nonempty callbacks drive query activation, a
// concern separate from whether anyone observes the event itself, so they
// always run regardless of the table's event flags. Most events are
// table-level; the engine calls this at the exact transition, never
// speculatively.
func (w *World) emit(kind EventKind, t *Table) {
	if t.flags&eventTableFlag(kind) != 0 {
		w.events.Emit(kind, t)
	}
	switch kind {
	case EventOnTableFillEvt:
		if w.onEmptyToNonEmpty != nil {
			w.onEmptyToNonEmpty(t)
		}
	case EventOnTableEmptyEvt:
		if w.onNonEmptyToEmpty != nil {
			w.onNonEmptyToEmpty(t)
		}
	}
}
