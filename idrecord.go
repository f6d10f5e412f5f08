package archtable

// EventMask summarises which lifecycle events a type has observers for, so
// tables can skip emitting events nobody listens for.
type EventMask uint32

const (
	EventOnAdd EventMask = 1 << iota
	EventOnRemove
	EventOnSet
	EventUnSet
	EventOnTableFill
	EventOnTableEmpty
	EventOnTableCreate
	EventOnTableDelete
	// EventAlwaysOverride marks an id whose presence should always force
	// EcsTableHasOverrides on any table that carries it.
	EventAlwaysOverride
)

// IdRecord is the per-id index entry: every table that carries this id (or,
// for a pair's (R,*) parent, every table that carries any pair with
// relationship R) links a TableRecord into Cache. The world owns the
// id -> *IdRecord dictionary; this package only owns the record's own
// fields and its table-cache, which init/free mutate directly.
type IdRecord struct {
	ID       Id
	TypeInfo *TypeInfo
	// Parent is the (first, *) wildcard id-record for a pair id-record, or
	// nil for a plain id.
	Parent *IdRecord
	// Flags records which event kinds have observers registered against this
	// id. Observer registration itself belongs to the world/query layer
	// outside this package; that layer ORs the relevant EventMask bits in
	// directly, and Table.Init merges them into Table.flags so emit call
	// sites can skip work for events nobody listens for.
	Flags EventMask

	refcount int32
	cache    map[TableID]*TableRecord
}

// NewIdRecord constructs an id-record for id. ti may be nil for tags and
// plain pairs.
func NewIdRecord(id Id, ti *TypeInfo) *IdRecord {
	return &IdRecord{
		ID:       id,
		TypeInfo: ti,
		cache:    make(map[TableID]*TableRecord),
	}
}

// Claim increments the id-record's reference count. Tables claim every
// id-record they register with during Init, and release it during Free.
func (idr *IdRecord) Claim() {
	idr.refcount++
}

// Release decrements the reference count and reports whether it reached
// zero, meaning the caller (normally the world) may free the id-record.
func (idr *IdRecord) Release() bool {
	idr.refcount--
	return idr.refcount <= 0
}

// CacheGet returns the TableRecord this id-record holds for table, if any.
func (idr *IdRecord) CacheGet(id TableID) *TableRecord {
	return idr.cache[id]
}

// CacheInsert links tr into the cache under table.
func (idr *IdRecord) CacheInsert(id TableID, tr *TableRecord) {
	idr.cache[id] = tr
}

// CacheReplace repoints the cache entry for table at tr's new address,
// without changing the logical entry count. Used when a table's internal
// records array is reallocated after some of its entries were already
// registered.
func (idr *IdRecord) CacheReplace(id TableID, tr *TableRecord) {
	idr.cache[id] = tr
}

// CacheRemove unlinks table's entry from the cache.
func (idr *IdRecord) CacheRemove(id TableID) {
	delete(idr.cache, id)
}

// TableRecord is one entry in a table describing a single id's position:
// which slot of the type vector it occupies, which column (if any) backs
// it, and how many type-slots it aggregates (for wildcard parent records).
type TableRecord struct {
	idr    *IdRecord
	Table  *Table
	Index  int16
	Column int16
	Count  int16
}
