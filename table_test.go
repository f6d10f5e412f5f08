package archtable

import (
	"testing"
	"unsafe"
)

// int64TypeInfo returns a TypeInfo for a bare int64 payload with no hooks,
// so tables built from it take the non-complex fast paths.
func int64TypeInfo() *TypeInfo {
	return &TypeInfo{
		Size:      8,
		Alignment: 8,
	}
}

func i64Slice(ptr unsafe.Pointer, count int32) []int64 {
	return unsafe.Slice((*int64)(ptr), count)
}

func trackedTypeInfo(log *[]string, label string) *TypeInfo {
	ti := &TypeInfo{Size: 8, Alignment: 8}
	ti.Hooks.Ctor = func(ptr unsafe.Pointer, count int32, _ *TypeInfo) {
		for _, v := range i64Slice(ptr, count) {
			_ = v
		}
		*log = append(*log, label+":ctor")
	}
	ti.Hooks.Dtor = func(ptr unsafe.Pointer, count int32, _ *TypeInfo) {
		*log = append(*log, label+":dtor")
	}
	ti.Hooks.OnAdd = func(_ []Entity, _ unsafe.Pointer, _ Id, _, _ int32) {
		*log = append(*log, label+":onadd")
	}
	ti.Hooks.OnRemove = func(_ []Entity, _ unsafe.Pointer, _ Id, _, _ int32) {
		*log = append(*log, label+":onremove")
	}
	return ti
}

func TestTableInitIsIdempotentPerType(t *testing.T) {
	w := NewWorld()
	typ := NewType(1, 2)

	t1, err := Init(w, typ)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t2, err := Init(w, typ)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if t1 != t2 {
		t.Errorf("expected the same table for the same type, got distinct tables %d and %d", t1.id, t2.id)
	}
}

func TestTableInitFlagsPairsAndRoles(t *testing.T) {
	w := NewWorld()
	toggled := Id(50) | RoleToggle
	childOf := MakePair(ChildOfRelation, 7)

	typ := NewType(1, toggled, childOf)
	tbl, err := Init(w, typ)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if tbl.Flags()&HasToggle == 0 {
		t.Errorf("expected HasToggle")
	}
	if tbl.Flags()&HasPairs == 0 {
		t.Errorf("expected HasPairs")
	}
	if tbl.Flags()&HasChildOf == 0 {
		t.Errorf("expected HasChildOf")
	}
	if tbl.data.bsCount != 1 {
		t.Errorf("expected exactly one toggle bitset column, got %d", tbl.data.bsCount)
	}
}

func TestTableRegistersWildcardCaches(t *testing.T) {
	w := NewWorld()
	posID := Id(10)
	relID := MakePair(20, 30)

	tbl, err := Init(w, NewType(posID, relID))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if w.idrWildcard.CacheGet(tbl.id) == nil {
		t.Errorf("expected table registered in the (*) wildcard cache")
	}
	if w.idrWildcardWildcard.CacheGet(tbl.id) == nil {
		t.Errorf("expected table registered in the (*, *) wildcard cache")
	}
	if w.idrAny.CacheGet(tbl.id) == nil {
		t.Errorf("expected table registered in the Any cache")
	}
	if w.idrChildOfZero.CacheGet(tbl.id) == nil {
		t.Errorf("expected table registered in the synthetic (ChildOf, 0) cache since it has no ChildOf pair")
	}

	relParent := w.EnsureIdRecord(PairWithFirst(20))
	if relParent.CacheGet(tbl.id) == nil {
		t.Errorf("expected table registered in the (20, *) wildcard cache")
	}
}

func TestTableAggregatesSharedRelationshipRecord(t *testing.T) {
	w := NewWorld()
	eats := Id(20)
	apples, pizza := Id(30), Id(31)

	tbl, err := Init(w, NewType(MakePair(eats, apples), MakePair(eats, pizza)))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	relParent := w.EnsureIdRecord(PairWithFirst(eats))
	tr := relParent.CacheGet(tbl.id)
	if tr == nil {
		t.Fatalf("expected table registered in the (Eats, *) wildcard cache")
	}
	if tr.Count != 2 {
		t.Errorf("expected (Eats, *) record Count to aggregate both pairs, got %d", tr.Count)
	}

	// Aggregation bumps the existing (Eats, *) record instead of appending a
	// second one, so t.records holds exactly one entry for it.
	found := 0
	for i := range tbl.records {
		if tbl.records[i].idr == relParent {
			found++
		}
	}
	if found != 1 {
		t.Errorf("expected exactly one (Eats, *) entry in t.records, found %d", found)
	}
}

func TestTableAggregatesSharedTargetRecord(t *testing.T) {
	w := NewWorld()
	likes, owns := Id(20), Id(21)
	apples := Id(30)

	tbl, err := Init(w, NewType(MakePair(likes, apples), MakePair(owns, apples)))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	tgtParent := w.EnsureIdRecord(PairWithSecond(apples))
	tr := tgtParent.CacheGet(tbl.id)
	if tr == nil {
		t.Fatalf("expected table registered in the (*, Apples) wildcard cache")
	}
	if tr.Count != 2 {
		t.Errorf("expected (*, Apples) record Count to aggregate both pairs, got %d", tr.Count)
	}
}

func TestTableRegistersFlagRecordsForRoleFlaggedIds(t *testing.T) {
	w := NewWorld()
	toggled := Id(50) | RoleToggle

	tbl, err := Init(w, NewType(toggled))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	flagIdr := w.EnsureIdRecord(MakePair(FlagRelation, Id(50)))
	if flagIdr.CacheGet(tbl.id) == nil {
		t.Errorf("expected table registered in the (Flag, 50) cleanup cache for the toggle-flagged id")
	}
}

func TestTableRegistersFlagRecordsForRoleFlaggedPair(t *testing.T) {
	w := NewWorld()
	rel, tgt := Id(20), Id(30)
	flagged := MakePair(rel, tgt) | RoleOverride

	tbl, err := Init(w, NewType(flagged))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	flagFirst := w.EnsureIdRecord(MakePair(FlagRelation, rel))
	flagSecond := w.EnsureIdRecord(MakePair(FlagRelation, tgt))
	if flagFirst.CacheGet(tbl.id) == nil {
		t.Errorf("expected table registered in the (Flag, %d) cache for the role-flagged pair's relationship", rel)
	}
	if flagSecond.CacheGet(tbl.id) == nil {
		t.Errorf("expected table registered in the (Flag, %d) cache for the role-flagged pair's target", tgt)
	}
}

// recordingSink is a TableEventSink that records every kind it was asked to
// emit, so a test can assert an emit call was (or wasn't) gated away.
type recordingSink struct {
	kinds []EventKind
}

func (s *recordingSink) Emit(kind EventKind, _ *Table) {
	s.kinds = append(s.kinds, kind)
}

func TestTableInitSkipsEmitWithoutObservers(t *testing.T) {
	w := NewWorld()
	sink := &recordingSink{}
	w.SetEvents(sink)

	if _, err := Init(w, NewType(Id(10))); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if len(sink.kinds) != 0 {
		t.Errorf("expected no emitted events with no observers registered, got %v", sink.kinds)
	}
}

func TestTableInitEmitsOnTableCreateWhenObserved(t *testing.T) {
	w := NewWorld()
	sink := &recordingSink{}
	w.SetEvents(sink)
	w.idrAny.Flags |= EventOnTableCreate

	if _, err := Init(w, NewType(Id(10))); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if len(sink.kinds) != 1 || sink.kinds[0] != EventOnTableCreate {
		t.Errorf("expected exactly one OnTableCreate emission, got %v", sink.kinds)
	}
}

func TestTableFreeEmitsOnTableDeleteWhenObserved(t *testing.T) {
	w := NewWorld()
	sink := &recordingSink{}
	posID := Id(10)
	w.EnsureIdRecord(posID).Flags |= EventOnTableDelete

	tbl, err := Init(w, NewType(posID))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	w.SetEvents(sink)

	tbl.Free()

	if len(sink.kinds) != 1 || sink.kinds[0] != EventOnTableDelete {
		t.Errorf("expected exactly one OnTableDelete emission, got %v", sink.kinds)
	}
}

func TestTableInitFlagsTracksFirstPairAndFirstRole(t *testing.T) {
	w := NewWorld()
	toggled := Id(50) | RoleToggle
	pair := MakePair(20, 30)

	tbl, err := Init(w, NewType(Id(1), toggled, pair))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	idx := func(id Id) int16 {
		i := tbl.typ.IndexOf(id)
		if i < 0 {
			t.Fatalf("id %d not found in type", id)
		}
		return int16(i)
	}

	if tbl.firstRole != idx(toggled) {
		t.Errorf("firstRole = %d, want %d", tbl.firstRole, idx(toggled))
	}
	if tbl.firstPair != idx(pair) {
		t.Errorf("firstPair = %d, want %d", tbl.firstPair, idx(pair))
	}
}

func TestTableInitFlagsFirstPairAndFirstRoleDefaultToMinusOne(t *testing.T) {
	w := NewWorld()
	tbl, err := Init(w, NewType(Id(1), Id(2)))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if tbl.firstPair != -1 {
		t.Errorf("firstPair = %d, want -1 for a type with no pairs", tbl.firstPair)
	}
	if tbl.firstRole != -1 {
		t.Errorf("firstRole = %d, want -1 for a type with no role-flagged ids", tbl.firstRole)
	}
}

func TestTableFreeReleasesIdRecords(t *testing.T) {
	w := NewWorld()
	posID := Id(10)

	tbl, err := Init(w, NewType(posID))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	idr := w.EnsureIdRecord(posID)
	before := idr.refcount

	tbl.Free()

	if idr.CacheGet(tbl.id) != nil {
		t.Errorf("expected table's TableRecord removed from posID's cache after Free")
	}
	if idr.refcount != before-1 {
		t.Errorf("refcount = %d, want %d", idr.refcount, before-1)
	}
	if _, ok := w.idrs[posID]; ok {
		t.Errorf("expected posID's id-record dropped from the world index once its refcount reached zero")
	}
}
