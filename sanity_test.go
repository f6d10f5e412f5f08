package archtable

import "testing"

func withSanityChecks(t *testing.T, enabled bool) {
	t.Helper()
	prev := Config.engine.SanityChecks
	Config.engine.SanityChecks = enabled
	t.Cleanup(func() { Config.engine.SanityChecks = prev })
}

func TestSanityChecksPassAfterNormalMutations(t *testing.T) {
	withSanityChecks(t, true)

	w := NewWorld()
	e := NewEngine(w)
	posID := Id(1)
	w.RegisterTypeInfo(posID, int64TypeInfo())

	tbl, _ := e.Init(NewType(posID))
	for i := 0; i < 10; i++ {
		// Each record already carries the row this append gives it, since
		// the sanity check runs before Append returns.
		record := &Record{Table: tbl, Row: RowToRecord(int32(i), 0)}
		if _, err := e.Append(tbl, Entity(i+1), record, true, false); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := e.Delete(tbl, 3, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := e.Swap(tbl, 0, 1); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if _, hadPanic := recoverCheckSanity(tbl); hadPanic {
		t.Errorf("checkSanity flagged a healthy table")
	}
}

func TestSanityChecksCatchColumnCapDrift(t *testing.T) {
	withSanityChecks(t, true)

	w := NewWorld()
	posID := Id(1)
	w.RegisterTypeInfo(posID, int64TypeInfo())
	tbl, _ := Init(w, NewType(posID))
	tbl.Append(Entity(1), &Record{Table: tbl}, true, false)

	// Deliberately break the column-cap-tracks-entities-cap invariant.
	tbl.data.columns[0].data.SetCap(tbl.data.entities.Cap() + 5)

	if _, hadPanic := recoverCheckSanity(tbl); !hadPanic {
		t.Errorf("expected checkSanity to catch the column cap drift")
	}
}

func recoverCheckSanity(t *Table) (msg string, hadPanic bool) {
	defer func() {
		if r := recover(); r != nil {
			hadPanic = true
			msg = r.(string)
		}
	}()
	checkSanity(t)
	return "", false
}
