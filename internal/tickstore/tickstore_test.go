package tickstore

import (
	"path/filepath"
	"testing"
	"time"

	"radfield/server/internal/radiation"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ticks.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndReadBack(t *testing.T) {
	store := openTestStore(t)
	report := radiation.Report{
		Tick:          4,
		Elapsed:       1500 * time.Microsecond,
		SourceCount:   2,
		ReceiverCount: 3,
		RaysTraced:    6,
		RaysReached:   4,
		Exposure:      map[string]float64{"rcv-1": 70, "rcv-2": 40},
	}
	if err := store.RecordPass(report, time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := store.RecentPasses(10)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	row := rows[0]
	if row.Tick != 4 || row.ElapsedUs != 1500 || row.RaysReached != 4 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.TotalExposure != 110 {
		t.Fatalf("expected summed exposure 110, got %v", row.TotalExposure)
	}
}

func TestRecordPassReplacesSameTick(t *testing.T) {
	store := openTestStore(t)
	report := radiation.Report{Tick: 1, Exposure: map[string]float64{"rcv-1": 10}}
	if err := store.RecordPass(report, time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}
	report.Exposure["rcv-1"] = 25
	if err := store.RecordPass(report, time.Now()); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	rows, err := store.RecentPasses(10)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 || rows[0].TotalExposure != 25 {
		t.Fatalf("expected replacement row with exposure 25, got %+v", rows)
	}
}

func TestRecentPassesOrdering(t *testing.T) {
	store := openTestStore(t)
	for tick := uint64(1); tick <= 5; tick++ {
		report := radiation.Report{Tick: tick, Exposure: map[string]float64{}}
		if err := store.RecordPass(report, time.Now()); err != nil {
			t.Fatalf("record tick %d: %v", tick, err)
		}
	}
	rows, err := store.RecentPasses(3)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 || rows[0].Tick != 5 || rows[2].Tick != 3 {
		t.Fatalf("expected newest-first window [5,4,3], got %+v", rows)
	}
}
