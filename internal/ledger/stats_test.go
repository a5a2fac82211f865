package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server-warden/internal/moderation"
	"server-warden/internal/storage"
)

// seedCases inserts cases with controlled ages relative to now.
func seedStatsLedger(t *testing.T, now time.Time) *Ledger {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	l := New(store, zerolog.Nop())
	l.now = func() time.Time { return now }

	seed := []struct {
		id  string
		typ moderation.ActionType
		mod string
		age time.Duration
	}{
		{"0000", moderation.ActionBan, "M1", 2 * 24 * time.Hour},   // inside 7d
		{"0001", moderation.ActionBan, "M1", 20 * 24 * time.Hour},  // inside 30d only
		{"0002", moderation.ActionBan, "M2", 90 * 24 * time.Hour},  // all-time only
		{"0003", moderation.ActionWarn, "M1", 6 * 24 * time.Hour},  // inside 7d
		{"0004", moderation.ActionWarn, "M1", 45 * 24 * time.Hour}, // all-time only
	}
	for _, c := range seed {
		err := store.InsertCase(moderation.Action{
			CaseID:      c.id,
			Type:        c.typ,
			UserID:      "U1",
			ModeratorID: c.mod,
			Reason:      "x",
			Timestamp:   now.Add(-c.age),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return l
}

func TestStatisticsWindows(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	l := seedStatsLedger(t, now)

	stats, err := l.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	bans := stats[moderation.ActionBan]
	if bans.Last7 != 1 || bans.Last30 != 2 || bans.AllTime != 3 {
		t.Errorf("ban windows = %+v, want {1 2 3}", bans)
	}

	warns := stats[moderation.ActionWarn]
	if warns.Last7 != 1 || warns.Last30 != 1 || warns.AllTime != 2 {
		t.Errorf("warn windows = %+v, want {1 1 2}", warns)
	}

	total := stats[moderation.ActionTotal]
	if total.Last7 != 2 || total.Last30 != 3 || total.AllTime != 5 {
		t.Errorf("total windows = %+v, want {2 3 5}", total)
	}
}

func TestStatisticsWindowsAreCumulative(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	l := seedStatsLedger(t, now)

	stats, err := l.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	for typ, c := range stats {
		if c.Last7 > c.Last30 || c.Last30 > c.AllTime {
			t.Errorf("%s windows not cumulative: %+v", typ, c)
		}
	}
}

func TestModeratorStatisticsFilters(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	l := seedStatsLedger(t, now)

	stats, err := l.ModeratorStatistics("M2")
	if err != nil {
		t.Fatalf("ModeratorStatistics: %v", err)
	}

	bans := stats[moderation.ActionBan]
	if bans.AllTime != 1 || bans.Last30 != 0 || bans.Last7 != 0 {
		t.Errorf("M2 ban windows = %+v, want {0 0 1}", bans)
	}
	if _, ok := stats[moderation.ActionWarn]; ok {
		t.Error("M2 has no warns; warn row should be absent")
	}

	total := stats[moderation.ActionTotal]
	if total.AllTime != 1 {
		t.Errorf("M2 total all-time = %d, want 1", total.AllTime)
	}
}

func TestStatisticsEmptyLedger(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	l := New(store, zerolog.Nop())
	stats, err := l.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("empty ledger stats = %v, want empty map", stats)
	}
}
