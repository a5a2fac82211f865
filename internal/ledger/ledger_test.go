package ledger

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server-warden/internal/moderation"
	"server-warden/internal/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, zerolog.Nop())
}

func TestLogAssignsSequentialCaseIDs(t *testing.T) {
	l := newTestLedger(t)

	want := []string{"0000", "0001", "0002"}
	for i, userID := range []string{"U1", "U2", "U3"} {
		a, err := l.Log(Entry{Type: moderation.ActionWarn, UserID: userID, ModeratorID: "M1", Reason: "spam"})
		if err != nil {
			t.Fatalf("Log #%d: %v", i, err)
		}
		if a.CaseID != want[i] {
			t.Errorf("case id #%d = %q, want %q", i, a.CaseID, want[i])
		}
	}
}

func TestLogDefaultsReason(t *testing.T) {
	l := newTestLedger(t)

	a, err := l.Log(Entry{Type: moderation.ActionBan, UserID: "U1", ModeratorID: "M1"})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if a.Reason != moderation.DefaultReason {
		t.Errorf("reason = %q, want %q", a.Reason, moderation.DefaultReason)
	}
}

func TestLogRejectsInvalidType(t *testing.T) {
	l := newTestLedger(t)

	if _, err := l.Log(Entry{Type: "explode", UserID: "U1", ModeratorID: "M1"}); err == nil {
		t.Error("Log should reject an unknown action type")
	}
	if _, err := l.Log(Entry{Type: moderation.ActionTotal, ModeratorID: "M1"}); err == nil {
		t.Error("Log should reject the total pseudo-type")
	}
}

func TestConcurrentLogYieldsDistinctIDs(t *testing.T) {
	l := newTestLedger(t)

	const n = 50
	ids := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := l.Log(Entry{Type: moderation.ActionKick, UserID: "U1", ModeratorID: "M1"})
			if err != nil {
				t.Errorf("Log: %v", err)
				return
			}
			ids <- a.CaseID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate case id %q under concurrent logging", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct ids, want %d", len(seen), n)
	}
}

func TestConcurrentLogAndHistoryKeepsEveryCase(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	l := New(store, zerolog.Nop())

	// History appends run on every command invocation, so they interleave
	// with case writes on the shared record. A successfully returned case
	// id must survive that.
	const n = 100
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n*2; i++ {
			_ = store.AppendCommandHistory(storage.CommandHistory{
				GuildID:  "g1",
				UserID:   "U1",
				Command:  "ban",
				Datetime: time.Now().UTC(),
			})
		}
	}()

	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := l.Log(Entry{Type: moderation.ActionBan, UserID: "U1", ModeratorID: "M1"})
			if err != nil {
				t.Errorf("Log: %v", err)
				return
			}
			ids <- a.CaseID
		}()
	}
	wg.Wait()
	close(ids)
	<-done

	var lost []string
	for id := range ids {
		_, ok, err := l.Case(id)
		if err != nil {
			t.Fatalf("Case(%s): %v", id, err)
		}
		if !ok {
			lost = append(lost, id)
		}
	}
	if len(lost) > 0 {
		t.Fatalf("%d logged cases vanished from the store: %v", len(lost), lost)
	}
}

type warnMirrorFailStore struct {
	*storage.Storage
}

func (s *warnMirrorFailStore) AddWarning(moderation.Warning) error {
	return errors.New("disk full")
}

func TestLogWarnMirrorFailureKeepsCase(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	l := New(&warnMirrorFailStore{Storage: store}, zerolog.Nop())

	a, err := l.Log(Entry{Type: moderation.ActionWarn, UserID: "U1", ModeratorID: "M1"})
	if !errors.Is(err, ErrWarningMirror) {
		t.Fatalf("Log error = %v, want ErrWarningMirror", err)
	}
	if a.CaseID == "" {
		t.Fatal("Log should return the persisted action on a mirror failure")
	}

	// The case record went in before the mirror failed; it must be there.
	got, ok, err := l.Case(a.CaseID)
	if err != nil {
		t.Fatalf("Case: %v", err)
	}
	if !ok {
		t.Fatalf("case %s missing after mirror failure", a.CaseID)
	}
	if got.Type != moderation.ActionWarn {
		t.Errorf("case type = %s, want warn", got.Type)
	}
}

func TestCaseIDGrowsPastPadding(t *testing.T) {
	l := newTestLedger(t)

	// Seed a case beyond the 4-digit range and confirm the counter keeps
	// increasing without re-padding.
	if err := l.store.InsertCase(moderation.Action{
		CaseID: "10233", Type: moderation.ActionBan, UserID: "U9",
		ModeratorID: "M1", Reason: "x", Timestamp: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	a, err := l.Log(Entry{Type: moderation.ActionBan, UserID: "U1", ModeratorID: "M1"})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if a.CaseID != "10234" {
		t.Errorf("case id = %q, want 10234", a.CaseID)
	}
}

func TestNonNumericCaseIDsAreIgnored(t *testing.T) {
	l := newTestLedger(t)

	for _, bad := range []string{"legacy-7", "12a", ""} {
		if err := l.store.InsertCase(moderation.Action{
			CaseID: bad, Type: moderation.ActionWarn, UserID: "U9",
			ModeratorID: "M1", Reason: "x", Timestamp: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
	}

	a, err := l.Log(Entry{Type: moderation.ActionWarn, UserID: "U1", ModeratorID: "M1"})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if a.CaseID != "0000" {
		t.Errorf("case id = %q, want 0000 when no numeric ids exist", a.CaseID)
	}
}

func TestUpdateReasonMutatesOnlyReason(t *testing.T) {
	l := newTestLedger(t)

	before, err := l.Log(Entry{Type: moderation.ActionMute, UserID: "U1", ModeratorID: "M1", Reason: "noise", Duration: "30m"})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}

	ok, err := l.UpdateReason(before.CaseID, "excessive noise")
	if err != nil {
		t.Fatalf("UpdateReason: %v", err)
	}
	if !ok {
		t.Fatal("UpdateReason reported the case missing")
	}

	after, ok, err := l.Case(before.CaseID)
	if err != nil || !ok {
		t.Fatalf("Case: ok=%v err=%v", ok, err)
	}

	if after.Reason != "excessive noise" {
		t.Errorf("reason = %q, want updated value", after.Reason)
	}
	if after.CaseID != before.CaseID || !after.Timestamp.Equal(before.Timestamp) ||
		after.UserID != before.UserID || after.ModeratorID != before.ModeratorID ||
		after.Type != before.Type || after.Duration != before.Duration {
		t.Errorf("UpdateReason changed more than the reason: before=%+v after=%+v", before, after)
	}
}

func TestUpdateReasonMissingCase(t *testing.T) {
	l := newTestLedger(t)

	ok, err := l.UpdateReason("9999", "whatever")
	if err != nil {
		t.Fatalf("UpdateReason: %v", err)
	}
	if ok {
		t.Error("UpdateReason on a missing case should return false, not create it")
	}
}

func TestCaseMissingReturnsNotFound(t *testing.T) {
	l := newTestLedger(t)

	_, ok, err := l.Case("0042")
	if err != nil {
		t.Fatalf("Case: %v", err)
	}
	if ok {
		t.Error("Case on an empty ledger should report not found")
	}
}

func TestUserCasesAndWarnings(t *testing.T) {
	l := newTestLedger(t)

	mustLog := func(e Entry) moderation.Action {
		t.Helper()
		a, err := l.Log(e)
		if err != nil {
			t.Fatalf("Log: %v", err)
		}
		return a
	}

	mustLog(Entry{Type: moderation.ActionWarn, UserID: "U1", ModeratorID: "M1", Reason: "spam"})
	mustLog(Entry{Type: moderation.ActionMute, UserID: "U1", ModeratorID: "M1", Duration: "1h"})
	mustLog(Entry{Type: moderation.ActionWarn, UserID: "U2", ModeratorID: "M1"})
	mustLog(Entry{Type: moderation.ActionLock, ModeratorID: "M1"}) // channel-scoped, no subject

	cases, err := l.UserCases("U1")
	if err != nil {
		t.Fatalf("UserCases: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("UserCases(U1) returned %d cases, want 2", len(cases))
	}
	if cases[0].CaseID != "0000" || cases[1].CaseID != "0001" {
		t.Errorf("UserCases order = %s, %s; want 0000, 0001", cases[0].CaseID, cases[1].CaseID)
	}

	warns, err := l.UserWarnings("U1")
	if err != nil {
		t.Fatalf("UserWarnings: %v", err)
	}
	if len(warns) != 1 || warns[0].Type != moderation.ActionWarn {
		t.Fatalf("UserWarnings(U1) = %+v, want the single warn case", warns)
	}

	none, err := l.UserCases("nobody")
	if err != nil {
		t.Fatalf("UserCases(nobody): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("UserCases for unknown user should be empty, got %d", len(none))
	}
}

func TestDeleteWarningKeepsCase(t *testing.T) {
	l := newTestLedger(t)

	a, err := l.Log(Entry{Type: moderation.ActionWarn, UserID: "U1", ModeratorID: "M1", Reason: "spam"})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}

	warns, err := l.Warnings("U1")
	if err != nil || len(warns) != 1 {
		t.Fatalf("Warnings before delete = %v (err %v), want one entry", warns, err)
	}
	if warns[0].CaseID != a.CaseID {
		t.Errorf("warning case id = %q, want %q", warns[0].CaseID, a.CaseID)
	}

	ok, err := l.DeleteWarning(a.CaseID)
	if err != nil || !ok {
		t.Fatalf("DeleteWarning: ok=%v err=%v", ok, err)
	}

	warns, err = l.Warnings("U1")
	if err != nil {
		t.Fatalf("Warnings after delete: %v", err)
	}
	if len(warns) != 0 {
		t.Errorf("warning store should be empty after delete, got %d", len(warns))
	}

	// The case record survives the warning deletion.
	if _, ok, err := l.Case(a.CaseID); err != nil || !ok {
		t.Errorf("case %s should still exist after its warning is deleted", a.CaseID)
	}

	ok, err = l.DeleteWarning("9999")
	if err != nil {
		t.Fatalf("DeleteWarning(9999): %v", err)
	}
	if ok {
		t.Error("DeleteWarning on an unknown id should return false")
	}
}
