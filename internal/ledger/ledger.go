// Package ledger assigns case ids to moderation actions and answers queries
// over the recorded history. It owns the id space: every logged action gets a
// zero-padded, monotonically increasing decimal id, unique even under
// concurrent logging.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"server-warden/internal/moderation"
)

// Store is the persistence the ledger needs. *storage.Storage satisfies it.
type Store interface {
	AllCases() ([]moderation.Action, error)
	InsertCase(moderation.Action) error
	GetCase(caseID string) (moderation.Action, bool, error)
	SetCaseReason(caseID, reason string) (bool, error)
	UserCaseIDs(userID string) ([]string, error)
	AddWarning(moderation.Warning) error
	WarningsFor(userID string) ([]moderation.Warning, error)
	DeleteWarning(caseID string) (bool, error)
}

// Ledger is the case ledger. Safe for concurrent use.
type Ledger struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time

	// mu serializes id assignment: two concurrent Log calls must never
	// read the same maximum and collide.
	mu sync.Mutex
}

// New creates a Ledger over store.
func New(store Store, log zerolog.Logger) *Ledger {
	return &Ledger{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// ErrWarningMirror marks a partial Log failure: the case record was persisted
// and its id is final, but mirroring the warn into the warning store failed.
// Callers detect it with errors.Is and must not report the case as lost.
var ErrWarningMirror = errors.New("warning store write failed")

// Entry describes an action to log. CaseID and Timestamp are assigned by Log.
type Entry struct {
	Type        moderation.ActionType
	UserID      string // empty for channel-scoped actions
	ModeratorID string
	Reason      string
	Duration    string // human token, only meaningful for mute/slowmode
}

// Log persists a new case and returns it with its generated id. Persistence
// errors propagate: the platform side effect has already happened by the time
// this is called, and silently losing the audit entry would be worse than
// surfacing the failure. When only the warning mirror fails, the case is
// already on disk; the returned action is valid and the error wraps
// ErrWarningMirror.
func (l *Ledger) Log(e Entry) (moderation.Action, error) {
	if !e.Type.Valid() {
		return moderation.Action{}, fmt.Errorf("ledger: invalid action type %q", e.Type)
	}
	if e.ModeratorID == "" {
		return moderation.Action{}, fmt.Errorf("ledger: moderator id is required")
	}
	if e.Reason == "" {
		e.Reason = moderation.DefaultReason
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	caseID, err := l.nextCaseID()
	if err != nil {
		return moderation.Action{}, err
	}

	action := moderation.Action{
		CaseID:      caseID,
		Type:        e.Type,
		UserID:      e.UserID,
		ModeratorID: e.ModeratorID,
		Reason:      e.Reason,
		Duration:    e.Duration,
		Timestamp:   l.now().UTC(),
	}

	if err := l.store.InsertCase(action); err != nil {
		return moderation.Action{}, fmt.Errorf("ledger: insert case %s: %w", caseID, err)
	}

	if e.Type == moderation.ActionWarn && e.UserID != "" {
		w := moderation.Warning{
			CaseID:      action.CaseID,
			UserID:      action.UserID,
			ModeratorID: action.ModeratorID,
			Reason:      action.Reason,
			Timestamp:   action.Timestamp,
		}
		if err := l.store.AddWarning(w); err != nil {
			l.log.Error().Err(err).Str("case_id", caseID).Msg("warning mirror write failed")
			return action, fmt.Errorf("ledger: case %s: %w: %v", caseID, ErrWarningMirror, err)
		}
	}

	l.log.Debug().
		Str("case_id", action.CaseID).
		Str("type", string(action.Type)).
		Str("user_id", action.UserID).
		Str("moderator_id", action.ModeratorID).
		Msg("action logged")

	return action, nil
}

// nextCaseID scans existing ids and returns max+1, zero-padded to four
// digits. Ids that are not pure decimals are skipped. Full scan per insert is
// a known scaling limit; at moderation-log volumes it is fine, and a
// persisted counter is the evolution path if it ever is not.
func (l *Ledger) nextCaseID() (string, error) {
	cases, err := l.store.AllCases()
	if err != nil {
		return "", fmt.Errorf("ledger: scan cases: %w", err)
	}

	max := int64(-1)
	for _, a := range cases {
		n, err := strconv.ParseInt(a.CaseID, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%04d", max+1), nil
}

// Case returns the case with the given id. A missing id is (zero, false,
// nil), not an error.
func (l *Ledger) Case(caseID string) (moderation.Action, bool, error) {
	return l.store.GetCase(caseID)
}

// UpdateReason replaces the reason of an existing case, leaving every other
// field untouched. Returns false when the case does not exist.
func (l *Ledger) UpdateReason(caseID, reason string) (bool, error) {
	if reason == "" {
		reason = moderation.DefaultReason
	}
	ok, err := l.store.SetCaseReason(caseID, reason)
	if err != nil {
		return false, fmt.Errorf("ledger: update reason for case %s: %w", caseID, err)
	}
	return ok, nil
}

// UserCases returns the subject's cases in the order they were logged.
func (l *Ledger) UserCases(userID string) ([]moderation.Action, error) {
	ids, err := l.store.UserCaseIDs(userID)
	if err != nil {
		return nil, err
	}
	cases := make([]moderation.Action, 0, len(ids))
	for _, id := range ids {
		a, ok, err := l.store.GetCase(id)
		if err != nil {
			return nil, err
		}
		if ok {
			cases = append(cases, a)
		}
	}
	return cases, nil
}

// UserWarnings returns the subject's warn cases.
func (l *Ledger) UserWarnings(userID string) ([]moderation.Action, error) {
	cases, err := l.UserCases(userID)
	if err != nil {
		return nil, err
	}
	warns := make([]moderation.Action, 0, len(cases))
	for _, a := range cases {
		if a.Type == moderation.ActionWarn {
			warns = append(warns, a)
		}
	}
	return warns, nil
}

// Warnings returns the separately-tracked warning records for userID.
func (l *Ledger) Warnings(userID string) ([]moderation.Warning, error) {
	return l.store.WarningsFor(userID)
}

// DeleteWarning removes a single warning by its case id. The underlying case
// record stays; the two stores share an id space but not a lifecycle.
func (l *Ledger) DeleteWarning(caseID string) (bool, error) {
	return l.store.DeleteWarning(caseID)
}
