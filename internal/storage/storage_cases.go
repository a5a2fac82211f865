package storage

import (
	"slices"

	"server-warden/internal/moderation"
)

// AllCases returns every case record, in no particular order.
func (s *Storage) AllCases() ([]moderation.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return nil, err
	}
	cases := make([]moderation.Action, 0, len(record.Cases))
	for _, a := range record.Cases {
		cases = append(cases, a)
	}
	return cases, nil
}

// InsertCase persists a new case and appends it to the subject's index.
// The caller (the ledger) is responsible for assigning a unique case id.
func (s *Storage) InsertCase(a moderation.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	record.Cases[a.CaseID] = a
	if a.UserID != "" {
		record.UserCases[a.UserID] = append(record.UserCases[a.UserID], a.CaseID)
	}
	s.put(record)
	return nil
}

// GetCase returns the case with the given id.
func (s *Storage) GetCase(caseID string) (moderation.Action, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return moderation.Action{}, false, err
	}
	a, ok := record.Cases[caseID]
	return a, ok, nil
}

// SetCaseReason mutates only the reason of an existing case. Returns false
// when the case does not exist; it never creates one.
func (s *Storage) SetCaseReason(caseID, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return false, err
	}
	a, ok := record.Cases[caseID]
	if !ok {
		return false, nil
	}
	a.Reason = reason
	record.Cases[caseID] = a
	s.put(record)
	return true, nil
}

// UserCaseIDs returns the subject's case ids in insertion order.
func (s *Storage) UserCaseIDs(userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return nil, err
	}
	return record.UserCases[userID], nil
}

// AddWarning appends to the warning store. Decoupled from the case store;
// the warning's CaseID is only a reference.
func (s *Storage) AddWarning(w moderation.Warning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}
	record.Warnings[w.UserID] = append(record.Warnings[w.UserID], w)
	s.put(record)
	return nil
}

// WarningsFor returns the warnings recorded against userID.
func (s *Storage) WarningsFor(userID string) ([]moderation.Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return nil, err
	}
	return record.Warnings[userID], nil
}

// DeleteWarning removes the warning with the given case id from the warning
// store. The underlying case record is untouched.
func (s *Storage) DeleteWarning(caseID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return false, err
	}
	for userID, warns := range record.Warnings {
		idx := slices.IndexFunc(warns, func(w moderation.Warning) bool {
			return w.CaseID == caseID
		})
		if idx < 0 {
			continue
		}
		record.Warnings[userID] = slices.Delete(warns, idx, idx+1)
		if len(record.Warnings[userID]) == 0 {
			delete(record.Warnings, userID)
		}
		s.put(record)
		return true, nil
	}
	return false, nil
}
