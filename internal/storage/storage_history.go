package storage

// AppendCommandHistory records a command invocation, keeping only the most
// recent entries.
func (s *Storage) AppendCommandHistory(entry CommandHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return err
	}

	record.CommandsHistory = append(record.CommandsHistory, entry)
	if len(record.CommandsHistory) > commandHistoryLimit {
		record.CommandsHistory = record.CommandsHistory[len(record.CommandsHistory)-commandHistoryLimit:]
	}
	s.put(record)
	return nil
}

// CommandHistoryList returns the retained command invocation history.
func (s *Storage) CommandHistoryList() ([]CommandHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord()
	if err != nil {
		return nil, err
	}
	return record.CommandsHistory, nil
}
