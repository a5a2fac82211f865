// Package storage persists the bot's state in the JSON-file datastore: the
// permission configuration, the case ledger, the warning store, the per-user
// case index and the command invocation history. One global record.
package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"server-warden/datastore"
	"server-warden/internal/moderation"
)

// recordKey is the datastore key holding the single global record.
const recordKey = "moderation"

const commandHistoryLimit = 50

// Storage wraps the datastore with typed accessors. Everything lives under
// one record, so every accessor runs a read-record/mutate/put-record cycle;
// mu serializes those cycles so two concurrent writers cannot overwrite each
// other's changes with a stale copy of the record.
type Storage struct {
	mu sync.Mutex
	ds *datastore.Store
}

// CommandHistory is one logged command invocation.
type CommandHistory struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Datetime  time.Time `json:"datetime"`
}

// Record is the shape of everything under recordKey.
type Record struct {
	Permissions     moderation.PermissionConfig     `json:"permissions"`
	Cases           map[string]moderation.Action    `json:"cases"`
	Warnings        map[string][]moderation.Warning `json:"warnings"`   // key = userID
	UserCases       map[string][]string             `json:"user_cases"` // key = userID, values = case ids
	CommandsHistory []CommandHistory                `json:"commands_history"`
}

// New opens (or creates) the store at filePath.
func New(filePath string) (*Storage, error) {
	ds, err := datastore.Open(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWith wraps an already-opened datastore. Used by tests.
func NewWith(ds *datastore.Store) *Storage {
	return &Storage{ds: ds}
}

// Close flushes and closes the underlying datastore.
func (s *Storage) Close() error {
	return s.ds.Close()
}

// Flush forces a write to disk.
func (s *Storage) Flush() error {
	return s.ds.Flush()
}

// getOrCreateRecord reads the global record, returning an empty one when the
// store holds none yet. Reading never writes: the fresh record reaches the
// datastore only when a mutating accessor calls put. Values come back from
// the datastore as generic JSON, so they round-trip through a marshal to
// regain their typed shape. Callers must hold mu.
func (s *Storage) getOrCreateRecord() (*Record, error) {
	data, exists := s.ds.Get(recordKey)
	if !exists {
		return &Record{
			Permissions: moderation.PermissionConfig{Commands: map[string]moderation.CommandPolicy{}},
			Cases:       map[string]moderation.Action{},
			Warnings:    map[string][]moderation.Warning{},
			UserCases:   map[string][]string{},
		}, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("storage: marshal record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("storage: unmarshal record: %w", err)
	}

	if record.Permissions.Commands == nil {
		record.Permissions.Commands = map[string]moderation.CommandPolicy{}
	}
	if record.Cases == nil {
		record.Cases = map[string]moderation.Action{}
	}
	if record.Warnings == nil {
		record.Warnings = map[string][]moderation.Warning{}
	}
	if record.UserCases == nil {
		record.UserCases = map[string][]string{}
	}

	return &record, nil
}

// put writes the record back. Callers must hold mu.
func (s *Storage) put(record *Record) {
	s.ds.Set(recordKey, record)
}
