// Package datastore is a small JSON-file key/value store: everything lives in
// memory, a background routine flushes to disk at a fixed interval, and every
// flush is an atomic write (temp file + rename) verified by checksum. Good
// enough for a single-process bot; not a database.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Store.
type Options struct {
	Path          string
	FlushInterval time.Duration
	BackupCount   int // backups kept per file; 0 disables backups
	Logger        zerolog.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions(path string) Options {
	return Options{
		Path:          path,
		FlushInterval: 10 * time.Second,
		BackupCount:   3,
		Logger:        zerolog.Nop(),
	}
}

// Store is a thread-safe in-memory map persisted to a single JSON file.
type Store struct {
	mu   sync.RWMutex
	data map[string]any

	path string
	opts Options
	log  zerolog.Logger

	lastChecksum string

	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeMu sync.Mutex
	closed  bool
}

// Open creates a Store with default options.
func Open(path string) (*Store, error) {
	return OpenWith(DefaultOptions(path))
}

// OpenWith creates a Store, loading existing data from disk if the file
// exists and creating an empty file otherwise.
func OpenWith(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("datastore: path cannot be empty")
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 10 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, fmt.Errorf("datastore: create directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		data:   make(map[string]any),
		path:   opts.Path,
		opts:   opts,
		log:    opts.Logger,
		cancel: cancel,
	}

	if _, err := os.Stat(opts.Path); os.IsNotExist(err) {
		if err := s.writeAtomic([]byte("{}")); err != nil {
			cancel()
			return nil, fmt.Errorf("datastore: initialize file: %w", err)
		}
	} else if err == nil {
		if err := s.load(); err != nil {
			cancel()
			return nil, err
		}
	} else {
		cancel()
		return nil, fmt.Errorf("datastore: stat file: %w", err)
	}

	s.wg.Add(1)
	go s.flushLoop(ctx)

	return s, nil
}

// Set stores a value under key. The value must be JSON-marshalable.
func (s *Store) Set(key string, value any) {
	if s.isClosed() {
		return
	}
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (any, bool) {
	if s.isClosed() {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Delete removes key from the store.
func (s *Store) Delete(key string) {
	if s.isClosed() {
		return
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Keys returns all keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Flush forces an immediate write to disk.
func (s *Store) Flush() error {
	if s.isClosed() {
		return fmt.Errorf("datastore: store is closed")
	}
	return s.flush()
}

// Close stops the flush loop and performs a final write.
func (s *Store) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	s.closeMu.Unlock()

	s.cancel()
	s.wg.Wait()
	return s.flush()
}

func (s *Store) isClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}

func (s *Store) flushLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.flush(); err != nil {
				s.log.Error().Err(err).Msg("datastore flush failed")
			}
		}
	}
}

func (s *Store) flush() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("datastore: marshal: %w", err)
	}

	sum := checksum(data)
	if sum == s.lastChecksum {
		return nil
	}

	if s.opts.BackupCount > 0 {
		if err := s.backup(); err != nil {
			s.log.Warn().Err(err).Msg("datastore backup failed")
		}
	}

	if err := s.writeAtomic(data); err != nil {
		return err
	}

	written, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("datastore: verify read: %w", err)
	}
	if checksum(written) != sum {
		return fmt.Errorf("datastore: checksum mismatch after write")
	}

	s.lastChecksum = sum
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("datastore: read file: %w", err)
	}

	var loaded map[string]any
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("datastore: invalid JSON: %w", err)
	}

	s.mu.Lock()
	s.data = loaded
	s.mu.Unlock()
	s.lastChecksum = checksum(data)
	return nil
}

func (s *Store) writeAtomic(data []byte) error {
	tmp := s.path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("datastore: open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: close temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: rename temp file: %w", err)
	}
	return nil
}

func (s *Store) backup() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}

	name := fmt.Sprintf("%s.backup.%s", s.path, time.Now().Format("20060102_150405"))

	src, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	s.pruneBackups()
	return nil
}

func (s *Store) pruneBackups() {
	matches, err := filepath.Glob(s.path + ".backup.*")
	if err != nil || len(matches) <= s.opts.BackupCount {
		return
	}
	// Backup names embed a sortable timestamp, so lexical order is age order.
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-s.opts.BackupCount] {
		os.Remove(old)
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
