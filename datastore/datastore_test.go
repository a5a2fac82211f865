package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := OpenWith(Options{
		Path:          filepath.Join(t.TempDir(), "store.json"),
		FlushInterval: time.Hour, // keep the flush loop out of the way
		BackupCount:   0,
	})
	if err != nil {
		t.Fatalf("OpenWith: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := openTemp(t)

	s.Set("k", "v")
	v, ok := s.Get("k")
	if !ok || v != "v" {
		t.Fatalf("Get(k) = %v, %v; want v, true", v, ok)
	}

	s.Delete("k")
	if _, ok := s.Get("k"); ok {
		t.Fatal("Get(k) after Delete should report missing")
	}
}

func TestPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Set("greeting", "hello")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, ok := s2.Get("greeting")
	if !ok || v != "hello" {
		t.Fatalf("Get after reopen = %v, %v; want hello, true", v, ok)
	}
}

func TestFlushWritesValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	s.Set("n", 42)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store file: %v", err)
	}
	if len(data) == 0 || data[0] != '{' {
		t.Fatalf("store file does not look like JSON: %q", data)
	}
}

func TestRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("Open should fail on a corrupt file")
	}
}

func TestClosedStoreIsInert(t *testing.T) {
	s := openTemp(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s.Set("k", "v")
	if _, ok := s.Get("k"); ok {
		t.Fatal("Set/Get on a closed store should be no-ops")
	}
	if err := s.Flush(); err == nil {
		t.Fatal("Flush on a closed store should error")
	}
}
