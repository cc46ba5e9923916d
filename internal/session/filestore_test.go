package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := json.RawMessage(`{"cookies":[{"name":"sessionid","value":"abc"}],"deviceId":"android-1234"}`)
	if err := s.Save(ctx, "alice", state, "http://proxy.local:8080"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Proxy != "http://proxy.local:8080" {
		t.Fatalf("expected proxy, got %q", rec.Proxy)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(rec.State, &doc); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if _, ok := doc["cookies"]; !ok {
		t.Fatalf("expected cookies in stored state")
	}
	if _, ok := doc["proxy"]; !ok {
		t.Fatalf("expected proxy field persisted in document")
	}
}

func TestFileStore_SaveReplacesWholeRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "alice", json.RawMessage(`{"a":1}`), "http://p1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "alice", json.RawMessage(`{"b":2}`), ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Proxy != "" {
		t.Fatalf("expected proxy cleared, got %q", rec.Proxy)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(rec.State, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := doc["a"]; ok {
		t.Fatalf("old record leaked into replacement")
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "alice.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = s.Load(context.Background(), "alice")
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestFileStore_DeleteAndExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existed, err := s.Delete(ctx, "alice")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if existed {
		t.Fatalf("expected delete false for missing record")
	}

	if err := s.Save(ctx, "alice", json.RawMessage(`{}`), ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ok, err := s.Exists(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("expected exists true, got %v %v", ok, err)
	}

	existed, err = s.Delete(ctx, "alice")
	if err != nil || !existed {
		t.Fatalf("expected delete true, got %v %v", existed, err)
	}
	if _, err := s.Load(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	ok, err = s.Exists(ctx, "alice")
	if err != nil || ok {
		t.Fatalf("expected exists false after delete, got %v %v", ok, err)
	}
}

func TestFileStore_RejectsUnsafeIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, identity := range []string{"", "../escape", "a/b", ".hidden"} {
		if err := s.Save(ctx, identity, json.RawMessage(`{}`), ""); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("expected ErrInvalidIdentity for %q, got %v", identity, err)
		}
	}
}

func TestFileStore_SaveRejectsNonObjectState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Save(ctx, "alice", json.RawMessage(`["not","an","object"]`), "")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if ok, _ := s.Exists(ctx, "alice"); ok {
		t.Fatalf("rejected save must not create a record")
	}
}
