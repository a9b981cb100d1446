package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewStoreAt(path)

	want := Session{
		APIBaseURL: "https://api.example.com",
		Token:      "tok_abc",
		Email:      "dev@example.com",
		UserID:     "user_1",
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("session file mode = %o, want 600", perm)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "session.json"))
	if _, err := store.Load(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Load on missing file = %v, want ErrNotLoggedIn", err)
	}
}

func TestLoadRejectsEmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"token":"  "}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	store := NewStoreAt(path)
	if _, err := store.Load(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Load with blank token = %v, want ErrNotLoggedIn", err)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	store := NewStoreAt(path)
	if _, err := store.Load(); err == nil || errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Load with corrupt file = %v, want decode error", err)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStoreAt(path)

	if err := store.Save(Session{Token: "tok"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Load after Clear = %v, want ErrNotLoggedIn", err)
	}
}
