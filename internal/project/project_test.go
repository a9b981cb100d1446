package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := Config{
		AppID:        "app_42",
		Name:         "storefront",
		BuildCommand: "pnpm build",
		OutputDir:    ".open-next",
	}
	if err := Save(dir, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestLoadUnlinkedDirectory(t *testing.T) {
	if _, err := Load(t.TempDir()); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("Load on empty dir = %v, want ErrNotLinked", err)
	}
}

func TestLoadRejectsMissingAppID(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`{"name":"storefront"}`)
	if err := os.WriteFile(filepath.Join(dir, ConfigName), content, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(dir); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("Load without appId = %v, want ErrNotLinked", err)
	}
}

func TestSaveRequiresAppID(t *testing.T) {
	if err := Save(t.TempDir(), Config{Name: "storefront"}); err == nil {
		t.Fatal("Save without app id succeeded, want error")
	}
}
