package build

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestBuilder(t *testing.T, opts Options) *Builder {
	t.Helper()
	if opts.StagingRoot == "" {
		opts.StagingRoot = t.TempDir()
	}
	b, err := New(opts, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return b
}

func TestDetectPackageManager(t *testing.T) {
	t.Run("package manager field", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"packageManager":"pnpm@8.6.0"}`)
		if pm := detectPackageManager(dir); pm != pmPNPM {
			t.Fatalf("expected pnpm, got %s", pm)
		}
	})

	t.Run("lock files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"name":"app"}`)
		writeFile(t, dir, "yarn.lock", "\n")
		if pm := detectPackageManager(dir); pm != pmYarn {
			t.Fatalf("expected yarn, got %s", pm)
		}
	})

	t.Run("default npm", func(t *testing.T) {
		dir := t.TempDir()
		if pm := detectPackageManager(dir); pm != pmNPM {
			t.Fatalf("expected npm, got %s", pm)
		}
	})
}

func TestIsNextProject(t *testing.T) {
	t.Run("dependency", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"dependencies":{"next":"14.2.3"}}`)
		m, ok := loadManifest(dir)
		if !ok || !isNextProject(m) {
			t.Fatalf("expected next project")
		}
	})

	t.Run("build script only", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"scripts":{"build":"next build"}}`)
		m, ok := loadManifest(dir)
		if !ok || !isNextProject(m) {
			t.Fatalf("expected next project via scripts")
		}
	})

	t.Run("plain node", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"dependencies":{"express":"4"}}`)
		m, ok := loadManifest(dir)
		if !ok {
			t.Fatalf("expected manifest to load")
		}
		if isNextProject(m) {
			t.Fatalf("expected non-next project")
		}
	})
}

func TestBuildPackagesOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"name":"shop","dependencies":{"next":"^14.2.0","@opennextjs/aws":"^3.1.0"}}`)
	writeFile(t, dir, filepath.Join("node_modules", "next", "package.json"), `{"version":"14.2.3"}`)
	writeFile(t, dir, filepath.Join(".open-next", "server.js"), "console.log('hi')\n")

	b := newTestBuilder(t, Options{ProjectDir: dir})
	var gotCommand, gotDir string
	b.run = func(ctx context.Context, command, d string, log *slog.Logger) (string, error) {
		gotCommand = command
		gotDir = d
		return "compiled\n", nil
	}
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	calls := 0
	b.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(1500 * time.Millisecond)
	}

	artifact, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if gotCommand != "npm run build" {
		t.Fatalf("expected default npm build command, got %q", gotCommand)
	}
	if gotDir != dir {
		t.Fatalf("expected build to run in project dir, got %q", gotDir)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	sum := sha256.Sum256(data)
	if artifact.Checksum != hex.EncodeToString(sum[:]) {
		t.Fatalf("checksum mismatch: %s", artifact.Checksum)
	}

	names := tarEntries(t, artifact.Path)
	if !names["server.js"] {
		t.Fatalf("bundle missing server.js, got %v", names)
	}

	if artifact.Metadata.NextVersion != "14.2.3" {
		t.Fatalf("expected installed next version, got %q", artifact.Metadata.NextVersion)
	}
	if artifact.Metadata.OpenNextVersion != "3.1.0" {
		t.Fatalf("expected declared opennext version, got %q", artifact.Metadata.OpenNextVersion)
	}
	if artifact.Metadata.BuildTimeMs != 1500 {
		t.Fatalf("expected build time 1500ms, got %d", artifact.Metadata.BuildTimeMs)
	}

	b.Cleanup()
	if _, err := os.Stat(artifact.Path); !os.IsNotExist(err) {
		t.Fatalf("expected bundle removed after cleanup")
	}
	b.Cleanup()
}

func TestBuildFailureIncludesOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies":{"next":"14.0.0"}}`)

	b := newTestBuilder(t, Options{ProjectDir: dir})
	b.run = func(ctx context.Context, command, d string, log *slog.Logger) (string, error) {
		return "Module not found: can't resolve 'left-pad'\n", fmt.Errorf("command %s failed: exit status 1", command)
	}

	_, err := b.Build(context.Background())
	if err == nil {
		t.Fatalf("expected build error")
	}
	if !strings.Contains(err.Error(), "Module not found") {
		t.Fatalf("expected toolchain output in error, got %v", err)
	}
	if b.stagingDir != "" {
		t.Fatalf("expected no staging dir after failed build")
	}
	b.Cleanup()
}

func TestBuildRejectsNonNextProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies":{"react":"18"}}`)

	b := newTestBuilder(t, Options{ProjectDir: dir})
	if _, err := b.Build(context.Background()); !errors.Is(err, ErrNotNextProject) {
		t.Fatalf("expected ErrNotNextProject, got %v", err)
	}

	empty := t.TempDir()
	b = newTestBuilder(t, Options{ProjectDir: empty})
	if _, err := b.Build(context.Background()); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}
}

func TestResolveOutputDir(t *testing.T) {
	t.Run("prefers open-next", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, filepath.Join(".open-next", "a"), "x")
		writeFile(t, dir, filepath.Join(".next", "b"), "y")
		b := &Builder{opts: Options{ProjectDir: dir}}
		out, err := b.resolveOutputDir()
		if err != nil {
			t.Fatalf("resolveOutputDir error: %v", err)
		}
		if filepath.Base(out) != ".open-next" {
			t.Fatalf("expected .open-next, got %s", out)
		}
	})

	t.Run("override missing", func(t *testing.T) {
		dir := t.TempDir()
		b := &Builder{opts: Options{ProjectDir: dir, OutputDir: "dist"}}
		if _, err := b.resolveOutputDir(); !errors.Is(err, ErrNoBuildOutput) {
			t.Fatalf("expected ErrNoBuildOutput, got %v", err)
		}
	})
}

func TestWorkspaceCleanupStaysInRoot(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace error: %v", err)
	}

	dir, err := ws.Prepare("attempt-1")
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	if err := ws.Cleanup(dir); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}

	if err := ws.Cleanup(filepath.Join(root, "..", "escape")); err == nil {
		t.Fatalf("expected cleanup outside root to fail")
	}
	if err := ws.Cleanup(root); err == nil {
		t.Fatalf("expected cleanup of root itself to fail")
	}
}

func TestParseCommandQuoting(t *testing.T) {
	tokens, err := parseCommand(`npx opennextjs-aws build --config "open next.config.ts"`)
	if err != nil {
		t.Fatalf("parseCommand error: %v", err)
	}
	want := []string{"npx", "opennextjs-aws", "build", "--config", "open next.config.ts"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %v", len(want), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d: expected %q got %q", i, want[i], tokens[i])
		}
	}

	if _, err := parseCommand(`npm run "broken`); err == nil {
		t.Fatalf("expected unterminated quote error")
	}
}

func TestTruncateOutput(t *testing.T) {
	long := strings.Repeat("x", 5000)
	got := truncateOutput(long)
	if len(got) >= 5000 {
		t.Fatalf("expected truncation, got %d bytes", len(got))
	}
	if !strings.Contains(got, "truncated") {
		t.Fatalf("expected truncation marker, got tail %q", got[len(got)-40:])
	}
}

func tarEntries(t *testing.T, path string) map[string]bool {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gz.Close()

	names := map[string]bool{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar next: %v", err)
		}
		names[strings.TrimSuffix(hdr.Name, "/")] = true
	}
	return names
}
