package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wheblabs/whopctl/pkg/api/client"
)

var (
	// ErrNoManifest reports a project directory without a package.json.
	ErrNoManifest = errors.New("build: package.json not found")
	// ErrNotNextProject reports a manifest that does not use Next.js.
	ErrNotNextProject = errors.New("build: project does not use next")
	// ErrNoBuildOutput reports a build that produced no bundle source dir.
	ErrNoBuildOutput = errors.New("build: no build output directory found")
)

// Options configure a Builder for one project directory.
type Options struct {
	ProjectDir   string
	BuildCommand string        // overrides the package-manager default
	OutputDir    string        // overrides bundle source detection
	StagingRoot  string        // empty means os.TempDir()/whopctl
	Timeout      time.Duration // bounds the toolchain invocation when set
}

// Artifact is the packaged, uploadable output of one build.
type Artifact struct {
	Path     string
	Checksum string
	Metadata client.BuildMetadata
}

// Builder turns a Next.js project into an uploadable tar.gz bundle. The
// bundle lives in a staging directory owned by the Builder until Cleanup.
type Builder struct {
	opts      Options
	workspace *Workspace
	log       *slog.Logger

	run func(ctx context.Context, command, dir string, log *slog.Logger) (string, error)
	now func() time.Time

	stagingDir string
}

// New constructs a Builder for the project directory in opts.
func New(opts Options, log *slog.Logger) (*Builder, error) {
	if strings.TrimSpace(opts.ProjectDir) == "" {
		return nil, fmt.Errorf("build: project directory required")
	}
	ws, err := NewWorkspace(opts.StagingRoot)
	if err != nil {
		return nil, err
	}
	return &Builder{
		opts:      opts,
		workspace: ws,
		log:       log,
		run:       runCommand,
		now:       time.Now,
	}, nil
}

// Build runs the project's build through the host toolchain and packages
// the output. The returned artifact stays valid until Cleanup.
func (b *Builder) Build(ctx context.Context) (Artifact, error) {
	m, ok := loadManifest(b.opts.ProjectDir)
	if !ok {
		return Artifact{}, fmt.Errorf("%w in %s", ErrNoManifest, b.opts.ProjectDir)
	}
	if !isNextProject(m) {
		return Artifact{}, ErrNotNextProject
	}

	pm := detectPackageManager(b.opts.ProjectDir)
	command := strings.TrimSpace(b.opts.BuildCommand)
	if command == "" {
		command = defaultBuildCommand(pm)
	}
	b.log.Info("building project", "dir", b.opts.ProjectDir, "package_manager", pm, "command", command)

	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	start := b.now()
	output, err := b.run(ctx, command, b.opts.ProjectDir, b.log)
	elapsed := b.now().Sub(start)
	if err != nil {
		if tail := truncateOutput(output); tail != "" {
			return Artifact{}, fmt.Errorf("run build: %w\n%s", err, tail)
		}
		return Artifact{}, fmt.Errorf("run build: %w", err)
	}

	outDir, err := b.resolveOutputDir()
	if err != nil {
		return Artifact{}, err
	}

	staging, err := b.workspace.Prepare(uuid.NewString())
	if err != nil {
		return Artifact{}, fmt.Errorf("prepare staging: %w", err)
	}
	b.stagingDir = staging

	bundle := filepath.Join(staging, "bundle.tgz")
	checksum, err := packageDir(outDir, bundle)
	if err != nil {
		return Artifact{}, fmt.Errorf("package artifact: %w", err)
	}

	meta := client.BuildMetadata{
		NextVersion:     packageVersion(b.opts.ProjectDir, m, "next"),
		OpenNextVersion: openNextVersion(b.opts.ProjectDir, m),
		BuildTimeMs:     elapsed.Milliseconds(),
	}
	if sha, err := headCommit(ctx, b.opts.ProjectDir); err == nil {
		meta.CommitSHA = sha
	} else {
		b.log.Debug("commit sha unavailable", "error", err)
	}

	b.log.Info("build complete",
		"bundle", bundle,
		"checksum", checksum,
		"build_time_ms", meta.BuildTimeMs,
	)
	return Artifact{Path: bundle, Checksum: checksum, Metadata: meta}, nil
}

func (b *Builder) resolveOutputDir() (string, error) {
	if dir := strings.TrimSpace(b.opts.OutputDir); dir != "" {
		path := filepath.Join(b.opts.ProjectDir, dir)
		if dirExists(path) {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNoBuildOutput, dir)
	}
	for _, name := range []string{".open-next", ".next"} {
		path := filepath.Join(b.opts.ProjectDir, name)
		if dirExists(path) {
			return path, nil
		}
	}
	return "", ErrNoBuildOutput
}

// Cleanup removes the staging directory. Safe to call any number of times,
// including when Build never ran or failed before staging was created.
func (b *Builder) Cleanup() {
	if b == nil || b.stagingDir == "" {
		return
	}
	if err := b.workspace.Cleanup(b.stagingDir); err != nil {
		b.log.Warn("staging cleanup failed", "dir", b.stagingDir, "error", err)
		return
	}
	b.log.Debug("staging removed", "dir", b.stagingDir)
	b.stagingDir = ""
}
