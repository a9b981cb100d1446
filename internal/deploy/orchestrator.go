package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/wheblabs/whopctl/internal/build"
	"github.com/wheblabs/whopctl/pkg/api/client"
)

var (
	// ErrBuildFailed reports a local toolchain failure.
	ErrBuildFailed = errors.New("deploy: build failed")
	// ErrCreateFailed reports a failed deployment registration.
	ErrCreateFailed = errors.New("deploy: create deployment failed")
	// ErrUploadFailed reports a failed artifact upload.
	ErrUploadFailed = errors.New("deploy: artifact upload failed")
	// ErrTriggerFailed reports a failed rollout start.
	ErrTriggerFailed = errors.New("deploy: trigger deployment failed")
	// ErrDeploymentFailed reports a deployment that reached the terminal
	// failed status while being monitored.
	ErrDeploymentFailed = errors.New("deploy: deployment failed")
)

// deploymentAPI is the slice of the platform client the pipeline depends on.
type deploymentAPI interface {
	statusAPI
	CreateDeployment(ctx context.Context, token, appID string, input client.CreateDeploymentInput) (client.CreateDeploymentResponse, error)
	UploadArtifact(ctx context.Context, uploadURL, artifactPath string) error
	TriggerDeployment(ctx context.Context, token string, deploymentID int64) error
}

// artifactBuilder produces the uploadable bundle and owns its staging space.
type artifactBuilder interface {
	Build(ctx context.Context) (build.Artifact, error)
	Cleanup()
}

// Orchestrator runs the deployment pipeline for one app: build the bundle,
// register the deployment, upload, trigger the rollout, then monitor it to
// a terminal outcome.
type Orchestrator struct {
	api     deploymentAPI
	builder artifactBuilder
	monitor *Monitor
	out     io.Writer
	log     *slog.Logger
}

// NewOrchestrator wires the pipeline's collaborators. Operator-facing
// progress goes to out; diagnostics go to log.
func NewOrchestrator(api deploymentAPI, builder artifactBuilder, out io.Writer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		api:     api,
		builder: builder,
		monitor: NewMonitor(api, out, log),
		out:     out,
		log:     log,
	}
}

// Run executes the pipeline for the app. Every stage's success is a
// precondition for the next, and the builder's staging space is released
// exactly once on every exit path, including early aborts.
func (o *Orchestrator) Run(ctx context.Context, token, appID string) error {
	defer o.builder.Cleanup()

	artifact, err := o.builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	fmt.Fprintf(o.out, "build finished in %dms\n", artifact.Metadata.BuildTimeMs)

	created, err := o.api.CreateDeployment(ctx, token, appID, client.CreateDeploymentInput{
		Metadata: &artifact.Metadata,
		Checksum: artifact.Checksum,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	dep := created.Deployment
	o.log.Info("deployment created", "deployment_id", dep.ID, "uuid", dep.UUID, "app_id", appID)
	fmt.Fprintf(o.out, "created deployment %d (%s)\n", dep.ID, dep.UUID)

	if err := o.api.UploadArtifact(ctx, created.UploadURL, artifact.Path); err != nil {
		// The created record stays behind server-side; the platform owns
		// reconciling deployments that never received an artifact.
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	fmt.Fprintln(o.out, "artifact uploaded")

	if err := o.api.TriggerDeployment(ctx, token, dep.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrTriggerFailed, err)
	}
	fmt.Fprintln(o.out, "rollout started")

	return o.monitor.Run(ctx, token, dep.ID)
}
