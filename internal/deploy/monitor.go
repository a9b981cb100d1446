package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/wheblabs/whopctl/pkg/api/client"
)

// pollInterval is the fixed wait between polls. One suspension per cycle
// bounds request rate; monitoring is deliberately not adaptive.
const pollInterval = 5 * time.Second

// statusAPI is the slice of the platform client the monitor depends on.
type statusAPI interface {
	DeploymentStatus(ctx context.Context, token string, deploymentID int64) (client.DeploymentStatusResponse, error)
	DeploymentLogs(ctx context.Context, token string, deploymentID int64) (string, error)
}

// Monitor polls a deployment until it reaches a terminal state, printing
// progress lines and newly appended log output to out as it goes.
type Monitor struct {
	api      statusAPI
	out      io.Writer
	log      *slog.Logger
	interval time.Duration

	wait func(ctx context.Context, d time.Duration) error
}

// NewMonitor constructs a Monitor writing operator output to out.
func NewMonitor(api statusAPI, out io.Writer, log *slog.Logger) *Monitor {
	return &Monitor{
		api:      api,
		out:      out,
		log:      log,
		interval: pollInterval,
		wait:     waitInterval,
	}
}

// Run polls status and logs until the deployment reaches a terminal state.
// It returns nil once the deployment is active and ErrDeploymentFailed when
// it fails. Transient status or log errors never end the loop; only a
// terminal status or a cancelled context does.
func (m *Monitor) Run(ctx context.Context, token string, deploymentID int64) error {
	status := StatusBuilding
	lastLogLength := 0
	failureMessage := ""

	for !status.Terminal() {
		if err := m.wait(ctx, m.interval); err != nil {
			return fmt.Errorf("monitoring interrupted: %w", err)
		}

		resp, err := m.api.DeploymentStatus(ctx, token, deploymentID)
		if err != nil {
			fmt.Fprintf(m.out, "warning: status check failed: %v\n", err)
			m.log.Warn("status poll failed", "deployment_id", deploymentID, "error", err)
		} else {
			status = Status(resp.Deployment.Status)
			failureMessage = resp.Deployment.Error
			m.printProgress(status, RolloutStage(resp.Deployment.RolloutStage))
		}

		// Log fetches are independent of the status call and best-effort;
		// the endpoint is often unavailable in early phases.
		logs, err := m.api.DeploymentLogs(ctx, token, deploymentID)
		if err != nil {
			m.log.Debug("log fetch failed", "deployment_id", deploymentID, "error", err)
		} else {
			lastLogLength = m.flushLogs(logs, lastLogLength)
		}
	}

	if status == StatusActive {
		// One extra status read for the launch URL; missing it never
		// demotes a successful deployment.
		resp, err := m.api.DeploymentStatus(ctx, token, deploymentID)
		if err != nil {
			m.log.Warn("final status fetch failed", "deployment_id", deploymentID, "error", err)
		} else if resp.URL != "" {
			fmt.Fprintf(m.out, "deployment live at %s\n", resp.URL)
		}
		return nil
	}

	// Flush whatever the server logged after the last successful fetch so
	// the failure diagnostics end up on the operator's console.
	if logs, err := m.api.DeploymentLogs(ctx, token, deploymentID); err == nil {
		m.flushLogs(logs, lastLogLength)
	}
	if failureMessage != "" {
		return fmt.Errorf("%w: %s", ErrDeploymentFailed, failureMessage)
	}
	return ErrDeploymentFailed
}

func (m *Monitor) printProgress(status Status, stage RolloutStage) {
	if stage != "" {
		fmt.Fprintf(m.out, "status: %s (%s)\n", status, stage.Label())
		return
	}
	fmt.Fprintf(m.out, "status: %s\n", status)
}

// flushLogs prints the suffix of logs beyond offset and returns the new
// offset. The cursor never moves backwards, so a shorter fetch prints
// nothing and keeps the previous offset.
func (m *Monitor) flushLogs(logs string, offset int) int {
	if len(logs) <= offset {
		return offset
	}
	fmt.Fprint(m.out, logs[offset:])
	return len(logs)
}

func waitInterval(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
