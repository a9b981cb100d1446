package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wheblabs/whopctl/pkg/config"
	"github.com/wheblabs/whopctl/pkg/logger"

	"github.com/wheblabs/whopctl/internal/build"
	"github.com/wheblabs/whopctl/internal/deploy"
	"github.com/wheblabs/whopctl/internal/project"
)

func commandDeploy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project directory to build")
	buildCmd := fs.String("build", "", "Override the build command")
	output := fs.String("output", "", "Override the build output directory")
	fs.Parse(args)

	cfg := config.LoadCLIConfig()
	log := logger.New("whopctl", logger.ParseLevel(cfg.LogLevel))

	sess, err := requireSession()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, sess.APIBaseURL)
	if err != nil {
		return err
	}

	appID, err := resolveAppID(ctx, client, cfg.RequestTimeout, sess.Token, fs.Arg(0), *dir)
	if err != nil {
		return err
	}

	opts := build.Options{
		ProjectDir:  *dir,
		StagingRoot: cfg.Workdir,
		Timeout:     cfg.BuildTimeout,
	}
	if linked, err := project.Load(*dir); err == nil {
		opts.BuildCommand = linked.BuildCommand
		opts.OutputDir = linked.OutputDir
	}
	if strings.TrimSpace(*buildCmd) != "" {
		opts.BuildCommand = *buildCmd
	}
	if strings.TrimSpace(*output) != "" {
		opts.OutputDir = *output
	}

	builder, err := build.New(opts, log)
	if err != nil {
		return err
	}

	fmt.Printf("deploying %s\n", appID)
	orch := deploy.NewOrchestrator(client, builder, os.Stdout, log)
	return orch.Run(ctx, sess.Token, appID)
}

func commandDeployments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("deployments", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Maximum number of deployments")
	dir := fs.String("dir", ".", "Project directory holding the app link")
	fs.Parse(args)

	cfg := config.LoadCLIConfig()
	sess, err := requireSession()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, sess.APIBaseURL)
	if err != nil {
		return err
	}
	appID, err := resolveAppID(ctx, client, cfg.RequestTimeout, sess.Token, fs.Arg(0), *dir)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	deployments, err := client.ListDeployments(reqCtx, sess.Token, appID, *limit)
	if err != nil {
		return err
	}
	for _, dep := range deployments {
		stage := dep.RolloutStage
		if stage == "" {
			stage = "-"
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", dep.ID, dep.Status, stage, dep.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func commandLogs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	fs.Parse(args)

	raw := strings.TrimSpace(fs.Arg(0))
	if raw == "" {
		return errors.New("usage: whopctl logs <deployment-id>")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid deployment id %q", raw)
	}

	cfg := config.LoadCLIConfig()
	sess, err := requireSession()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, sess.APIBaseURL)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	logs, err := client.DeploymentLogs(reqCtx, sess.Token, id)
	if err != nil {
		return err
	}
	fmt.Print(logs)
	if logs != "" && !strings.HasSuffix(logs, "\n") {
		fmt.Println()
	}
	return nil
}
