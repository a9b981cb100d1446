package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/wheblabs/whopctl/pkg/config"

	"github.com/wheblabs/whopctl/internal/project"
)

func commandApps(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: whopctl apps [list|link]")
	}
	sub := args[0]
	switch sub {
	case "list":
		return appsList(ctx, args[1:])
	case "link":
		return appsLink(ctx, args[1:])
	default:
		return fmt.Errorf("unknown apps command: %s", sub)
	}
}

func appsList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apps list", flag.ExitOnError)
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

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	apps, err := client.ListApps(reqCtx, sess.Token)
	if err != nil {
		return err
	}
	for _, app := range apps {
		fmt.Printf("%s\t%s\t%s\t%s\n", app.ID, app.Name, app.Slug, app.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func appsLink(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apps link", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project directory to link")
	fs.Parse(args)

	name := strings.TrimSpace(fs.Arg(0))
	if name == "" {
		return errors.New("usage: whopctl apps link <app-id-or-name>")
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
	app, err := client.ResolveApp(reqCtx, sess.Token, name)
	if err != nil {
		return err
	}

	linked := project.Config{AppID: app.ID, Name: app.Name}
	if existing, err := project.Load(*dir); err == nil {
		linked.BuildCommand = existing.BuildCommand
		linked.OutputDir = existing.OutputDir
	}
	if err := project.Save(*dir, linked); err != nil {
		return err
	}
	fmt.Printf("linked %s to %s (%s)\n", *dir, app.Name, app.ID)
	return nil
}
