package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/wheblabs/whopctl/pkg/config"
)

func commandDomains(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: whopctl domains [list|add|rm]")
	}
	sub := args[0]
	switch sub {
	case "list":
		return domainsList(ctx, args[1:])
	case "add":
		return domainsAdd(ctx, args[1:])
	case "rm":
		return domainsRemove(ctx, args[1:])
	default:
		return fmt.Errorf("unknown domains command: %s", sub)
	}
}

func domainsList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("domains list", flag.ExitOnError)
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
	domains, err := client.ListDomains(reqCtx, sess.Token, appID)
	if err != nil {
		return err
	}
	for _, d := range domains {
		verified := "-"
		if d.VerifiedAt != nil {
			verified = d.VerifiedAt.Format(time.RFC3339)
		}
		fmt.Printf("%s\t%s\t%s\n", d.Hostname, d.Status, verified)
	}
	return nil
}

func domainsAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("domains add", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project directory holding the app link")
	fs.Parse(args)

	hostname := strings.TrimSpace(fs.Arg(0))
	if hostname == "" {
		return errors.New("usage: whopctl domains add <hostname> [app-id-or-name]")
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
	appID, err := resolveAppID(ctx, client, cfg.RequestTimeout, sess.Token, fs.Arg(1), *dir)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	domain, err := client.AddDomain(reqCtx, sess.Token, appID, hostname)
	if err != nil {
		return err
	}
	fmt.Printf("added %s (status %s)\n", domain.Hostname, domain.Status)
	return nil
}

func domainsRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("domains rm", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project directory holding the app link")
	fs.Parse(args)

	hostname := strings.TrimSpace(fs.Arg(0))
	if hostname == "" {
		return errors.New("usage: whopctl domains rm <hostname> [app-id-or-name]")
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
	appID, err := resolveAppID(ctx, client, cfg.RequestTimeout, sess.Token, fs.Arg(1), *dir)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if err := client.RemoveDomain(reqCtx, sess.Token, appID, hostname); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", hostname)
	return nil
}
