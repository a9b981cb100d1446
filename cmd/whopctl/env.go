package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	apiclient "github.com/wheblabs/whopctl/pkg/api/client"
	"github.com/wheblabs/whopctl/pkg/config"
)

func commandEnv(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: whopctl env [list|set|rm|push]")
	}
	sub := args[0]
	switch sub {
	case "list":
		return envList(ctx, args[1:])
	case "set":
		return envSet(ctx, args[1:])
	case "rm":
		return envRemove(ctx, args[1:])
	case "push":
		return envPush(ctx, args[1:])
	default:
		return fmt.Errorf("unknown env command: %s", sub)
	}
}

func envList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("env list", flag.ExitOnError)
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
	vars, err := client.ListEnvVars(reqCtx, sess.Token, appID)
	if err != nil {
		return err
	}
	for _, v := range vars {
		fmt.Printf("%s=%s\n", v.Key, v.Value)
	}
	return nil
}

func envSet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("env set", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project directory holding the app link")
	fs.Parse(args)

	key, value, ok := strings.Cut(fs.Arg(0), "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return errors.New("usage: whopctl env set KEY=VALUE [app-id-or-name]")
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
	if err := client.SetEnvVar(reqCtx, sess.Token, appID, apiclient.EnvVar{Key: key, Value: value}); err != nil {
		return err
	}
	fmt.Printf("set %s\n", key)
	return nil
}

func envRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("env rm", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project directory holding the app link")
	fs.Parse(args)

	key := strings.TrimSpace(fs.Arg(0))
	if key == "" {
		return errors.New("usage: whopctl env rm KEY [app-id-or-name]")
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
	if err := client.DeleteEnvVar(reqCtx, sess.Token, appID, key); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", key)
	return nil
}

func envPush(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("env push", flag.ExitOnError)
	file := fs.String("file", ".env", "Env file to push")
	dir := fs.String("dir", ".", "Project directory holding the app link")
	fs.Parse(args)

	values, err := godotenv.Read(*file)
	if err != nil {
		return fmt.Errorf("read %s: %w", *file, err)
	}
	if len(values) == 0 {
		return fmt.Errorf("%s contains no variables", *file)
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
	appID, err := resolveAppID(ctx, client, cfg.RequestTimeout, sess.Token, fs.Arg(0), *dir)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		err := client.SetEnvVar(reqCtx, sess.Token, appID, apiclient.EnvVar{Key: k, Value: values[k]})
		cancel()
		if err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
		fmt.Printf("set %s\n", k)
	}
	fmt.Printf("pushed %d variables from %s\n", len(keys), *file)
	return nil
}
