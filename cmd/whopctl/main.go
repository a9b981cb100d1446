package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	apiclient "github.com/wheblabs/whopctl/pkg/api/client"
	"github.com/wheblabs/whopctl/pkg/config"
	"github.com/wheblabs/whopctl/pkg/token"

	"github.com/wheblabs/whopctl/internal/project"
	"github.com/wheblabs/whopctl/internal/session"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	// Interrupts cancel in-flight work through the context so deferred
	// cleanup still runs before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "login":
		err = commandLogin(ctx, args)
	case "logout":
		err = commandLogout(args)
	case "whoami":
		err = commandWhoami(args)
	case "apps":
		err = commandApps(ctx, args)
	case "deploy":
		err = commandDeploy(ctx, args)
	case "deployments":
		err = commandDeployments(ctx, args)
	case "logs":
		err = commandLogs(ctx, args)
	case "env":
		err = commandEnv(ctx, args)
	case "domains":
		err = commandDomains(ctx, args)
	case "billing":
		err = commandBilling(ctx, args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// requireSession loads the stored login state. An expired credential only
// warns; the server is the authority on rejecting it.
func requireSession() (session.Session, error) {
	store, err := session.NewStore()
	if err != nil {
		return session.Session{}, err
	}
	sess, err := store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			return session.Session{}, errors.New("please login first using 'whopctl login'")
		}
		return session.Session{}, err
	}
	if claims, err := token.Decode(sess.Token); err == nil && claims.Expired(time.Now()) {
		fmt.Fprintln(os.Stderr, "warning: stored credentials have expired, run 'whopctl login'")
	}
	return sess, nil
}

// newClient builds an API client, preferring the base URL recorded at
// login time over the environment default.
func newClient(cfg config.CLIConfig, base string) (*apiclient.Client, error) {
	if strings.TrimSpace(base) == "" {
		base = cfg.APIBaseURL
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	if cfg.Insecure {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return apiclient.New(base, apiclient.WithHTTPClient(httpClient))
}

// resolveAppID accepts an app id, an app name to resolve remotely, or an
// empty argument to fall back to the whop.json link in dir.
func resolveAppID(ctx context.Context, c *apiclient.Client, timeout time.Duration, accessToken, arg, dir string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		cfg, err := project.Load(dir)
		if err != nil {
			if errors.Is(err, project.ErrNotLinked) {
				return "", errors.New("no app specified: pass an app id or run 'whopctl apps link' first")
			}
			return "", err
		}
		return cfg.AppID, nil
	}
	if strings.HasPrefix(arg, "app_") {
		return arg, nil
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	app, err := c.ResolveApp(reqCtx, accessToken, arg)
	if err != nil {
		return "", err
	}
	return app.ID, nil
}

func printUsage() {
	fmt.Printf("whopctl %s\n\n", buildVersion)
	fmt.Print(`Usage:
	whopctl login [--email user@example.com] [--token] [--api https://api.whop.com]
	whopctl logout
	whopctl whoami
	whopctl apps list
	whopctl apps link <app-id-or-name> [--dir path]
	whopctl deploy [app-id-or-name] [--dir path]
	whopctl deployments [app-id-or-name] [--limit N]
	whopctl logs <deployment-id>
	whopctl env list [app-id-or-name]
	whopctl env set KEY=VALUE [app-id-or-name]
	whopctl env rm KEY [app-id-or-name]
	whopctl env push [app-id-or-name] [--file .env]
	whopctl domains list|add|rm [...]
	whopctl billing
	whopctl version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
