package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wheblabs/whopctl/pkg/config"
	"github.com/wheblabs/whopctl/pkg/token"
	"golang.org/x/term"

	"github.com/wheblabs/whopctl/internal/session"
)

func commandLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	useToken := fs.Bool("token", false, "Authenticate with a personal API token instead of an email code")
	apiBase := fs.String("api", "", "API base URL (default https://api.whop.com)")
	fs.Parse(args)

	cfg := config.LoadCLIConfig()
	base := strings.TrimSpace(*apiBase)
	if base == "" {
		base = cfg.APIBaseURL
	}
	client, err := newClient(cfg, base)
	if err != nil {
		return err
	}
	store, err := session.NewStore()
	if err != nil {
		return err
	}

	if *useToken {
		var accessToken string
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Print("API token: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Print("\n")
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			accessToken = strings.TrimSpace(string(raw))
		} else {
			// Piped input reads a plain line so CI can feed the token.
			accessToken, err = promptLine("API token: ")
			if err != nil {
				return err
			}
		}
		if accessToken == "" {
			return errors.New("token is required")
		}
		reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		user, err := client.CurrentUser(reqCtx, accessToken)
		cancel()
		if err != nil {
			return err
		}
		sess := session.Session{APIBaseURL: base, Token: accessToken, Email: user.Email, UserID: user.ID}
		if err := store.Save(sess); err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", user.Email)
		return nil
	}

	addr := strings.TrimSpace(*email)
	if addr == "" {
		addr, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if addr == "" {
		return errors.New("--email is required")
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	challenge, err := client.RequestLoginCode(reqCtx, addr)
	cancel()
	if err != nil {
		return err
	}
	fmt.Printf("We emailed a login code to %s.\n", addr)

	code, err := promptLine("Code: ")
	if err != nil {
		return err
	}
	if code == "" {
		return errors.New("login code is required")
	}

	reqCtx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
	resp, err := client.VerifyLoginCode(reqCtx, addr, challenge.RequestID, code)
	cancel()
	if err != nil {
		return err
	}
	sess := session.Session{APIBaseURL: base, Token: resp.Token, Email: resp.User.Email, UserID: resp.User.ID}
	if err := store.Save(sess); err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", resp.User.Email)
	return nil
}

func promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func commandLogout(args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func commandWhoami(args []string) error {
	sess, err := requireSession()
	if err != nil {
		return err
	}
	email := sess.Email
	userID := sess.UserID
	var expires string
	if claims, err := token.Decode(sess.Token); err == nil {
		if email == "" {
			email = claims.Email
		}
		if userID == "" {
			userID = claims.UserID
		}
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time.Format(time.RFC3339)
		}
	}
	if email != "" {
		fmt.Printf("email:\t%s\n", email)
	}
	if userID != "" {
		fmt.Printf("user:\t%s\n", userID)
	}
	if sess.APIBaseURL != "" {
		fmt.Printf("api:\t%s\n", sess.APIBaseURL)
	}
	if expires != "" {
		fmt.Printf("expires:\t%s\n", expires)
	}
	return nil
}
