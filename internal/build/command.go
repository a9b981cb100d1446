package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// runCommand executes a shell-like command line in dir, returning the
// combined output. The command is tokenized locally, no shell is spawned.
func runCommand(ctx context.Context, command, dir string, log *slog.Logger) (string, error) {
	args, err := parseCommand(command)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", nil
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	output, err := cmd.CombinedOutput()
	if len(output) > 0 && log != nil {
		log.Debug("command output", "command", command, "output", string(output))
	}
	if err != nil {
		return string(output), fmt.Errorf("command %s failed: %w", command, err)
	}
	return string(output), nil
}

func parseCommand(command string) ([]string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, nil
	}
	var (
		tokens   []string
		current  strings.Builder
		inSingle bool
		inDouble bool
		escape   bool
	)

	for _, r := range command {
		switch {
		case escape:
			current.WriteRune(r)
			escape = false
		case r == '\\':
			escape = true
		case r == '\'':
			if !inDouble {
				inSingle = !inSingle
				continue
			}
			current.WriteRune(r)
		case r == '"':
			if !inSingle {
				inDouble = !inDouble
				continue
			}
			current.WriteRune(r)
		case (r == ' ' || r == '\t' || r == '\n' || r == '\r') && !inSingle && !inDouble:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if escape || inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quoted string in command: %s", command)
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens, nil
}

// truncateOutput bounds captured toolchain output so a noisy build cannot
// flood an error message.
func truncateOutput(s string) string {
	s = strings.TrimSpace(s)
	const limit = 4096
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..." + fmt.Sprintf(" (%d bytes truncated)", len(s)-limit)
}
