package exiftool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"exifpipe/internal/services"
)

// commandContext is swapped in tests to observe one-shot invocations.
var commandContext = exec.CommandContext

// oneShotRunner executes one operation list without a persistent channel. It
// is the escape hatch for values the line protocol cannot carry and for
// retries after a persistent-path failure.
type oneShotRunner struct {
	binary  string
	timeout time.Duration
}

func (r *oneShotRunner) Execute(ctx context.Context, args []string) ([]string, error) {
	rewritten, cleanup, err := redirectMultiline(args)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := commandContext(runCtx, r.binary, "-charset", "utf8", "-@", "-")
	cmd.Stdin = strings.NewReader(strings.Join(rewritten, "\n") + "\n")
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: one-shot invocation exceeded %s", ErrTimeout, r.timeout)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %v", ErrStartup, r.binary, err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "exiftool", "one-shot",
			strings.TrimSpace(string(out)), err)
	}
	return splitLines(out), nil
}

// redirectMultiline rewrites any -name=value argument whose value embeds a
// line break into exiftool's file-redirection form -name<=tmpfile. The
// returned cleanup removes every temp file and is safe to call even when the
// rewrite failed partway.
func redirectMultiline(args []string) ([]string, func(), error) {
	var tempFiles []string
	cleanup := func() {
		for _, path := range tempFiles {
			_ = os.Remove(path)
		}
	}

	rewritten := make([]string, len(args))
	for i, arg := range args {
		name, value, ok := splitAssignment(arg)
		if !ok || !containsLineBreak(value) {
			rewritten[i] = arg
			continue
		}
		file, err := os.CreateTemp("", "exifpipe-*.tmp")
		if err != nil {
			return nil, cleanup, fmt.Errorf("create redirection file: %w", err)
		}
		tempFiles = append(tempFiles, file.Name())
		if _, err := file.WriteString(value); err != nil {
			_ = file.Close()
			return nil, cleanup, fmt.Errorf("write redirection file: %w", err)
		}
		if err := file.Close(); err != nil {
			return nil, cleanup, fmt.Errorf("close redirection file: %w", err)
		}
		rewritten[i] = name + "<=" + file.Name()
	}
	return rewritten, cleanup, nil
}

// splitAssignment splits a -name=value argument. Plain flags and bare paths
// pass through untouched.
func splitAssignment(arg string) (name, value string, ok bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", "", false
	}
	idx := strings.IndexByte(arg, '=')
	if idx <= 0 {
		return "", "", false
	}
	return arg[:idx], arg[idx+1:], true
}

func splitLines(out []byte) []string {
	trimmed := strings.TrimRight(string(out), "\n")
	if trimmed == "" {
		return nil
	}
	lines := strings.Split(trimmed, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
