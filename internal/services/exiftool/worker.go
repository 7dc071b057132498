package exiftool

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	executeCommand  = "-execute"
	readySentinel   = "{ready}"
	stayOpenCommand = "-stay_open"
)

// startCommand is swapped in tests to observe worker launches.
var startCommand = exec.Command

// worker owns one persistent exiftool process: its stdin writer, the merged
// stdout/stderr line stream, and the exit observer.
type worker struct {
	binary string
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	closer io.Closer
	lines  chan string
	done   chan struct{}

	killOnce sync.Once
}

// startWorker launches the binary in persistent mode. The charset flag must
// precede the argfile flag: exiftool decodes the argument stream itself in
// that charset.
func startWorker(binary string) (*worker, error) {
	cmd := startCommand(binary, stayOpenCommand, "True", "-charset", "utf8", "-@", "-")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %w", ErrStartup, err)
	}
	// Merge stdout and stderr into one stream so diagnostics emitted before
	// the ready sentinel are visible to the round-trip reader.
	pr, pw, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("%w: output pipe: %w", ErrStartup, err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("%w: launch %s: %w", ErrStartup, binary, err)
	}
	_ = pw.Close() // child holds the write end now

	w := &worker{
		binary: binary,
		cmd:    cmd,
		stdin:  bufio.NewWriter(stdin),
		closer: stdin,
		lines:  make(chan string, 64),
		done:   make(chan struct{}),
	}
	go w.readLines(pr)
	go func() {
		_ = cmd.Wait()
		close(w.done)
	}()
	return w, nil
}

func (w *worker) readLines(r io.ReadCloser) {
	defer close(w.lines)
	defer r.Close()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		w.lines <- scanner.Text()
	}
}

// roundTrip writes each argument as its own line followed by the execute
// sentinel, then collects response lines until the ready sentinel. The read
// is deadline-aware: expiry kills the worker rather than racing a background
// timer against a completed response.
func (w *worker) roundTrip(ctx context.Context, args []string, timeout time.Duration) ([]string, error) {
	for _, arg := range args {
		w.stdin.WriteString(arg)
		w.stdin.WriteByte('\n')
	}
	w.stdin.WriteString(executeCommand + "\n")
	if err := w.stdin.Flush(); err != nil {
		return nil, fmt.Errorf("%w: write request: %v", ErrProtocolDesync, err)
	}

	var expiry <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expiry = timer.C
	}

	var body []string
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return nil, fmt.Errorf("%w: output stream ended before ready sentinel", ErrProtocolDesync)
			}
			if line == readySentinel {
				return body, nil
			}
			body = append(body, line)
		case <-expiry:
			w.kill()
			return nil, fmt.Errorf("%w: no response within %s", ErrTimeout, timeout)
		case <-ctx.Done():
			w.kill()
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
	}
}

func (w *worker) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// kill destroys the whole process group so exiftool subprocesses do not
// linger after a forced teardown.
func (w *worker) kill() {
	w.killOnce.Do(func() {
		if w.cmd.Process != nil {
			_ = unix.Kill(-w.cmd.Process.Pid, unix.SIGKILL)
		}
		_ = w.closer.Close()
	})
}

// shutdown asks the worker to leave persistent mode and waits up to grace
// for a clean exit before force-killing.
func (w *worker) shutdown(grace time.Duration) {
	w.stdin.WriteString(stayOpenCommand + "\nFalse\n")
	_ = w.stdin.Flush()
	_ = w.closer.Close()

	select {
	case <-w.done:
	case <-time.After(grace):
		w.kill()
		<-w.done
	}
}
