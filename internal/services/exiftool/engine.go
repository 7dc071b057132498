package exiftool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"exifpipe/internal/journal"
	"exifpipe/internal/logging"
	"exifpipe/internal/services"
)

// Transport executes one operation list and returns the raw response lines.
type Transport interface {
	Execute(ctx context.Context, args []string) ([]string, error)
}

// Recorder persists round-trip journal entries.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Engine is the public face of the metadata I/O layer. It routes operations
// through the persistent worker, reroutes unsafe values and desync retries
// through the one-shot path, and hands out batching sessions.
type Engine struct {
	binary     string
	logger     *slog.Logger
	persistent Transport
	fallback   Transport
	sup        *Supervisor
	recorder   Recorder
	lockDir    string

	roundTripTimeout time.Duration
	oneShotTimeout   time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTimeouts bounds persistent round trips and one-shot invocations.
func WithTimeouts(roundTrip, oneShot time.Duration) Option {
	return func(e *Engine) {
		e.roundTripTimeout = roundTrip
		e.oneShotTimeout = oneShot
	}
}

// WithRecorder enables round-trip journaling.
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// WithWriteLockDir enables per-target advisory locks for write round trips,
// stored under dir. Empty disables locking.
func WithWriteLockDir(dir string) Option {
	return func(e *Engine) {
		e.lockDir = dir
	}
}

// WithTransports injects custom transports (primarily for tests).
func WithTransports(persistent, fallback Transport) Option {
	return func(e *Engine) {
		if persistent != nil {
			e.persistent = persistent
		}
		if fallback != nil {
			e.fallback = fallback
		}
	}
}

// New constructs an engine bound to one worker executable.
func New(binary string, opts ...Option) (*Engine, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	e := &Engine{
		binary:           binary,
		logger:           logging.NewNop(),
		roundTripTimeout: 30 * time.Second,
		oneShotTimeout:   10 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.persistent == nil {
		e.sup = NewSupervisor(
			WithSupervisorLogger(e.logger),
			WithRoundTripTimeout(e.roundTripTimeout),
		)
		e.persistent = &persistentTransport{sup: e.sup, binary: binary}
	}
	if e.fallback == nil {
		e.fallback = &oneShotRunner{binary: binary, timeout: e.oneShotTimeout}
	}
	return e, nil
}

// Supervisor exposes the owned worker registry, nil when a custom persistent
// transport was injected.
func (e *Engine) Supervisor() *Supervisor { return e.sup }

// Close shuts down any owned workers.
func (e *Engine) Close() {
	if e.sup != nil {
		e.sup.Close()
	}
}

// NewSession returns a batching session bound to one target file.
func (e *Engine) NewSession(path string) *Session {
	return &Session{engine: e, path: path}
}

// Read performs one read round trip for the given tag names and returns the
// decoded response map.
func (e *Engine) Read(ctx context.Context, path string, tags []string) (map[string]any, error) {
	args := buildReadArgs(tags, path)
	lines, err := e.execute(ctx, path, "read", args, len(tags))
	if err != nil {
		return nil, err
	}
	return decodeReadResponse(lines)
}

// Write performs one write round trip for the given operations. Duplicate
// operation names coalesce into repeated wire arguments in buffering order.
func (e *Engine) Write(ctx context.Context, path string, ops []WriteOp) error {
	args := buildWriteArgs(mergeWriteOps(ops), path)

	if e.lockDir != "" {
		unlock, err := e.lockTarget(ctx, path)
		if err != nil {
			return err
		}
		defer unlock()
	}

	lines, err := e.execute(ctx, path, "write", args, len(ops))
	if err != nil {
		return err
	}
	if err := checkWriteResponse(lines); err != nil {
		return services.Wrap(services.ErrExternalTool, "exiftool", "write", path, err)
	}
	return nil
}

// execute routes one round trip. Values the line protocol cannot carry go
// straight to the one-shot path; a protocol desync on the persistent path is
// retried exactly once through the one-shot path. Timeouts, startup and
// parse failures surface without retry.
func (e *Engine) execute(ctx context.Context, path, mode string, args []string, opCount int) ([]string, error) {
	requestID := uuid.NewString()
	ctx = services.WithTarget(ctx, path)
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, e.logger).With(
		logging.Args(logging.String(logging.FieldComponent, "exiftool"))...)

	transport := "persistent"
	started := time.Now()
	var lines []string
	var err error

	switch {
	case hasUnsafeValue(args):
		transport = "one-shot"
		logger.Debug("routing through one-shot path", logging.String("reason", "multiline value"))
		lines, err = e.fallback.Execute(ctx, args)
	default:
		lines, err = e.persistent.Execute(ctx, args)
		if errors.Is(err, ErrProtocolDesync) {
			// The full operation is re-sent; a write the dying worker had
			// already applied may be duplicated. Accepted trade-off over
			// losing the operation.
			transport = "one-shot"
			logger.Warn("persistent path desynced, retrying via one-shot", logging.Error(err))
			lines, err = e.fallback.Execute(ctx, args)
		}
	}

	duration := time.Since(started)
	e.record(ctx, journal.Entry{
		ID:         requestID,
		Target:     path,
		Mode:       mode,
		Transport:  transport,
		Operations: opCount,
		Duration:   duration,
		Error:      errString(err),
	})

	if err != nil {
		logger.Debug("round trip failed",
			logging.String("mode", mode),
			logging.String("transport", transport),
			logging.Duration("duration", duration),
			logging.Error(err))
		return nil, err
	}
	logger.Debug("round trip complete",
		logging.String("mode", mode),
		logging.String("transport", transport),
		logging.Int("operations", opCount),
		logging.Duration("duration", duration))
	return lines, nil
}

func (e *Engine) record(ctx context.Context, entry journal.Entry) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, entry); err != nil {
		e.logger.Warn("journal record failed",
			logging.String(logging.FieldComponent, "exiftool"),
			logging.Error(err))
	}
}

// lockTarget takes a per-target advisory lock so concurrent engine processes
// serialize writes to the same file.
func (e *Engine) lockTarget(ctx context.Context, path string) (func(), error) {
	if err := os.MkdirAll(e.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	digest := sha256.Sum256([]byte(path))
	lockPath := filepath.Join(e.lockDir, hex.EncodeToString(digest[:8])+".lock")
	lock := flock.New(lockPath)
	if _, err := lock.TryLockContext(ctx, 100*time.Millisecond); err != nil {
		return nil, fmt.Errorf("acquire write lock for %s: %w", path, err)
	}
	return func() { _ = lock.Unlock() }, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// persistentTransport binds a Supervisor to one executable name.
type persistentTransport struct {
	sup    *Supervisor
	binary string
}

func (t *persistentTransport) Execute(ctx context.Context, args []string) ([]string, error) {
	return t.sup.Execute(ctx, t.binary, args)
}
