package exiftool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"exifpipe/internal/logging"
)

const shutdownGrace = 2 * time.Second

// Supervisor guarantees a usable, exclusive channel to each named worker
// process. It is an owned service with an explicit lifetime: construct one
// per application, call Close at shutdown. Tests construct isolated
// instances.
type Supervisor struct {
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	slots  map[string]*workerSlot
	closed bool
}

// workerSlot serializes all requests against one executable name. The slot
// mutex totally orders round trips; the registry mutex only guards slot
// creation.
type workerSlot struct {
	mu     sync.Mutex
	proc   *worker
	spawns int64
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithSupervisorLogger sets the logger used for lifecycle events.
func WithSupervisorLogger(logger *slog.Logger) SupervisorOption {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRoundTripTimeout bounds each request/response cycle. Zero disables the
// deadline.
func WithRoundTripTimeout(timeout time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.timeout = timeout
	}
}

// NewSupervisor constructs an empty worker registry.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		logger: logging.NewNop(),
		slots:  make(map[string]*workerSlot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute performs one round trip against the named executable, lazily
// starting or restarting its worker. Concurrent callers on the same
// executable serialize; distinct executables proceed independently.
func (s *Supervisor) Execute(ctx context.Context, binary string, args []string) ([]string, error) {
	slot, err := s.slot(binary)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, binary, slot, args)
}

func (s *Supervisor) execute(ctx context.Context, binary string, slot *workerSlot, args []string) ([]string, error) {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.proc == nil || slot.proc.exited() {
		// Re-check under the slot mutex: a caller that resolved its slot
		// before Close drained the registry must not start a fresh worker
		// after shutdown.
		if s.isClosed() {
			return nil, fmt.Errorf("%w: supervisor is closed", ErrStartup)
		}
		proc, err := startWorker(binary)
		if err != nil {
			return nil, err
		}
		slot.proc = proc
		slot.spawns++
		s.logger.Debug("worker started",
			logging.String(logging.FieldComponent, "exiftool"),
			logging.String(logging.FieldWorker, binary),
			logging.Int64("spawn", slot.spawns))
	}

	lines, err := slot.proc.roundTrip(ctx, args, s.timeout)
	if err != nil {
		// Conservative: any round-trip failure poisons the channel. The next
		// call recreates the worker.
		slot.proc.kill()
		slot.proc = nil
		s.logger.Debug("worker destroyed after failed round trip",
			logging.String(logging.FieldComponent, "exiftool"),
			logging.String(logging.FieldWorker, binary),
			logging.Error(err))
		return nil, err
	}
	return lines, nil
}

func (s *Supervisor) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// slot returns the per-name entry, creating it under the registry lock. The
// double-checked creation here is race-free independent of the slot mutex it
// creates: insertion always happens under s.mu.
func (s *Supervisor) slot(binary string) (*workerSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: supervisor is closed", ErrStartup)
	}
	slot, ok := s.slots[binary]
	if !ok {
		slot = &workerSlot{}
		s.slots[binary] = slot
	}
	return slot, nil
}

// Spawns reports how many worker processes have been started for the named
// executable. Test hook for process-reuse assertions.
func (s *Supervisor) Spawns(binary string) int64 {
	s.mu.Lock()
	slot, ok := s.slots[binary]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.spawns
}

// Close drains the registry: each live worker is asked to leave persistent
// mode and force-killed if it does not exit within the grace period. Further
// Execute calls fail.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	slots := make(map[string]*workerSlot, len(s.slots))
	for name, slot := range s.slots {
		slots[name] = slot
	}
	s.mu.Unlock()

	for name, slot := range slots {
		slot.mu.Lock()
		if slot.proc != nil {
			slot.proc.shutdown(shutdownGrace)
			slot.proc = nil
			s.logger.Debug("worker stopped",
				logging.String(logging.FieldComponent, "exiftool"),
				logging.String(logging.FieldWorker, name))
		}
		slot.mu.Unlock()
	}
}
