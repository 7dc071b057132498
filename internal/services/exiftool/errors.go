package exiftool

import "errors"

var (
	// ErrStartup marks a worker binary that is missing or failed to launch.
	// Retrying without fixing the environment reproduces the failure, so no
	// automatic retry is attempted.
	ErrStartup = errors.New("worker startup failure")
	// ErrTimeout marks a round trip that exceeded its deadline. The worker is
	// destroyed; the next call against the same executable recreates it.
	ErrTimeout = errors.New("round trip timeout")
	// ErrProtocolDesync marks a worker that died mid-call or produced a
	// response stream that ended before the ready sentinel. Triggers exactly
	// one fallback attempt through the one-shot executor.
	ErrProtocolDesync = errors.New("protocol desync")
	// ErrParse marks a malformed or unexpected response shape. The malformed
	// output is deterministic for the same input, so no retry.
	ErrParse = errors.New("parse error")
	// ErrBatchMisuse marks programmer errors in session usage: double Begin,
	// End without Begin, or mixing reads and writes in one batch.
	ErrBatchMisuse = errors.New("batch misuse")
)
