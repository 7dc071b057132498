package exiftool

import (
	"context"
	"fmt"
)

type batchMode int

const (
	modeUnset batchMode = iota
	modeRead
	modeWrite
)

func (m batchMode) String() string {
	switch m {
	case modeRead:
		return "read"
	case modeWrite:
		return "write"
	default:
		return "unset"
	}
}

// Session accumulates tag operations against one target file and flushes
// them as a single round trip. Outside a batch, Read and Write execute
// immediately. A Session owns no OS resources and is not safe for concurrent
// use; create one per logical unit of work.
type Session struct {
	engine *Engine
	path   string

	active bool
	mode   batchMode
	buffer []Tag
}

// Path returns the file this session is bound to.
func (s *Session) Path() string { return s.path }

// Begin enters batch mode. Subsequent Read/Write calls are buffered until
// End. Mixing reads and writes in one batch is rejected.
func (s *Session) Begin() error {
	if s.active {
		return fmt.Errorf("%w: batch already active, call End first", ErrBatchMisuse)
	}
	s.active = true
	s.mode = modeUnset
	s.buffer = s.buffer[:0]
	return nil
}

// Read reads a tag value. Immediate mode returns the parsed value; batch
// mode buffers the tag and returns nil until End.
func (s *Session) Read(ctx context.Context, tag Tag) (any, error) {
	if s.active {
		if err := s.lockMode(modeRead); err != nil {
			return nil, err
		}
		s.buffer = append(s.buffer, tag)
		return nil, nil
	}

	raw, err := s.engine.Read(ctx, s.path, tag.ReadOperations())
	if err != nil {
		return nil, err
	}
	return tag.Parse(raw)
}

// Write writes a tag value. Immediate mode flushes now; batch mode buffers
// the tag until End.
func (s *Session) Write(ctx context.Context, tag Tag) error {
	if s.active {
		if err := s.lockMode(modeWrite); err != nil {
			return err
		}
		s.buffer = append(s.buffer, tag)
		return nil
	}
	return s.engine.Write(ctx, s.path, tag.WriteOperations())
}

// End flushes the batch and leaves batch mode. Read batches return a map
// from each tag's result key to its parsed value; write batches return nil.
// The session resets even on failure so it can be reused for another
// attempt; a round-trip failure aborts the whole batch.
func (s *Session) End(ctx context.Context) (map[string]any, error) {
	if !s.active {
		return nil, fmt.Errorf("%w: End without Begin", ErrBatchMisuse)
	}
	mode := s.mode
	buffered := make([]Tag, len(s.buffer))
	copy(buffered, s.buffer)

	s.active = false
	s.mode = modeUnset
	s.buffer = s.buffer[:0]

	switch mode {
	case modeRead:
		return s.flushRead(ctx, buffered)
	case modeWrite:
		return nil, s.flushWrite(ctx, buffered)
	default:
		return nil, nil
	}
}

func (s *Session) lockMode(mode batchMode) error {
	if s.mode == modeUnset {
		s.mode = mode
		return nil
	}
	if s.mode != mode {
		return fmt.Errorf("%w: batch is %s, attempted %s", ErrBatchMisuse, s.mode, mode)
	}
	return nil
}

func (s *Session) flushRead(ctx context.Context, tags []Tag) (map[string]any, error) {
	// Union of all requested names, de-duplicated in first-seen order.
	var names []string
	seen := make(map[string]struct{})
	for _, tag := range tags {
		for _, name := range tag.ReadOperations() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	raw, err := s.engine.Read(ctx, s.path, names)
	if err != nil {
		return nil, err
	}

	result := make(map[string]any, len(tags))
	for _, tag := range tags {
		value, err := tag.Parse(raw)
		if err != nil {
			return nil, err
		}
		result[tag.ResultKey()] = value
	}
	return result, nil
}

func (s *Session) flushWrite(ctx context.Context, tags []Tag) error {
	var ops []WriteOp
	for _, tag := range tags {
		ops = append(ops, tag.WriteOperations()...)
	}
	return s.engine.Write(ctx, s.path, ops)
}
