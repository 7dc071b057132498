package exiftool

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionImmediateRead(t *testing.T) {
	persistent := &fakeTransport{respond: func(args []string) ([]string, error) {
		return []string{`[{"XMP-dc:Title":"A Title"}]`}, nil
	}}
	engine := newTestEngine(t, persistent, &fakeTransport{})
	session := engine.NewSession("a.jpg")

	value, err := session.Read(context.Background(), KeyValueTag{Name: TagDCTitle})
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if value != "A Title" {
		t.Errorf("Read = %v, want A Title", value)
	}
}

func TestSessionBatchedReadIsOneRoundTrip(t *testing.T) {
	persistent := &fakeTransport{respond: func(args []string) ([]string, error) {
		return []string{`[{"XMP-dc:Title":"A Title","XMP-dc:Creator":"An Author"}]`}, nil
	}}
	engine := newTestEngine(t, persistent, &fakeTransport{})
	session := engine.NewSession("a.jpg")

	if err := session.Begin(); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	for _, tag := range []Tag{KeyValueTag{Name: TagDCTitle}, KeyValueTag{Name: TagDCCreator}} {
		value, err := session.Read(context.Background(), tag)
		if err != nil {
			t.Fatalf("buffered Read returned error: %v", err)
		}
		if value != nil {
			t.Errorf("buffered Read returned value %v before End", value)
		}
	}

	result, err := session.End(context.Background())
	if err != nil {
		t.Fatalf("End returned error: %v", err)
	}
	if len(persistent.calls) != 1 {
		t.Fatalf("expected 1 round trip, got %d", len(persistent.calls))
	}
	if result[TagDCTitle] != "A Title" || result[TagDCCreator] != "An Author" {
		t.Errorf("unexpected batch result %v", result)
	}

	want := []string{"-j", "-G1", "-" + TagDCTitle, "-" + TagDCCreator, "a.jpg"}
	if got := persistent.calls[0]; !equalStrings(got, want) {
		t.Errorf("round trip args = %v, want %v", got, want)
	}
}

func TestSessionBatchedWritesCoalesceHistoryAppends(t *testing.T) {
	persistent := &fakeTransport{respond: func(args []string) ([]string, error) {
		return []string{"    1 image files updated"}, nil
	}}
	engine := newTestEngine(t, persistent, &fakeTransport{})
	session := engine.NewSession("a.jpg")

	when := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	if err := session.Begin(); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	tags := []Tag{
		HistoryTag{Action: ActionSaved, When: when, SoftwareAgent: "archiver"},
		KeyValueTag{Name: TagDCTitle, Value: "A Title"},
		HistoryTag{Action: ActionEdited, When: when.Add(time.Minute), SoftwareAgent: "archiver"},
	}
	for _, tag := range tags {
		if err := session.Write(context.Background(), tag); err != nil {
			t.Fatalf("buffered Write returned error: %v", err)
		}
	}
	if _, err := session.End(context.Background()); err != nil {
		t.Fatalf("End returned error: %v", err)
	}

	if len(persistent.calls) != 1 {
		t.Fatalf("expected 1 round trip, got %d", len(persistent.calls))
	}
	args := persistent.calls[0]
	if got := containsPrefix(args, "-"+TagHistory+"+="); got != 2 {
		t.Errorf("expected 2 repeated history appends, got %d in %v", got, args)
	}
	if got := containsPrefix(args, "-"+TagDCTitle+"="); got != 1 {
		t.Errorf("expected 1 title assignment, got %d in %v", got, args)
	}
}

func TestSessionRejectsMixedBatch(t *testing.T) {
	persistent := &fakeTransport{respond: func(args []string) ([]string, error) {
		return []string{`[{"XMP-dc:Title":"A Title"}]`}, nil
	}}
	engine := newTestEngine(t, persistent, &fakeTransport{})
	session := engine.NewSession("a.jpg")

	if err := session.Begin(); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if _, err := session.Read(context.Background(), KeyValueTag{Name: TagDCTitle}); err != nil {
		t.Fatalf("buffered Read returned error: %v", err)
	}
	err := session.Write(context.Background(), KeyValueTag{Name: TagDCTitle, Value: "T"})
	if !errors.Is(err, ErrBatchMisuse) {
		t.Fatalf("expected ErrBatchMisuse, got %v", err)
	}

	// The read batch is still intact and flushable.
	result, err := session.End(context.Background())
	if err != nil {
		t.Fatalf("End returned error: %v", err)
	}
	if result[TagDCTitle] != "A Title" {
		t.Errorf("unexpected batch result %v", result)
	}
}

func TestSessionBatchLifecycleErrors(t *testing.T) {
	engine := newTestEngine(t, &fakeTransport{}, &fakeTransport{})
	session := engine.NewSession("a.jpg")

	if _, err := session.End(context.Background()); !errors.Is(err, ErrBatchMisuse) {
		t.Errorf("End without Begin: expected ErrBatchMisuse, got %v", err)
	}
	if err := session.Begin(); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if err := session.Begin(); !errors.Is(err, ErrBatchMisuse) {
		t.Errorf("nested Begin: expected ErrBatchMisuse, got %v", err)
	}
}

func TestSessionEmptyBatchIsNoOp(t *testing.T) {
	persistent := &fakeTransport{}
	engine := newTestEngine(t, persistent, &fakeTransport{})
	session := engine.NewSession("a.jpg")

	if err := session.Begin(); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	result, err := session.End(context.Background())
	if err != nil {
		t.Fatalf("End returned error: %v", err)
	}
	if result != nil {
		t.Errorf("empty batch returned %v", result)
	}
	if len(persistent.calls) != 0 {
		t.Errorf("empty batch performed %d round trips", len(persistent.calls))
	}
}

func TestSessionResetsAfterFailedFlush(t *testing.T) {
	failing := true
	persistent := &fakeTransport{respond: func(args []string) ([]string, error) {
		if failing {
			return nil, errors.New("boom")
		}
		return []string{`[{"XMP-dc:Title":"A Title"}]`}, nil
	}}
	engine := newTestEngine(t, persistent, &fakeTransport{})
	session := engine.NewSession("a.jpg")

	if err := session.Begin(); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if _, err := session.Read(context.Background(), KeyValueTag{Name: TagDCTitle}); err != nil {
		t.Fatalf("buffered Read returned error: %v", err)
	}
	if _, err := session.End(context.Background()); err == nil {
		t.Fatal("expected flush failure")
	}

	// The session is reusable after the failed flush.
	failing = false
	if err := session.Begin(); err != nil {
		t.Fatalf("Begin after failure returned error: %v", err)
	}
	if _, err := session.Read(context.Background(), KeyValueTag{Name: TagDCTitle}); err != nil {
		t.Fatalf("buffered Read returned error: %v", err)
	}
	result, err := session.End(context.Background())
	if err != nil {
		t.Fatalf("End returned error: %v", err)
	}
	if result[TagDCTitle] != "A Title" {
		t.Errorf("unexpected batch result %v", result)
	}
}

func TestSessionBatchedReadDeduplicatesNames(t *testing.T) {
	persistent := &fakeTransport{respond: func(args []string) ([]string, error) {
		return []string{`[{"XMP-dc:Title":"A Title"}]`}, nil
	}}
	engine := newTestEngine(t, persistent, &fakeTransport{})
	session := engine.NewSession("a.jpg")

	if err := session.Begin(); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := session.Read(context.Background(), KeyValueTag{Name: TagDCTitle}); err != nil {
			t.Fatalf("buffered Read returned error: %v", err)
		}
	}
	if _, err := session.End(context.Background()); err != nil {
		t.Fatalf("End returned error: %v", err)
	}
	if got := containsPrefix(persistent.calls[0], "-"+TagDCTitle); got != 1 {
		t.Errorf("expected deduplicated tag request, got %d in %v", got, persistent.calls[0])
	}
}
