package exiftool

import (
	"reflect"
	"testing"
	"time"
)

func TestHistoryTagWriteOperations(t *testing.T) {
	when := time.Date(2026, 3, 14, 9, 26, 53, 120*int(time.Millisecond), time.FixedZone("", -5*3600))
	tag := HistoryTag{
		Action:        ActionSaved,
		When:          when,
		SoftwareAgent: "archiver 2.1",
		InstanceID:    "xmp.iid:42",
		Changed:       "/metadata",
		Parameters:    "converted to sRGB",
	}

	ops := tag.WriteOperations()
	if len(ops) != 1 {
		t.Fatalf("expected single append operation, got %d", len(ops))
	}
	if ops[0].Name != "XMP-xmpMM:History+" {
		t.Errorf("expected append operator on tag name, got %q", ops[0].Name)
	}
	want := "{action=saved,when=2026-03-14T09:26:53.120-05:00,softwareAgent=archiver 2.1,instanceID=xmp.iid:42,changed=/metadata,parameters=converted to sRGB}"
	if ops[0].Value != want {
		t.Errorf("struct literal = %q, want %q", ops[0].Value, want)
	}
}

func TestHistoryTagWriteOmitsAbsentFields(t *testing.T) {
	tag := HistoryTag{Action: ActionCreated, SoftwareAgent: "archiver"}
	ops := tag.WriteOperations()
	if ops[0].Value != "{action=created,softwareAgent=archiver}" {
		t.Errorf("unexpected struct literal %q", ops[0].Value)
	}
}

func TestHistoryTagReadOperations(t *testing.T) {
	want := []string{
		TagHistoryAction,
		TagHistoryWhen,
		TagHistorySoftwareAgent,
		TagHistoryChanged,
		TagHistoryParameters,
		TagHistoryInstanceID,
	}
	if got := (HistoryTag{}).ReadOperations(); !reflect.DeepEqual(got, want) {
		t.Errorf("ReadOperations = %v, want %v", got, want)
	}
}

func TestHistoryTagParseZipsArrays(t *testing.T) {
	raw := map[string]any{
		TagHistoryAction: []any{"created", "saved"},
		TagHistoryWhen:   []any{"2026-01-01T00:00:00.000+00:00", "2026-02-01T00:00:00.000+00:00"},
		TagHistorySoftwareAgent: []any{"archiver", "archiver"},
		TagHistoryInstanceID:    []any{"xmp.iid:1", "xmp.iid:2"},
	}
	parsed, err := HistoryTag{}.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	entries, ok := parsed.([]map[string]string)
	if !ok {
		t.Fatalf("expected []map[string]string, got %T", parsed)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0][FieldAction] != "created" || entries[1][FieldAction] != "saved" {
		t.Errorf("actions out of order: %v", entries)
	}
	if _, present := entries[0][FieldChanged]; present {
		t.Error("absent field should be omitted, not empty")
	}
}

func TestHistoryTagParseRaggedArrays(t *testing.T) {
	// Older entries predate the parameters field, so its array is shorter.
	raw := map[string]any{
		TagHistoryAction:     []any{"created", "saved", "edited"},
		TagHistoryParameters: []any{"initial import"},
	}
	parsed, err := HistoryTag{}.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	entries := parsed.([]map[string]string)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0][FieldParameters] != "initial import" {
		t.Errorf("first entry missing parameters: %v", entries[0])
	}
	if _, present := entries[2][FieldParameters]; present {
		t.Errorf("third entry should omit parameters: %v", entries[2])
	}
}

func TestHistoryTagParseScalarCollapse(t *testing.T) {
	// A single-entry array decodes as a bare scalar in exiftool JSON output.
	raw := map[string]any{
		TagHistoryAction: "created",
		TagHistoryWhen:   "2026-01-01T00:00:00.000+00:00",
	}
	parsed, err := HistoryTag{}.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	entries := parsed.([]map[string]string)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0][FieldAction] != "created" {
		t.Errorf("unexpected entry %v", entries[0])
	}
}

func TestHistoryTagParseEmptyHistory(t *testing.T) {
	parsed, err := HistoryTag{}.Parse(map[string]any{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if entries := parsed.([]map[string]string); len(entries) != 0 {
		t.Errorf("expected no entries, got %v", entries)
	}
}

func TestKeyValueTagRoundTrip(t *testing.T) {
	tag := KeyValueTag{Name: TagDCTitle, Value: "A Title"}
	if got := tag.ResultKey(); got != TagDCTitle {
		t.Errorf("ResultKey = %q", got)
	}
	if got := tag.ReadOperations(); !reflect.DeepEqual(got, []string{TagDCTitle}) {
		t.Errorf("ReadOperations = %v", got)
	}
	ops := tag.WriteOperations()
	if len(ops) != 1 || ops[0].Name != TagDCTitle || ops[0].Value != "A Title" {
		t.Errorf("WriteOperations = %v", ops)
	}
	value, err := tag.Parse(map[string]any{TagDCTitle: "Stored"})
	if err != nil || value != "Stored" {
		t.Errorf("Parse = %v, %v", value, err)
	}
}
