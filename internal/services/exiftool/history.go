package exiftool

import (
	"fmt"
	"strings"
	"time"
)

// XMP-xmpMM:History tag names. ExifTool flattens the structured History bag
// into parallel same-length array tags, one per struct field.
const (
	TagHistory              = "XMP-xmpMM:History"
	TagHistoryAction        = "XMP-xmpMM:HistoryAction"
	TagHistoryWhen          = "XMP-xmpMM:HistoryWhen"
	TagHistorySoftwareAgent = "XMP-xmpMM:HistorySoftwareAgent"
	TagHistoryChanged       = "XMP-xmpMM:HistoryChanged"
	TagHistoryParameters    = "XMP-xmpMM:HistoryParameters"
	TagHistoryInstanceID    = "XMP-xmpMM:HistoryInstanceID"
)

// History entry field names per XMP Specification Part 2 (xmpMM namespace).
const (
	FieldAction        = "action"
	FieldWhen          = "when"
	FieldSoftwareAgent = "softwareAgent"
	FieldInstanceID    = "instanceID"
	FieldChanged       = "changed"
	FieldParameters    = "parameters"
)

// Standard history action values.
const (
	ActionCreated   = "created"
	ActionConverted = "converted"
	ActionCopied    = "copied"
	ActionEdited    = "edited"
	ActionManaged   = "managed"
	ActionProduced  = "produced"
	ActionResized   = "resized"
	ActionSaved     = "saved"
	ActionDerived   = "derived"
)

// historyReadTags lists the flattened array tags requested for a history
// read, in the order entries are zipped.
var historyReadTags = []string{
	TagHistoryAction,
	TagHistoryWhen,
	TagHistorySoftwareAgent,
	TagHistoryChanged,
	TagHistoryParameters,
	TagHistoryInstanceID,
}

var historyFieldByTag = map[string]string{
	TagHistoryAction:        FieldAction,
	TagHistoryWhen:          FieldWhen,
	TagHistorySoftwareAgent: FieldSoftwareAgent,
	TagHistoryChanged:       FieldChanged,
	TagHistoryParameters:    FieldParameters,
	TagHistoryInstanceID:    FieldInstanceID,
}

// HistoryTag is a structured XMP-xmpMM:History entry.
//
// The zero value reads: Parse returns the full history as
// []map[string]string in append order, one map per entry, with absent fields
// omitted rather than empty.
//
// Populated fields write: WriteOperations renders exactly one append
// operation whose value is a {field=value,...} struct literal built from the
// present fields in canonical order.
type HistoryTag struct {
	Action        string
	When          time.Time
	SoftwareAgent string
	InstanceID    string
	Changed       string
	Parameters    string
}

func (t HistoryTag) ResultKey() string { return TagHistory }

func (t HistoryTag) ReadOperations() []string {
	tags := make([]string, len(historyReadTags))
	copy(tags, historyReadTags)
	return tags
}

// Parse zips the flattened arrays positionally. Arrays may be ragged when
// older entries predate a field; a record simply omits fields whose array is
// shorter than the record index. An all-empty record is dropped.
func (t HistoryTag) Parse(raw map[string]any) (any, error) {
	arrays := make(map[string][]string, len(historyReadTags))
	maxLen := 0
	for _, tag := range historyReadTags {
		arr := coerceStringArray(raw[tag])
		arrays[historyFieldByTag[tag]] = arr
		if len(arr) > maxLen {
			maxLen = len(arr)
		}
	}

	entries := make([]map[string]string, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		entry := make(map[string]string)
		for _, tag := range historyReadTags {
			field := historyFieldByTag[tag]
			if arr := arrays[field]; i < len(arr) {
				entry[field] = arr[i]
			}
		}
		if len(entry) > 0 {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// WriteOperations renders one append operation. The trailing '+' on the tag
// name is exiftool's append operator; without it a second entry would
// overwrite the bag instead of extending it.
func (t HistoryTag) WriteOperations() []WriteOp {
	parts := make([]string, 0, 6)
	if t.Action != "" {
		parts = append(parts, FieldAction+"="+t.Action)
	}
	if !t.When.IsZero() {
		parts = append(parts, FieldWhen+"="+formatWhen(t.When))
	}
	if t.SoftwareAgent != "" {
		parts = append(parts, FieldSoftwareAgent+"="+t.SoftwareAgent)
	}
	if t.InstanceID != "" {
		parts = append(parts, FieldInstanceID+"="+t.InstanceID)
	}
	if t.Changed != "" {
		parts = append(parts, FieldChanged+"="+t.Changed)
	}
	if t.Parameters != "" {
		parts = append(parts, FieldParameters+"="+t.Parameters)
	}
	return []WriteOp{{Name: TagHistory + "+", Value: "{" + strings.Join(parts, ",") + "}"}}
}

func (HistoryTag) sealed() {}

// formatWhen renders an ISO-8601 timestamp with millisecond precision and
// numeric offset, matching the format written by the archival tooling.
func formatWhen(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000-07:00")
}

// coerceStringArray normalizes a raw JSON value: exiftool collapses a
// single-entry array to a scalar, and absent tags decode as nil.
func coerceStringArray(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringifyScalar(item))
		}
		return out
	default:
		s := stringifyScalar(val)
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

func stringifyScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; keep integral values compact.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}
