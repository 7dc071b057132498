package exiftool

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestBuildReadArgs(t *testing.T) {
	args := buildReadArgs([]string{"XMP-dc:Title", "XMP-dc:Creator"}, "/media/a.jpg")
	want := []string{"-j", "-G1", "-XMP-dc:Title", "-XMP-dc:Creator", "/media/a.jpg"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("buildReadArgs = %v, want %v", args, want)
	}
}

func TestBuildWriteArgsExpandsSlices(t *testing.T) {
	ops := []WriteOp{
		{Name: "XMP-dc:Title", Value: "A Title"},
		{Name: "XMP-dc:Creator", Value: []string{"First", "Second"}},
	}
	args := buildWriteArgs(ops, "/media/a.jpg")
	want := []string{
		"-overwrite_original",
		"-XMP-dc:Title=A Title",
		"-XMP-dc:Creator=First",
		"-XMP-dc:Creator=Second",
		"/media/a.jpg",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("buildWriteArgs = %v, want %v", args, want)
	}
}

func TestMergeWriteOpsCoalescesDuplicates(t *testing.T) {
	ops := []WriteOp{
		{Name: "XMP-xmpMM:History+", Value: "{action=saved}"},
		{Name: "XMP-dc:Title", Value: "A Title"},
		{Name: "XMP-xmpMM:History+", Value: "{action=edited}"},
	}
	merged := mergeWriteOps(ops)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged ops, got %d", len(merged))
	}
	if merged[0].Name != "XMP-xmpMM:History+" {
		t.Errorf("expected first-seen order, got %q first", merged[0].Name)
	}
	list, ok := merged[0].Value.([]any)
	if !ok {
		t.Fatalf("expected list value, got %T", merged[0].Value)
	}
	if !reflect.DeepEqual(list, []any{"{action=saved}", "{action=edited}"}) {
		t.Errorf("unexpected merged values %v", list)
	}

	args := buildWriteArgs(merged, "/f.jpg")
	want := []string{
		"-overwrite_original",
		"-XMP-xmpMM:History+={action=saved}",
		"-XMP-xmpMM:History+={action=edited}",
		"-XMP-dc:Title=A Title",
		"/f.jpg",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("buildWriteArgs = %v, want %v", args, want)
	}
}

func TestMergeWriteOpsKeepsSliceExpansion(t *testing.T) {
	ops := []WriteOp{
		{Name: "XMP-dc:Creator", Value: []string{"First", "Second"}},
		{Name: "XMP-dc:Creator", Value: "Third"},
	}
	args := buildWriteArgs(mergeWriteOps(ops), "/f.jpg")
	want := []string{
		"-overwrite_original",
		"-XMP-dc:Creator=First",
		"-XMP-dc:Creator=Second",
		"-XMP-dc:Creator=Third",
		"/f.jpg",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("buildWriteArgs = %v, want %v", args, want)
	}
}

func TestFormatTagValueTime(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := formatTagValue(ts); got != "2026:03:14 09:26:53" {
		t.Errorf("formatTagValue(time) = %q", got)
	}
}

func TestHasUnsafeValue(t *testing.T) {
	if hasUnsafeValue([]string{"-XMP-dc:Title=plain", "/f.jpg"}) {
		t.Error("plain args flagged as unsafe")
	}
	if !hasUnsafeValue([]string{"-XMP-dc:Description=line1\nline2"}) {
		t.Error("newline value not flagged")
	}
	if !hasUnsafeValue([]string{"-XMP-dc:Description=line1\rline2"}) {
		t.Error("carriage return value not flagged")
	}
}

func TestDecodeReadResponseSkipsWarnings(t *testing.T) {
	lines := []string{
		"Warning: [minor] Bad format for XMP-dc:Title",
		`[{"SourceFile":"a.jpg","XMP-dc:Title":"A Title"}]`,
	}
	doc, err := decodeReadResponse(lines)
	if err != nil {
		t.Fatalf("decodeReadResponse returned error: %v", err)
	}
	if doc["XMP-dc:Title"] != "A Title" {
		t.Errorf("unexpected doc %v", doc)
	}
}

func TestDecodeReadResponseMultilinePayload(t *testing.T) {
	lines := []string{
		"[{",
		`  "XMP-dc:Title": "A Title"`,
		"}]",
	}
	doc, err := decodeReadResponse(lines)
	if err != nil {
		t.Fatalf("decodeReadResponse returned error: %v", err)
	}
	if doc["XMP-dc:Title"] != "A Title" {
		t.Errorf("unexpected doc %v", doc)
	}
}

func TestDecodeReadResponseNoPayload(t *testing.T) {
	_, err := decodeReadResponse([]string{"Error: File not found"})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeReadResponseMalformedPayload(t *testing.T) {
	_, err := decodeReadResponse([]string{`[{"unterminated`})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestCheckWriteResponse(t *testing.T) {
	if err := checkWriteResponse([]string{"    1 image files updated"}); err != nil {
		t.Errorf("success body returned error: %v", err)
	}
	if err := checkWriteResponse([]string{"Error: Not a valid JPG"}); err == nil {
		t.Error("error body not detected")
	}
	if err := checkWriteResponse([]string{"    0 image files updated", "    1 files weren't updated due to errors"}); err == nil {
		t.Error("partial failure body not detected")
	}
}
