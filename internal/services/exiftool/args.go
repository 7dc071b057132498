package exiftool

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// exifTimeLayout is exiftool's native date/time form.
const exifTimeLayout = "2006:01:02 15:04:05"

func buildReadArgs(tags []string, path string) []string {
	args := make([]string, 0, len(tags)+3)
	args = append(args, "-j", "-G1")
	for _, tag := range tags {
		args = append(args, "-"+tag)
	}
	return append(args, path)
}

func buildWriteArgs(ops []WriteOp, path string) []string {
	args := make([]string, 0, len(ops)+2)
	args = append(args, "-overwrite_original")
	for _, op := range ops {
		for _, value := range expandValues(op.Value) {
			args = append(args, "-"+op.Name+"="+value)
		}
	}
	return append(args, path)
}

// expandValues flattens a write value: a slice becomes one wire argument per
// element, in order. exiftool accumulates repeated assignments to the same
// list-valued tag instead of overwriting.
func expandValues(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, formatTagValue(item))
		}
		return out
	default:
		return []string{formatTagValue(val)}
	}
}

func formatTagValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(exifTimeLayout)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// mergeWriteOps coalesces duplicate names into one ordered list value so a
// later expansion emits one repeated wire argument per element. First-seen
// order is kept for names, buffering order for values: History appends
// depend on both.
func mergeWriteOps(ops []WriteOp) []WriteOp {
	merged := make([]WriteOp, 0, len(ops))
	index := make(map[string]int, len(ops))
	for _, op := range ops {
		pos, seen := index[op.Name]
		if !seen {
			index[op.Name] = len(merged)
			merged = append(merged, op)
			continue
		}
		existing := merged[pos]
		existing.Value = append(asValueList(existing.Value), asValueList(op.Value)...)
		merged[pos] = existing
	}
	return merged
}

// asValueList normalizes a write value to the list form the merge appends
// to. List values flatten element-wise so a slice-valued first occurrence
// keeps its per-element wire expansion after a later duplicate merges in.
func asValueList(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case []string:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, item)
		}
		return out
	default:
		return []any{val}
	}
}

// hasUnsafeValue reports whether any argument embeds a line break, which
// would corrupt the line-per-argument persistent protocol.
func hasUnsafeValue(args []string) bool {
	for _, arg := range args {
		if containsLineBreak(arg) {
			return true
		}
	}
	return false
}

// containsLineBreak is the single definition of "unsafe for a line-oriented
// argfile". Routing and file redirection must agree on it: a value routed to
// the one-shot path for a bare '\r' still needs redirection there.
func containsLineBreak(s string) bool {
	return strings.ContainsRune(s, '\n') || strings.ContainsRune(s, '\r')
}

// decodeReadResponse extracts the first JSON document from the response
// body. Warning lines may precede the payload when stderr is merged, so the
// decoder starts at the first line opening the JSON array.
func decodeReadResponse(lines []string) (map[string]any, error) {
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON payload in %d response lines", ErrParse, len(lines))
	}

	var docs []map[string]any
	if err := json.Unmarshal([]byte(strings.Join(lines[start:], "\n")), &docs); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrParse, err)
	}
	if len(docs) == 0 {
		return map[string]any{}, nil
	}
	return docs[0], nil
}

// checkWriteResponse inspects a write response body for exiftool failure
// markers. exiftool exits zero in persistent mode even when an individual
// file update fails, so the body is the only failure signal.
func checkWriteResponse(lines []string) error {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Error") || strings.Contains(trimmed, "weren't updated due to errors") {
			return fmt.Errorf("write rejected: %s", trimmed)
		}
	}
	return nil
}
