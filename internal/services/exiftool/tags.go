package exiftool

// Well-known tag names shared by the archival tools that consume this engine.
// The engine itself assigns no semantics to them.
const (
	TagDCIdentifier         = "XMP-dc:Identifier"
	TagXMPIdentifier        = "XMP-xmp:Identifier"
	TagDCDescription        = "XMP-dc:Description"
	TagDCTitle              = "XMP-dc:Title"
	TagDCCreator            = "XMP-dc:Creator"
	TagDCRights             = "XMP-dc:Rights"
	TagDCSource             = "XMP-dc:Source"
	TagPhotoshopCredit      = "XMP-photoshop:Credit"
	TagUsageTerms           = "XMP-xmpRights:UsageTerms"
	TagDateTimeOriginal     = "Exif:DateTimeOriginal"
	TagPhotoshopDateCreated = "XMP-photoshop:DateCreated"
	TagDateTimeDigitized    = "XMP-exif:DateTimeDigitized"
)

// WriteOp is one wire-level write operation: a tag name and the value to
// assign. A slice value expands into one repeated -name=item argument per
// element, in order.
type WriteOp struct {
	Name  string
	Value any
}

// Tag describes how one logical metadata unit maps to wire operations and
// back. The set of implementations is closed: KeyValueTag and HistoryTag.
type Tag interface {
	// ResultKey is the key under which the parsed value appears in the map
	// returned by a read batch.
	ResultKey() string
	// ReadOperations returns the tag names to request for reading.
	ReadOperations() []string
	// Parse extracts the value from a raw response map.
	Parse(raw map[string]any) (any, error)
	// WriteOperations returns the wire operations for a write.
	WriteOperations() []WriteOp

	sealed()
}

// KeyValueTag is a simple scalar tag: one name, one value, identity mapping
// in both directions. Leave Value nil for reads.
type KeyValueTag struct {
	Name  string
	Value any
}

func (t KeyValueTag) ResultKey() string { return t.Name }

func (t KeyValueTag) ReadOperations() []string { return []string{t.Name} }

func (t KeyValueTag) Parse(raw map[string]any) (any, error) {
	return raw[t.Name], nil
}

func (t KeyValueTag) WriteOperations() []WriteOp {
	return []WriteOp{{Name: t.Name, Value: t.Value}}
}

func (KeyValueTag) sealed() {}
