// Package eventview provides a typed read/write accessor over a mutable JSON
// event document, addressed by JSON pointer paths (the convention used by
// fields.relativePaths and every decodeContext path table). Reads use
// github.com/tidwall/gjson; writes use its companion github.com/tidwall/sjson
// — both of which address documents with dot-separated paths, not JSON
// pointer's "/"-separated syntax, so every method translates its path
// argument(s) via toGJSONPath before calling into either library. Getters
// never fail on a missing or type-mismatched path — they report absence
// instead — so callers compose them freely without nil-checking error
// returns at every step.
package eventview

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// toGJSONPath translates a JSON pointer path (RFC 6901 syntax, "/" separated,
// as used throughout the rest of this module) into the dot-separated path
// syntax gjson/sjson actually expect. The teacher's own inspector.go queries
// gjson with dot paths directly ("source", "detail-type"); this module keeps
// JSON pointer as its public path convention (fields.relativePaths,
// decodeContext.srcPath/dstPath) and translates at this one boundary so gjson
// and sjson always see the syntax they implement.
//
// Per RFC 6901, "~1" decodes to a literal "/" and "~0" decodes to a literal
// "~" within a pointer segment; a literal "." in a segment is escaped for
// gjson/sjson as "\.", since "." is gjson/sjson's own separator.
func toGJSONPath(ptr string) string {
	if ptr == "" {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, seg := range segments {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		seg = strings.ReplaceAll(seg, ".", `\.`)
		segments[i] = seg
	}
	return strings.Join(segments, ".")
}

// Document wraps a mutable JSON document. The zero value is not usable; use
// New or Parse.
type Document struct {
	raw []byte
}

// New creates an empty JSON object document ("{}").
func New() *Document {
	return &Document{raw: []byte("{}")}
}

// Parse wraps raw as a Document without copying semantics beyond what the
// caller already owns. raw must be valid JSON; malformed input is tolerated
// by gjson/sjson (reads report absent, writes on a non-object root may
// misbehave), matching the source decoder's lenient event handling.
func Parse(raw []byte) *Document {
	return &Document{raw: raw}
}

// Bytes returns the current serialized document. The returned slice is
// owned by the Document; callers must not mutate it.
func (d *Document) Bytes() []byte {
	return d.raw
}

// String returns the current serialized document as a string.
func (d *Document) String() string {
	return string(d.raw)
}

// Exists reports whether path is present in the document.
func (d *Document) Exists(path string) bool {
	return gjson.GetBytes(d.raw, toGJSONPath(path)).Exists()
}

// IsString reports whether path exists and holds a JSON string.
func (d *Document) IsString(path string) bool {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	return r.Exists() && r.Type == gjson.String
}

// IsInt reports whether path exists and holds a JSON number with no
// fractional part (the wire representation used for integer fields).
func (d *Document) IsInt(path string) bool {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	if !r.Exists() || r.Type != gjson.Number {
		return false
	}
	return r.Num == float64(int64(r.Num))
}

// IsBool reports whether path exists and holds a JSON boolean.
func (d *Document) IsBool(path string) bool {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	return r.Exists() && (r.Type == gjson.True || r.Type == gjson.False)
}

// IsArray reports whether path exists and holds a JSON array.
func (d *Document) IsArray(path string) bool {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	return r.Exists() && r.IsArray()
}

// IsObject reports whether path exists and holds a JSON object.
func (d *Document) IsObject(path string) bool {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	return r.Exists() && r.IsObject()
}

// GetString returns the string at path, or ("", false) if absent or not a
// string.
func (d *Document) GetString(path string) (string, bool) {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	if !r.Exists() || r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

// GetInt returns the integer at path, or (0, false) if absent or not an
// integer-valued number.
func (d *Document) GetInt(path string) (int64, bool) {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	if !r.Exists() || r.Type != gjson.Number || r.Num != float64(int64(r.Num)) {
		return 0, false
	}
	return r.Int(), true
}

// GetBool returns the boolean at path, or (false, false) if absent or not a
// boolean.
func (d *Document) GetBool(path string) (bool, bool) {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	if !r.Exists() || (r.Type != gjson.True && r.Type != gjson.False) {
		return false, false
	}
	return r.Bool(), true
}

// GetArray returns the array elements at path, or (nil, false) if absent or
// not an array.
func (d *Document) GetArray(path string) ([]gjson.Result, bool) {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	if !r.Exists() || !r.IsArray() {
		return nil, false
	}
	return r.Array(), true
}

// GetObject returns the object at path as a key→Result map, or (nil, false)
// if absent or not an object.
func (d *Document) GetObject(path string) (map[string]gjson.Result, bool) {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	if !r.Exists() || !r.IsObject() {
		return nil, false
	}
	return r.Map(), true
}

// Str serializes the subtree at path as compact, single-line JSON text. It
// returns "" if path is absent. Use this for building store queries that
// embed a JSON subtree (e.g. the "insert" check query at Root).
func (d *Document) Str(path string) string {
	r := gjson.GetBytes(d.raw, toGJSONPath(path))
	if !r.Exists() {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(r.Raw)); err != nil {
		return r.Raw
	}
	return buf.String()
}

// Set copies the subtree at src to dst within the same document. It is a
// no-op if src does not exist.
func (d *Document) Set(dst, src string) {
	r := gjson.GetBytes(d.raw, toGJSONPath(src))
	if !r.Exists() {
		return
	}
	out, err := sjson.SetRawBytes(d.raw, toGJSONPath(dst), []byte(r.Raw))
	if err != nil {
		return
	}
	d.raw = out
}

// SetString writes val as a JSON string at path, creating intermediate
// objects/arrays as needed.
func (d *Document) SetString(val string, path string) {
	out, err := sjson.SetBytes(d.raw, toGJSONPath(path), val)
	if err != nil {
		return
	}
	d.raw = out
}

// SetInt writes val as a JSON number at path.
func (d *Document) SetInt(val int64, path string) {
	out, err := sjson.SetBytes(d.raw, toGJSONPath(path), val)
	if err != nil {
		return
	}
	d.raw = out
}

// SetBool writes val as a JSON boolean at path.
func (d *Document) SetBool(val bool, path string) {
	out, err := sjson.SetBytes(d.raw, toGJSONPath(path), val)
	if err != nil {
		return
	}
	d.raw = out
}

// SetArray replaces path with an empty JSON array.
func (d *Document) SetArray(path string) {
	out, err := sjson.SetRawBytes(d.raw, toGJSONPath(path), []byte("[]"))
	if err != nil {
		return
	}
	d.raw = out
}

// AppendString appends val to the array at arrayPath, creating the array if
// it does not yet exist.
func (d *Document) AppendString(val string, arrayPath string) {
	out, err := sjson.SetBytes(d.raw, toGJSONPath(arrayPath)+".-1", val)
	if err != nil {
		return
	}
	d.raw = out
}
