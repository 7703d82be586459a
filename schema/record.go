package schema

import (
	"encoding/json"
	"fmt"
	"maps"
)

// FileRecord is one entry of the file registry produced by the ingestion step.
// Only Path is required; unknown keys survive a decode/encode round trip in Extra.
type FileRecord struct {
	Path      string         `json:"path"`
	Filename  string         `json:"filename,omitempty"`
	SHA256    string         `json:"sha256,omitempty"`
	IsBinary  bool           `json:"is_binary"`
	Language  string         `json:"language,omitempty"`
	LineCount int            `json:"line_count"`
	Extra     map[string]any `json:"-"`

	// unset names the is_binary and line_count keys a decoded record did not
	// carry, so Map does not invent them.
	unset map[string]struct{}
}

var knownRecordKeys = map[string]struct{}{
	"path": {}, "filename": {}, "sha256": {}, "is_binary": {}, "language": {}, "line_count": {},
}

// optionalRecordKeys are the keys without omitempty whose absence must survive.
var optionalRecordKeys = []string{"is_binary", "line_count"}

// Map flattens the record, including Extra, into a generic map.
func (r FileRecord) Map() map[string]any {
	m := make(map[string]any, len(r.Extra)+6)
	maps.Copy(m, r.Extra)
	m["path"] = r.Path
	if _, ok := r.unset["is_binary"]; !ok || r.IsBinary {
		m["is_binary"] = r.IsBinary
	}
	if _, ok := r.unset["line_count"]; !ok || r.LineCount != 0 {
		m["line_count"] = r.LineCount
	}
	if r.Filename != "" {
		m["filename"] = r.Filename
	}
	if r.SHA256 != "" {
		m["sha256"] = r.SHA256
	}
	if r.Language != "" {
		m["language"] = r.Language
	}
	return m
}

func (r FileRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *FileRecord) UnmarshalJSON(data []byte) error {
	type plain FileRecord
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return fmt.Errorf("decode file record: %w", err)
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("decode file record: %w", err)
	}

	*r = FileRecord(known)
	for k, v := range all {
		// Known keys decode into fields; a null one is kept as null.
		if _, ok := knownRecordKeys[k]; ok && v != nil {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = v
	}
	for _, k := range optionalRecordKeys {
		if v, ok := all[k]; ok && v != nil {
			continue
		}
		if r.unset == nil {
			r.unset = make(map[string]struct{})
		}
		r.unset[k] = struct{}{}
	}
	return nil
}
