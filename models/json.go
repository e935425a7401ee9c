package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON is a jsonb-backed document. Consent request snapshots and submitted
// payment payloads are stored as-is, so equality checks always compare the
// full structure rather than selected columns.
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON scan: %T", value)
	}

	return json.Unmarshal(data, j)
}

// Canonical returns the document re-marshaled with sorted keys. encoding/json
// sorts map keys, so two structurally equal documents canonicalize to
// identical bytes regardless of where they were decoded from.
func (j JSON) Canonical() []byte {
	if j == nil {
		return nil
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil
	}
	return data
}

// Equal reports deep structural equality between two documents.
func (j JSON) Equal(other JSON) bool {
	if j == nil && other == nil {
		return true
	}
	return bytes.Equal(j.Canonical(), other.Canonical())
}

// Clone returns an independent deep copy, used to snapshot request documents
// so later mutation of the request cannot leak into a persisted resource.
func (j JSON) Clone() JSON {
	if j == nil {
		return nil
	}
	var out JSON
	if err := json.Unmarshal(j.Canonical(), &out); err != nil {
		return nil
	}
	return out
}
