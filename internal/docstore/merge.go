package docstore

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a random document id.
func NewID() string {
	return uuid.NewString()
}

// MergeFields overlays fields on the top-level keys of a JSON object.
// Backends that keep documents as opaque JSON use it to implement Update.
func MergeFields(data []byte, fields map[string]any) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", k, err)
		}
		doc[k] = raw
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}
