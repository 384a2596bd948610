package store

import (
	"fmt"
	"math"

	"github.com/roach88/slipstream/internal/settings"
)

// marshalSettings converts a settings document to canonical JSON TEXT.
// Equal documents always store identical bytes.
func marshalSettings(doc settings.Document) (string, error) {
	data, err := settings.MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("marshal settings: %w", err)
	}
	return string(data), nil
}

// unmarshalSettings parses stored JSON TEXT. A row that no longer parses as
// a flat document is corruption, not caller error.
func unmarshalSettings(data string) (settings.Document, error) {
	if data == "" || data == "{}" {
		return settings.Document{}, nil
	}
	doc, err := settings.Parse([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal settings: corrupt document: %v", err)
	}
	return doc, nil
}

// validatePartial rejects documents that could not have come from
// settings.Parse: a nil Value or a non-finite Number.
func validatePartial(doc settings.Document) error {
	for _, k := range doc.Keys() {
		switch v := doc[k].(type) {
		case nil:
			return fmt.Errorf("%w: key %q: missing value", ErrValidation, k)
		case settings.Number:
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("%w: key %q: number must be finite", ErrValidation, k)
			}
		}
	}
	return nil
}
