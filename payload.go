package aiodb

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// EncodeBytes serializes v for storage in a []byte field. Use it for nested
// values that have no logical type of their own.
func EncodeBytes[S any](v S) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("aiodb: encode payload: %w", err)
	}
	return b, nil
}

// DecodeBytes reverses EncodeBytes.
func DecodeBytes[S any](b []byte) (S, error) {
	var v S
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("aiodb: decode payload: %w", err)
	}
	return v, nil
}
