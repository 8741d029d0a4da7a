package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/symbolic/internal/ir"
)

// marshalProps converts a proposition list to canonical JSON TEXT.
// A nil list is stored as "[]".
func marshalProps(props []string) (string, error) {
	if props == nil {
		props = []string{}
	}
	data, err := ir.MarshalCanonical(props)
	if err != nil {
		return "", fmt.Errorf("marshal propositions: %w", err)
	}
	return string(data), nil
}

// unmarshalProps parses a stored proposition list. The result is never nil.
func unmarshalProps(data string) ([]string, error) {
	props := []string{}
	if data == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(data), &props); err != nil {
		return nil, fmt.Errorf("unmarshal propositions: %w", err)
	}
	return props, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
