package store

import (
	"encoding/json"
	"fmt"
)

// Encode serializes s as the versionless snapshot blob.
func Encode(s State) ([]byte, error) {
	data, err := json.Marshal(s.normalized())
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot blob. Collections missing from older snapshots
// come back as empty lists; malformed JSON is an error.
func Decode(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s.normalized(), nil
}
