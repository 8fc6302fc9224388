package usecase

import (
	"encoding/json"
	"fmt"
)

// Preferences is the opaque preference object a caller submits. Stages
// never interpret it; they serialize it and hand it to the embedding or
// ranking model.
type Preferences map[string]interface{}

// SerializePreferences renders preferences as the canonical text used for
// embedding and rerank queries. encoding/json writes map keys in sorted
// order, so the same preferences always produce the same string.
func SerializePreferences(p Preferences) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to serialize preferences: %w", err)
	}
	return string(data), nil
}
