package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/caduceon/acteledger/internal/record"
)

// marshalSnapshot converts a Snapshot to canonical JSON TEXT for storage.
// The stored bytes are the exact bytes that fed the entry hash, so chain
// verification re-reads precisely what was hashed.
func marshalSnapshot(snap record.Snapshot) (string, error) {
	data, err := record.MarshalCanonical(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// unmarshalSnapshot parses stored snapshot TEXT back into a Snapshot.
// Uses json.Decoder with UseNumber so integers survive the round trip
// without passing through float64.
func unmarshalSnapshot(data string) (record.Snapshot, error) {
	if data == "" {
		return record.Snapshot{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	snap := make(record.Snapshot, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			snap[k] = record.StringValue(val)
		case bool:
			snap[k] = record.BoolValue(val)
		case json.Number:
			n, err := val.Int64()
			if err != nil {
				return nil, fmt.Errorf("unmarshal snapshot: field %q is not an integer: %w", k, err)
			}
			snap[k] = record.IntValue(n)
		default:
			return nil, fmt.Errorf("unmarshal snapshot: field %q has unsupported type %T", k, v)
		}
	}

	return snap, nil
}
