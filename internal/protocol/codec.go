package protocol

import (
	"encoding/json"
	"fmt"
	"io"
)

// EncodeInput serializes in to JSON. No trailing newline is written; the
// renderer reads until end of input.
// Returns an error if a value (typically TokenUsage) cannot be represented.
func EncodeInput(in *Input) ([]byte, error) {
	if in == nil {
		return nil, fmt.Errorf("nil input")
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}
	return data, nil
}

// DecodeInput reads an Input from r. Renderers written in Go use it to
// parse their stdin; TokenUsage decodes as a generic JSON value.
func DecodeInput(r io.Reader) (*Input, error) {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	return &in, nil
}
