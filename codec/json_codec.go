package codec

import (
	"encoding/json"
	"fmt"

	"github.com/flogvit/rbm-request/message"
)

// JSONCodec uses Go's standard library encoding/json for serialization.
// Pros: human-readable, cross-language, easy to debug.
// Cons: larger payload (field names repeated), numbers decode as float64.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	core, err := coreOf(v)
	if err != nil {
		return nil, err
	}
	data, err := core.Encode()
	if err != nil {
		return nil, fmt.Errorf("json codec: %w", err)
	}
	return data, nil
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	var core message.Core
	if err := json.Unmarshal(data, &core); err != nil {
		return fmt.Errorf("json codec: %w", err)
	}
	return store(core, v)
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
