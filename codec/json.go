package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Map keys are emitted in sorted order, which keeps row digests stable.
// Values that JSON cannot represent (funcs, channels, complex numbers) fail
// to encode; such rows fall back to positional identity.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used for row digests and snapshot encoding.
var Default Codec = GoJSON{}
