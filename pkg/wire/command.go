package wire

import jsoniter "github.com/json-iterator/go"

// Command is the envelope for every frame exchanged over the realtime
// gateway, in both directions.
type Command struct {
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

func (v Command) Marshal() []byte {
	raw, _ := jsoniter.Marshal(v)
	return raw
}

func CommandFromError(err error) Command {
	return Command{
		Action:  "error",
		Message: err.Error(),
	}
}

// DecodePayload coerces a decoded payload (usually a map[string]any) into a
// concrete struct by round-tripping it through JSON.
func DecodePayload(src any, out any) {
	raw, _ := jsoniter.Marshal(src)
	_ = jsoniter.Unmarshal(raw, out)
}
