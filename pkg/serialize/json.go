package serialize

import (
    "encoding/json"

    "wampio/pkg/wamp"
)

type jsonSerializer struct{}

// JSON returns the wamp.2.json serializer (RFC 8259 text frames).
func JSON() Serializer { return jsonSerializer{} }

func (jsonSerializer) Name() string { return "json" }
func (jsonSerializer) Binary() bool { return false }

func (jsonSerializer) Serialize(m wamp.Message) ([]byte, error) {
    return json.Marshal(wamp.Encode(m))
}

func (jsonSerializer) Deserialize(data []byte) (wamp.Message, error) {
    var list []any
    if err := json.Unmarshal(data, &list); err != nil {
        return nil, invalidFrame("json", err)
    }
    return wamp.Decode(list)
}
