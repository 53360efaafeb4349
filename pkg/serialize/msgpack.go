package serialize

import (
    "github.com/vmihailenco/msgpack/v5"

    "wampio/pkg/wamp"
)

type msgpackSerializer struct{}

// MsgPack returns the wamp.2.msgpack serializer.
func MsgPack() Serializer { return msgpackSerializer{} }

func (msgpackSerializer) Name() string { return "msgpack" }
func (msgpackSerializer) Binary() bool { return true }

func (msgpackSerializer) Serialize(m wamp.Message) ([]byte, error) {
    return msgpack.Marshal([]any(wamp.Encode(m)))
}

func (msgpackSerializer) Deserialize(data []byte) (wamp.Message, error) {
    var list []any
    if err := msgpack.Unmarshal(data, &list); err != nil {
        return nil, invalidFrame("msgpack", err)
    }
    return wamp.Decode(list)
}
