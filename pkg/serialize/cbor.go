package serialize

import (
    "reflect"

    cbor "github.com/fxamacker/cbor/v2"

    "wampio/pkg/wamp"
)

type cborSerializer struct {
    enc cbor.EncMode
    dec cbor.DecMode
}

// CBOR returns the wamp.2.cbor serializer (RFC 8949, canonical encoding).
func CBOR() (Serializer, error) {
    em, err := cbor.CanonicalEncOptions().EncMode()
    if err != nil { return nil, err }
    dm, err := cbor.DecOptions{
        DefaultMapType: reflect.TypeOf(map[string]any(nil)),
    }.DecMode()
    if err != nil { return nil, err }
    return cborSerializer{enc: em, dec: dm}, nil
}

func (cborSerializer) Name() string { return "cbor" }
func (cborSerializer) Binary() bool { return true }

func (s cborSerializer) Serialize(m wamp.Message) ([]byte, error) {
    return s.enc.Marshal(wamp.Encode(m))
}

func (s cborSerializer) Deserialize(data []byte) (wamp.Message, error) {
    var list []any
    if err := s.dec.Unmarshal(data, &list); err != nil {
        return nil, invalidFrame("cbor", err)
    }
    return wamp.Decode(list)
}
