// Package serialize converts typed messages to and from wire frames. Both
// peers of a connection must use the same serializer; negotiation happens at
// the transport layer (websocket subprotocol or raw-socket handshake).
package serialize

import (
    "fmt"

    "wampio/pkg/wamp"
)

// Serializer encodes one message per frame.
// Implementations should be deterministic and safe for concurrent use.
type Serializer interface {
    // Name is the wire name used in negotiation: json, msgpack or cbor.
    Name() string
    // Binary reports whether frames are binary (false only for JSON).
    Binary() bool
    Serialize(wamp.Message) ([]byte, error)
    Deserialize([]byte) (wamp.Message, error)
}

// Subprotocol returns the websocket subprotocol identifier for a serializer.
func Subprotocol(s Serializer) string { return "wamp.2." + s.Name() }

// Registry maps wire names to serializers. It is instance-owned: every
// session/dialer receives its own registry instead of sharing process-wide
// state.
type Registry struct{ byName map[string]Serializer }

// NewRegistry constructs a registry preloaded with the serializers that
// need no initialization: JSON and MsgPack. CBOR can be added explicitly
// via Register.
func NewRegistry() *Registry {
    r := &Registry{byName: make(map[string]Serializer)}
    r.Register(JSON())
    r.Register(MsgPack())
    return r
}

// Register adds a serializer.
func (r *Registry) Register(s Serializer) { r.byName[s.Name()] = s }

// Get returns a serializer by wire name, or nil.
func (r *Registry) Get(name string) Serializer { return r.byName[name] }

func invalidFrame(name string, err error) error {
    return &wamp.InvalidMessageError{Reason: fmt.Sprintf("%s frame: %v", name, err)}
}
