package serialize

import (
    "testing"

    "wampio/pkg/wamp"
)

func allSerializers(t *testing.T) []Serializer {
    t.Helper()
    cb, err := CBOR()
    if err != nil { t.Fatalf("cbor init: %v", err) }
    return []Serializer{JSON(), MsgPack(), cb}
}

func TestRoundTripCall(t *testing.T) {
    orig := &wamp.Call{
        Request:   7,
        Options:   wamp.Dict{"receive_progress": true},
        Procedure: "com.myapp.sum",
        Args:      wamp.List{int64(1), int64(2), int64(3)},
    }
    for _, s := range allSerializers(t) {
        data, err := s.Serialize(orig)
        if err != nil { t.Fatalf("%s: serialize: %v", s.Name(), err) }
        msg, err := s.Deserialize(data)
        if err != nil { t.Fatalf("%s: deserialize: %v", s.Name(), err) }
        call, ok := msg.(*wamp.Call)
        if !ok { t.Fatalf("%s: decoded %T, want *wamp.Call", s.Name(), msg) }
        if call.Request != orig.Request { t.Fatalf("%s: request = %d", s.Name(), call.Request) }
        if call.Procedure != orig.Procedure { t.Fatalf("%s: procedure = %q", s.Name(), call.Procedure) }
        if len(call.Args) != 3 { t.Fatalf("%s: args = %v", s.Name(), call.Args) }
        // numeric payload survives whatever concrete type the codec picked
        for i, v := range call.Args {
            n, ok := wamp.AsInt64(v)
            if !ok || n != int64(i+1) { t.Fatalf("%s: arg %d decoded as %T(%v)", s.Name(), i, v, v) }
        }
        p, _ := call.Options["receive_progress"].(bool)
        if !p { t.Fatalf("%s: options lost: %v", s.Name(), call.Options) }
    }
}

func TestRoundTripError(t *testing.T) {
    orig := &wamp.Error{
        ErrType: wamp.CALL,
        Request: 11,
        Details: wamp.Dict{},
        Error:   "com.myapp.failed",
        Args:    wamp.List{"why"},
        Kwargs:  wamp.Dict{"severity": "high"},
    }
    for _, s := range allSerializers(t) {
        data, err := s.Serialize(orig)
        if err != nil { t.Fatalf("%s: serialize: %v", s.Name(), err) }
        msg, err := s.Deserialize(data)
        if err != nil { t.Fatalf("%s: deserialize: %v", s.Name(), err) }
        e, ok := msg.(*wamp.Error)
        if !ok { t.Fatalf("%s: decoded %T, want *wamp.Error", s.Name(), msg) }
        if e.ErrType != wamp.CALL || e.Request != 11 || e.Error != orig.Error {
            t.Fatalf("%s: header mismatch: %#v", s.Name(), e)
        }
        if len(e.Args) != 1 || e.Args[0] != "why" { t.Fatalf("%s: args = %v", s.Name(), e.Args) }
        sev, _ := wamp.AsString(e.Kwargs["severity"])
        if sev != "high" { t.Fatalf("%s: kwargs = %v", s.Name(), e.Kwargs) }
    }
}

func TestDeserializeGarbage(t *testing.T) {
    for _, s := range allSerializers(t) {
        _, err := s.Deserialize([]byte{0xFF, 0x00, 0xFF})
        if err == nil { t.Fatalf("%s: garbage accepted", s.Name()) }
        if _, ok := err.(*wamp.InvalidMessageError); !ok { t.Fatalf("%s: error is %T", s.Name(), err) }
    }
}

func TestDeserializeNonMessageList(t *testing.T) {
    // structurally valid frame, protocol-invalid content
    data, err := JSON().Serialize(&wamp.Published{Request: 1, Publication: 2})
    if err != nil { t.Fatalf("serialize: %v", err) }
    if _, err := JSON().Deserialize(append(data[:len(data)-1], ',', '9', ']')); err == nil {
        t.Fatalf("trailing element accepted")
    }
}

func TestRegistry(t *testing.T) {
    r := NewRegistry()
    if r.Get("json") == nil || r.Get("msgpack") == nil { t.Fatalf("preloaded serializers missing") }
    if r.Get("cbor") != nil { t.Fatalf("cbor present before Register") }
    cb, err := CBOR()
    if err != nil { t.Fatalf("cbor init: %v", err) }
    r.Register(cb)
    if r.Get("cbor") == nil { t.Fatalf("cbor missing after Register") }
}

func TestSubprotocolNames(t *testing.T) {
    if got := Subprotocol(JSON()); got != "wamp.2.json" { t.Fatalf("json subprotocol %q", got) }
    if got := Subprotocol(MsgPack()); got != "wamp.2.msgpack" { t.Fatalf("msgpack subprotocol %q", got) }
    if JSON().Binary() { t.Fatalf("json reported binary") }
    if !MsgPack().Binary() { t.Fatalf("msgpack reported text") }
}
