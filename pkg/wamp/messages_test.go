package wamp

import (
    "reflect"
    "testing"
)

func TestEncodeDecodeAllKinds(t *testing.T) {
    msgs := []Message{
        &Hello{Realm: "realm1", Details: Dict{"agent": "wampio"}},
        &Welcome{SessionID: 9001, Details: Dict{"roles": Dict{}}},
        &Abort{Details: Dict{"message": "no"}, Reason: "wamp.error.no_such_realm"},
        &Challenge{AuthMethod: "wampcra", Extra: Dict{"challenge": "abc"}},
        &Authenticate{Signature: "sig", Extra: Dict{}},
        &Goodbye{Details: Dict{}, Reason: CloseRealm},
        &Error{ErrType: CALL, Request: 7, Details: Dict{}, Error: "com.err", Args: List{"boom"}},
        &Publish{Request: 1, Options: Dict{}, Topic: "com.topic", Args: List{"x"}},
        &Published{Request: 1, Publication: 2},
        &Subscribe{Request: 3, Options: Dict{}, Topic: "com.topic"},
        &Subscribed{Request: 3, Subscription: 4},
        &Unsubscribe{Request: 5, Subscription: 4},
        &Unsubscribed{Request: 5},
        &Event{Subscription: 4, Publication: 2, Details: Dict{}, Args: List{"x"}, Kwargs: Dict{"k": "v"}},
        &Call{Request: 7, Options: Dict{}, Procedure: "com.proc", Args: List{"a"}},
        &Cancel{Request: 7, Options: Dict{"mode": "kill"}},
        &Result{Request: 7, Details: Dict{}, Args: List{"r"}},
        &Register{Request: 8, Options: Dict{}, Procedure: "com.proc"},
        &Registered{Request: 8, Registration: 9},
        &Unregister{Request: 10, Registration: 9},
        &Unregistered{Request: 10},
        &Invocation{Request: 11, Registration: 9, Details: Dict{}, Args: List{"a"}},
        &Interrupt{Request: 11, Options: Dict{}},
        &Yield{Request: 11, Options: Dict{}, Args: List{"r"}},
    }

    seen := make(map[Type]bool)
    for _, m := range msgs {
        if seen[m.MessageType()] { t.Fatalf("%s listed twice", m.MessageType()) }
        seen[m.MessageType()] = true

        got, err := Decode(Encode(m))
        if err != nil { t.Fatalf("%s: decode: %v", m.MessageType(), err) }
        if !reflect.DeepEqual(got, m) {
            t.Fatalf("%s: round trip mismatch:\n got %#v\nwant %#v", m.MessageType(), got, m)
        }
    }
    if len(seen) != 24 { t.Fatalf("covered %d kinds, want 24", len(seen)) }
}

func TestDecodePayloadNormalization(t *testing.T) {
    // kwargs without args puts an empty args list on the wire
    list := Encode(&Yield{Request: 1, Kwargs: Dict{"k": "v"}})
    if len(list) != 5 { t.Fatalf("wire arity %d, want 5", len(list)) }
    if args, ok := list[3].(List); !ok || len(args) != 0 { t.Fatalf("args slot not an empty list: %#v", list[3]) }

    // absent payload trails off entirely
    list = Encode(&Yield{Request: 1})
    if len(list) != 3 { t.Fatalf("wire arity %d, want 3", len(list)) }
}

func TestDecodeRejectsMalformed(t *testing.T) {
    cases := []struct {
        name string
        list List
    }{
        {"empty", List{}},
        {"unknown code", List{99, 1, Dict{}}},
        {"non-integer code", List{"HELLO", "realm1", Dict{}}},
        {"missing field", List{HELLO, "realm1"}},
        {"trailing junk", List{PUBLISHED, ID(1), ID(2), "extra"}},
        {"bad uri", List{HELLO, "bad realm", Dict{}}},
        {"bad id", List{PUBLISHED, "one", ID(2)}},
        {"bad dict", List{HELLO, "realm1", "nope"}},
        {"id out of range", List{PUBLISHED, float64(1 << 60), ID(2)}},
        {"fractional id", List{PUBLISHED, 1.5, ID(2)}},
        {"args not a list", List{CALL, ID(1), Dict{}, "com.proc", "args"}},
        {"kwargs not a dict", List{CALL, ID(1), Dict{}, "com.proc", List{}, "kw"}},
    }
    for _, tc := range cases {
        _, err := Decode(tc.list)
        if err == nil { t.Fatalf("%s: decode accepted %v", tc.name, tc.list) }
        if _, ok := err.(*InvalidMessageError); !ok { t.Fatalf("%s: error is %T, want *InvalidMessageError", tc.name, err) }
    }
}

func TestDecodeJSONNumbers(t *testing.T) {
    // JSON peers deliver every number as float64
    list := List{float64(50), float64(7), map[string]any{"progress": true}, []any{float64(5)}}
    msg, err := Decode(list)
    if err != nil { t.Fatalf("decode: %v", err) }
    res, ok := msg.(*Result)
    if !ok { t.Fatalf("decoded %T, want *Result", msg) }
    if res.Request != 7 { t.Fatalf("request = %d, want 7", res.Request) }
    if !res.Progressive() { t.Fatalf("progress flag lost") }
}

func TestResultProgressive(t *testing.T) {
    if (&Result{Request: 1, Details: Dict{}}).Progressive() { t.Fatalf("plain result reported progressive") }
    if !(&Result{Request: 1, Details: Dict{"progress": true}}).Progressive() { t.Fatalf("progress flag ignored") }
    if (&Result{Request: 1, Details: Dict{"progress": "yes"}}).Progressive() { t.Fatalf("non-bool progress flag honored") }
}
