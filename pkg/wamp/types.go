// Package wamp defines the typed WAMP message model: the closed set of
// message kinds, their wire (ordered-list) form, session identifiers and the
// protocol error taxonomy.
package wamp

import "strings"

// ID is a WAMP identifier: an integer in [1, 2^53] used for session ids,
// request correlation, subscriptions, registrations and publications.
type ID int64

// MaxID is the largest legal WAMP identifier (2^53, exactly representable
// in IEEE-754 doubles so JSON peers agree on the value).
const MaxID ID = 1 << 53

// List is the generic ordered positional-argument payload.
type List []any

// Dict is the generic keyword-argument / details / options payload.
type Dict map[string]any

// URI is a dot-separated WAMP identifier for realms, topics, procedures and
// error names.
type URI string

// Valid reports whether the URI is well formed. Components may be empty
// (pattern-based subscriptions use wildcard components) but the URI itself
// must be non-empty and free of whitespace and '#'.
func (u URI) Valid() bool {
    if len(u) == 0 {
        return false
    }
    return !strings.ContainsAny(string(u), " \t\n\r#")
}

func (u URI) String() string { return string(u) }

// AsInt64 coerces a decoded wire number into an int64, for reading numeric
// entries out of details/options dicts.
func AsInt64(v any) (int64, bool) { return asInt(v) }

// AsString reads a string entry out of a details/options dict.
func AsString(v any) (string, bool) { return asString(v) }

// asID coerces a decoded wire value into an ID. Serializers differ on the
// concrete numeric type they produce (float64 for JSON, int64/uint64 for
// CBOR and msgpack).
func asID(v any) (ID, bool) {
    if id, ok := v.(ID); ok {
        return id, id > 0 && id <= MaxID
    }
    n, ok := asInt(v)
    if !ok {
        return 0, false
    }
    return ID(n), n > 0 && ID(n) <= MaxID
}

// asInt covers every integer width codecs hand back: encoding/json uses
// float64, fxamacker/cbor uses int64/uint64, vmihailenco/msgpack decodes to
// the narrowest width that fits.
func asInt(v any) (int64, bool) {
    switch n := v.(type) {
    case int64:
        return n, true
    case int:
        return int64(n), true
    case int8:
        return int64(n), true
    case int16:
        return int64(n), true
    case int32:
        return int64(n), true
    case uint64:
        return int64(n), n <= 1<<62
    case uint:
        return int64(n), true
    case uint8:
        return int64(n), true
    case uint16:
        return int64(n), true
    case uint32:
        return int64(n), true
    case float64:
        i := int64(n)
        return i, float64(i) == n
    case float32:
        i := int64(n)
        return i, float32(i) == n
    case ID:
        return int64(n), true
    case Type:
        return int64(n), true
    default:
        return 0, false
    }
}

func asURI(v any) (URI, bool) {
    switch s := v.(type) {
    case URI:
        return s, s.Valid()
    case string:
        return URI(s), URI(s).Valid()
    default:
        return "", false
    }
}

func asString(v any) (string, bool) {
    s, ok := v.(string)
    return s, ok
}

func asDict(v any) (Dict, bool) {
    switch d := v.(type) {
    case Dict:
        return d, true
    case map[string]any:
        return Dict(d), true
    case nil:
        return nil, false
    default:
        return nil, false
    }
}

func asList(v any) (List, bool) {
    switch l := v.(type) {
    case List:
        return l, true
    case []any:
        return List(l), true
    default:
        return nil, false
    }
}
