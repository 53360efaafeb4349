package wamp

import "testing"

func TestURIValid(t *testing.T) {
    valid := []URI{"com.myapp.topic", "wamp.error.no_such_procedure", "a", "com..partial"}
    for _, u := range valid {
        if !u.Valid() { t.Fatalf("%q rejected", u) }
    }
    invalid := []URI{"", "has space", "tab\there", "line\nbreak", "frag#ment"}
    for _, u := range invalid {
        if u.Valid() { t.Fatalf("%q accepted", u) }
    }
}

func TestAsInt64Coercions(t *testing.T) {
    for _, v := range []any{int64(42), uint64(42), int(42), float64(42)} {
        n, ok := AsInt64(v)
        if !ok || n != 42 { t.Fatalf("%T(%v) -> %d, %v", v, v, n, ok) }
    }
    if _, ok := AsInt64(42.5); ok { t.Fatalf("fractional float accepted") }
    if _, ok := AsInt64("42"); ok { t.Fatalf("string accepted") }
}
