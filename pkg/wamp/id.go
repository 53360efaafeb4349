package wamp

import "sync"

// IDGen produces session-scoped correlation identifiers: a strictly
// increasing sequence starting at 1, cycling back to 1 past MaxID. Safe for
// concurrent use; no two callers ever observe the same value within a cycle.
type IDGen struct {
    mu   sync.Mutex
    last ID
}

// Next returns the next identifier.
func (g *IDGen) Next() ID {
    g.mu.Lock()
    defer g.mu.Unlock()
    g.last++
    if g.last > MaxID {
        g.last = 1
    }
    return g.last
}
