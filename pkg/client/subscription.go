package client

import (
    "fmt"
    "sync"

    "github.com/eapache/queue"

    "wampio/pkg/wamp"
)

// subscription pumps events from the dispatch loop to its handler through
// an unbounded FIFO, so a slow handler never blocks dispatch and events for
// one subscription are delivered in publication order.
type subscription struct {
    topic   wamp.URI
    handler EventHandler
    c       *Client

    mu   sync.Mutex
    q    *queue.Queue
    wake chan struct{}
    quit chan struct{}
    once sync.Once
}

func newSubscription(topic wamp.URI, handler EventHandler, c *Client) *subscription {
    sub := &subscription{
        topic:   topic,
        handler: handler,
        c:       c,
        q:       queue.New(),
        wake:    make(chan struct{}, 1),
        quit:    make(chan struct{}),
    }
    go sub.pump()
    return sub
}

func (sub *subscription) enqueue(m *wamp.Event) {
    sub.mu.Lock()
    sub.q.Add(m)
    sub.mu.Unlock()
    select {
    case sub.wake <- struct{}{}:
    default:
    }
}

func (sub *subscription) stop() {
    sub.once.Do(func() { close(sub.quit) })
}

func (sub *subscription) pump() {
    for {
        for {
            sub.mu.Lock()
            if sub.q.Length() == 0 {
                sub.mu.Unlock()
                break
            }
            m := sub.q.Remove().(*wamp.Event)
            sub.mu.Unlock()
            sub.deliver(m)
        }
        select {
        case <-sub.wake:
        case <-sub.quit:
            return
        }
    }
}

// deliver invokes the handler, converting a panic into a reported error so
// one bad handler never kills the pump.
func (sub *subscription) deliver(m *wamp.Event) {
    defer func() {
        if r := recover(); r != nil {
            sub.c.report(fmt.Errorf("event handler for %s panicked: %v", sub.topic, r))
        }
    }()
    sub.handler(m.Args, m.Kwargs, m.Details)
}
