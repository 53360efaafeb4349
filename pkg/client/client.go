package client

import (
    "context"
    "fmt"
    "sync"

    "go.uber.org/zap"

    "wampio/pkg/wamp"
)

// EventHandler receives publications for one subscription. Handlers for the
// same subscription run serially in publication order; handlers for
// different subscriptions do not block one another.
type EventHandler func(args wamp.List, kwargs wamp.Dict, details wamp.Dict)

// Client is the call/invocation/subscription layer over an established
// session. All methods are safe for concurrent use.
type Client struct {
    sess  *Session
    log   *zap.Logger
    idGen wamp.IDGen

    mu     sync.Mutex
    subs   map[wamp.ID]*subscription
    regs   map[wamp.ID]*registration
    active map[wamp.ID]*activeInvocation

    errs chan error
}

type registration struct {
    procedure wamp.URI
    handler   InvocationHandler
}

type activeInvocation struct {
    inv    *Invocation
    cancel context.CancelFunc
}

// NewClient attaches a client to a freshly joined session and starts the
// session's dispatch loop.
func NewClient(sess *Session) *Client {
    c := &Client{
        sess:   sess,
        log:    sess.log,
        subs:   make(map[wamp.ID]*subscription),
        regs:   make(map[wamp.ID]*registration),
        active: make(map[wamp.ID]*activeInvocation),
        errs:   make(chan error, 32),
    }
    sess.Start(Hooks{
        Event:      c.handleEvent,
        Invocation: c.handleInvocation,
        Interrupt:  c.handleInterrupt,
    })
    go c.watchTermination()
    return c
}

// Session returns the underlying session.
func (c *Client) Session() *Session { return c.sess }

// Errors delivers handler failures: panics and returned errors from event
// handlers and procedures. The channel is buffered; when full, failures are
// logged instead of dropped silently.
func (c *Client) Errors() <-chan error { return c.errs }

// Done is closed when the underlying session terminates.
func (c *Client) Done() <-chan struct{} { return c.sess.Done() }

func (c *Client) report(err error) {
    select {
    case c.errs <- err:
    default:
        c.log.Warn("handler error (error channel full)", zap.Error(err))
    }
}

// Close leaves the realm and tears the client down.
func (c *Client) Close(ctx context.Context) error {
    return c.sess.Close(ctx)
}

// watchTermination cleans local state once the session reaches Closed.
// Pending requests are rejected by the session itself.
func (c *Client) watchTermination() {
    <-c.sess.Done()

    c.mu.Lock()
    subs := c.subs
    active := c.active
    c.subs = make(map[wamp.ID]*subscription)
    c.regs = make(map[wamp.ID]*registration)
    c.active = make(map[wamp.ID]*activeInvocation)
    c.mu.Unlock()

    for _, sub := range subs {
        sub.stop()
    }
    for _, a := range active {
        a.cancel()
    }
}

// Publish emits an event. When options["acknowledge"] is true, it waits for
// the router's Published and returns the publication id; otherwise it is
// fire-and-forget and returns 0 on successful send.
func (c *Client) Publish(ctx context.Context, topic wamp.URI, args wamp.List, kwargs wamp.Dict, options wamp.Dict) (wamp.ID, error) {
    req := c.idGen.Next()
    msg := &wamp.Publish{
        Request: req,
        Options: options,
        Topic:   topic,
        Args:    args,
        Kwargs:  kwargs,
    }

    ack, _ := options["acknowledge"].(bool)
    if !ack {
        return 0, c.sess.Send(msg)
    }

    resp, err := c.sess.Request(ctx, msg, req, wamp.PUBLISHED)
    if err != nil {
        return 0, err
    }
    return resp.(*wamp.Published).Publication, nil
}

// request sends a request and resolves it with an onResolve callback that
// runs on the dispatch loop before the response is handed back here.
// Subscribe and Register install their handler tables in that callback, so
// an Event or Invocation the router sends right behind the acknowledgement
// always finds the handler already in place.
func (c *Client) request(ctx context.Context, m wamp.Message, req wamp.ID, want wamp.Type, onResolve func(wamp.Message)) (wamp.Message, error) {
    w := &waiter{reqType: m.MessageType(), want: want, onResolve: onResolve, ch: make(chan result, 1)}
    if err := c.sess.expect(req, w); err != nil {
        return nil, err
    }
    if err := c.sess.Send(m); err != nil {
        c.sess.unexpect(req)
        return nil, err
    }
    select {
    case r := <-w.ch:
        return r.msg, r.err
    case <-ctx.Done():
        c.sess.unexpect(req)
        return nil, ctx.Err()
    }
}

// Subscribe attaches handler to a topic. The returned subscription id keys
// Unsubscribe.
func (c *Client) Subscribe(ctx context.Context, topic wamp.URI, handler EventHandler, options wamp.Dict) (wamp.ID, error) {
    req := c.idGen.Next()
    sub := newSubscription(topic, handler, c)
    resp, err := c.request(ctx, &wamp.Subscribe{
        Request: req,
        Options: options,
        Topic:   topic,
    }, req, wamp.SUBSCRIBED, func(m wamp.Message) {
        c.mu.Lock()
        c.subs[m.(*wamp.Subscribed).Subscription] = sub
        c.mu.Unlock()
    })
    if err != nil {
        // the acknowledgement may still have raced in before ctx expired
        c.mu.Lock()
        for id, s := range c.subs {
            if s == sub {
                delete(c.subs, id)
            }
        }
        c.mu.Unlock()
        sub.stop()
        return 0, err
    }

    subID := resp.(*wamp.Subscribed).Subscription
    c.log.Debug("subscribed", zap.String("topic", string(topic)), zap.Int64("subscription", int64(subID)))
    return subID, nil
}

// Unsubscribe removes a subscription. The local handler is removed only
// after the router acknowledged, so a racing Event is either delivered
// normally or dropped as unknown, never half-delivered.
func (c *Client) Unsubscribe(ctx context.Context, subID wamp.ID) error {
    c.mu.Lock()
    _, ok := c.subs[subID]
    c.mu.Unlock()
    if !ok {
        return fmt.Errorf("unknown subscription id %d", subID)
    }

    req := c.idGen.Next()
    if _, err := c.sess.Request(ctx, &wamp.Unsubscribe{
        Request:      req,
        Subscription: subID,
    }, req, wamp.UNSUBSCRIBED); err != nil {
        return err
    }

    c.mu.Lock()
    sub := c.subs[subID]
    delete(c.subs, subID)
    c.mu.Unlock()
    if sub != nil {
        sub.stop()
    }
    return nil
}

// Register installs handler as the implementation of a procedure. The
// returned registration id keys Unregister.
func (c *Client) Register(ctx context.Context, procedure wamp.URI, handler InvocationHandler, options wamp.Dict) (wamp.ID, error) {
    req := c.idGen.Next()
    reg := &registration{procedure: procedure, handler: handler}
    resp, err := c.request(ctx, &wamp.Register{
        Request:   req,
        Options:   options,
        Procedure: procedure,
    }, req, wamp.REGISTERED, func(m wamp.Message) {
        c.mu.Lock()
        c.regs[m.(*wamp.Registered).Registration] = reg
        c.mu.Unlock()
    })
    if err != nil {
        c.mu.Lock()
        for id, r := range c.regs {
            if r == reg {
                delete(c.regs, id)
            }
        }
        c.mu.Unlock()
        return 0, err
    }

    regID := resp.(*wamp.Registered).Registration
    c.log.Debug("registered", zap.String("procedure", string(procedure)), zap.Int64("registration", int64(regID)))
    return regID, nil
}

// Unregister removes a registration, handler removal only after router
// acknowledgement (mirroring Unsubscribe). Invocations already running are
// left to finish.
func (c *Client) Unregister(ctx context.Context, regID wamp.ID) error {
    c.mu.Lock()
    _, ok := c.regs[regID]
    c.mu.Unlock()
    if !ok {
        return fmt.Errorf("unknown registration id %d", regID)
    }

    req := c.idGen.Next()
    if _, err := c.sess.Request(ctx, &wamp.Unregister{
        Request:      req,
        Registration: regID,
    }, req, wamp.UNREGISTERED); err != nil {
        return err
    }

    c.mu.Lock()
    delete(c.regs, regID)
    c.mu.Unlock()
    return nil
}

// handleEvent runs on the dispatch loop: it enqueues onto the
// subscription's pump and returns. Events for unknown subscription ids are
// dropped; the subscription may have raced a local unsubscribe.
func (c *Client) handleEvent(m *wamp.Event) {
    c.mu.Lock()
    sub := c.subs[m.Subscription]
    c.mu.Unlock()
    if sub == nil {
        c.log.Debug("event for unknown subscription", zap.Int64("subscription", int64(m.Subscription)))
        return
    }
    sub.enqueue(m)
}

// handleInvocation runs on the dispatch loop: it spawns the procedure
// runner so a slow handler cannot stall dispatch.
func (c *Client) handleInvocation(m *wamp.Invocation) {
    c.mu.Lock()
    reg := c.regs[m.Registration]
    c.mu.Unlock()
    if reg == nil {
        go func() {
            _ = c.sess.Send(&wamp.Error{
                ErrType: wamp.INVOCATION,
                Request: m.Request,
                Error:   wamp.ErrNoSuchProcedure,
                Args:    wamp.List{fmt.Sprintf("no procedure for registration %d", m.Registration)},
            })
        }()
        return
    }

    ctx, cancel := context.WithCancel(context.Background())
    inv := &Invocation{
        Procedure: reg.procedure,
        Args:      m.Args,
        Kwargs:    m.Kwargs,
        Details:   m.Details,
        c:         c,
        req:       m.Request,
        cancel:    cancel,
    }

    c.mu.Lock()
    c.active[m.Request] = &activeInvocation{inv: inv, cancel: cancel}
    c.mu.Unlock()

    go c.runInvocation(ctx, inv, reg.handler)
}

// handleInterrupt delivers the advisory cancellation signal. An Interrupt
// for an invocation that is not running is ignored.
func (c *Client) handleInterrupt(m *wamp.Interrupt) {
    c.mu.Lock()
    a := c.active[m.Request]
    c.mu.Unlock()
    if a == nil {
        c.log.Debug("interrupt for unknown invocation", zap.Int64("request", int64(m.Request)))
        return
    }
    a.cancel()
}

func (c *Client) finishInvocation(req wamp.ID) {
    c.mu.Lock()
    a := c.active[req]
    delete(c.active, req)
    c.mu.Unlock()
    if a != nil {
        a.cancel()
    }
}
