// Package client implements the WAMP session layer for a client peer: the
// join handshake with optional challenge/response authentication, the
// dispatch loop correlating inbound messages to pending requests, and the
// call/invocation/subscription API on top of it.
package client

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "go.uber.org/zap"

    "wampio/pkg/serialize"
    "wampio/pkg/transport"
    "wampio/pkg/wamp"
)

// State of a session.
type State int

const (
    // Connecting: transport open, Hello sent, Welcome not yet received.
    Connecting State = iota
    // Authenticating: Challenge received, Authenticate sent.
    Authenticating
    // Established: Welcome received; the session is usable.
    Established
    // Closing: Goodbye sent, draining until the peer answers.
    Closing
    // Closed: terminal; the transport is released.
    Closed
)

func (s State) String() string {
    switch s {
    case Connecting:
        return "connecting"
    case Authenticating:
        return "authenticating"
    case Established:
        return "established"
    case Closing:
        return "closing"
    case Closed:
        return "closed"
    default:
        return "unknown"
    }
}

// SessionConfig carries the join parameters.
type SessionConfig struct {
    // Realm to join. Required.
    Realm wamp.URI

    // Details are merged into the Hello details under the caller's keys.
    // Roles and auth negotiation keys are filled in automatically.
    Details wamp.Dict

    // Keyring supplies authentication methods. Optional; without one a
    // Challenge from the router fails the join.
    Keyring *Keyring

    // GoodbyeTimeout bounds the wait for the peer's Goodbye reply on a
    // local close. Zero means 5s.
    GoodbyeTimeout time.Duration

    // Logger defaults to the process-global zap logger.
    Logger *zap.Logger
}

// Hooks receive inbound messages that are not correlated responses. All are
// invoked from the dispatch loop and must not block.
type Hooks struct {
    Event      func(*wamp.Event)
    Invocation func(*wamp.Invocation)
    Interrupt  func(*wamp.Interrupt)
}

// Session is one conversation with a realm over one transport connection.
// It owns the transport, performs the handshake in Join, and - once started -
// dispatches every inbound message to a pending-request waiter or a hook.
type Session struct {
    conn transport.Conn
    ser  serialize.Serializer
    log  *zap.Logger

    id      wamp.ID
    realm   wamp.URI
    details wamp.Dict

    goodbyeWait time.Duration

    mu      sync.Mutex
    state   State
    pending map[wamp.ID]responder
    hooks   Hooks

    started sync.Once
    goodbye chan *wamp.Goodbye

    done        chan struct{}
    termErr     error    // set before done is closed
    leaveReason wamp.URI // Goodbye/Abort reason, if any
}

// Join performs the session handshake over an established connection: it
// sends Hello, answers a Challenge if the router sends one, and returns the
// established session on Welcome. The returned session does not dispatch
// until Start is called. On any failure the connection is closed.
func Join(ctx context.Context, conn transport.Conn, ser serialize.Serializer, cfg SessionConfig) (*Session, error) {
    if !cfg.Realm.Valid() {
        return nil, fmt.Errorf("invalid realm %q", cfg.Realm)
    }
    log := cfg.Logger
    if log == nil {
        log = zap.L()
    }
    wait := cfg.GoodbyeTimeout
    if wait <= 0 {
        wait = 5 * time.Second
    }

    s := &Session{
        conn:        conn,
        ser:         ser,
        log:         log.With(zap.String("realm", string(cfg.Realm))),
        realm:       cfg.Realm,
        goodbyeWait: wait,
        state:       Connecting,
        pending:     make(map[wamp.ID]responder),
        goodbye:     make(chan *wamp.Goodbye, 1),
        done:        make(chan struct{}),
    }

    welcome, err := s.handshake(ctx, cfg)
    if err != nil {
        _ = conn.Close()
        return nil, err
    }

    s.id = welcome.SessionID
    s.details = welcome.Details
    s.state = Established
    s.log.Info("session established", zap.Int64("session_id", int64(s.id)))
    return s, nil
}

func (s *Session) handshake(ctx context.Context, cfg SessionConfig) (*wamp.Welcome, error) {
    details := wamp.Dict{}
    for k, v := range cfg.Details {
        details[k] = v
    }
    details["roles"] = clientRoles()
    if cfg.Keyring != nil {
        details["authmethods"] = cfg.Keyring.MethodNames()
        if id := cfg.Keyring.AuthID(); id != "" {
            details["authid"] = id
        }
        if extra := cfg.Keyring.AuthExtra(); extra != nil {
            details["authextra"] = extra
        }
    }

    if err := s.sendRaw(&wamp.Hello{Realm: cfg.Realm, Details: details}); err != nil {
        return nil, err
    }

    msg, err := s.recvOne(ctx)
    if err != nil {
        return nil, err
    }

    if challenge, ok := msg.(*wamp.Challenge); ok {
        s.state = Authenticating
        if cfg.Keyring == nil {
            return nil, &wamp.AuthError{Method: challenge.AuthMethod}
        }
        auth, err := cfg.Keyring.answer(challenge)
        if err != nil {
            return nil, err
        }
        if err := s.sendRaw(auth); err != nil {
            return nil, err
        }
        if msg, err = s.recvOne(ctx); err != nil {
            return nil, err
        }
    }

    switch m := msg.(type) {
    case *wamp.Welcome:
        return m, nil
    case *wamp.Abort:
        return nil, &wamp.AbortError{Reason: m.Reason, Details: m.Details}
    default:
        return nil, &wamp.UnexpectedMessageError{Got: m.MessageType(), Want: wamp.WELCOME}
    }
}

// recvOne reads and decodes a single message during the handshake, honoring
// ctx by closing the connection.
func (s *Session) recvOne(ctx context.Context) (wamp.Message, error) {
    type recvResult struct {
        msg wamp.Message
        err error
    }
    ch := make(chan recvResult, 1)
    go func() {
        data, err := s.conn.Recv()
        if err != nil {
            ch <- recvResult{err: &wamp.TransportError{Err: err}}
            return
        }
        msg, err := s.ser.Deserialize(data)
        ch <- recvResult{msg: msg, err: err}
    }()
    select {
    case r := <-ch:
        return r.msg, r.err
    case <-ctx.Done():
        _ = s.conn.Close()
        return nil, ctx.Err()
    }
}

// Start installs the hooks and launches the dispatch loop. Must be called
// exactly once after Join.
func (s *Session) Start(h Hooks) {
    s.started.Do(func() {
        s.mu.Lock()
        s.hooks = h
        s.mu.Unlock()
        go s.recvLoop()
    })
}

// ID returns the router-assigned session identifier.
func (s *Session) ID() wamp.ID { return s.id }

// Realm returns the realm the session is attached to.
func (s *Session) Realm() wamp.URI { return s.realm }

// Details returns the Welcome details (roles, features, auth info).
func (s *Session) Details() wamp.Dict { return s.details }

// State returns the current session state.
func (s *Session) State() State {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.state
}

// Done is closed when the session reaches Closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the terminal reason after Done is closed: nil for a clean
// Goodbye exchange, otherwise the fatal error.
func (s *Session) Err() error {
    select {
    case <-s.done:
        return s.termErr
    default:
        return nil
    }
}

// LeaveReason returns the Goodbye/Abort reason URI, if the session ended
// with one.
func (s *Session) LeaveReason() wamp.URI {
    select {
    case <-s.done:
        return s.leaveReason
    default:
        return ""
    }
}

func (s *Session) sendRaw(m wamp.Message) error {
    data, err := s.ser.Serialize(m)
    if err != nil {
        return err
    }
    if err := s.conn.Send(data); err != nil {
        return &wamp.TransportError{Err: err}
    }
    return nil
}

// Send transmits a message on an established session. Request-correlated
// sends are only permitted in Established.
func (s *Session) Send(m wamp.Message) error {
    s.mu.Lock()
    ok := s.state == Established
    s.mu.Unlock()
    if !ok {
        return wamp.ErrClientClosed
    }
    return s.sendRaw(m)
}

// Request sends a request-bearing message and blocks until the correlated
// success response (of type want), the correlated Error, session
// termination, or ctx expiry. On ctx expiry the pending entry is removed;
// a late response is then dropped by the dispatch loop.
func (s *Session) Request(ctx context.Context, m wamp.Message, req wamp.ID, want wamp.Type) (wamp.Message, error) {
    w := &waiter{reqType: m.MessageType(), want: want, ch: make(chan result, 1)}
    if err := s.expect(req, w); err != nil {
        return nil, err
    }
    if err := s.Send(m); err != nil {
        s.unexpect(req)
        return nil, err
    }
    select {
    case r := <-w.ch:
        return r.msg, r.err
    case <-ctx.Done():
        s.unexpect(req)
        return nil, ctx.Err()
    }
}

// expect registers a pending-request waiter under the given request id.
func (s *Session) expect(req wamp.ID, r responder) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.state != Established {
        return wamp.ErrClientClosed
    }
    if _, dup := s.pending[req]; dup {
        return fmt.Errorf("request id %d already pending", req)
    }
    s.pending[req] = r
    return nil
}

func (s *Session) unexpect(req wamp.ID) {
    s.mu.Lock()
    delete(s.pending, req)
    s.mu.Unlock()
}

// Close leaves the realm: it sends Goodbye, waits (bounded) for the peer's
// Goodbye reply, then releases the transport and drains all pending state.
func (s *Session) Close(ctx context.Context) error {
    s.mu.Lock()
    switch s.state {
    case Closed, Closing:
        s.mu.Unlock()
        return wamp.ErrClientClosed
    case Established:
        s.state = Closing
        s.mu.Unlock()
    default:
        s.mu.Unlock()
        return wamp.ErrClientClosed
    }

    _ = s.sendRaw(&wamp.Goodbye{Reason: wamp.CloseRealm})

    timer := time.NewTimer(s.goodbyeWait)
    defer timer.Stop()
    select {
    case g := <-s.goodbye:
        s.terminate(nil, g.Reason)
    case <-timer.C:
        s.log.Warn("no goodbye reply from peer, closing anyway")
        s.terminate(nil, wamp.CloseRealm)
    case <-ctx.Done():
        s.terminate(nil, wamp.CloseRealm)
        return ctx.Err()
    case <-s.done:
    }
    return nil
}

// terminate moves the session to Closed exactly once: the transport is
// released and every outstanding pending request is rejected.
func (s *Session) terminate(cause error, reason wamp.URI) {
    s.mu.Lock()
    if s.state == Closed {
        s.mu.Unlock()
        return
    }
    s.state = Closed
    pend := s.pending
    s.pending = make(map[wamp.ID]responder)
    s.mu.Unlock()

    _ = s.conn.Close()
    for _, w := range pend {
        w.fail(wamp.ErrClientClosed)
    }

    s.termErr = cause
    s.leaveReason = reason
    close(s.done)

    if cause != nil {
        s.log.Warn("session terminated", zap.Error(cause))
    } else {
        s.log.Info("session closed", zap.String("reason", string(reason)))
    }
}

func (s *Session) recvLoop() {
    for {
        data, err := s.conn.Recv()
        if err != nil {
            s.mu.Lock()
            closing := s.state == Closing || s.state == Closed
            s.mu.Unlock()
            if closing {
                // transport torn down during an orderly close
                s.terminate(nil, wamp.CloseRealm)
            } else {
                s.terminate(&wamp.TransportError{Err: err}, "")
            }
            return
        }
        msg, err := s.ser.Deserialize(data)
        if err != nil {
            // unparseable frames fail the whole session
            s.terminate(err, "")
            return
        }
        if fatal := s.dispatch(msg); fatal != nil {
            var reason wamp.URI
            var abort *wamp.AbortError
            if errors.As(fatal, &abort) {
                reason = abort.Reason
            }
            s.terminate(fatal, reason)
            return
        }
        select {
        case <-s.done:
            return
        default:
        }
    }
}

// dispatch routes one inbound message. A non-nil return is fatal to the
// session.
func (s *Session) dispatch(msg wamp.Message) error {
    s.log.Debug("recv", zap.Stringer("type", msg.MessageType()))

    switch m := msg.(type) {
    case *wamp.Event:
        s.mu.Lock()
        h := s.hooks.Event
        s.mu.Unlock()
        if h != nil {
            h(m)
        } else {
            s.log.Debug("event dropped, no handler", zap.Int64("subscription", int64(m.Subscription)))
        }
        return nil

    case *wamp.Invocation:
        s.mu.Lock()
        h := s.hooks.Invocation
        s.mu.Unlock()
        if h != nil {
            h(m)
            return nil
        }
        // no callee layer attached; refuse the invocation
        return s.Send(&wamp.Error{
            ErrType: wamp.INVOCATION,
            Request: m.Request,
            Error:   wamp.ErrNoSuchProcedure,
        })

    case *wamp.Interrupt:
        s.mu.Lock()
        h := s.hooks.Interrupt
        s.mu.Unlock()
        if h != nil {
            h(m)
        }
        return nil

    case *wamp.Goodbye:
        return s.handleGoodbye(m)

    case *wamp.Abort:
        return &wamp.AbortError{Reason: m.Reason, Details: m.Details}

    case *wamp.Error:
        return s.resolve(m.Request, m)

    case *wamp.Published:
        return s.resolve(m.Request, m)
    case *wamp.Subscribed:
        return s.resolve(m.Request, m)
    case *wamp.Unsubscribed:
        return s.resolve(m.Request, m)
    case *wamp.Result:
        return s.resolve(m.Request, m)
    case *wamp.Registered:
        return s.resolve(m.Request, m)
    case *wamp.Unregistered:
        return s.resolve(m.Request, m)

    default:
        // Welcome, Challenge and friends are not legal after the handshake
        return &wamp.UnexpectedMessageError{Got: msg.MessageType(), Want: wamp.GOODBYE}
    }
}

func (s *Session) handleGoodbye(m *wamp.Goodbye) error {
    s.mu.Lock()
    st := s.state
    s.mu.Unlock()

    switch st {
    case Closing:
        // reply to our own Goodbye; Close is waiting for it
        select {
        case s.goodbye <- m:
        default:
        }
        return nil
    case Established:
        // peer-initiated close: answer and shut down
        _ = s.sendRaw(&wamp.Goodbye{Reason: wamp.CloseGoodbyeAndOut})
        s.terminate(nil, m.Reason)
        return nil
    default:
        return nil
    }
}

// resolve delivers a correlated response to its pending waiter. Responses
// naming an unrecognized request id are dropped.
func (s *Session) resolve(req wamp.ID, msg wamp.Message) error {
    s.mu.Lock()
    w, ok := s.pending[req]
    s.mu.Unlock()
    if !ok {
        s.log.Debug("response for unknown request", zap.Int64("request", int64(req)), zap.Stringer("type", msg.MessageType()))
        return nil
    }
    done, err := w.deliver(msg)
    if err != nil {
        return err
    }
    if done {
        s.unexpect(req)
    }
    return nil
}

// responder is one pending-request table entry.
type responder interface {
    // deliver hands an inbound correlated message to the waiter. done
    // removes the entry; a non-nil error is fatal to the session.
    deliver(wamp.Message) (done bool, err error)
    // fail rejects the waiter at session termination.
    fail(error)
}

type result struct {
    msg wamp.Message
    err error
}

// waiter resolves on exactly one success-or-Error response.
type waiter struct {
    reqType wamp.Type // message type of the request we sent
    want    wamp.Type

    // onResolve, when set, runs on the dispatch loop with the success
    // response before the requester is woken. State keyed by ids in the
    // response (subscription and registration tables) must be installed
    // here: the loop dispatches the next inbound message as soon as
    // deliver returns, without waiting for the requester goroutine.
    onResolve func(wamp.Message)

    ch chan result
}

func (w *waiter) deliver(msg wamp.Message) (bool, error) {
    if e, ok := msg.(*wamp.Error); ok {
        if e.ErrType != w.reqType {
            // correlation is by (request type, request id); a mismatch is
            // not ours to consume
            return false, nil
        }
        w.ch <- result{err: wamp.ResponseError(e)}
        return true, nil
    }
    if msg.MessageType() != w.want {
        w.ch <- result{err: &wamp.UnexpectedMessageError{Got: msg.MessageType(), Want: w.want}}
        return true, nil
    }
    if w.onResolve != nil {
        w.onResolve(msg)
    }
    w.ch <- result{msg: msg}
    return true, nil
}

func (w *waiter) fail(err error) {
    select {
    case w.ch <- result{err: err}:
    default:
    }
}
