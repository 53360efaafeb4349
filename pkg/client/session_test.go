package client

import (
    "context"
    "errors"
    "testing"
    "time"

    "go.uber.org/zap"

    "wampio/pkg/serialize"
    "wampio/pkg/transport"
    "wampio/pkg/transport/mem"
    "wampio/pkg/wamp"
)

const testSessionID = wamp.ID(9001)

// router drives the far side of an in-process connection from a test
// script. Helpers report through t.Errorf so they are usable off the test
// goroutine.
type router struct {
    t    *testing.T
    conn transport.Conn
    ser  serialize.Serializer
}

func (r *router) recv(want wamp.Type) wamp.Message {
    data, err := r.conn.Recv()
    if err != nil {
        r.t.Errorf("router: recv: %v", err)
        return nil
    }
    msg, err := r.ser.Deserialize(data)
    if err != nil {
        r.t.Errorf("router: decode: %v", err)
        return nil
    }
    if msg.MessageType() != want {
        r.t.Errorf("router: got %s, want %s", msg.MessageType(), want)
        return nil
    }
    return msg
}

func (r *router) send(m wamp.Message) {
    data, err := r.ser.Serialize(m)
    if err != nil {
        r.t.Errorf("router: serialize: %v", err)
        return
    }
    if err := r.conn.Send(data); err != nil {
        r.t.Errorf("router: send: %v", err)
    }
}

func (r *router) welcome() {
    if r.recv(wamp.HELLO) == nil {
        return
    }
    r.send(&wamp.Welcome{SessionID: testSessionID, Details: wamp.Dict{"roles": wamp.Dict{}}})
}

// startSession joins a session against a scripted router. The script runs
// after the handshake completed.
func startSession(t *testing.T, cfg SessionConfig, script func(r *router)) *Session {
    t.Helper()
    cli, srv := mem.Pair()
    r := &router{t: t, conn: srv, ser: serialize.JSON()}

    handshook := make(chan struct{})
    go func() {
        r.welcome()
        close(handshook)
        if script != nil {
            script(r)
        }
    }()

    if cfg.Realm == "" {
        cfg.Realm = "realm1"
    }
    if cfg.Logger == nil {
        cfg.Logger = zap.NewNop()
    }
    sess, err := Join(context.Background(), cli, r.ser, cfg)
    if err != nil { t.Fatalf("join: %v", err) }
    <-handshook
    t.Cleanup(func() { sess.terminate(nil, "") })
    return sess
}

func TestJoinWelcome(t *testing.T) {
    sess := startSession(t, SessionConfig{Realm: "realm1"}, nil)
    if sess.ID() != testSessionID { t.Fatalf("session id = %d, want %d", sess.ID(), testSessionID) }
    if sess.Realm() != "realm1" { t.Fatalf("realm = %q", sess.Realm()) }
    if sess.State() != Established { t.Fatalf("state = %s", sess.State()) }
    if sess.Err() != nil { t.Fatalf("premature terminal error: %v", sess.Err()) }
}

func TestJoinInvalidRealm(t *testing.T) {
    cli, _ := mem.Pair()
    if _, err := Join(context.Background(), cli, serialize.JSON(), SessionConfig{Realm: "bad realm", Logger: zap.NewNop()}); err == nil {
        t.Fatalf("join accepted malformed realm")
    }
}

func TestJoinAbort(t *testing.T) {
    cli, srv := mem.Pair()
    r := &router{t: t, conn: srv, ser: serialize.JSON()}
    go func() {
        if r.recv(wamp.HELLO) == nil {
            return
        }
        r.send(&wamp.Abort{Details: wamp.Dict{"message": "denied"}, Reason: wamp.ErrNoSuchRealm})
    }()

    _, err := Join(context.Background(), cli, r.ser, SessionConfig{Realm: "realm1", Logger: zap.NewNop()})
    var abort *wamp.AbortError
    if !errors.As(err, &abort) { t.Fatalf("join error = %v, want AbortError", err) }
    if abort.Reason != wamp.ErrNoSuchRealm { t.Fatalf("abort reason = %q", abort.Reason) }
}

func TestJoinChallengeWithoutKeyring(t *testing.T) {
    cli, srv := mem.Pair()
    r := &router{t: t, conn: srv, ser: serialize.JSON()}
    go func() {
        if r.recv(wamp.HELLO) == nil {
            return
        }
        r.send(&wamp.Challenge{AuthMethod: "wampcra", Extra: wamp.Dict{"challenge": "x"}})
    }()

    _, err := Join(context.Background(), cli, r.ser, SessionConfig{Realm: "realm1", Logger: zap.NewNop()})
    var authErr *wamp.AuthError
    if !errors.As(err, &authErr) { t.Fatalf("join error = %v, want AuthError", err) }
}

func TestJoinUnexpectedReply(t *testing.T) {
    cli, srv := mem.Pair()
    r := &router{t: t, conn: srv, ser: serialize.JSON()}
    go func() {
        if r.recv(wamp.HELLO) == nil {
            return
        }
        r.send(&wamp.Result{Request: 1, Details: wamp.Dict{}})
    }()

    _, err := Join(context.Background(), cli, r.ser, SessionConfig{Realm: "realm1", Logger: zap.NewNop()})
    var unexpected *wamp.UnexpectedMessageError
    if !errors.As(err, &unexpected) { t.Fatalf("join error = %v, want UnexpectedMessageError", err) }
}

func TestJoinHelloNegotiation(t *testing.T) {
    cli, srv := mem.Pair()
    r := &router{t: t, conn: srv, ser: serialize.JSON()}
    kr, err := NewKeyring("alice", TicketAuth{Ticket: "t"}, CRAuth{Secret: "s"})
    if err != nil { t.Fatalf("keyring: %v", err) }

    go func() {
        msg := r.recv(wamp.HELLO)
        if msg == nil {
            return
        }
        hello := msg.(*wamp.Hello)
        if hello.Realm != "realm1" {
            r.t.Errorf("hello realm = %q", hello.Realm)
        }
        if _, ok := hello.Details["roles"].(map[string]any); !ok {
            r.t.Errorf("hello roles missing: %v", hello.Details)
        }
        if id, _ := wamp.AsString(hello.Details["authid"]); id != "alice" {
            r.t.Errorf("authid = %v", hello.Details["authid"])
        }
        methods, _ := hello.Details["authmethods"].([]any)
        if len(methods) != 2 || methods[0] != "ticket" || methods[1] != "wampcra" {
            r.t.Errorf("authmethods = %v", hello.Details["authmethods"])
        }
        r.send(&wamp.Welcome{SessionID: testSessionID, Details: wamp.Dict{}})
    }()

    sess, err := Join(context.Background(), cli, r.ser, SessionConfig{Realm: "realm1", Keyring: kr, Logger: zap.NewNop()})
    if err != nil { t.Fatalf("join: %v", err) }
    sess.terminate(nil, "")
}

func TestCloseGoodbyeExchange(t *testing.T) {
    sess := startSession(t, SessionConfig{}, func(r *router) {
        if r.recv(wamp.GOODBYE) == nil {
            return
        }
        r.send(&wamp.Goodbye{Reason: wamp.CloseGoodbyeAndOut})
    })
    sess.Start(Hooks{})

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := sess.Close(ctx); err != nil { t.Fatalf("close: %v", err) }

    <-sess.Done()
    if sess.Err() != nil { t.Fatalf("clean close ended with %v", sess.Err()) }
    if sess.LeaveReason() != wamp.CloseGoodbyeAndOut { t.Fatalf("leave reason = %q", sess.LeaveReason()) }
    if sess.State() != Closed { t.Fatalf("state = %s", sess.State()) }

    if err := sess.Close(ctx); !errors.Is(err, wamp.ErrClientClosed) { t.Fatalf("second close = %v", err) }
}

func TestCloseWithoutGoodbyeReply(t *testing.T) {
    received := make(chan wamp.Message, 1)
    sess := startSession(t, SessionConfig{GoodbyeTimeout: 50 * time.Millisecond}, func(r *router) {
        // read the Goodbye but never answer it
        received <- r.recv(wamp.GOODBYE)
    })
    sess.Start(Hooks{})

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := sess.Close(ctx); err != nil { t.Fatalf("close: %v", err) }

    <-sess.Done()
    if sess.Err() != nil { t.Fatalf("timed-out close ended with %v", sess.Err()) }
    if sess.LeaveReason() != wamp.CloseRealm { t.Fatalf("leave reason = %q", sess.LeaveReason()) }
    if sess.State() != Closed { t.Fatalf("state = %s", sess.State()) }

    if g := <-received; g == nil {
        t.Fatalf("goodbye never reached the peer")
    }
}

func TestPeerInitiatedGoodbye(t *testing.T) {
    replied := make(chan wamp.Message, 1)
    sess := startSession(t, SessionConfig{}, func(r *router) {
        r.send(&wamp.Goodbye{Reason: wamp.CloseSystemShutdown})
        replied <- r.recv(wamp.GOODBYE)
    })
    sess.Start(Hooks{})

    <-sess.Done()
    if sess.Err() != nil { t.Fatalf("peer goodbye ended with %v", sess.Err()) }
    if sess.LeaveReason() != wamp.CloseSystemShutdown { t.Fatalf("leave reason = %q", sess.LeaveReason()) }

    reply := <-replied
    if reply == nil {
        t.Fatalf("no goodbye reply sent")
    }
    if g := reply.(*wamp.Goodbye); g.Reason != wamp.CloseGoodbyeAndOut { t.Fatalf("reply reason = %q", g.Reason) }
}

func TestAbortAfterEstablished(t *testing.T) {
    sess := startSession(t, SessionConfig{}, func(r *router) {
        r.send(&wamp.Abort{Details: wamp.Dict{}, Reason: wamp.ErrProtocolViolation})
    })
    sess.Start(Hooks{})

    <-sess.Done()
    var abort *wamp.AbortError
    if !errors.As(sess.Err(), &abort) { t.Fatalf("terminal error = %v, want AbortError", sess.Err()) }
    if sess.LeaveReason() != wamp.ErrProtocolViolation { t.Fatalf("leave reason = %q", sess.LeaveReason()) }
}

func TestTransportFailureDrainsPending(t *testing.T) {
    calls := make(chan *wamp.Call, 3)
    sess := startSession(t, SessionConfig{}, func(r *router) {
        for i := 0; i < 3; i++ {
            msg := r.recv(wamp.CALL)
            if msg == nil {
                return
            }
            calls <- msg.(*wamp.Call)
        }
        _ = r.conn.Close()
    })
    sess.Start(Hooks{})

    errs := make(chan error, 3)
    for i := 0; i < 3; i++ {
        go func(i int) {
            req := wamp.ID(100 + i)
            _, err := sess.Request(context.Background(), &wamp.Call{
                Request:   req,
                Options:   wamp.Dict{},
                Procedure: "com.slow",
            }, req, wamp.RESULT)
            errs <- err
        }(i)
    }

    for i := 0; i < 3; i++ {
        if err := <-errs; !errors.Is(err, wamp.ErrClientClosed) { t.Fatalf("pending call %d: %v, want ErrClientClosed", i, err) }
    }

    <-sess.Done()
    var terr *wamp.TransportError
    if !errors.As(sess.Err(), &terr) { t.Fatalf("terminal error = %v, want TransportError", sess.Err()) }

    // the session is unusable from here on
    if err := sess.Send(&wamp.Publish{Request: 1, Topic: "com.t"}); !errors.Is(err, wamp.ErrClientClosed) {
        t.Fatalf("send after termination = %v, want ErrClientClosed", err)
    }
    if _, err := sess.Request(context.Background(), &wamp.Call{Request: 2, Procedure: "com.p"}, 2, wamp.RESULT); !errors.Is(err, wamp.ErrClientClosed) {
        t.Fatalf("request after termination = %v, want ErrClientClosed", err)
    }
}

func TestMalformedFrameIsFatal(t *testing.T) {
    sess := startSession(t, SessionConfig{}, func(r *router) {
        _ = r.conn.Send([]byte(`{"not":"a list"}`))
    })
    sess.Start(Hooks{})

    <-sess.Done()
    var invalid *wamp.InvalidMessageError
    if !errors.As(sess.Err(), &invalid) { t.Fatalf("terminal error = %v, want InvalidMessageError", sess.Err()) }
}

func TestHandshakeMessageAfterEstablishedIsFatal(t *testing.T) {
    sess := startSession(t, SessionConfig{}, func(r *router) {
        r.send(&wamp.Welcome{SessionID: 4242, Details: wamp.Dict{}})
    })
    sess.Start(Hooks{})

    <-sess.Done()
    var unexpected *wamp.UnexpectedMessageError
    if !errors.As(sess.Err(), &unexpected) { t.Fatalf("terminal error = %v, want UnexpectedMessageError", sess.Err()) }
}

func TestResponseForUnknownRequestDropped(t *testing.T) {
    roundTrip := make(chan struct{})
    sess := startSession(t, SessionConfig{}, func(r *router) {
        // nothing asked for request 555; must be ignored
        r.send(&wamp.Published{Request: 555, Publication: 1})

        msg := r.recv(wamp.PUBLISH)
        if msg == nil {
            return
        }
        r.send(&wamp.Published{Request: msg.(*wamp.Publish).Request, Publication: 2})
        close(roundTrip)
    })
    sess.Start(Hooks{})

    resp, err := sess.Request(context.Background(), &wamp.Publish{
        Request: 1,
        Options: wamp.Dict{"acknowledge": true},
        Topic:   "com.topic",
    }, 1, wamp.PUBLISHED)
    if err != nil { t.Fatalf("request after stray response: %v", err) }
    if resp.(*wamp.Published).Publication != 2 { t.Fatalf("publication = %d", resp.(*wamp.Published).Publication) }
    <-roundTrip
}

func TestRequestContextExpiry(t *testing.T) {
    release := make(chan struct{})
    sess := startSession(t, SessionConfig{}, func(r *router) {
        msg := r.recv(wamp.SUBSCRIBE)
        if msg == nil {
            return
        }
        <-release
        // the late reply must be dropped, not crash anything
        r.send(&wamp.Subscribed{Request: msg.(*wamp.Subscribe).Request, Subscription: 1})

        msg = r.recv(wamp.PUBLISH)
        if msg == nil {
            return
        }
        r.send(&wamp.Published{Request: msg.(*wamp.Publish).Request, Publication: 9})
    })
    sess.Start(Hooks{})

    ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    _, err := sess.Request(ctx, &wamp.Subscribe{Request: 10, Options: wamp.Dict{}, Topic: "com.t"}, 10, wamp.SUBSCRIBED)
    if !errors.Is(err, context.DeadlineExceeded) { t.Fatalf("expired request = %v", err) }
    close(release)

    resp, err := sess.Request(context.Background(), &wamp.Publish{
        Request: 11,
        Options: wamp.Dict{"acknowledge": true},
        Topic:   "com.t",
    }, 11, wamp.PUBLISHED)
    if err != nil { t.Fatalf("request after expiry: %v", err) }
    if resp.(*wamp.Published).Publication != 9 { t.Fatalf("publication = %d", resp.(*wamp.Published).Publication) }
}

func TestErrorMatchedByRequestType(t *testing.T) {
    sess := startSession(t, SessionConfig{}, func(r *router) {
        msg := r.recv(wamp.SUBSCRIBE)
        if msg == nil {
            return
        }
        req := msg.(*wamp.Subscribe).Request
        // wrong request type: not for this waiter, dropped
        r.send(&wamp.Error{ErrType: wamp.CALL, Request: req, Details: wamp.Dict{}, Error: "com.wrong"})
        // matching request type resolves it
        r.send(&wamp.Error{ErrType: wamp.SUBSCRIBE, Request: req, Details: wamp.Dict{}, Error: wamp.ErrNotAuthorized})
    })
    sess.Start(Hooks{})

    _, err := sess.Request(context.Background(), &wamp.Subscribe{Request: 21, Options: wamp.Dict{}, Topic: "com.t"}, 21, wamp.SUBSCRIBED)
    var resp *wamp.ErrorResponse
    if !errors.As(err, &resp) { t.Fatalf("request error = %v, want ErrorResponse", err) }
    if resp.URI != wamp.ErrNotAuthorized { t.Fatalf("error uri = %q", resp.URI) }
    if resp.ErrType != wamp.SUBSCRIBE { t.Fatalf("error request type = %s", resp.ErrType) }
}

func TestSessionStateString(t *testing.T) {
    for st, want := range map[State]string{
        Connecting:     "connecting",
        Authenticating: "authenticating",
        Established:    "established",
        Closing:        "closing",
        Closed:         "closed",
        State(99):      "unknown",
    } {
        if got := st.String(); got != want { t.Fatalf("State(%d) = %q, want %q", st, got, want) }
    }
}
