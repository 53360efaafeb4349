package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "go.uber.org/zap"

    "wampio/pkg/client"
    "wampio/pkg/config"
    "wampio/pkg/observability"
    "wampio/pkg/serialize"
    "wampio/pkg/transport"
    "wampio/pkg/transport/quic"
    "wampio/pkg/transport/rawsocket"
    "wampio/pkg/transport/websocket"
    "wampio/pkg/wamp"
)

func main() {
    cfgPath := flag.String("config", "", "path to config file")
    callURI := flag.String("call", "", "procedure to call")
    args := flag.String("args", "[]", "positional arguments as a JSON array")
    publishURI := flag.String("publish", "", "topic to publish to")
    subscribeURI := flag.String("subscribe", "", "topic to subscribe to (runs until interrupted)")
    timeout := flag.Duration("timeout", 10*time.Second, "dial/join/request timeout")
    flag.Parse()

    cfg, err := config.Load(*cfgPath)
    if err != nil {
        fatalf("load config: %v", err)
    }
    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        fatalf("setup logger: %v", err)
    }
    defer logger.Sync()

    ser, err := newSerializer(cfg.Router.Serializer)
    if err != nil {
        fatalf("serializer: %v", err)
    }
    dialer, err := newDialer(cfg.Router.Transport, ser)
    if err != nil {
        fatalf("transport: %v", err)
    }

    ctx, cancel := context.WithTimeout(context.Background(), *timeout)
    conn, err := dialer.Dial(ctx, cfg.Router.Address)
    if err != nil {
        cancel()
        fatalf("dial %s: %v", cfg.Router.Address, err)
    }

    sess, err := client.Join(ctx, conn, ser, client.SessionConfig{
        Realm:          wamp.URI(cfg.Router.Realm),
        Keyring:        newKeyring(cfg.Auth),
        GoodbyeTimeout: time.Duration(cfg.Router.GoodbyeTimeoutMS) * time.Millisecond,
        Logger:         logger,
    })
    cancel()
    if err != nil {
        fatalf("join realm %s: %v", cfg.Router.Realm, err)
    }
    c := client.NewClient(sess)
    defer func() {
        ctx, cancel := context.WithTimeout(context.Background(), *timeout)
        defer cancel()
        _ = c.Close(ctx)
    }()

    var callArgs wamp.List
    if err := json.Unmarshal([]byte(*args), &callArgs); err != nil {
        fatalf("parse -args: %v", err)
    }

    switch {
    case *callURI != "":
        ctx, cancel := context.WithTimeout(context.Background(), *timeout)
        defer cancel()
        res, err := c.Call(ctx, wamp.URI(*callURI), callArgs, nil, nil)
        if err != nil {
            fatalf("call %s: %v", *callURI, err)
        }
        out, _ := json.Marshal(res.Args)
        fmt.Println(string(out))

    case *publishURI != "":
        ctx, cancel := context.WithTimeout(context.Background(), *timeout)
        defer cancel()
        pub, err := c.Publish(ctx, wamp.URI(*publishURI), callArgs, nil, wamp.Dict{"acknowledge": true})
        if err != nil {
            fatalf("publish %s: %v", *publishURI, err)
        }
        logger.Info("published", zap.Int64("publication", int64(pub)))

    case *subscribeURI != "":
        ctx, cancel := context.WithTimeout(context.Background(), *timeout)
        _, err := c.Subscribe(ctx, wamp.URI(*subscribeURI), func(args wamp.List, kwargs wamp.Dict, details wamp.Dict) {
            out, _ := json.Marshal(args)
            fmt.Println(string(out))
        }, nil)
        cancel()
        if err != nil {
            fatalf("subscribe %s: %v", *subscribeURI, err)
        }
        logger.Info("subscribed, waiting for events", zap.String("topic", *subscribeURI))

        sig := make(chan os.Signal, 1)
        signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
        select {
        case <-sig:
        case <-c.Done():
        }

    default:
        fatalf("one of -call, -publish or -subscribe is required")
    }
}

func newSerializer(name string) (serialize.Serializer, error) {
    reg := serialize.NewRegistry()
    cb, err := serialize.CBOR()
    if err != nil {
        return nil, err
    }
    reg.Register(cb)

    ser := reg.Get(strings.ToLower(name))
    if ser == nil {
        return nil, fmt.Errorf("unknown serializer %q", name)
    }
    return ser, nil
}

func newDialer(kind string, ser serialize.Serializer) (transport.Dialer, error) {
    switch strings.ToLower(kind) {
    case "websocket":
        return &websocket.Dialer{Serializer: ser}, nil
    case "rawsocket":
        return &rawsocket.Dialer{Serializer: ser}, nil
    case "quic":
        return &quic.Dialer{}, nil
    default:
        return nil, fmt.Errorf("unknown transport %q", kind)
    }
}

func newKeyring(a config.AuthConfig) *client.Keyring {
    var method client.AuthMethod
    switch strings.ToLower(a.Method) {
    case "wampcra":
        method = client.CRAuth{Secret: a.Secret}
    case "ticket":
        method = client.TicketAuth{Ticket: a.Secret}
    default:
        return nil
    }
    kr, err := client.NewKeyring(a.AuthID, method)
    if err != nil {
        fatalf("keyring: %v", err)
    }
    return kr
}

func fatalf(format string, args ...any) {
    fmt.Fprintf(os.Stderr, format+"\n", args...)
    os.Exit(1)
}
