// Package websocket implements the WAMP websocket transport. The serializer
// is negotiated as a wamp.2.* subprotocol; one websocket message carries one
// frame.
package websocket

import (
    "context"
    "crypto/tls"
    "errors"
    "net/http"
    "sync"
    "time"

    "github.com/gorilla/websocket"

    "wampio/pkg/serialize"
    "wampio/pkg/transport"
)

// Dialer establishes websocket connections (ws:// or wss://).
type Dialer struct {
    // Serializer to negotiate. Required.
    Serializer serialize.Serializer

    // TLSConfig is used for wss:// addresses. Optional.
    TLSConfig *tls.Config

    // Header is sent with the upgrade request. Optional.
    Header http.Header

    // HandshakeTimeout bounds the upgrade. Zero means 10s.
    HandshakeTimeout time.Duration
}

func (d *Dialer) Dial(ctx context.Context, address string) (transport.Conn, error) {
    proto := serialize.Subprotocol(d.Serializer)

    wd := websocket.Dialer{
        Subprotocols:     []string{proto},
        TLSClientConfig:  d.TLSConfig,
        HandshakeTimeout: d.HandshakeTimeout,
    }
    if wd.HandshakeTimeout == 0 {
        wd.HandshakeTimeout = 10 * time.Second
    }

    c, _, err := wd.DialContext(ctx, address, d.Header)
    if err != nil { return nil, err }
    if got := c.Subprotocol(); got != "" && got != proto {
        _ = c.Close()
        return nil, errors.New("websocket: router selected subprotocol " + got)
    }

    typ := websocket.TextMessage
    if d.Serializer.Binary() {
        typ = websocket.BinaryMessage
    }
    return &conn{c: c, msgType: typ}, nil
}

type conn struct {
    mu      sync.Mutex // gorilla allows one concurrent writer
    c       *websocket.Conn
    msgType int
}

func (s *conn) Send(b []byte) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.c.WriteMessage(s.msgType, b)
}

func (s *conn) Recv() ([]byte, error) {
    for {
        typ, data, err := s.c.ReadMessage()
        if err != nil { return nil, err }
        // control frames are handled inside gorilla; skip anything that is
        // not the negotiated payload type
        if typ == s.msgType {
            return data, nil
        }
    }
}

func (s *conn) Close() error {
    deadline := time.Now().Add(time.Second)
    _ = s.c.WriteControl(websocket.CloseMessage,
        websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
    return s.c.Close()
}
