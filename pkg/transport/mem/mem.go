// Package mem provides an in-process transport over net.Pipe. Useful for
// tests and for wiring a client directly to an in-process peer.
package mem

import (
    "bufio"
    "context"
    "encoding/binary"
    "errors"
    "io"
    "net"
    "sync"

    "wampio/pkg/transport"
)

const maxFrame = 1 << 24

// Pair returns two connected frame channels. Frames written to one side
// arrive on the other in order.
func Pair() (transport.Conn, transport.Conn) {
    c1, c2 := net.Pipe()
    return newConn(c1), newConn(c2)
}

// Dialer connects to a named in-process listener registered on a Hub.
type Dialer struct{ Hub *Hub }

func (d *Dialer) Dial(ctx context.Context, name string) (transport.Conn, error) {
    return d.Hub.dial(ctx, name)
}

// Hub holds named in-process endpoints.
type Hub struct {
    mu        sync.Mutex
    listeners map[string]chan transport.Conn
}

func NewHub() *Hub { return &Hub{listeners: make(map[string]chan transport.Conn)} }

// Listen registers a name and returns the channel inbound connections
// arrive on.
func (h *Hub) Listen(name string) (<-chan transport.Conn, error) {
    h.mu.Lock()
    defer h.mu.Unlock()
    if _, ok := h.listeners[name]; ok {
        return nil, errors.New("mem: listener already exists")
    }
    ch := make(chan transport.Conn, 8)
    h.listeners[name] = ch
    return ch, nil
}

func (h *Hub) dial(ctx context.Context, name string) (transport.Conn, error) {
    h.mu.Lock()
    ch := h.listeners[name]
    h.mu.Unlock()
    if ch == nil {
        return nil, errors.New("mem: no such listener")
    }
    cli, srv := Pair()
    select {
    case ch <- srv:
        return cli, nil
    case <-ctx.Done():
        _ = cli.Close()
        _ = srv.Close()
        return nil, ctx.Err()
    }
}

// conn frames messages with a u32 LE length prefix.
type conn struct {
    mu sync.Mutex
    c  net.Conn
    br *bufio.Reader
    bw *bufio.Writer
}

func newConn(c net.Conn) *conn {
    return &conn{c: c, br: bufio.NewReader(c), bw: bufio.NewWriter(c)}
}

func (s *conn) Send(b []byte) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    var lenbuf [4]byte
    binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(b)))
    if _, err := s.bw.Write(lenbuf[:]); err != nil { return err }
    if _, err := s.bw.Write(b); err != nil { return err }
    return s.bw.Flush()
}

func (s *conn) Recv() ([]byte, error) {
    var lenbuf [4]byte
    if _, err := io.ReadFull(s.br, lenbuf[:]); err != nil { return nil, err }
    n := int(binary.LittleEndian.Uint32(lenbuf[:]))
    if n < 0 || n > maxFrame {
        return nil, errors.New("invalid frame size")
    }
    buf := make([]byte, n)
    if _, err := io.ReadFull(s.br, buf); err != nil { return nil, err }
    return buf, nil
}

func (s *conn) Close() error { return s.c.Close() }
