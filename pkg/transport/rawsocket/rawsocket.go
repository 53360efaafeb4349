// Package rawsocket implements the WAMP raw-socket transport: a magic-byte
// handshake negotiating serializer and frame limits, then framed messages
// over a plain TCP stream with transparent ping/pong handling.
package rawsocket

import (
    "bufio"
    "context"
    "encoding/binary"
    "errors"
    "fmt"
    "io"
    "net"
    "sync"

    "wampio/pkg/serialize"
    "wampio/pkg/transport"
)

const magic = 0x7F

// Frame type octets.
const (
    frameMessage = 0
    framePing    = 1
    framePong    = 2
)

// Handshake error codes reported by the router in the second octet's high
// nibble when the low nibble is zero.
var handshakeErrors = map[byte]string{
    1: "serializer unsupported",
    2: "maximum message length unacceptable",
    3: "use of reserved bits",
    4: "maximum connection count reached",
}

func serializerCode(s serialize.Serializer) (byte, error) {
    switch s.Name() {
    case "json":
        return 1, nil
    case "msgpack":
        return 2, nil
    case "cbor":
        return 3, nil
    default:
        return 0, fmt.Errorf("rawsocket: no serializer code for %q", s.Name())
    }
}

// Dialer establishes raw-socket connections over TCP.
type Dialer struct {
    // Serializer to negotiate. Required.
    Serializer serialize.Serializer

    // RecvLimitExp is the advertised receive limit as a power of two in
    // [9, 24]. Zero means 24 (16 MiB frames).
    RecvLimitExp uint8
}

func (d *Dialer) Dial(ctx context.Context, address string) (transport.Conn, error) {
    code, err := serializerCode(d.Serializer)
    if err != nil { return nil, err }

    exp := d.RecvLimitExp
    if exp == 0 {
        exp = 24
    }
    if exp < 9 || exp > 24 {
        return nil, fmt.Errorf("rawsocket: receive limit exponent %d out of range", exp)
    }

    nd := &net.Dialer{}
    c, err := nd.DialContext(ctx, "tcp", address)
    if err != nil { return nil, err }

    s := &conn{
        c:         c,
        br:        bufio.NewReader(c),
        bw:        bufio.NewWriter(c),
        recvLimit: 1 << exp,
    }
    if err := s.handshake(exp, code); err != nil {
        _ = c.Close()
        return nil, err
    }
    return s, nil
}

type conn struct {
    mu sync.Mutex // serializes writes
    c  net.Conn
    br *bufio.Reader
    bw *bufio.Writer

    recvLimit int
    sendLimit int
}

func (s *conn) handshake(exp, code byte) error {
    out := [4]byte{magic, (exp-9)<<4 | code, 0, 0}
    if _, err := s.bw.Write(out[:]); err != nil { return err }
    if err := s.bw.Flush(); err != nil { return err }

    var in [4]byte
    if _, err := io.ReadFull(s.br, in[:]); err != nil { return err }
    if in[0] != magic {
        return errors.New("rawsocket: bad magic in handshake reply")
    }
    if in[1]&0x0F == 0 {
        reason, ok := handshakeErrors[in[1]>>4]
        if !ok {
            reason = fmt.Sprintf("unknown error %d", in[1]>>4)
        }
        return errors.New("rawsocket: handshake refused: " + reason)
    }
    if in[1]&0x0F != code {
        return errors.New("rawsocket: router switched serializer")
    }
    s.sendLimit = 1 << (9 + in[1]>>4)
    return nil
}

func (s *conn) Send(b []byte) error {
    if len(b) > s.sendLimit {
        return fmt.Errorf("rawsocket: frame of %d bytes exceeds peer limit %d", len(b), s.sendLimit)
    }
    return s.writeFrame(frameMessage, b)
}

func (s *conn) writeFrame(typ byte, b []byte) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    hdr := [4]byte{typ, byte(len(b) >> 16), byte(len(b) >> 8), byte(len(b))}
    if _, err := s.bw.Write(hdr[:]); err != nil { return err }
    if _, err := s.bw.Write(b); err != nil { return err }
    return s.bw.Flush()
}

// Recv returns the next message frame, answering pings and discarding pongs
// along the way.
func (s *conn) Recv() ([]byte, error) {
    for {
        var hdr [4]byte
        if _, err := io.ReadFull(s.br, hdr[:]); err != nil { return nil, err }
        n := int(binary.BigEndian.Uint32(hdr[:]) & 0xFFFFFF)
        if n > s.recvLimit {
            return nil, fmt.Errorf("rawsocket: frame of %d bytes exceeds receive limit %d", n, s.recvLimit)
        }
        body := make([]byte, n)
        if _, err := io.ReadFull(s.br, body); err != nil { return nil, err }

        switch hdr[0] {
        case frameMessage:
            return body, nil
        case framePing:
            if err := s.writeFrame(framePong, body); err != nil { return nil, err }
        case framePong:
            // discard
        default:
            return nil, fmt.Errorf("rawsocket: unknown frame type %d", hdr[0])
        }
    }
}

func (s *conn) Close() error { return s.c.Close() }
