// Package quic carries frames over a single bidirectional QUIC stream with
// u32 LE length prefixes. This is not a standardized WAMP transport; both
// ends must agree on it.
package quic

import (
    "bufio"
    "context"
    "crypto/tls"
    "encoding/binary"
    "errors"
    "io"
    "sync"

    quicgo "github.com/quic-go/quic-go"

    "wampio/pkg/transport"
)

const maxFrame = 1 << 24

// Dialer establishes QUIC connections.
type Dialer struct {
    // TLSConfig is required by QUIC. When nil a config with the "wamp"
    // ALPN token is used; certificate verification follows the config.
    TLSConfig *tls.Config

    // QUICConfig tunes the quic-go stack. Optional.
    QUICConfig *quicgo.Config
}

func (d *Dialer) Dial(ctx context.Context, address string) (transport.Conn, error) {
    tlsConf := d.TLSConfig
    if tlsConf == nil {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS13}
    } else {
        tlsConf = tlsConf.Clone()
    }
    if len(tlsConf.NextProtos) == 0 {
        tlsConf.NextProtos = []string{"wamp"}
    }

    qc, err := quicgo.DialAddr(ctx, address, tlsConf, d.QUICConfig)
    if err != nil { return nil, err }

    st, err := qc.OpenStreamSync(ctx)
    if err != nil {
        _ = qc.CloseWithError(0, "")
        return nil, err
    }
    return &conn{
        qc: qc,
        st: st,
        br: bufio.NewReader(st),
        bw: bufio.NewWriter(st),
    }, nil
}

type conn struct {
    mu sync.Mutex
    qc quicgo.Connection
    st quicgo.Stream
    br *bufio.Reader
    bw *bufio.Writer
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
        return nil, errors.New("quic: invalid frame size")
    }
    buf := make([]byte, n)
    if _, err := io.ReadFull(s.br, buf); err != nil { return nil, err }
    return buf, nil
}

func (s *conn) Close() error {
    _ = s.st.Close()
    return s.qc.CloseWithError(0, "")
}
