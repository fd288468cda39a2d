package hysteria

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/quic-go/quic-go"
)

// Session is an established connection to the server.
type Session interface {
	// Done is closed when the session ends.
	Done() <-chan struct{}
	// Err explains why the session ended.
	Err() error
	// ALPN is the negotiated application protocol.
	ALPN() string
	Close() error
}

// Dialer opens sessions. The default dials QUIC.
type Dialer interface {
	Dial(ctx context.Context, addr string, tlsConf *tls.Config) (Session, error)
}

type quicDialer struct {
	keepAlive time.Duration
	idle      time.Duration
}

// NewQUICDialer returns a Dialer backed by quic-go.
func NewQUICDialer(keepAlive, idle time.Duration) Dialer {
	return quicDialer{keepAlive: keepAlive, idle: idle}
}

func (d quicDialer) Dial(ctx context.Context, addr string, tlsConf *tls.Config) (Session, error) {
	conn, err := quic.DialAddr(ctx, addr, tlsConf, &quic.Config{
		KeepAlivePeriod: d.keepAlive,
		MaxIdleTimeout:  d.idle,
	})
	if err != nil {
		return nil, err
	}
	return quicSession{conn: conn}, nil
}

type quicSession struct{ conn *quic.Conn }

func (s quicSession) Done() <-chan struct{} { return s.conn.Context().Done() }
func (s quicSession) Err() error            { return context.Cause(s.conn.Context()) }
func (s quicSession) ALPN() string          { return s.conn.ConnectionState().TLS.NegotiatedProtocol }
func (s quicSession) Close() error          { return s.conn.CloseWithError(0, "client stop") }
