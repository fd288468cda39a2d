package hysteria

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hy2core/internal/telemetry"
)

func selfSignedTLS(t *testing.T) *tls.Config {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "hy2.test"},
		DNSNames:     []string{"hy2.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
		NextProtos:   []string{"h3"},
	}
}

// TestQUICSession runs the engine against a local quic-go listener.
func TestQUICSession(t *testing.T) {
	ln, err := quic.ListenAddr("127.0.0.1:0", selfSignedTLS(t), nil)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan *quic.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept(context.Background())
			if err != nil {
				return
			}
			accepted <- conn
		}
	}()

	port := ln.Addr().(*net.UDPAddr).Port
	cfg := fmt.Sprintf(`{"outbounds":[{"type":"hysteria2","server":"127.0.0.1","server_port":%d,"password":"p",
		"tls":{"enabled":true,"server_name":"hy2.test","insecure":true}}]}`, port)

	counters := telemetry.NewCounters()
	e := New(Options{Counters: counters, DialTimeout: 3 * time.Second})
	e.newBackoff = quickBackoff
	require.NoError(t, e.Start(cfg))
	defer e.Stop()

	var server *quic.Conn
	select {
	case server = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("no connection accepted")
	}
	require.Eventually(t, e.Connected, 3*time.Second, 10*time.Millisecond)
	sni, alpn := counters.Identity()
	assert.Equal(t, "hy2.test", sni)
	assert.Equal(t, "h3", alpn)

	// server closing the connection makes the engine redial
	require.NoError(t, server.CloseWithError(0, "bye"))
	select {
	case <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not reconnect")
	}
	assert.GreaterOrEqual(t, counters.Reconnects.Load(), uint32(1))
}
