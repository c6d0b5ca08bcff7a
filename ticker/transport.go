package ticker

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
)

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection. It is
// nil when utls cannot build the spec; dials then use HelloChrome_Auto.
var chromeH1Spec *tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		slog.Warn("chrome tls spec unavailable, falling back to HelloChrome_Auto", "error", err)
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = &spec
}

// chromeConn wraps conn in a Chrome-fingerprinted TLS client.
func chromeConn(conn net.Conn, host string, spec *tls.ClientHelloSpec) (*tls.UConn, error) {
	if spec == nil {
		// Pin ALPN to http/1.1 here too; the transport below cannot speak h2.
		return tls.UClient(conn, &tls.Config{ServerName: host, NextProtos: []string{"http/1.1"}}, tls.HelloChrome_Auto), nil
	}
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(spec); err != nil {
		return nil, fmt.Errorf("registry: apply tls spec: %w", err)
	}
	return tlsConn, nil
}

// newChromeClient returns an HTTP client whose TLS handshakes look like
// Chrome's. Registry hosts front their JSON with the same bot screening as
// their HTML pages.
func newChromeClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn, err := chromeConn(conn, host, chromeH1Spec)
			if err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}
