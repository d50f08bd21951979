// Package fetch provides the shared HTTP client with a Chrome TLS
// fingerprint, used by the classification probe and the file downloader.
package fetch

import (
	"context"
	"net"
	"net/http"

	tls "github.com/refraction-networking/utls"
)

// ChromeUA is the User-Agent sent on every probe and download request.
const ChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// newChromeH1Spec builds a Chrome-like TLS ClientHello with ALPN forced
// to http/1.1 only, so the server never negotiates HTTP/2, which Go's
// http.Transport cannot handle over a utls connection.
//
// utls mutates the spec's extension structs during the handshake, so a
// fresh spec is built per connection. Never share the returned spec
// between connections.
func newChromeH1Spec() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return &spec, nil
}

// NewClient returns an *http.Client whose TLS handshakes carry a Chrome
// fingerprint. Redirects are followed (default policy). The caller owns
// per-request timeouts via context.
func NewClient() *http.Client {
	transport := &http.Transport{
		DialTLSContext: dialTLSChrome,
	}
	return &http.Client{Transport: transport}
}

// dialTLSChrome establishes a TLS connection using a per-connection
// Chrome ClientHello spec.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)

	spec, err := newChromeH1Spec()
	if err != nil {
		// Spec generation failed; fall back to the stock Chrome preset.
		tlsConn := tls.UClient(rawConn, &tls.Config{ServerName: host}, tls.HelloChrome_Auto)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			rawConn.Close()
			return nil, err
		}
		return tlsConn, nil
	}

	tlsConn := tls.UClient(rawConn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(spec); err != nil {
		rawConn.Close()
		return nil, err
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// SetBrowserHeaders applies the standard Chrome-looking request headers.
func SetBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", ChromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
