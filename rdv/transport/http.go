// Package transport builds the HTTP clients used to reach a directory.
//
// The rendezvous core treats the returned client as opaque: anonymity comes
// from routing it through a SOCKS5 proxy such as Tor, never from the
// protocol itself.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/net/proxy"
)

// Kind selects how requests reach the directory.
type Kind string

const (
	KindDirect Kind = "direct"
	KindSOCKS5 Kind = "socks5"
	KindHTTP3  Kind = "h3"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultTorSocks  = "127.0.0.1:9050"
	idleConnsPerHost = 4
)

var ErrUnknownKind = errors.New("transport: unknown kind")

type Options struct {
	Kind Kind
	// ProxyAddr is the SOCKS5 proxy (host:port). Defaults to the local Tor port.
	ProxyAddr string
	Timeout   time.Duration
	// InsecureSkipVerify disables certificate checks, for self-signed
	// development servers.
	InsecureSkipVerify bool
}

// ParseKind maps a configuration string to a Kind. The empty string is
// KindDirect.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindDirect:
		return KindDirect, nil
	case KindSOCKS5, "tor":
		return KindSOCKS5, nil
	case KindHTTP3, "http3":
		return KindHTTP3, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// NewHTTPClient returns a client for opts.Kind.
func NewHTTPClient(opts Options) (*http.Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	tlsConf := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify,
	}

	var rt http.RoundTripper
	switch opts.Kind {
	case "", KindDirect:
		rt = &http.Transport{
			Proxy:               nil,
			DialContext:         (&net.Dialer{Timeout: opts.Timeout}).DialContext,
			TLSClientConfig:     tlsConf,
			MaxIdleConnsPerHost: idleConnsPerHost,
			ForceAttemptHTTP2:   true,
		}
	case KindSOCKS5:
		dial, err := socksDialer(opts.ProxyAddr, opts.Timeout)
		if err != nil {
			return nil, err
		}
		rt = &http.Transport{
			Proxy:               nil,
			DialContext:         dial,
			TLSClientConfig:     tlsConf,
			MaxIdleConnsPerHost: idleConnsPerHost,
		}
	case KindHTTP3:
		tlsConf.MinVersion = tls.VersionTLS13
		rt = &http3.Transport{
			TLSClientConfig: tlsConf,
			QUICConfig: &quic.Config{
				HandshakeIdleTimeout: opts.Timeout,
			},
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}

	return &http.Client{
		Transport: rt,
		Timeout:   opts.Timeout,
	}, nil
}

// socksDialer dials through a SOCKS5 proxy. Host names are sent to the
// proxy unresolved, so lookups happen on the far side (socks5h).
func socksDialer(addr string, timeout time.Duration) (func(ctx context.Context, network, address string) (net.Conn, error), error) {
	if addr == "" {
		addr = DefaultTorSocks
	}
	forward := &net.Dialer{Timeout: timeout}
	d, err := proxy.SOCKS5("tcp", addr, nil, forward)
	if err != nil {
		return nil, fmt.Errorf("transport: socks5 %s: %w", addr, err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("transport: socks5 dialer does not support contexts")
	}
	return cd.DialContext, nil
}

// CloseIdle releases pooled connections held by c, including QUIC ones.
func CloseIdle(c *http.Client) {
	if c == nil {
		return
	}
	switch rt := c.Transport.(type) {
	case *http3.Transport:
		_ = rt.Close()
	case interface{ CloseIdleConnections() }:
		rt.CloseIdleConnections()
	}
}
