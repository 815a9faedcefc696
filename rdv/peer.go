package rdv

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/TheusHen/rendezvous/rdv/config"
	"github.com/TheusHen/rendezvous/rdv/directory"
	"github.com/TheusHen/rendezvous/rdv/directory/jsonrpc"
	"github.com/TheusHen/rendezvous/rdv/identity"
	"github.com/TheusHen/rendezvous/rdv/internal/logutil"
	"github.com/TheusHen/rendezvous/rdv/metrics"
	"github.com/TheusHen/rendezvous/rdv/naming"
	"github.com/TheusHen/rendezvous/rdv/payload"
	"github.com/TheusHen/rendezvous/rdv/session"
	"github.com/TheusHen/rendezvous/rdv/transport"
)

var ErrNoDirectory = errors.New("rdv: no directory")

// Peer is a high-level helper that combines an identity and a directory.
// Every Initiate or Contribute call runs a fresh session; a Peer may run
// several at once.
type Peer struct {
	Identity  *identity.Identity
	Directory directory.Directory

	encodeNames   bool
	handshakePoll directory.PollOptions
	exchangePoll  directory.PollOptions
	codec         payload.Codec
	logger        logrus.FieldLogger
	metrics       *metrics.Metrics
}

type PeerOption func(*Peer)

// WithRawNames uses session names as given instead of hashing them first.
func WithRawNames() PeerOption {
	return func(p *Peer) { p.encodeNames = false }
}

func WithHandshakePoll(o directory.PollOptions) PeerOption {
	return func(p *Peer) { p.handshakePoll = o }
}

func WithExchangePoll(o directory.PollOptions) PeerOption {
	return func(p *Peer) { p.exchangePoll = o }
}

func WithCodec(c payload.Codec) PeerOption {
	return func(p *Peer) { p.codec = c }
}

func WithLogger(l logrus.FieldLogger) PeerOption {
	return func(p *Peer) { p.logger = l }
}

func WithMetrics(m *metrics.Metrics) PeerOption {
	return func(p *Peer) { p.metrics = m }
}

func NewPeer(id *identity.Identity, dir directory.Directory, opts ...PeerOption) *Peer {
	p := &Peer{
		Identity:    id,
		Directory:   dir,
		encodeNames: true,
		codec:       payload.Raw{},
		logger:      logutil.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SessionName returns the directory name used for a session label.
func (p *Peer) SessionName(label string) naming.Name {
	return naming.SessionName(label, p.encodeNames)
}

// NewSession prepares a session without running it.
func (p *Peer) NewSession(role session.Role, label string, iterations int) (*session.Session, error) {
	if p.Directory == nil {
		return nil, ErrNoDirectory
	}
	return session.New(role, session.Config{
		Identity:      p.Identity,
		Directory:     p.Directory,
		Name:          p.SessionName(label),
		Iterations:    iterations,
		HandshakePoll: p.handshakePoll,
		ExchangePoll:  p.exchangePoll,
		Codec:         p.codec,
		Logger:        p.logger,
		Metrics:       p.metrics,
	})
}

// Initiate runs a session as initiator. The session is returned even when it
// failed, so callers can inspect its state and visited names.
func (p *Peer) Initiate(ctx context.Context, label string, iterations int, request session.RequestFunc, reply session.ReplyFunc) (*session.Session, error) {
	s, err := p.NewSession(session.RoleInitiator, label, iterations)
	if err != nil {
		return nil, err
	}
	return s, s.RunInitiator(ctx, request, reply)
}

// Contribute runs a session as contributor.
func (p *Peer) Contribute(ctx context.Context, label string, iterations int, respond session.RespondFunc) (*session.Session, error) {
	s, err := p.NewSession(session.RoleContributor, label, iterations)
	if err != nil {
		return nil, err
	}
	return s, s.RunContributor(ctx, respond)
}

// Close releases the directory's resources when it holds any, such as
// pooled QUIC connections of a JSON-RPC client.
func (p *Peer) Close() error {
	if c, ok := p.Directory.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// OpenDirectory returns a JSON-RPC directory client for cfg, routed through
// the configured transport.
func OpenDirectory(cfg config.DirectoryConfig, opts ...jsonrpc.Option) (*jsonrpc.Client, error) {
	topts, err := cfg.TransportOptions()
	if err != nil {
		return nil, err
	}
	hc, err := transport.NewHTTPClient(topts)
	if err != nil {
		return nil, err
	}

	base := []jsonrpc.Option{jsonrpc.WithHTTPClient(hc)}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		base = append(base, jsonrpc.WithRateLimit(rate.Limit(cfg.RateLimit), burst))
	}
	if cfg.UserAgent != "" {
		base = append(base, jsonrpc.WithUserAgent(cfg.UserAgent))
	}
	return jsonrpc.NewClient(cfg.URL, append(base, opts...)...), nil
}
