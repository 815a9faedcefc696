package jsonrpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/rpc/json"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/TheusHen/rendezvous/rdv/directory"
	"github.com/TheusHen/rendezvous/rdv/internal/logutil"
	"github.com/TheusHen/rendezvous/rdv/metrics"
	"github.com/TheusHen/rendezvous/rdv/transport"
)

const (
	DefaultUserAgent = "HotJava/1.1.2 FCS"
	DefaultTimeout   = 30 * time.Second

	maxResponseSize = 4 << 20
)

// Client is a directory.Directory backed by a remote JSON-RPC service.
type Client struct {
	endpoint  string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       logrus.FieldLogger
	metrics   *metrics.Metrics
}

var _ directory.Directory = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient sets the client used for every request, typically one
// built by the transport package.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps the request rate. Waiting for a token honours the
// request context.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = logutil.OrDiscard(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient returns a client for the service at rawURL. When rawURL has no
// path, "/rpc" is appended.
func NewClient(rawURL string, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint(rawURL),
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		log:       logutil.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint is the URL requests are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) Add(ctx context.Context, name, entry string, mode directory.Mode) error {
	if name == "" || entry == "" {
		return directory.ErrInvalidArgs
	}
	var reply StatusReply
	args := &EntryArgs{Name: name, Entry: entry, Mode: string(mode)}
	return c.call(ctx, MethodAdd, args, &reply)
}

func (c *Client) List(ctx context.Context, name string) ([]string, error) {
	if name == "" {
		return nil, directory.ErrInvalidArgs
	}
	var reply EntriesReply
	if err := c.call(ctx, MethodList, &EntriesArgs{Name: name}, &reply); err != nil {
		return nil, err
	}
	return reply.Entries, nil
}

func (c *Client) Remove(ctx context.Context, name, entry string) error {
	if name == "" {
		return directory.ErrInvalidArgs
	}
	var reply StatusReply
	args := &EntryArgs{Name: name, Entry: entry}
	return c.call(ctx, MethodRemove, args, &reply)
}

// Close releases idle connections of the underlying transport.
func (c *Client) Close() error {
	transport.CloseIdle(c.http)
	return nil
}

func (c *Client) call(ctx context.Context, method string, args, reply interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %s: %v", directory.ErrDirectoryUnavailable, method, err)
		}
	}

	start := time.Now()
	err := c.roundTrip(ctx, method, args, reply)
	result := "error"
	if err == nil {
		result = "success"
		if r, ok := reply.(*StatusReply); ok && r.Status != StatusSuccess {
			result = "rejected"
			err = fmt.Errorf("%w: %s status %q", directory.ErrRejected, method, r.Status)
		}
	}
	elapsed := time.Since(start)
	c.metrics.RPCFinished(method, result, elapsed)

	log := c.log.WithFields(logrus.Fields{
		"method":  method,
		"elapsed": elapsed,
	})
	if err != nil {
		log.WithError(err).Debug("rpc call failed")
		return err
	}
	log.Trace("rpc call")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method string, args, reply interface{}) error {
	body, err := json.EncodeClientRequest(method, args)
	if err != nil {
		return fmt.Errorf("jsonrpc: encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("jsonrpc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", directory.ErrDirectoryUnavailable, method, err)
	}
	defer resp.Body.Close()

	// Method errors may come back as 400 with an error member.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return fmt.Errorf("%w: %s: http status %d", directory.ErrDirectoryUnavailable, method, resp.StatusCode)
	}

	if err := json.DecodeClientResponse(io.LimitReader(resp.Body, maxResponseSize), reply); err != nil {
		return fmt.Errorf("%w: %s: %v", directory.ErrDirectoryUnavailable, method, err)
	}
	return nil
}

func endpoint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/rpc"
	}
	return strings.TrimSuffix(u.String(), "?")
}
