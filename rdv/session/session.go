package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TheusHen/rendezvous/rdv/crypto"
	"github.com/TheusHen/rendezvous/rdv/directory"
	"github.com/TheusHen/rendezvous/rdv/identity"
	"github.com/TheusHen/rendezvous/rdv/internal/logutil"
	"github.com/TheusHen/rendezvous/rdv/metrics"
	"github.com/TheusHen/rendezvous/rdv/naming"
	"github.com/TheusHen/rendezvous/rdv/payload"
)

const (
	// DefaultInitiatorHandshakeAttempts tolerates a contributor that joins late.
	DefaultInitiatorHandshakeAttempts = 100
	// DefaultContributorHandshakeAttempts expects the initiator to be waiting.
	DefaultContributorHandshakeAttempts = 10
	DefaultExchangeAttempts             = 10
	DefaultIterations                   = 1

	// MaxIterations keeps a whole session within one name chain; every
	// iteration advances the chain twice.
	MaxIterations = naming.MaxGeneration / 2

	cleanupTimeout = 5 * time.Second
)

// Retention requested for each kind of entry.
const (
	ModeAnnounce = directory.ModeLong
	ModeReplyKey = directory.ModeDefault
	ModeMessage  = directory.ModeShort
)

// RequestFunc produces the initiator's message for an iteration (1-based).
type RequestFunc func(ctx context.Context, iteration int) ([]byte, error)

// ReplyFunc receives the contributor's reply for an iteration.
type ReplyFunc func(ctx context.Context, iteration int, reply []byte) error

// RespondFunc answers the initiator's request for an iteration.
type RespondFunc func(ctx context.Context, iteration int, request []byte) ([]byte, error)

// Config describes one session. Name is the well-known session name, already
// encoded with naming.SessionName.
type Config struct {
	Identity   *identity.Identity
	Directory  directory.Directory
	Name       naming.Name
	Iterations int

	HandshakePoll directory.PollOptions
	ExchangePoll  directory.PollOptions

	Codec   payload.Codec
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

func (c Config) validate() error {
	switch {
	case c.Identity == nil:
		return fmt.Errorf("%w: missing identity", ErrInvalidConfig)
	case c.Directory == nil:
		return fmt.Errorf("%w: missing directory", ErrInvalidConfig)
	case c.Name == "":
		return fmt.Errorf("%w: missing session name", ErrInvalidConfig)
	case c.Iterations < 0:
		return fmt.Errorf("%w: negative iterations", ErrInvalidConfig)
	case c.Iterations > MaxIterations:
		return fmt.Errorf("%w: more than %d iterations", ErrInvalidConfig, MaxIterations)
	}
	return nil
}

func (c Config) withDefaults(role Role) Config {
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.HandshakePoll.MaxAttempts <= 0 {
		if role == RoleInitiator {
			c.HandshakePoll.MaxAttempts = DefaultInitiatorHandshakeAttempts
		} else {
			c.HandshakePoll.MaxAttempts = DefaultContributorHandshakeAttempts
		}
	}
	if c.ExchangePoll.MaxAttempts <= 0 {
		c.ExchangePoll.MaxAttempts = DefaultExchangeAttempts
	}
	c.Codec = payload.OrRaw(c.Codec)
	c.Logger = logutil.OrDiscard(c.Logger)
	return c
}

// Session runs one rendezvous for one role. It runs at most once and is
// driven by a single goroutine; State and Err may be read concurrently.
type Session struct {
	id     uuid.UUID
	role   Role
	cfg    Config
	log    logrus.FieldLogger
	poller directory.Poller

	channel crypto.Channel
	chain   *naming.Chain

	mu      sync.Mutex
	state   State
	err     error
	ran     bool
	visited []naming.Name
}

func New(role Role, cfg Config) (*Session, error) {
	if role != RoleInitiator && role != RoleContributor {
		return nil, fmt.Errorf("%w: unknown role %d", ErrInvalidConfig, int(role))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults(role)

	id := uuid.New()
	log := cfg.Logger.WithFields(logrus.Fields{
		"session": id.String(),
		"role":    role.String(),
	})
	return &Session{
		id:   id,
		role: role,
		cfg:  cfg,
		log:  log,
		poller: directory.Poller{
			Directory: cfg.Directory,
			Logger:    log,
			Metrics:   cfg.Metrics,
		},
		state: StateIdle,
	}, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Role() Role { return s.role }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that failed the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Visited returns every directory name the session used, in order:
// the session name, the private handshake name, then the exchange chain.
func (s *Session) Visited() []naming.Name {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]naming.Name, len(s.visited))
	copy(out, s.visited)
	return out
}

// Handlers bundles the callbacks of both roles for Run.
type Handlers struct {
	Request RequestFunc
	Reply   ReplyFunc
	Respond RespondFunc
}

// Run executes the session for its role.
func (s *Session) Run(ctx context.Context, h Handlers) error {
	if s.role == RoleInitiator {
		return s.RunInitiator(ctx, h.Request, h.Reply)
	}
	return s.RunContributor(ctx, h.Respond)
}

func (s *Session) begin(role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != role {
		return fmt.Errorf("%w: session is %s", ErrWrongRole, s.role)
	}
	if s.ran {
		return ErrAlreadyRun
	}
	s.ran = true
	return nil
}

func (s *Session) transition(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{
		"from": prev.String(),
		"to":   next.String(),
	}).Trace("state")
}

func (s *Session) visit(name naming.Name) {
	s.mu.Lock()
	s.visited = append(s.visited, name)
	s.mu.Unlock()
}

// fail moves the session to Failed and returns the wrapped cause.
func (s *Session) fail(step string, iteration int, err error) error {
	s.mu.Lock()
	stepErr := &StepError{Step: step, State: s.state, Iteration: iteration, Err: err}
	s.state = StateFailed
	s.err = stepErr
	s.mu.Unlock()

	s.log.WithError(err).WithFields(logrus.Fields{
		"step":      step,
		"iteration": iteration,
	}).Warn("session failed")
	s.cfg.Metrics.SessionFinished(s.role.String(), result(err))
	return stepErr
}

func (s *Session) complete() {
	s.transition(StateCompleted)
	s.log.WithField("iterations", s.cfg.Iterations).Info("session completed")
	s.cfg.Metrics.SessionFinished(s.role.String(), "completed")
}

func result(err error) string {
	switch {
	case errors.Is(err, directory.ErrRendezvousTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, crypto.ErrAuthenticationFailed), errors.Is(err, crypto.ErrMalformedFrame):
		return "rejected"
	default:
		return "failed"
	}
}

// keyUp derives the channel from the peer key and starts the name chain.
func (s *Session) keyUp(peerKey string) error {
	ch, err := s.cfg.Identity.DeriveChannel(peerKey)
	if err != nil {
		return err
	}
	chain, err := naming.NewChain(naming.FromSecret(identity.SharedSecretLabel(ch)))
	if err != nil {
		return err
	}
	s.channel = ch
	s.chain = chain
	s.visit(chain.Current())
	s.log.WithField("peer", identity.FingerprintOf(peerKey).Short()).Debug("keyed up")
	return nil
}

// send seals msg, publishes it under the current name and advances past it.
func (s *Session) send(ctx context.Context, iteration int, msg []byte) error {
	encoded, err := s.cfg.Codec.Encode(msg)
	if err != nil {
		return s.fail(StepEncode, iteration, err)
	}
	frame, err := s.channel.Encrypt(encoded)
	if err != nil {
		return s.fail(StepEncode, iteration, err)
	}
	if err := s.cfg.Directory.Add(ctx, string(s.chain.Current()), frame, ModeMessage); err != nil {
		return s.fail(StepSend, iteration, err)
	}
	s.transition(StateSent)
	return s.advance(iteration, frame)
}

// receive waits for the frame under the current name, opens it and
// advances past it.
func (s *Session) receive(ctx context.Context, iteration int) ([]byte, error) {
	frame, err := s.poller.WaitAndRemove(ctx, string(s.chain.Current()), s.cfg.ExchangePoll)
	if err != nil {
		return nil, s.fail(StepAwaitMessage, iteration, err)
	}
	opened, err := s.channel.Decrypt(frame)
	if err != nil {
		return nil, s.fail(StepDecrypt, iteration, err)
	}
	msg, err := s.cfg.Codec.Decode(opened)
	if err != nil {
		return nil, s.fail(StepDecrypt, iteration, err)
	}
	s.transition(StateReceived)
	if err := s.advance(iteration, frame); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Session) advance(iteration int, frame string) error {
	next, err := s.chain.Advance(frame)
	if err != nil {
		return s.fail(StepAdvance, iteration, err)
	}
	s.visit(next)
	return nil
}

// forget removes an entry this session published, ignoring failures.
func (s *Session) forget(ctx context.Context, name naming.Name, entry string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.cfg.Directory.Remove(ctx, string(name), entry); err != nil {
		s.log.WithError(err).Debug("could not withdraw announcement")
	}
}
