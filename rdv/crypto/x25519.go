package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/curve25519"
)

const KeySize = 32

var (
	ErrCryptoUnavailable = errors.New("crypto: randomness unavailable")
	ErrInvalidPeerKey    = errors.New("crypto: invalid X25519 public key")
)

// KeyPair is a static X25519 keypair.
type KeyPair struct {
	PublicKey  [KeySize]byte
	PrivateKey [KeySize]byte
}

// Context carries the random source used for key generation and nonces.
// It replaces any process-wide crypto initialization: callers construct one
// and pass it down, tests inject a deterministic reader.
// A nil *Context reads from crypto/rand.
type Context struct {
	mu   sync.Mutex
	rand io.Reader
}

// NewContext creates a context reading from r. A nil r selects crypto/rand.
func NewContext(r io.Reader) *Context {
	if r == nil {
		r = rand.Reader
	}
	return &Context{rand: r}
}

// DefaultContext returns a context backed by the platform CSPRNG.
func DefaultContext() *Context { return NewContext(rand.Reader) }

// Read fills b completely or fails with ErrCryptoUnavailable.
// Reads are serialized so that injected readers need not be goroutine safe.
func (c *Context) Read(b []byte) (int, error) {
	r := io.Reader(rand.Reader)
	if c != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		r = c.rand
	}
	n, err := io.ReadFull(r, b)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	return n, nil
}

// GenerateKeyPair generates a new X25519 keypair.
func (c *Context) GenerateKeyPair() (KeyPair, error) {
	var kp KeyPair
	if _, err := c.Read(kp.PrivateKey[:]); err != nil {
		return KeyPair{}, err
	}
	// Clamp private key per RFC 7748
	kp.PrivateKey[0] &= 248
	kp.PrivateKey[31] &= 127
	kp.PrivateKey[31] |= 64

	pub, err := curve25519.X25519(kp.PrivateKey[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	copy(kp.PublicKey[:], pub)
	return kp, nil
}

// PublicKeyHex returns the printable form of the public key.
func (kp KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(kp.PublicKey[:])
}

// ParsePublicKey decodes a hex encoded X25519 public key.
func ParsePublicKey(s string) ([KeySize]byte, error) {
	var pub [KeySize]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return pub, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
	}
	if len(b) != KeySize {
		return pub, fmt.Errorf("%w: length %d", ErrInvalidPeerKey, len(b))
	}
	copy(pub[:], b)
	var zero [KeySize]byte
	if pub == zero {
		return pub, ErrInvalidPeerKey
	}
	return pub, nil
}

// ECDH computes the raw X25519 shared secret.
// Low-order peer points, which would yield an all-zero secret, are rejected.
func ECDH(privateKey, peerPublicKey [KeySize]byte) ([]byte, error) {
	var zero [KeySize]byte
	if peerPublicKey == zero {
		return nil, ErrInvalidPeerKey
	}
	shared, err := curve25519.X25519(privateKey[:], peerPublicKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
	}
	return shared, nil
}
