package crypto

import (
	"errors"

	"golang.org/x/crypto/nacl/box"
)

var (
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")
)

// Channel seals and opens messages for one peer pairing.
type Channel interface {
	// Encrypt seals plaintext under a fresh nonce and returns the hex frame.
	Encrypt(plaintext []byte) (string, error)
	// Decrypt opens a hex frame. It returns no data on failure.
	Decrypt(frame string) ([]byte, error)
	// SharedSecretLabel is a one-way printable label of the shared secret.
	// Both ends of a pairing compute the same label.
	SharedSecretLabel() string
}

// BoxChannel implements Channel with NaCl box (X25519, XSalsa20-Poly1305).
// It holds no state besides the precomputed key and is safe for concurrent use.
type BoxChannel struct {
	ctx   *Context
	key   [KeySize]byte
	label string
}

var _ Channel = (*BoxChannel)(nil)

// NewBoxChannel precomputes the box key for (privateKey, peerPublicKey).
func NewBoxChannel(ctx *Context, privateKey, peerPublicKey [KeySize]byte) (*BoxChannel, error) {
	if _, err := ECDH(privateKey, peerPublicKey); err != nil {
		return nil, err
	}
	c := &BoxChannel{ctx: ctx}
	box.Precompute(&c.key, &peerPublicKey, &privateKey)

	label, err := deriveLabel(c.key)
	if err != nil {
		return nil, err
	}
	c.label = label
	return c, nil
}

func (c *BoxChannel) Encrypt(plaintext []byte) (string, error) {
	if len(plaintext) > MaxPlaintext {
		return "", ErrFrameTooLarge
	}
	nonce, err := deriveNonce(c.ctx, &c.key, plaintext)
	if err != nil {
		return "", err
	}
	sealed := box.SealAfterPrecomputation(nil, plaintext, &nonce, &c.key)
	return EncodeFrame(nonce, sealed), nil
}

func (c *BoxChannel) Decrypt(frame string) ([]byte, error) {
	nonce, sealed, err := DecodeFrame(frame)
	if err != nil {
		return nil, err
	}
	plaintext, ok := box.OpenAfterPrecomputation(nil, sealed, &nonce, &c.key)
	if !ok {
		return nil, ErrAuthenticationFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func (c *BoxChannel) SharedSecretLabel() string { return c.label }
