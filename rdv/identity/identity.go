// Package identity holds the static keypair of a rendezvous participant.
package identity

import (
	"github.com/TheusHen/rendezvous/rdv/crypto"
)

// Identity is immutable after construction. The private key never leaves it.
type Identity struct {
	ctx     *crypto.Context
	keyPair crypto.KeyPair
	public  string
}

// Generate creates an identity with a fresh keypair drawn from ctx.
// It fails with crypto.ErrCryptoUnavailable when no randomness is available.
func Generate(ctx *crypto.Context) (*Identity, error) {
	kp, err := ctx.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(ctx, kp), nil
}

// New wraps an existing keypair.
func New(ctx *crypto.Context, kp crypto.KeyPair) *Identity {
	return &Identity{ctx: ctx, keyPair: kp, public: kp.PublicKeyHex()}
}

// PublicKey returns the hex encoded public key, as published in the directory.
func (id *Identity) PublicKey() string { return id.public }

func (id *Identity) Fingerprint() Fingerprint {
	return FingerprintFromPublicKey(id.keyPair.PublicKey[:])
}

// DeriveChannel returns a channel bound to (own private key, peerPublicKey).
func (id *Identity) DeriveChannel(peerPublicKey string) (crypto.Channel, error) {
	peer, err := crypto.ParsePublicKey(peerPublicKey)
	if err != nil {
		return nil, err
	}
	return crypto.NewBoxChannel(id.ctx, id.keyPair.PrivateKey, peer)
}

// SharedSecretLabel returns the one-way label of the channel's shared secret,
// suitable as input for naming.FromSecret.
func SharedSecretLabel(ch crypto.Channel) string {
	return ch.SharedSecretLabel()
}
