package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

const (
	// nonceEntropy is the number of fresh random bytes mixed into every nonce.
	nonceEntropy = 32

	labelInfo = "rdv/shared-secret-label/v1"
)

// DeriveKey derives a key of the specified length using HKDF-SHA256.
// salt can be nil (uses zero salt), info provides context binding.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	hk := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, err
	}
	return key, nil
}

// deriveNonce binds a nonce to the channel key and the message while mixing
// in fresh randomness: BLAKE2b-192(key; message || entropy).
// With a deterministic Context reader the result is reproducible.
func deriveNonce(ctx *Context, key *[KeySize]byte, message []byte) ([NonceSize]byte, error) {
	var nonce [NonceSize]byte
	entropy := make([]byte, nonceEntropy)
	if _, err := ctx.Read(entropy); err != nil {
		return nonce, err
	}
	h, err := blake2b.New(NonceSize, key[:])
	if err != nil {
		return nonce, err
	}
	h.Write(message)
	h.Write(entropy)
	copy(nonce[:], h.Sum(nil))
	return nonce, nil
}

// deriveLabel maps the channel key to a printable label. HKDF is one-way, so
// the label never reveals the key it was derived from.
func deriveLabel(key [KeySize]byte) (string, error) {
	out, err := DeriveKey(key[:], nil, []byte(labelInfo), sha256.Size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(out), nil
}
