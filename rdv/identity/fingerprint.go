package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint identifies a participant in logs without printing its key.
// It is defined as: Fingerprint = SHA-256(PublicKey).
type Fingerprint [32]byte

func FingerprintFromPublicKey(publicKey []byte) Fingerprint {
	return Fingerprint(sha256.Sum256(publicKey))
}

// FingerprintOf fingerprints a hex public key as received from the directory.
// Undecodable input is fingerprinted as raw text.
func FingerprintOf(publicKeyHex string) Fingerprint {
	b, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		b = []byte(publicKeyHex)
	}
	return FingerprintFromPublicKey(b)
}

func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:])
}

// Short is the 8 byte prefix used in log fields.
func (fp Fingerprint) Short() string {
	return hex.EncodeToString(fp[:8])
}
