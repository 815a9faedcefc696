package naming

import (
	"crypto/sha256"
	"encoding/hex"
)

// Name is a directory key: 64 lowercase hex characters.
type Name string

func (n Name) String() string { return string(n) }

// Short returns a prefix suitable for log fields.
func (n Name) Short() string {
	if len(n) <= 8 {
		return string(n)
	}
	return string(n[:8])
}

func hash(s string) Name {
	sum := sha256.Sum256([]byte(s))
	return Name(hex.EncodeToString(sum[:]))
}

// FromSecret names the first post-handshake slot of a session.
func FromSecret(label string) Name { return hash(label) }

// FromPayload names the slot following a frame.
func FromPayload(frame string) Name { return hash(frame) }

// FromCompound names the private handshake slot for a participant's key.
func FromCompound(base, suffix string) Name { return hash(base + "." + suffix) }

// SessionName returns the well-known session name. When encode is set the
// label is hashed so the literal label never reaches the directory.
func SessionName(label string, encode bool) Name {
	if encode {
		return hash(label)
	}
	return Name(label)
}
