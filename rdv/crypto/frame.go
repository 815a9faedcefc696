package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

const (
	// NonceSize is the length of the nonce prefix of every frame.
	NonceSize = 24

	// Overhead is the Poly1305 tag appended by the box.
	Overhead = box.Overhead

	// MaxPlaintext limits a single sealed message.
	MaxPlaintext = 1 << 20 // 1 MiB
)

var (
	ErrMalformedFrame = errors.New("crypto: malformed frame")
	ErrFrameTooLarge  = errors.New("crypto: frame payload too large")
)

// Frame wire format, hex encoded when stored as a directory entry:
//
//	24 bytes: nonce
//	N bytes:  sealed box (ciphertext || 16 byte tag)
func EncodeFrame(nonce [NonceSize]byte, sealed []byte) string {
	raw := make([]byte, NonceSize+len(sealed))
	copy(raw, nonce[:])
	copy(raw[NonceSize:], sealed)
	return hex.EncodeToString(raw)
}

func DecodeFrame(frame string) ([NonceSize]byte, []byte, error) {
	var nonce [NonceSize]byte
	if len(frame) > 2*(NonceSize+Overhead+MaxPlaintext) {
		return nonce, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, ErrFrameTooLarge)
	}
	raw, err := hex.DecodeString(frame)
	if err != nil {
		return nonce, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(raw) < NonceSize+Overhead {
		return nonce, nil, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(raw))
	}
	copy(nonce[:], raw[:NonceSize])
	return nonce, raw[NonceSize:], nil
}
