// Package payload encodes application messages before they are sealed.
// Both peers of a session must agree on the codec.
package payload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TheusHen/rendezvous/rdv/crypto"
)

// MaxSize bounds a decoded message. It leaves room for the LZ4 flag byte
// inside a sealed frame.
const MaxSize = crypto.MaxPlaintext - 1

var (
	ErrUnknownCodec = errors.New("payload: unknown codec")
	ErrCorrupt      = errors.New("payload: corrupt message")
	ErrTooLarge     = errors.New("payload: message too large")
)

type Codec interface {
	Encode(plaintext []byte) ([]byte, error)
	Decode(encoded []byte) ([]byte, error)
	Name() string
}

// Raw passes messages through unchanged. It is the default, and the only
// codec understood by clients that do not know about codecs.
type Raw struct{}

func (Raw) Name() string { return "raw" }

func (Raw) Encode(plaintext []byte) ([]byte, error) {
	if len(plaintext) > MaxSize {
		return nil, ErrTooLarge
	}
	return plaintext, nil
}

func (Raw) Decode(encoded []byte) ([]byte, error) { return encoded, nil }

// Lookup returns the codec registered under name. The empty name is Raw.
func Lookup(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "raw":
		return Raw{}, nil
	case "lz4":
		return LZ4{}, nil
	case "lz4-fast":
		return LZ4{Level: CompressionFast}, nil
	case "lz4-best":
		return LZ4{Level: CompressionBest}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// OrRaw returns c, or Raw when c is nil.
func OrRaw(c Codec) Codec {
	if c == nil {
		return Raw{}
	}
	return c
}
