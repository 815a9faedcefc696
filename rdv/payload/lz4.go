package payload

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// CompressionLevel controls the speed/ratio tradeoff of LZ4.
type CompressionLevel int

const (
	CompressionDefault CompressionLevel = iota
	CompressionFast
	CompressionBest
)

const (
	flagStored     byte = 0x00
	flagCompressed byte = 0x01
)

var compressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewWriter(nil)
	},
}

var decompressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewReader(nil)
	},
}

// LZ4 prefixes every message with a one-byte flag and compresses the rest
// with an LZ4 frame when that makes it smaller.
type LZ4 struct {
	Level CompressionLevel
}

func (LZ4) Name() string { return "lz4" }

func (c LZ4) Encode(plaintext []byte) ([]byte, error) {
	if len(plaintext) > MaxSize {
		return nil, ErrTooLarge
	}
	compressed, err := compress(plaintext, c.Level)
	if err != nil || len(compressed) >= len(plaintext) {
		out := make([]byte, 0, len(plaintext)+1)
		out = append(out, flagStored)
		return append(out, plaintext...), nil
	}
	out := make([]byte, 0, len(compressed)+1)
	out = append(out, flagCompressed)
	return append(out, compressed...), nil
}

func (LZ4) Decode(encoded []byte) ([]byte, error) {
	if len(encoded) == 0 {
		return nil, fmt.Errorf("%w: missing flag", ErrCorrupt)
	}
	switch encoded[0] {
	case flagStored:
		return append([]byte{}, encoded[1:]...), nil
	case flagCompressed:
		return decompress(encoded[1:])
	default:
		return nil, fmt.Errorf("%w: flag %#x", ErrCorrupt, encoded[0])
	}
}

func compress(data []byte, level CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	w := compressorPool.Get().(*lz4.Writer)
	defer compressorPool.Put(w)

	w.Reset(&buf)

	switch level {
	case CompressionFast:
		_ = w.Apply(lz4.CompressionLevelOption(lz4.Fast))
	case CompressionBest:
		_ = w.Apply(lz4.CompressionLevelOption(lz4.Level9))
	default:
		_ = w.Apply(lz4.CompressionLevelOption(lz4.Level4))
	}

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r := decompressorPool.Get().(*lz4.Reader)
	defer decompressorPool.Put(r)

	r.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if n > MaxSize {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}
