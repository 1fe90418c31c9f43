// Package digest computes and compares content digests. A digest is a
// deterministic fingerprint of a byte sequence, rendered as
// "algorithm:hex" so stored values stay unambiguous if the configured
// algorithm ever changes.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm identifies a supported digest algorithm
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// DefaultAlgorithm is used when no algorithm is configured
const DefaultAlgorithm = SHA256

// Valid reports whether the algorithm is supported
func (a Algorithm) Valid() bool {
	return a == SHA256 || a == BLAKE3
}

// Digest is an algorithm-qualified content fingerprint, e.g.
// "sha256:9f86d0...". The zero value means "no digest supplied".
type Digest string

// IsZero reports whether no digest was supplied
func (d Digest) IsZero() bool {
	return d == ""
}

// Algorithm returns the algorithm part of the digest
func (d Digest) Algorithm() Algorithm {
	alg, _, ok := strings.Cut(string(d), ":")
	if !ok {
		return ""
	}
	return Algorithm(alg)
}

// Hex returns the hex part of the digest
func (d Digest) Hex() string {
	_, hexPart, _ := strings.Cut(string(d), ":")
	return hexPart
}

// Equal compares two digests after normalization. Digests under
// different algorithms never compare equal.
func (d Digest) Equal(other Digest) bool {
	return normalize(d) == normalize(other)
}

// Normalized returns the canonical lowercase form, suitable as a map
// or index key.
func (d Digest) Normalized() Digest {
	return normalize(d)
}

func normalize(d Digest) Digest {
	return Digest(strings.ToLower(strings.TrimSpace(string(d))))
}

// Parse validates a digest string of the form "algorithm:hex"
func Parse(raw string) (Digest, error) {
	normalized := normalize(Digest(raw))
	alg, hexPart, ok := strings.Cut(string(normalized), ":")
	if !ok {
		return "", fmt.Errorf("digest %q: missing algorithm prefix", raw)
	}
	if !Algorithm(alg).Valid() {
		return "", fmt.Errorf("digest %q: unsupported algorithm %q", raw, alg)
	}
	decoded, err := hex.DecodeString(hexPart)
	if err != nil {
		return "", fmt.Errorf("digest %q: %w", raw, err)
	}
	if len(decoded) != sizeBytes(Algorithm(alg)) {
		return "", fmt.Errorf("digest %q: hash is %d bytes, want %d", raw, len(decoded), sizeBytes(Algorithm(alg)))
	}
	return normalized, nil
}

func sizeBytes(alg Algorithm) int {
	// sha256 and blake3 both emit 32 bytes
	return 32
}

// Digester incrementally hashes a byte stream. Feed it with Write and
// finish with Digest; memory stays constant regardless of input size.
type Digester struct {
	alg Algorithm
	h   hash.Hash
}

// NewDigester creates a streaming digester for the algorithm
func NewDigester(alg Algorithm) (*Digester, error) {
	switch alg {
	case SHA256:
		return &Digester{alg: alg, h: sha256.New()}, nil
	case BLAKE3:
		return &Digester{alg: alg, h: blake3.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", alg)
	}
}

func (d *Digester) Write(p []byte) (int, error) {
	return d.h.Write(p)
}

// Digest finishes the stream and returns the qualified digest
func (d *Digester) Digest() Digest {
	return Digest(fmt.Sprintf("%s:%s", d.alg, hex.EncodeToString(d.h.Sum(nil))))
}

// FromBytes hashes a buffer in one call
func FromBytes(alg Algorithm, data []byte) (Digest, error) {
	d, err := NewDigester(alg)
	if err != nil {
		return "", err
	}
	d.Write(data)
	return d.Digest(), nil
}

// FromReader hashes an entire stream and returns the digest with the
// number of bytes consumed.
func FromReader(alg Algorithm, r io.Reader) (Digest, int64, error) {
	d, err := NewDigester(alg)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(d, r)
	if err != nil {
		return "", n, err
	}
	return d.Digest(), n, nil
}
