package chunker

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Algorithm selects the block digest. It implements pflag.Value so an
// unknown name is rejected while flags are parsed.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

var Algorithms = []Algorithm{MD5, SHA256}

func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case MD5, SHA256:
		return a, nil
	}
	return "", fmt.Errorf("invalid choice %q (choose from md5, sha256)", s)
}

func (a *Algorithm) Set(s string) error {
	parsed, err := ParseAlgorithm(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Algorithm) String() string { return string(a) }

func (a Algorithm) Type() string { return "algorithm" }

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() hash.Hash {
	if a == SHA256 {
		return sha256.New()
	}
	return md5.New()
}

// HexWidth is the length of a hex encoded digest.
func (a Algorithm) HexWidth() int {
	if a == SHA256 {
		return sha256.Size * 2
	}
	return md5.Size * 2
}

// Hasher digests blocks one at a time, reusing its hash state and buffer.
// Not safe for concurrent use.
type Hasher struct {
	h   hash.Hash
	sum []byte
}

func NewHasher(a Algorithm) *Hasher {
	h := a.New()
	return &Hasher{h: h, sum: make([]byte, 0, h.Size())}
}

// Sum returns the lowercase hex digest of block.
func (h *Hasher) Sum(block []byte) string {
	h.h.Reset()
	h.h.Write(block)
	h.sum = h.h.Sum(h.sum[:0])
	return hex.EncodeToString(h.sum)
}
