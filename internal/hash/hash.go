// Package hash fingerprints dump sources and blockette content with xxHash64.
package hash

import "github.com/cespare/xxhash/v2"

// Lines computes the xxHash64 of lines joined by newlines.
// Leading and trailing whitespace is part of the hash.
func Lines(lines []string) uint64 {
	d := xxhash.New()
	for _, line := range lines {
		_, _ = d.WriteString(line)
		_, _ = d.WriteString("\n")
	}

	return d.Sum64()
}

// Digest accumulates an xxHash64 over a sequence of string parts.
// Parts are separated by a zero byte so that ("ab", "c") and ("a", "bc") differ.
type Digest struct {
	d *xxhash.Digest
}

// NewDigest returns an empty Digest.
func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

// Add appends parts to the digest.
func (d *Digest) Add(parts ...string) {
	for _, p := range parts {
		_, _ = d.d.WriteString(p)
		_, _ = d.d.Write([]byte{0})
	}
}

// Sum64 returns the current hash value.
func (d *Digest) Sum64() uint64 {
	return d.d.Sum64()
}
