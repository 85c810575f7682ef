package hash

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
)

func TestLines(t *testing.T) {
	a := []string{"B050F03 Station: ANMO", "B050F16 Network: IU"}
	b := []string{"B050F03 Station: ANMO", "B050F16 Network: IU"}
	c := []string{"B050F03 Station: ANMO", "B050F16 Network: IC"}

	assert.Equal(t, Lines(a), Lines(b))
	assert.NotEqual(t, Lines(a), Lines(c))
	assert.Equal(t, xxhash.Sum64String("B050F03 Station: ANMO\nB050F16 Network: IU\n"), Lines(a))
}

func TestDigest_SeparatesParts(t *testing.T) {
	d1 := NewDigest()
	d1.Add("ab", "c")

	d2 := NewDigest()
	d2.Add("a", "bc")

	d3 := NewDigest()
	d3.Add("ab")
	d3.Add("c")

	assert.NotEqual(t, d1.Sum64(), d2.Sum64())
	assert.Equal(t, d1.Sum64(), d3.Sum64())
}

func BenchmarkLines(b *testing.B) {
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = "B053F10-13    0  -3.70040E-02  3.70080E-02  0.00000E+00  0.00000E+00"
	}
	b.ResetTimer()
	for b.Loop() {
		Lines(lines)
	}
}
