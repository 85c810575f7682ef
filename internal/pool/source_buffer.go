// Package pool recycles the large buffers used to read dump files.
package pool

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/arloliu/dataless/errs"
)

const (
	DefaultBufferSize = 256 << 10 // one single-station dump
	MaxRetainedSize   = 16 << 20  // larger buffers are dropped on Put
	minRead           = 32 << 10
)

// Buffer accumulates the decompressed text of one dump.
type Buffer struct {
	b []byte
}

// Bytes returns the buffered data. It is only valid until the next Reset
// or Put.
func (bb *Buffer) Bytes() []byte { return bb.b }

func (bb *Buffer) Len() int { return len(bb.b) }

func (bb *Buffer) Cap() int { return cap(bb.b) }

// Reset empties the buffer and keeps its memory.
func (bb *Buffer) Reset() { bb.b = bb.b[:0] }

// ReadLimited appends everything read from r until EOF.
//
// Parameters:
//   - r: Reader to drain
//   - limit: Maximum number of bytes to accept, 0 for no limit
//
// Returns:
//   - int64: Bytes appended
//   - error: A read error, or ErrDecodedTooLarge once more than limit bytes arrived
func (bb *Buffer) ReadLimited(r io.Reader, limit int64) (int64, error) {
	var total int64
	for {
		if cap(bb.b)-len(bb.b) < minRead {
			bb.b = slices.Grow(bb.b, max(minRead, len(bb.b)))
		}

		n, err := r.Read(bb.b[len(bb.b):cap(bb.b)])
		bb.b = bb.b[:len(bb.b)+n]
		total += int64(n)

		if limit > 0 && total > limit {
			return total, fmt.Errorf("%w: more than %d bytes", errs.ErrDecodedTooLarge, limit)
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Pool recycles Buffers.
type Pool struct {
	pool sync.Pool
	keep int
}

// NewPool creates a Pool of buffers preallocated to size bytes. Buffers that
// grew beyond keep bytes are not retained; keep 0 retains every buffer.
func NewPool(size, keep int) *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &Buffer{b: make([]byte, 0, size)}
			},
		},
		keep: keep,
	}
}

func (p *Pool) Get() *Buffer {
	bb, _ := p.pool.Get().(*Buffer)
	return bb
}

// Put resets bb and returns it to the pool.
func (p *Pool) Put(bb *Buffer) {
	if bb == nil || (p.keep > 0 && cap(bb.b) > p.keep) {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var sources = NewPool(DefaultBufferSize, MaxRetainedSize)

// GetSourceBuffer returns a buffer for reading one dump.
func GetSourceBuffer() *Buffer {
	return sources.Get()
}

// PutSourceBuffer recycles a buffer obtained from GetSourceBuffer.
func PutSourceBuffer(bb *Buffer) {
	sources.Put(bb)
}
