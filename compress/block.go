package compress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/format"
)

// NoOpCompressor stores data unchanged. It backs uncompressed dump files and
// archives written with archiving disabled.
type NoOpCompressor struct{}

var _ Codec = NoOpCompressor{}

func NewNoOpCompressor() NoOpCompressor { return NoOpCompressor{} }

func (NoOpCompressor) Type() format.CompressionType { return format.CompressionNone }

// Compress returns data itself; the result aliases the input.
func (NoOpCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data itself; the result aliases the input.
func (NoOpCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

// S2Compressor stores data as one S2 block.
type S2Compressor struct{}

var _ Codec = S2Compressor{}

func NewS2Compressor() S2Compressor { return S2Compressor{} }

func (S2Compressor) Type() format.CompressionType { return format.CompressionS2 }

// Compress uses the better-ratio S2 encoder. An empty input gives an empty block.
func (S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(nil, data), nil
}

// Decompress checks the length recorded in the block header against
// MaxDecodedSize before allocating.
func (S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("%w: s2: %w", errs.ErrCorruptArchive, err)
	}
	if n > MaxDecodedSize {
		return nil, fmt.Errorf("%w: s2 block holds %d bytes", errs.ErrDecodedTooLarge, n)
	}

	out, err := s2.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("%w: s2: %w", errs.ErrCorruptArchive, err)
	}

	return out, nil
}

var lz4Compressors = sync.Pool{
	New: func() any { return new(lz4.Compressor) },
}

// LZ4Compressor stores data as a uvarint holding the original length followed
// by one LZ4 block. Raw LZ4 blocks do not record their decoded size.
type LZ4Compressor struct{}

var _ Codec = LZ4Compressor{}

func NewLZ4Compressor() LZ4Compressor { return LZ4Compressor{} }

func (LZ4Compressor) Type() format.CompressionType { return format.CompressionLZ4 }

func (LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out := make([]byte, binary.MaxVarintLen64+lz4.CompressBlockBound(len(data)))
	hdr := binary.PutUvarint(out, uint64(len(data)))

	lc, _ := lz4Compressors.Get().(*lz4.Compressor)
	n, err := lc.CompressBlock(data, out[hdr:])
	lz4Compressors.Put(lc)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n == 0 || n >= len(data) {
		// incompressible: stored raw, recognised by a block as long as the header says
		return append(out[:hdr], data...), nil
	}

	return out[:hdr+n], nil
}

func (LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	size, hdr := binary.Uvarint(data)
	if hdr <= 0 {
		return nil, fmt.Errorf("%w: lz4: bad length header", errs.ErrCorruptArchive)
	}
	if size > MaxDecodedSize {
		return nil, fmt.Errorf("%w: lz4 block holds %d bytes", errs.ErrDecodedTooLarge, size)
	}
	block := data[hdr:]
	if uint64(len(block)) == size {
		return append([]byte(nil), block...), nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(block, out)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", errs.ErrCorruptArchive, err)
	}
	if uint64(n) != size {
		return nil, fmt.Errorf("%w: lz4: decoded %d of %d bytes", errs.ErrCorruptArchive, n, size)
	}

	return out, nil
}
