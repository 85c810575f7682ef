package compress

import (
	"fmt"
	"strings"

	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/format"
)

// Compressor compresses a complete in-memory payload.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
//
// Thread Safety: Decompressor implementations must be safe for concurrent use.
type Decompressor interface {
	// Decompress returns the original payload, or an error if data is corrupted
	// or was produced by a different algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec is a Compressor and the Decompressor of the same algorithm.
type Codec interface {
	Compressor
	Decompressor

	// Type identifies the algorithm, as recorded next to an archive.
	Type() format.CompressionType
}

// MaxDecodedSize caps what a Decompressor produces. The largest published
// dataless dumps are a few hundred megabytes of text.
const MaxDecodedSize = 512 << 20

// CompressionStats describes one compression of a source archive.
type CompressionStats struct {
	Algorithm      format.CompressionType
	OriginalSize   int64
	CompressedSize int64
}

// CompressionRatio returns compressed size / original size (0.0 if original size is zero).
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage (0-100%).
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// CompressWithStats compresses data with codec and reports the size change.
func CompressWithStats(codec Codec, data []byte) ([]byte, CompressionStats, error) {
	out, err := codec.Compress(data)
	if err != nil {
		return nil, CompressionStats{}, err
	}

	return out, CompressionStats{
		Algorithm:      codec.Type(),
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(len(out)),
	}, nil
}

// CreateCodec creates a new Codec for the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, LZ4 or Gzip)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: ErrUnsupportedCompression (wrapped) for an unknown type
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionGzip:
		return NewGzipCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s for %s", errs.ErrUnsupportedCompression, compressionType, target)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
	format.CompressionGzip: NewGzipCompressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// ParseCompressionType parses a compression name as accepted on the command line.
func ParseCompressionType(name string) (format.CompressionType, error) {
	for t := range builtinCodecs {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errs.ErrUnsupportedCompression, name)
}
