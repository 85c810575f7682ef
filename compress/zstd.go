package compress

import "github.com/arloliu/dataless/format"

// ZstdCompressor is the default archive codec of the store: dumps are
// repetitive text and usually shrink tenfold or more.
//
// Builds with cgo and the "gozstd" tag use the libzstd binding; all other
// builds use klauspost/compress. Both read each other's frames.
type ZstdCompressor struct{}

var _ Codec = ZstdCompressor{}

// NewZstdCompressor creates a Zstd codec.
//
// Example:
//
//	codec := NewZstdCompressor()
//	archived, err := codec.Compress([]byte(src.Text()))
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

func (ZstdCompressor) Type() format.CompressionType { return format.CompressionZstd }
