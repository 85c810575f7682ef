//go:build cgo && gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"

	"github.com/arloliu/dataless/errs"
)

// archiveLevel matches the ratio of the pure Go SpeedBetterCompression level.
const archiveLevel = 7

func (ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(make([]byte, 0, len(data)/4), data, archiveLevel), nil
}

func (ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", errs.ErrCorruptArchive, err)
	}
	if len(out) > MaxDecodedSize {
		return nil, fmt.Errorf("%w: zstd frame holds %d bytes", errs.ErrDecodedTooLarge, len(out))
	}

	return out, nil
}
