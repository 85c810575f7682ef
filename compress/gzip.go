package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/format"
)

var gzipWriters = sync.Pool{
	New: func() any {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestCompression)
		return w
	},
}

// GzipCompressor stores data as one gzip member. Published dataless dumps
// are mostly gzip files, so archives in this format can be handed out as is.
type GzipCompressor struct{}

var _ Codec = GzipCompressor{}

func NewGzipCompressor() GzipCompressor { return GzipCompressor{} }

func (GzipCompressor) Type() format.CompressionType { return format.CompressionGzip }

func (GzipCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(data)/4))
	w, _ := gzipWriters.Get().(*gzip.Writer)
	defer gzipWriters.Put(w)
	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reads every member of data, up to MaxDecodedSize bytes.
func (GzipCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", errs.ErrCorruptArchive, err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, MaxDecodedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", errs.ErrCorruptArchive, err)
	}
	if len(out) > MaxDecodedSize {
		return nil, fmt.Errorf("%w: gzip member exceeds %d bytes", errs.ErrDecodedTooLarge, MaxDecodedSize)
	}

	return out, nil
}
