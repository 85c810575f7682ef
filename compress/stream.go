package compress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/dataless/errs"
	"github.com/arloliu/dataless/format"
)

// Stream format magic numbers.
var (
	gzipMagic   = []byte{0x1f, 0x8b}
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic    = []byte{0x04, 0x22, 0x4d, 0x18}
	s2Magic     = []byte("\xff\x06\x00\x00S2sTwO")
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// HeaderSize is the number of leading bytes Detect needs to recognise every
// supported stream format.
const HeaderSize = 10

// Detect identifies the stream format of a file from its first bytes.
// Anything unrecognised is reported as CompressionNone.
func Detect(header []byte) format.CompressionType {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return format.CompressionGzip
	case bytes.HasPrefix(header, zstdMagic):
		return format.CompressionZstd
	case bytes.HasPrefix(header, lz4Magic):
		return format.CompressionLZ4
	case bytes.HasPrefix(header, s2Magic), bytes.HasPrefix(header, snappyMagic):
		return format.CompressionS2
	default:
		return format.CompressionNone
	}
}

// NewReader wraps r with a streaming decompressor for compressionType.
//
// Closing the returned reader releases decoder resources; it never closes r.
//
// Parameters:
//   - r: Compressed stream
//   - compressionType: Stream format of r
//
// Returns:
//   - io.ReadCloser: Decompressed stream
//   - error: ErrUnsupportedCompression (wrapped) or a stream header error
func NewReader(r io.Reader, compressionType format.CompressionType) (io.ReadCloser, error) {
	switch compressionType {
	case format.CompressionNone:
		return io.NopCloser(r), nil
	case format.CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}

		return gr, nil
	case format.CompressionZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}

		return zr.IOReadCloser(), nil
	case format.CompressionS2:
		return io.NopCloser(s2.NewReader(r)), nil
	case format.CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
	}
}

// NewAutoReader detects the stream format of r and wraps it accordingly.
func NewAutoReader(r io.Reader) (io.ReadCloser, format.CompressionType, error) {
	br := bufio.NewReader(r)

	// a short file simply yields a short header
	header, err := br.Peek(HeaderSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, err
	}

	t := Detect(header)
	rc, err := NewReader(br, t)
	if err != nil {
		return nil, t, err
	}

	return rc, t, nil
}

// NewWriter wraps w with a streaming compressor for compressionType.
// The caller must Close the returned writer to flush the stream; it never closes w.
func NewWriter(w io.Writer, compressionType format.CompressionType) (io.WriteCloser, error) {
	switch compressionType {
	case format.CompressionNone:
		return nopWriteCloser{w}, nil
	case format.CompressionGzip:
		return gzip.NewWriter(w), nil
	case format.CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}

		return zw, nil
	case format.CompressionS2:
		return s2.NewWriter(w), nil
	case format.CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
