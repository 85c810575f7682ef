// Package source reads dataless dump files into the line sequence consumed by
// the parser, transparently decompressing gzip, zstd, S2 and LZ4 streams.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arloliu/dataless/compress"
	"github.com/arloliu/dataless/format"
	"github.com/arloliu/dataless/internal/hash"
	"github.com/arloliu/dataless/internal/pool"
)

// Source is a dump read into memory.
type Source struct {
	Name        string                 // base file name, or "" for readers
	Lines       []string               // lines without their terminators
	Compression format.CompressionType // stream format of the input
	Size        int64                  // decompressed size in bytes
	Hash        uint64                 // xxHash64 fingerprint of Lines
}

// Read reads a whole dump from r, detecting its compression.
func Read(r io.Reader) (*Source, error) {
	rc, kind, err := compress.NewAutoReader(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	bb := pool.GetSourceBuffer()
	defer pool.PutSourceBuffer(bb)

	n, err := bb.ReadLimited(rc, compress.MaxDecodedSize)
	if err != nil {
		return nil, fmt.Errorf("read %s stream: %w", kind, err)
	}

	lines := splitLines(string(bb.Bytes()))

	return &Source{
		Lines:       lines,
		Compression: kind,
		Size:        n,
		Hash:        hash.Lines(lines),
	}, nil
}

// ReadLines reads a whole dump from r and returns its lines.
func ReadLines(r io.Reader) ([]string, error) {
	src, err := Read(r)
	if err != nil {
		return nil, err
	}

	return src.Lines, nil
}

// Open reads the dump file at path.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.Name = filepath.Base(path)

	return src, nil
}

// Text reassembles the dump text, one terminated line per entry.
func (s *Source) Text() string {
	if len(s.Lines) == 0 {
		return ""
	}

	return strings.Join(s.Lines, "\n") + "\n"
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// splitLines splits text into lines terminated by "\n", "\r\n" or a bare
// "\r". A final terminator does not produce an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return []string{}
	}

	text = lineEndings.Replace(text)

	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
