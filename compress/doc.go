// Package compress provides the compression codecs and stream readers used
// for dataless dump files and source archives.
//
// Dumps are often shipped compressed. Two families of helpers exist:
//
// Block codecs compress a complete in-memory payload. The store uses them to
// archive the raw source of every loaded volume:
//
//	codec, _ := compress.GetCodec(format.CompressionZstd)
//	archived, err := codec.Compress(raw)
//
// Stream readers decompress a file while it is being read line by line:
//
//	rc, kind, err := compress.NewAutoReader(f)
//	if err != nil {
//	    return err
//	}
//	defer rc.Close()
//
// # Supported Algorithms
//
//   - None: pass-through
//   - Zstd: best ratio, default for archives (pure Go; libzstd with the "gozstd" build tag)
//   - S2: fast, Snappy-compatible streams are also read
//   - LZ4: fastest decompression
//   - Gzip: the common format of published dumps
//
// Detect recognises gzip, zstd, LZ4 frame and S2/Snappy stream headers.
// Block payloads carry no header and must be decoded with the codec that
// produced them.
package compress
