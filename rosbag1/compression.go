package rosbag1

import (
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/pierrec/lz4/v4"
	"go.viam.com/rosbags/rosbagerr"
)

// decompressChunk returns the uncompressed bytes of a chunk record's
// data section, given its declared compression.
func decompressChunk(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone, "":
		return data, nil
	case CompressionBZ2:
		out, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, rosbagerr.CorruptRecord("bz2 decompression failed: %v", err)
		}
		return out, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, rosbagerr.CorruptRecord("lz4 decompression failed: %v", err)
		}
		return out, nil
	default:
		return nil, rosbagerr.CorruptRecord("unsupported chunk compression %q", c)
	}
}

// compressChunk compresses data per c. Only "none" and "lz4" are
// supported for writing: the standard library's compress/bzip2 package
// is decode-only, and spec.md does not require bz2 write support from a
// new writer (existing bz2-compressed bags remain readable).
func compressChunk(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone, "":
		return data, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, rosbagerr.IO(err)
		}
		if err := w.Close(); err != nil {
			return nil, rosbagerr.IO(err)
		}
		return buf.Bytes(), nil
	default:
		return nil, rosbagerr.CorruptRecord("writing with compression %q is not supported", c)
	}
}
