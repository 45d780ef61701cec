package rosbag2

import (
	"os"

	"github.com/klauspost/compress/zstd"
	"go.viam.com/rosbags/rosbagerr"
)

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, rosbagerr.StorageError(err, "creating zstd encoder")
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, rosbagerr.StorageError(err, "creating zstd decoder")
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, rosbagerr.StorageError(err, "zstd decompression failed")
	}
	return out, nil
}

// decompressFileToTemp zstd-decompresses the file at path into a new
// temporary file and returns its path, for CompressionFile mode where the
// sqlite driver needs a real on-disk, uncompressed database file to open.
func decompressFileToTemp(path string) (string, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return "", rosbagerr.IO(err)
	}
	raw, err := zstdDecompress(compressed)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "rosbag2-*.db3")
	if err != nil {
		return "", rosbagerr.IO(err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", rosbagerr.IO(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", rosbagerr.IO(err)
	}
	return tmp.Name(), nil
}

// compressFileInPlace zstd-compresses the file at path, writes it to
// dstPath, and removes the original.
func compressFileInPlace(path, dstPath string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return rosbagerr.IO(err)
	}
	compressed, err := zstdCompress(raw)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dstPath, compressed, 0o644); err != nil {
		return rosbagerr.IO(err)
	}
	return rosbagerr.IO(os.Remove(path))
}
