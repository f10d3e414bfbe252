package apt

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/etnz/apt-mirror/tags"
)

// downloadBlockSize is the chunk size the checksum loop streams in.
const downloadBlockSize = 4096

// Decoder post-processes a downloaded file once its on-wire bytes have been
// verified. A nil Decoder returns the bytes unchanged.
type Decoder func(data []byte) ([]byte, error)

// GzipDecoder gunzips a verified buffer. A fresh reader is created per call;
// gzip streams carry state and cannot be shared between files.
func GzipDecoder(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func newHash(name string) hash.Hash {
	switch name {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	case "sha256":
		return sha256.New()
	case "sha512":
		return sha512.New()
	}
	return nil
}

// download fetches the file at the repository-relative path, streaming it
// through the strongest declared hash and a byte counter. The digest and
// size describe the on-wire bytes; decoding happens only after the buffer
// has been verified. On any mismatch no data is returned.
func (r *Repository) download(path []string, fh *tags.FileHash, decode Decoder) ([]byte, error) {
	name, want, ok := fh.Best()
	if !ok {
		return nil, ErrNoValidHash
	}
	if fh.Size < 0 {
		return nil, ErrNoSize
	}
	sum := newHash(name)

	stream, err := r.openFile(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var raw bytes.Buffer
	var size int64
	block := make([]byte, downloadBlockSize)
	for {
		n, err := stream.Read(block)
		if n > 0 {
			sum.Write(block[:n])
			size += int64(n)
			raw.Write(block[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("apt: reading %s: %w", strings.Join(path, "/"), err)
		}
	}

	if hex.EncodeToString(sum.Sum(nil)) != want || size != fh.Size {
		return nil, &ChecksumError{Path: strings.Join(path, "/")}
	}

	if decode == nil {
		return raw.Bytes(), nil
	}
	decoded, err := decode(raw.Bytes())
	if err != nil {
		return nil, fmt.Errorf("apt: decoding %s: %w", strings.Join(path, "/"), err)
	}
	return decoded, nil
}
