package deb

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/etnz/apt-mirror/tags"
)

// ErrInvalidDeb reports a stream that violates the .deb container contract:
// bad AR framing, a wrong member layout, or a missing control file.
var ErrInvalidDeb = errors.New("deb: invalid debian archive")

// debianBinaryVersion is the required body of the debian-binary member.
const debianBinaryVersion = "2.0\n"

// memberName strips the padding and the GNU-style trailing slash some
// archivers leave on AR member names.
func memberName(h *ar.Header) string {
	return strings.TrimSuffix(strings.TrimRight(h.Name, " "), "/")
}

// tarReader opens an AR member body as a TAR stream, choosing the
// decompressor from the member name suffix. A fresh decompressor is created
// per member; they carry stream state and cannot be shared. The returned
// close func releases the decompressor and must be called on every path.
func tarReader(name string, r io.Reader) (*tar.Reader, func(), error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("deb: opening %s: %w", name, err)
		}
		return tar.NewReader(gzr), func() { gzr.Close() }, nil
	case strings.HasSuffix(name, ".xz"):
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("deb: opening %s: %w", name, err)
		}
		return tar.NewReader(xzr), func() {}, nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("deb: opening %s: %w", name, err)
		}
		return tar.NewReader(zr), zr.Close, nil
	default:
		return tar.NewReader(r), func() {}, nil
	}
}

// ExtractControl reads a .deb stream and returns its control stanza.
//
// The archive must begin with a debian-binary member whose body is exactly
// "2.0\n", followed by a control.tar member (optionally gzip, xz or zstd
// compressed) containing a ./control file.
func ExtractControl(r io.Reader) (*tags.Block, error) {
	arr := ar.NewReader(r)

	hdr, err := arr.Next()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeb, err)
	}
	if memberName(hdr) != string(MemberDebianBinary) {
		return nil, fmt.Errorf("%w: archive does not start with %s", ErrInvalidDeb, MemberDebianBinary)
	}
	version, err := io.ReadAll(arr)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidDeb, MemberDebianBinary, err)
	}
	if string(version) != debianBinaryVersion {
		return nil, fmt.Errorf("%w: %s version is not 2.0", ErrInvalidDeb, MemberDebianBinary)
	}

	hdr, err = arr.Next()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeb, err)
	}
	name := memberName(hdr)
	if !strings.HasPrefix(name, string(MemberControlTar)) {
		return nil, fmt.Errorf("%w: second member %q is not %s.*", ErrInvalidDeb, name, MemberControlTar)
	}

	tr, closeTar, err := tarReader(name, arr)
	if err != nil {
		return nil, err
	}
	defer closeTar()
	for {
		th, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidDeb, name, err)
		}
		if th.Name != "./"+string(FileControl) && th.Name != string(FileControl) {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: reading control: %v", ErrInvalidDeb, err)
		}
		blocks, err := tags.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("deb: parsing control: %w", err)
		}
		if len(blocks) == 0 {
			return nil, fmt.Errorf("%w: control file is empty", ErrInvalidDeb)
		}
		return blocks[0], nil
	}

	return nil, fmt.Errorf("%w: %s.* does not contain a control file", ErrInvalidDeb, MemberControlTar)
}

// ExtractContents reads a .deb stream and returns the paths its data.tar
// member installs, in archive order. A leading "." is stripped from each
// path and the synthetic root entry is dropped.
func ExtractContents(r io.Reader) ([]string, error) {
	arr := ar.NewReader(r)

	for {
		hdr, err := arr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: archive has no %s.* member", ErrInvalidDeb, MemberDataTar)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDeb, err)
		}
		name := memberName(hdr)
		if !strings.HasPrefix(name, string(MemberDataTar)) {
			continue
		}

		tr, closeTar, err := tarReader(name, arr)
		if err != nil {
			return nil, err
		}
		defer closeTar()
		var paths []string
		for {
			th, err := tr.Next()
			if err == io.EOF {
				return paths, nil
			}
			if err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidDeb, name, err)
			}
			p := strings.TrimPrefix(th.Name, ".")
			if p == "" || p == "/" {
				continue
			}
			paths = append(paths, p)
		}
	}
}
