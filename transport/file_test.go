package transport

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tr := &File{}
	uri := "file://" + dir + "/pool/m/pkg/pkg_1.0_amd64.deb"

	// OpenWrite must create the intermediate directories.
	w, err := tr.OpenWrite(uri)
	if err != nil {
		t.Fatalf("OpenWrite failed: %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ok, err := tr.Exists(uri)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true", ok, err)
	}

	r, err := tr.OpenRead(uri)
	if err != nil {
		t.Fatalf("OpenRead failed: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil || string(data) != "payload" {
		t.Fatalf("read %q, %v", data, err)
	}
}

func TestFileNotFound(t *testing.T) {
	tr := &File{}
	uri := "file://" + t.TempDir() + "/missing"

	if _, err := tr.OpenRead(uri); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenRead = %v, want ErrNotFound", err)
	}
	ok, err := tr.Exists(uri)
	if err != nil || ok {
		t.Errorf("Exists = %v, %v; want false, nil", ok, err)
	}
	if _, err := tr.ListDirectory(uri); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListDirectory = %v, want ErrNotFound", err)
	}
}

func TestFileURIMismatch(t *testing.T) {
	tr := &File{}
	if _, err := tr.OpenRead("http://example.com/f"); !errors.Is(err, ErrURIMismatch) {
		t.Errorf("OpenRead = %v, want ErrURIMismatch", err)
	}
}

func TestFileListDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "bookworm"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Release"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// Symlinks are classified by their target, the way the Debian archive
	// publishes "stable -> bookworm".
	if err := os.Symlink(filepath.Join(dir, "bookworm"), filepath.Join(dir, "stable")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "Release"), filepath.Join(dir, "InRelease")); err != nil {
		t.Fatal(err)
	}
	// A dangling symlink has no kind and is skipped.
	if err := os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling")); err != nil {
		t.Fatal(err)
	}

	tr := &File{}
	listing, err := tr.ListDirectory("file://" + dir)
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	sort.Strings(listing.Directories)
	sort.Strings(listing.Files)
	if diff := cmp.Diff([]string{"bookworm", "stable"}, listing.Directories); diff != "" {
		t.Errorf("Directories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"InRelease", "Release"}, listing.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestSelect(t *testing.T) {
	if tr, err := Select("file:///srv/repo/"); err != nil {
		t.Errorf("Select(file) failed: %v", err)
	} else if _, ok := tr.(*File); !ok {
		t.Errorf("Select(file) = %T, want *File", tr)
	}

	if tr, err := Select("http://deb.debian.org/debian/"); err != nil {
		t.Errorf("Select(http) failed: %v", err)
	} else if _, ok := tr.(*HTTP); !ok {
		t.Errorf("Select(http) = %T, want *HTTP", tr)
	}

	if _, err := Select("s3://bucket/repo/"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Select(s3) = %v, want ErrUnsupported", err)
	}
}
