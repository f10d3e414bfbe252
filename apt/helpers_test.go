package apt

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/blakesmith/ar"
)

// makeDeb assembles a minimal valid .deb in memory.
func makeDeb(t *testing.T, name, version, arch, section string, files map[string]string) []byte {
	t.Helper()

	control := fmt.Sprintf("Package: %s\nVersion: %s\nArchitecture: %s\nSection: %s\n",
		name, version, arch, section)

	tarOf := func(entries map[string]string) []byte {
		var buf bytes.Buffer
		tw := tar.NewWriter(&buf)
		for name, body := range entries {
			hdr := &tar.Header{
				Name:     name,
				Typeflag: tar.TypeReg,
				Mode:     0o644,
				Size:     int64(len(body)),
				ModTime:  time.Unix(0, 0),
			}
			if err := tw.WriteHeader(hdr); err != nil {
				t.Fatalf("tar header: %v", err)
			}
			tw.Write([]byte(body))
		}
		tw.Close()
		return buf.Bytes()
	}
	gz := func(data []byte) []byte {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		gw.Write(data)
		gw.Close()
		return buf.Bytes()
	}

	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	w.WriteGlobalHeader()
	add := func(name string, body []byte) {
		hdr := &ar.Header{Name: name, Size: int64(len(body)), Mode: 0o644, ModTime: time.Unix(0, 0)}
		if err := w.WriteHeader(hdr); err != nil {
			t.Fatalf("ar header: %v", err)
		}
		w.Write(body)
	}
	add("debian-binary", []byte("2.0\n"))
	add("control.tar.gz", gz(tarOf(map[string]string{"./control": control})))
	add("data.tar.gz", gz(tarOf(files)))
	return buf.Bytes()
}

func sha256hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write(data)
	gw.Close()
	return buf.Bytes()
}

func writeTree(t *testing.T, dir, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// poolEntry is one package of a fixture repository.
type poolEntry struct {
	name, version, arch, section string
	deb                          []byte
}

func helloEntry(t *testing.T) poolEntry {
	return poolEntry{
		name: "hello", version: "1.0", arch: "amd64", section: "utils",
		deb: makeDeb(t, "hello", "1.0", "amd64", "utils",
			map[string]string{"./usr/bin/hello": "#!/bin/sh\necho hello\n"}),
	}
}

// fixtureOpts steers what writeSourceRepo lays on disk.
type fixtureOpts struct {
	dist        string
	gzOnly      bool
	plainOnly   bool
	corruptHash bool
	signer      *openpgp.Entity
	inline      bool
	detached    bool
}

// writeSourceRepo lays a complete repository tree under dir and returns the
// Packages index bytes it generated.
func writeSourceRepo(t *testing.T, dir string, entries []poolEntry, opts fixtureOpts) []byte {
	t.Helper()
	if opts.dist == "" {
		opts.dist = "stable"
	}

	var packages bytes.Buffer
	for _, e := range entries {
		filename := fmt.Sprintf("pool/%s/%s/%s_%s_%s.deb", e.name[:1], e.name, e.name, e.version, e.arch)
		writeTree(t, dir, filename, e.deb)
		fmt.Fprintf(&packages,
			"Package: %s\nVersion: %s\nArchitecture: %s\nSection: %s\nFilename: %s\nSize: %d\nSHA256: %s\n\n",
			e.name, e.version, e.arch, e.section, filename, len(e.deb), sha256hex(e.deb))
	}
	packagesGz := gzipBytes(t, packages.Bytes())

	indexDir := "dists/" + opts.dist + "/main/binary-amd64/"
	var rows bytes.Buffer
	addRow := func(data []byte, rel string) {
		digest := sha256hex(data)
		if opts.corruptHash {
			digest = sha256hex(append(append([]byte{}, data...), '!'))
		}
		fmt.Fprintf(&rows, " %s %d %s\n", digest, len(data), "main/binary-amd64/"+rel)
	}
	if !opts.plainOnly {
		writeTree(t, dir, indexDir+"Packages.gz", packagesGz)
		addRow(packagesGz, "Packages.gz")
	}
	if !opts.gzOnly {
		writeTree(t, dir, indexDir+"Packages", packages.Bytes())
		addRow(packages.Bytes(), "Packages")
	}

	release := []byte(fmt.Sprintf(
		"Origin: Test\nLabel: Test\nSuite: %s\nCodename: %s\nComponents: main\nArchitectures: amd64\nSHA256:\n%s",
		opts.dist, opts.dist, rows.String()))

	writeTree(t, dir, "dists/"+opts.dist+"/Release", release)

	if opts.signer != nil && opts.inline {
		var buf bytes.Buffer
		w, err := clearsign.Encode(&buf, opts.signer.PrivateKey, nil)
		if err != nil {
			t.Fatalf("clearsign: %v", err)
		}
		w.Write(release)
		w.Close()
		writeTree(t, dir, "dists/"+opts.dist+"/InRelease", buf.Bytes())
	}
	if opts.signer != nil && opts.detached {
		var buf bytes.Buffer
		if err := openpgp.ArmoredDetachSign(&buf, opts.signer, bytes.NewReader(release), nil); err != nil {
			t.Fatalf("detach sign: %v", err)
		}
		writeTree(t, dir, "dists/"+opts.dist+"/Release.gpg", buf.Bytes())
	}

	return packages.Bytes()
}

func testEntity(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("Test", "test", "test@example.com", nil)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	return entity
}

func newTestRepo(t *testing.T, dir string) *Repository {
	t.Helper()
	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	return repo
}
