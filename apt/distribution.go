package apt

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/etnz/apt-mirror/tags"
	"github.com/etnz/apt-mirror/transport"
)

// Distribution is one named grouping of packages under dists/: a release
// file certifying a set of per-component, per-architecture Packages indices.
//
// Release metadata is fetched at most once per repository session; existence
// is cached tri-state so negative lookups are not repeated.
type Distribution struct {
	repo *Repository

	// Name is the directory under dists/.
	Name string

	mu      sync.Mutex
	release *tags.ReleaseFile
	exists  *bool
	lists   map[string]*PackageList
}

// Exists reports whether the distribution has a parseable release file,
// with a valid signature when the repository carries a verifier. A missing
// release file, or a missing Release.gpg under a verifier, is a clean false;
// signature, parse and transport failures propagate uncached.
func (d *Distribution) Exists() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.exists != nil {
		return *d.exists, nil
	}

	_, err := d.releaseFile()
	switch {
	case err == nil:
		t := true
		d.exists = &t
		return true, nil
	case errors.Is(err, transport.ErrNotFound):
		f := false
		d.exists = &f
		return false, nil
	}
	return false, err
}

// Release returns the distribution's release file.
func (d *Distribution) Release() (*tags.ReleaseFile, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releaseFile()
}

// Components returns the components the distribution declares.
func (d *Distribution) Components() ([]string, error) {
	rel, err := d.Release()
	if err != nil {
		return nil, err
	}
	return rel.Components(), nil
}

// Architectures returns the architectures the distribution declares.
func (d *Distribution) Architectures() ([]string, error) {
	rel, err := d.Release()
	if err != nil {
		return nil, err
	}
	return rel.Architectures(), nil
}

func (d *Distribution) check() error {
	ok, err := d.Exists()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotExist, d.Name)
	}
	return nil
}

// PackageList downloads, verifies and parses the Packages index for one
// component and architecture, registering every stanza in the repository
// pool. Results are memoized per pair. The gzip-compressed index is
// preferred; the plain one is the fallback.
func (d *Distribution) PackageList(component, architecture string) (*PackageList, error) {
	if err := d.check(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := component + "/" + architecture
	if list, ok := d.lists[key]; ok {
		return list, nil
	}

	rel, err := d.releaseFile()
	if err != nil {
		return nil, err
	}

	var filename string
	var fh *tags.FileHash
	var decode Decoder
	for _, c := range []struct {
		ext    string
		decode Decoder
	}{{".gz", GzipDecoder}, {"", nil}} {
		name := fmt.Sprintf("%s/binary-%s/Packages%s", component, architecture, c.ext)
		if h, ok := rel.Files[name]; ok {
			filename, fh, decode = name, h, c.decode
			break
		}
	}
	if fh == nil {
		return nil, fmt.Errorf("%w: no Packages index for %s/%s in %s",
			transport.ErrNotFound, component, architecture, d.Name)
	}

	data, err := d.repo.download([]string{"dists", d.Name, filename}, fh, decode)
	if err != nil {
		return nil, err
	}

	stanzas, err := tags.ParsePackages(data)
	if err != nil {
		return nil, fmt.Errorf("apt: parsing %s: %w", filename, err)
	}

	list := newPackageList(d.repo)
	for _, stanza := range stanzas {
		source, _ := stanza.Get("Filename")
		p, err := d.repo.AddPackage(stanza, source)
		if err != nil {
			return nil, err
		}
		list.add(p)
	}

	d.lists[key] = list
	return list, nil
}

// releaseFile resolves the distribution's release metadata, caching the
// parsed result. With a verifier, InRelease is tried first and a NotFound
// there falls back to Release with its detached Release.gpg signature; any
// signature failure is fatal. Without a verifier only Release is fetched
// and nothing is checked. Callers hold d.mu.
func (d *Distribution) releaseFile() (*tags.ReleaseFile, error) {
	if d.release != nil {
		return d.release, nil
	}

	var releaseBytes []byte

	if d.repo.Verifier != nil {
		stream, err := d.repo.openFile([]string{"dists", d.Name, "InRelease"})
		switch {
		case err == nil:
			data, err := io.ReadAll(stream)
			stream.Close()
			if err != nil {
				return nil, fmt.Errorf("apt: reading InRelease for %s: %w", d.Name, err)
			}
			valid, plain, err := d.repo.Verifier.InlineVerify(data)
			if err != nil || !valid {
				return nil, &SignatureError{Path: "dists/" + d.Name + "/InRelease"}
			}
			releaseBytes = plain
		case !errors.Is(err, transport.ErrNotFound):
			return nil, err
		}
	}

	if releaseBytes == nil {
		stream, err := d.repo.openFile([]string{"dists", d.Name, "Release"})
		if err != nil {
			return nil, err
		}
		releaseBytes, err = io.ReadAll(stream)
		stream.Close()
		if err != nil {
			return nil, fmt.Errorf("apt: reading Release for %s: %w", d.Name, err)
		}

		if d.repo.Verifier != nil {
			sigStream, err := d.repo.openFile([]string{"dists", d.Name, "Release.gpg"})
			if err != nil {
				return nil, err
			}
			signature, err := io.ReadAll(sigStream)
			sigStream.Close()
			if err != nil {
				return nil, fmt.Errorf("apt: reading Release.gpg for %s: %w", d.Name, err)
			}
			ok, err := d.repo.Verifier.DetachedVerify(releaseBytes, signature)
			if err != nil || !ok {
				return nil, &SignatureError{Path: "dists/" + d.Name + "/Release"}
			}
		}
	}

	rel, err := tags.ParseRelease(releaseBytes)
	if err != nil {
		return nil, fmt.Errorf("apt: parsing release of %s: %w", d.Name, err)
	}
	d.release = rel
	return rel, nil
}
