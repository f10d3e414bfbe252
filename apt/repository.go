package apt

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	version "github.com/knqyf263/go-deb-version"

	"github.com/etnz/apt-mirror/deb"
	"github.com/etnz/apt-mirror/tags"
	"github.com/etnz/apt-mirror/transport"
)

// poolRequired are the stanza fields a package must carry before it can be
// registered in the pool.
var poolRequired = []string{"SHA256", "Filename", "Package", "Version"}

// Repository is a complete APT repository: a content-addressed pool of .deb
// blobs keyed by SHA256, and a set of distributions carrying the signed
// metadata that indexes the pool.
//
// The pool and distribution maps are guarded by a single lock; per-
// distribution caches have their own. Repository methods are safe for
// concurrent use as long as each worker owns its own Transport.
type Repository struct {
	// BaseURI always ends in a slash.
	BaseURI string

	// Transport performs all IO. It is selected from the URI scheme at
	// construction and may be swapped, e.g. for an Apache transport when a
	// plain HTTP listing turns out to be unsupported.
	Transport transport.Transport

	// Verifier checks release signatures. When nil, signatures are not
	// checked.
	Verifier Verifier

	mu            sync.RWMutex
	distributions map[string]*Distribution
	pool          map[string]*Package
	byName        map[string]map[string]string
}

// NewRepository builds a Repository for a base URI. A URI starting with a
// bare slash is taken as a local path; a missing trailing slash is added.
func NewRepository(baseURI string) (*Repository, error) {
	if strings.HasPrefix(baseURI, "/") {
		baseURI = "file://" + baseURI
	}
	if !strings.HasSuffix(baseURI, "/") {
		baseURI += "/"
	}

	t, err := transport.Select(baseURI)
	if err != nil {
		return nil, err
	}
	return &Repository{
		BaseURI:       baseURI,
		Transport:     t,
		distributions: make(map[string]*Distribution),
		pool:          make(map[string]*Package),
		byName:        make(map[string]map[string]string),
	}, nil
}

func (r *Repository) uri(path []string) string {
	return r.BaseURI + strings.Join(path, "/")
}

func (r *Repository) openFile(path []string) (io.ReadCloser, error) {
	return r.Transport.OpenRead(r.uri(path))
}

func (r *Repository) writeFile(path []string, data []byte) error {
	sink, err := r.Transport.OpenWrite(r.uri(path))
	if err != nil {
		return err
	}
	if _, err := sink.Write(data); err != nil {
		sink.Close()
		return err
	}
	return sink.Close()
}

// Distribution returns the named distribution, creating it on first access.
// Creation does not check existence; call Exists on the result.
func (r *Repository) Distribution(name string) *Distribution {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.distributions[name]
	if !ok {
		d = &Distribution{repo: r, Name: name, lists: make(map[string]*PackageList)}
		r.distributions[name] = d
	}
	return d
}

// Distributions returns the currently known distribution names, sorted. The
// list is blank until distributions are accessed or scanned, and includes
// names whose existence was never checked.
func (r *Repository) Distributions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.distributions))
	for name := range r.distributions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScanDistributions lists dists/ and registers every directory found as a
// known distribution. A missing dists/ means a blank repository and counts
// as a successful scan. An unsupported listing returns false so the caller
// can switch to a transport that can list, such as Apache, and retry.
func (r *Repository) ScanDistributions() (bool, error) {
	listing, err := r.Transport.ListDirectory(r.uri([]string{"dists"}) + "/")
	if err != nil {
		switch {
		case errors.Is(err, transport.ErrUnsupported):
			return false, nil
		case errors.Is(err, transport.ErrNotFound):
			return true, nil
		}
		return false, err
	}

	for _, dir := range listing.Directories {
		r.Distribution(dir)
	}
	return true, nil
}

// PackageByHash looks a package up by its SHA256.
func (r *Repository) PackageByHash(sha256 string) (*Package, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pool[sha256]
	return p, ok
}

// Versions returns the pooled versions of a package name in ascending
// Debian version order.
func (r *Repository) Versions(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for v := range r.byName[name] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		vi, erri := version.NewVersion(out[i])
		vj, errj := version.NewVersion(out[j])
		if erri != nil || errj != nil {
			return out[i] < out[j]
		}
		return vi.LessThan(vj)
	})
	return out
}

// AddPackage registers a parsed index stanza in the pool. source names where
// the stanza came from, for error reporting. A stanza whose SHA256 is
// already pooled returns the existing entry; later writes of the same
// name/version pair overwrite the by-name index in stream order.
func (r *Repository) AddPackage(stanza *tags.Package, source string) (*Package, error) {
	for _, field := range poolRequired {
		if v, ok := stanza.Get(field); !ok || v == "" {
			return nil, &MissingFieldError{Path: source, Field: field}
		}
	}

	sha, _ := stanza.Get("SHA256")
	name := stanza.Name()
	ver := stanza.Version()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pool[sha]; ok {
		return existing, nil
	}

	p := &Package{Package: stanza, repo: r}
	r.pool[sha] = p
	if r.byName[name] == nil {
		r.byName[name] = make(map[string]string)
	}
	r.byName[name][ver] = sha
	return p, nil
}

// Adopt reads a raw .deb stream into the pool: the bytes are hashed,
// parsed for their control stanza and file manifest, written under pool/
// with their .dat and .contents sidecars, and registered. Adopting bytes
// already in the pool returns the existing entry untouched.
func (r *Repository) Adopt(stream io.Reader) (*Package, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("apt: reading package stream: %w", err)
	}

	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])
	if p, ok := r.PackageByHash(sha); ok {
		return p, nil
	}

	control, err := deb.ExtractControl(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	stanza := tags.FromBlock(control)
	stanza.Set("SHA256", sha)
	stanza.Set("Size", fmt.Sprintf("%d", len(data)))

	contents, err := deb.ExtractContents(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	source := fmt.Sprintf("buffer %s_%s", stanza.Name(), stanza.Version())
	return r.install(stanza, data, contents, source)
}

// AdoptPackage copies a package from another repository into this pool. The
// blob is downloaded through the foreign package's declared hashes; its
// file manifest is reused when available.
func (r *Repository) AdoptPackage(foreign *Package) (*Package, error) {
	if foreign.repo == r {
		return foreign, nil
	}
	if foreign.repo == nil {
		return nil, ErrUnattached
	}

	sha, _ := foreign.Get("SHA256")
	if p, ok := r.PackageByHash(sha); ok {
		return p, nil
	}

	filename, _ := foreign.Get("Filename")
	data, err := foreign.repo.download([]string{filename}, foreign.Hashes(), nil)
	if err != nil {
		return nil, err
	}

	// The manifest is nice to have; a source that cannot provide one does
	// not block adoption.
	contents, _ := foreign.Contents()

	stanza := tags.NewPackage()
	for _, name := range foreign.Names() {
		v, _ := foreign.Block.Get(name)
		stanza.Set(name, v)
	}
	for _, name := range []string{"Filename", "MD5Sum", "SHA1", "SHA256", "SHA512"} {
		if v, ok := foreign.Get(name); ok {
			stanza.Set(name, v)
		}
	}

	return r.install(stanza, data, contents, filename)
}

// install writes a package blob and its sidecars into the pool tree and
// registers the stanza.
func (r *Repository) install(stanza *tags.Package, data []byte, contents []string, source string) (*Package, error) {
	name := stanza.Name()
	if name == "" {
		return nil, &MissingFieldError{Path: source, Field: "Package"}
	}

	path := strings.Split(PoolPath(stanza.Section(), name, stanza.Version(), stanza.Architecture()), "/")
	basename := path[len(path)-1]
	stanza.Set("Filename", strings.Join(path, "/"))

	if err := r.writeFile(path, data); err != nil {
		return nil, fmt.Errorf("apt: writing %s: %w", strings.Join(path, "/"), err)
	}

	path[len(path)-1] = basename + ".dat"
	if err := r.writeFile(path, []byte(stanza.String()+"\n")); err != nil {
		return nil, fmt.Errorf("apt: writing %s: %w", strings.Join(path, "/"), err)
	}

	path[len(path)-1] = basename + ".contents"
	if err := r.writeFile(path, []byte(strings.Join(contents, "\n"))); err != nil {
		return nil, fmt.Errorf("apt: writing %s: %w", strings.Join(path, "/"), err)
	}

	p, err := r.AddPackage(stanza, source)
	if err != nil {
		return nil, err
	}
	if len(contents) > 0 {
		p.contents = contents
	}
	return p, nil
}

// PoolPath returns the repository-relative location a package blob is stored
// at, following the Debian pool convention: the first letter of the package
// name shards the tree, lib-prefixed for library sections.
func PoolPath(section, name, version, arch string) string {
	prefix := name[:1]
	if section == "libs" || section == "oldlibs" {
		prefix = "lib" + prefix
	}
	return fmt.Sprintf("pool/%s/%s/%s_%s_%s.deb", prefix, name, name, version, arch)
}

// HasBlob reports whether the blob of a package with the given control
// fields is already present in this repository's store. It consults the
// transport, not the in-memory pool, so it also sees blobs written by
// earlier sessions.
func (r *Repository) HasBlob(section, name, version, arch string) (bool, error) {
	return r.Transport.Exists(r.BaseURI + PoolPath(section, name, version, arch))
}
