package apt

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/apt-mirror/deb"
	"github.com/etnz/apt-mirror/tags"
)

// Package is a pool entry: a Packages stanza bound to the repository that
// stores its blob. It lives once in the pool however many distributions
// reference it.
type Package struct {
	*tags.Package

	repo     *Repository
	contents []string
}

// Repository returns the repository owning this package.
func (p *Package) Repository() *Repository {
	return p.repo
}

// Contents returns the paths the package installs. The .contents sidecar
// next to the blob is preferred; without one the manifest is extracted from
// the .deb itself. The result is cached.
func (p *Package) Contents() ([]string, error) {
	if p.contents != nil {
		return p.contents, nil
	}
	if p.repo == nil {
		return nil, ErrUnattached
	}

	filename, ok := p.Get("Filename")
	if !ok {
		return nil, fmt.Errorf("apt: package %s has no file to list contents of", p.Name())
	}

	sidecar := []string{filename + ".contents"}
	if ok, err := p.repo.Transport.Exists(p.repo.uri(sidecar)); err == nil && ok {
		stream, err := p.repo.openFile(sidecar)
		if err != nil {
			return nil, err
		}
		defer stream.Close()
		data, err := io.ReadAll(stream)
		if err != nil {
			return nil, fmt.Errorf("apt: reading %s: %w", filename+".contents", err)
		}
		var paths []string
		for _, line := range strings.Split(string(data), "\n") {
			if line != "" {
				paths = append(paths, line)
			}
		}
		p.contents = paths
		return paths, nil
	}

	stream, err := p.repo.openFile([]string{filename})
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	paths, err := deb.ExtractContents(stream)
	if err != nil {
		return nil, err
	}
	p.contents = paths
	return paths, nil
}
