package apt

import "sort"

// PackageList is an unordered set of packages from one repository, keyed by
// SHA256. Several lists may reference the same pool entry; the pool owns
// the packages, a list only names them.
type PackageList struct {
	repo   *Repository
	hashes map[string]struct{}
}

func newPackageList(repo *Repository) *PackageList {
	return &PackageList{repo: repo, hashes: make(map[string]struct{})}
}

func (l *PackageList) add(p *Package) {
	sha, _ := p.Get("SHA256")
	l.hashes[sha] = struct{}{}
}

// Add inserts a package into the list, adopting it into the owning
// repository's pool first when it belongs to another repository.
func (l *PackageList) Add(p *Package) (*Package, error) {
	adopted, err := l.repo.AdoptPackage(p)
	if err != nil {
		return nil, err
	}
	l.add(adopted)
	return adopted, nil
}

// Has reports whether the list references the given SHA256.
func (l *PackageList) Has(sha256 string) bool {
	_, ok := l.hashes[sha256]
	return ok
}

// Len is the number of packages in the list.
func (l *PackageList) Len() int {
	return len(l.hashes)
}

// Packages resolves the list against the pool, sorted by package name then
// version for deterministic iteration.
func (l *PackageList) Packages() []*Package {
	out := make([]*Package, 0, len(l.hashes))
	for sha := range l.hashes {
		if p, ok := l.repo.PackageByHash(sha); ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].Version() < out[j].Version()
	})
	return out
}
