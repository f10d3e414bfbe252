package tags

import (
	"strconv"
)

// packageMagic are the fields of a Packages stanza that describe the package
// blob rather than the package itself. They project into a FileHash.
var packageMagic = []string{"Filename", "MD5Sum", "SHA1", "SHA256", "SHA512"}

// Package is one stanza of a Packages index: the control fields of a binary
// package plus the location and digests of its .deb file.
//
// The Filename and checksum fields are magic and live on an embedded
// FileHash; everything else (Package, Version, Architecture, Section,
// Depends, ...) is a plain field. A package is identified in a repository by
// its SHA256.
type Package struct {
	Block

	hashes *FileHash
}

// NewPackage returns an empty Package stanza.
func NewPackage() *Package {
	p := &Package{hashes: NewFileHash("")}
	p.Block.fields = make(map[string]string)
	p.Block.magic = packageMagic
	p.Block.required = []string{"Package", "Version", "Filename", "SHA256"}
	p.Block.setMagic = p.setHash
	p.Block.getMagic = p.hash
	return p
}

func (p *Package) setHash(name, value string) error {
	if name == "Filename" {
		p.hashes.Filename = value
		return nil
	}
	p.hashes.Set(name, value)
	return nil
}

func (p *Package) hash(name string) (string, bool) {
	if name == "Filename" {
		return p.hashes.Filename, p.hashes.Filename != ""
	}
	digest, _ := p.hashes.Get(name)
	return digest, digest != ""
}

// Len counts the plain fields plus any populated blob metadata, so the
// parser never drops a stanza that only carries magic fields.
func (p *Package) Len() int {
	n := p.Block.Len()
	if p.hashes.Filename != "" {
		n++
	}
	if _, _, ok := p.hashes.Best(); ok {
		n++
	}
	return n
}

// Hashes returns the FileHash describing the package blob. The size slot is
// refreshed from the plain Size field, which Packages indices carry as an
// ordinary control field.
func (p *Package) Hashes() *FileHash {
	if v, ok := p.Get("Size"); ok {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.hashes.Size = size
		}
	}
	return p.hashes
}

// Name returns the Package field.
func (p *Package) Name() string {
	v, _ := p.Get("Package")
	return v
}

// Version returns the Version field.
func (p *Package) Version() string {
	v, _ := p.Get("Version")
	return v
}

// Architecture returns the Architecture field.
func (p *Package) Architecture() string {
	v, _ := p.Get("Architecture")
	return v
}

// Section returns the Section field.
func (p *Package) Section() string {
	v, _ := p.Get("Section")
	return v
}

// FromBlock copies every field of a plain block into a fresh Package,
// routing the blob fields through the magic projection.
func FromBlock(b *Block) *Package {
	p := NewPackage()
	for _, name := range b.Names() {
		v, _ := b.Get(name)
		p.Set(name, v)
	}
	return p
}

// ParsePackages parses data as a sequence of Packages stanzas.
func ParsePackages(data []byte) ([]*Package, error) {
	return parseStanzas(data, NewPackage)
}
