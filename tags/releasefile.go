package tags

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// releaseMagic are the per-hash checksum tables of a Release file, in the
// order they are emitted.
var releaseMagic = []string{"MD5Sum", "SHA1", "SHA256", "SHA512"}

// ReleaseFile is the stanza at the top of a distribution: repository metadata
// plus, per hash algorithm, a table of every index file it certifies.
//
// The checksum fields are magic: writing one merges its "hex size filename"
// rows into Files, and reading one re-synthesises the table from Files. A
// file listed under several algorithms ends up as a single FileHash with
// several slots populated.
type ReleaseFile struct {
	Block

	// Files indexes every certified file by its repository-relative name.
	Files map[string]*FileHash
}

// NewReleaseFile returns an empty ReleaseFile.
func NewReleaseFile() *ReleaseFile {
	r := &ReleaseFile{Files: make(map[string]*FileHash)}
	r.Block.fields = make(map[string]string)
	r.Block.magic = releaseMagic
	r.Block.setMagic = r.mergeTable
	r.Block.getMagic = r.table
	return r
}

// mergeTable parses the value of one checksum field into Files. Each
// non-empty line carries a hex digest, a decimal size and a filename,
// separated by arbitrary whitespace. The size of a file is taken from its
// first occurrence.
func (r *ReleaseFile) mergeTable(name, value string) error {
	for _, line := range strings.Split(value, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 3 {
			return fmt.Errorf("tags: malformed %s row %q", name, line)
		}
		size, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return fmt.Errorf("tags: malformed size in %s row %q: %w", name, line, err)
		}

		fh, ok := r.Files[parts[2]]
		if !ok {
			fh = NewFileHash(parts[2])
			fh.Size = size
			r.Files[parts[2]] = fh
		}
		fh.Set(name, parts[0])
	}
	return nil
}

// table re-synthesises one checksum field from Files, one row per file that
// has the digest populated, sorted by filename. ok is false when no file
// carries that digest.
func (r *ReleaseFile) table(name string) (string, bool) {
	names := make([]string, 0, len(r.Files))
	for fn := range r.Files {
		names = append(names, fn)
	}
	sort.Strings(names)

	var rows []string
	for _, fn := range names {
		fh := r.Files[fn]
		digest, _ := fh.Get(name)
		if digest == "" {
			continue
		}
		rows = append(rows, fmt.Sprintf("%s %12d %s", digest, fh.Size, fh.Filename))
	}
	if len(rows) == 0 {
		return "", false
	}
	return strings.Join(rows, "\n"), true
}

// Len counts the plain fields plus the presence of any checksum table, so
// the parser yields release stanzas that consist of tables alone.
func (r *ReleaseFile) Len() int {
	n := r.Block.Len()
	if len(r.Files) > 0 {
		n++
	}
	return n
}

// Components returns the whitespace-split value of the Components field.
func (r *ReleaseFile) Components() []string {
	v, _ := r.Get("Components")
	return strings.Fields(v)
}

// Architectures returns the whitespace-split value of the Architectures
// field.
func (r *ReleaseFile) Architectures() []string {
	v, _ := r.Get("Architectures")
	return strings.Fields(v)
}

// ParseRelease parses data as a single Release stanza.
func ParseRelease(data []byte) (*ReleaseFile, error) {
	blocks, err := parseStanzas(data, NewReleaseFile)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("tags: release file contains no stanza")
	}
	return blocks[0], nil
}
