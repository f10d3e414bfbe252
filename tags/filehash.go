package tags

import "strings"

// FileHash aggregates the size and the digests APT makes allowances for, for
// one file of a repository.
//
// Hash names are case-insensitive and a "sum" suffix is ignored, so MD5Sum,
// md5sum and md5 all address the same slot. An empty slot means the digest is
// not known; a negative Size means the size is not known.
type FileHash struct {
	Filename string
	Size     int64

	MD5    string
	SHA1   string
	SHA256 string
	SHA512 string
}

// NewFileHash returns a FileHash for filename with no digests and an unknown
// size.
func NewFileHash(filename string) *FileHash {
	return &FileHash{Filename: filename, Size: -1}
}

// hashPriority is the order a digest is selected in when several are
// available. MD5 and SHA1 come last; they are not collision resistant.
var hashPriority = []string{"sha256", "sha512", "sha1", "md5"}

func normalizeHashName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "sum", "")
}

// Get returns the digest stored under name, which may be spelled in any of
// the aliased forms. ok is false when name is not a known hash.
func (h *FileHash) Get(name string) (digest string, ok bool) {
	switch normalizeHashName(name) {
	case "md5":
		return h.MD5, true
	case "sha1":
		return h.SHA1, true
	case "sha256":
		return h.SHA256, true
	case "sha512":
		return h.SHA512, true
	}
	return "", false
}

// Set stores a digest under name, which may be spelled in any of the aliased
// forms. It reports whether name addressed a known hash.
func (h *FileHash) Set(name, digest string) bool {
	switch normalizeHashName(name) {
	case "md5":
		h.MD5 = digest
	case "sha1":
		h.SHA1 = digest
	case "sha256":
		h.SHA256 = digest
	case "sha512":
		h.SHA512 = digest
	default:
		return false
	}
	return true
}

// Best selects the strongest populated digest, preferring sha256, then
// sha512, sha1 and md5. ok is false when no digest is populated.
func (h *FileHash) Best() (name, digest string, ok bool) {
	for _, name := range hashPriority {
		if d, _ := h.Get(name); d != "" {
			return name, d, true
		}
	}
	return "", "", false
}
