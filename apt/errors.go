package apt

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValidHash is returned when a download is requested for a file
	// whose FileHash carries no digest at all.
	ErrNoValidHash = errors.New("apt: no valid hash supplied")

	// ErrNoSize is returned when a download is requested for a file whose
	// FileHash carries no size.
	ErrNoSize = errors.New("apt: file size missing from hash")

	// ErrNotExist is returned when a distribution is consulted but its
	// release file (or, under a verifier, its Release.gpg) is not found.
	// Callers should check Exists first.
	ErrNotExist = errors.New("apt: distribution does not exist")

	// ErrUnattached is returned when a repo-bound object is used without an
	// owning repository.
	ErrUnattached = errors.New("apt: object is not attached to a repository")
)

// ChecksumError reports a file whose declared digest or size disagreed with
// its bytes. No data from such a file is ever surfaced.
type ChecksumError struct {
	Path string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("apt: incorrect checksum for %s", e.Path)
}

// MissingFieldError reports a package stanza that lacks one of the fields a
// pool entry requires.
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("apt: %s: missing control field %s", e.Path, e.Field)
}

// SignatureError reports a release file whose PGP verification failed.
// Signature failures are fatal for the affected distribution.
type SignatureError struct {
	Path string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("apt: signature verification failed for %s", e.Path)
}
