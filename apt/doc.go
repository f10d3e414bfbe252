// Package apt navigates, verifies and mirrors APT repositories.
//
// A Repository is addressed by a base URI and talks to its store through the
// transport package. Distributions resolve their signed release metadata
// (InRelease, or Release with a detached Release.gpg), enumerate the
// per-component, per-architecture Packages indices, and stream every index
// through a checksum verifier before a single stanza is parsed. Packages
// enter the content-addressed pool either from a verified index or by
// adopting raw .deb bytes, deduplicated across distributions by SHA256.
//
// Signature checking is pluggable through the Verifier interface; the
// KeyringVerifier implementation is backed by ProtonMail's openpgp. A
// repository constructed without a verifier checks nothing, which is a
// deliberate degradation for unsigned or locally trusted repositories.
package apt
