// Package deb reads Debian binary packages.
//
// A .deb file is an AR archive with a fixed member layout: a debian-binary
// marker, a control.tar.* member holding the package metadata, and a
// data.tar.* member holding the file payload. The package walks both
// embedded TAR streams without materialising them, decompressing gzip, xz
// and zstd members as needed, and exposes the two pieces a repository cares
// about: the control stanza and the list of installed paths.
package deb
