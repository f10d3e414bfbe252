// Package tags reads and writes the RFC822-like stanza format used across
// APT and DPKG: control files, Packages indices and Release files.
//
// The base type is Block, an ordered field mapping with stable serialisation.
// Two specialised views give structure to the fields that are more than flat
// text: ReleaseFile projects the per-hash checksum tables into a filename
// index, and Package projects the blob location and digests of a Packages
// stanza into a FileHash.
//
// Parsing is strict about the wire format (UTF-8, a colon in every header line)
// and tolerant about the historical sloppiness the format accumulated:
// trailing whitespace, stray continuation lines before the first header, and
// stanzas terminated by end of input instead of a blank line.
package tags
