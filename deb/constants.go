package deb

// Member represents a standard member of the .deb archive (ar format).
type Member string

const (
	MemberDebianBinary Member = "debian-binary"
	MemberControlTar   Member = "control.tar"
	MemberDataTar      Member = "data.tar"
)

// ControlFile represents a standard file found in the control.tar.* member.
type ControlFile string

const (
	FileControl ControlFile = "control"
)
