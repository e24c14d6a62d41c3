package zipfmt

import "io/fs"

// Unix file type and special-permission bits for the external attributes
// field.
const (
	unixRegular = 0o100000
	unixDir     = 0o40000
	unixSetuid  = 0o4000
	unixSetgid  = 0o2000
	unixSticky  = 0o1000
)

// ExternalAttrs encodes mode as Unix type and permission bits in the high
// 16 bits of the central directory external-attributes field, the layout
// written by Unix zip tools.
func ExternalAttrs(mode fs.FileMode, isDir bool) uint32 {
	m := uint32(mode.Perm())
	if mode&fs.ModeSetuid != 0 {
		m |= unixSetuid
	}
	if mode&fs.ModeSetgid != 0 {
		m |= unixSetgid
	}
	if mode&fs.ModeSticky != 0 {
		m |= unixSticky
	}
	if isDir {
		m |= unixDir
	} else {
		m |= unixRegular
	}
	return m << 16
}
