// Package platform provides machine architecture detection for rigup.
//
// It reads the host's raw hardware identifier (the uname -m value) and maps
// it to a canonical binary-release architecture tag through an ordered
// rewrite chain. The raw identifier is resolved exactly once per run; every
// tool installation consumes the same resolved tag.
package platform

import "context"

// Canonical architecture tags used to select prebuilt binary releases.
const (
	ArchAMD64 = "amd64"
	ArchARM   = "arm"
	ArchARM64 = "arm64"
)

// Tag is a binary-release architecture label. Unrecognized raw identifiers
// propagate through resolution unchanged, so a Tag is not guaranteed to be
// canonical; callers check Canonical before trusting it in a URL.
type Tag string

// String returns the string representation of the tag.
func (t Tag) String() string {
	return string(t)
}

// Canonical reports whether the tag is one of the known release tags.
func (t Tag) Canonical() bool {
	switch string(t) {
	case ArchAMD64, ArchARM, ArchARM64:
		return true
	default:
		return false
	}
}

// Info contains platform detection information.
type Info struct {
	OS      string // "linux", "darwin"
	RawArch string // raw machine identifier, e.g. "x86_64", "aarch64"
	Arch    Tag    // resolved release tag, read-only after detection
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsAMD64 returns true if the resolved architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == ArchAMD64
}

// IsARM returns true if the resolved architecture is 32-bit ARM.
func (i *Info) IsARM() bool {
	return i.Arch == ArchARM
}

// IsARM64 returns true if the resolved architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == ArchARM64
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
