// Package manifest defines the tool catalog consumed by the provisioner:
// the static descriptors of each installable tool and the optional Lua
// overlay that adjusts the catalog per machine.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/mhalloway/rigup/internal/platform"
)

// ArtifactKind describes how a tool's release artifact is delivered.
type ArtifactKind string

const (
	// KindBinary is a bare executable downloaded and placed directly.
	KindBinary ArtifactKind = "binary"
	// KindArchive is a tar.gz from which a single member is extracted.
	KindArchive ArtifactKind = "archive"
	// KindScript is a remote installer script executed with elevated
	// privileges. Scripts are opaque and trusted: they are never verified
	// and their output is not validated.
	KindScript ArtifactKind = "script"
)

// ProfileLine is a literal line appended to a shell startup file.
type ProfileLine struct {
	// File is the profile filename relative to the user's home directory,
	// e.g. ".bash_aliases" or ".bashrc".
	File string
	// Line is appended verbatim as its own line.
	Line string
}

// ToolSpec is the static descriptor of one installable tool. Specs are
// constructed at orchestration start, consumed once, and discarded.
type ToolSpec struct {
	Name    string
	Kind    ArtifactKind
	Version string

	// URL is a download URL template with {version} and {arch} placeholders.
	URL string
	// ArchURLs overrides URL for specific resolved tags. The cloud-provider
	// CLI ships a separate arm64 installer endpoint; the override consumes
	// the single resolved tag, never a second raw-identifier check.
	ArchURLs map[string]string

	// ChecksumURL points at the release's SHA256 checksum file; empty skips
	// checksum verification for the tool.
	ChecksumURL string
	// SignatureURL points at a detached GPG signature; empty skips GPG.
	SignatureURL string
	// Keyring is the armored public-keyring filename under the keyring
	// directory, required when SignatureURL is set.
	Keyring string

	// ArchiveMember is the member extracted from a KindArchive artifact.
	ArchiveMember string

	// Target is the canonical executable path, e.g. /usr/local/bin/yq.
	Target string
	// Links are secondary symlink paths pointing at Target.
	Links []string
	// Mode is the permission mode applied to Target.
	Mode os.FileMode

	// PostInstall commands run unprivileged after a successful install,
	// e.g. plugin registration under the invoking user's account.
	PostInstall [][]string

	// ProfileLines are appended to shell startup files after install.
	ProfileLines []ProfileLine
}

// RenderURL resolves the tool's download URL for an architecture tag.
// Per-arch overrides win over the template. A non-canonical tag still
// renders; the resulting URL will 404 and the failure surfaces per tool.
func (t *ToolSpec) RenderURL(arch platform.Tag) string {
	raw := t.URL
	if override, ok := t.ArchURLs[arch.String()]; ok {
		raw = override
	}
	return t.render(raw, arch)
}

// RenderChecksumURL resolves the checksum file URL, or "" when unset.
func (t *ToolSpec) RenderChecksumURL(arch platform.Tag) string {
	return t.render(t.ChecksumURL, arch)
}

// RenderSignatureURL resolves the detached signature URL, or "" when unset.
func (t *ToolSpec) RenderSignatureURL(arch platform.Tag) string {
	return t.render(t.SignatureURL, arch)
}

func (t *ToolSpec) render(tmpl string, arch platform.Tag) string {
	s := strings.ReplaceAll(tmpl, "{version}", t.Version)
	return strings.ReplaceAll(s, "{arch}", arch.String())
}

// Validate checks that a spec is internally consistent.
func (t *ToolSpec) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tool spec has no name")
	}
	if t.URL == "" {
		return fmt.Errorf("tool %s: no download URL", t.Name)
	}
	switch t.Kind {
	case KindBinary, KindArchive:
		if t.Target == "" {
			return fmt.Errorf("tool %s: no install target", t.Name)
		}
	case KindScript:
		// Scripts manage their own targets.
	default:
		return fmt.Errorf("tool %s: unknown artifact kind %q", t.Name, t.Kind)
	}
	if t.Kind == KindArchive && t.ArchiveMember == "" {
		return fmt.Errorf("tool %s: archive without member to extract", t.Name)
	}
	if t.SignatureURL != "" && t.Keyring == "" {
		return fmt.Errorf("tool %s: signature URL without keyring", t.Name)
	}
	return nil
}

// Manifest is the resolved tool catalog for one provisioning run, in
// installation order.
type Manifest struct {
	Tools []ToolSpec

	// ExtraProfileLines come from the Lua overlay and are appended to shell
	// startup files after all tools have run.
	ExtraProfileLines []ProfileLine
}

// Validate checks every tool spec in the manifest.
func (m *Manifest) Validate() error {
	if len(m.Tools) == 0 {
		return fmt.Errorf("manifest has no tools")
	}
	for i := range m.Tools {
		if err := m.Tools[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Tool returns the spec with the given name, or nil.
func (m *Manifest) Tool(name string) *ToolSpec {
	for i := range m.Tools {
		if m.Tools[i].Name == name {
			return &m.Tools[i]
		}
	}
	return nil
}
