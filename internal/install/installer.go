// Package install places fetched artifacts at their target executable
// paths: bare binaries are copied with the right permission bits, archives
// have a single member extracted first, and secondary symlink aliases are
// created. All writes outside the user's home go through an explicit
// privilege runner.
package install

import (
	"context"
	"fmt"
	"os"

	"github.com/mhalloway/rigup/internal/manifest"
	"github.com/mhalloway/rigup/internal/privilege"
)

// Installer produces executables at their well-known paths.
type Installer struct {
	runner privilege.Runner
}

// NewInstaller creates an installer that performs privileged writes through
// runner.
func NewInstaller(runner privilege.Runner) *Installer {
	return &Installer{runner: runner}
}

// Install places the fetched artifact for spec at spec.Target with
// spec.Mode, extracting spec.ArchiveMember first for archives, then creates
// any secondary symlinks and discards the transient archive. Re-running
// overwrites the existing binary (upgrade-in-place); no rollback.
func (i *Installer) Install(ctx context.Context, spec *manifest.ToolSpec, artifactPath string) error {
	source := artifactPath

	if spec.Kind == manifest.KindArchive {
		extractDir, err := os.MkdirTemp("", "rigup-extract-*")
		if err != nil {
			return fmt.Errorf("create extract dir: %w", err)
		}
		defer os.RemoveAll(extractDir)

		source, err = extractMember(artifactPath, spec.ArchiveMember, extractDir)
		if err != nil {
			return fmt.Errorf("extract %s: %w", spec.ArchiveMember, err)
		}
	}

	mode := spec.Mode
	if mode == 0 {
		mode = 0o755
	}

	if err := i.runner.InstallFile(ctx, source, spec.Target, mode); err != nil {
		return fmt.Errorf("install %s: %w", spec.Target, err)
	}

	for _, link := range spec.Links {
		if err := i.runner.Symlink(ctx, spec.Target, link); err != nil {
			return fmt.Errorf("link %s: %w", link, err)
		}
	}

	// The downloaded archive is a transient artifact; the extracted
	// binary has been installed, so discard it.
	if spec.Kind == manifest.KindArchive {
		if err := os.Remove(artifactPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("discard archive: %w", err)
		}
	}

	return nil
}

// RunScript executes a staged installer script through the privilege
// runner and removes it afterwards.
func (i *Installer) RunScript(ctx context.Context, scriptPath string) error {
	defer os.Remove(scriptPath)

	if err := i.runner.RunScript(ctx, scriptPath); err != nil {
		return fmt.Errorf("installer script: %w", err)
	}
	return nil
}

// IsInstalled checks if an executable already exists at the target path.
// Provisioning overwrites regardless; this exists for status reporting.
func IsInstalled(target string) (bool, error) {
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat target: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	return info.Mode().Perm()&0o111 != 0, nil
}
