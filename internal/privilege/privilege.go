// Package privilege models the privilege-escalation boundary as an explicit
// capability. Installing to system binary directories and running remote
// installer scripts require elevated execution; callers receive a Runner
// rather than assuming ambient root, so tests can inject a local or
// simulated escalation.
package privilege

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Runner performs filesystem and script operations that may require
// elevated privileges.
type Runner interface {
	// InstallFile places src at dst with the given permission mode,
	// overwriting any existing file (upgrade-in-place).
	InstallFile(ctx context.Context, src, dst string, mode os.FileMode) error

	// Symlink creates (or replaces) a symbolic link at link pointing to
	// target.
	Symlink(ctx context.Context, target, link string) error

	// Remove deletes a file, ignoring its absence.
	Remove(ctx context.Context, path string) error

	// RunScript executes a local shell script. The script is opaque and
	// trusted; its output is streamed, not validated.
	RunScript(ctx context.Context, scriptPath string) error
}

// EscalationError indicates a privileged command failed or escalation was
// declined.
type EscalationError struct {
	Cmd string
	Err error
}

func (e *EscalationError) Error() string {
	return fmt.Sprintf("privileged command %q failed: %v", e.Cmd, e.Err)
}

func (e *EscalationError) Unwrap() error {
	return e.Err
}

// Sudo is a Runner that escalates through the sudo binary. Output from the
// escalated commands is forwarded to Stdout/Stderr when set.
type Sudo struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewSudo creates a sudo-backed runner writing command output to the
// process's own streams.
func NewSudo() *Sudo {
	return &Sudo{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (s *Sudo) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "sudo", args...)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if err := cmd.Run(); err != nil {
		return &EscalationError{Cmd: "sudo " + args[0], Err: err}
	}
	return nil
}

// InstallFile installs src to dst via install(1), which copies and sets the
// mode in one privileged step.
func (s *Sudo) InstallFile(ctx context.Context, src, dst string, mode os.FileMode) error {
	return s.run(ctx, "install", "-m", fmt.Sprintf("%04o", mode.Perm()), src, dst)
}

// Symlink replaces link with a symlink to target.
func (s *Sudo) Symlink(ctx context.Context, target, link string) error {
	return s.run(ctx, "ln", "-sfn", target, link)
}

// Remove deletes path, ignoring its absence.
func (s *Sudo) Remove(ctx context.Context, path string) error {
	return s.run(ctx, "rm", "-f", path)
}

// RunScript executes the script through sh under sudo.
func (s *Sudo) RunScript(ctx context.Context, scriptPath string) error {
	return s.run(ctx, "sh", scriptPath)
}

// Local is a Runner that performs operations directly, without escalation.
// It serves user-writable targets and tests; writes to protected
// directories surface ordinary permission errors.
type Local struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewLocal creates a direct runner writing script output to the process's
// own streams.
func NewLocal() *Local {
	return &Local{Stdout: os.Stdout, Stderr: os.Stderr}
}

// InstallFile copies src to dst and applies mode.
func (l *Local) InstallFile(ctx context.Context, src, dst string, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}

	// Write to a temp file next to the target, then rename, so a failed
	// copy never leaves a truncated executable behind.
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Symlink replaces link with a symlink to target.
func (l *Local) Symlink(ctx context.Context, target, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing link: %w", err)
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}
	return nil
}

// Remove deletes path, ignoring its absence.
func (l *Local) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// RunScript executes the script through sh as the current user.
func (l *Local) RunScript(ctx context.Context, scriptPath string) error {
	cmd := exec.CommandContext(ctx, "sh", scriptPath)
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}
