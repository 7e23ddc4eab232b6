// Package shell appends configuration lines (aliases, completion hooks) to
// the user's shell profile files. Appends are idempotent by default: a line
// already present in the file is not added again, so repeated provisioning
// runs leave a single copy.
package shell

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mhalloway/rigup/internal/manifest"
)

// ProfileFileError indicates an error operating on a shell profile file.
type ProfileFileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ProfileFileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("profile file %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("profile file %s: %s", e.Path, e.Message)
}

func (e *ProfileFileError) Unwrap() error {
	return e.Cause
}

// Augmenter appends lines to profile files under a home directory. A mutex
// serializes appends so concurrent tool installs never interleave writes to
// the same file.
type Augmenter struct {
	homeDir string

	// RawAppend disables the duplicate check and appends unconditionally,
	// matching the behavior of a plain ">>" redirect.
	RawAppend bool

	mu sync.Mutex
}

// NewAugmenter creates an augmenter resolving profile files relative to
// homeDir. Deduplicated appends are the default.
func NewAugmenter(homeDir string) *Augmenter {
	return &Augmenter{homeDir: homeDir}
}

// EnsureLine appends the profile line to its file, creating the file if it
// does not exist. Unless RawAppend is set, a line already present anywhere
// in the file is left alone.
func (a *Augmenter) EnsureLine(line manifest.ProfileLine) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.resolve(line.File)

	if !a.RawAppend {
		present, err := containsLine(path, line.Line)
		if err != nil {
			return err
		}
		if present {
			return nil
		}
	}

	return appendLine(path, line.Line)
}

// EnsureLines appends each line in order, stopping at the first error.
func (a *Augmenter) EnsureLines(lines []manifest.ProfileLine) error {
	for _, line := range lines {
		if err := a.EnsureLine(line); err != nil {
			return err
		}
	}
	return nil
}

// resolve turns a profile file name into an absolute path. Names are
// relative to the home directory; absolute paths pass through.
func (a *Augmenter) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(a.homeDir, file)
}

// containsLine reports whether the file already holds the exact line,
// ignoring surrounding whitespace. A missing file contains nothing.
func containsLine(path, line string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &ProfileFileError{Path: path, Message: "failed to open file", Cause: err}
	}
	defer file.Close()

	want := strings.TrimSpace(line)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == want {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, &ProfileFileError{Path: path, Message: "failed to read file", Cause: err}
	}
	return false, nil
}

// appendLine rewrites the file with the line appended, using a temp file and
// atomic rename so a failed write never truncates the profile.
func appendLine(path, line string) error {
	var existing []byte
	if content, err := os.ReadFile(path); err == nil {
		existing = content
	} else if !os.IsNotExist(err) {
		return &ProfileFileError{Path: path, Message: "failed to read existing file", Cause: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ProfileFileError{Path: path, Message: "failed to create parent directory", Cause: err}
	}

	tmpFile, err := os.CreateTemp(dir, ".rigup-tmp-*")
	if err != nil {
		return &ProfileFileError{Path: path, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if len(existing) > 0 {
		if _, err := tmpFile.Write(existing); err != nil {
			tmpFile.Close()
			return &ProfileFileError{Path: path, Message: "failed to write existing content", Cause: err}
		}
		if !strings.HasSuffix(string(existing), "\n") {
			if _, err := tmpFile.WriteString("\n"); err != nil {
				tmpFile.Close()
				return &ProfileFileError{Path: path, Message: "failed to write newline", Cause: err}
			}
		}
	}

	if _, err := tmpFile.WriteString(line + "\n"); err != nil {
		tmpFile.Close()
		return &ProfileFileError{Path: path, Message: "failed to append line", Cause: err}
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return &ProfileFileError{Path: path, Message: "failed to sync file", Cause: err}
	}
	tmpFile.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return &ProfileFileError{Path: path, Message: "failed to rename temp file", Cause: err}
	}
	return nil
}
