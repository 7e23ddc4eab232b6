package provision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// RunJournal persists one provisioning run to disk so past runs can be
// inspected after the fact.
type RunJournal struct {
	Version  int    `json:"version"` // Schema version for future evolution
	ID       string `json:"id"`      // UUID for unique identification
	ExitCode int    `json:"exit_code"`
	Report   Report `json:"report"`
}

// NewJournal wraps a finished report in a journal entry with a fresh run ID.
func NewJournal(report *Report) *RunJournal {
	return &RunJournal{
		Version:  1,
		ID:       uuid.New().String(),
		ExitCode: report.ExitCode(),
		Report:   *report,
	}
}

// Save writes the journal to dir atomically using write-then-rename.
func (j *RunJournal) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	finalPath := filepath.Join(dir, fmt.Sprintf("run-%s.json", j.ID))
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temporary journal file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename journal file: %w", err)
	}

	return nil
}

// LoadJournal reads a journal entry from disk.
func LoadJournal(path string) (*RunJournal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal file: %w", err)
	}

	var journal RunJournal
	if err := json.Unmarshal(data, &journal); err != nil {
		return nil, fmt.Errorf("unmarshal journal: %w", err)
	}

	return &journal, nil
}
