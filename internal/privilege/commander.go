package privilege

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Commander runs ordinary commands under the invoking user's account.
// Post-install steps like cloud CLI plugin registration use this side of
// the boundary, never the escalated one.
type Commander interface {
	Run(ctx context.Context, argv []string) error
}

// ExecCommander is the real Commander backed by os/exec.
type ExecCommander struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommander creates a Commander writing output to the process's own
// streams.
func NewCommander() *ExecCommander {
	return &ExecCommander{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes argv[0] with the remaining arguments.
func (c *ExecCommander) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}
