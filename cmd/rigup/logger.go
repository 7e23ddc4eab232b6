package main

import (
	"os"

	clog "github.com/charmbracelet/log"

	"github.com/mhalloway/rigup/internal/provision"
)

// cliLogger adapts charmbracelet/log to the provision.Logger interface.
// It prints to stderr with timestamps enabled for better UX.
type cliLogger struct {
	l *clog.Logger
}

func newCLILogger() provision.Logger {
	return &cliLogger{
		l: clog.NewWithOptions(os.Stderr, clog.Options{
			ReportTimestamp: true,
		}),
	}
}

func (c *cliLogger) Debug(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c *cliLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Info(msg, keysAndValues...)
}

func (c *cliLogger) Warn(msg string, keysAndValues ...interface{}) {
	c.l.Warn(msg, keysAndValues...)
}

func (c *cliLogger) Error(msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, keysAndValues...)
}
