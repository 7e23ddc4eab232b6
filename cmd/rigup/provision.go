package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mhalloway/rigup/internal/fetch"
	"github.com/mhalloway/rigup/internal/install"
	"github.com/mhalloway/rigup/internal/manifest"
	"github.com/mhalloway/rigup/internal/platform"
	"github.com/mhalloway/rigup/internal/privilege"
	"github.com/mhalloway/rigup/internal/provision"
	"github.com/mhalloway/rigup/internal/shell"
)

// EnvRigupDir overrides the state directory (cache, keyrings, run journals).
const EnvRigupDir = "RIGUP_DIR"

type provisionFlags struct {
	manifestPath string
	parallel     bool
	rawAppend    bool
	dryRun       bool
	noSudo       bool
	reportPath   string
	format       string
}

func parseProvisionFlags(args []string) (*provisionFlags, error) {
	flags := &provisionFlags{}
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	fs.StringVar(&flags.manifestPath, "manifest", "", "Lua manifest overlay file")
	fs.BoolVar(&flags.parallel, "parallel", false, "provision tools concurrently")
	fs.BoolVar(&flags.rawAppend, "raw-append", false, "append profile lines without duplicate checks")
	fs.BoolVar(&flags.dryRun, "dry-run", false, "show planned steps without changing anything")
	fs.BoolVar(&flags.noSudo, "no-sudo", false, "install without privilege escalation")
	fs.StringVar(&flags.reportPath, "report", "", "write the run report to this file")
	fs.StringVar(&flags.format, "format", "json", "report format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if flags.format != "json" && flags.format != "yaml" {
		return nil, fmt.Errorf("unknown report format %q (want json or yaml)", flags.format)
	}
	return flags, nil
}

// runProvision executes the provisioning routine and returns the process
// exit code: 0 only when every step succeeded.
func runProvision(args []string) (int, error) {
	flags, err := parseProvisionFlags(args)
	if err != nil {
		return 1, err
	}

	ctx := context.Background()
	logger := newCLILogger()

	rigDir, err := getRigDir()
	if err != nil {
		return 1, err
	}

	// Resolve the architecture once. The manifest overlay and every tool
	// consume this same result.
	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return 1, fmt.Errorf("resolve architecture: %w", err)
	}

	m, err := loadManifest(info, flags.manifestPath)
	if err != nil {
		return 1, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return 1, fmt.Errorf("get home directory: %w", err)
	}

	var runner privilege.Runner
	if flags.noSudo {
		runner = privilege.NewLocal()
	} else {
		runner = privilege.NewSudo()
	}

	augmenter := shell.NewAugmenter(homeDir)
	augmenter.RawAppend = flags.rawAppend

	orch, err := provision.New(provision.Config{
		Detector:  platform.StaticDetector(info),
		Fetcher:   fetch.NewFetcher(filepath.Join(rigDir, "cache", "downloads")),
		Verifier:  install.NewVerifier(filepath.Join(rigDir, "keyrings")),
		Installer: install.NewInstaller(runner),
		Augmenter: augmenter,
		Logger:    logger,
		Parallel:  flags.parallel,
		DryRun:    flags.dryRun,
	})
	if err != nil {
		return 1, err
	}

	report, err := orch.Provision(ctx, m)
	if err != nil {
		return 1, err
	}

	if !flags.dryRun {
		journal := provision.NewJournal(report)
		if err := journal.Save(filepath.Join(rigDir, "runs")); err != nil {
			logger.Warn("could not persist run journal", "error", err)
		}
	}

	printSummary(report)

	if flags.reportPath != "" {
		if err := writeReport(report, flags.reportPath, flags.format); err != nil {
			return 1, err
		}
	}

	return report.ExitCode(), nil
}

// loadManifest builds the catalog, applying the Lua overlay when given.
func loadManifest(info *platform.Info, overlayPath string) (*manifest.Manifest, error) {
	base := manifest.Default()
	if overlayPath == "" {
		return base, nil
	}
	return manifest.NewParser(info).ApplyFile(base, overlayPath)
}

// printSummary writes the per-step outcome to stderr.
func printSummary(report *provision.Report) {
	for _, result := range report.Results {
		if result.Succeeded {
			fmt.Fprintf(os.Stderr, "  ok   %s\n", result.Tool)
			continue
		}
		fmt.Fprintf(os.Stderr, "  FAIL %s (%s): %s\n", result.Tool, result.Failure, result.Detail)
	}
	for _, msg := range report.ProfileErrors {
		fmt.Fprintf(os.Stderr, "  FAIL profile: %s\n", msg)
	}
	if failed := report.Failed(); len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d tools failed\n", len(failed), len(report.Results))
	}
}

// writeReport serializes the report to a file as JSON or YAML.
func writeReport(report *provision.Report, path, format string) error {
	var data []byte
	var err error
	switch format {
	case "yaml":
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func getRigDir() (string, error) {
	// Check environment variable
	if rigDir := os.Getenv(EnvRigupDir); rigDir != "" {
		return rigDir, nil
	}

	// Default to ~/.config/rigup
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "rigup"), nil
}
