package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/mhalloway/rigup/internal/fetch"
	"github.com/mhalloway/rigup/internal/install"
	"github.com/mhalloway/rigup/internal/manifest"
	"github.com/mhalloway/rigup/internal/platform"
	"github.com/mhalloway/rigup/internal/privilege"
	"github.com/mhalloway/rigup/internal/shell"
)

// Config assembles an Orchestrator. Detector, Logger, and Clock have working
// defaults; the rest must be provided.
type Config struct {
	Detector  platform.Detector
	Fetcher   *fetch.Fetcher
	Verifier  *install.Verifier
	Installer *install.Installer
	Commander privilege.Commander
	Augmenter *shell.Augmenter
	Logger    Logger
	Clock     Clock

	// Parallel provisions independent tools concurrently. Results keep the
	// manifest's declared order either way.
	Parallel bool

	// DryRun renders and logs each planned step without fetching,
	// installing, or touching profile files.
	DryRun bool
}

// Orchestrator runs the provisioning routine over a manifest.
type Orchestrator struct {
	detector  platform.Detector
	fetcher   *fetch.Fetcher
	verifier  *install.Verifier
	installer *install.Installer
	commander privilege.Commander
	augmenter *shell.Augmenter
	logger    Logger
	clock     Clock
	parallel  bool
	dryRun    bool
}

// New creates an orchestrator from cfg.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("orchestrator requires a fetcher")
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("orchestrator requires a verifier")
	}
	if cfg.Installer == nil {
		return nil, fmt.Errorf("orchestrator requires an installer")
	}
	if cfg.Augmenter == nil {
		return nil, fmt.Errorf("orchestrator requires a shell augmenter")
	}
	if cfg.Detector == nil {
		cfg.Detector = platform.NewDetector()
	}
	if cfg.Commander == nil {
		cfg.Commander = privilege.NewCommander()
	}
	if cfg.Logger == nil {
		cfg.Logger = defaultLogger()
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	return &Orchestrator{
		detector:  cfg.Detector,
		fetcher:   cfg.Fetcher,
		verifier:  cfg.Verifier,
		installer: cfg.Installer,
		commander: cfg.Commander,
		augmenter: cfg.Augmenter,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
		parallel:  cfg.Parallel,
		dryRun:    cfg.DryRun,
	}, nil
}

// Provision runs the routine over every tool in the manifest, in declared
// order, continuing past per-tool failures. The only fatal condition is
// failing to obtain a usable architecture identifier before any fetch
// begins; everything after that is recorded in the report instead.
func (o *Orchestrator) Provision(ctx context.Context, m *manifest.Manifest) (*Report, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}

	info, err := o.detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve architecture: %w", err)
	}
	o.logger.Info("resolved platform", "raw_arch", info.RawArch, "arch", info.Arch)

	report := &Report{
		RawArch:   info.RawArch,
		Arch:      info.Arch.String(),
		StartedAt: o.clock.Now(),
		Results:   make([]InstallResult, len(m.Tools)),
	}

	if o.parallel {
		var wg sync.WaitGroup
		for i := range m.Tools {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				report.Results[i] = o.provisionTool(ctx, info, &m.Tools[i])
			}(i)
		}
		wg.Wait()
	} else {
		for i := range m.Tools {
			report.Results[i] = o.provisionTool(ctx, info, &m.Tools[i])
		}
	}

	for _, line := range m.ExtraProfileLines {
		if o.dryRun {
			o.logger.Info("dry run: would append profile line", "file", line.File, "line", line.Line)
			continue
		}
		if err := o.augmenter.EnsureLine(line); err != nil {
			o.logger.Error("profile line failed", "file", line.File, "error", err)
			report.ProfileErrors = append(report.ProfileErrors, err.Error())
		}
	}

	report.FinishedAt = o.clock.Now()
	return report, nil
}

// provisionTool runs fetch, verify, install, post-install, and profile
// augmentation for one tool and folds any failure into a typed result.
func (o *Orchestrator) provisionTool(ctx context.Context, info *platform.Info, spec *manifest.ToolSpec) InstallResult {
	started := o.clock.Now()
	result := InstallResult{Tool: spec.Name}

	err := o.runSteps(ctx, info, spec)
	result.Duration = o.clock.Now().Sub(started)

	if err != nil {
		result.Failure = classify(err, info.Arch)
		result.Detail = err.Error()
		o.logger.Error("tool failed", "tool", spec.Name, "failure", result.Failure, "error", err)
		return result
	}

	result.Succeeded = true
	o.logger.Info("tool provisioned", "tool", spec.Name)
	return result
}

func (o *Orchestrator) runSteps(ctx context.Context, info *platform.Info, spec *manifest.ToolSpec) error {
	url := spec.RenderURL(info.Arch)

	if o.dryRun {
		o.logger.Info("dry run: would provision", "tool", spec.Name, "url", url, "target", spec.Target)
		return nil
	}

	o.logger.Info("fetching", "tool", spec.Name, "url", url)

	if spec.Kind == manifest.KindScript {
		scriptPath, err := o.fetcher.DownloadScript(ctx, spec.Name, url)
		if err != nil {
			return fmt.Errorf("fetch installer script: %w", err)
		}
		if err := o.installer.RunScript(ctx, scriptPath); err != nil {
			return err
		}
	} else {
		artifactPath, err := o.fetcher.DownloadArtifact(ctx, spec.Name, url)
		if err != nil {
			return fmt.Errorf("fetch artifact: %w", err)
		}
		if err := o.verify(ctx, info, spec, artifactPath); err != nil {
			return err
		}
		if err := o.installer.Install(ctx, spec, artifactPath); err != nil {
			return err
		}
	}

	for _, argv := range spec.PostInstall {
		o.logger.Info("post-install", "tool", spec.Name, "cmd", strings.Join(argv, " "))
		if err := o.commander.Run(ctx, argv); err != nil {
			return fmt.Errorf("post-install %q: %w", strings.Join(argv, " "), err)
		}
	}

	if err := o.augmenter.EnsureLines(spec.ProfileLines); err != nil {
		return fmt.Errorf("profile lines: %w", err)
	}

	return nil
}

// verify checks the artifact against whatever the spec configures. Scripts
// never reach here; tools without checksum or signature URLs are installed
// unverified.
func (o *Orchestrator) verify(ctx context.Context, info *platform.Info, spec *manifest.ToolSpec, artifactPath string) error {
	if checksumURL := spec.RenderChecksumURL(info.Arch); checksumURL != "" {
		checksumPath, err := o.fetcher.DownloadArtifact(ctx, spec.Name, checksumURL)
		if err != nil {
			return fmt.Errorf("fetch checksum file: %w", err)
		}
		if err := o.verifier.VerifySHA256(artifactPath, checksumPath); err != nil {
			return err
		}
		o.logger.Debug("checksum verified", "tool", spec.Name)
	}

	if sigURL := spec.RenderSignatureURL(info.Arch); sigURL != "" {
		sigPath, err := o.fetcher.DownloadArtifact(ctx, spec.Name, sigURL)
		if err != nil {
			return fmt.Errorf("fetch signature: %w", err)
		}
		if err := o.verifier.VerifyGPG(artifactPath, sigPath, spec.Keyring); err != nil {
			return err
		}
		o.logger.Debug("signature verified", "tool", spec.Name)
	}

	return nil
}

// classify maps a step error to its failure kind. Typed errors carry their
// own kind; a fetch failure under a tag no rewrite rule recognized is
// reported as the architecture problem it really is. Only errors with no
// typed classification fall through to the network bucket, since fetch is
// the one remaining step family.
func classify(err error, arch platform.Tag) FailureKind {
	var verifyErr *install.VerifyError
	if errors.As(err, &verifyErr) {
		return FailureVerify
	}

	var archiveErr *install.ArchiveError
	if errors.As(err, &archiveErr) {
		return FailureArchive
	}

	var escalationErr *privilege.EscalationError
	if errors.As(err, &escalationErr) || errors.Is(err, os.ErrPermission) {
		return FailurePermission
	}

	var profileErr *shell.ProfileFileError
	if errors.As(err, &profileErr) {
		return FailurePermission
	}

	var exitErr *exec.ExitError
	var execErr *exec.Error
	if errors.As(err, &exitErr) || errors.As(err, &execErr) {
		return FailureCommand
	}

	if !arch.Canonical() {
		return FailureUnrecognizedArch
	}

	return FailureNetwork
}
