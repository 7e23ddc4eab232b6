// Package provision runs the provisioning routine: resolve the CPU
// architecture once, then fetch, verify, install, and shell-wire each tool
// in the manifest, collecting a typed result per tool. A tool failure never
// stops the run; the aggregate report decides the process exit code.
package provision

import (
	"time"
)

// FailureKind classifies why a tool failed to provision.
type FailureKind string

const (
	// FailureNetwork covers unreachable hosts, non-2xx responses, and
	// interrupted downloads.
	FailureNetwork FailureKind = "network"
	// FailureArchive covers corrupt archives and missing expected members.
	FailureArchive FailureKind = "archive"
	// FailureVerify covers checksum mismatches and bad GPG signatures.
	FailureVerify FailureKind = "verify"
	// FailurePermission covers declined escalation, protected-path writes,
	// and profile-file write failures.
	FailurePermission FailureKind = "permission"
	// FailureCommand covers post-install or installer-script commands that
	// could not run or exited non-zero.
	FailureCommand FailureKind = "command"
	// FailureUnrecognizedArch marks a tool whose download URL was built from
	// an architecture identifier that no rewrite rule recognized.
	FailureUnrecognizedArch FailureKind = "unrecognized-architecture"
)

// InstallResult is the outcome of provisioning a single tool.
type InstallResult struct {
	Tool      string        `json:"tool" yaml:"tool"`
	Succeeded bool          `json:"succeeded" yaml:"succeeded"`
	Failure   FailureKind   `json:"failure,omitempty" yaml:"failure,omitempty"`
	Detail    string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Duration  time.Duration `json:"duration_ns,omitempty" yaml:"duration_ns,omitempty"`
}

// Report aggregates a full provisioning run.
type Report struct {
	RawArch    string          `json:"raw_arch" yaml:"raw_arch"`
	Arch       string          `json:"arch" yaml:"arch"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
	Results    []InstallResult `json:"results" yaml:"results"`

	// ProfileErrors records failures applying manifest-level extra profile
	// lines, which run after all tools.
	ProfileErrors []string `json:"profile_errors,omitempty" yaml:"profile_errors,omitempty"`
}

// Failed returns the results of tools that did not provision.
func (r *Report) Failed() []InstallResult {
	var failed []InstallResult
	for _, res := range r.Results {
		if !res.Succeeded {
			failed = append(failed, res)
		}
	}
	return failed
}

// ExitCode is 0 only when every step of the run succeeded.
func (r *Report) ExitCode() int {
	if len(r.Failed()) > 0 || len(r.ProfileErrors) > 0 {
		return 1
	}
	return 0
}
