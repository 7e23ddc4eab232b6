package install

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// VerificationMethod indicates how an artifact was verified.
type VerificationMethod int

const (
	// VerificationNone indicates no verification was configured.
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates detached GPG signature verification.
	VerificationGPG
	// VerificationSHA256 indicates SHA256 checksum verification.
	VerificationSHA256
)

// String returns the string representation of the verification method.
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// VerifyError indicates an artifact failed cryptographic verification.
type VerifyError struct {
	Method VerificationMethod
	Cause  error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s verification failed: %v", e.Method, e.Cause)
}

func (e *VerifyError) Unwrap() error {
	return e.Cause
}

// Verifier handles cryptographic verification of downloaded artifacts.
type Verifier struct {
	keyringDir string
}

// NewVerifier creates a verifier loading GPG keyrings from keyringDir.
func NewVerifier(keyringDir string) *Verifier {
	return &Verifier{keyringDir: keyringDir}
}

// VerifySHA256 checks an artifact against a downloaded checksum file in the
// conventional "hash  filename" format.
func (v *Verifier) VerifySHA256(artifactPath, checksumPath string) error {
	actual, err := calculateSHA256(artifactPath)
	if err != nil {
		return &VerifyError{Method: VerificationSHA256, Cause: fmt.Errorf("calculate checksum: %w", err)}
	}

	expected, err := findChecksum(checksumPath, filepath.Base(artifactPath))
	if err != nil {
		return &VerifyError{Method: VerificationSHA256, Cause: err}
	}

	if !strings.EqualFold(actual, expected) {
		return &VerifyError{
			Method: VerificationSHA256,
			Cause:  fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s", actual, expected),
		}
	}
	return nil
}

// VerifyGPG checks an artifact against a detached signature using the named
// armored keyring from the keyring directory. Both armored and binary
// signatures are accepted.
func (v *Verifier) VerifyGPG(artifactPath, signaturePath, keyringName string) error {
	keyring, err := v.loadKeyring(keyringName)
	if err != nil {
		return &VerifyError{Method: VerificationGPG, Cause: fmt.Errorf("load keyring: %w", err)}
	}

	artifactFile, err := os.Open(artifactPath)
	if err != nil {
		return &VerifyError{Method: VerificationGPG, Cause: fmt.Errorf("open artifact: %w", err)}
	}
	defer artifactFile.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return &VerifyError{Method: VerificationGPG, Cause: fmt.Errorf("open signature: %w", err)}
	}
	defer sigFile.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, artifactFile, sigFile, nil)
	if err != nil {
		// Retry as a non-armored signature
		if _, seekErr := artifactFile.Seek(0, io.SeekStart); seekErr != nil {
			return &VerifyError{Method: VerificationGPG, Cause: seekErr}
		}
		if _, seekErr := sigFile.Seek(0, io.SeekStart); seekErr != nil {
			return &VerifyError{Method: VerificationGPG, Cause: seekErr}
		}
		_, err = openpgp.CheckDetachedSignature(keyring, artifactFile, sigFile, nil)
	}
	if err != nil {
		return &VerifyError{Method: VerificationGPG, Cause: fmt.Errorf("verify signature: %w", err)}
	}
	return nil
}

// loadKeyring loads a GPG keyring file from the keyring directory.
func (v *Verifier) loadKeyring(name string) (openpgp.EntityList, error) {
	keyringPath := filepath.Join(v.keyringDir, name)

	keyringFile, err := os.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		if _, seekErr := keyringFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, seekErr
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file.
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for a specific filename in a checksum
// file. Format: "abc123def456  filename.tar.gz". Entries with paths match
// on basename too.
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		checksumFilename := parts[1]
		if checksumFilename == filename {
			return parts[0], nil
		}
		if filepath.Base(checksumFilename) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
