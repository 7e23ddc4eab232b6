package install

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestVerifySHA256(t *testing.T) {
	content := "oc binary bytes"

	tests := []struct {
		name     string
		checksum string
		wantErr  bool
	}{
		{
			name:     "matching_checksum",
			checksum: sha256Hex(content) + "  oc.tar.gz\n",
			wantErr:  false,
		},
		{
			name:     "matching_checksum_with_path",
			checksum: sha256Hex(content) + "  release/oc.tar.gz\n",
			wantErr:  false,
		},
		{
			name:     "mismatched_checksum",
			checksum: sha256Hex("different bytes") + "  oc.tar.gz\n",
			wantErr:  true,
		},
		{
			name:     "filename_not_listed",
			checksum: sha256Hex(content) + "  other.tar.gz\n",
			wantErr:  true,
		},
		{
			name:     "multiple_entries",
			checksum: sha256Hex("x") + "  a.tar.gz\n" + sha256Hex(content) + "  oc.tar.gz\n",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			artifactPath := writeArtifact(t, tmpDir, "oc.tar.gz", content)
			checksumPath := writeArtifact(t, tmpDir, "sha256sum.txt", tt.checksum)

			verifier := NewVerifier(tmpDir)
			err := verifier.VerifySHA256(artifactPath, checksumPath)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				var verifyErr *VerifyError
				if !errors.As(err, &verifyErr) {
					t.Fatalf("error is %T, want *VerifyError", err)
				}
				if verifyErr.Method != VerificationSHA256 {
					t.Errorf("Method = %v, want %v", verifyErr.Method, VerificationSHA256)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVerifySHA256MissingChecksumFile(t *testing.T) {
	tmpDir := t.TempDir()
	artifactPath := writeArtifact(t, tmpDir, "oc.tar.gz", "bytes")

	verifier := NewVerifier(tmpDir)
	err := verifier.VerifySHA256(artifactPath, filepath.Join(tmpDir, "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing checksum file")
	}
}

// newSigningKey generates a throwaway key pair and writes its public half as
// an armored keyring file into keyringDir.
func newSigningKey(t *testing.T, keyringDir, keyringName string) *openpgp.Entity {
	t.Helper()

	entity, err := openpgp.NewEntity("Release Bot", "test", "release@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.Serialize(aw); err != nil {
		t.Fatalf("serialize public key: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close armor: %v", err)
	}

	if err := os.WriteFile(filepath.Join(keyringDir, keyringName), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write keyring: %v", err)
	}
	return entity
}

// detachSign produces a detached binary signature for the artifact,
// optionally wrapped in ASCII armor.
func detachSign(t *testing.T, entity *openpgp.Entity, artifactPath, sigPath string, armored bool) {
	t.Helper()

	artifact, err := os.Open(artifactPath)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer artifact.Close()

	var raw bytes.Buffer
	if err := openpgp.DetachSign(&raw, entity, artifact, nil); err != nil {
		t.Fatalf("sign artifact: %v", err)
	}

	out := raw.Bytes()
	if armored {
		var armoredBuf bytes.Buffer
		aw, err := armor.Encode(&armoredBuf, openpgp.SignatureType, nil)
		if err != nil {
			t.Fatalf("armor encode signature: %v", err)
		}
		if _, err := aw.Write(out); err != nil {
			t.Fatalf("armor write: %v", err)
		}
		if err := aw.Close(); err != nil {
			t.Fatalf("close armor: %v", err)
		}
		out = armoredBuf.Bytes()
	}

	if err := os.WriteFile(sigPath, out, 0o644); err != nil {
		t.Fatalf("write signature: %v", err)
	}
}

func TestVerifyGPG(t *testing.T) {
	for _, armored := range []bool{true, false} {
		name := "binary_signature"
		if armored {
			name = "armored_signature"
		}
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			entity := newSigningKey(t, tmpDir, "release.asc")
			artifactPath := writeArtifact(t, tmpDir, "kn", "kn binary bytes")

			sigPath := filepath.Join(tmpDir, "kn.sig")
			detachSign(t, entity, artifactPath, sigPath, armored)

			verifier := NewVerifier(tmpDir)
			if err := verifier.VerifyGPG(artifactPath, sigPath, "release.asc"); err != nil {
				t.Fatalf("VerifyGPG failed: %v", err)
			}
		})
	}
}

func TestVerifyGPGTamperedArtifact(t *testing.T) {
	tmpDir := t.TempDir()
	entity := newSigningKey(t, tmpDir, "release.asc")
	artifactPath := writeArtifact(t, tmpDir, "kn", "kn binary bytes")

	sigPath := filepath.Join(tmpDir, "kn.sig")
	detachSign(t, entity, artifactPath, sigPath, true)

	// Signature was taken over the original bytes.
	if err := os.WriteFile(artifactPath, []byte("tampered bytes"), 0o644); err != nil {
		t.Fatalf("tamper artifact: %v", err)
	}

	verifier := NewVerifier(tmpDir)
	err := verifier.VerifyGPG(artifactPath, sigPath, "release.asc")
	if err == nil {
		t.Fatal("expected error for tampered artifact")
	}

	var verifyErr *VerifyError
	if !errors.As(err, &verifyErr) {
		t.Fatalf("error is %T, want *VerifyError", err)
	}
	if verifyErr.Method != VerificationGPG {
		t.Errorf("Method = %v, want %v", verifyErr.Method, VerificationGPG)
	}
}

func TestVerifyGPGWrongKey(t *testing.T) {
	tmpDir := t.TempDir()

	// Sign with one key, publish a different one in the keyring.
	signer, err := openpgp.NewEntity("Other Bot", "test", "other@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	newSigningKey(t, tmpDir, "release.asc")

	artifactPath := writeArtifact(t, tmpDir, "kn", "kn binary bytes")
	sigPath := filepath.Join(tmpDir, "kn.sig")
	detachSign(t, signer, artifactPath, sigPath, true)

	verifier := NewVerifier(tmpDir)
	if err := verifier.VerifyGPG(artifactPath, sigPath, "release.asc"); err == nil {
		t.Fatal("expected error for signature from an untrusted key")
	}
}

func TestVerifyGPGMissingKeyring(t *testing.T) {
	tmpDir := t.TempDir()
	artifactPath := writeArtifact(t, tmpDir, "kn", "bytes")
	sigPath := writeArtifact(t, tmpDir, "kn.sig", "not a signature")

	verifier := NewVerifier(tmpDir)
	if err := verifier.VerifyGPG(artifactPath, sigPath, "absent.asc"); err == nil {
		t.Fatal("expected error for missing keyring")
	}
}

func TestVerificationMethodString(t *testing.T) {
	tests := []struct {
		method VerificationMethod
		want   string
	}{
		{VerificationNone, "None"},
		{VerificationGPG, "GPG"},
		{VerificationSHA256, "SHA256"},
		{VerificationMethod(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestVerifyErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := &VerifyError{Method: VerificationSHA256, Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("VerifyError does not unwrap to its cause")
	}
}
