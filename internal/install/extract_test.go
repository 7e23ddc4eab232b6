package install

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeTarGz builds a tar.gz archive containing the given members.
func writeTarGz(t *testing.T, path string, members map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	for name, content := range members {
		hdr := &tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("write member: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
}

func TestExtractMember(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "kn.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"LICENSE":             "license text",
		"kn-linux-amd64/kn":   "kn binary content",
		"kn-linux-amd64/docs": "docs",
	})

	destDir := filepath.Join(tmpDir, "extracted")
	path, err := extractMember(archivePath, "kn", destDir)
	if err != nil {
		t.Fatalf("extractMember failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(content) != "kn binary content" {
		t.Errorf("content = %q, want %q", content, "kn binary content")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat extracted file: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("extracted member is not executable")
	}
}

func TestExtractMemberNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "oc.tar.gz")
	writeTarGz(t, archivePath, map[string]string{"README.md": "readme"})

	_, err := extractMember(archivePath, "oc", filepath.Join(tmpDir, "out"))
	if err == nil {
		t.Fatal("expected error for missing member")
	}

	var archiveErr *ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("error is %T, want *ArchiveError", err)
	}
	if archiveErr.Member != "oc" {
		t.Errorf("Member = %q, want %q", archiveErr.Member, "oc")
	}
}

func TestExtractMemberCorruptArchive(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "bad.tar.gz")
	if err := os.WriteFile(archivePath, []byte("this is not a gzip stream"), 0o644); err != nil {
		t.Fatalf("write corrupt archive: %v", err)
	}

	_, err := extractMember(archivePath, "k9s", filepath.Join(tmpDir, "out"))
	if err == nil {
		t.Fatal("expected error for corrupt archive")
	}

	var archiveErr *ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("error is %T, want *ArchiveError", err)
	}
}

func TestExtractMemberSkipsDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "dir.tar.gz")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	// A directory entry whose basename collides with the wanted member.
	if err := tw.WriteHeader(&tar.Header{Name: "k9s/", Mode: 0o755, Typeflag: tar.TypeDir}); err != nil {
		t.Fatalf("write dir header: %v", err)
	}
	if err := tw.WriteHeader(&tar.Header{Name: "k9s/k9s", Mode: 0o755, Size: 4, Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write([]byte("bin\n")); err != nil {
		t.Fatalf("write member: %v", err)
	}
	tw.Close()
	gw.Close()
	f.Close()

	path, err := extractMember(archivePath, "k9s", filepath.Join(tmpDir, "out"))
	if err != nil {
		t.Fatalf("extractMember failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(content) != "bin\n" {
		t.Errorf("content = %q, want %q", content, "bin\n")
	}
}
