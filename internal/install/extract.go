package install

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArchiveError indicates a corrupt archive or a missing expected member.
type ArchiveError struct {
	Archive string
	Member  string
	Cause   error
}

func (e *ArchiveError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("archive %s: member %s: %v", e.Archive, e.Member, e.Cause)
	}
	return fmt.Sprintf("archive %s: %v", e.Archive, e.Cause)
}

func (e *ArchiveError) Unwrap() error {
	return e.Cause
}

// extractMember extracts a single named member from a tar.gz archive into
// destDir and returns its path. Only the wanted member is written; the rest
// of the archive is skipped.
func extractMember(archivePath, member, destDir string) (string, error) {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return "", &ArchiveError{Archive: archivePath, Cause: fmt.Errorf("open: %w", err)}
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return "", &ArchiveError{Archive: archivePath, Cause: fmt.Errorf("gzip: %w", err)}
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return "", &ArchiveError{Archive: archivePath, Member: member, Cause: fmt.Errorf("not found in archive")}
		}
		if err != nil {
			return "", &ArchiveError{Archive: archivePath, Cause: fmt.Errorf("read header: %w", err)}
		}

		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != member {
			continue
		}

		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return "", fmt.Errorf("create dest dir: %w", err)
		}

		destPath := filepath.Join(destDir, member)
		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
		if err != nil {
			return "", fmt.Errorf("create file: %w", err)
		}

		if _, err := io.Copy(outFile, tarReader); err != nil {
			outFile.Close()
			return "", &ArchiveError{Archive: archivePath, Member: member, Cause: fmt.Errorf("write: %w", err)}
		}

		if err := outFile.Close(); err != nil {
			return "", fmt.Errorf("close file: %w", err)
		}
		return destPath, nil
	}
}
