package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Extracted describes a bundle's archive after it has been pulled out of
// the self-extracting binary into a temp directory.
type Extracted struct {
	ManifestContent string
	ArchivePath     string
	ArchiveExt      string
	tempDir         string
}

// Cleanup removes the temp directory the archive was extracted into.
func (e *Extracted) Cleanup() {
	os.RemoveAll(e.tempDir)
}

// ExtractEmbedded extracts the bundle footer-described archive from the
// currently running executable, or returns (nil, nil) if it carries no
// bundle footer at all (a plain, un-bundled binary).
func ExtractEmbedded() (*Extracted, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	has, err := HasBundle(exePath)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return ExtractFromFile(exePath)
}

// ExtractFromFile extracts the bundle archive embedded in path into a
// fresh temp directory.
func ExtractFromFile(path string) (*Extracted, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	footer, err := ReadFooter(f)
	if err != nil {
		return nil, err
	}
	if footer == nil {
		return nil, fmt.Errorf("bundle: footer not found in %s", path)
	}
	if footer.Version != Version {
		return nil, fmt.Errorf("bundle: unsupported version %d", footer.Version)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	payloadStart := info.Size() - FooterLen - int64(footer.PayloadLen)
	payload, err := ReadPayloadHeader(f, payloadStart, footer.PayloadLen)
	if err != nil {
		return nil, err
	}

	tempDir, err := createTempDir()
	if err != nil {
		return nil, err
	}
	archivePath := filepath.Join(tempDir, "app"+payload.ArchiveExt)

	if _, err := f.Seek(payload.ArchiveOffset, io.SeekStart); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	out, err := os.Create(archivePath)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	written, err := io.Copy(out, io.LimitReader(f, payload.ArchiveLen))
	out.Close()
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	if written != payload.ArchiveLen {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("bundle: archive payload truncated (wrote %d of %d bytes)", written, payload.ArchiveLen)
	}

	return &Extracted{
		ManifestContent: payload.ManifestContent,
		ArchivePath:     archivePath,
		ArchiveExt:      payload.ArchiveExt,
		tempDir:         tempDir,
	}, nil
}

// createTempDir names each extraction directory with a fresh random UUID
// rather than the original's PID+timestamp scheme, which collides if two
// bundle installs land in the same millisecond under the same PID space
// (plausible inside a container).
func createTempDir() (string, error) {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("voidbox-bundle-%s", uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
