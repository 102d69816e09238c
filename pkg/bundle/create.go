package bundle

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// Create appends manifestPath's content and archivePath's bytes to a
// copy of the currently running executable, writing the result to
// outputPath as a new self-extracting bundle. Refuses to bundle an
// executable that is already a bundle, since nesting has no defined
// unwrap semantics.
func Create(manifestPath, archivePath, outputPath string) error {
	currentExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating current executable: %w", err)
	}
	if already, err := HasBundle(currentExe); err != nil {
		return err
	} else if already {
		return fmt.Errorf("bundle: cannot create a bundle from an existing bundle")
	}

	manifestContent, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", manifestPath, err)
	}
	archiveExt := DetectArchiveExtension(archivePath)

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("stat archive %s: %w", archivePath, err)
	}
	archiveLen := archiveInfo.Size()
	extBytes := []byte(archiveExt)

	if len(manifestContent) > int(^uint32(0)) {
		return fmt.Errorf("bundle: manifest too large")
	}
	if len(extBytes) > int(^uint16(0)) {
		return fmt.Errorf("bundle: archive extension too long")
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output %s: %w", outputPath, err)
	}
	defer out.Close()

	selfFile, err := os.Open(currentExe)
	if err != nil {
		return fmt.Errorf("open self %s: %w", currentExe, err)
	}
	if _, err := io.Copy(out, selfFile); err != nil {
		selfFile.Close()
		return fmt.Errorf("copy self to %s: %w", outputPath, err)
	}
	selfFile.Close()

	var manifestLenBuf [4]byte
	binary.LittleEndian.PutUint32(manifestLenBuf[:], uint32(len(manifestContent)))
	if _, err := out.Write(manifestLenBuf[:]); err != nil {
		return err
	}
	if _, err := out.Write(manifestContent); err != nil {
		return err
	}

	var extLenBuf [2]byte
	binary.LittleEndian.PutUint16(extLenBuf[:], uint16(len(extBytes)))
	if _, err := out.Write(extLenBuf[:]); err != nil {
		return err
	}
	if _, err := out.Write(extBytes); err != nil {
		return err
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	if _, err := io.Copy(out, archiveFile); err != nil {
		archiveFile.Close()
		return fmt.Errorf("append archive %s: %w", archivePath, err)
	}
	archiveFile.Close()

	payloadLen := uint64(4+len(manifestContent)+2+len(extBytes)) + uint64(archiveLen)
	if _, err := out.Write(Magic[:]); err != nil {
		return err
	}
	if _, err := out.Write([]byte{Version}); err != nil {
		return err
	}
	var payloadLenBuf [8]byte
	binary.LittleEndian.PutUint64(payloadLenBuf[:], payloadLen)
	if _, err := out.Write(payloadLenBuf[:]); err != nil {
		return err
	}

	return out.Chmod(0o755)
}

// DetectArchiveExtension classifies path's archive format from its
// filename suffix, defaulting to .zip when nothing else matches.
func DetectArchiveExtension(path string) string {
	switch {
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return ".tar.gz"
	case strings.HasSuffix(path, ".tar.xz"), strings.HasSuffix(path, ".txz"):
		return ".tar.xz"
	case strings.HasSuffix(path, ".tar.zst"), strings.HasSuffix(path, ".tzst"):
		return ".tar.zst"
	case strings.HasSuffix(path, ".zip"):
		return ".zip"
	default:
		return ".zip"
	}
}
