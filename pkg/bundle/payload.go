package bundle

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Payload is the decoded header fields preceding the archive bytes:
// u32 manifest-len | manifest | u16 ext-len | ext | archive bytes.
type Payload struct {
	ManifestContent string
	ArchiveExt      string
	ArchiveOffset   int64
	ArchiveLen      int64
}

// ReadPayloadHeader parses the payload header starting at payloadStart
// and returns the archive's offset/length within f, without reading the
// archive bytes themselves.
func ReadPayloadHeader(f *os.File, payloadStart int64, payloadLen uint64) (*Payload, error) {
	if _, err := f.Seek(payloadStart, io.SeekStart); err != nil {
		return nil, err
	}

	var manifestLenBuf [4]byte
	if _, err := io.ReadFull(f, manifestLenBuf[:]); err != nil {
		return nil, err
	}
	manifestLen := uint64(binary.LittleEndian.Uint32(manifestLenBuf[:]))
	if 4+manifestLen+2 > payloadLen {
		return nil, fmt.Errorf("bundle: manifest length out of bounds")
	}

	manifestBytes := make([]byte, manifestLen)
	if _, err := io.ReadFull(f, manifestBytes); err != nil {
		return nil, err
	}

	var extLenBuf [2]byte
	if _, err := io.ReadFull(f, extLenBuf[:]); err != nil {
		return nil, err
	}
	extLen := uint64(binary.LittleEndian.Uint16(extLenBuf[:]))
	if 4+manifestLen+2+extLen > payloadLen {
		return nil, fmt.Errorf("bundle: extension length out of bounds")
	}

	extBytes := make([]byte, extLen)
	if _, err := io.ReadFull(f, extBytes); err != nil {
		return nil, err
	}

	currentPos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	headerLen := uint64(currentPos - payloadStart)
	if headerLen > payloadLen {
		return nil, fmt.Errorf("bundle: invalid payload offsets")
	}
	archiveLen := payloadLen - headerLen

	return &Payload{
		ManifestContent: string(manifestBytes),
		ArchiveExt:      string(extBytes),
		ArchiveOffset:   currentPos,
		ArchiveLen:      int64(archiveLen),
	}, nil
}

// ManifestInfo is the lightweight pair a CLI "info"/argv[0]-launcher
// check needs without extracting the whole archive.
type ManifestInfo struct {
	ManifestContent string
}

// ManifestInfoFromFile reads just the manifest content embedded in a
// bundle, or nil if path carries no bundle footer.
func ManifestInfoFromFile(path string) (*ManifestInfo, error) {
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
		return nil, nil
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
	return &ManifestInfo{ManifestContent: payload.ManifestContent}, nil
}
