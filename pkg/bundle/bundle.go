// Package bundle implements spec.md's self-extracting bundle format: a
// plain executable with a trailer appending a manifest, an archive, and
// a fixed-size footer so the same binary works as both installer and
// installed product.
package bundle

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Magic is the 8-byte footer marker (spec.md §3: "VBOXBNDL").
var Magic = [8]byte{'V', 'B', 'O', 'X', 'B', 'N', 'D', 'L'}

// Version is the only footer version this reader/writer understands.
const Version uint8 = 1

// FooterLen is the fixed trailer size: 8-byte magic + 1-byte version +
// 8-byte little-endian payload length.
const FooterLen = int64(len(Magic)) + 1 + 8

// Footer is the parsed trailer of a bundle file.
type Footer struct {
	Version    uint8
	PayloadLen uint64
}

// ReadFooter reads and validates the trailing footer of f, returning
// (nil, nil) if f is not a bundle at all (too short, or the final bytes
// don't start with the magic) rather than an error — callers use this to
// tell "plain executable" from "malformed bundle".
func ReadFooter(f *os.File) (*Footer, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < FooterLen {
		return nil, nil
	}

	if _, err := f.Seek(-FooterLen, io.SeekEnd); err != nil {
		return nil, err
	}

	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, nil
	}

	var versionBuf [1]byte
	if _, err := io.ReadFull(f, versionBuf[:]); err != nil {
		return nil, err
	}

	var payloadLenBuf [8]byte
	if _, err := io.ReadFull(f, payloadLenBuf[:]); err != nil {
		return nil, err
	}
	payloadLen := binary.LittleEndian.Uint64(payloadLenBuf[:])

	if int64(payloadLen)+FooterLen > info.Size() {
		return nil, fmt.Errorf("bundle footer payload length out of bounds")
	}

	return &Footer{Version: versionBuf[0], PayloadLen: payloadLen}, nil
}

// HasBundle reports whether path carries a valid bundle footer.
func HasBundle(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	footer, err := ReadFooter(f)
	if err != nil {
		return false, err
	}
	return footer != nil, nil
}
