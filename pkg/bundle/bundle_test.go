package bundle

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeBundle hand-assembles a bundle file without depending on
// Create (which copies os.Executable(), unsuitable for a unit test
// binary), so ReadFooter/ReadPayloadHeader can be tested in isolation.
func writeFakeBundle(t *testing.T, manifest, archive []byte, ext string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("#!/fake/exe/bytes\n"))
	require.NoError(t, err)

	var manifestLenBuf [4]byte
	binary.LittleEndian.PutUint32(manifestLenBuf[:], uint32(len(manifest)))
	_, err = f.Write(manifestLenBuf[:])
	require.NoError(t, err)
	_, err = f.Write(manifest)
	require.NoError(t, err)

	extBytes := []byte(ext)
	var extLenBuf [2]byte
	binary.LittleEndian.PutUint16(extLenBuf[:], uint16(len(extBytes)))
	_, err = f.Write(extLenBuf[:])
	require.NoError(t, err)
	_, err = f.Write(extBytes)
	require.NoError(t, err)

	_, err = f.Write(archive)
	require.NoError(t, err)

	payloadLen := uint64(4+len(manifest)+2+len(extBytes)) + uint64(len(archive))
	_, err = f.Write(Magic[:])
	require.NoError(t, err)
	_, err = f.Write([]byte{Version})
	require.NoError(t, err)
	var payloadLenBuf [8]byte
	binary.LittleEndian.PutUint64(payloadLenBuf[:], payloadLen)
	_, err = f.Write(payloadLenBuf[:])
	require.NoError(t, err)

	return path
}

func TestReadFooterRoundTrip(t *testing.T) {
	path := writeFakeBundle(t, []byte("manifest-content"), []byte("archive-bytes"), ".tar.gz")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	footer, err := ReadFooter(f)
	require.NoError(t, err)
	require.NotNil(t, footer)
	assert.Equal(t, Version, footer.Version)
}

func TestReadFooterNonBundleReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.bin")
	require.NoError(t, os.WriteFile(path, []byte("just a regular executable"), 0o755))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	footer, err := ReadFooter(f)
	require.NoError(t, err)
	assert.Nil(t, footer)
}

func TestReadFooterTooShortReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.bin")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	footer, err := ReadFooter(f)
	require.NoError(t, err)
	assert.Nil(t, footer)
}

func TestExtractFromFileRecoversManifestAndArchive(t *testing.T) {
	manifest := []byte("[app]\nname = \"demo\"\n")
	archive := []byte("PK\x03\x04fake-zip-bytes")
	path := writeFakeBundle(t, manifest, archive, ".zip")

	extracted, err := ExtractFromFile(path)
	require.NoError(t, err)
	defer extracted.Cleanup()

	assert.Equal(t, string(manifest), extracted.ManifestContent)
	assert.Equal(t, ".zip", extracted.ArchiveExt)

	got, err := os.ReadFile(extracted.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, archive, got)
}

func TestManifestInfoFromFile(t *testing.T) {
	manifest := []byte("[app]\nname = \"demo\"\n")
	path := writeFakeBundle(t, manifest, []byte("archive"), ".tar.gz")

	info, err := ManifestInfoFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, string(manifest), info.ManifestContent)
}

func TestDetectArchiveExtension(t *testing.T) {
	cases := map[string]string{
		"app.tar.gz":  ".tar.gz",
		"app.tgz":     ".tar.gz",
		"app.tar.xz":  ".tar.xz",
		"app.txz":     ".tar.xz",
		"app.tar.zst": ".tar.zst",
		"app.tzst":    ".tar.zst",
		"app.zip":     ".zip",
		"app.bin":     ".zip",
	}
	for name, want := range cases {
		assert.Equal(t, want, DetectArchiveExtension(name), name)
	}
}
