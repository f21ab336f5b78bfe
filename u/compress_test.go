package u

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kjk/flatstore/assert"
	"github.com/kjk/flatstore/require"
)

func testCompressRoundTrip(t *testing.T, ext string) {
	d := []byte(strings.Repeat("Ivolume:7\n*stags:a,b\\,c\n", 100))
	path := filepath.Join(t.TempDir(), "prefs.mcufs"+ext)
	var buf bytes.Buffer
	n, err := CompressTo(&buf, bytes.NewReader(d), ext)
	require.NoError(t, err)
	assert.Equal(t, int64(len(d)), n)
	if ext != "" {
		assert.True(t, buf.Len() < len(d), "ext '%s' should compress", ext)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	d2, err := ReadFileMaybeCompressed(path)
	require.NoError(t, err)
	assert.Equal(t, d, d2)
}

func TestCompressRoundTrip(t *testing.T) {
	for _, ext := range []string{"", ExtGzip, ExtZstd, ExtBrotli} {
		testCompressRoundTrip(t, ext)
	}
	assert.True(t, IsCompressedExt(".ZSTD"))
	assert.False(t, IsCompressedExt(".mcufs"))
}

func TestOpenCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0644))
	_, err := OpenFileMaybeCompressed(path)
	assert.Error(t, err)

	_, err = OpenFileMaybeCompressed(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(dir))
	assert.True(t, DirExists(dir))
	assert.Equal(t, int64(5), FileSize(path))
	assert.Equal(t, int64(-1), FileSize(filepath.Join(dir, "nope")))

	sha, err := FileSha1Hex(path)
	require.NoError(t, err)
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", sha)
	assert.Equal(t, sha, DataSha1Hex([]byte("hello")))

	assert.Equal(t, "512 bytes", FormatSize(512))
	assert.Equal(t, "1 kB", FormatSize(1024))
	assert.Equal(t, "1.50 MB", FormatSize(1024*1024*3/2))
}
