package backup

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kjk/flatstore/assert"
	"github.com/kjk/flatstore/atomicfile"
	"github.com/kjk/flatstore/flatfile"
	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/require"
	"github.com/kjk/flatstore/u"
)

func TestMain(m *testing.M) {
	log.Output = io.Discard
	os.Exit(m.Run())
}

func newStore(t *testing.T, dir string) *flatfile.File {
	t.Helper()
	f, err := flatfile.Open(filepath.Join(dir, "prefs"))
	require.NoError(t, err)
	f.SetInt("volume", 7)
	f.SetStrings("tags", []string{"a", "b,c"})
	require.NoError(t, f.Save())
	return f
}

func TestCompression(t *testing.T) {
	for _, s := range []string{"zstd", ".zstd", "ZSTD"} {
		c, err := ParseCompression(s)
		require.NoError(t, err)
		assert.Equal(t, Zstd, c)
	}
	c, err := ParseCompression("gz")
	require.NoError(t, err)
	assert.Equal(t, Gzip, c)
	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, None, c)
	_, err = ParseCompression("lzma")
	assert.Error(t, err)

	assert.Equal(t, ".br", Brotli.Ext())
	assert.Equal(t, "", None.Ext())
	assert.Equal(t, "brotli", Brotli.String())
	assert.Equal(t, Gzip, compressionOf("x.mcufs.gz"))
	assert.Equal(t, None, compressionOf("x.mcufs"))
}

func TestSnapshotName(t *testing.T) {
	tm := time.Date(2025, 3, 4, 5, 6, 7, 890*int(time.Millisecond), time.UTC)
	name := SnapshotName("my-prefs", tm, Zstd)
	assert.Equal(t, "my-prefs-20250304-050607.890.mcufs.zstd", name)

	base, t2, c, ok := parseSnapshotName(name)
	require.True(t, ok)
	assert.Equal(t, "my-prefs", base)
	assert.True(t, tm.Equal(t2))
	assert.Equal(t, Zstd, c)

	for _, bad := range []string{"prefs.mcufs", "journal.txt", "prefs-2025.mcufs", "-20250304-050607.890.mcufs"} {
		_, _, _, ok = parseSnapshotName(bad)
		assert.False(t, ok, "name '%s'", bad)
	}
}

func TestSnapshotRestore(t *testing.T) {
	dir := t.TempDir()
	f := newStore(t, dir)
	orig, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	snapDir := filepath.Join(dir, "snapshots")

	for _, c := range []Compression{None, Gzip, Zstd, Brotli} {
		info, err := Snapshot(f, snapDir, c)
		require.NoError(t, err)
		assert.Equal(t, int64(len(orig)), info.Size)
		assert.Equal(t, u.DataSha1Hex(orig), info.Sha1)
		assert.Equal(t, "prefs", info.Base())
		assert.True(t, u.FileExists(info.Path))

		dst := filepath.Join(dir, "restored", c.String())
		require.NoError(t, Restore(info.Path, dst))
		d, err := os.ReadFile(dst + flatfile.Ext)
		require.NoError(t, err)
		assert.Equal(t, orig, d)

		f2, err := flatfile.Open(dst)
		require.NoError(t, err)
		assert.True(t, f.Equal(f2.Store))
		// make snapshot names unique
		time.Sleep(2 * time.Millisecond)
	}

	hist, err := History(snapDir)
	require.NoError(t, err)
	require.Len(t, hist, 4)
	assert.Equal(t, Brotli, hist[3].Compression)
	assert.Equal(t, f.Path(), hist[0].Source)
	assert.Equal(t, u.DataSha1Hex(orig), hist[2].Sha1)
	assert.Equal(t, int64(len(orig)), hist[1].Size)
	sha, err := u.FileSha1Hex(hist[0].Path)
	require.NoError(t, err)
	assert.Equal(t, hist[0].Sha1, sha)

	hist, err = History(filepath.Join(dir, "nope"))
	assert.NoError(t, err)
	assert.Len(t, hist, 0)
}

func TestRestoreReplacesChanges(t *testing.T) {
	dir := t.TempDir()
	f := newStore(t, dir)
	info, err := Snapshot(f, dir, Gzip)
	require.NoError(t, err)

	f.SetInt("volume", 11)
	f.SetString("extra", "x")
	require.NoError(t, f.Save())
	require.NoError(t, Restore(info.Path, f.Path()))
	require.NoError(t, f.Reload())
	assert.Equal(t, int32(7), f.GetInt("volume"))
	assert.False(t, f.Has("extra"))
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	tm := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var names []string
	for i := range 5 {
		name := SnapshotName("prefs", tm.Add(time.Duration(i)*time.Hour), Zstd)
		names = append(names, name)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	other := SnapshotName("other", tm, None)
	require.NoError(t, os.WriteFile(filepath.Join(dir, other), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, JournalName), nil, 0644))

	all, err := List(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	removed, err := Prune(dir, "prefs", 2)
	require.NoError(t, err)
	require.Len(t, removed, 3)
	assert.Equal(t, filepath.Join(dir, names[2]), removed[0])
	assert.Equal(t, filepath.Join(dir, names[0]), removed[2])

	left, err := List(dir, "prefs")
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, filepath.Join(dir, names[4]), left[0].Path)
	assert.True(t, u.FileExists(filepath.Join(dir, other)))
	assert.True(t, u.FileExists(filepath.Join(dir, JournalName)))

	removed, err = Prune(dir, "prefs", 10)
	assert.NoError(t, err)
	assert.Len(t, removed, 0)
	_, err = Prune(dir, "prefs", -1)
	assert.Error(t, err)
}

// dirTarget is a Target that stores files in a local directory
type dirTarget struct {
	dir string
}

func (d *dirTarget) Upload(ctx context.Context, localPath string, remotePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	dst := filepath.Join(d.dir, filepath.FromSlash(remotePath))
	if err = os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return atomicfile.WriteFile(dst, data, 0644)
}

func (d *dirTarget) Download(ctx context.Context, remotePath string, localPath string) error {
	data, err := os.ReadFile(filepath.Join(d.dir, filepath.FromSlash(remotePath)))
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(localPath, data, 0644)
}

func TestPushPull(t *testing.T) {
	dir := t.TempDir()
	f := newStore(t, dir)
	info, err := Snapshot(f, filepath.Join(dir, "snap"), Zstd)
	require.NoError(t, err)

	target := &dirTarget{dir: filepath.Join(dir, "remote")}
	ctx := context.Background()
	remotePath, err := Push(ctx, target, info, "backups/prefs")
	require.NoError(t, err)
	assert.Equal(t, "backups/prefs/"+filepath.Base(info.Path), remotePath)

	dst := filepath.Join(dir, "pulled", "prefs")
	require.NoError(t, Pull(ctx, target, remotePath, dst))
	f2, err := flatfile.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b,c"}, f2.GetStrings("tags"))

	err = Pull(ctx, target, "backups/missing.mcufs.zstd", dst)
	assert.Error(t, err)
}

func TestFetchURL(t *testing.T) {
	content := []byte("Ivolume:7\nsname:joe\n")
	var gz bytes.Buffer
	_, err := u.CompressTo(&gz, bytes.NewReader(content), u.ExtGzip)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/snap/prefs.mcufs.gz":
			w.Write(gz.Bytes())
		case "/snap/prefs.mcufs":
			w.Write(content)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	dir := t.TempDir()
	for _, p := range []string{"/snap/prefs.mcufs.gz", "/snap/prefs.mcufs"} {
		dst := filepath.Join(dir, "fetched")
		os.Remove(dst + flatfile.Ext)
		require.NoError(t, FetchURL(ctx, srv.URL+p, dst))
		d, err := os.ReadFile(dst + flatfile.Ext)
		require.NoError(t, err)
		assert.Equal(t, content, d)
	}

	err = FetchURL(ctx, srv.URL+"/missing.gz", filepath.Join(dir, "x"))
	assert.Error(t, err)
	assert.False(t, u.FileExists(filepath.Join(dir, "x"+flatfile.Ext)))
}
