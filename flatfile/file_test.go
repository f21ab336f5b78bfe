package flatfile

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kjk/flatstore/assert"
	"github.com/kjk/flatstore/atomicfile"
	"github.com/kjk/flatstore/kv"
	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/require"
)

func TestMain(m *testing.M) {
	log.Output = io.Discard
	os.Exit(m.Run())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	d, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(d)
}

func reopen(t *testing.T, f *File) *File {
	t.Helper()
	require.NoError(t, f.Save())
	f2, err := Open(f.Path())
	require.NoError(t, err)
	return f2
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", "prefs")
	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path+Ext, f.Path())
	assert.True(t, f.Exists())
	assert.Equal(t, 0, f.Len())

	// extension is not added twice
	f2, err := Open(path + Ext)
	require.NoError(t, err)
	assert.Equal(t, f.Path(), f2.Path())

	os.Remove(f.Path())
	assert.False(t, f.Exists())
	err = f.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConcreteScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")
	f, err := Open(path)
	require.NoError(t, err)
	f.SetInt("volume", 7)
	f.SetStrings("tags", []string{"a", "b,c"})
	require.NoError(t, f.Save())

	f2, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, int32(7), f2.GetIntOr("volume", 0))
	assert.Equal(t, []string{"a", "b,c"}, f2.GetStringsOr("tags", nil))
	assert.Equal(t, "*stags:a,b\\,c\nIvolume:7\n", readFile(t, f2.Path()))
}

func TestRoundTripScalars(t *testing.T) {
	id := uuid.New()
	vals := map[string]kv.Scalar{
		"s":          kv.String("hello, world: again"),
		"s2":         kv.String("a,b\nc"),
		"s3":         kv.String(`back\slash \n literal` + "\r\n"),
		"s4":         kv.String(""),
		"s5":         kv.String("zażółć 日本"),
		"c":          kv.Char('x'),
		"c2":         kv.Char('\n'),
		"c3":         kv.Char('\\'),
		"c4":         kv.Char(':'),
		"c5":         kv.Char('ł'),
		"bt":         kv.Bool(true),
		"bf":         kv.Bool(false),
		"u":          kv.UUID(id),
		"B":          kv.Byte(math.MinInt8),
		"B2":         kv.Byte(math.MaxInt8),
		"S":          kv.Short(math.MinInt16),
		"I":          kv.Int(math.MaxInt32),
		"L":          kv.Long(math.MinInt64),
		"F":          kv.Float(3.14159),
		"F2":         kv.Float(math.MaxFloat32),
		"F3":         kv.Float(float32(math.Inf(-1))),
		"D":          kv.Double(math.SmallestNonzeroFloat64),
		"D2":         kv.Double(-0.0),
		"D3":         kv.Double(math.Inf(1)),
		"D4":         kv.Double(1.0 / 3),
		"spaced key": kv.Int(1),
	}
	f, err := Open(filepath.Join(t.TempDir(), "scalars"))
	require.NoError(t, err)
	for k, v := range vals {
		f.Set(k, v)
	}
	f2 := reopen(t, f)
	assert.Equal(t, len(vals), f2.Len())
	for k, exp := range vals {
		got, ok := f2.Get(k, exp.Kind())
		require.True(t, ok, "key '%s'", k)
		assert.True(t, kv.Equal(exp, got), "key '%s': exp %v, got %v", k, exp, got)
	}
	assert.True(t, f.Equal(f2.Store))
}

func TestRoundTripLists(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()
	f, err := Open(filepath.Join(t.TempDir(), "lists"))
	require.NoError(t, err)
	f.SetStrings("s", []string{"a,b", "", "c\nd", `e\,f`, ","})
	f.SetChars("c", []rune{',', '\\', '\n', 'x'})
	f.SetBools("b", []bool{true, false, false})
	f.SetUUIDs("u", []uuid.UUID{id1, id2})
	f.SetBytes("B", []int8{-1, 0, 1})
	f.SetShorts("S", []int16{300, -300})
	f.SetInts("I", []int32{3, 2, 1})
	f.SetLongs("L", []int64{1 << 50, -1})
	f.SetFloats("F", []float32{0.5, -2.25, float32(math.Inf(1))})
	f.SetDoubles("D", []float64{1e-300, 1e300})
	f.SetStrings("single", []string{"only"})

	f2 := reopen(t, f)
	assert.Equal(t, []string{"a,b", "", "c\nd", `e\,f`, ","}, f2.GetStrings("s"))
	assert.Equal(t, []rune{',', '\\', '\n', 'x'}, f2.GetChars("c"))
	assert.Equal(t, []bool{true, false, false}, f2.GetBools("b"))
	assert.Equal(t, []uuid.UUID{id1, id2}, f2.GetUUIDs("u"))
	assert.Equal(t, []int8{-1, 0, 1}, f2.GetBytes("B"))
	assert.Equal(t, []int16{300, -300}, f2.GetShorts("S"))
	assert.Equal(t, []int32{3, 2, 1}, f2.GetInts("I"))
	assert.Equal(t, []int64{1 << 50, -1}, f2.GetLongs("L"))
	assert.Equal(t, []float32{0.5, -2.25, float32(math.Inf(1))}, f2.GetFloats("F"))
	assert.Equal(t, []float64{1e-300, 1e300}, f2.GetDoubles("D"))
	assert.Equal(t, []string{"only"}, f2.GetStrings("single"))
	assert.True(t, f.Equal(f2.Store))
}

func TestStringEscaping(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "esc"))
	require.NoError(t, err)
	f.SetString("msg", "a,b\nc")
	f2 := reopen(t, f)
	assert.Equal(t, "a,b\nc", f2.GetString("msg"))
	assert.Equal(t, "smsg:a,b\\nc\n", readFile(t, f.Path()))
}

func TestTombstone(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "tomb"))
	require.NoError(t, err)
	f.SetInt("k", 1)
	f.SetInt("other", 2)
	require.NoError(t, f.Save())
	assert.Contains(t, readFile(t, f.Path()), "Ik:1\n")

	f.Set("k", nil)
	assert.Equal(t, int32(-1), f.GetIntOr("k", -1))
	require.NoError(t, f.Save())
	assert.Equal(t, "Iother:2\n", readFile(t, f.Path()))

	// empty list behaves the same
	f.SetStrings("l", []string{"a"})
	require.NoError(t, f.Save())
	f.SetStrings("l", []string{})
	require.NoError(t, f.Save())
	assert.Equal(t, "Iother:2\n", readFile(t, f.Path()))
	f2, err := Open(f.Path())
	require.NoError(t, err)
	assert.False(t, f2.Has("l"))
	assert.False(t, f2.Has("k"))
}

func TestPartialSave(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "partial"))
	require.NoError(t, err)
	f.SetInt("a", 1)
	f.SetString("b", "x")
	f.SetLong("c", 3)
	f.SetInt("bad:key", 4)
	f.SetInt("bad\nkey", 5)

	err = f.Save()
	var saveErr *SaveError
	require.True(t, errors.As(err, &saveErr))
	assert.Equal(t, f.Path(), saveErr.Path)
	require.Len(t, saveErr.Skipped, 2)
	assert.Equal(t, "bad\nkey", saveErr.Skipped[0].Key)
	assert.Equal(t, "bad:key", saveErr.Skipped[1].Key)
	assert.True(t, errors.Is(err, ErrBadKey))

	f2, err := Open(f.Path())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, f2.Keys())
	assert.Equal(t, int32(1), f2.GetInt("a"))
	assert.Equal(t, "x", f2.GetString("b"))
	assert.Equal(t, int64(3), f2.GetLong("c"))
}

func TestSaveSkipsInvalidChars(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "chars"))
	require.NoError(t, err)
	f.SetChar("ok", 'z')
	f.SetChar("surrogate", 0xD800)
	f.SetChar("neg", -1)
	f.SetChars("list", []rune{'a', 0xDFFF})

	err = f.Save()
	var saveErr *SaveError
	require.True(t, errors.As(err, &saveErr))
	require.Len(t, saveErr.Skipped, 3)
	assert.True(t, errors.Is(err, ErrBadChar))

	f2, err := Open(f.Path())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, f2.Keys())
	assert.Equal(t, 'z', f2.GetChar("ok"))
}

func TestTypeStrictness(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "strict"))
	require.NoError(t, err)
	f.SetInt("x", 5)
	f2 := reopen(t, f)
	assert.Equal(t, int64(-1), f2.GetLongOr("x", -1))
	assert.Equal(t, int32(5), f2.GetIntOr("x", -1))
}

func TestLoadSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+Ext)
	content := "Ia:1\nIb:oops\nno separator\r\n*zc:1,2\nsd:ok\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := Open(path)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	require.NotNil(t, f)
	assert.Equal(t, path, loadErr.Path)
	require.Len(t, loadErr.Lines, 3)
	assert.Equal(t, 2, loadErr.Lines[0].Line)
	assert.Equal(t, "no separator", loadErr.Lines[1].Text)
	assert.Equal(t, 4, loadErr.Lines[2].Line)
	assert.Equal(t, []string{"a", "d"}, f.Keys())
}

func TestLoadMergesAndReload(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "merge"))
	require.NoError(t, err)
	f.SetInt("a", 1)
	f.SetInt("b", 2)
	require.NoError(t, f.Save())

	require.NoError(t, os.WriteFile(f.Path(), []byte("Ia:10\n"), 0644))
	f.SetInt("mem", 3)
	require.NoError(t, f.Load())
	// a is overwritten, b and mem are kept
	assert.Equal(t, int32(10), f.GetInt("a"))
	assert.Equal(t, int32(2), f.GetInt("b"))
	assert.Equal(t, int32(3), f.GetInt("mem"))

	require.NoError(t, f.Reload())
	assert.Equal(t, []string{"a"}, f.Keys())
}

func TestSaveFailureKeepsOldFile(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "gone", "prefs"))
	require.NoError(t, err)
	f.SetInt("a", 1)
	require.NoError(t, f.Save())
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "gone")))
	err = f.Save()
	assert.Error(t, err)
	assert.False(t, f.Exists())
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "prefs"))
	require.NoError(t, err)
	for range 3 {
		f.SetString("k", strings.Repeat("v", 100))
		require.NoError(t, f.Save())
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "prefs"+Ext, entries[0].Name())
}

func TestSaveKeepsFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no unix permissions on windows")
	}
	path := filepath.Join(t.TempDir(), "private"+Ext)
	require.NoError(t, os.WriteFile(path, []byte("sa:b\n"), 0600))
	require.NoError(t, os.Chmod(path, 0600))

	f, err := Open(path)
	require.NoError(t, err)
	f.SetString("token", "secret")
	require.NoError(t, f.Save())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())

	// new files get the default mode
	f2, err := Open(filepath.Join(t.TempDir(), "fresh"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(f2.Path()))
	require.NoError(t, f2.Save())
	st, err = os.Stat(f2.Path())
	require.NoError(t, err)
	assert.Equal(t, atomicfile.DefaultPerm, st.Mode().Perm())
}

func TestMetrics(t *testing.T) {
	saves := savesTotal.Get()
	skipped := loadSkippedTotal.Get()
	path := filepath.Join(t.TempDir(), "m"+Ext)
	require.NoError(t, os.WriteFile(path, []byte("bad\n"), 0644))
	f, err := Open(path)
	require.Error(t, err)
	require.NoError(t, f.Save())
	assert.Equal(t, saves+1, savesTotal.Get())
	assert.Equal(t, skipped+1, loadSkippedTotal.Get())

	var buf bytes.Buffer
	WriteMetrics(&buf)
	s := buf.String()
	assert.Contains(t, s, "flatfile_saves_total")
	assert.Contains(t, s, "flatfile_load_skipped_lines_total")
}
