package siser

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/kjk/flatstore/assert"
	"github.com/kjk/flatstore/require"
)

func TestMarshalLine(t *testing.T) {
	tm := time.UnixMilli(1700000000123)
	tests := []struct {
		name string
		t    time.Time
		d    string
		exp  string
	}{
		{"snap", tm, "a: b\n", "--- 5 1700000000123 snap\na: b\n"},
		{"", tm, "abc", "--- 3 1700000000123\nabc\n"},
		{"x", time.Time{}, "", "--- 0 x\n"},
		{"", time.Time{}, "", "--- 0\n"},
	}
	var buf bytes.Buffer
	for _, test := range tests {
		got := MarshalLine(test.name, test.t, []byte(test.d), &buf)
		assert.Equal(t, test.exp, string(got))
		got = MarshalLine(test.name, test.t, []byte(test.d), nil)
		assert.Equal(t, test.exp, string(got))
	}
}

func TestRecordMarshal(t *testing.T) {
	var r Record
	err := r.Write("name", "prefs.mcufs", "size", 123, "empty", "", "multi", "a\nb")
	require.NoError(t, err)
	exp := "name: prefs.mcufs\nsize: 123\nempty:+0\n\nmulti:+3\na\nb\n"
	assert.Equal(t, exp, string(r.Marshal()))

	var r2 Record
	require.NoError(t, r2.Unmarshal(r.Marshal()))
	assert.Equal(t, r.Entries, r2.Entries)
	v, ok := r2.Get("size")
	assert.True(t, ok)
	assert.Equal(t, "123", v)
	_, ok = r2.Get("missing")
	assert.False(t, ok)

	long := strings.Repeat("x", 200)
	r.Reset()
	require.NoError(t, r.Write("long", long))
	require.NoError(t, r2.Unmarshal(r.Marshal()))
	assert.Equal(t, long, r2.Entries[0].Value)

	assert.Error(t, r.Write("odd"))
	assert.Error(t, r.Write("", "v"))
}

func TestRecordUnmarshalErrors(t *testing.T) {
	bad := []string{
		"no newline",
		"no colon\n",
		"key:\n",
		"key:x\n",
		"key:+abc\n",
		"key:+10\nshort\n",
		"key:+-1\n",
	}
	var r Record
	for _, s := range bad {
		assert.Error(t, r.Unmarshal([]byte(s)), "data %q", s)
	}
}

func TestWriterReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	tm := time.UnixMilli(1700000000000)
	recs := []*Record{
		{Name: "snapshot", Timestamp: tm, Entries: []Entry{{"path", "a.mcufs"}, {"sha1", "abc"}}},
		{Name: "snapshot", Timestamp: tm.Add(time.Second), Entries: []Entry{{"path", "b.mcufs"}}},
		{Name: "", Timestamp: tm, Entries: []Entry{{"k", "v\nv"}}},
	}
	var pos []int64
	total := 0
	for _, r := range recs {
		pos = append(pos, int64(total))
		n, err := w.WriteRecord(r)
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, total, buf.Len())

	rd := NewReader(bufio.NewReader(bytes.NewReader(buf.Bytes())))
	i := 0
	for rd.ReadNextRecord() {
		exp := recs[i]
		assert.Equal(t, exp.Name, rd.Record.Name)
		assert.True(t, exp.Timestamp.Equal(rd.Record.Timestamp))
		assert.Equal(t, exp.Entries, rd.Record.Entries)
		assert.Equal(t, pos[i], rd.CurrRecordPos)
		i++
	}
	require.NoError(t, rd.Err())
	assert.Equal(t, len(recs), i)
	assert.True(t, rd.Done())
	assert.Equal(t, int64(total), rd.NextRecordPos)

	i = 0
	for rec, err := range Records(bytes.NewReader(buf.Bytes())) {
		require.NoError(t, err)
		assert.Equal(t, recs[i].Entries, rec.Entries)
		i++
	}
	assert.Equal(t, len(recs), i)
}

func TestWriterNoTimestamp(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.NoTimestamp = true
	_, err := w.Write([]byte("hello"), time.Now(), "greeting")
	require.NoError(t, err)
	assert.Equal(t, "--- 5 greeting\nhello\n", buf.String())

	rd := NewReader(bufio.NewReader(&buf))
	rd.NoTimestamp = true
	require.True(t, rd.ReadNextData())
	assert.Equal(t, "greeting", rd.Name)
	assert.Equal(t, "hello", string(rd.Data))
	assert.True(t, rd.Timestamp.IsZero())
	assert.False(t, rd.ReadNextData())
	assert.NoError(t, rd.Err())
}

func TestReaderErrors(t *testing.T) {
	bad := []string{
		"--- abc 123\n",
		"--- 5\nhello\n",
		"--- 10 123\nshort",
		"--- 3 123",
	}
	for _, s := range bad {
		rd := NewReader(bufio.NewReader(strings.NewReader(s)))
		assert.False(t, rd.ReadNextData(), "data %q", s)
		assert.Error(t, rd.Err(), "data %q", s)
	}
}
