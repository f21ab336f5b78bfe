package backup

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kjk/flatstore/atomicfile"
	"github.com/kjk/flatstore/flatfile"
	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/siser"
	"github.com/kjk/flatstore/u"
)

const (
	// JournalName is the name of the file in snapshot dir that
	// records every snapshot
	JournalName = "journal.txt"

	journalRecordName = "snapshot"
	timeFormat        = "20060102-150405.000"
)

// Info describes a snapshot
type Info struct {
	// path of the snapshot file
	Path string
	// path of the store file it was created from
	Source      string
	Compression Compression
	// size and sha1 of uncompressed data
	Size int64
	Sha1 string
	Time time.Time
}

// Base returns the name of the store, e.g. "prefs" for prefs.mcufs
func (i *Info) Base() string {
	base, _, _, _ := parseSnapshotName(filepath.Base(i.Path))
	return base
}

func storeBase(path string) string {
	return strings.TrimSuffix(filepath.Base(path), flatfile.Ext)
}

// SnapshotName returns file name of a snapshot of store base taken at t
func SnapshotName(base string, t time.Time, c Compression) string {
	return base + "-" + t.UTC().Format(timeFormat) + flatfile.Ext + c.Ext()
}

// parseSnapshotName parses name created with SnapshotName
func parseSnapshotName(name string) (base string, t time.Time, c Compression, ok bool) {
	c = compressionOf(name)
	s := strings.TrimSuffix(name, c.Ext())
	s, ok = strings.CutSuffix(s, flatfile.Ext)
	if !ok {
		return "", t, c, false
	}
	n := len(timeFormat)
	if len(s) < n+2 || s[len(s)-n-1] != '-' {
		return "", t, c, false
	}
	t, err := time.ParseInLocation(timeFormat, s[len(s)-n:], time.UTC)
	if err != nil {
		return "", t, c, false
	}
	return s[:len(s)-n-1], t, c, true
}

// Snapshot saves a compressed copy of the file of f in dir.
// It doesn't call f.Save(), the snapshot is of what's on disk.
func Snapshot(f *flatfile.File, dir string, c Compression) (*Info, error) {
	return SnapshotPath(f.Path(), dir, c)
}

// SnapshotPath saves a compressed copy of the store file at path in dir
// and records it in dir/journal.txt
func SnapshotPath(path string, dir string, c Compression) (*Info, error) {
	path = flatfile.WithExt(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	src, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	info := &Info{
		Source:      path,
		Compression: c,
		Time:        time.Now().UTC().Truncate(time.Millisecond),
	}
	info.Path = filepath.Join(dir, SnapshotName(storeBase(path), info.Time, c))

	af, err := atomicfile.New(info.Path)
	if err != nil {
		return nil, err
	}
	defer af.RemoveIfNotClosed()
	h := sha1.New()
	info.Size, err = u.CompressTo(af, io.TeeReader(src, h), c.Ext())
	if err != nil {
		return nil, fmt.Errorf("backup: compressing '%s' failed with '%w'", path, err)
	}
	if err = af.Close(); err != nil {
		return nil, err
	}
	info.Sha1 = hex.EncodeToString(h.Sum(nil))

	if err = appendJournal(dir, info); err != nil {
		return info, err
	}
	log.Event("backup.snapshot", "path", info.Path, "source", path, "size", info.Size, "compression", c.String())
	return info, nil
}

func appendJournal(dir string, info *Info) error {
	path := filepath.Join(dir, JournalName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	rec := &siser.Record{
		Name:      journalRecordName,
		Timestamp: info.Time,
	}
	rec.Write(
		"name", filepath.Base(info.Path),
		"source", info.Source,
		"compression", info.Compression.String(),
		"size", info.Size,
		"sha1", info.Sha1,
	)
	w := siser.NewWriter(f)
	_, err = w.WriteRecord(rec)
	return errors.Join(err, f.Close())
}

// History returns snapshots recorded in dir/journal.txt, oldest first.
// Returns nil if there's no journal.
func History(dir string) ([]*Info, error) {
	f, err := os.Open(filepath.Join(dir, JournalName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var res []*Info
	for rec, err := range siser.Records(f) {
		if err != nil {
			return res, fmt.Errorf("backup: reading journal in '%s' failed with '%w'", dir, err)
		}
		if rec.Name != journalRecordName {
			continue
		}
		info := &Info{
			Time: rec.Timestamp.UTC(),
		}
		name, _ := rec.Get("name")
		info.Path = filepath.Join(dir, name)
		info.Source, _ = rec.Get("source")
		s, _ := rec.Get("compression")
		info.Compression, _ = ParseCompression(s)
		s, _ = rec.Get("size")
		info.Size, _ = strconv.ParseInt(s, 10, 64)
		info.Sha1, _ = rec.Get("sha1")
		res = append(res, info)
	}
	return res, nil
}

// List returns snapshots of store base in dir based on file names,
// newest first. If base is empty, returns snapshots of all stores.
func List(dir string, base string) ([]*Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var res []*Info
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		b, t, c, ok := parseSnapshotName(e.Name())
		if !ok || (base != "" && b != base) {
			continue
		}
		info := &Info{
			Path:        filepath.Join(dir, e.Name()),
			Compression: c,
			Time:        t,
			Size:        -1,
		}
		res = append(res, info)
	}
	slices.SortFunc(res, func(a, b *Info) int {
		return b.Time.Compare(a.Time)
	})
	return res, nil
}

// Prune deletes all but the newest keep snapshots of store base in dir.
// Returns paths of deleted files.
func Prune(dir string, base string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("backup: invalid keep %d", keep)
	}
	infos, err := List(dir, base)
	if err != nil {
		return nil, err
	}
	if len(infos) <= keep {
		return nil, nil
	}
	var removed []string
	for _, info := range infos[keep:] {
		if err = os.Remove(info.Path); err != nil {
			return removed, err
		}
		removed = append(removed, info.Path)
		log.Verbosef("backup.Prune: removed '%s'\n", info.Path)
	}
	return removed, nil
}

// Restore decompresses snapshot at snapshotPath and atomically
// replaces the store file at dstPath
func Restore(snapshotPath string, dstPath string) error {
	dstPath = flatfile.WithExt(dstPath)
	r, err := u.OpenFileMaybeCompressed(snapshotPath)
	if err != nil {
		return err
	}
	defer r.Close()
	if err = os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return err
	}
	if _, err = atomicfile.WriteFrom(dstPath, r); err != nil {
		return fmt.Errorf("backup: restoring '%s' to '%s' failed with '%w'", snapshotPath, dstPath, err)
	}
	log.Event("backup.restore", "snapshot", snapshotPath, "path", dstPath)
	return nil
}
