package flatfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kjk/flatstore/atomicfile"
	"github.com/kjk/flatstore/kv"
	"github.com/kjk/flatstore/log"
)

// Ext is the extension of store files
const Ext = ".mcufs"

// File is a Store persisted in a .mcufs file
type File struct {
	*kv.Store
	path string
}

// WithExt returns path with Ext appended unless it already ends with it
func WithExt(path string) string {
	if strings.HasSuffix(path, Ext) {
		return path
	}
	return path + Ext
}

// Open opens the store file at path (Ext is added if missing), creating
// the file and its parent directories if they don't exist, and loads it.
// If some lines couldn't be decoded, returns the File and *LoadError.
func Open(path string) (*File, error) {
	path = WithExt(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("flatfile.Open: os.MkdirAll('%s') failed with '%w'", dir, err)
	}
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("flatfile.Open: os.OpenFile('%s') failed with '%w'", path, err)
	}
	fd.Close()

	f := &File{
		Store: kv.New(),
		path:  path,
	}
	err = f.Load()
	var loadErr *LoadError
	if err != nil && !errors.As(err, &loadErr) {
		return nil, err
	}
	return f, err
}

func (f *File) Path() string {
	return f.path
}

// Exists returns true if the file exists on disk
func (f *File) Exists() bool {
	st, err := os.Stat(f.path)
	return err == nil && st.Mode().IsRegular()
}

// Save writes all entries to disk. The file is replaced atomically so
// on error the previous content is left intact.
// Returns *SaveError if some entries couldn't be encoded, in which case
// all other entries were saved.
func (f *File) Save() (err error) {
	timeStart := time.Now()
	savesTotal.Inc()
	defer func() {
		dur := time.Since(timeStart)
		saveDuration.Update(dur.Seconds())
		if err != nil {
			saveErrorsTotal.Inc()
		}
	}()

	perm := atomicfile.DefaultPerm
	if st, statErr := os.Stat(f.path); statErr == nil {
		perm = st.Mode().Perm()
	}
	af, err := atomicfile.NewWithPerm(f.path, perm)
	if err != nil {
		log.Errorf("flatfile.Save: atomicfile.NewWithPerm('%s') failed with '%s'\n", f.path, err)
		return err
	}
	defer af.RemoveIfNotClosed()

	encErr := Encode(af, f.Store)
	var saveErr *SaveError
	if encErr != nil && !errors.As(encErr, &saveErr) {
		log.Errorf("flatfile.Save: writing '%s' failed with '%s'\n", f.path, encErr)
		return encErr
	}
	if err = af.Close(); err != nil {
		log.Errorf("flatfile.Save: closing '%s' failed with '%s'\n", f.path, err)
		return err
	}

	nSkipped := 0
	if saveErr != nil {
		saveErr.Path = f.path
		nSkipped = len(saveErr.Skipped)
		saveSkippedTotal.Add(nSkipped)
		for _, se := range saveErr.Skipped {
			log.Errorf("flatfile.Save: skipped '%s' in '%s': %s\n", se.Key, f.path, se.Err)
		}
		err = saveErr
	}
	log.EventWithDuration("flatfile.save", time.Since(timeStart), "path", f.path, "entries", f.Len()-nSkipped, "skipped", nSkipped)
	return err
}

// Load reads the file and sets decoded values. Values already in memory
// are kept unless the file has the same key.
// Returns *LoadError if some lines couldn't be decoded, in which case
// values from all other lines were loaded.
func (f *File) Load() (err error) {
	timeStart := time.Now()
	loadsTotal.Inc()
	defer func() {
		dur := time.Since(timeStart)
		loadDuration.Update(dur.Seconds())
		if err != nil {
			loadErrorsTotal.Inc()
		}
	}()

	fd, err := os.Open(f.path)
	if err != nil {
		log.Errorf("flatfile.Load: os.Open('%s') failed with '%s'\n", f.path, err)
		return err
	}
	defer fd.Close()

	err = Decode(fd, f.Store)
	var loadErr *LoadError
	if err != nil && !errors.As(err, &loadErr) {
		log.Errorf("flatfile.Load: reading '%s' failed with '%s'\n", f.path, err)
		return fmt.Errorf("flatfile.Load: reading '%s' failed with '%w'", f.path, err)
	}
	nSkipped := 0
	if loadErr != nil {
		loadErr.Path = f.path
		nSkipped = len(loadErr.Lines)
		loadSkippedTotal.Add(nSkipped)
		for _, le := range loadErr.Lines {
			log.Verbosef("flatfile.Load: skipped line %d of '%s': %s\n", le.Line, f.path, le.Err)
		}
	}
	log.EventWithDuration("flatfile.load", time.Since(timeStart), "path", f.path, "keys", f.Len(), "skipped", nSkipped)
	return err
}

// Reload clears all values and loads the file
func (f *File) Reload() error {
	f.Clear()
	return f.Load()
}
