// Package atomicfile writes a file so that readers see either the old
// content or the complete new content, never a partial write.
//
// Data goes to a temporary file in the destination directory which is
// renamed over the destination in Close(). If any Write() fails, or the
// file is abandoned with RemoveIfNotClosed(), the temporary file is
// deleted and the destination is left untouched.
//
//	f, err := atomicfile.New(path)
//	if err != nil {
//		return err
//	}
//	// a no-op after Close(), cleans up on early return or panic
//	defer f.RemoveIfNotClosed()
//	if _, err = f.Write(data); err != nil {
//		return err
//	}
//	return f.Close()
package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Some references:
// - https://www.slideshare.net/nan1nan1/eat-my-data
// - https://lwn.net/Articles/457667/

const DefaultPerm os.FileMode = 0644

var (
	// ErrCancelled is returned by calls subsequent to RemoveIfNotClosed()
	ErrCancelled = errors.New("cancelled")

	_ io.WriteCloser  = &File{}
	_ io.StringWriter = &File{}
)

// File is a destination file being written atomically
type File struct {
	dstPath string
	dir     string
	perm    os.FileMode
	tmpFile *os.File
	tmpPath string
	// first error we encountered
	err error
}

// New creates a File with DefaultPerm permissions
func New(path string) (*File, error) {
	return NewWithPerm(path, DefaultPerm)
}

func NewWithPerm(path string, perm os.FileMode) (*File, error) {
	dir, fName := filepath.Split(path)
	if fName == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	// temp file in the same directory so that rename doesn't cross devices
	tmpFile, err := os.CreateTemp(dir, fName+".tmp*")
	if err != nil {
		return nil, err
	}
	return &File{
		dstPath: path,
		dir:     dir,
		perm:    perm,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

// Path returns the destination path
func (f *File) Path() string {
	return f.dstPath
}

func (f *File) setErr(err error) error {
	if err == nil {
		return nil
	}
	if f.err == nil {
		f.err = err
	}
	// deletes the temporary file
	_ = f.Close()
	return err
}

func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.closed() {
		return 0, os.ErrClosed
	}
	n, err := f.tmpFile.Write(d)
	return n, f.setErr(err)
}

func (f *File) WriteString(s string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.closed() {
		return 0, os.ErrClosed
	}
	n, err := f.tmpFile.WriteString(s)
	return n, f.setErr(err)
}

func (f *File) closed() bool {
	return f.tmpFile == nil
}

// RemoveIfNotClosed abandons the write if Close() wasn't called yet:
// the temporary file is deleted and the destination is not touched.
// Meant to be used with defer. It's a no-op after Close().
func (f *File) RemoveIfNotClosed() {
	if f == nil || f.closed() {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// Close syncs the data and renames the temporary file to the destination.
// It can be called multiple times, subsequent calls return the result
// of the first call.
func (f *File) Close() error {
	if f.closed() {
		return f.err
	}
	tmpFile := f.tmpFile
	f.tmpFile = nil

	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errSync := tmpFile.Sync()
	errChmod := tmpFile.Chmod(f.perm)
	errClose := tmpFile.Close()

	didRename := false
	defer func() {
		if !didRename {
			_ = os.Remove(f.tmpPath)
		}
	}()

	if f.err != nil {
		return f.err
	}

	err := errors.Join(errSync, errChmod, errClose)
	if err == nil {
		// over-writes dstPath if it exists
		err = os.Rename(f.tmpPath, f.dstPath)
		didRename = err == nil
	}
	if didRename {
		// a nice to have protection against crashes, ignore errors
		if fdir, _ := os.Open(f.dir); fdir != nil {
			_ = fdir.Sync()
			_ = fdir.Close()
		}
	}
	f.err = err
	return err
}

// WriteFile is os.WriteFile done atomically
func WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := NewWithPerm(path, perm)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if _, err = f.Write(data); err != nil {
		return err
	}
	return f.Close()
}

// WriteFrom copies r to path atomically
func WriteFrom(path string, r io.Reader) (int64, error) {
	f, err := New(path)
	if err != nil {
		return 0, err
	}
	defer f.RemoveIfNotClosed()
	n, err := io.Copy(f, r)
	if err != nil {
		return n, err
	}
	return n, f.Close()
}
