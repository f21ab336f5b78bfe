package u

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// extensions of compressed files we know how to read and write
const (
	ExtGzip   = ".gz"
	ExtZstd   = ".zstd"
	ExtBrotli = ".br"
)

// IsCompressedExt returns true if ext is one of ExtGzip, ExtZstd, ExtBrotli
func IsCompressedExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtGzip, ExtZstd, ExtBrotli:
		return true
	}
	return false
}

// implement io.ReadCloser over a decompressing reader.
// Close() closes the decompressor (if it needs closing) and
// the underlying source
type readerWrapped struct {
	r      io.Reader
	closeR func()
	src    io.Closer
}

func (rc *readerWrapped) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

func (rc *readerWrapped) Close() error {
	if rc.closeR != nil {
		rc.closeR()
	}
	if rc.src != nil {
		return rc.src.Close()
	}
	return nil
}

// NewReaderForExt returns a reader that decompresses r based on file
// extension ext. Unknown extensions mean no compression.
// Close() doesn't close r.
func NewReaderForExt(r io.Reader, ext string) (io.ReadCloser, error) {
	switch strings.ToLower(ext) {
	case ExtGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &readerWrapped{r: zr, closeR: func() { zr.Close() }}, nil
	case ExtZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &readerWrapped{r: zr, closeR: zr.Close}, nil
	case ExtBrotli:
		return &readerWrapped{r: brotli.NewReader(r)}, nil
	}
	return io.NopCloser(r), nil
}

// OpenFileMaybeCompressed opens a file that might be compressed with gzip,
// zstd or brotli, based on file extension
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := NewReaderForExt(f, filepath.Ext(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if wr, ok := rc.(*readerWrapped); ok {
		wr.src = f
		return wr, nil
	}
	return f, nil
}

// ReadFileMaybeCompressed reads a file, decompressing based on extension
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// zstd.SpeedBestCompression is much slower and not much better
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

// NewWriterForExt returns a writer that compresses into w based on file
// extension ext. Unknown extensions mean no compression.
// Close() must be called to flush compressed data, it doesn't close w.
func NewWriterForExt(w io.Writer, ext string) (io.WriteCloser, error) {
	switch strings.ToLower(ext) {
	case ExtGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case ExtZstd:
		return zstdNewWriter(w)
	case ExtBrotli:
		return brotli.NewWriterLevel(w, brotli.DefaultCompression), nil
	}
	return nopWriteCloser{w}, nil
}

// CompressTo copies r to w, compressing based on ext.
// Returns number of uncompressed bytes.
func CompressTo(w io.Writer, r io.Reader, ext string) (int64, error) {
	cw, err := NewWriterForExt(w, ext)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(cw, r)
	err2 := cw.Close()
	if err != nil {
		return n, err
	}
	return n, err2
}
