package siser

import (
	"bytes"
	"io"
	"strconv"
	"sync"
	"time"
)

var hdrPrefix = []byte("--- ")

// Writer writes records to an io.Writer. It's safe for concurrent use.
type Writer struct {
	w io.Writer
	// NoTimestamp disables writing timestamp, which
	// makes serialized data not depend on when they were written
	NoTimestamp bool

	buf bytes.Buffer
	mu  sync.Mutex
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w: w,
	}
}

// WriteRecord writes a record. Returns number of bytes written.
func (w *Writer) WriteRecord(r *Record) (int, error) {
	return w.Write(r.Marshal(), r.Timestamp, r.Name)
}

// Write writes a block of data with optional timestamp and name.
// If t is zero, current time is used.
func (w *Writer) Write(d []byte, t time.Time, name string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// don't hold on to a big buffer after a one-off large write
	if w.buf.Cap() > 100*1024 && len(d) < 50*1024 {
		w.buf = bytes.Buffer{}
	}
	if w.NoTimestamp {
		t = time.Time{}
	} else if t.IsZero() {
		t = time.Now()
	}
	return w.w.Write(MarshalLine(name, t, d, &w.buf))
}

// MarshalLine serializes a header and d. If t is zero, it's not written.
// If wb is given, it's used as a buffer and returned data is only valid
// until its next use.
func MarshalLine(name string, t time.Time, d []byte, wb *bytes.Buffer) []byte {
	if wb == nil {
		wb = &bytes.Buffer{}
	} else {
		wb.Reset()
	}
	wb.Grow(len(hdrPrefix) + len(name) + len(d) + 32)

	wb.Write(hdrPrefix)
	wb.WriteString(strconv.Itoa(len(d)))
	if !t.IsZero() {
		wb.WriteByte(' ')
		wb.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	}
	if name != "" {
		wb.WriteByte(' ')
		wb.WriteString(name)
	}
	wb.WriteByte('\n')
	if n := len(d); n > 0 {
		wb.Write(d)
		if d[n-1] != '\n' {
			wb.WriteByte('\n')
		}
	}
	return wb.Bytes()
}
