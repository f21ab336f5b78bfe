package siser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"strconv"
	"time"
)

// Reader reads records written by Writer
type Reader struct {
	r *bufio.Reader

	// data was written with Writer.NoTimestamp. We still read
	// the timestamp if present
	NoTimestamp bool

	// Data, Name and Timestamp of the last block read by ReadNextData
	Data      []byte
	Name      string
	Timestamp time.Time

	// Record is valid after ReadNextRecord until the next read
	Record *Record

	// offset of the current and next record within the reader
	CurrRecordPos int64
	NextRecordPos int64

	err  error
	done bool
}

func NewReader(r *bufio.Reader) *Reader {
	return &Reader{
		r:      r,
		Record: &Record{},
	}
}

// Done returns true if we finished reading, either at io.EOF or due to an error
func (r *Reader) Done() bool {
	return r.err != nil || r.done
}

// Err returns the read error. io.EOF is not an error.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(hdr []byte) bool {
	r.err = fmt.Errorf("unexpected header '%s'", string(bytes.TrimSpace(hdr)))
	return false
}

// ReadNextData reads the next block into Data, Name and Timestamp.
// Returns false at the end or on error, check Err().
func (r *Reader) ReadNextData() bool {
	if r.Done() {
		return false
	}
	r.Name = ""
	r.Timestamp = time.Time{}
	r.CurrRecordPos = r.NextRecordPos

	hdr, err := r.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(hdr) == 0 {
			r.done = true
		} else if err == io.EOF {
			r.err = io.ErrUnexpectedEOF
		} else {
			r.err = err
		}
		return false
	}
	recSize := int64(len(hdr))

	fields := bytes.Fields(bytes.TrimPrefix(hdr, hdrPrefix))
	if len(fields) == 0 {
		return r.fail(hdr)
	}
	size, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil || size < 0 {
		return r.fail(hdr)
	}
	fields = fields[1:]
	if len(fields) > 0 {
		// a number after the size is a timestamp, unless we were told
		// there are none
		ms, err := strconv.ParseInt(string(fields[0]), 10, 64)
		if err == nil {
			r.Timestamp = time.UnixMilli(ms)
			fields = fields[1:]
		} else if !r.NoTimestamp {
			return r.fail(hdr)
		}
	} else if !r.NoTimestamp {
		return r.fail(hdr)
	}
	if len(fields) > 0 {
		r.Name = string(bytes.Join(fields, []byte{' '}))
	}

	// re-use the buffer unless it grew big
	if cap(r.Data) > 1024*1024 || size > int64(cap(r.Data)) {
		r.Data = make([]byte, size)
	} else {
		r.Data = r.Data[:size]
	}
	if _, err = io.ReadFull(r.r, r.Data); err != nil {
		r.err = err
		return false
	}
	recSize += size
	if size > 0 && r.Data[size-1] != '\n' {
		if _, err = r.r.Discard(1); err != nil {
			r.err = err
			return false
		}
		recSize++
	}
	r.NextRecordPos += recSize
	return true
}

// ReadNextRecord reads the next block and decodes it into Record
func (r *Reader) ReadNextRecord() bool {
	if !r.ReadNextData() {
		return false
	}
	if r.err = r.Record.Unmarshal(r.Data); r.err != nil {
		return false
	}
	r.Record.Name = r.Name
	r.Record.Timestamp = r.Timestamp
	return true
}

// Records returns an iterator over records in r. Each yielded record
// is a new value. Iteration stops after the first error.
func Records(rd io.Reader) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		r := NewReader(bufio.NewReader(rd))
		for r.ReadNextData() {
			rec := &Record{Name: r.Name, Timestamp: r.Timestamp}
			if err := rec.Unmarshal(r.Data); err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			yield(nil, err)
		}
	}
}
