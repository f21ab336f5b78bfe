// Package siser reads and writes a log of records in a human-readable,
// append-only text format.
//
// Each record starts with a header line:
//
//	--- ${size} ${unix_epoch_ms} ${name}\n
//
// followed by size bytes of data (and a '\n' if data doesn't end with one).
// Data of a Record is a list of key/value pairs, one per line "key: value\n".
// Values that are empty, long or not printable ASCII are written as
// "key:+${len}\n${value}\n".
package siser

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

type Entry struct {
	Key   string
	Value string
}

// Record is a named, timestamped list of key/value pairs
type Record struct {
	Name string
	// if zero, Writer uses current time
	Timestamp time.Time
	Entries   []Entry
}

func toStr(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []byte:
		return string(v)
	}
	return fmt.Sprintf("%v", v)
}

// Write appends key/value pairs to the record
func (r *Record) Write(args ...any) error {
	n := len(args)
	if n == 0 || n%2 != 0 {
		return fmt.Errorf("invalid number of args: %d. Should be multiple of 2", n)
	}
	for i := 0; i < n; i += 2 {
		k := toStr(args[i])
		if k == "" {
			return fmt.Errorf("empty key at position %d", i)
		}
		r.Entries = append(r.Entries, Entry{Key: k, Value: toStr(args[i+1])})
	}
	return nil
}

// Get returns a value of the first entry with a given key
func (r *Record) Get(key string) (string, bool) {
	for _, e := range r.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Reset clears the record for re-use
func (r *Record) Reset() {
	r.Name = ""
	r.Timestamp = time.Time{}
	r.Entries = r.Entries[:0]
}

// return true if value must be written in the size-prefixed format
func needsLongFormat(s string) bool {
	if len(s) == 0 || len(s) > 120 {
		return true
	}
	for i := 0; i < len(s); i++ {
		if b := s[i]; b < 32 || b > 127 {
			return true
		}
	}
	return false
}

// Marshal serializes entries of the record
func (r *Record) Marshal() []byte {
	var buf bytes.Buffer
	for _, e := range r.Entries {
		buf.WriteString(e.Key)
		if !needsLongFormat(e.Value) {
			buf.WriteString(": ")
			buf.WriteString(e.Value)
			buf.WriteByte('\n')
			continue
		}
		buf.WriteString(":+")
		buf.WriteString(strconv.Itoa(len(e.Value)))
		buf.WriteByte('\n')
		buf.WriteString(e.Value)
		// header of the next entry always starts on a new line
		if n := len(e.Value); n == 0 || e.Value[n-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// Unmarshal replaces entries of the record with entries decoded from d
func (r *Record) Unmarshal(d []byte) error {
	r.Entries = r.Entries[:0]
	for len(d) > 0 {
		idx := bytes.IndexByte(d, '\n')
		if idx == -1 {
			return fmt.Errorf("missing '\\n' at the end of '%s'", string(d))
		}
		line := d[:idx]
		d = d[idx+1:]
		idx = bytes.IndexByte(line, ':')
		if idx == -1 || idx == len(line)-1 {
			return fmt.Errorf("line in unrecognized format: '%s'", line)
		}
		key := string(line[:idx])
		kind, val := line[idx+1], line[idx+2:]
		switch kind {
		case ' ':
			r.Entries = append(r.Entries, Entry{Key: key, Value: string(val)})
			continue
		case '+':
			// size-prefixed value follows
		default:
			return fmt.Errorf("line in unrecognized format: '%s'", line)
		}
		n, err := strconv.Atoi(string(val))
		if err != nil {
			return err
		}
		if n < 0 || n > len(d) {
			return fmt.Errorf("invalid length %d of value, remaining data is %d bytes", n, len(d))
		}
		r.Entries = append(r.Entries, Entry{Key: key, Value: string(d[:n])})
		d = d[n:]
		if len(d) > 0 && d[0] == '\n' {
			d = d[1:]
		}
	}
	return nil
}
