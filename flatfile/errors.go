package flatfile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kjk/flatstore/kv"
)

var (
	// ErrNoSeparator is returned for a line without ':' between the tagged key and the value
	ErrNoSeparator = errors.New("no ':' separator")
	// ErrMissingTag is returned for a line that starts with ':' or "*:"
	ErrMissingTag = errors.New("missing type tag")
	// ErrBadKey is returned when encoding a key that contains ':', '\n' or '\r'
	ErrBadKey = errors.New("key contains ':' or a line break")
	// ErrBadChar is returned when encoding a Char that is not a valid
	// Unicode code point (surrogate half, negative or above U+10FFFF)
	ErrBadChar = errors.New("char is not a valid code point")
)

// UnknownTagError is returned when a line has a type tag that doesn't
// correspond to any kind
type UnknownTagError struct {
	Tag  byte
	List bool
}

func (e *UnknownTagError) Error() string {
	if e.List {
		return fmt.Sprintf("unknown list type tag '%c'", e.Tag)
	}
	return fmt.Sprintf("unknown type tag '%c'", e.Tag)
}

// EntryError describes an entry that couldn't be encoded
type EntryError struct {
	Key   string
	Value kv.Value
	Err   error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("key '%s': %s", e.Key, e.Err)
}

func (e EntryError) Unwrap() error {
	return e.Err
}

// SaveError is returned by Save when some entries were skipped.
// All other entries were written.
type SaveError struct {
	Path    string
	Skipped []EntryError
}

func (e *SaveError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: skipped %d entries", e.Path, len(e.Skipped))
	for i, se := range e.Skipped {
		if i == 3 {
			sb.WriteString(", ...")
			break
		}
		sb.WriteString("; ")
		sb.WriteString(se.Error())
	}
	return sb.String()
}

func (e *SaveError) Unwrap() []error {
	res := make([]error, len(e.Skipped))
	for i, se := range e.Skipped {
		res[i] = se
	}
	return res
}

// LineError describes a line that couldn't be decoded
type LineError struct {
	// 1-based line number
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// LoadError is returned by Load when some lines were skipped.
// Values from all other lines were loaded.
type LoadError struct {
	Path  string
	Lines []LineError
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: skipped %d lines", e.Path, len(e.Lines))
	for i, le := range e.Lines {
		if i == 3 {
			sb.WriteString(", ...")
			break
		}
		sb.WriteString("; ")
		sb.WriteString(le.Error())
	}
	return sb.String()
}

func (e *LoadError) Unwrap() []error {
	res := make([]error, len(e.Lines))
	for i, le := range e.Lines {
		res[i] = le
	}
	return res
}
