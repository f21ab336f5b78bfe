package flatfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kjk/flatstore/kv"
)

const listFlag = '*'

// FormatScalar returns canonical text of v, without escaping
func FormatScalar(v kv.Scalar) string {
	switch v := v.(type) {
	case kv.String:
		return string(v)
	case kv.Char:
		return string(rune(v))
	case kv.Bool:
		if v {
			return "t"
		}
		return "f"
	case kv.UUID:
		return v.String()
	case kv.Byte:
		return strconv.FormatInt(int64(v), 10)
	case kv.Short:
		return strconv.FormatInt(int64(v), 10)
	case kv.Int:
		return strconv.FormatInt(int64(v), 10)
	case kv.Long:
		return strconv.FormatInt(int64(v), 10)
	case kv.Float:
		return formatFloat(float64(v), 32)
	case kv.Double:
		return formatFloat(float64(v), 64)
	}
	panic(fmt.Sprintf("FormatScalar: unsupported type %T", v))
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

// ParseScalar parses canonical (unescaped) text of a scalar of a given kind
func ParseScalar(kind kv.Kind, s string) (kv.Scalar, error) {
	switch kind {
	case kv.KindString:
		return kv.String(s), nil
	case kv.KindChar:
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) || (r == utf8.RuneError && size == 1) {
			return nil, fmt.Errorf("'%s' is not a single character", s)
		}
		return kv.Char(r), nil
	case kv.KindBool:
		switch s {
		case "t", "true":
			return kv.Bool(true), nil
		case "f", "false":
			return kv.Bool(false), nil
		}
		return nil, fmt.Errorf("'%s' is not a boolean", s)
	case kv.KindUUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return kv.UUID(id), nil
	case kv.KindByte:
		n, err := strconv.ParseInt(s, 10, 8)
		return kv.Byte(n), err
	case kv.KindShort:
		n, err := strconv.ParseInt(s, 10, 16)
		return kv.Short(n), err
	case kv.KindInt:
		n, err := strconv.ParseInt(s, 10, 32)
		return kv.Int(n), err
	case kv.KindLong:
		n, err := strconv.ParseInt(s, 10, 64)
		return kv.Long(n), err
	case kv.KindFloat:
		f, err := strconv.ParseFloat(s, 32)
		return kv.Float(f), err
	case kv.KindDouble:
		f, err := strconv.ParseFloat(s, 64)
		return kv.Double(f), err
	}
	return nil, fmt.Errorf("invalid kind %s", kind)
}

func isText(kind kv.Kind) bool {
	return kind == kv.KindString || kind == kv.KindChar
}

func escape(sb *strings.Builder, s string, inList bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case ',':
			if inList {
				sb.WriteString(`\,`)
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
}

// unescape reverses escape. Unknown escapes and a trailing '\'
// are kept as-is
func unescape(s string, inList bool) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	n := len(s)
	for i := 0; i < n; i++ {
		c := s[i]
		if c != '\\' || i == n-1 {
			sb.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch {
		case next == '\\':
			sb.WriteByte('\\')
		case next == 'n':
			sb.WriteByte('\n')
		case next == 'r':
			sb.WriteByte('\r')
		case next == ',' && inList:
			sb.WriteByte(',')
		default:
			sb.WriteByte(c)
			sb.WriteByte(next)
		}
		i++
	}
	return sb.String()
}

// splitList splits on ',' that is not escaped with '\'
func splitList(s string, escaped bool) []string {
	if !escaped {
		return strings.Split(s, ",")
	}
	var res []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case ',':
			res = append(res, s[start:i])
			start = i + 1
		}
	}
	return append(res, s[start:])
}

func appendScalar(sb *strings.Builder, v kv.Scalar, inList bool) {
	if isText(v.Kind()) {
		escape(sb, FormatScalar(v), inList)
		return
	}
	sb.WriteString(FormatScalar(v))
}

// utf-8 text can't carry surrogates or out of range values
func checkChar(v kv.Scalar) error {
	if c, ok := v.(kv.Char); ok && !utf8.ValidRune(rune(c)) {
		return ErrBadChar
	}
	return nil
}

func checkKey(key string) error {
	if strings.ContainsAny(key, ":\n\r") {
		return ErrBadKey
	}
	return nil
}

// EncodeLine returns the line (without the terminating newline) for key and v
func EncodeLine(key string, v kv.Value) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	var sb strings.Builder
	switch v := v.(type) {
	case nil:
		return "", errors.New("nil value")
	case kv.List:
		if v.Len() == 0 {
			return "", kv.ErrEmptyList
		}
		sb.WriteByte(listFlag)
		sb.WriteByte(v.Kind().Tag())
		sb.WriteString(key)
		sb.WriteByte(':')
		for i, e := range v.All() {
			if err := checkChar(e); err != nil {
				return "", fmt.Errorf("element %d: %w", i, err)
			}
			if i > 0 {
				sb.WriteByte(',')
			}
			appendScalar(&sb, e, true)
		}
	case kv.Scalar:
		if err := checkChar(v); err != nil {
			return "", err
		}
		sb.WriteByte(v.Kind().Tag())
		sb.WriteString(key)
		sb.WriteByte(':')
		appendScalar(&sb, v, false)
	}
	return sb.String(), nil
}

func decodeScalar(kind kv.Kind, s string, inList bool) (kv.Scalar, error) {
	if isText(kind) {
		s = unescape(s, inList)
	}
	v, err := ParseScalar(kind, s)
	if err != nil {
		return nil, fmt.Errorf("bad %s value: %w", kind, err)
	}
	return v, nil
}

// DecodeLine parses a single line (without the terminating newline)
func DecodeLine(line string) (string, kv.Value, error) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", nil, ErrNoSeparator
	}
	tagged, text := line[:idx], line[idx+1:]
	isList := len(tagged) > 0 && tagged[0] == listFlag
	if isList {
		tagged = tagged[1:]
	}
	if len(tagged) == 0 {
		return "", nil, ErrMissingTag
	}
	kind, ok := kv.KindFromTag(tagged[0])
	if !ok {
		return "", nil, &UnknownTagError{Tag: tagged[0], List: isList}
	}
	key := tagged[1:]
	if !isList {
		v, err := decodeScalar(kind, text, false)
		if err != nil {
			return "", nil, err
		}
		return key, v, nil
	}
	parts := splitList(text, isText(kind))
	elems := make([]kv.Scalar, len(parts))
	for i, part := range parts {
		v, err := decodeScalar(kind, part, true)
		if err != nil {
			return "", nil, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = v
	}
	l, err := kv.NewList(elems...)
	if err != nil {
		return "", nil, err
	}
	return key, l, nil
}

// Encode writes all entries of s to w in sorted key order.
// Entries that can't be encoded are skipped and returned as *SaveError
// after all other entries have been written.
func Encode(w io.Writer, s *kv.Store) error {
	bw := bufio.NewWriter(w)
	var skipped []EntryError
	for key, v := range s.All() {
		line, err := EncodeLine(key, v)
		if err != nil {
			skipped = append(skipped, EntryError{Key: key, Value: v, Err: err})
			continue
		}
		bw.WriteString(line)
		if err = bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if len(skipped) > 0 {
		return &SaveError{Skipped: skipped}
	}
	return nil
}

// Decode reads lines from r and sets decoded values in s. Existing
// values of s are kept unless a line has the same key.
// Lines that can't be decoded are skipped and returned as *LoadError.
// Any other error is a read error.
func Decode(r io.Reader, s *kv.Store) error {
	br := bufio.NewReader(r)
	var bad []LineError
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if line == "" && err == io.EOF {
			break
		}
		lineNo++
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			key, v, decErr := DecodeLine(line)
			if decErr != nil {
				bad = append(bad, LineError{Line: lineNo, Text: line, Err: decErr})
			} else {
				s.Set(key, v)
			}
		}
		if err == io.EOF {
			break
		}
	}
	if len(bad) > 0 {
		return &LoadError{Lines: bad}
	}
	return nil
}
