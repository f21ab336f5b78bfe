package kv

import (
	"github.com/google/uuid"
)

// typed accessors. For every kind there's:
//   SetX(key, v), SetXs(key, []v)
//   GetX(key) returns zero value if missing, GetXOr(key, def)
//   GetXs(key) returns nil if missing, GetXsOr(key, def)
// Values are matched by exact kind, e.g. GetLong() doesn't return an Int.

func getScalar[S Scalar](s *Store, key string) (S, bool) {
	v, ok := s.m[key].(S)
	return v, ok
}

func setSlice[T any, S Scalar](s *Store, key string, vals []T, conv func(T) S) {
	if len(vals) == 0 {
		delete(s.m, key)
		return
	}
	elems := make([]Scalar, len(vals))
	for i, v := range vals {
		elems[i] = conv(v)
	}
	s.m[key] = List{kind: elems[0].Kind(), elems: elems}
}

func getSlice[S Scalar, T any](s *Store, key string, conv func(S) T) ([]T, bool) {
	l, ok := s.m[key].(List)
	if !ok || l.Len() == 0 {
		return nil, false
	}
	res := make([]T, l.Len())
	for i, e := range l.elems {
		v, ok := e.(S)
		if !ok {
			return nil, false
		}
		res[i] = conv(v)
	}
	return res, true
}

// String

func (s *Store) SetString(key string, v string) string {
	s.m[key] = String(v)
	return v
}

func (s *Store) SetStrings(key string, v []string) []string {
	setSlice(s, key, v, func(e string) String { return String(e) })
	return v
}

func (s *Store) GetString(key string) string {
	v, _ := getScalar[String](s, key)
	return string(v)
}

func (s *Store) GetStringOr(key string, def string) string {
	if v, ok := getScalar[String](s, key); ok {
		return string(v)
	}
	return def
}

func (s *Store) GetStrings(key string) []string {
	v, _ := getSlice(s, key, func(e String) string { return string(e) })
	return v
}

func (s *Store) GetStringsOr(key string, def []string) []string {
	if v, ok := getSlice(s, key, func(e String) string { return string(e) }); ok {
		return v
	}
	return def
}

// Char

func (s *Store) SetChar(key string, v rune) rune {
	s.m[key] = Char(v)
	return v
}

func (s *Store) SetChars(key string, v []rune) []rune {
	setSlice(s, key, v, func(e rune) Char { return Char(e) })
	return v
}

func (s *Store) GetChar(key string) rune {
	v, _ := getScalar[Char](s, key)
	return rune(v)
}

func (s *Store) GetCharOr(key string, def rune) rune {
	if v, ok := getScalar[Char](s, key); ok {
		return rune(v)
	}
	return def
}

func (s *Store) GetChars(key string) []rune {
	v, _ := getSlice(s, key, func(e Char) rune { return rune(e) })
	return v
}

func (s *Store) GetCharsOr(key string, def []rune) []rune {
	if v, ok := getSlice(s, key, func(e Char) rune { return rune(e) }); ok {
		return v
	}
	return def
}

// Bool

func (s *Store) SetBool(key string, v bool) bool {
	s.m[key] = Bool(v)
	return v
}

func (s *Store) SetBools(key string, v []bool) []bool {
	setSlice(s, key, v, func(e bool) Bool { return Bool(e) })
	return v
}

func (s *Store) GetBool(key string) bool {
	v, _ := getScalar[Bool](s, key)
	return bool(v)
}

func (s *Store) GetBoolOr(key string, def bool) bool {
	if v, ok := getScalar[Bool](s, key); ok {
		return bool(v)
	}
	return def
}

func (s *Store) GetBools(key string) []bool {
	v, _ := getSlice(s, key, func(e Bool) bool { return bool(e) })
	return v
}

func (s *Store) GetBoolsOr(key string, def []bool) []bool {
	if v, ok := getSlice(s, key, func(e Bool) bool { return bool(e) }); ok {
		return v
	}
	return def
}

// UUID

func (s *Store) SetUUID(key string, v uuid.UUID) uuid.UUID {
	s.m[key] = UUID(v)
	return v
}

func (s *Store) SetUUIDs(key string, v []uuid.UUID) []uuid.UUID {
	setSlice(s, key, v, func(e uuid.UUID) UUID { return UUID(e) })
	return v
}

func (s *Store) GetUUID(key string) uuid.UUID {
	v, _ := getScalar[UUID](s, key)
	return uuid.UUID(v)
}

func (s *Store) GetUUIDOr(key string, def uuid.UUID) uuid.UUID {
	if v, ok := getScalar[UUID](s, key); ok {
		return uuid.UUID(v)
	}
	return def
}

func (s *Store) GetUUIDs(key string) []uuid.UUID {
	v, _ := getSlice(s, key, func(e UUID) uuid.UUID { return uuid.UUID(e) })
	return v
}

func (s *Store) GetUUIDsOr(key string, def []uuid.UUID) []uuid.UUID {
	if v, ok := getSlice(s, key, func(e UUID) uuid.UUID { return uuid.UUID(e) }); ok {
		return v
	}
	return def
}

// Byte

func (s *Store) SetByte(key string, v int8) int8 {
	s.m[key] = Byte(v)
	return v
}

func (s *Store) SetBytes(key string, v []int8) []int8 {
	setSlice(s, key, v, func(e int8) Byte { return Byte(e) })
	return v
}

func (s *Store) GetByte(key string) int8 {
	v, _ := getScalar[Byte](s, key)
	return int8(v)
}

func (s *Store) GetByteOr(key string, def int8) int8 {
	if v, ok := getScalar[Byte](s, key); ok {
		return int8(v)
	}
	return def
}

func (s *Store) GetBytes(key string) []int8 {
	v, _ := getSlice(s, key, func(e Byte) int8 { return int8(e) })
	return v
}

func (s *Store) GetBytesOr(key string, def []int8) []int8 {
	if v, ok := getSlice(s, key, func(e Byte) int8 { return int8(e) }); ok {
		return v
	}
	return def
}

// Short

func (s *Store) SetShort(key string, v int16) int16 {
	s.m[key] = Short(v)
	return v
}

func (s *Store) SetShorts(key string, v []int16) []int16 {
	setSlice(s, key, v, func(e int16) Short { return Short(e) })
	return v
}

func (s *Store) GetShort(key string) int16 {
	v, _ := getScalar[Short](s, key)
	return int16(v)
}

func (s *Store) GetShortOr(key string, def int16) int16 {
	if v, ok := getScalar[Short](s, key); ok {
		return int16(v)
	}
	return def
}

func (s *Store) GetShorts(key string) []int16 {
	v, _ := getSlice(s, key, func(e Short) int16 { return int16(e) })
	return v
}

func (s *Store) GetShortsOr(key string, def []int16) []int16 {
	if v, ok := getSlice(s, key, func(e Short) int16 { return int16(e) }); ok {
		return v
	}
	return def
}

// Int

func (s *Store) SetInt(key string, v int32) int32 {
	s.m[key] = Int(v)
	return v
}

func (s *Store) SetInts(key string, v []int32) []int32 {
	setSlice(s, key, v, func(e int32) Int { return Int(e) })
	return v
}

func (s *Store) GetInt(key string) int32 {
	v, _ := getScalar[Int](s, key)
	return int32(v)
}

func (s *Store) GetIntOr(key string, def int32) int32 {
	if v, ok := getScalar[Int](s, key); ok {
		return int32(v)
	}
	return def
}

func (s *Store) GetInts(key string) []int32 {
	v, _ := getSlice(s, key, func(e Int) int32 { return int32(e) })
	return v
}

func (s *Store) GetIntsOr(key string, def []int32) []int32 {
	if v, ok := getSlice(s, key, func(e Int) int32 { return int32(e) }); ok {
		return v
	}
	return def
}

// Long

func (s *Store) SetLong(key string, v int64) int64 {
	s.m[key] = Long(v)
	return v
}

func (s *Store) SetLongs(key string, v []int64) []int64 {
	setSlice(s, key, v, func(e int64) Long { return Long(e) })
	return v
}

func (s *Store) GetLong(key string) int64 {
	v, _ := getScalar[Long](s, key)
	return int64(v)
}

func (s *Store) GetLongOr(key string, def int64) int64 {
	if v, ok := getScalar[Long](s, key); ok {
		return int64(v)
	}
	return def
}

func (s *Store) GetLongs(key string) []int64 {
	v, _ := getSlice(s, key, func(e Long) int64 { return int64(e) })
	return v
}

func (s *Store) GetLongsOr(key string, def []int64) []int64 {
	if v, ok := getSlice(s, key, func(e Long) int64 { return int64(e) }); ok {
		return v
	}
	return def
}

// Float

func (s *Store) SetFloat(key string, v float32) float32 {
	s.m[key] = Float(v)
	return v
}

func (s *Store) SetFloats(key string, v []float32) []float32 {
	setSlice(s, key, v, func(e float32) Float { return Float(e) })
	return v
}

func (s *Store) GetFloat(key string) float32 {
	v, _ := getScalar[Float](s, key)
	return float32(v)
}

func (s *Store) GetFloatOr(key string, def float32) float32 {
	if v, ok := getScalar[Float](s, key); ok {
		return float32(v)
	}
	return def
}

func (s *Store) GetFloats(key string) []float32 {
	v, _ := getSlice(s, key, func(e Float) float32 { return float32(e) })
	return v
}

func (s *Store) GetFloatsOr(key string, def []float32) []float32 {
	if v, ok := getSlice(s, key, func(e Float) float32 { return float32(e) }); ok {
		return v
	}
	return def
}

// Double

func (s *Store) SetDouble(key string, v float64) float64 {
	s.m[key] = Double(v)
	return v
}

func (s *Store) SetDoubles(key string, v []float64) []float64 {
	setSlice(s, key, v, func(e float64) Double { return Double(e) })
	return v
}

func (s *Store) GetDouble(key string) float64 {
	v, _ := getScalar[Double](s, key)
	return float64(v)
}

func (s *Store) GetDoubleOr(key string, def float64) float64 {
	if v, ok := getScalar[Double](s, key); ok {
		return float64(v)
	}
	return def
}

func (s *Store) GetDoubles(key string) []float64 {
	v, _ := getSlice(s, key, func(e Double) float64 { return float64(e) })
	return v
}

func (s *Store) GetDoublesOr(key string, def []float64) []float64 {
	if v, ok := getSlice(s, key, func(e Double) float64 { return float64(e) }); ok {
		return v
	}
	return def
}
