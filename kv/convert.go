package kv

import "time"

// conversion accessors store a type that isn't a Kind by converting it
// to one. time.Time is stored as Long milliseconds since Unix epoch,
// []byte as a list of Byte.

func (s *Store) SetTime(key string, t time.Time) time.Time {
	s.SetLong(key, t.UnixMilli())
	return t
}

// GetTime returns zero time.Time if there's no Long value for key
func (s *Store) GetTime(key string) time.Time {
	return s.GetTimeOr(key, time.Time{})
}

func (s *Store) GetTimeOr(key string, def time.Time) time.Time {
	ms, ok := getScalar[Long](s, key)
	if !ok {
		return def
	}
	return time.UnixMilli(int64(ms))
}

func (s *Store) SetTimes(key string, v []time.Time) []time.Time {
	setSlice(s, key, v, func(t time.Time) Long { return Long(t.UnixMilli()) })
	return v
}

func (s *Store) GetTimes(key string) []time.Time {
	return s.GetTimesOr(key, nil)
}

func (s *Store) GetTimesOr(key string, def []time.Time) []time.Time {
	if v, ok := getSlice(s, key, func(ms Long) time.Time { return time.UnixMilli(int64(ms)) }); ok {
		return v
	}
	return def
}

// SetByteSlice stores d as a list of (signed) Byte
func (s *Store) SetByteSlice(key string, d []byte) []byte {
	setSlice(s, key, d, func(b byte) Byte { return Byte(int8(b)) })
	return d
}

func (s *Store) GetByteSlice(key string) []byte {
	v, _ := getSlice(s, key, func(b Byte) byte { return byte(b) })
	return v
}
