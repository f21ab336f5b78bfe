// Package kv implements an in-memory store of typed values.
//
// Keys are strings. A value is one of ten scalar kinds (String, Char,
// Bool, UUID, Byte, Short, Int, Long, Float, Double) or a List of
// scalars that are all of the same kind.
//
// Lookups match the kind exactly, there's no widening or conversion:
//
//	s := kv.New()
//	s.SetInt("volume", 7)
//	s.GetIntOr("volume", 0)  // 7
//	s.GetLongOr("volume", -1) // -1, an Int is not a Long
//
// Setting a key to nil or to an empty list removes it.
//
// The store has no knowledge of files, see package flatfile for
// persisting it.
package kv
