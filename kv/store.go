package kv

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Store is an in-memory map from string keys to typed values.
// It's not safe for concurrent use.
type Store struct {
	m map[string]Value
}

func New() *Store {
	return &Store{
		m: map[string]Value{},
	}
}

// Set stores v under key and returns v.
// A nil v or an empty List removes the key.
func (s *Store) Set(key string, v Value) Value {
	if v == nil {
		delete(s.m, key)
		return v
	}
	if l, ok := v.(List); ok && l.Len() == 0 {
		delete(s.m, key)
		return v
	}
	s.m[key] = v
	return v
}

// SetList stores elems as a List under key. No elements removes the key.
// If elems are of mixed kinds the store is not modified.
func (s *Store) SetList(key string, elems ...Scalar) error {
	if len(elems) == 0 {
		delete(s.m, key)
		return nil
	}
	l, err := NewList(elems...)
	if err != nil {
		return err
	}
	s.m[key] = l
	return nil
}

// SetSeq is like SetList but materializes elements from seq
func (s *Store) SetSeq(key string, seq iter.Seq[Scalar]) error {
	return s.SetList(key, slices.Collect(seq)...)
}

// Value returns the raw value for key
func (s *Store) Value(key string) (Value, bool) {
	v, ok := s.m[key]
	return v, ok
}

// Get returns a scalar of exactly kind stored under key. It never
// converts between kinds and never returns a List.
func (s *Store) Get(key string, kind Kind) (Value, bool) {
	v, ok := s.m[key]
	if !ok || IsList(v) || v.Kind() != kind {
		return nil, false
	}
	return v, true
}

// GetOr is like Get but returns def if there's no matching value
func (s *Store) GetOr(key string, kind Kind, def Value) Value {
	if v, ok := s.Get(key, kind); ok {
		return v
	}
	return def
}

// GetList returns a List whose elements are of exactly kind
func (s *Store) GetList(key string, kind Kind) (List, bool) {
	l, ok := s.m[key].(List)
	if !ok || l.Kind() != kind {
		return List{}, false
	}
	return l, true
}

// Keys returns a sorted copy of all keys
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(s.m))
}

// KeysFunc returns sorted keys for which filter returns true
func (s *Store) KeysFunc(filter func(key string) bool) []string {
	var res []string
	for k := range s.m {
		if filter(k) {
			res = append(res, k)
		}
	}
	slices.Sort(res)
	return res
}

// Has returns true if all keys are present
func (s *Store) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := s.m[k]; !ok {
			return false
		}
	}
	return true
}

func (s *Store) Remove(keys ...string) *Store {
	for _, k := range keys {
		delete(s.m, k)
	}
	return s
}

func (s *Store) Clear() *Store {
	clear(s.m)
	return s
}

func (s *Store) Len() int {
	return len(s.m)
}

// Map returns a shallow copy of the underlying map
func (s *Store) Map() map[string]Value {
	return maps.Clone(s.m)
}

// All iterates over entries in sorted key order
func (s *Store) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range s.Keys() {
			v, ok := s.m[k]
			if !ok {
				// removed during iteration
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Equal returns true if both stores hold the same keys with equal values
func (s *Store) Equal(other *Store) bool {
	if s == nil || other == nil {
		return s == other
	}
	return maps.EqualFunc(s.m, other.m, Equal)
}

func (s *Store) String() string {
	var sb strings.Builder
	sb.WriteString("Store{")
	i := 0
	for k, v := range s.All() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", k, v)
		i++
	}
	sb.WriteByte('}')
	return sb.String()
}
