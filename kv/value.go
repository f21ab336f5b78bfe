package kv

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Kind identifies one of the scalar kinds a Value can hold
type Kind uint8

const (
	KindString Kind = iota
	KindChar
	KindBool
	KindUUID
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble

	numKinds
)

var kindNames = [numKinds]string{
	KindString: "String",
	KindChar:   "Character",
	KindBool:   "Boolean",
	KindUUID:   "UUID",
	KindByte:   "Byte",
	KindShort:  "Short",
	KindInt:    "Integer",
	KindLong:   "Long",
	KindFloat:  "Float",
	KindDouble: "Double",
}

// type tags used by the .mcufs format. lower case is reserved for
// non-numeric kinds, numeric kinds use the upper-case first letter
// of the kind name
var kindTags = [numKinds]byte{
	KindString: 's',
	KindChar:   'c',
	KindBool:   'b',
	KindUUID:   'u',
	KindByte:   'B',
	KindShort:  'S',
	KindInt:    'I',
	KindLong:   'L',
	KindFloat:  'F',
	KindDouble: 'D',
}

// Kinds returns all scalar kinds in tag table order
func Kinds() []Kind {
	res := make([]Kind, numKinds)
	for i := range res {
		res[i] = Kind(i)
	}
	return res
}

func (k Kind) Valid() bool {
	return k < numKinds
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Tag returns the single character identifying k on disk, 0 for invalid kinds
func (k Kind) Tag() byte {
	if !k.Valid() {
		return 0
	}
	return kindTags[k]
}

// KindFromTag is the inverse of Kind.Tag
func KindFromTag(tag byte) (Kind, bool) {
	for k, t := range kindTags {
		if t == tag {
			return Kind(k), true
		}
	}
	return 0, false
}

// ParseKind accepts a kind name ("Integer", "int", "uuid", case-insensitive)
// or a single-character type tag ("I")
func ParseKind(s string) (Kind, error) {
	if len(s) == 1 {
		if k, ok := KindFromTag(s[0]); ok {
			return k, nil
		}
	}
	switch strings.ToLower(s) {
	case "string", "str":
		return KindString, nil
	case "character", "char", "rune":
		return KindChar, nil
	case "boolean", "bool":
		return KindBool, nil
	case "uuid":
		return KindUUID, nil
	case "byte", "int8":
		return KindByte, nil
	case "short", "int16":
		return KindShort, nil
	case "integer", "int", "int32":
		return KindInt, nil
	case "long", "int64":
		return KindLong, nil
	case "float", "float32":
		return KindFloat, nil
	case "double", "float64":
		return KindDouble, nil
	}
	return 0, fmt.Errorf("unknown kind '%s'", s)
}

// Value is a value that can be stored in a Store: one of the scalar
// types below or a List of them. The set of implementations is closed.
type Value interface {
	// Kind returns the scalar kind, for a List the kind of its elements
	Kind() Kind
	isValue()
}

// Scalar is a Value that is not a List
type Scalar interface {
	Value
	isScalar()
}

type (
	String string
	Char   rune
	Bool   bool
	UUID   uuid.UUID
	Byte   int8
	Short  int16
	Int    int32
	Long   int64
	Float  float32
	Double float64
)

func (String) Kind() Kind { return KindString }
func (Char) Kind() Kind   { return KindChar }
func (Bool) Kind() Kind   { return KindBool }
func (UUID) Kind() Kind   { return KindUUID }
func (Byte) Kind() Kind   { return KindByte }
func (Short) Kind() Kind  { return KindShort }
func (Int) Kind() Kind    { return KindInt }
func (Long) Kind() Kind   { return KindLong }
func (Float) Kind() Kind  { return KindFloat }
func (Double) Kind() Kind { return KindDouble }

func (String) isValue() {}
func (Char) isValue()   {}
func (Bool) isValue()   {}
func (UUID) isValue()   {}
func (Byte) isValue()   {}
func (Short) isValue()  {}
func (Int) isValue()    {}
func (Long) isValue()   {}
func (Float) isValue()  {}
func (Double) isValue() {}
func (List) isValue()   {}

func (String) isScalar() {}
func (Char) isScalar()   {}
func (Bool) isScalar()   {}
func (UUID) isScalar()   {}
func (Byte) isScalar()   {}
func (Short) isScalar()  {}
func (Int) isScalar()    {}
func (Long) isScalar()   {}
func (Float) isScalar()  {}
func (Double) isScalar() {}

func (c Char) String() string {
	return string(rune(c))
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

var (
	// ErrEmptyList is returned when building a List without elements
	ErrEmptyList = errors.New("list has no elements")
)

// MixedListError is returned when elements of a list are of different kinds
type MixedListError struct {
	Index int
	Want  Kind
	Got   Kind
}

func (e *MixedListError) Error() string {
	return fmt.Sprintf("list element %d is %s, expected %s like the first element", e.Index, e.Got, e.Want)
}

// List is a non-empty, ordered sequence of scalars of the same kind.
// The zero List has no elements and is treated as absent by Store.Set.
type List struct {
	kind  Kind
	elems []Scalar
}

// NewList builds a list from elems, which must all be of the same kind.
// elems is used as-is, without copying.
func NewList(elems ...Scalar) (List, error) {
	if len(elems) == 0 {
		return List{}, ErrEmptyList
	}
	kind := elems[0].Kind()
	for i, e := range elems[1:] {
		if e.Kind() != kind {
			return List{}, &MixedListError{Index: i + 1, Want: kind, Got: e.Kind()}
		}
	}
	return List{kind: kind, elems: elems}, nil
}

// Collect materializes seq into a List
func Collect(seq iter.Seq[Scalar]) (List, error) {
	var elems []Scalar
	for v := range seq {
		elems = append(elems, v)
	}
	return NewList(elems...)
}

// Kind returns the kind of the elements
func (l List) Kind() Kind {
	return l.kind
}

func (l List) Len() int {
	return len(l.elems)
}

func (l List) At(i int) Scalar {
	return l.elems[i]
}

// Elems returns the underlying slice, callers must not modify it
func (l List) Elems() []Scalar {
	return l.elems
}

func (l List) All() iter.Seq2[int, Scalar] {
	return func(yield func(int, Scalar) bool) {
		for i, e := range l.elems {
			if !yield(i, e) {
				return
			}
		}
	}
}

func (l List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range l.elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v", e)
	}
	sb.WriteByte(']')
	return sb.String()
}

// IsList returns true if v is a List
func IsList(v Value) bool {
	_, ok := v.(List)
	return ok
}

// Equal reports whether a and b hold the same kind and the same value.
// Floating point values are compared by bit pattern, so NaN equals NaN
// and 0.0 doesn't equal -0.0.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok || av.kind != bv.kind || len(av.elems) != len(bv.elems) {
			return false
		}
		for i := range av.elems {
			if !Equal(av.elems[i], bv.elems[i]) {
				return false
			}
		}
		return true
	case Float:
		bv, ok := b.(Float)
		return ok && math.Float32bits(float32(av)) == math.Float32bits(float32(bv))
	case Double:
		bv, ok := b.(Double)
		return ok && math.Float64bits(float64(av)) == math.Float64bits(float64(bv))
	}
	if IsList(b) {
		return false
	}
	return a == b
}
