package assert

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

// this is a subset of github.com/stretchr/testify/assert
// with only the functions I use

// TestingT is an interface wrapper around *testing.T
type TestingT interface {
	Errorf(format string, args ...interface{})
}

type tHelper interface {
	Helper()
}

func helper(t TestingT) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
}

var spewConfig = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func messageFromMsgAndArgs(msgAndArgs ...interface{}) string {
	if len(msgAndArgs) == 0 || msgAndArgs == nil {
		return ""
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%+v", msgAndArgs[0])
	}
	if s, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(s, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%+v", msgAndArgs)
}

func callerInfo() string {
	// skip callerInfo, Fail and the assertion function
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return ""
	}
	parts := strings.Split(file, "/")
	return fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
}

// Fail reports a failure through t
func Fail(t TestingT, failureMessage string, msgAndArgs ...interface{}) bool {
	helper(t)
	var sb strings.Builder
	if loc := callerInfo(); loc != "" {
		sb.WriteString("\n\tLocation:\t" + loc)
	}
	sb.WriteString("\n\tError:\t\t" + indentLines(failureMessage))
	if msg := messageFromMsgAndArgs(msgAndArgs...); msg != "" {
		sb.WriteString("\n\tMessages:\t" + msg)
	}
	t.Errorf("%s\n", sb.String())
	return false
}

func indentLines(s string) string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(s))
	first := true
	for sc.Scan() {
		if first {
			out = append(out, sc.Text())
			first = false
			continue
		}
		out = append(out, "\t\t\t"+sc.Text())
	}
	return strings.Join(out, "\n")
}

// ObjectsAreEqual determines if two objects are considered equal.
// []byte are compared with bytes.Equal, everything else with reflect.DeepEqual
func ObjectsAreEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	exp, ok := expected.([]byte)
	if !ok {
		return reflect.DeepEqual(expected, actual)
	}
	act, ok := actual.([]byte)
	if !ok {
		return false
	}
	if exp == nil || act == nil {
		return exp == nil && act == nil
	}
	return bytes.Equal(exp, act)
}

// diff returns a unified diff of spew-formatted values if they are
// of the same, non-trivial type
func diff(expected interface{}, actual interface{}) string {
	if expected == nil || actual == nil {
		return ""
	}
	et := reflect.TypeOf(expected)
	if et != reflect.TypeOf(actual) {
		return ""
	}
	switch et.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.String:
	default:
		return ""
	}
	var e, a string
	if et.Kind() == reflect.String {
		e = reflect.ValueOf(expected).String()
		a = reflect.ValueOf(actual).String()
	} else {
		e = spewConfig.Sdump(expected)
		a = spewConfig.Sdump(actual)
	}
	d, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(e),
		B:        difflib.SplitLines(a),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	if d == "" {
		return ""
	}
	return "\n\nDiff:\n" + d
}

func formatUnequal(expected, actual interface{}) (string, string) {
	if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		return fmt.Sprintf("%T(%s)", expected, spewConfig.Sprintf("%#v", expected)),
			fmt.Sprintf("%T(%s)", actual, spewConfig.Sprintf("%#v", actual))
	}
	return spewConfig.Sprintf("%#v", expected), spewConfig.Sprintf("%#v", actual)
}

// Equal asserts that two objects are equal.
//
//	assert.Equal(t, 123, 123)
func Equal(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) bool {
	helper(t)
	if ObjectsAreEqual(expected, actual) {
		return true
	}
	e, a := formatUnequal(expected, actual)
	msg := fmt.Sprintf("Not equal: \nexpected: %s\nactual  : %s%s", e, a, diff(expected, actual))
	return Fail(t, msg, msgAndArgs...)
}

// NotEqual asserts that the specified values are NOT equal.
func NotEqual(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) bool {
	helper(t)
	if !ObjectsAreEqual(expected, actual) {
		return true
	}
	return Fail(t, fmt.Sprintf("Should not be: %#v\n", actual), msgAndArgs...)
}

// True asserts that the specified value is true.
func True(t TestingT, value bool, msgAndArgs ...interface{}) bool {
	helper(t)
	if value {
		return true
	}
	return Fail(t, "Should be true", msgAndArgs...)
}

// False asserts that the specified value is false.
func False(t TestingT, value bool, msgAndArgs ...interface{}) bool {
	helper(t)
	if !value {
		return true
	}
	return Fail(t, "Should be false", msgAndArgs...)
}

func isNil(object interface{}) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// Nil asserts that the specified object is nil.
func Nil(t TestingT, object interface{}, msgAndArgs ...interface{}) bool {
	helper(t)
	if isNil(object) {
		return true
	}
	return Fail(t, "Expected nil, but got: "+spewConfig.Sprintf("%#v", object), msgAndArgs...)
}

// NotNil asserts that the specified object is not nil.
func NotNil(t TestingT, object interface{}, msgAndArgs ...interface{}) bool {
	helper(t)
	if !isNil(object) {
		return true
	}
	return Fail(t, "Expected value not to be nil.", msgAndArgs...)
}

// NoError asserts that a function returned no error (i.e. `nil`).
func NoError(t TestingT, err error, msgAndArgs ...interface{}) bool {
	helper(t)
	if err == nil {
		return true
	}
	return Fail(t, fmt.Sprintf("Received unexpected error:\n%+v", err), msgAndArgs...)
}

// Error asserts that a function returned an error (i.e. not `nil`).
func Error(t TestingT, err error, msgAndArgs ...interface{}) bool {
	helper(t)
	if err != nil {
		return true
	}
	return Fail(t, "An error is expected but got nil.", msgAndArgs...)
}

// ErrorIs asserts that at least one of the errors in err's chain matches target.
func ErrorIs(t TestingT, err, target error, msgAndArgs ...interface{}) bool {
	helper(t)
	if errors.Is(err, target) {
		return true
	}
	msg := fmt.Sprintf("Target error should be in err chain:\nexpected: %q\nin chain: %v", target, err)
	return Fail(t, msg, msgAndArgs...)
}

func getLen(x interface{}) (n int, ok bool) {
	v := reflect.ValueOf(x)
	defer func() {
		if e := recover(); e != nil {
			ok = false
		}
	}()
	return v.Len(), true
}

// Len asserts that the specified object has specific length.
// Len also fails if the object has a type that len() not accept.
func Len(t TestingT, object interface{}, length int, msgAndArgs ...interface{}) bool {
	helper(t)
	n, ok := getLen(object)
	if !ok {
		return Fail(t, fmt.Sprintf("\"%v\" could not be applied builtin len()", object), msgAndArgs...)
	}
	if n != length {
		return Fail(t, fmt.Sprintf("\"%v\" should have %d item(s), but has %d", object, length, n), msgAndArgs...)
	}
	return true
}

func isEmpty(object interface{}) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Chan, reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return v.Len() == 0
	case reflect.Pointer:
		if v.IsNil() {
			return true
		}
		return isEmpty(v.Elem().Interface())
	}
	return reflect.DeepEqual(object, reflect.Zero(v.Type()).Interface())
}

// Empty asserts that the specified object is empty. I.e. nil, "", false, 0 or
// either a slice or a channel with len == 0.
func Empty(t TestingT, object interface{}, msgAndArgs ...interface{}) bool {
	helper(t)
	if isEmpty(object) {
		return true
	}
	return Fail(t, fmt.Sprintf("Should be empty, but was %v", object), msgAndArgs...)
}

// NotEmpty asserts that the specified object is NOT empty.
func NotEmpty(t TestingT, object interface{}, msgAndArgs ...interface{}) bool {
	helper(t)
	if !isEmpty(object) {
		return true
	}
	return Fail(t, fmt.Sprintf("Should NOT be empty, but was %v", object), msgAndArgs...)
}

// Contains asserts that the specified string contains the specified substring
// or that a slice contains an element
//
//	assert.Contains(t, "Hello World", "World")
//	assert.Contains(t, []string{"Hello", "World"}, "World")
func Contains(t TestingT, s, contains interface{}, msgAndArgs ...interface{}) bool {
	helper(t)
	found := false
	sv := reflect.ValueOf(s)
	switch sv.Kind() {
	case reflect.String:
		cs, ok := contains.(string)
		found = ok && strings.Contains(sv.String(), cs)
	case reflect.Slice, reflect.Array:
		for i := 0; i < sv.Len(); i++ {
			if ObjectsAreEqual(sv.Index(i).Interface(), contains) {
				found = true
				break
			}
		}
	default:
		return Fail(t, fmt.Sprintf("%#v could not be applied builtin len()", s), msgAndArgs...)
	}
	if !found {
		return Fail(t, fmt.Sprintf("%#v does not contain %#v", s, contains), msgAndArgs...)
	}
	return true
}

// NotContains asserts that the specified string or slice does NOT contain
// the specified substring or element.
func NotContains(t TestingT, s, contains interface{}, msgAndArgs ...interface{}) bool {
	helper(t)
	sv := reflect.ValueOf(s)
	switch sv.Kind() {
	case reflect.String:
		if cs, ok := contains.(string); ok && strings.Contains(sv.String(), cs) {
			return Fail(t, fmt.Sprintf("%#v should not contain %#v", s, contains), msgAndArgs...)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < sv.Len(); i++ {
			if ObjectsAreEqual(sv.Index(i).Interface(), contains) {
				return Fail(t, fmt.Sprintf("%#v should not contain %#v", s, contains), msgAndArgs...)
			}
		}
	}
	return true
}
