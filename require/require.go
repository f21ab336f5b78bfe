package require

import "github.com/kjk/flatstore/assert"

// require functions are like the ones in package assert
// but stop the test with t.FailNow() on failure

// TestingT is an interface wrapper around *testing.T
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
}

type tHelper interface {
	Helper()
}

func check(t TestingT, ok bool) {
	if h, isHelper := t.(tHelper); isHelper {
		h.Helper()
	}
	if !ok {
		t.FailNow()
	}
}

// NoError stops the test if err is not nil.
//
//	f, err := flatfile.Open(path)
//	require.NoError(t, err)
func NoError(t TestingT, err error, msgAndArgs ...interface{}) {
	check(t, assert.NoError(t, err, msgAndArgs...))
}

// Error stops the test if err is nil.
func Error(t TestingT, err error, msgAndArgs ...interface{}) {
	check(t, assert.Error(t, err, msgAndArgs...))
}

// ErrorIs stops the test if target is not in err's chain.
func ErrorIs(t TestingT, err, target error, msgAndArgs ...interface{}) {
	check(t, assert.ErrorIs(t, err, target, msgAndArgs...))
}

func Nil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	check(t, assert.Nil(t, object, msgAndArgs...))
}

func NotNil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	check(t, assert.NotNil(t, object, msgAndArgs...))
}

// Equal stops the test if expected and actual are not equal.
//
//	require.Equal(t, 7, f.GetIntOr("volume", 0))
func Equal(t TestingT, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	check(t, assert.Equal(t, expected, actual, msgAndArgs...))
}

func True(t TestingT, value bool, msgAndArgs ...interface{}) {
	check(t, assert.True(t, value, msgAndArgs...))
}

func False(t TestingT, value bool, msgAndArgs ...interface{}) {
	check(t, assert.False(t, value, msgAndArgs...))
}

// Len stops the test if object doesn't have the given length.
func Len(t TestingT, object interface{}, length int, msgAndArgs ...interface{}) {
	check(t, assert.Len(t, object, length, msgAndArgs...))
}

func NotEmpty(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	check(t, assert.NotEmpty(t, object, msgAndArgs...))
}
