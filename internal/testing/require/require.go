// Package require is the small assertion surface the interpreter tests use.
// It keeps test call sites in the house style (require.Equal, require.Zero,
// require.CapturePanic) while delegating the equality, nil and emptiness
// checks to testify; failure messages are formatted here. Assertions fail the test immediately via t.Fatal semantics, so
// a broken invariant doesn't cascade into dozens of follow-on failures.
package require

import (
	"fmt"

	"github.com/stretchr/testify/assert"
)

// TestingT is the subset of *testing.T these helpers need.
type TestingT interface {
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Helper()
}

func fail(t TestingT, msg string, formatWithArgs ...interface{}) {
	t.Helper()
	if len(formatWithArgs) > 0 {
		msg = msg + ": " + fmt.Sprintf(formatWithArgs[0].(string), formatWithArgs[1:]...)
	}
	t.Fatal(msg)
}

// Equal fails unless expected and actual are deeply equal.
func Equal(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	t.Helper()
	if assert.ObjectsAreEqual(expected, actual) {
		return
	}
	fail(t, fmt.Sprintf("expected %#v, but was %#v", expected, actual), formatWithArgs...)
}

// NotEqual fails if expected and actual are deeply equal.
func NotEqual(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	t.Helper()
	if !assert.ObjectsAreEqual(expected, actual) {
		return
	}
	fail(t, fmt.Sprintf("expected %#v to differ, but it didn't", expected), formatWithArgs...)
}

// True fails unless the condition holds.
func True(t TestingT, cond bool, formatWithArgs ...interface{}) {
	t.Helper()
	if cond {
		return
	}
	fail(t, "expected true, but was false", formatWithArgs...)
}

// False fails if the condition holds.
func False(t TestingT, cond bool, formatWithArgs ...interface{}) {
	t.Helper()
	if !cond {
		return
	}
	fail(t, "expected false, but was true", formatWithArgs...)
}

// Nil fails unless v is nil (typed or untyped).
func Nil(t TestingT, v interface{}, formatWithArgs ...interface{}) {
	t.Helper()
	if isNil(v) {
		return
	}
	fail(t, fmt.Sprintf("expected nil, but was %#v", v), formatWithArgs...)
}

// NotNil fails if v is nil.
func NotNil(t TestingT, v interface{}, formatWithArgs ...interface{}) {
	t.Helper()
	if !isNil(v) {
		return
	}
	fail(t, "expected non-nil, but was nil", formatWithArgs...)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	// assert.Nil handles typed-nil pointers/slices/maps hiding in an
	// interface; reuse its check without its reporting.
	rec := &silentT{}
	return assert.Nil(rec, v)
}

// silentT swallows testify's failure reporting so isNil can use assert's
// reflection without writing to the real test.
type silentT struct{}

func (*silentT) Errorf(string, ...interface{}) {}

// NoError fails if err is non-nil.
func NoError(t TestingT, err error, formatWithArgs ...interface{}) {
	t.Helper()
	if err == nil {
		return
	}
	fail(t, fmt.Sprintf("expected no error, but was %v", err), formatWithArgs...)
}

// Error fails unless err is non-nil.
func Error(t TestingT, err error, formatWithArgs ...interface{}) {
	t.Helper()
	if err != nil {
		return
	}
	fail(t, "expected an error, but was nil", formatWithArgs...)
}

// EqualError fails unless err is non-nil and its message equals expected.
func EqualError(t TestingT, err error, expected string, formatWithArgs ...interface{}) {
	t.Helper()
	if err == nil {
		fail(t, "expected an error, but was nil", formatWithArgs...)
		return
	}
	if err.Error() == expected {
		return
	}
	fail(t, fmt.Sprintf("expected error %q, but was %q", expected, err.Error()), formatWithArgs...)
}

// Zero fails unless v is empty by assert.Empty's rules: its type's zero
// value, an empty slice/map/channel, or a pointer to an empty value.
func Zero(t TestingT, v interface{}, formatWithArgs ...interface{}) {
	t.Helper()
	rec := &silentT{}
	if assert.Empty(rec, v) {
		return
	}
	fail(t, fmt.Sprintf("expected zero, but was %#v", v), formatWithArgs...)
}

// CapturePanic runs f and returns the error it panicked with, or nil if it
// returned normally. Panics with a non-error value are wrapped.
func CapturePanic(f func()) (captured error) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				captured = err
				return
			}
			captured = fmt.Errorf("%v", r)
		}
	}()
	f()
	return
}
