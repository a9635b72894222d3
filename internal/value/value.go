// Package value defines the single first-class datum of the language: a
// byte string with an optional cached numeric reading.
package value

import (
	"strconv"
	"strings"
)

// Value is semantically a byte string. It carries an optional cached
// numeric interpretation, computed lazily and discarded whenever a new
// Value replaces it (there is no in-place mutation: SET, INCR and APPEND
// all produce a fresh Value rather than editing one in place).
type Value struct {
	text    string
	num     float64
	numOK   bool
	numDone bool
}

// Empty is the zero Value: the empty string.
var Empty = Value{}

// New wraps a raw string as a Value.
func New(s string) Value {
	return Value{text: s}
}

// NewInt formats an integer as a Value, caching its numeric reading.
func NewInt(n int64) Value {
	return Value{text: strconv.FormatInt(n, 10), num: float64(n), numOK: true, numDone: true}
}

// NewFloat formats a float as a Value: integral values print with no
// decimals, otherwise 15 significant digits.
func NewFloat(f float64) Value {
	return Value{text: FormatFloat(f), num: f, numOK: true, numDone: true}
}

// NewBool renders a boolean using the language's "0"/"1" convention.
func NewBool(b bool) Value {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

// FormatFloat renders a float: integral values with no decimals, otherwise
// 15 significant digits.
func FormatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'g', 15, 64)
}

// String returns the underlying text.
func (v Value) String() string {
	return v.text
}

// Float returns the value's numeric reading and whether the text parses as
// a number. The reading is cached on the Value it was computed from; since
// Value is handled by copy, callers that want the cache to stick across
// repeated reads should keep reusing the same Value rather than New()-ing
// a fresh one each time.
func (v *Value) Float() (float64, bool) {
	if v.numDone {
		return v.num, v.numOK
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	v.numDone = true
	v.numOK = err == nil
	v.num = f
	return v.num, v.numOK
}

// Int truncates the numeric reading toward zero.
func (v *Value) Int() (int64, bool) {
	f, ok := v.Float()
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Bool applies the language's "any non-zero numeric value is true"
// convention; a value that isn't numeric at all is true iff it is
// non-empty (so bare string conditions behave sensibly).
func (v *Value) Bool() bool {
	f, ok := v.Float()
	if ok {
		return f != 0
	}
	return v.text != ""
}

// IsEmpty reports whether the value is the empty string.
func (v Value) IsEmpty() bool {
	return v.text == ""
}
