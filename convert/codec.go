package convert

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/EchidnaHQ/robusta/jni"
)

// The codec comes in two families. The Try* functions are the fallible
// family used by safe entry points: a conversion that cannot represent its
// input returns an error, which the generated code surfaces as a thrown
// Java exception. The remaining functions are the infallible family used by
// unchecked entry points: the same failures are fatal defects and panic.

// ErrMalformedUTF8 reports host string data that is not valid UTF-8.
var ErrMalformedUTF8 = errors.New("convert: malformed UTF-8 in host string")

// ErrMalformedUTF16 reports an unpaired surrogate in incoming string data.
var ErrMalformedUTF16 = errors.New("convert: unpaired surrogate in UTF-16 data")

// ---------------------------------------------------------------------------
// Booleans
// ---------------------------------------------------------------------------

// BoolIntoJava maps a host bool onto the two-valued jboolean domain.
func BoolIntoJava(_ *jni.Env, b bool) jni.Jboolean {
	if b {
		return jni.JNITrue
	}
	return jni.JNIFalse
}

// BoolFromJava maps a jboolean back to a host bool. Any value other than
// JNITrue is false.
func BoolFromJava(_ *jni.Env, z jni.Jboolean) bool {
	return z == jni.JNITrue
}

// TryBoolIntoJava is the fallible-family spelling; the conversion itself
// cannot fail.
func TryBoolIntoJava(env *jni.Env, b bool) (jni.Jboolean, error) {
	return BoolIntoJava(env, b), nil
}

// TryBoolFromJava is the fallible-family spelling; the conversion itself
// cannot fail.
func TryBoolFromJava(env *jni.Env, z jni.Jboolean) (bool, error) {
	return BoolFromJava(env, z), nil
}

// ---------------------------------------------------------------------------
// Characters
// ---------------------------------------------------------------------------

// TryCharIntoJava converts a host rune to one UTF-16 code unit. Runes
// outside the basic multilingual plane need a surrogate pair and cannot be
// represented as a single jchar.
func TryCharIntoJava(_ *jni.Env, r rune) (jni.Jchar, error) {
	if r > 0xFFFF || utf16.IsSurrogate(r) {
		return 0, fmt.Errorf("convert: rune %U does not fit one UTF-16 code unit", r)
	}
	return jni.Jchar(r), nil
}

// CharIntoJava converts a host rune to one UTF-16 code unit, panicking when
// the rune needs a surrogate pair.
func CharIntoJava(env *jni.Env, r rune) jni.Jchar {
	c, err := TryCharIntoJava(env, r)
	if err != nil {
		panic(err)
	}
	return c
}

// TryCharFromJava converts one UTF-16 code unit back to a rune. A lone
// surrogate unit is malformed.
func TryCharFromJava(_ *jni.Env, c jni.Jchar) (rune, error) {
	r := rune(c)
	if utf16.IsSurrogate(r) {
		return 0, fmt.Errorf("%w: %#04x", ErrMalformedUTF16, c)
	}
	return r, nil
}

// CharFromJava converts one UTF-16 code unit back to a rune, panicking on a
// lone surrogate.
func CharFromJava(env *jni.Env, c jni.Jchar) rune {
	r, err := TryCharFromJava(env, c)
	if err != nil {
		panic(err)
	}
	return r
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

// encodeUTF16 converts a host string to UTF-16 code units, producing
// surrogate pairs for runes outside the basic multilingual plane. Invalid
// UTF-8 is an error, never silently replaced or truncated.
func encodeUTF16(s string) ([]uint16, error) {
	units := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return nil, fmt.Errorf("%w at byte %d", ErrMalformedUTF8, i)
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			units = append(units, uint16(hi), uint16(lo))
		} else {
			units = append(units, uint16(r))
		}
		i += size
	}
	return units, nil
}

// decodeUTF16 converts UTF-16 code units back to a host string. An unpaired
// surrogate is an error, never silently replaced.
func decodeUTF16(units []uint16) (string, error) {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		switch {
		case utf16.IsSurrogate(u) && u < 0xDC00:
			if i+1 >= len(units) {
				return "", fmt.Errorf("%w: truncated pair at unit %d", ErrMalformedUTF16, i)
			}
			r := utf16.DecodeRune(u, rune(units[i+1]))
			if r == utf8.RuneError {
				return "", fmt.Errorf("%w: bad pair at unit %d", ErrMalformedUTF16, i)
			}
			runes = append(runes, r)
			i++
		case utf16.IsSurrogate(u):
			return "", fmt.Errorf("%w: low surrogate at unit %d", ErrMalformedUTF16, i)
		default:
			runes = append(runes, u)
		}
	}
	return string(runes), nil
}

// TryStringIntoJava creates a Java string object from a host string.
func TryStringIntoJava(env *jni.Env, s string) (jni.JString, error) {
	units, err := encodeUTF16(s)
	if err != nil {
		return jni.Null(), err
	}
	return env.NewString(units), nil
}

// StringIntoJava creates a Java string object, panicking on malformed host
// data.
func StringIntoJava(env *jni.Env, s string) jni.JString {
	js, err := TryStringIntoJava(env, s)
	if err != nil {
		panic(err)
	}
	return js
}

// TryStringFromJava reads a Java string object back into a host string.
func TryStringFromJava(env *jni.Env, js jni.JString) (string, error) {
	units, err := env.GetString(js)
	if err != nil {
		return "", err
	}
	return decodeUTF16(units)
}

// StringFromJava reads a Java string object, panicking on a bad reference
// or malformed encoding.
func StringFromJava(env *jni.Env, js jni.JString) string {
	s, err := TryStringFromJava(env, js)
	if err != nil {
		panic(err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Ordered collections
// ---------------------------------------------------------------------------

// TrySliceIntoJava converts a host slice to a java.util.ArrayList,
// preserving element order and count. Each element recurses through the
// given converter.
func TrySliceIntoJava[T any](env *jni.Env, xs []T, elem func(*jni.Env, T) (jni.Value, error)) (jni.JObject, error) {
	list := env.NewList(len(xs))
	for i, x := range xs {
		v, err := elem(env, x)
		if err != nil {
			return jni.Null(), fmt.Errorf("convert: element %d: %w", i, err)
		}
		if err := env.ListAdd(list, v); err != nil {
			return jni.Null(), err
		}
	}
	return list, nil
}

// SliceIntoJava converts a host slice to a java.util.ArrayList, panicking
// if any element conversion fails.
func SliceIntoJava[T any](env *jni.Env, xs []T, elem func(*jni.Env, T) jni.Value) jni.JObject {
	list := env.NewList(len(xs))
	for _, x := range xs {
		if err := env.ListAdd(list, elem(env, x)); err != nil {
			panic(err)
		}
	}
	return list
}

// TrySliceFromJava converts a Java list back to a host slice, preserving
// element order and count.
func TrySliceFromJava[T any](env *jni.Env, list jni.JObject, elem func(*jni.Env, jni.Value) (T, error)) ([]T, error) {
	n, err := env.ListLen(list)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := env.ListGet(list, i)
		if err != nil {
			return nil, err
		}
		x, err := elem(env, v)
		if err != nil {
			return nil, fmt.Errorf("convert: element %d: %w", i, err)
		}
		out = append(out, x)
	}
	return out, nil
}

// SliceFromJava converts a Java list back to a host slice, panicking if any
// element conversion fails.
func SliceFromJava[T any](env *jni.Env, list jni.JObject, elem func(*jni.Env, jni.Value) T) []T {
	n, err := env.ListLen(list)
	if err != nil {
		panic(err)
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := env.ListGet(list, i)
		if err != nil {
			panic(err)
		}
		out = append(out, elem(env, v))
	}
	return out
}

// ---------------------------------------------------------------------------
// Optional values
// ---------------------------------------------------------------------------

// An absent optional crosses the boundary as the null object reference; a
// present one as its converted payload. The null check reads the
// conventional way: a reference identical to null is the absent case.

// OptionIntoJava converts an optional host value. nil becomes the null
// reference.
func OptionIntoJava[T any](env *jni.Env, p *T, elem func(*jni.Env, T) jni.JObject) jni.JObject {
	if p == nil {
		return jni.Null()
	}
	return elem(env, *p)
}

// OptionFromJava converts an incoming object reference to an optional host
// value. The null reference becomes nil; anything else converts as the
// payload.
func OptionFromJava[T any](env *jni.Env, ref jni.JObject, elem func(*jni.Env, jni.JObject) T) *T {
	if env.IsSameObject(ref, jni.Null()) {
		return nil
	}
	v := elem(env, ref)
	return &v
}

// TryOptionFromJava is the fallible-family optional conversion.
func TryOptionFromJava[T any](env *jni.Env, ref jni.JObject, elem func(*jni.Env, jni.JObject) (T, error)) (*T, error) {
	if env.IsSameObject(ref, jni.Null()) {
		return nil, nil
	}
	v, err := elem(env, ref)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ---------------------------------------------------------------------------
// Fallible host results
// ---------------------------------------------------------------------------

// ResultIntoJava unwraps a (value, error) pair through the unchecked path:
// a non-nil error is a fatal defect. The fallible family defines no result
// conversion; safe methods return their error through the thrown-exception
// path instead.
func ResultIntoJava[T, R any](env *jni.Env, v T, err error, into func(*jni.Env, T) R) R {
	if err != nil {
		panic(fmt.Errorf("convert: unwrapped failed result: %w", err))
	}
	return into(env, v)
}
