package jni

import (
	"errors"
	"fmt"
)

// ErrBadReference indicates a reference that does not name a live object.
var ErrBadReference = errors.New("jni: bad object reference")

// ErrTypeMismatch indicates an object of the wrong class for an operation.
var ErrTypeMismatch = errors.New("jni: object type mismatch")

// object is one entry in the environment's object table.
type object struct {
	// class is the object's descriptor ("Ljava/lang/String;", ...).
	class string
	// units holds the UTF-16 code units of a string object.
	units []uint16
	// list holds the elements of a list object, boxed as Value.
	list []Value
}

// Value is a boxed JNI value: either a primitive or an object reference.
// Boxing happens when a converted element is stored into a list.
type Value struct {
	Kind ValueKind
	Z    Jboolean
	B    Jbyte
	C    Jchar
	S    Jshort
	I    Jint
	J    Jlong
	F    Jfloat
	D    Jdouble
	L    Ref
}

// ValueKind discriminates boxed values.
type ValueKind int

const (
	KindObject ValueKind = iota
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
)

// BoxBool boxes a jboolean.
func BoxBool(z Jboolean) Value { return Value{Kind: KindBoolean, Z: z} }

// BoxByte boxes a jbyte.
func BoxByte(b Jbyte) Value { return Value{Kind: KindByte, B: b} }

// BoxChar boxes a jchar.
func BoxChar(c Jchar) Value { return Value{Kind: KindChar, C: c} }

// BoxShort boxes a jshort.
func BoxShort(s Jshort) Value { return Value{Kind: KindShort, S: s} }

// BoxInt boxes a jint.
func BoxInt(i Jint) Value { return Value{Kind: KindInt, I: i} }

// BoxLong boxes a jlong.
func BoxLong(j Jlong) Value { return Value{Kind: KindLong, J: j} }

// BoxFloat boxes a jfloat.
func BoxFloat(f Jfloat) Value { return Value{Kind: KindFloat, F: f} }

// BoxDouble boxes a jdouble.
func BoxDouble(d Jdouble) Value { return Value{Kind: KindDouble, D: d} }

// BoxObject boxes an object reference.
func BoxObject(l Ref) Value { return Value{Kind: KindObject, L: l} }

// Env is an in-process JNI object environment: a table of live objects
// addressed by opaque references. One Env corresponds to one native call's
// environment handle.
type Env struct {
	objects map[Ref]*object
	nextRef Ref
	// pending holds a thrown exception message, surfaced by generated
	// safe entry points before returning to the VM.
	pending string
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{objects: make(map[Ref]*object)}
}

func (e *Env) alloc(o *object) Ref {
	e.nextRef++
	ref := e.nextRef
	e.objects[ref] = o
	return ref
}

func (e *Env) lookup(ref Ref) (*object, error) {
	o, ok := e.objects[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadReference, ref)
	}
	return o, nil
}

// IsSameObject reports whether two references name the same object. Either
// side may be the null reference.
func (e *Env) IsSameObject(a, b Ref) bool {
	return a == b
}

// IsNull reports whether ref is the null reference.
func (e *Env) IsNull(ref Ref) bool {
	return ref == Null()
}

// NewString creates a string object from UTF-16 code units. The units are
// stored as given; validity is the conversion layer's concern.
func (e *Env) NewString(units []uint16) JString {
	stored := make([]uint16, len(units))
	copy(stored, units)
	return e.alloc(&object{class: SigString, units: stored})
}

// GetString returns the UTF-16 code units of a string object.
func (e *Env) GetString(s JString) ([]uint16, error) {
	o, err := e.lookup(s)
	if err != nil {
		return nil, err
	}
	if o.class != SigString {
		return nil, fmt.Errorf("%w: %s is not a string", ErrTypeMismatch, o.class)
	}
	units := make([]uint16, len(o.units))
	copy(units, o.units)
	return units, nil
}

// NewList creates an empty java.util.ArrayList with the given capacity hint.
func (e *Env) NewList(capacity int) JObject {
	return e.alloc(&object{class: SigList, list: make([]Value, 0, capacity)})
}

// ListAdd appends a boxed value to a list object, preserving order.
func (e *Env) ListAdd(list JObject, v Value) error {
	o, err := e.lookup(list)
	if err != nil {
		return err
	}
	if o.class != SigList {
		return fmt.Errorf("%w: %s is not a list", ErrTypeMismatch, o.class)
	}
	o.list = append(o.list, v)
	return nil
}

// ListLen returns the element count of a list object.
func (e *Env) ListLen(list JObject) (int, error) {
	o, err := e.lookup(list)
	if err != nil {
		return 0, err
	}
	if o.class != SigList {
		return 0, fmt.Errorf("%w: %s is not a list", ErrTypeMismatch, o.class)
	}
	return len(o.list), nil
}

// ListGet returns the i-th element of a list object.
func (e *Env) ListGet(list JObject, i int) (Value, error) {
	o, err := e.lookup(list)
	if err != nil {
		return Value{}, err
	}
	if o.class != SigList {
		return Value{}, fmt.Errorf("%w: %s is not a list", ErrTypeMismatch, o.class)
	}
	if i < 0 || i >= len(o.list) {
		return Value{}, fmt.Errorf("jni: list index %d out of range [0, %d)", i, len(o.list))
	}
	return o.list[i], nil
}

// ClassOf returns the descriptor of the object's class.
func (e *Env) ClassOf(ref Ref) (string, error) {
	o, err := e.lookup(ref)
	if err != nil {
		return "", err
	}
	return o.class, nil
}

// Throw records a pending exception. Generated safe entry points call this
// when a fallible conversion fails, then return a zero value to the VM.
func (e *Env) Throw(message string) {
	e.pending = message
}

// PendingException returns the pending exception message, if any.
func (e *Env) PendingException() (string, bool) {
	return e.pending, e.pending != ""
}

// ClearException clears the pending exception.
func (e *Env) ClearException() {
	e.pending = ""
}
