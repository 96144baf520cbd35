// Package jni models JNI value representations and an in-process object
// environment the conversion protocol runs against. It is a value model,
// not a binding to a live virtual machine: generated entry points marshal
// through these types, and the runtime that loads the generated symbols
// supplies the real environment.
package jni

// Primitive JNI value representations. These mirror the fixed widths of the
// JNI ABI; boolean is a two-valued integer domain {0, 1}.
type (
	Jboolean = uint8
	Jbyte    = int8
	Jchar    = uint16 // one UTF-16 code unit
	Jshort   = int16
	Jint     = int32
	Jlong    = int64
	Jfloat   = float32
	Jdouble  = float64
)

// Boolean domain values.
const (
	JNIFalse Jboolean = 0
	JNITrue  Jboolean = 1
)

// Ref is an opaque reference into an Env's object table. The zero Ref is
// the null reference.
type Ref uint32

// Typed object references. They are distinct names for documentation and
// signature purposes; every one of them is an object reference.
type (
	// JObject is a reference to any Java object.
	JObject = Ref
	// JString is a reference to a java.lang.String.
	JString = Ref
	// JClass is a reference to a java.lang.Class, passed as the second
	// argument of every static native entry point.
	JClass = Ref
)

// Null returns the null object reference.
func Null() Ref { return 0 }

// Type descriptor strings for the primitive representations, as used in
// JNI method and field signatures.
const (
	SigBoolean = "Z"
	SigByte    = "B"
	SigChar    = "C"
	SigShort   = "S"
	SigInt     = "I"
	SigLong    = "J"
	SigFloat   = "F"
	SigDouble  = "D"
	SigVoid    = "V"
	SigString  = "Ljava/lang/String;"
	SigList    = "Ljava/util/ArrayList;"
	SigObject  = "Ljava/lang/Object;"
)
