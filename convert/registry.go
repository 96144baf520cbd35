// Package convert implements the type-directed conversion protocol between
// host values and JNI value representations: the rewrite-time lookup table
// the signature rewriter substitutes types through, and the runtime codec
// the generated marshalling bodies call.
package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/EchidnaHQ/robusta/bridge"
	"github.com/EchidnaHQ/robusta/jni"
)

// JNIPkg is the import path of the JNI value model package. Substituted
// parameter and return types are qualified with it.
const JNIPkg = "github.com/EchidnaHQ/robusta/jni"

// Pkg is this package's own import path, used when generated bodies
// reference the codec functions by name.
const Pkg = "github.com/EchidnaHQ/robusta/convert"

// ErrNotNominal reports a type spelling the protocol cannot look into.
var ErrNotNominal = errors.New("only named types or references to named types are permitted here")

// ErrUnsizedInteger reports a platform-width integer type. JNI widths are
// fixed, so these never cross the boundary; callers spell a sized type.
var ErrUnsizedInteger = errors.New("platform-width integers do not cross the boundary; use a fixed-width type")

// Conversion describes how one host type crosses the JNI boundary for a
// particular call type: the JNI type descriptor, the Source representation
// it arrives as when used as a parameter, the Target representation it is
// returned as, and the codec functions the generated body calls. Empty
// codec names mean the representation is identical on both sides.
type Conversion struct {
	Descriptor string
	Source     bridge.TypeRef
	Target     bridge.TypeRef
	FromJava   string // codec func: Source -> host value
	IntoJava   string // codec func: host value -> Target
	// Elem is set for ordered collections; the generated body composes
	// the element conversion through the same protocol.
	Elem *Conversion
}

// entry is one row of the lookup table. The safe and unchecked conversion
// families share representations but name different codec functions; the
// safe family's functions are fallible, the unchecked family's panic.
type entry struct {
	descriptor string
	source     bridge.TypeRef
	target     bridge.TypeRef
	fromJava   string // unchecked family
	intoJava   string
	tryFrom    string // safe family
	tryInto    string
}

// Registry resolves host types to conversions. One registry serves one
// module's pass; it carries the module's package map so object descriptors
// for bridged types can be derived.
type Registry struct {
	table    map[string]entry
	packages map[string]string
}

// NewRegistry builds the default lookup table over the given package map.
func NewRegistry(packages map[string]string) *Registry {
	r := &Registry{
		table:    make(map[string]entry),
		packages: packages,
	}

	identity := func(name, sig string, rep bridge.TypeRef) {
		r.table[name] = entry{descriptor: sig, source: rep, target: rep}
	}
	identity("int8", jni.SigByte, bridge.Qualified(JNIPkg, "Jbyte"))
	identity("int16", jni.SigShort, bridge.Qualified(JNIPkg, "Jshort"))
	identity("int32", jni.SigInt, bridge.Qualified(JNIPkg, "Jint"))
	identity("int64", jni.SigLong, bridge.Qualified(JNIPkg, "Jlong"))
	identity("float32", jni.SigFloat, bridge.Qualified(JNIPkg, "Jfloat"))
	identity("float64", jni.SigDouble, bridge.Qualified(JNIPkg, "Jdouble"))

	r.table["bool"] = entry{
		descriptor: jni.SigBoolean,
		source:     bridge.Qualified(JNIPkg, "Jboolean"),
		target:     bridge.Qualified(JNIPkg, "Jboolean"),
		fromJava:   "BoolFromJava",
		intoJava:   "BoolIntoJava",
		tryFrom:    "TryBoolFromJava",
		tryInto:    "TryBoolIntoJava",
	}
	r.table["rune"] = entry{
		descriptor: jni.SigChar,
		source:     bridge.Qualified(JNIPkg, "Jchar"),
		target:     bridge.Qualified(JNIPkg, "Jchar"),
		fromJava:   "CharFromJava",
		intoJava:   "CharIntoJava",
		tryFrom:    "TryCharFromJava",
		tryInto:    "TryCharIntoJava",
	}
	r.table["string"] = entry{
		descriptor: jni.SigString,
		source:     bridge.Qualified(JNIPkg, "JString"),
		target:     bridge.Qualified(JNIPkg, "JString"),
		fromJava:   "StringFromJava",
		intoJava:   "StringIntoJava",
		tryFrom:    "TryStringFromJava",
		tryInto:    "TryStringIntoJava",
	}

	return r
}

// Lookup resolves the conversion for a host type under the given call type.
// References substitute like their referent. Ordered collections recurse on
// their element. Platform-width integers are rejected. Other named types
// without a table row fall back to the object handle representation; their
// descriptor comes from the package map when the type is one of the
// module's own.
func (r *Registry) Lookup(t bridge.TypeRef, ct bridge.CallType) (Conversion, error) {
	switch t.Kind {
	case bridge.TypeReference:
		return r.Lookup(*t.Elem, ct)

	case bridge.TypeSlice:
		elem, err := r.Lookup(*t.Elem, ct)
		if err != nil {
			return Conversion{}, err
		}
		c := Conversion{
			Descriptor: jni.SigList,
			Source:     bridge.Qualified(JNIPkg, "JObject"),
			Target:     bridge.Qualified(JNIPkg, "JObject"),
			FromJava:   "SliceFromJava",
			IntoJava:   "SliceIntoJava",
			Elem:       &elem,
		}
		if ct == bridge.CallSafe {
			c.FromJava = "TrySliceFromJava"
			c.IntoJava = "TrySliceIntoJava"
		}
		return c, nil

	case bridge.TypeNamed:
		if e, ok := r.table[t.Name]; ok {
			c := Conversion{
				Descriptor: e.descriptor,
				Source:     e.source,
				Target:     e.target,
				FromJava:   e.fromJava,
				IntoJava:   e.intoJava,
			}
			if ct == bridge.CallSafe {
				c.FromJava = e.tryFrom
				c.IntoJava = e.tryInto
			}
			return c, nil
		}
		switch t.Name {
		case "int", "uint", "uintptr":
			return Conversion{}, fmt.Errorf("%w (got %q)", ErrUnsizedInteger, t.Name)
		}
		return Conversion{
			Descriptor: r.objectDescriptor(t.Name),
			Source:     bridge.Qualified(JNIPkg, "JObject"),
			Target:     bridge.Qualified(JNIPkg, "JObject"),
		}, nil

	default:
		return Conversion{}, fmt.Errorf("%w (got %q)", ErrNotNominal, t.Raw)
	}
}

// objectDescriptor derives the JNI descriptor of a named object type. Types
// present in the package map use their fully-qualified class name; anything
// else degrades to java.lang.Object.
func (r *Registry) objectDescriptor(name string) string {
	if pkg, ok := r.packages[name]; ok {
		return "L" + strings.ReplaceAll(pkg, ".", "/") + "/" + name + ";"
	}
	return jni.SigObject
}
