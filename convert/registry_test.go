package convert

import (
	"errors"
	"testing"

	"github.com/EchidnaHQ/robusta/bridge"
	"github.com/EchidnaHQ/robusta/jni"
)

func TestLookupPrimitives(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		host       string
		descriptor string
		rep        string
	}{
		{"bool", jni.SigBoolean, "Jboolean"},
		{"rune", jni.SigChar, "Jchar"},
		{"int8", jni.SigByte, "Jbyte"},
		{"int16", jni.SigShort, "Jshort"},
		{"int32", jni.SigInt, "Jint"},
		{"int64", jni.SigLong, "Jlong"},
		{"float32", jni.SigFloat, "Jfloat"},
		{"float64", jni.SigDouble, "Jdouble"},
		{"string", jni.SigString, "JString"},
	}
	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			c, err := r.Lookup(bridge.Named(tc.host), bridge.CallSafe)
			if err != nil {
				t.Fatal(err)
			}
			if c.Descriptor != tc.descriptor {
				t.Errorf("descriptor = %q, want %q", c.Descriptor, tc.descriptor)
			}
			if c.Source.Name != tc.rep || c.Target.Name != tc.rep {
				t.Errorf("source/target = %s/%s, want %s", c.Source, c.Target, tc.rep)
			}
		})
	}
}

func TestLookupCallTypeSelectsFamily(t *testing.T) {
	r := NewRegistry(nil)

	safe, err := r.Lookup(bridge.Named("string"), bridge.CallSafe)
	if err != nil {
		t.Fatal(err)
	}
	unchecked, err := r.Lookup(bridge.Named("string"), bridge.CallUnchecked)
	if err != nil {
		t.Fatal(err)
	}

	// Representations are shared; only the codec functions differ.
	if safe.Source != unchecked.Source || safe.Target != unchecked.Target {
		t.Error("representations differ between families")
	}
	if safe.FromJava != "TryStringFromJava" || safe.IntoJava != "TryStringIntoJava" {
		t.Errorf("safe family = %s/%s", safe.FromJava, safe.IntoJava)
	}
	if unchecked.FromJava != "StringFromJava" || unchecked.IntoJava != "StringIntoJava" {
		t.Errorf("unchecked family = %s/%s", unchecked.FromJava, unchecked.IntoJava)
	}
}

func TestLookupReferenceSubstitutesLikeReferent(t *testing.T) {
	r := NewRegistry(nil)

	direct, err := r.Lookup(bridge.Named("bool"), bridge.CallSafe)
	if err != nil {
		t.Fatal(err)
	}
	viaRef, err := r.Lookup(bridge.RefTo(bridge.Named("bool"), true), bridge.CallSafe)
	if err != nil {
		t.Fatal(err)
	}
	if direct.Source != viaRef.Source || direct.Descriptor != viaRef.Descriptor {
		t.Error("reference did not substitute like its referent")
	}
}

func TestLookupSliceRecursesOnElement(t *testing.T) {
	r := NewRegistry(nil)

	c, err := r.Lookup(bridge.SliceOf(bridge.Named("string")), bridge.CallSafe)
	if err != nil {
		t.Fatal(err)
	}
	if c.Descriptor != jni.SigList {
		t.Errorf("descriptor = %q, want %q", c.Descriptor, jni.SigList)
	}
	if c.Source.Name != "JObject" {
		t.Errorf("source = %s, want JObject", c.Source)
	}
	if c.Elem == nil {
		t.Fatal("no element conversion")
	}
	if c.Elem.Descriptor != jni.SigString {
		t.Errorf("element descriptor = %q", c.Elem.Descriptor)
	}

	// Nested collections compose.
	nested, err := r.Lookup(bridge.SliceOf(bridge.SliceOf(bridge.Named("bool"))), bridge.CallSafe)
	if err != nil {
		t.Fatal(err)
	}
	if nested.Elem == nil || nested.Elem.Elem == nil {
		t.Fatal("nested element conversion missing")
	}
	if nested.Elem.Elem.Descriptor != jni.SigBoolean {
		t.Errorf("inner descriptor = %q", nested.Elem.Elem.Descriptor)
	}
}

func TestLookupBridgedTypeDescriptor(t *testing.T) {
	r := NewRegistry(map[string]string{"Widget": "com.example.ui"})

	c, err := r.Lookup(bridge.Named("Widget"), bridge.CallSafe)
	if err != nil {
		t.Fatal(err)
	}
	if c.Descriptor != "Lcom/example/ui/Widget;" {
		t.Errorf("descriptor = %q", c.Descriptor)
	}
	if c.Source.Name != "JObject" {
		t.Errorf("source = %s, want JObject", c.Source)
	}

	// An unmapped named type degrades to java.lang.Object.
	c, err = r.Lookup(bridge.Named("Stranger"), bridge.CallSafe)
	if err != nil {
		t.Fatal(err)
	}
	if c.Descriptor != jni.SigObject {
		t.Errorf("descriptor = %q, want %q", c.Descriptor, jni.SigObject)
	}
}

func TestLookupRejectsPlatformWidthIntegers(t *testing.T) {
	r := NewRegistry(nil)

	for _, name := range []string{"int", "uint", "uintptr"} {
		t.Run(name, func(t *testing.T) {
			if _, err := r.Lookup(bridge.Named(name), bridge.CallSafe); !errors.Is(err, ErrUnsizedInteger) {
				t.Errorf("err = %v, want ErrUnsizedInteger", err)
			}
			// Inside a collection as well: no silent object handle.
			if _, err := r.Lookup(bridge.SliceOf(bridge.Named(name)), bridge.CallUnchecked); !errors.Is(err, ErrUnsizedInteger) {
				t.Errorf("slice: err = %v, want ErrUnsizedInteger", err)
			}
		})
	}
}

func TestLookupRejectsOpaqueTypes(t *testing.T) {
	r := NewRegistry(nil)

	opaque := bridge.TypeRef{Kind: bridge.TypeOpaque, Raw: "map[string]int"}
	if _, err := r.Lookup(opaque, bridge.CallSafe); !errors.Is(err, ErrNotNominal) {
		t.Errorf("err = %v, want ErrNotNominal", err)
	}

	// The same applies behind a reference or inside a collection.
	if _, err := r.Lookup(bridge.SliceOf(opaque), bridge.CallSafe); !errors.Is(err, ErrNotNominal) {
		t.Errorf("slice of opaque: err = %v, want ErrNotNominal", err)
	}
}
