package transform

import "testing"

func TestJNISymbolName(t *testing.T) {
	tests := []struct {
		pkg      string
		typeName string
		method   string
		want     string
	}{
		{"com.example", "Foo", "bar", "Java_com_example_Foo_bar"},
		{"com.example.deep.nesting", "Foo", "bar", "Java_com_example_deep_nesting_Foo_bar"},
		{"single", "T", "m", "Java_single_T_m"},
	}

	for _, tc := range tests {
		got := JNISymbolName(tc.pkg, tc.typeName, tc.method)
		if got != tc.want {
			t.Errorf("JNISymbolName(%q, %q, %q) = %q, want %q",
				tc.pkg, tc.typeName, tc.method, got, tc.want)
		}
	}
}

func TestNamespaceUnique(t *testing.T) {
	ns := NewNamespace()

	if got := ns.Unique("x"); got != "x_0" {
		t.Errorf("first Unique(x) = %q, want x_0", got)
	}
	if got := ns.Unique("x"); got != "x_1" {
		t.Errorf("second Unique(x) = %q, want x_1", got)
	}
	if got := ns.Unique("y"); got != "y_0" {
		t.Errorf("Unique(y) = %q, want y_0", got)
	}
}

func TestReceiverNamesNeverCollide(t *testing.T) {
	ns := NewNamespace()

	// Two blocks for the same type with a method of the same name must
	// still get distinct receiver bindings.
	a := ns.ReceiverName("Widget", "draw")
	b := ns.ReceiverName("Widget", "draw")
	if a == b {
		t.Errorf("colliding receiver names: %q", a)
	}

	seen := map[string]bool{a: true, b: true}
	for _, pair := range [][2]string{{"Widget", "size"}, {"Gadget", "draw"}} {
		name := ns.ReceiverName(pair[0], pair[1])
		if seen[name] {
			t.Errorf("receiver name %q reused", name)
		}
		seen[name] = true
	}
}
