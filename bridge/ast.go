// Package bridge defines the declaration tree a JNI bridge module is
// described with, plus the diagnostics accumulated while transforming it.
package bridge

// ---------------------------------------------------------------------------
// Source positions
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan creates a span from start and end positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// ZeroSpan returns an empty span.
func ZeroSpan() Span {
	return Span{}
}

// ---------------------------------------------------------------------------
// Markers and call types
// ---------------------------------------------------------------------------

// Marker is a piece of structural metadata attached to a declaration by the
// front-end (package association, export/import tagging, call-type choice).
// Markers only have meaning during transformation and are stripped from the
// output tree.
type Marker struct {
	SpanVal Span
	Name    string // e.g. "package", "export", "import", "calltype"
	Value   string // e.g. "com.example", "unchecked"
}

// Known marker names.
const (
	MarkerPackage  = "package"
	MarkerExport   = "export"
	MarkerImport   = "import"
	MarkerCallType = "calltype"
)

// Calling-convention tags normalized onto methods by the front-end.
const (
	ConventionNone = ""     // ordinary host method
	ConventionJNI  = "jni"  // callable from the JVM
	ConventionJava = "java" // calls into the JVM
)

// CallType selects the conversion family used for an exported method.
type CallType int

const (
	// CallSafe uses the fallible conversion family. Conversion failures
	// surface as thrown Java exceptions. This is the default.
	CallSafe CallType = iota
	// CallUnchecked uses the infallible conversion family. Conversion
	// failures are fatal defects and panic.
	CallUnchecked
)

func (c CallType) String() string {
	if c == CallUnchecked {
		return "unchecked"
	}
	return "safe"
}

// ---------------------------------------------------------------------------
// Type references
// ---------------------------------------------------------------------------

// TypeKind discriminates the written forms of a type.
type TypeKind int

const (
	// TypeNamed is a nominal type (possibly one of the bridge's own
	// declared types, possibly a primitive).
	TypeNamed TypeKind = iota
	// TypeSlice is a homogeneous ordered collection of Elem.
	TypeSlice
	// TypeReference is a reference (pointer) to Elem.
	TypeReference
	// TypeOpaque is any other spelling the transformer cannot look into.
	TypeOpaque
)

// TypeRef is the written form of a type in a declaration.
type TypeRef struct {
	Kind    TypeKind
	Name    string   // TypeNamed: the type name
	PkgPath string   // TypeNamed: import path for qualified (generated) names
	Elem    *TypeRef // TypeSlice, TypeReference
	Mutable bool     // TypeReference: the referent may be mutated
	Raw     string   // TypeOpaque: original spelling
}

// Named builds a nominal type reference.
func Named(name string) TypeRef {
	return TypeRef{Kind: TypeNamed, Name: name}
}

// Qualified builds a nominal type reference into another package.
func Qualified(pkgPath, name string) TypeRef {
	return TypeRef{Kind: TypeNamed, Name: name, PkgPath: pkgPath}
}

// SliceOf builds an ordered-collection type reference.
func SliceOf(elem TypeRef) TypeRef {
	return TypeRef{Kind: TypeSlice, Elem: &elem}
}

// RefTo builds a reference type.
func RefTo(elem TypeRef, mutable bool) TypeRef {
	return TypeRef{Kind: TypeReference, Elem: &elem, Mutable: mutable}
}

// String renders the reference the way it was written.
func (t TypeRef) String() string {
	switch t.Kind {
	case TypeNamed:
		if t.PkgPath != "" {
			return pkgBase(t.PkgPath) + "." + t.Name
		}
		return t.Name
	case TypeSlice:
		return "[]" + t.Elem.String()
	case TypeReference:
		return "*" + t.Elem.String()
	default:
		return t.Raw
	}
}

func pkgBase(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// Item is the interface implemented by all top-level declarations.
type Item interface {
	Span() Span
	item() // marker method
}

// StructDecl declares a bridged type.
type StructDecl struct {
	SpanVal   Span
	Name      string
	Public    bool
	EnvParams []string // generic parameter names declared on the type
	Fields    []Field
	Markers   []Marker
}

func (n *StructDecl) Span() Span { return n.SpanVal }
func (n *StructDecl) item()      {}

// Field is a struct field.
type Field struct {
	Name string
	Type TypeRef
}

// MethodBlock groups the methods declared on one self type.
type MethodBlock struct {
	SpanVal       Span
	SelfType      string
	SelfEnvParams []string // generic parameters written on the self type
	Methods       []*Method
	Markers       []Marker
}

func (n *MethodBlock) Span() Span { return n.SpanVal }
func (n *MethodBlock) item()      {}

// Method is one method declaration inside a method block.
type Method struct {
	SpanVal     Span
	Name        string
	Public      bool
	Convention  string // ConventionNone, ConventionJNI or ConventionJava
	CallType    CallType
	HasReceiver bool
	RecvByRef   bool // receiver taken by reference
	RecvMutable bool
	Params      []Param
	Return      *TypeRef
	Markers     []Marker
	Body        string // opaque host statements, copied through untouched
}

// Param is a method or function parameter.
type Param struct {
	SpanVal Span
	Name    string
	Type    TypeRef
}

// FuncDecl is a freestanding function. Generated native entry points are
// emitted as FuncDecls carrying an Export record.
type FuncDecl struct {
	SpanVal   Span
	Name      string
	Public    bool
	NoMangle  bool     // symbol must not be mangled by the host toolchain
	NativeABI bool     // uses the JNI native calling convention
	EnvParams []string // generic environment parameters, in order
	Params    []Param
	Return    *TypeRef
	Markers   []Marker
	Body      string  // opaque host statements for passthrough functions
	Export    *Export // set on generated native entry points
}

func (n *FuncDecl) Span() Span { return n.SpanVal }
func (n *FuncDecl) item()      {}

// Export records how a generated native entry point binds back to the
// method it was derived from, so a renderer can synthesize the body.
type Export struct {
	TypeName  string
	Method    string
	CallType  CallType
	Receiver  string // generated receiver parameter name, "" for static
	RecvByRef bool
	// HostParams and HostReturn keep the method's original host types,
	// pre-substitution, so a renderer can compose the marshalling body.
	HostParams []Param
	HostReturn *TypeRef
}

// ConstDecl is a passthrough constant declaration.
type ConstDecl struct {
	SpanVal Span
	Name    string
	Type    *TypeRef
	Value   string
	Markers []Marker
}

func (n *ConstDecl) Span() Span { return n.SpanVal }
func (n *ConstDecl) item()      {}

// ModDecl is a nested module.
type ModDecl struct {
	SpanVal Span
	Name    string
	Items   []Item
	Markers []Marker
}

func (n *ModDecl) Span() Span { return n.SpanVal }
func (n *ModDecl) item()      {}

// ImportsDecl is the set of name bindings generated code requires from the
// conversion protocol and the JNI handle types. The transformer injects
// exactly one of these at the top of each module.
type ImportsDecl struct {
	SpanVal Span
	Paths   []string
}

func (n *ImportsDecl) Span() Span { return n.SpanVal }
func (n *ImportsDecl) item()      {}

// RawItem is any other declaration, carried through verbatim.
type RawItem struct {
	SpanVal Span
	Source  string
	Markers []Marker
}

func (n *RawItem) Span() Span { return n.SpanVal }
func (n *RawItem) item()      {}

// ---------------------------------------------------------------------------
// Module
// ---------------------------------------------------------------------------

// Module is one bridge module's worth of declarations plus the mapping from
// declared type name to its Java package. It is constructed once by a
// front-end and never mutated; transformation produces a new Module.
type Module struct {
	SpanVal Span
	Name    string
	Items   []Item
	// Packages maps a declared type name to its resolved Java package.
	// A missing key means the package could not be resolved.
	Packages map[string]string
}

func (n *Module) Span() Span { return n.SpanVal }
