package transform

import (
	"reflect"
	"strings"
	"testing"

	"github.com/EchidnaHQ/robusta/bridge"
	"github.com/EchidnaHQ/robusta/convert"
)

func exportedMethod(name string) *bridge.Method {
	return &bridge.Method{
		Name:       name,
		Public:     true,
		Convention: bridge.ConventionJNI,
	}
}

func singleBlockModule(block *bridge.MethodBlock, packages map[string]string) *bridge.Module {
	return &bridge.Module{
		Name:     "demo",
		Items:    []bridge.Item{block},
		Packages: packages,
	}
}

func generatedFuncs(mod *bridge.Module) []*bridge.FuncDecl {
	var out []*bridge.FuncDecl
	for _, item := range mod.Items {
		if fd, ok := item.(*bridge.FuncDecl); ok && fd.Export != nil {
			out = append(out, fd)
		}
	}
	return out
}

func TestTransformEmitsEntryPoint(t *testing.T) {
	m := exportedMethod("bar")
	m.HasReceiver = true
	m.RecvByRef = true
	m.Params = []bridge.Param{{Name: "flag", Type: bridge.Named("bool")}}
	ret := bridge.Named("string")
	m.Return = &ret

	block := &bridge.MethodBlock{
		SelfType:      "Foo",
		SelfEnvParams: []string{"env"},
		Methods:       []*bridge.Method{m},
	}
	mod := singleBlockModule(block, map[string]string{"Foo": "com.example"})

	out, diags := New(mod).Transform()
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	funcs := generatedFuncs(out)
	if len(funcs) != 1 {
		t.Fatalf("generated funcs = %d, want 1", len(funcs))
	}
	fd := funcs[0]

	if fd.Name != "Java_com_example_Foo_bar" {
		t.Errorf("symbol = %q, want Java_com_example_Foo_bar", fd.Name)
	}
	if !fd.NoMangle || !fd.NativeABI {
		t.Error("entry point must pin its symbol and use the native ABI")
	}

	// The receiver is erased into the first explicit parameter.
	if len(fd.Params) != 2 {
		t.Fatalf("params = %d, want 2", len(fd.Params))
	}
	recv := fd.Params[0]
	if !strings.HasPrefix(recv.Name, "receiver_Foo_bar") {
		t.Errorf("receiver name = %q", recv.Name)
	}
	if recv.Type.Kind != bridge.TypeReference || recv.Type.Elem.Name != "Foo" {
		t.Errorf("receiver type = %s, want *Foo", recv.Type)
	}

	// Parameters take the conversion source representation.
	if fd.Params[1].Type.Name != "Jboolean" {
		t.Errorf("param type = %s, want Jboolean", fd.Params[1].Type)
	}
	// Returns take the conversion target representation.
	if fd.Return == nil || fd.Return.Name != "JString" {
		t.Errorf("return type = %v, want JString", fd.Return)
	}
}

func TestTransformReusesEnvParamExactlyOnce(t *testing.T) {
	m := exportedMethod("tick")
	m.HasReceiver = true

	block := &bridge.MethodBlock{
		SelfType:      "Clock",
		SelfEnvParams: []string{"env"},
		Methods:       []*bridge.Method{m},
	}
	mod := singleBlockModule(block, map[string]string{"Clock": "com.example"})

	out, diags := New(mod).Transform()
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	fd := generatedFuncs(out)[0]
	if !reflect.DeepEqual(fd.EnvParams, []string{"env"}) {
		t.Errorf("env params = %v, want [env]", fd.EnvParams)
	}
}

func TestTransformAppendsEnvAfterOtherGenerics(t *testing.T) {
	m := exportedMethod("tick")
	m.HasReceiver = true

	block := &bridge.MethodBlock{
		SelfType:      "Clock",
		SelfEnvParams: []string{"T", "env"},
		Methods:       []*bridge.Method{m},
	}
	mod := singleBlockModule(block, map[string]string{"Clock": "com.example"})

	out, diags := New(mod).Transform()
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	fd := generatedFuncs(out)[0]
	if !reflect.DeepEqual(fd.EnvParams, []string{"T", "env"}) {
		t.Errorf("env params = %v, want [T env]", fd.EnvParams)
	}
}

func TestTransformStaticMethodInjectsEnv(t *testing.T) {
	m := exportedMethod("create")

	block := &bridge.MethodBlock{
		SelfType: "Factory",
		Methods:  []*bridge.Method{m},
	}
	mod := singleBlockModule(block, map[string]string{"Factory": "com.example"})

	out, diags := New(mod).Transform()
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	fd := generatedFuncs(out)[0]
	if !reflect.DeepEqual(fd.EnvParams, []string{"env"}) {
		t.Errorf("env params = %v, want [env]", fd.EnvParams)
	}
	if len(fd.Params) != 0 {
		t.Errorf("static entry point grew %d params", len(fd.Params))
	}
}

func TestTransformMissingEnvParamIsError(t *testing.T) {
	m := exportedMethod("tick")
	m.HasReceiver = true

	block := &bridge.MethodBlock{
		SelfType:      "Clock",
		SelfEnvParams: []string{"T"},
		Methods:       []*bridge.Method{m},
	}
	other := &bridge.MethodBlock{
		SelfType: "Bell",
		Methods:  []*bridge.Method{exportedMethod("ring")},
	}
	mod := &bridge.Module{
		Name:  "demo",
		Items: []bridge.Item{block, other},
		Packages: map[string]string{
			"Clock": "com.example",
			"Bell":  "com.example",
		},
	}

	out, diags := New(mod).Transform()
	if len(diags) != 1 || diags[0].Severity != bridge.SeverityError {
		t.Fatalf("diagnostics = %v, want one error", diags)
	}
	if !strings.Contains(diags[0].Message, "environment lifetime") {
		t.Errorf("message = %q", diags[0].Message)
	}

	// The unrelated block in the same module still transforms.
	funcs := generatedFuncs(out)
	if len(funcs) != 1 || funcs[0].Name != "Java_com_example_Bell_ring" {
		t.Errorf("generated funcs = %+v, want only Bell.ring", funcs)
	}
}

func TestTransformUnresolvedPackageSkipsWholeBlock(t *testing.T) {
	block := &bridge.MethodBlock{
		SelfType: "Mystery",
		Markers:  []bridge.Marker{{Name: "custom", Value: "kept"}},
		Methods: []*bridge.Method{
			exportedMethod("a"),
			{Name: "helper"},
		},
	}
	mod := singleBlockModule(block, nil)

	out, diags := New(mod).Transform()

	if len(diags) != 1 || diags[0].Severity != bridge.SeverityWarning {
		t.Fatalf("diagnostics = %v, want one warning", diags)
	}
	if !strings.Contains(diags[0].Message, "can't find package for type `Mystery`") {
		t.Errorf("message = %q", diags[0].Message)
	}
	if got := len(generatedFuncs(out)); got != 0 {
		t.Errorf("generated funcs = %d, want 0", got)
	}

	// The block itself passes through completely unchanged: markers,
	// conventions, everything.
	var kept *bridge.MethodBlock
	for _, item := range out.Items {
		if b, ok := item.(*bridge.MethodBlock); ok {
			kept = b
		}
	}
	if kept == nil {
		t.Fatal("block missing from output")
	}
	if !reflect.DeepEqual(kept, block) {
		t.Errorf("block was modified:\n got %+v\nwant %+v", kept, block)
	}
}

func TestTransformOneBadMethodDoesNotStopThePass(t *testing.T) {
	bad := exportedMethod("broken")
	bad.Params = []bridge.Param{{Name: "f", Type: bridge.TypeRef{Kind: bridge.TypeOpaque, Raw: "func()"}}}
	good := exportedMethod("works")

	block := &bridge.MethodBlock{
		SelfType: "Mixed",
		Methods:  []*bridge.Method{bad, good},
	}
	mod := singleBlockModule(block, map[string]string{"Mixed": "com.example"})

	out, diags := New(mod).Transform()

	if len(diags) != 1 || diags[0].Severity != bridge.SeverityError {
		t.Fatalf("diagnostics = %v, want one error", diags)
	}
	if !strings.Contains(diags[0].Message, "only named types") {
		t.Errorf("message = %q", diags[0].Message)
	}

	funcs := generatedFuncs(out)
	if len(funcs) != 1 {
		t.Fatalf("generated funcs = %d, want 1", len(funcs))
	}
	if funcs[0].Name != "Java_com_example_Mixed_works" {
		t.Errorf("surviving symbol = %q", funcs[0].Name)
	}
}

func TestTransformInjectsBindingsOnce(t *testing.T) {
	mod := singleBlockModule(&bridge.MethodBlock{SelfType: "T"}, nil)

	out, _ := New(mod).Transform()
	var injections int
	for i, item := range out.Items {
		if imp, ok := item.(*bridge.ImportsDecl); ok {
			injections++
			if i != 0 {
				t.Errorf("binding injection at position %d, want 0", i)
			}
			want := []string{convert.Pkg, convert.JNIPkg}
			if !reflect.DeepEqual(imp.Paths, want) {
				t.Errorf("paths = %v, want %v", imp.Paths, want)
			}
		}
	}
	if injections != 1 {
		t.Errorf("injections = %d, want 1", injections)
	}
}

func TestTransformStripsKnownMarkersKeepsUnknown(t *testing.T) {
	m := exportedMethod("go")
	m.Markers = []bridge.Marker{
		{Name: bridge.MarkerExport},
		{Name: bridge.MarkerCallType, Value: "safe"},
		{Name: "deprecated", Value: "use go2"},
	}
	block := &bridge.MethodBlock{
		SelfType: "Runner",
		Markers:  []bridge.Marker{{Name: bridge.MarkerPackage, Value: "com.example"}},
		Methods:  []*bridge.Method{m},
	}
	mod := singleBlockModule(block, map[string]string{"Runner": "com.example"})

	out, _ := New(mod).Transform()

	var kept *bridge.MethodBlock
	for _, item := range out.Items {
		if b, ok := item.(*bridge.MethodBlock); ok {
			kept = b
		}
	}
	if len(kept.Markers) != 0 {
		t.Errorf("block markers = %v, want none", kept.Markers)
	}
	got := kept.Methods[0].Markers
	if len(got) != 1 || got[0].Name != "deprecated" {
		t.Errorf("method markers = %v, want [deprecated]", got)
	}
	if kept.Methods[0].Convention != bridge.ConventionNone {
		t.Errorf("convention = %q, want none", kept.Methods[0].Convention)
	}
}

func TestTransformImportedMethodRebindsReceiverOnly(t *testing.T) {
	m := &bridge.Method{
		Name:        "notify",
		Public:      true,
		Convention:  bridge.ConventionJava,
		HasReceiver: true,
		RecvByRef:   true,
		RecvMutable: true,
		Params:      []bridge.Param{{Name: "msg", Type: bridge.Named("string")}},
	}
	block := &bridge.MethodBlock{
		SelfType: "Listener",
		Methods:  []*bridge.Method{m},
	}
	mod := singleBlockModule(block, map[string]string{"Listener": "com.example"})

	out, diags := New(mod).Transform()
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if got := len(generatedFuncs(out)); got != 0 {
		t.Errorf("imported method generated %d entry points", got)
	}

	var kept *bridge.MethodBlock
	for _, item := range out.Items {
		if b, ok := item.(*bridge.MethodBlock); ok {
			kept = b
		}
	}
	bound := kept.Methods[0]
	if bound.HasReceiver {
		t.Error("receiver not erased")
	}
	if len(bound.Params) != 2 {
		t.Fatalf("params = %d, want 2", len(bound.Params))
	}
	if !strings.HasPrefix(bound.Params[0].Name, "receiver_Listener_notify") {
		t.Errorf("bound receiver = %q", bound.Params[0].Name)
	}
	// No type substitution on imported signatures.
	if bound.Params[1].Type.Name != "string" {
		t.Errorf("param type = %s, want string", bound.Params[1].Type)
	}
}

func TestTransformEntryPointsFollowTheirBlock(t *testing.T) {
	blockA := &bridge.MethodBlock{
		SelfType: "A",
		Methods:  []*bridge.Method{exportedMethod("one")},
	}
	decl := &bridge.StructDecl{Name: "Between"}
	blockB := &bridge.MethodBlock{
		SelfType: "B",
		Methods:  []*bridge.Method{exportedMethod("two")},
	}
	mod := &bridge.Module{
		Name:  "demo",
		Items: []bridge.Item{blockA, decl, blockB},
		Packages: map[string]string{
			"A": "com.example",
			"B": "com.example",
		},
	}

	out, diags := New(mod).Transform()
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	var kinds []string
	for _, item := range out.Items {
		switch n := item.(type) {
		case *bridge.ImportsDecl:
			kinds = append(kinds, "imports")
		case *bridge.MethodBlock:
			kinds = append(kinds, "block:"+n.SelfType)
		case *bridge.FuncDecl:
			kinds = append(kinds, "func:"+n.Name)
		case *bridge.StructDecl:
			kinds = append(kinds, "struct:"+n.Name)
		}
	}
	want := []string{
		"imports",
		"block:A", "func:Java_com_example_A_one",
		"struct:Between",
		"block:B", "func:Java_com_example_B_two",
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("item order = %v, want %v", kinds, want)
	}
}

func TestTransformCallTypeSwitchesConversionFamilyOnly(t *testing.T) {
	build := func(ct bridge.CallType) *bridge.FuncDecl {
		m := exportedMethod("greet")
		m.CallType = ct
		m.Params = []bridge.Param{{Name: "name", Type: bridge.Named("string")}}
		ret := bridge.Named("bool")
		m.Return = &ret
		mod := singleBlockModule(&bridge.MethodBlock{
			SelfType: "Greeter",
			Methods:  []*bridge.Method{m},
		}, map[string]string{"Greeter": "com.example"})
		out, diags := New(mod).Transform()
		if len(diags) != 0 {
			t.Fatalf("diagnostics: %v", diags)
		}
		return generatedFuncs(out)[0]
	}

	safe := build(bridge.CallSafe)
	unchecked := build(bridge.CallUnchecked)

	if safe.Name != unchecked.Name {
		t.Errorf("symbols differ: %q vs %q", safe.Name, unchecked.Name)
	}
	if !reflect.DeepEqual(safe.Params, unchecked.Params) {
		t.Error("parameter representations differ between call types")
	}
	if !reflect.DeepEqual(safe.Return, unchecked.Return) {
		t.Error("return representations differ between call types")
	}
	if safe.Export.CallType != bridge.CallSafe || unchecked.Export.CallType != bridge.CallUnchecked {
		t.Error("export records lost their call types")
	}
}
