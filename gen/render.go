// Package gen renders a rewritten bridge module to Go source: the native
// entry points with their marshalling bodies, ready for the host toolchain.
// Passthrough declarations stay in the user's own source files; only
// generated artifacts are emitted.
package gen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/EchidnaHQ/robusta/bridge"
	"github.com/EchidnaHQ/robusta/convert"
)

// Result contains the rendered code and any warnings.
type Result struct {
	Code     string
	Warnings []string
	Skipped  []SkippedFunc
}

// SkippedFunc records an entry point that couldn't be rendered.
type SkippedFunc struct {
	Symbol string
	Reason string
}

// Options controls rendering behavior.
type Options struct {
	// SkipValidation disables the syntax check of the rendered source.
	// When false (default), the output is parsed and a malformed file is
	// reported as an error rather than written out.
	SkipValidation bool
}

type renderer struct {
	reg      *convert.Registry
	warnings []string
	skipped  []SkippedFunc
}

// Render renders mod into a Go source file belonging to pkgName.
func Render(mod *bridge.Module, pkgName string, opts Options) (*Result, error) {
	f := jen.NewFile(pkgName)
	f.HeaderComment("Code generated by robusta. DO NOT EDIT.")
	f.ImportName(convert.Pkg, "convert")
	f.ImportName(convert.JNIPkg, "jni")

	r := &renderer{reg: convert.NewRegistry(mod.Packages)}

	injected := false
	generated := 0
	for _, item := range mod.Items {
		switch n := item.(type) {
		case *bridge.ImportsDecl:
			injected = true
		case *bridge.FuncDecl:
			if n.Export == nil {
				continue
			}
			if r.renderEntryPoint(f, n) {
				generated++
			}
		}
	}
	if !injected {
		return nil, fmt.Errorf("gen: module %q carries no import binding injection", mod.Name)
	}
	if generated == 0 {
		// Nothing referenced the injected bindings; import them anyway so
		// the emitted file still carries the injection.
		f.Anon(convert.Pkg)
		f.Anon(convert.JNIPkg)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("gen: rendering module %q: %w", mod.Name, err)
	}
	code := buf.String()
	if !opts.SkipValidation {
		if errs := NewCodeValidator("generated.go").Validate(code); len(errs) > 0 {
			return nil, fmt.Errorf("gen: rendered source is malformed: %s", errs[0].Message)
		}
	}

	return &Result{Code: code, Warnings: r.warnings, Skipped: r.skipped}, nil
}

// renderEntryPoint emits one exported native entry point. The //export
// pragma pins the symbol name so the host toolchain does not mangle it and
// the JVM's dynamic loader can bind to it.
func (r *renderer) renderEntryPoint(f *jen.File, fd *bridge.FuncDecl) bool {
	body, err := r.entryBody(fd)
	if err != nil {
		r.skipped = append(r.skipped, SkippedFunc{Symbol: fd.Name, Reason: err.Error()})
		r.warnings = append(r.warnings, fmt.Sprintf("skipping %s: %v", fd.Name, err))
		return false
	}

	// The environment handle comes first, then the erased receiver with
	// its declared host type, then the substituted parameters.
	params := []jen.Code{jen.Id("env").Op("*").Qual(convert.JNIPkg, "Env")}
	for _, p := range fd.Params {
		params = append(params, jen.Id(p.Name).Add(hostType(p.Type)))
	}

	f.Comment("//export " + fd.Name)
	fn := f.Func().Id(fd.Name).Params(params...)
	if fd.Return != nil {
		fn.Add(hostType(*fd.Return))
	}
	fn.Block(body...)
	f.Line()
	return true
}

// entryBody synthesizes the marshalling body: convert every parameter from
// its JNI representation, call the host method, convert the result back.
func (r *renderer) entryBody(fd *bridge.FuncDecl) ([]jen.Code, error) {
	exp := fd.Export
	var stmts []jen.Code
	var args []jen.Code

	for i, hp := range exp.HostParams {
		conv, err := r.reg.Lookup(hp.Type, exp.CallType)
		if err != nil {
			return nil, err
		}
		if conv.FromJava == "" {
			args = append(args, jen.Id(hp.Name))
			continue
		}
		call, err := r.fromJavaCall(conv, hp, exp.CallType == bridge.CallSafe)
		if err != nil {
			return nil, err
		}
		if exp.CallType == bridge.CallSafe {
			local := fmt.Sprintf("arg%d", i)
			stmts = append(stmts,
				jen.List(jen.Id(local), jen.Id("err")).Op(":=").Add(call),
				r.throwAndReturn(fd),
			)
			args = append(args, jen.Id(local))
		} else {
			args = append(args, call)
		}
	}

	call := r.hostCall(exp, args)

	if exp.HostReturn == nil {
		return append(stmts, call), nil
	}

	conv, err := r.reg.Lookup(*exp.HostReturn, exp.CallType)
	if err != nil {
		return nil, err
	}
	if conv.IntoJava == "" {
		return append(stmts, jen.Return(call)), nil
	}

	into, err := r.intoJavaCall(conv, *exp.HostReturn, jen.Id("ret"), exp.CallType == bridge.CallSafe)
	if err != nil {
		return nil, err
	}
	if exp.CallType == bridge.CallSafe {
		stmts = append(stmts,
			jen.Id("ret").Op(":=").Add(call),
			jen.List(jen.Id("out"), jen.Id("err")).Op(":=").Add(into),
			r.throwAndReturn(fd),
			jen.Return(jen.Id("out")),
		)
	} else {
		stmts = append(stmts,
			jen.Id("ret").Op(":=").Add(call),
			jen.Return(into),
		)
	}
	return stmts, nil
}

// hostCall builds the call into the host method the entry point wraps.
func (r *renderer) hostCall(exp *bridge.Export, args []jen.Code) *jen.Statement {
	if exp.Receiver != "" {
		return jen.Id(exp.Receiver).Dot(exp.Method).Call(args...)
	}
	return jen.Id(exp.Method).Call(args...)
}

// throwAndReturn emits the safe family's failure path: surface the
// conversion failure as a thrown Java exception and return a zero value.
func (r *renderer) throwAndReturn(fd *bridge.FuncDecl) jen.Code {
	fail := []jen.Code{
		jen.Id("env").Dot("Throw").Call(jen.Id("err").Dot("Error").Call()),
	}
	if fd.Return != nil {
		fail = append(fail,
			jen.Var().Id("zero").Add(hostType(*fd.Return)),
			jen.Return(jen.Id("zero")),
		)
	} else {
		fail = append(fail, jen.Return())
	}
	return jen.If(jen.Id("err").Op("!=").Nil()).Block(fail...)
}

// fromJavaCall composes the codec call converting one incoming parameter.
func (r *renderer) fromJavaCall(conv convert.Conversion, hp bridge.Param, safe bool) (*jen.Statement, error) {
	if conv.Elem == nil {
		return jen.Qual(convert.Pkg, conv.FromJava).Call(jen.Id("env"), jen.Id(hp.Name)), nil
	}
	// Ordered collection: recurse through the element conversion with a
	// closure unboxing each stored value.
	elemHost := hp.Type
	for elemHost.Kind == bridge.TypeReference {
		elemHost = *elemHost.Elem
	}
	if elemHost.Kind != bridge.TypeSlice {
		return nil, fmt.Errorf("collection conversion for non-slice type %s", hp.Type)
	}
	closure, err := elemFromJavaClosure(*conv.Elem, *elemHost.Elem, safe)
	if err != nil {
		return nil, err
	}
	return jen.Qual(convert.Pkg, conv.FromJava).Call(jen.Id("env"), jen.Id(hp.Name), closure), nil
}

// intoJavaCall composes the codec call converting the host return value.
func (r *renderer) intoJavaCall(conv convert.Conversion, host bridge.TypeRef, value jen.Code, safe bool) (*jen.Statement, error) {
	if conv.Elem == nil {
		return jen.Qual(convert.Pkg, conv.IntoJava).Call(jen.Id("env"), value), nil
	}
	for host.Kind == bridge.TypeReference {
		host = *host.Elem
	}
	if host.Kind != bridge.TypeSlice {
		return nil, fmt.Errorf("collection conversion for non-slice type %s", host)
	}
	closure, err := elemIntoJavaClosure(*conv.Elem, *host.Elem, safe)
	if err != nil {
		return nil, err
	}
	return jen.Qual(convert.Pkg, conv.IntoJava).Call(jen.Id("env"), value, closure), nil
}

// elemFromJavaClosure builds `func(env, v) (T[, error])` unboxing one list
// element and converting it to the host element type. The closure's shape
// follows the entry point's call type, not the element codec: identity
// elements on the safe path still return the error the fallible signature
// demands, and nested collections recurse into a further closure.
func elemFromJavaClosure(elem convert.Conversion, host bridge.TypeRef, safe bool) (*jen.Statement, error) {
	field, err := valueField(elem.Source)
	if err != nil {
		return nil, err
	}
	for host.Kind == bridge.TypeReference {
		host = *host.Elem
	}
	unboxed := jen.Id("v").Dot(field)

	results := []jen.Code{hostType(host)}
	if safe {
		results = append(results, jen.Error())
	}

	var ret jen.Code
	switch {
	case elem.Elem != nil:
		if host.Kind != bridge.TypeSlice {
			return nil, fmt.Errorf("collection conversion for non-slice type %s", host)
		}
		inner, err := elemFromJavaClosure(*elem.Elem, *host.Elem, safe)
		if err != nil {
			return nil, err
		}
		ret = jen.Return(jen.Qual(convert.Pkg, elem.FromJava).Call(jen.Id("env"), unboxed, inner))
	case elem.FromJava == "" && safe:
		ret = jen.Return(unboxed, jen.Nil())
	case elem.FromJava == "":
		ret = jen.Return(unboxed)
	default:
		ret = jen.Return(jen.Qual(convert.Pkg, elem.FromJava).Call(jen.Id("env"), unboxed))
	}

	return jen.Func().Params(
		jen.Id("env").Op("*").Qual(convert.JNIPkg, "Env"),
		jen.Id("v").Qual(convert.JNIPkg, "Value"),
	).Params(results...).Block(ret), nil
}

// elemIntoJavaClosure builds `func(env, x) (jni.Value[, error])` converting
// one host element and boxing it for list storage. Nested collections
// recurse into a further closure, passed through to the element codec.
func elemIntoJavaClosure(elem convert.Conversion, host bridge.TypeRef, safe bool) (*jen.Statement, error) {
	boxer, err := valueBoxer(elem.Target)
	if err != nil {
		return nil, err
	}
	for host.Kind == bridge.TypeReference {
		host = *host.Elem
	}

	args := []jen.Code{jen.Id("env"), jen.Id("x")}
	if elem.Elem != nil {
		if host.Kind != bridge.TypeSlice {
			return nil, fmt.Errorf("collection conversion for non-slice type %s", host)
		}
		inner, err := elemIntoJavaClosure(*elem.Elem, *host.Elem, safe)
		if err != nil {
			return nil, err
		}
		args = append(args, inner)
	}

	results := []jen.Code{jen.Qual(convert.JNIPkg, "Value")}
	if safe {
		results = append(results, jen.Error())
	}

	var body []jen.Code
	switch {
	case elem.IntoJava == "" && safe:
		body = []jen.Code{jen.Return(jen.Qual(convert.JNIPkg, boxer).Call(jen.Id("x")), jen.Nil())}
	case elem.IntoJava == "":
		body = []jen.Code{jen.Return(jen.Qual(convert.JNIPkg, boxer).Call(jen.Id("x")))}
	case safe:
		body = []jen.Code{
			jen.List(jen.Id("j"), jen.Id("err")).Op(":=").Qual(convert.Pkg, elem.IntoJava).Call(args...),
			jen.Return(jen.Qual(convert.JNIPkg, boxer).Call(jen.Id("j")), jen.Id("err")),
		}
	default:
		body = []jen.Code{
			jen.Return(jen.Qual(convert.JNIPkg, boxer).Call(
				jen.Qual(convert.Pkg, elem.IntoJava).Call(args...))),
		}
	}

	return jen.Func().Params(
		jen.Id("env").Op("*").Qual(convert.JNIPkg, "Env"),
		jen.Id("x").Add(hostType(host)),
	).Params(results...).Block(body...), nil
}

// valueField maps a JNI representation to its boxed Value field.
func valueField(rep bridge.TypeRef) (string, error) {
	switch rep.Name {
	case "Jboolean":
		return "Z", nil
	case "Jbyte":
		return "B", nil
	case "Jchar":
		return "C", nil
	case "Jshort":
		return "S", nil
	case "Jint":
		return "I", nil
	case "Jlong":
		return "J", nil
	case "Jfloat":
		return "F", nil
	case "Jdouble":
		return "D", nil
	case "JObject", "JString", "JClass", "Ref":
		return "L", nil
	}
	return "", fmt.Errorf("no boxed representation for %s", rep.Name)
}

// valueBoxer maps a JNI representation to its boxing constructor.
func valueBoxer(rep bridge.TypeRef) (string, error) {
	switch rep.Name {
	case "Jboolean":
		return "BoxBool", nil
	case "Jbyte":
		return "BoxByte", nil
	case "Jchar":
		return "BoxChar", nil
	case "Jshort":
		return "BoxShort", nil
	case "Jint":
		return "BoxInt", nil
	case "Jlong":
		return "BoxLong", nil
	case "Jfloat":
		return "BoxFloat", nil
	case "Jdouble":
		return "BoxDouble", nil
	case "JObject", "JString", "JClass", "Ref":
		return "BoxObject", nil
	}
	return "", fmt.Errorf("no boxing constructor for %s", rep.Name)
}

// hostType renders a bridge type reference as Go source.
func hostType(t bridge.TypeRef) *jen.Statement {
	switch t.Kind {
	case bridge.TypeNamed:
		if t.PkgPath != "" {
			return jen.Qual(t.PkgPath, t.Name)
		}
		return jen.Id(t.Name)
	case bridge.TypeSlice:
		return jen.Index().Add(hostType(*t.Elem))
	case bridge.TypeReference:
		return jen.Op("*").Add(hostType(*t.Elem))
	default:
		return jen.Id(t.Raw)
	}
}
