package introspect

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/packages"

	"github.com/EchidnaHQ/robusta/bridge"
)

// LoadPackage loads a Go package by import path or directory and builds
// the bridge module its annotated declarations describe. Parse problems in
// directives are returned as diagnostics, not errors: the module is still
// built from everything well-formed.
func LoadPackage(path string) (*bridge.Module, []bridge.Diagnostic, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes,
	}

	pkgs, err := packages.Load(cfg, path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(pkgs) == 0 {
		return nil, nil, fmt.Errorf("no packages found for %s", path)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, nil, fmt.Errorf("package errors: %v", pkgs[0].Errors)
	}

	pkg := pkgs[0]
	b := newBuilder(pkg.Name, pkg.Fset)
	for _, file := range pkg.Syntax {
		b.addFile(file)
	}
	return b.finish(), b.diags.All(), nil
}

// builder accumulates one module from a package's syntax trees.
type builder struct {
	mod    *bridge.Module
	fset   *token.FileSet
	blocks map[string]*bridge.MethodBlock // self type -> block
	order  []string                       // first-seen block order
	diags  bridge.Diagnostics
}

func newBuilder(name string, fset *token.FileSet) *builder {
	return &builder{
		mod: &bridge.Module{
			Name:     name,
			Packages: make(map[string]string),
		},
		fset:   fset,
		blocks: make(map[string]*bridge.MethodBlock),
	}
}

func (b *builder) addFile(file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				b.addTypes(d)
			}
		case *ast.FuncDecl:
			if d.Recv != nil && len(d.Recv.List) == 1 {
				b.addMethod(d)
			}
		}
	}
}

// addTypes records annotated struct declarations and their package
// associations.
func (b *builder) addTypes(d *ast.GenDecl) {
	declMarkers := b.parseDoc(d.Doc)
	for _, spec := range d.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			continue
		}
		// Grouped declarations share the decl doc but not each other's
		// per-spec docs.
		markers := append(append([]bridge.Marker(nil), declMarkers...), b.parseDoc(ts.Doc)...)

		decl := &bridge.StructDecl{
			SpanVal:   b.span(ts.Pos(), ts.End()),
			Name:      ts.Name.Name,
			Public:    ast.IsExported(ts.Name.Name),
			EnvParams: typeParamNames(ts.TypeParams),
			Markers:   markers,
		}
		for _, field := range st.Fields.List {
			t := b.typeRef(field.Type)
			for _, name := range field.Names {
				decl.Fields = append(decl.Fields, bridge.Field{Name: name.Name, Type: t})
			}
		}
		b.mod.Items = append(b.mod.Items, decl)

		for _, m := range markers {
			if m.Name == bridge.MarkerPackage {
				b.mod.Packages[ts.Name.Name] = m.Value
			}
		}
	}
}

// addMethod attaches a method to its self type's block, creating the block
// on first sight.
func (b *builder) addMethod(d *ast.FuncDecl) {
	recvType := d.Recv.List[0].Type
	byRef := false
	if star, ok := recvType.(*ast.StarExpr); ok {
		byRef = true
		recvType = star.X
	}
	// Generic self types appear as index expressions on the receiver.
	var envParams []string
	switch t := recvType.(type) {
	case *ast.IndexExpr:
		if id, ok := t.Index.(*ast.Ident); ok {
			envParams = []string{id.Name}
		}
		recvType = t.X
	case *ast.IndexListExpr:
		for _, idx := range t.Indices {
			if id, ok := idx.(*ast.Ident); ok {
				envParams = append(envParams, id.Name)
			}
		}
		recvType = t.X
	}
	ident, ok := recvType.(*ast.Ident)
	if !ok {
		return
	}

	block, exists := b.blocks[ident.Name]
	if !exists {
		block = &bridge.MethodBlock{
			SpanVal:       b.span(d.Pos(), d.End()),
			SelfType:      ident.Name,
			SelfEnvParams: envParams,
		}
		b.blocks[ident.Name] = block
		b.order = append(b.order, ident.Name)
		b.mod.Items = append(b.mod.Items, block)
	}

	m := &bridge.Method{
		SpanVal:     b.span(d.Pos(), d.End()),
		Name:        d.Name.Name,
		Public:      ast.IsExported(d.Name.Name),
		HasReceiver: true,
		RecvByRef:   byRef,
		RecvMutable: byRef,
	}
	applyMarkers(m, b.parseDoc(d.Doc))

	for _, field := range d.Type.Params.List {
		t := b.typeRef(field.Type)
		for _, name := range field.Names {
			m.Params = append(m.Params, bridge.Param{
				SpanVal: b.span(field.Pos(), field.End()),
				Name:    name.Name,
				Type:    t,
			})
		}
	}
	if d.Type.Results != nil && len(d.Type.Results.List) == 1 {
		ret := b.typeRef(d.Type.Results.List[0].Type)
		m.Return = &ret
	}

	block.Methods = append(block.Methods, m)
}

// typeRef maps a Go syntax type to the bridge's written form. Anything the
// protocol cannot look into becomes opaque and is diagnosed at rewrite
// time, not here.
func (b *builder) typeRef(expr ast.Expr) bridge.TypeRef {
	switch t := expr.(type) {
	case *ast.Ident:
		return bridge.Named(t.Name)
	case *ast.StarExpr:
		return bridge.RefTo(b.typeRef(t.X), true)
	case *ast.ArrayType:
		if t.Len == nil {
			return bridge.SliceOf(b.typeRef(t.Elt))
		}
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			return bridge.Named(pkg.Name + "." + t.Sel.Name)
		}
	}
	return bridge.TypeRef{Kind: bridge.TypeOpaque, Raw: exprString(expr)}
}

func (b *builder) parseDoc(doc *ast.CommentGroup) []bridge.Marker {
	if doc == nil {
		return nil
	}
	var markers []bridge.Marker
	for _, c := range doc.List {
		m, ok, err := ParseDirective(c.Text)
		if err != nil {
			b.diags.Errorf(b.span(c.Pos(), c.End()), "%v", err)
			continue
		}
		if ok {
			m.SpanVal = b.span(c.Pos(), c.End())
			markers = append(markers, m)
		}
	}
	return markers
}

func (b *builder) span(start, end token.Pos) bridge.Span {
	s := b.fset.Position(start)
	e := b.fset.Position(end)
	return bridge.MakeSpan(
		bridge.Position{Offset: s.Offset, Line: s.Line, Column: s.Column},
		bridge.Position{Offset: e.Offset, Line: e.Line, Column: e.Column},
	)
}

func (b *builder) finish() *bridge.Module {
	return b.mod
}

func typeParamNames(params *ast.FieldList) []string {
	if params == nil {
		return nil
	}
	var names []string
	for _, field := range params.List {
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
	}
	return names
}

func exprString(expr ast.Expr) string {
	return types.ExprString(expr)
}
