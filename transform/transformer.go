package transform

import (
	"github.com/EchidnaHQ/robusta/bridge"
	"github.com/EchidnaHQ/robusta/convert"
)

// Transformer rewrites one module: it resolves packages, classifies every
// method, rewrites exported methods into native entry points, rebinds
// imported methods, and strips declaration-stage metadata everywhere else.
// The input module is never mutated; Transform returns a new module plus
// every diagnostic found along the way. The pass always runs to
// completion: a failed item is recorded and the others still transform.
type Transformer struct {
	mod      *bridge.Module
	names    *Namespace
	reg      *convert.Registry
	resolver *Resolver
	diags    bridge.Diagnostics
}

// New creates a transformer for one pass over mod.
func New(mod *bridge.Module) *Transformer {
	t := &Transformer{
		mod:   mod,
		names: NewNamespace(),
		reg:   convert.NewRegistry(mod.Packages),
	}
	t.resolver = NewResolver(mod.Packages, &t.diags)
	return t
}

// Transform runs the pass and returns the rewritten module and the ordered
// diagnostics.
func (t *Transformer) Transform() (*bridge.Module, []bridge.Diagnostic) {
	out := &bridge.Module{
		SpanVal:  t.mod.SpanVal,
		Name:     t.mod.Name,
		Packages: t.mod.Packages,
	}

	// Generated code needs the conversion protocol and the JNI handle
	// types in scope; the bindings are injected once per module.
	out.Items = append(out.Items, &bridge.ImportsDecl{
		Paths: []string{convert.Pkg, convert.JNIPkg},
	})

	for _, item := range t.mod.Items {
		out.Items = append(out.Items, t.transformItem(item)...)
	}

	return out, t.diags.All()
}

// transformItem rewrites one top-level item. Method blocks may expand into
// several items: the shrunk block followed by its generated entry points,
// appended immediately after it and never reordered past other items.
func (t *Transformer) transformItem(item bridge.Item) []bridge.Item {
	switch n := item.(type) {
	case *bridge.MethodBlock:
		return t.transformBlock(n)

	case *bridge.StructDecl:
		out := *n
		out.Fields = append([]bridge.Field(nil), n.Fields...)
		out.Markers = stripMarkers(n.Markers)
		return []bridge.Item{&out}

	case *bridge.ModDecl:
		out := bridge.ModDecl{
			SpanVal: n.SpanVal,
			Name:    n.Name,
			Markers: stripMarkers(n.Markers),
		}
		for _, inner := range n.Items {
			out.Items = append(out.Items, t.transformItem(inner)...)
		}
		return []bridge.Item{&out}

	case *bridge.FuncDecl:
		out := *n
		out.Params = append([]bridge.Param(nil), n.Params...)
		out.Markers = stripMarkers(n.Markers)
		return []bridge.Item{&out}

	case *bridge.ConstDecl:
		out := *n
		out.Markers = stripMarkers(n.Markers)
		return []bridge.Item{&out}

	case *bridge.RawItem:
		out := *n
		out.Markers = stripMarkers(n.Markers)
		return []bridge.Item{&out}

	default:
		return []bridge.Item{item}
	}
}

// transformBlock rewrites one method block. A block whose self type has no
// resolved package is emitted unmodified: partially rewriting it would
// leave an uncallable mixture of mangled and plain symbols.
func (t *Transformer) transformBlock(b *bridge.MethodBlock) []bridge.Item {
	pkg, ok := t.resolver.Resolve(b.SelfType)
	if !ok {
		t.diags.Warningf(b.SpanVal, "can't find package for type `%s`", b.SelfType)
		return []bridge.Item{cloneBlock(b)}
	}

	rewriter := &exportRewriter{
		typeName:      b.SelfType,
		pkg:           pkg,
		selfEnvParams: b.SelfEnvParams,
		names:         t.names,
		reg:           t.reg,
		diags:         &t.diags,
	}

	preserved := &bridge.MethodBlock{
		SpanVal:       b.SpanVal,
		SelfType:      b.SelfType,
		SelfEnvParams: append([]string(nil), b.SelfEnvParams...),
		Markers:       stripMarkers(b.Markers),
	}
	var generated []bridge.Item

	for _, tagged := range ClassifyBlock(b) {
		switch tagged.Role {
		case RoleExported:
			// The original declaration stays in the block with its
			// declaration-stage markers dropped; the entry point is
			// emitted as a new freestanding item after the block.
			preserved.Methods = append(preserved.Methods, cleanExported(tagged.Method))
			if fd, ok := rewriter.rewrite(tagged.Method); ok {
				generated = append(generated, fd)
			}
		case RoleImported:
			preserved.Methods = append(preserved.Methods, bindImported(t.names, b.SelfType, tagged.Method))
		default:
			preserved.Methods = append(preserved.Methods, cloneMethod(tagged.Method))
		}
	}

	return append([]bridge.Item{preserved}, generated...)
}

// cleanExported drops the attributes that only had meaning at the
// declaration stage from a method that stays in its block.
func cleanExported(m *bridge.Method) *bridge.Method {
	out := cloneMethod(m)
	out.Convention = bridge.ConventionNone
	out.Markers = stripMarkers(out.Markers)
	return out
}

// cloneBlock deep-copies a method block unchanged.
func cloneBlock(b *bridge.MethodBlock) *bridge.MethodBlock {
	out := &bridge.MethodBlock{
		SpanVal:       b.SpanVal,
		SelfType:      b.SelfType,
		SelfEnvParams: append([]string(nil), b.SelfEnvParams...),
		Markers:       append([]bridge.Marker(nil), b.Markers...),
	}
	for _, m := range b.Methods {
		out.Methods = append(out.Methods, cloneMethod(m))
	}
	return out
}

// stripMarkers removes the markers that have no meaning outside this
// transformation. Unknown markers are carried through.
func stripMarkers(markers []bridge.Marker) []bridge.Marker {
	var kept []bridge.Marker
	for _, m := range markers {
		switch m.Name {
		case bridge.MarkerPackage, bridge.MarkerExport, bridge.MarkerImport, bridge.MarkerCallType:
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
