package transform

import "github.com/EchidnaHQ/robusta/bridge"

// bindImported rebinds an imported method's receiver: the implicit receiver
// is erased into an explicit, uniquely-named leading parameter exactly as
// for exported methods, and nothing else changes. No symbol mangling, no
// ABI change, no environment injection, no type substitution; the visible
// signature must remain what host callers expect, and the body that
// performs the actual JVM call is the conversion protocol's to produce.
func bindImported(names *Namespace, typeName string, m *bridge.Method) *bridge.Method {
	out := cloneMethod(m)
	out.Convention = bridge.ConventionNone
	out.Markers = stripMarkers(out.Markers)

	if !m.HasReceiver {
		return out
	}

	recvType := bridge.Named(typeName)
	if m.RecvByRef {
		recvType = bridge.RefTo(recvType, m.RecvMutable)
	}
	out.HasReceiver = false
	out.RecvByRef = false
	out.RecvMutable = false
	out.Params = append([]bridge.Param{{
		SpanVal: m.SpanVal,
		Name:    names.ReceiverName(typeName, m.Name),
		Type:    recvType,
	}}, out.Params...)
	return out
}

// cloneMethod copies a method so the input tree stays immutable.
func cloneMethod(m *bridge.Method) *bridge.Method {
	out := *m
	out.Params = append([]bridge.Param(nil), m.Params...)
	out.Markers = append([]bridge.Marker(nil), m.Markers...)
	if m.Return != nil {
		ret := *m.Return
		out.Return = &ret
	}
	return &out
}
