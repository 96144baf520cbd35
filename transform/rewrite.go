package transform

import (
	"errors"

	"github.com/EchidnaHQ/robusta/bridge"
	"github.com/EchidnaHQ/robusta/convert"
)

// envParam is the conventional name of the environment parameter a bridged
// type may carry. The rewriter reuses it rather than injecting a second one.
const envParam = "env"

// exportRewriter turns one exported method into a freestanding native
// entry point: mangled symbol name, erased receiver, threaded environment
// parameter, and parameter/return types substituted through the conversion
// protocol.
type exportRewriter struct {
	typeName      string
	pkg           string
	selfEnvParams []string
	names         *Namespace
	reg           *convert.Registry
	diags         *bridge.Diagnostics
}

// rewrite produces the entry point for m, or false if the method cannot be
// correctly rewritten. Failures are recorded as diagnostics; the caller
// keeps processing other methods.
func (x *exportRewriter) rewrite(m *bridge.Method) (*bridge.FuncDecl, bool) {
	fd := &bridge.FuncDecl{
		SpanVal:   m.SpanVal,
		Name:      JNISymbolName(x.pkg, x.typeName, m.Name),
		Public:    true,
		NoMangle:  true,
		NativeABI: true,
		Export: &bridge.Export{
			TypeName: x.typeName,
			Method:   m.Name,
			CallType: m.CallType,
		},
	}

	// Receiver erasure: an instance method's implicit receiver becomes an
	// explicit leading parameter of the declared type, bound to a name
	// that is unique across the whole module.
	if m.HasReceiver {
		if !x.threadEnvParams(fd, m) {
			return nil, false
		}
		recv := x.names.ReceiverName(x.typeName, m.Name)
		recvType := bridge.Named(x.typeName)
		if m.RecvByRef {
			recvType = bridge.RefTo(recvType, m.RecvMutable)
		}
		fd.Params = append(fd.Params, bridge.Param{
			SpanVal: m.SpanVal,
			Name:    recv,
			Type:    recvType,
		})
		fd.Export.Receiver = recv
		fd.Export.RecvByRef = m.RecvByRef
	} else {
		fd.EnvParams = []string{envParam}
	}

	// Type substitution: parameters take the conversion Source, the
	// return takes the conversion Target, in the family the method's
	// call type selects.
	for _, p := range m.Params {
		conv, err := x.reg.Lookup(p.Type, m.CallType)
		if err != nil {
			x.substitutionError(p.SpanVal, err)
			return nil, false
		}
		fd.Params = append(fd.Params, bridge.Param{
			SpanVal: p.SpanVal,
			Name:    p.Name,
			Type:    conv.Source,
		})
	}
	if m.Return != nil {
		conv, err := x.reg.Lookup(*m.Return, m.CallType)
		if err != nil {
			x.substitutionError(m.SpanVal, err)
			return nil, false
		}
		target := conv.Target
		fd.Return = &target
	}

	fd.Export.HostParams = append([]bridge.Param(nil), m.Params...)
	if m.Return != nil {
		ret := *m.Return
		fd.Export.HostReturn = &ret
	}

	return fd, true
}

// threadEnvParams reuses the self type's environment parameter and injects
// the call environment exactly once, appended after any reused parameters.
// A self type that carries generic parameters but no environment parameter
// cannot support instance methods.
func (x *exportRewriter) threadEnvParams(fd *bridge.FuncDecl, m *bridge.Method) bool {
	if len(x.selfEnvParams) > 0 && !containsEnv(x.selfEnvParams) {
		x.diags.Errorf(m.SpanVal,
			"type `%s` must carry exactly one environment lifetime to support instance methods",
			x.typeName)
		return false
	}
	for _, p := range x.selfEnvParams {
		if p != envParam {
			fd.EnvParams = append(fd.EnvParams, p)
		}
	}
	fd.EnvParams = append(fd.EnvParams, envParam)
	return true
}

func (x *exportRewriter) substitutionError(span bridge.Span, err error) {
	if errors.Is(err, convert.ErrNotNominal) {
		x.diags.Errorf(span, "%v", err)
		return
	}
	x.diags.Errorf(span, "cannot substitute type: %v", err)
}

func containsEnv(params []string) bool {
	for _, p := range params {
		if p == envParam {
			return true
		}
	}
	return false
}
