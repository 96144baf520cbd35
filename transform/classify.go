package transform

import "github.com/EchidnaHQ/robusta/bridge"

// Role is what a method becomes in the rewritten module.
type Role int

const (
	// RoleUnexported methods pass through untouched.
	RoleUnexported Role = iota
	// RoleExported methods become native entry points the JVM calls.
	RoleExported
	// RoleImported methods call into the JVM; only their receiver is
	// rebound, their visible signature stays what host callers expect.
	RoleImported
)

func (r Role) String() string {
	switch r {
	case RoleExported:
		return "exported"
	case RoleImported:
		return "imported"
	default:
		return "unexported"
	}
}

// Classify assigns a method its role. The decision is a pure function of
// visibility and the calling-convention marker; no conversion lookup
// happens at this stage.
func Classify(m *bridge.Method) Role {
	if m.Convention == bridge.ConventionJava {
		return RoleImported
	}
	if m.Public && m.Convention == bridge.ConventionJNI {
		return RoleExported
	}
	return RoleUnexported
}

// RoleTagged pairs a method with its role, preserving the method's
// original position in the block.
type RoleTagged struct {
	Method *bridge.Method
	Role   Role
}

// ClassifyBlock classifies every method of a block in declaration order.
func ClassifyBlock(b *bridge.MethodBlock) []RoleTagged {
	tagged := make([]RoleTagged, 0, len(b.Methods))
	for _, m := range b.Methods {
		tagged = append(tagged, RoleTagged{Method: m, Role: Classify(m)})
	}
	return tagged
}
