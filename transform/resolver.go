package transform

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/EchidnaHQ/robusta/bridge"
)

// Resolver maps a declared type name to its fully-qualified Java package.
// Malformed package paths are rejected when the resolver is built, before
// any classification is attempted, and their entries removed so the types
// degrade to passthrough.
type Resolver struct {
	packages map[string]string
}

// NewResolver validates the module's package map and returns a resolver
// over the well-formed entries. Each malformed path records one error
// diagnostic.
func NewResolver(packages map[string]string, diags *bridge.Diagnostics) *Resolver {
	valid := make(map[string]string, len(packages))
	for name, pkg := range packages {
		if err := ValidateJavaPath(pkg); err != nil {
			diags.Errorf(bridge.ZeroSpan(), "invalid package for type `%s`: %v", name, err)
			continue
		}
		valid[name] = pkg
	}
	return &Resolver{packages: valid}
}

// Resolve returns the Java package of a declared type, if known.
func (r *Resolver) Resolve(typeName string) (string, bool) {
	pkg, ok := r.packages[typeName]
	return pkg, ok
}

// ValidateJavaPath checks that a string is a well-formed dot-separated Java
// package or class path.
func ValidateJavaPath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if strings.Contains(path, "-") {
		return fmt.Errorf("packages and classes cannot contain dashes")
	}
	for _, segment := range strings.Split(path, ".") {
		if !isJavaIdentifier(segment) {
			return fmt.Errorf("%q is not a valid Java identifier", segment)
		}
	}
	return nil
}

// isJavaIdentifier reports whether s is a valid Java identifier.
func isJavaIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := unicode.IsLetter(r) || r == '_' || r == '$'
		if i == 0 {
			if !letter {
				return false
			}
			continue
		}
		if !letter && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
