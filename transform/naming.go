// Package transform implements the single-pass rewrite of a bridge module:
// package resolution, method role classification, signature rewriting of
// exported methods into native entry points, and receiver binding of
// imported methods.
package transform

import (
	"fmt"
	"strings"
)

// Namespace generates identifiers that are unique across one whole pass.
// It is threaded through the transform explicitly so independent passes
// stay deterministic; there is no global counter.
type Namespace struct {
	counts map[string]int
}

// NewNamespace creates an empty naming namespace.
func NewNamespace() *Namespace {
	return &Namespace{counts: make(map[string]int)}
}

// Unique returns base with a disambiguating suffix. Repeated calls with the
// same base keep counting up, so two generated bindings never collide even
// when their natural names do.
func (n *Namespace) Unique(base string) string {
	c := n.counts[base]
	n.counts[base] = c + 1
	return fmt.Sprintf("%s_%d", base, c)
}

// ReceiverName returns the unique generated name for an erased receiver of
// the given type and method.
func (n *Namespace) ReceiverName(typeName, method string) string {
	return n.Unique("receiver_" + typeName + "_" + method)
}

// JNISymbolName composes the symbol a JVM's dynamic loader resolves for a
// native method: Java_<package with dots replaced>_<Type>_<method>. This
// format is the wire contract with the JVM and must not change.
func JNISymbolName(pkg, typeName, method string) string {
	return "Java_" + strings.ReplaceAll(pkg, ".", "_") + "_" + typeName + "_" + method
}
