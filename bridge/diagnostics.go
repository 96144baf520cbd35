package bridge

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning never halts a pass.
	SeverityWarning Severity = iota
	// SeverityError marks an item that could not be transformed. The pass
	// still runs to completion over the remaining items.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one problem found during a transformation pass.
type Diagnostic struct {
	Severity Severity
	Message  string
	SpanVal  Span
}

func (d Diagnostic) String() string {
	if d.SpanVal.Start.Line > 0 {
		return fmt.Sprintf("%s: line %d, column %d: %s",
			d.Severity, d.SpanVal.Start.Line, d.SpanVal.Start.Column, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Diagnostics accumulates problems during one pass. It is returned alongside
// the rewritten tree, never thrown and never global, so a single run reports
// every problem it finds.
type Diagnostics struct {
	list []Diagnostic
}

// Warningf records a warning at the given span.
func (d *Diagnostics) Warningf(span Span, format string, args ...any) {
	d.list = append(d.list, Diagnostic{
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		SpanVal:  span,
	})
}

// Errorf records an error at the given span.
func (d *Diagnostics) Errorf(span Span, format string, args ...any) {
	d.list = append(d.list, Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		SpanVal:  span,
	})
}

// All returns the accumulated diagnostics in emission order.
func (d *Diagnostics) All() []Diagnostic {
	return d.list
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	for _, diag := range d.list {
		if diag.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of accumulated diagnostics.
func (d *Diagnostics) Len() int {
	return len(d.list)
}
