// Package introspect builds a bridge module from an annotated Go package.
// It is the declarative front-end: it collects //robusta: directives into
// structural metadata and normalizes them onto the declaration records the
// transformation core consumes.
package introspect

import (
	"fmt"
	"strings"

	"github.com/EchidnaHQ/robusta/bridge"
)

// directivePrefix introduces a robusta directive comment.
const directivePrefix = "//robusta:"

// ParseDirective parses one comment line. It returns the marker and true
// when the line is a robusta directive, or an error for a directive with a
// malformed payload.
func ParseDirective(line string) (bridge.Marker, bool, error) {
	if !strings.HasPrefix(line, directivePrefix) {
		return bridge.Marker{}, false, nil
	}
	rest := strings.TrimPrefix(line, directivePrefix)
	name, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)

	switch name {
	case bridge.MarkerPackage:
		if value == "" {
			return bridge.Marker{}, false, fmt.Errorf("robusta:package needs a Java package path")
		}
		return bridge.Marker{Name: bridge.MarkerPackage, Value: value}, true, nil

	case bridge.MarkerExport, bridge.MarkerImport:
		if value != "" {
			return bridge.Marker{}, false, fmt.Errorf("robusta:%s takes no argument (got %q)", name, value)
		}
		return bridge.Marker{Name: name}, true, nil

	case bridge.MarkerCallType:
		switch value {
		case "safe", "unchecked":
			return bridge.Marker{Name: bridge.MarkerCallType, Value: value}, true, nil
		}
		return bridge.Marker{}, false, fmt.Errorf("robusta:calltype must be safe or unchecked (got %q)", value)

	default:
		return bridge.Marker{}, false, fmt.Errorf("unknown directive robusta:%s", name)
	}
}

// ParseDirectives parses every directive in a doc comment, in order.
func ParseDirectives(doc string) ([]bridge.Marker, []error) {
	var markers []bridge.Marker
	var errs []error
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		m, ok, err := ParseDirective(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			markers = append(markers, m)
		}
	}
	return markers, errs
}

// applyMarkers normalizes parsed markers onto a method record's tag
// fields, so the core never re-parses raw metadata.
func applyMarkers(m *bridge.Method, markers []bridge.Marker) {
	for _, marker := range markers {
		switch marker.Name {
		case bridge.MarkerExport:
			m.Convention = bridge.ConventionJNI
		case bridge.MarkerImport:
			m.Convention = bridge.ConventionJava
		case bridge.MarkerCallType:
			if marker.Value == "unchecked" {
				m.CallType = bridge.CallUnchecked
			} else {
				m.CallType = bridge.CallSafe
			}
		}
	}
	m.Markers = markers
}
