// In-memory validation of rendered Go source using go/parser, so a
// malformed generated file is caught before it is written for the host
// toolchain.

package gen

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// ValidationError represents a validation error with position info.
type ValidationError struct {
	Line     int
	Column   int
	Function string // entry point containing the error
	Message  string
}

// CodeValidator validates rendered Go source code in-memory.
type CodeValidator struct {
	fset     *token.FileSet
	filename string
}

// NewCodeValidator creates a validator for the given filename (used in
// error messages).
func NewCodeValidator(filename string) *CodeValidator {
	return &CodeValidator{filename: filename}
}

// Validate parses the source and returns any syntax errors, attributed to
// the entry point they occur in.
func (cv *CodeValidator) Validate(source string) []ValidationError {
	cv.fset = token.NewFileSet()

	if _, err := parser.ParseFile(cv.fset, cv.filename, source, parser.AllErrors); err != nil {
		return cv.parseErrorsToValidationErrors(err)
	}
	return nil
}

// Symbols returns the names of the top-level functions declared in the
// source, in declaration order. Callers use it to check that every expected
// entry point survived rendering.
func (cv *CodeValidator) Symbols(source string) ([]string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, cv.filename, source, 0)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil {
			names = append(names, fn.Name.Name)
		}
	}
	return names, nil
}

func (cv *CodeValidator) parseErrorsToValidationErrors(err error) []ValidationError {
	var out []ValidationError
	if list, ok := err.(scanner.ErrorList); ok {
		for _, e := range list {
			out = append(out, ValidationError{
				Line:    e.Pos.Line,
				Column:  e.Pos.Column,
				Message: e.Msg,
			})
		}
		return out
	}
	return []ValidationError{{Line: 1, Column: 1, Message: err.Error()}}
}

// FormatValidationErrors returns a human-readable error report.
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, err := range errors {
		sb.WriteString("  ")
		if err.Function != "" {
			sb.WriteString(err.Function)
			sb.WriteString(": ")
		}
		sb.WriteString(err.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}
