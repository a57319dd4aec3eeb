// Package patchcompile selects compilation inputs, injects the
// access-check-suppression attribute, renames extension-method
// containers, and emits the patch module.
package patchcompile

import (
	"context"

	"github.com/hotreloadd/compileserver/internal/assemblyctx"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
)

// Diagnostic is one compiler diagnostic.
type Diagnostic struct {
	Severity string // "Error" or "Warning"
	Message  string
	File     string
	Line     int
	Column   int
}

// Diagnostics is a list of Diagnostic with a helper for the
// concatenated-error-message shape CompileError responses require.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic is of Error severity.
func (d Diagnostics) HasErrors() bool {
	for _, diag := range d {
		if diag.Severity == "Error" {
			return true
		}
	}
	return false
}

// Concatenated renders every Error diagnostic as "<file>(<line>,<col>): <message>",
// one per line, for the CompileResponse.ErrorMessage field.
func (d Diagnostics) Concatenated() string {
	var out string
	for _, diag := range d {
		if diag.Severity != "Error" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += diag.File + "(" + itoa(diag.Line) + "," + itoa(diag.Column) + "): " + diag.Message
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Input is everything needed to compile one assembly's changed files.
type Input struct {
	Context    assemblyctx.Context
	Files      []string // resolved compilation-input file set (post-selection)
	BaselinePath string // compiled against as a reference for access-check suppression
	// RenameLedger, if non-nil, receives the extension-method rename
	// applied to the emitted module so the caller can RestoreNames
	// before diffing. Left nil, Compile leaves extension-method names
	// untouched.
	RenameLedger *RenameLedger
}

// Compiler compiles Input into a patch ilmodel.Module. The real
// implementation shells out to an external C#-class toolchain;
// FixtureCompiler builds a module directly from a declarative fixture
// for tests.
type Compiler interface {
	Compile(ctx context.Context, in Input) (*ilmodel.Module, Diagnostics, error)
}
