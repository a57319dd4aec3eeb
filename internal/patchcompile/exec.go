package patchcompile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hotreloadd/compileserver/internal/apperrors"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
)

// ExecCompiler shells out to an external C#-class toolchain ("dotnet
// build" or a bare "csc" invocation, selected by ToolPath/ToolArgs) and
// loads the result through ilmodel.Codec. This mirrors the
// "interface over an external backend" shape used for multi-backend
// native compilation elsewhere in the retrieval pack, specialized here
// to a single external compiler.
type ExecCompiler struct {
	ToolPath string   // e.g. "dotnet"
	ToolArgs []string // e.g. {"build", "--nologo"}
	WorkDir  string   // scratch directory the compiler writes intermediate output into
	Codec    ilmodel.Codec
}

// diagnosticLine matches MSBuild/csc-style diagnostic output:
// "File.cs(12,5): error CS0103: message".
var diagnosticLine = regexp.MustCompile(`^(.*)\((\d+),(\d+)\):\s+(error|warning)\s+\w+:\s+(.*)$`)

func (c ExecCompiler) Compile(ctx context.Context, in Input) (*ilmodel.Module, Diagnostics, error) {
	if err := os.MkdirAll(c.WorkDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("patchcompile: prepare workdir: %w", err)
	}

	attrPath := filepath.Join(c.WorkDir, "__IgnoresAccessChecksTo.cs")
	if err := os.WriteFile(attrPath, []byte(IgnoresAccessChecksToSource(in.Context.Name)), 0o644); err != nil {
		return nil, nil, fmt.Errorf("patchcompile: write access-check attribute: %w", err)
	}

	args := append([]string{}, c.ToolArgs...)
	args = append(args, attrPath)
	args = append(args, in.Files...)
	for _, ref := range in.Context.References {
		args = append(args, "-reference:"+ref.Path)
	}
	args = append(args, "-reference:"+in.BaselinePath)
	if in.Context.AllowUnsafeCode {
		args = append(args, "-unsafe")
	}
	for _, d := range in.Context.PreprocessorDefines {
		args = append(args, "-define:"+d)
	}

	cmd := exec.CommandContext(ctx, c.ToolPath, args...)
	cmd.Dir = c.WorkDir
	out, runErr := cmd.CombinedOutput()

	diags := parseDiagnostics(string(out))
	if diags.HasErrors() {
		return nil, diags, apperrors.ErrCompileFailed
	}
	if runErr != nil {
		return nil, diags, fmt.Errorf("patchcompile: %s: %w", c.ToolPath, runErr)
	}

	outputPath := filepath.Join(c.WorkDir, in.Context.Name+".dll")
	mod, err := c.Codec.Load(outputPath)
	if err != nil {
		return nil, diags, fmt.Errorf("patchcompile: load emitted module: %w", err)
	}
	if in.RenameLedger != nil {
		ApplyRenames(mod, in.RenameLedger)
	}
	return mod, diags, nil
}

func parseDiagnostics(output string) Diagnostics {
	var out Diagnostics
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		m := diagnosticLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		sev := "Warning"
		if m[4] == "error" {
			sev = "Error"
		}
		out = append(out, Diagnostic{Severity: sev, File: m[1], Line: line, Column: col, Message: m[5]})
	}
	return out
}
