// Package pipeline orchestrates the initialize/compile/clear entry
// points, wiring the baseline index, patch compiler, structural differ,
// generic-call closure, IL rewriter, and hook manifest builder into one
// request-scoped control flow.
package pipeline

import (
	"github.com/hotreloadd/compileserver/internal/assemblyctx"
	"github.com/hotreloadd/compileserver/internal/hookcache"
)

// InitializeRequest is the wire shape of POST /api/initialize.
type InitializeRequest struct {
	AssemblyContexts    map[string]assemblyctx.Context `json:"assemblyContexts"`
	PreprocessorSymbols []string                        `json:"preprocessorSymbols"`
	ProjectPath         string                          `json:"projectPath"`
}

// CompileRequest is the wire shape of POST /api/compile. The timestamp
// values are advisory only; the differ is content-based.
type CompileRequest struct {
	ChangedFiles map[string]string `json:"changedFiles"` // absolute_path -> last_modified_iso8601
}

// CompileResponse is the wire shape returned by POST /api/compile.
type CompileResponse struct {
	Success             bool                               `json:"success"`
	ErrorMessage        string                              `json:"errorMessage,omitempty"`
	ElapsedMilliseconds int64                               `json:"elapsedMilliseconds"`
	HookTypeInfos       map[string]*hookcache.HookTypeInfo `json:"hookTypeInfos"`
}
