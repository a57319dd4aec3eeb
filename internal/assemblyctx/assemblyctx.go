// Package assemblyctx defines the assembly-context input shape shared
// by the baseline index, the patch compiler, and the wire-level
// InitializeRequest.
package assemblyctx

// Reference is one reference assembly: a display name and its path on
// disk.
type Reference struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Context is one assembly's full compile context: a name, a baseline
// module path (DLL plus debug symbols), an ordered list of reference
// paths, the source files owned by this assembly, an unsafe-code flag,
// and the preprocessor symbols active when the baseline was built.
//
// Invariant: SourceFiles partitions the full project's source files, a
// given file belongs to exactly one assembly. Violations are caught at
// initialize time (see baseline.Index.Initialize).
type Context struct {
	Name                 string      `json:"name"`
	OutputPath           string      `json:"outputPath"`
	SourceFiles          []string    `json:"sourceFiles"`
	References           []Reference `json:"references"`
	PreprocessorDefines  []string    `json:"preprocessorDefines"`
	AllowUnsafeCode      bool        `json:"allowUnsafeCode"`
}
