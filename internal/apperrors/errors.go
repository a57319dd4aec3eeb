// Package apperrors groups the server's sentinel errors by the error
// kind the transport layer must report them as.
package apperrors

import "errors"

// Kind classifies a recoverable pipeline failure into one of the
// response shapes the compile endpoint must produce.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotInitialized
	KindUnknownAssembly
	KindCompileError
	KindDiffInternal
	KindRewriteInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotInitialized:
		return "NotInitialized"
	case KindUnknownAssembly:
		return "UnknownAssembly"
	case KindCompileError:
		return "CompileError"
	case KindDiffInternal:
		return "DiffInternal"
	case KindRewriteInternal:
		return "RewriteInternal"
	default:
		return "Unknown"
	}
}

var (
	// Initialization errors
	ErrNotInitialized   = errors.New("compile requested before initialize")
	ErrCorruptBaseline  = errors.New("corrupt or unreadable baseline module")
	ErrReferenceMissing = errors.New("reference assembly path does not exist")

	// Assembly-resolution errors
	ErrUnknownAssembly    = errors.New("changed file maps to no known assembly")
	ErrAllFilesUnknown    = errors.New("every changed file maps to no known assembly")
	ErrSourcePartitioning = errors.New("source file claimed by more than one assembly")

	// Compilation errors
	ErrCompileFailed  = errors.New("compiler emitted one or more errors")
	ErrCompilerExited = errors.New("compiler process exited abnormally")

	// Differ errors
	ErrCorruptPatchModule = errors.New("patch module metadata is unreadable")
	ErrUnresolvedLatest   = errors.New("could not resolve latest method definition")

	// Rewriter errors
	ErrFieldResolverSymbolMissing = errors.New("field resolver contract symbol missing")
	ErrInvalidRewrittenIL         = errors.New("rewriter produced invalid IL")

	// Fatal, process-exiting errors
	ErrOutOfDisk         = errors.New("out of disk space")
	ErrStartupCorruption = errors.New("corrupt baseline detected at startup")
)

// kindTable maps each sentinel to the Kind the transport layer reports.
var kindTable = map[error]Kind{
	ErrNotInitialized: KindNotInitialized,

	ErrUnknownAssembly: KindUnknownAssembly,
	ErrAllFilesUnknown: KindUnknownAssembly,

	ErrCompileFailed:  KindCompileError,
	ErrCompilerExited: KindCompileError,

	ErrCorruptPatchModule: KindDiffInternal,
	ErrUnresolvedLatest:   KindDiffInternal,
	ErrCorruptBaseline:    KindDiffInternal,

	ErrFieldResolverSymbolMissing: KindRewriteInternal,
	ErrInvalidRewrittenIL:         KindRewriteInternal,
}

// KindOf walks err's wrap chain and returns the Kind of the first
// sentinel it recognizes, or KindUnknown.
func KindOf(err error) Kind {
	for sentinel, kind := range kindTable {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// IsFatal reports whether err should terminate the process rather than
// be reported as a failed CompileResponse.
func IsFatal(err error) bool {
	return errors.Is(err, ErrOutOfDisk) || errors.Is(err, ErrStartupCorruption)
}
