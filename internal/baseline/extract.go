package baseline

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/hotreloadd/compileserver/internal/textutil"
)

// declaredType is one type declaration found while scanning a source
// file, before nested-name joining.
type declaredType struct {
	Name     string
	IsNested bool
	Depth    int
}

var (
	reUsing    = regexp.MustCompile(`^\s*using\s+(?:static\s+)?([A-Za-z_][\w.]*)\s*;`)
	reTypeDecl = regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:public|internal|protected|private|static|sealed|abstract|partial|unsafe|readonly)*\s*(class|struct|interface|enum)\s+([A-Za-z_][\w]*)`)
)

// scanSource extracts global imports (using directives) and the set of
// declared type names (including nested types, joined "Outer/Inner")
// from one source file's text. It is a line-oriented extension of the
// teacher's regex-based C# symbol extraction, generalized from
// "first type in file" to every declared type at every nesting depth,
// tracked via brace depth.
func scanSource(data []byte) (imports []string, types []string) {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var stack []string // names of currently-open type scopes, by brace depth
	depth := 0
	typeOpenDepth := map[int]bool{}

	for scanner.Scan() {
		line := scanner.Text()

		if m := reUsing.FindStringSubmatch(line); m != nil {
			imports = append(imports, m[1])
		}

		if m := reTypeDecl.FindStringSubmatch(line); m != nil {
			name := m[2]
			full := name
			if len(stack) > 0 {
				full = strings.Join(stack, "/") + "/" + name
			}
			types = append(types, full)
			stack = append(stack, name)
			typeOpenDepth[depth] = true
			// The opening brace for this type may be on this line or a
			// following one; either way the push happens now and the
			// pop happens when we return to this depth.
		}

		opens := strings.Count(line, "{")
		closes := strings.Count(line, "}")
		for i := 0; i < opens; i++ {
			depth++
		}
		for i := 0; i < closes; i++ {
			if depth > 0 {
				depth--
			}
			if typeOpenDepth[depth] {
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				delete(typeOpenDepth, depth)
			}
		}
	}
	return uniqueStrings(imports), types
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// readFile normalizes CRLF line endings before scanning: the regexes in
// this file are line-oriented and a stray \r left at end-of-line would
// otherwise leak into captured using/type names on Windows-authored
// source trees.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return textutil.NormalizeUTF8LF(data), nil
}
