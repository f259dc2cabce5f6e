package latex

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// maxIncludeDepth bounds recursive inclusion so circular includes terminate.
const maxIncludeDepth = 10

var includeRe = regexp.MustCompile(`\\(?:input|include)\{([^}]+)\}`)

// ResolveIncludes inlines \input{} and \include{} directives recursively.
// Paths are resolved against dir, the directory of the including file.
// Files that do not exist leave the directive untouched.
func ResolveIncludes(text, dir string) string {
	return resolveIncludes(text, dir, 0)
}

func resolveIncludes(text, dir string, depth int) string {
	if depth > maxIncludeDepth {
		return text
	}

	return includeRe.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(includeRe.FindStringSubmatch(match)[1])
		if !strings.HasSuffix(name, ".tex") {
			name += ".tex"
		}
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return match
		}
		return resolveIncludes(toValidUTF8(data), filepath.Dir(path), depth+1)
	})
}

// toValidUTF8 decodes file bytes leniently, replacing invalid sequences.
func toValidUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
