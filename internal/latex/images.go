package latex

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
)

// imageExtensions is probed in order; the first existing file wins.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".pdf", ".svg"}

var (
	includeGraphicsRe = regexp.MustCompile(`\\includegraphics(?:\[([^\]]*)\])?\{([^}]+)\}`)
	relativeWidthRe   = regexp.MustCompile(`width\s*=\s*[\d.]*\\(?:line|text|column)width`)
)

// FixImagePaths appends a file extension to extensionless graphics paths
// when a candidate exists under env.WorkDir, and normalizes widths given as
// a fraction of the line, text or column width to the full text width.
func FixImagePaths(text string, env Env) string {
	return includeGraphicsRe.ReplaceAllStringFunc(text, func(match string) string {
		m := includeGraphicsRe.FindStringSubmatch(match)
		opts, name := m[1], m[2]

		if path.Ext(name) == "" {
			name = probeImage(env.WorkDir, name)
		}
		opts = relativeWidthRe.ReplaceAllLiteralString(opts, `width=\textwidth`)

		if opts != "" {
			return `\includegraphics[` + opts + `]{` + name + `}`
		}
		return `\includegraphics{` + name + `}`
	})
}

func probeImage(dir, name string) string {
	for _, ext := range imageExtensions {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name+ext))); err == nil {
			return name + ext
		}
	}
	return name
}
