package latex

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	bibliographyRe      = regexp.MustCompile(`\\bibliography\{([^}]+)\}`)
	addBibResourceRe    = regexp.MustCompile(`\\addbibresource(?:\[[^\]]*\])?\{([^}]+)\}`)
	bibliographyStyleRe = regexp.MustCompile(`\\bibliographystyle\{[^}]*\}\s*\n?`)
)

// PrepareBibliography removes \bibliographystyle, which citeproc does not use.
func PrepareBibliography(text string, _ Env) string {
	return bibliographyStyleRe.ReplaceAllString(text, "")
}

// LocateBibliography returns the path of the bibliography database the
// document declares. Declared names default to the .bib extension. When
// none of them exists, the first .bib file in dir is used. An empty string
// means no bibliography is available.
func LocateBibliography(text, dir string) string {
	var declared []string
	for _, re := range []*regexp.Regexp{bibliographyRe, addBibResourceRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			declared = append(declared, strings.Split(m[1], ",")...)
		}
	}

	for _, name := range declared {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".bib") {
			name += ".bib"
		}
		p := filepath.Join(dir, filepath.FromSlash(name))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.bib"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}
