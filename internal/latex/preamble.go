package latex

import (
	"regexp"
	"strings"
)

var (
	documentClassRe = regexp.MustCompile(`\\documentclass(?:\[.*?\])?\{.*?\}\s*`)
	usePackageRe    = regexp.MustCompile(`\\usepackage(\[[^\]]*\])?\{([^}]*)\}[ \t]*\n?`)

	layoutRes = []*regexp.Regexp{
		regexp.MustCompile(`\\setlength\{[^}]*\}\{[^}]*\}`),
		regexp.MustCompile(`\\captionsetup(?:\[.*?\])?\{[^}]*\}`),
		regexp.MustCompile(`\\setlist(?:\[.*?\])?\{[^}]*\}`),
		regexp.MustCompile(`\\pagestyle\{[^}]*\}`),
		regexp.MustCompile(`\\thispagestyle\{[^}]*\}`),
	}

	theoremStyleRe = regexp.MustCompile(`\\theoremstyle\{[^}]*\}\s*\n?`)
	newTheoremRe   = regexp.MustCompile(`\\newtheorem\*?(?:\{[^}]*\}|\[[^\]]*\])+\s*\n?`)
	floatingEnvRe  = regexp.MustCompile(`\\DeclareFloatingEnvironment\[[\s\S]*?\]\{[^}]*\}\s*\n?`)
	newMdEnvRe     = regexp.MustCompile(`\\newmdenv\[[\s\S]*?\]\{[^}]*\}\s*\n?`)
)

// StripPreamble removes the document class, denied and duplicate package
// imports, layout directives, theorem declarations and custom float
// declarations.
func StripPreamble(text string, env Env) string {
	text = documentClassRe.ReplaceAllString(text, "")
	text = filterPackages(text, env.Rules)

	for _, re := range layoutRes {
		text = re.ReplaceAllString(text, "")
	}

	text = theoremStyleRe.ReplaceAllString(text, "")
	text = newTheoremRe.ReplaceAllString(text, "")
	text = floatingEnvRe.ReplaceAllString(text, "")
	text = newMdEnvRe.ReplaceAllString(text, "")
	return text
}

// filterPackages drops denied packages from every \usepackage list and
// keeps only the first import of each remaining package. A directive left
// with no packages is removed along with its line break.
func filterPackages(text string, rules Rules) string {
	seen := make(map[string]bool)

	return usePackageRe.ReplaceAllStringFunc(text, func(match string) string {
		m := usePackageRe.FindStringSubmatch(match)
		opts := m[1]

		var kept []string
		for _, name := range strings.Split(m[2], ",") {
			name = strings.TrimSpace(name)
			if name == "" || rules.packageDenied(name) || seen[name] {
				continue
			}
			seen[name] = true
			kept = append(kept, name)
		}
		if len(kept) == 0 {
			return ""
		}

		trailing := match[strings.LastIndex(match, "}")+1:]
		return `\usepackage` + opts + "{" + strings.Join(kept, ",") + "}" + trailing
	})
}
