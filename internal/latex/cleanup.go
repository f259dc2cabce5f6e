package latex

import "regexp"

var floatSpecifierRe = regexp.MustCompile(`(\\begin\{(?:figure|table)\})\s*\[[^\]]*\]`)

// layoutDirectives are removed wherever they appear.
var layoutDirectives = []*regexp.Regexp{
	regexp.MustCompile(`\\vskip\s+[\d.]+(?:in|pt|em|cm|mm)\s*`),
	regexp.MustCompile(`\\vspace\*?\{[^}]*\}\s*`),
	regexp.MustCompile(`\\hspace\*?\{[^}]*\}\s*`),
	regexp.MustCompile(`\\FloatBarrier\s*`),
	regexp.MustCompile(`\\clearpage\s*`),
	regexp.MustCompile(`\\newpage\s*`),
	regexp.MustCompile(`\\noindent\s*`),
	regexp.MustCompile(`\\centering\s*`),
	regexp.MustCompile(`\\raggedright\s*`),
	regexp.MustCompile(`\\small\b\s*`),
	regexp.MustCompile(`\\footnotesize\b\s*`),
	regexp.MustCompile(`\\scriptsize\b\s*`),
	regexp.MustCompile(`\\tiny\b\s*`),
	regexp.MustCompile(`\\large\b\s*`),
	regexp.MustCompile(`\\Large\b\s*`),
	regexp.MustCompile(`\\LARGE\b\s*`),
	regexp.MustCompile(`\\huge\b\s*`),
	regexp.MustCompile(`\\Huge\b\s*`),
	regexp.MustCompile(`\\normalsize\b\s*`),
	regexp.MustCompile(`\\fontfamily\{[^}]*\}\\selectfont\s*`),
	regexp.MustCompile(`\\selectfont\s*`),
}

var (
	clevrefRe    = regexp.MustCompile(`\\[Cc]ref\{`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// FinalCleanup strips float placement specifiers and pure layout
// directives, rewrites \cref to \ref and collapses runs of blank lines.
func FinalCleanup(text string, _ Env) string {
	text = floatSpecifierRe.ReplaceAllString(text, "$1")
	for _, re := range layoutDirectives {
		text = re.ReplaceAllString(text, "")
	}
	text = clevrefRe.ReplaceAllLiteralString(text, `\ref{`)
	return blankLinesRe.ReplaceAllString(text, "\n\n")
}
