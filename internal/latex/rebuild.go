package latex

import (
	"regexp"
	"strings"
)

// safePreamble is the fixed package set every rebuilt document carries.
const safePreamble = `\documentclass{article}
\usepackage{amsmath}
\usepackage{amssymb}
\usepackage{graphicx}
\usepackage{hyperref}
\usepackage{booktabs}
`

var (
	documentBodyRe = regexp.MustCompile(`(?s)\\begin\{document\}(.*?)\\end\{document\}`)
	makeTitleRe    = regexp.MustCompile(`\\maketitle\b[ \t]*\n?`)
)

// RebuildDocument wraps the document body in a minimal preamble carrying
// the extracted title and authors. Without document markers the whole text
// is treated as the body.
func RebuildDocument(text string, meta Metadata) string {
	body := text
	if m := documentBodyRe.FindStringSubmatch(text); m != nil {
		body = m[1]
	}
	body = strings.TrimSpace(makeTitleRe.ReplaceAllString(body, ""))

	var b strings.Builder
	b.WriteString(safePreamble)
	if meta.Title != "" {
		b.WriteString(`\title{` + meta.Title + "}\n")
	}
	if len(meta.Authors) > 0 {
		b.WriteString(`\author{` + strings.Join(meta.Authors, ` \and `) + "}\n")
	}

	b.WriteString("\n\\begin{document}\n")
	if meta.Title != "" {
		b.WriteString("\\maketitle\n")
	}
	b.WriteString(body)
	b.WriteString("\n\\end{document}\n")
	return b.String()
}
