package latex

import (
	"regexp"
	"strings"
)

// UntitledTitle is used when no title could be extracted from the source.
const UntitledTitle = "Untitled Paper"

// Metadata holds the document information extracted before any rewriting.
type Metadata struct {
	Title    string
	Authors  []string
	Abstract string
	Date     string
}

// titlePatterns are tried in order; the first match wins. Conference
// macros come before the standard \title so that a template's own
// definition of \title does not shadow the real one.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\\icmltitle\{`),
	regexp.MustCompile(`\\neurips[a-zA-Z]*title\{`),
	regexp.MustCompile(`\\title(?:\[[^\]]*\])?\{`),
}

var (
	icmlAuthorRe = regexp.MustCompile(`\\icmlauthor\{`)
	authorRe     = regexp.MustCompile(`\\author(?:\[[^\]]*\])?\{`)
	andRe        = regexp.MustCompile(`\\and\b`)
	dateRe       = regexp.MustCompile(`\\date\{`)
	abstractRe   = regexp.MustCompile(`(?s)\\begin\{abstract\}(.+?)\\end\{abstract\}`)
)

// ExtractMetadata scans the (include-resolved) document for title, authors,
// abstract and date. Missing fields are left empty.
func ExtractMetadata(text string) Metadata {
	var meta Metadata

	for _, re := range titlePatterns {
		if arg, ok := firstArgument(text, re); ok {
			meta.Title = CleanText(arg)
			break
		}
	}

	if locs := icmlAuthorRe.FindAllStringIndex(text, -1); len(locs) > 0 {
		for _, loc := range locs {
			arg, ok := braceGroup(text, loc[1]-1)
			if !ok {
				continue
			}
			if name := CleanText(arg); name != "" {
				meta.Authors = append(meta.Authors, name)
			}
		}
	} else if block, ok := firstArgument(text, authorRe); ok {
		for _, part := range andRe.Split(block, -1) {
			if name := CleanText(part); name != "" {
				meta.Authors = append(meta.Authors, name)
			}
		}
	}

	if m := abstractRe.FindStringSubmatch(text); m != nil {
		meta.Abstract = strings.TrimSpace(m[1])
	}

	if arg, ok := firstArgument(text, dateRe); ok {
		if !strings.Contains(arg, `\today`) {
			meta.Date = CleanText(arg)
		}
	}

	return meta
}

var (
	cleanBoldRe    = regexp.MustCompile(`\\textbf\{([^}]*)\}`)
	cleanItalicRe  = regexp.MustCompile(`\\textit\{([^}]*)\}`)
	cleanEmphRe    = regexp.MustCompile(`\\emph\{([^}]*)\}`)
	cleanCommandRe = regexp.MustCompile(`\\[a-zA-Z]+\{([^}]*)\}`)
	cleanBracesRe  = regexp.MustCompile(`[{}]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// CleanText reduces a LaTeX fragment to plain text: formatting commands are
// replaced by their argument, remaining braces are dropped and whitespace is
// collapsed.
func CleanText(text string) string {
	text = cleanBoldRe.ReplaceAllString(text, "$1")
	text = cleanItalicRe.ReplaceAllString(text, "$1")
	text = cleanEmphRe.ReplaceAllString(text, "$1")
	text = cleanCommandRe.ReplaceAllString(text, "$1")
	text = cleanBracesRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// firstArgument finds the first match of re, which must end on an opening
// brace, and returns the balanced brace group that follows.
func firstArgument(text string, re *regexp.Regexp) (string, bool) {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return braceGroup(text, loc[1]-1)
}

// braceGroup returns the content of the brace group opening at text[open].
// Escaped braces (\{ and \}) do not count towards nesting.
func braceGroup(text string, open int) (string, bool) {
	if open < 0 || open >= len(text) || text[open] != '{' {
		return "", false
	}
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[open+1 : i], true
			}
		}
	}
	return "", false
}
