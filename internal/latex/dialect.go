package latex

import (
	"regexp"
	"strings"
)

// dialectRes remove conference-template directives.
var dialectRes = []*regexp.Regexp{
	regexp.MustCompile(`\\icmltitlerunning\{[^}]*\}\s*\n?`),
	regexp.MustCompile(`\\icmlsetsymbol\{[^}]*\}\{[^}]*\}\s*\n?`),
	regexp.MustCompile(`\\icmlkeywords\{[^}]*\}\s*\n?`),
	regexp.MustCompile(`\\icmlaffiliation\{[^}]*\}\{[^}]*\}\s*\n?`),
	regexp.MustCompile(`\\icmlcorrespondingauthor\{[^}]*\}\{[^}]*\}\s*\n?`),
	regexp.MustCompile(`\\printAffiliationsAndNotice(?:\{[^}]*\})?\s*\n?`),
	regexp.MustCompile(`\\begin\{icmlauthorlist\}[\s\S]*?\\end\{icmlauthorlist\}\s*`),
}

var (
	neuripsRe         = regexp.MustCompile(`\\neurips[a-zA-Z]*\{[^}]*\}\s*\n?`)
	standaloneCloseRe = regexp.MustCompile(`(?m)^\][ \t]*$`)
)

const twoColumnOpen = `\twocolumn[`

// StripDialectCommands removes ICML and NeurIPS template commands and the
// \twocolumn[...] title wrapper, keeping the wrapper's content.
func StripDialectCommands(text string, _ Env) string {
	for _, re := range dialectRes {
		text = re.ReplaceAllString(text, "")
	}
	// The title has already been captured in Metadata.
	text = removeBracedCommand(text, `\icmltitle`)
	text = unwrapTwoColumn(text)
	return neuripsRe.ReplaceAllString(text, "")
}

// unwrapTwoColumn drops each \twocolumn[ opener together with its matching
// closing bracket. Nesting is tracked with a depth counter; \[ and \] are
// display-math delimiters and are skipped. When no matching bracket exists
// the opener is removed and a closing bracket standing alone on its own
// line is assumed to be the match. A standalone closing line found before
// the depth match is preferred over it.
func unwrapTwoColumn(text string) string {
	if !strings.Contains(text, twoColumnOpen) {
		return text
	}

	var b strings.Builder
	unmatched := false
	for {
		idx := strings.Index(text, twoColumnOpen)
		if idx < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:idx])
		rest := text[idx+len(twoColumnOpen):]

		end := matchingBracket(rest)
		if end < 0 {
			unmatched = true
			text = rest
			continue
		}
		// An unbalanced '[' inside the wrapper pushes the depth match past
		// the wrapper's own closing line.
		if loc := standaloneCloseRe.FindStringIndex(rest[:end]); loc != nil {
			end = loc[0]
		}
		b.WriteString(rest[:end])
		text = rest[end+1:]
	}

	out := b.String()
	if unmatched {
		out = standaloneCloseRe.ReplaceAllString(out, "")
	}
	return out
}

// matchingBracket returns the index in s of the ']' closing a '[' that was
// opened just before s, or -1.
func matchingBracket(s string) int {
	depth := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// removeBracedCommand deletes every occurrence of cmd followed by a balanced
// brace group, plus trailing whitespace. Occurrences without a well-formed
// argument are left alone.
func removeBracedCommand(text, cmd string) string {
	var b strings.Builder
	for {
		idx := strings.Index(text, cmd+"{")
		if idx < 0 {
			b.WriteString(text)
			return b.String()
		}
		open := idx + len(cmd)
		arg, ok := braceGroup(text, open)
		if !ok {
			b.WriteString(text[:open])
			text = text[open:]
			continue
		}
		b.WriteString(text[:idx])
		text = strings.TrimLeft(text[open+len(arg)+2:], " \t\r\n")
	}
}
