package latex

import (
	"regexp"
	"strings"
)

// definitionBody matches a replacement text with at most one level of
// nested braces.
const definitionBody = `\{([^{}]*(?:\{[^{}]*\}[^{}]*)*)\}`

var (
	// macroDefRe captures zero-argument candidates: the name and the body.
	macroDefRe = regexp.MustCompile(`\\(?:new|renew|provide)command\*?(?:\{(\\[a-zA-Z]+)\}|(\\[a-zA-Z]+))` + definitionBody)
	// macroDefAnyRe matches every definition, with or without parameters.
	macroDefAnyRe = regexp.MustCompile(`\\(?:new|renew|provide)command\*?(?:\{\\[a-zA-Z]+\}|\\[a-zA-Z]+)(?:\[\d+\])?(?:\[[^\]]*\])?` + definitionBody + `\s*\n?`)
)

// MacroTable maps command names (with their leading backslash) to literal
// replacement text. It is immutable once built.
type MacroTable struct {
	names []string
	defs  map[string]string
}

// Len returns the number of macros in the table.
func (t MacroTable) Len() int { return len(t.names) }

// Lookup returns the replacement for name.
func (t MacroTable) Lookup(name string) (string, bool) {
	r, ok := t.defs[name]
	return r, ok
}

// BuildMacroTable scans text for zero-argument command definitions.
// Definitions whose body contains a parameter marker are skipped; a later
// definition of the same name replaces the earlier body but keeps its
// position.
func BuildMacroTable(text string) MacroTable {
	t := MacroTable{defs: make(map[string]string)}
	for _, m := range macroDefRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		body := m[3]
		if strings.Contains(body, "#") {
			continue
		}
		if _, ok := t.defs[name]; !ok {
			t.names = append(t.names, name)
		}
		t.defs[name] = body
	}
	return t
}

// RemoveMacroDefinitions deletes every \newcommand, \renewcommand and
// \providecommand definition, including ones that take parameters.
func RemoveMacroDefinitions(text string) string {
	return macroDefAnyRe.ReplaceAllString(text, "")
}

// ExpandMacros substitutes every whole-token occurrence of each macro in t.
// A command that merely starts with a macro's name (\foo inside \foobar)
// is not replaced. Macros are applied in definition order.
func ExpandMacros(text string, t MacroTable) string {
	for _, name := range t.names {
		text = replaceCommand(text, name, t.defs[name])
	}
	return text
}

// replaceCommand replaces name when it is not followed by an ASCII letter.
func replaceCommand(text, name, repl string) string {
	if !strings.Contains(text, name) {
		return text
	}
	var b strings.Builder
	for {
		idx := strings.Index(text, name)
		if idx < 0 {
			b.WriteString(text)
			return b.String()
		}
		end := idx + len(name)
		b.WriteString(text[:idx])
		if end < len(text) && isASCIILetter(text[end]) {
			b.WriteString(name)
		} else {
			b.WriteString(repl)
		}
		text = text[end:]
	}
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// annotationRe builds the matcher for single-argument comment commands,
// with or without an optional argument.
func annotationRe(commands []string) *regexp.Regexp {
	quoted := make([]string, len(commands))
	for i, c := range commands {
		quoted[i] = regexp.QuoteMeta(c)
	}
	return regexp.MustCompile(`\\(?:` + strings.Join(quoted, "|") + `)(?:\[[^\]]*\])?\{[^}]*\}`)
}

// StripAnnotations deletes the configured annotation commands together
// with their argument.
func StripAnnotations(text string, rules Rules) string {
	if len(rules.AnnotationCommands) == 0 {
		return text
	}
	return annotationRe(rules.AnnotationCommands).ReplaceAllString(text, "")
}

// ExpandSimpleMacros is the macro stage: build the table, drop all
// definitions, substitute, then remove annotation commands.
func ExpandSimpleMacros(text string, env Env) string {
	table := BuildMacroTable(text)
	text = RemoveMacroDefinitions(text)
	text = ExpandMacros(text, table)
	return StripAnnotations(text, env.Rules)
}
