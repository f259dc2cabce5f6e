package latex

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	subfigureBeginRe = regexp.MustCompile(`\\begin\{subfigure\}(?:\[[^\]]*\])?\{[^}]*\}`)
	subfigureEndRe   = regexp.MustCompile(`\\end\{subfigure\}`)
	hfillRe          = regexp.MustCompile(`\\hfill\b`)

	promptBeginRe     = regexp.MustCompile(`\\begin\{prompt\}(?:\[.*?\])?`)
	promptEndRe       = regexp.MustCompile(`\\end\{prompt\}`)
	messageBoxBeginRe = regexp.MustCompile(`\\begin\{mymessagebox\}(\[.*?\])?`)
	messageBoxEndRe   = regexp.MustCompile(`\\end\{mymessagebox\}`)
	frameTitleRe      = regexp.MustCompile(`frametitle=([^,\]]+)`)

	algorithmBeginRe   = regexp.MustCompile(`\\begin\{algorithm\}(?:\[.*?\])?`)
	algorithmEndRe     = regexp.MustCompile(`\\end\{algorithm\}`)
	algorithmicBeginRe = regexp.MustCompile(`\\begin\{algorithmic\}(?:\[.*?\])?`)
	algorithmicEndRe   = regexp.MustCompile(`\\end\{algorithmic\}`)
)

// pseudocodeRule rewrites one algorithmic keyword.
type pseudocodeRule struct {
	re   *regexp.Regexp
	repl string
}

// pseudocodeRules approximate algorithmic markup as emphasized prose.
var pseudocodeRules = []pseudocodeRule{
	{regexp.MustCompile(`\\REQUIRE\b`), `\textbf{Require:}`},
	{regexp.MustCompile(`\\ENSURE\b`), `\textbf{Ensure:}`},
	{regexp.MustCompile(`\\STATE\b`), ``},
	{regexp.MustCompile(`\\IF\{([^}]*)\}`), `\textbf{if} \(${1}\) \textbf{then}`},
	{regexp.MustCompile(`\\ELSIF\{([^}]*)\}`), `\textbf{else if} \(${1}\) \textbf{then}`},
	{regexp.MustCompile(`\\ELSE\b`), `\textbf{else}`},
	{regexp.MustCompile(`\\ENDIF\b`), `\textbf{end if}`},
	{regexp.MustCompile(`\\FOR\{([^}]*)\}`), `\textbf{for} \(${1}\) \textbf{do}`},
	{regexp.MustCompile(`\\ENDFOR\b`), `\textbf{end for}`},
	{regexp.MustCompile(`\\WHILE\{([^}]*)\}`), `\textbf{while} \(${1}\) \textbf{do}`},
	{regexp.MustCompile(`\\ENDWHILE\b`), `\textbf{end while}`},
	{regexp.MustCompile(`\\RETURN\b`), `\textbf{return}`},
}

// theoremEnvironments become an inline bold label followed by the body.
var theoremEnvironments = []string{
	"theorem", "lemma", "proposition", "corollary", "definition",
	"assumption", "remark",
}

type theoremRule struct {
	begin *regexp.Regexp
	end   *regexp.Regexp
	label string
}

var theoremRules = buildTheoremRules()

func buildTheoremRules() []theoremRule {
	title := cases.Title(language.English)
	rules := make([]theoremRule, 0, len(theoremEnvironments))
	for _, env := range theoremEnvironments {
		rules = append(rules, theoremRule{
			begin: regexp.MustCompile(`\\begin\{` + env + `\}(?:\[.*?\])?`),
			end:   regexp.MustCompile(`\\end\{` + env + `\}`),
			label: `\textbf{` + title.String(env) + `.} `,
		})
	}
	return rules
}

// doubleColumnFloats folds starred float variants into the single-column ones.
var doubleColumnFloats = strings.NewReplacer(
	`\begin{figure*}`, `\begin{figure}`,
	`\end{figure*}`, `\end{figure}`,
	`\begin{table*}`, `\begin{table}`,
	`\end{table*}`, `\end{table}`,
)

// ConvertEnvironments maps custom environments onto the nearest construct
// pandoc understands.
func ConvertEnvironments(text string, _ Env) string {
	text = subfigureBeginRe.ReplaceAllString(text, "")
	text = subfigureEndRe.ReplaceAllString(text, "")
	text = hfillRe.ReplaceAllString(text, "")

	text = promptBeginRe.ReplaceAllLiteralString(text, `\begin{quote}`)
	text = promptEndRe.ReplaceAllLiteralString(text, `\end{quote}`)

	text = messageBoxBeginRe.ReplaceAllStringFunc(text, func(match string) string {
		opts := messageBoxBeginRe.FindStringSubmatch(match)[1]
		prefix := ""
		if m := frameTitleRe.FindStringSubmatch(opts); m != nil {
			prefix = `\textbf{` + strings.TrimSpace(m[1]) + "}\n\n"
		}
		return prefix + `\begin{quote}`
	})
	text = messageBoxEndRe.ReplaceAllLiteralString(text, `\end{quote}`)

	text = algorithmBeginRe.ReplaceAllLiteralString(text, `\begin{quote}`)
	text = algorithmEndRe.ReplaceAllLiteralString(text, `\end{quote}`)
	for _, rule := range pseudocodeRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	text = algorithmicBeginRe.ReplaceAllString(text, "")
	text = algorithmicEndRe.ReplaceAllString(text, "")

	text = doubleColumnFloats.Replace(text)

	for _, rule := range theoremRules {
		text = rule.begin.ReplaceAllLiteralString(text, rule.label)
		text = rule.end.ReplaceAllLiteralString(text, "\n")
	}
	return text
}
