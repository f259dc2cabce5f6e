package latex

import (
	"path/filepath"
	"strings"
	"testing"
)

const samplePaper = `\documentclass{article}
\usepackage{icml2025}
\usepackage{amsmath}
\newcommand{\method}{\textsc{Foo}}
\begin{document}
\twocolumn[
\icmltitle{A Study of Things}
\begin{icmlauthorlist}
\icmlauthor{Alice}{a}
\icmlauthor{Bob}{b}
\end{icmlauthorlist}
]
\begin{abstract}
We study \method.
\end{abstract}
\section{Intro}
\input{sections/intro}
\method{} works.\vspace{1cm}
See \cref{fig}.



\begin{figure*}[t]
\includegraphics[width=0.9\linewidth]{plot}
\end{figure*}
\bibliographystyle{plain}
\bibliography{refs}
\end{document}
`

func setupPaper(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.tex"), samplePaper)
	writeFile(t, filepath.Join(dir, "sections", "intro.tex"), `Intro text\todo{expand}.`)
	writeFile(t, filepath.Join(dir, "plot.png"), "png")
	writeFile(t, filepath.Join(dir, "refs.bib"), "@article{a,}")
	return dir
}

func TestDefaultStages_Order(t *testing.T) {
	want := []string{
		"strip-preamble", "strip-dialect", "convert-environments",
		"expand-macros", "fix-images", "prepare-bibliography", "final-cleanup",
	}
	stages := DefaultStages()
	if len(stages) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(stages))
	}
	for i, s := range stages {
		if s.Name != want[i] {
			t.Errorf("stage %d: expected %s, got %s", i, want[i], s.Name)
		}
	}
}

func TestPreprocessor_PreprocessFile(t *testing.T) {
	dir := setupPaper(t)

	r, err := NewPreprocessor(nil).PreprocessFile(filepath.Join(dir, "main.tex"))
	if err != nil {
		t.Fatalf("PreprocessFile failed: %v", err)
	}

	if r.Metadata.Title != "A Study of Things" {
		t.Errorf("unexpected title %q", r.Metadata.Title)
	}
	if len(r.Metadata.Authors) != 2 || r.Metadata.Authors[0] != "Alice" || r.Metadata.Authors[1] != "Bob" {
		t.Errorf("unexpected authors %v", r.Metadata.Authors)
	}
	if r.Bibliography != filepath.Join(dir, "refs.bib") {
		t.Errorf("unexpected bibliography %q", r.Bibliography)
	}

	for _, want := range []string{
		`\title{A Study of Things}`,
		`\author{Alice \and Bob}`,
		`\textsc{Foo}`,
		"Intro text.",
		`\ref{fig}`,
		`\begin{figure}`,
		`\includegraphics[width=\textwidth]{plot.png}`,
		`\bibliography{refs}`,
	} {
		if !strings.Contains(r.Text, want) {
			t.Errorf("expected %s in output:\n%s", want, r.Text)
		}
	}
	for _, gone := range []string{`\twocolumn`, "icml", `\vspace`, `\method`, `\bibliographystyle`, `figure*`, `\todo`, `\input`, "\n\n\n"} {
		if strings.Contains(r.Text, gone) {
			t.Errorf("%q should not appear in output:\n%s", gone, r.Text)
		}
	}
	if n := strings.Count(r.Text, `\usepackage{amsmath}`); n != 1 {
		t.Errorf("expected amsmath once, got %d", n)
	}
}

func TestPreprocessor_Idempotent(t *testing.T) {
	dir := setupPaper(t)
	p := NewPreprocessor(nil)

	first := p.Run(samplePaper, dir)
	second := p.Run(first.Text, dir)
	if first.Text != second.Text {
		t.Fatalf("second pass changed the document:\n%s\n---\n%s", first.Text, second.Text)
	}
	if second.Metadata.Title != first.Metadata.Title {
		t.Fatalf("title changed between passes: %q vs %q", first.Metadata.Title, second.Metadata.Title)
	}
}

func TestPreprocessor_CustomStages(t *testing.T) {
	p := &Preprocessor{
		Rules: DefaultRules(),
		Stages: []Stage{{Name: "shout", Apply: func(text string, _ Env) string {
			return strings.ReplaceAll(text, "hello", "HELLO")
		}}},
	}
	r := p.Run(`\begin{document}hello\end{document}`, t.TempDir())
	if !strings.Contains(r.Text, "\\begin{document}\nHELLO\n\\end{document}") {
		t.Fatalf("custom stage not applied:\n%s", r.Text)
	}
}

func TestPreprocess(t *testing.T) {
	text, meta := Preprocess(`\title{T}\author{X}\begin{document}Body\vspace{2pt}\end{document}`, t.TempDir())
	if meta.Title != "T" || len(meta.Authors) != 1 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if strings.Contains(text, `\vspace`) {
		t.Fatalf("vspace should be removed:\n%s", text)
	}
}
