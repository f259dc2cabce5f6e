package latex

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Env is the read-only context shared by all stages.
type Env struct {
	// WorkDir is the directory of the main document.
	WorkDir string
	Rules   Rules
}

// Stage is one text-to-text rewrite step. Stages never fail; text they do
// not recognize is returned unchanged.
type Stage struct {
	Name  string
	Apply func(text string, env Env) string
}

// DefaultStages returns the rewrite stages in the order they must run.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "strip-preamble", Apply: StripPreamble},
		{Name: "strip-dialect", Apply: StripDialectCommands},
		{Name: "convert-environments", Apply: ConvertEnvironments},
		{Name: "expand-macros", Apply: ExpandSimpleMacros},
		{Name: "fix-images", Apply: FixImagePaths},
		{Name: "prepare-bibliography", Apply: PrepareBibliography},
		{Name: "final-cleanup", Apply: FinalCleanup},
	}
}

// Result is the output of a preprocessing run.
type Result struct {
	// Text is the rebuilt document.
	Text     string
	Metadata Metadata
	// Bibliography is the path of the located .bib file, empty when none.
	Bibliography string
}

// Preprocessor normalizes a LaTeX document for the converter.
type Preprocessor struct {
	Rules  Rules
	Logger *slog.Logger
	// Stages overrides DefaultStages when non-nil.
	Stages []Stage
}

// NewPreprocessor creates a preprocessor with the default rules.
func NewPreprocessor(logger *slog.Logger) *Preprocessor {
	return &Preprocessor{Rules: DefaultRules(), Logger: logger}
}

func (p *Preprocessor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Run inlines includes, extracts metadata, applies every stage and rebuilds
// the document around the extracted metadata.
func (p *Preprocessor) Run(text, workDir string) Result {
	log := p.logger()

	text = ResolveIncludes(text, workDir)
	meta := ExtractMetadata(text)
	log.Debug("extracted metadata",
		"title", meta.Title,
		"authors", len(meta.Authors),
		"abstract", meta.Abstract != "",
	)

	bib := LocateBibliography(text, workDir)
	if bib == "" {
		log.Info("no bibliography file found")
	} else {
		log.Debug("located bibliography", "path", bib)
	}

	stages := p.Stages
	if stages == nil {
		stages = DefaultStages()
	}
	env := Env{WorkDir: workDir, Rules: p.Rules}
	for _, s := range stages {
		before := len(text)
		text = s.Apply(text, env)
		log.Debug("applied stage", "stage", s.Name, "delta", len(text)-before)
	}

	return Result{
		Text:         RebuildDocument(text, meta),
		Metadata:     meta,
		Bibliography: bib,
	}
}

// PreprocessFile reads the main document at path and runs it with the
// file's directory as the working directory.
func (p *Preprocessor) PreprocessFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read main document: %w", err)
	}
	return p.Run(toValidUTF8(data), filepath.Dir(path)), nil
}

// Preprocess runs the default pipeline on text and returns the rebuilt
// document with its metadata.
func Preprocess(text, workDir string) (string, Metadata) {
	r := NewPreprocessor(slog.Default()).Run(text, workDir)
	return r.Text, r.Metadata
}
