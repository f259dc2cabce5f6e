// Package converter wires source retrieval, LaTeX preprocessing, pandoc
// and the archive patcher into one conversion run.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"

	"github.com/yuanying/tex2epub/internal/config"
	"github.com/yuanying/tex2epub/internal/epub"
	"github.com/yuanying/tex2epub/internal/latex"
	"github.com/yuanying/tex2epub/internal/pandoc"
	"github.com/yuanying/tex2epub/internal/postprocess"
	"github.com/yuanying/tex2epub/internal/source"
)

const maxSlugLength = 80

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	// InputPath is an arXiv URL or id, a source bundle, a source directory
	// or a .tex file.
	InputPath string
	// OutputPath is derived from the title inside OutputDir when empty.
	OutputPath string
	OutputDir  string
	// CSSPath is handed to pandoc; the built-in stylesheet is used when
	// empty.
	CSSPath string
	// FontsDir overrides Config.Fonts.Dir.
	FontsDir      string
	NoPostprocess bool
	KeepWorkDir   bool
	Config        config.Config
	Fetcher       *source.Fetcher
	Logger        *slog.Logger
}

// Result describes a finished conversion.
type Result struct {
	RunID    string
	Output   string
	Metadata latex.Metadata
	// Warnings are the converter diagnostics.
	Warnings []string
	Report   postprocess.Report
	// WorkDir is set only when the work directory was kept.
	WorkDir string
}

// Pipeline orchestrates the LaTeX to EPUB conversion.
type Pipeline struct {
	Options ConvertOptions
	logger  *slog.Logger
}

// NewPipeline creates a new conversion pipeline.
func NewPipeline(opts ConvertOptions) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	defaults := config.Default()
	if opts.Config.Pandoc.Binary == "" {
		opts.Config.Pandoc.Binary = defaults.Pandoc.Binary
	}
	if opts.Config.Pandoc.TOCDepth == 0 {
		opts.Config.Pandoc.TOCDepth = defaults.Pandoc.TOCDepth
	}
	if opts.Config.Pandoc.SplitLevel == 0 {
		opts.Config.Pandoc.SplitLevel = defaults.Pandoc.SplitLevel
	}
	if opts.Config.Images.JPEGQuality == 0 {
		opts.Config.Images.JPEGQuality = defaults.Images.JPEGQuality
	}
	return &Pipeline{Options: opts, logger: opts.Logger}
}

// Convert executes the conversion pipeline.
func (p *Pipeline) Convert(ctx context.Context) (Result, error) {
	res := Result{RunID: ulid.Make().String()}
	log := p.logger.With("run", res.RunID)

	work, err := os.MkdirTemp("", "tex2epub-")
	if err != nil {
		return res, fmt.Errorf("failed to create work directory: %w", err)
	}
	if p.Options.KeepWorkDir {
		res.WorkDir = work
		log.Info("keeping work directory", "path", work)
	} else {
		defer os.RemoveAll(work)
	}

	mainTex, err := p.resolveInput(ctx, work, log)
	if err != nil {
		return res, err
	}
	if mainTex, err = filepath.Abs(mainTex); err != nil {
		return res, fmt.Errorf("failed to resolve main document path: %w", err)
	}
	log.Info("found main document", "path", mainTex)

	pre := latex.NewPreprocessor(log)
	pre.Rules = latex.DefaultRules().WithExtra(p.Options.Config.LaTeX.DeniedPackages, p.Options.Config.LaTeX.AnnotationCommands)
	prep, err := pre.PreprocessFile(mainTex)
	if err != nil {
		return res, err
	}

	meta := prep.Metadata
	if meta.Title == "" {
		meta.Title = latex.UntitledTitle
		log.Warn("could not extract paper title")
	}
	res.Metadata = meta
	log.Info("preprocessed document", "title", meta.Title, "authors", strings.Join(meta.Authors, ", "))

	res.Output = p.Options.OutputPath
	if res.Output == "" {
		res.Output = filepath.Join(p.Options.OutputDir, OutputName(meta.Title))
	}
	if res.Output, err = filepath.Abs(res.Output); err != nil {
		return res, fmt.Errorf("failed to resolve output path: %w", err)
	}

	css, err := p.stylesheet(work)
	if err != nil {
		return res, err
	}

	conv := pandoc.NewConverter(p.Options.Config.Pandoc.Binary)
	conv.TOCDepth = p.Options.Config.Pandoc.TOCDepth
	conv.SplitLevel = p.Options.Config.Pandoc.SplitLevel
	conv.ExtraArgs = p.Options.Config.Pandoc.ExtraArgs
	conv.Logger = log

	out, err := conv.Convert(ctx, pandoc.Request{
		Text:         prep.Text,
		Metadata:     meta,
		WorkDir:      filepath.Dir(mainTex),
		ScratchDir:   work,
		Output:       res.Output,
		CSS:          css,
		Bibliography: prep.Bibliography,
	})
	if err != nil {
		return res, err
	}
	res.Warnings = out.Warnings
	for _, line := range pandoc.SummarizeWarnings(out.Warnings) {
		log.Warn("pandoc", "message", line)
	}

	if p.Options.NoPostprocess {
		log.Info("skipping post-processing")
	} else {
		fontsDir := p.Options.FontsDir
		if fontsDir == "" {
			fontsDir = p.Options.Config.Fonts.Dir
		}
		patcher := postprocess.NewPatcher(postprocess.Options{
			FontsDir:      fontsDir,
			FontFiles:     p.Options.Config.Fonts.Files,
			MaxImageWidth: p.Options.Config.Images.MaxWidth,
			JPEGQuality:   p.Options.Config.Images.JPEGQuality,
			Logger:        log,
		})
		if res.Report, err = patcher.Patch(res.Output); err != nil {
			return res, fmt.Errorf("failed to post-process EPUB: %w", err)
		}
	}

	if err := verifyOutput(res.Output, log); err != nil {
		return res, err
	}
	log.Info("done", "output", res.Output)
	return res, nil
}

// resolveInput turns the input into the path of the main .tex file,
// downloading and extracting bundles into work as needed.
func (p *Pipeline) resolveInput(ctx context.Context, work string, log *slog.Logger) (string, error) {
	input := p.Options.InputPath
	srcDir := filepath.Join(work, "src")

	if id, ok := source.ParseArxivID(input); ok {
		fetcher := p.Options.Fetcher
		if fetcher == nil {
			fetcher = source.NewFetcher(log)
		}
		archive, err := fetcher.Download(ctx, id, filepath.Join(work, "download"))
		if err != nil {
			return "", fmt.Errorf("failed to download arXiv %s: %w", id, err)
		}
		return extractBundle(archive, srcDir)
	}

	info, err := os.Stat(input)
	if err != nil {
		return "", fmt.Errorf("input not found: %w", err)
	}
	switch {
	case info.IsDir():
		return source.FindMainTex(input)
	case strings.EqualFold(filepath.Ext(input), ".tex"):
		return input, nil
	default:
		return extractBundle(input, srcDir)
	}
}

func extractBundle(archive, dest string) (string, error) {
	if err := source.Extract(archive, dest); err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", filepath.Base(archive), err)
	}
	return source.FindMainTex(dest)
}

// stylesheet returns the stylesheet path for pandoc, writing the built-in
// one into work when none was configured.
func (p *Pipeline) stylesheet(work string) (string, error) {
	if p.Options.CSSPath != "" {
		if _, err := os.Stat(p.Options.CSSPath); err != nil {
			return "", fmt.Errorf("stylesheet not found: %w", err)
		}
		return filepath.Abs(p.Options.CSSPath)
	}
	path := filepath.Join(work, "epub.css")
	if err := os.WriteFile(path, []byte(postprocess.Stylesheet()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return path, nil
}

// verifyOutput checks that the written archive opens as an EPUB with a
// readable package document.
func verifyOutput(path string, log *slog.Logger) error {
	reader, err := epub.Open(path)
	if err != nil {
		return fmt.Errorf("output is not a valid EPUB: %w", err)
	}
	defer reader.Close()

	if reader.OPFPath() == "" {
		log.Warn("output has no package document reference", "warnings", reader.Warnings())
		return nil
	}
	data, err := reader.ReadFile(reader.OPFPath())
	if err != nil {
		return fmt.Errorf("failed to read output package document: %w", err)
	}
	pkg, err := epub.ParsePackage(data)
	if err != nil {
		return fmt.Errorf("failed to parse output package document: %w", err)
	}
	log.Debug("verified output", "title", pkg.Title, "manifest_items", len(pkg.Manifest))
	return nil
}

// OutputName derives the EPUB file name from a title. The slug is cut to
// at most 80 characters at a dash boundary.
func OutputName(title string) string {
	s := slug.Make(title)
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
		if i := strings.LastIndex(s, "-"); i > 0 {
			s = s[:i]
		}
	}
	if s == "" {
		s = "paper"
	}
	return s + ".epub"
}
