// Package postprocess patches a generated EPUB in place: it embeds fonts,
// replaces the stylesheet, registers the new assets in the manifest, links
// citations to the bibliography and optionally downscales images.
package postprocess

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yuanying/tex2epub/internal/epub"
)

// Options configures a Patcher. Each step can be disabled individually.
type Options struct {
	// FontsDir holds the font files to embed. Empty disables font injection.
	FontsDir string
	// FontFiles names the fonts to embed; nil means DefaultFontFiles.
	FontFiles []string
	// Stylesheet replaces the built-in typography stylesheet when non-empty.
	Stylesheet string

	// MaxImageWidth enables downscaling of wider raster images when > 0.
	MaxImageWidth int
	JPEGQuality   int

	SkipFonts     bool
	SkipStyle     bool
	SkipManifest  bool
	SkipCitations bool

	Logger *slog.Logger
}

// Report summarizes the changes made to an archive.
type Report struct {
	FontsInjected   int
	Stylesheet      string // path inside the archive
	ManifestEntries int
	Bibliography    string // path inside the archive, empty when none found
	CitationsLinked int
	ImagesResized   int
}

// Patcher applies the post-processing steps to EPUB archives.
type Patcher struct {
	opts   Options
	logger *slog.Logger
}

// NewPatcher creates a patcher.
func NewPatcher(opts Options) *Patcher {
	if opts.FontFiles == nil {
		opts.FontFiles = DefaultFontFiles
	}
	if opts.Stylesheet == "" {
		opts.Stylesheet = typographyCSS
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Patcher{opts: opts, logger: logger}
}

// PatchArchive patches the archive with the default options, embedding
// fonts from fontsDir.
func PatchArchive(archivePath, fontsDir string) error {
	_, err := NewPatcher(Options{FontsDir: fontsDir}).Patch(archivePath)
	return err
}

// Patch extracts archivePath into a scratch directory, applies every
// enabled step and repackages the result over the original file. The
// scratch directory is always removed. Only a missing archive, a missing
// content root or I/O failures are errors; missing fonts, manifest or
// bibliography just skip their step.
func (p *Patcher) Patch(archivePath string) (Report, error) {
	var report Report

	if _, err := os.Stat(archivePath); err != nil {
		return report, fmt.Errorf("EPUB not found: %w", err)
	}

	work, err := os.MkdirTemp("", "tex2epub-post-")
	if err != nil {
		return report, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer os.RemoveAll(work)

	if err := p.extract(archivePath, work); err != nil {
		return report, err
	}

	root, err := epub.FindContentRoot(work)
	if err != nil {
		return report, err
	}
	p.logger.Debug("found content root", "root", rel(work, root))

	var assets []string
	if !p.opts.SkipFonts {
		fonts, err := injectFonts(root, p.opts.FontsDir, p.opts.FontFiles, p.logger)
		if err != nil {
			return report, err
		}
		report.FontsInjected = len(fonts)
		assets = append(assets, fonts...)
	}

	if !p.opts.SkipStyle {
		css, created, err := injectStylesheet(root, p.opts.Stylesheet)
		if err != nil {
			return report, err
		}
		report.Stylesheet = rel(work, css)
		if created {
			assets = append(assets, css)
		}
	}

	if !p.opts.SkipManifest {
		n, err := p.patchManifest(work, root, assets)
		if err != nil {
			return report, err
		}
		report.ManifestEntries = n
	}

	if !p.opts.SkipCitations {
		bib, n, err := linkAllCitations(root, p.logger)
		if err != nil {
			return report, err
		}
		if bib != "" {
			report.Bibliography = rel(work, bib)
		}
		report.CitationsLinked = n
	}

	if p.opts.MaxImageWidth > 0 {
		n, err := NewImageResizer(p.opts.MaxImageWidth, p.opts.JPEGQuality).resizeImages(root, p.logger)
		if err != nil {
			return report, err
		}
		report.ImagesResized = n
	}

	if err := epub.Pack(work, archivePath); err != nil {
		return report, fmt.Errorf("failed to repackage EPUB: %w", err)
	}

	p.logger.Info("post-processed EPUB",
		"path", archivePath,
		"fonts", report.FontsInjected,
		"manifest_entries", report.ManifestEntries,
		"citations", report.CitationsLinked,
		"images_resized", report.ImagesResized,
	)
	return report, nil
}

func (p *Patcher) extract(archivePath, dest string) error {
	reader, err := epub.OpenArchive(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, w := range reader.Warnings() {
		p.logger.Warn("archive structure problem", "warning", w)
	}
	if err := reader.Extract(dest); err != nil {
		return fmt.Errorf("failed to extract EPUB: %w", err)
	}
	return nil
}

func (p *Patcher) patchManifest(work, root string, assets []string) (int, error) {
	opfs := epub.FindFiles(root, ".opf")
	if len(opfs) == 0 {
		opfs = epub.FindFiles(work, ".opf")
	}
	if len(opfs) == 0 {
		p.logger.Warn("no package document found, skipping manifest patch")
		return 0, nil
	}
	if len(assets) == 0 {
		return 0, nil
	}
	n, err := patchManifest(opfs[0], assets)
	if errors.Is(err, errNoManifestTag) {
		p.logger.Warn("package document has no manifest, skipping manifest patch", "error", err)
		return 0, nil
	}
	return n, err
}

// rel returns path relative to base with forward slashes, for logs and
// reports.
func rel(base, path string) string {
	r, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}
