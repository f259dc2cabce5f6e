package postprocess

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuanying/tex2epub/internal/epub"
)

// typographyCSS declares the embedded Latin Modern faces and the body
// typography. Font URLs are written relative to a stylesheet one directory
// below the content root.
//
//go:embed typography.css
var typographyCSS string

const defaultFontURLPrefix = "url(../fonts/"

// Stylesheet returns the built-in typography stylesheet.
func Stylesheet() string {
	return typographyCSS
}

// injectStylesheet overwrites the first stylesheet below root with css, or
// creates <root>/css/style.css when there is none. It returns the path
// written and whether it was created.
func injectStylesheet(root, css string) (string, bool, error) {
	target := filepath.Join(root, "css", "style.css")
	created := true
	if existing := epub.FindFiles(root, ".css"); len(existing) > 0 {
		target = existing[0]
		created = false
	}

	css = relocateFontURLs(css, filepath.Dir(target), filepath.Join(root, "fonts"))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create stylesheet directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(css), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return target, created, nil
}

// relocateFontURLs rewrites font URLs so they resolve from cssDir.
func relocateFontURLs(css, cssDir, fontsDir string) string {
	rel, err := filepath.Rel(cssDir, fontsDir)
	if err != nil {
		return css
	}
	return strings.ReplaceAll(css, defaultFontURLPrefix, "url("+filepath.ToSlash(rel)+"/")
}
