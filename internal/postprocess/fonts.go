package postprocess

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/font/opentype"
)

// DefaultFontFiles are the Latin Modern faces the typography stylesheet
// refers to.
var DefaultFontFiles = []string{
	"lmroman10-regular.otf",
	"lmroman10-bold.otf",
	"lmroman10-italic.otf",
	"lmroman10-bolditalic.otf",
	"lmsans10-regular.otf",
	"lmsans10-bold.otf",
	"lmmono10-regular.otf",
}

// markerFont is the font whose presence in the manifest means the archive
// has already been patched.
const markerFont = "lmroman10-regular.otf"

// injectFonts copies each named font from fontsDir into <root>/fonts and
// returns the paths written. Fonts that are missing or do not parse as
// OpenType are skipped.
func injectFonts(root, fontsDir string, names []string, logger *slog.Logger) ([]string, error) {
	if fontsDir == "" {
		logger.Info("no fonts directory configured, skipping font injection")
		return nil, nil
	}

	dest := filepath.Join(root, "fonts")
	var injected []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(fontsDir, name))
		if err != nil {
			logger.Warn("font not found, skipping", "font", name)
			continue
		}
		if _, err := opentype.Parse(data); err != nil {
			logger.Warn("font is not a valid OpenType file, skipping", "font", name, "error", err)
			continue
		}

		if err := os.MkdirAll(dest, 0o755); err != nil {
			return injected, fmt.Errorf("failed to create fonts directory: %w", err)
		}
		target := filepath.Join(dest, name)
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return injected, fmt.Errorf("failed to write font %s: %w", name, err)
		}
		injected = append(injected, target)
	}

	logger.Debug("injected fonts", "count", len(injected), "requested", len(names))
	return injected, nil
}
