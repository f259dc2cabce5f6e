package postprocess

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuanying/tex2epub/internal/epub"
)

const (
	citationMarker = `<span class="citation" data-cites="`
	spanOpen       = "<span"
	spanClose      = "</span>"
	refPrefix      = "ref-"

	// bibliographyThreshold is the number of reference ids a fragment must
	// exceed to be taken for the bibliography.
	bibliographyThreshold = 5
)

// findBibliography returns the first fragment with more than
// bibliographyThreshold reference ids, together with those ids.
func findBibliography(fragments []string, logger *slog.Logger) (string, map[string]bool) {
	for _, path := range fragments {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("failed to read content fragment", "path", path, "error", err)
			continue
		}
		if !strings.Contains(string(data), `id="`+refPrefix) {
			continue
		}
		frag, err := epub.LoadFragment(path, data)
		if err != nil {
			logger.Warn("failed to parse content fragment", "path", path, "error", err)
			continue
		}
		ids := frag.IDsWithPrefix(refPrefix)
		if len(ids) <= bibliographyThreshold {
			continue
		}
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		return frag.Path, set
	}
	return "", nil
}

// linkAllCitations links citation spans in every fragment to the
// bibliography. It returns the bibliography path (empty when none was
// identified) and the number of spans linked.
func linkAllCitations(root string, logger *slog.Logger) (string, int, error) {
	fragments := epub.FindFiles(root, ".xhtml", ".html")
	bibPath, ids := findBibliography(fragments, logger)
	if bibPath == "" {
		logger.Info("no bibliography fragment found, skipping citation links")
		return "", 0, nil
	}

	total := 0
	for _, path := range fragments {
		data, err := os.ReadFile(path)
		if err != nil {
			return bibPath, total, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		if !strings.Contains(string(data), "data-cites=") {
			continue
		}

		rel, err := filepath.Rel(filepath.Dir(path), bibPath)
		if err != nil {
			continue
		}
		out, n := LinkCitations(string(data), filepath.ToSlash(rel), ids)
		if n == 0 {
			continue
		}
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return bibPath, total, fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
		}
		total += n
	}
	return bibPath, total, nil
}

// LinkCitations wraps every citation span whose first cite key has an entry
// in ids in a link to bibHref#ref-<key>. The span itself, including any
// nested spans, is copied unchanged. Spans that are already wrapped in the
// same link, or whose markup cannot be matched, are left alone.
func LinkCitations(content, bibHref string, ids map[string]bool) (string, int) {
	var b strings.Builder
	linked := 0
	pos := 0
	for {
		idx := strings.Index(content[pos:], citationMarker)
		if idx < 0 {
			break
		}
		idx += pos

		end, key, ok := citationSpan(content, idx)
		if !ok {
			break
		}

		b.WriteString(content[pos:idx])
		span := content[idx:end]
		refID := refPrefix + key
		link := `<a href="` + bibHref + `#` + refID + `">`

		if key != "" && ids[refID] && !strings.HasSuffix(content[:idx], link) {
			b.WriteString(link)
			b.WriteString(span)
			b.WriteString("</a>")
			linked++
		} else {
			b.WriteString(span)
		}
		pos = end
	}
	b.WriteString(content[pos:])
	return b.String(), linked
}

// citationSpan returns the end offset of the citation span starting at
// start and its first cite key. Nested spans are balanced with a depth
// counter.
func citationSpan(content string, start int) (end int, key string, ok bool) {
	attrStart := start + len(citationMarker)
	attrLen := strings.IndexByte(content[attrStart:], '"')
	if attrLen < 0 {
		return 0, "", false
	}
	if fields := strings.Fields(content[attrStart : attrStart+attrLen]); len(fields) > 0 {
		key = fields[0]
	}

	tagLen := strings.IndexByte(content[attrStart+attrLen:], '>')
	if tagLen < 0 {
		return 0, "", false
	}
	scan := attrStart + attrLen + tagLen + 1

	depth := 1
	for depth > 0 {
		nextClose := strings.Index(content[scan:], spanClose)
		if nextClose < 0 {
			return 0, "", false
		}
		nextOpen := strings.Index(content[scan:], spanOpen)
		if nextOpen >= 0 && nextOpen < nextClose {
			depth++
			scan += nextOpen + len(spanOpen)
			continue
		}
		depth--
		scan += nextClose + len(spanClose)
	}
	return scan, key, true
}
