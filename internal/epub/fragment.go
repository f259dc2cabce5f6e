package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fragment represents a parsed XHTML content file
type Fragment struct {
	Path     string            // File path
	Document *goquery.Document // Parsed HTML document
}

// LoadFragment parses an XHTML content file.
func LoadFragment(path string, content []byte) (*Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}
	return &Fragment{Path: path, Document: doc}, nil
}

// IDsWithPrefix returns the id attributes in document order that start
// with prefix.
func (f *Fragment) IDsWithPrefix(prefix string) []string {
	var ids []string
	f.Document.Find(`[id^="` + prefix + `"]`).Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	})
	return ids
}
