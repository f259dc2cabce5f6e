// Package source retrieves and unpacks LaTeX source bundles and locates the
// main document inside them.
package source

import (
	"regexp"
	"strings"
)

var (
	arxivURLRe = regexp.MustCompile(`(?:https?://)?(?:www\.)?arxiv\.org/(?:abs|pdf|html|src)/(\d{4}\.\d{4,5}(?:v\d+)?)`)
	arxivIDRe  = regexp.MustCompile(`^(\d{4}\.\d{4,5}(?:v\d+)?)$`)
)

// ParseArxivID extracts an arXiv identifier such as 2301.12345v2 from an
// abs, pdf, html or src URL, or from a bare identifier.
func ParseArxivID(s string) (string, bool) {
	if m := arxivURLRe.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := arxivIDRe.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		return m[1], true
	}
	return "", false
}
