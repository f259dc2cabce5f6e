package epub

import (
	"fmt"

	"github.com/beevik/etree"
)

const packageMediaType = "application/oebps-package+xml"

// RootfilePath returns the package document path declared by a
// META-INF/container.xml document. A rootfile with the package media type
// (or none at all) is preferred; otherwise the first rootfile is used.
func RootfilePath(content []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return "", fmt.Errorf("failed to parse container.xml: %w", err)
	}

	var first string
	for _, rf := range doc.FindElements("//rootfile") {
		p := normalizePath(rf.SelectAttrValue("full-path", ""))
		if p == "" {
			continue
		}
		switch rf.SelectAttrValue("media-type", "") {
		case packageMediaType, "":
			return p, nil
		}
		if first == "" {
			first = p
		}
	}

	if first != "" {
		return first, nil
	}
	return "", ErrOPFPathNotFound
}
