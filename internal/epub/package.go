package epub

import (
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"
)

// Package is the part of an OPF package document the patcher and the
// final verification need.
type Package struct {
	Title    string
	Creators []string
	Language string
	Manifest []ManifestItem
}

// ManifestItem represents an item in the manifest. Href is relative to the
// package document.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// ParsePackage parses an OPF document. Element names are matched without
// regard to namespace prefixes, so both <item> and <opf:item> are read.
func ParsePackage(content []byte) (*Package, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}
	if doc.FindElement("//package") == nil {
		return nil, fmt.Errorf("failed to parse OPF XML: no package element")
	}

	pkg := &Package{}
	if el := doc.FindElement("//metadata/title"); el != nil {
		pkg.Title = strings.TrimSpace(el.Text())
	}
	if el := doc.FindElement("//metadata/language"); el != nil {
		pkg.Language = strings.TrimSpace(el.Text())
	}
	for _, el := range doc.FindElements("//metadata/creator") {
		if name := strings.TrimSpace(el.Text()); name != "" {
			pkg.Creators = append(pkg.Creators, name)
		}
	}

	for _, el := range doc.FindElements("//manifest/item") {
		item := ManifestItem{
			ID:        el.SelectAttrValue("id", ""),
			Href:      el.SelectAttrValue("href", ""),
			MediaType: el.SelectAttrValue("media-type", ""),
		}
		if props := el.SelectAttrValue("properties", ""); props != "" {
			item.Properties = strings.Fields(props)
		}
		pkg.Manifest = append(pkg.Manifest, item)
	}

	return pkg, nil
}

// HasHref reports whether the manifest lists href.
func (p *Package) HasHref(href string) bool {
	href = path.Clean(normalizePath(href))
	for _, item := range p.Manifest {
		if path.Clean(normalizePath(item.Href)) == href {
			return true
		}
	}
	return false
}

// HasID reports whether the manifest uses id.
func (p *Package) HasID(id string) bool {
	for _, item := range p.Manifest {
		if item.ID == id {
			return true
		}
	}
	return false
}

// ItemsByMediaType returns the manifest items whose media type has the
// given prefix, such as "font/" or "image/".
func (p *Package) ItemsByMediaType(prefix string) []ManifestItem {
	var items []ManifestItem
	for _, item := range p.Manifest {
		if strings.HasPrefix(item.MediaType, prefix) {
			items = append(items, item)
		}
	}
	return items
}
