package postprocess

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuanying/tex2epub/internal/epub"
)

// manifestCloseRe matches the closing manifest tag with an optional
// namespace prefix.
var manifestCloseRe = regexp.MustCompile(`</(?:([A-Za-z_][\w.-]*):)?manifest\s*>`)

var errNoManifestTag = errors.New("no closing manifest tag")

var mediaTypes = map[string]string{
	".otf":  "font/otf",
	".ttf":  "font/ttf",
	".woff": "font/woff",
	".css":  "text/css",
}

// patchManifest adds an item for each asset the package document at
// opfPath does not reference yet. Nothing is changed when the marker font
// is already present. It returns the number of items added.
func patchManifest(opfPath string, assets []string) (int, error) {
	data, err := os.ReadFile(opfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read package document: %w", err)
	}
	content := string(data)

	if strings.Contains(content, markerFont) {
		return 0, nil
	}

	loc := manifestCloseRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(opfPath), errNoManifestTag)
	}
	prefix := ""
	if loc[2] >= 0 {
		prefix = content[loc[2]:loc[3]] + ":"
	}

	pkg, _ := epub.ParsePackage(data)
	listed := func(href string) bool {
		if pkg != nil {
			return pkg.HasHref(href)
		}
		return strings.Contains(content, `href="`+href+`"`)
	}
	addedIDs := make(map[string]bool)
	taken := func(id string) bool {
		return addedIDs[id] || (pkg != nil && pkg.HasID(id))
	}

	indent := lineIndent(content[:loc[0]])
	opfDir := filepath.Dir(opfPath)

	var items strings.Builder
	added := 0
	for _, asset := range assets {
		rel, err := filepath.Rel(opfDir, asset)
		if err != nil {
			continue
		}
		href := filepath.ToSlash(rel)
		if listed(href) {
			continue
		}

		id := uniqueID(manifestID(filepath.Base(asset)), taken)
		addedIDs[id] = true
		fmt.Fprintf(&items, "  <%sitem id=\"%s\" href=\"%s\" media-type=\"%s\"/>\n%s",
			prefix, html.EscapeString(id), html.EscapeString(href), mediaTypeOf(asset), indent)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	content = content[:loc[0]] + items.String() + content[loc[0]:]
	if err := os.WriteFile(opfPath, []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write package document: %w", err)
	}
	return added, nil
}

// manifestID derives an item id from a file name: dots become dashes and
// an "-otf" suffix is dropped, so lmroman10-regular.otf becomes
// lmroman10-regular.
func manifestID(name string) string {
	id := strings.ReplaceAll(name, ".", "-")
	id = strings.ReplaceAll(id, "-otf", "")
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	id = b.String()
	if id == "" || !(id[0] >= 'a' && id[0] <= 'z' || id[0] >= 'A' && id[0] <= 'Z' || id[0] == '_') {
		id = "asset-" + id
	}
	return id
}

func uniqueID(id string, taken func(string) bool) string {
	if !taken(id) {
		return id
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", id, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func mediaTypeOf(path string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// lineIndent returns the spaces and tabs that end s after its last newline.
func lineIndent(s string) string {
	line := s[strings.LastIndex(s, "\n")+1:]
	if strings.TrimLeft(line, " \t") != "" {
		return ""
	}
	return line
}
