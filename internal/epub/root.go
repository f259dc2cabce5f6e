package epub

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrContentRootNotFound is returned when an extracted archive has no
// recognizable content directory.
var ErrContentRootNotFound = errors.New("content root directory not found")

// contentRootCandidates are the conventional content directory names, in
// priority order.
var contentRootCandidates = []string{"EPUB", "OEBPS", "OPS", "content"}

// FindContentRoot locates the content directory of an extracted archive.
// Conventional directory names are tried first, then the directory of the
// package document named by META-INF/container.xml, then the directory of
// the first package document found anywhere below dir.
func FindContentRoot(dir string) (string, error) {
	for _, name := range contentRootCandidates {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "META-INF", "container.xml")); err == nil {
		if p, err := RootfilePath(data); err == nil && isSafePath(p) {
			opf := filepath.Join(dir, filepath.FromSlash(p))
			if info, err := os.Stat(opf); err == nil && !info.IsDir() {
				return filepath.Dir(opf), nil
			}
		}
	}

	if opfs := FindFiles(dir, ".opf"); len(opfs) > 0 {
		return filepath.Dir(opfs[0]), nil
	}

	return "", ErrContentRootNotFound
}

// FindFiles returns the regular files below root whose extension matches
// one of exts, case-insensitively, in lexical walk order. Unreadable
// subtrees are skipped.
func FindFiles(root string, exts ...string) []string {
	var found []string
	filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		for _, e := range exts {
			if ext == e {
				found = append(found, p)
				break
			}
		}
		return nil
	})
	return found
}
