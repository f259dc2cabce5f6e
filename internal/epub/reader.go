package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MimeType is the required content of the mimetype entry.
const MimeType = "application/epub+zip"

// EPUBReader provides access to EPUB file contents
type EPUBReader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File
	opfPath   string
	warnings  []string
}

var (
	ErrInvalidMimetype    = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeCompressed = errors.New("mimetype must not be compressed")
	ErrMimetypeNotFound   = errors.New("mimetype file not found")
	ErrContainerNotFound  = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound    = errors.New("OPF path not found in container.xml")
)

// Open opens an EPUB file and validates its mimetype entry. Problems with
// META-INF/container.xml are not fatal; they are reported by Warnings and
// OPFPath is left empty.
func Open(path string) (*EPUBReader, error) {
	return open(path, true)
}

// OpenArchive opens a zip archive like Open but reports mimetype problems
// through Warnings instead of failing, so that a nonconforming archive can
// still be extracted and repackaged.
func OpenArchive(path string) (*EPUBReader, error) {
	return open(path, false)
}

func open(path string, strict bool) (*EPUBReader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	reader := &EPUBReader{
		zipReader: zr,
		files:     make(map[string]*zip.File),
	}

	for _, f := range zr.File {
		reader.files[normalizePath(f.Name)] = f
	}

	if err := reader.validateMimetype(); err != nil {
		if strict {
			zr.Close()
			return nil, err
		}
		reader.warnings = append(reader.warnings, err.Error())
	}

	if err := reader.parseContainer(); err != nil {
		reader.warnings = append(reader.warnings, err.Error())
	}

	return reader, nil
}

// Close closes the EPUB reader
func (r *EPUBReader) Close() error {
	return r.zipReader.Close()
}

// OPFPath returns the path to the OPF file named by container.xml, or an
// empty string when the container could not be read.
func (r *EPUBReader) OPFPath() string {
	return r.opfPath
}

// Warnings returns non-fatal structural problems found while opening.
func (r *EPUBReader) Warnings() []string {
	return r.warnings
}

// Files returns a map of all files in the EPUB
func (r *EPUBReader) Files() map[string]*zip.File {
	return r.files
}

// Names returns the normalized entry names in sorted order.
func (r *EPUBReader) Names() []string {
	names := make([]string, 0, len(r.files))
	for name := range r.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFile reads the contents of a file from the EPUB
func (r *EPUBReader) ReadFile(path string) ([]byte, error) {
	path = normalizePath(path)
	f, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return readEntry(f, maxEntrySize)
}

// validateMimetype checks that the mimetype file exists and is valid
func (r *EPUBReader) validateMimetype() error {
	f, ok := r.files["mimetype"]
	if !ok {
		return ErrMimetypeNotFound
	}

	if f.Method != zip.Store {
		return ErrMimetypeCompressed
	}

	content, err := r.ReadFile("mimetype")
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}

	if strings.TrimSpace(string(content)) != MimeType {
		return ErrInvalidMimetype
	}

	return nil
}

// parseContainer parses container.xml to extract OPF path
func (r *EPUBReader) parseContainer() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerNotFound
	}

	opfPath, err := RootfilePath(content)
	if err != nil {
		return err
	}
	r.opfPath = opfPath
	return nil
}

// normalizePath normalizes file paths (removes ./ prefix)
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
