package postprocess

import (
	"archive/zip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goepub "github.com/go-shiori/go-epub"

	"github.com/yuanying/tex2epub/internal/epub"
)

const introBody = `<h1>Introduction</h1>
<p>Prior work <span class="citation" data-cites="a b"><span class="csl">(A 2020; B 2021)</span></span> and
<span class="citation" data-cites="unknown">(U 1999)</span>.</p>`

func refsBody() string {
	var b strings.Builder
	b.WriteString("<h1>References</h1>\n")
	for _, key := range []string{"a", "b", "c", "d", "e", "f"} {
		fmt.Fprintf(&b, "<div id=\"ref-%s\" class=\"csl-entry\">Entry %s.</div>\n", key, key)
	}
	return b.String()
}

// buildPandocLikeEPUB writes an EPUB with a stylesheet, a chapter carrying
// citation spans and a bibliography chapter.
func buildPandocLikeEPUB(t *testing.T) string {
	t.Helper()
	e, err := goepub.NewEpub("A Paper")
	if err != nil {
		t.Fatalf("NewEpub() error = %v", err)
	}
	e.SetLang("en")
	e.SetAuthor("Ada Lovelace")

	css := "data:text/css;base64," + base64.StdEncoding.EncodeToString([]byte("body { color: red; }"))
	cssPath, err := e.AddCSS(css, "styles.css")
	if err != nil {
		t.Fatalf("AddCSS() error = %v", err)
	}
	if _, err := e.AddSection(introBody, "Introduction", "intro.xhtml", cssPath); err != nil {
		t.Fatalf("AddSection() error = %v", err)
	}
	if _, err := e.AddSection(refsBody(), "References", "refs.xhtml", cssPath); err != nil {
		t.Fatalf("AddSection() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "paper.epub")
	if err := e.Write(path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return path
}

func readArchive(t *testing.T, path string) (*zip.ReadCloser, map[string]string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("zip.OpenReader() error = %v", err)
	}
	t.Cleanup(func() { zr.Close() })

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return zr, files
}

func newTestPatcher(fontsDir string) *Patcher {
	return NewPatcher(Options{FontsDir: fontsDir, Logger: discardLogger()})
}

func TestPatch(t *testing.T) {
	archive := buildPandocLikeEPUB(t)

	report, err := newTestPatcher(writeFontsDir(t)).Patch(archive)
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	if report.FontsInjected != 1 {
		t.Errorf("FontsInjected = %d, want 1", report.FontsInjected)
	}
	if report.ManifestEntries != 1 {
		t.Errorf("ManifestEntries = %d, want 1", report.ManifestEntries)
	}
	if report.Stylesheet != "EPUB/css/styles.css" {
		t.Errorf("Stylesheet = %q", report.Stylesheet)
	}
	if report.Bibliography != "EPUB/xhtml/refs.xhtml" {
		t.Errorf("Bibliography = %q", report.Bibliography)
	}
	if report.CitationsLinked != 1 {
		t.Errorf("CitationsLinked = %d, want 1", report.CitationsLinked)
	}

	zr, files := readArchive(t, archive)
	if first := zr.File[0]; first.Name != "mimetype" || first.Method != zip.Store {
		t.Fatalf("first entry = %s (method %d), want stored mimetype", first.Name, first.Method)
	}
	if _, ok := files["EPUB/fonts/lmroman10-regular.otf"]; !ok {
		t.Error("font was not embedded")
	}
	if _, ok := files["EPUB/fonts/lmsans10-bold.otf"]; ok {
		t.Error("invalid font should be skipped")
	}

	css := files["EPUB/css/styles.css"]
	if !strings.Contains(css, "Latin Modern") || !strings.Contains(css, "url(../fonts/") {
		t.Errorf("stylesheet was not replaced:\n%s", css)
	}

	opf := files["EPUB/package.opf"]
	if c := strings.Count(opf, `href="fonts/lmroman10-regular.otf"`); c != 1 {
		t.Errorf("font listed %d times in manifest, want 1", c)
	}

	intro := files["EPUB/xhtml/intro.xhtml"]
	if !strings.Contains(intro, `<a href="refs.xhtml#ref-a"><span class="citation" data-cites="a b">`) {
		t.Errorf("citation was not linked:\n%s", intro)
	}
	if strings.Contains(intro, "#ref-unknown") {
		t.Error("unknown citation should not be linked")
	}
}

func TestPatch_Idempotent(t *testing.T) {
	archive := buildPandocLikeEPUB(t)
	p := newTestPatcher(writeFontsDir(t))

	if _, err := p.Patch(archive); err != nil {
		t.Fatalf("first Patch() error = %v", err)
	}
	_, before := readArchive(t, archive)

	report, err := p.Patch(archive)
	if err != nil {
		t.Fatalf("second Patch() error = %v", err)
	}
	if report.ManifestEntries != 0 || report.CitationsLinked != 0 {
		t.Errorf("second run changed content: %+v", report)
	}

	_, after := readArchive(t, archive)
	for _, name := range []string{"EPUB/package.opf", "EPUB/xhtml/intro.xhtml", "EPUB/css/styles.css"} {
		if before[name] != after[name] {
			t.Errorf("%s changed on second run", name)
		}
	}
}

func TestPatch_CreatesStylesheet(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bare.epub")
	writeZip(t, archive, []zipEntry{
		{"mimetype", epub.MimeType},
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`},
		{"OEBPS/content.opf", testOPF},
		{"OEBPS/nav.xhtml", `<html xmlns="http://www.w3.org/1999/xhtml"><body><p>nav</p></body></html>`},
	})

	report, err := newTestPatcher("").Patch(archive)
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if report.Stylesheet != "OEBPS/css/style.css" {
		t.Errorf("Stylesheet = %q, want OEBPS/css/style.css", report.Stylesheet)
	}
	if report.ManifestEntries != 1 {
		t.Errorf("ManifestEntries = %d, want 1", report.ManifestEntries)
	}
	if report.Bibliography != "" {
		t.Errorf("Bibliography = %q, want none", report.Bibliography)
	}

	_, files := readArchive(t, archive)
	if !strings.Contains(files["OEBPS/content.opf"], `href="css/style.css" media-type="text/css"`) {
		t.Errorf("stylesheet missing from manifest:\n%s", files["OEBPS/content.opf"])
	}
}

func TestPatch_NoContentRoot(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "empty.epub")
	writeZip(t, archive, []zipEntry{{"mimetype", epub.MimeType}})

	_, err := newTestPatcher("").Patch(archive)
	if !errors.Is(err, epub.ErrContentRootNotFound) {
		t.Fatalf("Patch() error = %v, want ErrContentRootNotFound", err)
	}
}

func TestPatch_MissingArchive(t *testing.T) {
	_, err := newTestPatcher("").Patch(filepath.Join(t.TempDir(), "missing.epub"))
	if err == nil {
		t.Fatal("Patch() should fail for a missing archive")
	}
}

type zipEntry struct {
	name, content string
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		method := zip.Deflate
		if e.name == "mimetype" {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: method})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

const minimalContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="EPUB/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const minimalOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>T</dc:title>
  </metadata>
  <manifest>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
</package>`

func TestPatch_RepairsMimetype(t *testing.T) {
	tests := []struct {
		name     string
		mimetype bool
	}{
		{name: "deflated mimetype", mimetype: true},
		{name: "missing mimetype", mimetype: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := filepath.Join(t.TempDir(), "book.epub")
			f, err := os.Create(archive)
			if err != nil {
				t.Fatal(err)
			}
			zw := zip.NewWriter(f)
			entries := []zipEntry{
				{"META-INF/container.xml", minimalContainer},
				{"EPUB/content.opf", minimalOPF},
				{"EPUB/text/ch1.xhtml", "<html><body><p>x</p></body></html>"},
			}
			if tt.mimetype {
				entries = append([]zipEntry{{"mimetype", epub.MimeType}}, entries...)
			}
			for _, e := range entries {
				w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate})
				if err != nil {
					t.Fatal(err)
				}
				if _, err := w.Write([]byte(e.content)); err != nil {
					t.Fatal(err)
				}
			}
			if err := zw.Close(); err != nil {
				t.Fatal(err)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}

			if _, err := newTestPatcher("").Patch(archive); err != nil {
				t.Fatalf("Patch() error = %v", err)
			}

			zr, files := readArchive(t, archive)
			first := zr.File[0]
			if first.Name != "mimetype" || first.Method != zip.Store {
				t.Fatalf("first entry = %s (method %d), want stored mimetype", first.Name, first.Method)
			}
			if files["mimetype"] != epub.MimeType {
				t.Errorf("mimetype = %q, want %q", files["mimetype"], epub.MimeType)
			}
			if _, ok := files["EPUB/text/ch1.xhtml"]; !ok {
				t.Error("content fragment missing after repackaging")
			}

			reader, err := epub.Open(archive)
			if err != nil {
				t.Fatalf("epub.Open() on patched archive error = %v", err)
			}
			reader.Close()
		})
	}
}
