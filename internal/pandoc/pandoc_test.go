package pandoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yuanying/tex2epub/internal/latex"
)

// fakePandoc writes an executable script that behaves like pandoc: it
// writes to the path after -o unless noOutput is set, prints stderr and
// exits with code.
func fakePandoc(t *testing.T, stderr string, code int, noOutput bool) string {
	t.Helper()
	write := `out=""; prev=""; for a in "$@"; do if [ "$prev" = "-o" ]; then out="$a"; fi; prev="$a"; done; echo epub > "$out"`
	if noOutput {
		write = ":"
	}
	script := fmt.Sprintf("#!/bin/sh\n%s\nprintf '%%s' '%s' >&2\nexit %d\n", write, stderr, code)

	path := filepath.Join(t.TempDir(), "fake-pandoc")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newRequest(t *testing.T) Request {
	t.Helper()
	dir := t.TempDir()
	return Request{
		Text:    "\\documentclass{article}\n\\begin{document}\nHi\n\\end{document}\n",
		WorkDir: dir,
		Output:  filepath.Join(dir, "out.epub"),
	}
}

func TestArgs(t *testing.T) {
	c := NewConverter("")
	c.ExtraArgs = []string{"--epub-title-page=false"}
	req := Request{
		Metadata: latex.Metadata{
			Title:   "Attention",
			Authors: []string{"A. Vaswani", "N. Shazeer"},
			Date:    "2017",
		},
		WorkDir:      "/work",
		Output:       "/out/paper.epub",
		CSS:          "/work/epub.css",
		Bibliography: "/work/refs.bib",
	}

	got := c.Args(req, "/work/_preprocessed.tex")
	want := []string{
		"/work/_preprocessed.tex",
		"--from", "latex",
		"--to", "epub3",
		"--mathml",
		"--toc",
		"--toc-depth=2",
		"--split-level=1",
		"--resource-path=/work",
		"--css=/work/epub.css",
		"--citeproc", "--bibliography=/work/refs.bib",
		"--metadata", "title=Attention",
		"--metadata", "author=A. Vaswani",
		"--metadata", "author=N. Shazeer",
		"--metadata", "date=2017",
		"--epub-title-page=false",
		"-o", "/out/paper.epub",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Args() =\n%q\nwant\n%q", got, want)
	}
}

func TestArgs_Minimal(t *testing.T) {
	c := &Converter{Binary: "pandoc", TOCDepth: 3, SplitLevel: 2}
	got := strings.Join(c.Args(Request{WorkDir: "/w", Output: "o.epub"}, "in.tex"), " ")
	for _, unwanted := range []string{"--citeproc", "--css", "--metadata"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("unexpected %s in %q", unwanted, got)
		}
	}
	if !strings.Contains(got, "--toc-depth=3 --split-level=2") {
		t.Errorf("configured levels missing in %q", got)
	}
}

func TestConvert(t *testing.T) {
	req := newRequest(t)
	c := NewConverter(fakePandoc(t, "", 0, false))

	res, err := c.Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.Output != req.Output {
		t.Errorf("Output = %q, want %q", res.Output, req.Output)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %q, want none", res.Warnings)
	}

	data, err := os.ReadFile(filepath.Join(req.WorkDir, InputFileName))
	if err != nil {
		t.Fatalf("preprocessed document not written: %v", err)
	}
	if string(data) != req.Text {
		t.Errorf("preprocessed document = %q", data)
	}
}

func TestConvert_NonZeroExitWithOutput(t *testing.T) {
	req := newRequest(t)
	c := NewConverter(fakePandoc(t, "[WARNING] Could not convert TeX math\n[WARNING] Missing character", 1, false))

	res, err := c.Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := []string{"[WARNING] Could not convert TeX math", "[WARNING] Missing character"}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Errorf("Warnings = %q, want %q", res.Warnings, want)
	}
}

func TestConvert_FailedWithoutOutput(t *testing.T) {
	req := newRequest(t)
	c := NewConverter(fakePandoc(t, "Error at line 3", 64, true))

	_, err := c.Convert(context.Background(), req)
	if !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("Convert() error = %v, want ErrConversionFailed", err)
	}
	if !strings.Contains(err.Error(), "Error at line 3") {
		t.Errorf("error should carry stderr, got %v", err)
	}
}

func TestConvert_SuccessWithoutOutput(t *testing.T) {
	req := newRequest(t)
	c := NewConverter(fakePandoc(t, "", 0, true))

	if _, err := c.Convert(context.Background(), req); !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("Convert() error = %v, want ErrConversionFailed", err)
	}
}

func TestConvert_BinaryNotFound(t *testing.T) {
	c := NewConverter(filepath.Join(t.TempDir(), "no-such-pandoc"))
	if _, err := c.Convert(context.Background(), newRequest(t)); !errors.Is(err, ErrBinaryNotFound) {
		t.Fatalf("Convert() error = %v, want ErrBinaryNotFound", err)
	}
}

func TestSummarizeWarnings(t *testing.T) {
	few := []string{"a", "b", "c"}
	if got := SummarizeWarnings(few); !reflect.DeepEqual(got, few) {
		t.Errorf("SummarizeWarnings(few) = %q", got)
	}

	var many []string
	for i := 0; i < 12; i++ {
		many = append(many, fmt.Sprintf("w%d", i))
	}
	got := SummarizeWarnings(many)
	want := []string{"12 warnings (showing first 5)", "w0", "w1", "w2", "w3", "w4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SummarizeWarnings(many) = %q, want %q", got, want)
	}
}
