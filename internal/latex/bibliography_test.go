package latex

import (
	"path/filepath"
	"testing"
)

func TestLocateBibliography(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "refs.bib"), "@article{a,}")
	writeFile(t, filepath.Join(dir, "other.bib"), "@article{b,}")

	tests := []struct {
		name string
		text string
		want string
	}{
		{"declared", `\bibliography{refs}`, "refs.bib"},
		{"declared with extension", `\bibliography{refs.bib}`, "refs.bib"},
		{"comma list", `\bibliography{missing, refs}`, "refs.bib"},
		{"biblatex", `\addbibresource[label=x]{refs.bib}`, "refs.bib"},
		{"fallback", `\bibliography{missing}`, "other.bib"},
		{"undeclared", `no bibliography`, "other.bib"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := filepath.Join(dir, tt.want)
			if got := LocateBibliography(tt.text, dir); got != want {
				t.Fatalf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestLocateBibliography_None(t *testing.T) {
	if got := LocateBibliography(`\bibliography{refs}`, t.TempDir()); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}

func TestPrepareBibliography(t *testing.T) {
	got := PrepareBibliography("\\bibliographystyle{plainnat}\n\\bibliography{refs}", Env{})
	if got != `\bibliography{refs}` {
		t.Fatalf("unexpected result %q", got)
	}
}
