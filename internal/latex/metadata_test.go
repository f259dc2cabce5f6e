package latex

import (
	"reflect"
	"testing"
)

func TestExtractMetadata_ICMLTitle(t *testing.T) {
	meta := ExtractMetadata(`\icmltitle{Foo}` + "\n" + `\begin{document}x\end{document}`)
	if meta.Title != "Foo" {
		t.Fatalf("expected title Foo, got %q", meta.Title)
	}
}

func TestExtractMetadata_TitlePriority(t *testing.T) {
	text := `\title{Generic}` + "\n" + `\icmltitle{Specific}`
	meta := ExtractMetadata(text)
	if meta.Title != "Specific" {
		t.Fatalf("conference title should win, got %q", meta.Title)
	}
}

func TestExtractMetadata_NestedTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"formatting", `\title{A \textbf{Bold} Title}`, "A Bold Title"},
		{"short title", `\title[Short]{The Long Title}`, "The Long Title"},
		{"neurips", `\neuripsfinaltitle{Neural Things}`, "Neural Things"},
		{"whitespace", "\\title{Split\n   Across\tLines}", "Split Across Lines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractMetadata(tt.text).Title; got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractMetadata_AuthorBlock(t *testing.T) {
	meta := ExtractMetadata(`\author{A \and B}`)
	want := []string{"A", "B"}
	if !reflect.DeepEqual(meta.Authors, want) {
		t.Fatalf("expected %v, got %v", want, meta.Authors)
	}
}

func TestExtractMetadata_ICMLAuthorsPreferred(t *testing.T) {
	text := `\author{Template Author}
\begin{icmlauthorlist}
\icmlauthor{Alice}{aff1}
\icmlauthor{Bob \textit{Smith}}{aff2}
\end{icmlauthorlist}`
	meta := ExtractMetadata(text)
	want := []string{"Alice", "Bob Smith"}
	if !reflect.DeepEqual(meta.Authors, want) {
		t.Fatalf("expected %v, got %v", want, meta.Authors)
	}
}

func TestExtractMetadata_AbstractAndDate(t *testing.T) {
	text := `\date{March 2024}
\begin{abstract}
  We study \emph{things}.
\end{abstract}`
	meta := ExtractMetadata(text)
	if meta.Abstract != `We study \emph{things}.` {
		t.Fatalf("abstract should be trimmed but not cleaned, got %q", meta.Abstract)
	}
	if meta.Date != "March 2024" {
		t.Fatalf("expected date March 2024, got %q", meta.Date)
	}
}

func TestExtractMetadata_TodayDateIgnored(t *testing.T) {
	if got := ExtractMetadata(`\date{\today}`).Date; got != "" {
		t.Fatalf("expected empty date, got %q", got)
	}
}

func TestExtractMetadata_Empty(t *testing.T) {
	meta := ExtractMetadata("no metadata here")
	if meta.Title != "" || meta.Abstract != "" || meta.Date != "" {
		t.Fatalf("expected empty metadata, got %+v", meta)
	}
	if len(meta.Authors) != 0 {
		t.Fatalf("expected no authors, got %v", meta.Authors)
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText(`\textbf{Deep} \emph{Learning}   {Now}`)
	if got != "Deep Learning Now" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}
