package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestReduceMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "<p>Hello <b>world</b></p>", "Hello world"},
		{"nested", "<div><p>one</p><p>two</p></div>", "one two"},
		{"script dropped", "<p>keep</p><script>var x = 1;</script>", "keep"},
		{"style dropped", "<style>p{color:red}</style><p>text</p>", "text"},
		{"whitespace nodes skipped", "<p>  a  </p>\n\n<p>b</p>", "a b"},
		{"bare text", "no tags at all", "no tags at all"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReduceMarkup(tt.input); got != tt.want {
				t.Errorf("ReduceMarkup(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadPlainTextFallback(t *testing.T) {
	p := writeFile(t, "notes.txt", "just some plain text")

	book, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if book.Title != "notes" {
		t.Errorf("Title = %q, want %q", book.Title, "notes")
	}
	if len(book.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(book.Chapters))
	}
	if book.Chapters[0].PlainText != "just some plain text" {
		t.Errorf("PlainText = %q", book.Chapters[0].PlainText)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMarkdownChapters(t *testing.T) {
	p := writeFile(t, "guide.md", `# First
alpha line
beta line

# Second
gamma line
`)

	book, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if book.Title != "guide" {
		t.Errorf("Title = %q", book.Title)
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d: %+v", len(book.Chapters), book.Chapters)
	}
	if book.Chapters[0].Title != "First" || book.Chapters[1].Title != "Second" {
		t.Errorf("titles = %q, %q", book.Chapters[0].Title, book.Chapters[1].Title)
	}
	if book.Chapters[0].PlainText != "alpha line\nbeta line" {
		t.Errorf("chapter 0 text = %q", book.Chapters[0].PlainText)
	}
	if book.Chapters[1].Index != 1 {
		t.Errorf("chapter 1 index = %d", book.Chapters[1].Index)
	}
}

func TestMarkdownPreambleBecomesDocument(t *testing.T) {
	p := writeFile(t, "readme.md", `intro text before any header

# Real Chapter
body
`)

	book, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(book.Chapters))
	}
	if book.Chapters[0].Title != "Document" {
		t.Errorf("preamble title = %q, want Document", book.Chapters[0].Title)
	}
	if !strings.Contains(book.Chapters[0].PlainText, "intro text") {
		t.Errorf("preamble text = %q", book.Chapters[0].PlainText)
	}
}

func TestMarkdownEmptyFile(t *testing.T) {
	p := writeFile(t, "empty.md", "")
	book, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(book.Chapters) != 1 || book.Chapters[0].Title != "Document" {
		t.Errorf("chapters = %+v, want single empty Document", book.Chapters)
	}
}

func TestChapterText(t *testing.T) {
	book := &Book{Chapters: []Chapter{
		{Index: 0, PlainText: "first"},
		{Index: 1, PlainText: "second"},
	}}
	if got := book.ChapterText(1); got != "second" {
		t.Errorf("ChapterText(1) = %q", got)
	}
	if got := book.ChapterText(-1); got != "" {
		t.Errorf("ChapterText(-1) = %q", got)
	}
	if got := book.ChapterText(2); got != "" {
		t.Errorf("ChapterText(2) = %q", got)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) == 0 {
		t.Fatal("no formats registered")
	}
	joined := strings.Join(formats, "; ")
	for _, want := range []string{"EPUB", ".epub", "Markdown", ".md"} {
		if !strings.Contains(joined, want) {
			t.Errorf("SupportedFormats missing %q: %v", want, formats)
		}
	}
}
