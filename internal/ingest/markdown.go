package ingest

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MarkdownFormat implements Format for Markdown files. Top-level headers
// delimit chapters; header markers are stripped from the chapter text.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

func (f *MarkdownFormat) Extract(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	book := &Book{Title: strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))}

	var title string
	var body strings.Builder
	flush := func() {
		text := strings.TrimSpace(body.String())
		body.Reset()
		if title == "" && text == "" {
			return
		}
		if title == "" {
			title = "Document"
		}
		book.Chapters = append(book.Chapters, Chapter{
			Index:     len(book.Chapters),
			Title:     title,
			PlainText: text,
		})
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if match := headerRegex.FindStringSubmatch(line); match != nil {
			flush()
			title = strings.TrimSpace(match[2])
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	if len(book.Chapters) == 0 {
		book.Chapters = []Chapter{{Index: 0, Title: "Document", PlainText: ""}}
	}
	return book, nil
}
