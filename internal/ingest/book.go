// Package ingest loads a book from a source file and reduces each section
// to plain text. All downstream components (pagination, search, annotation)
// address chapter text by byte offset into the PlainText produced here.
package ingest

// Chapter is one ordered unit of a book's text content. Immutable once
// produced.
type Chapter struct {
	Index     int
	Title     string
	PlainText string
}

// Book is the ordered chapter set extracted from a source file.
type Book struct {
	Title    string
	Chapters []Chapter
}

// ChapterText returns the plain text of the chapter at index, or the empty
// string when the index is out of range.
func (b *Book) ChapterText(index int) string {
	if index < 0 || index >= len(b.Chapters) {
		return ""
	}
	return b.Chapters[index].PlainText
}
