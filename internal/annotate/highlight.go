// Package annotate owns the highlight records of a book: creation, note
// edits, overlap queries, persistence, and relocation after the underlying
// chapter text changes.
package annotate

import (
	"crypto/rand"
	"encoding/hex"
	"time"
	"unicode/utf8"
)

// anchorPadding is the number of characters captured on each side of a
// highlight as its relocation anchor.
const anchorPadding = 20

// Op tags an annotation mutation for the sync collaborator.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Highlight is a persisted user-selected text range with a color and an
// optional note. Offsets are half-open byte offsets into the chapter plain
// text; HighlightedText snapshots the substring at creation time and
// AnchorText the padded window around it, both used to relocate the range
// when the chapter text changes.
type Highlight struct {
	ID              string     `json:"id"`
	BookID          string     `json:"book_id"`
	ChapterIndex    int        `json:"chapter_index"`
	StartOffset     int        `json:"start_offset"`
	EndOffset       int        `json:"end_offset"`
	HighlightedText string     `json:"highlighted_text"`
	AnchorText      string     `json:"anchor_text"`
	ColorTag        string     `json:"color_tag"`
	NoteText        string     `json:"note_text,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	PendingSync     bool       `json:"pending_sync"`
}

// Contains reports whether the byte offset falls inside the highlight.
func (h Highlight) Contains(offset int) bool {
	return offset >= h.StartOffset && offset < h.EndOffset
}

// Overlap reports whether two half-open ranges overlap. It is symmetric in
// its argument pairs.
func Overlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// New builds a highlight over chapterText[start:end], snapshotting the
// highlighted text and its anchor window.
func New(bookID string, chapterIndex, start, end int, colorTag, chapterText string) Highlight {
	return Highlight{
		ID:              newID(),
		BookID:          bookID,
		ChapterIndex:    chapterIndex,
		StartOffset:     start,
		EndOffset:       end,
		HighlightedText: chapterText[start:end],
		AnchorText:      anchorWindow(chapterText, start, end),
		ColorTag:        colorTag,
		CreatedAt:       time.Now().UTC(),
	}
}

// anchorWindow returns the highlighted substring padded by up to
// anchorPadding characters on each side, clamped to the text bounds.
func anchorWindow(text string, start, end int) string {
	lo := start
	for i := 0; i < anchorPadding && lo > 0; i++ {
		_, sz := utf8.DecodeLastRuneInString(text[:lo])
		lo -= sz
	}
	hi := end
	for i := 0; i < anchorPadding && hi < len(text); i++ {
		_, sz := utf8.DecodeRuneInString(text[hi:])
		hi += sz
	}
	return text[lo:hi]
}

func newID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
