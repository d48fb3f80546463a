package state

import (
	"encoding/json"
	"fmt"
)

// BookProgress stores the last-viewed chapter and page for a book. One
// record per book, updated on every page or chapter change.
type BookProgress struct {
	BookID              string `json:"book_id"`
	CurrentChapterIndex int    `json:"current_chapter_index"`
	CurrentPageIndex    int    `json:"current_page_index"`
}

func progressKey(bookID string) string { return "book_progress_" + bookID }

// ProgressTracker persists BookProgress records through a KV.
type ProgressTracker struct {
	kv KV
}

// NewProgressTracker returns a tracker backed by kv.
func NewProgressTracker(kv KV) *ProgressTracker {
	return &ProgressTracker{kv: kv}
}

// Load returns the saved progress for a book, or a zero position when none
// is saved. A record that fails to decode or validate is reported as
// ErrMalformedRecord along with the zero position, so callers can fall back
// to the beginning of the book.
func (t *ProgressTracker) Load(bookID string) (BookProgress, error) {
	fresh := BookProgress{BookID: bookID}
	data, ok, err := t.kv.Read(progressKey(bookID))
	if err != nil {
		return fresh, err
	}
	if !ok {
		return fresh, nil
	}

	var p BookProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return fresh, fmt.Errorf("%w: book progress for %s: %v", ErrMalformedRecord, bookID, err)
	}
	if p.CurrentChapterIndex < 0 || p.CurrentPageIndex < 0 {
		return fresh, fmt.Errorf("%w: negative position for %s", ErrMalformedRecord, bookID)
	}
	p.BookID = bookID
	return p, nil
}

// Save persists the progress record.
func (t *ProgressTracker) Save(p BookProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return t.kv.Write(progressKey(p.BookID), data)
}

// Clear removes the saved progress for a book.
func (t *ProgressTracker) Clear(bookID string) error {
	return t.kv.Remove(progressKey(bookID))
}
