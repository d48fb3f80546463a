// Package session tracks the reading position of an open book and commits
// every page or chapter change to the progress tracker, so the in-memory
// position and the persisted one never drift apart.
package session

import (
	"errors"
	"fmt"

	"github.com/pagecraft/folio/internal/state"
)

// ErrClosed indicates a position change on a session that is not open.
var ErrClosed = errors.New("session: book is not open")

// Session is the per-book reading state machine:
// Closed -> Open(chapter, page) -> Closed.
type Session struct {
	tracker *state.ProgressTracker

	open          bool
	bookID        string
	chapter, page int
	totalChapters int
}

// New returns a closed session backed by the given tracker.
func New(tracker *state.ProgressTracker) *Session {
	return &Session{tracker: tracker}
}

// Open loads the persisted progress for a book and enters the Open state.
// A missing, malformed or out-of-bounds saved position falls back to
// chapter 0, page 0; the returned notice is non-empty in that case and the
// session still opens.
func (s *Session) Open(bookID string, totalChapters int) (notice string, err error) {
	if totalChapters < 1 {
		return "", fmt.Errorf("session: book %s has no chapters", bookID)
	}

	p, err := s.tracker.Load(bookID)
	switch {
	case errors.Is(err, state.ErrMalformedRecord):
		p = state.BookProgress{BookID: bookID}
		notice = "saved position was unreadable, starting from the beginning"
	case err != nil:
		return "", err
	}
	if p.CurrentChapterIndex >= totalChapters {
		p.CurrentChapterIndex = 0
		p.CurrentPageIndex = 0
		notice = "saved position is past the end of the book, starting from the beginning"
	}

	s.open = true
	s.bookID = bookID
	s.chapter = p.CurrentChapterIndex
	s.page = p.CurrentPageIndex
	s.totalChapters = totalChapters
	return notice, nil
}

// IsOpen reports whether the session is in the Open state.
func (s *Session) IsOpen() bool { return s.open }

// Position returns the current chapter and page indices.
func (s *Session) Position() (chapter, page int) { return s.chapter, s.page }

// ClampPage resets the page to 0 when the current page index does not exist
// under the current pagination, and reports whether it did. Called after
// every (re-)pagination of the current chapter.
func (s *Session) ClampPage(totalPages int) bool {
	if s.page < totalPages {
		return false
	}
	s.page = 0
	return true
}

// FlipTo commits a page flip within the current chapter.
func (s *Session) FlipTo(pageIndex int) error {
	if !s.open {
		return ErrClosed
	}
	s.page = pageIndex
	return s.save()
}

// ChangeChapter commits a chapter change, resetting the page to 0.
func (s *Session) ChangeChapter(chapterIndex int) error {
	if !s.open {
		return ErrClosed
	}
	if chapterIndex < 0 || chapterIndex >= s.totalChapters {
		return fmt.Errorf("session: chapter %d out of range", chapterIndex)
	}
	s.chapter = chapterIndex
	s.page = 0
	return s.save()
}

// Close persists the final position and returns to the Closed state.
func (s *Session) Close() error {
	if !s.open {
		return nil
	}
	err := s.save()
	s.open = false
	return err
}

func (s *Session) save() error {
	return s.tracker.Save(state.BookProgress{
		BookID:              s.bookID,
		CurrentChapterIndex: s.chapter,
		CurrentPageIndex:    s.page,
	})
}
