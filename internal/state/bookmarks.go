package state

import (
	"encoding/json"
	"fmt"
)

// BookmarkMark is a lightweight user-placed locator: a chapter and page
// index, with no text range. Page indices are not re-validated after a
// re-pagination, so a bookmark may point at a different screenful of text
// once the font or viewport changes. Known gap; see DESIGN.md.
type BookmarkMark struct {
	ChapterIndex int `json:"chapter_index"`
	PageIndex    int `json:"page_index"`
}

func bookmarkKey(bookID string) string { return "bookmarks_" + bookID }

// BookmarkList persists the bookmark set for a book. Marks are only ever
// added or removed by explicit user toggle.
type BookmarkList struct {
	kv KV
}

// NewBookmarkList returns a list backed by kv.
func NewBookmarkList(kv KV) *BookmarkList {
	return &BookmarkList{kv: kv}
}

// List returns the saved bookmarks for a book. An undecodable value is
// reported as ErrMalformedRecord; individual records with negative indices
// are rejected rather than passed inward.
func (l *BookmarkList) List(bookID string) ([]BookmarkMark, error) {
	data, ok, err := l.kv.Read(bookmarkKey(bookID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var raw []BookmarkMark
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: bookmarks for %s: %v", ErrMalformedRecord, bookID, err)
	}
	marks := raw[:0]
	for _, m := range raw {
		if m.ChapterIndex < 0 || m.PageIndex < 0 {
			continue
		}
		marks = append(marks, m)
	}
	return marks, nil
}

// Toggle adds the mark if absent or removes it if present, and reports
// whether the mark is now set.
func (l *BookmarkList) Toggle(bookID string, mark BookmarkMark) (bool, error) {
	marks, err := l.List(bookID)
	if err != nil {
		return false, err
	}

	added := true
	next := marks[:0]
	for _, m := range marks {
		if m == mark {
			added = false
			continue
		}
		next = append(next, m)
	}
	if added {
		next = append(next, mark)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return false, err
	}
	if err := l.kv.Write(bookmarkKey(bookID), data); err != nil {
		return false, err
	}
	return added, nil
}

// Contains reports whether the mark is set.
func (l *BookmarkList) Contains(bookID string, mark BookmarkMark) (bool, error) {
	marks, err := l.List(bookID)
	if err != nil {
		return false, err
	}
	for _, m := range marks {
		if m == mark {
			return true, nil
		}
	}
	return false, nil
}
