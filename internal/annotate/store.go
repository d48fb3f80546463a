package annotate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pagecraft/folio/internal/state"
)

// Sentinel errors returned by the store.
var (
	// ErrNotFound indicates no highlight with the given id exists.
	ErrNotFound = errors.New("annotate: highlight not found")

	// ErrInvalidRange indicates a highlight with start >= end or a
	// missing id.
	ErrInvalidRange = errors.New("annotate: invalid highlight range")

	// ErrOrphaned indicates a highlight could not be relocated in the
	// changed chapter text. The record is kept; the caller decides
	// whether to hide, flag, or delete it.
	ErrOrphaned = errors.New("annotate: highlight could not be relocated")
)

// SyncHook observes every store mutation. Delivery is fire-and-forget: the
// hook's outcome never blocks or rolls back the local mutation, and retry
// is the sync collaborator's business.
type SyncHook func(Highlight, Op)

func highlightsKey(bookID string) string { return "highlights_" + bookID }

// Store persists the highlight set per book through the key-value
// collaborator. Each mutation writes the whole list under one key, so the
// persisted state is never partially updated; the in-memory copy only
// changes after the write succeeds.
type Store struct {
	kv    state.KV
	hook  SyncHook
	books map[string][]Highlight
}

// NewStore returns a store over kv. hook may be nil.
func NewStore(kv state.KV, hook SyncHook) *Store {
	return &Store{kv: kv, hook: hook, books: make(map[string][]Highlight)}
}

// load returns the cached list for a book, reading it from the KV on first
// access. Records failing validation are dropped at the boundary.
func (s *Store) load(bookID string) ([]Highlight, error) {
	if hs, ok := s.books[bookID]; ok {
		return hs, nil
	}
	data, ok, err := s.kv.Read(highlightsKey(bookID))
	if err != nil {
		return nil, err
	}
	var hs []Highlight
	if ok {
		if err := json.Unmarshal(data, &hs); err != nil {
			return nil, fmt.Errorf("%w: highlights for %s: %v", state.ErrMalformedRecord, bookID, err)
		}
		valid := hs[:0]
		for _, h := range hs {
			if h.ID == "" || h.StartOffset >= h.EndOffset || h.StartOffset < 0 {
				continue
			}
			valid = append(valid, h)
		}
		hs = valid
	}
	s.books[bookID] = hs
	return hs, nil
}

// persist writes the list and, on success, swaps it into the cache.
func (s *Store) persist(bookID string, hs []Highlight) error {
	data, err := json.Marshal(hs)
	if err != nil {
		return err
	}
	if err := s.kv.Write(highlightsKey(bookID), data); err != nil {
		return err
	}
	s.books[bookID] = hs
	return nil
}

func (s *Store) notify(h Highlight, op Op) {
	if s.hook != nil {
		s.hook(h, op)
	}
}

// Add persists a new highlight, flagged for sync.
func (s *Store) Add(h Highlight) error {
	if h.ID == "" || h.StartOffset >= h.EndOffset || h.StartOffset < 0 {
		return fmt.Errorf("%w: [%d,%d)", ErrInvalidRange, h.StartOffset, h.EndOffset)
	}
	hs, err := s.load(h.BookID)
	if err != nil {
		return err
	}

	h.PendingSync = true
	next := make([]Highlight, len(hs), len(hs)+1)
	copy(next, hs)
	next = append(next, h)
	if err := s.persist(h.BookID, next); err != nil {
		return err
	}
	s.notify(h, OpAdd)
	return nil
}

// Update replaces the stored highlight with the same ID, flags it for sync
// and stamps UpdatedAt.
func (s *Store) Update(h Highlight) error {
	hs, err := s.load(h.BookID)
	if err != nil {
		return err
	}
	i := indexOf(hs, h.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, h.ID)
	}

	now := time.Now().UTC()
	h.UpdatedAt = &now
	h.PendingSync = true
	next := make([]Highlight, len(hs))
	copy(next, hs)
	next[i] = h
	if err := s.persist(h.BookID, next); err != nil {
		return err
	}
	s.notify(h, OpUpdate)
	return nil
}

// MarkSynced clears the pending-sync flag without notifying the hook.
func (s *Store) MarkSynced(bookID, id string) error {
	hs, err := s.load(bookID)
	if err != nil {
		return err
	}
	i := indexOf(hs, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := make([]Highlight, len(hs))
	copy(next, hs)
	next[i].PendingSync = false
	return s.persist(bookID, next)
}

// Remove deletes a highlight and returns the removed record so the caller
// can propagate a deletion event.
func (s *Store) Remove(bookID, id string) (Highlight, error) {
	hs, err := s.load(bookID)
	if err != nil {
		return Highlight{}, err
	}
	i := indexOf(hs, id)
	if i < 0 {
		return Highlight{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	removed := hs[i]
	next := make([]Highlight, 0, len(hs)-1)
	next = append(next, hs[:i]...)
	next = append(next, hs[i+1:]...)
	if err := s.persist(bookID, next); err != nil {
		return Highlight{}, err
	}
	s.notify(removed, OpDelete)
	return removed, nil
}

// List returns every highlight for a book, ordered by chapter then start
// offset.
func (s *Store) List(bookID string) ([]Highlight, error) {
	hs, err := s.load(bookID)
	if err != nil {
		return nil, err
	}
	out := make([]Highlight, len(hs))
	copy(out, hs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ChapterIndex != out[j].ChapterIndex {
			return out[i].ChapterIndex < out[j].ChapterIndex
		}
		return out[i].StartOffset < out[j].StartOffset
	})
	return out, nil
}

// ListForChapter returns the book's highlights within one chapter, ordered
// by start offset.
func (s *Store) ListForChapter(bookID string, chapterIndex int) ([]Highlight, error) {
	all, err := s.List(bookID)
	if err != nil {
		return nil, err
	}
	var out []Highlight
	for _, h := range all {
		if h.ChapterIndex == chapterIndex {
			out = append(out, h)
		}
	}
	return out, nil
}

// FindAtPosition returns the first highlight whose range contains the
// offset.
func (s *Store) FindAtPosition(bookID string, chapterIndex, offset int) (Highlight, bool) {
	hs, err := s.ListForChapter(bookID, chapterIndex)
	if err != nil {
		return Highlight{}, false
	}
	for _, h := range hs {
		if h.Contains(offset) {
			return h, true
		}
	}
	return Highlight{}, false
}

// Overlaps reports whether any stored highlight overlaps [start, end) in
// the chapter. Overlapping highlights are not forbidden; this predicate
// lets callers warn the user before creating one.
func (s *Store) Overlaps(bookID string, chapterIndex, start, end int) bool {
	hs, err := s.ListForChapter(bookID, chapterIndex)
	if err != nil {
		return false
	}
	for _, h := range hs {
		if Overlap(start, end, h.StartOffset, h.EndOffset) {
			return true
		}
	}
	return false
}

func indexOf(hs []Highlight, id string) int {
	for i, h := range hs {
		if h.ID == id {
			return i
		}
	}
	return -1
}
