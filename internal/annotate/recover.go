package annotate

import "strings"

// Relocate recomputes a highlight's offsets against changed chapter text.
// When the stored offsets still match, the highlight is returned unchanged.
// Otherwise the highlighted text is searched for directly; failing that,
// the anchor window is searched and the highlight's relative position
// inside it translated into the new coordinate space. When neither matches
// the highlight is orphaned: the original record is returned together with
// ErrOrphaned, never silently dropped or left at stale coordinates.
func Relocate(h Highlight, chapterText string) (Highlight, error) {
	if h.EndOffset <= len(chapterText) && h.StartOffset >= 0 &&
		chapterText[h.StartOffset:h.EndOffset] == h.HighlightedText {
		return h, nil
	}

	if i := strings.Index(chapterText, h.HighlightedText); i >= 0 && h.HighlightedText != "" {
		h.StartOffset = i
		h.EndOffset = i + len(h.HighlightedText)
		return h, nil
	}

	if j := strings.Index(chapterText, h.AnchorText); j >= 0 && h.AnchorText != "" {
		if k := strings.Index(h.AnchorText, h.HighlightedText); k >= 0 {
			h.StartOffset = j + k
			h.EndOffset = h.StartOffset + len(h.HighlightedText)
			return h, nil
		}
	}

	return h, ErrOrphaned
}

// RelocateChapter re-anchors every highlight of a chapter against its new
// text. Relocated records are persisted at their new offsets; orphans are
// returned for the caller to surface and stay stored untouched.
func (s *Store) RelocateChapter(bookID string, chapterIndex int, chapterText string) (moved, orphaned []Highlight, err error) {
	hs, err := s.load(bookID)
	if err != nil {
		return nil, nil, err
	}

	next := make([]Highlight, len(hs))
	copy(next, hs)
	dirty := false
	for i, h := range next {
		if h.ChapterIndex != chapterIndex {
			continue
		}
		r, rerr := Relocate(h, chapterText)
		if rerr != nil {
			orphaned = append(orphaned, h)
			continue
		}
		if r.StartOffset != h.StartOffset || r.EndOffset != h.EndOffset {
			next[i] = r
			moved = append(moved, r)
			dirty = true
		}
	}
	if dirty {
		if err := s.persist(bookID, next); err != nil {
			return nil, nil, err
		}
	}
	return moved, orphaned, nil
}
