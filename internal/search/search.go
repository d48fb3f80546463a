package search

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pagecraft/folio/internal/ingest"
)

// DefaultMaxResults caps a search when the caller passes no limit.
const DefaultMaxResults = 50

// snippetRadius is the number of characters kept on each side of a match
// in its snippet.
const snippetRadius = 50

// Match is one occurrence of a query in a chapter. Matches are transient;
// they are recomputed per search and never persisted.
type Match struct {
	ChapterIndex  int
	ChapterNumber int // 1-based, for display
	TotalChapters int

	// Offset is the byte offset of the match in the chapter's plain text.
	Offset int

	// PositionPercent is the match's position in the chapter, 0-100.
	PositionPercent int

	// Snippet is the original (unnormalized) text around the match, with
	// an ellipsis on each side that was truncated.
	Snippet string

	// Query is the original query as the user typed it.
	Query string
}

// Engine scans chapters for normalized substring matches.
type Engine struct{}

// Search walks chapters in document order and collects every
// non-overlapping occurrence of the normalized query, stopping once
// maxResults matches have been found (maxResults <= 0 means
// DefaultMaxResults). Matches are ordered by chapter index, then by offset
// within the chapter. An empty or whitespace-only query yields no results.
func (e Engine) Search(chapters []ingest.Chapter, query string, maxResults int) []Match {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var out []Match
	for _, ch := range chapters {
		room := maxResults - len(out)
		if room <= 0 {
			break
		}
		out = append(out, e.SearchChapter(ch, len(chapters), query, room)...)
	}
	return out
}

// SearchChapter scans a single chapter, returning at most limit matches.
// Callers wanting non-blocking whole-book search can schedule one chapter
// per tick; results arrive in left-to-right order either way.
func (e Engine) SearchChapter(ch ingest.Chapter, totalChapters int, query string, limit int) []Match {
	nq := Normalize(query)
	if strings.TrimSpace(nq) == "" || limit <= 0 {
		return nil
	}

	norm, offsets := normalizeMap(ch.PlainText)
	if norm == "" {
		return nil
	}

	var out []Match
	from := 0
	for len(out) < limit {
		rel := strings.Index(norm[from:], nq)
		if rel < 0 {
			break
		}
		hit := from + rel
		start := offsets[hit]
		end := originalEnd(offsets, hit+len(nq), ch.PlainText)

		out = append(out, Match{
			ChapterIndex:    ch.Index,
			ChapterNumber:   ch.Index + 1,
			TotalChapters:   totalChapters,
			Offset:          start,
			PositionPercent: int(math.Round(float64(hit) / float64(len(norm)) * 100)),
			Snippet:         snippet(ch.PlainText, start, end),
			Query:           query,
		})
		from = hit + len(nq)
	}
	return out
}

// snippet returns the original text within snippetRadius characters of the
// match, marking truncated sides with an ellipsis.
func snippet(text string, start, end int) string {
	lo := start
	for i := 0; i < snippetRadius && lo > 0; i++ {
		_, sz := utf8.DecodeLastRuneInString(text[:lo])
		lo -= sz
	}
	hi := end
	for i := 0; i < snippetRadius && hi < len(text); i++ {
		_, sz := utf8.DecodeRuneInString(text[hi:])
		hi += sz
	}

	s := text[lo:hi]
	if lo > 0 {
		s = "…" + s
	}
	if hi < len(text) {
		s += "…"
	}
	return s
}
