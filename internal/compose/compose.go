// Package compose merges highlight ranges and search-match ranges into one
// ordered, non-overlapping sequence of styled spans per page.
package compose

import (
	"sort"
	"strings"

	"github.com/pagecraft/folio/internal/annotate"
	"github.com/pagecraft/folio/internal/paginate"
	"github.com/pagecraft/folio/internal/search"
)

// Kind is the visual treatment of a span.
type Kind int

const (
	KindPlain Kind = iota
	KindHighlight
	KindSearch
)

// Span is a contiguous run of page text tagged with a visual treatment.
// Highlight spans carry the highlight's id so the renderer can make them
// interactive; search spans are not interactive.
type Span struct {
	Text        string
	Kind        Kind
	Color       string
	HighlightID string
}

type candidate struct {
	start, end  int
	kind        Kind
	color       string
	highlightID string
}

// Compose returns the styled spans of one page. Highlights intersecting the
// page are clipped to page-local coordinates; occurrences of the normalized
// query within the page text get the accent color. Candidates are swept by
// start offset with a cursor that never moves backward, so when two
// candidates overlap the later-starting one wins for the overlapped tail.
// The concatenation of the returned spans' text equals the page text
// exactly.
func Compose(page paginate.PageRange, chapterText string, highlights []annotate.Highlight, query, accentColor string) []Span {
	pageText := chapterText[page.Start:page.End]

	var cands []candidate
	for _, h := range highlights {
		if !annotate.Overlap(h.StartOffset, h.EndOffset, page.Start, page.End) {
			continue
		}
		cands = append(cands, candidate{
			start:       clamp(h.StartOffset-page.Start, 0, len(pageText)),
			end:         clamp(h.EndOffset-page.Start, 0, len(pageText)),
			kind:        KindHighlight,
			color:       h.ColorTag,
			highlightID: h.ID,
		})
	}
	for _, m := range queryRanges(pageText, query) {
		cands = append(cands, candidate{
			start: m[0],
			end:   m[1],
			kind:  KindSearch,
			color: accentColor,
		})
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].start < cands[j].start })

	var spans []Span
	cursor := 0
	for _, c := range cands {
		if c.start > cursor {
			spans = append(spans, Span{Text: pageText[cursor:c.start], Kind: KindPlain})
			cursor = c.start
		}
		if c.end <= cursor {
			continue
		}
		spans = append(spans, Span{
			Text:        pageText[cursor:c.end],
			Kind:        c.kind,
			Color:       c.color,
			HighlightID: c.highlightID,
		})
		cursor = c.end
	}
	if cursor < len(pageText) {
		spans = append(spans, Span{Text: pageText[cursor:], Kind: KindPlain})
	}
	return spans
}

// queryRanges returns the page-local byte ranges of every non-overlapping
// normalized occurrence of query in pageText.
func queryRanges(pageText, query string) [][2]int {
	nq := search.Normalize(query)
	if strings.TrimSpace(nq) == "" {
		return nil
	}
	return search.OccurrenceRanges(pageText, nq)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
