// Package paginate splits chapter plain text into ordered, non-overlapping
// byte ranges that each fit one viewport under a given text style.
package paginate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pagecraft/folio/internal/textmetrics"
)

// Sentinel errors returned by the paginator.
var (
	// ErrBadViewport indicates the viewport cannot hold any text
	// (zero or negative width/height, or chrome margin eating the page).
	ErrBadViewport = errors.New("paginate: viewport cannot hold text")

	// ErrNoLayout indicates the metrics provider returned zero lines for
	// non-empty text, which violates its contract.
	ErrNoLayout = errors.New("paginate: metrics provider returned no lines for non-empty text")
)

// PageRange is a half-open byte range [Start, End) into a chapter's plain
// text. For a chapter's page list, ranges are contiguous, non-overlapping
// and cover the whole text.
type PageRange struct {
	Start int
	End   int
}

// Len returns the number of bytes the page covers.
func (p PageRange) Len() int { return p.End - p.Start }

// Contains reports whether the byte offset falls inside the page.
func (p PageRange) Contains(offset int) bool { return offset >= p.Start && offset < p.End }

// tagGuard is the longest markup-tag fragment a page is allowed to end
// with before the cut is pulled back in front of the tag.
const tagGuard = 4

// Paginator computes page ranges using a text metrics provider.
type Paginator struct {
	metrics textmetrics.Provider
}

// New returns a Paginator backed by the given metrics provider.
func New(metrics textmetrics.Provider) *Paginator {
	return &Paginator{metrics: metrics}
}

// Paginate lays out chapterText at the viewport width and walks the
// resulting lines top to bottom, closing a page whenever the next line
// would extend past the current page bottom. The returned ranges are
// deterministic for identical inputs. Any change to the viewport or style
// invalidates previously returned ranges; callers must not mix ranges from
// different pagination passes.
func (p *Paginator) Paginate(chapterText string, vp textmetrics.Viewport, settings textmetrics.ReaderSettings) ([]PageRange, error) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrBadViewport, vp.Width, vp.Height)
	}
	pageHeight := vp.Height - settings.ChromeMargin
	if pageHeight <= 0 {
		return nil, fmt.Errorf("%w: chrome margin %g leaves no room in height %g",
			ErrBadViewport, settings.ChromeMargin, vp.Height)
	}

	if chapterText == "" {
		return []PageRange{{0, 0}}, nil
	}

	layout, err := p.metrics.Measure(chapterText, vp.Width, settings.Style)
	if err != nil {
		return nil, fmt.Errorf("paginate: measure: %w", err)
	}
	lines := layout.Lines()
	if len(lines) == 0 {
		return nil, ErrNoLayout
	}

	var pages []PageRange
	start := 0
	limit := pageHeight
	for _, ln := range lines {
		if ln.Bottom() <= limit {
			continue
		}
		cut := layout.OffsetAt(ln.Left, ln.Top())
		cut = retreatFromTag(chapterText, cut)
		if cut > start {
			pages = append(pages, PageRange{start, cut})
			start = cut
		}
		for ln.Bottom() > limit {
			limit += pageHeight
		}
	}
	pages = append(pages, PageRange{start, len(chapterText)})
	return pages, nil
}

// retreatFromTag moves a candidate cut in front of a structural delimiter
// when the cut would leave a tag fragment shorter than tagGuard dangling at
// the end of a page.
func retreatFromTag(text string, cut int) int {
	lo := cut - tagGuard
	if lo < 0 {
		lo = 0
	}
	for i := cut - 1; i >= lo; i-- {
		if text[i] == '<' {
			if strings.IndexByte(text[i:cut], '>') < 0 {
				return i
			}
			return cut
		}
	}
	return cut
}
