package paginate

import (
	"errors"
	"strings"
	"testing"

	"github.com/pagecraft/folio/internal/textmetrics"
)

var settings = textmetrics.ReaderSettings{
	Style: textmetrics.Style{Font: "mono", Size: 1, LineHeight: 1},
}

func paginateText(t *testing.T, text string, width, height float64) []PageRange {
	t.Helper()
	pages, err := New(textmetrics.CellProvider{}).Paginate(text, textmetrics.Viewport{Width: width, Height: height}, settings)
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	return pages
}

// checkCoverage verifies the pagination invariant: non-empty, contiguous,
// non-overlapping ranges spanning exactly [0, len(text)).
func checkCoverage(t *testing.T, text string, pages []PageRange) {
	t.Helper()
	if len(pages) == 0 {
		t.Fatal("no pages returned")
	}
	if pages[0].Start != 0 {
		t.Errorf("first page starts at %d, want 0", pages[0].Start)
	}
	if last := pages[len(pages)-1]; last.End != len(text) {
		t.Errorf("last page ends at %d, want %d", last.End, len(text))
	}
	for i := 0; i < len(pages); i++ {
		if pages[i].Start > pages[i].End {
			t.Errorf("page %d is inverted: %+v", i, pages[i])
		}
		if i > 0 && pages[i].Start != pages[i-1].End {
			t.Errorf("gap or overlap between page %d and %d: %+v %+v", i-1, i, pages[i-1], pages[i])
		}
	}
}

func TestPaginateCoverage(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		width  float64
		height float64
	}{
		{"short text single page", "hello world", 80, 24},
		{"wrapped paragraphs", strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40), 40, 10},
		{"explicit newlines", strings.Repeat("line of text\n", 100), 80, 12},
		{"narrow viewport", strings.Repeat("words words words ", 50), 8, 3},
		{"single row pages", "aaa bbb ccc ddd", 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := paginateText(t, tt.text, tt.width, tt.height)
			checkCoverage(t, tt.text, pages)
			for i, p := range pages[:len(pages)-1] {
				if p.Len() == 0 {
					t.Errorf("page %d is empty", i)
				}
			}
		})
	}
}

func TestPaginateDeterminism(t *testing.T) {
	text := strings.Repeat("pagination must be reproducible for identical inputs. ", 30)
	first := paginateText(t, text, 32, 8)
	second := paginateText(t, text, 32, 8)

	if len(first) != len(second) {
		t.Fatalf("page counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("page %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPaginateEmptyChapter(t *testing.T) {
	pages := paginateText(t, "", 80, 24)
	if len(pages) != 1 || pages[0] != (PageRange{0, 0}) {
		t.Errorf("expected single empty page, got %+v", pages)
	}
}

func TestPaginateBadViewport(t *testing.T) {
	p := New(textmetrics.CellProvider{})

	tests := []struct {
		name          string
		vp            textmetrics.Viewport
		chromeMargin  float64
	}{
		{"zero width", textmetrics.Viewport{Width: 0, Height: 24}, 0},
		{"zero height", textmetrics.Viewport{Width: 80, Height: 0}, 0},
		{"negative width", textmetrics.Viewport{Width: -1, Height: 24}, 0},
		{"margin swallows page", textmetrics.Viewport{Width: 80, Height: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings
			s.ChromeMargin = tt.chromeMargin
			_, err := p.Paginate("some text", tt.vp, s)
			if !errors.Is(err, ErrBadViewport) {
				t.Errorf("expected ErrBadViewport, got %v", err)
			}
		})
	}
}

// emptyLayoutProvider violates the metrics contract by returning zero lines
// for non-empty text.
type emptyLayoutProvider struct{}

func (emptyLayoutProvider) Measure(string, float64, textmetrics.Style) (textmetrics.Layout, error) {
	return emptyLayout{}, nil
}

type emptyLayout struct{}

func (emptyLayout) Lines() []textmetrics.Line              { return nil }
func (emptyLayout) OffsetAt(x, y float64) int              { return 0 }
func (emptyLayout) PositionAt(int) textmetrics.Point       { return textmetrics.Point{} }

func TestPaginateContractViolation(t *testing.T) {
	_, err := New(emptyLayoutProvider{}).Paginate("non-empty", textmetrics.Viewport{Width: 80, Height: 24}, settings)
	if !errors.Is(err, ErrNoLayout) {
		t.Errorf("expected ErrNoLayout, got %v", err)
	}
}

func TestRetreatFromTag(t *testing.T) {
	tests := []struct {
		name string
		text string
		cut  int
		want int
	}{
		{"no tag near cut", "plain text here", 8, 8},
		{"cut inside short fragment", "before <b>after", 9, 7},
		{"tag closed before cut", "some <i> x", 9, 9},
		{"delimiter too far back", "a <emphasis", 11, 11},
		{"cut at start", "<p>", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retreatFromTag(tt.text, tt.cut); got != tt.want {
				t.Errorf("retreatFromTag(%q, %d) = %d, want %d", tt.text, tt.cut, got, tt.want)
			}
		})
	}
}
