package textmetrics

import (
	"errors"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// ErrNarrowViewport indicates the width is too small to place even a single
// character.
var ErrNarrowViewport = errors.New("textmetrics: viewport too narrow to lay out text")

// CellProvider measures text on a monospace character grid, one column per
// terminal cell. East-Asian wide runes count as two columns. Layout x
// coordinates are columns; y coordinates are Size*LineHeight units per row.
type CellProvider struct{}

// Measure wraps text greedily at word boundaries within width columns.
// Explicit newlines always break; words longer than a full row are broken
// mid-word.
func (CellProvider) Measure(text string, width float64, style Style) (Layout, error) {
	cols := int(width)
	if cols < 1 {
		return nil, ErrNarrowViewport
	}

	advance := style.Size * style.LineHeight
	if advance <= 0 {
		advance = 1
	}

	l := &cellLayout{text: text, advance: advance, ascent: advance * 0.8}

	lineStart := 0
	lineWidth := 0
	spaceStart, spaceEnd := -1, -1 // last space seen on the current line
	for i := 0; i < len(text); {
		r, sz := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			l.addLine(lineStart, i)
			lineStart = i + sz
			lineWidth = 0
			spaceStart = -1
			i += sz
			continue
		}

		w := runewidth.RuneWidth(r)
		if lineWidth+w > cols && lineWidth > 0 {
			switch {
			case unicode.IsSpace(r):
				// The overflowing rune is itself a space; break
				// at it and swallow it.
				l.addLine(lineStart, i)
				lineStart = i + sz
			case spaceStart >= lineStart:
				// Wrap at the last space; the space itself is
				// swallowed by the break.
				l.addLine(lineStart, spaceStart)
				lineStart = spaceEnd
			default:
				l.addLine(lineStart, i)
				lineStart = i
			}
			lineWidth = runeSpan(text[lineStart : i+sz])
			spaceStart = -1
			i += sz
			continue
		}

		lineWidth += w
		if unicode.IsSpace(r) {
			spaceStart, spaceEnd = i, i+sz
		}
		i += sz
	}
	l.addLine(lineStart, len(text))

	return l, nil
}

func runeSpan(s string) int {
	n := 0
	for _, r := range s {
		n += runewidth.RuneWidth(r)
	}
	return n
}

type cellLayout struct {
	text    string
	advance float64
	ascent  float64
	lines   []Line
	starts  []int // byte offset of each line's first character
	ends    []int // byte offset just past each line's last character
}

func (l *cellLayout) addLine(start, end int) {
	row := len(l.lines)
	l.lines = append(l.lines, Line{
		Left:      0,
		BaselineY: float64(row)*l.advance + l.ascent,
		Ascent:    l.ascent,
		Descent:   l.advance - l.ascent,
	})
	l.starts = append(l.starts, start)
	l.ends = append(l.ends, end)
}

func (l *cellLayout) Lines() []Line { return l.lines }

func (l *cellLayout) OffsetAt(x, y float64) int {
	if len(l.lines) == 0 {
		return 0
	}
	// The small bias keeps exact line-top queries from landing one row
	// short when the division is inexact.
	row := int(y/l.advance + 1e-9)
	if row < 0 {
		row = 0
	}
	if row >= len(l.lines) {
		row = len(l.lines) - 1
	}

	col := 0.0
	for i := l.starts[row]; i < l.ends[row]; {
		r, sz := utf8.DecodeRuneInString(l.text[i:])
		next := col + float64(runewidth.RuneWidth(r))
		if next > x {
			return i
		}
		col = next
		i += sz
	}
	return l.ends[row]
}

func (l *cellLayout) PositionAt(offset int) Point {
	if len(l.lines) == 0 {
		return Point{}
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(l.text) {
		offset = len(l.text)
	}

	// Last line whose start is <= offset.
	row := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	if row < 0 {
		row = 0
	}

	end := offset
	if end > l.ends[row] {
		end = l.ends[row]
	}
	x := float64(runeSpan(l.text[l.starts[row]:end]))
	return Point{X: x, Y: l.lines[row].Top()}
}
