// Package textmetrics measures where line breaks fall for a piece of text
// at a given width, and maps between byte offsets and layout positions.
package textmetrics

// Style describes the typography a layout is computed for.
type Style struct {
	Font       string
	Size       float64
	LineHeight float64 // multiplier applied to Size for the line advance
}

// Viewport is the area a page of text must fit into.
type Viewport struct {
	Width  float64
	Height float64
}

// ReaderSettings bundles the layout inputs a reading session uses. It is
// passed explicitly into pagination and composition; there is no shared
// process-wide font or theme state.
type ReaderSettings struct {
	Style Style

	// ChromeMargin is the height reserved on each page for status chrome
	// (title bar, page counter). Zero when the viewport is already net.
	ChromeMargin float64

	// AccentColor is the style tag applied to search-match spans.
	AccentColor string
}

// Point is a position in layout coordinates.
type Point struct {
	X float64
	Y float64
}

// Line holds the metrics of a single laid-out line.
type Line struct {
	Left      float64
	BaselineY float64
	Ascent    float64
	Descent   float64
}

// Top returns the y coordinate of the line's upper edge.
func (l Line) Top() float64 { return l.BaselineY - l.Ascent }

// Bottom returns the y coordinate of the line's lower edge.
func (l Line) Bottom() float64 { return l.BaselineY + l.Descent }

// Layout is the result of measuring a text at a width.
type Layout interface {
	// Lines returns the laid-out lines in top-to-bottom order.
	Lines() []Line

	// OffsetAt returns the byte offset of the character at the given
	// layout position.
	OffsetAt(x, y float64) int

	// PositionAt returns the layout position of the character at the
	// given byte offset.
	PositionAt(offset int) Point
}

// Provider lays out text for measurement. Implementations must return at
// least one line for non-empty text; violating that is treated as a
// programming error by callers.
type Provider interface {
	Measure(text string, width float64, style Style) (Layout, error)
}
