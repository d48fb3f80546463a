package textmetrics

import "testing"

var mono = Style{Font: "mono", Size: 1, LineHeight: 1}

func measure(t *testing.T, text string, width float64) Layout {
	t.Helper()
	layout, err := CellProvider{}.Measure(text, width, mono)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	return layout
}

func TestMeasureWrapsAtWordBoundaries(t *testing.T) {
	layout := measure(t, "aaa bbb ccc ddd", 7)

	lines := layout.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if got := layout.OffsetAt(0, lines[0].Top()); got != 0 {
		t.Errorf("line 0 start = %d, want 0", got)
	}
	if got := layout.OffsetAt(0, lines[1].Top()); got != 8 {
		t.Errorf("line 1 start = %d, want 8", got)
	}
}

func TestMeasureHonorsNewlines(t *testing.T) {
	layout := measure(t, "one\ntwo\nthree", 80)
	if got := len(layout.Lines()); got != 3 {
		t.Errorf("expected 3 lines, got %d", got)
	}
}

func TestMeasureBreaksLongWords(t *testing.T) {
	layout := measure(t, "abcdefghij", 4)
	lines := layout.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if got := layout.OffsetAt(0, lines[1].Top()); got != 4 {
		t.Errorf("line 1 start = %d, want 4", got)
	}
	if got := layout.OffsetAt(0, lines[2].Top()); got != 8 {
		t.Errorf("line 2 start = %d, want 8", got)
	}
}

func TestMeasureRejectsZeroWidth(t *testing.T) {
	if _, err := (CellProvider{}).Measure("text", 0, mono); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestOffsetAtWithinLine(t *testing.T) {
	layout := measure(t, "hello world", 80)

	tests := []struct {
		name string
		x    float64
		want int
	}{
		{"start of line", 0, 0},
		{"third column", 2, 2},
		{"past line end", 50, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := layout.OffsetAt(tt.x, 0); got != tt.want {
				t.Errorf("OffsetAt(%g, 0) = %d, want %d", tt.x, got, tt.want)
			}
		})
	}
}

func TestPositionAtRoundTrip(t *testing.T) {
	text := "aaa bbb ccc ddd eee"
	layout := measure(t, text, 7)

	for offset := 0; offset < len(text); offset++ {
		pos := layout.PositionAt(offset)
		got := layout.OffsetAt(pos.X, pos.Y)
		// Offsets swallowed by a wrap resolve to the line boundary.
		if got != offset && text[offset] != ' ' {
			t.Errorf("offset %d round-tripped to %d", offset, got)
		}
	}
}

func TestMeasureWideRunes(t *testing.T) {
	// Each CJK rune is two cells wide, so only two fit in five columns.
	layout := measure(t, "你好世界", 5)
	lines := layout.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if got := layout.OffsetAt(0, lines[1].Top()); got != 6 {
		t.Errorf("line 1 start = %d, want 6 (two 3-byte runes)", got)
	}
}
