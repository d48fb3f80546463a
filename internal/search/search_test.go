package search

import (
	"strings"
	"testing"

	"github.com/pagecraft/folio/internal/ingest"
)

func chapters(texts ...string) []ingest.Chapter {
	out := make([]ingest.Chapter, len(texts))
	for i, t := range texts {
		out[i] = ingest.Chapter{Index: i, Title: "ch", PlainText: t}
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"case folding", "Hello WORLD", "hello world"},
		{"whitespace collapse", "a  b\t\nc", "a b c"},
		{"zero width stripped", "a\u200Bb\u200Cc\u200Dd\u200Be", "abcde"},
		{"byte order mark stripped", "\uFEFFchapter text\uFEFF", "chapter text"},
		{"nbsp becomes space", "a b", "a b"},
		{"arabic yeh folded", "يك", "یک"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Hello,  World!",
		"mixed \u200C spaces\tand tabs",
		"ي receives ك folding",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestSearchExample(t *testing.T) {
	// Two matches at offsets 4 and 19 in a 30-byte chapter.
	chs := chapters("The quick fox. The quick hare.")
	matches := Engine{}.Search(chs, "quick", 50)

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Offset != 4 || matches[1].Offset != 19 {
		t.Errorf("offsets = %d, %d; want 4, 19", matches[0].Offset, matches[1].Offset)
	}
	if matches[0].PositionPercent != 13 {
		t.Errorf("first PositionPercent = %d, want 13", matches[0].PositionPercent)
	}
	if matches[1].PositionPercent != 63 {
		t.Errorf("second PositionPercent = %d, want 63", matches[1].PositionPercent)
	}
	if matches[0].Query != "quick" {
		t.Errorf("Query = %q, want original query", matches[0].Query)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	chs := chapters("Whale. WHALE. whale.")
	matches := Engine{}.Search(chs, "Whale", 50)
	if len(matches) != 3 {
		t.Errorf("expected 3 matches, got %d", len(matches))
	}
}

func TestSearchMaxResultsCap(t *testing.T) {
	chs := chapters(
		strings.Repeat("fish ", 10),
		strings.Repeat("fish ", 10),
	)
	matches := Engine{}.Search(chs, "fish", 7)
	if len(matches) != 7 {
		t.Fatalf("expected cap of 7, got %d", len(matches))
	}
	// Cap reached mid-book: every match must still come from the first
	// chapter, in order.
	for i, m := range matches {
		if m.ChapterIndex != 0 {
			t.Errorf("match %d from chapter %d, want 0", i, m.ChapterIndex)
		}
		if i > 0 && m.Offset <= matches[i-1].Offset {
			t.Errorf("matches out of order at %d", i)
		}
	}
}

func TestSearchOrdering(t *testing.T) {
	chs := chapters("zebra then zebra", "another zebra")
	matches := Engine{}.Search(chs, "zebra", 50)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		prev, cur := matches[i-1], matches[i]
		if cur.ChapterIndex < prev.ChapterIndex {
			t.Errorf("chapter order violated at %d", i)
		}
		if cur.ChapterIndex == prev.ChapterIndex && cur.Offset <= prev.Offset {
			t.Errorf("offset order violated at %d", i)
		}
	}
	if matches[2].ChapterNumber != 2 || matches[2].TotalChapters != 2 {
		t.Errorf("chapter numbering = %d/%d, want 2/2", matches[2].ChapterNumber, matches[2].TotalChapters)
	}
}

func TestSearchBlankQueries(t *testing.T) {
	chs := chapters("some text")
	for _, q := range []string{"", "   ", "\t\n", "\u200C"} {
		if got := (Engine{}).Search(chs, q, 50); len(got) != 0 {
			t.Errorf("query %q returned %d matches, want 0", q, len(got))
		}
	}
}

func TestSearchSnippets(t *testing.T) {
	long := strings.Repeat("a", 100) + "needle" + strings.Repeat("b", 100)

	t.Run("interior match is ellipsized on both sides", func(t *testing.T) {
		matches := Engine{}.Search(chapters(long), "needle", 50)
		if len(matches) != 1 {
			t.Fatalf("expected 1 match, got %d", len(matches))
		}
		s := matches[0].Snippet
		if !strings.HasPrefix(s, "…") || !strings.HasSuffix(s, "…") {
			t.Errorf("snippet missing ellipses: %q", s)
		}
		if !strings.Contains(s, "needle") {
			t.Errorf("snippet missing match text: %q", s)
		}
		if want := "…" + strings.Repeat("a", 50) + "needle" + strings.Repeat("b", 50) + "…"; s != want {
			t.Errorf("snippet = %q, want %q", s, want)
		}
	})

	t.Run("match at chapter start has no leading ellipsis", func(t *testing.T) {
		matches := Engine{}.Search(chapters("needle then padding padding padding padding padding"), "needle", 50)
		if len(matches) != 1 {
			t.Fatalf("expected 1 match, got %d", len(matches))
		}
		if strings.HasPrefix(matches[0].Snippet, "…") {
			t.Errorf("unexpected leading ellipsis: %q", matches[0].Snippet)
		}
	})

	t.Run("snippet preserves original casing", func(t *testing.T) {
		matches := Engine{}.Search(chapters("The NEEDLE sits here"), "needle", 50)
		if len(matches) != 1 {
			t.Fatalf("expected 1 match, got %d", len(matches))
		}
		if !strings.Contains(matches[0].Snippet, "NEEDLE") {
			t.Errorf("snippet lost original text: %q", matches[0].Snippet)
		}
	})
}

func TestSearchNormalizedCorpus(t *testing.T) {
	// The corpus contains a zero-width non-joiner and an Arabic yeh; the
	// query uses the Farsi form. Offsets must point into the original.
	text := "پا\u200Cيان"
	matches := Engine{}.Search(chapters(text), "پایان", 50)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Offset != 0 {
		t.Errorf("Offset = %d, want 0", matches[0].Offset)
	}
}

func TestOccurrenceRanges(t *testing.T) {
	ranges := OccurrenceRanges("aa AA aa", Normalize("aa"))
	want := [][2]int{{0, 2}, {3, 5}, {6, 8}}
	if len(ranges) != len(want) {
		t.Fatalf("got %d ranges, want %d", len(ranges), len(want))
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %v, want %v", i, ranges[i], want[i])
		}
	}
}
