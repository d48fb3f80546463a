// Package search scans chapter text for normalized substring matches and
// returns them in chapter order with original-text snippets.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// lookalikes folds characters that are visually identical and used
// interchangeably in source texts: the Arabic-script yeh and kaf pairs, and
// the no-break space.
var lookalikes = map[rune]rune{
	'ي': 'ی', // arabic yeh -> farsi yeh
	'ى': 'ی', // alef maksura -> farsi yeh
	'ك': 'ک', // arabic kaf -> keheh
	' ': ' ',
}

// isDropped reports whether a rune is removed entirely before comparison:
// the zero-width space, non-joiner and joiner, and the byte order mark.
func isDropped(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\uFEFF':
		return true
	}
	return false
}

// Normalize canonicalizes text for comparison: case-folds, maps look-alike
// character variants to one form, strips zero-width characters and byte
// order marks, and collapses whitespace runs to a single space.
// Normalizing an already-normalized string returns it unchanged.
func Normalize(s string) string {
	n, _ := normalizeMap(s)
	return n
}

// normalizeMap normalizes s and returns, for every byte of the normalized
// string, the byte offset in s of the source rune it came from. A collapsed
// whitespace run maps to the offset of its first rune.
func normalizeMap(s string) (string, []int) {
	folder := cases.Fold()
	var b strings.Builder
	offsets := make([]int, 0, len(s))

	inSpace := false
	spaceAt := 0
	emit := func(text string, origin int) {
		b.WriteString(text)
		for i := 0; i < len(text); i++ {
			offsets = append(offsets, origin)
		}
	}

	for i, r := range s {
		if isDropped(r) {
			continue
		}
		if m, ok := lookalikes[r]; ok {
			r = m
		}
		if unicode.IsSpace(r) {
			if !inSpace {
				inSpace = true
				spaceAt = i
			}
			continue
		}
		if inSpace {
			emit(" ", spaceAt)
			inSpace = false
		}
		emit(folder.String(string(r)), i)
	}
	if inSpace {
		emit(" ", spaceAt)
	}
	return b.String(), offsets
}

// OccurrenceRanges returns the byte ranges in text, in original
// coordinates, of every non-overlapping occurrence of an already-normalized
// query.
func OccurrenceRanges(text, normalizedQuery string) [][2]int {
	if normalizedQuery == "" {
		return nil
	}
	norm, offsets := normalizeMap(text)

	var out [][2]int
	from := 0
	for {
		rel := strings.Index(norm[from:], normalizedQuery)
		if rel < 0 {
			return out
		}
		hit := from + rel
		out = append(out, [2]int{
			offsets[hit],
			originalEnd(offsets, hit+len(normalizedQuery), text),
		})
		from = hit + len(normalizedQuery)
	}
}

// originalEnd translates an exclusive end offset in normalized coordinates
// back into the original string.
func originalEnd(offsets []int, normEnd int, original string) int {
	if normEnd < len(offsets) {
		return offsets[normEnd]
	}
	return len(original)
}
