package ingest

import (
	"os"
	"path/filepath"
	"strings"
)

// Format defines a file format reader for extracting a book.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (*Book, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Load extracts a book from a file, using a registered format or a plain
// text fallback that yields a single chapter.
func Load(filename string) (*Book, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f.Extract(filename)
			}
		}
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(filename), ext)
	return &Book{
		Title:    title,
		Chapters: []Chapter{{Index: 0, Title: title, PlainText: string(data)}},
	}, nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
