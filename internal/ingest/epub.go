package ingest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// EPUBFormat implements Format for EPUB files. Each spine item becomes one
// chapter; titles come from the NCX navigation map when present.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

func (f *EPUBFormat) Extract(filename string) (*Book, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	rootfile := rc.Rootfiles[0]
	titles := chapterTitles(filename, rootfile)

	book := &Book{Title: rootfile.Title}
	for i, ref := range rootfile.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		text := ReduceMarkup(string(data))
		if text == "" {
			// Image-only front matter and the like.
			continue
		}

		title := fmt.Sprintf("Section %d", i+1)
		if ref.Item.HREF != "" {
			if t, ok := titles[ref.Item.HREF]; ok {
				title = t
			} else if t, ok := titles[path.Base(ref.Item.HREF)]; ok {
				title = t
			}
		}

		book.Chapters = append(book.Chapters, Chapter{
			Index:     len(book.Chapters),
			Title:     title,
			PlainText: text,
		})
	}

	return book, nil
}

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	Label    navLabel   `xml:"navLabel"`
	Content  navContent `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// chapterTitles parses the NCX and returns a map of href to title.
func chapterTitles(filename string, rootfile *epub.Rootfile) map[string]string {
	result := make(map[string]string)

	ncxData, err := findAndReadNCX(filename, rootfile)
	if err != nil {
		return result
	}

	var toc ncx
	if err := xml.Unmarshal(ncxData, &toc); err != nil {
		return result
	}

	var extract func(points []navPoint)
	extract = func(points []navPoint) {
		for _, np := range points {
			href := np.Content.Src
			title := strings.TrimSpace(np.Label.Text)

			if _, exists := result[href]; !exists {
				result[href] = title
			}
			if idx := strings.Index(href, "#"); idx != -1 {
				baseHref := href[:idx]
				if _, exists := result[baseHref]; !exists {
					result[baseHref] = title
				}
			}
			baseHref := path.Base(href)
			if idx := strings.Index(baseHref, "#"); idx != -1 {
				baseHref = baseHref[:idx]
			}
			if _, exists := result[baseHref]; !exists {
				result[baseHref] = title
			}

			extract(np.Children)
		}
	}
	extract(toc.NavMap.NavPoints)

	return result
}

func findAndReadNCX(filename string, rootfile *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range rootfile.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}

	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX file found in EPUB")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("NCX file %s not found in archive", ncxPath)
}
