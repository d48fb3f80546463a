//go:build gui

package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/pagecraft/folio/internal/annotate"
	"github.com/pagecraft/folio/internal/compose"
	"github.com/pagecraft/folio/internal/ingest"
	"github.com/pagecraft/folio/internal/paginate"
	"github.com/pagecraft/folio/internal/search"
	"github.com/pagecraft/folio/internal/session"
	"github.com/pagecraft/folio/internal/state"
	"github.com/pagecraft/folio/internal/textmetrics"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultColorTag = "yellow"

type guiModel struct {
	book   *ingest.Book
	bookID string

	sess      *session.Session
	repag     *session.Repaginator
	store     *annotate.Store
	bookmarks *state.BookmarkList
	engine    search.Engine
	settings  textmetrics.ReaderSettings

	pages       []paginate.PageRange
	matches     []search.Match
	matchIdx    int
	activeQuery string
	notice      string
}

func newGUIModel(book *ingest.Book, bookID string, kv state.KV) *guiModel {
	return &guiModel{
		book:      book,
		bookID:    bookID,
		sess:      session.New(state.NewProgressTracker(kv)),
		repag:     session.NewRepaginator(paginate.New(textmetrics.CellProvider{})),
		store:     annotate.NewStore(kv, nil),
		bookmarks: state.NewBookmarkList(kv),
		settings: textmetrics.ReaderSettings{
			Style:       textmetrics.Style{Font: "mono", Size: 1, LineHeight: 1},
			AccentColor: "accent",
		},
	}
}

func (g *guiModel) chapterText() string {
	chapter, _ := g.sess.Position()
	return g.book.ChapterText(chapter)
}

// repaginate recomputes the current chapter's pages for the given text area
// size, in character cells. Superseded requests are discarded.
func (g *guiModel) repaginate(cols, rows int) {
	pending := g.repag.Request(g.chapterText(), textmetrics.Viewport{
		Width:  float64(cols),
		Height: float64(rows),
	}, g.settings)
	pages, ok, err := pending.Run()
	if err != nil {
		g.notice = err.Error()
		return
	}
	if !ok {
		return
	}
	g.pages = pages
	if g.sess.ClampPage(len(g.pages)) {
		g.notice = "layout changed, returning to the first page of the chapter"
	}
}

// pageSegments composes the current page and converts its spans into rich
// text segments: highlights get the primary color, search matches the
// warning color.
func (g *guiModel) pageSegments() []widget.RichTextSegment {
	chapter, page := g.sess.Position()
	text := g.chapterText()
	if text == "" {
		return []widget.RichTextSegment{&widget.TextSegment{
			Text:  "(no content)",
			Style: widget.RichTextStyle{ColorName: theme.ColorNameDisabled},
		}}
	}
	if len(g.pages) == 0 {
		return nil
	}
	if page >= len(g.pages) {
		page = len(g.pages) - 1
	}

	hls, err := g.store.ListForChapter(g.bookID, chapter)
	if err != nil {
		g.notice = err.Error()
	}

	spans := compose.Compose(g.pages[page], text, hls, g.activeQuery, g.settings.AccentColor)
	segments := make([]widget.RichTextSegment, 0, len(spans))
	for _, s := range spans {
		style := widget.RichTextStyle{Inline: true, TextStyle: fyne.TextStyle{Monospace: true}}
		switch s.Kind {
		case compose.KindHighlight:
			style.ColorName = theme.ColorNamePrimary
			style.TextStyle.Bold = true
		case compose.KindSearch:
			style.ColorName = theme.ColorNameWarning
			style.TextStyle.Italic = true
		}
		segments = append(segments, &widget.TextSegment{Text: s.Text, Style: style})
	}
	return segments
}

func (g *guiModel) statusLine() string {
	chapter, page := g.sess.Position()
	total := len(g.pages)
	if total == 0 {
		total = 1
	}
	line := fmt.Sprintf("%s | Ch %d/%d | Page %d/%d",
		g.book.Chapters[chapter].Title, chapter+1, len(g.book.Chapters), page+1, total)
	if marked, _ := g.bookmarks.Contains(g.bookID, state.BookmarkMark{ChapterIndex: chapter, PageIndex: page}); marked {
		line += " ⚑"
	}
	if g.notice != "" {
		line += " — " + g.notice
	}
	return line
}

func main() {
	fresh := flag.Bool("fresh", false, "Ignore saved reading position")
	showVersion := flag.Bool("v", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Folio - Book Reader (GUI)\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  folio [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  ←/→      Previous/next page\n")
		fmt.Fprintf(os.Stderr, "  N/P      Next/previous chapter\n")
		fmt.Fprintf(os.Stderr, "  M        Toggle a bookmark on this page\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit (position is saved)\n")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("folio %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No book provided.")
		fmt.Fprintln(os.Stderr, "Try: folio -h")
		os.Exit(1)
	}
	filename := flag.Arg(0)

	book, err := ingest.Load(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read '%s': %v\n", filename, err)
		os.Exit(1)
	}
	if len(book.Chapters) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No text to read.")
		os.Exit(1)
	}

	bookID, err := state.ComputeHash(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to identify '%s': %v\n", filename, err)
		os.Exit(1)
	}

	kv, err := state.NewFileStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open state store: %v\n", err)
		os.Exit(1)
	}
	if *fresh {
		state.NewProgressTracker(kv).Clear(bookID)
	}

	g := newGUIModel(book, bookID, kv)
	notice, err := g.sess.Open(bookID, len(book.Chapters))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	g.notice = notice

	a := app.New()
	w := a.NewWindow("folio - " + book.Title)

	pageText := widget.NewRichText()
	pageText.Wrapping = fyne.TextWrapOff

	statusLabel := widget.NewLabel("")
	statusLabel.Alignment = fyne.TextAlignCenter

	controlsLabel := widget.NewLabel("←/→: page  N/P: chapter  M: bookmark  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	// One character cell, used to convert the canvas size into columns
	// and rows for pagination.
	cell := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})

	var matchList *widget.List
	updateDisplay := func() {
		size := w.Canvas().Size()
		cols := int(size.Width*0.6/cell.Width) - 2
		rows := int(size.Height/cell.Height) - 6
		if cols < 10 {
			cols = 10
		}
		if rows < 4 {
			rows = 4
		}
		g.repaginate(cols, rows)

		pageText.Segments = g.pageSegments()
		pageText.Refresh()
		statusLabel.SetText(g.statusLine())
	}

	searchEntry := widget.NewEntry()
	searchEntry.SetPlaceHolder("Search the book…")
	matchList = widget.NewList(
		func() int { return len(g.matches) },
		func() fyne.CanvasObject {
			return container.NewVBox(widget.NewLabel("position"), widget.NewLabel("snippet"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			m := g.matches[id]
			vbox := obj.(*fyne.Container)
			head := vbox.Objects[0].(*widget.Label)
			body := vbox.Objects[1].(*widget.Label)
			head.TextStyle.Bold = true
			head.SetText(fmt.Sprintf("Ch %d/%d · %d%%", m.ChapterNumber, m.TotalChapters, m.PositionPercent))
			body.SetText(m.Snippet)
		},
	)

	jumpTo := func(m search.Match) {
		chapter, _ := g.sess.Position()
		if m.ChapterIndex != chapter {
			if err := g.sess.ChangeChapter(m.ChapterIndex); err != nil {
				g.notice = err.Error()
				return
			}
			updateDisplay()
		}
		for i, p := range g.pages {
			if p.Contains(m.Offset) {
				if err := g.sess.FlipTo(i); err != nil {
					g.notice = err.Error()
				}
				break
			}
		}
	}

	searchEntry.OnSubmitted = func(q string) {
		g.activeQuery = q
		g.matches = g.engine.Search(g.book.Chapters, q, search.DefaultMaxResults)
		g.matchIdx = 0
		g.notice = fmt.Sprintf("%d matches", len(g.matches))
		matchList.Refresh()
		if len(g.matches) > 0 {
			jumpTo(g.matches[0])
		}
		updateDisplay()
	}

	matchList.OnSelected = func(id widget.ListItemID) {
		if id < len(g.matches) {
			g.matchIdx = id
			jumpTo(g.matches[id])
			updateDisplay()
		}
	}

	highlightBtn := widget.NewButton("Highlight match", func() {
		if len(g.matches) == 0 {
			g.notice = "no active search match"
			updateDisplay()
			return
		}
		m := g.matches[g.matchIdx]
		text := g.book.ChapterText(m.ChapterIndex)
		ranges := search.OccurrenceRanges(text[m.Offset:], search.Normalize(m.Query))
		if len(ranges) == 0 || ranges[0][0] != 0 {
			g.notice = "match no longer present"
			updateDisplay()
			return
		}
		hl := annotate.New(g.bookID, m.ChapterIndex, m.Offset, m.Offset+ranges[0][1], defaultColorTag, text)
		if err := g.store.Add(hl); err != nil {
			g.notice = err.Error()
		} else {
			g.notice = "highlight saved"
		}
		updateDisplay()
	})

	sidePanel := container.NewBorder(searchEntry, highlightBtn, nil, nil, matchList)
	readingPanel := container.NewBorder(statusLabel, controlsLabel, nil, nil, container.NewScroll(pageText))
	split := container.NewHSplit(sidePanel, readingPanel)
	split.Offset = 0.35

	done := make(chan bool)
	var closeOnce sync.Once

	flipPage := func(delta int) {
		if len(g.pages) == 0 {
			return
		}
		chapter, page := g.sess.Position()
		next := page + delta
		switch {
		case next < 0 && chapter > 0:
			g.sess.ChangeChapter(chapter - 1)
		case next >= len(g.pages) && chapter+1 < len(g.book.Chapters):
			g.sess.ChangeChapter(chapter + 1)
		case next >= 0 && next < len(g.pages):
			g.sess.FlipTo(next)
		}
		updateDisplay()
	}

	changeChapter := func(delta int) {
		chapter, _ := g.sess.Position()
		next := chapter + delta
		if next < 0 || next >= len(g.book.Chapters) {
			g.notice = "no more chapters"
		} else if err := g.sess.ChangeChapter(next); err != nil {
			g.notice = err.Error()
		}
		updateDisplay()
	}

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyLeft:
			flipPage(-1)
		case fyne.KeyRight:
			flipPage(1)
		case fyne.KeyN:
			changeChapter(1)
		case fyne.KeyP:
			changeChapter(-1)
		case fyne.KeyM:
			chapter, page := g.sess.Position()
			added, err := g.bookmarks.Toggle(g.bookID, state.BookmarkMark{ChapterIndex: chapter, PageIndex: page})
			if err != nil {
				g.notice = err.Error()
			} else if added {
				g.notice = "bookmark added"
			} else {
				g.notice = "bookmark removed"
			}
			updateDisplay()
		case fyne.KeyQ:
			g.sess.Close()
			closeOnce.Do(func() { close(done) })
			a.Quit()
		}
	})

	w.Resize(fyne.NewSize(1000, 700))
	w.SetContent(split)

	// Handle window resize: re-paginate when the canvas size changes.
	var lastSize fyne.Size
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				time.Sleep(100 * time.Millisecond)
				size := w.Canvas().Size()
				if size.Width > 0 && size != lastSize {
					lastSize = size
					fyne.Do(updateDisplay)
				}
			}
		}
	}()

	w.SetOnClosed(func() {
		g.sess.Close()
		closeOnce.Do(func() { close(done) })
	})

	w.ShowAndRun()
}
