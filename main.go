//go:build !gui

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

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

const (
	defaultColorTag = "yellow"
	searchAccent    = "accent"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00"))

	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#00AAAA"))

	highlightStyles = map[string]lipgloss.Style{
		"yellow": lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#AAAA00")),
		"green":  lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00AA00")),
		"pink":   lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#AA00AA")),
	}
)

// syncCounter stands in for the sync collaborator: it only counts how many
// mutations have been handed off.
type syncCounter struct {
	ops int
}

func (c *syncCounter) hook(annotate.Highlight, annotate.Op) {
	c.ops++
}

type prompt int

const (
	promptNone prompt = iota
	promptSearch
	promptNote
)

type model struct {
	book   *ingest.Book
	bookID string

	sess      *session.Session
	repag     *session.Repaginator
	store     *annotate.Store
	bookmarks *state.BookmarkList
	engine    search.Engine
	settings  textmetrics.ReaderSettings
	pending   *syncCounter

	width  int
	height int

	pages      []paginate.PageRange
	chapterHLs []annotate.Highlight

	activeQuery string
	matches     []search.Match
	matchIdx    int
	jumpOffset  int  // byte offset to land on after the next pagination, -1 when unset
	firstLayout bool // true until the first pagination after opening the book

	prompting  prompt
	input      textinput.Model
	noteTarget string

	notice   string
	quitting bool
}

type paginatedMsg struct {
	pages []paginate.PageRange
	ok    bool
	err   error
}

func newModel(book *ingest.Book, bookID string, kv state.KV) model {
	counter := &syncCounter{}
	input := textinput.New()
	input.CharLimit = 200
	input.Width = 40

	return model{
		book:      book,
		bookID:    bookID,
		sess:      session.New(state.NewProgressTracker(kv)),
		repag:     session.NewRepaginator(paginate.New(textmetrics.CellProvider{})),
		store:     annotate.NewStore(kv, counter.hook),
		bookmarks: state.NewBookmarkList(kv),
		pending:   counter,
		settings: textmetrics.ReaderSettings{
			Style:       textmetrics.Style{Font: "mono", Size: 1, LineHeight: 1},
			AccentColor: searchAccent,
		},
		input:       input,
		jumpOffset:  -1,
		firstLayout: true,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// viewport returns the text area: full width, height minus the status,
// notice and controls rows.
func (m model) viewport() textmetrics.Viewport {
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	w := m.width
	if w < 1 {
		w = 1
	}
	return textmetrics.Viewport{Width: float64(w), Height: float64(h)}
}

func (m model) chapterText() string {
	chapter, _ := m.sess.Position()
	return m.book.ChapterText(chapter)
}

// repaginate schedules a pagination pass for the current chapter at the
// current viewport. An earlier pass that has not run yet is superseded.
func (m *model) repaginate() tea.Cmd {
	pending := m.repag.Request(m.chapterText(), m.viewport(), m.settings)
	return func() tea.Msg {
		pages, ok, err := pending.Run()
		return paginatedMsg{pages: pages, ok: ok, err: err}
	}
}

func (m *model) reloadHighlights() {
	chapter, _ := m.sess.Position()
	hls, err := m.store.ListForChapter(m.bookID, chapter)
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.chapterHLs = hls
}

// findPage returns the index of the page containing the byte offset.
func findPage(pages []paginate.PageRange, offset int) int {
	for i, p := range pages {
		if p.Contains(offset) {
			return i
		}
	}
	if n := len(pages); n > 0 && offset >= pages[n-1].End {
		return n - 1
	}
	return 0
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.repaginate()

	case paginatedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		if !msg.ok {
			// Superseded by a newer request; discard.
			return m, nil
		}
		m.pages = msg.pages
		if m.jumpOffset >= 0 {
			page := findPage(m.pages, m.jumpOffset)
			m.jumpOffset = -1
			if err := m.sess.FlipTo(page); err != nil {
				m.notice = err.Error()
			}
		} else if m.sess.ClampPage(len(m.pages)) {
			if m.firstLayout {
				m.notice = "saved page is past the end of the chapter, starting from its first page"
			} else {
				m.notice = "layout changed, returning to the first page of the chapter"
			}
		}
		m.firstLayout = false
		m.reloadHighlights()
		return m, nil

	case tea.KeyMsg:
		if m.prompting != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateReading(msg)
	}

	return m, nil
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompting = promptNone
		m.input.Blur()
		return m, nil

	case "enter":
		value := m.input.Value()
		kind := m.prompting
		m.prompting = promptNone
		m.input.Blur()

		switch kind {
		case promptSearch:
			m.activeQuery = value
			m.matches = m.engine.Search(m.book.Chapters, value, search.DefaultMaxResults)
			m.matchIdx = 0
			if len(m.matches) == 0 {
				m.notice = fmt.Sprintf("no matches for %q", value)
				return m, nil
			}
			m.notice = fmt.Sprintf("%d matches", len(m.matches))
			return m, m.gotoMatch(0)

		case promptNote:
			hl, err := m.noteHighlight(value)
			if err != nil {
				m.notice = err.Error()
				return m, nil
			}
			m.notice = fmt.Sprintf("note saved on highlight %s", hl.ID)
			m.reloadHighlights()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.quitting = true
		if err := m.sess.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to save position: %v\n", err)
		}
		return m, tea.Quit

	case "right", "l", " ":
		return m.flip(1)

	case "left", "h":
		return m.flip(-1)

	case "n":
		return m.changeChapter(1)

	case "p":
		return m.changeChapter(-1)

	case "/":
		m.prompting = promptSearch
		m.input.Placeholder = "search"
		m.input.SetValue("")
		m.input.Focus()
		return m, nil

	case "esc":
		m.activeQuery = ""
		m.matches = nil
		return m, nil

	case "]":
		return m.cycleMatch(1)

	case "[":
		return m.cycleMatch(-1)

	case "a":
		m.addHighlightAtMatch()
		return m, nil

	case "x":
		m.removeHighlightAtMatch()
		return m, nil

	case "t":
		hl, ok := m.highlightAtMatch()
		if !ok {
			m.notice = "no highlight under the current match"
			return m, nil
		}
		m.prompting = promptNote
		m.noteTarget = hl.ID
		m.input.Placeholder = "note"
		m.input.SetValue(hl.NoteText)
		m.input.Focus()
		return m, nil

	case "m":
		chapter, page := m.sess.Position()
		added, err := m.bookmarks.Toggle(m.bookID, state.BookmarkMark{ChapterIndex: chapter, PageIndex: page})
		if err != nil {
			m.notice = err.Error()
		} else if added {
			m.notice = "bookmark added"
		} else {
			m.notice = "bookmark removed"
		}
		return m, nil
	}

	return m, nil
}

// flip moves one page forward or back. Flipping past the last page of a
// chapter advances to the next chapter; flipping back from the first page
// returns to the previous one.
func (m model) flip(delta int) (tea.Model, tea.Cmd) {
	if len(m.pages) == 0 {
		// No pagination has arrived yet; there is nothing to flip.
		return m, nil
	}
	chapter, page := m.sess.Position()
	next := page + delta

	if next < 0 {
		return m.changeChapter(-1)
	}
	if next >= len(m.pages) {
		if chapter+1 >= len(m.book.Chapters) {
			m.notice = "end of book"
			return m, nil
		}
		return m.changeChapter(1)
	}

	if err := m.sess.FlipTo(next); err != nil {
		m.notice = err.Error()
	}
	return m, nil
}

func (m model) changeChapter(delta int) (tea.Model, tea.Cmd) {
	chapter, _ := m.sess.Position()
	next := chapter + delta
	if next < 0 || next >= len(m.book.Chapters) {
		m.notice = "no more chapters"
		return m, nil
	}
	if err := m.sess.ChangeChapter(next); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	return m, m.repaginate()
}

func (m model) cycleMatch(delta int) (tea.Model, tea.Cmd) {
	if len(m.matches) == 0 {
		m.notice = "no active search"
		return m, nil
	}
	m.matchIdx = (m.matchIdx + delta + len(m.matches)) % len(m.matches)
	return m, m.gotoMatch(m.matchIdx)
}

// gotoMatch jumps to the chapter and page containing a search match. When
// the match is in another chapter the landing page is resolved once that
// chapter's pagination arrives.
func (m *model) gotoMatch(i int) tea.Cmd {
	match := m.matches[i]
	chapter, _ := m.sess.Position()
	if match.ChapterIndex != chapter {
		m.jumpOffset = match.Offset
		if err := m.sess.ChangeChapter(match.ChapterIndex); err != nil {
			m.notice = err.Error()
			m.jumpOffset = -1
			return nil
		}
		return m.repaginate()
	}
	page := findPage(m.pages, match.Offset)
	if err := m.sess.FlipTo(page); err != nil {
		m.notice = err.Error()
	}
	return nil
}

func (m *model) currentMatch() (search.Match, bool) {
	if len(m.matches) == 0 {
		return search.Match{}, false
	}
	return m.matches[m.matchIdx], true
}

func (m *model) highlightAtMatch() (annotate.Highlight, bool) {
	match, ok := m.currentMatch()
	if !ok {
		return annotate.Highlight{}, false
	}
	return m.store.FindAtPosition(m.bookID, match.ChapterIndex, match.Offset)
}

// addHighlightAtMatch saves the current search match as a highlight.
func (m *model) addHighlightAtMatch() {
	match, ok := m.currentMatch()
	if !ok {
		m.notice = "no active search match"
		return
	}
	text := m.book.ChapterText(match.ChapterIndex)
	ranges := search.OccurrenceRanges(text[match.Offset:], search.Normalize(match.Query))
	if len(ranges) == 0 || ranges[0][0] != 0 {
		m.notice = "match no longer present"
		return
	}
	start, end := match.Offset, match.Offset+ranges[0][1]

	if m.store.Overlaps(m.bookID, match.ChapterIndex, start, end) {
		m.notice = "overlaps an existing highlight"
	}
	hl := annotate.New(m.bookID, match.ChapterIndex, start, end, defaultColorTag, text)
	if err := m.store.Add(hl); err != nil {
		m.notice = err.Error()
		return
	}
	m.reloadHighlights()
}

func (m *model) removeHighlightAtMatch() {
	hl, ok := m.highlightAtMatch()
	if !ok {
		m.notice = "no highlight under the current match"
		return
	}
	removed, err := m.store.Remove(hl.BookID, hl.ID)
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = fmt.Sprintf("removed highlight %s", removed.ID)
	m.reloadHighlights()
}

func (m *model) noteHighlight(note string) (annotate.Highlight, error) {
	hls, err := m.store.List(m.bookID)
	if err != nil {
		return annotate.Highlight{}, err
	}
	for _, h := range hls {
		if h.ID == m.noteTarget {
			h.NoteText = note
			return h, m.store.Update(h)
		}
	}
	return annotate.Highlight{}, fmt.Errorf("%w: %s", annotate.ErrNotFound, m.noteTarget)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if len(m.pages) == 0 {
		return "Loading..."
	}

	chapter, page := m.sess.Position()
	if page >= len(m.pages) {
		page = len(m.pages) - 1
	}

	body := renderPage(m.pages[page], m.chapterText(), m.chapterHLs, m.activeQuery, m.settings.AccentColor)

	marked, _ := m.bookmarks.Contains(m.bookID, state.BookmarkMark{ChapterIndex: chapter, PageIndex: page})
	mark := ""
	if marked {
		mark = " ⚑"
	}
	syncNote := ""
	if m.pending.ops > 0 {
		syncNote = fmt.Sprintf(" | %d pending sync", m.pending.ops)
	}
	status := statusStyle.Render(fmt.Sprintf("%s | %s | Ch %d/%d | Page %d/%d%s%s",
		m.book.Title,
		m.book.Chapters[chapter].Title,
		chapter+1, len(m.book.Chapters),
		page+1, len(m.pages),
		mark, syncNote,
	))

	middle := ""
	if m.notice != "" {
		middle = noticeStyle.Render(m.notice)
	}
	if m.prompting != promptNone {
		middle = m.input.View()
	}

	controls := controlsStyle.Render("←/→: page  n/p: chapter  /: search  [/]: match  a: highlight  t: note  x: delete  m: bookmark  q: quit")

	return status + "\n" + body + "\n" + middle + "\n" + controls
}

// renderPage composes the page's styled spans and renders each with the
// terminal style for its kind.
func renderPage(page paginate.PageRange, chapterText string, highlights []annotate.Highlight, query, accent string) string {
	if chapterText == "" {
		return noticeStyle.Render("(no content)")
	}

	spans := compose.Compose(page, chapterText, highlights, query, accent)
	var out string
	for _, s := range spans {
		switch s.Kind {
		case compose.KindHighlight:
			style, ok := highlightStyles[s.Color]
			if !ok {
				style = highlightStyles[defaultColorTag]
			}
			out += style.Render(s.Text)
		case compose.KindSearch:
			out += searchStyle.Render(s.Text)
		default:
			out += s.Text
		}
	}
	return out
}

func main() {
	fresh := flag.Bool("fresh", false, "Ignore saved reading position")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Folio - Terminal Book Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  folio [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  folio book.epub           Open an EPUB where you left off\n")
		fmt.Fprintf(os.Stderr, "  folio -fresh notes.md     Open a Markdown book from the start\n")
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  ←/→      Previous/next page\n")
		fmt.Fprintf(os.Stderr, "  n/p      Next/previous chapter\n")
		fmt.Fprintf(os.Stderr, "  /        Search the whole book\n")
		fmt.Fprintf(os.Stderr, "  [/]      Previous/next search match\n")
		fmt.Fprintf(os.Stderr, "  a        Save the current match as a highlight\n")
		fmt.Fprintf(os.Stderr, "  t        Attach a note to the highlight under the match\n")
		fmt.Fprintf(os.Stderr, "  x        Delete the highlight under the match\n")
		fmt.Fprintf(os.Stderr, "  m        Toggle a bookmark on this page\n")
		fmt.Fprintf(os.Stderr, "  q        Quit (position is saved)\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
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

	m := newModel(book, bookID, kv)
	notice, err := m.sess.Open(bookID, len(book.Chapters))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m.notice = notice

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
