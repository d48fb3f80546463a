package session

import (
	"github.com/pagecraft/folio/internal/paginate"
	"github.com/pagecraft/folio/internal/textmetrics"
)

// Repaginator serializes pagination requests so that only the most recently
// requested result is ever applied. Rapid viewport or font changes each
// issue a new request; a request that has been superseded before it runs is
// discarded, never applied. There is no first-requested-first-applied
// guarantee, only last-requested-wins.
type Repaginator struct {
	paginator *paginate.Paginator
	gen       uint64
}

// NewRepaginator wraps a paginator.
func NewRepaginator(p *paginate.Paginator) *Repaginator {
	return &Repaginator{paginator: p}
}

// Request registers a pagination request and supersedes all earlier pending
// ones. The caller runs the returned pending pass whenever convenient (in
// the same tick or a later one).
func (r *Repaginator) Request(chapterText string, vp textmetrics.Viewport, settings textmetrics.ReaderSettings) *Pending {
	r.gen++
	return &Pending{
		owner:    r,
		gen:      r.gen,
		text:     chapterText,
		vp:       vp,
		settings: settings,
	}
}

// Pending is a pagination pass that has been requested but not yet run.
type Pending struct {
	owner    *Repaginator
	gen      uint64
	text     string
	vp       textmetrics.Viewport
	settings textmetrics.ReaderSettings
}

// Stale reports whether a newer request has superseded this one.
func (p *Pending) Stale() bool { return p.gen != p.owner.gen }

// Run executes the pass. ok is false when the request was superseded, in
// which case the result is discarded and must not be applied.
func (p *Pending) Run() (pages []paginate.PageRange, ok bool, err error) {
	if p.Stale() {
		return nil, false, nil
	}
	pages, err = p.owner.paginator.Paginate(p.text, p.vp, p.settings)
	if err != nil {
		return nil, false, err
	}
	if p.Stale() {
		return nil, false, nil
	}
	return pages, true, nil
}
