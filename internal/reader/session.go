// Package reader implements the paginated reading session: document load
// lifecycle, page rendering, debounced position persistence and
// keyboard/tap/swipe navigation.
//
// A session coordinates the document load, per-page renders and the
// debounced position write without races:
// render results carry the generation captured at dispatch time and are
// discarded on completion when a later page or zoom change superseded them.
package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/openshelf/bibliotheca/internal/database/progress"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// State is the lifecycle state of a session.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateError    State = "error"
	StateTornDown State = "torn-down"
)

// PanelMode selects the auxiliary overlay next to the reading surface.
// At most one overlay is visible at a time.
type PanelMode string

const (
	PanelNone      PanelMode = "none"
	PanelNotes     PanelMode = "notes"
	PanelBookmarks PanelMode = "bookmarks"
	PanelReviews   PanelMode = "reviews"
	PanelAddNote   PanelMode = "add-note"
)

// swipeThreshold is the horizontal drag distance, in logical units, a
// gesture must exceed to count as a page turn.
const swipeThreshold = 75.0

var (
	ErrAnonymous   = errors.New("anonymous sessions cannot save annotations")
	ErrEmptyNote   = errors.New("note text is required")
	ErrInvalidPage = errors.New("page number must be positive")
)

// Options tunes a session. Zero values fall back to the defaults below.
type Options struct {
	DebounceInterval time.Duration // quiet period before a position write
	InitialScale     float64
	ZoomStep         float64
	ZoomMin          float64
	ZoomMax          float64
}

func (o Options) withDefaults() Options {
	if o.DebounceInterval <= 0 {
		o.DebounceInterval = 2 * time.Second
	}
	if o.InitialScale <= 0 {
		o.InitialScale = 1.5
	}
	if o.ZoomStep <= 0 {
		o.ZoomStep = 0.2
	}
	if o.ZoomMin <= 0 {
		o.ZoomMin = 0.5
	}
	if o.ZoomMax <= 0 {
		o.ZoomMax = 3.0
	}
	return o
}

// Deps are the collaborators a session composes. Positions, bookmarks,
// notes and reviews may be exercised only when a user is known.
type Deps struct {
	Documents DocumentStore
	Positions PositionStore
	Bookmarks BookmarkStore
	Notes     NoteStore
	Reviews   ReviewStore
	Surface   Surface

	// OnClose, when set, is invoked once at teardown with the final page
	// reached, after the final position write has been issued.
	OnClose func(finalPage int)
}

// Session is a single reader's open book. It owns the document handle, the
// current page and zoom state, the render generation counter and the
// debounced persistence of the reading position.
type Session struct {
	mu sync.Mutex

	ref    DocumentRef
	userID uint
	deps   Deps
	opts   Options

	state  State
	errMsg string

	doc               Document
	pageCount         int
	currentPage       int
	lastPersistedPage int
	scale             float64
	panel             PanelMode

	// renderGen increments on every page or zoom change; a render result
	// whose captured generation no longer matches is discarded.
	renderGen uint64

	flush *Debouncer

	bookmarkCache  []entities.Bookmark
	bookmarksReady bool
	noteCache      []entities.Note
	notesReady     bool

	notices []Notice

	lastActivity time.Time
	closed       bool
}

// NewSession constructs a session for one (user, document) pair and
// immediately begins loading the document. userID zero means anonymous:
// the document renders but position and annotations are never persisted.
func NewSession(ref DocumentRef, userID uint, deps Deps, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		ref:               ref,
		userID:            userID,
		deps:              deps,
		opts:              opts,
		state:             StateIdle,
		pageCount:         ref.DeclaredPageCount,
		currentPage:       1,
		lastPersistedPage: 1,
		scale:             opts.InitialScale,
		panel:             PanelNone,
		flush:             NewDebouncer(opts.DebounceInterval),
		lastActivity:      time.Now(),
	}
	go s.load()
	return s
}

// load fetches the document, then kicks off the initial render and the
// stored-position fetch. The two deliberately race: both funnel through the
// same render path, so the later state simply supersedes the earlier one.
func (s *Session) load() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StateLoading
	s.errMsg = ""
	url := s.ref.FileURL
	s.mu.Unlock()

	doc, err := s.deps.Documents.Load(context.Background(), url)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if doc != nil {
			doc.Release()
		}
		return
	}
	if err != nil {
		s.state = StateError
		s.errMsg = fmt.Sprintf("could not load document: %v", err)
		s.mu.Unlock()
		log.Printf("reader: load failed for book %d: %v", s.ref.BookID, err)
		return
	}

	s.doc = doc
	s.pageCount = doc.PageCount()
	if s.currentPage > s.pageCount {
		s.currentPage = s.pageCount
	}
	s.state = StateReady
	gen := s.renderGen
	page, scale := s.currentPage, s.scale
	s.mu.Unlock()

	go s.render(page, scale, gen)
	go s.resolvePosition()
}

// Retry re-enters Loading after a load failure.
func (s *Session) Retry() {
	s.mu.Lock()
	if s.state != StateError || s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	go s.load()
}

// resolvePosition adopts a previously stored page, if any. Runs after a
// successful load, concurrently with the initial page-1 render.
func (s *Session) resolvePosition() {
	if s.userID == entities.AnonymousUserID {
		return
	}

	record, err := s.deps.Positions.Find(s.userID, s.ref.BookID)
	if err != nil {
		if !errors.Is(err, progress.ErrNotFound) {
			log.Printf("reader: position fetch failed for user %d book %d: %v", s.userID, s.ref.BookID, err)
		}
		return
	}
	if record == nil || record.CurrentPage <= 1 {
		return
	}

	s.mu.Lock()
	if s.closed || s.state != StateReady {
		s.mu.Unlock()
		return
	}
	page := record.CurrentPage
	if page > s.pageCount {
		page = s.pageCount
	}
	clamped := page != record.CurrentPage
	if page == s.currentPage {
		s.lastPersistedPage = page
		s.mu.Unlock()
		if clamped {
			go s.repairPosition(page)
		}
		return
	}
	s.currentPage = page
	s.lastPersistedPage = page // the store holds this page, unless clamping repaired it
	s.renderGen++
	gen := s.renderGen
	scale := s.scale
	s.mu.Unlock()

	if clamped {
		go s.repairPosition(page)
	}
	go s.render(page, scale, gen)
}

// repairPosition rewrites a stored position whose page exceeded the real
// page count, so the out-of-range record does not outlive the session.
func (s *Session) repairPosition(page int) {
	if err := s.deps.Positions.Upsert(s.userID, s.ref.BookID, page); err != nil {
		log.Printf("reader: position repair failed for user %d book %d: %v", s.userID, s.ref.BookID, err)
	}
}

// render draws one page at one scale and commits the result to the surface
// unless a later page or zoom change made it stale. Failures are surfaced
// inline; the session stays usable and the next navigation retries.
func (s *Session) render(page int, scale float64, gen uint64) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return
	}

	p, err := doc.Page(page)
	if err != nil {
		s.reportRenderError(page, gen, err)
		return
	}

	vp := p.Viewport(scale)
	var buf bytes.Buffer
	if err := p.RenderInto(&buf, vp); err != nil {
		s.reportRenderError(page, gen, err)
		return
	}

	s.mu.Lock()
	stale := s.closed || gen != s.renderGen
	s.mu.Unlock()
	if stale {
		return
	}

	s.deps.Surface.SetFrame(Frame{
		Page:     page,
		Scale:    scale,
		Viewport: vp,
		Content:  buf.Bytes(),
	})
}

func (s *Session) reportRenderError(page int, gen uint64, err error) {
	s.mu.Lock()
	stale := s.closed || gen != s.renderGen
	s.mu.Unlock()
	if stale {
		return
	}
	log.Printf("reader: render failed for book %d page %d: %v", s.ref.BookID, page, err)
	s.deps.Surface.SetPageError(page, err)
}

// GoTo navigates to a page, clamped to [1, pageCount]. Navigating to the
// current page is a no-op: no render, no scheduled write.
func (s *Session) GoTo(page int) {
	s.mu.Lock()
	if s.state != StateReady || s.closed {
		s.mu.Unlock()
		return
	}
	if page < 1 {
		page = 1
	}
	if page > s.pageCount {
		page = s.pageCount
	}
	if page == s.currentPage {
		s.mu.Unlock()
		return
	}
	s.currentPage = page
	s.lastActivity = time.Now()
	s.renderGen++
	gen := s.renderGen
	scale := s.scale
	s.mu.Unlock()

	go s.render(page, scale, gen)
	s.schedulePersist()
}

// GoNext advances one page; no-op on the last page.
func (s *Session) GoNext() {
	s.mu.Lock()
	page := s.currentPage + 1
	s.mu.Unlock()
	s.GoTo(page)
}

// GoPrevious goes back one page; no-op on the first page.
func (s *Session) GoPrevious() {
	s.mu.Lock()
	page := s.currentPage - 1
	s.mu.Unlock()
	s.GoTo(page)
}

// HandleKey processes a keyboard event. Right arrow and space advance,
// left arrow goes back. Keys are live only while the session is Ready.
func (s *Session) HandleKey(key string) {
	switch key {
	case "ArrowRight", " ":
		s.GoNext()
	case "ArrowLeft":
		s.GoPrevious()
	}
}

// HandleTap processes a pointer tap at horizontal position x on a surface
// of the given width. The left third goes back, the right third advances,
// the middle third is reserved for chrome toggling.
func (s *Session) HandleTap(x, width float64) {
	if width <= 0 {
		return
	}
	switch {
	case x < width/3:
		s.GoPrevious()
	case x > width*2/3:
		s.GoNext()
	}
}

// HandleSwipe processes a completed horizontal drag. A leftward swipe past
// the threshold advances, a rightward one goes back; smaller drags are
// ignored.
func (s *Session) HandleSwipe(deltaX float64) {
	switch {
	case deltaX < -swipeThreshold:
		s.GoNext()
	case deltaX > swipeThreshold:
		s.GoPrevious()
	}
}

// schedulePersist arms the trailing debounce for a position write. A burst
// of page turns inside the quiet window collapses into a single write.
func (s *Session) schedulePersist() {
	if s.userID == entities.AnonymousUserID {
		return
	}
	s.flush.Schedule(s.persist)
}

// persist writes the current page, suppressing the write when it matches
// the last durably saved page. Failure is reported as a transient notice
// and not retried.
func (s *Session) persist() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	page := s.currentPage
	if page == s.lastPersistedPage {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := s.deps.Positions.Upsert(s.userID, s.ref.BookID, page); err != nil {
		log.Printf("reader: position write failed for user %d book %d: %v", s.userID, s.ref.BookID, err)
		s.notify(NoticePersistence, "could not save reading position")
		return
	}

	s.mu.Lock()
	s.lastPersistedPage = page
	s.mu.Unlock()
}

// ZoomIn increases the render scale by one step, clamped.
func (s *Session) ZoomIn() {
	s.setScale(func(scale float64) float64 { return scale + s.opts.ZoomStep })
}

// ZoomOut decreases the render scale by one step, clamped.
func (s *Session) ZoomOut() {
	s.setScale(func(scale float64) float64 { return scale - s.opts.ZoomStep })
}

func (s *Session) setScale(adjust func(float64) float64) {
	s.mu.Lock()
	if s.state != StateReady || s.closed {
		s.mu.Unlock()
		return
	}
	next := adjust(s.scale)
	if next < s.opts.ZoomMin {
		next = s.opts.ZoomMin
	}
	if next > s.opts.ZoomMax {
		next = s.opts.ZoomMax
	}
	if next == s.scale {
		s.mu.Unlock()
		return
	}
	s.scale = next
	s.lastActivity = time.Now()
	s.renderGen++
	gen := s.renderGen
	page := s.currentPage
	s.mu.Unlock()

	go s.render(page, next, gen)
}

// TogglePanel opens the given overlay, or closes it when already open.
// Opening any overlay closes the others; panel state never triggers a
// document render.
func (s *Session) TogglePanel(mode PanelMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.panel == mode {
		s.panel = PanelNone
	} else {
		s.panel = mode
	}
	s.lastActivity = time.Now()
}

// Close tears the session down: cancels the pending debounced write,
// issues one final position write when the current page is not yet
// persisted, releases the document handle and marks any in-flight render
// stale. Safe to call from every state; idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = StateTornDown
	s.renderGen++ // in-flight renders discard on arrival
	doc := s.doc
	s.doc = nil
	finalPage := s.currentPage
	needWrite := s.userID != entities.AnonymousUserID && s.currentPage != s.lastPersistedPage
	s.mu.Unlock()

	s.flush.Cancel()

	if needWrite {
		// Fire and forget: teardown stays synchronous for the caller.
		go func() {
			if err := s.deps.Positions.Upsert(s.userID, s.ref.BookID, finalPage); err != nil {
				log.Printf("reader: final position write failed for user %d book %d: %v", s.userID, s.ref.BookID, err)
			}
		}()
	}

	if doc != nil {
		doc.Release()
	}

	if s.deps.OnClose != nil {
		s.deps.OnClose(finalPage)
	}
}

func (s *Session) notify(kind NoticeKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{Kind: kind, Message: message, At: time.Now()})
}

// Surface returns the surface this session paints onto.
func (s *Session) Surface() Surface {
	return s.deps.Surface
}

// DrainNotices returns and clears the pending transient notifications.
func (s *Session) DrainNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.notices
	s.notices = nil
	return notices
}

// IdleSince reports the time of the last navigation, zoom or panel action.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Snapshot is a point-in-time view of session state for the UI.
type Snapshot struct {
	State       State     `json:"state"`
	Error       string    `json:"error,omitempty"`
	BookID      uint      `json:"book_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	CurrentPage int       `json:"current_page"`
	PageCount   int       `json:"page_count"`
	Scale       float64   `json:"scale"`
	Panel       PanelMode `json:"panel"`
	Anonymous   bool      `json:"anonymous"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:       s.state,
		Error:       s.errMsg,
		BookID:      s.ref.BookID,
		Title:       s.ref.Title,
		Author:      s.ref.Author,
		CurrentPage: s.currentPage,
		PageCount:   s.pageCount,
		Scale:       s.scale,
		Panel:       s.panel,
		Anonymous:   s.userID == entities.AnonymousUserID,
	}
}
