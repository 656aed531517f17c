package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bibliotheca/internal/database/bookmarks"
	"github.com/openshelf/bibliotheca/internal/database/progress"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// --- fakes ---

type fakePage struct {
	doc    *fakeDocument
	number int
}

func (p *fakePage) Viewport(scale float64) Viewport {
	return Viewport{Width: 600 * scale, Height: 800 * scale}
}

func (p *fakePage) RenderInto(w io.Writer, vp Viewport) error {
	p.doc.mu.Lock()
	gate := p.doc.renderGates[p.number]
	fail := p.doc.failPages[p.number]
	p.doc.mu.Unlock()

	if gate != nil {
		<-gate // hold the render until the test releases it
	}
	if fail {
		return errors.New("rasterization failed")
	}
	_, err := fmt.Fprintf(w, "page-%d", p.number)
	return err
}

type fakeDocument struct {
	mu          sync.Mutex
	pageCount   int
	released    bool
	renderGates map[int]chan struct{}
	failPages   map[int]bool
}

func (d *fakeDocument) PageCount() int { return d.pageCount }

func (d *fakeDocument) Page(n int) (Page, error) {
	if n < 1 || n > d.pageCount {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	return &fakePage{doc: d, number: n}, nil
}

func (d *fakeDocument) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

type fakeDocumentStore struct {
	mu       sync.Mutex
	doc      *fakeDocument
	loadErr  error
	loads    int
}

func (s *fakeDocumentStore) Load(ctx context.Context, url string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.doc, nil
}

type fakeSurface struct {
	mu     sync.Mutex
	frames []Frame
	errs   []int
}

func (s *fakeSurface) SetFrame(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
}

func (s *fakeSurface) SetPageError(page int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, page)
}

func (s *fakeSurface) lastFrame() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *fakeSurface) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

type fakePositions struct {
	mu     sync.Mutex
	stored *entities.ReadingProgress
	writes []int
	fail   bool
}

func (p *fakePositions) Find(userID, bookID uint) (*entities.ReadingProgress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stored == nil {
		return nil, progress.ErrNotFound
	}
	record := *p.stored
	return &record, nil
}

func (p *fakePositions) Upsert(userID, bookID uint, currentPage int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("store unavailable")
	}
	p.writes = append(p.writes, currentPage)
	p.stored = &entities.ReadingProgress{UserID: userID, BookID: bookID, CurrentPage: currentPage}
	return nil
}

func (p *fakePositions) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

func (p *fakePositions) lastWrite() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.writes) == 0 {
		return 0
	}
	return p.writes[len(p.writes)-1]
}

type fakeBookmarks struct {
	mu     sync.Mutex
	items  []entities.Bookmark
	nextID uint
	fail   bool
}

func (b *fakeBookmarks) ListByUserAndBook(userID, bookID uint) ([]entities.Bookmark, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Bookmark, len(b.items))
	copy(out, b.items)
	return out, nil
}

func (b *fakeBookmarks) Create(bookmark *entities.Bookmark) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("store unavailable")
	}
	for _, existing := range b.items {
		if existing.UserID == bookmark.UserID &&
			existing.BookID == bookmark.BookID &&
			existing.PageNumber == bookmark.PageNumber {
			return bookmarks.ErrDuplicate
		}
	}
	b.nextID++
	bookmark.ID = b.nextID
	b.items = append(b.items, *bookmark)
	return nil
}

func (b *fakeBookmarks) Delete(id, userID uint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("store unavailable")
	}
	for i, existing := range b.items {
		if existing.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type fakeNotes struct {
	mu     sync.Mutex
	items  []entities.Note
	nextID uint
	fail   bool
}

func (n *fakeNotes) ListByUserAndBook(userID, bookID uint) ([]entities.Note, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]entities.Note, len(n.items))
	copy(out, n.items)
	return out, nil
}

func (n *fakeNotes) Create(note *entities.Note) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("store unavailable")
	}
	n.nextID++
	note.ID = n.nextID
	n.items = append(n.items, *note)
	return nil
}

func (n *fakeNotes) Delete(id, userID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, existing := range n.items {
		if existing.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type fakeReviews struct {
	items []entities.Comment
}

func (r *fakeReviews) ListValidatedByBook(bookID uint) ([]entities.Comment, error) {
	return r.items, nil
}

// --- harness ---

type harness struct {
	docs      *fakeDocumentStore
	positions *fakePositions
	bookmarks *fakeBookmarks
	notes     *fakeNotes
	reviews   *fakeReviews
	surface   *fakeSurface
}

func newHarness(pageCount int) *harness {
	return &harness{
		docs:      &fakeDocumentStore{doc: &fakeDocument{pageCount: pageCount}},
		positions: &fakePositions{},
		bookmarks: &fakeBookmarks{},
		notes:     &fakeNotes{},
		reviews:   &fakeReviews{},
		surface:   &fakeSurface{},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Documents: h.docs,
		Positions: h.positions,
		Bookmarks: h.bookmarks,
		Notes:     h.notes,
		Reviews:   h.reviews,
		Surface:   h.surface,
	}
}

func testOptions() Options {
	return Options{DebounceInterval: 40 * time.Millisecond}
}

func testRef() DocumentRef {
	return DocumentRef{BookID: 1, Title: "Test Book", Author: "Author", FileURL: "https://example.com/book.pdf", DeclaredPageCount: 10}
}

func waitReady(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Snapshot().State == StateReady
	}, 2*time.Second, 5*time.Millisecond)
}

// waitFrame waits until the surface shows the given page.
func waitFrame(t *testing.T, surface *fakeSurface, page int) {
	t.Helper()
	require.Eventually(t, func() bool {
		frame, ok := surface.lastFrame()
		return ok && frame.Page == page
	}, 2*time.Second, 5*time.Millisecond)
}

// --- lifecycle ---

func TestSession_LoadResolvesToPageOne(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()

	waitReady(t, s)
	waitFrame(t, h.surface, 1)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.CurrentPage)
	assert.Equal(t, 10, snap.PageCount)

	// Only the initial render of page 1 hits the surface.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.surface.frameCount())
	assert.Zero(t, h.positions.writeCount())
}

func TestSession_AdoptsStoredPosition(t *testing.T) {
	h := newHarness(10)
	h.positions.stored = &entities.ReadingProgress{UserID: 7, BookID: 1, CurrentPage: 7}

	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()

	waitReady(t, s)
	waitFrame(t, h.surface, 7)

	snap := s.Snapshot()
	assert.Equal(t, 7, snap.CurrentPage)

	// Adopting the stored page is not a new position; nothing is written.
	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, h.positions.writeCount())
}

func TestSession_RepairsOverflowingStoredPosition(t *testing.T) {
	h := newHarness(5)
	h.positions.stored = &entities.ReadingProgress{UserID: 7, BookID: 1, CurrentPage: 50}

	s := NewSession(testRef(), 7, h.deps(), testOptions())

	waitReady(t, s)
	waitFrame(t, h.surface, 5)
	assert.Equal(t, 5, s.Snapshot().CurrentPage)

	// The out-of-range record is rewritten to the clamped page.
	require.Eventually(t, func() bool {
		return h.positions.lastWrite() == 5
	}, 2*time.Second, 5*time.Millisecond)

	// The repair counts as persisted; closing must not write again.
	s.Close()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.positions.writeCount())
}

func TestSession_RepairsStoredPositionAtCurrentPage(t *testing.T) {
	// A single-page document clamps any stored overflow onto the page the
	// session already shows; the stale record still gets rewritten.
	h := newHarness(1)
	h.positions.stored = &entities.ReadingProgress{UserID: 7, BookID: 1, CurrentPage: 50}

	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()

	waitReady(t, s)
	waitFrame(t, h.surface, 1)
	assert.Equal(t, 1, s.Snapshot().CurrentPage)

	require.Eventually(t, func() bool {
		return h.positions.lastWrite() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.positions.writeCount())
}

func TestSession_LoadFailureAndRetry(t *testing.T) {
	h := newHarness(10)
	h.docs.loadErr = errors.New("404 not found")

	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()

	require.Eventually(t, func() bool {
		return s.Snapshot().State == StateError
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, s.Snapshot().Error, "could not load document")

	h.docs.mu.Lock()
	h.docs.loadErr = nil
	h.docs.mu.Unlock()

	s.Retry()
	waitReady(t, s)
	waitFrame(t, h.surface, 1)
}

func TestSession_CloseReleasesDocument(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	waitReady(t, s)

	s.Close()

	h.docs.doc.mu.Lock()
	released := h.docs.doc.released
	h.docs.doc.mu.Unlock()
	assert.True(t, released)
	assert.Equal(t, StateTornDown, s.Snapshot().State)

	// Close is idempotent.
	s.Close()
}

func TestSession_CloseCallbackCarriesFinalPage(t *testing.T) {
	h := newHarness(10)
	deps := h.deps()
	var finalPage int
	deps.OnClose = func(page int) { finalPage = page }

	s := NewSession(testRef(), 7, deps, testOptions())
	waitReady(t, s)
	s.GoTo(4)
	s.Close()

	assert.Equal(t, 4, finalPage)
}

// --- navigation ---

func TestSession_GoToClampsToBounds(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	s.GoTo(42)
	assert.Equal(t, 10, s.Snapshot().CurrentPage)

	s.GoTo(-3)
	assert.Equal(t, 1, s.Snapshot().CurrentPage)
}

func TestSession_BoundaryNavigationIsNoOp(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	waitFrame(t, h.surface, 1)

	s.mu.Lock()
	genBefore := s.renderGen
	s.mu.Unlock()
	framesBefore := h.surface.frameCount()

	s.GoPrevious()

	s.mu.Lock()
	genAfter := s.renderGen
	s.mu.Unlock()
	assert.Equal(t, genBefore, genAfter, "no render generation bump at the lower bound")
	assert.Equal(t, 1, s.Snapshot().CurrentPage)

	// No write is scheduled either.
	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, h.positions.writeCount())
	assert.Equal(t, framesBefore, h.surface.frameCount())

	s.GoTo(10)
	waitFrame(t, h.surface, 10)
	s.mu.Lock()
	genBefore = s.renderGen
	s.mu.Unlock()

	s.GoNext()
	s.mu.Lock()
	genAfter = s.renderGen
	s.mu.Unlock()
	assert.Equal(t, genBefore, genAfter, "no render generation bump at the upper bound")
	assert.Equal(t, 10, s.Snapshot().CurrentPage)
}

func TestSession_NavigationIgnoredBeforeReady(t *testing.T) {
	h := newHarness(10)
	h.docs.loadErr = errors.New("unreachable")
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()

	require.Eventually(t, func() bool {
		return s.Snapshot().State == StateError
	}, 2*time.Second, 5*time.Millisecond)

	s.GoTo(5)
	s.HandleKey("ArrowRight")
	assert.Equal(t, 1, s.Snapshot().CurrentPage)
}

func TestSession_KeyboardNavigation(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	s.HandleKey("ArrowRight")
	assert.Equal(t, 2, s.Snapshot().CurrentPage)

	s.HandleKey(" ")
	assert.Equal(t, 3, s.Snapshot().CurrentPage)

	s.HandleKey("ArrowLeft")
	assert.Equal(t, 2, s.Snapshot().CurrentPage)

	s.HandleKey("Escape")
	assert.Equal(t, 2, s.Snapshot().CurrentPage)
}

func TestSession_TapZones(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	s.GoTo(5)

	s.HandleTap(100, 900) // left third
	assert.Equal(t, 4, s.Snapshot().CurrentPage)

	s.HandleTap(800, 900) // right third
	assert.Equal(t, 5, s.Snapshot().CurrentPage)

	s.HandleTap(450, 900) // middle third is inert
	assert.Equal(t, 5, s.Snapshot().CurrentPage)
}

func TestSession_SwipeNavigation(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	s.HandleSwipe(-80)
	s.HandleSwipe(-80)
	s.HandleSwipe(-80)
	assert.Equal(t, 4, s.Snapshot().CurrentPage)

	s.HandleSwipe(80)
	assert.Equal(t, 3, s.Snapshot().CurrentPage)

	// Sub-threshold drags are ignored.
	s.HandleSwipe(-40)
	s.HandleSwipe(40)
	assert.Equal(t, 3, s.Snapshot().CurrentPage)

	// Exactly one debounced write for the whole burst, at the final page.
	require.Eventually(t, func() bool {
		return h.positions.writeCount() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, h.positions.lastWrite())
}

// --- persistence ---

func TestSession_DebounceCollapsesBurst(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	for page := 2; page <= 6; page++ {
		s.GoTo(page)
	}

	require.Eventually(t, func() bool {
		return h.positions.writeCount() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 6, h.positions.lastWrite())

	// The quiet window has passed; no further writes trickle in.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, h.positions.writeCount())
}

func TestSession_TeardownWriteBeatsDebounce(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	waitReady(t, s)

	s.GoTo(8)
	s.Close() // before the debounce window elapses

	require.Eventually(t, func() bool {
		return h.positions.writeCount() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 8, h.positions.lastWrite())

	// The canceled debounce never produces a second write.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, h.positions.writeCount())
}

func TestSession_NoTeardownWriteWhenAlreadyPersisted(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	waitReady(t, s)

	s.GoTo(3)
	require.Eventually(t, func() bool {
		return h.positions.writeCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	s.Close()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.positions.writeCount())
}

func TestSession_AnonymousNeverPersists(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), entities.AnonymousUserID, h.deps(), testOptions())
	waitReady(t, s)

	s.GoTo(5)
	s.GoTo(6)
	s.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, h.positions.writeCount())
}

func TestSession_PersistenceFailureIsTransient(t *testing.T) {
	h := newHarness(10)
	h.positions.fail = true
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	s.GoTo(4)

	require.Eventually(t, func() bool {
		for _, n := range s.DrainNotices() {
			if n.Kind == NoticePersistence {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	// Navigation keeps working.
	s.GoTo(5)
	assert.Equal(t, 5, s.Snapshot().CurrentPage)
}

// --- rendering ---

func TestSession_StaleRenderIsDiscarded(t *testing.T) {
	h := newHarness(10)
	gate := make(chan struct{})
	h.docs.doc.renderGates = map[int]chan struct{}{2: gate}

	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	waitFrame(t, h.surface, 1)

	s.GoTo(2) // render blocks on the gate
	s.GoTo(3) // supersedes page 2
	waitFrame(t, h.surface, 3)

	close(gate) // page 2's render completes late

	// The stale result never back-paints the surface.
	time.Sleep(50 * time.Millisecond)
	frame, ok := h.surface.lastFrame()
	require.True(t, ok)
	assert.Equal(t, 3, frame.Page)
	h.surface.mu.Lock()
	for _, f := range h.surface.frames {
		assert.NotEqual(t, 2, f.Page)
	}
	h.surface.mu.Unlock()
}

func TestSession_RenderFailureIsNotFatal(t *testing.T) {
	h := newHarness(10)
	h.docs.doc.failPages = map[int]bool{3: true}

	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	waitFrame(t, h.surface, 1)

	s.GoTo(3)
	require.Eventually(t, func() bool {
		h.surface.mu.Lock()
		defer h.surface.mu.Unlock()
		return len(h.surface.errs) == 1 && h.surface.errs[0] == 3
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, StateReady, s.Snapshot().State)

	// Navigating away renders normally again.
	s.GoTo(4)
	waitFrame(t, h.surface, 4)
}

// --- zoom ---

func TestSession_ZoomClampsAndRerenders(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	for i := 0; i < 20; i++ {
		s.ZoomIn()
	}
	assert.InDelta(t, 3.0, s.Snapshot().Scale, 1e-9)

	for i := 0; i < 40; i++ {
		s.ZoomOut()
	}
	assert.InDelta(t, 0.5, s.Snapshot().Scale, 1e-9)
}

func TestSession_ZoomThenNavigateGenerations(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	waitFrame(t, h.surface, 1)

	s.mu.Lock()
	genBefore := s.renderGen
	s.mu.Unlock()

	s.ZoomIn()
	s.ZoomIn()
	s.GoTo(2)

	s.mu.Lock()
	genAfter := s.renderGen
	s.mu.Unlock()
	assert.Equal(t, genBefore+3, genAfter, "two zoom changes plus one navigation")

	require.Eventually(t, func() bool {
		frame, ok := h.surface.lastFrame()
		return ok && frame.Page == 2 && frame.Scale > 1.89 && frame.Scale < 1.91
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSession_ZoomAtBoundIsNoOp(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	for i := 0; i < 20; i++ {
		s.ZoomIn()
	}
	s.mu.Lock()
	genBefore := s.renderGen
	s.mu.Unlock()

	s.ZoomIn() // already at max

	s.mu.Lock()
	genAfter := s.renderGen
	s.mu.Unlock()
	assert.Equal(t, genBefore, genAfter)
}

// --- panels ---

func TestSession_PanelsAreMutuallyExclusive(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	s.TogglePanel(PanelNotes)
	assert.Equal(t, PanelNotes, s.Snapshot().Panel)

	s.TogglePanel(PanelBookmarks)
	assert.Equal(t, PanelBookmarks, s.Snapshot().Panel)

	s.TogglePanel(PanelAddNote)
	assert.Equal(t, PanelAddNote, s.Snapshot().Panel)

	// Toggling the open panel closes it.
	s.TogglePanel(PanelAddNote)
	assert.Equal(t, PanelNone, s.Snapshot().Panel)
}

func TestSession_PanelDoesNotTriggerRender(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	waitFrame(t, h.surface, 1)

	frames := h.surface.frameCount()
	s.TogglePanel(PanelReviews)
	s.TogglePanel(PanelNotes)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, frames, h.surface.frameCount())
}

// --- annotations ---

func TestSession_DuplicateBookmark(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	s.GoTo(5)

	first, err := s.AddBookmark("chapter two")
	require.NoError(t, err)
	assert.Equal(t, 5, first.PageNumber)

	_, err = s.AddBookmark("again")
	require.ErrorIs(t, err, bookmarks.ErrDuplicate)

	list, err := s.Bookmarks()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	var sawDuplicate bool
	for _, n := range s.DrainNotices() {
		if n.Kind == NoticeDuplicate {
			sawDuplicate = true
		}
	}
	assert.True(t, sawDuplicate)
}

func TestSession_BookmarkDefaultTitle(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	s.GoTo(3)

	bookmark, err := s.AddBookmark("")
	require.NoError(t, err)
	assert.Equal(t, "Page 3", bookmark.Title)
}

func TestSession_BookmarkRollbackOnFailure(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	// Prime the cache, then fail the store.
	_, err := s.Bookmarks()
	require.NoError(t, err)
	h.bookmarks.mu.Lock()
	h.bookmarks.fail = true
	h.bookmarks.mu.Unlock()

	_, err = s.AddBookmark("doomed")
	require.Error(t, err)

	list, err := s.Bookmarks()
	require.NoError(t, err)
	assert.Empty(t, list, "optimistic append rolled back")
}

func TestSession_NoteValidation(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	_, err := s.AddNote("   ")
	require.ErrorIs(t, err, ErrEmptyNote)

	notices := s.DrainNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeValidation, notices[0].Kind)

	// Nothing reached the store.
	assert.Empty(t, h.notes.items)
}

func TestSession_AddNoteOnCurrentPage(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	s.GoTo(6)

	note, err := s.AddNote("  the margins are full  ")
	require.NoError(t, err)
	assert.Equal(t, 6, note.PageNumber)
	assert.Equal(t, "the margins are full", note.NoteText)

	list, err := s.Notes()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, note.ID, list[0].ID)
}

func TestSession_AnonymousCannotAnnotate(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), entities.AnonymousUserID, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)

	_, err := s.AddBookmark("x")
	require.ErrorIs(t, err, ErrAnonymous)

	_, err = s.AddNote("y")
	require.ErrorIs(t, err, ErrAnonymous)
}

func TestSession_RemoveBookmarkRollback(t *testing.T) {
	h := newHarness(10)
	s := NewSession(testRef(), 7, h.deps(), testOptions())
	defer s.Close()
	waitReady(t, s)
	s.GoTo(2)

	bookmark, err := s.AddBookmark("keep me")
	require.NoError(t, err)

	h.bookmarks.mu.Lock()
	h.bookmarks.fail = true
	h.bookmarks.mu.Unlock()

	require.Error(t, s.RemoveBookmark(bookmark.ID))

	list, err := s.Bookmarks()
	require.NoError(t, err)
	assert.Len(t, list, 1, "optimistic removal rolled back")
}
