package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/database/bookmarks"
	"github.com/openshelf/bibliotheca/internal/entities"
	"github.com/openshelf/bibliotheca/internal/reader"
)

// SessionOpener builds a reading session for a document. The entrypoint
// wires the document store, the repositories and a fresh canvas into each
// session it opens.
type SessionOpener func(ref reader.DocumentRef, userID uint) *reader.Session

// ReaderController exposes reading sessions over HTTP. A session is opened
// for one book, addressed by an opaque token and driven by navigation,
// zoom and panel requests until it is closed or reaped.
type ReaderController struct {
	books    BookStore
	registry *reader.Registry
	open     SessionOpener
}

func NewReaderController(books BookStore, registry *reader.Registry, open SessionOpener) *ReaderController {
	return &ReaderController{
		books:    books,
		registry: registry,
		open:     open,
	}
}

// OpenSessionRequest selects the book to read.
type OpenSessionRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

// OpenSession starts a reading session and returns its token. The document
// loads asynchronously; poll the snapshot until the state is "ready".
// POST /api/reader/sessions
func (controller *ReaderController) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	book, err := controller.books.GetByID(req.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	session := controller.open(reader.DocumentRef{
		BookID:            book.ID,
		Title:             book.Title,
		Author:            book.Author,
		FileURL:           book.FilePath,
		DeclaredPageCount: book.PageCount,
	}, GetUserID(c))

	token, err := controller.registry.Put(session)
	if err != nil {
		session.Close()
		respondInternalError(c, err, "register session")
		return
	}

	respondCreated(c, gin.H{
		"token":   token,
		"session": session.Snapshot(),
	})
}

// session resolves the token parameter into a live session, or responds
// with 404.
func (controller *ReaderController) session(c *gin.Context) (*reader.Session, bool) {
	token := c.Param("token")
	session, ok := controller.registry.Get(token)
	if !ok {
		respondNotFound(c, "session")
		return nil, false
	}
	return session, true
}

// GetSession returns the session snapshot.
// GET /api/reader/sessions/:token
func (controller *ReaderController) GetSession(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// CloseSession tears the session down, issuing the final position write.
// DELETE /api/reader/sessions/:token
func (controller *ReaderController) CloseSession(c *gin.Context) {
	token := c.Param("token")
	if _, ok := controller.registry.Get(token); !ok {
		respondNotFound(c, "session")
		return
	}
	controller.registry.Remove(token)
	respondSuccess(c, "session closed")
}

// RetrySession retries a failed document load.
// POST /api/reader/sessions/:token/retry
func (controller *ReaderController) RetrySession(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	session.Retry()
	c.JSON(http.StatusOK, session.Snapshot())
}

// GoToRequest selects a target page.
type GoToRequest struct {
	Page int `json:"page" binding:"required"`
}

// GoTo navigates to a page, clamped to the document bounds.
// POST /api/reader/sessions/:token/goto
func (controller *ReaderController) GoTo(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	var req GoToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "page is required")
		return
	}
	session.GoTo(req.Page)
	c.JSON(http.StatusOK, session.Snapshot())
}

// Next advances one page.
// POST /api/reader/sessions/:token/next
func (controller *ReaderController) Next(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	session.GoNext()
	c.JSON(http.StatusOK, session.Snapshot())
}

// Previous goes back one page.
// POST /api/reader/sessions/:token/previous
func (controller *ReaderController) Previous(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	session.GoPrevious()
	c.JSON(http.StatusOK, session.Snapshot())
}

// InputRequest carries a raw navigation gesture. Kind selects which fields
// apply: "key" uses Key, "tap" uses X and Width, "swipe" uses DeltaX.
type InputRequest struct {
	Kind   string  `json:"kind" binding:"required"`
	Key    string  `json:"key"`
	X      float64 `json:"x"`
	Width  float64 `json:"width"`
	DeltaX float64 `json:"delta_x"`
}

// Input feeds a keyboard, tap or swipe gesture into the session.
// POST /api/reader/sessions/:token/input
func (controller *ReaderController) Input(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "kind is required")
		return
	}

	switch req.Kind {
	case "key":
		session.HandleKey(req.Key)
	case "tap":
		session.HandleTap(req.X, req.Width)
	case "swipe":
		session.HandleSwipe(req.DeltaX)
	default:
		respondBadRequest(c, "kind must be key, tap or swipe")
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// ZoomRequest selects the zoom direction.
type ZoomRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// Zoom steps the render scale in or out, clamped to the configured bounds.
// POST /api/reader/sessions/:token/zoom
func (controller *ReaderController) Zoom(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	var req ZoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "direction is required")
		return
	}

	switch req.Direction {
	case "in":
		session.ZoomIn()
	case "out":
		session.ZoomOut()
	default:
		respondBadRequest(c, "direction must be in or out")
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// PanelRequest selects the overlay to toggle.
type PanelRequest struct {
	Panel string `json:"panel" binding:"required"`
}

// TogglePanel opens or closes an overlay. Opening one closes the others.
// POST /api/reader/sessions/:token/panel
func (controller *ReaderController) TogglePanel(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	var req PanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "panel is required")
		return
	}

	switch mode := reader.PanelMode(req.Panel); mode {
	case reader.PanelNotes, reader.PanelBookmarks, reader.PanelReviews, reader.PanelAddNote:
		session.TogglePanel(mode)
	default:
		respondBadRequest(c, "unknown panel")
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// GetFrame serves the most recently rendered page content. Responds 404
// until the first render commits; a pending inline render error is
// reported with 502.
// GET /api/reader/sessions/:token/frame
func (controller *ReaderController) GetFrame(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	canvas, ok := session.Surface().(*reader.Canvas)
	if !ok {
		respondInternalError(c, errors.New("session has no canvas surface"), "get frame")
		return
	}

	if page, err := canvas.PageError(); err != nil {
		respondError(c, http.StatusBadGateway, fmt.Sprintf("page %d failed to render", page))
		return
	}

	frame, ok := canvas.Frame()
	if !ok {
		respondNotFound(c, "frame")
		return
	}

	c.Header("X-Page", fmt.Sprintf("%d", frame.Page))
	c.Header("X-Scale", fmt.Sprintf("%g", frame.Scale))
	c.Data(http.StatusOK, "application/pdf", frame.Content)
}

// GetNotices drains the session's transient notifications.
// GET /api/reader/sessions/:token/notices
func (controller *ReaderController) GetNotices(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	notices := session.DrainNotices()
	if notices == nil {
		notices = []reader.Notice{}
	}
	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

// ListBookmarks returns the session's bookmarks for its book.
// GET /api/reader/sessions/:token/bookmarks
func (controller *ReaderController) ListBookmarks(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	list, err := session.Bookmarks()
	if err != nil {
		respondInternalError(c, err, "list bookmarks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": list, "count": len(list)})
}

// BookmarkRequest optionally names the bookmark; the default is the page.
type BookmarkRequest struct {
	Title string `json:"title"`
}

// AddBookmark bookmarks the current page.
// POST /api/reader/sessions/:token/bookmarks
func (controller *ReaderController) AddBookmark(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	var req BookmarkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "malformed bookmark payload")
			return
		}
	}

	bookmark, err := session.AddBookmark(req.Title)
	if err != nil {
		switch {
		case errors.Is(err, reader.ErrAnonymous):
			respondError(c, http.StatusUnauthorized, "sign in to add bookmarks")
		case errors.Is(err, bookmarks.ErrDuplicate):
			respondConflict(c, "you already have a bookmark for this page")
		default:
			respondInternalError(c, err, "add bookmark")
		}
		return
	}
	respondCreated(c, bookmark)
}

// RemoveBookmark deletes one of the reader's bookmarks.
// DELETE /api/reader/sessions/:token/bookmarks/:id
func (controller *ReaderController) RemoveBookmark(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := session.RemoveBookmark(id); err != nil {
		if errors.Is(err, reader.ErrAnonymous) {
			respondError(c, http.StatusUnauthorized, "sign in to manage bookmarks")
			return
		}
		respondInternalError(c, err, "remove bookmark")
		return
	}
	respondSuccess(c, "bookmark removed")
}

// ListNotes returns the session's notes for its book.
// GET /api/reader/sessions/:token/notes
func (controller *ReaderController) ListNotes(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	list, err := session.Notes()
	if err != nil {
		respondInternalError(c, err, "list notes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": list, "count": len(list)})
}

// NoteRequest carries the note text; the page is the session's current one.
type NoteRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddNote attaches a note to the current page.
// POST /api/reader/sessions/:token/notes
func (controller *ReaderController) AddNote(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "text is required")
		return
	}

	note, err := session.AddNote(req.Text)
	if err != nil {
		switch {
		case errors.Is(err, reader.ErrAnonymous):
			respondError(c, http.StatusUnauthorized, "sign in to add notes")
		case errors.Is(err, reader.ErrEmptyNote), errors.Is(err, reader.ErrInvalidPage):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "add note")
		}
		return
	}
	respondCreated(c, note)
}

// RemoveNote deletes one of the reader's notes.
// DELETE /api/reader/sessions/:token/notes/:id
func (controller *ReaderController) RemoveNote(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := session.RemoveNote(id); err != nil {
		if errors.Is(err, reader.ErrAnonymous) {
			respondError(c, http.StatusUnauthorized, "sign in to manage notes")
			return
		}
		respondInternalError(c, err, "remove note")
		return
	}
	respondSuccess(c, "note removed")
}

// ListReviews returns the validated reviews for the session's book, for
// the reviews panel.
// GET /api/reader/sessions/:token/reviews
func (controller *ReaderController) ListReviews(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}

	list, err := session.Reviews()
	if err != nil {
		respondInternalError(c, err, "list reviews")
		return
	}
	if list == nil {
		list = []entities.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{"reviews": list, "count": len(list)})
}
