package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bibliotheca/internal/database"
	"github.com/openshelf/bibliotheca/internal/database/comments"
	"github.com/openshelf/bibliotheca/internal/entities"
)

func setupCommentsTest(t *testing.T) *comments.Repository {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return comments.NewRepository(db.DB)
}

func commentsRouter(controller *CommentsController, userID uint) *gin.Engine {
	router := gin.New()
	router.Use(asUser(userID))
	router.GET("/api/books/:id/comments", controller.ListBookComments)
	router.POST("/api/books/:id/comments", controller.CreateComment)
	router.GET("/api/admin/comments/pending", controller.ListPendingComments)
	router.POST("/api/admin/comments/:id/validate", controller.ValidateComment)
	router.DELETE("/api/admin/comments/:id", controller.DeleteComment)
	return router
}

func postComment(t *testing.T, router *gin.Engine, bookID uint, text string, rating int) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"comment_text": text, "rating": rating})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/books/"+itoa(bookID)+"/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

type recordingAuditor struct {
	events []string
}

func (r *recordingAuditor) Record(event string, actorID uint, data any) (string, error) {
	r.events = append(r.events, event)
	return event + ".json", nil
}

func TestCommentsController_ModerationFlow(t *testing.T) {
	repo := setupCommentsTest(t)
	auditor := &recordingAuditor{}
	router := commentsRouter(NewCommentsController(repo, auditor), 1)

	// Submit a review; it stays hidden until validated
	w := postComment(t, router, 1, "A masterpiece.", 5)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "moderation")

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/1/comments", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Zero(t, listed.Count)

	// It shows up in the moderation queue
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/admin/comments/pending", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var pending struct {
		Comments []entities.Comment `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending.Comments, 1)

	// Validate it and it becomes visible
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/admin/comments/"+itoa(pending.Comments[0].ID)+"/validate", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/1/comments", nil)
	router.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)

	assert.Equal(t, []string{"comment_validated"}, auditor.events)
}

func TestCommentsController_DeleteRecordsAudit(t *testing.T) {
	repo := setupCommentsTest(t)
	auditor := &recordingAuditor{}
	router := commentsRouter(NewCommentsController(repo, auditor), 1)

	w := postComment(t, router, 1, "Spam.", 1)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/admin/comments/1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"comment_deleted"}, auditor.events)
}

func TestCommentsController_AnonymousCannotReview(t *testing.T) {
	repo := setupCommentsTest(t)
	router := commentsRouter(NewCommentsController(repo, nil), entities.AnonymousUserID)

	w := postComment(t, router, 1, "Anonymous opinion.", 3)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommentsController_RatingBounds(t *testing.T) {
	repo := setupCommentsTest(t)
	router := commentsRouter(NewCommentsController(repo, nil), 1)

	assert.Equal(t, http.StatusBadRequest, postComment(t, router, 1, "Too low.", 0).Code)
	assert.Equal(t, http.StatusBadRequest, postComment(t, router, 1, "Too high.", 6).Code)
	assert.Equal(t, http.StatusCreated, postComment(t, router, 1, "Just right.", 3).Code)
}
