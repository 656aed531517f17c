package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// CommentStore is the review access the comments controller needs.
type CommentStore interface {
	ListValidatedByBook(bookID uint) ([]entities.Comment, error)
	Create(comment *entities.Comment) error
	ListPending() ([]entities.Comment, error)
	Validate(id uint) error
	Delete(id uint) error
}

// AuditRecorder persists a record of an administrative action.
type AuditRecorder interface {
	Record(event string, actorID uint, data any) (string, error)
}

type CommentsController struct {
	store   CommentStore
	auditor AuditRecorder
}

func NewCommentsController(store CommentStore, auditor AuditRecorder) *CommentsController {
	return &CommentsController{store: store, auditor: auditor}
}

func (controller *CommentsController) audit(c *gin.Context, event string, commentID uint) {
	if controller.auditor == nil {
		return
	}
	if _, err := controller.auditor.Record(event, GetUserID(c), gin.H{"comment_id": commentID}); err != nil {
		log.Printf("Failed to write audit record for %s: %v", event, err)
	}
}

// ListBookComments returns the validated reviews of a book.
// GET /api/books/:id/comments
func (controller *CommentsController) ListBookComments(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	comments, err := controller.store.ListValidatedByBook(bookID)
	if err != nil {
		respondInternalError(c, err, "list comments")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

// CommentRequest is the payload for submitting a review.
type CommentRequest struct {
	CommentText string `json:"comment_text" binding:"required"`
	Rating      int    `json:"rating" binding:"required,min=1,max=5"`
}

// CreateComment submits a review for moderation. The review stays hidden
// until an administrator validates it.
// POST /api/books/:id/comments
func (controller *CommentsController) CreateComment(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID := GetUserID(c)
	if userID == entities.AnonymousUserID {
		respondError(c, http.StatusUnauthorized, "sign in to leave a review")
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "comment_text and a rating between 1 and 5 are required")
		return
	}

	comment := entities.Comment{
		UserID:      userID,
		BookID:      bookID,
		CommentText: req.CommentText,
		Rating:      req.Rating,
	}
	if err := controller.store.Create(&comment); err != nil {
		respondInternalError(c, err, "create comment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "review submitted for moderation",
		"comment": comment,
	})
}

// ListPendingComments returns reviews awaiting moderation. Admin only.
// GET /api/admin/comments/pending
func (controller *CommentsController) ListPendingComments(c *gin.Context) {
	comments, err := controller.store.ListPending()
	if err != nil {
		respondInternalError(c, err, "list pending comments")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

// ValidateComment approves a review. Admin only.
// POST /api/admin/comments/:id/validate
func (controller *CommentsController) ValidateComment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.Validate(id); err != nil {
		respondInternalError(c, err, "validate comment")
		return
	}
	controller.audit(c, "comment_validated", id)
	respondSuccess(c, "review validated")
}

// DeleteComment rejects or removes a review. Admin only.
// DELETE /api/admin/comments/:id
func (controller *CommentsController) DeleteComment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete comment")
		return
	}
	controller.audit(c, "comment_deleted", id)
	respondSuccess(c, "review deleted")
}
