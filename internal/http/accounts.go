package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/bibliotheca/internal/auth"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// AccountsController handles registration, login and logout.
type AccountsController struct {
	service        *auth.Service
	sessionManager *auth.SessionManager
}

func NewAccountsController(service *auth.Service, sessionManager *auth.SessionManager) *AccountsController {
	return &AccountsController{
		service:        service,
		sessionManager: sessionManager,
	}
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account and signs the new user in.
// POST /api/auth/register
func (controller *AccountsController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username, email and password are required")
		return
	}

	user, err := controller.service.Register(req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			respondConflict(c, err.Error())
		case errors.Is(err, auth.ErrUsernameInvalid),
			errors.Is(err, auth.ErrEmailInvalid),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrPasswordTooLong):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "register")
		}
		return
	}

	if err := controller.sessionManager.CreateSession(c.Request, user); err != nil {
		respondInternalError(c, err, "create session")
		return
	}
	respondCreated(c, user)
}

// LoginRequest is the payload for signing in. Login accepts a username or
// an email address.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and starts a session.
// POST /api/auth/login
func (controller *AccountsController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "login and password are required")
		return
	}

	user, err := controller.service.Authenticate(req.Login, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidPassword) {
			// Same response for both, do not leak which accounts exist.
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondInternalError(c, err, "login")
		return
	}

	if err := controller.sessionManager.CreateSession(c.Request, user); err != nil {
		respondInternalError(c, err, "create session")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout destroys the current session.
// POST /api/auth/logout
func (controller *AccountsController) Logout(c *gin.Context) {
	if err := controller.sessionManager.DestroySession(c.Request); err != nil {
		respondInternalError(c, err, "logout")
		return
	}
	respondSuccess(c, "signed out")
}

// Me returns the signed-in user.
// GET /api/auth/me
func (controller *AccountsController) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == entities.AnonymousUserID {
		respondError(c, http.StatusUnauthorized, "not signed in")
		return
	}

	user, err := controller.service.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "not signed in")
			return
		}
		respondInternalError(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, user)
}
