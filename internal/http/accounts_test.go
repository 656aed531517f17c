package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bibliotheca/internal/auth"
	"github.com/openshelf/bibliotheca/internal/config"
	"github.com/openshelf/bibliotheca/internal/database"
	"github.com/openshelf/bibliotheca/internal/database/users"
	"github.com/openshelf/bibliotheca/internal/entities"
)

func setupAccountsTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Auth{
		Mode:            config.AuthModeLocal,
		SessionLifetime: time.Hour,
		BcryptCost:      4, // fast hashing in tests
	}

	service := auth.NewService(users.NewRepository(db.DB), cfg)

	sqlDB, err := db.SQLDB()
	require.NoError(t, err)
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg)
	require.NoError(t, err)

	middleware := auth.NewMiddleware(service, sessionManager, cfg)

	router := gin.New()
	router.Use(sessionManager.SessionLoadSave())
	router.Use(middleware.Handler())

	controller := NewAccountsController(service, sessionManager)
	router.POST("/api/auth/register", controller.Register)
	router.POST("/api/auth/login", controller.Login)
	router.POST("/api/auth/logout", controller.Logout)
	router.GET("/api/auth/me", controller.Me)
	return router
}

func jsonRequest(method, path string, payload any, cookies []*http.Cookie) *http.Request {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return req
}

func TestAccountsController_RegisterLoginMe(t *testing.T) {
	router := setupAccountsTest(t)

	// Register signs the user in
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", map[string]string{
		"username": "ishmael",
		"email":    "ishmael@pequod.sea",
		"password": "callmeishmael",
	}, nil))
	require.Equal(t, http.StatusCreated, w.Code)

	var registered entities.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.True(t, registered.IsAdmin, "first account becomes the administrator")
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// The session cookie resolves to the user
	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/auth/me", nil, cookies))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ishmael")

	// Login works with the email as well
	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", map[string]string{
		"login":    "ishmael@pequod.sea",
		"password": "callmeishmael",
	}, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccountsController_InvalidCredentials(t *testing.T) {
	router := setupAccountsTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", map[string]string{
		"username": "ishmael",
		"email":    "ishmael@pequod.sea",
		"password": "callmeishmael",
	}, nil))
	require.Equal(t, http.StatusCreated, w.Code)

	// Wrong password and unknown account read the same
	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", map[string]string{
		"login": "ishmael", "password": "wrong-password",
	}, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongBody := w.Body.String()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/login", map[string]string{
		"login": "nobody", "password": "wrong-password",
	}, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongBody, w.Body.String())
}

func TestAccountsController_DuplicateRegistration(t *testing.T) {
	router := setupAccountsTest(t)

	payload := map[string]string{
		"username": "ishmael",
		"email":    "ishmael@pequod.sea",
		"password": "callmeishmael",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", payload, nil))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", payload, nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAccountsController_MeWithoutSession(t *testing.T) {
	router := setupAccountsTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/auth/me", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountsController_Logout(t *testing.T) {
	router := setupAccountsTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/register", map[string]string{
		"username": "ishmael",
		"email":    "ishmael@pequod.sea",
		"password": "callmeishmael",
	}, nil))
	require.Equal(t, http.StatusCreated, w.Code)
	cookies := w.Result().Cookies()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth/logout", nil, cookies))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/auth/me", nil, cookies))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
