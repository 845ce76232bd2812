package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aura-quiz/backend/internal/auth"
)

func newRouter(jwtService *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://localhost:3000"), Logger(zap.NewNop()))
	whoami := func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) }
	r.GET("/required", JWT(jwtService), whoami)
	r.GET("/optional", OptionalJWT(jwtService), whoami)
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	token, err := svc.Generate("guest-7")
	require.NoError(t, err)
	r := newRouter(svc)

	w := do(r, http.MethodGet, "/required", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guest-7", w.Body.String())
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/required", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/required", "bad").Code)
}

func TestOptionalJWTMiddleware(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	token, err := svc.Generate("guest-7")
	require.NoError(t, err)
	r := newRouter(svc)

	w := do(r, http.MethodGet, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, http.MethodGet, "/optional", "bad")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, http.MethodGet, "/optional", token)
	assert.Equal(t, "guest-7", w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(auth.NewJWTService("secret", 1))
	w := do(r, http.MethodOptions, "/required", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLoggerRecordsHandlerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("decode questions of quiz q1"))
		c.Status(http.StatusInternalServerError)
	})

	do(r, http.MethodGet, "/boom", "")
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusInternalServerError), ctx["status"])
	assert.Equal(t, []interface{}{"decode questions of quiz q1"}, ctx["errors"])
}
