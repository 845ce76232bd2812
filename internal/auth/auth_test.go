package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 1)
	token, err := svc.Generate("guest-1")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "guest-1", claims.UserID)
	assert.Equal(t, "guest-1", claims.Subject)
}

func TestJWTRejectsForeignTokens(t *testing.T) {
	token, err := NewJWTService("other", 1).Generate("guest-1")
	require.NoError(t, err)
	_, err = NewJWTService("secret", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewJWTService("secret", -1).Generate("guest-1")
	require.NoError(t, err)
	_, err = NewJWTService("secret", 1).Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "guest-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewJWTService("secret", 1).Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func guestRequest(t *testing.T, h *Handler, bearer string) (int, TokenResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/guest", h.Guest)

	req := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Data
}

func TestGuestIssuesAndRefreshes(t *testing.T) {
	h := NewHandler(NewJWTService("secret", 1), nil)

	code, first := guestRequest(t, h, "")
	assert.Equal(t, http.StatusCreated, code)
	assert.NotEmpty(t, first.UserID)

	code, again := guestRequest(t, h, first.Token)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, first.UserID, again.UserID)

	code, other := guestRequest(t, h, "garbage")
	assert.Equal(t, http.StatusCreated, code)
	assert.NotEqual(t, first.UserID, other.UserID)
}
