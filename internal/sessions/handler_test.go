package sessions

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-quiz/backend/internal/auth"
	"github.com/aura-quiz/backend/internal/middleware"
	"github.com/aura-quiz/backend/internal/quiztest"
	"github.com/aura-quiz/backend/internal/share"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newRouter(t *testing.T, f *fixture) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	links, err := share.NewLinks("https://quiz.example.com/", 64)
	require.NoError(t, err)
	jwtService := auth.NewJWTService("secret", 1)
	h := NewHandler(f.svc, links)

	r := gin.New()
	g := r.Group("/sessions", middleware.JWT(jwtService))
	g.POST("", h.Start)
	g.GET("/:id", h.Get)
	g.GET("/:id/share", h.Share)
	g.POST("/:id/generate", h.Generate)
	g.POST("/:id/take", h.TakeOwn)
	g.POST("/:id/open", h.Open)
	g.PUT("/:id/answers/:index", h.Answer)
	g.POST("/:id/submit", h.Submit)
	g.POST("/:id/reset", h.Reset)
	return r, jwtService
}

func call(t *testing.T, r http.Handler, token, method, path string, body interface{}) (int, apiResponse, View) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var v View
	if len(resp.Data) > 0 && string(resp.Data) != "null" {
		require.NoError(t, json.Unmarshal(resp.Data, &v))
	}
	return w.Code, resp, v
}

func TestHandlerFriendFlow(t *testing.T) {
	f := newFixture(t)
	r, jwtService := newRouter(t, f)
	token, err := jwtService.Generate("friend-1")
	require.NoError(t, err)

	code, resp, v := call(t, r, token, http.MethodPost, "/sessions", StartRequest{Link: "https://quiz.example.com/?testId=q1"})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	assert.Equal(t, "test", string(v.Stage))
	assert.False(t, v.Owner)
	assert.Equal(t, "https://quiz.example.com/?testId=q1", v.ShareURL)
	assert.NotContains(t, string(resp.Data), "correct_option")

	q := quiztest.Quiz("q1", "creator-1")
	for i, a := range quiztest.Answers(q, 3) {
		code, resp, _ = call(t, r, token, http.MethodPut, "/sessions/"+v.ID+"/answers/"+strconv.Itoa(i), AnswerRequest{Option: a})
		require.Equal(t, http.StatusOK, code, resp.Error)
	}

	code, resp, v = call(t, r, token, http.MethodPost, "/sessions/"+v.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	require.NotNil(t, v.Result)
	assert.Equal(t, 40, v.Result.Score)
	assert.Equal(t, "somewhat different", string(v.Result.Message))

	code, _, v = call(t, r, token, http.MethodPost, "/sessions/"+v.ID+"/reset", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "create", string(v.Stage))
	assert.Nil(t, v.Quiz)
}

func TestHandlerErrorsCarrySession(t *testing.T) {
	f := newFixture(t)
	r, jwtService := newRouter(t, f)
	token, err := jwtService.Generate("friend-1")
	require.NoError(t, err)

	code, resp, v := call(t, r, token, http.MethodPost, "/sessions", StartRequest{QuizID: "missing"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "create", string(v.Stage))
	assert.NotEmpty(t, v.Notice)
	id := v.ID

	code, _, _ = call(t, r, token, http.MethodPost, "/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _, _ = call(t, r, token, http.MethodGet, "/sessions/"+id+"/share", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _, v = call(t, r, token, http.MethodPost, "/sessions/"+id+"/generate", GenerateRequest{CreatorName: "Mina", Description: "short"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "create", string(v.Stage))
	assert.Equal(t, 0, f.gen.Calls())

	f.gen.Response = quiztest.QuestionsJSON(9)
	code, _, v = call(t, r, token, http.MethodPost, "/sessions/"+id+"/generate", GenerateRequest{CreatorName: "Mina", Description: description})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "create", string(v.Stage))

	code, _, _ = call(t, r, token, http.MethodPut, "/sessions/"+id+"/answers/x", AnswerRequest{Option: "a"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = call(t, r, token, http.MethodPost, "/sessions/"+id+"/open", OpenRequest{Link: "https://quiz.example.com/"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, v = call(t, r, token, http.MethodPost, "/sessions/"+id+"/open", OpenRequest{QuizID: "q1"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "test", string(v.Stage))

	other, err := jwtService.Generate("friend-2")
	require.NoError(t, err)
	code, _, _ = call(t, r, other, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandlerCreatorSeesAnswerKey(t *testing.T) {
	f := newFixture(t)
	r, jwtService := newRouter(t, f)
	token, err := jwtService.Generate("creator-2")
	require.NoError(t, err)

	code, _, v := call(t, r, token, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, code)

	code, resp, v := call(t, r, token, http.MethodPost, "/sessions/"+v.ID+"/generate", GenerateRequest{CreatorName: "Mina", Description: description})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, "quizGenerated", string(v.Stage))
	assert.True(t, v.Owner)
	assert.Contains(t, string(resp.Data), "correct_option")

	code, resp, _ = call(t, r, token, http.MethodGet, "/sessions/"+v.ID+"/share", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "?testId=")

	code, _, v = call(t, r, token, http.MethodPost, "/sessions/"+v.ID+"/take", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "test", string(v.Stage))
}
