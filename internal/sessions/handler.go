package sessions

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/lifecycle"
	"github.com/aura-quiz/backend/internal/middleware"
	"github.com/aura-quiz/backend/internal/models"
	"github.com/aura-quiz/backend/internal/share"
	"github.com/aura-quiz/backend/pkg/response"
)

// StartRequest is the body for POST /sessions. QuizID, or a shareable Link carrying one, enters test directly.
type StartRequest struct {
	QuizID string `json:"quiz_id"`
	Link   string `json:"link"`
}

// GenerateRequest is the body for POST /sessions/:id/generate.
type GenerateRequest struct {
	CreatorName string `json:"creator_name"`
	Description string `json:"description"`
}

// OpenRequest is the body for POST /sessions/:id/open.
type OpenRequest struct {
	QuizID string `json:"quiz_id"`
	Link   string `json:"link"`
}

func quizIDFrom(quizID, link string) string {
	if quizID != "" || link == "" {
		return quizID
	}
	id, _ := share.QuizIDFromURL(link)
	return id
}

// AnswerRequest is the body for PUT /sessions/:id/answers/:index.
type AnswerRequest struct {
	Option string `json:"option" binding:"required"`
}

// View is a session as returned to its viewer. Answer keys are only included for the quiz owner.
type View struct {
	ID        string           `json:"id"`
	Stage     lifecycle.Stage  `json:"stage"`
	Quiz      interface{}      `json:"quiz,omitempty"`
	Owner     bool             `json:"owner"`
	ShareURL  string           `json:"share_url,omitempty"`
	Answers   models.AnswerSet `json:"answers,omitempty"`
	Answered  int              `json:"answered"`
	Result    *models.Result   `json:"result,omitempty"`
	Notice    string           `json:"notice,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Handler handles lifecycle session endpoints.
type Handler struct {
	svc   *Service
	links *share.Links
}

// NewHandler creates a sessions handler.
func NewHandler(svc *Service, links *share.Links) *Handler {
	return &Handler{svc: svc, links: links}
}

func (h *Handler) view(s *Session) *View {
	if s == nil {
		return nil
	}
	snap := s.Snapshot
	v := &View{
		ID:        s.ID,
		Stage:     snap.Stage,
		Owner:     snap.Owner,
		Answers:   snap.Answers,
		Answered:  len(snap.Answers),
		Result:    snap.Result,
		Notice:    snap.Notice,
		UpdatedAt: s.UpdatedAt,
	}
	if snap.Quiz != nil {
		if snap.Owner {
			v.Quiz = snap.Quiz
		} else {
			v.Quiz = snap.Quiz.ToPublic()
		}
	}
	if snap.ShareRef != "" {
		v.ShareURL = h.links.URL(snap.ShareRef)
	}
	return v
}

func (h *Handler) reply(c *gin.Context, s *Session, err error) {
	if err != nil {
		var data interface{}
		if v := h.view(s); v != nil {
			data = v
		}
		response.Error(c, err, data)
		return
	}
	response.OK(c, h.view(s))
}

// Start handles POST /sessions.
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	s, err := h.svc.Start(c.Request.Context(), middleware.UserID(c), quizIDFrom(req.QuizID, req.Link))
	if err != nil {
		h.reply(c, s, err)
		return
	}
	response.Created(c, h.view(s))
}

// Get handles GET /sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	h.reply(c, s, err)
}

// Generate handles POST /sessions/:id/generate.
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.svc.Generate(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.CreatorName, req.Description)
	h.reply(c, s, err)
}

// TakeOwn handles POST /sessions/:id/take.
func (h *Handler) TakeOwn(c *gin.Context) {
	s, err := h.svc.TakeOwn(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	h.reply(c, s, err)
}

// Open handles POST /sessions/:id/open.
func (h *Handler) Open(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	quizID := quizIDFrom(req.QuizID, req.Link)
	if quizID == "" {
		response.BadRequest(c, "quiz_id or link required")
		return
	}
	s, err := h.svc.Open(c.Request.Context(), c.Param("id"), middleware.UserID(c), quizID)
	h.reply(c, s, err)
}

// Answer handles PUT /sessions/:id/answers/:index.
func (h *Handler) Answer(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "invalid question index")
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.svc.Answer(c.Request.Context(), c.Param("id"), middleware.UserID(c), index, req.Option)
	h.reply(c, s, err)
}

// Submit handles POST /sessions/:id/submit.
func (h *Handler) Submit(c *gin.Context) {
	s, err := h.svc.Submit(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	h.reply(c, s, err)
}

// Reset handles POST /sessions/:id/reset.
func (h *Handler) Reset(c *gin.Context) {
	s, err := h.svc.Reset(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	h.reply(c, s, err)
}

// Share handles GET /sessions/:id/share.
func (h *Handler) Share(c *gin.Context) {
	ref, err := h.svc.ShareLink(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidTransition) {
			response.NotFound(c, "session has no quiz to share yet")
			return
		}
		response.Error(c, err, nil)
		return
	}
	response.OK(c, gin.H{"quiz_id": ref, "url": h.links.URL(ref)})
}
