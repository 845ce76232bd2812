package quizzes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aura-quiz/backend/internal/middleware"
	"github.com/aura-quiz/backend/internal/models"
	"github.com/aura-quiz/backend/internal/scoring"
	"github.com/aura-quiz/backend/internal/share"
	"github.com/aura-quiz/backend/pkg/response"
)

// CreateRequest is the body for POST /quizzes.
type CreateRequest struct {
	CreatorName string `json:"creator_name"`
	Description string `json:"description"`
}

// ScoreRequest is the body for POST /quizzes/:id/score. Keys are question indexes ("0".."9").
type ScoreRequest struct {
	Answers models.AnswerSet `json:"answers" binding:"required"`
}

// CardURLs resolves where a rendered share card can be downloaded.
type CardURLs interface {
	ShareCardURL(key string) string
}

// Handler handles quiz HTTP endpoints.
type Handler struct {
	svc   *Service
	links *share.Links
	cards CardURLs
}

// NewHandler creates a quizzes handler. cards may be nil when share cards are not stored.
func NewHandler(svc *Service, links *share.Links, cards CardURLs) *Handler {
	return &Handler{svc: svc, links: links, cards: cards}
}

// Create handles POST /quizzes (creator submits a description).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.Create(c.Request.Context(), CreateInput{
		CreatorName: req.CreatorName,
		Description: req.Description,
		CreatedBy:   middleware.UserID(c),
	})
	if err != nil {
		response.Error(c, err, nil)
		return
	}
	response.Created(c, gin.H{"quiz": q, "share_url": h.links.URL(q.ID)})
}

// GetByID handles GET /quizzes/:id. The answer key is only included for the quiz's owner.
func (h *Handler) GetByID(c *gin.Context) {
	q, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err, nil)
		return
	}
	if q.IsOwnedBy(middleware.UserID(c)) {
		response.OK(c, gin.H{"quiz": q, "is_owner": true})
		return
	}
	response.OK(c, gin.H{"quiz": q.ToPublic(), "is_owner": false})
}

// Share handles GET /quizzes/:id/share (shareable link and share card location).
func (h *Handler) Share(c *gin.Context) {
	q, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err, nil)
		return
	}
	out := gin.H{"url": h.links.URL(q.ID)}
	if h.cards != nil {
		out["card_url"] = h.cards.ShareCardURL(share.CardKey(q.ID))
	}
	response.OK(c, out)
}

// QRCode handles GET /quizzes/:id/qr.png, rendering the shareable link on the fly.
func (h *Handler) QRCode(c *gin.Context) {
	q, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err, nil)
		return
	}
	png, err := h.links.QRCode(q.ID)
	if err != nil {
		response.Internal(c, "failed to render qr code")
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

// Score handles POST /quizzes/:id/score (stateless scoring of a full answer set).
func (h *Handler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err, nil)
		return
	}
	res, err := scoring.Score(q, req.Answers)
	if err != nil {
		response.Error(c, err, nil)
		return
	}
	response.OK(c, res)
}
