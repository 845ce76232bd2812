package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-quiz/backend/pkg/response"
)

// TokenResponse is the guest auth response.
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Handler issues guest identities.
type Handler struct {
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{jwt: jwt, logger: logger}
}

// Guest handles POST /auth/guest. A caller presenting a still-valid token keeps its identifier
// and gets a refreshed token; everyone else gets a fresh identifier.
func (h *Handler) Guest(c *gin.Context) {
	userID := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if claims, err := h.jwt.Validate(strings.TrimPrefix(header, "Bearer ")); err == nil {
			userID = claims.UserID
		}
	}
	fresh := userID == ""
	if fresh {
		userID = uuid.New().String()
	}

	token, err := h.jwt.Generate(userID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	if fresh {
		h.logger.Info("guest identity issued", zap.String("user_id", userID))
		response.Created(c, TokenResponse{Token: token, UserID: userID})
		return
	}
	response.OK(c, TokenResponse{Token: token, UserID: userID})
}
