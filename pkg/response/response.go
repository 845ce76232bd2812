package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aura-quiz/backend/internal/apperr"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// internalMessage replaces the text of unclassified errors on the wire.
const internalMessage = "internal server error"

// Error sends err with the status its taxonomy maps to. Data, when non-nil, is sent alongside
// so clients can render the state an error left them in. Unclassified errors are attached to
// the gin context for the request logger and reach the client only as a generic message.
func Error(c *gin.Context, err error, data interface{}) {
	status := apperr.Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = internalMessage
	}
	c.JSON(status, Body{Success: false, Data: data, Error: msg})
}
