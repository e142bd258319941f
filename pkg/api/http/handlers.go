package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aescanero/introductions/pkg/domain"
)

const (
	greeting = "Hello, JM AAcera man!"

	msgInserted      = "Inserted successfully"
	msgStoreFailure  = "Error retrieving data"
	msgInvalidIntro  = "Invalid introduction payload"
	msgInvalidUserID = "User ID must be an unsigned integer"
)

// IntroductionRequest is the body of a create request.
// Pointers distinguish a missing field from an empty string.
type IntroductionRequest struct {
	Title *string `json:"title" binding:"required"`
	Icon  *string `json:"icon" binding:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleRoot returns the static greeting
func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, greeting)
}

// handleUserGreeting greets a numeric user ID
func (s *Server) handleUserGreeting(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_PARAMETER",
				Message: msgInvalidUserID,
			},
		})
		return
	}

	c.String(http.StatusOK, fmt.Sprintf("Hello, JM AAcera man param with ID: %d", id))
}

// handleCreateIntroduction stores one introduction
func (s *Server) handleCreateIntroduction(c *gin.Context) {
	var req IntroductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid introduction request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: msgInvalidIntro,
				Details: err.Error(),
			},
		})
		return
	}

	intro := domain.Introduction{
		Title: *req.Title,
		Icon:  *req.Icon,
	}

	// Store errors are logged by the service; the cause stays server-side
	if err := s.introductions.Create(c.Request.Context(), intro); err != nil {
		c.String(http.StatusInternalServerError, msgStoreFailure)
		return
	}

	c.String(http.StatusOK, msgInserted)
}

// handleListIntroductions returns every stored introduction as a JSON array
func (s *Server) handleListIntroductions(c *gin.Context) {
	docs, err := s.introductions.List(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, msgStoreFailure)
		return
	}

	if docs == nil {
		docs = []domain.Document{}
	}

	c.JSON(http.StatusOK, docs)
}

// handleHealth reports the last store health check
func (s *Server) handleHealth(c *gin.Context) {
	status := s.health.GetStatus()

	code := http.StatusOK
	overall, store := "healthy", "ok"
	if !status.Healthy {
		code = http.StatusServiceUnavailable
		overall, store = "unhealthy", "unavailable"
	}

	c.JSON(code, gin.H{
		"status":    overall,
		"timestamp": status.CheckedAt,
		"checks": gin.H{
			"store": store,
		},
	})
}
