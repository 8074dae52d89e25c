package handlers

import (
	"net"
	"strings"
	"time"

	"github.com/dipesh37/quiz1/internal/models"

	"github.com/gin-gonic/gin"
)

const msgInternalError = "Internal server error"

type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"something went wrong"`
}

type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"operation successful"`
}

type SubmitResponse struct {
	Success     bool      `json:"success" example:"true"`
	Message     string    `json:"message" example:"Answer submitted successfully"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type ListResponse struct {
	Success     bool                `json:"success" example:"true"`
	Count       int                 `json:"count" example:"1"`
	Submissions []models.Submission `json:"submissions"`
}

// Type alias so swag can resolve the model in annotations.
type Submission = models.Submission

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Success: false, Message: message})
}

// clientIP prefers the first X-Forwarded-For hop and falls back to the
// connection's remote address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr)); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}
