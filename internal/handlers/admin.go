package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dipesh37/quiz1/internal/middleware"
	"github.com/dipesh37/quiz1/internal/services"
	"github.com/dipesh37/quiz1/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	msgNotFound = "Submission not found"
	msgDeleted  = "Submission deleted successfully"
)

// AdminHandler serves the operator endpoints. They are intentionally
// unauthenticated.
type AdminHandler struct {
	submissionService *services.SubmissionService
	hub               *ws.Hub
}

func NewAdminHandler(submissionService *services.SubmissionService, hub *ws.Hub) *AdminHandler {
	return &AdminHandler{submissionService: submissionService, hub: hub}
}

// ListSubmissions godoc
// @Summary      List submissions
// @Description  All submissions, newest first
// @Tags         admin
// @Produce      json
// @Success      200 {object} ListResponse
// @Failure      500 {object} ErrorResponse
// @Router       /admin/submissions [get]
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	subs, err := h.submissionService.List(c.Request.Context())
	if err != nil {
		middleware.Logger(c).Error("list submissions failed", slog.Any("error", err))
		fail(c, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success:     true,
		Count:       len(subs),
		Submissions: subs,
	})
}

// DeleteSubmission godoc
// @Summary      Delete a submission
// @Description  Delete the submission for an email address
// @Tags         admin
// @Produce      json
// @Param        email path string true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /admin/submissions/{email} [delete]
func (h *AdminHandler) DeleteSubmission(c *gin.Context) {
	email := services.NormalizeEmail(c.Param("email"))

	err := h.submissionService.Delete(c.Request.Context(), email)
	switch {
	case errors.Is(err, services.ErrSubmissionNotFound):
		fail(c, http.StatusNotFound, msgNotFound)
		return
	case err != nil:
		middleware.Logger(c).Error("delete submission failed", "email", email, slog.Any("error", err))
		fail(c, http.StatusInternalServerError, msgInternalError)
		return
	}

	middleware.Logger(c).Info("submission deleted", "email", email)
	if h.hub != nil {
		h.hub.Broadcast(ws.Event{Type: ws.EventSubmissionDeleted, Data: gin.H{"email": email}})
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: msgDeleted})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Feed godoc
// @Summary      Live submission feed
// @Description  WebSocket that receives submission_created and submission_deleted events
// @Tags         admin
// @Router       /admin/ws [get]
func (h *AdminHandler) Feed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.Logger(c).Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	h.hub.AddConnection(conn)
	defer h.hub.RemoveConnection(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
