package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dipesh37/quiz1/internal/middleware"
	"github.com/dipesh37/quiz1/internal/models"
	"github.com/dipesh37/quiz1/internal/services"
	"github.com/dipesh37/quiz1/internal/ws"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidBody = "Invalid request body"
	msgDuplicate   = "This email has already submitted an answer"
	msgSubmitted   = "Answer submitted successfully"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
	hub               *ws.Hub
}

func NewSubmissionHandler(submissionService *services.SubmissionService, hub *ws.Hub) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService, hub: hub}
}

type SubmitRequest struct {
	Email  string `json:"email" form:"email" example:"abc@nitj.ac.in"`
	Answer string `json:"answer" form:"answer" example:"this is a sufficiently long answer"`
}

// Submit godoc
// @Summary      Submit an answer
// @Description  Accepts one answer per @nitj.ac.in email address
// @Tags         submissions
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        request body SubmitRequest true "Submission"
// @Success      200 {object} SubmitResponse
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	sub, err := h.submissionService.Create(c.Request.Context(), services.CreateInput{
		Email:     req.Email,
		Answer:    req.Answer,
		IPAddress: clientIP(c),
	})
	if err != nil {
		h.writeCreateError(c, err)
		return
	}

	middleware.Logger(c).Info("submission received", "email", sub.Email)
	if h.hub != nil {
		h.hub.Broadcast(ws.Event{Type: ws.EventSubmissionCreated, Data: sub})
	}

	c.JSON(http.StatusOK, SubmitResponse{
		Success:     true,
		Message:     msgSubmitted,
		SubmittedAt: sub.SubmittedAt,
	})
}

func (h *SubmissionHandler) writeCreateError(c *gin.Context, err error) {
	var inputErr *services.InputError
	var validationErr *models.ValidationError

	switch {
	case errors.As(err, &inputErr):
		fail(c, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, services.ErrDuplicateSubmission):
		fail(c, http.StatusBadRequest, msgDuplicate)
	case errors.As(err, &validationErr):
		fail(c, http.StatusBadRequest, validationErr.Error())
	default:
		middleware.Logger(c).Error("create submission failed", slog.Any("error", err))
		fail(c, http.StatusInternalServerError, msgInternalError)
	}
}
