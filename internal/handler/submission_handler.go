package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/alphard-edu/exam-registration-api/internal/dto"
	"github.com/alphard-edu/exam-registration-api/internal/service"
	appErrors "github.com/alphard-edu/exam-registration-api/pkg/errors"
)

// SubmissionHandler serves the public registration form endpoint.
type SubmissionHandler struct {
	service *service.SubmissionService
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// Submit godoc
// @Summary Submit a registration
// @Description Accepts the public exam-registration form and redirects back to the form page
// @Tags Public
// @Accept x-www-form-urlencoded
// @Param first_name formData string true "First name"
// @Param last_name formData string true "Last name"
// @Param birth_date formData string true "Birth date (YYYY-MM-DD)"
// @Param cnp formData string true "National identifier, 13 digits"
// @Param phone formData string true "Phone"
// @Param email formData string true "Email"
// @Param exam formData string true "Exam category"
// @Success 303 {string} string "redirect to /?success=1 or /?error=..."
// @Router /submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var form dto.SubmitForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirectError(c, service.MsgFieldsRequired)
		return
	}

	if _, err := h.service.Submit(c.Request.Context(), form); err != nil {
		appErr := appErrors.FromError(err)
		h.redirectError(c, appErr.Message)
		return
	}

	c.Redirect(http.StatusSeeOther, "/?success=1")
}

func (h *SubmissionHandler) redirectError(c *gin.Context, message string) {
	c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(message))
}
