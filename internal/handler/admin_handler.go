package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alphard-edu/exam-registration-api/internal/dto"
	"github.com/alphard-edu/exam-registration-api/internal/models"
	"github.com/alphard-edu/exam-registration-api/internal/service"
	appErrors "github.com/alphard-edu/exam-registration-api/pkg/errors"
	"github.com/alphard-edu/exam-registration-api/pkg/response"
)

// AdminHandler serves the token-gated submission management endpoints.
type AdminHandler struct {
	service *service.SubmissionService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(svc *service.SubmissionService) *AdminHandler {
	return &AdminHandler{service: svc}
}

func filterFromQuery(c *gin.Context) models.SubmissionFilter {
	return models.SubmissionFilter{
		Search:   c.Query("q"),
		Exam:     c.Query("exam"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
}

// List godoc
// @Summary List submissions
// @Description Filtered listing of registrations, newest first
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "substring search across name, email, phone, cnp"
// @Param exam query string false "exact exam category"
// @Param date_from query string false "inclusive start date (YYYY-MM-DD)"
// @Param date_to query string false "inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} dto.ListSubmissionsResponse
// @Failure 401 {object} response.ErrorEnvelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /admin/submissions [get]
func (h *AdminHandler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ListSubmissionsResponse{Rows: rows})
}

// Update godoc
// @Summary Set the done flag
// @Description Sets done to exactly the requested value; unknown ids succeed silently
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "submission id"
// @Param payload body dto.UpdateSubmissionRequest true "desired flag"
// @Success 200 {object} dto.AckResponse
// @Failure 400 {object} response.ErrorEnvelope
// @Router /admin/submissions/{id} [patch]
func (h *AdminHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission id"))
		return
	}

	var req dto.UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid body"))
		return
	}

	if err := h.service.SetDone(c.Request.Context(), id, *req.Done); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.AckResponse{OK: true})
}

// Delete godoc
// @Summary Delete a submission
// @Description Permanently removes the row; deleting an unknown id succeeds
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "submission id"
// @Success 200 {object} dto.AckResponse
// @Failure 400 {object} response.ErrorEnvelope
// @Router /admin/submissions/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.AckResponse{OK: true})
}

// Stats godoc
// @Summary Registration counters
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SubmissionStats
// @Router /admin/submissions/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats)
}

// Export godoc
// @Summary Export submissions
// @Description Streams the filtered listing as CSV or PDF
// @Tags Admin
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorEnvelope
// @Router /admin/submissions/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))

	data, contentType, err := h.service.Export(c.Request.Context(), filterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("submissions-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
