package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/alphard-edu/exam-registration-api/pkg/errors"
)

// ErrorEnvelope is the body shape for every failed request.
type ErrorEnvelope struct {
	Error *appErrors.Error `json:"error"`
}

// JSON sends a success payload as-is. Admin endpoints have a fixed body
// contract ({"rows": ...}, {"ok": true}) so success responses are not
// wrapped in an envelope.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, payload)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorEnvelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
