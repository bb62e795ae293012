package routes

import (
	"errors"
	"io"
	"net/http"

	"github.com/OFFIS-RIT/pokegraph/pkg/schema"

	"github.com/labstack/echo/v4"
)

// ValidateFragmentHandler checks a posted fragment document and reports the
// first violating field path.
func ValidateFragmentHandler(c echo.Context) error {
	type validateResponse struct {
		Valid   bool   `json:"valid"`
		Path    string `json:"path,omitempty"`
		Message string `json:"message,omitempty"`
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, validateResponse{Message: "Invalid request body"})
	}

	if err := schema.ValidateFragment(raw); err != nil {
		var violation *schema.SchemaViolation
		if errors.As(err, &violation) {
			return c.JSON(http.StatusUnprocessableEntity, validateResponse{
				Path:    violation.Path,
				Message: violation.Reason,
			})
		}
		return c.JSON(http.StatusBadRequest, validateResponse{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, validateResponse{Valid: true})
}
