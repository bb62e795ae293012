package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/pokegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ProcessHandler builds the graph from the record streams and exports it.
func ProcessHandler(c echo.Context) error {
	type processResponse struct {
		Message string   `json:"message"`
		BuildID string   `json:"build_id,omitempty"`
		Records int      `json:"records,omitempty"`
		Skipped []string `json:"skipped,omitempty"`
		Files   []string `json:"files,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	logger.Info("[API] Starting graph build")

	res, err := app.Pipeline.Process(c.Request().Context())
	if err != nil {
		logger.Error("[API] Graph build failed", "err", err)
		return c.JSON(jobErrorStatus(err), processResponse{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, processResponse{
		Message: "Graph built and exported to CSV and JSON successfully.",
		BuildID: res.BuildID,
		Records: res.Records,
		Skipped: res.Skipped,
		Files:   res.Files,
	})
}
