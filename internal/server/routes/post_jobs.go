package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/pokegraph/internal/queue"
	"github.com/OFFIS-RIT/pokegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CreateJobHandler enqueues an ingest or process job for the worker.
func CreateJobHandler(c echo.Context) error {
	type jobParams struct {
		Kind string `param:"kind" validate:"required,oneof=ingest process"`
	}
	type jobResponse struct {
		Message string        `json:"message"`
		Job     *queue.JobMsg `json:"job,omitempty"`
	}

	params := new(jobParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, jobResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, jobResponse{Message: "Unknown job kind"})
	}

	var reset bool
	if err := echo.QueryParamsBinder(c).Bool("reset", &reset).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, jobResponse{Message: "Invalid reset parameter"})
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, jobResponse{
			Message: "Job queue is not configured",
		})
	}

	job, err := queue.PublishJob(c.Request().Context(), app.Queue, params.Kind, reset)
	if err != nil {
		logger.Error("[API] Failed to publish job", "kind", params.Kind, "err", err)
		return c.JSON(http.StatusInternalServerError, jobResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, jobResponse{Message: "Job queued.", Job: job})
}
