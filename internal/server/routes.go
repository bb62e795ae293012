package server

import (
	"net/http"

	"github.com/OFFIS-RIT/pokegraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Pipeline routes
	e.POST("/ingest", routes.IngestHandler)
	e.POST("/ingest/:modality", routes.IngestFileHandler)
	e.POST("/process", routes.ProcessHandler)
	e.POST("/jobs/:kind", routes.CreateJobHandler)

	// Graph routes
	e.GET("/graph", routes.GetGraphHandler)
	e.GET("/graph/schema", routes.GetGraphSchemaHandler)
	e.GET("/graph/download", routes.GetGraphDownloadHandler)
	e.POST("/validate", routes.ValidateFragmentHandler)

	// Evaluation log routes
	e.GET("/logs", routes.GetLogsHandler)
	e.POST("/logs", routes.AppendLogHandler)
}
